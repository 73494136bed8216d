package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	m "perfsieve.dev/pkg/perfsieve/internal/model"
)

func TestParseRuleSettings(t *testing.T) {
	t.Run("valid settings", func(t *testing.T) {
		settings, err := ParseRuleSettings([]string{"PS1002"}, map[string]string{"PS2001": "error"})
		require.NoError(t, err)

		assert.False(t, settings.Enabled(m.RuleStringConcatInLoop))
		assert.True(t, settings.Enabled(m.RuleLoopInvariantCall))

		rule, ok := m.LookupRule(m.RuleSealableType)
		require.True(t, ok)
		assert.Equal(t, m.SeverityError, settings.Effective(rule).Severity)
	})

	t.Run("empty settings keep defaults", func(t *testing.T) {
		settings, err := ParseRuleSettings(nil, nil)
		require.NoError(t, err)

		for _, rule := range m.Rules {
			assert.True(t, settings.Enabled(rule.ID))
			assert.Equal(t, rule, settings.Effective(rule))
		}
	})

	t.Run("unknown disabled rule", func(t *testing.T) {
		_, err := ParseRuleSettings([]string{"PS0000"}, nil)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "PS0000")
	})

	t.Run("unknown severity rule", func(t *testing.T) {
		_, err := ParseRuleSettings(nil, map[string]string{"PS0000": "info"})
		require.Error(t, err)
	})

	t.Run("unknown severity level", func(t *testing.T) {
		_, err := ParseRuleSettings(nil, map[string]string{"PS1001": "critical"})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "critical")
	})
}

func TestRuleSettings_Apply(t *testing.T) {
	settings := RuleSettings{Severity: map[m.RuleID]m.Severity{m.RuleLoopInvariantCall: m.SeverityError}}

	overridden := settings.apply(m.Finding{RuleID: m.RuleLoopInvariantCall, Severity: m.SeverityWarning})
	untouched := settings.apply(m.Finding{RuleID: m.RuleSealableType, Severity: m.SeverityInfo})

	assert.Equal(t, m.SeverityError, overridden.Severity)
	assert.Equal(t, m.SeverityInfo, untouched.Severity)
}

func TestEngine_LoopRulesUseCatalog(t *testing.T) {
	rules := (&engine{}).loopRules(newFakeFacts())
	require.Len(t, rules, 3)

	for _, rule := range rules {
		catalog, ok := m.LookupRule(rule.Rule().ID)
		require.True(t, ok)
		assert.Equal(t, catalog, rule.Rule())
	}
}
