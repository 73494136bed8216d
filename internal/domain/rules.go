package domain

import (
	"fmt"
	"slices"

	m "perfsieve.dev/pkg/perfsieve/internal/model"
)

// RuleSettings switches rules off and overrides their default severity.
type RuleSettings struct {
	Disabled []m.RuleID
	Severity map[m.RuleID]m.Severity
}

// ParseRuleSettings builds settings from configuration values, rejecting
// unknown rule IDs and severity names.
func ParseRuleSettings(disabled []string, severity map[string]string) (RuleSettings, error) {
	settings := RuleSettings{Severity: map[m.RuleID]m.Severity{}}

	for _, id := range disabled {
		if _, ok := m.LookupRule(m.RuleID(id)); !ok {
			return RuleSettings{}, fmt.Errorf("unknown rule %q", id)
		}

		settings.Disabled = append(settings.Disabled, m.RuleID(id))
	}

	for id, name := range severity {
		if _, ok := m.LookupRule(m.RuleID(id)); !ok {
			return RuleSettings{}, fmt.Errorf("unknown rule %q", id)
		}

		level, err := m.ParseSeverity(name)
		if err != nil {
			return RuleSettings{}, fmt.Errorf("rule %s: %w", id, err)
		}

		settings.Severity[m.RuleID(id)] = level
	}

	return settings, nil
}

// Enabled reports whether the rule runs.
func (s RuleSettings) Enabled(id m.RuleID) bool {
	return !slices.Contains(s.Disabled, id)
}

// Effective returns the rule with its configured severity.
func (s RuleSettings) Effective(rule m.Rule) m.Rule {
	if level, ok := s.Severity[rule.ID]; ok {
		rule.Severity = level
	}

	return rule
}

func (s RuleSettings) apply(f m.Finding) m.Finding {
	if level, ok := s.Severity[f.RuleID]; ok {
		f.Severity = level
	}

	return f
}
