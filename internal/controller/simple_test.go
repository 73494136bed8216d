package controller

import (
	"bytes"
	"context"
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	m "perfsieve.dev/pkg/perfsieve/internal/model"
)

func testFindings() []m.Finding {
	return []m.Finding{
		{
			RuleID:   m.RuleLoopInvariantCall,
			Severity: m.SeverityWarning,
			Message:  "call to V2 in the loop condition returns the same value on every iteration; hoist it out of the loop",
			Location: m.SourceSpan{File: "Program.cs", Line: 14, Column: 38},
		},
		{
			RuleID:   m.RuleSealableType,
			Severity: m.SeverityInfo,
			Message:  "type Counter has no derived types and can be marked sealed",
			Location: m.SourceSpan{File: "Program.cs", Line: 3, Column: 1},
		},
	}
}

func newSimpleTestUI() (*SimpleUI, *bytes.Buffer) {
	var buf bytes.Buffer

	cmd := &cobra.Command{}
	cmd.SetOut(&buf)

	return NewSimpleUI(cmd), &buf
}

func TestSimpleUI_DisplayFindings(t *testing.T) {
	tests := []struct {
		name         string
		findings     []m.Finding
		wantContains []string
	}{
		{
			name:         "no findings",
			wantContains: []string{"No findings."},
		},
		{
			name:     "findings table",
			findings: testFindings(),
			wantContains: []string{
				"LOCATION", "RULE", "SEVERITY", "MESSAGE",
				"Program.cs:14:38", "PS1001", "warning",
				"Program.cs:3:1", "PS2001", "info",
				"TOTAL 2", "0/1/1",
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ui, buf := newSimpleTestUI()

			err := ui.DisplayFindings(context.Background(), m.Report{PassID: "p", Findings: tt.findings})
			require.NoError(t, err)

			for _, want := range tt.wantContains {
				assert.Contains(t, buf.String(), want)
			}
		})
	}
}

func TestSimpleUI_DisplayPassInfo(t *testing.T) {
	ui, buf := newSimpleTestUI()

	require.NoError(t, ui.Start(context.Background(), WithAnalyzeMode()))
	ui.DisplayPassInfo(context.Background(), PassInfo{PassID: "abc", Language: "csharp", Inputs: 3, Threads: 4})
	ui.Wait(context.Background())
	ui.Close(context.Background())

	assert.Equal(t, "Analyzing 3 csharp input(s) with 4 worker(s) (pass abc)\n", buf.String())
}

func TestSimpleUI_DisplayRules(t *testing.T) {
	ui, buf := newSimpleTestUI()

	rules := []RuleStatus{
		{Rule: m.Rules[0], Enabled: true},
		{Rule: m.Rules[1], Enabled: false},
	}

	require.NoError(t, ui.DisplayRules(context.Background(), rules))

	out := buf.String()
	assert.Contains(t, out, "ENABLED")
	assert.Contains(t, out, string(m.Rules[0].ID))
	assert.Contains(t, out, m.Rules[1].Title)
	assert.Contains(t, out, "yes")
	assert.Contains(t, out, "no")
}

func TestSimpleUI_Cancelled(t *testing.T) {
	ui, buf := newSimpleTestUI()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	assert.ErrorIs(t, ui.Start(ctx), context.Canceled)
	assert.ErrorIs(t, ui.DisplayFindings(ctx, m.Report{Findings: testFindings()}), context.Canceled)
	assert.ErrorIs(t, ui.DisplayRules(ctx, nil), context.Canceled)
	ui.DisplayPassInfo(ctx, PassInfo{})
	assert.Empty(t, buf.String())
}

func TestNewUI(t *testing.T) {
	cmd := &cobra.Command{}

	assert.IsType(t, &SimpleUI{}, NewUI(cmd, false))
	assert.IsType(t, &TUI{}, NewUI(cmd, true))
	assert.False(t, IsTTY(&bytes.Buffer{}))
}
