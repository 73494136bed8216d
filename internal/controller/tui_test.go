package controller

import (
	"bytes"
	"context"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	m "perfsieve.dev/pkg/perfsieve/internal/model"
)

func TestTUI_DisplayFindings(t *testing.T) {
	var buf bytes.Buffer

	ui := NewTUI(&buf)
	ctx := context.Background()

	require.NoError(t, ui.Start(ctx, WithAnalyzeMode()))
	require.NoError(t, ui.DisplayFindings(ctx, m.Report{PassID: "p1", Findings: testFindings()}))
	ui.Wait(ctx)
	ui.Close(ctx)

	out := buf.String()
	assert.Contains(t, out, "perfsieve findings")
	assert.NotContains(t, out, "pass p1")
	assert.Contains(t, out, "Program.cs:14:38")
	assert.Contains(t, out, "type Counter has no derived types")
	assert.Contains(t, out, "2 finding(s) in PS1001×1, PS2001×1")
}

func TestTUI_ViewModeTitle(t *testing.T) {
	var buf bytes.Buffer

	ui := NewTUI(&buf)
	ctx := context.Background()

	require.NoError(t, ui.Start(ctx, WithViewMode()))
	require.NoError(t, ui.DisplayFindings(ctx, m.Report{PassID: "p1"}))

	assert.Contains(t, buf.String(), "pass p1")
	assert.Contains(t, buf.String(), "No findings.")
}

func TestTUI_DisplayRules(t *testing.T) {
	var buf bytes.Buffer

	ui := NewTUI(&buf)

	err := ui.DisplayRules(context.Background(), []RuleStatus{
		{Rule: m.Rules[0], Enabled: true},
		{Rule: m.Rules[2], Enabled: false},
	})
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 4)
	assert.Contains(t, lines[0], "perfsieve rules")
	assert.Contains(t, lines[2], string(m.Rules[0].ID))
	assert.NotContains(t, lines[2], "(disabled)")
	assert.Contains(t, lines[3], string(m.Rules[2].ID))
	assert.Contains(t, lines[3], "(disabled)")
}

func TestTUI_DisplayPassInfo(t *testing.T) {
	var buf bytes.Buffer

	ui := NewTUI(&buf)
	ui.DisplayPassInfo(context.Background(), PassInfo{Language: "go", Inputs: 2, Threads: 8})

	assert.Contains(t, buf.String(), "go · 2 input(s) · 8 worker(s)")
}

func TestFindingsModel_Paging(t *testing.T) {
	findings := make([]m.Finding, 0, 20)
	for range 20 {
		findings = append(findings, testFindings()[0])
	}

	model := newFindingsModel(m.Report{Findings: findings}, ModeAnalyze)
	assert.False(t, model.needsPaging(), "unknown terminal height never pages")

	model = model.resize(80, 10)
	assert.True(t, model.needsPaging())
	assert.Equal(t, 4, model.viewport.Height)
	assert.Contains(t, model.View(), "q: quit")

	updated, cmd := model.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'q'}})
	require.NotNil(t, cmd)
	assert.IsType(t, tea.QuitMsg{}, cmd())
	assert.IsType(t, findingsModel{}, updated)

	resized, _ := model.Update(tea.WindowSizeMsg{Width: 120, Height: 100})
	assert.False(t, resized.(findingsModel).needsPaging())
}

func TestSummarizeRules(t *testing.T) {
	findings := append(testFindings(), testFindings()[0])

	assert.Equal(t, "PS1001×2, PS2001×1", summarizeRules(findings))
	assert.Empty(t, summarizeRules(nil))
}
