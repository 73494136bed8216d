package controller

import (
	"bytes"
	"context"
	"fmt"

	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"

	m "perfsieve.dev/pkg/perfsieve/internal/model"
)

// SimpleUI implements UI using cobra Command's output.
type SimpleUI struct {
	cmd *cobra.Command
}

// NewSimpleUI creates a new SimpleUI.
func NewSimpleUI(cmd *cobra.Command) *SimpleUI {
	return &SimpleUI{cmd: cmd}
}

// Start initializes the UI.
func (s *SimpleUI) Start(ctx context.Context, _ ...StartOption) error {
	return ctx.Err()
}

// Close finalizes the UI.
func (s *SimpleUI) Close(context.Context) {}

// Wait blocks until the UI is closed (no-op for SimpleUI).
func (s *SimpleUI) Wait(context.Context) {}

// DisplayPassInfo prints the pass header.
func (s *SimpleUI) DisplayPassInfo(ctx context.Context, info PassInfo) {
	if err := ctx.Err(); err != nil {
		return
	}

	s.printf("Analyzing %d %s input(s) with %d worker(s) (pass %s)\n", info.Inputs, info.Language, info.Threads, info.PassID)
}

// DisplayFindings prints the findings table.
func (s *SimpleUI) DisplayFindings(ctx context.Context, report m.Report) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	if len(report.Findings) == 0 {
		s.printf("No findings.\n")
		return nil
	}

	s.printf("\n%s", renderFindingsTable(report.Findings))

	return nil
}

// DisplayRules prints the rule catalog.
func (s *SimpleUI) DisplayRules(ctx context.Context, rules []RuleStatus) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.printf("%s", renderRulesTable(rules))

	return nil
}

func renderFindingsTable(findings []m.Finding) string {
	var tableBuffer bytes.Buffer

	table := tablewriter.NewWriter(&tableBuffer)
	table.SetHeader([]string{"Location", "Rule", "Severity", "Message"})
	table.SetBorder(false)
	table.SetCenterSeparator("")
	table.SetAutoWrapText(false)
	table.SetColumnAlignment([]int{tablewriter.ALIGN_LEFT, tablewriter.ALIGN_CENTER, tablewriter.ALIGN_CENTER, tablewriter.ALIGN_LEFT})

	counts := map[m.Severity]int{}

	for _, f := range findings {
		table.Append([]string{f.Location.String(), string(f.RuleID), f.Severity.String(), f.Message})
		counts[f.Severity]++
	}

	table.SetFooter([]string{
		fmt.Sprintf("Total %d", len(findings)),
		"",
		fmt.Sprintf("%d/%d/%d", counts[m.SeverityError], counts[m.SeverityWarning], counts[m.SeverityInfo]),
		"errors/warnings/info",
	})

	table.Render()

	return tableBuffer.String()
}

func renderRulesTable(rules []RuleStatus) string {
	var tableBuffer bytes.Buffer

	table := tablewriter.NewWriter(&tableBuffer)
	table.SetHeader([]string{"Rule", "Severity", "Enabled", "Title"})
	table.SetBorder(false)
	table.SetCenterSeparator("")
	table.SetAutoWrapText(false)

	for _, r := range rules {
		enabled := "yes"
		if !r.Enabled {
			enabled = "no"
		}

		table.Append([]string{string(r.Rule.ID), r.Rule.Severity.String(), enabled, r.Rule.Title})
	}

	table.Render()

	return tableBuffer.String()
}

func (s *SimpleUI) printf(format string, args ...any) {
	_, _ = fmt.Fprintf(s.cmd.OutOrStdout(), format, args...)
}
