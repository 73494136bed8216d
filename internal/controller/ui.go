// Package controller provides output adapters for displaying analysis findings.
package controller

import (
	"context"
	"io"
	"os"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	m "perfsieve.dev/pkg/perfsieve/internal/model"
)

// StartMode defines the mode of operation for the UI.
type StartMode int

// Available StartMode values.
const (
	ModeAnalyze StartMode = iota
	ModeView
)

// StartOption is a functional option for Start method.
type StartOption func(*StartConfig)

// StartConfig holds configuration for starting the UI.
type StartConfig struct {
	mode StartMode
}

// WithAnalyzeMode sets the UI to report a fresh analysis pass.
func WithAnalyzeMode() StartOption {
	return func(c *StartConfig) {
		c.mode = ModeAnalyze
	}
}

// WithViewMode sets the UI to browse a stored report.
func WithViewMode() StartOption {
	return func(c *StartConfig) {
		c.mode = ModeView
	}
}

// PassInfo describes an analysis pass before it runs.
type PassInfo struct {
	PassID   string
	Language string
	Inputs   int
	Threads  int
}

// RuleStatus is a rule with its effective configuration.
type RuleStatus struct {
	Rule    m.Rule
	Enabled bool
}

// UI defines the interface for presenting analysis results.
// Implementations can use different output methods (simple text, TUI, etc).
type UI interface {
	Start(ctx context.Context, options ...StartOption) error
	Close(ctx context.Context)
	Wait(ctx context.Context) // Wait for UI to finish (user closes it)
	DisplayPassInfo(ctx context.Context, info PassInfo)
	DisplayFindings(ctx context.Context, report m.Report) error
	DisplayRules(ctx context.Context, rules []RuleStatus) error
}

// NewUI returns the TUI when writing to a terminal and SimpleUI otherwise.
func NewUI(cmd *cobra.Command, tty bool) UI {
	if tty {
		return NewTUI(cmd.OutOrStdout())
	}

	return NewSimpleUI(cmd)
}

// IsTTY reports whether w is a terminal.
func IsTTY(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}

	return term.IsTerminal(int(f.Fd()))
}
