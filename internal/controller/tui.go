package controller

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"

	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"golang.org/x/term"

	m "perfsieve.dev/pkg/perfsieve/internal/model"
)

const (
	defaultWidth  = 100
	defaultHeight = 0
	// header, blank line, summary, blank line and the help footer.
	reservedLines = 6
)

var (
	titleStyle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("12"))
	locStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
	ruleStyle    = lipgloss.NewStyle().Bold(true)
	helpStyle    = lipgloss.NewStyle().Faint(true)
	severityTone = map[m.Severity]lipgloss.Style{
		m.SeverityError:   lipgloss.NewStyle().Foreground(lipgloss.Color("9")).Bold(true),
		m.SeverityWarning: lipgloss.NewStyle().Foreground(lipgloss.Color("11")),
		m.SeverityInfo:    lipgloss.NewStyle().Foreground(lipgloss.Color("14")),
	}
)

// TUI implements UI using Bubble Tea. Short reports are printed directly;
// long ones open a scrollable viewport that Wait blocks on.
type TUI struct {
	output io.Writer
	mode   StartMode

	mu      sync.Mutex
	program *tea.Program
	done    chan struct{}
}

// NewTUI creates a new TUI.
func NewTUI(output io.Writer) *TUI {
	return &TUI{output: output}
}

// Start initializes the UI.
func (p *TUI) Start(ctx context.Context, options ...StartOption) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	cfg := StartConfig{mode: ModeAnalyze}
	for _, option := range options {
		option(&cfg)
	}

	p.mode = cfg.mode

	return nil
}

// Close stops a running viewer.
func (p *TUI) Close(context.Context) {
	p.mu.Lock()
	program := p.program
	p.mu.Unlock()

	if program != nil {
		program.Quit()
	}
}

// Wait blocks until the user leaves the viewer or ctx ends.
func (p *TUI) Wait(ctx context.Context) {
	p.mu.Lock()
	done := p.done
	p.mu.Unlock()

	if done == nil {
		return
	}

	select {
	case <-done:
	case <-ctx.Done():
		p.Close(ctx)
		<-done
	}
}

// DisplayPassInfo prints the pass header.
func (p *TUI) DisplayPassInfo(ctx context.Context, info PassInfo) {
	if err := ctx.Err(); err != nil {
		return
	}

	_, _ = fmt.Fprintln(p.output, titleStyle.Render(fmt.Sprintf("perfsieve · %s · %d input(s) · %d worker(s)", info.Language, info.Inputs, info.Threads)))
}

// DisplayFindings shows the findings, paging when they do not fit.
func (p *TUI) DisplayFindings(ctx context.Context, report m.Report) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	model := newFindingsModel(report, p.mode)

	if f, ok := p.output.(*os.File); ok {
		if width, height, err := term.GetSize(int(f.Fd())); err == nil {
			model = model.resize(width, height)
		}
	}

	if !model.needsPaging() {
		_, err := fmt.Fprint(p.output, model.View())
		return err
	}

	program := tea.NewProgram(model, tea.WithOutput(p.output), tea.WithAltScreen(), tea.WithContext(ctx))
	done := make(chan struct{})

	p.mu.Lock()
	p.program = program
	p.done = done
	p.mu.Unlock()

	go func() {
		defer close(done)

		_, _ = program.Run()
	}()

	return nil
}

// DisplayRules prints the rule catalog.
func (p *TUI) DisplayRules(ctx context.Context, rules []RuleStatus) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	var b strings.Builder

	b.WriteString(titleStyle.Render("perfsieve rules") + "\n\n")

	for _, r := range rules {
		state := ""
		if !r.Enabled {
			state = helpStyle.Render(" (disabled)")
		}

		fmt.Fprintf(&b, "  %s  %s  %s%s\n",
			ruleStyle.Render(string(r.Rule.ID)),
			styleSeverity(r.Rule.Severity),
			r.Rule.Title,
			state)
	}

	_, err := fmt.Fprint(p.output, b.String())

	return err
}

func styleSeverity(s m.Severity) string {
	style, ok := severityTone[s]
	if !ok {
		return s.String()
	}

	return style.Render(fmt.Sprintf("%-7s", s.String()))
}

// findingsModel is the Bubble Tea model of the findings viewer.
type findingsModel struct {
	report   m.Report
	mode     StartMode
	lines    []string
	viewport viewport.Model
	height   int
}

func newFindingsModel(report m.Report, mode StartMode) findingsModel {
	lines := make([]string, 0, len(report.Findings))
	for _, f := range report.Findings {
		lines = append(lines, fmt.Sprintf("  %s %s %s\n      %s",
			styleSeverity(f.Severity),
			ruleStyle.Render(string(f.RuleID)),
			locStyle.Render(f.Location.String()),
			f.Message))
	}

	vp := viewport.New(defaultWidth, len(lines)*2)
	vp.SetContent(strings.Join(lines, "\n"))

	return findingsModel{report: report, mode: mode, lines: lines, viewport: vp, height: defaultHeight}
}

func (fm findingsModel) resize(width, height int) findingsModel {
	fm.height = height
	fm.viewport.Width = width

	if body := height - reservedLines; body > 0 {
		fm.viewport.Height = body
	}

	return fm
}

// needsPaging reports whether the findings overflow a known terminal height.
func (fm findingsModel) needsPaging() bool {
	return fm.height > 0 && len(fm.lines)*2 > fm.height-reservedLines
}

func (fm findingsModel) Init() tea.Cmd {
	return nil
}

func (fm findingsModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		return fm.resize(msg.Width, msg.Height), nil
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "esc", "ctrl+c":
			return fm, tea.Quit
		case "g", "home":
			fm.viewport.GotoTop()
			return fm, nil
		case "G", "end":
			fm.viewport.GotoBottom()
			return fm, nil
		}
	}

	var cmd tea.Cmd
	fm.viewport, cmd = fm.viewport.Update(msg)

	return fm, cmd
}

func (fm findingsModel) View() string {
	var b strings.Builder

	title := "perfsieve findings"
	if fm.mode == ModeView && fm.report.PassID != "" {
		title = fmt.Sprintf("perfsieve findings · pass %s", fm.report.PassID)
	}

	b.WriteString(titleStyle.Render(title) + "\n\n")

	if len(fm.lines) == 0 {
		b.WriteString("  No findings.\n")
		return b.String()
	}

	if fm.needsPaging() {
		b.WriteString(fm.viewport.View() + "\n")
	} else {
		b.WriteString(strings.Join(fm.lines, "\n") + "\n")
	}

	fmt.Fprintf(&b, "\n  %d finding(s) in %s\n", len(fm.report.Findings), summarizeRules(fm.report.Findings))

	if fm.needsPaging() {
		fmt.Fprintf(&b, "%s\n", helpStyle.Render(fmt.Sprintf("  %3.f%% | ↑/k ↓/j: scroll | g/G: top/bottom | q: quit", fm.viewport.ScrollPercent()*100)))
	}

	return b.String()
}

func summarizeRules(findings []m.Finding) string {
	counts := map[m.RuleID]int{}

	var order []m.RuleID

	for _, f := range findings {
		if counts[f.RuleID] == 0 {
			order = append(order, f.RuleID)
		}

		counts[f.RuleID]++
	}

	parts := make([]string, 0, len(order))
	for _, id := range order {
		parts = append(parts, fmt.Sprintf("%s×%d", id, counts[id]))
	}

	return strings.Join(parts, ", ")
}
