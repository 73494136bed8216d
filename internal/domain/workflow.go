// Package domain holds the analysis rules, the engine that schedules them and
// the workflows behind each command.
package domain

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"perfsieve.dev/pkg/perfsieve/internal/adapter"
	"perfsieve.dev/pkg/perfsieve/internal/controller"
	m "perfsieve.dev/pkg/perfsieve/internal/model"
	"perfsieve.dev/pkg/perfsieve/internal/telemetry"
)

// AnalyzeArgs contains the arguments of one analysis pass.
type AnalyzeArgs struct {
	Paths    []m.Path
	Language adapter.Language
	Exclude  []string
	// Reports is the output directory; empty skips storing the report.
	Reports m.Path
	Threads int
	Rules   RuleSettings
}

// ViewArgs contains the arguments for viewing a stored report.
type ViewArgs struct {
	Reports m.Path
}

// Workflow runs the commands of the CLI.
type Workflow interface {
	Analyze(ctx context.Context, args AnalyzeArgs) (m.Report, error)
	Rules(ctx context.Context, settings RuleSettings) error
	View(ctx context.Context, args ViewArgs) error
}

type workflow struct {
	controller.UI

	loader adapter.FactsLoader
	store  adapter.FindingStore

	newEngine func(EngineOptions) Engine
}

// NewWorkflow creates a Workflow with the provided dependencies.
func NewWorkflow(loader adapter.FactsLoader, store adapter.FindingStore, ui controller.UI) Workflow {
	return &workflow{
		UI:        ui,
		loader:    loader,
		store:     store,
		newEngine: NewEngine,
	}
}

func (w *workflow) Analyze(ctx context.Context, args AnalyzeArgs) (m.Report, error) {
	passID := uuid.NewString()
	logger := slog.With("pass_id", passID)
	start := time.Now()

	ctx, span := telemetry.Tracer().Start(ctx, "workflow.Analyze")
	defer span.End()

	span.SetAttributes(attribute.String("pass_id", passID))

	facts, err := w.loader.Load(ctx, adapter.LoadRequest{
		Language: args.Language,
		Paths:    args.Paths,
		Exclude:  args.Exclude,
		Threads:  args.Threads,
	})
	if err != nil {
		logger.Error("Failed to load program facts", "paths", args.Paths, "error", err)
		w.observe(span, string(args.Language), start, err)

		return m.Report{}, fmt.Errorf("load facts: %w", err)
	}

	language := string(facts.Language)
	span.SetAttributes(attribute.String("language", language))

	if err := w.Start(ctx, controller.WithAnalyzeMode()); err != nil {
		logger.Error("Failed to start workflow UI", "error", err)
		return m.Report{}, err
	}

	defer w.Close(ctx)

	w.DisplayPassInfo(ctx, controller.PassInfo{
		PassID:   passID,
		Language: language,
		Inputs:   facts.Inputs,
		Threads:  args.Threads,
	})

	findings, err := w.newEngine(EngineOptions{Threads: args.Threads, Rules: args.Rules}).Run(ctx, facts.Provider)
	if err != nil {
		logger.Error("Analysis pass failed", "error", err)
		w.observe(span, language, start, err)

		return m.Report{}, fmt.Errorf("analyze: %w", err)
	}

	report := m.Report{PassID: passID, Language: language, Findings: findings}

	if err := w.deliver(ctx, args.Reports, report); err != nil {
		logger.Error("Failed to deliver findings", "error", err)
		w.observe(span, language, start, err)

		return report, err
	}

	w.observe(span, language, start, nil)
	logger.Info("Analysis pass completed", "language", language, "findings", len(findings), "elapsed", time.Since(start))

	w.Wait(ctx)

	return report, nil
}

// deliver hands the report to every sink: the store first so a closed viewer
// never loses results.
func (w *workflow) deliver(ctx context.Context, dir m.Path, report m.Report) error {
	var sinks []adapter.DiagnosticSink

	if dir != "" {
		sinks = append(sinks, adapter.DiagnosticSinkFunc(func(ctx context.Context, findings []m.Finding) error {
			stored := report
			stored.Findings = findings

			return w.store.Save(ctx, dir, stored)
		}))
	}

	sinks = append(sinks, adapter.DiagnosticSinkFunc(func(ctx context.Context, findings []m.Finding) error {
		shown := report
		shown.Findings = findings

		return w.DisplayFindings(ctx, shown)
	}))

	for _, sink := range sinks {
		if err := sink.Report(ctx, report.Findings); err != nil {
			return err
		}
	}

	return nil
}

func (w *workflow) observe(span trace.Span, language string, start time.Time, err error) {
	status := telemetry.StatusOK

	switch {
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		status = telemetry.StatusCancelled
	case err != nil:
		status = telemetry.StatusError
	}

	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, status)
	}

	telemetry.ObservePass(language, status, time.Since(start))
}

func (w *workflow) Rules(ctx context.Context, settings RuleSettings) error {
	statuses := make([]controller.RuleStatus, 0, len(m.Rules))
	for _, rule := range m.Rules {
		statuses = append(statuses, controller.RuleStatus{
			Rule:    settings.Effective(rule),
			Enabled: settings.Enabled(rule.ID),
		})
	}

	if err := w.DisplayRules(ctx, statuses); err != nil {
		slog.Error("Failed to display rules", "error", err)
		return fmt.Errorf("display: %w", err)
	}

	return nil
}

func (w *workflow) View(ctx context.Context, args ViewArgs) error {
	report, err := w.store.Load(ctx, args.Reports)
	if err != nil {
		slog.Error("Failed to load stored report", "dir", args.Reports, "error", err)
		return fmt.Errorf("load report: %w", err)
	}

	if err := w.Start(ctx, controller.WithViewMode()); err != nil {
		slog.Error("Failed to start workflow UI", "error", err)
		return err
	}

	defer w.Close(ctx)

	if err := w.DisplayFindings(ctx, report); err != nil {
		slog.Error("Failed to display findings", "error", err)
		return fmt.Errorf("display: %w", err)
	}

	w.Wait(ctx)

	return nil
}
