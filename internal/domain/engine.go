package domain

import (
	"context"
	"log/slog"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"golang.org/x/sync/errgroup"

	"perfsieve.dev/pkg/perfsieve/internal/adapter"
	m "perfsieve.dev/pkg/perfsieve/internal/model"
	"perfsieve.dev/pkg/perfsieve/internal/telemetry"
)

// EngineOptions configures an analysis pass.
type EngineOptions struct {
	// Threads bounds the number of loops and types analyzed at once; zero or
	// less means no bound.
	Threads int
	Rules   RuleSettings
}

// Engine runs every enabled rule over one program snapshot.
type Engine interface {
	// Run returns loop findings in loop order followed by type findings. When
	// ctx is cancelled mid-pass it returns ctx.Err() and no findings.
	Run(ctx context.Context, facts adapter.FactsProvider) ([]m.Finding, error)
}

type engine struct {
	opts EngineOptions
}

// NewEngine constructs an Engine.
func NewEngine(opts EngineOptions) Engine {
	return &engine{opts: opts}
}

func (e *engine) Run(ctx context.Context, facts adapter.FactsProvider) ([]m.Finding, error) {
	ctx, span := telemetry.Tracer().Start(ctx, "engine.Run")
	defer span.End()

	loops := facts.LoopNodes()
	types := facts.EnumerateTypeSymbols()
	rules := e.loopRules(facts)

	var collector TypeGraphCollector
	if e.opts.Rules.Enabled(m.RuleSealableType) {
		collector = NewTypeGraphCollector(facts)
	}

	span.SetAttributes(
		attribute.Int("loops", len(loops)),
		attribute.Int("types", len(types)),
		attribute.Int("threads", e.opts.Threads),
	)

	slots := make([][]m.Finding, len(loops))

	group, groupCtx := errgroup.WithContext(ctx)
	if e.opts.Threads > 0 {
		group.SetLimit(e.opts.Threads)
	}

	if len(rules) > 0 {
		for i, loop := range loops {
			if groupCtx.Err() != nil {
				break
			}

			group.Go(func() error {
				if err := groupCtx.Err(); err != nil {
					return err
				}

				construct, ok := facts.EnumerateLoopParts(loop)
				if !ok {
					return nil
				}

				for _, rule := range rules {
					slots[i] = append(slots[i], rule.Detect(construct)...)
				}

				return nil
			})
		}
	}

	if collector != nil {
		for _, t := range types {
			if groupCtx.Err() != nil {
				break
			}

			group.Go(func() error {
				if err := groupCtx.Err(); err != nil {
					return err
				}

				collector.Visit(t)

				return nil
			})
		}
	}

	// Barrier: classification needs every type visited.
	err := group.Wait()
	if err == nil {
		err = ctx.Err()
	}

	if err != nil {
		slog.Warn("Analysis pass aborted", "error", err)
		span.RecordError(err)
		span.SetStatus(codes.Error, "aborted")

		return nil, err
	}

	var findings []m.Finding
	for _, slot := range slots {
		findings = append(findings, slot...)
	}

	if collector != nil {
		findings = append(findings, NewSealabilityClassifier(facts).Classify(collector.Graph())...)
	}

	for i := range findings {
		findings[i] = e.opts.Rules.apply(findings[i])
		telemetry.AddFinding(string(findings[i].RuleID))
	}

	telemetry.AddUnits(telemetry.UnitLoop, len(loops))
	telemetry.AddUnits(telemetry.UnitType, len(types))
	span.SetAttributes(attribute.Int("findings", len(findings)))

	return findings, nil
}

func (e *engine) loopRules(facts adapter.FactsProvider) []LoopRule {
	tracker := NewMutationTracker(facts)

	var rules []LoopRule

	for _, rule := range []LoopRule{
		NewLoopInvariantDetector(facts, tracker),
		NewStringConcatDetector(facts),
		NewBranchAssignmentDetector(facts, tracker),
	} {
		if e.opts.Rules.Enabled(rule.Rule().ID) {
			rules = append(rules, rule)
		}
	}

	return rules
}
