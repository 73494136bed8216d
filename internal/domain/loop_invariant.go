package domain

import (
	"fmt"

	"perfsieve.dev/pkg/perfsieve/internal/adapter"
	m "perfsieve.dev/pkg/perfsieve/internal/model"
)

var loopInvariantRule = m.MustLookupRule(m.RuleLoopInvariantCall)

// LoopRule inspects one loop construct at a time. Implementations hold no
// per-loop state, so one instance serves every worker.
type LoopRule interface {
	Rule() m.Rule
	Detect(construct m.LoopConstruct) []m.Finding
}

type loopInvariantDetector struct {
	facts   adapter.FactsProvider
	tracker MutationTracker
	rule    m.Rule
}

// NewLoopInvariantDetector constructs the rule reporting calls in a loop
// condition whose operands the loop never writes.
func NewLoopInvariantDetector(facts adapter.FactsProvider, tracker MutationTracker) LoopRule {
	return &loopInvariantDetector{facts: facts, tracker: tracker, rule: loopInvariantRule}
}

func (d *loopInvariantDetector) Rule() m.Rule {
	return d.rule
}

// conditionCall is an invocation found in a loop condition.
type conditionCall struct {
	invocation *m.Node
	receiver   *m.Node
	anchor     m.SourceSpan
}

func (d *loopInvariantDetector) Detect(construct m.LoopConstruct) []m.Finding {
	if !construct.HasCondition() {
		return nil
	}

	calls := conditionCalls(construct.Condition)

	candidates := m.NewSymbolSet()
	for _, call := range calls {
		for _, operand := range call.operands() {
			if ref, ok := d.variable(operand); ok {
				candidates.Add(ref)
			}
		}
	}

	if candidates.Len() == 0 {
		return nil
	}

	d.tracker.RemoveMutated(candidates, construct.Body)

	if construct.Kind == m.LoopFor {
		for _, increment := range construct.Increments {
			d.tracker.RemoveMutated(candidates, []*m.Node{increment})
		}
	}

	var findings []m.Finding

	for _, call := range calls {
		if !d.invariant(call, candidates) {
			continue
		}

		findings = append(findings, m.Finding{
			RuleID:   d.rule.ID,
			Severity: d.rule.Severity,
			Message:  fmt.Sprintf("call to %s in the loop condition returns the same value on every iteration; hoist it out of the loop", calleeName(call.invocation)),
			Location: call.anchor,
		})
	}

	return findings
}

func (d *loopInvariantDetector) invariant(call conditionCall, candidates m.SymbolSet) bool {
	for _, operand := range call.operands() {
		if ref, ok := d.variable(operand); ok && !candidates.Contains(ref) {
			return false
		}
	}

	return true
}

func (d *loopInvariantDetector) variable(expr *m.Node) (m.SymbolRef, bool) {
	if expr == nil {
		return m.SymbolRef{}, false
	}

	ref, ok := d.facts.ResolveSymbol(expr)
	if !ok || !ref.IsVariable() {
		return m.SymbolRef{}, false
	}

	return ref, true
}

func (c conditionCall) operands() []*m.Node {
	operands := make([]*m.Node, 0, 1+len(c.invocation.Arguments()))
	if c.receiver != nil {
		operands = append(operands, c.receiver)
	}

	return append(operands, c.invocation.Arguments()...)
}

// conditionCalls lists the invocations of a condition in document order. A
// call bound through `x?.M()` takes x as receiver and is anchored at the
// conditional access.
func conditionCalls(condition *m.Node) []conditionCall {
	var calls []conditionCall

	var scan func(n, access *m.Node)
	scan = func(n, access *m.Node) {
		if n == nil {
			return
		}

		if n.Kind == m.NodeConditionalAccess {
			scan(n.Child(0), access)
			scan(n.Child(1), n)

			return
		}

		if n.Kind == m.NodeInvocation {
			call := conditionCall{invocation: n, anchor: n.Span}

			switch callee := n.Callee(); {
			case callee == nil:
			case callee.Kind == m.NodeMemberAccess:
				call.receiver = callee.Child(0)
			case callee.Kind == m.NodeMemberBinding && access != nil:
				call.receiver = access.Child(0)
				call.anchor = access.Span
			}

			calls = append(calls, call)
		}

		for _, child := range n.Children {
			scan(child, access)
		}
	}

	scan(condition, nil)

	return calls
}

func calleeName(invocation *m.Node) string {
	callee := invocation.Callee()
	if callee == nil {
		return "<call>"
	}

	switch callee.Kind {
	case m.NodeMemberAccess, m.NodeMemberBinding, m.NodeIdentifier:
		if callee.Name != "" {
			return callee.Name
		}
	}

	return "<call>"
}
