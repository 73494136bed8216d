package domain

import (
	"fmt"

	"perfsieve.dev/pkg/perfsieve/internal/adapter"
	m "perfsieve.dev/pkg/perfsieve/internal/model"
)

var stringConcatRule = m.MustLookupRule(m.RuleStringConcatInLoop)

type stringConcatDetector struct {
	facts adapter.FactsProvider
	rule  m.Rule
}

// NewStringConcatDetector constructs the rule reporting strings built up by
// repeated concatenation inside a loop body.
func NewStringConcatDetector(facts adapter.FactsProvider) LoopRule {
	return &stringConcatDetector{facts: facts, rule: stringConcatRule}
}

func (d *stringConcatDetector) Rule() m.Rule {
	return d.rule
}

func (d *stringConcatDetector) Detect(construct m.LoopConstruct) []m.Finding {
	var assignments []*m.Node

	declared := m.NewSymbolSet()

	// Nested loops are reported by their own construct.
	walkLoopBody(construct.Body, func(n *m.Node) {
		switch n.Kind {
		case m.NodeDeclarator:
			if ref, ok := d.facts.ResolveSymbol(n); ok {
				declared.Add(ref)
			}
		case m.NodeAssignment:
			assignments = append(assignments, n)
		}
	})

	var findings []m.Finding

	for _, assignment := range assignments {
		target := assignment.Child(0)

		ref, ok := d.facts.ResolveSymbol(target)
		if !ok || !ref.IsVariable() || declared.Contains(ref) {
			continue
		}

		if typ, ok := d.facts.ResolveType(target); !ok || !typ.IsString() {
			continue
		}

		if !d.concatenates(assignment, ref) {
			continue
		}

		findings = append(findings, m.Finding{
			RuleID:   d.rule.ID,
			Severity: d.rule.Severity,
			Message:  fmt.Sprintf("string %s is concatenated on every iteration; use a builder", target.Name),
			Location: assignment.Span,
		})
	}

	return findings
}

// concatenates matches `s += x` and `s = s + x`.
func (d *stringConcatDetector) concatenates(assignment *m.Node, target m.SymbolRef) bool {
	switch assignment.Op {
	case "+=":
		return true
	case "=":
		value := assignment.Child(1)
		if value == nil || value.Kind != m.NodeBinary || value.Op != "+" {
			return false
		}

		left, ok := d.facts.ResolveSymbol(value.Child(0))

		return ok && left == target
	}

	return false
}

func walkLoopBody(nodes []*m.Node, fn func(*m.Node)) {
	for _, n := range nodes {
		if n == nil || n.Kind == m.NodeLoop {
			continue
		}

		fn(n)
		walkLoopBody(n.Children, fn)
	}
}
