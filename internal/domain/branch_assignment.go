package domain

import (
	"fmt"

	"perfsieve.dev/pkg/perfsieve/internal/adapter"
	m "perfsieve.dev/pkg/perfsieve/internal/model"
)

var branchAssignmentRule = m.MustLookupRule(m.RuleRedundantBranchAssignment)

type branchAssignmentDetector struct {
	facts   adapter.FactsProvider
	tracker MutationTracker
	rule    m.Rule
}

// NewBranchAssignmentDetector constructs the rule reporting a variable that
// both branches of a conditional inside a loop set to the same value.
func NewBranchAssignmentDetector(facts adapter.FactsProvider, tracker MutationTracker) LoopRule {
	return &branchAssignmentDetector{facts: facts, tracker: tracker, rule: branchAssignmentRule}
}

func (d *branchAssignmentDetector) Rule() m.Rule {
	return d.rule
}

func (d *branchAssignmentDetector) Detect(construct m.LoopConstruct) []m.Finding {
	var findings []m.Finding

	walkLoopBody(construct.Body, func(n *m.Node) {
		if n.Kind == m.NodeConditional {
			findings = append(findings, d.conditional(n)...)
		}
	})

	return findings
}

// conditional reports the then-branch assignments whose target the else
// branch assigns the same expression, evaluated over the same operand values.
func (d *branchAssignmentDetector) conditional(n *m.Node) []m.Finding {
	thenBranch, elseBranch := n.Child(1), n.Child(2)
	if thenBranch == nil || elseBranch == nil {
		return nil
	}

	thenStmts, elseStmts := branchStatements(thenBranch), branchStatements(elseBranch)

	assigned := m.NewSymbolSet()
	for _, stmt := range thenStmts {
		if assignment := plainAssignment(stmt); assignment != nil {
			if ref, ok := d.variable(assignment.Child(0)); ok {
				assigned.Add(ref)
			}
		}
	}

	if assigned.Len() == 0 {
		return nil
	}

	// Whatever the else branch writes drops out; those are the shared targets.
	unshared := assigned.Clone()
	d.tracker.RemoveMutated(unshared, elseStmts)

	var findings []m.Finding

	reported := m.NewSymbolSet()

	for i, stmt := range thenStmts {
		assignment := plainAssignment(stmt)
		if assignment == nil {
			continue
		}

		ref, ok := d.variable(assignment.Child(0))
		if !ok || unshared.Contains(ref) || reported.Contains(ref) {
			continue
		}

		j, other := d.firstAssignment(elseStmts, ref)
		if other == nil || !d.sameExpression(assignment.Child(1), other.Child(1)) {
			continue
		}

		if !d.operandsStable(assignment.Child(1), thenStmts[:i], elseStmts[:j]) {
			continue
		}

		reported.Add(ref)

		findings = append(findings, m.Finding{
			RuleID:   d.rule.ID,
			Severity: d.rule.Severity,
			Message:  fmt.Sprintf("both branches assign the same value to %s; assign it once outside the conditional", assignment.Child(0).Name),
			Location: assignment.Span,
		})
	}

	return findings
}

func (d *branchAssignmentDetector) firstAssignment(stmts []*m.Node, target m.SymbolRef) (int, *m.Node) {
	for i, stmt := range stmts {
		assignment := plainAssignment(stmt)
		if assignment == nil {
			continue
		}

		if ref, ok := d.variable(assignment.Child(0)); ok && ref == target {
			return i, assignment
		}
	}

	return -1, nil
}

// operandsStable reports whether no variable read by value is written by the
// statements that precede the assignment in either branch.
func (d *branchAssignmentDetector) operandsStable(value *m.Node, thenBefore, elseBefore []*m.Node) bool {
	reads := m.NewSymbolSet()
	for node := range value.Descendants() {
		if ref, ok := d.variable(node); ok {
			reads.Add(ref)
		}
	}

	if reads.Len() == 0 {
		return true
	}

	survivors := reads.Clone()
	d.tracker.RemoveMutated(survivors, thenBefore)
	d.tracker.RemoveMutated(survivors, elseBefore)

	return survivors.Len() == reads.Len()
}

// sameExpression compares two side-effect free expressions node by node,
// treating variables as equal only when they resolve to the same symbol.
func (d *branchAssignmentDetector) sameExpression(a, b *m.Node) bool {
	if a == nil || b == nil {
		return false
	}

	if a.Kind != b.Kind || a.Op != b.Op || a.Name != b.Name || len(a.Children) != len(b.Children) {
		return false
	}

	if a.Kind == m.NodeInvocation {
		return false
	}

	if _, mutates := m.MutationOf(a); mutates {
		return false
	}

	refA, okA := d.variable(a)
	refB, okB := d.variable(b)

	if okA != okB || refA != refB {
		return false
	}

	for i := range a.Children {
		if !d.sameExpression(a.Children[i], b.Children[i]) {
			return false
		}
	}

	return true
}

func (d *branchAssignmentDetector) variable(n *m.Node) (m.SymbolRef, bool) {
	if n == nil {
		return m.SymbolRef{}, false
	}

	ref, ok := d.facts.ResolveSymbol(n)

	return ref, ok && ref.IsVariable()
}

func branchStatements(branch *m.Node) []*m.Node {
	if branch.Kind == m.NodeBlock {
		return branch.Children
	}

	return []*m.Node{branch}
}

// plainAssignment unwraps `x = value;` statements; compound assignments are
// not matched.
func plainAssignment(stmt *m.Node) *m.Node {
	if stmt.Kind == m.NodeStatement && len(stmt.Children) == 1 {
		stmt = stmt.Children[0]
	}

	if stmt.Kind != m.NodeAssignment || stmt.Op != "=" || stmt.Child(0) == nil || stmt.Child(1) == nil {
		return nil
	}

	return stmt
}
