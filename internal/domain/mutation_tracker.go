package domain

import (
	"perfsieve.dev/pkg/perfsieve/internal/adapter"
	m "perfsieve.dev/pkg/perfsieve/internal/model"
)

// MutationTracker drops candidates that a node sequence writes to.
type MutationTracker interface {
	// RemoveMutated removes from candidates, in place, every symbol assigned,
	// incremented or decremented anywhere in nodes.
	RemoveMutated(candidates m.SymbolSet, nodes []*m.Node)
}

type mutationTracker struct {
	facts adapter.FactsProvider
}

// NewMutationTracker constructs a MutationTracker resolving operands through facts.
func NewMutationTracker(facts adapter.FactsProvider) MutationTracker {
	return &mutationTracker{facts: facts}
}

func (t *mutationTracker) RemoveMutated(candidates m.SymbolSet, nodes []*m.Node) {
	if candidates.Len() == 0 {
		return
	}

	for node := range m.DescendantsOf(nodes) {
		event, ok := m.MutationOf(node)
		if !ok {
			continue
		}

		ref, ok := t.facts.ResolveSymbol(event.Operand)
		if !ok || !candidates.Contains(ref) {
			continue
		}

		candidates.Remove(ref)

		if candidates.Len() == 0 {
			return
		}
	}
}
