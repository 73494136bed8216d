package domain

import (
	"sync"

	"golang.org/x/sync/singleflight"

	"perfsieve.dev/pkg/perfsieve/internal/adapter"
	m "perfsieve.dev/pkg/perfsieve/internal/model"
)

// TypeGraph is the accumulated outcome of a collector pass, keyed by type ID.
type TypeGraph struct {
	// Candidates are the types that could be marked sealed.
	Candidates map[string]struct{}
	// Inherited are the types some other program type derives from.
	Inherited map[string]struct{}
}

// TypeGraphCollector visits every type symbol of a program once. Visit is
// safe for concurrent use; Graph must only be read after every Visit returned.
type TypeGraphCollector interface {
	Visit(t *m.TypeNode)
	Graph() TypeGraph
}

type typeGraphCollector struct {
	facts     adapter.FactsProvider
	overrides *overridableTable

	mu         sync.Mutex
	candidates map[string]struct{}
	inherited  map[string]struct{}
}

// NewTypeGraphCollector constructs an empty collector over facts.
func NewTypeGraphCollector(facts adapter.FactsProvider) TypeGraphCollector {
	return &typeGraphCollector{
		facts:      facts,
		overrides:  newOverridableTable(facts),
		candidates: map[string]struct{}{},
		inherited:  map[string]struct{}{},
	}
}

func (c *typeGraphCollector) Visit(t *m.TypeNode) {
	if t == nil || !t.IsReferenceClass() || t.Modifiers.Static || t.IsImplicit || t.IsScript || t.IsExternal {
		return
	}

	if base, ok := c.facts.Type(t.Base); ok && base.IsReferenceClass() && !base.Modifiers.Abstract && !base.IsSpecial {
		c.mu.Lock()
		c.inherited[base.ID] = struct{}{}
		c.mu.Unlock()
	}

	if t.Modifiers.Abstract || t.Modifiers.Sealed {
		return
	}

	if externallyVisible(c.facts, t) && c.overrides.hasOpenMember(t) {
		return
	}

	c.mu.Lock()
	c.candidates[t.ID] = struct{}{}
	c.mu.Unlock()
}

func (c *typeGraphCollector) Graph() TypeGraph {
	c.mu.Lock()
	defer c.mu.Unlock()

	return TypeGraph{Candidates: c.candidates, Inherited: c.inherited}
}

// overridableTable memoizes, per type ID, the signatures of members that code
// outside the assembly could still override on that type:
//
//	open(T) = ownOpen(T) ∪ (open(base(T)) − sealed(T))
//
// A type missing from the program contributes nothing and ends the chain.
type overridableTable struct {
	facts  adapter.FactsProvider
	flight singleflight.Group
	memo   sync.Map
}

func newOverridableTable(facts adapter.FactsProvider) *overridableTable {
	return &overridableTable{facts: facts}
}

func (o *overridableTable) hasOpenMember(t *m.TypeNode) bool {
	return len(o.open(t)) > 0
}

func (o *overridableTable) open(t *m.TypeNode) map[string]struct{} {
	if cached, ok := o.memo.Load(t.ID); ok {
		return cached.(map[string]struct{})
	}

	// Collect the unresolved part of the chain, then fill it from the root
	// down so each step only reads an already stored base entry.
	var chain []*m.TypeNode

	seen := map[string]struct{}{}

	for cur := t; cur != nil; {
		if _, cycle := seen[cur.ID]; cycle {
			break
		}

		if _, ok := o.memo.Load(cur.ID); ok {
			break
		}

		seen[cur.ID] = struct{}{}
		chain = append(chain, cur)

		base, ok := o.facts.Type(cur.Base)
		if !ok {
			break
		}

		cur = base
	}

	for i := len(chain) - 1; i >= 0; i-- {
		cur := chain[i]

		_, _, _ = o.flight.Do(cur.ID, func() (any, error) {
			if cached, ok := o.memo.Load(cur.ID); ok {
				return cached, nil
			}

			set := o.compute(cur)
			o.memo.Store(cur.ID, set)

			return set, nil
		})
	}

	cached, _ := o.memo.Load(t.ID)

	return cached.(map[string]struct{})
}

func (o *overridableTable) compute(t *m.TypeNode) map[string]struct{} {
	set := map[string]struct{}{}

	var baseOpen map[string]struct{}
	if cached, ok := o.memo.Load(t.Base); ok && t.Base != t.ID {
		baseOpen = cached.(map[string]struct{})
	}

	sealed := map[string]struct{}{}

	for _, member := range t.Members {
		if member.IsSealedOverride {
			sealed[member.Name] = struct{}{}
		}
	}

	for name := range baseOpen {
		if _, neutralized := sealed[name]; !neutralized {
			set[name] = struct{}{}
		}
	}

	for _, member := range t.Members {
		if member.Overridable() && member.Accessibility.OutsideAssembly() && !member.IsImplicit {
			set[member.Name] = struct{}{}
		}
	}

	return set
}

// externallyVisible reports whether t is public and nested only in public types.
func externallyVisible(facts adapter.FactsProvider, t *m.TypeNode) bool {
	seen := map[string]struct{}{}

	for cur := t; cur != nil; {
		if cur.Accessibility != m.AccessPublic {
			return false
		}

		if _, cycle := seen[cur.ID]; cycle {
			return true
		}

		seen[cur.ID] = struct{}{}

		containing, ok := facts.Type(cur.Containing)
		if !ok {
			return true
		}

		cur = containing
	}

	return true
}
