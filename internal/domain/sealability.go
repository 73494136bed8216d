package domain

import (
	"fmt"
	"sort"

	"perfsieve.dev/pkg/perfsieve/internal/adapter"
	m "perfsieve.dev/pkg/perfsieve/internal/model"
)

var sealableTypeRule = m.MustLookupRule(m.RuleSealableType)

// SealabilityClassifier turns a completed TypeGraph into findings.
type SealabilityClassifier interface {
	Classify(graph TypeGraph) []m.Finding
}

type sealabilityClassifier struct {
	facts adapter.FactsProvider
	rule  m.Rule
}

// NewSealabilityClassifier constructs a SealabilityClassifier.
func NewSealabilityClassifier(facts adapter.FactsProvider) SealabilityClassifier {
	return &sealabilityClassifier{facts: facts, rule: sealableTypeRule}
}

// Classify reports every candidate no program type derives from, ordered by
// first declaration location and then type ID.
func (c *sealabilityClassifier) Classify(graph TypeGraph) []m.Finding {
	type sealable struct {
		id      string
		finding m.Finding
	}

	var found []sealable

	for id := range graph.Candidates {
		if _, derived := graph.Inherited[id]; derived {
			continue
		}

		t, ok := c.facts.Type(id)
		if !ok {
			continue
		}

		location, _ := t.FirstLocation()

		found = append(found, sealable{
			id: id,
			finding: m.Finding{
				RuleID:   c.rule.ID,
				Severity: c.rule.Severity,
				Message:  fmt.Sprintf("type %s has no derived types and can be marked sealed", t.Name),
				Location: location,
			},
		})
	}

	sort.Slice(found, func(i, j int) bool {
		a, b := found[i].finding.Location, found[j].finding.Location
		if a != b {
			return a.Before(b)
		}

		return found[i].id < found[j].id
	})

	findings := make([]m.Finding, 0, len(found))
	for _, s := range found {
		findings = append(findings, s.finding)
	}

	return findings
}
