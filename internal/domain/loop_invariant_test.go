package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	m "perfsieve.dev/pkg/perfsieve/internal/model"
)

// mixedConditionLoop builds
//
//	for (int i = 0; i < V1 && i < V2() && i < V3(i) && i < V3(j); i++) j += i;
//
// and returns the construct with the V2() invocation.
func mixedConditionLoop(f *fakeFacts) (m.LoopConstruct, *m.Node) {
	v2 := f.call("V2")

	condition := f.binary("&&",
		f.binary("&&",
			f.binary("&&",
				f.binary("<", f.local("i"), f.property("V1")),
				f.binary("<", f.local("i"), v2)),
			f.binary("<", f.local("i"), f.call("V3", f.local("i")))),
		f.binary("<", f.local("i"), f.call("V3", f.local("j"))))

	construct := m.LoopConstruct{
		Kind:       m.LoopFor,
		Condition:  condition,
		Body:       []*m.Node{f.assign("+=", f.local("j"), f.local("i"))},
		Increments: []*m.Node{f.postfix("++", f.local("i"))},
	}

	return construct, v2
}

func TestLoopInvariantDetector_MixedCondition(t *testing.T) {
	f := newFakeFacts()
	construct, v2 := mixedConditionLoop(f)

	findings := NewLoopInvariantDetector(f, NewMutationTracker(f)).Detect(construct)

	require.Len(t, findings, 1)
	assert.Equal(t, m.RuleLoopInvariantCall, findings[0].RuleID)
	assert.Equal(t, m.SeverityWarning, findings[0].Severity)
	assert.Equal(t, v2.Span, findings[0].Location)
	assert.Contains(t, findings[0].Message, "V2")
}

func TestLoopInvariantDetector_Idempotent(t *testing.T) {
	f := newFakeFacts()
	construct, _ := mixedConditionLoop(f)
	detector := NewLoopInvariantDetector(f, NewMutationTracker(f))

	assert.Equal(t, detector.Detect(construct), detector.Detect(construct))
}

func TestLoopInvariantDetector(t *testing.T) {
	t.Run("unmutated receiver is reported", func(t *testing.T) {
		f := newFakeFacts()
		count := f.method(f.local("list"), "Count")

		construct := m.LoopConstruct{
			Kind:       m.LoopFor,
			Condition:  f.binary("<", f.local("i"), count),
			Body:       []*m.Node{f.call("Print", f.local("i"))},
			Increments: []*m.Node{f.postfix("++", f.local("i"))},
		}

		findings := NewLoopInvariantDetector(f, NewMutationTracker(f)).Detect(construct)

		require.Len(t, findings, 1)
		assert.Equal(t, count.Span, findings[0].Location)
		assert.Contains(t, findings[0].Message, "Count")
	})

	t.Run("mutated argument is not reported", func(t *testing.T) {
		f := newFakeFacts()

		construct := m.LoopConstruct{
			Kind:      m.LoopWhile,
			Condition: f.call("More", f.local("cursor")),
			Body:      []*m.Node{f.assign("=", f.local("cursor"), f.call("Next", f.local("cursor")))},
		}

		assert.Empty(t, NewLoopInvariantDetector(f, NewMutationTracker(f)).Detect(construct))
	})

	t.Run("mutation in increment only counts for for loops", func(t *testing.T) {
		f := newFakeFacts()
		call := f.call("Check", f.local("n"))

		construct := m.LoopConstruct{
			Kind:       m.LoopDoWhile,
			Condition:  call,
			Increments: []*m.Node{f.postfix("++", f.local("n"))},
		}

		findings := NewLoopInvariantDetector(f, NewMutationTracker(f)).Detect(construct)
		require.Len(t, findings, 1)

		construct.Kind = m.LoopFor
		assert.Empty(t, NewLoopInvariantDetector(f, NewMutationTracker(f)).Detect(construct))
	})

	t.Run("optional chained call is anchored at the conditional access", func(t *testing.T) {
		f := newFakeFacts()

		binding := f.node(m.NodeMemberBinding, "Any", "")
		access := f.node(m.NodeConditionalAccess, "", "", f.local("items"), f.node(m.NodeInvocation, "", "", binding))

		construct := m.LoopConstruct{
			Kind:      m.LoopWhile,
			Condition: f.binary("==", access, f.node(m.NodeLiteral, "true", "")),
			Body:      []*m.Node{f.postfix("++", f.local("k"))},
		}

		findings := NewLoopInvariantDetector(f, NewMutationTracker(f)).Detect(construct)

		require.Len(t, findings, 1)
		assert.Equal(t, access.Span, findings[0].Location)
		assert.Contains(t, findings[0].Message, "Any")
	})

	t.Run("optional chained receiver mutated in body", func(t *testing.T) {
		f := newFakeFacts()

		binding := f.node(m.NodeMemberBinding, "Any", "")
		access := f.node(m.NodeConditionalAccess, "", "", f.local("items"), f.node(m.NodeInvocation, "", "", binding))

		construct := m.LoopConstruct{
			Kind:      m.LoopWhile,
			Condition: access,
			Body:      []*m.Node{f.assign("=", f.local("items"), f.call("Rest", f.local("items")))},
		}

		assert.Empty(t, NewLoopInvariantDetector(f, NewMutationTracker(f)).Detect(construct))
	})

	t.Run("no condition yields nothing", func(t *testing.T) {
		f := newFakeFacts()

		construct := m.LoopConstruct{
			Kind: m.LoopFor,
			Body: []*m.Node{f.call("Work", f.local("x"))},
		}

		assert.Empty(t, NewLoopInvariantDetector(f, NewMutationTracker(f)).Detect(construct))
	})

	t.Run("calls without variable operands yield nothing", func(t *testing.T) {
		f := newFakeFacts()

		construct := m.LoopConstruct{
			Kind:      m.LoopWhile,
			Condition: f.call("Running", f.node(m.NodeLiteral, "1", "")),
		}

		assert.Empty(t, NewLoopInvariantDetector(f, NewMutationTracker(f)).Detect(construct))
	})

	t.Run("findings follow condition order", func(t *testing.T) {
		f := newFakeFacts()
		first := f.method(f.local("a"), "Size")
		second := f.method(f.local("b"), "Size")

		construct := m.LoopConstruct{
			Kind:      m.LoopWhile,
			Condition: f.binary("&&", f.binary("<", f.local("i"), first), f.binary("<", f.local("i"), second)),
			Body:      []*m.Node{f.postfix("++", f.local("i"))},
		}

		findings := NewLoopInvariantDetector(f, NewMutationTracker(f)).Detect(construct)

		require.Len(t, findings, 2)
		assert.Equal(t, first.Span, findings[0].Location)
		assert.Equal(t, second.Span, findings[1].Location)
	})
}
