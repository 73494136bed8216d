package model

// LoopKind distinguishes the loop statements the engine inspects.
type LoopKind int

// Available LoopKind values.
const (
	LoopFor LoopKind = iota + 1
	LoopWhile
	LoopDoWhile
)

func (k LoopKind) String() string {
	switch k {
	case LoopFor:
		return "for"
	case LoopWhile:
		return "while"
	case LoopDoWhile:
		return "do"
	}

	return "unknown"
}

// LoopConstruct is the condition, body and increment list of one loop.
type LoopConstruct struct {
	Kind      LoopKind
	Condition *Node
	Body      []*Node
	// Increments is only populated for LoopFor.
	Increments []*Node
	Span       SourceSpan
}

// HasCondition reports whether the loop has a condition; a for loop without
// one never terminates through its header.
func (l LoopConstruct) HasCondition() bool {
	return l.Condition != nil
}
