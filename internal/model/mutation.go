package model

// MutationShape names the syntactic forms that write to a variable.
type MutationShape int

// Available MutationShape values.
const (
	MutationNone MutationShape = iota
	MutationAssignment
	MutationPrefixIncDec
	MutationPostfixIncDec
)

// MutationEvent is a write to the expression in Operand.
type MutationEvent struct {
	Shape   MutationShape
	Operand *Node
}

// MutationOf matches n against the mutation shapes in turn: assignment
// target (simple or compound), prefix ++/-- operand, postfix ++/-- operand.
func MutationOf(n *Node) (MutationEvent, bool) {
	if n == nil {
		return MutationEvent{}, false
	}

	switch n.Kind {
	case NodeAssignment:
		if target := n.Child(0); target != nil {
			return MutationEvent{Shape: MutationAssignment, Operand: target}, true
		}
	case NodePrefixUnary:
		if isIncDec(n.Op) && n.Child(0) != nil {
			return MutationEvent{Shape: MutationPrefixIncDec, Operand: n.Child(0)}, true
		}
	case NodePostfixUnary:
		if isIncDec(n.Op) && n.Child(0) != nil {
			return MutationEvent{Shape: MutationPostfixIncDec, Operand: n.Child(0)}, true
		}
	}

	return MutationEvent{}, false
}

func isIncDec(op string) bool {
	return op == "++" || op == "--"
}
