package model

import "iter"

// NodeKind classifies a provider-neutral syntax node.
type NodeKind int

// Available NodeKind values.
const (
	NodeOther NodeKind = iota
	NodeInvocation
	NodeMemberAccess
	NodeMemberBinding
	NodeConditionalAccess
	NodeAssignment
	NodePrefixUnary
	NodePostfixUnary
	NodeIdentifier
	NodeDeclarator
	NodeBinary
	NodeLiteral
	NodeThis
	NodeBlock
	NodeStatement
	NodeLoop
	NodeConditional
)

var nodeKindNames = map[NodeKind]string{
	NodeOther:             "other",
	NodeInvocation:        "invocation",
	NodeMemberAccess:      "member_access",
	NodeMemberBinding:     "member_binding",
	NodeConditionalAccess: "conditional_access",
	NodeAssignment:        "assignment",
	NodePrefixUnary:       "prefix_unary",
	NodePostfixUnary:      "postfix_unary",
	NodeIdentifier:        "identifier",
	NodeDeclarator:        "declarator",
	NodeBinary:            "binary",
	NodeLiteral:           "literal",
	NodeThis:              "this",
	NodeBlock:             "block",
	NodeStatement:         "statement",
	NodeLoop:              "loop",
	NodeConditional:       "conditional",
}

func (k NodeKind) String() string {
	if name, ok := nodeKindNames[k]; ok {
		return name
	}

	return "unknown"
}

// ParseNodeKind maps a kind name back to its NodeKind.
func ParseNodeKind(name string) (NodeKind, bool) {
	for kind, kindName := range nodeKindNames {
		if kindName == name {
			return kind, true
		}
	}

	return NodeOther, false
}

// Node is a syntax node handed to the engine by a FactsProvider.
//
// Child roles depend on Kind:
//   - Invocation: Children[0] is the callee, Children[1:] are the arguments.
//   - MemberAccess: Children[0] is the receiver, Name the member.
//   - MemberBinding: Name is the member bound by an enclosing conditional access.
//   - ConditionalAccess: Children[0] is the receiver, Children[1] the when-not-null part.
//   - Assignment: Children[0] is the target, Children[1] the value, Op the operator.
//   - PrefixUnary, PostfixUnary: Children[0] is the operand, Op the operator.
//   - Binary: Children[0] and Children[1] are the operands, Op the operator.
//   - Conditional: Children[0] is the condition, Children[1] the then branch,
//     Children[2] the optional else branch.
//   - Identifier, Declarator: Name is the identifier.
type Node struct {
	Kind     NodeKind
	Op       string
	Name     string
	Span     SourceSpan
	Children []*Node
}

// Child returns the i-th child or nil.
func (n *Node) Child(i int) *Node {
	if n == nil || i < 0 || i >= len(n.Children) {
		return nil
	}

	return n.Children[i]
}

// Callee returns the invoked expression of an invocation.
func (n *Node) Callee() *Node {
	if n == nil || n.Kind != NodeInvocation {
		return nil
	}

	return n.Child(0)
}

// Arguments returns the argument expressions of an invocation.
func (n *Node) Arguments() []*Node {
	if n == nil || n.Kind != NodeInvocation || len(n.Children) < 2 {
		return nil
	}

	return n.Children[1:]
}

// Descendants yields n and every node below it in document order.
func (n *Node) Descendants() iter.Seq[*Node] {
	return func(yield func(*Node) bool) {
		n.walk(yield)
	}
}

func (n *Node) walk(yield func(*Node) bool) bool {
	if n == nil {
		return true
	}

	if !yield(n) {
		return false
	}

	for _, child := range n.Children {
		if !child.walk(yield) {
			return false
		}
	}

	return true
}

// DescendantsOf yields the descendants of every node in nodes, in order.
func DescendantsOf(nodes []*Node) iter.Seq[*Node] {
	return func(yield func(*Node) bool) {
		for _, node := range nodes {
			if !node.walk(yield) {
				return
			}
		}
	}
}
