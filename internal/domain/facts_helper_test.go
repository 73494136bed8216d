package domain

import (
	m "perfsieve.dev/pkg/perfsieve/internal/model"
)

// fakeFacts is an in-memory FactsProvider assembled node by node.
type fakeFacts struct {
	symbols map[*m.Node]m.SymbolRef
	types   map[*m.Node]m.TypeRef
	loops   []*m.Node
	parts   map[*m.Node]m.LoopConstruct
	decls   []*m.TypeNode
	byID    map[string]*m.TypeNode
	offset  int
}

func newFakeFacts() *fakeFacts {
	return &fakeFacts{
		symbols: map[*m.Node]m.SymbolRef{},
		types:   map[*m.Node]m.TypeRef{},
		parts:   map[*m.Node]m.LoopConstruct{},
		byID:    map[string]*m.TypeNode{},
	}
}

func (f *fakeFacts) ResolveSymbol(expr *m.Node) (m.SymbolRef, bool) {
	ref, ok := f.symbols[expr]
	return ref, ok
}

func (f *fakeFacts) ResolveType(expr *m.Node) (m.TypeRef, bool) {
	ref, ok := f.types[expr]
	return ref, ok
}

func (f *fakeFacts) LoopNodes() []*m.Node {
	return f.loops
}

func (f *fakeFacts) EnumerateLoopParts(loop *m.Node) (m.LoopConstruct, bool) {
	construct, ok := f.parts[loop]
	return construct, ok
}

func (f *fakeFacts) EnumerateTypeSymbols() []*m.TypeNode {
	return f.decls
}

func (f *fakeFacts) Type(id string) (*m.TypeNode, bool) {
	t, ok := f.byID[id]
	return t, ok
}

// node creates a node with a fresh, increasing span.
func (f *fakeFacts) node(kind m.NodeKind, name, op string, children ...*m.Node) *m.Node {
	f.offset += 10

	return &m.Node{
		Kind:     kind,
		Name:     name,
		Op:       op,
		Span:     m.SourceSpan{File: "Program.cs", Line: f.offset / 10, Column: 1, Offset: f.offset},
		Children: children,
	}
}

func (f *fakeFacts) local(name string) *m.Node {
	n := f.node(m.NodeIdentifier, name, "")
	f.symbols[n] = m.SymbolRef{Kind: m.SymbolLocal, ID: name}

	return n
}

func (f *fakeFacts) str(name string) *m.Node {
	n := f.local(name)
	f.types[n] = m.TypeRef{ID: "string", Name: "string"}

	return n
}

func (f *fakeFacts) property(name string) *m.Node {
	n := f.node(m.NodeIdentifier, name, "")
	f.symbols[n] = m.SymbolRef{Kind: m.SymbolProperty, ID: name}

	return n
}

func (f *fakeFacts) call(name string, args ...*m.Node) *m.Node {
	callee := f.node(m.NodeIdentifier, name, "")
	return f.node(m.NodeInvocation, "", "", append([]*m.Node{callee}, args...)...)
}

func (f *fakeFacts) method(receiver *m.Node, name string, args ...*m.Node) *m.Node {
	callee := f.node(m.NodeMemberAccess, name, "", receiver)
	return f.node(m.NodeInvocation, "", "", append([]*m.Node{callee}, args...)...)
}

func (f *fakeFacts) binary(op string, left, right *m.Node) *m.Node {
	return f.node(m.NodeBinary, "", op, left, right)
}

func (f *fakeFacts) assign(op string, target, value *m.Node) *m.Node {
	return f.node(m.NodeAssignment, "", op, target, value)
}

func (f *fakeFacts) postfix(op string, operand *m.Node) *m.Node {
	return f.node(m.NodePostfixUnary, "", op, operand)
}

func (f *fakeFacts) declare(name string) *m.Node {
	n := f.node(m.NodeDeclarator, name, "")
	f.symbols[n] = m.SymbolRef{Kind: m.SymbolLocal, ID: name}

	return n
}

// addLoop registers construct and returns its loop node.
func (f *fakeFacts) addLoop(construct m.LoopConstruct) *m.Node {
	loop := f.node(m.NodeLoop, construct.Kind.String(), "")
	construct.Span = loop.Span

	if construct.Condition != nil {
		loop.Children = append(loop.Children, construct.Condition)
	}

	loop.Children = append(loop.Children, construct.Body...)
	loop.Children = append(loop.Children, construct.Increments...)

	f.loops = append(f.loops, loop)
	f.parts[loop] = construct

	return loop
}

func (f *fakeFacts) addType(t *m.TypeNode) *m.TypeNode {
	if t.Kind == 0 {
		t.Kind = m.TypeClass
	}

	if t.Accessibility == 0 {
		t.Accessibility = m.AccessInternal
	}

	if t.Name == "" {
		t.Name = t.ID
	}

	if len(t.Locations) == 0 {
		f.offset += 10
		t.Locations = []m.SourceSpan{{File: "Types.cs", Line: f.offset / 10, Column: 1, Offset: f.offset}}
	}

	f.decls = append(f.decls, t)
	f.byID[t.ID] = t

	return t
}

func (f *fakeFacts) literal(value string) *m.Node {
	return f.node(m.NodeLiteral, value, "")
}

func (f *fakeFacts) block(stmts ...*m.Node) *m.Node {
	return f.node(m.NodeBlock, "", "", stmts...)
}

// conditional builds `if (cond) then else otherwise`; a nil otherwise leaves
// out the else branch.
func (f *fakeFacts) conditional(cond, then, otherwise *m.Node) *m.Node {
	children := []*m.Node{cond, then}
	if otherwise != nil {
		children = append(children, otherwise)
	}

	return f.node(m.NodeConditional, "", "", children...)
}
