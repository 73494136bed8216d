package adapter

import (
	"fmt"
	"strings"

	sitter "github.com/smacker/go-tree-sitter"

	m "perfsieve.dev/pkg/perfsieve/internal/model"
)

// csharpScope holds the locals and parameters of one member body. Locals are
// keyed by name and the byte range of the block, loop or lambda declaring
// them, so same-name locals in sibling scopes stay distinct.
type csharpScope struct {
	locals map[string][]csharpLocal
	params map[string]csharpVar
}

type csharpLocal struct {
	start, end uint32
	v          csharpVar
}

func (s csharpScope) declare(name string, region *sitter.Node, v csharpVar) {
	s.locals[name] = append(s.locals[name], csharpLocal{start: region.StartByte(), end: region.EndByte(), v: v})
}

// local returns the innermost local named name whose scope covers offset.
func (s csharpScope) local(name string, offset uint32) (csharpVar, bool) {
	var (
		best  csharpLocal
		found bool
	)

	for _, l := range s.locals[name] {
		if offset < l.start || offset >= l.end {
			continue
		}

		if !found || l.end-l.start < best.end-best.start {
			best, found = l, true
		}
	}

	return best.v, found
}

// csharpConverter turns the member bodies of one file into model nodes.
type csharpConverter struct {
	builder  *csharpBuilder
	file     *csharpFile
	provider *CSharpFactsProvider

	typ    *csharpType
	usings []string
	scope  csharpScope
}

func (c *csharpConverter) convertFile() {
	for _, decl := range c.file.decls {
		body := decl.node.ChildByFieldName("body")
		if body == nil {
			body = childOfType(decl.node, "declaration_list")
		}

		if body == nil {
			continue
		}

		c.typ = decl.typ
		c.usings = decl.usings

		for i := 0; i < int(body.NamedChildCount()); i++ {
			member := body.NamedChild(i)
			if _, nested := csharpTypeKind(member); nested {
				continue
			}

			c.scope = c.memberScope(member)
			c.convert(member)
		}
	}
}

func (c *csharpConverter) memberScope(member *sitter.Node) csharpScope {
	scope := csharpScope{locals: map[string][]csharpLocal{}, params: map[string]csharpVar{}}
	prefix := fmt.Sprintf("%s:%d#", c.file.path, member.StartByte())

	switch member.Type() {
	case "property_declaration", "indexer_declaration", "event_declaration":
		scope.params["value"] = csharpVar{
			ref:      m.SymbolRef{Kind: m.SymbolParameter, ID: prefix + "value"},
			typeName: fieldContent(member, "type", c.file.content),
		}
	}

	scoped := func(n *sitter.Node, kind m.SymbolKind, name, typeName string) {
		region := localRegion(n, member)
		scope.declare(name, region, csharpVar{
			ref:      m.SymbolRef{Kind: kind, ID: fmt.Sprintf("%s%s@%d", prefix, name, region.StartByte())},
			typeName: typeName,
		})
	}

	walkNamed(member, func(n *sitter.Node) bool {
		switch n.Type() {
		case "parameter":
			name := fieldContent(n, "name", c.file.content)
			if name == "" {
				break
			}

			typeName := fieldContent(n, "type", c.file.content)

			// Lambda and local function parameters belong to their function.
			if region := localRegion(n, member); region != member {
				scoped(n, m.SymbolParameter, name, typeName)
				break
			}

			scope.params[name] = csharpVar{
				ref:      m.SymbolRef{Kind: m.SymbolParameter, ID: prefix + name},
				typeName: typeName,
			}
		case "lambda_expression":
			if param := implicitLambdaParameter(n); param != nil {
				scoped(n, m.SymbolParameter, param.Content(c.file.content), "")
			}
		case "variable_declaration":
			typeName := fieldContent(n, "type", c.file.content)

			for _, declarator := range childrenOfType(n, "variable_declarator") {
				name := declaratorName(declarator, c.file.content)
				if name == "" {
					continue
				}

				localType := typeName
				if localType == "var" && declaratorIsString(declarator) {
					localType = "string"
				}

				scoped(n, m.SymbolLocal, name, localType)
			}
		case "foreach_statement", "declaration_expression", "catch_declaration":
			name := fieldContent(n, "left", c.file.content)
			if name == "" {
				name = fieldContent(n, "name", c.file.content)
			}

			if name != "" && isIdentifier(name) {
				scoped(n, m.SymbolLocal, name, fieldContent(n, "type", c.file.content))
			}
		}

		return true
	})

	return scope
}

// localRegion returns the nearest node, starting at n, that opens a local
// scope. Declarations directly in the member body scope to member itself.
func localRegion(n, member *sitter.Node) *sitter.Node {
	for p := n; p != nil; p = p.Parent() {
		if p.StartByte() == member.StartByte() && p.EndByte() == member.EndByte() {
			return member
		}

		switch p.Type() {
		case "block", "for_statement", "foreach_statement", "using_statement", "catch_clause",
			"switch_section", "lambda_expression", "anonymous_method_expression", "local_function_statement":
			return p
		}
	}

	return member
}

func (c *csharpConverter) convert(node *sitter.Node) *m.Node {
	if node == nil || node.Type() == "comment" {
		return nil
	}

	switch node.Type() {
	case "invocation_expression":
		return c.convertInvocation(node)
	case "member_access_expression":
		return c.convertMemberAccess(node)
	case "conditional_access_expression":
		receiver := node.NamedChild(0)
		whenNotNull := node.NamedChild(int(node.NamedChildCount()) - 1)

		return c.node(m.NodeConditionalAccess, node, "", "", c.convert(receiver), c.convert(whenNotNull))
	case "member_binding_expression":
		return c.node(m.NodeMemberBinding, node, "", memberName(node, c.file.content))
	case "assignment_expression":
		left, right := fieldOr(node, "left", 0), fieldOr(node, "right", -1)
		return c.node(m.NodeAssignment, node, operatorOf(node, c.file.content), "", c.convert(left), c.convert(right))
	case "prefix_unary_expression":
		op := node.Child(0).Content(c.file.content)
		return c.node(m.NodePrefixUnary, node, op, "", c.convert(node.NamedChild(int(node.NamedChildCount())-1)))
	case "postfix_unary_expression":
		op := node.Child(int(node.ChildCount()) - 1).Content(c.file.content)
		return c.node(m.NodePostfixUnary, node, op, "", c.convert(node.NamedChild(0)))
	case "binary_expression":
		left, right := fieldOr(node, "left", 0), fieldOr(node, "right", -1)
		return c.node(m.NodeBinary, node, operatorOf(node, c.file.content), "", c.convert(left), c.convert(right))
	case "parenthesized_expression":
		return c.convert(node.NamedChild(0))
	case "identifier":
		n := c.node(m.NodeIdentifier, node, "", node.Content(c.file.content))
		c.resolveName(n, n.Name)

		return n
	case "this_expression", "base_expression", "this", "base":
		return c.node(m.NodeThis, node, "", node.Content(c.file.content))
	case "variable_declarator":
		return c.convertDeclarator(node)
	case "for_statement", "while_statement", "do_statement":
		return c.convertLoop(node)
	case "if_statement":
		return c.node(m.NodeConditional, node, "", "",
			c.convert(fieldOr(node, "condition", 0)),
			c.convert(fieldOr(node, "consequence", 1)),
			c.convert(ifAlternative(node)))
	case "block":
		return c.node(m.NodeBlock, node, "", "", c.convertNamed(node)...)
	case "expression_statement":
		return c.node(m.NodeStatement, node, "", "", c.convertNamed(node)...)
	}

	if isLiteral(node.Type()) {
		n := c.node(m.NodeLiteral, node, "", node.Content(c.file.content))
		if isStringLiteral(node.Type()) {
			c.provider.types[n] = m.TypeRef{ID: csharpStringID, Name: "string"}
		}

		return n
	}

	return c.node(m.NodeOther, node, "", node.Type(), c.convertNamed(node)...)
}

func (c *csharpConverter) convertNamed(node *sitter.Node) []*m.Node {
	children := make([]*m.Node, 0, node.NamedChildCount())
	for i := 0; i < int(node.NamedChildCount()); i++ {
		if child := c.convert(node.NamedChild(i)); child != nil {
			children = append(children, child)
		}
	}

	return children
}

func (c *csharpConverter) node(kind m.NodeKind, src *sitter.Node, op, name string, children ...*m.Node) *m.Node {
	n := &m.Node{Kind: kind, Op: op, Name: name, Span: spanOf(c.file.path, src)}

	for _, child := range children {
		if child != nil {
			n.Children = append(n.Children, child)
		}
	}

	return n
}

// convertInvocation also rewrites `a?.M()` parsed as an invocation of a
// conditional access into a conditional access whose when-not-null part is
// the invocation, so the receiver is always the conditional access operand.
func (c *csharpConverter) convertInvocation(node *sitter.Node) *m.Node {
	callee := c.convert(fieldOr(node, "function", 0))

	args := fieldOr(node, "arguments", -1)
	if args == nil || args.Type() != "argument_list" {
		args = childOfType(node, "argument_list")
	}

	var arguments []*m.Node

	if args != nil {
		for i := 0; i < int(args.NamedChildCount()); i++ {
			arg := args.NamedChild(i)
			if arg.Type() != "argument" {
				continue
			}

			expr := arg.NamedChild(int(arg.NamedChildCount()) - 1)
			if converted := c.convert(expr); converted != nil {
				arguments = append(arguments, converted)
			}
		}
	}

	if callee != nil && callee.Kind == m.NodeConditionalAccess {
		if binding := callee.Child(1); binding != nil && binding.Kind == m.NodeMemberBinding {
			inv := c.node(m.NodeInvocation, node, "", "", append([]*m.Node{binding}, arguments...)...)
			return c.node(m.NodeConditionalAccess, node, "", "", callee.Child(0), inv)
		}
	}

	return c.node(m.NodeInvocation, node, "", "", append([]*m.Node{callee}, arguments...)...)
}

func (c *csharpConverter) convertMemberAccess(node *sitter.Node) *m.Node {
	expr := fieldOr(node, "expression", 0)
	name := memberName(node, c.file.content)
	n := c.node(m.NodeMemberAccess, node, "", name, c.convert(expr))

	receiver := n.Child(0)
	if receiver == nil {
		return n
	}

	var typeID string

	switch {
	case receiver.Kind == m.NodeThis && c.typ != nil:
		typeID = c.typ.node.ID
	case receiver.Kind == m.NodeIdentifier:
		if ref, ok := c.provider.types[receiver]; ok {
			typeID, _ = c.builder.lookupType(ref.ID, c.typ, c.typ.namespace, c.usings)
		} else if _, isVar := c.provider.symbols[receiver]; !isVar {
			typeID, _ = c.builder.lookupType(receiver.Name, c.typ, c.typ.namespace, c.usings)
		}
	}

	if typeID == "" {
		return n
	}

	if v, ok := c.builder.lookupVar(typeID, name); ok {
		c.record(n, v)
	}

	return n
}

func (c *csharpConverter) convertDeclarator(node *sitter.Node) *m.Node {
	name := declaratorName(node, c.file.content)
	n := c.node(m.NodeDeclarator, node, "", name)

	for i := 0; i < int(node.NamedChildCount()); i++ {
		child := node.NamedChild(i)
		if child.Type() == "identifier" && child.Content(c.file.content) == name {
			continue
		}

		if converted := c.convert(child); converted != nil {
			n.Children = append(n.Children, converted)
		}
	}

	if v, ok := c.scope.local(name, node.StartByte()); ok {
		c.record(n, v)
	}

	return n
}

func (c *csharpConverter) convertLoop(node *sitter.Node) *m.Node {
	construct := m.LoopConstruct{Span: spanOf(c.file.path, node)}
	loop := c.node(m.NodeLoop, node, "", "")

	// Outer loops are listed before the loops nested in their bodies.
	c.provider.loops = append(c.provider.loops, loop)

	var body *sitter.Node

	switch node.Type() {
	case "for_statement":
		construct.Kind = m.LoopFor
		body = c.forHeader(node, &construct)
	case "while_statement":
		construct.Kind = m.LoopWhile
		construct.Condition = c.convert(fieldOr(node, "condition", 0))
		body = fieldOr(node, "body", -1)
	case "do_statement":
		construct.Kind = m.LoopDoWhile
		body = fieldOr(node, "body", 0)
		construct.Condition = c.convert(fieldOr(node, "condition", -1))
	}

	loop.Name = construct.Kind.String()

	if body != nil && body.Type() == "block" {
		construct.Body = c.convertNamed(body)
	} else if stmt := c.convert(body); stmt != nil {
		construct.Body = []*m.Node{stmt}
	}

	if construct.Condition != nil {
		loop.Children = append(loop.Children, construct.Condition)
	}

	loop.Children = append(loop.Children, construct.Body...)
	loop.Children = append(loop.Children, construct.Increments...)

	c.provider.loopParts[loop] = construct

	return loop
}

// forHeader splits `for (init; cond; update) body` on its separator tokens
// and returns the body statement.
func (c *csharpConverter) forHeader(node *sitter.Node, construct *m.LoopConstruct) *sitter.Node {
	const (
		sectionInit = iota
		sectionCondition
		sectionUpdate
		sectionBody
	)

	section := -1

	for i := 0; i < int(node.ChildCount()); i++ {
		child := node.Child(i)

		if !child.IsNamed() {
			switch child.Type() {
			case "(":
				if section < 0 {
					section = sectionInit
				}
			case ";":
				if section >= sectionInit && section < sectionUpdate {
					section++
				}
			case ")":
				section = sectionBody
			}

			continue
		}

		if child.Type() == "comment" {
			continue
		}

		switch section {
		case sectionInit:
			c.convert(child)
		case sectionCondition:
			construct.Condition = c.convert(child)
		case sectionUpdate:
			if inc := c.convert(child); inc != nil {
				construct.Increments = append(construct.Increments, inc)
			}
		case sectionBody:
			return child
		}
	}

	return nil
}

func (c *csharpConverter) resolveName(n *m.Node, name string) {
	if v, ok := c.scope.local(name, uint32(n.Span.Offset)); ok {
		c.record(n, v)
		return
	}

	if v, ok := c.scope.params[name]; ok {
		c.record(n, v)
		return
	}

	if c.typ == nil {
		return
	}

	if v, ok := c.builder.lookupVar(c.typ.node.ID, name); ok {
		c.record(n, v)
	}
}

func (c *csharpConverter) record(n *m.Node, v csharpVar) {
	c.provider.symbols[n] = v.ref

	if v.typeName != "" && v.typeName != "var" {
		c.provider.types[n] = csharpTypeRef(v.typeName)
	}
}

func csharpTypeRef(typeName string) m.TypeRef {
	switch strings.TrimSuffix(typeName, "?") {
	case "string", "String", "System.String":
		return m.TypeRef{ID: csharpStringID, Name: "string"}
	}

	return m.TypeRef{ID: normalizeTypeName(typeName), Name: typeName}
}

func spanOf(path m.Path, node *sitter.Node) m.SourceSpan {
	start := node.StartPoint()

	return m.SourceSpan{
		File:      path,
		Line:      int(start.Row) + 1,
		Column:    int(start.Column) + 1,
		Offset:    int(node.StartByte()),
		EndOffset: int(node.EndByte()),
	}
}

// implicitLambdaParameter returns the bare identifier of `x => ...`, which
// grammar versions expose either as an identifier or an implicit_parameter.
func implicitLambdaParameter(lambda *sitter.Node) *sitter.Node {
	for i := 0; i < int(lambda.ChildCount()); i++ {
		child := lambda.Child(i)
		if child.Type() == "=>" {
			return nil
		}

		if child.Type() == "identifier" || child.Type() == "implicit_parameter" {
			return child
		}
	}

	return nil
}

func ifAlternative(node *sitter.Node) *sitter.Node {
	if alt := node.ChildByFieldName("alternative"); alt != nil {
		return alt
	}

	if node.NamedChildCount() > 2 {
		return node.NamedChild(2)
	}

	return nil
}

func walkNamed(node *sitter.Node, fn func(*sitter.Node) bool) {
	if node == nil || !fn(node) {
		return
	}

	for i := 0; i < int(node.NamedChildCount()); i++ {
		walkNamed(node.NamedChild(i), fn)
	}
}

// fieldOr returns the named field, falling back to the named child at index
// (negative counts from the end) for grammar versions without field names.
func fieldOr(node *sitter.Node, field string, index int) *sitter.Node {
	if child := node.ChildByFieldName(field); child != nil {
		return child
	}

	count := int(node.NamedChildCount())
	if index < 0 {
		index += count
	}

	if index < 0 || index >= count {
		return nil
	}

	return node.NamedChild(index)
}

func fieldContent(node *sitter.Node, field string, content []byte) string {
	if child := node.ChildByFieldName(field); child != nil {
		return child.Content(content)
	}

	return ""
}

func childOfType(node *sitter.Node, typ string) *sitter.Node {
	for i := 0; i < int(node.NamedChildCount()); i++ {
		if child := node.NamedChild(i); child.Type() == typ {
			return child
		}
	}

	return nil
}

func childrenOfType(node *sitter.Node, typ string) []*sitter.Node {
	var children []*sitter.Node

	for i := 0; i < int(node.NamedChildCount()); i++ {
		if child := node.NamedChild(i); child.Type() == typ {
			children = append(children, child)
		}
	}

	return children
}

func modifierWords(node *sitter.Node, content []byte) map[string]bool {
	words := map[string]bool{}

	for i := 0; i < int(node.NamedChildCount()); i++ {
		child := node.NamedChild(i)
		if child.Type() != "modifier" {
			continue
		}

		for _, word := range strings.Fields(child.Content(content)) {
			words[word] = true
		}
	}

	return words
}

func typeArity(node *sitter.Node) int {
	params := node.ChildByFieldName("type_parameters")
	if params == nil {
		params = childOfType(node, "type_parameter_list")
	}

	if params == nil {
		return 0
	}

	return len(childrenOfType(params, "type_parameter"))
}

func declaratorName(node *sitter.Node, content []byte) string {
	if name := fieldContent(node, "name", content); name != "" {
		return name
	}

	if id := childOfType(node, "identifier"); id != nil {
		return id.Content(content)
	}

	return ""
}

func declaratorIsString(node *sitter.Node) bool {
	found := false

	walkNamed(node, func(n *sitter.Node) bool {
		if isStringLiteral(n.Type()) {
			found = true
		}

		return !found
	})

	return found
}

func memberName(node *sitter.Node, content []byte) string {
	name := fieldOr(node, "name", -1)
	if name == nil {
		return ""
	}

	if name.Type() == "generic_name" {
		if id := childOfType(name, "identifier"); id != nil {
			return id.Content(content)
		}
	}

	return name.Content(content)
}

// operatorOf returns the operator token of a binary or assignment expression.
func operatorOf(node *sitter.Node, content []byte) string {
	if op := node.ChildByFieldName("operator"); op != nil {
		return op.Content(content)
	}

	if op := childOfType(node, "assignment_operator"); op != nil {
		return op.Content(content)
	}

	for i := 0; i < int(node.ChildCount()); i++ {
		if child := node.Child(i); !child.IsNamed() {
			return child.Content(content)
		}
	}

	return ""
}

func parameterSignature(node *sitter.Node, content []byte) string {
	params := node.ChildByFieldName("parameters")
	if params == nil {
		params = childOfType(node, "parameter_list")
	}

	return "(" + strings.Join(parameterTypes(params, content), ",") + ")"
}

func bracketSignature(node *sitter.Node, content []byte) string {
	params := node.ChildByFieldName("parameters")
	if params == nil {
		params = childOfType(node, "bracketed_parameter_list")
	}

	return "[" + strings.Join(parameterTypes(params, content), ",") + "]"
}

func parameterTypes(params *sitter.Node, content []byte) []string {
	if params == nil {
		return nil
	}

	var types []string

	for _, param := range childrenOfType(params, "parameter") {
		types = append(types, strings.ReplaceAll(fieldContent(param, "type", content), " ", ""))
	}

	return types
}

func isLiteral(typ string) bool {
	return strings.HasSuffix(typ, "_literal") || typ == "interpolated_string_expression"
}

func isStringLiteral(typ string) bool {
	switch typ {
	case "string_literal", "verbatim_string_literal", "raw_string_literal", "interpolated_string_expression":
		return true
	}

	return false
}

func isIdentifier(s string) bool {
	if s == "" {
		return false
	}

	for i, r := range s {
		if r == '_' || r >= 'a' && r <= 'z' || r >= 'A' && r <= 'Z' || i > 0 && r >= '0' && r <= '9' {
			continue
		}

		return false
	}

	return true
}
