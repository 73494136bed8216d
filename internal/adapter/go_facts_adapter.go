package adapter

import (
	"context"
	"fmt"
	"go/ast"
	"go/token"
	"go/types"
	"log/slog"
	"sort"

	"golang.org/x/tools/go/packages"

	m "perfsieve.dev/pkg/perfsieve/internal/model"
)

const goLoadMode = packages.NeedName | packages.NeedFiles | packages.NeedSyntax |
	packages.NeedTypes | packages.NeedTypesInfo

// GoFactsProvider serves facts for Go packages loaded with go/packages.
//
// Go has no class inheritance, so the provider lists no type symbols and only
// the loop rules produce findings.
type GoFactsProvider struct {
	typeTable

	loops     []*m.Node
	loopParts map[*m.Node]m.LoopConstruct
	symbols   map[*m.Node]m.SymbolRef
	types     map[*m.Node]m.TypeRef
}

// NewGoFactsProvider loads the packages matching patterns relative to dir.
func NewGoFactsProvider(ctx context.Context, dir string, patterns []string) (*GoFactsProvider, error) {
	if len(patterns) == 0 {
		patterns = []string{"./..."}
	}

	cfg := &packages.Config{
		Context: ctx,
		Mode:    goLoadMode,
		Dir:     dir,
	}

	pkgs, err := packages.Load(cfg, patterns...)
	if err != nil {
		slog.Error("Failed to load Go packages", "dir", dir, "patterns", patterns, "error", err)
		return nil, fmt.Errorf("load packages: %w", err)
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	return newGoFactsFromPackages(pkgs), nil
}

func newGoFactsFromPackages(pkgs []*packages.Package) *GoFactsProvider {
	provider := &GoFactsProvider{
		typeTable: newTypeTable(nil),
		loopParts: map[*m.Node]m.LoopConstruct{},
		symbols:   map[*m.Node]m.SymbolRef{},
		types:     map[*m.Node]m.TypeRef{},
	}

	sort.Slice(pkgs, func(i, j int) bool { return pkgs[i].ID < pkgs[j].ID })

	for _, pkg := range pkgs {
		for _, pkgErr := range pkg.Errors {
			slog.Warn("Go package has errors", "package", pkg.ID, "error", pkgErr)
		}

		if pkg.TypesInfo == nil {
			continue
		}

		conv := &goConverter{fset: pkg.Fset, info: pkg.TypesInfo, provider: provider, params: map[types.Object]struct{}{}}
		for _, file := range pkg.Syntax {
			conv.convertFile(file)
		}
	}

	slog.Debug("Built Go facts", "packages", len(pkgs), "loops", len(provider.loops))

	return provider
}

// ResolveSymbol implements FactsProvider.
func (p *GoFactsProvider) ResolveSymbol(expr *m.Node) (m.SymbolRef, bool) {
	ref, ok := p.symbols[expr]
	return ref, ok
}

// ResolveType implements FactsProvider.
func (p *GoFactsProvider) ResolveType(expr *m.Node) (m.TypeRef, bool) {
	ref, ok := p.types[expr]
	return ref, ok
}

// LoopNodes implements FactsProvider.
func (p *GoFactsProvider) LoopNodes() []*m.Node {
	return p.loops
}

// EnumerateLoopParts implements FactsProvider.
func (p *GoFactsProvider) EnumerateLoopParts(loop *m.Node) (m.LoopConstruct, bool) {
	construct, ok := p.loopParts[loop]
	return construct, ok
}

type goConverter struct {
	fset     *token.FileSet
	info     *types.Info
	provider *GoFactsProvider
	params   map[types.Object]struct{}
}

func (c *goConverter) convertFile(file *ast.File) {
	for _, decl := range file.Decls {
		fn, ok := decl.(*ast.FuncDecl)
		if !ok || fn.Body == nil {
			continue
		}

		c.markParams(fn.Recv)
		c.markParams(fn.Type.Params)
		c.markParams(fn.Type.Results)
		c.convert(fn.Body)
	}
}

func (c *goConverter) markParams(fields *ast.FieldList) {
	if fields == nil {
		return
	}

	for _, field := range fields.List {
		for _, name := range field.Names {
			if obj := c.info.Defs[name]; obj != nil {
				c.params[obj] = struct{}{}
			}
		}
	}
}

func (c *goConverter) convert(node ast.Node) *m.Node {
	switch n := node.(type) {
	case nil:
		return nil
	case *ast.CallExpr:
		children := []*m.Node{c.convert(n.Fun)}
		for _, arg := range n.Args {
			children = append(children, c.convert(arg))
		}

		return c.node(m.NodeInvocation, n, "", "", children...)
	case *ast.SelectorExpr:
		sel := c.node(m.NodeMemberAccess, n, "", n.Sel.Name, c.convert(n.X))
		c.resolve(sel, n.Sel)

		return sel
	case *ast.Ident:
		ident := c.node(m.NodeIdentifier, n, "", n.Name)
		c.resolve(ident, n)

		return ident
	case *ast.ParenExpr:
		return c.convert(n.X)
	case *ast.BasicLit:
		return c.node(m.NodeLiteral, n, "", n.Value)
	case *ast.BinaryExpr:
		return c.node(m.NodeBinary, n, n.Op.String(), "", c.convert(n.X), c.convert(n.Y))
	case *ast.UnaryExpr:
		return c.node(m.NodePrefixUnary, n, n.Op.String(), "", c.convert(n.X))
	case *ast.IncDecStmt:
		return c.node(m.NodePostfixUnary, n, n.Tok.String(), "", c.convert(n.X))
	case *ast.AssignStmt:
		return c.convertAssign(n)
	case *ast.ValueSpec:
		return c.convertValueSpec(n)
	case *ast.FuncLit:
		c.markParams(n.Type.Params)
		c.markParams(n.Type.Results)

		return c.node(m.NodeOther, n, "", "func", c.convert(n.Body))
	case *ast.ForStmt:
		return c.convertFor(n)
	case *ast.RangeStmt:
		return c.convertRange(n)
	case *ast.IfStmt:
		return c.convertIf(n)
	case *ast.BlockStmt:
		return c.node(m.NodeBlock, n, "", "", c.convertList(n.List)...)
	case *ast.ExprStmt:
		return c.node(m.NodeStatement, n, "", "", c.convert(n.X))
	}

	return c.node(m.NodeOther, node, "", fmt.Sprintf("%T", node), c.directChildren(node)...)
}

func (c *goConverter) convertList(stmts []ast.Stmt) []*m.Node {
	nodes := make([]*m.Node, 0, len(stmts))
	for _, stmt := range stmts {
		if converted := c.convert(stmt); converted != nil {
			nodes = append(nodes, converted)
		}
	}

	return nodes
}

func (c *goConverter) directChildren(node ast.Node) []*m.Node {
	var children []*m.Node

	ast.Inspect(node, func(child ast.Node) bool {
		if child == node {
			return true
		}

		if child != nil {
			children = append(children, c.convert(child))
		}

		return false
	})

	return children
}

func (c *goConverter) node(kind m.NodeKind, src ast.Node, op, name string, children ...*m.Node) *m.Node {
	n := &m.Node{Kind: kind, Op: op, Name: name, Span: c.span(src)}

	for _, child := range children {
		if child != nil {
			n.Children = append(n.Children, child)
		}
	}

	if expr, ok := src.(ast.Expr); ok {
		if t := c.info.TypeOf(expr); t != nil {
			c.provider.types[n] = goTypeRef(t)
		}
	}

	return n
}

func (c *goConverter) span(node ast.Node) m.SourceSpan {
	start := c.fset.Position(node.Pos())

	return m.SourceSpan{
		File:      m.Path(start.Filename),
		Line:      start.Line,
		Column:    start.Column,
		Offset:    start.Offset,
		EndOffset: c.fset.Position(node.End()).Offset,
	}
}

// convertAssign produces one node per left-hand side. Names introduced by :=
// become declarators, everything else an assignment.
func (c *goConverter) convertAssign(stmt *ast.AssignStmt) *m.Node {
	var values []*m.Node
	for _, rhs := range stmt.Rhs {
		values = append(values, c.convert(rhs))
	}

	parts := make([]*m.Node, 0, len(stmt.Lhs))

	for i, lhs := range stmt.Lhs {
		var value *m.Node
		if len(values) == len(stmt.Lhs) {
			value = values[i]
		} else if i == 0 && len(values) > 0 {
			value = values[0]
		}

		if ident, ok := lhs.(*ast.Ident); ok && stmt.Tok == token.DEFINE && c.info.Defs[ident] != nil {
			decl := c.node(m.NodeDeclarator, ident, "", ident.Name, value)
			c.resolve(decl, ident)
			parts = append(parts, decl)

			continue
		}

		parts = append(parts, c.node(m.NodeAssignment, stmt, stmt.Tok.String(), "", c.convert(lhs), value))
	}

	if len(parts) == 1 {
		return parts[0]
	}

	return c.node(m.NodeStatement, stmt, "", "", parts...)
}

// convertIf keeps an init statement ahead of the conditional it scopes.
func (c *goConverter) convertIf(stmt *ast.IfStmt) *m.Node {
	var init *m.Node
	if stmt.Init != nil {
		init = c.convert(stmt.Init)
	}

	cond := c.node(m.NodeConditional, stmt, "", "", c.convert(stmt.Cond), c.convert(stmt.Body), c.convert(stmt.Else))
	if init == nil {
		return cond
	}

	return c.node(m.NodeStatement, stmt, "", "", init, cond)
}

func (c *goConverter) convertValueSpec(spec *ast.ValueSpec) *m.Node {
	parts := make([]*m.Node, 0, len(spec.Names))

	for i, name := range spec.Names {
		var value *m.Node
		if i < len(spec.Values) {
			value = c.convert(spec.Values[i])
		}

		decl := c.node(m.NodeDeclarator, name, "", name.Name, value)
		c.resolve(decl, name)
		parts = append(parts, decl)
	}

	return c.node(m.NodeStatement, spec, "", "", parts...)
}

func (c *goConverter) convertFor(stmt *ast.ForStmt) *m.Node {
	construct := m.LoopConstruct{Kind: m.LoopFor, Span: c.span(stmt)}
	if stmt.Init == nil && stmt.Post == nil && stmt.Cond != nil {
		construct.Kind = m.LoopWhile
	}

	loop := c.registerLoop(stmt, construct.Kind)

	if stmt.Init != nil {
		loop.Children = append(loop.Children, c.convert(stmt.Init))
	}

	construct.Condition = c.convert(stmt.Cond)
	construct.Body = c.convertList(stmt.Body.List)

	if stmt.Post != nil {
		construct.Increments = []*m.Node{c.convert(stmt.Post)}
	}

	return c.finishLoop(loop, construct)
}

// convertRange models a range loop as a for loop without a condition whose
// body starts with the iteration variables.
func (c *goConverter) convertRange(stmt *ast.RangeStmt) *m.Node {
	construct := m.LoopConstruct{Kind: m.LoopFor, Span: c.span(stmt)}
	loop := c.registerLoop(stmt, construct.Kind)

	loop.Children = append(loop.Children, c.convert(stmt.X))

	for _, expr := range []ast.Expr{stmt.Key, stmt.Value} {
		ident, ok := expr.(*ast.Ident)
		if !ok || stmt.Tok != token.DEFINE || ident.Name == "_" {
			continue
		}

		decl := c.node(m.NodeDeclarator, ident, "", ident.Name)
		c.resolve(decl, ident)
		construct.Body = append(construct.Body, decl)
	}

	construct.Body = append(construct.Body, c.convertList(stmt.Body.List)...)

	return c.finishLoop(loop, construct)
}

// registerLoop records the loop before its body is converted so nested loops
// follow their parents.
func (c *goConverter) registerLoop(stmt ast.Node, kind m.LoopKind) *m.Node {
	loop := c.node(m.NodeLoop, stmt, "", kind.String())
	c.provider.loops = append(c.provider.loops, loop)

	return loop
}

func (c *goConverter) finishLoop(loop *m.Node, construct m.LoopConstruct) *m.Node {
	if construct.Condition != nil {
		loop.Children = append(loop.Children, construct.Condition)
	}

	loop.Children = append(loop.Children, construct.Body...)
	loop.Children = append(loop.Children, construct.Increments...)
	c.provider.loopParts[loop] = construct

	return loop
}

func (c *goConverter) resolve(n *m.Node, ident *ast.Ident) {
	obj := c.info.ObjectOf(ident)

	v, ok := obj.(*types.Var)
	if !ok {
		return
	}

	kind := m.SymbolLocal

	switch {
	case v.IsField():
		kind = m.SymbolField
	case v.Parent() != nil && v.Pkg() != nil && v.Parent() == v.Pkg().Scope():
		kind = m.SymbolField
	default:
		if _, isParam := c.params[v]; isParam {
			kind = m.SymbolParameter
		}
	}

	c.provider.symbols[n] = m.SymbolRef{Kind: kind, ID: fmt.Sprintf("%s@%s", v.Name(), c.fset.Position(v.Pos()))}
	c.provider.types[n] = goTypeRef(v.Type())
}

func goTypeRef(t types.Type) m.TypeRef {
	if basic, ok := t.Underlying().(*types.Basic); ok && basic.Info()&types.IsString != 0 {
		return m.TypeRef{ID: "string", Name: t.String()}
	}

	return m.TypeRef{ID: t.String(), Name: t.String()}
}
