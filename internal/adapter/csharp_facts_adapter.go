package adapter

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
	"strings"

	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/csharp"
	"golang.org/x/sync/errgroup"

	m "perfsieve.dev/pkg/perfsieve/internal/model"
)

// Well-known IDs for the implicit roots of the C# class hierarchy.
const (
	csharpObjectID = "System.Object"
	csharpStringID = "System.String"
)

var csharpSpecialBases = map[string]string{
	"object":                   csharpObjectID,
	"Object":                   csharpObjectID,
	"System.Object":            csharpObjectID,
	"ValueType":                "System.ValueType",
	"System.ValueType":         "System.ValueType",
	"Enum":                     "System.Enum",
	"System.Enum":              "System.Enum",
	"Delegate":                 "System.Delegate",
	"System.Delegate":          "System.Delegate",
	"MulticastDelegate":        "System.MulticastDelegate",
	"System.MulticastDelegate": "System.MulticastDelegate",
	"Array":                    "System.Array",
	"System.Array":             "System.Array",
}

// CSharpFactsProvider derives facts from C# source files using tree-sitter.
//
// Symbol resolution is lexical: identifiers resolve to locals and parameters
// of the enclosing member first, then to fields and properties of the
// enclosing type and its base types declared in the program. Anything else
// is left unresolved and is treated as "not a variable" by the engine.
type CSharpFactsProvider struct {
	typeTable

	loops     []*m.Node
	loopParts map[*m.Node]m.LoopConstruct
	symbols   map[*m.Node]m.SymbolRef
	types     map[*m.Node]m.TypeRef
}

// csharpFile is one parsed source file; the tree must stay alive until every
// node of it has been converted.
type csharpFile struct {
	path    m.Path
	content []byte
	tree    *sitter.Tree
	decls   []csharpDecl
}

// csharpDecl is one declaration of a type in one file.
type csharpDecl struct {
	typ  *csharpType
	node *sitter.Node
	// usings lists the namespaces imported where the declaration appears.
	usings []string
}

// csharpType accumulates the declarations of one (possibly partial) type.
type csharpType struct {
	node      *m.TypeNode
	baseName  string
	namespace string
	// baseUsings are the using directives in scope of the base clause.
	baseUsings []string
	// vars maps field and property names to their symbols and declared types.
	vars map[string]csharpVar
}

type csharpVar struct {
	ref      m.SymbolRef
	typeName string
}

// NewCSharpFactsProvider parses files and builds the program facts.
func NewCSharpFactsProvider(ctx context.Context, fs SourceFSAdapter, files []m.Path, threads int) (*CSharpFactsProvider, error) {
	parsed := make([]*csharpFile, len(files))

	group, groupCtx := errgroup.WithContext(ctx)
	if threads > 0 {
		group.SetLimit(threads)
	}

	for i, path := range files {
		group.Go(func() error {
			file, err := parseCSharpFile(groupCtx, fs, path)
			if err != nil {
				return err
			}

			parsed[i] = file

			return nil
		})
	}

	if err := group.Wait(); err != nil {
		return nil, err
	}

	builder := newCSharpBuilder()
	for _, file := range parsed {
		builder.collectTypes(file)
	}

	builder.linkTypes()

	provider := &CSharpFactsProvider{
		loopParts: map[*m.Node]m.LoopConstruct{},
		symbols:   map[*m.Node]m.SymbolRef{},
		types:     map[*m.Node]m.TypeRef{},
	}

	for _, file := range parsed {
		conv := &csharpConverter{builder: builder, file: file, provider: provider}
		conv.convertFile()
		file.tree.Close()
	}

	provider.typeTable = newTypeTable(builder.typeNodes())

	slog.Debug("Built C# facts", "files", len(files), "types", len(provider.EnumerateTypeSymbols()), "loops", len(provider.loops))

	return provider, nil
}

func parseCSharpFile(ctx context.Context, fs SourceFSAdapter, path m.Path) (*csharpFile, error) {
	content, err := fs.ReadFile(path)
	if err != nil {
		slog.Error("Failed to read source file", "path", path, "error", err)
		return nil, fmt.Errorf("read %s: %w", path, err)
	}

	parser := sitter.NewParser()
	defer parser.Close()

	parser.SetLanguage(csharp.GetLanguage())

	tree, err := parser.ParseCtx(ctx, nil, content)
	if err != nil {
		slog.Error("Failed to parse source file", "path", path, "error", err)
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}

	return &csharpFile{path: path, content: content, tree: tree}, nil
}

// ResolveSymbol implements FactsProvider.
func (p *CSharpFactsProvider) ResolveSymbol(expr *m.Node) (m.SymbolRef, bool) {
	ref, ok := p.symbols[expr]
	return ref, ok
}

// ResolveType implements FactsProvider.
func (p *CSharpFactsProvider) ResolveType(expr *m.Node) (m.TypeRef, bool) {
	ref, ok := p.types[expr]
	return ref, ok
}

// LoopNodes implements FactsProvider.
func (p *CSharpFactsProvider) LoopNodes() []*m.Node {
	return p.loops
}

// EnumerateLoopParts implements FactsProvider.
func (p *CSharpFactsProvider) EnumerateLoopParts(loop *m.Node) (m.LoopConstruct, bool) {
	construct, ok := p.loopParts[loop]
	return construct, ok
}

// csharpBuilder owns the whole-program type table while files are converted.
type csharpBuilder struct {
	byID     map[string]*csharpType
	order    []string
	bySimple map[string][]string
	external map[string]*m.TypeNode
}

func newCSharpBuilder() *csharpBuilder {
	b := &csharpBuilder{
		byID:     map[string]*csharpType{},
		bySimple: map[string][]string{},
		external: map[string]*m.TypeNode{},
	}

	for _, id := range []string{csharpObjectID, "System.ValueType", "System.Enum", "System.Delegate", "System.MulticastDelegate", "System.Array"} {
		b.external[id] = &m.TypeNode{
			ID:            id,
			Name:          id[strings.LastIndex(id, ".")+1:],
			Kind:          m.TypeClass,
			Accessibility: m.AccessPublic,
			IsExternal:    true,
			IsSpecial:     true,
			Modifiers:     m.Modifiers{Abstract: id != csharpObjectID},
		}
	}

	return b
}

func (b *csharpBuilder) collectTypes(file *csharpFile) {
	b.collectDecls(file, file.tree.RootNode(), "", nil, nil)
}

func (b *csharpBuilder) collectDecls(file *csharpFile, node *sitter.Node, namespace string, usings []string, outer *csharpType) {
	for i := 0; i < int(node.NamedChildCount()); i++ {
		child := node.NamedChild(i)

		switch child.Type() {
		case "using_directive":
			if imported := usingNamespace(child, file.content); imported != "" {
				usings = append(slices.Clip(usings), imported)
			}
		case "namespace_declaration":
			name := joinName(namespace, fieldContent(child, "name", file.content))
			if body := child.ChildByFieldName("body"); body != nil {
				b.collectDecls(file, body, name, usings, nil)
			}
		case "file_scoped_namespace_declaration":
			namespace = joinName(namespace, fieldContent(child, "name", file.content))
			b.collectDecls(file, child, namespace, usings, nil)
		case "declaration_list":
			b.collectDecls(file, child, namespace, usings, outer)
		default:
			if kind, ok := csharpTypeKind(child); ok {
				b.collectType(file, child, kind, namespace, usings, outer)
			}
		}
	}
}

// usingNamespace returns the namespace a plain `using N;` imports. Aliases
// and `using static` import no namespace.
func usingNamespace(node *sitter.Node, content []byte) string {
	var last *sitter.Node

	for i := 0; i < int(node.ChildCount()); i++ {
		child := node.Child(i)

		switch child.Type() {
		case "static", "name_equals", "=":
			return ""
		case "comment":
			continue
		}

		if child.IsNamed() {
			last = child
		}
	}

	if last == nil {
		return ""
	}

	return last.Content(content)
}

func csharpTypeKind(node *sitter.Node) (m.TypeKind, bool) {
	switch node.Type() {
	case "class_declaration":
		return m.TypeClass, true
	case "record_declaration":
		for i := 0; i < int(node.ChildCount()); i++ {
			if node.Child(i).Type() == "struct" {
				return m.TypeStruct, true
			}
		}

		return m.TypeClass, true
	case "struct_declaration", "record_struct_declaration":
		return m.TypeStruct, true
	case "interface_declaration":
		return m.TypeInterface, true
	case "enum_declaration":
		return m.TypeEnum, true
	case "delegate_declaration":
		return m.TypeDelegate, true
	}

	return 0, false
}

func (b *csharpBuilder) collectType(file *csharpFile, node *sitter.Node, kind m.TypeKind, namespace string, usings []string, outer *csharpType) {
	name := fieldContent(node, "name", file.content)
	if name == "" {
		return
	}

	if arity := typeArity(node); arity > 0 {
		name = fmt.Sprintf("%s`%d", name, arity)
	}

	var id, containing string
	if outer != nil {
		id = outer.node.ID + "." + name
		containing = outer.node.ID
	} else {
		id = joinName(namespace, name)
	}

	modifiers := modifierWords(node, file.content)

	defaultAccess := m.AccessInternal
	if outer != nil {
		defaultAccess = m.AccessPrivate
	}

	ct, ok := b.byID[id]
	if !ok {
		ct = &csharpType{
			node: &m.TypeNode{
				ID:            id,
				Name:          name,
				Kind:          kind,
				Accessibility: accessibilityOf(modifiers, defaultAccess),
				Containing:    containing,
			},
			namespace: namespace,
			vars:      map[string]csharpVar{},
		}
		b.byID[id] = ct
		b.order = append(b.order, id)

		simple := strings.SplitN(name, "`", 2)[0]
		b.bySimple[simple] = append(b.bySimple[simple], id)
	} else if _, explicit := explicitAccess(modifiers); explicit {
		ct.node.Accessibility = accessibilityOf(modifiers, defaultAccess)
	}

	applyTypeModifiers(&ct.node.Modifiers, modifiers)
	ct.node.Locations = append(ct.node.Locations, spanOf(file.path, node))
	file.decls = append(file.decls, csharpDecl{typ: ct, node: node, usings: usings})

	if ct.baseName == "" && kind == m.TypeClass {
		if bases := childOfType(node, "base_list"); bases != nil && bases.NamedChildCount() > 0 {
			ct.baseName = bases.NamedChild(0).Content(file.content)
			ct.baseUsings = usings
		}
	}

	body := node.ChildByFieldName("body")
	if body == nil {
		body = childOfType(node, "declaration_list")
	}

	if body == nil {
		return
	}

	for i := 0; i < int(body.NamedChildCount()); i++ {
		member := body.NamedChild(i)
		if memberKind, ok := csharpTypeKind(member); ok {
			b.collectType(file, member, memberKind, namespace, usings, ct)
			continue
		}

		b.collectMember(file, ct, member)
	}
}

func (b *csharpBuilder) collectMember(file *csharpFile, ct *csharpType, node *sitter.Node) {
	words := modifierWords(node, file.content)
	access := accessibilityOf(words, m.AccessPrivate)

	if ct.node.Kind == m.TypeInterface {
		access = m.AccessPublic
	}

	member := m.Member{
		IsVirtual:     words["virtual"],
		IsAbstract:    words["abstract"],
		IsOverride:    words["override"],
		Accessibility: access,
	}
	member.IsSealedOverride = member.IsOverride && words["sealed"]

	switch node.Type() {
	case "method_declaration":
		member.Name = fieldContent(node, "name", file.content) + parameterSignature(node, file.content)
	case "property_declaration":
		name := fieldContent(node, "name", file.content)
		member.Name = name
		ct.vars[name] = csharpVar{
			ref:      m.SymbolRef{Kind: m.SymbolProperty, ID: ct.node.ID + "." + name},
			typeName: fieldContent(node, "type", file.content),
		}
	case "indexer_declaration":
		member.Name = "this" + bracketSignature(node, file.content)
	case "event_declaration":
		member.Name = fieldContent(node, "name", file.content)
	case "event_field_declaration", "field_declaration":
		decl := childOfType(node, "variable_declaration")
		if decl == nil {
			return
		}

		typeName := fieldContent(decl, "type", file.content)

		for _, declarator := range childrenOfType(decl, "variable_declarator") {
			name := declaratorName(declarator, file.content)
			if name == "" {
				continue
			}

			if node.Type() == "field_declaration" {
				ct.vars[name] = csharpVar{
					ref:      m.SymbolRef{Kind: m.SymbolField, ID: ct.node.ID + "." + name},
					typeName: typeName,
				}

				continue
			}

			event := member
			event.Name = name
			ct.node.Members = append(ct.node.Members, event)
		}

		return
	default:
		return
	}

	if member.Name != "" {
		ct.node.Members = append(ct.node.Members, member)
	}
}

// linkTypes resolves base type names once every declaration is known.
func (b *csharpBuilder) linkTypes() {
	for _, id := range b.order {
		ct := b.byID[id]
		if ct.node.Kind != m.TypeClass {
			continue
		}

		if ct.baseName == "" {
			ct.node.Base = csharpObjectID
			continue
		}

		if special, ok := csharpSpecialBases[ct.baseName]; ok {
			ct.node.Base = special
			continue
		}

		// The base clause is looked up from the enclosing scope, not the type itself.
		if baseID, ok := b.lookupType(ct.baseName, b.byID[ct.node.Containing], ct.namespace, ct.baseUsings); ok {
			if b.byID[baseID].node.Kind == m.TypeClass {
				ct.node.Base = baseID
			} else {
				ct.node.Base = csharpObjectID
			}

			continue
		}

		if looksLikeInterface(ct.baseName) {
			ct.node.Base = csharpObjectID
			continue
		}

		ct.node.Base = b.externalClass(ct.baseName)
	}
}

func (b *csharpBuilder) externalClass(name string) string {
	id := normalizeTypeName(name)
	if _, ok := b.external[id]; !ok {
		b.external[id] = &m.TypeNode{
			ID:            id,
			Name:          id,
			Kind:          m.TypeClass,
			Accessibility: m.AccessPublic,
			IsExternal:    true,
			Base:          csharpObjectID,
		}
	}

	return id
}

// lookupType resolves a type name as written in source to a program type ID.
// Lookup runs from the innermost scope outward: the types nested in from and
// its containing types, then namespace and its parents, then the global
// namespace, then the namespaces imported by usings. A simple name matching
// more than one program type is left unresolved.
func (b *csharpBuilder) lookupType(name string, from *csharpType, namespace string, usings []string) (string, bool) {
	normalized := normalizeTypeName(name)

	for ct := from; ct != nil; ct = b.byID[ct.node.Containing] {
		if candidate := ct.node.ID + "." + normalized; b.byID[candidate] != nil {
			return candidate, true
		}
	}

	for ns := namespace; ns != ""; ns = parentNamespace(ns) {
		if candidate := ns + "." + normalized; b.byID[candidate] != nil {
			return candidate, true
		}
	}

	if b.byID[normalized] != nil {
		return normalized, true
	}

	var imported []string

	for _, ns := range usings {
		if candidate := joinName(ns, normalized); b.byID[candidate] != nil && !slices.Contains(imported, candidate) {
			imported = append(imported, candidate)
		}
	}

	switch len(imported) {
	case 0:
	case 1:
		return imported[0], true
	default:
		return "", false
	}

	if strings.Contains(normalized, ".") {
		return "", false
	}

	// Usings declared in files outside the program, such as global usings, are
	// not visible here; accept a simple name only when it is unique.
	var matches []string

	for _, candidate := range b.bySimple[strings.SplitN(normalized, "`", 2)[0]] {
		if b.byID[candidate].node.Name == normalized {
			matches = append(matches, candidate)
		}
	}

	if len(matches) != 1 {
		return "", false
	}

	return matches[0], true
}

func parentNamespace(namespace string) string {
	if i := strings.LastIndex(namespace, "."); i >= 0 {
		return namespace[:i]
	}

	return ""
}

// lookupVar finds a field or property named name on the type or its bases.
func (b *csharpBuilder) lookupVar(typeID, name string) (csharpVar, bool) {
	seen := map[string]struct{}{}

	for typeID != "" {
		if _, loop := seen[typeID]; loop {
			break
		}

		seen[typeID] = struct{}{}

		ct, ok := b.byID[typeID]
		if !ok {
			break
		}

		if v, ok := ct.vars[name]; ok {
			return v, true
		}

		typeID = ct.node.Base
	}

	return csharpVar{}, false
}

func (b *csharpBuilder) typeNodes() []*m.TypeNode {
	nodes := make([]*m.TypeNode, 0, len(b.order)+len(b.external))
	for _, id := range b.order {
		nodes = append(nodes, b.byID[id].node)
	}

	externals := make([]string, 0, len(b.external))
	for id := range b.external {
		externals = append(externals, id)
	}

	slices.Sort(externals)

	for _, id := range externals {
		nodes = append(nodes, b.external[id])
	}

	return nodes
}

func applyTypeModifiers(mods *m.Modifiers, words map[string]bool) {
	mods.Abstract = mods.Abstract || words["abstract"]
	mods.Sealed = mods.Sealed || words["sealed"]
	mods.Static = mods.Static || words["static"]
	mods.Partial = mods.Partial || words["partial"]
}

func explicitAccess(words map[string]bool) (m.Accessibility, bool) {
	switch {
	case words["public"]:
		return m.AccessPublic, true
	case words["protected"] && words["internal"]:
		return m.AccessProtectedOrInternal, true
	case words["private"] && words["protected"]:
		return m.AccessProtectedAndInternal, true
	case words["protected"]:
		return m.AccessProtected, true
	case words["internal"]:
		return m.AccessInternal, true
	case words["private"]:
		return m.AccessPrivate, true
	}

	return 0, false
}

func accessibilityOf(words map[string]bool, fallback m.Accessibility) m.Accessibility {
	if access, ok := explicitAccess(words); ok {
		return access
	}

	return fallback
}

func looksLikeInterface(name string) bool {
	simple := name[strings.LastIndex(name, ".")+1:]
	return len(simple) > 1 && simple[0] == 'I' && simple[1] >= 'A' && simple[1] <= 'Z'
}

// normalizeTypeName turns "Foo<int, string>" into "Foo`2".
func normalizeTypeName(name string) string {
	name = strings.TrimPrefix(strings.TrimSpace(name), "global::")

	open := strings.IndexByte(name, '<')
	if open < 0 {
		return name
	}

	depth, arity := 0, 1
	for _, r := range name[open:] {
		switch r {
		case '<':
			depth++
		case '>':
			depth--
		case ',':
			if depth == 1 {
				arity++
			}
		}
	}

	return fmt.Sprintf("%s`%d", name[:open], arity)
}

func joinName(prefix, name string) string {
	if prefix == "" {
		return name
	}

	if name == "" {
		return prefix
	}

	return prefix + "." + name
}
