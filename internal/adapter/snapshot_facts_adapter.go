package adapter

import (
	"bytes"
	"errors"
	"fmt"
	"log/slog"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"

	m "perfsieve.dev/pkg/perfsieve/internal/model"
)

// ErrInvalidSnapshot is returned when a facts snapshot fails validation.
var ErrInvalidSnapshot = errors.New("invalid facts snapshot")

const currentSnapshotVersion = 1

// snapshotFile is the YAML form of a program snapshot produced by an external
// compiler front end.
type snapshotFile struct {
	Version int            `yaml:"version" validate:"required,eq=1"`
	Types   []snapshotType `yaml:"types" validate:"dive"`
	Loops   []snapshotLoop `yaml:"loops" validate:"dive"`
}

type snapshotType struct {
	ID            string           `yaml:"id" validate:"required"`
	Name          string           `yaml:"name"`
	Kind          string           `yaml:"kind" validate:"required,oneof=class struct interface enum delegate"`
	Accessibility string           `yaml:"accessibility" validate:"omitempty,accessibility"`
	Modifiers     m.Modifiers      `yaml:"modifiers"`
	Implicit      bool             `yaml:"implicit"`
	Script        bool             `yaml:"script"`
	External      bool             `yaml:"external"`
	Special       bool             `yaml:"special"`
	Base          string           `yaml:"base"`
	Containing    string           `yaml:"containing"`
	Members       []snapshotMember `yaml:"members" validate:"dive"`
	Locations     []m.SourceSpan   `yaml:"locations"`
}

type snapshotMember struct {
	Name           string `yaml:"name" validate:"required"`
	Virtual        bool   `yaml:"virtual"`
	Abstract       bool   `yaml:"abstract"`
	Override       bool   `yaml:"override"`
	SealedOverride bool   `yaml:"sealed_override"`
	Accessibility  string `yaml:"accessibility" validate:"omitempty,accessibility"`
	Implicit       bool   `yaml:"implicit"`
}

type snapshotLoop struct {
	Kind       string         `yaml:"kind" validate:"required,oneof=for while do"`
	Span       m.SourceSpan   `yaml:"span"`
	Condition  *snapshotNode  `yaml:"condition"`
	Body       []snapshotNode `yaml:"body"`
	Increments []snapshotNode `yaml:"increments"`
}

type snapshotNode struct {
	Kind     string          `yaml:"kind"`
	Op       string          `yaml:"op"`
	Name     string          `yaml:"name"`
	Span     m.SourceSpan    `yaml:"span"`
	Symbol   *snapshotSymbol `yaml:"symbol"`
	Type     string          `yaml:"type"`
	Children []snapshotNode  `yaml:"children"`
}

type snapshotSymbol struct {
	Kind string `yaml:"kind" validate:"required,oneof=local field property parameter"`
	ID   string `yaml:"id" validate:"required"`
}

// SnapshotFactsProvider serves facts recorded in a YAML snapshot.
type SnapshotFactsProvider struct {
	typeTable

	loops     []*m.Node
	loopParts map[*m.Node]m.LoopConstruct
	symbols   map[*m.Node]m.SymbolRef
	types     map[*m.Node]m.TypeRef
}

// LoadSnapshot reads and validates the snapshot at path.
func LoadSnapshot(fs SourceFSAdapter, path m.Path) (*SnapshotFactsProvider, error) {
	content, err := fs.ReadFile(path)
	if err != nil {
		slog.Error("Failed to read facts snapshot", "path", path, "error", err)
		return nil, fmt.Errorf("read snapshot %s: %w", path, err)
	}

	return ParseSnapshot(content)
}

// ParseSnapshot decodes and validates snapshot content.
func ParseSnapshot(content []byte) (*SnapshotFactsProvider, error) {
	var file snapshotFile

	decoder := yaml.NewDecoder(bytes.NewReader(content))
	decoder.KnownFields(true)

	if err := decoder.Decode(&file); err != nil {
		return nil, fmt.Errorf("%w: decode: %w", ErrInvalidSnapshot, err)
	}

	if err := validateSnapshot(&file); err != nil {
		return nil, err
	}

	provider := &SnapshotFactsProvider{
		loopParts: make(map[*m.Node]m.LoopConstruct, len(file.Loops)),
		symbols:   map[*m.Node]m.SymbolRef{},
		types:     map[*m.Node]m.TypeRef{},
	}

	typeNodes := make([]*m.TypeNode, 0, len(file.Types))
	for _, st := range file.Types {
		typeNodes = append(typeNodes, st.toModel())
	}

	provider.typeTable = newTypeTable(typeNodes)

	for i := range file.Loops {
		if err := provider.addLoop(&file.Loops[i]); err != nil {
			return nil, fmt.Errorf("%w: loop %d: %w", ErrInvalidSnapshot, i, err)
		}
	}

	slog.Debug("Loaded facts snapshot", "types", len(typeNodes), "loops", len(provider.loops))

	return provider, nil
}

var snapshotValidator = newSnapshotValidator()

func newSnapshotValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())

	err := v.RegisterValidation("accessibility", func(fl validator.FieldLevel) bool {
		_, ok := m.ParseAccessibility(fl.Field().String())
		return ok
	})
	if err != nil {
		panic(fmt.Sprintf("register snapshot validation: %v", err))
	}

	return v
}

func validateSnapshot(file *snapshotFile) error {
	if file.Version == 0 {
		file.Version = currentSnapshotVersion
	}

	if err := snapshotValidator.Struct(file); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidSnapshot, err)
	}

	seen := make(map[string]struct{}, len(file.Types))
	for _, st := range file.Types {
		if st.Modifiers.Sealed && st.Modifiers.Abstract {
			return fmt.Errorf("%w: type %s is both sealed and abstract", ErrInvalidSnapshot, st.ID)
		}

		if _, dup := seen[st.ID]; dup {
			return fmt.Errorf("%w: duplicate type %s", ErrInvalidSnapshot, st.ID)
		}

		seen[st.ID] = struct{}{}
	}

	return nil
}

func (st snapshotType) toModel() *m.TypeNode {
	kind, _ := m.ParseTypeKind(st.Kind)

	access, ok := m.ParseAccessibility(st.Accessibility)
	if !ok {
		access = m.AccessInternal
	}

	members := make([]m.Member, 0, len(st.Members))
	for _, sm := range st.Members {
		memberAccess, ok := m.ParseAccessibility(sm.Accessibility)
		if !ok {
			memberAccess = m.AccessPrivate
		}

		members = append(members, m.Member{
			Name:             sm.Name,
			IsVirtual:        sm.Virtual,
			IsAbstract:       sm.Abstract,
			IsOverride:       sm.Override || sm.SealedOverride,
			IsSealedOverride: sm.SealedOverride,
			Accessibility:    memberAccess,
			IsImplicit:       sm.Implicit,
		})
	}

	name := st.Name
	if name == "" {
		name = st.ID
	}

	return &m.TypeNode{
		ID:            st.ID,
		Name:          name,
		Kind:          kind,
		Accessibility: access,
		Modifiers:     st.Modifiers,
		IsImplicit:    st.Implicit,
		IsScript:      st.Script,
		IsExternal:    st.External,
		IsSpecial:     st.Special,
		Base:          st.Base,
		Containing:    st.Containing,
		Members:       members,
		Locations:     st.Locations,
	}
}

func (p *SnapshotFactsProvider) addLoop(sl *snapshotLoop) error {
	construct := m.LoopConstruct{Span: sl.Span}

	switch sl.Kind {
	case "for":
		construct.Kind = m.LoopFor
	case "while":
		construct.Kind = m.LoopWhile
	case "do":
		construct.Kind = m.LoopDoWhile
	}

	loopNode := &m.Node{Kind: m.NodeLoop, Name: sl.Kind, Span: sl.Span}

	if sl.Condition != nil {
		cond, err := p.convertNode(sl.Condition)
		if err != nil {
			return fmt.Errorf("condition: %w", err)
		}

		construct.Condition = cond
		loopNode.Children = append(loopNode.Children, cond)
	}

	for i := range sl.Body {
		stmt, err := p.convertNode(&sl.Body[i])
		if err != nil {
			return fmt.Errorf("body[%d]: %w", i, err)
		}

		construct.Body = append(construct.Body, stmt)
		loopNode.Children = append(loopNode.Children, stmt)
	}

	if construct.Kind == m.LoopFor {
		for i := range sl.Increments {
			inc, err := p.convertNode(&sl.Increments[i])
			if err != nil {
				return fmt.Errorf("increments[%d]: %w", i, err)
			}

			construct.Increments = append(construct.Increments, inc)
			loopNode.Children = append(loopNode.Children, inc)
		}
	}

	p.loops = append(p.loops, loopNode)
	p.loopParts[loopNode] = construct

	return nil
}

func (p *SnapshotFactsProvider) convertNode(sn *snapshotNode) (*m.Node, error) {
	kind, ok := m.ParseNodeKind(sn.Kind)
	if !ok && sn.Kind != "" {
		return nil, fmt.Errorf("unknown node kind %q", sn.Kind)
	}

	node := &m.Node{Kind: kind, Op: sn.Op, Name: sn.Name, Span: sn.Span}

	if sn.Symbol != nil {
		symbolKind, ok := m.ParseSymbolKind(sn.Symbol.Kind)
		if !ok || sn.Symbol.ID == "" {
			return nil, fmt.Errorf("invalid symbol %q:%q", sn.Symbol.Kind, sn.Symbol.ID)
		}

		p.symbols[node] = m.SymbolRef{Kind: symbolKind, ID: sn.Symbol.ID}
	}

	if sn.Type != "" {
		p.types[node] = m.TypeRef{ID: sn.Type, Name: sn.Type}
	}

	for i := range sn.Children {
		child, err := p.convertNode(&sn.Children[i])
		if err != nil {
			return nil, err
		}

		node.Children = append(node.Children, child)
	}

	return node, nil
}

// ResolveSymbol implements FactsProvider.
func (p *SnapshotFactsProvider) ResolveSymbol(expr *m.Node) (m.SymbolRef, bool) {
	ref, ok := p.symbols[expr]
	return ref, ok
}

// ResolveType implements FactsProvider.
func (p *SnapshotFactsProvider) ResolveType(expr *m.Node) (m.TypeRef, bool) {
	ref, ok := p.types[expr]
	return ref, ok
}

// LoopNodes implements FactsProvider.
func (p *SnapshotFactsProvider) LoopNodes() []*m.Node {
	return p.loops
}

// EnumerateLoopParts implements FactsProvider.
func (p *SnapshotFactsProvider) EnumerateLoopParts(loop *m.Node) (m.LoopConstruct, bool) {
	construct, ok := p.loopParts[loop]
	return construct, ok
}
