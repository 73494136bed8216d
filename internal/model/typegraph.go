package model

// TypeKind classifies a type symbol.
type TypeKind int

// Available TypeKind values.
const (
	TypeClass TypeKind = iota + 1
	TypeStruct
	TypeInterface
	TypeEnum
	TypeDelegate
)

var typeKindNames = map[TypeKind]string{
	TypeClass:     "class",
	TypeStruct:    "struct",
	TypeInterface: "interface",
	TypeEnum:      "enum",
	TypeDelegate:  "delegate",
}

func (k TypeKind) String() string {
	if name, ok := typeKindNames[k]; ok {
		return name
	}

	return "unknown"
}

// ParseTypeKind maps a kind name back to its TypeKind.
func ParseTypeKind(name string) (TypeKind, bool) {
	for kind, kindName := range typeKindNames {
		if kindName == name {
			return kind, true
		}
	}

	return 0, false
}

// Accessibility is the declared accessibility of a type or member.
type Accessibility int

// Available Accessibility values, from most to least restrictive.
const (
	AccessPrivate Accessibility = iota + 1
	AccessProtectedAndInternal
	AccessProtected
	AccessInternal
	AccessProtectedOrInternal
	AccessPublic
)

var accessibilityNames = map[Accessibility]string{
	AccessPrivate:              "private",
	AccessProtectedAndInternal: "private protected",
	AccessProtected:            "protected",
	AccessInternal:             "internal",
	AccessProtectedOrInternal:  "protected internal",
	AccessPublic:               "public",
}

func (a Accessibility) String() string {
	if name, ok := accessibilityNames[a]; ok {
		return name
	}

	return "unknown"
}

// ParseAccessibility maps an accessibility keyword sequence to its value.
func ParseAccessibility(name string) (Accessibility, bool) {
	for access, accessName := range accessibilityNames {
		if accessName == name {
			return access, true
		}
	}

	switch name {
	case "internal protected":
		return AccessProtectedOrInternal, true
	case "protected private":
		return AccessProtectedAndInternal, true
	}

	return 0, false
}

// OutsideAssembly reports whether code in another compiled unit can reach a
// member with this accessibility through a derived type.
func (a Accessibility) OutsideAssembly() bool {
	switch a {
	case AccessProtected, AccessProtectedOrInternal, AccessPublic:
		return true
	}

	return false
}

// Modifiers are the declaration modifiers that matter for sealability.
type Modifiers struct {
	Abstract bool `yaml:"abstract"`
	Sealed   bool `yaml:"sealed"`
	Static   bool `yaml:"static"`
	Partial  bool `yaml:"partial"`
}

// Member is a method, property, event or indexer declared by a type.
type Member struct {
	// Name is the member signature; overrides share it with the overridden member.
	Name             string
	IsVirtual        bool
	IsAbstract       bool
	IsOverride       bool
	IsSealedOverride bool
	Accessibility    Accessibility
	IsImplicit       bool
}

// Overridable reports whether a derived type could override the member.
func (mb Member) Overridable() bool {
	if mb.IsSealedOverride {
		return false
	}

	return mb.IsVirtual || mb.IsAbstract || mb.IsOverride
}

// TypeNode is a class-like type symbol.
type TypeNode struct {
	ID            string
	Name          string
	Kind          TypeKind
	Accessibility Accessibility
	Modifiers     Modifiers
	// IsImplicit marks compiler-generated types.
	IsImplicit bool
	// IsScript marks script container types.
	IsScript bool
	// IsExternal marks types declared in referenced assemblies rather than source.
	IsExternal bool
	// IsSpecial marks special system types such as object, ValueType or Enum.
	IsSpecial bool
	// Base is the ID of the base type, empty when there is none.
	Base string
	// Containing is the ID of the enclosing type, empty for top-level types.
	Containing string
	Members    []Member
	Locations  []SourceSpan
}

// IsReferenceClass reports whether the type is a class.
func (t *TypeNode) IsReferenceClass() bool {
	return t != nil && t.Kind == TypeClass
}

// FirstLocation returns the first declaration location in SourceSpan order.
//
// Partial types may be declared in several files; picking the minimum keeps the
// anchor stable regardless of enumeration order.
func (t *TypeNode) FirstLocation() (SourceSpan, bool) {
	if t == nil || len(t.Locations) == 0 {
		return SourceSpan{}, false
	}

	first := t.Locations[0]
	for _, loc := range t.Locations[1:] {
		if loc.Before(first) {
			first = loc
		}
	}

	return first, true
}
