package model

// SymbolKind tags the variable-like symbols the engine tracks.
type SymbolKind int

// Available SymbolKind values.
const (
	SymbolLocal SymbolKind = iota + 1
	SymbolField
	SymbolProperty
	SymbolParameter
)

var symbolKindNames = map[SymbolKind]string{
	SymbolLocal:     "local",
	SymbolField:     "field",
	SymbolProperty:  "property",
	SymbolParameter: "parameter",
}

func (k SymbolKind) String() string {
	if name, ok := symbolKindNames[k]; ok {
		return name
	}

	return "unknown"
}

// ParseSymbolKind maps a kind name back to its SymbolKind.
func ParseSymbolKind(name string) (SymbolKind, bool) {
	for kind, kindName := range symbolKindNames {
		if kindName == name {
			return kind, true
		}
	}

	return 0, false
}

// SymbolRef identifies a local, field, property or parameter.
//
// Two refs are equal when both kind and ID match; the value is comparable and
// is used directly as a map key. IDs are only stable within one analysis pass.
type SymbolRef struct {
	Kind SymbolKind
	ID   string
}

// IsVariable reports whether the ref names one of the tracked symbol kinds.
func (r SymbolRef) IsVariable() bool {
	_, ok := symbolKindNames[r.Kind]
	return ok && r.ID != ""
}

func (r SymbolRef) String() string {
	return r.Kind.String() + ":" + r.ID
}

// SymbolSet is a set of symbol refs.
type SymbolSet map[SymbolRef]struct{}

// NewSymbolSet builds a set holding refs.
func NewSymbolSet(refs ...SymbolRef) SymbolSet {
	set := make(SymbolSet, len(refs))
	for _, ref := range refs {
		set.Add(ref)
	}

	return set
}

// Add inserts ref.
func (s SymbolSet) Add(ref SymbolRef) {
	s[ref] = struct{}{}
}

// Remove deletes ref.
func (s SymbolSet) Remove(ref SymbolRef) {
	delete(s, ref)
}

// Contains reports whether ref is present.
func (s SymbolSet) Contains(ref SymbolRef) bool {
	_, ok := s[ref]
	return ok
}

// Clone returns an independent copy of the set.
func (s SymbolSet) Clone() SymbolSet {
	clone := make(SymbolSet, len(s))
	for ref := range s {
		clone.Add(ref)
	}

	return clone
}

// Len returns the number of refs in the set.
func (s SymbolSet) Len() int {
	return len(s)
}

// TypeRef is the resolved static type of an expression.
type TypeRef struct {
	// ID is the provider's identity for the type (fully qualified name).
	ID string
	// Name is the short display name, e.g. "string".
	Name string
}

// IsString reports whether the type is the language's string type.
func (t TypeRef) IsString() bool {
	switch t.ID {
	case "string", "System.String":
		return true
	}

	return t.Name == "string"
}
