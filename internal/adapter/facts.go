// Package adapter contains the infrastructure ports the analysis engine consumes
// and their local implementations.
package adapter

import (
	"errors"

	m "perfsieve.dev/pkg/perfsieve/internal/model"
)

// ErrUnknownLanguage is returned when no FactsProvider exists for a language.
var ErrUnknownLanguage = errors.New("unknown source language")

// Language selects a FactsProvider implementation.
type Language string

// Supported languages.
const (
	LanguageCSharp   Language = "csharp"
	LanguageGo       Language = "go"
	LanguageSnapshot Language = "snapshot"
)

// ParseLanguage validates a language name.
func ParseLanguage(name string) (Language, error) {
	switch lang := Language(name); lang {
	case LanguageCSharp, LanguageGo, LanguageSnapshot:
		return lang, nil
	}

	return "", ErrUnknownLanguage
}

// FactsProvider exposes the syntax and semantic facts of one program snapshot.
//
// Implementations must be safe for concurrent reads: the engine resolves
// symbols from several goroutines once the provider is constructed.
type FactsProvider interface {
	// ResolveSymbol maps an expression to the variable-like symbol it names.
	// The bool is false for anything that is not a local, field, property or parameter.
	ResolveSymbol(expr *m.Node) (m.SymbolRef, bool)

	// ResolveType returns the static type of an expression when known.
	ResolveType(expr *m.Node) (m.TypeRef, bool)

	// LoopNodes lists every loop statement in the program in document order.
	LoopNodes() []*m.Node

	// EnumerateLoopParts splits a loop node into condition, body and increments.
	EnumerateLoopParts(loop *m.Node) (m.LoopConstruct, bool)

	// EnumerateTypeSymbols lists every type symbol, source and referenced.
	EnumerateTypeSymbols() []*m.TypeNode

	// Type looks up a type symbol by ID.
	Type(id string) (*m.TypeNode, bool)
}

// typeTable indexes type symbols by ID; providers embed it.
type typeTable struct {
	types []*m.TypeNode
	byID  map[string]*m.TypeNode
}

func newTypeTable(types []*m.TypeNode) typeTable {
	byID := make(map[string]*m.TypeNode, len(types))
	for _, t := range types {
		byID[t.ID] = t
	}

	return typeTable{types: types, byID: byID}
}

// EnumerateTypeSymbols implements FactsProvider.
func (tt typeTable) EnumerateTypeSymbols() []*m.TypeNode {
	return tt.types
}

// Type implements FactsProvider.
func (tt typeTable) Type(id string) (*m.TypeNode, bool) {
	t, ok := tt.byID[id]
	return t, ok
}
