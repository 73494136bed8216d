package adapter

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	m "perfsieve.dev/pkg/perfsieve/internal/model"
)

const validSnapshot = `version: 1
types:
  - id: App.Shape
    kind: class
    accessibility: public
    modifiers:
      abstract: true
    members:
      - name: Area()
        abstract: true
        accessibility: public
    locations:
      - file: Shape.cs
        line: 3
        column: 1
  - id: App.Circle
    name: Circle
    kind: class
    base: App.Shape
    members:
      - name: Area()
        sealed_override: true
        accessibility: public
loops:
  - kind: for
    span: {file: Loop.cs, line: 10, column: 9, offset: 120, end_offset: 200}
    condition:
      kind: binary
      op: "<"
      children:
        - kind: identifier
          name: i
          symbol: {kind: local, id: "Loop.cs#i"}
        - kind: invocation
          children:
            - kind: identifier
              name: Count
    body:
      - kind: assignment
        op: "+="
        children:
          - kind: identifier
            name: s
            type: System.String
            symbol: {kind: local, id: "Loop.cs#s"}
          - kind: literal
    increments:
      - kind: postfix_unary
        op: "++"
        children:
          - kind: identifier
            name: i
            symbol: {kind: local, id: "Loop.cs#i"}
  - kind: while
    increments:
      - kind: postfix_unary
`

func TestParseSnapshot(t *testing.T) {
	provider, err := ParseSnapshot([]byte(validSnapshot))
	require.NoError(t, err)

	types := provider.EnumerateTypeSymbols()
	require.Len(t, types, 2)

	shape, ok := provider.Type("App.Shape")
	require.True(t, ok)
	assert.Equal(t, "App.Shape", shape.Name)
	assert.Equal(t, m.TypeClass, shape.Kind)
	assert.Equal(t, m.AccessPublic, shape.Accessibility)
	assert.True(t, shape.Modifiers.Abstract)
	require.Len(t, shape.Members, 1)
	assert.True(t, shape.Members[0].IsAbstract)
	require.Len(t, shape.Locations, 1)
	assert.Equal(t, m.Path("Shape.cs"), shape.Locations[0].File)

	circle, ok := provider.Type("App.Circle")
	require.True(t, ok)
	assert.Equal(t, "Circle", circle.Name)
	assert.Equal(t, m.AccessInternal, circle.Accessibility)
	assert.Equal(t, "App.Shape", circle.Base)
	require.Len(t, circle.Members, 1)
	assert.True(t, circle.Members[0].IsOverride)
	assert.True(t, circle.Members[0].IsSealedOverride)

	_, ok = provider.Type("App.Missing")
	assert.False(t, ok)
}

func TestParseSnapshot_Loops(t *testing.T) {
	provider, err := ParseSnapshot([]byte(validSnapshot))
	require.NoError(t, err)

	loops := provider.LoopNodes()
	require.Len(t, loops, 2)

	construct, ok := provider.EnumerateLoopParts(loops[0])
	require.True(t, ok)
	assert.Equal(t, m.LoopFor, construct.Kind)
	assert.Equal(t, 10, construct.Span.Line)
	require.NotNil(t, construct.Condition)
	assert.Equal(t, m.NodeBinary, construct.Condition.Kind)
	require.Len(t, construct.Body, 1)
	require.Len(t, construct.Increments, 1)

	counter := construct.Condition.Children[0]
	ref, ok := provider.ResolveSymbol(counter)
	require.True(t, ok)
	assert.Equal(t, m.SymbolLocal, ref.Kind)
	assert.Equal(t, "Loop.cs#i", ref.ID)

	_, ok = provider.ResolveSymbol(construct.Condition.Children[1])
	assert.False(t, ok)

	target := construct.Body[0].Children[0]
	typ, ok := provider.ResolveType(target)
	require.True(t, ok)
	assert.True(t, typ.IsString())

	while, ok := provider.EnumerateLoopParts(loops[1])
	require.True(t, ok)
	assert.Equal(t, m.LoopWhile, while.Kind)
	assert.Nil(t, while.Condition)
	assert.Empty(t, while.Increments, "increments only belong to for loops")

	_, ok = provider.EnumerateLoopParts(&m.Node{Kind: m.NodeLoop})
	assert.False(t, ok)
}

func TestParseSnapshot_DefaultVersion(t *testing.T) {
	provider, err := ParseSnapshot([]byte("types:\n  - id: A\n    kind: struct\n"))
	require.NoError(t, err)
	assert.Len(t, provider.EnumerateTypeSymbols(), 1)
	assert.Empty(t, provider.LoopNodes())
}

func TestParseSnapshot_Invalid(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{
			name:    "unsupported version",
			content: "version: 2\n",
		},
		{
			name:    "unknown field",
			content: "version: 1\nclasses: []\n",
		},
		{
			name:    "malformed yaml",
			content: "version: [1\n",
		},
		{
			name:    "missing type id",
			content: "types:\n  - kind: class\n",
		},
		{
			name:    "unknown type kind",
			content: "types:\n  - id: A\n    kind: record\n",
		},
		{
			name:    "unknown accessibility",
			content: "types:\n  - id: A\n    kind: class\n    accessibility: friend\n",
		},
		{
			name:    "sealed and abstract",
			content: "types:\n  - id: A\n    kind: class\n    modifiers: {sealed: true, abstract: true}\n",
		},
		{
			name:    "duplicate type",
			content: "types:\n  - id: A\n    kind: class\n  - id: A\n    kind: struct\n",
		},
		{
			name:    "unknown loop kind",
			content: "loops:\n  - kind: foreach\n",
		},
		{
			name:    "unknown node kind",
			content: "loops:\n  - kind: while\n    condition: {kind: lambda}\n",
		},
		{
			name:    "bad symbol kind",
			content: "loops:\n  - kind: while\n    body:\n      - kind: identifier\n        symbol: {kind: method, id: M}\n",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseSnapshot([]byte(tt.content))
			require.Error(t, err)
			assert.ErrorIs(t, err, ErrInvalidSnapshot)
		})
	}
}

func TestLoadSnapshot(t *testing.T) {
	fs := NewLocalSourceFSAdapter()
	dir := t.TempDir()
	path := filepath.Join(dir, "facts.yaml")
	require.NoError(t, os.WriteFile(path, []byte(validSnapshot), 0o600))

	provider, err := LoadSnapshot(fs, m.Path(path))
	require.NoError(t, err)
	assert.Len(t, provider.LoopNodes(), 2)

	_, err = LoadSnapshot(fs, m.Path(filepath.Join(dir, "missing.yaml")))
	require.Error(t, err)
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestNewSnapshotValidator(t *testing.T) {
	assert.NotPanics(t, func() {
		v := newSnapshotValidator()
		assert.NotNil(t, v)
	})
}
