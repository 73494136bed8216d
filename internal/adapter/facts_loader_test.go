package adapter

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	m "perfsieve.dev/pkg/perfsieve/internal/model"
)

const widgetSource = `namespace App;

class Widget
{
    void Draw() { }
}
`

func TestParseLanguage(t *testing.T) {
	for _, name := range []string{"csharp", "go", "snapshot"} {
		lang, err := ParseLanguage(name)
		require.NoError(t, err)
		assert.Equal(t, Language(name), lang)
	}

	_, err := ParseLanguage("rust")
	assert.ErrorIs(t, err, ErrUnknownLanguage)
}

func TestLocalFactsLoader_Detect(t *testing.T) {
	dir := t.TempDir()
	writeTestFile(t, filepath.Join(dir, "facts.yaml"), "version: 1\n")
	writeTestFile(t, filepath.Join(dir, "cs", "Widget.cs"), widgetSource)
	writeTestFile(t, filepath.Join(dir, "gosrc", "main.go"), "package main\n")
	mustMkdir(t, filepath.Join(dir, "empty"))

	loader := NewLocalFactsLoader(NewLocalSourceFSAdapter())

	tests := []struct {
		name  string
		paths []m.Path
		want  Language
	}{
		{name: "snapshot file", paths: []m.Path{m.Path(filepath.Join(dir, "facts.yaml"))}, want: LanguageSnapshot},
		{name: "csharp file", paths: []m.Path{m.Path(filepath.Join(dir, "cs", "Widget.cs"))}, want: LanguageCSharp},
		{name: "go file", paths: []m.Path{m.Path(filepath.Join(dir, "gosrc", "main.go"))}, want: LanguageGo},
		{name: "csharp tree", paths: []m.Path{m.Path(filepath.Join(dir, "cs"))}, want: LanguageCSharp},
		{name: "go tree", paths: []m.Path{m.Path(filepath.Join(dir, "gosrc") + "/...")}, want: LanguageGo},
		{name: "csharp wins in mixed tree", paths: []m.Path{m.Path(dir + "/...")}, want: LanguageCSharp},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := loader.detect(tt.paths)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}

	_, err := loader.detect([]m.Path{m.Path(filepath.Join(dir, "empty"))})
	assert.ErrorIs(t, err, ErrNoProvider)
}

func TestLocalFactsLoader_LoadSnapshot(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "facts.yaml")
	writeTestFile(t, path, "version: 1\ntypes:\n  - id: A\n    kind: class\n")

	loader := NewLocalFactsLoader(NewLocalSourceFSAdapter())

	facts, err := loader.Load(context.Background(), LoadRequest{Paths: []m.Path{m.Path(path)}})
	require.NoError(t, err)
	assert.Equal(t, LanguageSnapshot, facts.Language)
	assert.Equal(t, 1, facts.Inputs)
	assert.Len(t, facts.Provider.EnumerateTypeSymbols(), 1)

	_, err = loader.Load(context.Background(), LoadRequest{
		Language: LanguageSnapshot,
		Paths:    []m.Path{m.Path(path), m.Path(path)},
	})
	assert.ErrorIs(t, err, ErrNoProvider)
}

func TestLocalFactsLoader_LoadCSharp(t *testing.T) {
	dir := t.TempDir()
	writeTestFile(t, filepath.Join(dir, "Widget.cs"), widgetSource)
	writeTestFile(t, filepath.Join(dir, "Gen", "Widget.g.cs"), widgetSource)

	loader := NewLocalFactsLoader(NewLocalSourceFSAdapter())

	facts, err := loader.Load(context.Background(), LoadRequest{
		Paths:   []m.Path{m.Path(dir + "/...")},
		Exclude: []string{`\.g\.cs$`},
		Threads: 2,
	})
	require.NoError(t, err)
	assert.Equal(t, LanguageCSharp, facts.Language)
	assert.Equal(t, 1, facts.Inputs)

	_, ok := facts.Provider.Type("App.Widget")
	assert.True(t, ok)
}

func TestLocalFactsLoader_Errors(t *testing.T) {
	dir := t.TempDir()
	writeTestFile(t, filepath.Join(dir, "main.go"), "package main\n")

	loader := NewLocalFactsLoader(NewLocalSourceFSAdapter())

	t.Run("no csharp files", func(t *testing.T) {
		_, err := loader.Load(context.Background(), LoadRequest{
			Language: LanguageCSharp,
			Paths:    []m.Path{m.Path(dir)},
		})
		assert.ErrorIs(t, err, ErrNoProvider)
	})

	t.Run("go without module", func(t *testing.T) {
		_, err := loader.Load(context.Background(), LoadRequest{
			Language: LanguageGo,
			Paths:    []m.Path{m.Path(dir + "/...")},
		})
		assert.ErrorIs(t, err, ErrNoProvider)
	})

	t.Run("unknown language", func(t *testing.T) {
		_, err := loader.Load(context.Background(), LoadRequest{
			Language: Language("rust"),
			Paths:    []m.Path{m.Path(dir)},
		})
		assert.ErrorIs(t, err, ErrUnknownLanguage)
	})

	t.Run("cancelled", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		_, err := loader.Load(ctx, LoadRequest{Paths: []m.Path{m.Path(dir)}})
		assert.ErrorIs(t, err, context.Canceled)
	})
}
