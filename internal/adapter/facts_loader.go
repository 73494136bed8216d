package adapter

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"

	m "perfsieve.dev/pkg/perfsieve/internal/model"
)

// ErrNoProvider is returned when no FactsProvider can serve the given inputs.
var ErrNoProvider = errors.New("no facts provider for inputs")

// LoadRequest selects and feeds a FactsProvider.
type LoadRequest struct {
	// Language may be empty to detect it from Paths.
	Language Language
	Paths    []m.Path
	Exclude  []string
	Threads  int
}

// Facts is a constructed provider with what it was built from.
type Facts struct {
	Provider FactsProvider
	Language Language
	Inputs   int
}

// FactsLoader builds the FactsProvider for a request.
type FactsLoader interface {
	Load(ctx context.Context, req LoadRequest) (Facts, error)
}

// LocalFactsLoader builds providers from the local filesystem.
type LocalFactsLoader struct {
	fs SourceFSAdapter
}

// NewLocalFactsLoader constructs a LocalFactsLoader.
func NewLocalFactsLoader(fs SourceFSAdapter) *LocalFactsLoader {
	return &LocalFactsLoader{fs: fs}
}

// Load implements FactsLoader.
func (l *LocalFactsLoader) Load(ctx context.Context, req LoadRequest) (Facts, error) {
	if err := ctx.Err(); err != nil {
		return Facts{}, err
	}

	lang := req.Language
	if lang == "" {
		detected, err := l.detect(req.Paths)
		if err != nil {
			return Facts{}, err
		}

		lang = detected
	}

	switch lang {
	case LanguageSnapshot:
		return l.loadSnapshot(req)
	case LanguageCSharp:
		return l.loadCSharp(ctx, req)
	case LanguageGo:
		return l.loadGo(ctx, req)
	}

	return Facts{}, fmt.Errorf("%w: %q", ErrUnknownLanguage, lang)
}

func (l *LocalFactsLoader) loadSnapshot(req LoadRequest) (Facts, error) {
	if len(req.Paths) != 1 {
		return Facts{}, fmt.Errorf("%w: snapshot analysis takes exactly one file, got %d", ErrNoProvider, len(req.Paths))
	}

	provider, err := LoadSnapshot(l.fs, req.Paths[0])
	if err != nil {
		return Facts{}, err
	}

	return Facts{Provider: provider, Language: LanguageSnapshot, Inputs: 1}, nil
}

func (l *LocalFactsLoader) loadCSharp(ctx context.Context, req LoadRequest) (Facts, error) {
	files, err := CollectFiles(l.fs, req.Paths, ".cs", req.Exclude)
	if err != nil {
		return Facts{}, err
	}

	if len(files) == 0 {
		return Facts{}, fmt.Errorf("%w: no .cs files under %v", ErrNoProvider, req.Paths)
	}

	provider, err := NewCSharpFactsProvider(ctx, l.fs, files, req.Threads)
	if err != nil {
		slog.Error("Failed to build C# facts", "files", len(files), "error", err)
		return Facts{}, fmt.Errorf("build C# facts: %w", err)
	}

	return Facts{Provider: provider, Language: LanguageCSharp, Inputs: len(files)}, nil
}

func (l *LocalFactsLoader) loadGo(ctx context.Context, req LoadRequest) (Facts, error) {
	patterns := make([]string, 0, len(req.Paths))
	for _, p := range req.Paths {
		patterns = append(patterns, string(p))
	}

	start := m.Path(".")
	if len(patterns) > 0 {
		root, _ := splitPattern(patterns[0])
		start = m.Path(root)
	}

	if _, err := l.fs.FindProjectRoot(start, "go.mod"); err != nil {
		return Facts{}, fmt.Errorf("%w: %w", ErrNoProvider, err)
	}

	provider, err := NewGoFactsProvider(ctx, "", patterns)
	if err != nil {
		return Facts{}, err
	}

	return Facts{Provider: provider, Language: LanguageGo, Inputs: max(len(patterns), 1)}, nil
}

// detect picks a language from the inputs: a single YAML file is a snapshot,
// .cs sources mean C#, .go sources mean Go.
func (l *LocalFactsLoader) detect(paths []m.Path) (Language, error) {
	if len(paths) == 1 {
		if info, err := l.fs.FileInfo(paths[0]); err == nil && info.IsDir() {
			return l.detectTree(paths)
		}

		switch filepath.Ext(string(paths[0])) {
		case ".yaml", ".yml":
			return LanguageSnapshot, nil
		case ".cs":
			return LanguageCSharp, nil
		case ".go":
			return LanguageGo, nil
		}
	}

	return l.detectTree(paths)
}

func (l *LocalFactsLoader) detectTree(paths []m.Path) (Language, error) {
	if files, err := CollectFiles(l.fs, paths, ".cs", nil); err == nil && len(files) > 0 {
		return LanguageCSharp, nil
	}

	if files, err := CollectFiles(l.fs, paths, ".go", nil); err == nil && len(files) > 0 {
		return LanguageGo, nil
	}

	return "", fmt.Errorf("%w: cannot detect language of %v", ErrNoProvider, paths)
}
