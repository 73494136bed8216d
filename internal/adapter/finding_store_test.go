package adapter

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	m "perfsieve.dev/pkg/perfsieve/internal/model"
)

func sampleReport() m.Report {
	return m.Report{
		PassID:   "pass-1",
		Language: "csharp",
		Findings: []m.Finding{
			{
				RuleID:   m.RuleLoopInvariantCall,
				Severity: m.SeverityWarning,
				Message:  "call to V2 in the loop condition returns the same value on every iteration; hoist it out of the loop",
				Location: m.SourceSpan{File: "Program.cs", Line: 14, Column: 38, Offset: 210, EndOffset: 214},
			},
			{
				RuleID:   m.RuleSealableType,
				Severity: m.SeverityInfo,
				Message:  "type Counter has no derived types and can be marked sealed",
				Location: m.SourceSpan{File: "Program.cs", Line: 3, Column: 1},
			},
		},
	}
}

func TestLocalFindingStore_SaveLoad(t *testing.T) {
	store := NewLocalFindingStore(NewLocalSourceFSAdapter())
	dir := m.Path(filepath.Join(t.TempDir(), "reports"))
	report := sampleReport()

	require.NoError(t, store.Save(context.Background(), dir, report))

	assert.FileExists(t, filepath.Join(string(dir), reportIndexFile))
	assert.FileExists(t, filepath.Join(string(dir), findingSpillFile))

	loaded, err := store.Load(context.Background(), dir)
	require.NoError(t, err)
	assert.Equal(t, report, loaded)
}

func TestLocalFindingStore_Overwrite(t *testing.T) {
	store := NewLocalFindingStore(NewLocalSourceFSAdapter())
	dir := m.Path(t.TempDir())

	require.NoError(t, store.Save(context.Background(), dir, sampleReport()))
	require.NoError(t, store.Save(context.Background(), dir, m.Report{PassID: "pass-2", Language: "go"}))

	loaded, err := store.Load(context.Background(), dir)
	require.NoError(t, err)
	assert.Equal(t, "pass-2", loaded.PassID)
	assert.Equal(t, "go", loaded.Language)
	assert.Empty(t, loaded.Findings)
}

func TestLocalFindingStore_NoReport(t *testing.T) {
	store := NewLocalFindingStore(NewLocalSourceFSAdapter())

	_, err := store.Load(context.Background(), m.Path(t.TempDir()))
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrNoReport)
}

func TestLocalFindingStore_CountMismatch(t *testing.T) {
	store := NewLocalFindingStore(NewLocalSourceFSAdapter())
	dir := t.TempDir()

	require.NoError(t, store.Save(context.Background(), m.Path(dir), sampleReport()))

	index := "pass_id: pass-1\nlanguage: csharp\nfindings: 5\nspill: findings.gob\n"
	require.NoError(t, os.WriteFile(filepath.Join(dir, reportIndexFile), []byte(index), 0o600))

	_, err := store.Load(context.Background(), m.Path(dir))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "index expects 5")
}

func TestLocalFindingStore_Cancelled(t *testing.T) {
	store := NewLocalFindingStore(NewLocalSourceFSAdapter())
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	dir := m.Path(t.TempDir())

	assert.ErrorIs(t, store.Save(ctx, dir, sampleReport()), context.Canceled)

	_, err := store.Load(ctx, dir)
	assert.ErrorIs(t, err, context.Canceled)
}
