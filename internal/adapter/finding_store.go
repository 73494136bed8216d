package adapter

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	m "perfsieve.dev/pkg/perfsieve/internal/model"
	"perfsieve.dev/pkg/perfsieve/pkg"
)

const (
	reportIndexFile  = "report.yaml"
	findingSpillFile = "findings.gob"
)

// ErrNoReport is returned when an output directory holds no stored report.
var ErrNoReport = errors.New("no stored report")

// FindingStore persists the report of the last pass into an output directory.
type FindingStore interface {
	Save(ctx context.Context, dir m.Path, report m.Report) error
	Load(ctx context.Context, dir m.Path) (m.Report, error)
}

type reportIndex struct {
	PassID   string `yaml:"pass_id"`
	Language string `yaml:"language"`
	Findings uint64 `yaml:"findings"`
	Spill    string `yaml:"spill"`
}

// LocalFindingStore keeps findings in a gob spill next to a YAML index.
type LocalFindingStore struct {
	fs SourceFSAdapter
}

// NewLocalFindingStore constructs a LocalFindingStore.
func NewLocalFindingStore(fs SourceFSAdapter) *LocalFindingStore {
	return &LocalFindingStore{fs: fs}
}

// Save implements FindingStore.
func (s *LocalFindingStore) Save(ctx context.Context, dir m.Path, report m.Report) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	spill, err := pkg.NewFileSpill[m.Finding](filepath.Join(string(dir), findingSpillFile))
	if err != nil {
		return fmt.Errorf("create finding spill: %w", err)
	}

	if err := spill.AppendBatch(report.Findings); err != nil {
		_ = spill.Close()
		return fmt.Errorf("write findings: %w", err)
	}

	if err := spill.Close(); err != nil {
		return fmt.Errorf("close finding spill: %w", err)
	}

	index, err := yaml.Marshal(reportIndex{
		PassID:   report.PassID,
		Language: report.Language,
		Findings: spill.Len(),
		Spill:    findingSpillFile,
	})
	if err != nil {
		return fmt.Errorf("encode report index: %w", err)
	}

	if err := s.fs.WriteFile(s.fs.JoinPath(string(dir), reportIndexFile), index, 0o600); err != nil {
		slog.Error("Failed to write report index", "dir", dir, "error", err)
		return fmt.Errorf("write report index: %w", err)
	}

	slog.Debug("Stored report", "dir", dir, "pass_id", report.PassID, "findings", len(report.Findings))

	return nil
}

// Load implements FindingStore.
func (s *LocalFindingStore) Load(ctx context.Context, dir m.Path) (m.Report, error) {
	if err := ctx.Err(); err != nil {
		return m.Report{}, err
	}

	content, err := s.fs.ReadFile(s.fs.JoinPath(string(dir), reportIndexFile))
	if errors.Is(err, os.ErrNotExist) {
		return m.Report{}, fmt.Errorf("%w in %s", ErrNoReport, dir)
	}

	if err != nil {
		slog.Error("Failed to read report index", "dir", dir, "error", err)
		return m.Report{}, fmt.Errorf("read report index: %w", err)
	}

	var index reportIndex
	if err := yaml.Unmarshal(content, &index); err != nil {
		return m.Report{}, fmt.Errorf("decode report index: %w", err)
	}

	spill, err := pkg.OpenFileSpill[m.Finding](filepath.Join(string(dir), index.Spill))
	if err != nil {
		return m.Report{}, fmt.Errorf("open finding spill: %w", err)
	}

	defer func() { _ = spill.Close() }()

	if spill.Len() != index.Findings {
		return m.Report{}, fmt.Errorf("finding spill holds %d findings, index expects %d", spill.Len(), index.Findings)
	}

	report := m.Report{PassID: index.PassID, Language: index.Language}

	err = spill.Range(func(_ uint64, f m.Finding) error {
		report.Findings = append(report.Findings, f)
		return nil
	})
	if err != nil {
		return m.Report{}, fmt.Errorf("read findings: %w", err)
	}

	return report, nil
}
