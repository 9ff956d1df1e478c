// Package storage persists one run's artifacts to a date-based directory.
// Artifacts are staged in a temp directory and moved into place with a single
// rename, so a failed run never leaves a partial runs/YYYY-MM-DD/ directory.
package storage

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/hankyul/CommitteeGo/pkg/report"
	"github.com/hankyul/CommitteeGo/pkg/schema"
)

// RunArtifacts bundles everything one completed, validated run produces.
type RunArtifacts struct {
	MarketDate string
	Snapshot   *schema.Snapshot
	Stances    []*schema.Stance
	Result     *schema.CommitteeResult
	Report     *schema.Report
	ReportMD   string
}

// RunStore writes run artifacts under a base directory.
type RunStore struct {
	baseDir string
}

// NewRunStore creates a store rooted at baseDir (typically "runs").
func NewRunStore(baseDir string) *RunStore {
	return &RunStore{baseDir: baseDir}
}

// RunDir returns the final directory for a market date.
func (s *RunStore) RunDir(marketDate string) string {
	return filepath.Join(s.baseDir, marketDate)
}

// Save persists all artifacts for one run atomically. A rerun for the same
// date replaces that date's directory.
func (s *RunStore) Save(artifacts RunArtifacts) (string, error) {
	if artifacts.MarketDate == "" {
		return "", fmt.Errorf("market date is required")
	}
	if err := os.MkdirAll(s.baseDir, 0o755); err != nil {
		return "", fmt.Errorf("create base dir: %w", err)
	}

	staging, err := os.MkdirTemp(s.baseDir, ".staging-"+artifacts.MarketDate+"-*")
	if err != nil {
		return "", fmt.Errorf("create staging dir: %w", err)
	}
	defer os.RemoveAll(staging)

	if err := writeJSON(filepath.Join(staging, "snapshot.json"), artifacts.Snapshot); err != nil {
		return "", err
	}
	if err := writeJSON(filepath.Join(staging, "stances.json"), artifacts.Stances); err != nil {
		return "", err
	}
	if err := writeJSON(filepath.Join(staging, "committee_result.json"), artifacts.Result); err != nil {
		return "", err
	}

	reportMD := artifacts.ReportMD
	if reportMD == "" && artifacts.Report != nil {
		reportMD = report.Markdown(artifacts.Report)
	}
	if err := os.WriteFile(filepath.Join(staging, "report.md"), []byte(reportMD), 0o644); err != nil {
		return "", fmt.Errorf("write report.md: %w", err)
	}

	runDir := s.RunDir(artifacts.MarketDate)
	if err := os.RemoveAll(runDir); err != nil {
		return "", fmt.Errorf("clear previous run dir: %w", err)
	}
	if err := os.Rename(staging, runDir); err != nil {
		return "", fmt.Errorf("publish run dir: %w", err)
	}
	return runDir, nil
}

// LoadResult reads a previously saved committee result, e.g. for resending.
func (s *RunStore) LoadResult(marketDate string) (*schema.CommitteeResult, error) {
	raw, err := os.ReadFile(filepath.Join(s.RunDir(marketDate), "committee_result.json"))
	if err != nil {
		return nil, fmt.Errorf("read committee result: %w", err)
	}
	var result schema.CommitteeResult
	if err := json.Unmarshal(raw, &result); err != nil {
		return nil, fmt.Errorf("decode committee result: %w", err)
	}
	return &result, nil
}

// LoadReportMD reads a previously rendered markdown brief.
func (s *RunStore) LoadReportMD(marketDate string) (string, error) {
	raw, err := os.ReadFile(filepath.Join(s.RunDir(marketDate), "report.md"))
	if err != nil {
		return "", fmt.Errorf("read report: %w", err)
	}
	return string(raw), nil
}

func writeJSON(path string, payload any) error {
	raw, err := json.MarshalIndent(payload, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal %s: %w", filepath.Base(path), err)
	}
	if err := os.WriteFile(path, append(raw, '\n'), 0o644); err != nil {
		return fmt.Errorf("write %s: %w", filepath.Base(path), err)
	}
	return nil
}
