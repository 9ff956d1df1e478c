package storage

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/hankyul/CommitteeGo/pkg/schema"
)

func sampleArtifacts() RunArtifacts {
	snapshot := &schema.Snapshot{
		AsOfDate:      "2025-01-15",
		MarketSummary: schema.MarketSummary{Note: "KOSPI -1.44%, USD/KRW 1465.09. Headlines loaded. Flows loaded."},
		Watchlist:     []string{"SPY"},
	}
	stances := []*schema.Stance{{
		AgentName:     schema.AgentMacro,
		CoreClaims:    []string{"claim"},
		KoreanComment: "코멘트",
		RegimeTag:     schema.RegimeNeutral,
		EvidenceIDs:   []string{"snapshot.market_summary.note"},
		Confidence:    schema.ConfidenceLow,
		Origin:        schema.OriginRule,
	}}
	result := &schema.CommitteeResult{
		Consensus:   "Committee maintains a neutral posture with selective positioning.",
		MajorityTag: schema.RegimeNeutral,
		KeyPoints:   []schema.KeyPoint{{Point: "p", Sources: []string{"macro"}}},
		OpsGuidance: []schema.OpsGuidance{
			{Level: schema.OpsOK, Text: "ok"},
			{Level: schema.OpsCaution, Text: "caution"},
			{Level: schema.OpsAvoid, Text: "avoid"},
		},
	}
	return RunArtifacts{
		MarketDate: "2025-01-15",
		Snapshot:   snapshot,
		Stances:    stances,
		Result:     result,
		ReportMD:   "# 데일리 AI 투자위원회\n",
	}
}

func TestSaveWritesAllArtifacts(t *testing.T) {
	store := NewRunStore(filepath.Join(t.TempDir(), "runs"))

	runDir, err := store.Save(sampleArtifacts())
	if err != nil {
		t.Fatalf("save failed: %v", err)
	}
	for _, name := range []string{"snapshot.json", "stances.json", "committee_result.json", "report.md"} {
		if _, err := os.Stat(filepath.Join(runDir, name)); err != nil {
			t.Errorf("missing artifact %s: %v", name, err)
		}
	}

	raw, err := os.ReadFile(filepath.Join(runDir, "snapshot.json"))
	if err != nil {
		t.Fatalf("read snapshot: %v", err)
	}
	var snapshot schema.Snapshot
	if err := json.Unmarshal(raw, &snapshot); err != nil {
		t.Fatalf("decode snapshot: %v", err)
	}
	if snapshot.AsOfDate != "2025-01-15" {
		t.Errorf("as_of_date = %q", snapshot.AsOfDate)
	}
}

func TestSaveReplacesPreviousRun(t *testing.T) {
	store := NewRunStore(filepath.Join(t.TempDir(), "runs"))
	artifacts := sampleArtifacts()

	if _, err := store.Save(artifacts); err != nil {
		t.Fatalf("first save: %v", err)
	}
	artifacts.ReportMD = "# 수정된 보고서\n"
	runDir, err := store.Save(artifacts)
	if err != nil {
		t.Fatalf("second save: %v", err)
	}

	md, err := store.LoadReportMD(artifacts.MarketDate)
	if err != nil {
		t.Fatalf("load report: %v", err)
	}
	if !strings.Contains(md, "수정된 보고서") {
		t.Errorf("rerun did not replace report: %q", md)
	}

	// No staging leftovers next to the published directory.
	entries, err := os.ReadDir(filepath.Dir(runDir))
	if err != nil {
		t.Fatalf("read base dir: %v", err)
	}
	for _, entry := range entries {
		if strings.HasPrefix(entry.Name(), ".staging-") {
			t.Errorf("staging dir left behind: %s", entry.Name())
		}
	}
}

func TestLoadResultRoundTrip(t *testing.T) {
	store := NewRunStore(filepath.Join(t.TempDir(), "runs"))
	artifacts := sampleArtifacts()
	if _, err := store.Save(artifacts); err != nil {
		t.Fatalf("save: %v", err)
	}

	result, err := store.LoadResult(artifacts.MarketDate)
	if err != nil {
		t.Fatalf("load result: %v", err)
	}
	if result.MajorityTag != schema.RegimeNeutral {
		t.Errorf("majority = %s", result.MajorityTag)
	}
	if len(result.OpsGuidance) != 3 {
		t.Errorf("ops guidance = %d entries", len(result.OpsGuidance))
	}
}

func TestSaveRequiresMarketDate(t *testing.T) {
	store := NewRunStore(t.TempDir())
	artifacts := sampleArtifacts()
	artifacts.MarketDate = ""
	if _, err := store.Save(artifacts); err == nil {
		t.Fatal("expected error for missing market date")
	}
}
