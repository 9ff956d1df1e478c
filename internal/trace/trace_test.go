package trace

import (
	"bufio"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
)

func TestLogAppendsJSONLines(t *testing.T) {
	path := filepath.Join(t.TempDir(), "runs", "trace.jsonl")
	l := New(path, nil)

	l.Log("llm_call", map[string]any{"agent": "macro", "model": "gpt-4.1-mini"})
	l.Log("llm_fallback", map[string]any{"agent": "flow"})

	f, err := os.Open(path)
	if err != nil {
		t.Fatalf("open trace: %v", err)
	}
	defer f.Close()

	var records []map[string]any
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		var record map[string]any
		if err := json.Unmarshal(scanner.Bytes(), &record); err != nil {
			t.Fatalf("bad trace line %q: %v", scanner.Text(), err)
		}
		records = append(records, record)
	}
	if len(records) != 2 {
		t.Fatalf("got %d records, want 2", len(records))
	}
	if records[0]["event"] != "llm_call" || records[0]["agent"] != "macro" {
		t.Errorf("first record = %v", records[0])
	}
	if records[0]["ts"] == nil {
		t.Error("missing timestamp")
	}
	if records[1]["event"] != "llm_fallback" {
		t.Errorf("second record = %v", records[1])
	}
}

func TestDisabledLoggerWritesNothing(t *testing.T) {
	l := New("", nil)
	if l.Enabled() {
		t.Error("empty-path logger should be disabled")
	}
	l.Log("event", map[string]any{"k": "v"}) // must not panic
}
