package audit

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	logger "github.com/PolarWolf314/credvault/internal/logging"
)

func newLog(t *testing.T) *Log {
	t.Helper()
	return New(filepath.Join(t.TempDir(), "data", "audit.jsonl"), logger.Discard)
}

func TestRecord_CreatesFile(t *testing.T) {
	a := newLog(t)
	a.Record(Entry{Operation: "set", Outcome: OutcomeOK, Service: "mail", Username: "alice", Level: "L3_UserPresence"})

	info, err := os.Stat(a.Path())
	if err != nil {
		t.Fatalf("Audit log file was not created: %v", err)
	}
	if info.Mode().Perm() != 0600 {
		t.Errorf("Expected permissions 0600, got %o", info.Mode().Perm())
	}
}

func TestRecord_AppendsEntries(t *testing.T) {
	a := newLog(t)
	a.Record(Entry{Operation: "set", Outcome: OutcomeOK, Service: "mail", Username: "alice"})
	a.Record(Entry{Operation: "get", Outcome: "failedToAccess", Service: "mail", Username: "alice"})
	a.Record(Entry{Operation: "purge", Outcome: OutcomeOK, Service: "mail", Count: 2})

	entries, err := a.ReadEntries()
	if err != nil {
		t.Fatalf("ReadEntries failed: %v", err)
	}
	if len(entries) != 3 {
		t.Fatalf("Expected 3 entries, got %d", len(entries))
	}

	if entries[1].Operation != "get" || entries[1].Outcome != "failedToAccess" {
		t.Errorf("Unexpected second entry: %+v", entries[1])
	}
	if entries[2].Count != 2 {
		t.Errorf("Expected count 2, got %d", entries[2].Count)
	}
	for _, e := range entries {
		if e.ID == "" || e.Timestamp == "" {
			t.Errorf("Expected id and timestamp to be filled: %+v", e)
		}
	}
}

func TestRecord_OmitsEmptyFields(t *testing.T) {
	a := newLog(t)
	a.Record(Entry{Operation: "level", Outcome: OutcomeOK})

	data, err := os.ReadFile(a.Path())
	if err != nil {
		t.Fatal(err)
	}

	var raw map[string]any
	if err := json.Unmarshal([]byte(strings.TrimSpace(string(data))), &raw); err != nil {
		t.Fatalf("Entry is not valid JSON: %v", err)
	}
	for _, key := range []string{"service", "username", "sLevel", "count", "level"} {
		if _, ok := raw[key]; ok {
			t.Errorf("Expected %q to be omitted, got %v", key, raw[key])
		}
	}
	if raw["op"] != "level" {
		t.Errorf("Expected op level, got %v", raw["op"])
	}
}

func TestRecord_Disabled(t *testing.T) {
	a := New("", logger.Discard)
	a.Record(Entry{Operation: "set"})

	entries, err := a.ReadEntries()
	if err != nil || entries != nil {
		t.Errorf("Expected nothing from a disabled log, got %v, %v", entries, err)
	}

	var nilLog *Log
	nilLog.Record(Entry{Operation: "set"})
}

func TestRecord_UnwritableDirectory(t *testing.T) {
	dir := t.TempDir()
	blocker := filepath.Join(dir, "file")
	if err := os.WriteFile(blocker, []byte("x"), 0600); err != nil {
		t.Fatal(err)
	}

	// The parent is a regular file, so the log cannot be created.
	a := New(filepath.Join(blocker, "audit.jsonl"), logger.Discard)
	a.Record(Entry{Operation: "set"})

	if _, err := os.Stat(a.Path()); err == nil {
		t.Error("Expected no log to be written")
	}
}

func TestReadEntries_Missing(t *testing.T) {
	entries, err := newLog(t).ReadEntries()
	if err != nil {
		t.Fatalf("Expected no error for missing log, got %v", err)
	}
	if entries != nil {
		t.Errorf("Expected nil entries, got %v", entries)
	}
}

func TestParseEntries_SkipsMalformedLines(t *testing.T) {
	data := []byte(`{"ts":"2026-01-01T00:00:00.000000Z","id":"1","op":"set","outcome":"ok"}
not json
{"ts":"2026-01-01T00:00:01.000000Z","id":"2","op":"get","outcome":"no data"}

{"ts":"2026-01-01T00:00:02.000000Z","id":"3","op":"rem`)

	entries, err := ParseEntries(data)
	if err != nil {
		t.Fatalf("ParseEntries failed: %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("Expected 2 entries, got %d", len(entries))
	}
	if entries[1].Outcome != "no data" {
		t.Errorf("Expected outcome 'no data', got %q", entries[1].Outcome)
	}
}

func TestParseEntries_Empty(t *testing.T) {
	entries, err := ParseEntries(nil)
	if err != nil || entries != nil {
		t.Errorf("Expected nil, nil; got %v, %v", entries, err)
	}
}
