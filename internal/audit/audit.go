package audit

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	logger "github.com/PolarWolf314/credvault/internal/logging"
)

// Outcome recorded for operations that succeeded.
const OutcomeOK = "ok"

// Entry represents a single audit log entry. Secrets are never recorded.
type Entry struct {
	Timestamp string `json:"ts"` // RFC3339 with microseconds.
	ID        string `json:"id"`
	Operation string `json:"op"`
	Outcome   string `json:"outcome"` // OutcomeOK or the error code.

	// Optional fields depending on operation.
	Service  string `json:"service,omitempty"`
	Username string `json:"username,omitempty"`
	Level    string `json:"sLevel,omitempty"` // For set.
	Count    int    `json:"count,omitempty"`  // For list, purge and migrate.
}

// Log appends entries to a JSON Lines file.
type Log struct {
	path string
	log  logger.Logger

	mu sync.Mutex
}

// New returns an audit log writing to path. An empty path disables it.
func New(path string, log logger.Logger) *Log {
	return &Log{path: path, log: log}
}

// Path returns the log file, or "" when disabled.
func (a *Log) Path() string {
	return a.path
}

// Record appends entry to the log, filling ID and Timestamp when unset.
// Failures are reported as warnings and never returned, so operations do
// not fail just because audit logging did.
func (a *Log) Record(entry Entry) {
	if a == nil || a.path == "" {
		return
	}
	if entry.Timestamp == "" {
		entry.Timestamp = time.Now().UTC().Format("2006-01-02T15:04:05.000000Z")
	}
	if entry.ID == "" {
		entry.ID = uuid.NewString()
	}

	a.mu.Lock()
	defer a.mu.Unlock()

	if err := os.MkdirAll(filepath.Dir(a.path), 0700); err != nil {
		a.log.Warnf("Failed to create audit log directory: %v", err)
		return
	}
	f, err := os.OpenFile(a.path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0600)
	if err != nil {
		a.log.Warnf("Failed to open audit log: %v", err)
		return
	}
	defer f.Close()

	zl := zerolog.New(f)
	ev := zl.Log().
		Str("ts", entry.Timestamp).
		Str("id", entry.ID).
		Str("op", entry.Operation).
		Str("outcome", entry.Outcome)
	if entry.Service != "" {
		ev = ev.Str("service", entry.Service)
	}
	if entry.Username != "" {
		ev = ev.Str("username", entry.Username)
	}
	if entry.Level != "" {
		ev = ev.Str("sLevel", entry.Level)
	}
	if entry.Count != 0 {
		ev = ev.Int("count", entry.Count)
	}
	ev.Send()
}

// ReadEntries reads all entries from the log.
// Returns an empty slice if the log doesn't exist.
func (a *Log) ReadEntries() ([]Entry, error) {
	if a == nil || a.path == "" {
		return nil, nil
	}

	data, err := os.ReadFile(a.path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	return ParseEntries(data)
}

// ParseEntries parses JSON Lines data into audit entries.
// Malformed lines are silently skipped.
func ParseEntries(data []byte) ([]Entry, error) {
	if len(data) == 0 {
		return nil, nil
	}

	var entries []Entry
	start := 0

	for i := 0; i <= len(data); i++ {
		if i == len(data) || data[i] == '\n' {
			line := data[start:i]
			start = i + 1

			if len(line) == 0 {
				continue
			}

			var entry Entry
			if err := json.Unmarshal(line, &entry); err != nil {
				// Partial writes leave truncated lines.
				continue
			}
			entries = append(entries, entry)
		}
	}

	return entries, nil
}
