package workflows

import (
	"fmt"
	"strings"
	"time"

	"github.com/PolarWolf314/credvault/internal/audit"
	kerrors "github.com/PolarWolf314/credvault/internal/errors"
)

const auditTimeFormat = "2006-01-02T15:04:05.000000Z"

// LogOptions configures the log workflow.
type LogOptions struct {
	// Limit is the maximum number of entries to return. 0 means no limit.
	Limit int

	// Reverse orders entries from most recent to oldest when true.
	Reverse bool

	// Service filters entries by service name.
	Service string

	// Operations filters entries by operation types (comma-separated).
	Operations string

	// Since filters entries after this date (YYYY-MM-DD format).
	Since string

	// Until filters entries before this date (YYYY-MM-DD format).
	Until string
}

// LogResult contains the outcome of a log operation.
type LogResult struct {
	// Entries are the filtered audit log entries.
	Entries []audit.Entry

	// TotalEntriesBeforeFilter is the count of entries before filtering.
	TotalEntriesBeforeFilter int
}

// Log reads and filters the audit log.
//
// Returns ErrNoAuditLog if the log is disabled or has not been written yet.
// Returns ErrInvalidDateFormat if a date filter is malformed.
func (r *Runtime) Log(opts LogOptions) (*LogResult, error) {
	if r.Audit.Path() == "" {
		return nil, kerrors.ErrNoAuditLog
	}

	entries, err := r.Audit.ReadEntries()
	if err != nil {
		return nil, fmt.Errorf("reading audit log: %w", err)
	}
	if entries == nil {
		return nil, kerrors.ErrNoAuditLog
	}

	return FilterEntries(entries, opts)
}

// FilterEntries applies opts to entries.
func FilterEntries(entries []audit.Entry, opts LogOptions) (*LogResult, error) {
	result := &LogResult{
		TotalEntriesBeforeFilter: len(entries),
	}

	filtered := entries

	if opts.Service != "" {
		filtered = filterByService(filtered, opts.Service)
	}

	if opts.Operations != "" {
		ops := strings.Split(opts.Operations, ",")
		for i := range ops {
			ops[i] = strings.TrimSpace(ops[i])
		}
		filtered = filterByOperations(filtered, ops)
	}

	if opts.Since != "" {
		sinceTime, err := time.Parse("2006-01-02", opts.Since)
		if err != nil {
			return nil, fmt.Errorf("%w: --since date format invalid, use YYYY-MM-DD", kerrors.ErrInvalidDateFormat)
		}
		filtered = filterTime(filtered, func(t time.Time) bool { return !t.Before(sinceTime) })
	}

	if opts.Until != "" {
		untilTime, err := time.Parse("2006-01-02", opts.Until)
		if err != nil {
			return nil, fmt.Errorf("%w: --until date format invalid, use YYYY-MM-DD", kerrors.ErrInvalidDateFormat)
		}
		// Include the entire day.
		untilTime = untilTime.Add(24*time.Hour - time.Nanosecond)
		filtered = filterTime(filtered, func(t time.Time) bool { return !t.After(untilTime) })
	}

	if opts.Reverse {
		reversed := make([]audit.Entry, len(filtered))
		for i, e := range filtered {
			reversed[len(filtered)-1-i] = e
		}
		filtered = reversed
	}

	// The limit always keeps the most recent entries.
	if opts.Limit > 0 && len(filtered) > opts.Limit {
		if opts.Reverse {
			filtered = filtered[:opts.Limit]
		} else {
			filtered = filtered[len(filtered)-opts.Limit:]
		}
	}

	result.Entries = filtered
	return result, nil
}

func filterByService(entries []audit.Entry, service string) []audit.Entry {
	var result []audit.Entry
	for _, e := range entries {
		if e.Service == service {
			result = append(result, e)
		}
	}
	return result
}

// filterByOperations filters entries by operation types, case-insensitively.
func filterByOperations(entries []audit.Entry, ops []string) []audit.Entry {
	opSet := make(map[string]bool)
	for _, op := range ops {
		opSet[strings.ToLower(op)] = true
	}

	var result []audit.Entry
	for _, e := range entries {
		if opSet[strings.ToLower(e.Operation)] {
			result = append(result, e)
		}
	}
	return result
}

// filterTime keeps entries whose timestamp satisfies keep. Entries with an
// unparseable timestamp are dropped.
func filterTime(entries []audit.Entry, keep func(time.Time) bool) []audit.Entry {
	var result []audit.Entry
	for _, e := range entries {
		t, err := parseTimestamp(e.Timestamp)
		if err != nil {
			continue
		}
		if keep(t) {
			result = append(result, e)
		}
	}
	return result
}

func parseTimestamp(ts string) (time.Time, error) {
	t, err := time.Parse(auditTimeFormat, ts)
	if err != nil {
		t, err = time.Parse(time.RFC3339, ts)
	}
	return t, err
}

// FormatDateTime formats a timestamp string to YYYY-MM-DD HH:MM:SS format.
func FormatDateTime(ts string) string {
	t, err := parseTimestamp(ts)
	if err != nil {
		if len(ts) >= 19 {
			return ts[:19]
		}
		return ts
	}
	return t.Format("2006-01-02 15:04:05")
}

// FormatDetails describes the entry's target.
func FormatDetails(e audit.Entry) string {
	switch e.Operation {
	case OpSet:
		if e.Level != "" {
			return fmt.Sprintf("%s/%s at %s", e.Service, e.Username, e.Level)
		}
		return e.Service + "/" + e.Username
	case OpGet, OpRemove:
		return e.Service + "/" + e.Username
	case OpList:
		return fmt.Sprintf("%s, %d entries", e.Service, e.Count)
	case OpPurge:
		return fmt.Sprintf("%s, removed %d", e.Service, e.Count)
	case OpMigrate:
		return fmt.Sprintf("%s, %d records", e.Service, e.Count)
	default:
		return ""
	}
}
