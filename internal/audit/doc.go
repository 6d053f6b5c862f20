// Package audit records an audit trail of vault operations.
//
// Every operation run through the CLI (set, get, remove, purge and so on)
// appends one entry with the operation, the service and username it
// touched, the security level for writes and the outcome code. Secrets
// are never recorded.
//
// # Log Format
//
// The log is stored as JSON Lines, written with zerolog, at:
//
//	<data_dir>/audit.jsonl
//
// # Failure Handling
//
// Audit logging is best-effort. If logging fails (permissions, disk full,
// etc.), the operation continues without error.
//
// # Reading Logs
//
// ReadEntries parses the log for the log command. Malformed entries are
// silently skipped to handle partial writes.
package audit
