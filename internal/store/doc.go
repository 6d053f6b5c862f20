// Package store persists vault entries in a namespaced key-value store.
//
// Blobs live in a namespace named after the service, keyed by username.
// Metadata lives in the namespace service + ".metadata" and is encoded as
// JSON:
//
//	{"sLevel":"L3_UserPresence"}
//
// Records written by older versions as {"strategy":"PinUserPresence"} are
// still read.
//
// Three KV backends are available: Memory, Bolt (one bucket per
// namespace) and SQLite (one table keyed by namespace and key).
package store
