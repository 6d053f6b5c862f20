// Package vault combines the key provider, the codec, the gate and the
// two stores into the credential operations.
//
// Writing an entry creates a fresh key at the requested level, encodes the
// secret under its public half and stores metadata and blob. Reading loads
// all three parts, asks the gate for a session when the level requires
// one, and decodes with the private half the provider releases.
//
// Every error returned wraps exactly one of the kinds in
// internal/errors: ErrMissingParameters, ErrNoData, ErrFailedToAccess,
// ErrUnavailable or ErrUnknown. NewEnvelope turns a result or error into
// the wire envelope.
//
// An entry is complete only when key, metadata and blob all exist. Partial
// entries read as ErrNoData. A write that fails part way removes whatever
// it wrote, best effort.
package vault
