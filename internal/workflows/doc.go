// Package workflows provides high-level orchestration for credvault commands.
//
// Open loads the configuration and wires the store, key provider,
// user-presence gate, vault and audit log into a Runtime. Each command maps
// to one Runtime method that performs the vault operation and records an
// audit entry, independent of CLI concerns like flag parsing, spinners and
// output formatting.
//
// # Available Workflows
//
//   - Set, Get, List, Remove, Purge: credential operations
//   - Levels: what the device can protect secrets with
//   - SetPIN: enrol the device credential used by the terminal gate
//   - Migrate: rewrite strategy metadata into level metadata
//   - Log: read and filter the audit log
//
// # Error Handling
//
// Credential operations return errors wrapping one of the vault kinds from
// the internal/errors package. Use errors.Is() to check for them:
//
//	_, err := rt.Get(ctx, workflows.GetOptions{Service: "mail", Username: "bob"})
//	if errors.Is(err, kerrors.ErrFailedToAccess) {
//	    // The user declined or failed the PIN prompt.
//	}
package workflows
