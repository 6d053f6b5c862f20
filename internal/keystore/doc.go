// Package keystore holds the per-credential RSA keypairs.
//
// A Provider creates a key per alias according to a policy.KeySpec,
// destroying any previous key under the same alias, and hands out the
// private half as a crypto.Decrypter only when the key's validity window
// and user-authentication requirement are met.
//
// MemoryProvider simulates a hardware keystore in process memory.
// FileProvider stores each key sealed with NaCl secretbox under a master
// key on disk:
//
//	<dir>/master.key
//	<dir>/<base64url(alias)>/key.sealed
//	<dir>/<base64url(alias)>/metadata.toml
package keystore
