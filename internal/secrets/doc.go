// Package secrets provides the cryptographic building blocks of credvault.
//
// # Chunked Codec
//
// Each credential is encrypted directly with its own RSA public key using
// PKCS#1 v1.5 padding. One RSA block only holds Size()-11 bytes of
// plaintext, so Encode splits the secret into chunks of that size,
// encrypts each chunk independently and concatenates the fixed-size
// ciphertext blocks:
//
//	blob = base64( E(pub, c0) || E(pub, c1) || ... )
//
// Decode splits the decoded bytes back into Size() blocks and decrypts them
// with any crypto.Decrypter, so keys that never expose private material
// work as well as *rsa.PrivateKey. An empty plaintext is stored as one block.
//
// The codec adds no integrity tag. It provides confidentiality only; a
// tampered blob either fails to decode or decodes to garbage.
//
// # Key Material
//
// RSA private keys are serialised as PKCS#1 PEM and public keys as PKIX
// PEM. Software keystores seal private key PEM with NaCl secretbox, a
// random 24-byte nonce prepended to the ciphertext.
package secrets
