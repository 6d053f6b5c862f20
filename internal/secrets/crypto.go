package secrets

import (
	"crypto"
	"crypto/rand"
	"crypto/rsa"
	"encoding/base64"
	"fmt"
	"strings"
	"unicode"

	kerrors "github.com/PolarWolf314/credvault/internal/errors"
)

// pkcs1Overhead is the PKCS#1 v1.5 padding cost per block.
const pkcs1Overhead = 11

// BlockSize returns the ciphertext size of one block for pub.
func BlockSize(pub *rsa.PublicKey) int {
	return pub.Size()
}

// ChunkLimit returns the largest plaintext chunk that fits in one block.
func ChunkLimit(pub *rsa.PublicKey) int {
	return pub.Size() - pkcs1Overhead
}

// ChunkCount returns how many blocks Encode produces for n plaintext bytes.
// An empty plaintext still occupies one block.
func ChunkCount(n, limit int) int {
	if n == 0 {
		return 1
	}
	return (n + limit - 1) / limit
}

// Encode encrypts plaintext chunk by chunk with pub and returns the
// concatenated blocks as standard base64.
func Encode(pub *rsa.PublicKey, plaintext []byte) (string, error) {
	if pub == nil {
		return "", fmt.Errorf("%w: no public key", kerrors.ErrEncryptionFailed)
	}
	limit := ChunkLimit(pub)
	if limit <= 0 {
		return "", fmt.Errorf("%w: %d-bit key is too small", kerrors.ErrEncryptionFailed, pub.N.BitLen())
	}

	count := ChunkCount(len(plaintext), limit)
	out := make([]byte, 0, count*BlockSize(pub))
	for i := 0; i < count; i++ {
		start := i * limit
		end := min(start+limit, len(plaintext))

		block, err := EncryptWithPublicKey(plaintext[start:end], pub)
		if err != nil {
			return "", fmt.Errorf("%w: chunk %d: %v", kerrors.ErrEncryptionFailed, i, err)
		}
		out = append(out, block...)
	}

	return base64.StdEncoding.EncodeToString(out), nil
}

// Decode reverses Encode. It is all-or-nothing: on any failure the partial
// plaintext is wiped and only an error is returned.
func Decode(key crypto.Decrypter, blob string) ([]byte, error) {
	if key == nil {
		return nil, fmt.Errorf("%w: no private key", kerrors.ErrDecryptionFailed)
	}
	pub, ok := key.Public().(*rsa.PublicKey)
	if !ok {
		return nil, fmt.Errorf("%w: not an RSA key", kerrors.ErrDecryptionFailed)
	}

	raw, err := base64.StdEncoding.DecodeString(stripSpace(blob))
	if err != nil {
		return nil, fmt.Errorf("%w: invalid base64: %v", kerrors.ErrDecryptionFailed, err)
	}
	if len(raw) == 0 {
		return nil, fmt.Errorf("%w: empty blob", kerrors.ErrDecryptionFailed)
	}

	size := BlockSize(pub)
	blocks := (len(raw) + size - 1) / size
	// Sized so append never reallocates and leaves an unwiped copy behind.
	out := make([]byte, 0, blocks*size)
	for i := 0; i < blocks; i++ {
		start := i * size
		end := min(start+size, len(raw))

		chunk, err := key.Decrypt(rand.Reader, raw[start:end], nil)
		if err != nil {
			Wipe(out[:cap(out)])
			return nil, fmt.Errorf("%w: block %d: %v", kerrors.ErrDecryptionFailed, i, err)
		}
		out = append(out, chunk...)
		Wipe(chunk)
	}

	return out, nil
}

// EncryptWithPublicKey encrypts a single block with PKCS#1 v1.5 padding.
func EncryptWithPublicKey(plaintext []byte, publicKey *rsa.PublicKey) ([]byte, error) {
	return rsa.EncryptPKCS1v15(rand.Reader, publicKey, plaintext)
}

// Wipe overwrites b with zeros.
func Wipe(b []byte) {
	for i := range b {
		b[i] = 0
	}
}

func stripSpace(s string) string {
	return strings.Map(func(r rune) rune {
		if unicode.IsSpace(r) {
			return -1
		}
		return r
	}, s)
}
