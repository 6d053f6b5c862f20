package secrets

import (
	"crypto/rand"
	"crypto/rsa"
	"crypto/x509"
	"encoding/pem"
	"fmt"
	"io"

	kerrors "github.com/PolarWolf314/credvault/internal/errors"
	"golang.org/x/crypto/nacl/secretbox"
)

const (
	privateKeyPEMType = "RSA PRIVATE KEY"
	publicKeyPEMType  = "PUBLIC KEY"

	// SealKeySize is the length of the key used by SealPrivateKey.
	SealKeySize = 32
	nonceSize   = 24
)

// GenerateRSAKey creates a new RSA private key of the given size.
func GenerateRSAKey(bits int) (*rsa.PrivateKey, error) {
	privateKey, err := rsa.GenerateKey(rand.Reader, bits)
	if err != nil {
		return nil, fmt.Errorf("failed to generate RSA key pair: %w", err)
	}
	return privateKey, nil
}

// MarshalPrivateKeyPEM encodes key as a PKCS#1 PEM block.
func MarshalPrivateKeyPEM(key *rsa.PrivateKey) []byte {
	return pem.EncodeToMemory(&pem.Block{
		Type:  privateKeyPEMType,
		Bytes: x509.MarshalPKCS1PrivateKey(key),
	})
}

// ParsePrivateKeyPEM decodes a PKCS#1 PEM private key.
func ParsePrivateKeyPEM(data []byte) (*rsa.PrivateKey, error) {
	block, _ := pem.Decode(data)
	if block == nil || block.Type != privateKeyPEMType {
		return nil, fmt.Errorf("%w: failed to decode PEM block containing private key", kerrors.ErrInvalidPrivateKey)
	}
	key, err := x509.ParsePKCS1PrivateKey(block.Bytes)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", kerrors.ErrInvalidPrivateKey, err)
	}
	return key, nil
}

// MarshalPublicKeyPEM encodes pub as a PKIX PEM block.
func MarshalPublicKeyPEM(pub *rsa.PublicKey) ([]byte, error) {
	pubASN1, err := x509.MarshalPKIXPublicKey(pub)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal public key: %w", err)
	}
	return pem.EncodeToMemory(&pem.Block{Type: publicKeyPEMType, Bytes: pubASN1}), nil
}

// ParsePublicKeyPEM decodes a PKIX PEM RSA public key.
func ParsePublicKeyPEM(data []byte) (*rsa.PublicKey, error) {
	block, _ := pem.Decode(data)
	if block == nil || block.Type != publicKeyPEMType {
		return nil, fmt.Errorf("failed to decode PEM block containing public key")
	}
	pub, err := x509.ParsePKIXPublicKey(block.Bytes)
	if err != nil {
		return nil, err
	}
	rsaPub, ok := pub.(*rsa.PublicKey)
	if !ok {
		return nil, fmt.Errorf("not an RSA public key")
	}
	return rsaPub, nil
}

// CreateSealKey generates a new random key for SealPrivateKey.
func CreateSealKey() ([]byte, error) {
	key := make([]byte, SealKeySize)
	if _, err := rand.Read(key); err != nil {
		return nil, err
	}
	return key, nil
}

// SealPrivateKey encrypts the PEM encoding of key with NaCl secretbox.
// The random nonce is prepended to the ciphertext.
func SealPrivateKey(key *rsa.PrivateKey, sealKey []byte) ([]byte, error) {
	if len(sealKey) != SealKeySize {
		return nil, fmt.Errorf("invalid seal key length: expected %d bytes, got %d bytes", SealKeySize, len(sealKey))
	}
	var k [SealKeySize]byte
	copy(k[:], sealKey)

	var nonce [nonceSize]byte
	if _, err := io.ReadFull(rand.Reader, nonce[:]); err != nil {
		return nil, fmt.Errorf("failed to read nonce: %w", err)
	}

	plaintext := MarshalPrivateKeyPEM(key)
	defer Wipe(plaintext)

	return secretbox.Seal(nonce[:], plaintext, &nonce, &k), nil
}

// OpenPrivateKey reverses SealPrivateKey.
func OpenPrivateKey(sealed []byte, sealKey []byte) (*rsa.PrivateKey, error) {
	if len(sealKey) != SealKeySize {
		return nil, fmt.Errorf("invalid seal key length: expected %d bytes, got %d bytes", SealKeySize, len(sealKey))
	}
	if len(sealed) < nonceSize+secretbox.Overhead {
		return nil, fmt.Errorf("%w: sealed key is truncated", kerrors.ErrInvalidPrivateKey)
	}
	var k [SealKeySize]byte
	copy(k[:], sealKey)

	var nonce [nonceSize]byte
	copy(nonce[:], sealed[:nonceSize])

	plaintext, ok := secretbox.Open(nil, sealed[nonceSize:], &nonce, &k)
	if !ok {
		return nil, fmt.Errorf("%w: failed to open sealed key", kerrors.ErrInvalidPrivateKey)
	}
	defer Wipe(plaintext)

	return ParsePrivateKeyPEM(plaintext)
}
