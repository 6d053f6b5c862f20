package keystore

import (
	"context"
	"crypto"
	"crypto/rsa"
	"fmt"
	"io"
	"time"

	kerrors "github.com/PolarWolf314/credvault/internal/errors"
	"github.com/PolarWolf314/credvault/internal/gate"
	"github.com/PolarWolf314/credvault/internal/policy"
)

// Provider creates and guards per-credential keypairs. There is at most
// one live key per alias.
type Provider interface {
	// CreateKey destroys any key under alias and generates a fresh one
	// honouring spec.
	CreateKey(ctx context.Context, alias string, spec policy.KeySpec) (*KeyHandle, error)

	// GetKey returns the key under alias, or nil with no error when absent.
	GetKey(ctx context.Context, alias string) (*KeyHandle, error)

	// DeleteKey removes the key under alias. Deleting an absent key succeeds.
	DeleteKey(ctx context.Context, alias string) error

	// IsHardwareBacked reports whether the key lives in secure hardware.
	// It is informational only.
	IsHardwareBacked(ctx context.Context, alias string) bool

	// Decrypter returns the private half of the key. Keys that require user
	// authentication need a session granted for alias within the key's
	// auth validity window.
	Decrypter(ctx context.Context, alias string, session *gate.Session) (crypto.Decrypter, error)
}

// KeyHandle describes a stored key. It never carries private material.
type KeyHandle struct {
	Alias          string
	Spec           policy.KeySpec
	Public         *rsa.PublicKey
	CreatedAt      time.Time
	HardwareBacked bool
}

// checkSpec rejects specs no provider can honour.
func checkSpec(spec policy.KeySpec) error {
	if !spec.Level.Valid() {
		return fmt.Errorf("%w: %v", kerrors.ErrKeyGenerationFailed, kerrors.ErrInvalidLevel)
	}
	if spec.Bits < 1024 {
		return fmt.Errorf("%w: %d-bit keys are not supported", kerrors.ErrKeyGenerationFailed, spec.Bits)
	}
	if spec.UserAuthRequired && spec.AuthValidity <= 0 {
		return fmt.Errorf("%w: user-authenticated keys need a positive auth validity", kerrors.ErrKeyGenerationFailed)
	}
	if spec.UserAuthRequired && spec.Authenticators == 0 {
		return fmt.Errorf("%w: user-authenticated keys need at least one authenticator", kerrors.ErrKeyGenerationFailed)
	}
	return nil
}

// authorize enforces the key's validity window and auth requirement.
func authorize(h *KeyHandle, session *gate.Session, now time.Time) error {
	if err := h.Spec.CheckValidity(now); err != nil {
		return err
	}
	if !h.Spec.UserAuthRequired {
		return nil
	}
	if !session.ValidFor(h.Alias, h.Spec.Authenticators, h.Spec.AuthValidity, now) {
		return kerrors.ErrUserAuthRequired
	}
	return nil
}

// decrypter exposes only the crypto.Decrypter surface of a private key.
type decrypter struct {
	key *rsa.PrivateKey
}

func (d decrypter) Public() crypto.PublicKey {
	return d.key.Public()
}

func (d decrypter) Decrypt(rand io.Reader, msg []byte, opts crypto.DecrypterOpts) ([]byte, error) {
	return d.key.Decrypt(rand, msg, opts)
}
