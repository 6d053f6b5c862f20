package gate

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/base64"
	"errors"
	"fmt"

	"golang.org/x/crypto/argon2"
)

// ErrNoCredential indicates no device credential has been enrolled.
var ErrNoCredential = errors.New("no device credential enrolled")

// Credential is an enrolled device PIN, stored as an argon2id hash.
type Credential struct {
	Hash    string `toml:"hash"`
	Salt    string `toml:"salt"`
	Time    uint32 `toml:"time"`
	Memory  uint32 `toml:"memory"`
	Threads uint8  `toml:"threads"`
}

const (
	pinSaltSize = 16
	pinKeySize  = 32
)

// HashPIN derives a credential from pin with fresh salt.
func HashPIN(pin []byte) (Credential, error) {
	if len(pin) == 0 {
		return Credential{}, fmt.Errorf("PIN must not be empty")
	}

	salt := make([]byte, pinSaltSize)
	if _, err := rand.Read(salt); err != nil {
		return Credential{}, fmt.Errorf("failed to generate salt: %w", err)
	}

	c := Credential{
		Salt:    base64.StdEncoding.EncodeToString(salt),
		Time:    3,
		Memory:  64 * 1024,
		Threads: 4,
	}
	key := argon2.IDKey(pin, salt, c.Time, c.Memory, c.Threads, pinKeySize)
	c.Hash = base64.StdEncoding.EncodeToString(key)
	return c, nil
}

// Enrolled reports whether c holds a hash.
func (c Credential) Enrolled() bool {
	return c.Hash != "" && c.Salt != ""
}

// Validate checks the argon2id parameters of an enrolled credential.
// argon2 panics on a zero time or thread count.
func (c Credential) Validate() error {
	switch {
	case c.Time < 1:
		return fmt.Errorf("invalid credential: time must be at least 1")
	case c.Threads < 1:
		return fmt.Errorf("invalid credential: threads must be at least 1")
	}
	return nil
}

// Verify reports whether pin matches the enrolled credential.
func (c Credential) Verify(pin []byte) (bool, error) {
	if !c.Enrolled() {
		return false, ErrNoCredential
	}
	if err := c.Validate(); err != nil {
		return false, err
	}

	salt, err := base64.StdEncoding.DecodeString(c.Salt)
	if err != nil {
		return false, fmt.Errorf("invalid credential salt: %w", err)
	}
	want, err := base64.StdEncoding.DecodeString(c.Hash)
	if err != nil {
		return false, fmt.Errorf("invalid credential hash: %w", err)
	}

	got := argon2.IDKey(pin, salt, c.Time, c.Memory, c.Threads, uint32(len(want)))
	return subtle.ConstantTimeCompare(got, want) == 1, nil
}
