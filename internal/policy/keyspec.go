package policy

import (
	"fmt"
	"time"

	kerrors "github.com/PolarWolf314/credvault/internal/errors"
)

// Policy holds the tunable parameters used when generating keys.
type Policy struct {
	// KeyBits is the RSA modulus size.
	KeyBits int

	// AuthValidity is how long a successful gate authorizes key use. Some
	// platforms make keys permanently unusable with a zero window, so it
	// must be positive.
	AuthValidity time.Duration

	// ValiditySkew backdates the key validity start to tolerate clock skew
	// between the keystore and the host.
	ValiditySkew time.Duration

	// ValidityPeriod is how long after creation the key stays valid.
	ValidityPeriod time.Duration
}

// DefaultPolicy returns the parameters used when nothing is configured.
func DefaultPolicy() Policy {
	return Policy{
		KeyBits:        2048,
		AuthValidity:   100 * time.Second,
		ValiditySkew:   24 * time.Hour,
		ValidityPeriod: 30 * 365 * 24 * time.Hour,
	}
}

// Validate checks the policy can produce usable keys.
func (p Policy) Validate() error {
	if p.KeyBits < 1024 {
		return fmt.Errorf("%w: key size %d is below 1024 bits", kerrors.ErrInvalidConfig, p.KeyBits)
	}
	if p.AuthValidity <= 0 {
		return fmt.Errorf("%w: auth validity must be greater than zero", kerrors.ErrInvalidConfig)
	}
	if p.ValiditySkew < 0 {
		return fmt.Errorf("%w: validity skew must not be negative", kerrors.ErrInvalidConfig)
	}
	if p.ValidityPeriod <= 0 {
		return fmt.Errorf("%w: validity period must be greater than zero", kerrors.ErrInvalidConfig)
	}
	return nil
}

// KeySpec is everything a key provider needs to create a key for a level.
type KeySpec struct {
	Level                  SecurityLevel `toml:"level"`
	Bits                   int           `toml:"bits"`
	UserAuthRequired       bool          `toml:"user_auth_required"`
	Authenticators         Authenticator `toml:"authenticators"`
	UnlockedDeviceRequired bool          `toml:"unlocked_device_required"`
	AuthValidity           time.Duration `toml:"auth_validity"`
	NotBefore              time.Time     `toml:"not_before"`
	NotAfter               time.Time     `toml:"not_after"`
}

// KeySpec builds the spec for a key created at now.
func (p Policy) KeySpec(level SecurityLevel, now time.Time) KeySpec {
	req := RequirementsFor(level)
	spec := KeySpec{
		Level:                  level,
		Bits:                   p.KeyBits,
		UserAuthRequired:       req.UserAuthRequired,
		Authenticators:         req.Authenticators,
		UnlockedDeviceRequired: req.UnlockedDeviceRequired,
		NotBefore:              now.Add(-p.ValiditySkew),
		NotAfter:               now.Add(p.ValidityPeriod),
	}
	if req.UserAuthRequired {
		spec.AuthValidity = p.AuthValidity
	}
	return spec
}

// CheckValidity reports whether the key may be used at now.
func (s KeySpec) CheckValidity(now time.Time) error {
	if !s.NotBefore.IsZero() && now.Before(s.NotBefore) {
		return kerrors.ErrKeyNotYetValid
	}
	if !s.NotAfter.IsZero() && now.After(s.NotAfter) {
		return kerrors.ErrKeyExpired
	}
	return nil
}
