package policy

import "strings"

// Authenticator is a set of user-presence authenticator classes.
type Authenticator uint8

const (
	BiometricStrong Authenticator = 1 << iota
	BiometricWeak
	DeviceCredential
)

// Allows reports whether a single authenticator class satisfies a.
func (a Authenticator) Allows(used Authenticator) bool {
	return used != 0 && a&used == used
}

func (a Authenticator) String() string {
	if a == 0 {
		return "none"
	}
	var parts []string
	if a&BiometricStrong != 0 {
		parts = append(parts, "biometric-strong")
	}
	if a&BiometricWeak != 0 {
		parts = append(parts, "biometric-weak")
	}
	if a&DeviceCredential != 0 {
		parts = append(parts, "device-credential")
	}
	return strings.Join(parts, "|")
}

// Requirements are the key-generation constraints for a level.
type Requirements struct {
	// UserAuthRequired keys can only be used inside an authorized session.
	UserAuthRequired bool

	// Authenticators lists the classes that may authorize a session.
	Authenticators Authenticator

	// UnlockedDeviceRequired keys are only usable while the device is unlocked.
	UnlockedDeviceRequired bool
}

// RequirementsFor returns the requirements for level. L4 is strictly
// narrower than L3: it accepts strong biometrics only.
func RequirementsFor(level SecurityLevel) Requirements {
	switch level {
	case L2DeviceUnlocked:
		return Requirements{UnlockedDeviceRequired: true}
	case L3UserPresence:
		return Requirements{
			UserAuthRequired:       true,
			Authenticators:         DeviceCredential | BiometricStrong,
			UnlockedDeviceRequired: true,
		}
	case L4Biometrics:
		return Requirements{
			UserAuthRequired:       true,
			Authenticators:         BiometricStrong,
			UnlockedDeviceRequired: true,
		}
	default:
		return Requirements{}
	}
}

// NeedsGate reports whether reading a credential at level requires a
// user-presence check.
func NeedsGate(level SecurityLevel) bool {
	return RequirementsFor(level).UserAuthRequired
}
