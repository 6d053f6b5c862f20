package policy

import "context"

// Capabilities describes the authenticators a device currently offers.
// They can change over the device's lifetime as users enrol or remove
// biometrics and lock screens.
type Capabilities struct {
	StrongBiometric  bool `toml:"strong_biometric" yaml:"strong_biometric" json:"strongBiometric"`
	WeakBiometric    bool `toml:"weak_biometric" yaml:"weak_biometric" json:"weakBiometric"`
	DeviceCredential bool `toml:"device_credential" yaml:"device_credential" json:"deviceCredential"`
	DeviceSecure     bool `toml:"secure" yaml:"secure" json:"secure"`
}

// Authenticators returns the classes the device can use right now.
func (c Capabilities) Authenticators() Authenticator {
	var a Authenticator
	if c.StrongBiometric {
		a |= BiometricStrong
	}
	if c.WeakBiometric || c.StrongBiometric {
		a |= BiometricWeak
	}
	if c.DeviceCredential {
		a |= DeviceCredential
	}
	return a
}

// MaxSupportedLevel returns the highest level the device can satisfy,
// falling back to L1.
func MaxSupportedLevel(c Capabilities) SecurityLevel {
	switch {
	case c.StrongBiometric:
		return L4Biometrics
	case c.DeviceCredential:
		return L3UserPresence
	case c.DeviceSecure:
		return L2DeviceUnlocked
	default:
		return L1Encrypted
	}
}

// Sensors reports which biometric sensors the device advertises. Not every
// device advertises its sensors, so this is informational only.
type Sensors struct {
	Face        bool `toml:"face" yaml:"face" json:"face"`
	Fingerprint bool `toml:"fingerprint" yaml:"fingerprint" json:"fingerprint"`
	Iris        bool `toml:"iris" yaml:"iris" json:"iris"`
}

// Device is queried live for capabilities on every level decision.
type Device interface {
	Capabilities(ctx context.Context) (Capabilities, error)
	Sensors(ctx context.Context) (Sensors, error)
}

// StaticDevice reports a fixed set of capabilities, typically from config.
type StaticDevice struct {
	Caps       Capabilities
	SensorInfo Sensors
}

func (d StaticDevice) Capabilities(context.Context) (Capabilities, error) {
	return d.Caps, nil
}

func (d StaticDevice) Sensors(context.Context) (Sensors, error) {
	return d.SensorInfo, nil
}
