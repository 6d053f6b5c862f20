package policy

import (
	"fmt"
	"strconv"
	"strings"

	kerrors "github.com/PolarWolf314/credvault/internal/errors"
)

// SecurityLevel is an ordered protection tier. Higher ranks are strictly
// stronger.
type SecurityLevel int

const (
	L1Encrypted      SecurityLevel = 1
	L2DeviceUnlocked SecurityLevel = 2
	L3UserPresence   SecurityLevel = 3
	L4Biometrics     SecurityLevel = 4
)

// Levels lists every level in ascending order.
var Levels = []SecurityLevel{L1Encrypted, L2DeviceUnlocked, L3UserPresence, L4Biometrics}

var levelNames = map[SecurityLevel]string{
	L1Encrypted:      "L1_Encrypted",
	L2DeviceUnlocked: "L2_DeviceUnlocked",
	L3UserPresence:   "L3_UserPresence",
	L4Biometrics:     "L4_Biometrics",
}

// Rank returns the integer used for ordering comparisons.
func (l SecurityLevel) Rank() int {
	return int(l)
}

// Valid reports whether l is one of the four defined levels.
func (l SecurityLevel) Valid() bool {
	_, ok := levelNames[l]
	return ok
}

// String returns the persisted identifier, e.g. "L3_UserPresence".
func (l SecurityLevel) String() string {
	if name, ok := levelNames[l]; ok {
		return name
	}
	return fmt.Sprintf("SecurityLevel(%d)", int(l))
}

// MarshalText implements encoding.TextMarshaler.
func (l SecurityLevel) MarshalText() ([]byte, error) {
	if !l.Valid() {
		return nil, fmt.Errorf("%w: %d", kerrors.ErrInvalidLevel, int(l))
	}
	return []byte(l.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (l *SecurityLevel) UnmarshalText(text []byte) error {
	parsed, err := ParseLevel(string(text))
	if err != nil {
		return err
	}
	*l = parsed
	return nil
}

// ParseLevel accepts a level identifier ("L4_Biometrics"), its short form
// ("L4"), its rank ("4") or a named strategy ("PinUserPresence").
// Matching is case-insensitive.
func ParseLevel(s string) (SecurityLevel, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, fmt.Errorf("%w: empty", kerrors.ErrInvalidLevel)
	}

	if n, err := strconv.Atoi(s); err == nil {
		if l := SecurityLevel(n); l.Valid() {
			return l, nil
		}
		return 0, fmt.Errorf("%w: %q", kerrors.ErrInvalidLevel, s)
	}

	for _, l := range Levels {
		name := levelNames[l]
		if strings.EqualFold(s, name) || strings.EqualFold(s, name[:2]) {
			return l, nil
		}
	}

	if strategy, ok := LookupStrategy(s); ok {
		return strategy.Level, nil
	}

	return 0, fmt.Errorf("%w: %q", kerrors.ErrInvalidLevel, s)
}

// CanUseLevel reports whether a device whose best level is maxSupported can
// satisfy requested.
func CanUseLevel(requested, maxSupported SecurityLevel) bool {
	return maxSupported.Rank() >= requested.Rank()
}
