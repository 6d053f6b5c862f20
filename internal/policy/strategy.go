package policy

import "strings"

// StrategyName identifies a named security strategy. Strategies predate the
// ordered levels and are kept so older metadata records and callers still
// resolve to a level.
type StrategyName string

const (
	StrongUserPresence   StrategyName = "StrongUserPresence"
	PinUserPresence      StrategyName = "PinUserPresence"
	StandardPlusBioCheck StrategyName = "StandardPlusBioCheck"
	Standard             StrategyName = "Standard"
)

// Strategy pairs a name with the level it maps to. Biometrics marks
// strategies that involve a biometric check.
type Strategy struct {
	Name       StrategyName  `json:"name"`
	Level      SecurityLevel `json:"level"`
	Biometrics bool          `json:"biometrics"`
}

var strategies = []Strategy{
	{Name: StrongUserPresence, Level: L4Biometrics, Biometrics: true},
	{Name: PinUserPresence, Level: L3UserPresence, Biometrics: false},
	{Name: StandardPlusBioCheck, Level: L1Encrypted, Biometrics: true},
	{Name: Standard, Level: L1Encrypted, Biometrics: false},
}

// LookupStrategy finds a strategy by name, case-insensitively.
func LookupStrategy(name string) (Strategy, bool) {
	for _, s := range strategies {
		if strings.EqualFold(string(s.Name), name) {
			return s, true
		}
	}
	return Strategy{}, false
}

// AvailableStrategies lists the strategies the device can satisfy,
// strongest first. Standard is always available.
func AvailableStrategies(c Capabilities) []Strategy {
	var available []Strategy
	for _, s := range strategies {
		switch s.Name {
		case StrongUserPresence:
			if !c.StrongBiometric {
				continue
			}
		case PinUserPresence:
			if !c.DeviceCredential {
				continue
			}
		case StandardPlusBioCheck:
			if !c.WeakBiometric && !c.StrongBiometric {
				continue
			}
		}
		available = append(available, s)
	}
	return available
}
