package workflows

import (
	"context"
	"fmt"

	"github.com/PolarWolf314/credvault/internal/audit"
	"github.com/PolarWolf314/credvault/internal/configs"
	kerrors "github.com/PolarWolf314/credvault/internal/errors"
	"github.com/PolarWolf314/credvault/internal/gate"
	"github.com/PolarWolf314/credvault/internal/policy"
)

// LevelStatus reports whether one level can be used on this device.
type LevelStatus struct {
	Level  policy.SecurityLevel `json:"sLevel"`
	Usable bool                 `json:"usable"`
}

// LevelsResult describes what the device can protect secrets with.
type LevelsResult struct {
	Max        policy.SecurityLevel `json:"maxSupported"`
	Levels     []LevelStatus        `json:"levels"`
	Strategies []policy.Strategy    `json:"strategies"`
	Sensors    policy.Sensors       `json:"sensors"`
}

// Levels queries the device for every level, strategy and sensor.
func (r *Runtime) Levels(ctx context.Context) *LevelsResult {
	result := &LevelsResult{
		Max:        r.Vault.MaxSupportedLevel(ctx),
		Strategies: r.Vault.AvailableStrategies(ctx),
		Sensors:    r.Vault.SupportedBiometricSensors(ctx),
	}
	for _, l := range policy.Levels {
		result.Levels = append(result.Levels, LevelStatus{Level: l, Usable: r.Vault.CanUseLevel(ctx, l)})
	}
	return result
}

// SetPIN enrols pin as the device credential used by the terminal gate,
// replacing any previous PIN.
func (r *Runtime) SetPIN(pin []byte) error {
	err := r.setPIN(pin)
	r.Audit.Record(audit.Entry{Operation: OpPIN, Outcome: outcome(err)})
	return err
}

func (r *Runtime) setPIN(pin []byte) error {
	if len(pin) == 0 {
		return fmt.Errorf("%w: pin", kerrors.ErrMissingParameters)
	}

	cred, err := gate.HashPIN(pin)
	if err != nil {
		return fmt.Errorf("%w: %v", kerrors.ErrUnknown, err)
	}

	device, err := configs.LoadDevice(r.DevicePath)
	if err != nil {
		return fmt.Errorf("%w: %v", kerrors.ErrUnknown, err)
	}
	device.PIN = cred
	if err := configs.SaveDevice(r.DevicePath, device); err != nil {
		return fmt.Errorf("%w: %v", kerrors.ErrUnknown, err)
	}

	if r.terminal != nil {
		r.terminal.Credential = cred
	}
	r.log.Infof("Enrolled device PIN in %s", r.DevicePath)
	return nil
}

// Migrate rewrites strategy-based metadata of each service into level
// metadata and returns how many records changed.
func (r *Runtime) Migrate(ctx context.Context, services []string) (int, error) {
	total := 0
	for _, service := range services {
		n, err := r.metadata.Migrate(ctx, service)
		total += n
		if err != nil {
			err = fmt.Errorf("%w: migrating %s: %v", kerrors.ErrUnknown, service, err)
			r.Audit.Record(audit.Entry{Operation: OpMigrate, Outcome: outcome(err), Service: service, Count: n})
			return total, err
		}
		r.log.Infof("Migrated %d records for %s", n, service)
		r.Audit.Record(audit.Entry{Operation: OpMigrate, Outcome: audit.OutcomeOK, Service: service, Count: n})
	}
	return total, nil
}
