package configs

import (
	"errors"
	"fmt"
	"os"

	kerrors "github.com/PolarWolf314/credvault/internal/errors"
	"github.com/PolarWolf314/credvault/internal/gate"
)

// DeviceFile holds per-device secrets kept apart from the shareable config.
type DeviceFile struct {
	PIN gate.Credential `toml:"pin"`
}

// LoadDevice reads the device file. A missing file is an empty device.
func LoadDevice(path string) (*DeviceFile, error) {
	device := &DeviceFile{}
	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		return device, nil
	}
	if err := LoadTOML(path, device); err != nil {
		return nil, fmt.Errorf("failed to load device file: %w", err)
	}
	if device.PIN.Enrolled() {
		if err := device.PIN.Validate(); err != nil {
			return nil, fmt.Errorf("%w: %s: %v", kerrors.ErrInvalidConfig, path, err)
		}
	}
	return device, nil
}

// SaveDevice writes the device file with owner-only permissions.
func SaveDevice(path string, device *DeviceFile) error {
	if err := SaveTOML(path, device); err != nil {
		return fmt.Errorf("failed to save device file: %w", err)
	}
	return nil
}
