package configs

import (
	"fmt"
	"os"
	"path/filepath"
)

const appDirName = "credvault"

// Settings are the filesystem locations used when nothing is configured.
type Settings struct {
	ConfigDir string
	DataDir   string
}

// DefaultSettings resolves the XDG config and data directories.
func DefaultSettings() (*Settings, error) {
	configDir := os.Getenv("XDG_CONFIG_HOME")
	if configDir == "" {
		dir, err := os.UserConfigDir()
		if err != nil {
			return nil, fmt.Errorf("error getting config directory: %w", err)
		}
		configDir = dir
	}

	dataDir := os.Getenv("XDG_DATA_HOME")
	if dataDir == "" {
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("error getting home directory: %w", err)
		}
		dataDir = filepath.Join(homeDir, ".local", "share")
	}

	return &Settings{
		ConfigDir: filepath.Join(configDir, appDirName),
		DataDir:   filepath.Join(dataDir, appDirName),
	}, nil
}

// ConfigPath is the default config file.
func (s *Settings) ConfigPath() string {
	return filepath.Join(s.ConfigDir, "config.toml")
}

// DevicePath returns the device file kept next to configPath.
func DevicePath(configPath string) string {
	return filepath.Join(filepath.Dir(configPath), "device.toml")
}
