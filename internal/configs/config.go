package configs

import (
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/BurntSushi/toml"

	kerrors "github.com/PolarWolf314/credvault/internal/errors"
	"github.com/PolarWolf314/credvault/internal/gate"
	"github.com/PolarWolf314/credvault/internal/policy"
)

// Config is the user configuration file.
type Config struct {
	Vault  VaultConfig  `toml:"vault" yaml:"vault"`
	Keys   KeysConfig   `toml:"keys" yaml:"keys"`
	Device DeviceConfig `toml:"device" yaml:"device"`
	Prompt PromptConfig `toml:"prompt" yaml:"prompt"`
}

type VaultConfig struct {
	AppID    string `toml:"app_id" yaml:"app_id"`
	DataDir  string `toml:"data_dir" yaml:"data_dir"`
	Store    string `toml:"store" yaml:"store"`
	Keystore string `toml:"keystore" yaml:"keystore"`
}

type KeysConfig struct {
	Bits           int      `toml:"bits" yaml:"bits"`
	ValiditySkew   Duration `toml:"validity_skew" yaml:"validity_skew"`
	ValidityPeriod Duration `toml:"validity_period" yaml:"validity_period"`
	AuthValidity   Duration `toml:"auth_validity" yaml:"auth_validity"`
}

// DeviceConfig declares what the host offers. There is no portable way to
// probe a desktop for biometrics, so capabilities are configured.
type DeviceConfig struct {
	Capabilities policy.Capabilities `toml:"capabilities" yaml:"capabilities"`
	Sensors      policy.Sensors      `toml:"sensors" yaml:"sensors"`
}

type PromptConfig struct {
	Title                string `toml:"title" yaml:"title"`
	Subtitle             string `toml:"subtitle" yaml:"subtitle"`
	Description          string `toml:"description" yaml:"description"`
	NegativeButton       string `toml:"negative_button" yaml:"negative_button"`
	ConfirmationRequired bool   `toml:"confirmation_required" yaml:"confirmation_required"`
	MaxAttempts          int    `toml:"max_attempts" yaml:"max_attempts"`
}

// Store and keystore backends.
const (
	KeystoreFile   = "file"
	KeystoreMemory = "memory"
)

var validStores = map[string]bool{"bolt": true, "sqlite": true, "memory": true}

// Duration is a time.Duration written as "24h" in config files.
type Duration time.Duration

func (d Duration) MarshalText() ([]byte, error) {
	return []byte(time.Duration(d).String()), nil
}

func (d *Duration) UnmarshalText(text []byte) error {
	parsed, err := time.ParseDuration(string(text))
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", text, err)
	}
	*d = Duration(parsed)
	return nil
}

// Default returns the configuration used when no file exists. A terminal
// host can offer a PIN, so the default device supports up to L3.
func Default(s *Settings) *Config {
	p := policy.DefaultPolicy()
	return &Config{
		Vault: VaultConfig{
			AppID:    appDirName,
			DataDir:  s.DataDir,
			Store:    "bolt",
			Keystore: KeystoreFile,
		},
		Keys: KeysConfig{
			Bits:           p.KeyBits,
			ValiditySkew:   Duration(p.ValiditySkew),
			ValidityPeriod: Duration(p.ValidityPeriod),
			AuthValidity:   Duration(p.AuthValidity),
		},
		Device: DeviceConfig{
			Capabilities: policy.Capabilities{DeviceSecure: true, DeviceCredential: true},
		},
		Prompt: PromptConfig{
			Title:       gate.DefaultTitle,
			MaxAttempts: gate.DefaultMaxAttempts,
		},
	}
}

// Load reads the config at path over the defaults. A missing file yields
// the defaults. Paths ending in .yaml or .yml are read as YAML.
func Load(path string, s *Settings) (*Config, error) {
	config := Default(s)

	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		return config, nil
	}

	var err error
	if isYAML(path) {
		err = LoadYAML(path, config)
	} else {
		err = LoadTOML(path, config)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", kerrors.ErrInvalidConfig, path, err)
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}
	return config, nil
}

// Save writes config to path in the format its extension implies.
func Save(path string, config *Config) error {
	var err error
	if isYAML(path) {
		err = SaveYAML(path, config)
	} else {
		err = SaveTOML(path, config)
	}
	if err != nil {
		return fmt.Errorf("failed to save config: %w", err)
	}
	return nil
}

// WriteTOML writes config to w as TOML.
func (c *Config) WriteTOML(w io.Writer) error {
	return toml.NewEncoder(w).Encode(c)
}

// Validate checks backends and key parameters.
func (c *Config) Validate() error {
	if c.Vault.AppID == "" {
		return fmt.Errorf("%w: vault.app_id is empty", kerrors.ErrInvalidConfig)
	}
	if c.Vault.DataDir == "" && (c.Vault.Store != "memory" || c.Vault.Keystore != KeystoreMemory) {
		return fmt.Errorf("%w: vault.data_dir is empty", kerrors.ErrInvalidConfig)
	}
	if !validStores[c.Vault.Store] {
		return fmt.Errorf("%w: store %q", kerrors.ErrUnsupportedBackend, c.Vault.Store)
	}
	if c.Vault.Keystore != KeystoreFile && c.Vault.Keystore != KeystoreMemory {
		return fmt.Errorf("%w: keystore %q", kerrors.ErrUnsupportedBackend, c.Vault.Keystore)
	}
	// Keys and ciphertext must live equally long or every entry reads as
	// missing after a restart.
	if (c.Vault.Store == "memory") != (c.Vault.Keystore == KeystoreMemory) {
		return fmt.Errorf("%w: store %q cannot be combined with keystore %q, use memory for both or neither",
			kerrors.ErrInvalidConfig, c.Vault.Store, c.Vault.Keystore)
	}
	if c.Prompt.MaxAttempts < 1 {
		return fmt.Errorf("%w: prompt.max_attempts must be at least 1", kerrors.ErrInvalidConfig)
	}
	return c.Policy().Validate()
}

// Policy returns the key generation parameters.
func (c *Config) Policy() policy.Policy {
	return policy.Policy{
		KeyBits:        c.Keys.Bits,
		AuthValidity:   time.Duration(c.Keys.AuthValidity),
		ValiditySkew:   time.Duration(c.Keys.ValiditySkew),
		ValidityPeriod: time.Duration(c.Keys.ValidityPeriod),
	}
}

// GatePrompt returns the configured prompt text.
func (c *Config) GatePrompt() gate.Prompt {
	return gate.Prompt{
		Title:                c.Prompt.Title,
		Subtitle:             c.Prompt.Subtitle,
		Description:          c.Prompt.Description,
		NegativeButtonText:   c.Prompt.NegativeButton,
		ConfirmationRequired: c.Prompt.ConfirmationRequired,
	}
}

// StaticDevice returns the configured device.
func (c *Config) StaticDevice() policy.StaticDevice {
	return policy.StaticDevice{Caps: c.Device.Capabilities, SensorInfo: c.Device.Sensors}
}
