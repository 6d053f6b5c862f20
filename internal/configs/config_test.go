package configs

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	kerrors "github.com/PolarWolf314/credvault/internal/errors"
	"github.com/PolarWolf314/credvault/internal/gate"
	"github.com/PolarWolf314/credvault/internal/policy"
)

func testSettings(t *testing.T) *Settings {
	t.Helper()
	dir := t.TempDir()
	return &Settings{ConfigDir: filepath.Join(dir, "config"), DataDir: filepath.Join(dir, "data")}
}

func TestDefault_IsValid(t *testing.T) {
	s := testSettings(t)
	config := Default(s)

	if err := config.Validate(); err != nil {
		t.Fatalf("Default config should be valid: %v", err)
	}
	if config.Vault.DataDir != s.DataDir {
		t.Errorf("Expected data dir %s, got %s", s.DataDir, config.Vault.DataDir)
	}
	if got := policy.MaxSupportedLevel(config.Device.Capabilities); got != policy.L3UserPresence {
		t.Errorf("Expected default device to support L3, got %s", got)
	}
	if config.Policy() != policy.DefaultPolicy() {
		t.Errorf("Expected default policy, got %+v", config.Policy())
	}
}

func TestLoad_MissingFileGivesDefaults(t *testing.T) {
	s := testSettings(t)
	config, err := Load(s.ConfigPath(), s)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if config.Vault.Store != "bolt" {
		t.Errorf("Expected bolt store, got %s", config.Vault.Store)
	}
}

func TestLoad_TOMLOverridesDefaults(t *testing.T) {
	s := testSettings(t)
	path := s.ConfigPath()
	content := `
[vault]
store = "sqlite"

[keys]
auth_validity = "30s"

[device.capabilities]
strong_biometric = true

[device.sensors]
fingerprint = true

[prompt]
subtitle = "Unlock your vault"
`
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte(content), 0600); err != nil {
		t.Fatal(err)
	}

	config, err := Load(path, s)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if config.Vault.Store != "sqlite" {
		t.Errorf("Expected sqlite store, got %s", config.Vault.Store)
	}
	if config.Vault.AppID != "credvault" {
		t.Errorf("Expected default app id to survive, got %q", config.Vault.AppID)
	}
	if config.Policy().AuthValidity != 30*time.Second {
		t.Errorf("Expected 30s auth validity, got %s", config.Policy().AuthValidity)
	}
	if config.Keys.Bits != 2048 {
		t.Errorf("Expected default key size to survive, got %d", config.Keys.Bits)
	}
	if !config.Device.Capabilities.StrongBiometric || !config.Device.Capabilities.DeviceCredential {
		t.Errorf("Unexpected capabilities %+v", config.Device.Capabilities)
	}
	if !config.StaticDevice().SensorInfo.Fingerprint {
		t.Error("Expected fingerprint sensor")
	}
	if got := config.GatePrompt(); got.Subtitle != "Unlock your vault" || got.Title != gate.DefaultTitle {
		t.Errorf("Unexpected prompt %+v", got)
	}
}

func TestSaveLoad_YAMLRoundTrip(t *testing.T) {
	s := testSettings(t)
	path := filepath.Join(s.ConfigDir, "config.yaml")

	config := Default(s)
	config.Vault.Store = "memory"
	config.Vault.Keystore = KeystoreMemory
	config.Keys.ValiditySkew = Duration(2 * time.Hour)
	config.Device.Capabilities.StrongBiometric = true

	if err := Save(path, config); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	loaded, err := Load(path, s)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if loaded.Vault.Store != "memory" {
		t.Errorf("Expected memory store, got %s", loaded.Vault.Store)
	}
	if loaded.Policy().ValiditySkew != 2*time.Hour {
		t.Errorf("Expected 2h skew, got %s", loaded.Policy().ValiditySkew)
	}
	if !loaded.Device.Capabilities.StrongBiometric {
		t.Error("Expected strong biometric to round trip")
	}
}

func TestSaveLoad_TOMLRoundTrip(t *testing.T) {
	s := testSettings(t)
	config := Default(s)
	config.Prompt.MaxAttempts = 3

	if err := Save(s.ConfigPath(), config); err != nil {
		t.Fatalf("Save failed: %v", err)
	}
	loaded, err := Load(s.ConfigPath(), s)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if loaded.Prompt.MaxAttempts != 3 {
		t.Errorf("Expected 3 attempts, got %d", loaded.Prompt.MaxAttempts)
	}
	if loaded.Policy() != config.Policy() {
		t.Errorf("Policy changed across round trip: %+v vs %+v", loaded.Policy(), config.Policy())
	}
}

func TestLoad_Invalid(t *testing.T) {
	tests := []struct {
		name    string
		content string
		want    error
	}{
		{"malformed", "[vault\n", kerrors.ErrInvalidConfig},
		{"unknown store", "[vault]\nstore = \"redis\"\n", kerrors.ErrUnsupportedBackend},
		{"unknown keystore", "[vault]\nkeystore = \"tpm\"\n", kerrors.ErrUnsupportedBackend},
		{"zero auth validity", "[keys]\nauth_validity = \"0s\"\n", kerrors.ErrInvalidConfig},
		{"bad duration", "[keys]\nauth_validity = \"soon\"\n", kerrors.ErrInvalidConfig},
		{"memory keystore with bolt store", "[vault]\nstore = \"bolt\"\nkeystore = \"memory\"\n", kerrors.ErrInvalidConfig},
		{"file keystore with memory store", "[vault]\nstore = \"memory\"\nkeystore = \"file\"\n", kerrors.ErrInvalidConfig},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := testSettings(t)
			path := filepath.Join(s.ConfigDir, "config.toml")
			if err := os.MkdirAll(s.ConfigDir, 0700); err != nil {
				t.Fatal(err)
			}
			if err := os.WriteFile(path, []byte(tt.content), 0600); err != nil {
				t.Fatal(err)
			}

			_, err := Load(path, s)
			if !errors.Is(err, tt.want) {
				t.Errorf("Expected %v, got %v", tt.want, err)
			}
		})
	}
}

func TestDeviceFile(t *testing.T) {
	path := DevicePath(filepath.Join(t.TempDir(), "config.toml"))

	device, err := LoadDevice(path)
	if err != nil {
		t.Fatalf("LoadDevice failed: %v", err)
	}
	if device.PIN.Enrolled() {
		t.Fatal("Expected no PIN in a fresh device file")
	}

	pin, err := gate.HashPIN([]byte("2468"))
	if err != nil {
		t.Fatal(err)
	}
	if err := SaveDevice(path, &DeviceFile{PIN: pin}); err != nil {
		t.Fatalf("SaveDevice failed: %v", err)
	}

	loaded, err := LoadDevice(path)
	if err != nil {
		t.Fatalf("LoadDevice failed: %v", err)
	}
	ok, err := loaded.PIN.Verify([]byte("2468"))
	if err != nil || !ok {
		t.Errorf("Expected saved PIN to verify, got %t, %v", ok, err)
	}
}

func TestDefaultSettings_RespectsXDG(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", filepath.Join(dir, "cfg"))
	t.Setenv("XDG_DATA_HOME", filepath.Join(dir, "data"))

	s, err := DefaultSettings()
	if err != nil {
		t.Fatalf("DefaultSettings failed: %v", err)
	}
	if s.ConfigPath() != filepath.Join(dir, "cfg", "credvault", "config.toml") {
		t.Errorf("Unexpected config path %s", s.ConfigPath())
	}
	if s.DataDir != filepath.Join(dir, "data", "credvault") {
		t.Errorf("Unexpected data dir %s", s.DataDir)
	}
}

func TestLoadDevice_RejectsZeroArgonParameters(t *testing.T) {
	path := DevicePath(filepath.Join(t.TempDir(), "config.toml"))
	content := `
[pin]
hash = "AAAA"
salt = "AAAA"
time = 0
memory = 65536
threads = 0
`
	if err := os.WriteFile(path, []byte(content), 0600); err != nil {
		t.Fatal(err)
	}

	_, err := LoadDevice(path)
	if !errors.Is(err, kerrors.ErrInvalidConfig) {
		t.Errorf("Expected ErrInvalidConfig, got %v", err)
	}
}
