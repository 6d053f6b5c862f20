package cmd

import (
	"bytes"
	"encoding/json"
	"path/filepath"
	"strings"
	"testing"

	"github.com/fatih/color"

	"github.com/PolarWolf314/credvault/internal/configs"
	"github.com/PolarWolf314/credvault/internal/policy"
)

// setupConfig writes a file-backed config with small keys into a temp dir
// and returns its path.
func setupConfig(t *testing.T, caps policy.Capabilities) string {
	t.Helper()
	color.NoColor = true

	dir := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", filepath.Join(dir, "config"))
	t.Setenv("XDG_DATA_HOME", filepath.Join(dir, "data"))

	settings := &configs.Settings{ConfigDir: filepath.Join(dir, "config"), DataDir: filepath.Join(dir, "data")}
	cfg := configs.Default(settings)
	cfg.Keys.Bits = 1024
	cfg.Device.Capabilities = caps

	path := settings.ConfigPath()
	if err := configs.Save(path, cfg); err != nil {
		t.Fatalf("Failed to write config: %v", err)
	}
	return path
}

// run executes the root command with args and returns stdout, stderr and
// the exit code.
func run(t *testing.T, stdin string, args ...string) (string, string, int) {
	t.Helper()
	ResetGlobalState()

	var stdout, stderr bytes.Buffer
	RootCmd.SetIn(strings.NewReader(stdin))
	RootCmd.SetOut(&stdout)
	RootCmd.SetErr(&stderr)
	RootCmd.SetArgs(args)
	t.Cleanup(func() {
		RootCmd.SetIn(nil)
		RootCmd.SetOut(nil)
		RootCmd.SetErr(nil)
		RootCmd.SetArgs(nil)
	})

	err := RootCmd.Execute()
	if err != nil && !isReported(err) {
		stderr.WriteString(err.Error())
	}
	return stdout.String(), stderr.String(), ExitCode(err)
}

func TestSetGetListPurge(t *testing.T) {
	cfg := setupConfig(t, policy.Capabilities{DeviceSecure: true})

	out, errOut, code := run(t, "hunter2\n", "set", "mail", "alice", "--level", "L2", "--config", cfg)
	if code != 0 {
		t.Fatalf("set failed with %d: %s", code, errOut)
	}
	if !strings.Contains(out, "Stored 'alice' for 'mail' at [L2_DeviceUnlocked]") {
		t.Errorf("Unexpected set output: %q", out)
	}

	out, errOut, code = run(t, "", "get", "mail", "alice", "--config", cfg)
	if code != 0 {
		t.Fatalf("get failed with %d: %s", code, errOut)
	}
	if out != "hunter2\n" {
		t.Errorf("Expected secret on stdout, got %q", out)
	}

	out, _, code = run(t, "", "get", "mail", "alice", "-n", "--config", cfg)
	if code != 0 || out != "hunter2" {
		t.Errorf("Expected secret without newline, got %q (%d)", out, code)
	}

	out, _, code = run(t, "", "list", "mail", "--config", cfg)
	if code != 0 || !strings.Contains(out, "alice") || !strings.Contains(out, "L2_DeviceUnlocked") {
		t.Errorf("Unexpected list output %q (%d)", out, code)
	}

	out, _, code = run(t, "", "purge", "mail", "--force", "--config", cfg)
	if code != 0 || !strings.Contains(out, "Removed 1 credentials") {
		t.Errorf("Unexpected purge output %q (%d)", out, code)
	}

	_, errOut, code = run(t, "", "get", "mail", "alice", "--config", cfg)
	if code != 3 {
		t.Errorf("Expected exit code 3 for missing credential, got %d", code)
	}
	if !strings.Contains(errOut, "No such credential") {
		t.Errorf("Expected no-data message, got %q", errOut)
	}
}

func TestSet_DefaultsToMaxLevel(t *testing.T) {
	cfg := setupConfig(t, policy.Capabilities{DeviceSecure: true})

	out, errOut, code := run(t, "pw", "set", "mail", "bob", "--json", "--config", cfg)
	if code != 0 {
		t.Fatalf("set failed with %d: %s", code, errOut)
	}
	if !strings.Contains(out, `"sLevel": "L2_DeviceUnlocked"`) {
		t.Errorf("Expected max level in result, got %s", out)
	}
}

func TestSet_UnavailableLevel(t *testing.T) {
	cfg := setupConfig(t, policy.Capabilities{})

	_, errOut, code := run(t, "pw", "set", "mail", "bob", "--level", "L4_Biometrics", "--config", cfg)
	if code != 5 {
		t.Errorf("Expected exit code 5, got %d", code)
	}
	if !strings.Contains(errOut, "credvault level") {
		t.Errorf("Expected hint to run level, got %q", errOut)
	}
}

func TestSet_InvalidInput(t *testing.T) {
	cfg := setupConfig(t, policy.Capabilities{})

	if _, _, code := run(t, "", "set", "mail", "bob", "--config", cfg); code != 2 {
		t.Errorf("Expected exit code 2 for empty secret, got %d", code)
	}
	if _, _, code := run(t, "pw", "set", "mail.metadata", "bob", "--config", cfg); code != 2 {
		t.Errorf("Expected exit code 2 for reserved service name, got %d", code)
	}
	if _, _, code := run(t, "pw", "set", "mail", "bob", "--level", "L9", "--config", cfg); code != 1 {
		t.Errorf("Expected flag parse failure for invalid level, got %d", code)
	}
}

func TestGet_JSONEnvelope(t *testing.T) {
	cfg := setupConfig(t, policy.Capabilities{})

	out, _, code := run(t, "", "get", "mail", "nobody", "--json", "--config", cfg)
	if code != 3 {
		t.Errorf("Expected exit code 3, got %d", code)
	}

	var env struct {
		Success bool `json:"success"`
		Error   struct {
			Code string `json:"code"`
		} `json:"error"`
	}
	if err := json.Unmarshal([]byte(out), &env); err != nil {
		t.Fatalf("Output is not JSON: %v\n%s", err, out)
	}
	if env.Success || env.Error.Code != "no data" {
		t.Errorf("Unexpected envelope %+v", env)
	}
}

func TestGet_PINRequiredWithoutEnrolment(t *testing.T) {
	cfg := setupConfig(t, policy.Capabilities{DeviceSecure: true, DeviceCredential: true})

	if _, errOut, code := run(t, "pw", "set", "mail", "bob", "--level", "L3", "--config", cfg); code != 0 {
		t.Fatalf("set failed with %d: %s", code, errOut)
	}

	_, errOut, code := run(t, "", "get", "mail", "bob", "--config", cfg)
	if code != 4 {
		t.Errorf("Expected exit code 4, got %d", code)
	}
	if !strings.Contains(errOut, "credvault pin set") {
		t.Errorf("Expected hint to enrol a PIN, got %q", errOut)
	}
}

func TestPinSet(t *testing.T) {
	cfg := setupConfig(t, policy.Capabilities{DeviceSecure: true, DeviceCredential: true})

	out, errOut, code := run(t, "1234\n", "pin", "set", "--config", cfg)
	if code != 0 {
		t.Fatalf("pin set failed with %d: %s", code, errOut)
	}
	if !strings.Contains(out, "Device PIN enrolled") {
		t.Errorf("Unexpected output %q", out)
	}

	device, err := configs.LoadDevice(configs.DevicePath(cfg))
	if err != nil {
		t.Fatalf("LoadDevice failed: %v", err)
	}
	if ok, _ := device.PIN.Verify([]byte("1234")); !ok {
		t.Error("Enrolled PIN does not verify")
	}
}

func TestLevelCommands(t *testing.T) {
	cfg := setupConfig(t, policy.Capabilities{DeviceSecure: true, DeviceCredential: true})

	out, _, code := run(t, "", "level", "--config", cfg)
	if code != 0 || !strings.Contains(out, "[L3_UserPresence]") {
		t.Errorf("Unexpected level output %q (%d)", out, code)
	}

	if _, _, code := run(t, "", "can-use", "PinUserPresence", "--config", cfg); code != 0 {
		t.Errorf("Expected L3 to be usable, got %d", code)
	}
	if _, _, code := run(t, "", "can-use", "L4", "--config", cfg); code != 5 {
		t.Errorf("Expected L4 to be unavailable, got %d", code)
	}

	out, _, code = run(t, "", "strategies", "--config", cfg)
	if code != 0 || !strings.Contains(out, "PinUserPresence") || strings.Contains(out, "StrongUserPresence") {
		t.Errorf("Unexpected strategies output %q (%d)", out, code)
	}

	out, _, code = run(t, "", "sensors", "--json", "--config", cfg)
	if code != 0 || !strings.Contains(out, `"fingerprint": false`) {
		t.Errorf("Unexpected sensors output %q (%d)", out, code)
	}
}

func TestLog(t *testing.T) {
	cfg := setupConfig(t, policy.Capabilities{})

	out, _, code := run(t, "", "log", "--config", cfg)
	if code != 0 || !strings.Contains(out, "No audit log found") {
		t.Errorf("Unexpected empty log output %q (%d)", out, code)
	}

	run(t, "pw", "set", "mail", "bob", "--config", cfg)
	run(t, "", "remove", "mail", "bob", "--config", cfg)

	out, _, code = run(t, "", "log", "--operation", "remove", "--config", cfg)
	if code != 0 {
		t.Fatalf("log failed with %d", code)
	}
	if !strings.Contains(out, "remove") || strings.Contains(out, "set ") {
		t.Errorf("Unexpected filtered log %q", out)
	}

	if _, _, code := run(t, "", "log", "--since", "last week", "--config", cfg); code == 0 {
		t.Error("Expected failure for malformed date")
	}
}

func TestConfigInitAndShow(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", dir)
	t.Setenv("XDG_DATA_HOME", dir)
	path := filepath.Join(dir, "custom.toml")

	out, errOut, code := run(t, "", "config", "init", "--store", "sqlite", "--config", path)
	if code != 0 {
		t.Fatalf("config init failed with %d: %s", code, errOut)
	}
	if !strings.Contains(out, "Wrote config") {
		t.Errorf("Unexpected output %q", out)
	}

	if _, _, code := run(t, "", "config", "init", "--config", path); code == 0 {
		t.Error("Expected config init to refuse overwriting")
	}

	out, _, code = run(t, "", "config", "show", "--config", path)
	if code != 0 || !strings.Contains(out, `store = "sqlite"`) {
		t.Errorf("Unexpected config show output %q (%d)", out, code)
	}
}

func TestMigrate(t *testing.T) {
	cfg := setupConfig(t, policy.Capabilities{})

	out, _, code := run(t, "", "migrate", "mail", "--config", cfg)
	if code != 0 || !strings.Contains(out, "Nothing to migrate") {
		t.Errorf("Unexpected migrate output %q (%d)", out, code)
	}
}
