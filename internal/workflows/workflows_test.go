package workflows

import (
	"context"
	"io"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/PolarWolf314/credvault/internal/audit"
	"github.com/PolarWolf314/credvault/internal/configs"
	kerrors "github.com/PolarWolf314/credvault/internal/errors"
	"github.com/PolarWolf314/credvault/internal/gate"
	logger "github.com/PolarWolf314/credvault/internal/logging"
	"github.com/PolarWolf314/credvault/internal/policy"
)

// openRuntime writes a memory-backed config into a temp dir and opens it.
func openRuntime(t *testing.T, opts OpenOptions, edit func(*configs.Config)) *Runtime {
	t.Helper()
	dir := t.TempDir()
	settings := &configs.Settings{ConfigDir: dir, DataDir: filepath.Join(dir, "data")}

	cfg := configs.Default(settings)
	cfg.Vault.Store = "memory"
	cfg.Vault.Keystore = configs.KeystoreMemory
	cfg.Keys.Bits = 1024
	if edit != nil {
		edit(cfg)
	}
	require.NoError(t, configs.Save(settings.ConfigPath(), cfg))

	opts.Settings = settings
	opts.Logger = logger.Discard
	if opts.PromptOut == nil {
		opts.PromptOut = io.Discard
	}

	r, err := Open(opts)
	require.NoError(t, err)
	t.Cleanup(func() { r.Close() })
	return r
}

func TestRuntime_SetGetListRemove(t *testing.T) {
	r := openRuntime(t, OpenOptions{Gate: gate.Allow()}, nil)
	ctx := context.Background()

	require.NoError(t, r.Set(ctx, SetOptions{Service: "mail", Username: "alice", Secret: []byte("s3cret"), Level: policy.L1Encrypted}))
	require.NoError(t, r.Set(ctx, SetOptions{Service: "mail", Username: "bob", Secret: []byte("hunter2"), Level: policy.L3UserPresence}))

	secret, err := r.Get(ctx, GetOptions{Service: "mail", Username: "bob"})
	require.NoError(t, err)
	assert.Equal(t, "hunter2", string(secret))

	entries, err := r.List(ctx, "mail")
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, "alice", entries[0].Username)
	assert.Equal(t, policy.L1Encrypted, entries[0].Level)
	assert.Equal(t, policy.L3UserPresence, entries[1].Level)
	assert.False(t, entries[1].HardwareBacked)

	require.NoError(t, r.Remove(ctx, "mail", "alice"))
	_, err = r.Get(ctx, GetOptions{Service: "mail", Username: "alice"})
	assert.ErrorIs(t, err, kerrors.ErrNoData)
}

func TestRuntime_SetUnavailableLevel(t *testing.T) {
	r := openRuntime(t, OpenOptions{Gate: gate.Allow()}, nil)

	err := r.Set(context.Background(), SetOptions{Service: "mail", Username: "alice", Secret: []byte("x"), Level: policy.L4Biometrics})
	assert.ErrorIs(t, err, kerrors.ErrUnavailable)

	entries, err := r.Audit.ReadEntries()
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, OpSet, entries[0].Operation)
	assert.Equal(t, kerrors.CodeUnavailable, entries[0].Outcome)
	assert.Equal(t, "L4_Biometrics", entries[0].Level)
}

func TestRuntime_GetDeniedIsRecorded(t *testing.T) {
	r := openRuntime(t, OpenOptions{Gate: gate.NewScripted(gate.Deny)}, nil)
	ctx := context.Background()

	require.NoError(t, r.Set(ctx, SetOptions{Service: "mail", Username: "bob", Secret: []byte("pw"), Level: policy.L3UserPresence}))

	_, err := r.Get(ctx, GetOptions{Service: "mail", Username: "bob"})
	assert.ErrorIs(t, err, kerrors.ErrFailedToAccess)

	entries, err := r.Audit.ReadEntries()
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, OpGet, entries[1].Operation)
	assert.Equal(t, kerrors.CodeFailedToAccess, entries[1].Outcome)
}

func TestRuntime_GetCanceled(t *testing.T) {
	r := openRuntime(t, OpenOptions{Gate: gate.NewScripted(gate.Block)}, nil)
	ctx := context.Background()

	require.NoError(t, r.Set(ctx, SetOptions{Service: "mail", Username: "bob", Secret: []byte("pw"), Level: policy.L3UserPresence}))

	ctx, cancel := context.WithTimeout(ctx, 50*time.Millisecond)
	defer cancel()
	_, err := r.Get(ctx, GetOptions{Service: "mail", Username: "bob"})
	assert.ErrorIs(t, err, kerrors.ErrFailedToAccess)
}

func TestRuntime_TerminalPIN(t *testing.T) {
	pins := [][]byte{[]byte("0000"), []byte("2468")}
	read := func(string) ([]byte, error) {
		pin := pins[0]
		pins = pins[1:]
		return append([]byte(nil), pin...), nil
	}
	r := openRuntime(t, OpenOptions{ReadPIN: read}, nil)
	ctx := context.Background()

	require.NoError(t, r.Set(ctx, SetOptions{Service: "mail", Username: "bob", Secret: []byte("pw"), Level: policy.L3UserPresence}))

	_, err := r.Get(ctx, GetOptions{Service: "mail", Username: "bob"})
	assert.ErrorIs(t, err, kerrors.ErrFailedToAccess, "no PIN enrolled yet")

	require.NoError(t, r.SetPIN([]byte("2468")))

	var failed []int
	secret, err := r.Get(ctx, GetOptions{
		Service:         "mail",
		Username:        "bob",
		OnAttemptFailed: func(n int) { failed = append(failed, n) },
	})
	require.NoError(t, err)
	assert.Equal(t, "pw", string(secret))
	assert.Equal(t, []int{1}, failed)

	device, err := configs.LoadDevice(r.DevicePath)
	require.NoError(t, err)
	assert.True(t, device.PIN.Enrolled())
}

func TestRuntime_Purge(t *testing.T) {
	r := openRuntime(t, OpenOptions{Gate: gate.Allow()}, nil)
	ctx := context.Background()

	for _, name := range []string{"a", "b", "c"} {
		require.NoError(t, r.Set(ctx, SetOptions{Service: "mail", Username: name, Secret: []byte(name), Level: policy.L2DeviceUnlocked}))
	}
	require.NoError(t, r.Set(ctx, SetOptions{Service: "chat", Username: "a", Secret: []byte("keep"), Level: policy.L1Encrypted}))

	n, err := r.Purge(ctx, "mail")
	require.NoError(t, err)
	assert.Equal(t, 3, n)

	entries, err := r.List(ctx, "mail")
	require.NoError(t, err)
	assert.Empty(t, entries)

	secret, err := r.Get(ctx, GetOptions{Service: "chat", Username: "a"})
	require.NoError(t, err)
	assert.Equal(t, "keep", string(secret))
}

func TestRuntime_Levels(t *testing.T) {
	r := openRuntime(t, OpenOptions{Gate: gate.Allow()}, func(c *configs.Config) {
		c.Device.Capabilities = policy.Capabilities{DeviceSecure: true}
		c.Device.Sensors = policy.Sensors{Face: true}
	})

	result := r.Levels(context.Background())
	assert.Equal(t, policy.L2DeviceUnlocked, result.Max)
	require.Len(t, result.Levels, 4)
	assert.True(t, result.Levels[1].Usable)
	assert.False(t, result.Levels[2].Usable)
	assert.True(t, result.Sensors.Face)
	require.Len(t, result.Strategies, 1)
	assert.Equal(t, policy.Standard, result.Strategies[0].Name)
}

func TestRuntime_Migrate(t *testing.T) {
	r := openRuntime(t, OpenOptions{Gate: gate.Allow()}, nil)
	ctx := context.Background()

	require.NoError(t, r.kv.Put(ctx, "mail.metadata", "alice", []byte(`{"strategy":"Standard"}`)))
	n, err := r.Migrate(ctx, []string{"mail", "empty"})
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	meta, ok, err := r.metadata.Get(ctx, "mail", "alice")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, policy.L1Encrypted, meta.Level)
}

func TestRuntime_Log(t *testing.T) {
	r := openRuntime(t, OpenOptions{Gate: gate.Allow()}, nil)
	ctx := context.Background()

	_, err := r.Log(LogOptions{})
	assert.ErrorIs(t, err, kerrors.ErrNoAuditLog)

	require.NoError(t, r.Set(ctx, SetOptions{Service: "mail", Username: "alice", Secret: []byte("x"), Level: policy.L1Encrypted}))
	require.NoError(t, r.Set(ctx, SetOptions{Service: "chat", Username: "alice", Secret: []byte("y"), Level: policy.L1Encrypted}))
	_, err = r.Get(ctx, GetOptions{Service: "mail", Username: "alice"})
	require.NoError(t, err)

	result, err := r.Log(LogOptions{Service: "mail"})
	require.NoError(t, err)
	assert.Equal(t, 3, result.TotalEntriesBeforeFilter)
	require.Len(t, result.Entries, 2)
	assert.Equal(t, OpSet, result.Entries[0].Operation)

	result, err = r.Log(LogOptions{Operations: "GET"})
	require.NoError(t, err)
	require.Len(t, result.Entries, 1)

	_, err = r.Log(LogOptions{Since: "yesterday"})
	assert.ErrorIs(t, err, kerrors.ErrInvalidDateFormat)
}

func TestFilterEntries(t *testing.T) {
	entries := []audit.Entry{
		{Timestamp: "2026-01-01T10:00:00.000000Z", Operation: OpSet, Service: "mail"},
		{Timestamp: "2026-01-02T10:00:00.000000Z", Operation: OpGet, Service: "mail"},
		{Timestamp: "2026-01-03T10:00:00.000000Z", Operation: OpRemove, Service: "mail"},
		{Timestamp: "garbage", Operation: OpGet, Service: "mail"},
	}

	result, err := FilterEntries(entries, LogOptions{Since: "2026-01-02", Until: "2026-01-02"})
	require.NoError(t, err)
	require.Len(t, result.Entries, 1)
	assert.Equal(t, OpGet, result.Entries[0].Operation)

	result, err = FilterEntries(entries[:3], LogOptions{Reverse: true, Limit: 2})
	require.NoError(t, err)
	require.Len(t, result.Entries, 2)
	assert.Equal(t, OpRemove, result.Entries[0].Operation)
	assert.Equal(t, OpGet, result.Entries[1].Operation)

	result, err = FilterEntries(entries[:3], LogOptions{Limit: 1})
	require.NoError(t, err)
	require.Len(t, result.Entries, 1)
	assert.Equal(t, OpRemove, result.Entries[0].Operation)
}

func TestFormatDetails(t *testing.T) {
	assert.Equal(t, "mail/alice at L2_DeviceUnlocked",
		FormatDetails(audit.Entry{Operation: OpSet, Service: "mail", Username: "alice", Level: "L2_DeviceUnlocked"}))
	assert.Equal(t, "mail, removed 3", FormatDetails(audit.Entry{Operation: OpPurge, Service: "mail", Count: 3}))
	assert.Equal(t, "2026-01-02 10:00:00", FormatDateTime("2026-01-02T10:00:00.000000Z"))
}

func TestOpen_InvalidConfig(t *testing.T) {
	dir := t.TempDir()
	settings := &configs.Settings{ConfigDir: dir, DataDir: dir}
	cfg := configs.Default(settings)
	cfg.Vault.Store = "etcd"
	require.NoError(t, configs.SaveTOML(settings.ConfigPath(), cfg))

	_, err := Open(OpenOptions{Settings: settings, Logger: logger.Discard})
	assert.ErrorIs(t, err, kerrors.ErrUnsupportedBackend)
}
