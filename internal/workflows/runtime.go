package workflows

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/PolarWolf314/credvault/internal/audit"
	"github.com/PolarWolf314/credvault/internal/configs"
	"github.com/PolarWolf314/credvault/internal/gate"
	"github.com/PolarWolf314/credvault/internal/keystore"
	logger "github.com/PolarWolf314/credvault/internal/logging"
	"github.com/PolarWolf314/credvault/internal/store"
	"github.com/PolarWolf314/credvault/internal/utils"
	"github.com/PolarWolf314/credvault/internal/vault"
)

const auditFile = "audit.jsonl"

// OpenOptions configures Open.
type OpenOptions struct {
	// ConfigPath defaults to the config file under the XDG config directory.
	ConfigPath string

	// Settings defaults to configs.DefaultSettings.
	Settings *configs.Settings

	Logger logger.Logger

	// ReadPIN defaults to reading from the terminal without echo.
	ReadPIN gate.PINReader

	// PromptOut receives gate prompts. Defaults to os.Stderr.
	PromptOut io.Writer

	// Gate replaces the terminal gate.
	Gate gate.Gate
}

// Runtime is an opened vault with everything the commands need around it.
type Runtime struct {
	Config     *configs.Config
	ConfigPath string
	DevicePath string
	Vault      *vault.Vault
	Audit      *audit.Log

	kv       store.KV
	metadata *store.MetadataStore
	terminal *gate.TerminalGate
	log      logger.Logger
}

// Open loads the configuration and wires the store, keystore, gate and
// vault it describes. Callers must Close the runtime.
func Open(opts OpenOptions) (*Runtime, error) {
	log := opts.Logger

	settings := opts.Settings
	if settings == nil {
		var err error
		settings, err = configs.DefaultSettings()
		if err != nil {
			return nil, err
		}
	}

	configPath := opts.ConfigPath
	if configPath == "" {
		configPath = settings.ConfigPath()
	}
	log.Debugf("Loading config from %s", configPath)

	cfg, err := configs.Load(configPath, settings)
	if err != nil {
		return nil, err
	}

	devicePath := configs.DevicePath(configPath)
	device, err := configs.LoadDevice(devicePath)
	if err != nil {
		return nil, err
	}

	dataDir := cfg.Vault.DataDir
	if dataDir != "" {
		if err := os.MkdirAll(dataDir, 0700); err != nil {
			return nil, fmt.Errorf("failed to create data directory: %w", err)
		}
	}

	kv, err := store.Open(cfg.Vault.Store, dataDir)
	if err != nil {
		return nil, err
	}
	log.Debugf("Opened %s store", cfg.Vault.Store)

	keys, err := openKeystore(cfg, log)
	if err != nil {
		kv.Close()
		return nil, err
	}

	r := &Runtime{
		Config:     cfg,
		ConfigPath: configPath,
		DevicePath: devicePath,
		kv:         kv,
		metadata:   store.NewMetadataStore(kv),
		log:        log,
	}

	g := opts.Gate
	if g == nil {
		r.terminal = &gate.TerminalGate{
			Credential:  device.PIN,
			ReadPIN:     opts.ReadPIN,
			MaxAttempts: cfg.Prompt.MaxAttempts,
			Out:         opts.PromptOut,
			Logger:      log,
		}
		if r.terminal.ReadPIN == nil {
			r.terminal.ReadPIN = utils.ReadHiddenFromTTY
		}
		if r.terminal.Out == nil {
			r.terminal.Out = os.Stderr
		}
		g = r.terminal
	}

	keyPolicy := cfg.Policy()
	r.Vault, err = vault.New(vault.Config{
		AppID:    cfg.Vault.AppID,
		Keys:     keys,
		Metadata: r.metadata,
		Blobs:    store.NewBlobStore(kv),
		Device:   cfg.StaticDevice(),
		Gate:     g,
		Policy:   &keyPolicy,
		Logger:   log,
	})
	if err != nil {
		kv.Close()
		return nil, err
	}

	auditPath := ""
	if dataDir != "" {
		auditPath = filepath.Join(dataDir, auditFile)
	}
	r.Audit = audit.New(auditPath, log)

	return r, nil
}

func openKeystore(cfg *configs.Config, log logger.Logger) (keystore.Provider, error) {
	switch cfg.Vault.Keystore {
	case configs.KeystoreMemory:
		return keystore.NewMemoryProvider(log), nil
	case configs.KeystoreFile:
		return keystore.NewFileProvider(filepath.Join(cfg.Vault.DataDir, "keys"), log)
	default:
		return nil, fmt.Errorf("unknown keystore %q", cfg.Vault.Keystore)
	}
}

// Close releases the store.
func (r *Runtime) Close() error {
	return r.kv.Close()
}
