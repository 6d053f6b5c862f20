package cmd

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/PolarWolf314/credvault/internal/configs"
	kerrors "github.com/PolarWolf314/credvault/internal/errors"
	"github.com/PolarWolf314/credvault/internal/ui"
)

var (
	configForce    bool
	configStore    string
	configKeystore string
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage credvault configuration",
	Long: `Provides commands for creating and inspecting the config file.

The config file chooses the storage backend, the keystore, key parameters,
the device's capabilities and the text of PIN prompts.

Examples:
  credvault config init
  credvault config init --store sqlite
  credvault config show`,
}

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Write a default config file",
	Args:  cobra.NoArgs,
	RunE:  runConfigInit,
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Print the effective configuration",
	Args:  cobra.NoArgs,
	RunE:  runConfigShow,
}

func init() {
	configInitCmd.Flags().BoolVarP(&configForce, "force", "f", false, "overwrite an existing config file")
	configInitCmd.Flags().StringVar(&configStore, "store", "bolt", "storage backend: bolt, sqlite or memory")
	configInitCmd.Flags().StringVar(&configKeystore, "keystore", configs.KeystoreFile, "keystore: file or memory")

	configCmd.AddCommand(configInitCmd)
	configCmd.AddCommand(configShowCmd)
}

func resetConfigCommandState() {
	configForce = false
	configStore = "bolt"
	configKeystore = configs.KeystoreFile
}

// resolveConfigPath returns --config or the default location.
func resolveConfigPath() (string, *configs.Settings, error) {
	settings, err := configs.DefaultSettings()
	if err != nil {
		return "", nil, err
	}
	if configPath != "" {
		return configPath, settings, nil
	}
	return settings.ConfigPath(), settings, nil
}

func runConfigInit(cmd *cobra.Command, args []string) error {
	path, settings, err := resolveConfigPath()
	if err != nil {
		return err
	}

	if _, err := os.Stat(path); err == nil && !configForce {
		err := fmt.Errorf("%w: %s already exists", kerrors.ErrInvalidConfig, path)
		fmt.Fprintln(cmd.ErrOrStderr(), ui.Error.Sprint("✗")+" Config file "+ui.Path.Sprint(path)+" already exists\n"+
			ui.Info.Sprint("→")+" Use "+ui.Flag.Sprint("--force")+" to overwrite it")
		return reportedError{err}
	} else if err != nil && !errors.Is(err, os.ErrNotExist) {
		return err
	}

	cfg := configs.Default(settings)
	cfg.Vault.Store = configStore
	cfg.Vault.Keystore = configKeystore
	if err := cfg.Validate(); err != nil {
		return err
	}
	if err := configs.Save(path, cfg); err != nil {
		return err
	}
	Logger.Infof("Wrote config to %s", path)

	return finish(cmd, map[string]string{"path": path}, nil, func(w io.Writer) {
		fmt.Fprintf(w, "%s Wrote config to %s\n", ui.Success.Sprint("✓"), ui.Path.Sprint(path))
		fmt.Fprintf(w, "%s Run %s to enrol a PIN for L3 entries\n", ui.Info.Sprint("→"), ui.Code.Sprint("credvault pin set"))
	})
}

func runConfigShow(cmd *cobra.Command, args []string) error {
	path, settings, err := resolveConfigPath()
	if err != nil {
		return err
	}

	cfg, err := configs.Load(path, settings)
	if err != nil {
		return err
	}

	if jsonOutput {
		return finish(cmd, map[string]any{"path": path, "config": cfg}, nil, nil)
	}
	fmt.Fprintln(cmd.ErrOrStderr(), ui.Muted.Sprint(path))
	return cfg.WriteTOML(cmd.OutOrStdout())
}
