package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/common-nighthawk/go-figure"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	logger "github.com/PolarWolf314/credvault/internal/logging"
	"github.com/PolarWolf314/credvault/internal/ui"
	"github.com/PolarWolf314/credvault/internal/workflows"
)

var (
	configPath string
	verbose    bool
	debug      bool
	jsonOutput bool
	Logger     logger.Logger

	// RootCmd is the credvault command.
	RootCmd = &cobra.Command{
		Use:   "credvault",
		Short: "Store secrets on this device, each under its own key",
		Long: `credvault keeps passwords and tokens encrypted on this device. Every
entry gets its own RSA key, and its security level decides what it takes
to read it back:

  L1_Encrypted       encrypted at rest
  L2_DeviceUnlocked  requires a secured device
  L3_UserPresence    requires your PIN on every read
  L4_Biometrics      requires a strong biometric on every read

Examples:
  echo -n 'hunter2' | credvault set mail alice --level L3
  credvault get mail alice
  credvault list mail
  credvault level`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			Logger = logger.Logger{
				Verbose: verbose,
				Debug:   debug,
			}
			Logger.Debugf("Initializing %s with verbose=%t, debug=%t", cmd.Name(), verbose, debug)
		},
		Run: func(cmd *cobra.Command, args []string) {
			banner := figure.NewColorFigure("credvault", "small", "cyan", true)
			if ui.NoColor() {
				banner = figure.NewFigure("credvault", "small", true)
			}
			fmt.Fprintln(cmd.OutOrStdout(), banner.String())
			fmt.Fprintln(cmd.OutOrStdout(), "Run "+ui.Code.Sprint("credvault --help")+" to see available commands.")
		},
	}
)

func init() {
	RootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "config file (default $XDG_CONFIG_HOME/credvault/config.toml)")
	RootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable verbose output")
	RootCmd.PersistentFlags().BoolVarP(&debug, "debug", "d", false, "enable debug output")
	RootCmd.PersistentFlags().BoolVar(&jsonOutput, "json", false, "print results as a JSON envelope")

	RootCmd.AddCommand(setCmd)
	RootCmd.AddCommand(getCmd)
	RootCmd.AddCommand(listCmd)
	RootCmd.AddCommand(removeCmd)
	RootCmd.AddCommand(purgeCmd)
	RootCmd.AddCommand(levelCmd)
	RootCmd.AddCommand(canUseCmd)
	RootCmd.AddCommand(strategiesCmd)
	RootCmd.AddCommand(sensorsCmd)
	RootCmd.AddCommand(pinCmd)
	RootCmd.AddCommand(logCmd)
	RootCmd.AddCommand(configCmd)
	RootCmd.AddCommand(migrateCmd)
}

// Execute runs the root command and returns the process exit code.
func Execute() int {
	err := RootCmd.Execute()
	if err == nil {
		return 0
	}
	if !isReported(err) {
		fmt.Fprintln(os.Stderr, ui.Error.Sprint("✗")+" "+err.Error())
	}
	return ExitCode(err)
}

// ResetGlobalState resets flags between test runs.
func ResetGlobalState() {
	configPath = ""
	verbose = false
	debug = false
	jsonOutput = false
	resetSetCommandState()
	resetLogCommandState()
	resetPurgeCommandState()
	resetConfigCommandState()
	getNoNewline = false

	resetFlags(RootCmd)
}

func resetFlags(c *cobra.Command) {
	c.Flags().VisitAll(func(flag *pflag.Flag) {
		flag.Changed = false
	})
	for _, sub := range c.Commands() {
		resetFlags(sub)
	}
}

// signalContext is canceled on interrupt so a pending PIN prompt is
// abandoned cleanly.
func signalContext(cmd *cobra.Command) (context.Context, context.CancelFunc) {
	return signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
}

// openRuntime opens the vault described by the --config file.
func openRuntime(cmd *cobra.Command) (*workflows.Runtime, error) {
	return workflows.Open(workflows.OpenOptions{
		ConfigPath: configPath,
		Logger:     Logger,
		PromptOut:  cmd.ErrOrStderr(),
	})
}
