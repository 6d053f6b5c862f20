package cmd

import (
	"fmt"
	"io"
	"strconv"

	"github.com/spf13/cobra"

	kerrors "github.com/PolarWolf314/credvault/internal/errors"
	"github.com/PolarWolf314/credvault/internal/policy"
	"github.com/PolarWolf314/credvault/internal/ui"
)

var levelCmd = &cobra.Command{
	Use:   "level",
	Short: "Show the security levels this device supports",
	Long: `Shows the highest security level this device can satisfy and whether
each level can be used. Capabilities come from the [device] section of the
config file and are read again on every command.`,
	Args: cobra.NoArgs,
	RunE: runLevel,
}

var canUseCmd = &cobra.Command{
	Use:   "can-use <level>",
	Short: "Check whether a security level can be used",
	Long: `Exits 0 when the level can be used on this device and 5 when it cannot.

Examples:
  credvault can-use L4_Biometrics
  credvault can-use PinUserPresence`,
	Args: cobra.ExactArgs(1),
	RunE: runCanUse,
}

var strategiesCmd = &cobra.Command{
	Use:   "strategies",
	Short: "List the named strategies this device supports",
	Args:  cobra.NoArgs,
	RunE:  runStrategies,
}

var sensorsCmd = &cobra.Command{
	Use:   "sensors",
	Short: "List the biometric sensors this device advertises",
	Args:  cobra.NoArgs,
	RunE:  runSensors,
}

func runLevel(cmd *cobra.Command, args []string) error {
	rt, err := openRuntime(cmd)
	if err != nil {
		return err
	}
	defer rt.Close()

	result := rt.Levels(cmd.Context())
	return finish(cmd, result, nil, func(w io.Writer) {
		fmt.Fprintf(w, "Maximum supported level: %s\n\n", ui.Level.Sprint(result.Max))
		rows := [][]string{{"LEVEL", "USABLE"}}
		for _, l := range result.Levels {
			rows = append(rows, []string{l.Level.String(), strconv.FormatBool(l.Usable)})
		}
		ui.Table(w, rows)
	})
}

func runCanUse(cmd *cobra.Command, args []string) error {
	level, err := policy.ParseLevel(args[0])
	if err != nil {
		return finish(cmd, nil, fmt.Errorf("%w: %v", kerrors.ErrMissingParameters, err), nil)
	}

	rt, err := openRuntime(cmd)
	if err != nil {
		return err
	}
	defer rt.Close()

	usable := rt.Vault.CanUseLevel(cmd.Context(), level)
	if err := finish(cmd, usable, nil, func(w io.Writer) {
		if usable {
			fmt.Fprintf(w, "%s %s can be used on this device\n", ui.Success.Sprint("✓"), ui.Level.Sprint(level))
		} else {
			fmt.Fprintf(w, "%s %s cannot be used on this device\n", ui.Error.Sprint("✗"), ui.Level.Sprint(level))
		}
	}); err != nil {
		return err
	}
	if !usable {
		return reportedError{fmt.Errorf("%w: %s", kerrors.ErrUnavailable, level)}
	}
	return nil
}

func runStrategies(cmd *cobra.Command, args []string) error {
	rt, err := openRuntime(cmd)
	if err != nil {
		return err
	}
	defer rt.Close()

	strategies := rt.Vault.AvailableStrategies(cmd.Context())
	return finish(cmd, strategies, nil, func(w io.Writer) {
		rows := [][]string{{"STRATEGY", "LEVEL", "BIOMETRICS"}}
		for _, s := range strategies {
			rows = append(rows, []string{string(s.Name), s.Level.String(), strconv.FormatBool(s.Biometrics)})
		}
		ui.Table(w, rows)
	})
}

func runSensors(cmd *cobra.Command, args []string) error {
	rt, err := openRuntime(cmd)
	if err != nil {
		return err
	}
	defer rt.Close()

	sensors := rt.Vault.SupportedBiometricSensors(cmd.Context())
	return finish(cmd, sensors, nil, func(w io.Writer) {
		rows := [][]string{
			{"SENSOR", "AVAILABLE"},
			{"face", strconv.FormatBool(sensors.Face)},
			{"fingerprint", strconv.FormatBool(sensors.Fingerprint)},
			{"iris", strconv.FormatBool(sensors.Iris)},
		}
		ui.Table(w, rows)
	})
}
