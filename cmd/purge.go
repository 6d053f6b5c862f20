package cmd

import (
	"bufio"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	kerrors "github.com/PolarWolf314/credvault/internal/errors"
	"github.com/PolarWolf314/credvault/internal/ui"
	"github.com/PolarWolf314/credvault/internal/utils"
)

var purgeForce bool

func init() {
	purgeCmd.Flags().BoolVarP(&purgeForce, "force", "f", false, "do not ask for confirmation")
}

func resetPurgeCommandState() {
	purgeForce = false
}

var purgeCmd = &cobra.Command{
	Use:   "purge <service>",
	Short: "Remove every secret stored for a service",
	Long: `Removes every credential of a service, including keys of entries that
were only partly written, then clears the service's storage.

Examples:
  credvault purge mail
  credvault purge mail --force`,
	Args: cobra.ExactArgs(1),
	RunE: runPurge,
}

func runPurge(cmd *cobra.Command, args []string) error {
	service := args[0]
	if err := utils.ValidateService(service); err != nil {
		return finish(cmd, nil, fmt.Errorf("%w: %v", kerrors.ErrMissingParameters, err), nil)
	}

	if !purgeForce && !jsonOutput {
		fmt.Fprintf(cmd.ErrOrStderr(), "%s This removes every credential stored for %s. Continue? [y/N] ",
			ui.Warning.Sprint("⚠"), ui.Highlight.Sprint(service))
		answer, _ := bufio.NewReader(cmd.InOrStdin()).ReadString('\n')
		if a := strings.ToLower(strings.TrimSpace(answer)); a != "y" && a != "yes" {
			fmt.Fprintln(cmd.OutOrStdout(), "Aborted.")
			return nil
		}
	}

	rt, err := openRuntime(cmd)
	if err != nil {
		return err
	}
	defer rt.Close()

	stop := startSpinner(cmd, "Removing credentials...")
	n, err := rt.Purge(cmd.Context(), service)
	stop()

	result := map[string]any{"service": service, "removed": n}
	return finish(cmd, result, err, func(w io.Writer) {
		fmt.Fprintf(w, "%s Removed %d credentials from %s\n", ui.Success.Sprint("✓"), n, ui.Highlight.Sprint(service))
	})
}
