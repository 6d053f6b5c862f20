package cmd

import (
	"fmt"
	"io"
	"strconv"

	"github.com/spf13/cobra"

	kerrors "github.com/PolarWolf314/credvault/internal/errors"
	"github.com/PolarWolf314/credvault/internal/ui"
	"github.com/PolarWolf314/credvault/internal/utils"
)

var listCmd = &cobra.Command{
	Use:   "list <service>",
	Short: "List the usernames stored for a service",
	Long: `Lists every username with a stored secret under a service, with the
level protecting it. Secrets are never printed.

Examples:
  credvault list mail
  credvault list mail --json`,
	Args: cobra.ExactArgs(1),
	RunE: runList,
}

func runList(cmd *cobra.Command, args []string) error {
	service := args[0]
	if err := utils.ValidateService(service); err != nil {
		return finish(cmd, nil, fmt.Errorf("%w: %v", kerrors.ErrMissingParameters, err), nil)
	}

	rt, err := openRuntime(cmd)
	if err != nil {
		return err
	}
	defer rt.Close()

	entries, err := rt.List(cmd.Context(), service)
	return finish(cmd, entries, err, func(w io.Writer) {
		if len(entries) == 0 {
			fmt.Fprintf(w, "No credentials stored for %s.\n", ui.Highlight.Sprint(service))
			return
		}

		rows := [][]string{{"USERNAME", "LEVEL", "HARDWARE"}}
		for _, e := range entries {
			level := e.Level.String()
			if e.Incomplete {
				level = ui.Warning.Sprint("incomplete")
			}
			rows = append(rows, []string{e.Username, level, strconv.FormatBool(e.HardwareBacked)})
		}
		ui.Table(w, rows)
	})
}
