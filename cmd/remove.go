package cmd

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/PolarWolf314/credvault/internal/ui"
)

var removeCmd = &cobra.Command{
	Use:     "remove <service> [username]",
	Aliases: []string{"rm"},
	Short:   "Remove a stored secret and its key",
	Long: `Removes a credential's key, metadata and ciphertext. Removing a
credential that does not exist succeeds.

Examples:
  credvault remove mail alice`,
	Args: cobra.RangeArgs(1, 2),
	RunE: runRemove,
}

func runRemove(cmd *cobra.Command, args []string) error {
	service, username, err := credentialArgs(args)
	if err != nil {
		return finish(cmd, nil, err, nil)
	}

	rt, err := openRuntime(cmd)
	if err != nil {
		return err
	}
	defer rt.Close()

	err = rt.Remove(cmd.Context(), service, username)
	result := map[string]string{"service": service, "username": username}
	return finish(cmd, result, err, func(w io.Writer) {
		fmt.Fprintf(w, "%s Removed %s from %s\n", ui.Success.Sprint("✓"), ui.Highlight.Sprint(username), ui.Highlight.Sprint(service))
	})
}
