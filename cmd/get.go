package cmd

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/PolarWolf314/credvault/internal/secrets"
	"github.com/PolarWolf314/credvault/internal/ui"
	"github.com/PolarWolf314/credvault/internal/workflows"
)

var getNoNewline bool

func init() {
	getCmd.Flags().BoolVarP(&getNoNewline, "no-newline", "n", false, "do not print a trailing newline after the secret")
}

var getCmd = &cobra.Command{
	Use:   "get <service> [username]",
	Short: "Print a stored secret",
	Long: `Decrypts a secret and prints it to stdout.

L3 and L4 entries ask for user presence first. On a terminal that is your
PIN; press Enter on an empty line or Ctrl-C to cancel.

Examples:
  credvault get mail alice
  credvault get mail alice -n | pbcopy
  credvault get mail alice --json`,
	Args: cobra.RangeArgs(1, 2),
	RunE: runGet,
}

func runGet(cmd *cobra.Command, args []string) error {
	service, username, err := credentialArgs(args)
	if err != nil {
		return finish(cmd, nil, err, nil)
	}

	rt, err := openRuntime(cmd)
	if err != nil {
		return err
	}
	defer rt.Close()

	ctx, cancel := signalContext(cmd)
	defer cancel()

	secret, err := rt.Get(ctx, workflows.GetOptions{
		Service:  service,
		Username: username,
		OnAttemptFailed: func(attempt int) {
			Logger.Infof("Attempt %d rejected", attempt)
		},
	})
	defer secrets.Wipe(secret)

	var result any
	if err == nil {
		result = string(secret)
	}
	return finish(cmd, result, err, func(w io.Writer) {
		w.Write(secret)
		if !getNoNewline {
			fmt.Fprintln(w)
		}
		Logger.Debugf("Printed secret for %s", ui.Highlight.Sprint(service+"/"+username))
	})
}
