package cmd

import (
	"bytes"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	kerrors "github.com/PolarWolf314/credvault/internal/errors"
	"github.com/PolarWolf314/credvault/internal/policy"
	"github.com/PolarWolf314/credvault/internal/secrets"
	"github.com/PolarWolf314/credvault/internal/ui"
	"github.com/PolarWolf314/credvault/internal/utils"
	"github.com/PolarWolf314/credvault/internal/workflows"
)

var setLevel policy.SecurityLevel

func init() {
	setCmd.Flags().VarP(levelValue{&setLevel}, "level", "l", "security level, e.g. L3 or L3_UserPresence (default: strongest the device supports)")
}

func resetSetCommandState() {
	setLevel = 0
}

var setCmd = &cobra.Command{
	Use:   "set <service> [username]",
	Short: "Store a secret",
	Long: `Stores a secret under a service and username, replacing any existing entry.

The secret is read from stdin when it is piped, otherwise you are prompted
for it. The username defaults to your OS username.

Examples:
  echo -n 'hunter2' | credvault set mail alice
  credvault set mail alice --level L3_UserPresence
  credvault set github --level PinUserPresence`,
	Args: cobra.RangeArgs(1, 2),
	RunE: runSet,
}

func runSet(cmd *cobra.Command, args []string) error {
	service, username, err := credentialArgs(args)
	if err != nil {
		return finish(cmd, nil, err, nil)
	}

	secret, err := readSecretInput(cmd, "secret")
	if err != nil {
		return finish(cmd, nil, err, nil)
	}
	defer secrets.Wipe(secret)

	rt, err := openRuntime(cmd)
	if err != nil {
		return err
	}
	defer rt.Close()

	ctx, cancel := signalContext(cmd)
	defer cancel()

	level := setLevel
	if !level.Valid() {
		level = rt.Vault.MaxSupportedLevel(ctx)
		Logger.Infof("No level given, using %s", level)
	}

	stop := startSpinner(cmd, "Generating key...")
	err = rt.Set(ctx, workflows.SetOptions{
		Service:  service,
		Username: username,
		Secret:   secret,
		Level:    level,
	})
	stop()

	result := map[string]string{"service": service, "username": username, "sLevel": level.String()}
	return finish(cmd, result, err, func(w io.Writer) {
		fmt.Fprintf(w, "%s Stored %s for %s at %s\n",
			ui.Success.Sprint("✓"), ui.Highlight.Sprint(username), ui.Highlight.Sprint(service), ui.Level.Sprint(level))
	})
}

// credentialArgs resolves <service> [username], defaulting the username to
// the OS user.
func credentialArgs(args []string) (string, string, error) {
	service := args[0]
	if err := utils.ValidateService(service); err != nil {
		return "", "", fmt.Errorf("%w: %v", kerrors.ErrMissingParameters, err)
	}

	var username string
	if len(args) > 1 {
		username = args[1]
	} else {
		name, err := utils.GetUsername()
		if err != nil {
			return "", "", fmt.Errorf("%w: username not given and OS user unknown: %v", kerrors.ErrMissingParameters, err)
		}
		username = name
	}
	if err := utils.ValidateUsername(username); err != nil {
		return "", "", fmt.Errorf("%w: %v", kerrors.ErrMissingParameters, err)
	}
	return service, username, nil
}

// readSecretInput reads a secret from piped input, or prompts for it twice
// on the terminal.
func readSecretInput(cmd *cobra.Command, what string) ([]byte, error) {
	in := cmd.InOrStdin()
	if in != os.Stdin || !utils.IsTerminal() {
		return readSecret(in)
	}

	first, err := utils.ReadHiddenFromTTY("Enter " + what + ": ")
	if err != nil {
		return nil, err
	}
	second, err := utils.ReadHiddenFromTTY("Repeat " + what + ": ")
	if err != nil {
		secrets.Wipe(first)
		return nil, err
	}
	defer secrets.Wipe(second)

	if !bytes.Equal(first, second) {
		secrets.Wipe(first)
		return nil, fmt.Errorf("%w: %s entries do not match", kerrors.ErrMissingParameters, what)
	}
	if len(first) == 0 {
		return nil, fmt.Errorf("%w: %s is empty", kerrors.ErrMissingParameters, what)
	}
	return first, nil
}

func readSecret(r io.Reader) ([]byte, error) {
	secret, err := utils.ReadSecret(r)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", kerrors.ErrMissingParameters, err)
	}
	return secret, nil
}
