package cmd

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/PolarWolf314/credvault/internal/secrets"
	"github.com/PolarWolf314/credvault/internal/ui"
)

var pinCmd = &cobra.Command{
	Use:   "pin",
	Short: "Manage the device PIN",
	Long: `The device PIN answers user-presence checks for L3 entries on this
terminal. It is stored as an argon2id hash in device.toml next to the config.`,
}

var pinSetCmd = &cobra.Command{
	Use:   "set",
	Short: "Enrol or replace the device PIN",
	Long: `Enrols a new device PIN, replacing any previous one. The PIN is read
from stdin when it is piped, otherwise you are prompted for it twice.

Existing L3 entries stay readable with the new PIN.`,
	Args: cobra.NoArgs,
	RunE: runPinSet,
}

func init() {
	pinCmd.AddCommand(pinSetCmd)
}

func runPinSet(cmd *cobra.Command, args []string) error {
	pin, err := readSecretInput(cmd, "PIN")
	if err != nil {
		return finish(cmd, nil, err, nil)
	}
	defer secrets.Wipe(pin)

	rt, err := openRuntime(cmd)
	if err != nil {
		return err
	}
	defer rt.Close()

	err = rt.SetPIN(pin)
	return finish(cmd, map[string]string{"path": rt.DevicePath}, err, func(w io.Writer) {
		fmt.Fprintf(w, "%s Device PIN enrolled in %s\n", ui.Success.Sprint("✓"), ui.Path.Sprint(rt.DevicePath))
	})
}
