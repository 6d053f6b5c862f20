package cmd

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	kerrors "github.com/PolarWolf314/credvault/internal/errors"
	"github.com/PolarWolf314/credvault/internal/ui"
	"github.com/PolarWolf314/credvault/internal/utils"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate <service>...",
	Short: "Rewrite strategy metadata as security levels",
	Long: `Older entries record a named strategy such as PinUserPresence instead of
a security level. They are still readable, and migrate rewrites them in
place so every record names its level. Running it again is harmless.

Examples:
  credvault migrate mail github`,
	Args: cobra.MinimumNArgs(1),
	RunE: runMigrate,
}

func runMigrate(cmd *cobra.Command, args []string) error {
	for _, service := range args {
		if err := utils.ValidateService(service); err != nil {
			return finish(cmd, nil, fmt.Errorf("%w: %v", kerrors.ErrMissingParameters, err), nil)
		}
	}

	rt, err := openRuntime(cmd)
	if err != nil {
		return err
	}
	defer rt.Close()

	n, err := rt.Migrate(cmd.Context(), args)
	return finish(cmd, map[string]int{"migrated": n}, err, func(w io.Writer) {
		if n == 0 {
			fmt.Fprintln(w, ui.Info.Sprint("ℹ")+" Nothing to migrate.")
			return
		}
		fmt.Fprintf(w, "%s Migrated %d records%s", ui.Success.Sprint("✓"), n, utils.FormatList(args))
	})
}
