package cmd

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/briandowns/spinner"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	kerrors "github.com/PolarWolf314/credvault/internal/errors"
	"github.com/PolarWolf314/credvault/internal/gate"
	"github.com/PolarWolf314/credvault/internal/policy"
	"github.com/PolarWolf314/credvault/internal/ui"
	"github.com/PolarWolf314/credvault/internal/vault"
)

// reportedError marks an error that has already been shown to the user.
type reportedError struct {
	err error
}

func (e reportedError) Error() string { return e.err.Error() }

func (e reportedError) Unwrap() error { return e.err }

func isReported(err error) bool {
	var r reportedError
	return errors.As(err, &r)
}

// ExitCode maps err to the process exit status.
func ExitCode(err error) int {
	switch {
	case err == nil:
		return 0
	case errors.Is(err, kerrors.ErrMissingParameters):
		return 2
	case errors.Is(err, kerrors.ErrNoData):
		return 3
	case errors.Is(err, kerrors.ErrFailedToAccess):
		return 4
	case errors.Is(err, kerrors.ErrUnavailable):
		return 5
	default:
		return 1
	}
}

// finish prints the outcome of a command. With --json it prints the result
// envelope, otherwise human prints the result or the error is formatted
// for the terminal. A non-nil err is returned marked as reported.
func finish(cmd *cobra.Command, result any, err error, human func(w io.Writer)) error {
	switch {
	case jsonOutput:
		data, mErr := json.MarshalIndent(vault.NewEnvelope(result, err), "", "  ")
		if mErr != nil {
			return fmt.Errorf("failed to marshal result: %w", mErr)
		}
		fmt.Fprintln(cmd.OutOrStdout(), string(data))
	case err != nil:
		fmt.Fprintln(cmd.ErrOrStderr(), formatError(err))
	case human != nil:
		human(cmd.OutOrStdout())
	}

	if err != nil {
		return reportedError{err}
	}
	return nil
}

// formatError formats a vault error for display to the user.
func formatError(err error) string {
	switch {
	case errors.Is(err, kerrors.ErrMissingParameters):
		return ui.Error.Sprint("✗") + " Missing input: " + err.Error()

	case errors.Is(err, kerrors.ErrNoData):
		return ui.Error.Sprint("✗") + " No such credential\n" +
			ui.Info.Sprint("→") + " Run " + ui.Code.Sprint("credvault list <service>") + " to see what is stored"

	case errors.Is(err, gate.ErrNoCredential):
		return ui.Error.Sprint("✗") + " No PIN is enrolled on this device\n" +
			ui.Info.Sprint("→") + " Run " + ui.Code.Sprint("credvault pin set") + " first"

	case errors.Is(err, gate.ErrNoAuthenticator):
		return ui.Error.Sprint("✗") + " This credential needs an authenticator this terminal cannot offer\n" +
			ui.Muted.Sprint(err.Error())

	case errors.Is(err, kerrors.ErrFailedToAccess):
		return ui.Error.Sprint("✗") + " Access was not granted\n" + ui.Muted.Sprint(err.Error())

	case errors.Is(err, kerrors.ErrUnavailable):
		return ui.Error.Sprint("✗") + " " + err.Error() + "\n" +
			ui.Info.Sprint("→") + " Run " + ui.Code.Sprint("credvault level") + " to see what this device supports"

	default:
		return ui.Error.Sprint("✗") + " Something went wrong: " + err.Error()
	}
}

// levelValue is a pflag.Value accepting any form policy.ParseLevel does.
type levelValue struct {
	level *policy.SecurityLevel
}

func (v levelValue) String() string {
	if v.level == nil || !v.level.Valid() {
		return ""
	}
	return v.level.String()
}

func (v levelValue) Set(s string) error {
	l, err := policy.ParseLevel(s)
	if err != nil {
		return err
	}
	*v.level = l
	return nil
}

func (v levelValue) Type() string {
	return "level"
}

// startSpinner starts a spinner on stderr unless output is verbose,
// machine-readable or not a terminal. The returned function stops it.
func startSpinner(cmd *cobra.Command, message string) func() {
	if verbose || debug || jsonOutput || !term.IsTerminal(int(os.Stderr.Fd())) {
		Logger.Debugf("Spinner disabled: %s", message)
		return func() {}
	}

	s := spinner.New(spinner.CharSets[14], 100*time.Millisecond, spinner.WithWriter(cmd.ErrOrStderr()))
	s.Suffix = " " + message
	if err := s.Color("cyan"); err != nil {
		// If we can't set spinner color, just continue without it.
		Logger.Warnf("Failed to set spinner color: %v", err)
	}
	s.Start()

	return s.Stop
}
