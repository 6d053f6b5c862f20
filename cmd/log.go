package cmd

import (
	"errors"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/PolarWolf314/credvault/internal/audit"
	kerrors "github.com/PolarWolf314/credvault/internal/errors"
	"github.com/PolarWolf314/credvault/internal/ui"
	"github.com/PolarWolf314/credvault/internal/workflows"
)

var (
	logLimit     int
	logReverse   bool
	logService   string
	logOperation string
	logSince     string
	logUntil     string
)

func init() {
	logCmd.Flags().IntVarP(&logLimit, "number", "n", 0, "limit number of entries shown")
	logCmd.Flags().BoolVar(&logReverse, "reverse", false, "show most recent entries first")
	logCmd.Flags().StringVar(&logService, "service", "", "filter by service")
	logCmd.Flags().StringVar(&logOperation, "operation", "", "filter by operation type (comma-separated)")
	logCmd.Flags().StringVar(&logSince, "since", "", "show entries after date (YYYY-MM-DD)")
	logCmd.Flags().StringVar(&logUntil, "until", "", "show entries before date (YYYY-MM-DD)")
}

// resetLogCommandState resets the log command's global state for testing.
func resetLogCommandState() {
	logLimit = 0
	logReverse = false
	logService = ""
	logOperation = ""
	logSince = ""
	logUntil = ""
}

var logCmd = &cobra.Command{
	Use:   "log",
	Short: "View the audit log",
	Long: `Displays the audit log of vault operations.

Shows what was done to which credential, when, and whether it succeeded.
Secrets are never logged.

Examples:
  credvault log                          # View full log
  credvault log -n 10                    # Last 10 entries
  credvault log --reverse                # Most recent first
  credvault log --service mail           # Filter by service
  credvault log --operation get,remove   # Filter by operation
  credvault log --since 2026-01-01       # Filter by date
  credvault log --json                   # JSON output`,
	Args: cobra.NoArgs,
	RunE: runLog,
}

func runLog(cmd *cobra.Command, args []string) error {
	Logger.Infof("Starting log command")

	rt, err := openRuntime(cmd)
	if err != nil {
		return err
	}
	defer rt.Close()

	result, err := rt.Log(workflows.LogOptions{
		Limit:      logLimit,
		Reverse:    logReverse,
		Service:    logService,
		Operations: logOperation,
		Since:      logSince,
		Until:      logUntil,
	})
	if errors.Is(err, kerrors.ErrNoAuditLog) {
		return finish(cmd, []audit.Entry{}, nil, func(w io.Writer) {
			fmt.Fprintln(w, ui.Info.Sprint("ℹ")+" No audit log found. Operations are logged as you use the vault.")
		})
	}
	if err != nil {
		fmt.Fprintln(cmd.ErrOrStderr(), ui.Error.Sprint("✗")+" "+err.Error())
		return reportedError{err}
	}

	Logger.Debugf("Parsed %d entries from audit log", result.TotalEntriesBeforeFilter)
	Logger.Debugf("After filtering: %d entries", len(result.Entries))

	entries := result.Entries
	if entries == nil {
		entries = []audit.Entry{}
	}
	return finish(cmd, entries, nil, func(w io.Writer) {
		if len(entries) == 0 {
			fmt.Fprintln(w, "No audit log entries found matching the filters.")
			return
		}
		for _, e := range entries {
			outcome := ui.Success.Sprint(e.Outcome)
			if e.Outcome != audit.OutcomeOK {
				outcome = ui.Error.Sprint(e.Outcome)
			}
			fmt.Fprintf(w, "%-19s  %-8s  %-18s  %s\n",
				workflows.FormatDateTime(e.Timestamp), e.Operation, outcome, workflows.FormatDetails(e))
		}
	})
}
