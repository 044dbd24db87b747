package session

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/Iron-Ham/askuser/internal/cmd/env"
)

var sweepCmd = &cobra.Command{
	Use:   "sweep",
	Short: "Delete sessions past their retention period",
	Long: `Sweep deletes session records that have been idle for longer than
session.retention_ms and removes lock files left behind by crashed processes.

Sweeps also run on their own during normal use, at most once every
session.sweep_interval_ms. Use --loop to keep sweeping at that interval until
interrupted.`,
	Args: cobra.NoArgs,
	RunE: runSweep,
}

var sweepLoop bool

func init() {
	sweepCmd.Flags().BoolVar(&sweepLoop, "loop", false, "keep sweeping every session.sweep_interval_ms until interrupted")
}

func runSweep(cmd *cobra.Command, args []string) error {
	return withEnv(func(e *env.Env) error {
		if err := sweepOnce(cmd.Context(), cmd.OutOrStdout(), e); err != nil {
			return err
		}
		if !sweepLoop {
			return nil
		}
		if e.Config.Session.SweepIntervalMs <= 0 {
			return fmt.Errorf("--loop needs a positive session.sweep_interval_ms")
		}

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()
		fmt.Fprintf(cmd.OutOrStdout(), "Sweeping every %s (Ctrl+C to stop)\n", e.Config.Session.SweepInterval())
		return e.Manager.Run(ctx)
	})
}

func sweepOnce(ctx context.Context, w io.Writer, e *env.Env) error {
	cleaned, err := e.Store.CleanupStaleLocks(ctx)
	if err != nil {
		fmt.Fprintf(w, "Warning: failed to clean stale locks: %v\n", err)
	} else if len(cleaned) > 0 {
		fmt.Fprintf(w, "Cleaned %d stale lock(s)\n", len(cleaned))
		for _, id := range cleaned {
			fmt.Fprintf(w, "  - Session %s\n", id)
		}
	}

	deleted, err := e.Manager.SweepExpired(ctx)
	for _, id := range deleted {
		fmt.Fprintf(w, "Removed session: %s\n", id)
	}
	if err != nil {
		return fmt.Errorf("sweep incomplete: %w", err)
	}
	if len(deleted) == 0 {
		fmt.Fprintln(w, "No sessions past retention.")
	}
	return nil
}
