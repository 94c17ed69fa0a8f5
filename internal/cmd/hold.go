package cmd

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/Iron-Ham/camlock/internal/cleanup"
	"github.com/Iron-Ham/camlock/internal/errors"
)

var holdCmd = &cobra.Command{
	Use:   "hold <device>",
	Short: "Hold a device lock until interrupted",
	Long: `Hold acquires the lock for a device and keeps its heartbeat fresh until
the process receives SIGINT or SIGTERM, then releases it.

Fails at once when another process holds a live lock on the device.
Use --for to release automatically after a fixed duration.`,
	Args: cobra.ExactArgs(1),
	RunE: runHold,
}

var holdFor time.Duration

func init() {
	rootCmd.AddCommand(holdCmd)
	holdCmd.Flags().DurationVar(&holdFor, "for", 0, "Release after this duration (0 holds until interrupted)")
}

func runHold(cmd *cobra.Command, args []string) error {
	rt, err := newRuntime(cmd)
	if err != nil {
		return err
	}
	defer rt.close()

	ctx, cancel := cleanup.InterruptContext(cmd.Context())
	defer cancel()
	if holdFor > 0 {
		var stop context.CancelFunc
		ctx, stop = context.WithTimeout(ctx, holdFor)
		defer stop()
	}

	lock := rt.lock(args[0])
	if err := lock.Lock(); err != nil {
		if errors.Is(err, errors.ErrAlreadyLocked) {
			return fmt.Errorf("%s is in use by another process", args[0])
		}
		return fmt.Errorf("failed to lock %s: %w", args[0], err)
	}

	out := cmd.OutOrStdout()
	if lock.Disabled() {
		fmt.Fprintf(out, "Locking is disabled; not holding %s\n", args[0])
	} else {
		fmt.Fprintf(out, "Holding %s\n", args[0])
		fmt.Fprintf(out, "Lock file: %s\n", lock.LockFile())
	}

	<-ctx.Done()

	unlockErr := lock.Unlock()
	sweepErr := cleanup.Default.Sweep()
	if err := errors.Join(unlockErr, sweepErr); err != nil {
		return fmt.Errorf("failed to release %s: %w", args[0], err)
	}

	fmt.Fprintf(out, "Released %s\n", args[0])
	return nil
}
