package cmd

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/Iron-Ham/camlock/internal/cleanup"
	"github.com/Iron-Ham/camlock/internal/devlock"
)

var watchCmd = &cobra.Command{
	Use:   "watch <device>",
	Short: "Stream changes to a device lock",
	Long: `Watch prints the lock record of a device and then a line each time it
changes, until interrupted. Heartbeats show as new timestamps; a release
shows as free.`,
	Args: cobra.ExactArgs(1),
	RunE: runWatch,
}

func init() {
	rootCmd.AddCommand(watchCmd)
}

func runWatch(cmd *cobra.Command, args []string) error {
	rt, err := newRuntime(cmd)
	if err != nil {
		return err
	}
	defer rt.close()

	if rt.cfg.Lock.Disabled {
		return fmt.Errorf("locking is disabled; nothing to watch")
	}

	ctx, cancel := cleanup.InterruptContext(cmd.Context())
	defer cancel()

	out := cmd.OutOrStdout()
	p := palette{color: isTerminal(out)}
	path := devlock.LockPath(rt.lockDir(), args[0])

	return devlock.Watch(ctx, path, func(v int64) {
		stamp := time.Now().Format("15:04:05.000")
		if v < 0 {
			fmt.Fprintf(out, "%s  %s\n", p.muted(stamp), p.state("free"))
			return
		}
		heartbeat := time.UnixMilli(v).Format("15:04:05.000")
		fmt.Fprintf(out, "%s  %s  heartbeat %s\n", p.muted(stamp), p.state("held"), heartbeat)
	})
}
