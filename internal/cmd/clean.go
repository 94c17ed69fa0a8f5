package cmd

import (
	"fmt"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"github.com/Iron-Ham/camlock/internal/devlock"
)

var cleanCmd = &cobra.Command{
	Use:   "clean",
	Short: "Remove abandoned lock files",
	Long: `Clean removes lock records nobody holds from the lock directory:

- Released records
- Stale records whose holder stopped heartbeating
- Broken records and leftover temp files older than the stale window

Records with a live heartbeat are never touched.
Use --dry-run to see what would be removed without making changes.`,
	Args: cobra.NoArgs,
	RunE: runClean,
}

var cleanDryRun bool

func init() {
	rootCmd.AddCommand(cleanCmd)
	cleanCmd.Flags().BoolVar(&cleanDryRun, "dry-run", false, "Show what would be removed without making changes")
}

func runClean(cmd *cobra.Command, args []string) error {
	rt, err := newRuntime(cmd)
	if err != nil {
		return err
	}
	defer rt.close()

	dir := rt.lockDir()
	entries, err := devlock.Scan(dir, rt.opts...)
	if err != nil {
		return fmt.Errorf("failed to scan %s: %w", dir, err)
	}

	out := cmd.OutOrStdout()
	p := palette{color: isTerminal(out)}

	var reclaimable []devlock.Entry
	for _, e := range entries {
		if e.Reclaimable {
			reclaimable = append(reclaimable, e)
		}
	}
	if len(reclaimable) == 0 {
		fmt.Fprintf(out, "Nothing to clean in %s\n", dir)
		return nil
	}

	if cleanDryRun {
		fmt.Fprintf(out, "Would remove %d file(s) from %s:\n", len(reclaimable), dir)
		for _, e := range reclaimable {
			printEntry(cmd, p, e)
		}
		return nil
	}

	removed, err := devlock.Reclaim(reclaimable, rt.opts...)
	for _, e := range removed {
		printEntry(cmd, p, e)
	}
	fmt.Fprintf(out, "Removed %d file(s) from %s\n", len(removed), dir)
	if err != nil {
		return fmt.Errorf("some lock files could not be removed: %w", err)
	}
	return nil
}

func printEntry(cmd *cobra.Command, p palette, e devlock.Entry) {
	age := ""
	if e.Age > 0 {
		age = p.muted(e.Age.Round(time.Second).String() + " old")
	}
	fmt.Fprintf(cmd.OutOrStdout(), "  %-8s %s  %s\n", p.state(string(e.State)), filepath.Base(e.Path), age)
}
