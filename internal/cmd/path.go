package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/Iron-Ham/camlock/internal/devlock"
)

var pathCmd = &cobra.Command{
	Use:   "path <device>...",
	Short: "Print the lock file path of devices",
	Long: `Path prints where the lock record of each device lives. Every process
using the same lock directory derives the same path for the same device.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runPath,
}

func init() {
	rootCmd.AddCommand(pathCmd)
}

func runPath(cmd *cobra.Command, args []string) error {
	rt, err := newRuntime(cmd)
	if err != nil {
		return err
	}
	defer rt.close()

	for _, device := range args {
		fmt.Fprintln(cmd.OutOrStdout(), devlock.LockPath(rt.lockDir(), device))
	}
	return nil
}
