package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/sourcegraph/conc/iter"
	"github.com/spf13/cobra"
	"golang.org/x/term"
	"gopkg.in/yaml.v3"

	"github.com/Iron-Ham/camlock/internal/devlock"
)

var statusCmd = &cobra.Command{
	Use:   "status <device>...",
	Short: "Show who holds devices",
	Long: `Status reads the lock record of each device and reports whether a live
holder exists and how old its last heartbeat is.

Output formats:
  text  human readable, colored on a terminal (default)
  yaml  one document listing every device
  json  an array of device statuses`,
	Args: cobra.MinimumNArgs(1),
	RunE: runStatus,
}

var statusOutput string

func init() {
	rootCmd.AddCommand(statusCmd)
	statusCmd.Flags().StringVarP(&statusOutput, "output", "o", "text", "Output format: text, yaml, json")
}

// deviceStatus is one row of status output.
type deviceStatus struct {
	devlock.Status `yaml:",inline"`
	State          string `json:"state" yaml:"state"`
	Error          string `json:"error,omitempty" yaml:"error,omitempty"`
}

func runStatus(cmd *cobra.Command, args []string) error {
	switch statusOutput {
	case "text", "yaml", "json":
	default:
		return fmt.Errorf("invalid output format %q: must be one of text, yaml, json", statusOutput)
	}

	rt, err := newRuntime(cmd)
	if err != nil {
		return err
	}
	defer rt.close()

	statuses := iter.Map(args, func(device *string) deviceStatus {
		return queryStatus(rt, *device)
	})

	out := cmd.OutOrStdout()
	switch statusOutput {
	case "yaml":
		enc := yaml.NewEncoder(out)
		enc.SetIndent(2)
		if err := enc.Encode(statuses); err != nil {
			return fmt.Errorf("failed to encode status: %w", err)
		}
		return enc.Close()
	case "json":
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(statuses)
	default:
		printStatusText(out, statuses, palette{color: isTerminal(out)})
		return nil
	}
}

func queryStatus(rt *runtime, device string) deviceStatus {
	st, err := rt.lock(device).Status()
	ds := deviceStatus{Status: st, State: stateOf(st)}
	if err != nil {
		ds.State = "error"
		ds.Error = err.Error()
	}
	return ds
}

func stateOf(st devlock.Status) string {
	switch {
	case st.Disabled:
		return "disabled"
	case st.Held:
		return "held"
	case st.Value >= 0:
		return "stale"
	default:
		return "free"
	}
}

func printStatusText(w io.Writer, statuses []deviceStatus, p palette) {
	for _, st := range statuses {
		fmt.Fprintf(w, "%s  %s", p.device(st.Device), p.state(st.State))
		switch {
		case st.Error != "":
			fmt.Fprintf(w, "  %s", st.Error)
		case st.Value >= 0:
			fmt.Fprintf(w, "  %s", p.muted("last heartbeat "+st.Age.Round(time.Millisecond).String()+" ago"))
		}
		fmt.Fprintf(w, "\n  %s\n", p.muted(st.Path))
	}
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}
