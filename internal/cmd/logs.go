package cmd

import (
	"fmt"
	"io"
	"regexp"
	"sort"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"github.com/Iron-Ham/camlock/internal/config"
	"github.com/Iron-Ham/camlock/internal/logging"
)

var logsCmd = &cobra.Command{
	Use:   "logs",
	Short: "View camlock logs",
	Long: `View and filter the camlock log file in logging.dir.

Examples:
  # Show the last 50 entries
  camlock logs

  # Show every warning and error for one device
  camlock logs -n 0 --level warn --device /dev/video0

  # Show logs from the last hour
  camlock logs --since 1h

  # Search messages
  camlock logs --grep "broken|exhausted"`,
	Args: cobra.NoArgs,
	RunE: runLogs,
}

var (
	logsTail   int
	logsLevel  string
	logsSince  string
	logsDevice string
	logsGrep   string
)

func init() {
	rootCmd.AddCommand(logsCmd)
	logsCmd.Flags().IntVarP(&logsTail, "tail", "n", 50, "Number of entries to show (0 for all)")
	logsCmd.Flags().StringVar(&logsLevel, "level", "", "Filter by minimum level (debug/info/warn/error)")
	logsCmd.Flags().StringVar(&logsSince, "since", "", "Show logs since duration ago (e.g., 1h, 30m)")
	logsCmd.Flags().StringVar(&logsDevice, "device", "", "Show only entries for this device")
	logsCmd.Flags().StringVar(&logsGrep, "grep", "", "Filter messages matching pattern (regex)")
}

func runLogs(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	if cfg.Logging.Dir == "" {
		return fmt.Errorf("logging.dir is not set; camlock logs to stderr")
	}

	filter := logging.LogFilter{Level: logsLevel, Device: logsDevice}
	if logsSince != "" {
		d, err := time.ParseDuration(logsSince)
		if err != nil {
			return fmt.Errorf("invalid --since duration: %w", err)
		}
		filter.StartTime = time.Now().Add(-d)
	}

	var pattern *regexp.Regexp
	if logsGrep != "" {
		pattern, err = regexp.Compile(logsGrep)
		if err != nil {
			return fmt.Errorf("invalid --grep pattern: %w", err)
		}
	}

	entries, err := logging.ReadLogs(cfg.Logging.Dir)
	if err != nil {
		return err
	}
	entries = logging.FilterLogs(entries, filter)
	if pattern != nil {
		var matched []logging.LogEntry
		for _, e := range entries {
			if pattern.MatchString(e.Message) {
				matched = append(matched, e)
			}
		}
		entries = matched
	}
	if logsTail > 0 && len(entries) > logsTail {
		entries = entries[len(entries)-logsTail:]
	}

	out := cmd.OutOrStdout()
	p := palette{color: isTerminal(out)}
	for _, e := range entries {
		writeLogEntry(out, p, e)
	}
	return nil
}

func levelStyle(level string) lipgloss.Style {
	switch level {
	case logging.LevelDebug:
		return lipgloss.NewStyle().Foreground(mutedColor)
	case logging.LevelWarn:
		return lipgloss.NewStyle().Foreground(yellowColor)
	case logging.LevelError:
		return lipgloss.NewStyle().Foreground(redColor)
	default:
		return lipgloss.NewStyle().Foreground(primaryColor)
	}
}

func writeLogEntry(w io.Writer, p palette, e logging.LogEntry) {
	var sb strings.Builder

	sb.WriteString(p.muted("[" + e.Timestamp.Local().Format("15:04:05.000") + "]"))
	sb.WriteString(" ")
	sb.WriteString(p.render(levelStyle(e.Level), "["+e.Level+"]"))
	sb.WriteString(" ")
	sb.WriteString(e.Message)

	if e.Device != "" {
		sb.WriteString(" ")
		sb.WriteString(p.device("device=" + e.Device))
	}
	if e.Component != "" {
		sb.WriteString(" ")
		sb.WriteString(p.muted("component=" + e.Component))
	}

	keys := make([]string, 0, len(e.Attrs))
	for k := range e.Attrs {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		sb.WriteString(" ")
		sb.WriteString(p.muted(fmt.Sprintf("%s=%v", k, e.Attrs[k])))
	}

	fmt.Fprintln(w, sb.String())
}
