package cmd

import (
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strconv"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/Iron-Ham/camlock/internal/config"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "View or modify camlock configuration",
	Long: `View or modify camlock configuration.

Without arguments, displays the current configuration.
Use subcommands to modify settings or create a config file.`,
	RunE: runConfigShow,
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show current configuration",
	RunE:  runConfigShow,
}

var configSetCmd = &cobra.Command{
	Use:   "set <key> <value>",
	Short: "Set a configuration value",
	Long: `Set a configuration value in the user's config file.

Keys use dot notation, e.g.:
  camlock config set lock.interval_ms 1000
  camlock config set logging.level debug

Valid keys:
  lock.dir               - Directory holding lock records
  lock.interval_ms       - Heartbeat interval in milliseconds
  lock.stale_multiplier  - Intervals before a heartbeat is stale
  lock.max_retries       - Fallback copy attempts per write
  lock.disabled          - Turn device locking off (true/false)
  logging.enabled        - Enable logging (true/false)
  logging.level          - Options: debug, info, warn, error
  logging.dir            - Directory for camlock.log (empty logs to stderr)
  logging.max_size_mb    - Log size before rotation
  logging.max_backups    - Rotated log files to keep
  logging.compress       - Gzip rotated logs (true/false)`,
	Args: cobra.ExactArgs(2),
	RunE: runConfigSet,
}

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Create a default config file",
	Long:  `Create a default config file at ~/.config/camlock/config.yaml with all available options.`,
	RunE:  runConfigInit,
}

var configPathCmd = &cobra.Command{
	Use:   "path",
	Short: "Show the config file path",
	RunE:  runConfigPath,
}

func init() {
	rootCmd.AddCommand(configCmd)
	configCmd.AddCommand(configShowCmd)
	configCmd.AddCommand(configSetCmd)
	configCmd.AddCommand(configInitCmd)
	configCmd.AddCommand(configPathCmd)
}

func runConfigShow(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	out := cmd.OutOrStdout()

	// Show where config is being read from
	if viper.ConfigFileUsed() != "" {
		fmt.Fprintf(out, "# Config file: %s\n", viper.ConfigFileUsed())
	} else {
		fmt.Fprintf(out, "# Config file: (none - using defaults)\n")
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to encode configuration: %w", err)
	}
	_, err = out.Write(data)
	return err
}

// configKeys maps settable keys to their value type.
var configKeys = map[string]string{
	"lock.dir":              "string",
	"lock.interval_ms":      "int",
	"lock.stale_multiplier": "int",
	"lock.max_retries":      "int",
	"lock.disabled":         "bool",
	"logging.enabled":       "bool",
	"logging.level":         "string",
	"logging.dir":           "string",
	"logging.max_size_mb":   "int",
	"logging.max_backups":   "int",
	"logging.compress":      "bool",
}

func runConfigSet(cmd *cobra.Command, args []string) error {
	key := args[0]
	value := args[1]

	keyType, ok := configKeys[key]
	if !ok {
		return fmt.Errorf("unknown configuration key: %s\nRun 'camlock config set --help' to see valid keys", key)
	}

	// Validate the value based on type
	var typedValue any
	switch keyType {
	case "string":
		if key == "logging.level" && !slices.Contains(config.ValidLogLevels(), value) {
			return fmt.Errorf("invalid value for %s: %s\nValid options: %s",
				key, value, strings.Join(config.ValidLogLevels(), ", "))
		}
		typedValue = value
	case "bool":
		if value != "true" && value != "false" {
			return fmt.Errorf("invalid value for %s: expected true or false", key)
		}
		typedValue = value == "true"
	case "int":
		intVal, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("invalid value for %s: expected integer", key)
		}
		if intVal < 0 {
			return fmt.Errorf("invalid value for %s: must be non-negative", key)
		}
		typedValue = intVal
	}

	// Ensure config directory exists
	configDir := config.ConfigDir()
	if err := os.MkdirAll(configDir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	prev := viper.Get(key)
	viper.Set(key, typedValue)

	cfg, err := config.Load()
	if err != nil {
		viper.Set(key, prev)
		return fmt.Errorf("invalid value for %s: %w", key, err)
	}

	// Write only the camlock keys; viper also tracks bound flags like "config".
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to encode configuration: %w", err)
	}
	configFile := config.ConfigFile()
	if err := os.WriteFile(configFile, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Set %s = %v\n", key, typedValue)
	fmt.Fprintf(out, "Config saved to %s\n", configFile)

	return nil
}

// defaultConfigContent is the commented file written by config init.
const defaultConfigContent = `# camlock configuration

# Device lock settings
lock:
  # Directory holding lock records. Every process sharing a device must use
  # the same directory. Empty means the system temp directory.
  dir: ""
  # How often a holder rewrites its heartbeat, in milliseconds
  interval_ms: 2000
  # A heartbeat older than interval_ms * stale_multiplier is abandoned
  stale_multiplier: 2
  # Copy attempts when the lock file cannot be replaced atomically
  max_retries: 5
  # Turn device locking off entirely
  disabled: false

# Logging settings
logging:
  enabled: true
  # Options: debug, info, warn, error
  level: info
  # Directory for camlock.log. Empty logs to stderr.
  dir: ""
  # Rotate the log file at this size
  max_size_mb: 10
  # Rotated files to keep
  max_backups: 3
  # Gzip rotated files
  compress: false
`

func runConfigInit(cmd *cobra.Command, args []string) error {
	configDir := config.ConfigDir()
	configFile := config.ConfigFile()

	// Check if config file already exists
	if _, err := os.Stat(configFile); err == nil {
		return fmt.Errorf("config file already exists at %s\nUse 'camlock config set' to modify values", configFile)
	}

	// Create config directory
	if err := os.MkdirAll(configDir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	if err := os.WriteFile(configFile, []byte(defaultConfigContent), 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Created config file at %s\n", configFile)
	fmt.Fprintln(out, "Edit this file to customize camlock's behavior.")

	return nil
}

func runConfigPath(cmd *cobra.Command, args []string) error {
	configFile := config.ConfigFile()
	out := cmd.OutOrStdout()

	if viper.ConfigFileUsed() != "" {
		fmt.Fprintf(out, "Active config: %s\n", viper.ConfigFileUsed())
	} else {
		fmt.Fprintf(out, "Default path: %s (not created)\n", configFile)
	}

	// Also show config search paths
	fmt.Fprintln(out, "\nSearch paths:")
	fmt.Fprintf(out, "  1. %s\n", filepath.Join(config.ConfigDir(), "config.yaml"))
	fmt.Fprintf(out, "  2. $HOME/.config/camlock/config.yaml\n")
	fmt.Fprintln(out, "\nEnvironment variables: CAMLOCK_* (e.g., CAMLOCK_LOCK_INTERVAL_MS)")

	return nil
}
