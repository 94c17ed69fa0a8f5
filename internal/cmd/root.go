package cmd

import (
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/Iron-Ham/camlock/internal/config"
)

var rootCmd = &cobra.Command{
	Use:   "camlock",
	Short: "Cross-process device lock for webcams and other shared devices",
	Long: `camlock coordinates exclusive use of a shared device, such as a webcam,
between independent processes on one machine. A holder keeps a small lock
record fresh with a heartbeat; a record that stops updating is considered
abandoned, so a crashed holder never blocks the device for long.`,
	SilenceUsage: true,
}

// Execute runs the root command
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	cobra.OnInitialize(initConfig)

	// Global flags
	rootCmd.PersistentFlags().StringP("config", "c", "", "config file (default is $HOME/.config/camlock/config.yaml)")
	rootCmd.PersistentFlags().StringP("dir", "d", "", "directory holding lock records (default is the system temp dir)")
	rootCmd.PersistentFlags().String("log-level", "", "log level: debug, info, warn, error")
	_ = viper.BindPFlag("config", rootCmd.PersistentFlags().Lookup("config"))
	_ = viper.BindPFlag("lock.dir", rootCmd.PersistentFlags().Lookup("dir"))
	_ = viper.BindPFlag("logging.level", rootCmd.PersistentFlags().Lookup("log-level"))
}

func initConfig() {
	// Set defaults first so they're available even without a config file
	config.SetDefaults()

	if cfgFile := viper.GetString("config"); cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.SetConfigName("config")
		viper.SetConfigType("yaml")
		viper.AddConfigPath(config.ConfigDir())
		viper.AddConfigPath("$HOME/.config/camlock")
	}

	viper.AutomaticEnv()
	viper.SetEnvPrefix("CAMLOCK")
	// Replace dots with underscores for nested keys in env vars
	// e.g., CAMLOCK_LOCK_INTERVAL_MS for lock.interval_ms
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	// Read config file if it exists (ignore error if not found)
	_ = viper.ReadInConfig()
}
