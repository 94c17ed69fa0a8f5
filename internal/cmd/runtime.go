package cmd

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/Iron-Ham/camlock/internal/config"
	"github.com/Iron-Ham/camlock/internal/devlock"
	"github.com/Iron-Ham/camlock/internal/logging"
)

// runtime bundles what every lock command needs: the validated config, the
// logger built from it and the matching devlock options.
type runtime struct {
	cfg    *config.Config
	logger *logging.Logger
	opts   []devlock.Option
}

func newRuntime(cmd *cobra.Command) (*runtime, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	logger, err := newLogger(cfg.Logging, cmd.ErrOrStderr())
	if err != nil {
		return nil, fmt.Errorf("failed to create logger: %w", err)
	}

	opts := []devlock.Option{
		devlock.WithDir(cfg.Lock.Dir),
		devlock.WithInterval(cfg.Lock.Interval()),
		devlock.WithStaleMultiplier(cfg.Lock.StaleMultiplier),
		devlock.WithMaxRetries(cfg.Lock.MaxRetries),
		devlock.WithLogger(logger),
	}
	if cfg.Lock.Disabled {
		opts = append(opts, devlock.WithDisabled())
	}

	return &runtime{cfg: cfg, logger: logger, opts: opts}, nil
}

// newLogger writes to <dir>/camlock.log with rotation when a log directory is
// configured, and to stderr otherwise.
func newLogger(cfg config.LoggingConfig, stderr io.Writer) (*logging.Logger, error) {
	if !cfg.Enabled {
		return logging.NopLogger(), nil
	}
	level := logging.ParseLevel(cfg.Level)
	if cfg.Dir == "" {
		return logging.NewWriterLogger(stderr, level), nil
	}
	return logging.NewLoggerWithRotation(cfg.Dir, level, cfg.Rotation())
}

func (r *runtime) lock(device string) *devlock.Lock {
	return devlock.New(devlock.Named(device), r.opts...)
}

// lockDir is the directory lock records resolve to.
func (r *runtime) lockDir() string {
	if r.cfg.Lock.Dir != "" {
		return r.cfg.Lock.Dir
	}
	return os.TempDir()
}

func (r *runtime) close() {
	_ = r.logger.Close()
}
