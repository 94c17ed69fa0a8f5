package devlock

import (
	"time"

	"github.com/Iron-Ham/camlock/internal/cleanup"
	"github.com/Iron-Ham/camlock/internal/logging"
)

const (
	// Released is the record value of a device nobody holds. Read also
	// returns it when the record is unknown or locking is disabled.
	Released int64 = -1

	// DefaultInterval is how often a holder rewrites its heartbeat.
	DefaultInterval = 2000 * time.Millisecond

	// DefaultStaleMultiplier is how many heartbeat intervals may pass before
	// a record is considered abandoned.
	DefaultStaleMultiplier = 2

	// DefaultMaxRetries bounds the fallback copy attempts of one write.
	DefaultMaxRetries = 5
)

// Option configures a Lock.
type Option func(*Lock)

// WithDir places the lock record in dir instead of the temp directory.
func WithDir(dir string) Option {
	return func(l *Lock) {
		if dir != "" {
			l.dir = dir
		}
	}
}

// WithInterval sets the heartbeat interval. Non-positive values are ignored.
func WithInterval(d time.Duration) Option {
	return func(l *Lock) {
		if d > 0 {
			l.interval = d
		}
	}
}

// WithStaleMultiplier sets how many intervals make a record stale.
// Values below 1 are ignored.
func WithStaleMultiplier(n int) Option {
	return func(l *Lock) {
		if n >= 1 {
			l.staleMultiplier = n
		}
	}
}

// WithMaxRetries sets the number of fallback copy attempts. Values below 1
// are ignored.
func WithMaxRetries(n int) Option {
	return func(l *Lock) {
		if n >= 1 {
			l.maxRetries = n
		}
	}
}

// WithLogger sets the diagnostic sink.
func WithLogger(logger *logging.Logger) Option {
	return func(l *Lock) {
		if logger != nil {
			l.logger = logger
		}
	}
}

// WithClock replaces time.Now, for tests.
func WithClock(now func() time.Time) Option {
	return func(l *Lock) {
		if now != nil {
			l.now = now
		}
	}
}

// WithCleanup sets the registry that removes lock and temp files at exit.
func WithCleanup(r *cleanup.Registry) Option {
	return func(l *Lock) {
		if r != nil {
			l.cleanup = r
		}
	}
}

// WithDisabled creates the Lock already disabled.
func WithDisabled() Option {
	return func(l *Lock) {
		l.disabled.Store(true)
	}
}
