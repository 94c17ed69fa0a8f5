package cleanup

import (
	"context"
	"os"
	"os/signal"
	"syscall"
)

// InterruptContext returns a context cancelled on SIGINT or SIGTERM so
// long-running commands can release their locks and Sweep before exiting.
// The returned stop function restores default signal handling.
func InterruptContext(parent context.Context) (context.Context, context.CancelFunc) {
	return signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
}
