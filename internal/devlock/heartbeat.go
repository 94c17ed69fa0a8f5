package devlock

import (
	"sync"
	"time"

	"github.com/sourcegraph/conc"
)

// heartbeat is the background task refreshing a held lock record.
type heartbeat struct {
	stop     chan struct{}
	stopOnce sync.Once
	wg       conc.WaitGroup
}

// startHeartbeat launches the heartbeat task. The caller holds transition.
func (l *Lock) startHeartbeat() *heartbeat {
	hb := &heartbeat{stop: make(chan struct{})}
	hb.wg.Go(func() { l.runHeartbeat(hb.stop) })
	return hb
}

// stopHeartbeat signals the task and waits for it to exit. The caller holds
// transition.
func (l *Lock) stopHeartbeat() {
	if l.hb == nil {
		return
	}
	l.hb.stopOnce.Do(func() { close(l.hb.stop) })
	l.hb.wg.Wait()
	l.hb = nil
}

func (l *Lock) runHeartbeat(stop <-chan struct{}) {
	logger := l.logger.WithComponent("heartbeat")

	ticker := time.NewTicker(l.interval)
	defer ticker.Stop()

	for l.locked.Load() && !l.disabled.Load() {
		select {
		case <-stop:
			return
		case <-ticker.C:
		}

		if !l.locked.Load() || l.disabled.Load() {
			return
		}
		// keep going; a holder that cannot write goes stale on its own
		if err := l.beat(); err != nil {
			logger.Error("failed to update lock file", "error", err.Error())
		}
	}
}

// beat writes the current time into the record.
func (l *Lock) beat() error {
	return l.Write(l.now().UnixMilli())
}
