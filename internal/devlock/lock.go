package devlock

import (
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"time"

	"github.com/Iron-Ham/camlock/internal/cleanup"
	"github.com/Iron-Ham/camlock/internal/errors"
	"github.com/Iron-Ham/camlock/internal/logging"
)

// Lock is the cross-process lock of one device. While held, a heartbeat
// rewrites the record with the current time every interval; other
// processes treat a record older than interval*staleMultiplier as
// abandoned.
//
// The lock is advisory: it tells cooperating processes whether a live
// holder exists, it does not stop anyone from opening the device.
type Lock struct {
	dev  Device
	name string // lock file name
	dir  string
	path string

	interval        time.Duration
	staleMultiplier int
	maxRetries      int

	logger  *logging.Logger
	now     func() time.Time
	cleanup *cleanup.Registry
	ops     fileOps

	// section serializes fallback copies and reads of this device's record.
	section sync.Locker

	locked   atomic.Bool
	disabled atomic.Bool

	// transition serializes Lock, Unlock and Disable.
	transition sync.Mutex
	hb         *heartbeat
}

// New creates the Lock for dev. Nothing touches the filesystem until the
// first Lock, Read or Write.
func New(dev Device, opts ...Option) *Lock {
	l := newLock(opts...)
	l.dev = dev
	l.name = LockName(dev.Name())
	l.path = filepath.Join(l.dir, l.name)
	l.section = criticalSection(dev, l.path)
	l.logger = l.logger.WithDevice(dev.Name()).With("path", l.path)
	return l
}

// newLock applies opts over the defaults without binding a device.
func newLock(opts ...Option) *Lock {
	l := &Lock{
		dir:             os.TempDir(),
		interval:        DefaultInterval,
		staleMultiplier: DefaultStaleMultiplier,
		maxRetries:      DefaultMaxRetries,
		logger:          logging.NopLogger(),
		now:             time.Now,
		cleanup:         cleanup.Default,
		ops:             defaultOps,
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Lock claims the device. It returns an error matching
// errors.ErrAlreadyLocked when a live holder exists elsewhere, and a
// locking failure when the first heartbeat cannot be written, in which case
// nothing stays claimed. Locking a device this Lock already holds, or a
// disabled Lock, does nothing.
func (l *Lock) Lock() error {
	if l.disabled.Load() {
		return nil
	}

	l.transition.Lock()
	defer l.transition.Unlock()

	if l.locked.Load() {
		return nil
	}

	held, err := l.IsLocked()
	if err != nil {
		return err
	}
	if held {
		return l.lockError("lock", errors.ErrAlreadyLocked).WithSeverity(errors.SeverityWarning)
	}

	l.locked.Store(true)
	if err := l.beat(); err != nil {
		l.locked.Store(false)
		return err
	}

	l.cleanup.Register(l.path)
	l.hb = l.startHeartbeat()
	l.logger.Debug("device locked", "interval_ms", l.interval.Milliseconds())
	return nil
}

// Unlock releases the device: the heartbeat stops and the record is reset
// to Released so other processes can claim the device at once instead of
// waiting out the stale window. Unlocking a Lock that is not held does
// nothing.
func (l *Lock) Unlock() error {
	l.transition.Lock()
	defer l.transition.Unlock()

	if !l.locked.CompareAndSwap(true, false) {
		return nil
	}
	l.stopHeartbeat()

	if err := l.write(Released, true); err != nil {
		return err
	}
	l.logger.Debug("device unlocked")
	return nil
}

// Close unlocks the device. It exists so a Lock can be deferred like any
// other resource.
func (l *Lock) Close() error {
	return l.Unlock()
}

// Disable turns locking off for good: the heartbeat stops and Read, Write
// and IsLocked stop touching the filesystem.
func (l *Lock) Disable() {
	l.transition.Lock()
	defer l.transition.Unlock()

	l.disabled.Store(true)
	l.stopHeartbeat()
}

// IsLocked reports whether the device is held, by this Lock or by a process
// whose last heartbeat is younger than the stale window. A disabled Lock
// always reports false.
func (l *Lock) IsLocked() (bool, error) {
	if l.disabled.Load() {
		return false, nil
	}
	if l.locked.Load() {
		return true, nil
	}

	ts, err := l.Read()
	if err != nil {
		return false, err
	}
	return l.live(ts), nil
}

// live reports whether a record value is a heartbeat inside the stale window.
func (l *Lock) live(ts int64) bool {
	if ts < 0 {
		return false
	}
	return l.now().UnixMilli()-ts < l.StaleAfter().Milliseconds()
}

// StaleAfter is the age at which a heartbeat no longer proves liveness.
func (l *Lock) StaleAfter() time.Duration {
	return l.interval * time.Duration(l.staleMultiplier)
}

// Interval returns the heartbeat interval.
func (l *Lock) Interval() time.Duration { return l.interval }

// Locked reports whether this Lock holds the device.
func (l *Lock) Locked() bool { return l.locked.Load() }

// Disabled reports whether locking has been disabled.
func (l *Lock) Disabled() bool { return l.disabled.Load() }

// LockFile returns the path of the lock record.
func (l *Lock) LockFile() string { return l.path }

// Device returns the guarded device.
func (l *Lock) Device() Device { return l.dev }

// Status is a diagnostic snapshot of a device lock.
type Status struct {
	Device     string        `json:"device" yaml:"device"`
	Path       string        `json:"path" yaml:"path"`
	Value      int64         `json:"value" yaml:"value"`
	Held       bool          `json:"held" yaml:"held"`
	HeldBySelf bool          `json:"held_by_self" yaml:"held_by_self"`
	Disabled   bool          `json:"disabled" yaml:"disabled"`
	Age        time.Duration `json:"age" yaml:"age"`
}

// Status reads the record and reports who holds the device. Age is zero
// when the record holds no timestamp.
func (l *Lock) Status() (Status, error) {
	st := Status{
		Device:     l.dev.Name(),
		Path:       l.path,
		Value:      Released,
		HeldBySelf: l.locked.Load(),
		Disabled:   l.disabled.Load(),
	}
	if st.Disabled {
		return st, nil
	}

	v, err := l.Read()
	if err != nil {
		return st, err
	}
	st.Value = v
	if v >= 0 {
		st.Age = time.Duration(l.now().UnixMilli()-v) * time.Millisecond
	}
	st.Held = st.HeldBySelf || l.live(v)
	return st, nil
}

func (l *Lock) lockError(op string, cause error) *errors.LockError {
	return errors.NewLockError(op, cause).WithDevice(l.dev.Name()).WithPath(l.path)
}
