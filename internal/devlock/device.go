package devlock

import "sync"

// Device is the handle a Lock guards. Its Name is the identity shared by
// every process that talks to the same physical device.
//
// A Device that also implements sync.Locker supplies its own critical
// section for lock file I/O. The caller must not hold it while calling into
// the Lock, since Go mutexes are not reentrant.
type Device interface {
	Name() string
}

// Named is a Device identified only by its name.
type Named string

// Name returns the device identity.
func (n Named) Name() string { return string(n) }

var sections = struct {
	sync.Mutex
	byPath map[string]*sync.Mutex
}{byPath: make(map[string]*sync.Mutex)}

// criticalSection returns the per-device lock serializing fallback copies
// against reads inside this process. Handles for the same device share one
// mutex because they resolve to the same lock path.
func criticalSection(dev Device, path string) sync.Locker {
	if l, ok := dev.(sync.Locker); ok {
		return l
	}

	sections.Lock()
	defer sections.Unlock()

	mu, ok := sections.byPath[path]
	if !ok {
		mu = &sync.Mutex{}
		sections.byPath[path] = mu
	}
	return mu
}
