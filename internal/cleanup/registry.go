// Package cleanup tracks files that must be removed when the process exits
// normally: lock records this process held and temp files it created while
// writing them. Nothing here runs on abrupt termination; other processes
// recover from that through lock staleness.
package cleanup

import (
	"errors"
	"fmt"
	"os"
	"sort"
	"sync"
)

// Default is the process-wide registry.
var Default = NewRegistry()

// Registry is a set of paths scheduled for removal at shutdown.
// It is safe for concurrent use.
type Registry struct {
	mu    sync.Mutex
	paths map[string]struct{}
	swept bool
}

// NewRegistry returns an empty Registry.
func NewRegistry() *Registry {
	return &Registry{paths: make(map[string]struct{})}
}

// Register schedules path for removal by Sweep. Registering twice is a no-op.
func (r *Registry) Register(path string) {
	if path == "" {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.paths[path] = struct{}{}
}

// Unregister drops path from the registry, typically after it was removed
// directly.
func (r *Registry) Unregister(path string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.paths, path)
}

// Paths returns the registered paths in lexical order.
func (r *Registry) Paths() []string {
	r.mu.Lock()
	defer r.mu.Unlock()

	paths := make([]string, 0, len(r.paths))
	for p := range r.paths {
		paths = append(paths, p)
	}
	sort.Strings(paths)
	return paths
}

// Sweep removes every registered path. Paths that no longer exist are not
// errors. Failed removals stay registered so a later Sweep can retry them;
// their errors are joined into the result.
func (r *Registry) Sweep() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	var errs []error
	for p := range r.paths {
		if err := os.Remove(p); err != nil && !errors.Is(err, os.ErrNotExist) {
			errs = append(errs, fmt.Errorf("remove %s: %w", p, err))
			continue
		}
		delete(r.paths, p)
	}
	r.swept = true
	return errors.Join(errs...)
}

// Swept reports whether Sweep has run at least once.
func (r *Registry) Swept() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.swept
}
