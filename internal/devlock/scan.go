package devlock

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/Iron-Ham/camlock/internal/errors"
)

// State classifies a file found by Scan.
type State string

const (
	// StateHeld is a record with a heartbeat inside the stale window.
	StateHeld State = "held"
	// StateStale is a record whose holder stopped heartbeating.
	StateStale State = "stale"
	// StateReleased is a record reset to Released.
	StateReleased State = "released"
	// StateBroken is a record shorter than 8 bytes.
	StateBroken State = "broken"
	// StateTemp is a leftover temp file from an interrupted write.
	StateTemp State = "temp"
)

// Entry describes one lock file in a directory.
type Entry struct {
	Path        string        `json:"path" yaml:"path"`
	State       State         `json:"state" yaml:"state"`
	Value       int64         `json:"value" yaml:"value"`
	Age         time.Duration `json:"age" yaml:"age"`
	Reclaimable bool          `json:"reclaimable" yaml:"reclaimable"`
}

// Scan lists the lock records and leftover temp files in dir. It never
// modifies anything; broken records are reported, not repaired. Only the
// interval, stale multiplier and clock options are used.
func Scan(dir string, opts ...Option) ([]Entry, error) {
	policy := newLock(opts...)
	if dir == "" {
		dir = policy.dir
	}

	des, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", errors.ErrLockIO, err)
	}

	var entries []Entry
	for _, de := range des {
		name := de.Name()
		if de.IsDir() || !strings.HasPrefix(name, LockPrefix) {
			continue
		}
		entry, err := policy.classify(filepath.Join(dir, name), strings.Contains(name, tempMarker))
		if err != nil {
			if errors.Is(err, os.ErrNotExist) {
				// removed between ReadDir and classify
				continue
			}
			return nil, err
		}
		entries = append(entries, entry)
	}

	sort.Slice(entries, func(i, j int) bool { return entries[i].Path < entries[j].Path })
	return entries, nil
}

func (l *Lock) classify(path string, temp bool) (Entry, error) {
	entry := Entry{Path: path, Value: Released}

	info, err := os.Stat(path)
	if err != nil {
		return entry, err
	}
	modAge := l.now().Sub(info.ModTime())

	if temp {
		entry.State = StateTemp
		entry.Age = modAge
		entry.Reclaimable = modAge >= l.StaleAfter()
		return entry, nil
	}

	v, err := readRecord(path)
	switch {
	case errors.Is(err, errBrokenRecord):
		entry.State = StateBroken
		entry.Age = modAge
		// a fallback copy in progress looks broken for an instant
		entry.Reclaimable = modAge >= l.StaleAfter()
		return entry, nil
	case err != nil:
		return entry, err
	}

	entry.Value = v
	switch {
	case v < 0:
		entry.State = StateReleased
		entry.Reclaimable = true
	case l.live(v):
		entry.State = StateHeld
		entry.Age = time.Duration(l.now().UnixMilli()-v) * time.Millisecond
	default:
		entry.State = StateStale
		entry.Age = time.Duration(l.now().UnixMilli()-v) * time.Millisecond
		entry.Reclaimable = true
	}
	return entry, nil
}

// Reclaim removes the reclaimable entries. Each file is classified again
// just before removal, so a record a new holder claimed after the scan is
// left alone. It returns the entries it removed.
func Reclaim(entries []Entry, opts ...Option) ([]Entry, error) {
	policy := newLock(opts...)

	var removed []Entry
	var errs []error
	for _, e := range entries {
		if !e.Reclaimable {
			continue
		}
		current, err := policy.classify(e.Path, e.State == StateTemp)
		if err != nil {
			if !errors.Is(err, os.ErrNotExist) {
				errs = append(errs, err)
			}
			continue
		}
		if !current.Reclaimable {
			continue
		}
		if err := os.Remove(e.Path); err != nil && !errors.Is(err, os.ErrNotExist) {
			errs = append(errs, fmt.Errorf("remove %s: %w", e.Path, err))
			continue
		}
		policy.logger.Info("reclaimed lock file", "path", e.Path, "state", string(current.State))
		removed = append(removed, current)
	}
	return removed, errors.Join(errs...)
}
