package devlock

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/fsnotify/fsnotify"

	"github.com/Iron-Ham/camlock/internal/errors"
)

// Watch calls fn with the current value of the record at path, then again
// every time the value changes, until ctx is done. A missing or broken
// record is reported as Released. The directory is watched rather than the
// file because atomic replaces swap the file out from under a file watch.
func Watch(ctx context.Context, path string, fn func(int64)) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}
	defer watcher.Close()

	if err := watcher.Add(filepath.Dir(path)); err != nil {
		return fmt.Errorf("watch %s: %w", filepath.Dir(path), err)
	}

	last, err := peek(path)
	if err != nil {
		return err
	}
	fn(last)

	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(ev.Name) != filepath.Clean(path) {
				continue
			}
			if !ev.Has(fsnotify.Create) && !ev.Has(fsnotify.Write) &&
				!ev.Has(fsnotify.Remove) && !ev.Has(fsnotify.Rename) {
				continue
			}
			v, err := peek(path)
			if err != nil {
				return err
			}
			if v != last {
				last = v
				fn(v)
			}
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			return fmt.Errorf("watch %s: %w", path, err)
		}
	}
}

// peek reads a record without repairing it.
func peek(path string) (int64, error) {
	v, err := readRecord(path)
	if err == nil {
		return v, nil
	}
	if errors.Is(err, errBrokenRecord) || errors.Is(err, os.ErrNotExist) {
		return Released, nil
	}
	return Released, fmt.Errorf("%w: %v", errors.ErrLockIO, err)
}
