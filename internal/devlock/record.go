package devlock

import (
	"encoding/binary"
	"fmt"
	"io"
	"os"

	"github.com/Iron-Ham/camlock/internal/errors"
)

// recordSize is the on-disk size of a lock record: one big-endian int64.
const recordSize = 8

// fileOps are the two ways a temp file can replace the lock record.
// Tests swap them to force the fallback path.
type fileOps struct {
	replace func(src, dst string) error
	copy    func(src, dst string) error
}

var defaultOps = fileOps{
	replace: atomicReplace,
	copy:    copyFile,
}

// Write stores v in the lock record. Readers in any process observe either
// the previous value or v, never a mix, as long as atomic replace works;
// otherwise the record is copied in place under the per-device critical
// section, retried up to the configured bound.
//
// Write is a no-op while the Lock is disabled, and writes nothing to the
// record while this Lock does not hold the device.
func (l *Lock) Write(v int64) error {
	return l.write(v, false)
}

// write is Write with the holder check optionally bypassed, used to reset
// the record on unlock and to repair a broken one.
func (l *Lock) write(v int64, force bool) error {
	if l.disabled.Load() {
		return nil
	}

	tmp, err := l.writeTemp(v)
	if err != nil {
		return l.lockError("write", fmt.Errorf("%w: %v", errors.ErrLockIO, err))
	}
	defer l.removeTemp(tmp)

	if !force && !l.locked.Load() {
		return nil
	}

	err = l.ops.replace(tmp, l.path)
	if err == nil {
		return nil
	}
	l.logger.Debug("atomic rename failed, falling back to stream copy", "error", err.Error())

	if err := l.ensureLockFile(); err != nil {
		return l.lockError("write", fmt.Errorf("%w: %v", errors.ErrLockIO, err))
	}

	l.section.Lock()
	defer l.section.Unlock()

	for attempt := 1; attempt <= l.maxRetries; attempt++ {
		if err = l.ops.copy(tmp, l.path); err == nil {
			return nil
		}
		l.logger.Debug("not able to rewrite lock file", "attempt", attempt, "error", err.Error())
	}

	l.logger.Error("lock file copy retries exhausted", "attempts", l.maxRetries)
	return l.lockError("write", fmt.Errorf("%w after %d attempts: %v", errors.ErrLockWriteExhausted, l.maxRetries, err))
}

// Read returns the value in the lock record, or Released when locking is
// disabled. A missing, empty or truncated record is broken: it is rewritten
// to Released and Released is returned.
func (l *Lock) Read() (int64, error) {
	if l.disabled.Load() {
		return Released, nil
	}

	l.section.Lock()
	v, err := readRecord(l.path)
	l.section.Unlock()

	switch {
	case err == nil:
		return v, nil
	case errors.Is(err, os.ErrNotExist):
		l.logger.Debug("lock file does not exist, initializing it")
	case errors.Is(err, errBrokenRecord):
		l.logger.Warn("lock file is broken, recreating it")
	default:
		return Released, l.lockError("read", fmt.Errorf("%w: %v", errors.ErrLockIO, err))
	}

	// The critical section is released above: a fallback write takes it.
	if err := l.write(Released, true); err != nil {
		return Released, err
	}
	return Released, nil
}

var errBrokenRecord = errors.New("lock record shorter than 8 bytes")

// readRecord decodes the record at path without repairing it. A short file
// yields errBrokenRecord; a missing one an error matching os.ErrNotExist.
func readRecord(path string) (int64, error) {
	f, err := os.Open(path)
	if err != nil {
		return Released, err
	}
	defer f.Close()

	var buf [recordSize]byte
	if _, err := io.ReadFull(f, buf[:]); err != nil {
		if err == io.EOF || err == io.ErrUnexpectedEOF {
			return Released, errBrokenRecord
		}
		return Released, err
	}
	return int64(binary.BigEndian.Uint64(buf[:])), nil
}

func encodeRecord(v int64) []byte {
	buf := make([]byte, recordSize)
	binary.BigEndian.PutUint64(buf, uint64(v))
	return buf
}

// writeTemp writes v to a new temp file next to the record, so a rename
// stays on one filesystem, and returns its path.
func (l *Lock) writeTemp(v int64) (string, error) {
	f, err := os.CreateTemp(l.dir, l.name+tempMarker+"*")
	if err != nil {
		return "", err
	}
	tmp := f.Name()
	l.cleanup.Register(tmp)

	_, err = f.Write(encodeRecord(v))
	if err == nil {
		err = f.Sync()
	}
	if closeErr := f.Close(); err == nil {
		err = closeErr
	}
	if err != nil {
		l.removeTemp(tmp)
		return "", err
	}
	return tmp, nil
}

// removeTemp deletes a temp file. One that cannot be deleted stays
// registered for removal at exit.
func (l *Lock) removeTemp(tmp string) {
	if err := os.Remove(tmp); err != nil && !errors.Is(err, os.ErrNotExist) {
		l.logger.Debug("could not remove temp lock file", "tmp", tmp, "error", err.Error())
		return
	}
	l.cleanup.Unregister(tmp)
}

// ensureLockFile creates an empty record if none exists yet.
func (l *Lock) ensureLockFile() error {
	f, err := os.OpenFile(l.path, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0644)
	if err != nil {
		if errors.Is(err, os.ErrExist) {
			return nil
		}
		return err
	}
	if err := f.Close(); err != nil {
		return err
	}
	l.logger.Info("lock file has been created")
	return nil
}

// copyFile overwrites dst with the contents of src in place.
func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.OpenFile(dst, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0644)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, in); err != nil {
		_ = out.Close()
		return err
	}
	if err := out.Sync(); err != nil {
		_ = out.Close()
		return err
	}
	return out.Close()
}
