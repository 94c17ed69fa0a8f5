package devlock

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/Iron-Ham/camlock/internal/cleanup"
	"github.com/Iron-Ham/camlock/internal/errors"
	"github.com/Iron-Ham/camlock/internal/logging"
)

// newTestLock returns a Lock in a fresh directory with its own cleanup
// registry.
func newTestLock(t *testing.T, name string, opts ...Option) *Lock {
	t.Helper()
	base := []Option{WithDir(t.TempDir()), WithCleanup(cleanup.NewRegistry())}
	l := New(Named(name), append(base, opts...)...)
	t.Cleanup(func() { _ = l.Unlock() })
	return l
}

// hold marks l as the holder without starting a heartbeat.
func hold(l *Lock) { l.locked.Store(true) }

func seedRecord(t *testing.T, path string, data []byte) {
	t.Helper()
	if err := os.WriteFile(path, data, 0644); err != nil {
		t.Fatalf("seed record: %v", err)
	}
}

func TestWriteRead_RoundTrip(t *testing.T) {
	values := []int64{0, 1, 1_700_000_000_000, Released, 1<<63 - 1}

	for _, v := range values {
		t.Run(fmt.Sprint(v), func(t *testing.T) {
			l := newTestLock(t, "cam")
			hold(l)

			if err := l.Write(v); err != nil {
				t.Fatalf("Write(%d) error = %v", v, err)
			}
			got, err := l.Read()
			if err != nil {
				t.Fatalf("Read() error = %v", err)
			}
			if got != v {
				t.Errorf("Read() = %d, want %d", got, v)
			}
		})
	}
}

func TestWrite_BigEndianLayout(t *testing.T) {
	l := newTestLock(t, "cam")
	hold(l)

	if err := l.Write(0x0102030405060708); err != nil {
		t.Fatalf("Write() error = %v", err)
	}
	data, err := os.ReadFile(l.LockFile())
	if err != nil {
		t.Fatalf("ReadFile() error = %v", err)
	}
	want := []byte{1, 2, 3, 4, 5, 6, 7, 8}
	if !bytes.Equal(data, want) {
		t.Errorf("record = %v, want %v", data, want)
	}
}

func TestWrite_NotHeldLeavesRecord(t *testing.T) {
	l := newTestLock(t, "cam")

	if err := l.Write(42); err != nil {
		t.Fatalf("Write() error = %v", err)
	}
	if _, err := os.Stat(l.LockFile()); !os.IsNotExist(err) {
		t.Errorf("lock file should not exist, stat error = %v", err)
	}

	seedRecord(t, l.LockFile(), encodeRecord(7))
	if err := l.Write(42); err != nil {
		t.Fatalf("Write() error = %v", err)
	}
	if v, _ := readRecord(l.LockFile()); v != 7 {
		t.Errorf("record = %d, want 7", v)
	}
	assertNoTempFiles(t, l)
}

func TestDisabled_NoFileAccess(t *testing.T) {
	l := newTestLock(t, "cam", WithDisabled())

	if err := l.Write(42); err != nil {
		t.Fatalf("Write() error = %v", err)
	}
	v, err := l.Read()
	if err != nil {
		t.Fatalf("Read() error = %v", err)
	}
	if v != Released {
		t.Errorf("Read() = %d, want %d", v, Released)
	}
	if err := l.Lock(); err != nil {
		t.Fatalf("Lock() error = %v", err)
	}

	entries, err := os.ReadDir(filepath.Dir(l.LockFile()))
	if err != nil {
		t.Fatalf("ReadDir() error = %v", err)
	}
	if len(entries) != 0 {
		t.Errorf("disabled lock created %d files", len(entries))
	}
}

func TestRead_MissingFileInitializes(t *testing.T) {
	l := newTestLock(t, "cam")

	v, err := l.Read()
	if err != nil {
		t.Fatalf("Read() error = %v", err)
	}
	if v != Released {
		t.Errorf("Read() = %d, want %d", v, Released)
	}
	if got, err := readRecord(l.LockFile()); err != nil || got != Released {
		t.Errorf("record = %d, %v; want %d", got, err, Released)
	}
}

func TestRead_BrokenRecordSelfHeals(t *testing.T) {
	tests := []struct {
		name string
		data []byte
	}{
		{"empty", nil},
		{"three bytes", []byte{1, 2, 3}},
		{"seven bytes", []byte{0, 0, 0, 0, 0, 0, 1}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			l := newTestLock(t, "cam", WithLogger(logging.NewWriterLogger(&buf, logging.LevelDebug)))
			seedRecord(t, l.LockFile(), tt.data)

			for i := 0; i < 2; i++ {
				v, err := l.Read()
				if err != nil {
					t.Fatalf("Read() #%d error = %v", i, err)
				}
				if v != Released {
					t.Errorf("Read() #%d = %d, want %d", i, v, Released)
				}
			}

			data, err := os.ReadFile(l.LockFile())
			if err != nil {
				t.Fatalf("ReadFile() error = %v", err)
			}
			if !bytes.Equal(data, encodeRecord(Released)) {
				t.Errorf("record = %v, want repaired Released", data)
			}
			if n := strings.Count(buf.String(), "lock file is broken"); n != 1 {
				t.Errorf("broken warning logged %d times, want 1", n)
			}
		})
	}
}

func TestWrite_FallbackCopy(t *testing.T) {
	var buf bytes.Buffer
	l := newTestLock(t, "cam", WithLogger(logging.NewWriterLogger(&buf, logging.LevelDebug)))
	hold(l)
	l.ops.replace = func(src, dst string) error { return fmt.Errorf("rename refused") }

	if err := l.Write(1234); err != nil {
		t.Fatalf("Write() error = %v", err)
	}
	if v, err := readRecord(l.LockFile()); err != nil || v != 1234 {
		t.Errorf("record = %d, %v; want 1234", v, err)
	}
	out := buf.String()
	if !strings.Contains(out, "falling back to stream copy") {
		t.Error("fallback should be logged")
	}
	if !strings.Contains(out, "lock file has been created") {
		t.Error("creation of the missing lock file should be logged")
	}
	assertNoTempFiles(t, l)
}

func TestWrite_FallbackRetriesExhausted(t *testing.T) {
	tests := []struct {
		name    string
		opts    []Option
		retries int
	}{
		{"default", nil, DefaultMaxRetries},
		{"configured", []Option{WithMaxRetries(3)}, 3},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			l := newTestLock(t, "cam", tt.opts...)
			hold(l)

			copies := 0
			l.ops = fileOps{
				replace: func(src, dst string) error { return fmt.Errorf("rename refused") },
				copy: func(src, dst string) error {
					copies++
					return fmt.Errorf("sharing violation")
				},
			}

			err := l.Write(99)
			if err == nil {
				t.Fatal("Write() expected error")
			}
			if !errors.Is(err, errors.ErrLockWriteExhausted) {
				t.Errorf("Write() error = %v, want ErrLockWriteExhausted", err)
			}
			if !errors.Is(err, errors.ErrLockingFailed) {
				t.Errorf("Write() error = %v, want a locking failure", err)
			}
			if copies != tt.retries {
				t.Errorf("copy attempts = %d, want %d", copies, tt.retries)
			}
			assertNoTempFiles(t, l)
		})
	}
}

func TestWrite_FallbackSucceedsAfterRetry(t *testing.T) {
	l := newTestLock(t, "cam")
	hold(l)

	copies := 0
	l.ops = fileOps{
		replace: func(src, dst string) error { return fmt.Errorf("rename refused") },
		copy: func(src, dst string) error {
			copies++
			if copies < 3 {
				return fmt.Errorf("sharing violation")
			}
			return copyFile(src, dst)
		},
	}

	if err := l.Write(5); err != nil {
		t.Fatalf("Write() error = %v", err)
	}
	if copies != 3 {
		t.Errorf("copy attempts = %d, want 3", copies)
	}
	if v, _ := readRecord(l.LockFile()); v != 5 {
		t.Errorf("record = %d, want 5", v)
	}
}

func TestWrite_TempFilesUnregistered(t *testing.T) {
	reg := cleanup.NewRegistry()
	l := newTestLock(t, "cam", WithCleanup(reg))
	hold(l)

	if err := l.Write(1); err != nil {
		t.Fatalf("Write() error = %v", err)
	}
	if paths := reg.Paths(); len(paths) != 0 {
		t.Errorf("registry = %v, want empty after a clean write", paths)
	}
}

func assertNoTempFiles(t *testing.T, l *Lock) {
	t.Helper()
	matches, err := filepath.Glob(filepath.Join(filepath.Dir(l.LockFile()), "*"+tempMarker+"*"))
	if err != nil {
		t.Fatalf("Glob() error = %v", err)
	}
	if len(matches) != 0 {
		t.Errorf("temp files left behind: %v", matches)
	}
}
