package cleanup

import (
	"os"
	"path/filepath"
	"runtime"
	"testing"
)

func TestRegistry_RegisterAndPaths(t *testing.T) {
	r := NewRegistry()
	r.Register("/tmp/b")
	r.Register("/tmp/a")
	r.Register("/tmp/a")
	r.Register("")

	got := r.Paths()
	if len(got) != 2 || got[0] != "/tmp/a" || got[1] != "/tmp/b" {
		t.Errorf("Paths() = %v, want [/tmp/a /tmp/b]", got)
	}

	r.Unregister("/tmp/a")
	if got := r.Paths(); len(got) != 1 || got[0] != "/tmp/b" {
		t.Errorf("Paths() after Unregister = %v", got)
	}
}

func TestRegistry_Sweep(t *testing.T) {
	dir := t.TempDir()
	present := filepath.Join(dir, ".webcam-lock-1")
	if err := os.WriteFile(present, []byte{0, 0, 0, 0, 0, 0, 0, 1}, 0644); err != nil {
		t.Fatalf("seed: %v", err)
	}
	missing := filepath.Join(dir, "already-gone")

	r := NewRegistry()
	r.Register(present)
	r.Register(missing)

	if r.Swept() {
		t.Error("Swept() = true before Sweep")
	}
	if err := r.Sweep(); err != nil {
		t.Fatalf("Sweep() = %v", err)
	}
	if !r.Swept() {
		t.Error("Swept() = false after Sweep")
	}
	if _, err := os.Stat(present); !os.IsNotExist(err) {
		t.Errorf("registered file still exists, stat err = %v", err)
	}
	if got := r.Paths(); len(got) != 0 {
		t.Errorf("Paths() after Sweep = %v, want empty", got)
	}
}

func TestRegistry_SweepKeepsFailures(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("directory permissions behave differently on windows")
	}
	if os.Getuid() == 0 {
		t.Skip("root ignores directory permissions")
	}

	dir := t.TempDir()
	locked := filepath.Join(dir, "ro")
	if err := os.Mkdir(locked, 0755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	target := filepath.Join(locked, "file")
	if err := os.WriteFile(target, nil, 0644); err != nil {
		t.Fatalf("seed: %v", err)
	}
	if err := os.Chmod(locked, 0555); err != nil {
		t.Fatalf("chmod: %v", err)
	}
	t.Cleanup(func() { _ = os.Chmod(locked, 0755) })

	r := NewRegistry()
	r.Register(target)

	if err := r.Sweep(); err == nil {
		t.Fatal("Sweep() = nil, want error for unremovable file")
	}
	if got := r.Paths(); len(got) != 1 {
		t.Errorf("failed path should stay registered, Paths() = %v", got)
	}
}
