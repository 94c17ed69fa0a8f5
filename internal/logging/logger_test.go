package logging

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
)

func readEntries(t *testing.T, data []byte) []map[string]any {
	t.Helper()

	var entries []map[string]any
	for _, line := range strings.Split(strings.TrimSpace(string(data)), "\n") {
		if line == "" {
			continue
		}
		var entry map[string]any
		if err := json.Unmarshal([]byte(line), &entry); err != nil {
			t.Fatalf("line is not valid JSON: %q: %v", line, err)
		}
		entries = append(entries, entry)
	}
	return entries
}

func TestNewLogger(t *testing.T) {
	t.Run("creates log file in log directory", func(t *testing.T) {
		dir := filepath.Join(t.TempDir(), "logs")

		logger, err := NewLogger(dir, LevelDebug)
		if err != nil {
			t.Fatalf("NewLogger failed: %v", err)
		}
		defer logger.Close()

		if _, err := os.Stat(filepath.Join(dir, LogFileName)); err != nil {
			t.Errorf("log file was not created: %v", err)
		}
	})

	t.Run("writes to stderr when logDir is empty", func(t *testing.T) {
		logger, err := NewLogger("", LevelInfo)
		if err != nil {
			t.Fatalf("NewLogger failed: %v", err)
		}
		if logger.out.closer != nil {
			t.Error("expected no closer when writing to stderr")
		}
		if err := logger.Close(); err != nil {
			t.Errorf("Close on stderr logger: %v", err)
		}
	})
}

func TestLogLevels(t *testing.T) {
	var buf bytes.Buffer
	logger := NewWriterLogger(&buf, LevelDebug)

	logger.Debug("debug message", "key", "value")
	logger.Info("info message", "key", "value")
	logger.Warn("warn message", "key", "value")
	logger.Error("error message", "key", "value")

	entries := readEntries(t, buf.Bytes())
	if len(entries) != 4 {
		t.Fatalf("expected 4 log lines, got %d", len(entries))
	}

	wantLevels := []string{"DEBUG", "INFO", "WARN", "ERROR"}
	for i, entry := range entries {
		if entry["level"] != wantLevels[i] {
			t.Errorf("line %d: level = %v, want %s", i, entry["level"], wantLevels[i])
		}
		if entry["key"] != "value" {
			t.Errorf("line %d: key = %v, want value", i, entry["key"])
		}
	}
}

func TestLogLevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	logger := NewWriterLogger(&buf, LevelWarn)

	logger.Debug("debug message")
	logger.Info("info message")
	logger.Warn("warn message")
	logger.Error("error message")

	if got := len(readEntries(t, buf.Bytes())); got != 2 {
		t.Fatalf("expected 2 log lines (WARN and ERROR only), got %d: %s", got, buf.String())
	}
}

func TestContextPropagation(t *testing.T) {
	var buf bytes.Buffer
	logger := NewWriterLogger(&buf, LevelInfo)

	child := logger.WithDevice("USB Camera").WithComponent("heartbeat")
	child.Info("heartbeat written", "value", 42)

	// the parent must not pick up the child's attributes
	logger.Info("plain")

	entries := readEntries(t, buf.Bytes())
	if len(entries) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(entries))
	}
	if entries[0]["device"] != "USB Camera" {
		t.Errorf("device = %v, want USB Camera", entries[0]["device"])
	}
	if entries[0]["component"] != "heartbeat" {
		t.Errorf("component = %v, want heartbeat", entries[0]["component"])
	}
	if entries[0]["value"] != float64(42) {
		t.Errorf("value = %v, want 42", entries[0]["value"])
	}
	if _, ok := entries[1]["device"]; ok {
		t.Error("parent logger should not carry device attribute")
	}
}

func TestWith(t *testing.T) {
	var buf bytes.Buffer
	logger := NewWriterLogger(&buf, LevelInfo)

	if logger.With() != logger {
		t.Error("With() without args should return the same logger")
	}

	logger.With("path", "/tmp/x", 7, "dropped", "odd").Info("msg")

	entries := readEntries(t, buf.Bytes())
	if entries[0]["path"] != "/tmp/x" {
		t.Errorf("path = %v, want /tmp/x", entries[0]["path"])
	}
	if _, ok := entries[0]["odd"]; ok {
		t.Error("dangling key should be dropped")
	}
}

func TestNopLogger(t *testing.T) {
	logger := NopLogger()
	logger.Debug("x")
	logger.Info("x")
	logger.Warn("x")
	logger.Error("x")
	if err := logger.Close(); err != nil {
		t.Errorf("Close() = %v", err)
	}
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"debug", LevelDebug},
		{"INFO", LevelInfo},
		{"Warn", LevelWarn},
		{"error", LevelError},
		{"verbose", LevelInfo},
		{"", LevelInfo},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			if got := ParseLevel(tt.in); got != tt.want {
				t.Errorf("ParseLevel(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestValidLevels(t *testing.T) {
	levels := ValidLevels()
	if len(levels) != 4 {
		t.Fatalf("expected 4 levels, got %d", len(levels))
	}
	for _, l := range levels {
		if ParseLevel(l) != l {
			t.Errorf("ParseLevel(%q) should round-trip", l)
		}
	}
}

func TestClose(t *testing.T) {
	dir := t.TempDir()
	logger, err := NewLogger(dir, LevelInfo)
	if err != nil {
		t.Fatalf("NewLogger failed: %v", err)
	}

	child := logger.WithDevice("cam0")
	child.Info("before close")

	if err := child.Close(); err != nil {
		t.Fatalf("Close() = %v", err)
	}
	// second close, through the parent, is a no-op
	if err := logger.Close(); err != nil {
		t.Errorf("second Close() = %v", err)
	}

	data, err := os.ReadFile(filepath.Join(dir, LogFileName))
	if err != nil {
		t.Fatalf("read log: %v", err)
	}
	if !strings.Contains(string(data), "before close") {
		t.Errorf("log does not contain entry: %s", data)
	}
}

func TestConcurrentWrites(t *testing.T) {
	dir := t.TempDir()
	logger, err := NewLogger(dir, LevelInfo)
	if err != nil {
		t.Fatalf("NewLogger failed: %v", err)
	}

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			l := logger.With("worker", n)
			for j := 0; j < 20; j++ {
				l.Info("tick", "j", j)
			}
		}(i)
	}
	wg.Wait()
	logger.Close()

	data, err := os.ReadFile(filepath.Join(dir, LogFileName))
	if err != nil {
		t.Fatalf("read log: %v", err)
	}
	if got := len(readEntries(t, data)); got != 200 {
		t.Errorf("expected 200 entries, got %d", got)
	}
}
