// Package logging provides structured logging for camlock.
//
// This package wraps Go's log/slog to provide JSON-formatted logs. The lock
// subsystem reports through it when a lock file is created, when a broken
// record is repaired, when the atomic rename falls back to copying and when
// the copy retries are exhausted.
//
// # Thread Safety
//
// All types in this package are safe for concurrent use. Child loggers
// created via With* methods share the parent's sink; closing any of them
// closes the sink.
//
// # Basic Usage
//
//	logger, err := logging.NewLogger("/var/log/camlock", "INFO")
//	if err != nil {
//	    return err
//	}
//	defer logger.Close()
//
//	devLogger := logger.WithDevice("USB Camera").WithComponent("heartbeat")
//	devLogger.Warn("lock file is broken, recreating it", "path", path)
//
// Output:
//
//	{"time":"...","level":"WARN","msg":"lock file is broken, recreating it","device":"USB Camera","component":"heartbeat","path":"..."}
//
// # Log Rotation
//
//	logger, err := logging.NewLoggerWithRotation(dir, "INFO", logging.RotationConfig{
//	    MaxSizeMB:  10,
//	    MaxBackups: 3,
//	    Compress:   true,
//	})
//
// Rotated files are named camlock.log.1 (newest) through camlock.log.N, with
// a .gz suffix when compression is enabled.
//
// # Testing
//
// Use [NopLogger] to discard output, or [NewWriterLogger] with a
// bytes.Buffer to assert on entries.
package logging
