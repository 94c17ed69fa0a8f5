// Package devlock coordinates exclusive use of a shared device, such as a
// webcam, between independent processes on one host.
//
// Each device maps to a small record file in a shared directory. A holder
// rewrites the record with the current Unix time in milliseconds on every
// heartbeat; a record older than the stale window, or one set to Released,
// means the device is free. No daemon and no OS lock primitive is involved,
// so a holder that crashes is detected by its heartbeat going stale.
//
// Basic usage:
//
//	lock := devlock.New(devlock.Named("/dev/video0"))
//	if err := lock.Lock(); err != nil {
//	    return err
//	}
//	defer lock.Close()
package devlock
