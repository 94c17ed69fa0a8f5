//go:build !windows

package devlock

import "os"

// atomicReplace renames src over dst. rename(2) replaces the target in one
// step, so concurrent readers never see a partial record.
func atomicReplace(src, dst string) error {
	return os.Rename(src, dst)
}
