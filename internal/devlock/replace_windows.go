//go:build windows

package devlock

import "golang.org/x/sys/windows"

// atomicReplace moves src over dst with MoveFileEx. The move is refused
// while another process has dst open without FILE_SHARE_DELETE, which is
// when the copy fallback takes over.
func atomicReplace(src, dst string) error {
	from, err := windows.UTF16PtrFromString(src)
	if err != nil {
		return err
	}
	to, err := windows.UTF16PtrFromString(dst)
	if err != nil {
		return err
	}
	return windows.MoveFileEx(from, to, windows.MOVEFILE_REPLACE_EXISTING|windows.MOVEFILE_WRITE_THROUGH)
}
