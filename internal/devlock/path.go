package devlock

import (
	"os"
	"path/filepath"
	"strconv"
	"unicode/utf16"
)

// LockPrefix starts the file name of every lock record.
const LockPrefix = ".webcam-lock-"

// tempMarker separates a lock name from the random suffix of its temp files.
const tempMarker = "-tmp"

// LockName returns the lock file name for a device identity. The number is
// the absolute value of the 32-bit polynomial string hash (base 31 over
// UTF-16 code units), so every process, including ones written against the
// same on-disk convention in other runtimes, derives the same name. The
// absolute value wraps like the hash does: an identity hashing to MinInt32
// keeps its sign.
func LockName(identity string) string {
	h := identityHash(identity)
	if h < 0 {
		h = -h
	}
	return LockPrefix + strconv.FormatInt(int64(h), 10)
}

// LockPath joins the lock name for identity with dir. An empty dir means the
// platform temp directory.
func LockPath(dir, identity string) string {
	if dir == "" {
		dir = os.TempDir()
	}
	return filepath.Join(dir, LockName(identity))
}

func identityHash(s string) int32 {
	var h int32
	for _, u := range utf16.Encode([]rune(s)) {
		h = 31*h + int32(u)
	}
	return h
}
