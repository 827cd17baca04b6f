//go:build !linux && !darwin

package xfile

import "os"

// Supported is always false on platforms without a pread fast path;
// callers fall back to os.File.ReadAt.
func Supported(f *os.File) bool { return false }

func PreadAt(f *os.File, p []byte, off int64) (int, error) {
	return f.ReadAt(p, off)
}
