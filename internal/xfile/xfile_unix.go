//go:build linux || darwin

// Package xfile provides a pread-based fast path for multi-file ticket
// reads, avoiding the seek+read pair libc's ReadAt already serializes
// internally — the same platform split the teacher uses for
// internal/fileid (fileid_linux.go / fileid_darwin.go / fileid_otherunix.go
// / fileid_others.go).
package xfile

import (
	"io"
	"os"

	"golang.org/x/sys/unix"
)

// Supported reports whether the fast path is available for f.
func Supported(f *os.File) bool { return f != nil }

// PreadAt reads len(p) bytes from f at off via a single pread(2) syscall.
// A read shorter than len(p) is reported with io.EOF, as os.File.ReadAt
// reports it.
func PreadAt(f *os.File, p []byte, off int64) (int, error) {
	n, err := unix.Pread(int(f.Fd()), p, off)
	if err != nil {
		return n, &os.PathError{Op: "pread", Path: f.Name(), Err: err}
	}
	if n < len(p) {
		return n, io.EOF
	}
	return n, nil
}
