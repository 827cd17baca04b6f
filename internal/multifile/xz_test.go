package multifile

import (
	"os"
	"os/exec"
	"path/filepath"
	"testing"
)

// TestXZSiblingTransparentDecompression exercises the .xz-sibling fallback
// (spec.md expansion §4.2b). It shells out to the system xz binary to
// build the fixture; if xz isn't installed, the test is skipped rather
// than failed.
func TestXZSiblingTransparentDecompression(t *testing.T) {
	xzBin, err := exec.LookPath("xz")
	if err != nil {
		t.Skip("xz binary not available")
	}

	dir := t.TempDir()
	plain := filepath.Join(dir, "d3plot")
	content := []byte("0123456789abcdef")
	if err := os.WriteFile(plain, content, 0o644); err != nil {
		t.Fatal(err)
	}

	cmd := exec.Command(xzBin, "-z", "-k", plain)
	if out, err := cmd.CombinedOutput(); err != nil {
		t.Fatalf("xz failed: %v: %s", err, out)
	}
	if err := os.Remove(plain); err != nil {
		t.Fatal(err)
	}

	h := Open(plain, nil)
	defer h.Close()

	sz, err := h.Size()
	if err != nil {
		t.Fatal(err)
	}
	if sz != int64(len(content)) {
		t.Fatalf("got size %d want %d", sz, len(content))
	}

	tk := h.Access()
	defer h.Return(tk)
	buf := make([]byte, len(content))
	if _, err := h.ReadAt(tk, buf, 0); err != nil {
		t.Fatal(err)
	}
	if string(buf) != string(content) {
		t.Fatalf("got %q want %q", buf, content)
	}
}
