package d3buffer

import (
	"encoding/binary"
	"math"
	"os"
	"path/filepath"
	"testing"
)

// buildFile32 constructs a minimal d3plot-header-shaped file using 4-byte
// words, with NDIM (word 15, byte offset 60) set to ndim.
func buildFile32(t *testing.T, dir, name string, ndim uint32, extraWords int) string {
	t.Helper()
	buf := make([]byte, (16+extraWords)*4)
	binary.LittleEndian.PutUint32(buf[60:], ndim)
	p := filepath.Join(dir, name)
	if err := os.WriteFile(p, buf, 0o644); err != nil {
		t.Fatal(err)
	}
	return p
}

func TestDetectWordSize32(t *testing.T) {
	dir := t.TempDir()
	p := buildFile32(t, dir, "d3plot", 3, 200)
	b, err := Open([]string{p}, nil)
	if err != nil {
		t.Fatal(err)
	}
	if b.WordSize() != 4 {
		t.Fatalf("got word size %d want 4", b.WordSize())
	}
}

func TestDetectWordSize64(t *testing.T) {
	dir := t.TempDir()
	buf := make([]byte, 16*8+800)
	binary.LittleEndian.PutUint64(buf[120:], 3)
	// Make the 32-bit candidate land outside [2,7].
	binary.LittleEndian.PutUint32(buf[60:], 99)
	p := filepath.Join(dir, "d3plot")
	if err := os.WriteFile(p, buf, 0o644); err != nil {
		t.Fatal(err)
	}
	b, err := Open([]string{p}, nil)
	if err != nil {
		t.Fatal(err)
	}
	if b.WordSize() != 8 {
		t.Fatalf("got word size %d want 8", b.WordSize())
	}
}

func TestAmbiguousWordSizeRejected(t *testing.T) {
	dir := t.TempDir()
	buf := make([]byte, 16*8+800)
	binary.LittleEndian.PutUint32(buf[60:], 3) // valid 32-bit candidate
	binary.LittleEndian.PutUint64(buf[120:], 3) // valid 64-bit candidate too
	p := filepath.Join(dir, "d3plot")
	if err := os.WriteFile(p, buf, 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := Open([]string{p}, nil); err == nil {
		t.Fatal("expected ambiguous word size to be rejected")
	}
}

func TestCrossFileRead(t *testing.T) {
	dir := t.TempDir()
	p0 := buildFile32(t, dir, "d3plot", 3, 200)

	// Second family member with a few known bytes at its start.
	p1 := filepath.Join(dir, "d3plot01")
	tail := []byte{0xAA, 0xBB, 0xCC, 0xDD}
	if err := os.WriteFile(p1, tail, 0o644); err != nil {
		t.Fatal(err)
	}

	b, err := Open([]string{p0, p1}, nil)
	if err != nil {
		t.Fatal(err)
	}

	fi, err := os.Stat(p0)
	if err != nil {
		t.Fatal(err)
	}
	lastWord := fi.Size()/4 - 1

	data, err := b.ReadAtWords(lastWord, 2)
	if err != nil {
		t.Fatal(err)
	}
	if len(data) != 8 {
		t.Fatalf("got %d bytes", len(data))
	}
	if data[4] != 0xAA || data[5] != 0xBB || data[6] != 0xCC || data[7] != 0xDD {
		t.Fatalf("cross-file bytes wrong: %v", data[4:8])
	}
}

func TestEOFMarkerWidening(t *testing.T) {
	var b32 [4]byte
	binary.LittleEndian.PutUint32(b32[:], math.Float32bits(float32(EOFMarker)))
	widened := float64(math.Float32frombits(binary.LittleEndian.Uint32(b32[:])))
	if !IsEOFMarker(widened) {
		t.Fatalf("widened value %v did not match EOF marker", widened)
	}
}

func TestReadPastLastFileFails(t *testing.T) {
	dir := t.TempDir()
	p := buildFile32(t, dir, "d3plot", 3, 10)
	b, err := Open([]string{p}, nil)
	if err != nil {
		t.Fatal(err)
	}
	_, err = b.ReadAtWords(10000, 1)
	if err == nil {
		t.Fatal("expected error reading past last file")
	}
}
