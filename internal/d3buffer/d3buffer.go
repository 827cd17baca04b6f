// Package d3buffer implements the d3 buffer (spec.md §3 "D3Buffer", §4.2):
// a word-addressable virtual stream over an ordered family of files,
// with runtime-discovered word size.
package d3buffer

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math"

	"github.com/elliotnunn/dynareadout/internal/multifile"
	"github.com/elliotnunn/dynareadout/internal/rerror"
)

// member is one physical file in the family.
type member struct {
	handle *multifile.Handle
	size   int64
}

// Buffer is the virtual word stream (spec.md §3 "D3Buffer").
type Buffer struct {
	members []member
	wordSz  int // 4 or 8

	curFile int
	curWord int64

	log *slog.Logger
}

// WordSize returns the detected word size (4 or 8).
func (b *Buffer) WordSize() int { return b.wordSz }

// NumFiles returns the number of family members.
func (b *Buffer) NumFiles() int { return len(b.members) }

// FileSize returns the byte size of family member i.
func (b *Buffer) FileSize(i int) int64 { return b.members[i].size }

// Open builds a Buffer from an ordered list of family member paths,
// querying each member's size (spec.md §4.2 "Opening a family" is the
// caller's job — see internal/familyglob — this constructor only wires
// the size vector and detects the word size).
func Open(paths []string, log *slog.Logger) (*Buffer, error) {
	if log == nil {
		log = slog.Default()
	}
	if len(paths) == 0 {
		return nil, fmt.Errorf("%w: no files found", rerror.ErrOpenFailed)
	}

	b := &Buffer{log: log}
	for _, p := range paths {
		h := multifile.Open(p, log)
		sz, err := h.Size()
		if err != nil {
			return nil, err
		}
		b.members = append(b.members, member{handle: h, size: sz})
	}

	wordSz, err := detectWordSize(b.members[0].handle)
	if err != nil {
		return nil, err
	}
	b.wordSz = wordSz
	return b, nil
}

// detectWordSize reads the 15th word as both u32 (at byte 60) and u64
// (at byte 120) and checks which lands in [2, 7], the valid NDIM range
// (spec.md §4.2 "Word-size detection").
func detectWordSize(h *multifile.Handle) (int, error) {
	t := h.Access()
	defer h.Return(t)

	var b32 [4]byte
	_, err := h.ReadAt(t, b32[:], 60)
	if err != nil {
		return 0, fmt.Errorf("%w: reading word-size probe (32-bit): %v", rerror.ErrFormatReject, err)
	}
	v32 := binary.LittleEndian.Uint32(b32[:])

	// A file too short to hold the 64-bit probe has no 64-bit candidate.
	var b64 [8]byte
	n64, err := h.ReadAt(t, b64[:], 120)
	if err != nil && !errors.Is(err, io.EOF) {
		return 0, fmt.Errorf("%w: reading word-size probe (64-bit): %v", rerror.ErrFormatReject, err)
	}
	v64 := binary.LittleEndian.Uint64(b64[:])

	ok32 := v32 >= 2 && v32 <= 7
	ok64 := n64 == len(b64) && v64 >= 2 && v64 <= 7
	switch {
	case ok32 && !ok64:
		return 4, nil
	case ok64 && !ok32:
		return 8, nil
	default:
		return 0, fmt.Errorf("%w: ambiguous word size (NDIM candidates %d/%d)", rerror.ErrFormatReject, v32, v64)
	}
}

// locate finds the owning file index and intra-file byte offset for
// logical byte offset b (spec.md §4.2 "Positioned read" step 2).
func (b *Buffer) locate(byteOff int64) (fileIdx int, intraOff int64, err error) {
	remaining := byteOff
	for i, m := range b.members {
		if remaining < m.size {
			return i, remaining, nil
		}
		remaining -= m.size
	}
	return 0, 0, fmt.Errorf("%w: byte offset %d beyond family", rerror.ErrFileFamilyShort, byteOff)
}

// ReadAtWords performs a positioned read of k words starting at word
// position p, crossing file boundaries as needed (spec.md §4.2 "Positioned read").
func (b *Buffer) ReadAtWords(p int64, k int) ([]byte, error) {
	byteOff := p * int64(b.wordSz)
	fileIdx, intraOff, err := b.locate(byteOff)
	if err != nil {
		return nil, err
	}

	out := make([]byte, k*b.wordSz)
	n := 0
	for n < len(out) {
		m := b.members[fileIdx]
		t := m.handle.Access()
		avail := m.size - intraOff
		want := int64(len(out) - n)
		toRead := want
		if toRead > avail {
			toRead = avail
		}
		if toRead > 0 {
			rn, err := m.handle.ReadAt(t, out[n:int64(n)+toRead], intraOff)
			m.handle.Return(t)
			n += rn
			if err != nil && int64(rn) < toRead {
				return out[:n], fmt.Errorf("%w: short read in family member %d: %v", rerror.ErrFileFamilyShort, fileIdx, err)
			}
		} else {
			m.handle.Return(t)
		}
		if n == len(out) {
			break
		}
		fileIdx++
		intraOff = 0
		if fileIdx >= len(b.members) {
			return out[:n], fmt.Errorf("%w: read past last family member", rerror.ErrFileFamilyShort)
		}
	}
	return out, nil
}

// Seq reads k words sequentially from the buffer's current cursor and
// advances the cursor (spec.md §4.2 "Sequential read").
func (b *Buffer) Seq(k int) ([]byte, error) {
	globalWord := b.globalWord()
	data, err := b.ReadAtWords(globalWord, k)
	if err != nil {
		return data, err
	}
	b.advanceCursor(globalWord + int64(k))
	return data, nil
}

// globalWord converts (curFile, curWord) into an absolute word position.
func (b *Buffer) globalWord() int64 {
	var byteOff int64
	for i := 0; i < b.curFile; i++ {
		byteOff += b.members[i].size
	}
	return byteOff/int64(b.wordSz) + b.curWord
}

func (b *Buffer) advanceCursor(globalWord int64) {
	byteOff := globalWord * int64(b.wordSz)
	fileIdx, intraOff, err := b.locate(byteOff)
	if err != nil {
		// Cursor ran off the end; park it at the last file's end so the
		// next read reports ErrFileFamilyShort rather than panicking.
		b.curFile = len(b.members) - 1
		b.curWord = b.members[b.curFile].size / int64(b.wordSz)
		return
	}
	b.curFile = fileIdx
	b.curWord = intraOff / int64(b.wordSz)
}

// NextFile sets the cursor to the start of the next family member
// (spec.md §4.2 "Advance to next file").
func (b *Buffer) NextFile() error {
	if b.curFile+1 >= len(b.members) {
		return fmt.Errorf("%w: no next family member after %d", rerror.ErrFileFamilyShort, b.curFile)
	}
	b.curFile++
	b.curWord = 0
	b.log.Debug("d3buffer advanced to next file", "file_index", b.curFile)
	return nil
}

// SeekWords moves the cursor to an absolute word position without reading.
func (b *Buffer) SeekWords(p int64) {
	b.advanceCursor(p)
}

// TellWords returns the cursor's absolute word position.
func (b *Buffer) TellWords() int64 { return b.globalWord() }

// ReadFloat64Seq reads a single value at the cursor, widening a 32-bit float to float64
// when WordSize()==4, or reading the float64 directly otherwise (spec.md
// §4.2 "Float-and-word conversion").
func (b *Buffer) ReadFloat64Seq() (float64, error) {
	raw, err := b.Seq(1)
	if err != nil {
		return 0, err
	}
	return decodeFloat64(raw, b.wordSz), nil
}

// ReadFloat64At reads a single value at word position p.
func (b *Buffer) ReadFloat64At(p int64) (float64, error) {
	raw, err := b.ReadAtWords(p, 1)
	if err != nil {
		return 0, err
	}
	return decodeFloat64(raw, b.wordSz), nil
}

func decodeFloat64(raw []byte, wordSz int) float64 {
	if wordSz == 4 {
		bits := binary.LittleEndian.Uint32(raw)
		return float64(math.Float32frombits(bits))
	}
	bits := binary.LittleEndian.Uint64(raw)
	return math.Float64frombits(bits)
}

// ReadUintSeq reads a single word at the cursor as an unsigned integer,
// sized by WordSize().
func (b *Buffer) ReadUintSeq() (uint64, error) {
	raw, err := b.Seq(1)
	if err != nil {
		return 0, err
	}
	return decodeUint(raw, b.wordSz), nil
}

func (b *Buffer) ReadUintAt(p int64) (uint64, error) {
	raw, err := b.ReadAtWords(p, 1)
	if err != nil {
		return 0, err
	}
	return decodeUint(raw, b.wordSz), nil
}

func decodeUint(raw []byte, wordSz int) uint64 {
	if wordSz == 4 {
		return uint64(binary.LittleEndian.Uint32(raw))
	}
	return binary.LittleEndian.Uint64(raw)
}

// ReadIntSeq reads a single word as a signed integer.
func (b *Buffer) ReadIntSeq() (int64, error) {
	u, err := b.ReadUintSeq()
	if err != nil {
		return 0, err
	}
	return signExtend(u, b.wordSz), nil
}

func (b *Buffer) ReadIntAt(p int64) (int64, error) {
	u, err := b.ReadUintAt(p)
	if err != nil {
		return 0, err
	}
	return signExtend(u, b.wordSz), nil
}

func signExtend(u uint64, wordSz int) int64 {
	if wordSz == 4 {
		return int64(int32(uint32(u)))
	}
	return int64(u)
}

// DecodeFloat64s widens raw (as produced by [Buffer.Seq] or
// [Buffer.ReadAtWords]) into one float64 per word.
func (b *Buffer) DecodeFloat64s(raw []byte) []float64 {
	n := len(raw) / b.wordSz
	out := make([]float64, n)
	for i := range out {
		out[i] = decodeFloat64(raw[i*b.wordSz:], b.wordSz)
	}
	return out
}

// DecodeInts widens raw into one sign-extended int64 per word.
func (b *Buffer) DecodeInts(raw []byte) []int64 {
	n := len(raw) / b.wordSz
	out := make([]int64, n)
	for i := range out {
		out[i] = signExtend(decodeUint(raw[i*b.wordSz:], b.wordSz), b.wordSz)
	}
	return out
}

// SeqFloat64s reads k words sequentially and widens them to float64.
func (b *Buffer) SeqFloat64s(k int) ([]float64, error) {
	raw, err := b.Seq(k)
	if err != nil {
		return nil, err
	}
	return b.DecodeFloat64s(raw), nil
}

// SeqInts reads k words sequentially as sign-extended integers.
func (b *Buffer) SeqInts(k int) ([]int64, error) {
	raw, err := b.Seq(k)
	if err != nil {
		return nil, err
	}
	return b.DecodeInts(raw), nil
}

// EOFMarker is the literal IEEE-754 double -999999.0 (spec.md §4.5 "EOF marker").
const EOFMarker = -999999.0

// IsEOFMarker reports whether v is bit-for-bit the EOF marker, honoring
// the requirement that a 32-bit-float EOF marker re-widen to the exact
// double value (spec.md §8 "For every W=4 file...").
func IsEOFMarker(v float64) bool { return v == EOFMarker }

// Close closes every family member's descriptor pool.
func (b *Buffer) Close() error {
	var first error
	for _, m := range b.members {
		if err := m.handle.Close(); err != nil && first == nil {
			first = err
		}
	}
	return first
}
