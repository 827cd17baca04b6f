// Package multifile implements the thread-safe descriptor pool for one
// physical file (spec.md §4.1 "Multi-file handle"). A [Handle] is shared
// across goroutines; each [Access] call returns a [Ticket] bound to one
// exclusively-held descriptor slot, released with [Return].
//
// The slot vector is a textbook bounded resource pool (spec.md §9
// "Multi-file as an arena of descriptors"): tickets carry indices, not
// pointers, so the vector may grow under the guard without invalidating
// outstanding tickets — the same shape as the teacher's concurrent.go
// multiplexer/organizer pair, simplified down to this package's simpler
// "trylock over a slot vector" requirement.
package multifile

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"sync"

	"github.com/elliotnunn/dynareadout/internal/blobcache"
	"github.com/elliotnunn/dynareadout/internal/rerror"
	"github.com/elliotnunn/dynareadout/internal/xfile"
	"github.com/therootcompany/xz"
)

// Ticket is an opaque handle binding a caller to one descriptor slot.
// A Ticket with index -1 is the sentinel that every operation refuses;
// Access never returns it. When the file cannot be opened, Access still
// returns a ticket whose slot holds the open error, and every read through
// it fails with that error (spec.md §4.1 "Failure").
type Ticket struct {
	idx int // index into Handle.slots, or -1 for the sentinel
}

func (t Ticket) Valid() bool { return t.idx >= 0 }

type slot struct {
	mu   sync.Mutex // per-slot guard; trylock used to find a free slot
	file *os.File
	err  error // sticky open error for this slot's descriptor
}

var blockCache = blobcache.New(256)

// Handle is a process-shared descriptor pool keyed by one absolute path.
// If path itself doesn't exist but path+".xz" does, the handle serves
// the decompressed contents of the .xz sibling transparently (spec.md
// expansion §4.2b) — a family member may be shipped compressed.
type Handle struct {
	path string
	log  *slog.Logger

	guard sync.Mutex // multi_file.guard: only ever held briefly, no I/O under it
	slots []*slot

	xzData []byte // non-nil when serving a decompressed .xz sibling
}

// Open creates a Handle for path without opening any descriptor yet —
// physical opens are lazy, on first Access of a given slot.
func Open(path string, log *slog.Logger) *Handle {
	if log == nil {
		log = slog.Default()
	}
	return &Handle{path: path, log: log}
}

// resolvePath reports the on-disk path this handle should open: path
// itself if it exists, else path+".xz" if that exists (decompressed
// lazily by ensureOpen).
func (h *Handle) resolvePath() (diskPath string, isXZ bool) {
	if _, err := os.Stat(h.path); err == nil {
		return h.path, false
	}
	if _, err := os.Stat(h.path + ".xz"); err == nil {
		return h.path + ".xz", true
	}
	return h.path, false
}

// Access walks the slot vector under the guard and returns the first slot
// whose lock can be taken non-blockingly, opening its descriptor on first
// use. If none is free, a new slot is appended. The guard is released
// before any I/O (spec.md §4.1 "Algorithm", §5 "Suspension points").
func (h *Handle) Access() Ticket {
	h.guard.Lock()
	for i, s := range h.slots {
		if s.mu.TryLock() {
			h.guard.Unlock()
			h.ensureOpen(s)
			return Ticket{idx: i}
		}
	}
	s := &slot{}
	s.mu.Lock()
	h.slots = append(h.slots, s)
	idx := len(h.slots) - 1
	h.guard.Unlock()
	h.ensureOpen(s)
	return Ticket{idx: idx}
}

func (h *Handle) ensureOpen(s *slot) {
	if s.file != nil || s.err != nil {
		return
	}
	diskPath, isXZ := h.resolvePath()
	if isXZ {
		if err := h.ensureXZDecoded(diskPath); err != nil {
			s.err = err
			return
		}
		return // reads are served from h.xzData directly, no descriptor needed
	}
	f, err := os.Open(diskPath)
	if err != nil {
		s.err = fmt.Errorf("%w: %s: %v", rerror.ErrOpenFailed, h.path, err)
		h.log.Debug("multifile open failed", "path", h.path, "err", err)
		return
	}
	s.file = f
}

// ensureXZDecoded decompresses an .xz family member once and memoizes
// the result in the shared block cache, keyed by the plain (non-.xz)
// logical path (spec.md expansion §4.2b/§4.2c).
func (h *Handle) ensureXZDecoded(xzPath string) error {
	if h.xzData != nil {
		return nil
	}
	if cached, ok := blockCache.Get(blobcache.Key{FamilyID: h.path}); ok {
		h.xzData = cached
		return nil
	}
	f, err := os.Open(xzPath)
	if err != nil {
		return fmt.Errorf("%w: %s: %v", rerror.ErrOpenFailed, xzPath, err)
	}
	defer f.Close()
	zr, err := xz.NewReader(f, xz.DefaultDictMax)
	if err != nil {
		return fmt.Errorf("%w: %s: %v", rerror.ErrFormatReject, xzPath, err)
	}
	data, err := io.ReadAll(zr)
	if err != nil {
		return fmt.Errorf("%w: %s: %v", rerror.ErrFileFamilyShort, xzPath, err)
	}
	h.xzData = data
	blockCache.Add(blobcache.Key{FamilyID: h.path}, data)
	h.log.Debug("decompressed xz family member", "path", xzPath, "bytes", len(data))
	return nil
}

// Return releases the per-slot lock. It must be called exactly once per
// successful Access, and never concurrently with an operation still using
// the ticket.
func (h *Handle) Return(t Ticket) {
	if !t.Valid() {
		return
	}
	h.guard.Lock()
	s := h.slots[t.idx]
	h.guard.Unlock()
	s.mu.Unlock()
}

func (h *Handle) slotFor(t Ticket) (*slot, error) {
	if !t.Valid() {
		return nil, fmt.Errorf("%w: invalid ticket", rerror.ErrOpenFailed)
	}
	h.guard.Lock()
	s := h.slots[t.idx]
	h.guard.Unlock()
	if s.err != nil {
		return nil, s.err
	}
	return s, nil
}

// ReadAt reads len(p) bytes at off using the descriptor bound to t. It
// takes the guard briefly to look up t's slot; the read itself runs
// outside the guard (spec.md §4.1 "Algorithm").
func (h *Handle) ReadAt(t Ticket, p []byte, off int64) (int, error) {
	s, err := h.slotFor(t)
	if err != nil {
		return 0, err
	}
	if h.xzData != nil {
		return readAtBytes(h.xzData, p, off)
	}
	if xfile.Supported(s.file) {
		return xfile.PreadAt(s.file, p, off)
	}
	return s.file.ReadAt(p, off)
}

func readAtBytes(data []byte, p []byte, off int64) (int, error) {
	if off < 0 || off >= int64(len(data)) {
		return 0, io.EOF
	}
	n := copy(p, data[off:])
	if n < len(p) {
		return n, io.EOF
	}
	return n, nil
}

// Size returns the logical byte size: the decompressed size when serving
// an .xz sibling, else the physical file's size.
func (h *Handle) Size() (int64, error) {
	diskPath, isXZ := h.resolvePath()
	if isXZ {
		s := h.Access()
		defer h.Return(s)
		if h.xzData == nil {
			if _, err := h.slotFor(s); err != nil {
				return 0, err
			}
		}
		return int64(len(h.xzData)), nil
	}
	fi, err := os.Stat(diskPath)
	if err != nil {
		return 0, fmt.Errorf("%w: %s: %v", rerror.ErrOpenFailed, h.path, err)
	}
	return fi.Size(), nil
}

// Close closes every descriptor opened by this handle. Callers must
// ensure no tickets are outstanding.
func (h *Handle) Close() error {
	h.guard.Lock()
	defer h.guard.Unlock()
	var first error
	for _, s := range h.slots {
		if s.file != nil {
			if err := s.file.Close(); err != nil && first == nil {
				first = err
			}
		}
	}
	h.slots = nil
	return first
}

var _ io.ReaderAt = (*ticketReaderAt)(nil)

// ticketReaderAt adapts a (Handle, Ticket) pair to io.ReaderAt for
// callers that want a plain reader.
type ticketReaderAt struct {
	h *Handle
	t Ticket
}

func (r *ticketReaderAt) ReadAt(p []byte, off int64) (int, error) {
	return r.h.ReadAt(r.t, p, off)
}

// AsReaderAt wraps h/t as an io.ReaderAt bound to the ticket's lifetime.
func AsReaderAt(h *Handle, t Ticket) io.ReaderAt {
	return &ticketReaderAt{h: h, t: t}
}
