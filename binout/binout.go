// Package binout reads LS-DYNA binout files: a tagged CD/DATA record
// stream presenting a virtual filesystem of named, per-timestep
// variables, usually spread across a family of physical files opened
// by shell-pattern expansion (spec.md §3, §4.4).
package binout

import (
	"fmt"
	"io"
	"log/slog"

	"github.com/elliotnunn/dynareadout/internal/binoutdir"
	"github.com/elliotnunn/dynareadout/internal/dconfig"
	"github.com/elliotnunn/dynareadout/internal/familyglob"
	"github.com/elliotnunn/dynareadout/internal/logctx"
	"github.com/elliotnunn/dynareadout/internal/multifile"
	"github.com/elliotnunn/dynareadout/internal/pathview"
	"github.com/elliotnunn/dynareadout/internal/rerror"
)

// File is an open binout family: one directory tree built from every
// member's CD/DATA records, and one multifile.Handle per physical file
// so later reads can seek straight to a variable's payload.
type File struct {
	rerror.LastError

	log     *slog.Logger
	dir     *binoutdir.Directory
	handles []*multifile.Handle
	paths   []string

	// skipped records, by physical_file_index, the reason a family
	// member stopped parsing early (spec.md §7 "SkippableFile"). A
	// present-but-partially-read member still contributes whatever
	// records it managed to parse before the failure.
	skipped map[int]error
}

// Open expands pattern with doublestar (a bare path matches itself) and
// parses every matched file's record stream in sorted order, building
// one combined directory (spec.md §4.4 "Globbing", §4.4 "On open").
func Open(pattern string, opts ...dconfig.Option) (*File, error) {
	o := dconfig.Apply(opts...)
	log := logctx.Or(o.Logger)

	paths, err := familyglob.Pattern(pattern)
	if err != nil {
		return nil, err
	}

	f := &File{
		log:     log,
		dir:     binoutdir.New(),
		paths:   paths,
		skipped: make(map[int]error),
	}
	for i, p := range paths {
		h := multifile.Open(p, log)
		f.handles = append(f.handles, h)
		if err := f.parseMember(i, h); err != nil {
			f.skipped[i] = fmt.Errorf("%w: %s: %v", rerror.ErrSkippableFile, p, err)
			log.Warn("binout member parse stopped early", "path", p, "err", err)
		}
	}
	return f, nil
}

// parseMember walks one physical file's record stream from its header
// to EOF, inserting DATA records into f.dir under the path last set by
// a CD record (spec.md §4.4 "Record loop").
func (f *File) parseMember(physIdx int, h *multifile.Handle) error {
	tk := h.Access()
	defer h.Return(tk)

	hdrBuf := make([]byte, 8)
	if _, err := readFull(h, tk, hdrBuf, 0); err != nil {
		return fmt.Errorf("reading header: %w", err)
	}
	hdr, err := parseHeader(hdrBuf)
	if err != nil {
		return err
	}

	pos := int64(hdr.headerSize)
	if pos < 8 {
		pos = 8
	}

	lcWidth := int(hdr.lengthFieldSize) + int(hdr.commandFieldSize)
	var currentElems []string

	for {
		lcBuf := make([]byte, lcWidth)
		n, err := h.ReadAt(tk, lcBuf, pos)
		if err == io.EOF && n == 0 {
			return nil // clean end of this member
		}
		if err != nil && err != io.EOF {
			return fmt.Errorf("reading record header at %d: %w", pos, err)
		}
		if n < lcWidth {
			return fmt.Errorf("truncated record header at %d", pos)
		}

		recordLength := int64(readWidth(lcBuf[:hdr.lengthFieldSize], int(hdr.lengthFieldSize)))
		command := readWidth(lcBuf[hdr.lengthFieldSize:], int(hdr.commandFieldSize))
		payloadLen := recordLength - int64(lcWidth)
		if payloadLen < 0 {
			return fmt.Errorf("negative payload length at %d", pos)
		}
		payloadStart := pos + int64(lcWidth)

		switch command {
		case cmdCD:
			buf := make([]byte, payloadLen)
			if _, err := readFull(h, tk, buf, payloadStart); err != nil {
				return fmt.Errorf("reading CD payload at %d: %w", payloadStart, err)
			}
			path := string(buf)
			elems := pathview.Elements(path)
			if pathview.Absolute(path) || len(currentElems) == 0 {
				currentElems = elems
			} else {
				currentElems = pathview.JoinCurrent(currentElems, elems)
			}

		case cmdData:
			typeWidth := int(hdr.typeIDFieldSize)
			head := make([]byte, typeWidth+1)
			if _, err := readFull(h, tk, head, payloadStart); err != nil {
				return fmt.Errorf("reading DATA head at %d: %w", payloadStart, err)
			}
			typeID := binoutdir.VariableType(readWidth(head[:typeWidth], typeWidth))
			nameLen := int(head[typeWidth])
			nameBuf := make([]byte, nameLen)
			nameOff := payloadStart + int64(typeWidth) + 1
			if _, err := readFull(h, tk, nameBuf, nameOff); err != nil {
				return fmt.Errorf("reading DATA name at %d: %w", nameOff, err)
			}
			name := string(nameBuf)
			dataOffset := nameOff + int64(nameLen)
			dataSize := payloadLen - int64(typeWidth) - 1 - int64(nameLen)
			if dataSize < 0 {
				return fmt.Errorf("negative DATA payload size at %d", pos)
			}
			f.dir.InsertFile(currentElems, &binoutdir.File{
				Name:         name,
				Type:         typeID,
				PayloadSize:  dataSize,
				PhysicalFile: physIdx,
				Offset:       dataOffset,
			})

		case cmdNull, cmdVariable, cmdBeginSymbolTable, cmdEndSymbolTable, cmdSymbolTableOffset:
			// Not surfaced through the directory; skip the payload.
		default:
			f.log.Debug("binout: unrecognized command, skipping", "command", command, "offset", pos)
		}

		pos += recordLength
	}
}

func readFull(h *multifile.Handle, tk multifile.Ticket, buf []byte, off int64) (int, error) {
	n, err := h.ReadAt(tk, buf, off)
	if err != nil {
		return n, err
	}
	if n < len(buf) {
		return n, io.ErrUnexpectedEOF
	}
	return n, nil
}

// VariableExists reports whether a fully-qualified variable path resolves.
func (f *File) VariableExists(path string) bool { return f.dir.VariableExists(path) }

// ChildNames lists the children of a folder path, in on-disk order. The
// root path ("" or "/") lists the top-level folders.
func (f *File) ChildNames(path string) ([]string, error) {
	f.Clear()
	elems := pathview.Elements(path)
	if len(elems) == 0 {
		names := make([]string, len(f.dir.Top))
		for i, top := range f.dir.Top {
			names[i] = top.Name
		}
		return names, nil
	}
	folder := f.dir.FindFolder(elems)
	if folder == nil {
		err := fmt.Errorf("%w: %s", rerror.ErrPathNotFound, path)
		f.Set(err)
		return nil, err
	}
	return folder.ChildNames(), nil
}

// SkippedFiles returns the parse errors for family members that stopped
// early, keyed by their file path (spec.md §7 "SkippableFile").
func (f *File) SkippedFiles() map[string]error {
	out := make(map[string]error, len(f.skipped))
	for idx, err := range f.skipped {
		out[f.paths[idx]] = err
	}
	return out
}

// Close releases every physical file descriptor held by this File.
func (f *File) Close() error {
	var first error
	for _, h := range f.handles {
		if err := h.Close(); err != nil && first == nil {
			first = err
		}
	}
	return first
}
