// Package d3plot reads LS-DYNA d3plot files: a fixed-layout mesh and
// state-sequence dump striped across a sequentially-numbered file family
// (spec.md §3, §4.2, §4.5).
package d3plot

import (
	"log/slog"

	"github.com/elliotnunn/dynareadout/internal/d3buffer"
	"github.com/elliotnunn/dynareadout/internal/dconfig"
	"github.com/elliotnunn/dynareadout/internal/familyglob"
	"github.com/elliotnunn/dynareadout/internal/idindex"
	"github.com/elliotnunn/dynareadout/internal/logctx"
	"github.com/elliotnunn/dynareadout/internal/rerror"
)

// File is an open d3plot family: the decoded control data, geometry,
// user-IDs, and header section, plus the word offset of every state so
// ReadState can seek straight to it.
type File struct {
	rerror.LastError

	log *slog.Logger
	buf *d3buffer.Buffer

	cd            *ControlData
	geom          *Geometry
	userIDs       *UserIDs
	headerSection *HeaderSection
	adaptedParent []int64

	stateOffsets []int64

	root string
	idx  *idindex.Index
}

// Open reads root and its numbered siblings (root01, root02, ...) as one
// family, decoding everything up to and including the state-offset scan
// (spec.md §4.2 "Opening a family", §4.5).
func Open(root string, opts ...dconfig.Option) (*File, error) {
	o := dconfig.Apply(opts...)
	log := logctx.Or(o.Logger)

	paths, err := familyglob.Sequential(root)
	if err != nil {
		return nil, err
	}

	buf, err := d3buffer.Open(paths, log)
	if err != nil {
		return nil, err
	}

	f := &File{log: log, buf: buf, root: root}

	if o.IndexDir != "" {
		idx, err := idindex.Open(o.IndexDir)
		if err != nil {
			buf.Close()
			return nil, err
		}
		f.idx = idx
	}

	f.cd, err = readControlData(buf)
	if err != nil {
		buf.Close()
		return nil, err
	}

	f.geom, err = readGeometry(buf, f.cd)
	if err != nil {
		buf.Close()
		return nil, err
	}

	f.userIDs, err = readUserIDs(buf, f.cd)
	if err != nil {
		buf.Close()
		return nil, err
	}

	if err := readExtraConnectivity(buf, f.cd, f.geom); err != nil {
		buf.Close()
		return nil, err
	}

	f.adaptedParent, err = readAdaptedElementParentList(buf, f.cd)
	if err != nil {
		buf.Close()
		return nil, err
	}

	f.headerSection, err = readHeaderSection(buf)
	if err != nil {
		buf.Close()
		return nil, err
	}

	// The first state always begins in the next family member, even when
	// the current member has room left over (original_source d3plot.c,
	// the open-time call to d3_buffer_next_file that precedes the state
	// loop).
	if err := buf.NextFile(); err != nil {
		buf.Close()
		return nil, err
	}

	f.stateOffsets, err = f.loadOrScanStates(buf)
	if err != nil {
		buf.Close()
		return nil, err
	}

	log.Debug("d3plot opened", "title", f.cd.Title, "num_states", len(f.stateOffsets), "num_nodes", f.cd.NUMNP)
	return f, nil
}

// loadOrScanStates returns the cached state-offset table when an
// idindex.Index is configured and warm, else performs the full scan and
// (if configured) seeds the cache for next time (spec.md expansion §4.2d).
func (f *File) loadOrScanStates(buf *d3buffer.Buffer) ([]int64, error) {
	if f.idx == nil {
		return scanStates(buf, f.cd)
	}

	var cached []int64
	for i := 0; ; i++ {
		pos, ok := f.idx.Get(f.root, i)
		if !ok {
			break
		}
		cached = append(cached, pos)
	}
	if len(cached) > 0 {
		return cached, nil
	}

	offsets, err := scanStates(buf, f.cd)
	if err != nil {
		return nil, err
	}
	for i, pos := range offsets {
		if err := f.idx.Put(f.root, i, pos); err != nil {
			f.log.Warn("d3plot: failed to persist state offset", "index", i, "err", err)
			break
		}
	}
	return offsets, nil
}

// ControlData returns the decoded control-data block.
func (f *File) ControlData() *ControlData { return f.cd }

// Geometry returns the decoded node/element geometry.
func (f *File) Geometry() *Geometry { return f.geom }

// UserIDs returns the decoded user-numbering tables (zero value if NARBS==0).
func (f *File) UserIDs() *UserIDs { return f.userIDs }

// HeaderSection returns the decoded part/contact/keyword titles.
func (f *File) HeaderSection() *HeaderSection { return f.headerSection }

// AdaptedElementParentList returns the NADAPT*2 adapted-element parent
// index pairs, or nil when NADAPT==0.
func (f *File) AdaptedElementParentList() []int64 { return f.adaptedParent }

// Title returns the 10-word model title, trimmed of trailing NUL padding.
func (f *File) Title() string { return f.cd.Title }

// NumNodes returns NUMNP.
func (f *File) NumNodes() int64 { return f.cd.NUMNP }

// Close releases every physical file descriptor held by this File.
func (f *File) Close() error {
	err := f.buf.Close()
	if f.idx != nil {
		if idxErr := f.idx.Close(); err == nil {
			err = idxErr
		}
	}
	return err
}
