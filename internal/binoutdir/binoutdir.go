// Package binoutdir implements the binout directory: a tree rooted at
// "/" whose inner nodes are folders (all-folders-or-all-files children)
// and whose leaves describe where a variable's payload lives in the
// physical file family (spec.md §3 "Binout directory", §4.3).
package binoutdir

import (
	"fmt"
	"sort"
	"strings"

	"github.com/elliotnunn/dynareadout/internal/pathview"
	"github.com/elliotnunn/dynareadout/internal/rerror"
)

// VariableType is one of the ten binout/d3plot scalar codes (spec.md §6.3).
type VariableType uint8

const (
	Int8 VariableType = iota + 1
	Int16
	Int32
	Int64
	Uint8
	Uint16
	Uint32
	Uint64
	Float32
	Float64
	Invalid VariableType = 255
)

// File is a leaf: a variable's payload location.
type File struct {
	Name            string
	Type            VariableType
	PayloadSize     int64
	PhysicalFile    int
	Offset          int64
}

// Folder is an inner node. Children are either all folders (Folders
// non-nil, Files nil) or all files (Files non-nil, Folders nil) — modeled
// as a tagged variant, not a heterogeneous list, per spec.md §9.
type Folder struct {
	Name    string
	Folders []*Folder
	Files   []*File
}

// Directory is the tree root: a flat ordered list of top-level folders.
type Directory struct {
	Top []*Folder
}

func New() *Directory { return &Directory{} }

func findFolder(list []*Folder, name string) *Folder {
	for _, f := range list {
		if f.Name == name {
			return f
		}
	}
	return nil
}

// InsertFolder recursively descends path, creating missing ancestors, and
// appends the final folder if not already present by name (spec.md §4.3
// "Insert folder at path").
func (d *Directory) InsertFolder(elems []string) *Folder {
	if len(elems) == 0 {
		return nil
	}
	list := &d.Top
	var cur *Folder
	for _, name := range elems {
		f := findFolder(*list, name)
		if f == nil {
			f = &Folder{Name: name}
			*list = append(*list, f)
		}
		cur = f
		list = &f.Folders
	}
	return cur
}

// InsertFile recursively descends path (folders only) creating missing
// ancestors, then appends a File — or silently skips if a file with the
// same name already exists at that level: first-write-wins, never
// duplicate (spec.md §4.3 "Insert file at path").
func (d *Directory) InsertFile(dirElems []string, file *File) {
	list := &d.Top
	var parent *Folder
	for _, name := range dirElems {
		f := findFolder(*list, name)
		if f == nil {
			f = &Folder{Name: name}
			*list = append(*list, f)
		}
		parent = f
		list = &f.Folders
	}
	if parent == nil {
		return // files cannot live at the absolute root; caller error
	}
	for _, existing := range parent.Files {
		if existing.Name == file.Name {
			return // first-write-wins
		}
	}
	parent.Files = append(parent.Files, file)
}

// dTimestep matches folder names like "d000001" used to hold per-timestep
// siblings under a common parent (spec.md §3 "Binout directory" bullet 3).
func dTimestep(name string) (int, bool) {
	if len(name) < 2 || name[0] != 'd' {
		return 0, false
	}
	digits := name[1:]
	for _, c := range digits {
		if c < '0' || c > '9' {
			return 0, false
		}
	}
	var n int
	for _, c := range digits {
		n = n*10 + int(c-'0')
	}
	return n, true
}

// GetFile looks up an absolute path of at least three elements (root,
// one folder, filename), advancing element-by-element with linear
// search at each level (spec.md §4.3 "Lookup").
//
// The final element alone honors the "dNNNNNN folders are interchangeable"
// idiosyncrasy (spec.md §9 Open Question 3): if an exact folder-name match
// isn't found but the looked-for and candidate names are both dNNNNNN
// timestep folders, they're treated as equivalent. This never applies to
// intermediate path elements.
func (d *Directory) GetFile(absPath string) (*File, error) {
	elems := pathview.Elements(absPath)
	if len(elems) < 2 {
		return nil, fmt.Errorf("%w: %s", rerror.ErrPathNotFound, absPath)
	}

	list := d.Top
	for i, name := range elems[:len(elems)-1] {
		var f *Folder
		if i == len(elems)-2 {
			// Final folder level: apply the dNNNNNN path-compatible rule
			// (spec.md §9 Open Question 3). Never applied at intermediate levels.
			f = findFolderPathCompatible(list, name)
		} else {
			f = findFolder(list, name)
		}
		if f == nil {
			return nil, fmt.Errorf("%w: %s", rerror.ErrPathNotFound, absPath)
		}
		if i == len(elems)-2 {
			for _, file := range f.Files {
				if file.Name == elems[len(elems)-1] {
					return file, nil
				}
			}
			return nil, fmt.Errorf("%w: %s", rerror.ErrPathNotFound, absPath)
		}
		list = f.Folders
	}
	return nil, fmt.Errorf("%w: %s", rerror.ErrPathNotFound, absPath)
}

// findFolderPathCompatible matches by exact name first; failing that, if
// name is itself dNNNNNN-shaped, it matches the first dNNNNNN-shaped
// folder in list (the two are considered interchangeable — see GetFile).
func findFolderPathCompatible(list []*Folder, name string) *Folder {
	if f := findFolder(list, name); f != nil {
		return f
	}
	if _, ok := dTimestep(name); !ok {
		return nil
	}
	for _, f := range list {
		if _, ok := dTimestep(f.Name); ok {
			return f
		}
	}
	return nil
}

// VariableExists reports whether GetFile would succeed.
func (d *Directory) VariableExists(absPath string) bool {
	_, err := d.GetFile(absPath)
	return err == nil
}

// ChildNames lists the names of a folder's children, in insertion order.
func (f *Folder) ChildNames() []string {
	if f.Folders != nil {
		names := make([]string, len(f.Folders))
		for i, c := range f.Folders {
			names[i] = c.Name
		}
		return names
	}
	names := make([]string, len(f.Files))
	for i, c := range f.Files {
		names[i] = c.Name
	}
	return names
}

// FindFolder locates a folder by absolute path (folders only, no final
// filename component) for read_timed's parent resolution.
func (d *Directory) FindFolder(elems []string) *Folder {
	list := d.Top
	var cur *Folder
	for _, name := range elems {
		cur = findFolder(list, name)
		if cur == nil {
			return nil
		}
		list = cur.Folders
	}
	return cur
}

// TimestepChildren returns a folder's dNNNNNN children sorted ascending
// by their numeric suffix (spec.md §4.3 "Ordering": on-disk order
// determines logical order, which for timestep folders is numeric).
func (f *Folder) TimestepChildren() []*Folder {
	var out []*Folder
	for _, c := range f.Folders {
		if _, ok := dTimestep(c.Name); ok {
			out = append(out, c)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		ni, _ := dTimestep(out[i].Name)
		nj, _ := dTimestep(out[j].Name)
		return ni < nj
	})
	return out
}

// Width returns the on-disk byte width of a scalar type code, or 0 for
// an unrecognized/Invalid code.
func Width(t VariableType) int {
	switch t {
	case Int8, Uint8:
		return 1
	case Int16, Uint16:
		return 2
	case Int32, Uint32, Float32:
		return 4
	case Int64, Uint64, Float64:
		return 8
	default:
		return 0
	}
}

// JoinAbs joins path elements into an absolute "/"-prefixed string.
func JoinAbs(elems []string) string {
	return "/" + strings.Join(elems, "/")
}
