// Package pathview provides a zero-copy, element-wise view into a
// "/"-separated path string: binout and d3plot paths are short-lived
// per-record strings, not long-lived map keys, so a view into the
// original payload buffer is cheaper than building and interning a
// shared structure.
package pathview

import "strings"

// View indexes a single element of path by an inclusive [Start, End]
// window. The zero View over a non-empty path covers the first element.
type View struct {
	path       string
	start, end int
}

// New returns a View over the first element of path. If path is empty,
// the returned View has no element (Peek returns "", Advance returns false).
func New(path string) View {
	v := View{path: path}
	if path == "" {
		v.start, v.end = 0, -1
		return v
	}
	v.end = nextSep(path, 0) - 1
	return v
}

// Absolute reports whether path begins with "/".
func Absolute(path string) bool {
	return len(path) > 0 && path[0] == '/'
}

// Peek returns the element currently covered by the view.
func (v View) Peek() string {
	if v.end < v.start {
		return ""
	}
	return v.path[v.start : v.end+1]
}

// More reports whether the view covers a valid element.
func (v View) More() bool {
	return v.start <= v.end && v.end < len(v.path)
}

// Equal compares the current element to a literal string.
func (v View) Equal(lit string) bool { return v.Peek() == lit }

// Advance moves the view to the next element, returning false ("no more")
// once the end of path has been passed.
func (v View) Advance() (View, bool) {
	next := v.end + 2 // skip the separator after the current element
	if next > len(v.path) {
		return View{path: v.path, start: len(v.path), end: len(v.path) - 1}, false
	}
	end := nextSep(v.path, next) - 1
	nv := View{path: v.path, start: next, end: end}
	return nv, true
}

// nextSep returns the index one past the element starting at from: either
// the index of the next "/" or len(path) if none remains.
func nextSep(path string, from int) int {
	if from >= len(path) {
		return from
	}
	if i := strings.IndexByte(path[from:], '/'); i >= 0 {
		return from + i
	}
	return len(path)
}

// Elements splits path into its "/"-separated elements, skipping empty
// leading elements caused by a leading "/". Used by canonicalization and
// by tests checking the round-trip invariant in spec.md §8.
func Elements(path string) []string {
	trimmed := strings.TrimPrefix(path, "/")
	if trimmed == "" {
		return nil
	}
	return strings.Split(trimmed, "/")
}

// Join joins path elements with "/", prefixing with "/" if abs is true.
func Join(abs bool, elems ...string) string {
	s := strings.Join(elems, "/")
	if abs {
		return "/" + s
	}
	return s
}

// Canonicalize resolves ".." segments in a slice of elements with
// ordinary "one pop per .." semantics, down to an empty (root) result.
func Canonicalize(elems []string) []string {
	out := make([]string, 0, len(elems))
	for _, e := range elems {
		switch e {
		case "", ".":
			continue
		case "..":
			if len(out) > 0 {
				out = out[:len(out)-1]
			}
		default:
			out = append(out, e)
		}
	}
	return out
}

// JoinCurrent joins a binout CD record's relative path elements onto the
// current path, per spec.md §4.4 step 3 ("join and then canonicalize").
//
// Unlike [Canonicalize], ".." never pops the current path's first (top-level
// folder) element: binout's top-level folders (nodout, ncforc, ...) are the
// roots of independent variable families, and a relative CD record is never
// meant to escape its own family. This matches spec.md §8 scenario 3:
// joining "/ncforc/slave_100000" with "../../master_100000/metadata" yields
// "/ncforc/master_100000/metadata" — the second ".." is a no-op because only
// one element (slave_100000) sits below the family root (ncforc).
func JoinCurrent(currentElems, relElems []string) []string {
	out := append([]string(nil), currentElems...)
	for _, e := range relElems {
		switch e {
		case "", ".":
			continue
		case "..":
			if len(out) > 1 {
				out = out[:len(out)-1]
			}
		default:
			out = append(out, e)
		}
	}
	return out
}
