// Package familyglob implements the two file-family addressing modes
// named in spec.md: sequential-suffix probing (§4.2 "Opening a family",
// §6.6) for d3plot, and shell-pattern expansion (§4.4 "Globbing") for
// binout.
package familyglob

import (
	"fmt"
	"os"
	"sort"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/elliotnunn/dynareadout/internal/rerror"
)

// Sequential probes root, root01, root02, ..., root09, root10, ...,
// root99, root100, ... until a name is not found (spec.md §4.2, §6.6).
// The numeric width switches from two digits to unpadded at 100.
func Sequential(root string) ([]string, error) {
	if _, err := os.Stat(root); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", rerror.ErrOpenFailed, root, err)
	}
	files := []string{root}
	for n := 1; ; n++ {
		var name string
		if n < 100 {
			name = fmt.Sprintf("%s%02d", root, n)
		} else {
			name = fmt.Sprintf("%s%d", root, n)
		}
		if _, err := os.Stat(name); err != nil {
			break
		}
		files = append(files, name)
	}
	return files, nil
}

// Pattern expands a doublestar glob pattern to the files it matches,
// mirroring the teacher's own use of doublestar for path.glob (path.go).
// Results are sorted for determinism, matching binout's requirement that
// glob-opened directories produce a deterministic physical_file_index order.
func Pattern(pattern string) ([]string, error) {
	matches, err := doublestar.FilepathGlob(pattern)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", rerror.ErrOpenFailed, pattern, err)
	}
	if len(matches) == 0 {
		return nil, fmt.Errorf("%w: no files matched %s", rerror.ErrOpenFailed, pattern)
	}
	sort.Strings(matches)
	return matches, nil
}
