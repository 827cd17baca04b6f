package d3plot

// Part lists the elements belonging to one material (spec.md §4.5
// "Parts"). Each entry is the element's user ID where UserIDs supplies
// one, else the element's 1-based position in its Geometry connectivity
// array.
type Part struct {
	SolidIDs      []int64
	ThickShellIDs []int64
	BeamIDs       []int64
	ShellIDs      []int64
}

// ReadPart collects every element whose material index (1-based, as
// stored in the connectivity array's last column) equals materialIndex+1.
func (f *File) ReadPart(materialIndex int64) (*Part, error) {
	f.Clear()
	want := materialIndex + 1
	p := &Part{}

	p.SolidIDs = selectByMaterial(f.geom.Solids, 9, 8, want, f.userIDs.SolidIDs)
	p.ThickShellIDs = selectByMaterial(f.geom.ThickShells, 9, 8, want, f.userIDs.ThickShellIDs)
	p.BeamIDs = selectByMaterial(f.geom.Beams, 6, 5, want, f.userIDs.BeamIDs)
	p.ShellIDs = selectByMaterial(f.geom.Shells, 5, 4, want, f.userIDs.ShellIDs)

	return p, nil
}

// selectByMaterial walks conn in stride-sized rows, picking the row's ID
// (from ids if present, else the row's 1-based position) whenever the
// material column matches want.
func selectByMaterial(conn []int64, stride, matCol int, want int64, ids []int64) []int64 {
	var out []int64
	n := len(conn) / stride
	for i := 0; i < n; i++ {
		if conn[i*stride+matCol] != want {
			continue
		}
		if i < len(ids) {
			out = append(out, ids[i])
		} else {
			out = append(out, int64(i+1))
		}
	}
	return out
}
