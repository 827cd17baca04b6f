package d3plot

import "github.com/elliotnunn/dynareadout/internal/d3buffer"

// Geometry holds the node coordinates and element connectivity arrays
// decoded immediately after the control data (spec.md §4.5 "Geometry section").
type Geometry struct {
	Nodes []float64 // NUMNP*3, row-major (x,y,z per node)

	Solids       []int64 // NEL8*9: eight node indices + material index (1-based)
	TenNodeTetra []int64 // |NEL8|*2, present only when NEL8 < 0
	ThickShells  []int64 // NELT*9
	Beams        []int64 // NEL2*6: two nodes, orientation node, two zeros, material
	Shells       []int64 // NEL4*5

	// Nel48Conn and Nel20Conn are the 8-node-shell and 20-node-solid
	// connectivity extensions (original_source d3plot_data.c
	// "_d3plot_read_extra_node_connectivity"), supplementing spec.md's
	// geometry section with the fields it leaves out of prose but
	// still reserves header words for (NEL48, NEL20).
	Nel48Conn []int64 // NEL48*5
	Nel20Conn []int64 // NEL20*13, present only when EXTRA > 0
}

func readGeometry(b *d3buffer.Buffer, cd *ControlData) (*Geometry, error) {
	g := &Geometry{}

	nodes, err := b.SeqFloat64s(int(cd.NUMNP) * 3)
	if err != nil {
		return nil, err
	}
	g.Nodes = nodes

	if cd.NEL8 > 0 {
		solids, err := b.SeqInts(int(cd.NEL8) * 9)
		if err != nil {
			return nil, err
		}
		g.Solids = solids
	} else if cd.NEL8 < 0 {
		tetra, err := b.SeqInts(int(-cd.NEL8) * 2)
		if err != nil {
			return nil, err
		}
		g.TenNodeTetra = tetra
	}

	if cd.NELT > 0 {
		ts, err := b.SeqInts(int(cd.NELT) * 9)
		if err != nil {
			return nil, err
		}
		g.ThickShells = ts
	}

	if cd.NEL2 > 0 {
		beams, err := b.SeqInts(int(cd.NEL2) * 6)
		if err != nil {
			return nil, err
		}
		g.Beams = beams
	}

	if cd.NEL4 > 0 {
		shells, err := b.SeqInts(int(cd.NEL4) * 5)
		if err != nil {
			return nil, err
		}
		g.Shells = shells
	}

	return g, nil
}

// readExtraConnectivity reads the NEL48/NEL20 connectivity extension that
// follows the user-IDs section (original_source "_d3plot_read_extra_node_connectivity").
func readExtraConnectivity(b *d3buffer.Buffer, cd *ControlData, g *Geometry) error {
	if cd.NEL48 > 0 {
		v, err := b.SeqInts(int(cd.NEL48) * 5)
		if err != nil {
			return err
		}
		g.Nel48Conn = v
	}
	if cd.EXTRA > 0 && cd.NEL20 > 0 {
		v, err := b.SeqInts(int(cd.NEL20) * 13)
		if err != nil {
			return err
		}
		g.Nel20Conn = v
	}
	return nil
}

// readAdaptedElementParentList reads the NADAPT*2 adapted-element parent
// index pairs (original_source "_d3plot_read_adapted_element_parent_list").
func readAdaptedElementParentList(b *d3buffer.Buffer, cd *ControlData) ([]int64, error) {
	if cd.NADAPT == 0 {
		return nil, nil
	}
	return b.SeqInts(int(cd.NADAPT) * 2)
}
