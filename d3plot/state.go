package d3plot

import (
	"fmt"

	"github.com/elliotnunn/dynareadout/internal/d3buffer"
	"github.com/elliotnunn/dynareadout/internal/rerror"
)

// State is one decoded state (time step), laid out in the exact field
// order of spec.md §4.5 "State data".
type State struct {
	Time float64

	Global []float64 // NGLBV words

	NodeTemperatures []float64 // it*NUMNP
	NodeFlux         []float64 // N*NUMNP
	MassScaling      []float64 // NUMNP, present only when digit 1 of IT is set
	Displacements    []float64 // NDIM*NUMNP, present only when IU != 0
	Velocities       []float64 // NDIM*NUMNP, present only when IV != 0
	Accelerations    []float64 // NDIM*NUMNP, present only when IA != 0

	Thermal3D []float64 // NT3D*NEL8

	SolidData      []float64 // NEL8*NV3D
	BeamData       []float64 // NEL2*NV1D
	ShellData      []float64 // NEL4*NV2D
	ThickShellData []float64 // NELT*NV3DT

	Deletion []float64 // per MDLOPT: 0 none, 1 NUMNP, 2 NEL8+NELT+NEL4+NEL2
}

// nodeDataShape derives (it, N, massN) from IT's decimal digits, including
// the it==2-collapses-to-(1,3) quirk preserved from the original decoder
// (original_source d3plot_state.c "_d3plot_read_state_data").
func nodeDataShape(it64 int64) (it, n, massN int) {
	d0 := int(it64 % 10)
	it = d0
	if it > 1 {
		n = it
	}
	if n == 2 {
		it = 1
		n = 3
	}
	if (it64/10)%10 == 1 {
		massN = 1
	}
	return it, n, massN
}

// stateWordCount computes the fixed per-state word length implied by the
// control data, used to skip forward during the state-offset scan in
// Open.
func stateWordCount(cd *ControlData) int64 {
	it, n, massN := nodeDataShape(cd.IT)
	nnd := int64(it+n+massN)*cd.NUMNP + cd.NDIM*(cd.IU+cd.IV+cd.IA)*cd.NUMNP
	thermal := cd.NT3D * cd.NEL8
	enn := cd.NEL8*cd.NV3D + cd.NEL2*cd.NV1D + cd.NEL4*cd.NV2D + cd.NELT*cd.NV3DT

	var deletion int64
	switch cd.MDLOPT {
	case 1:
		deletion = cd.NUMNP
	case 2:
		deletion = cd.NEL8 + cd.NELT + cd.NEL4 + cd.NEL2
	}

	return 1 + cd.NGLBV + nnd + thermal + enn + deletion
}

// posCursor is a thread-safe stand-in for the buffer's shared sequential
// cursor: it tracks its own word position and issues positioned reads, so
// concurrent [File.ReadState] calls never contend on [d3buffer.Buffer]'s
// cursor fields (spec.md §5 "d3_buffer.read_* — no guard held; serialized
// per ticket").
type posCursor struct {
	b   *d3buffer.Buffer
	pos int64
}

func (c *posCursor) floats(k int) ([]float64, error) {
	raw, err := c.b.ReadAtWords(c.pos, k)
	if err != nil {
		return nil, err
	}
	c.pos += int64(k)
	return c.b.DecodeFloat64s(raw), nil
}

// readState decodes one full state block from cursor, assuming the time
// word has already been confirmed not to be the EOF marker.
func readState(cursor *posCursor, cd *ControlData, time float64) (*State, error) {
	s := &State{Time: time}

	global, err := cursor.floats(int(cd.NGLBV))
	if err != nil {
		return nil, err
	}
	s.Global = global

	it, n, massN := nodeDataShape(cd.IT)
	if it > 0 {
		if s.NodeTemperatures, err = cursor.floats(it * int(cd.NUMNP)); err != nil {
			return nil, err
		}
	}
	if n > 0 {
		if s.NodeFlux, err = cursor.floats(n * int(cd.NUMNP)); err != nil {
			return nil, err
		}
	}
	if massN > 0 {
		if s.MassScaling, err = cursor.floats(int(cd.NUMNP)); err != nil {
			return nil, err
		}
	}
	if cd.IU != 0 {
		if s.Displacements, err = cursor.floats(int(cd.NDIM * cd.NUMNP)); err != nil {
			return nil, err
		}
	}
	if cd.IV != 0 {
		if s.Velocities, err = cursor.floats(int(cd.NDIM * cd.NUMNP)); err != nil {
			return nil, err
		}
	}
	if cd.IA != 0 {
		if s.Accelerations, err = cursor.floats(int(cd.NDIM * cd.NUMNP)); err != nil {
			return nil, err
		}
	}

	if cd.NT3D > 0 && cd.NEL8 > 0 {
		if s.Thermal3D, err = cursor.floats(int(cd.NT3D * cd.NEL8)); err != nil {
			return nil, err
		}
	}

	if cd.NEL8 > 0 {
		if s.SolidData, err = cursor.floats(int(cd.NEL8 * cd.NV3D)); err != nil {
			return nil, err
		}
	}
	if cd.NEL2 > 0 {
		if s.BeamData, err = cursor.floats(int(cd.NEL2 * cd.NV1D)); err != nil {
			return nil, err
		}
	}
	if cd.NEL4 > 0 {
		if s.ShellData, err = cursor.floats(int(cd.NEL4 * cd.NV2D)); err != nil {
			return nil, err
		}
	}
	if cd.NELT > 0 {
		if s.ThickShellData, err = cursor.floats(int(cd.NELT * cd.NV3DT)); err != nil {
			return nil, err
		}
	}

	switch cd.MDLOPT {
	case 1:
		if s.Deletion, err = cursor.floats(int(cd.NUMNP)); err != nil {
			return nil, err
		}
	case 2:
		words := cd.NEL8 + cd.NELT + cd.NEL4 + cd.NEL2
		if s.Deletion, err = cursor.floats(int(words)); err != nil {
			return nil, err
		}
	case 0:
		// no deletion data
	default:
		return nil, fmt.Errorf("%w: invalid MDLOPT %d", rerror.ErrFormatReject, cd.MDLOPT)
	}

	return s, nil
}

// scanStates walks every state from the buffer's current cursor (assumed
// positioned right after the mandatory post-header advance-to-next-file),
// recording each state's starting word position, and stops when a
// family-ending EOF marker is followed by no further file (spec.md §4.5
// "State data", "After each state block... the next state header may
// require advancing to the next file").
func scanStates(b *d3buffer.Buffer, cd *ControlData) ([]int64, error) {
	wordsPerState := stateWordCount(cd)
	var offsets []int64
	for {
		pos := b.TellWords()
		time, err := b.ReadFloat64Seq()
		if err != nil {
			return offsets, nil // ran off the end of the family: done
		}
		if d3buffer.IsEOFMarker(time) {
			if err := b.NextFile(); err != nil {
				return offsets, nil
			}
			continue
		}
		offsets = append(offsets, pos)
		b.SeekWords(pos + wordsPerState)
	}
}

// NumStates returns the number of states discovered at open time.
func (f *File) NumStates() int { return len(f.stateOffsets) }

// ReadState decodes state i (0-based). It reads through a private
// [posCursor] positioned at the state's recorded offset, so concurrent
// calls on the same File never contend on the shared buffer cursor.
func (f *File) ReadState(i int) (*State, error) {
	f.Clear()
	if i < 0 || i >= len(f.stateOffsets) {
		err := fmt.Errorf("%w: state index %d", rerror.ErrPathNotFound, i)
		f.Set(err)
		return nil, err
	}
	cursor := &posCursor{b: f.buf, pos: f.stateOffsets[i]}
	timeWord, err := cursor.floats(1)
	if err != nil {
		f.Set(err)
		return nil, err
	}
	s, err := readState(cursor, f.cd, timeWord[0])
	if err != nil {
		f.Set(err)
		return nil, err
	}
	return s, nil
}
