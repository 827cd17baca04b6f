package binout

import (
	"encoding/binary"
	"fmt"
	"math"

	"github.com/elliotnunn/dynareadout/internal/binoutdir"
	"github.com/elliotnunn/dynareadout/internal/pathview"
	"github.com/elliotnunn/dynareadout/internal/rerror"
)

// timedBytes resolves variable (e.g. "/nodout/x_displacement") to the
// folder above its d000001, d000002, … siblings, enumerates them in
// ascending order, and concatenates each child's like-named, like-typed,
// like-sized leaf into one flat buffer (spec.md §4.4 "Timed read").
func (f *File) timedBytes(variable string, want binoutdir.VariableType) (buf []byte, numSteps, numValues int, err error) {
	f.Clear()

	elems := pathview.Elements(variable)
	if len(elems) < 2 {
		err = fmt.Errorf("%w: %s", rerror.ErrPathNotFound, variable)
		f.Set(err)
		return nil, 0, 0, err
	}
	parentElems, varName := elems[:len(elems)-1], elems[len(elems)-1]

	folder := f.dir.FindFolder(parentElems)
	if folder == nil {
		err = fmt.Errorf("%w: %s", rerror.ErrPathNotFound, variable)
		f.Set(err)
		return nil, 0, 0, err
	}
	children := folder.TimestepChildren()
	if len(children) == 0 {
		err = fmt.Errorf("%w: %s has no timestep children", rerror.ErrPathNotFound, variable)
		f.Set(err)
		return nil, 0, 0, err
	}

	var payloadSize int64 = -1
	pieces := make([][]byte, 0, len(children))
	for _, child := range children {
		var leaf *binoutdir.File
		for _, file := range child.Files {
			if file.Name == varName {
				leaf = file
				break
			}
		}
		if leaf == nil {
			err = fmt.Errorf("%w: %s under %s", rerror.ErrPathNotFound, varName, child.Name)
			f.Set(err)
			return nil, 0, 0, err
		}
		if leaf.Type != want {
			err = fmt.Errorf("%w: %s stored as type %d, requested type %d", rerror.ErrTypeMismatch, variable, leaf.Type, want)
			f.Set(err)
			return nil, 0, 0, err
		}
		if payloadSize == -1 {
			payloadSize = leaf.PayloadSize
		} else if leaf.PayloadSize != payloadSize {
			err = fmt.Errorf("%w: %s payload size varies across timesteps", rerror.ErrFormatReject, variable)
			f.Set(err)
			return nil, 0, 0, err
		}

		h := f.handles[leaf.PhysicalFile]
		tk := h.Access()
		b := make([]byte, leaf.PayloadSize)
		_, rerr := readFull(h, tk, b, leaf.Offset)
		h.Return(tk)
		if rerr != nil {
			f.Set(rerr)
			return nil, 0, 0, rerr
		}
		pieces = append(pieces, b)
	}

	width := binoutdir.Width(want)
	numValues = int(payloadSize) / width
	numSteps = len(pieces)
	buf = make([]byte, 0, numSteps*int(payloadSize))
	for _, p := range pieces {
		buf = append(buf, p...)
	}
	return buf, numSteps, numValues, nil
}

// ReadTimedFloat64 returns a flattened numSteps*numValues array: each
// timestep's values are numValues consecutive entries, timesteps in
// ascending order.
func (f *File) ReadTimedFloat64(variable string) (values []float64, numSteps, numValues int, err error) {
	buf, numSteps, numValues, err := f.timedBytes(variable, binoutdir.Float64)
	if err != nil {
		return nil, 0, 0, err
	}
	values = make([]float64, len(buf)/8)
	for i := range values {
		values[i] = math.Float64frombits(binary.LittleEndian.Uint64(buf[i*8:]))
	}
	return values, numSteps, numValues, nil
}

// ReadTimedFloat32 is [File.ReadTimedFloat64]'s single-precision counterpart.
func (f *File) ReadTimedFloat32(variable string) (values []float32, numSteps, numValues int, err error) {
	buf, numSteps, numValues, err := f.timedBytes(variable, binoutdir.Float32)
	if err != nil {
		return nil, 0, 0, err
	}
	values = make([]float32, len(buf)/4)
	for i := range values {
		values[i] = math.Float32frombits(binary.LittleEndian.Uint32(buf[i*4:]))
	}
	return values, numSteps, numValues, nil
}

// ReadTimedInt32 is [File.ReadTimedFloat64]'s int32 counterpart, used for
// integer time series such as element/node ID lists repeated per state.
func (f *File) ReadTimedInt32(variable string) (values []int32, numSteps, numValues int, err error) {
	buf, numSteps, numValues, err := f.timedBytes(variable, binoutdir.Int32)
	if err != nil {
		return nil, 0, 0, err
	}
	values = make([]int32, len(buf)/4)
	for i := range values {
		values[i] = int32(binary.LittleEndian.Uint32(buf[i*4:]))
	}
	return values, numSteps, numValues, nil
}
