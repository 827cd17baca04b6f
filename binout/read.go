package binout

import (
	"encoding/binary"
	"fmt"
	"math"

	"github.com/elliotnunn/dynareadout/internal/binoutdir"
	"github.com/elliotnunn/dynareadout/internal/rerror"
)

// lookup resolves path to its leaf, validates its stored type, and
// returns the raw payload bytes (spec.md §4.4 "Typed read").
func (f *File) lookup(path string, want binoutdir.VariableType) (*binoutdir.File, []byte, error) {
	f.Clear()
	file, err := f.dir.GetFile(path)
	if err != nil {
		f.Set(err)
		return nil, nil, err
	}
	if file.Type != want {
		err := fmt.Errorf("%w: %s stored as type %d, requested type %d", rerror.ErrTypeMismatch, path, file.Type, want)
		f.Set(err)
		return nil, nil, err
	}
	h := f.handles[file.PhysicalFile]
	tk := h.Access()
	defer h.Return(tk)
	buf := make([]byte, file.PayloadSize)
	if _, err := readFull(h, tk, buf, file.Offset); err != nil {
		f.Set(err)
		return nil, nil, err
	}
	return file, buf, nil
}

func (f *File) ReadInt8(path string) ([]int8, error) {
	_, buf, err := f.lookup(path, binoutdir.Int8)
	if err != nil {
		return nil, err
	}
	out := make([]int8, len(buf))
	for i, b := range buf {
		out[i] = int8(b)
	}
	return out, nil
}

func (f *File) ReadUint8(path string) ([]uint8, error) {
	_, buf, err := f.lookup(path, binoutdir.Uint8)
	if err != nil {
		return nil, err
	}
	return append([]byte(nil), buf...), nil
}

func (f *File) ReadInt16(path string) ([]int16, error) {
	_, buf, err := f.lookup(path, binoutdir.Int16)
	if err != nil {
		return nil, err
	}
	out := make([]int16, len(buf)/2)
	for i := range out {
		out[i] = int16(binary.LittleEndian.Uint16(buf[i*2:]))
	}
	return out, nil
}

func (f *File) ReadUint16(path string) ([]uint16, error) {
	_, buf, err := f.lookup(path, binoutdir.Uint16)
	if err != nil {
		return nil, err
	}
	out := make([]uint16, len(buf)/2)
	for i := range out {
		out[i] = binary.LittleEndian.Uint16(buf[i*2:])
	}
	return out, nil
}

func (f *File) ReadInt32(path string) ([]int32, error) {
	_, buf, err := f.lookup(path, binoutdir.Int32)
	if err != nil {
		return nil, err
	}
	out := make([]int32, len(buf)/4)
	for i := range out {
		out[i] = int32(binary.LittleEndian.Uint32(buf[i*4:]))
	}
	return out, nil
}

func (f *File) ReadUint32(path string) ([]uint32, error) {
	_, buf, err := f.lookup(path, binoutdir.Uint32)
	if err != nil {
		return nil, err
	}
	out := make([]uint32, len(buf)/4)
	for i := range out {
		out[i] = binary.LittleEndian.Uint32(buf[i*4:])
	}
	return out, nil
}

func (f *File) ReadInt64(path string) ([]int64, error) {
	_, buf, err := f.lookup(path, binoutdir.Int64)
	if err != nil {
		return nil, err
	}
	out := make([]int64, len(buf)/8)
	for i := range out {
		out[i] = int64(binary.LittleEndian.Uint64(buf[i*8:]))
	}
	return out, nil
}

func (f *File) ReadUint64(path string) ([]uint64, error) {
	_, buf, err := f.lookup(path, binoutdir.Uint64)
	if err != nil {
		return nil, err
	}
	out := make([]uint64, len(buf)/8)
	for i := range out {
		out[i] = binary.LittleEndian.Uint64(buf[i*8:])
	}
	return out, nil
}

func (f *File) ReadFloat32(path string) ([]float32, error) {
	_, buf, err := f.lookup(path, binoutdir.Float32)
	if err != nil {
		return nil, err
	}
	out := make([]float32, len(buf)/4)
	for i := range out {
		out[i] = math.Float32frombits(binary.LittleEndian.Uint32(buf[i*4:]))
	}
	return out, nil
}

func (f *File) ReadFloat64(path string) ([]float64, error) {
	_, buf, err := f.lookup(path, binoutdir.Float64)
	if err != nil {
		return nil, err
	}
	out := make([]float64, len(buf)/8)
	for i := range out {
		out[i] = math.Float64frombits(binary.LittleEndian.Uint64(buf[i*8:]))
	}
	return out, nil
}
