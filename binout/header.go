package binout

import (
	"fmt"

	"github.com/elliotnunn/dynareadout/internal/rerror"
)

// Command codes (spec.md §6.4).
const (
	cmdNull              = 1
	cmdCD                = 2
	cmdData              = 3
	cmdVariable          = 4
	cmdBeginSymbolTable  = 5
	cmdEndSymbolTable    = 6
	cmdSymbolTableOffset = 7
)

// header is the first 8 bytes of every binout family member (spec.md §4.4, §6.2).
type header struct {
	headerSize       uint8
	lengthFieldSize  uint8
	offsetFieldSize  uint8
	commandFieldSize uint8
	typeIDFieldSize  uint8
	endianness       uint8
	floatFormat      uint8
	unused           uint8
}

func parseHeader(b []byte) (header, error) {
	if len(b) != 8 {
		return header{}, fmt.Errorf("%w: short header", rerror.ErrFormatReject)
	}
	h := header{
		headerSize:       b[0],
		lengthFieldSize:  b[1],
		offsetFieldSize:  b[2],
		commandFieldSize: b[3],
		typeIDFieldSize:  b[4],
		endianness:       b[5],
		floatFormat:      b[6],
		unused:           b[7],
	}
	if h.endianness != 1 {
		return header{}, fmt.Errorf("%w: unsupported endianness %d (only little is supported)", rerror.ErrFormatReject, h.endianness)
	}
	if h.floatFormat != 0 {
		return header{}, fmt.Errorf("%w: unsupported float format %d (only IEEE is supported)", rerror.ErrFormatReject, h.floatFormat)
	}
	for _, w := range []uint8{h.lengthFieldSize, h.offsetFieldSize, h.commandFieldSize, h.typeIDFieldSize} {
		if w == 0 || w > 8 {
			return header{}, fmt.Errorf("%w: field width %d out of range", rerror.ErrFormatReject, w)
		}
	}
	return h, nil
}

// readWidth interprets b[:width] as a little-endian unsigned integer.
func readWidth(b []byte, width int) uint64 {
	var v uint64
	for i := width - 1; i >= 0; i-- {
		v = v<<8 | uint64(b[i])
	}
	return v
}
