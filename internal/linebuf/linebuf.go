// Package linebuf implements the key-file line reader: a bounded-stack
// buffer for the common case plus an overflow heap buffer for long lines,
// with CRLF normalization (spec.md §3 "ExtraString", §4.6 "Tokenization").
package linebuf

import (
	"bufio"
	"io"
)

// stackCap mirrors the 82-byte bounded-stack buffer named in spec.md §4.6:
// 80 significant characters plus a trailing CR and LF.
const stackCap = 82

// Reader yields one logical line at a time from an underlying io.Reader.
// The bufio.Reader beneath it is sized to stackCap, so lines at or below
// that length never touch the heap overflow path; longer lines spill into
// r.extra transparently.
type Reader struct {
	br      *bufio.Reader
	extra   []byte // overflow heap buffer, reused across calls
	lineNum int
}

func New(r io.Reader) *Reader {
	return &Reader{br: bufio.NewReaderSize(r, stackCap)}
}

// Line is one logical line of input: its significant bytes (CR/LF
// stripped) and whether the original line carried a trailing CR.
type Line struct {
	Text         []byte
	HadCR        bool
	SourceLineNo int
}

// ReadLine reads the next logical line. Returns io.EOF when input is
// exhausted with no more data. The returned Line.Text aliases the
// Reader's internal buffer and is only valid until the next ReadLine call.
func (r *Reader) ReadLine() (Line, error) {
	r.lineNum++

	raw, err := r.br.ReadSlice('\n')
	if err != nil && err != io.EOF && err != bufio.ErrBufferFull {
		return Line{}, err
	}

	var buf []byte
	if err == bufio.ErrBufferFull {
		// Line overflowed bufio's internal buffer: spill to the heap
		// buffer and keep reading until '\n' or real EOF.
		r.extra = append(r.extra[:0], raw...)
		for err == bufio.ErrBufferFull {
			raw, err = r.br.ReadSlice('\n')
			r.extra = append(r.extra, raw...)
		}
		if err != nil && err != io.EOF {
			return Line{}, err
		}
		buf = r.extra
	} else {
		buf = raw
	}

	if len(buf) == 0 && err == io.EOF {
		return Line{}, io.EOF
	}

	hadNL := len(buf) > 0 && buf[len(buf)-1] == '\n'
	if hadNL {
		buf = buf[:len(buf)-1]
	}
	hadCR := len(buf) > 0 && buf[len(buf)-1] == '\r'
	if hadCR {
		buf = buf[:len(buf)-1]
	}

	return Line{Text: buf, HadCR: hadCR, SourceLineNo: r.lineNum}, nil
}

// Classify reports the significant kind of a line per spec.md §4.6:
// empty (whitespace-only), comment ("$" prefixed), keyword ("*" prefixed),
// or a plain card line. For a keyword the returned slice is the text after
// "*"; for a card it is the whole line, untrimmed, so fixed-width columns
// keep their positions; otherwise it is nil.
type Kind int

const (
	KindEmpty Kind = iota
	KindComment
	KindKeyword
	KindCard
)

func Classify(text []byte) (Kind, []byte) {
	i := 0
	for i < len(text) && text[i] == ' ' {
		i++
	}
	if i == len(text) {
		return KindEmpty, nil
	}
	switch text[i] {
	case '$':
		return KindComment, nil
	case '*':
		return KindKeyword, text[i+1:]
	default:
		return KindCard, text
	}
}
