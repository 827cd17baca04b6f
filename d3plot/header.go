package d3plot

import (
	"fmt"
	"strings"

	"github.com/elliotnunn/dynareadout/internal/d3buffer"
	"github.com/elliotnunn/dynareadout/internal/rerror"
)

// PartProperty is one entry of an ntype=90001 block: a part ID and its
// 18-word title.
type PartProperty struct {
	ID    int64
	Title string
}

// ContactTitle is one entry of an ntype=90002 block.
type ContactTitle struct {
	ID    int64
	Title string
}

// HeaderSection collects the typed blocks read after geometry+user-IDs,
// up to the terminating EOF marker (spec.md §4.5 "Header section").
type HeaderSection struct {
	Head          string
	PartProps     []PartProperty
	ContactTitles []ContactTitle
	KeywordLines  []string
}

const (
	ntypePartProperties = 90001
	ntypeHead           = 90000
	ntypeContactTitles  = 90002
	ntypeKeywordLines   = 900100
)

func readWordsAsString(b *d3buffer.Buffer, words int) (string, error) {
	raw, err := b.Seq(words)
	if err != nil {
		return "", err
	}
	return strings.TrimRight(string(raw), "\x00"), nil
}

// readHeaderSection loops reading (ntype, payload) blocks until it reads
// a word that is not a recognized ntype code, which must then be the EOF
// marker (spec.md §4.5 "Header section", §4.5 "EOF marker").
func readHeaderSection(b *d3buffer.Buffer) (*HeaderSection, error) {
	hs := &HeaderSection{}
	for {
		ntype, err := b.ReadIntSeq()
		if err != nil {
			return nil, err
		}

		switch ntype {
		case ntypePartProperties:
			numprop, err := b.ReadIntSeq()
			if err != nil {
				return nil, err
			}
			for i := int64(0); i < numprop; i++ {
				id, err := b.ReadIntSeq()
				if err != nil {
					return nil, err
				}
				title, err := readWordsAsString(b, 18)
				if err != nil {
					return nil, err
				}
				hs.PartProps = append(hs.PartProps, PartProperty{ID: id, Title: title})
			}

		case ntypeHead:
			head, err := readWordsAsString(b, 18)
			if err != nil {
				return nil, err
			}
			hs.Head = head

		case ntypeContactTitles:
			numcon, err := b.ReadIntSeq()
			if err != nil {
				return nil, err
			}
			for i := int64(0); i < numcon; i++ {
				id, err := b.ReadIntSeq()
				if err != nil {
					return nil, err
				}
				title, err := readWordsAsString(b, 18)
				if err != nil {
					return nil, err
				}
				hs.ContactTitles = append(hs.ContactTitles, ContactTitle{ID: id, Title: title})
			}

		case ntypeKeywordLines:
			nline, err := b.ReadIntSeq()
			if err != nil {
				return nil, err
			}
			for i := int64(0); i < nline; i++ {
				line, err := readWordsAsString(b, 20)
				if err != nil {
					return nil, err
				}
				hs.KeywordLines = append(hs.KeywordLines, line)
			}

		default:
			// Not a recognized ntype: re-read this word as the raw bytes
			// of the EOF marker double (spec.md §4.5 "EOF marker").
			wordPos := b.TellWords() - 1
			raw, err := b.ReadAtWords(wordPos, 1)
			if err != nil {
				return nil, err
			}
			marker := b.DecodeFloat64s(raw)[0]
			if !d3buffer.IsEOFMarker(marker) {
				return nil, fmt.Errorf("%w: expected EOF marker at word %d, got ntype/value %v", rerror.ErrFormatReject, wordPos, marker)
			}
			return hs, nil
		}
	}
}
