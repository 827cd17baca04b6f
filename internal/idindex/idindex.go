// Package idindex is an optional, persisted cache of d3plot state word
// offsets, keyed by family path hash + state index (spec.md expansion
// §4.2d). Building the (state_index → word_position) table requires a
// linear scan of the whole family; for large runs reopened repeatedly
// against the same files, this avoids repeating that scan.
//
// Purely a performance cache: without it, d3plot falls back to the plain
// linear scan described in spec.md §4.5 "State data", with identical
// results.
package idindex

import (
	"encoding/binary"

	"github.com/cespare/xxhash/v2"
	"github.com/cockroachdb/pebble/v2"
)

// Index wraps a pebble KV store.
type Index struct {
	db *pebble.DB
}

// Open opens (creating if necessary) a pebble store at dir.
func Open(dir string) (*Index, error) {
	db, err := pebble.Open(dir, &pebble.Options{})
	if err != nil {
		return nil, err
	}
	return &Index{db: db}, nil
}

func (x *Index) Close() error { return x.db.Close() }

// key builds the (familyPath-hash, stateIndex) composite key.
func key(familyPath string, stateIndex int) []byte {
	h := xxhash.Sum64String(familyPath)
	buf := make([]byte, 16)
	binary.BigEndian.PutUint64(buf[0:8], h)
	binary.BigEndian.PutUint64(buf[8:16], uint64(stateIndex))
	return buf
}

// Get returns the cached word position for (familyPath, stateIndex), if present.
func (x *Index) Get(familyPath string, stateIndex int) (wordPos int64, ok bool) {
	v, closer, err := x.db.Get(key(familyPath, stateIndex))
	if err != nil {
		return 0, false
	}
	defer closer.Close()
	if len(v) != 8 {
		return 0, false
	}
	return int64(binary.BigEndian.Uint64(v)), true
}

// Put memoizes the word position for (familyPath, stateIndex).
func (x *Index) Put(familyPath string, stateIndex int, wordPos int64) error {
	buf := make([]byte, 8)
	binary.BigEndian.PutUint64(buf, uint64(wordPos))
	return x.db.Set(key(familyPath, stateIndex), buf, pebble.Sync)
}
