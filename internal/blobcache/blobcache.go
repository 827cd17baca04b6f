// Package blobcache is a small TinyLFU-backed admission cache for blocks
// that are expensive to recompute; its one user is internal/multifile,
// which caches whole decompressed xz family members. Grounded on the teacher's internal/spinner use of go-tinylfu
// for admission-controlled block eviction (spec.md expansion §4.2c).
package blobcache

import (
	"hash/maphash"

	"github.com/dgryski/go-tinylfu"
)

// Key identifies one cached blob within one family (FamilyID is a string
// id, BlockIndex addresses a unit within it; multifile uses the member
// path and BlockIndex 0 for a whole decompressed xz member).
type Key struct {
	FamilyID   string
	BlockIndex int64
}

var seed = maphash.MakeSeed()

func hasher(k Key) uint64 {
	var h maphash.Hash
	h.SetSeed(seed)
	h.WriteString(k.FamilyID)
	var b [8]byte
	for i := range b {
		b[i] = byte(k.BlockIndex >> (8 * i))
	}
	h.Write(b[:])
	return h.Sum64()
}

// Cache is a fixed-capacity, admission-controlled cache of arbitrary
// blobs (decompressed bytes, or any value small enough to memoize).
type Cache struct {
	t *tinylfu.T[Key, []byte]
}

// New creates a cache sized for n resident entries.
func New(n int) *Cache {
	return &Cache{t: tinylfu.New[Key, []byte](n, n*10, hasher)}
}

func (c *Cache) Get(k Key) ([]byte, bool) { return c.t.Get(k) }
func (c *Cache) Add(k Key, v []byte)      { c.t.Add(k, v) }
