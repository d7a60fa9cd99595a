/*
Author: KleaSCM
Email: KleaSCM@gmail.com
File: cache.go
Description: core.Adapter[CacheLocation, CacheKey] implementation for the CACHE
fault engine. Grounded on CHAOSCache.cc (original_source/CHAOSCache) but
replaces its structural downcast into the tagstore's private block vector with
an explicit Cache capability (spec.md §9's "require tags()/forEachBlock(visitor)
instead of the cast" redesign flag).
*/

package targets

import (
	"fmt"

	"github.com/kleascm/chaos-faultinjector/pkg/core"
)

// Cache is the capability the CACHE engine requires of the host
// simulator's cache model. ValidBlocks enumerates the tagstore without a
// structural cast into its private storage; package demo ships a
// runnable stand-in over a plain map.
type Cache interface {
	BlockSize() int
	ValidBlocks() []uint64
	BlockValid(blockAddr uint64) bool
	ReadByte(blockAddr uint64, offset int) (byte, error)
	WriteByte(blockAddr uint64, offset int, v byte) error
	MarkBlockDirty(blockAddr uint64)
}

// CacheLocation names one byte offset within one cache block.
type CacheLocation struct {
	BlockAddr uint64
	Offset    int
}

// CacheKey is the permanent-fault ledger key for a cache byte: identical
// fields to CacheLocation (spec.md §3: "(blockAddr, byteOffset)").
type CacheKey struct {
	BlockAddr uint64
	Offset    int
}

// CacheAdapter implements core.Adapter[CacheLocation, CacheKey].
type CacheAdapter struct {
	cache          Cache
	corruptionSize int
}

// NewCacheAdapter builds the CACHE target selector. corruptionSize is the
// number of independent byte mutations Select returns per firing (spec.md
// §3's CorruptionSize), all within the same uniformly-chosen block.
func NewCacheAdapter(cache Cache, corruptionSize int) *CacheAdapter {
	if corruptionSize < 1 {
		corruptionSize = 1
	}
	return &CacheAdapter{cache: cache, corruptionSize: corruptionSize}
}

// Select picks one valid block uniformly, then corruptionSize uniform byte
// offsets within it (with replacement, matching spec.md §4.2's policy: a
// block may receive fewer than corruptionSize distinct byte mutations if
// the same offset is drawn twice). An empty cache yields (nil, nil).
func (a *CacheAdapter) Select(rng *core.RNG) ([]CacheLocation, error) {
	blocks := a.cache.ValidBlocks()
	if len(blocks) == 0 {
		return nil, nil
	}
	block := blocks[rng.Intn(len(blocks))]
	size := a.cache.BlockSize()
	if size <= 0 {
		return nil, nil
	}
	locs := make([]CacheLocation, a.corruptionSize)
	for i := range locs {
		locs[i] = CacheLocation{BlockAddr: block, Offset: rng.Intn(size)}
	}
	return locs, nil
}

func (a *CacheAdapter) ReadCell(loc CacheLocation) (uint64, error) {
	b, err := a.cache.ReadByte(loc.BlockAddr, loc.Offset)
	return uint64(b), err
}

func (a *CacheAdapter) WriteCell(loc CacheLocation, v uint64) error {
	return a.cache.WriteByte(loc.BlockAddr, loc.Offset, byte(v))
}

func (a *CacheAdapter) Key(loc CacheLocation) CacheKey {
	return CacheKey{BlockAddr: loc.BlockAddr, Offset: loc.Offset}
}

func (a *CacheAdapter) Describe(loc CacheLocation) string {
	return fmt.Sprintf("Cache Block Addr: %#x, Byte Offset: %d", loc.BlockAddr, loc.Offset)
}

func (a *CacheAdapter) CellBits() int { return 8 }

// MarkDirty flags the owning block dirty, matching CHAOSCache.cc:215's
// setDirty call after injection. core.Engine invokes this once per
// firing (using any one of the firing's locations, since every location
// Select returns in one firing shares the same BlockAddr), not once per
// corruptionSize sub-mutation.
func (a *CacheAdapter) MarkDirty(loc CacheLocation) {
	a.cache.MarkBlockDirty(loc.BlockAddr)
}

func (a *CacheAdapter) Reachable(loc CacheLocation) bool {
	return a.cache.BlockValid(loc.BlockAddr)
}

func (a *CacheAdapter) Locate(key CacheKey) (CacheLocation, bool) {
	return CacheLocation{BlockAddr: key.BlockAddr, Offset: key.Offset}, true
}
