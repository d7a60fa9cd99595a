/*
Author: KleaSCM
Email: KleaSCM@gmail.com
File: cache.go
Description: A flat-map stand-in for a gem5 cache's tagstore, implementing
targets.Cache. Blocks are allocated on demand by Allocate and enumerated
without any structural cast into a private tag vector (spec.md §9's
redesign flag).
*/

package demo

// Cache is a set of independently addressable, fixed-size valid blocks.
type Cache struct {
	blockSize int
	blocks    map[uint64][]byte
	dirty     map[uint64]bool
}

// NewCache builds an empty cache of the given block size.
func NewCache(blockSize int) *Cache {
	return &Cache{
		blockSize: blockSize,
		blocks:    make(map[uint64][]byte),
		dirty:     make(map[uint64]bool),
	}
}

// Allocate brings blockAddr into the valid set, zero-filled.
func (c *Cache) Allocate(blockAddr uint64) {
	if _, ok := c.blocks[blockAddr]; !ok {
		c.blocks[blockAddr] = make([]byte, c.blockSize)
	}
}

// Invalidate evicts blockAddr; ReAssert sweeps skip it until reallocated.
func (c *Cache) Invalidate(blockAddr uint64) {
	delete(c.blocks, blockAddr)
	delete(c.dirty, blockAddr)
}

// Dirty reports whether MarkBlockDirty has been called for blockAddr
// since it was last allocated.
func (c *Cache) Dirty(blockAddr uint64) bool { return c.dirty[blockAddr] }

func (c *Cache) BlockSize() int { return c.blockSize }

func (c *Cache) ValidBlocks() []uint64 {
	out := make([]uint64, 0, len(c.blocks))
	for addr := range c.blocks {
		out = append(out, addr)
	}
	return out
}

func (c *Cache) BlockValid(blockAddr uint64) bool {
	_, ok := c.blocks[blockAddr]
	return ok
}

func (c *Cache) ReadByte(blockAddr uint64, offset int) (byte, error) {
	block, ok := c.blocks[blockAddr]
	if !ok || offset < 0 || offset >= len(block) {
		return 0, errOutOfRange("cache", blockAddr, uint64(offset))
	}
	return block[offset], nil
}

func (c *Cache) WriteByte(blockAddr uint64, offset int, v byte) error {
	block, ok := c.blocks[blockAddr]
	if !ok || offset < 0 || offset >= len(block) {
		return errOutOfRange("cache", blockAddr, uint64(offset))
	}
	block[offset] = v
	return nil
}

func (c *Cache) MarkBlockDirty(blockAddr uint64) { c.dirty[blockAddr] = true }
