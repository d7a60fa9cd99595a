package targets_test

import (
	"testing"

	"github.com/kleascm/chaos-faultinjector/demo"
	"github.com/kleascm/chaos-faultinjector/pkg/core"
	"github.com/kleascm/chaos-faultinjector/pkg/targets"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// An empty cache (no valid blocks) yields an empty selection, not an
// error (spec.md §4.2's edge case).
func TestCacheAdapterEmptyCacheYieldsEmptySelection(t *testing.T) {
	cache := demo.NewCache(64)
	adapter := targets.NewCacheAdapter(cache, 1)

	locs, err := adapter.Select(core.NewRNG(1))
	require.NoError(t, err)
	assert.Empty(t, locs)
}

// corruptionSize controls how many byte offsets are returned per
// firing, all within the same uniformly-chosen block.
func TestCacheAdapterCorruptionSizeSharesOneBlock(t *testing.T) {
	cache := demo.NewCache(64)
	cache.Allocate(0x2000)
	cache.Allocate(0x3000)
	adapter := targets.NewCacheAdapter(cache, 5)

	locs, err := adapter.Select(core.NewRNG(4))
	require.NoError(t, err)
	require.Len(t, locs, 5)

	block := locs[0].BlockAddr
	for _, l := range locs {
		assert.Equal(t, block, l.BlockAddr)
		assert.GreaterOrEqual(t, l.Offset, 0)
		assert.Less(t, l.Offset, 64)
	}
}

// MarkDirty flags the block through the Cache capability rather than a
// structural downcast into the tagstore (SPEC_FULL.md §6's redesign).
func TestCacheAdapterMarkDirty(t *testing.T) {
	cache := demo.NewCache(32)
	cache.Allocate(0x100)
	adapter := targets.NewCacheAdapter(cache, 1)

	assert.False(t, cache.Dirty(0x100))
	adapter.MarkDirty(targets.CacheLocation{BlockAddr: 0x100, Offset: 0})
	assert.True(t, cache.Dirty(0x100))
}

// Reachable reflects live block validity for the permanent-fault
// re-assert sweep; an invalidated (evicted) block is unreachable.
func TestCacheAdapterReachableTracksInvalidation(t *testing.T) {
	cache := demo.NewCache(32)
	cache.Allocate(0x100)
	adapter := targets.NewCacheAdapter(cache, 1)

	loc := targets.CacheLocation{BlockAddr: 0x100, Offset: 0}
	assert.True(t, adapter.Reachable(loc))

	cache.Invalidate(0x100)
	assert.False(t, adapter.Reachable(loc))
}

func TestCacheAdapterKeyAndDescribe(t *testing.T) {
	cache := demo.NewCache(32)
	adapter := targets.NewCacheAdapter(cache, 1)
	loc := targets.CacheLocation{BlockAddr: 0xabc, Offset: 3}

	assert.Equal(t, targets.CacheKey{BlockAddr: 0xabc, Offset: 3}, adapter.Key(loc))
	assert.Contains(t, adapter.Describe(loc), "0xabc")
	assert.Equal(t, 8, adapter.CellBits())
}
