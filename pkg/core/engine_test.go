package core_test

import (
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/kleascm/chaos-faultinjector/demo"
	"github.com/kleascm/chaos-faultinjector/pkg/core"
	"github.com/kleascm/chaos-faultinjector/pkg/simhost"
	"github.com/kleascm/chaos-faultinjector/pkg/targets"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newCacheHarness(t *testing.T, corruptionSize int) (*simhost.Host, *demo.Cache, *targets.CacheAdapter) {
	t.Helper()
	host := simhost.NewHost(1, t.TempDir(), nil)
	cache := demo.NewCache(64)
	cache.Allocate(0x1000)
	adapter := targets.NewCacheAdapter(cache, corruptionSize)
	return host, cache, adapter
}

// spec.md §7 error kind 1: an unparseable fault_mask is a construction
// error, signaled fatally via Host.Panic rather than warned-and-ignored.
func TestEngineConstructionPanicsOnMalformedFaultMask(t *testing.T) {
	host, _, adapter := newCacheHarness(t, 1)
	cfg := core.Config{
		Probability:               1.0,
		FaultMask:                 "not-binary",
		FaultType:                 core.BitFlip,
		TickToClockRatio:          1,
		CyclesPermanentFaultCheck: 1000,
	}
	stats := &core.Stats{}
	assert.Panics(t, func() {
		core.NewEngine("cache", cfg, adapter, host, "cache_injections.log", stats)
	})
}

// Scenario 4 / P1 baseline: probability == 0 disables the engine
// entirely. No events scheduled, no log file created, all counters stay
// zero, no warnings.
func TestEngineDisabledWhenProbabilityZero(t *testing.T) {
	logDir := t.TempDir()
	host := simhost.NewHost(1, logDir, nil)
	cache := demo.NewCache(64)
	cache.Allocate(0x1000)
	adapter := targets.NewCacheAdapter(cache, 1)

	cfg := core.Config{Probability: 0, WriteLog: true, TickToClockRatio: 1}
	stats := &core.Stats{}

	eng, err := core.NewEngine("cache", cfg, adapter, host, "cache_injections.log", stats)
	require.NoError(t, err)
	eng.Start()

	assert.Equal(t, 0, host.Pending())

	logPath := filepath.Join(logDir, "cache_injections.log")
	_, statErr := os.Stat(logPath)
	assert.True(t, os.IsNotExist(statErr))

	snap := stats.Snapshot()
	assert.Zero(t, snap.NumFaultsInjected)
	assert.Zero(t, snap.NumBitFlips)
	assert.Zero(t, snap.NumStuckAtZero)
	assert.Zero(t, snap.NumStuckAtOne)
	assert.Zero(t, snap.NumPermanentFaults)
}

// Scenario 1: single bit-flip against a 64-byte all-zero cache block.
// After any firing, exactly one bit in one byte of the block is 1.
func TestEngineSingleBitFlipScenario(t *testing.T) {
	host, cache, adapter := newCacheHarness(t, 1)
	cfg := core.Config{
		Probability:  1.0,
		BitsToChange: 1,
		FirstClock:   0,
		// A one-cycle window guarantees exactly one firing: the second
		// scheduling attempt always lands past LastClock (see
		// TestEngineStuckAtOneSurvivesOverwrite for the reasoning).
		LastClock:                 1,
		FaultType:                 core.BitFlip,
		TickToClockRatio:          1,
		CyclesPermanentFaultCheck: 1000,
		WriteLog:                  true,
		Seed:                      42,
	}
	stats := &core.Stats{}
	eng, err := core.NewEngine("cache", cfg, adapter, host, "cache_injections.log", stats)
	require.NoError(t, err)
	eng.Start()

	require.True(t, host.Step())
	require.Equal(t, int64(1), stats.Snapshot().NumFaultsInjected)

	totalSetBits := 0
	for off := 0; off < 64; off++ {
		b, err := cache.ReadByte(0x1000, off)
		require.NoError(t, err)
		totalSetBits += core.PopCount(uint64(b))
	}
	assert.Equal(t, 1, totalSetBits, "exactly one bit must be set after a single bit-flip firing on an all-zero block")
	assert.Equal(t, stats.Snapshot().NumBitFlips, stats.Snapshot().NumFaultsInjected)
}

// Scenario 2: a fixed stuck-at-one mask corrupts a single memory byte,
// and the permanent-fault ledger re-asserts it across an intervening
// clean overwrite.
func TestEngineStuckAtOneSurvivesOverwrite(t *testing.T) {
	host := simhost.NewHost(1, t.TempDir(), nil)
	mem := demo.NewMemory(1)
	adapter := targets.NewMemAdapter(mem, 0, 0, host.Warn)

	cfg := core.Config{
		Probability: 1.0,
		FaultMask:   "11110000",
		FaultType:   core.StuckAtOne,
		FirstClock:  0,
		// Window closes right after the first injection so only the
		// permanent-check sweep (never a fresh injection) restores the
		// byte after the test's manual overwrite below.
		LastClock:                 1,
		TickToClockRatio:          1,
		CyclesPermanentFaultCheck: 5,
		WriteLog:                  false,
		Seed:                      1,
	}
	stats := &core.Stats{}
	eng, err := core.NewEngine("mem", cfg, adapter, host, "main_mem_injections.log", stats)
	require.NoError(t, err)
	eng.Start()

	// Fire exactly the first injection (tick >= 1 since Geometric(1.0)
	// now returns 1, never the tick it was scheduled from).
	require.True(t, host.Step())
	assert.Equal(t, byte(0xf0), mem.Bytes()[0])

	// Ordinary simulator traffic overwrites the byte cleanly.
	mem.Bytes()[0] = 0x0a

	// Drain until the permanent-check sweep fires at least once.
	fired := host.Run(core.Tick(1000))
	require.Greater(t, fired, 0)
	assert.Equal(t, byte(0xfa), mem.Bytes()[0])
}

// Scenario 3: no log line falls outside [firstClock*r, lastClock*r].
func TestEngineWindowBounds(t *testing.T) {
	host, _, adapter := newCacheHarness(t, 1)
	cfg := core.Config{
		Probability:               1.0,
		BitsToChange:              1,
		FirstClock:                100,
		LastClock:                 200,
		FaultType:                 core.BitFlip,
		TickToClockRatio:          1,
		CyclesPermanentFaultCheck: 10000,
		WriteLog:                  false,
		Seed:                      7,
	}
	stats := &core.Stats{}
	eng, err := core.NewEngine("cache", cfg, adapter, host, "cache_injections.log", stats)
	require.NoError(t, err)
	eng.Start()

	host.Run(core.Tick(500))
	atWindowClose := stats.Snapshot().NumFaultsInjected
	// probability=1.0 fires every tick once inside the window: ticks
	// 101..200 inclusive, 100 firings total.
	assert.Equal(t, int64(100), atWindowClose)

	// Running well past the window must not inject further, even though
	// the permanent-check event keeps rescheduling itself independently.
	host.Run(core.Tick(50000))
	assert.Equal(t, atWindowClose, stats.Snapshot().NumFaultsInjected)
}

// P9 companion: the injector never places an event outside the window,
// verified directly against the host's scheduling boundary rather than
// log content (no log file is written in this test).
func TestEngineNeverSchedulesOutsideWindow(t *testing.T) {
	host, _, adapter := newCacheHarness(t, 1)
	cfg := core.Config{
		Probability:               0.9,
		BitsToChange:              1,
		FirstClock:                10,
		LastClock:                 20,
		FaultType:                 core.BitFlip,
		TickToClockRatio:          1,
		CyclesPermanentFaultCheck: 1000,
		Seed:                      3,
	}
	stats := &core.Stats{}
	eng, err := core.NewEngine("cache", cfg, adapter, host, "cache_injections.log", stats)
	require.NoError(t, err)
	eng.Start()

	host.Run(core.Tick(1000))
	// Window spans ticks (10,20]; a firing can occur at most once per
	// tick, so at most 10 firings are possible regardless of how small
	// each sampled gap is.
	assert.LessOrEqual(t, stats.Snapshot().NumFaultsInjected, int64(10))
}

// P2 / P3: after a run mixing all three fault types, the counter
// invariants hold exactly.
func TestEngineCounterInvariantsHoldAfterMixedRun(t *testing.T) {
	host, _, adapter := newCacheHarness(t, 2)
	cfg := core.Config{
		Probability:               0.5,
		BitsToChange:              2,
		FirstClock:                0,
		LastClock:                 0,
		FaultType:                 core.Random,
		BitFlipProb:               0.5,
		StuckAtZeroProb:           0.25,
		StuckAtOneProb:            0.25,
		TickToClockRatio:          1,
		CyclesPermanentFaultCheck: 50,
		Seed:                      99,
	}
	stats := &core.Stats{}
	eng, err := core.NewEngine("cache", cfg, adapter, host, "cache_injections.log", stats)
	require.NoError(t, err)
	eng.Start()

	host.Run(core.Tick(5000))

	snap := stats.Snapshot()
	assert.Equal(t, snap.NumFaultsInjected, snap.NumBitFlips+snap.NumStuckAtZero+snap.NumStuckAtOne)
	assert.Equal(t, snap.NumPermanentFaults, snap.NumStuckAtZero+snap.NumStuckAtOne)
}

// P8: same seed + same configuration + same target trace yields an
// identical counter sequence (log content follows deterministically from
// the same RNG draws, so we assert on the cheaper, equally conclusive
// counter snapshot).
func TestEngineDeterministicWithFixedSeed(t *testing.T) {
	run := func() core.Stats {
		host, _, adapter := newCacheHarness(t, 1)
		cfg := core.Config{
			Probability:               0.3,
			BitsToChange:              1,
			FirstClock:                0,
			LastClock:                 0,
			FaultType:                 core.Random,
			BitFlipProb:               0.9,
			StuckAtZeroProb:           0.05,
			StuckAtOneProb:            0.05,
			TickToClockRatio:          1,
			CyclesPermanentFaultCheck: 100,
			Seed:                      555,
		}
		stats := &core.Stats{}
		eng, err := core.NewEngine("cache", cfg, adapter, host, "cache_injections.log", stats)
		require.NoError(t, err)
		eng.Start()
		host.Run(core.Tick(2000))
		return stats.Snapshot()
	}

	first := run()
	second := run()
	assert.Equal(t, first, second)
}

// P1: over many cycles with a fixed window, the observed firing count is
// within a generous multiple of the binomial standard deviation of
// N*probability.
func TestEngineFiringRateMatchesProbability(t *testing.T) {
	host, _, adapter := newCacheHarness(t, 1)
	const n = 20000
	p := 0.1
	cfg := core.Config{
		Probability:               p,
		BitsToChange:              1,
		FirstClock:                0,
		LastClock:                 0,
		FaultType:                 core.BitFlip,
		TickToClockRatio:          1,
		CyclesPermanentFaultCheck: 10000,
		Seed:                      2024,
	}
	stats := &core.Stats{}
	eng, err := core.NewEngine("cache", cfg, adapter, host, "cache_injections.log", stats)
	require.NoError(t, err)
	eng.Start()
	host.Run(core.Tick(n))

	expected := float64(n) * p
	sigma := math.Sqrt(float64(n) * p * (1 - p))
	got := float64(stats.Snapshot().NumFaultsInjected)
	assert.InDelta(t, expected, got, 4*sigma)
}
