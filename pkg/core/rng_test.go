package core_test

import (
	"math"
	"testing"

	"github.com/kleascm/chaos-faultinjector/pkg/core"
	"github.com/stretchr/testify/assert"
)

// Geometric's support starts at 1: a firing can never reschedule its
// successor at the tick it just fired on (see DESIGN.md's resolution of
// the p==1 scheduling hazard).
func TestRNGGeometricNeverReturnsZero(t *testing.T) {
	rng := core.NewRNG(17)
	for i := 0; i < 10000; i++ {
		assert.GreaterOrEqual(t, rng.Geometric(0.5), int64(1))
	}
}

func TestRNGGeometricAtP1IsDeterministicallyOne(t *testing.T) {
	rng := core.NewRNG(17)
	for i := 0; i < 100; i++ {
		assert.Equal(t, int64(1), rng.Geometric(1.0))
	}
}

func TestRNGGeometricMeanApproximatesExpectedGap(t *testing.T) {
	rng := core.NewRNG(2024)
	p := 0.2
	const n = 50000
	var sum int64
	for i := 0; i < n; i++ {
		sum += rng.Geometric(p)
	}
	mean := float64(sum) / n
	assert.InDelta(t, 1/p, mean, 0.2)
}

func TestRNGSameSeedProducesSameSequence(t *testing.T) {
	a := core.NewRNG(123)
	b := core.NewRNG(123)
	for i := 0; i < 50; i++ {
		assert.Equal(t, a.Intn(1000), b.Intn(1000))
	}
}

func TestRNGDiscreteFaultTypeRespectsWeights(t *testing.T) {
	rng := core.NewRNG(55)
	counts := map[core.FaultType]int{}
	const n = 30000
	for i := 0; i < n; i++ {
		counts[rng.DiscreteFaultType(0.9, 0.05, 0.05)]++
	}
	assert.InDelta(t, 0.9, float64(counts[core.BitFlip])/n, 0.03)
}

func TestRNGBoolRespectsProbability(t *testing.T) {
	rng := core.NewRNG(8)
	trueCount := 0
	const n = 20000
	for i := 0; i < n; i++ {
		if rng.Bool(0.3) {
			trueCount++
		}
	}
	assert.InDelta(t, 0.3, float64(trueCount)/n, 0.03)
}

func TestRNGZeroSeedIsNonDeterministic(t *testing.T) {
	a := core.NewRNG(0)
	b := core.NewRNG(0)
	// Overwhelmingly likely to differ across two crypto-seeded RNGs.
	diff := false
	for i := 0; i < 10; i++ {
		if a.Intn(math.MaxInt32) != b.Intn(math.MaxInt32) {
			diff = true
			break
		}
	}
	assert.True(t, diff)
}
