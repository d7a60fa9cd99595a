package core

import (
	"crypto/rand"
	"encoding/binary"
	"math"
	mrand "math/rand"
)

// RNG wraps math/rand with the sampling primitives the fault policy and
// scheduler need. Seeded from crypto/rand by default so the fault stream
// is non-deterministic across runs; pass a non-zero Config.Seed to make
// it reproducible for tests.
type RNG struct {
	r *mrand.Rand
}

// NewRNG builds an RNG. seed == 0 draws fresh entropy from crypto/rand.
func NewRNG(seed int64) *RNG {
	if seed == 0 {
		seed = cryptoSeed()
	}
	return &RNG{r: mrand.New(mrand.NewSource(seed))}
}

func cryptoSeed() int64 {
	var buf [8]byte
	if _, err := rand.Read(buf[:]); err != nil {
		return 1
	}
	v := int64(binary.LittleEndian.Uint64(buf[:]))
	if v == 0 {
		return 1
	}
	return v
}

// Geometric samples the number of cycles until the next Bernoulli(p)
// success, counting the successful trial itself (support {1,2,3,...}).
// This is std::geometric_distribution's {0,1,2,...} support shifted by
// one: a firing can never reschedule its successor at the tick it just
// fired on, so "0 cycles until next trial" would leave the scheduler
// stuck re-evaluating the same tick forever once p reaches 1. p must be
// in (0,1].
func (g *RNG) Geometric(p float64) int64 {
	if p >= 1 {
		return 1
	}
	if p <= 0 {
		return math.MaxInt32
	}
	u := g.r.Float64()
	if u >= 1 {
		u = 0.9999999999
	}
	return 1 + int64(math.Log(1-u)/math.Log(1-p))
}

// Intn returns a uniform value in [0,n).
func (g *RNG) Intn(n int) int { return g.r.Intn(n) }

// Uint64n returns a uniform value in [0,n).
func (g *RNG) Uint64n(n uint64) uint64 {
	if n == 0 {
		return 0
	}
	return uint64(g.r.Int63n(int64(n)))
}

// Float64 returns a uniform value in [0,1).
func (g *RNG) Float64() float64 { return g.r.Float64() }

// Bool returns true with probability p.
func (g *RNG) Bool(p float64) bool { return g.r.Float64() < p }

// DiscreteFaultType mirrors std::discrete_distribution over
// {BitFlip, StuckAtZero, StuckAtOne} weighted by the three probabilities
// from Config, used when FaultType == Random.
func (g *RNG) DiscreteFaultType(bitFlip, stuckZero, stuckOne float64) FaultType {
	u := g.r.Float64() * (bitFlip + stuckZero + stuckOne)
	switch {
	case u < bitFlip:
		return BitFlip
	case u < bitFlip+stuckZero:
		return StuckAtZero
	default:
		return StuckAtOne
	}
}
