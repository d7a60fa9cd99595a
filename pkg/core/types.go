// Package core implements the shared fault-injection engine: scheduling,
// target selection plumbing, fault policy, the permanent-fault ledger and
// the auditor. Target-kind-specific selection lives in pkg/targets.
package core

import (
	"fmt"
	"io"
)

// Tick is a host simulator tick, the finest-grained time unit the engine
// schedules against.
type Tick int64

// Cycles is a clock-domain cycle count, related to Tick by a per-engine
// TickToClockRatio.
type Cycles int64

// FaultType enumerates the bit mutations a firing can apply.
type FaultType int

const (
	BitFlip FaultType = iota
	StuckAtZero
	StuckAtOne
	// Random resolves to one of the above at firing time according to
	// Config.BitFlipProb / StuckAtZeroProb / StuckAtOneProb.
	Random
)

func (f FaultType) String() string {
	switch f {
	case BitFlip:
		return "bit_flip"
	case StuckAtZero:
		return "stuck_at_zero"
	case StuckAtOne:
		return "stuck_at_one"
	case Random:
		return "random"
	default:
		return "unknown"
	}
}

// ParseFaultType mirrors stringToFaultType from the gem5 reference model.
func ParseFaultType(s string) (FaultType, error) {
	switch s {
	case "bit_flip":
		return BitFlip, nil
	case "stuck_at_zero":
		return StuckAtZero, nil
	case "stuck_at_one":
		return StuckAtOne, nil
	case "random":
		return Random, nil
	default:
		return 0, fmt.Errorf("core: unknown fault type %q", s)
	}
}

// RegClassTarget narrows register selection to a register file.
type RegClassTarget int

const (
	RegClassBoth RegClassTarget = iota
	RegClassInteger
	RegClassFloatingPoint
)

// InstKind gates register injection on the kind of instruction most
// recently committed by the thread context, supplementing the PC-only
// gate with the older instruction-class gate from the original fault
// injector.
type InstKind string

const (
	InstAll      InstKind = "all"
	InstLoad     InstKind = "load"
	InstStore    InstKind = "store"
	InstAtomic   InstKind = "atomic"
	InstControl  InstKind = "control"
	InstSyscall  InstKind = "syscall"
	InstInteger  InstKind = "integer"
	InstFloating InstKind = "floating"
)

// Config holds the fields shared by all three engine kinds.
type Config struct {
	Probability float64 `mapstructure:"probability"`

	// BitsToChange is the number of random bit positions OR'd into each
	// generated fault mask. -1 means "sample once, at construction,
	// uniformly in [1, cell width in bits]".
	BitsToChange int `mapstructure:"bits_to_change"`

	FirstClock Cycles `mapstructure:"first_clock"`
	// LastClock == 0 means no upper bound on the injection window.
	LastClock Cycles `mapstructure:"last_clock"`

	FaultType FaultType `mapstructure:"fault_type"`
	// FaultMask, a binary string, fixes the mask instead of randomizing it
	// when it parses to a non-zero value; "" or all zeros leaves it unset.
	FaultMask string `mapstructure:"fault_mask"`

	TickToClockRatio          int64 `mapstructure:"tick_to_clock_ratio"`
	CyclesPermanentFaultCheck int64 `mapstructure:"cycles_permanent_fault_check"`

	WriteLog bool `mapstructure:"write_log"`

	// Used only when FaultType == Random; must sum to 1.0 or the engine
	// warns and substitutes the gem5 reference defaults (0.9/0.05/0.05).
	BitFlipProb     float64 `mapstructure:"bit_flip_prob"`
	StuckAtZeroProb float64 `mapstructure:"stuck_at_zero_prob"`
	StuckAtOneProb  float64 `mapstructure:"stuck_at_one_prob"`

	// Seed, if non-zero, makes the fault stream deterministic. Zero means
	// seed from crypto/rand, matching the non-deterministic default of
	// the gem5 reference model.
	Seed int64 `mapstructure:"seed"`
}

// RegConfig configures the register-fault engine.
type RegConfig struct {
	Config          `mapstructure:",squash"`
	RegTargetClass  RegClassTarget `mapstructure:"reg_target_class"`
	PCTarget        uint64         `mapstructure:"pc_target"`
	InstTarget      InstKind       `mapstructure:"inst_target"`
}

// MemConfig configures the main-memory fault engine.
type MemConfig struct {
	Config    `mapstructure:",squash"`
	AddrStart uint64 `mapstructure:"addr_start"`
	// AddrEnd == 0 means "end of memory", resolved from the Memory target
	// by targets.NewMemAdapter.
	AddrEnd uint64 `mapstructure:"addr_end"`
}

// CacheConfig configures the cache-block fault engine.
type CacheConfig struct {
	Config         `mapstructure:",squash"`
	CorruptionSize int `mapstructure:"corruption_size"`
}

// PermanentFault is a ledger entry for a stuck-at fault that must be
// re-asserted on every CyclesPermanentFaultCheck sweep.
type PermanentFault struct {
	FaultType FaultType
	Mask      uint64
	Dirty     bool
}

// Stats is the atomic counter block the auditor maintains, matching the
// stats group names of the host contract.
type Stats struct {
	NumFaultsInjected  int64 `json:"numFaultsInjected"`
	NumBitFlips        int64 `json:"numBitFlips"`
	NumStuckAtZero     int64 `json:"numStuckAtZero"`
	NumStuckAtOne      int64 `json:"numStuckAtOne"`
	NumPermanentFaults int64 `json:"numPermanentFaults"`
}

// Snapshot returns a point-in-time copy safe to hand to a reporter or to
// marshal as JSON.
func (s *Stats) Snapshot() Stats { return *s }

// Host is the subset of the simulator's event-queue / logging contract
// the engine depends on. pkg/simhost provides a runnable implementation;
// a real simulator binding would implement it against its own scheduler.
// Schedule on an event that is already pending moves it to the new tick,
// so each event has at most one pending firing.
type Host interface {
	Now() Tick
	Schedule(ev *Event, at Tick)
	Squash(ev *Event)
	Scheduled(ev *Event) bool
	ClockEdge(c Cycles) Tick
	CurCycle() Cycles
	Warn(format string, args ...interface{})
	Panic(format string, args ...interface{})
	CreateLog(name string) (io.WriteCloser, error)
	Draining() bool
}

// Event is an opaque handle the engine schedules callbacks against. The
// Host implementation is responsible for invoking Fn at the scheduled
// Tick and for ordering ties by insertion sequence.
type Event struct {
	Name string
	Fn   func()
}
