/*
Author: KleaSCM
Email: KleaSCM@gmail.com
File: reg.go
Description: core.Adapter[RegLocation, RegKey] implementation for the REG fault
engine. Selects a thread x register-class x index location the way
CHAOSReg.cc::processFault does (gem5 reference model, original_source/CHAOSReg),
without the structural downcast that file uses to reach the ISA's register
classes: the capability is expressed as the CPU interface below instead.
*/

package targets

import (
	"fmt"

	"github.com/kleascm/chaos-faultinjector/pkg/core"
)

// CPU is the capability the REG engine requires of the host simulator's CPU
// model. A real gem5 binding would implement this against ThreadContext /
// BaseISA::regClasses(); package demo ships a runnable stand-in.
type CPU interface {
	NumThreads() int
	ThreadLive(tid int) bool
	ThreadPC(tid int) uint64
	LastInstKind(tid int) core.InstKind
	// AllHalted reports whether every thread is halted or the CPU is
	// drained, the condition under which the REG engine stops scheduling
	// further injections (SPEC_FULL.md §6's supplemented shutdown check,
	// grounded on CHAOSReg.cc:233-254).
	AllHalted() bool

	NumIntRegs() int
	NumFPRegs() int
	ReadIntReg(tid, idx int) (uint64, error)
	WriteIntReg(tid, idx int, v uint64) error
	ReadFPReg(tid, idx int) (uint64, error)
	WriteFPReg(tid, idx int, v uint64) error
}

// RegLocation names one register of one thread.
type RegLocation struct {
	ThreadID int
	Class    core.RegClassTarget // Integer or FloatingPoint, never Both
	Index    int
}

// RegKey is the permanent-fault ledger key for a register: stable across
// firings regardless of whether the thread is currently live.
type RegKey struct {
	ThreadID int
	Class    core.RegClassTarget
	Index    int
}

// RegAdapter implements core.Adapter[RegLocation, RegKey].
type RegAdapter struct {
	cpu        CPU
	class      core.RegClassTarget
	pcTarget   uint64
	instTarget core.InstKind
}

// NewRegAdapter builds the REG target selector from a RegConfig's
// RegTargetClass/PCTarget/InstTarget and the CPU capability.
func NewRegAdapter(cpu CPU, class core.RegClassTarget, pcTarget uint64, instTarget core.InstKind) *RegAdapter {
	if instTarget == "" {
		instTarget = core.InstAll
	}
	return &RegAdapter{cpu: cpu, class: class, pcTarget: pcTarget, instTarget: instTarget}
}

// eligibleThreads returns the thread IDs a firing may target: live threads,
// further narrowed by the PC gate and instruction-kind gate when configured
// (spec.md §4.2's PC gate, supplemented by SPEC_FULL.md §6's inst gate).
func (a *RegAdapter) eligibleThreads() []int {
	var out []int
	for tid := 0; tid < a.cpu.NumThreads(); tid++ {
		if !a.cpu.ThreadLive(tid) {
			continue
		}
		if a.pcTarget != 0 && a.cpu.ThreadPC(tid) != a.pcTarget {
			continue
		}
		if a.instTarget != core.InstAll && a.cpu.LastInstKind(tid) != a.instTarget {
			continue
		}
		out = append(out, tid)
	}
	return out
}

// Select picks one thread uniformly among the eligible set, then a
// register class (uniformly between integer/floating-point when the
// config says "both" and the thread has both), then a uniform index
// within that class. An empty slice (nil error) means "nothing eligible
// right now" per spec.md §4.2's edge cases.
func (a *RegAdapter) Select(rng *core.RNG) ([]RegLocation, error) {
	threads := a.eligibleThreads()
	if len(threads) == 0 {
		return nil, nil
	}
	tid := threads[rng.Intn(len(threads))]

	class := a.class
	if class == core.RegClassBoth {
		haveInt := a.cpu.NumIntRegs() > 0
		haveFP := a.cpu.NumFPRegs() > 0
		switch {
		case haveInt && haveFP:
			if rng.Bool(0.5) {
				class = core.RegClassInteger
			} else {
				class = core.RegClassFloatingPoint
			}
		case haveInt:
			class = core.RegClassInteger
		case haveFP:
			class = core.RegClassFloatingPoint
		default:
			return nil, nil
		}
	}

	n := a.classSize(class)
	if n == 0 {
		return nil, nil
	}
	idx := rng.Intn(n)
	return []RegLocation{{ThreadID: tid, Class: class, Index: idx}}, nil
}

func (a *RegAdapter) classSize(class core.RegClassTarget) int {
	if class == core.RegClassInteger {
		return a.cpu.NumIntRegs()
	}
	return a.cpu.NumFPRegs()
}

func (a *RegAdapter) ReadCell(loc RegLocation) (uint64, error) {
	if loc.Class == core.RegClassInteger {
		return a.cpu.ReadIntReg(loc.ThreadID, loc.Index)
	}
	return a.cpu.ReadFPReg(loc.ThreadID, loc.Index)
}

func (a *RegAdapter) WriteCell(loc RegLocation, v uint64) error {
	if loc.Class == core.RegClassInteger {
		return a.cpu.WriteIntReg(loc.ThreadID, loc.Index, v)
	}
	return a.cpu.WriteFPReg(loc.ThreadID, loc.Index, v)
}

func (a *RegAdapter) Key(loc RegLocation) RegKey {
	return RegKey{ThreadID: loc.ThreadID, Class: loc.Class, Index: loc.Index}
}

func (a *RegAdapter) Describe(loc RegLocation) string {
	className := "int"
	if loc.Class == core.RegClassFloatingPoint {
		className = "fp"
	}
	return fmt.Sprintf("CPU/Thread[%d]/%s[%d]", loc.ThreadID, className, loc.Index)
}

// CellBits is the register word width the policy's mask operates over.
func (a *RegAdapter) CellBits() int { return 32 }

// MarkDirty is a no-op for registers: nothing tracks register "dirtiness"
// the way cache coherence state does.
func (a *RegAdapter) MarkDirty(RegLocation) {}

func (a *RegAdapter) Reachable(loc RegLocation) bool {
	return a.cpu.ThreadLive(loc.ThreadID)
}

// Locate reconstructs a RegLocation from its ledger key; trivial since
// RegKey and RegLocation share the same fields.
func (a *RegAdapter) Locate(key RegKey) (RegLocation, bool) {
	return RegLocation{ThreadID: key.ThreadID, Class: key.Class, Index: key.Index}, true
}

// Halted implements core.HaltAware: the REG engine stops scheduling once
// every thread is halted or the CPU is drained.
func (a *RegAdapter) Halted() bool { return a.cpu.AllHalted() }
