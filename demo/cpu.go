/*
Author: KleaSCM
Email: KleaSCM@gmail.com
File: cpu.go
Description: A minimal in-memory stand-in for a gem5 O3 CPU's thread
contexts, implementing targets.CPU so the REG engine is runnable and
testable without a real simulator attached. Not a CPU model: registers
hold arbitrary uint64 words and instructions are never decoded, only
labeled by the caller (see SetLastInst) for the InstTarget gate.
*/

package demo

import "github.com/kleascm/chaos-faultinjector/pkg/core"

// Thread is one simulated hardware thread's visible state.
type Thread struct {
	live     bool
	pc       uint64
	lastInst core.InstKind
	intRegs  []uint64
	fpRegs   []uint64
}

// CPU is a fixed-size multi-threaded register file.
type CPU struct {
	threads []*Thread
}

// NewCPU builds a CPU with numThreads live threads, each with
// numIntRegs integer and numFPRegs floating-point registers, all zeroed.
func NewCPU(numThreads, numIntRegs, numFPRegs int) *CPU {
	c := &CPU{threads: make([]*Thread, numThreads)}
	for i := range c.threads {
		c.threads[i] = &Thread{
			live:     true,
			lastInst: core.InstAll,
			intRegs:  make([]uint64, numIntRegs),
			fpRegs:   make([]uint64, numFPRegs),
		}
	}
	return c
}

// SetPC sets thread tid's program counter, used to exercise the PC gate.
func (c *CPU) SetPC(tid int, pc uint64) { c.threads[tid].pc = pc }

// SetLastInst labels the instruction kind thread tid most recently
// committed, used to exercise the instruction-class gate.
func (c *CPU) SetLastInst(tid int, kind core.InstKind) { c.threads[tid].lastInst = kind }

// Halt marks thread tid as no longer live.
func (c *CPU) Halt(tid int) { c.threads[tid].live = false }

func (c *CPU) NumThreads() int { return len(c.threads) }

func (c *CPU) ThreadLive(tid int) bool {
	if tid < 0 || tid >= len(c.threads) {
		return false
	}
	return c.threads[tid].live
}

func (c *CPU) ThreadPC(tid int) uint64 { return c.threads[tid].pc }

func (c *CPU) LastInstKind(tid int) core.InstKind { return c.threads[tid].lastInst }

func (c *CPU) AllHalted() bool {
	for _, t := range c.threads {
		if t.live {
			return false
		}
	}
	return true
}

func (c *CPU) NumIntRegs() int {
	if len(c.threads) == 0 {
		return 0
	}
	return len(c.threads[0].intRegs)
}

func (c *CPU) NumFPRegs() int {
	if len(c.threads) == 0 {
		return 0
	}
	return len(c.threads[0].fpRegs)
}

func (c *CPU) ReadIntReg(tid, idx int) (uint64, error) {
	return c.threads[tid].intRegs[idx], nil
}

func (c *CPU) WriteIntReg(tid, idx int, v uint64) error {
	c.threads[tid].intRegs[idx] = v
	return nil
}

func (c *CPU) ReadFPReg(tid, idx int) (uint64, error) {
	return c.threads[tid].fpRegs[idx], nil
}

func (c *CPU) WriteFPReg(tid, idx int, v uint64) error {
	c.threads[tid].fpRegs[idx] = v
	return nil
}
