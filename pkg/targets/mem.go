/*
Author: KleaSCM
Email: KleaSCM@gmail.com
File: mem.go
Description: core.Adapter[uint64, uint64] implementation for the MEM fault
engine. Grounded on CHAOSMem.cc (original_source/CHAOSMem)'s single-byte
read-modify-write over a configured address range, expressed here as a scoped
Memory capability instead of the reference's manual packet alloc/delete pair.
*/

package targets

import (
	"fmt"

	"github.com/kleascm/chaos-faultinjector/pkg/core"
)

// Memory is the capability the MEM engine requires of the host
// simulator's abstract memory. ReadByte/WriteByte internally own whatever
// packet or request-identity machinery the real memory system needs;
// the adapter never constructs one itself (spec.md §9's "scoped
// acquisition, one helper that reads, mutates, writes" redesign).
type Memory interface {
	Start() uint64
	End() uint64 // inclusive
	Mapped(addr uint64) bool
	ReadByte(addr uint64) (byte, error)
	WriteByte(addr uint64, v byte) error
}

// MemAdapter implements core.Adapter[uint64, uint64]; the location and the
// permanent-fault key are both simply the byte address.
type MemAdapter struct {
	mem   Memory
	start uint64
	end   uint64 // inclusive, already clamped/resolved
}

// NewMemAdapter builds the MEM target selector, clamping addrStart/addrEnd
// to the memory's extents and warning when it does (spec.md §4.2's edge
// case). addrEnd == 0 means "use memory end" (spec.md §3). warn may be nil.
func NewMemAdapter(mem Memory, addrStart, addrEnd uint64, warn func(string, ...interface{})) *MemAdapter {
	if addrEnd == 0 {
		addrEnd = mem.End()
	}
	if addrStart < mem.Start() {
		if warn != nil {
			warn("targets: mem addr_start %#x below memory start %#x, clamping", addrStart, mem.Start())
		}
		addrStart = mem.Start()
	}
	if addrStart > mem.End() {
		if warn != nil {
			warn("targets: mem addr_start %#x above memory end %#x, clamping", addrStart, mem.End())
		}
		addrStart = mem.End()
	}
	if addrEnd > mem.End() {
		if warn != nil {
			warn("targets: mem addr_end %#x above memory end %#x, clamping", addrEnd, mem.End())
		}
		addrEnd = mem.End()
	}
	return &MemAdapter{mem: mem, start: addrStart, end: addrEnd}
}

// Select draws one uniform address in [start, end].
func (a *MemAdapter) Select(rng *core.RNG) ([]uint64, error) {
	if a.end < a.start {
		return nil, nil
	}
	span := a.end - a.start + 1
	addr := a.start + rng.Uint64n(span)
	return []uint64{addr}, nil
}

func (a *MemAdapter) ReadCell(loc uint64) (uint64, error) {
	b, err := a.mem.ReadByte(loc)
	return uint64(b), err
}

func (a *MemAdapter) WriteCell(loc uint64, v uint64) error {
	return a.mem.WriteByte(loc, byte(v))
}

func (a *MemAdapter) Key(loc uint64) uint64 { return loc }

func (a *MemAdapter) Describe(loc uint64) string {
	return fmt.Sprintf("target addr: %#x", loc)
}

func (a *MemAdapter) CellBits() int { return 8 }

// MarkDirty is a no-op: plain memory has no coherence state to flag.
func (a *MemAdapter) MarkDirty(uint64) {}

func (a *MemAdapter) Reachable(loc uint64) bool { return a.mem.Mapped(loc) }

func (a *MemAdapter) Locate(key uint64) (uint64, bool) { return key, true }
