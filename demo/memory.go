/*
Author: KleaSCM
Email: KleaSCM@gmail.com
File: memory.go
Description: A flat byte-slice stand-in for gem5 abstract memory,
implementing targets.Memory. ReadByte/WriteByte each access one byte
directly; callers never see a packet.
*/

package demo

import "fmt"

// Memory is a contiguous, zero-based byte-addressable range.
type Memory struct {
	bytes []byte
}

// NewMemory builds a zero-filled memory of size bytes, addressed
// [0, size).
func NewMemory(size int) *Memory { return &Memory{bytes: make([]byte, size)} }

func (m *Memory) Start() uint64 { return 0 }

func (m *Memory) End() uint64 {
	if len(m.bytes) == 0 {
		return 0
	}
	return uint64(len(m.bytes) - 1)
}

func (m *Memory) Mapped(addr uint64) bool { return addr <= m.End() }

func (m *Memory) ReadByte(addr uint64) (byte, error) {
	if !m.Mapped(addr) {
		return 0, errOutOfRange("memory", addr, 0)
	}
	return m.bytes[addr], nil
}

func (m *Memory) WriteByte(addr uint64, v byte) error {
	if !m.Mapped(addr) {
		return errOutOfRange("memory", addr, 0)
	}
	m.bytes[addr] = v
	return nil
}

// Bytes exposes the underlying storage for test assertions; not part of
// targets.Memory.
func (m *Memory) Bytes() []byte { return m.bytes }

func errOutOfRange(kind string, addr, extra uint64) error {
	if extra != 0 {
		return fmt.Errorf("demo: %s access out of range: block %#x offset %d", kind, addr, extra)
	}
	return fmt.Errorf("demo: %s access out of range: addr %#x", kind, addr)
}
