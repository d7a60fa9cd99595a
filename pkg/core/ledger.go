package core

import "sync"

// Ledger tracks permanent (stuck-at) faults so they can be re-asserted on
// every CyclesPermanentFaultCheck sweep, the way the gem5 reference model's
// CHAOSCache keeps a permanent_faults map keyed by (blockAddr, byteOffset).
// Adapted from the map-of-ID store pattern used by the corpus.
type Ledger[K comparable] struct {
	mu      sync.RWMutex
	entries map[K]*PermanentFault
}

// NewLedger creates an empty ledger.
func NewLedger[K comparable]() *Ledger[K] {
	return &Ledger[K]{entries: make(map[K]*PermanentFault)}
}

// Record inserts or overwrites a permanent fault entry, marking it dirty
// so the next sweep re-asserts it.
func (l *Ledger[K]) Record(key K, ft FaultType, mask uint64) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.entries[key] = &PermanentFault{FaultType: ft, Mask: mask, Dirty: true}
}

// Lookup returns the entry for key, if any.
func (l *Ledger[K]) Lookup(key K) (*PermanentFault, bool) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	pf, ok := l.entries[key]
	return pf, ok
}

// Len reports the number of tracked permanent faults.
func (l *Ledger[K]) Len() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.entries)
}

// Keys returns a stable-order-independent snapshot of tracked keys, safe
// to iterate without holding the ledger's lock.
func (l *Ledger[K]) Keys() []K {
	l.mu.RLock()
	defer l.mu.RUnlock()
	keys := make([]K, 0, len(l.entries))
	for k := range l.entries {
		keys = append(keys, k)
	}
	return keys
}

// ReAssert walks every tracked entry and invokes reassert for each. If
// reassert reports the backing location is gone (found == false), the
// entry is left in the ledger rather than deleted — matching the gem5
// reference's checkPermanent, which skips missing blocks without
// forgetting them, since the block may be reallocated back to the same
// address later. ReAssert does not touch the Dirty flag itself: clearing
// it after a successful re-application is the reassert callback's job.
func (l *Ledger[K]) ReAssert(reassert func(key K, pf *PermanentFault) (found bool)) int {
	l.mu.RLock()
	snapshot := make(map[K]*PermanentFault, len(l.entries))
	for k, v := range l.entries {
		snapshot[k] = v
	}
	l.mu.RUnlock()

	reasserted := 0
	for k, pf := range snapshot {
		if !pf.Dirty {
			continue
		}
		if reassert(k, pf) {
			reasserted++
		}
	}
	return reasserted
}
