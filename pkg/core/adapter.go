package core

// Adapter is the generic target-selector contract the three CHAOS engine
// kinds implement. L is a location handle (e.g. a register slot, a
// memory address, a cache block+offset) and K is the key used to index
// the permanent-fault ledger for that location. Both must be comparable
// so they can be used as map keys and compared for deduplication.
//
// Adapted from the interfaces.Executor/Analyzer/Mutator split: instead of
// three bespoke interfaces per concern, one generic interface serves all
// three target kinds, parameterized per call site in pkg/targets.
type Adapter[L comparable, K comparable] interface {
	// Select returns the location(s) to corrupt for one firing. Register
	// and memory engines return exactly one location; the cache engine
	// returns CorruptionSize locations (one block, several byte offsets).
	// Returning an empty slice (with a nil error) means "nothing
	// selectable right now" (e.g. an empty cache) and the firing is
	// skipped without error.
	Select(rng *RNG) ([]L, error)

	// ReadCell and WriteCell perform the read-modify-write of one
	// location's current value.
	ReadCell(loc L) (uint64, error)
	WriteCell(loc L, v uint64) error

	// Key derives the permanent-fault ledger key for a location.
	Key(loc L) K

	// Describe renders a location for the audit log.
	Describe(loc L) string

	// CellBits is the width, in bits, of one addressable cell for this
	// target kind (8 for cache/memory bytes, up to 64 for registers).
	CellBits() int

	// MarkDirty flags the owning storage as modified, once per firing.
	MarkDirty(loc L)

	// Reachable reports whether a ledger key's backing location still
	// exists (used by the permanent-fault re-assert sweep).
	Reachable(loc L) bool

	// Locate reconstructs a Location from a ledger key, so the
	// permanent-fault re-assert sweep (which only has K, not L) can read
	// and rewrite the target. ok is false if the key can never map back
	// to a location (never the case for the three shipped adapters, all
	// of which derive K from L structurally, but kept explicit rather
	// than assuming the conversion is always total).
	Locate(key K) (loc L, ok bool)
}
