package signals

import "fmt"

// Handle identifies a signal node. Handles are allocated by the host (see
// pkg/world for the reference allocator) and packed as a 32-bit arena index
// plus a 32-bit generation; the engine treats them as opaque and never
// allocates or recycles them. A host that reuses an index bumps the
// generation, so a stale handle never resolves to the slot's new occupant.
type Handle uint64

// NoHandle is the zero Handle. It never names a live node: allocators start
// generations at 1.
const NoHandle Handle = 0

// NewHandle packs an arena index and a generation into a Handle.
func NewHandle(index, generation uint32) Handle {
	return Handle(uint64(generation)<<32 | uint64(index))
}

// Index returns the arena index half of the handle.
func (h Handle) Index() uint32 {
	return uint32(h)
}

// Generation returns the generation half of the handle.
func (h Handle) Generation() uint32 {
	return uint32(h >> 32)
}

// Valid reports whether the handle could name a node. The zero handle and
// any handle with a zero generation are invalid.
func (h Handle) Valid() bool {
	return h.Generation() != 0
}

// String renders the handle as "<index>v<generation>", e.g. "7v1".
func (h Handle) String() string {
	return fmt.Sprintf("%dv%d", h.Index(), h.Generation())
}
