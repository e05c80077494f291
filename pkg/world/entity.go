package world

import "github.com/axon-dev/axon/pkg/signals"

// Entity is a host identity. Signal nodes are addressed by the entity they
// live on, so the two are the same handle type.
type Entity = signals.Handle

// entityAllocator hands out generational entities. An index is recycled
// only after its generation is bumped, so a stale Entity held by
// application code can never alias a newer occupant of the same slot.
type entityAllocator struct {
	// gens[i] is the generation the next occupant of index i will carry.
	// Generation 0 is never issued; the zero Entity stays invalid.
	gens []uint32
	free []uint32
	live int
}

func newEntityAllocator() *entityAllocator {
	return &entityAllocator{}
}

// alloc returns a fresh entity, reusing a freed index when one is available.
func (a *entityAllocator) alloc() Entity {
	var index uint32
	if n := len(a.free); n > 0 {
		index = a.free[n-1]
		a.free = a.free[:n-1]
	} else {
		index = uint32(len(a.gens))
		a.gens = append(a.gens, 1)
	}
	a.live++
	return signals.NewHandle(index, a.gens[index])
}

// release invalidates ent and recycles its index. Releasing a stale or
// foreign entity is a no-op.
func (a *entityAllocator) release(ent Entity) bool {
	index := ent.Index()
	if int(index) >= len(a.gens) || a.gens[index] != ent.Generation() {
		return false
	}
	a.gens[index]++
	a.free = append(a.free, index)
	a.live--
	return true
}

// alive reports whether ent is current.
func (a *entityAllocator) alive(ent Entity) bool {
	index := ent.Index()
	return int(index) < len(a.gens) && a.gens[index] == ent.Generation() && ent.Valid()
}
