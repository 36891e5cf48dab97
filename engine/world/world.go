// Package world is a small entity-component store with change tracking and an ordered system scheduler.
// Entities are generation-tagged indices into a dense arena. Components live in typed stores
// keyed by entity index, and every write is stamped with the world tick so that systems can ask
// whether a component was added or changed since they last ran.
//
// A World is not safe for concurrent use; all access happens on the render goroutine.
package world

import (
	"errors"
	"reflect"
)

// ErrStaleEntity is returned when an operation targets an entity that was despawned.
var ErrStaleEntity = errors.New("world: stale entity")

// Tick is the monotonically increasing change counter of a World.
type Tick uint64

// Entity is a generation-tagged handle into a World. The zero Entity is never alive.
type Entity struct {
	index      uint32
	generation uint32
}

// Index returns the arena slot of the entity.
func (e Entity) Index() uint32 { return e.index }

// Generation returns the generation counter of the slot at the time the entity was spawned.
func (e Entity) Generation() uint32 { return e.generation }

// IsZero reports whether e is the zero handle.
func (e Entity) IsZero() bool { return e.generation == 0 }

// componentStore is the type-erased view of a store[T] used for despawn.
type componentStore interface {
	remove(index uint32)
}

// World owns entities, components, resources and the system schedule.
type World struct {
	generations []uint32
	alive       []bool
	free        []uint32

	stores    map[reflect.Type]componentStore
	resources map[reflect.Type]*resourceCell

	tick    Tick
	lastRun Tick

	schedule schedule
}

// New creates an empty World.
//
// Returns:
//   - *World: a world with no entities, resources or systems
func New() *World {
	return &World{
		stores:    make(map[reflect.Type]componentStore),
		resources: make(map[reflect.Type]*resourceCell),
		tick:      1,
		schedule:  newSchedule(),
	}
}

// Tick returns the current change tick.
func (w *World) Tick() Tick { return w.tick }

// LastRun returns the last-run tick of the system currently executing, or 0 outside of systems.
func (w *World) LastRun() Tick { return w.lastRun }

// Spawn allocates a new entity, reusing a free slot when one exists.
//
// Returns:
//   - Entity: the new entity handle
func (w *World) Spawn() Entity {
	if n := len(w.free); n > 0 {
		idx := w.free[n-1]
		w.free = w.free[:n-1]
		w.generations[idx]++
		w.alive[idx] = true
		return Entity{index: idx, generation: w.generations[idx]}
	}
	idx := uint32(len(w.generations))
	w.generations = append(w.generations, 1)
	w.alive = append(w.alive, true)
	return Entity{index: idx, generation: 1}
}

// Alive reports whether e refers to a live entity.
func (w *World) Alive(e Entity) bool {
	if e.IsZero() || int(e.index) >= len(w.generations) {
		return false
	}
	return w.alive[e.index] && w.generations[e.index] == e.generation
}

// Despawn removes e and all of its components. The slot is recycled with a new generation.
//
// Parameters:
//   - e: the entity to remove
//
// Returns:
//   - error: ErrStaleEntity if e is not alive
func (w *World) Despawn(e Entity) error {
	if !w.Alive(e) {
		return ErrStaleEntity
	}
	for _, s := range w.stores {
		s.remove(e.index)
	}
	w.alive[e.index] = false
	w.free = append(w.free, e.index)
	return nil
}

// Len returns the number of live entities.
func (w *World) Len() int {
	return len(w.generations) - len(w.free)
}

// entityAt rebuilds the handle for a live slot.
func (w *World) entityAt(idx uint32) Entity {
	return Entity{index: idx, generation: w.generations[idx]}
}
