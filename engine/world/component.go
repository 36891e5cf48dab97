package world

import "reflect"

type entry[T any] struct {
	value   T
	added   Tick
	changed Tick
}

type store[T any] struct {
	entries map[uint32]*entry[T]
}

func (s *store[T]) remove(index uint32) {
	delete(s.entries, index)
}

func storeOf[T any](w *World, create bool) *store[T] {
	key := reflect.TypeFor[T]()
	if s, ok := w.stores[key]; ok {
		return s.(*store[T])
	}
	if !create {
		return nil
	}
	s := &store[T]{entries: make(map[uint32]*entry[T])}
	w.stores[key] = s
	return s
}

func lookup[T any](w *World, e Entity) *entry[T] {
	if !w.Alive(e) {
		return nil
	}
	s := storeOf[T](w, false)
	if s == nil {
		return nil
	}
	return s.entries[e.index]
}

// Insert attaches v to e, replacing any existing T. A fresh component is stamped as added
// and changed; a replacement is stamped as changed only.
//
// Parameters:
//   - w: the world
//   - e: the target entity
//   - v: the component value
//
// Returns:
//   - error: ErrStaleEntity if e is not alive
func Insert[T any](w *World, e Entity, v T) error {
	if !w.Alive(e) {
		return ErrStaleEntity
	}
	s := storeOf[T](w, true)
	if ent, ok := s.entries[e.index]; ok {
		ent.value = v
		ent.changed = w.tick
		return nil
	}
	s.entries[e.index] = &entry[T]{value: v, added: w.tick, changed: w.tick}
	return nil
}

// Get returns a pointer to the T on e without marking it changed.
// Callers must not write through the pointer; use GetMut for that.
func Get[T any](w *World, e Entity) (*T, bool) {
	ent := lookup[T](w, e)
	if ent == nil {
		return nil, false
	}
	return &ent.value, true
}

// GetMut returns a pointer to the T on e and stamps it as changed.
func GetMut[T any](w *World, e Entity) (*T, bool) {
	ent := lookup[T](w, e)
	if ent == nil {
		return nil, false
	}
	ent.changed = w.tick
	return &ent.value, true
}

// Has reports whether e carries a T.
func Has[T any](w *World, e Entity) bool {
	return lookup[T](w, e) != nil
}

// Remove detaches T from e. It is a no-op when the component is absent.
func Remove[T any](w *World, e Entity) {
	if !w.Alive(e) {
		return
	}
	if s := storeOf[T](w, false); s != nil {
		s.remove(e.index)
	}
}

// IsAdded reports whether T was attached to e after the running system last ran.
func IsAdded[T any](w *World, e Entity) bool {
	ent := lookup[T](w, e)
	return ent != nil && ent.added > w.lastRun
}

// IsChanged reports whether T on e was attached or mutated after the running system last ran.
func IsChanged[T any](w *World, e Entity) bool {
	ent := lookup[T](w, e)
	return ent != nil && ent.changed > w.lastRun
}
