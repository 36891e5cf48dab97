package world

// Filter decides whether an entity takes part in a query.
type Filter func(w *World, e Entity) bool

// With matches entities that carry a T.
func With[T any]() Filter {
	return func(w *World, e Entity) bool { return Has[T](w, e) }
}

// Without matches entities that do not carry a T.
func Without[T any]() Filter {
	return func(w *World, e Entity) bool { return !Has[T](w, e) }
}

// Added matches entities whose T was attached since the running system last ran.
func Added[T any]() Filter {
	return func(w *World, e Entity) bool { return IsAdded[T](w, e) }
}

// Changed matches entities whose T was attached or mutated since the running system last ran.
func Changed[T any]() Filter {
	return func(w *World, e Entity) bool { return IsChanged[T](w, e) }
}

// Or matches when any of the given filters matches.
func Or(filters ...Filter) Filter {
	return func(w *World, e Entity) bool {
		for _, f := range filters {
			if f(w, e) {
				return true
			}
		}
		return false
	}
}

// And matches when every given filter matches.
func And(filters ...Filter) Filter {
	return func(w *World, e Entity) bool {
		for _, f := range filters {
			if !f(w, e) {
				return false
			}
		}
		return true
	}
}

// Query returns the live entities matching all filters, ordered by entity index.
// The result is a snapshot, so the caller may insert or remove components while iterating it.
//
// Parameters:
//   - filters: the conditions every returned entity satisfies
//
// Returns:
//   - []Entity: the matching entities in stable order
func (w *World) Query(filters ...Filter) []Entity {
	var out []Entity
	for idx := range w.generations {
		if !w.alive[idx] {
			continue
		}
		e := w.entityAt(uint32(idx))
		match := true
		for _, f := range filters {
			if !f(w, e) {
				match = false
				break
			}
		}
		if match {
			out = append(out, e)
		}
	}
	return out
}

// First returns the first entity matching filters in index order.
func (w *World) First(filters ...Filter) (Entity, bool) {
	for idx := range w.generations {
		if !w.alive[idx] {
			continue
		}
		e := w.entityAt(uint32(idx))
		if And(filters...)(w, e) {
			return e, true
		}
	}
	return Entity{}, false
}
