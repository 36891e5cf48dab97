package world

import "reflect"

type resourceCell struct {
	value   any
	changed Tick
}

// SetResource stores v as the singleton T, stamping it as changed.
func SetResource[T any](w *World, v T) {
	key := reflect.TypeFor[T]()
	if cell, ok := w.resources[key]; ok {
		*(cell.value.(*T)) = v
		cell.changed = w.tick
		return
	}
	p := new(T)
	*p = v
	w.resources[key] = &resourceCell{value: p, changed: w.tick}
}

// Resource returns the singleton T without marking it changed.
func Resource[T any](w *World) (*T, bool) {
	cell, ok := w.resources[reflect.TypeFor[T]()]
	if !ok {
		return nil, false
	}
	return cell.value.(*T), true
}

// ResourceMut returns the singleton T and stamps it as changed.
func ResourceMut[T any](w *World) (*T, bool) {
	cell, ok := w.resources[reflect.TypeFor[T]()]
	if !ok {
		return nil, false
	}
	cell.changed = w.tick
	return cell.value.(*T), true
}

// ResourceChanged reports whether T was set or mutated since the running system last ran.
func ResourceChanged[T any](w *World) bool {
	cell, ok := w.resources[reflect.TypeFor[T]()]
	return ok && cell.changed > w.lastRun
}

// RemoveResource deletes the singleton T.
func RemoveResource[T any](w *World) {
	delete(w.resources, reflect.TypeFor[T]())
}

// eventQueue buffers values of T until drained.
type eventQueue[T any] struct {
	items []T
}

// Send appends ev to the T event queue.
func Send[T any](w *World, ev T) {
	q, ok := Resource[eventQueue[T]](w)
	if !ok {
		SetResource(w, eventQueue[T]{})
		q, _ = Resource[eventQueue[T]](w)
	}
	q.items = append(q.items, ev)
}

// Drain returns and clears every pending T event, oldest first.
func Drain[T any](w *World) []T {
	q, ok := Resource[eventQueue[T]](w)
	if !ok || len(q.items) == 0 {
		return nil
	}
	out := q.items
	q.items = nil
	return out
}

// Time is the frame clock resource updated by the engine loop.
type Time struct {
	// Delta is the seconds elapsed since the previous frame.
	Delta float32
	// Elapsed is the seconds since startup.
	Elapsed float64
}

// Viewport is the surface size in pixels, updated on resize.
type Viewport struct {
	Width  uint32
	Height uint32
}

// Aspect returns width / height, or 1 for a degenerate viewport.
func (v Viewport) Aspect() float32 {
	if v.Width == 0 || v.Height == 0 {
		return 1
	}
	return float32(v.Width) / float32(v.Height)
}
