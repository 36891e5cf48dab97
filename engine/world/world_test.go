package world

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type position struct{ X, Y float32 }
type velocity struct{ X, Y float32 }
type marker struct{}

func TestSpawnDespawnRecyclesWithNewGeneration(t *testing.T) {
	w := New()
	a := w.Spawn()
	b := w.Spawn()
	assert.True(t, w.Alive(a))
	assert.Equal(t, 2, w.Len())

	require.NoError(t, w.Despawn(a))
	assert.False(t, w.Alive(a))
	assert.ErrorIs(t, w.Despawn(a), ErrStaleEntity)

	c := w.Spawn()
	assert.Equal(t, a.Index(), c.Index())
	assert.NotEqual(t, a.Generation(), c.Generation())
	assert.True(t, w.Alive(b))
	assert.True(t, w.Alive(c))
	assert.False(t, w.Alive(Entity{}))
}

func TestComponentsAreDroppedOnDespawn(t *testing.T) {
	w := New()
	e := w.Spawn()
	require.NoError(t, Insert(w, e, position{1, 2}))
	require.NoError(t, w.Despawn(e))

	reused := w.Spawn()
	assert.False(t, Has[position](w, reused))
	assert.ErrorIs(t, Insert(w, e, position{}), ErrStaleEntity)
}

func TestInsertGetRemove(t *testing.T) {
	w := New()
	e := w.Spawn()
	require.NoError(t, Insert(w, e, position{1, 2}))

	p, ok := Get[position](w, e)
	require.True(t, ok)
	assert.Equal(t, position{1, 2}, *p)

	require.NoError(t, Insert(w, e, position{3, 4}))
	p, _ = Get[position](w, e)
	assert.Equal(t, position{3, 4}, *p)

	Remove[position](w, e)
	assert.False(t, Has[position](w, e))
	_, ok = Get[velocity](w, e)
	assert.False(t, ok)
}

func TestQueryFiltersInIndexOrder(t *testing.T) {
	w := New()
	var all []Entity
	for i := 0; i < 5; i++ {
		e := w.Spawn()
		all = append(all, e)
		require.NoError(t, Insert(w, e, position{X: float32(i)}))
		if i%2 == 0 {
			require.NoError(t, Insert(w, e, marker{}))
		}
	}

	assert.Equal(t, []Entity{all[0], all[2], all[4]}, w.Query(With[position](), With[marker]()))
	assert.Equal(t, []Entity{all[1], all[3]}, w.Query(With[position](), Without[marker]()))

	first, ok := w.First(Without[marker]())
	require.True(t, ok)
	assert.Equal(t, all[1], first)
}

func TestAddedAndChangedAreRelativeToSystemLastRun(t *testing.T) {
	w := New()
	e := w.Spawn()
	require.NoError(t, Insert(w, e, position{}))

	var added, changed []Entity
	observer := NewSystem("observer", func(w *World) {
		added = w.Query(Added[position]())
		changed = w.Query(Changed[position]())
	})

	w.RunSystem(observer)
	assert.Equal(t, []Entity{e}, added)
	assert.Equal(t, []Entity{e}, changed)

	w.RunSystem(observer)
	assert.Empty(t, added)
	assert.Empty(t, changed)

	p, _ := GetMut[position](w, e)
	p.X = 3
	w.RunSystem(observer)
	assert.Empty(t, added)
	assert.Equal(t, []Entity{e}, changed)
}

func TestSystemDoesNotSeeItsOwnWrites(t *testing.T) {
	w := New()
	e := w.Spawn()
	require.NoError(t, Insert(w, e, position{}))

	runs := 0
	writer := NewSystem("writer", func(w *World) {
		for range w.Query(Changed[position]()) {
			runs++
		}
		p, _ := GetMut[position](w, e)
		p.X++
	})
	w.RunSystem(writer)
	w.RunSystem(writer)
	assert.Equal(t, 1, runs)
}

func TestResourcesAndEvents(t *testing.T) {
	w := New()
	SetResource(w, Time{Delta: 0.5})

	var seen bool
	sys := NewSystem("res", func(w *World) { seen = ResourceChanged[Time](w) })
	w.RunSystem(sys)
	assert.True(t, seen)
	w.RunSystem(sys)
	assert.False(t, seen)

	tm, ok := ResourceMut[Time](w)
	require.True(t, ok)
	tm.Delta = 1
	w.RunSystem(sys)
	assert.True(t, seen)

	Send(w, 1)
	Send(w, 2)
	assert.Equal(t, []int{1, 2}, Drain[int](w))
	assert.Nil(t, Drain[int](w))

	RemoveResource[Time](w)
	_, ok = Resource[Time](w)
	assert.False(t, ok)
}

func TestUpdateRunsStartupOnceThenStagesInOrder(t *testing.T) {
	w := New()
	var order []string
	w.AddSystem(StageRender, "render", func(*World) { order = append(order, "render") })
	w.AddSystem(StageUpdate, "update", func(*World) { order = append(order, "update") })
	w.AddSystem(StageStartup, "startup", func(*World) { order = append(order, "startup") })
	w.AddSystem(StagePreUpdate, "pre", func(*World) { order = append(order, "pre") })

	w.Update()
	w.Update()
	assert.Equal(t, []string{"startup", "pre", "update", "render", "pre", "update", "render"}, order)
	assert.Len(t, w.Systems(StageUpdate), 1)
	assert.Equal(t, "post_update", StagePostUpdate.String())
}
