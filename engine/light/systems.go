package light

import (
	"github.com/Carmen-Shannon/glace/common"
	bgp "github.com/Carmen-Shannon/glace/engine/renderer/bind_group_provider"
	"github.com/Carmen-Shannon/glace/engine/renderer/gpu"
	"github.com/Carmen-Shannon/glace/engine/world"
)

// Active returns the light that is rendered: the first Light in entity index order.
//
// Parameters:
//   - w: the world to search
//
// Returns:
//   - world.Entity: the light's entity
//   - Light: the light value
//   - int: how many Light entities exist
//   - bool: false if there is no light
func Active(w *world.World) (world.Entity, Light, int, bool) {
	lights := w.Query(world.With[Light]())
	if len(lights) == 0 {
		return world.Entity{}, Light{}, 0, false
	}
	l, _ := world.Get[Light](w, lights[0])
	return lights[0], *l, len(lights), true
}

// UniformSystem returns a system that uploads the active light into target every frame.
// With no light the previous buffer contents are kept.
//
// Parameters:
//   - backend: the backend owning the queue
//   - target: the provider holding the light buffer
//   - binding: the light buffer's binding index
//
// Returns:
//   - func(*world.World): the system body
func UniformSystem(backend gpu.Backend, target bgp.BindGroupProvider, binding uint32) func(w *world.World) {
	warned := false
	return func(w *world.World) {
		e, l, count, ok := Active(w)
		if !ok {
			return
		}
		if count > 1 && !warned {
			common.Logger().Warn("multiple lights present, only the first is rendered",
				"count", count, "entity", e.Index())
			warned = true
		}
		if err := target.Write(backend, binding, 0, l.Uniform().Marshal()); err != nil {
			common.Logger().Error("light uniform upload failed", "err", err)
		}
	}
}

// OrbitSystem rotates every Light about the world Y axis by Tau * dt * speed radians
// while the Orbit resource is enabled.
func OrbitSystem(w *world.World) {
	orbit, ok := world.Resource[Orbit](w)
	if !ok || !orbit.Enabled || orbit.Speed == 0 {
		return
	}
	t, ok := world.Resource[world.Time](w)
	if !ok || t.Delta == 0 {
		return
	}
	rot := common.QuatRotationY(common.Tau * t.Delta * orbit.Speed)
	for _, e := range w.Query(world.With[Light]()) {
		l, _ := world.GetMut[Light](w, e)
		l.Position = rot.Rotate(l.Position)
	}
}
