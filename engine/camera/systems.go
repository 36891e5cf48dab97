package camera

import (
	"github.com/Carmen-Shannon/glace/common"
	"github.com/Carmen-Shannon/glace/engine/input"
	bgp "github.com/Carmen-Shannon/glace/engine/renderer/bind_group_provider"
	"github.com/Carmen-Shannon/glace/engine/renderer/gpu"
	"github.com/Carmen-Shannon/glace/engine/world"
)

// FlySystem returns a system that drives the Camera resource from the input.Snapshot,
// world.Time and world.Viewport resources. The camera is only marked changed when it moved.
func FlySystem(fc *FlyController) func(w *world.World) {
	return func(w *world.World) {
		cam, ok := world.Resource[Camera](w)
		if !ok {
			return
		}
		in, _ := world.Resource[input.Snapshot](w)
		t, _ := world.Resource[world.Time](w)
		vp, _ := world.Resource[world.Viewport](w)
		if in == nil || t == nil || vp == nil {
			return
		}
		next := *cam
		if fc.Update(&next, *in, float32(vp.Width), float32(vp.Height), t.Delta) {
			mut, _ := world.ResourceMut[Camera](w)
			*mut = next
		}
	}
}

// UniformSystem returns a system that re-uploads the camera uniform into target whenever the
// Camera resource changed since the system last ran. The buffer is written in place.
//
// Parameters:
//   - backend: the backend owning the queue
//   - target: the provider holding the camera buffer
//   - binding: the camera buffer's binding index
//
// Returns:
//   - func(*world.World): the system body
func UniformSystem(backend gpu.Backend, target bgp.BindGroupProvider, binding uint32) func(w *world.World) {
	return func(w *world.World) {
		if !world.ResourceChanged[Camera](w) {
			return
		}
		cam, _ := world.Resource[Camera](w)
		if err := target.Write(backend, binding, 0, cam.Uniform().Marshal()); err != nil {
			common.Logger().Error("camera uniform upload failed", "err", err)
		}
	}
}
