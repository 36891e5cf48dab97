package engine

import (
	"github.com/Carmen-Shannon/glace/common"
	"github.com/Carmen-Shannon/glace/engine/camera"
	"github.com/Carmen-Shannon/glace/engine/light"
	"github.com/Carmen-Shannon/glace/engine/model"
	"github.com/Carmen-Shannon/glace/engine/renderer"
	"github.com/Carmen-Shannon/glace/engine/renderer/pass"
	"github.com/Carmen-Shannon/glace/engine/settings"
	"github.com/Carmen-Shannon/glace/engine/world"
)

// applySettings pushes changed settings into the context, the resources the passes read and
// the spawned entities. The first run applies everything; later runs only what differs from
// the previously applied settings.
func (e *engine) applySettings(w *world.World) {
	if !world.ResourceChanged[settings.Settings](w) {
		return
	}
	s, _ := world.Resource[settings.Settings](w)
	next := *s
	prev := e.applied
	first := prev == nil
	if first {
		prev = &settings.Settings{}
	}
	log := common.Logger()

	if first || next.Render.MSAA != prev.Render.MSAA {
		if err := e.ctx.SetSampleCount(renderer.MSAASampleCount(next.Render.MSAA)); err != nil {
			log.Error("msaa change failed", "samples", next.Render.MSAA, "error", err)
		}
	}
	if first || next.Render.PresentMode != prev.Render.PresentMode {
		if err := e.ctx.SetPresentMode(renderer.ParsePresentMode(next.Render.PresentMode)); err != nil {
			log.Error("present mode change failed", "mode", next.Render.PresentMode, "error", err)
		}
	}
	if first || next.Render.ClearColor != prev.Render.ClearColor {
		world.SetResource(w, pass.ClearColor(next.Render.ClearColor))
	}
	if first || next.Render.ShowDepth != prev.Render.ShowDepth {
		world.SetResource(w, pass.ShowDepth(next.Render.ShowDepth))
	}

	if first || next.Camera != prev.Camera {
		e.fly.SetSpeed(next.Camera.Speed)
		if cam, ok := world.Resource[camera.Camera](w); ok &&
			(cam.Projection.Near != next.Camera.Near || cam.Projection.Far != next.Camera.Far) {
			mut, _ := world.ResourceMut[camera.Camera](w)
			mut.Projection.Near = next.Camera.Near
			mut.Projection.Far = next.Camera.Far
		}
	}

	if first || next.Light.Rotate != prev.Light.Rotate || next.Light.Speed != prev.Light.Speed {
		world.SetResource(w, light.Orbit{Enabled: next.Light.Rotate, Speed: next.Light.Speed})
	}
	if first || next.Light.Color != prev.Light.Color {
		color := common.Vec3(next.Light.Color)
		for _, ent := range w.Query(world.With[light.Light]()) {
			l, _ := world.GetMut[light.Light](w, ent)
			l.Color = color
		}
	}

	if first || next.Model != prev.Model {
		glossChanged := first || next.Model.Gloss != prev.Model.Gloss
		for _, ent := range w.Query(world.With[Spawned](), world.With[model.Model]()) {
			if glossChanged {
				m, _ := world.GetMut[model.Model](w, ent)
				m.SetGloss(next.Model.Gloss)
			}
			applyModelSettings(w, ent, next.Model)
		}
	}

	e.applied = &next
}
