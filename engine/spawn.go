package engine

import (
	"errors"
	"io/fs"
	"os"

	"github.com/Carmen-Shannon/glace/common"
	"github.com/Carmen-Shannon/glace/engine/light"
	"github.com/Carmen-Shannon/glace/engine/loader"
	"github.com/Carmen-Shannon/glace/engine/model"
	"github.com/Carmen-Shannon/glace/engine/renderer/pass"
	"github.com/Carmen-Shannon/glace/engine/settings"
	"github.com/Carmen-Shannon/glace/engine/shapes"
	"github.com/Carmen-Shannon/glace/engine/world"
)

// Pending marks an entity whose model is still loading.
type Pending struct {
	Handle loader.Handle
	Path   string
}

// Spawned marks entities created from model files. The model settings (gloss, scale and
// wireframe) apply to these entities only.
type Spawned struct {
	Path string
}

func (e *engine) Spawn(path string, t model.Transform) world.Entity {
	w := e.world
	ent := w.Spawn()
	_ = world.Insert(w, ent, Pending{Handle: e.loader.Load(path), Path: path})
	_ = world.Insert(w, ent, t)
	_ = world.Insert(w, ent, world.Unloaded)
	return ent
}

func (e *engine) SpawnModel(m model.Model, t model.Transform) world.Entity {
	w := e.world
	ent := w.Spawn()
	_ = world.Insert(w, ent, m)
	_ = world.Insert(w, ent, t)
	return ent
}

// spawnLoaded attaches finished loads to their entities. A failed load is logged once and
// the entity stays Unloaded.
func (e *engine) spawnLoaded(w *world.World) {
	for _, ent := range w.Query(world.With[Pending]()) {
		p, _ := world.Get[Pending](w, ent)
		lm, ready, err := e.loader.TryGet(p.Handle)
		if err != nil {
			common.Logger().Error("model load failed", "path", p.Path, "error", err)
			world.Remove[Pending](w, ent)
			continue
		}
		if !ready {
			continue
		}
		m := lm.Model()
		path := p.Path
		world.Remove[Pending](w, ent)
		_ = world.Insert(w, ent, Spawned{Path: path})

		if s, ok := world.Resource[settings.Settings](w); ok {
			m.SetGloss(s.Model.Gloss)
			applyModelSettings(w, ent, s.Model)
		}
		_ = world.Insert(w, ent, m)
		common.Logger().Info("model spawned", "path", path, "meshes", len(m.Meshes), "materials", len(m.Materials))
	}
}

// applyModelSettings sets the scale and wireframe marker of one spawned entity.
func applyModelSettings(w *world.World, ent world.Entity, ms settings.ModelSettings) {
	if t, ok := world.Get[model.Transform](w, ent); ok {
		scale := common.Vec3{ms.Scale, ms.Scale, ms.Scale}
		if t.Scale != scale {
			mt, _ := world.GetMut[model.Transform](w, ent)
			mt.Scale = scale
		}
	}
	switch has := world.Has[pass.Wireframe](w, ent); {
	case ms.Wireframe && !has:
		_ = world.Insert(w, ent, pass.Wireframe{})
	case !ms.Wireframe && has:
		world.Remove[pass.Wireframe](w, ent)
	}
}

// defaultSceneSystem spawns the grid, the light gizmo and the configured model if its file exists.
func (e *engine) defaultSceneSystem(w *world.World) {
	grid := model.MaterialFromColor(common.Color{0.5, 0.5, 0.5, 1})
	grid.Name = "grid"
	grid.Gloss = 1
	grid.Specular = common.Vec3{}
	gridEntity := e.SpawnModel(model.NewModel(
		model.WithName("grid"),
		model.WithMeshes(shapes.Plane(10, 10)),
		model.WithMaterials(grid),
	), model.NewTransform())
	_ = world.Insert(w, gridEntity, pass.Wireframe{})

	lightEntity := w.Spawn()
	_ = world.Insert(w, lightEntity, model.NewModel(
		model.WithName("light gizmo"),
		model.WithMeshes(shapes.Cube(1, 1, 1)),
	))
	l := light.New()
	if s, ok := world.Resource[settings.Settings](w); ok {
		l.Color = common.Vec3(s.Light.Color)
	}
	_ = world.Insert(w, lightEntity, l)

	s, ok := world.Resource[settings.Settings](w)
	if !ok || s.Model.Path == "" {
		return
	}
	if _, err := os.Stat(s.Model.Path); errors.Is(err, fs.ErrNotExist) {
		common.Logger().Info("default model not found, skipping", "path", s.Model.Path)
		return
	}
	e.Spawn(s.Model.Path, model.NewTransform())
}
