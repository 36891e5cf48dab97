package pass

import (
	"github.com/Carmen-Shannon/glace/engine/light"
	"github.com/Carmen-Shannon/glace/engine/model"
	"github.com/Carmen-Shannon/glace/engine/renderer/gpu"
	"github.com/Carmen-Shannon/glace/engine/renderer/resource_sync"
	"github.com/Carmen-Shannon/glace/engine/world"
)

// drawable is everything a lit draw of one entity needs.
type drawable struct {
	entity    world.Entity
	model     *model.Model
	buffers   *resource_sync.ModelBuffers
	instances *resource_sync.InstanceBuffer
	bundles   *resource_sync.MaterialBundles
	forced    bool
}

// drawables returns entities with a Model, an instance buffer and material bundles,
// excluding lights, in entity index order.
func drawables(w *world.World) []drawable {
	entities := w.Query(
		world.With[model.Model](),
		world.With[resource_sync.ModelBuffers](),
		world.With[resource_sync.InstanceBuffer](),
		world.With[resource_sync.MaterialBundles](),
		world.Without[light.Light](),
	)
	out := make([]drawable, 0, len(entities))
	for _, e := range entities {
		m, _ := world.Get[model.Model](w, e)
		mb, _ := world.Get[resource_sync.ModelBuffers](w, e)
		ib, _ := world.Get[resource_sync.InstanceBuffer](w, e)
		bundles, _ := world.Get[resource_sync.MaterialBundles](w, e)
		out = append(out, drawable{
			entity:    e,
			model:     m,
			buffers:   mb,
			instances: ib,
			bundles:   bundles,
			forced:    world.Has[Transparent](w, e),
		})
	}
	return out
}

// drawLit issues the indexed draws of d's sub-meshes whose transparency matches want.
// Group 0 and the pipeline must already be bound.
func drawLit(enc gpu.PassEncoder, d drawable, want bool) int {
	draws := 0
	for i, mesh := range d.buffers.Meshes {
		bundle := d.bundles.For(d.model.MaterialIndexFor(i))
		if bundle == nil {
			continue
		}
		if (d.forced || bundle.Transparent) != want {
			continue
		}
		enc.SetBindGroup(1, bundle.BindGroup())
		enc.SetVertexBuffer(0, mesh.Vertex)
		enc.SetVertexBuffer(1, d.instances.Buffer)
		enc.SetIndexBuffer(mesh.Index)
		enc.DrawIndexed(mesh.IndexCount, d.instances.Rows)
		draws++
	}
	return draws
}
