package pass

import (
	"fmt"

	"github.com/Carmen-Shannon/glace/engine/light"
	"github.com/Carmen-Shannon/glace/engine/renderer/gpu"
	"github.com/Carmen-Shannon/glace/engine/renderer/pipeline"
	"github.com/Carmen-Shannon/glace/engine/renderer/resource_sync"
	"github.com/Carmen-Shannon/glace/engine/world"
	"github.com/cogentcore/webgpu/wgpu"
)

// WireframePhase draws the edges of every entity marked Wireframe on top of the shaded result.
type WireframePhase struct {
	shared *Shared
}

// NewWireframePhase creates the wireframe phase.
func NewWireframePhase(shared *Shared) *WireframePhase {
	return &WireframePhase{shared: shared}
}

func (p *WireframePhase) Name() string { return "wireframe" }

func (p *WireframePhase) targets(w *world.World) []world.Entity {
	return w.Query(
		world.With[Wireframe](),
		world.With[resource_sync.ModelBuffers](),
		world.With[resource_sync.InstanceBuffer](),
		world.Without[light.Light](),
	)
}

func (p *WireframePhase) Enabled(w *world.World) bool {
	return len(p.targets(w)) > 0
}

func (p *WireframePhase) Record(w *world.World, f Frame) error {
	pl, err := getPipeline(p.shared, pipeline.Key{
		Family:  pipeline.FamilyWireframe,
		Samples: f.Samples,
		Blend:   pipeline.BlendReplace,
		Depth:   pipeline.DepthReadOnly,
	})
	if err != nil {
		return fmt.Errorf("wireframe phase: %w", err)
	}

	enc := f.Recorder.BeginRenderPass(gpu.RenderPassDescriptor{
		Label: p.Name(),
		Color: f.color(wgpu.LoadOpLoad, wgpu.Color{}),
		Depth: f.depth(wgpu.LoadOpLoad),
	})
	defer enc.End()

	enc.SetPipeline(pl.Handle())
	enc.SetBindGroup(0, p.shared.View.BindGroup())
	for _, e := range p.targets(w) {
		mb, _ := world.Get[resource_sync.ModelBuffers](w, e)
		ib, _ := world.Get[resource_sync.InstanceBuffer](w, e)
		for _, mesh := range mb.Meshes {
			if mesh.Edges == nil || mesh.EdgeCount == 0 {
				continue
			}
			enc.SetVertexBuffer(0, mesh.Vertex)
			enc.SetVertexBuffer(1, ib.Buffer)
			enc.SetIndexBuffer(mesh.Edges)
			enc.DrawIndexed(mesh.EdgeCount, ib.Rows)
		}
	}
	return nil
}
