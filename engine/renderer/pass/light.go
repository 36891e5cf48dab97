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

// LightPhase draws the active light's model as a small unlit gizmo at the light position.
type LightPhase struct {
	shared *Shared
}

// NewLightPhase creates the light gizmo phase.
func NewLightPhase(shared *Shared) *LightPhase {
	return &LightPhase{shared: shared}
}

func (p *LightPhase) Name() string { return "light" }

// Enabled reports whether the active light carries uploaded geometry.
func (p *LightPhase) Enabled(w *world.World) bool {
	_, ok := p.gizmo(w)
	return ok
}

func (p *LightPhase) gizmo(w *world.World) (*resource_sync.ModelBuffers, bool) {
	e, _, _, ok := light.Active(w)
	if !ok {
		return nil, false
	}
	mb, ok := world.Get[resource_sync.ModelBuffers](w, e)
	if !ok || len(mb.Meshes) == 0 {
		return nil, false
	}
	return mb, true
}

func (p *LightPhase) Record(w *world.World, f Frame) error {
	mb, ok := p.gizmo(w)
	if !ok {
		return nil
	}
	pl, err := getPipeline(p.shared, pipeline.Key{
		Family:  pipeline.FamilyLight,
		Samples: f.Samples,
		Blend:   pipeline.BlendReplace,
		Depth:   pipeline.DepthReadOnly,
	})
	if err != nil {
		return fmt.Errorf("light phase: %w", err)
	}

	enc := f.Recorder.BeginRenderPass(gpu.RenderPassDescriptor{
		Label: p.Name(),
		Color: f.color(wgpu.LoadOpLoad, wgpu.Color{}),
		Depth: f.depth(wgpu.LoadOpLoad),
	})
	defer enc.End()

	enc.SetPipeline(pl.Handle())
	enc.SetBindGroup(0, p.shared.View.BindGroup())
	for _, mesh := range mb.Meshes {
		enc.SetVertexBuffer(0, mesh.Vertex)
		enc.SetIndexBuffer(mesh.Index)
		enc.DrawIndexed(mesh.IndexCount, 1)
	}
	return nil
}
