package pass

import (
	"fmt"

	"github.com/Carmen-Shannon/glace/engine/renderer/gpu"
	"github.com/Carmen-Shannon/glace/engine/renderer/pipeline"
	"github.com/Carmen-Shannon/glace/engine/world"
	"github.com/cogentcore/webgpu/wgpu"
)

// OpaquePhase clears the targets and draws every sub-mesh whose material is fully opaque.
type OpaquePhase struct {
	shared *Shared
}

// NewOpaquePhase creates the opaque phase.
func NewOpaquePhase(shared *Shared) *OpaquePhase {
	return &OpaquePhase{shared: shared}
}

func (p *OpaquePhase) Name() string { return "opaque" }

// Enabled is always true; the opaque phase owns the frame's clears.
func (p *OpaquePhase) Enabled(*world.World) bool { return true }

func (p *OpaquePhase) Record(w *world.World, f Frame) error {
	pl, err := getPipeline(p.shared, pipeline.Key{
		Family:  pipeline.FamilyMesh,
		Samples: f.Samples,
		Blend:   pipeline.BlendReplace,
		Depth:   pipeline.DepthWrite,
	})
	if err != nil {
		return fmt.Errorf("opaque phase: %w", err)
	}

	clear := DefaultClearColor
	if c, ok := world.Resource[ClearColor](w); ok {
		clear = *c
	}
	enc := f.Recorder.BeginRenderPass(gpu.RenderPassDescriptor{
		Label: p.Name(),
		Color: f.color(wgpu.LoadOpClear, wgpu.Color{
			R: float64(clear[0]), G: float64(clear[1]), B: float64(clear[2]), A: float64(clear[3]),
		}),
		Depth: f.depth(wgpu.LoadOpClear),
	})
	defer enc.End()

	enc.SetPipeline(pl.Handle())
	enc.SetBindGroup(0, p.shared.View.BindGroup())
	for _, d := range drawables(w) {
		drawLit(enc, d, false)
	}
	return nil
}
