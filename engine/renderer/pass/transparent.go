package pass

import (
	"cmp"
	"fmt"
	"slices"

	"github.com/Carmen-Shannon/glace/engine/camera"
	"github.com/Carmen-Shannon/glace/engine/model"
	"github.com/Carmen-Shannon/glace/engine/renderer/gpu"
	"github.com/Carmen-Shannon/glace/engine/renderer/pipeline"
	"github.com/Carmen-Shannon/glace/engine/world"
	"github.com/cogentcore/webgpu/wgpu"
)

// TransparentPhase blends sub-meshes with alpha < 1, and every sub-mesh of entities marked
// Transparent, over the opaque result. Depth is tested but not written.
type TransparentPhase struct {
	shared *Shared
}

// NewTransparentPhase creates the transparent phase.
func NewTransparentPhase(shared *Shared) *TransparentPhase {
	return &TransparentPhase{shared: shared}
}

func (p *TransparentPhase) Name() string { return "transparent" }

func (p *TransparentPhase) Enabled(*world.World) bool { return true }

func (p *TransparentPhase) Record(w *world.World, f Frame) error {
	pl, err := getPipeline(p.shared, pipeline.Key{
		Family:  pipeline.FamilyMesh,
		Samples: f.Samples,
		Blend:   pipeline.BlendAlpha,
		Depth:   pipeline.DepthReadOnly,
	})
	if err != nil {
		return fmt.Errorf("transparent phase: %w", err)
	}

	enc := f.Recorder.BeginRenderPass(gpu.RenderPassDescriptor{
		Label: p.Name(),
		Color: f.color(wgpu.LoadOpLoad, wgpu.Color{}),
		Depth: f.depth(wgpu.LoadOpLoad),
	})
	defer enc.End()

	enc.SetPipeline(pl.Handle())
	enc.SetBindGroup(0, p.shared.View.BindGroup())
	for _, d := range backToFront(w, drawables(w)) {
		drawLit(enc, d, true)
	}
	return nil
}

// backToFront orders entities by decreasing distance from the camera, using each entity's
// Transform translation. Entities without one keep their relative order at the front.
func backToFront(w *world.World, ds []drawable) []drawable {
	cam, ok := world.Resource[camera.Camera](w)
	if !ok {
		return ds
	}
	dist := func(d drawable) float32 {
		t, ok := world.Get[model.Transform](w, d.entity)
		if !ok {
			return 0
		}
		return t.Translation.Sub(cam.Eye).LengthSquared()
	}
	slices.SortStableFunc(ds, func(a, b drawable) int {
		return cmp.Compare(dist(b), dist(a))
	})
	return ds
}
