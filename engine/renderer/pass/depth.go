package pass

import (
	"fmt"

	"github.com/Carmen-Shannon/glace/common"
	"github.com/Carmen-Shannon/glace/engine/camera"
	bgp "github.com/Carmen-Shannon/glace/engine/renderer/bind_group_provider"
	"github.com/Carmen-Shannon/glace/engine/renderer/gpu"
	"github.com/Carmen-Shannon/glace/engine/renderer/pipeline"
	"github.com/Carmen-Shannon/glace/engine/world"
	"github.com/cogentcore/webgpu/wgpu"
)

// ShowDepth is the resource that turns the depth visualization on.
type ShowDepth bool

const depthParamsSize = 16

// DepthPhase replaces the color target with the linearized depth buffer.
// Its bind group borrows the frame's depth texture and is rebuilt whenever that texture changes.
type DepthPhase struct {
	shared   *Shared
	backend  gpu.Backend
	layouts  *bgp.Layouts
	provider bgp.BindGroupProvider
	bound    gpu.Texture
	params   [2]float32
}

// NewDepthPhase creates the depth visualization phase and its params buffer.
//
// Parameters:
//   - shared: the pipeline cache and view group
//   - backend: the backend to allocate on
//   - layouts: the shared layouts, providing the per-sample-count depth layout
//
// Returns:
//   - *DepthPhase: the phase
//   - error: error if the params buffer or sampler cannot be created
func NewDepthPhase(shared *Shared, backend gpu.Backend, layouts *bgp.Layouts) (*DepthPhase, error) {
	params, err := backend.CreateBuffer(gpu.BufferDescriptor{
		Label: "depth params",
		Usage: wgpu.BufferUsageUniform | wgpu.BufferUsageCopyDst,
		Size:  depthParamsSize,
	})
	if err != nil {
		return nil, fmt.Errorf("depth params: %w", err)
	}
	sampler, err := backend.CreateSampler("depth sampler", common.SamplerStagingData{})
	if err != nil {
		params.Release()
		return nil, fmt.Errorf("depth sampler: %w", err)
	}
	return &DepthPhase{
		shared:  shared,
		backend: backend,
		layouts: layouts,
		provider: bgp.NewBindGroupProvider("depth view",
			bgp.WithBuffer(bgp.BindingParams, params),
			bgp.WithSampler(bgp.BindingSampler, sampler),
		),
	}, nil
}

func (p *DepthPhase) Name() string { return "depth" }

func (p *DepthPhase) Enabled(w *world.World) bool {
	show, ok := world.Resource[ShowDepth](w)
	return ok && bool(*show)
}

func (p *DepthPhase) Record(w *world.World, f Frame) error {
	if f.Depth != p.bound {
		p.provider.SetTexture(bgp.BindingTexture, f.Depth, false)
		if err := p.provider.Build(p.backend, p.layouts.Depth(f.Samples)); err != nil {
			return fmt.Errorf("depth phase: %w", err)
		}
		p.bound = f.Depth
	}
	if cam, ok := world.Resource[camera.Camera](w); ok {
		next := [2]float32{cam.Projection.Near, cam.Projection.Far}
		if next != p.params {
			if err := p.provider.Write(p.backend, bgp.BindingParams, 0, marshalDepthParams(next)); err != nil {
				return fmt.Errorf("depth phase: %w", err)
			}
			p.params = next
		}
	}

	pl, err := getPipeline(p.shared, pipeline.Key{
		Family:  pipeline.FamilyDepth,
		Samples: f.Samples,
		Blend:   pipeline.BlendReplace,
		Depth:   pipeline.DepthNone,
	})
	if err != nil {
		return fmt.Errorf("depth phase: %w", err)
	}

	enc := f.Recorder.BeginRenderPass(gpu.RenderPassDescriptor{
		Label: p.Name(),
		Color: f.color(wgpu.LoadOpLoad, wgpu.Color{}),
	})
	defer enc.End()

	enc.SetPipeline(pl.Handle())
	enc.SetBindGroup(0, p.provider.BindGroup())
	enc.Draw(6, 1)
	return nil
}

// Release frees the params buffer and sampler. The depth texture is borrowed.
func (p *DepthPhase) Release() {
	p.provider.Release()
	p.bound = nil
}

// marshalDepthParams packs {near, far} padded to a 16-byte uniform.
func marshalDepthParams(v [2]float32) []byte {
	return common.SliceToBytes([]float32{v[0], v[1], 0, 0})
}
