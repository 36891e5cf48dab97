package bind_group_provider

import (
	"fmt"

	"github.com/Carmen-Shannon/glace/engine/renderer/gpu"
	"github.com/cogentcore/webgpu/wgpu"
)

// Binding indices shared by the layouts below and the WGSL programs.
const (
	BindingCamera uint32 = 0
	BindingLight  uint32 = 1

	BindingMaterial        uint32 = 0
	BindingDiffuse         uint32 = 1
	BindingDiffuseSampler  uint32 = 2
	BindingNormal          uint32 = 3
	BindingNormalSampler   uint32 = 4
	BindingSpecular        uint32 = 5
	BindingSpecularSampler uint32 = 6

	BindingParams  uint32 = 0
	BindingTexture uint32 = 1
	BindingSampler uint32 = 2
)

// Layouts holds every bind group layout the built-in pipelines are built against.
type Layouts struct {
	// MeshView is group 0 of the mesh, light and wireframe pipelines: camera and light uniforms.
	MeshView gpu.BindGroupLayout
	// Material is group 1 of the mesh pipeline: the material uniform and three texture/sampler pairs.
	Material gpu.BindGroupLayout
	// UI is the overlay group: screen uniform, texture and sampler.
	UI gpu.BindGroupLayout

	depthSingle gpu.BindGroupLayout
	depthMulti  gpu.BindGroupLayout
}

// NewLayouts creates the shared layouts on backend.
//
// Parameters:
//   - backend: the backend to create layouts on
//
// Returns:
//   - *Layouts: the layouts
//   - error: error if any layout fails to create
func NewLayouts(backend gpu.Backend) (*Layouts, error) {
	var l Layouts
	var err error
	create := func(desc wgpu.BindGroupLayoutDescriptor) gpu.BindGroupLayout {
		if err != nil {
			return nil
		}
		var out gpu.BindGroupLayout
		out, err = backend.CreateBindGroupLayout(desc)
		if err != nil {
			err = fmt.Errorf("layout %q: %w", desc.Label, err)
		}
		return out
	}

	both := wgpu.ShaderStageVertex | wgpu.ShaderStageFragment
	l.MeshView = create(wgpu.BindGroupLayoutDescriptor{
		Label: "mesh view",
		Entries: []wgpu.BindGroupLayoutEntry{
			uniformEntry(BindingCamera, both),
			uniformEntry(BindingLight, both),
		},
	})
	l.Material = create(wgpu.BindGroupLayoutDescriptor{
		Label: "material",
		Entries: []wgpu.BindGroupLayoutEntry{
			uniformEntry(BindingMaterial, wgpu.ShaderStageFragment),
			textureEntry(BindingDiffuse, wgpu.TextureSampleTypeFloat, false),
			samplerEntry(BindingDiffuseSampler),
			textureEntry(BindingNormal, wgpu.TextureSampleTypeFloat, false),
			samplerEntry(BindingNormalSampler),
			textureEntry(BindingSpecular, wgpu.TextureSampleTypeFloat, false),
			samplerEntry(BindingSpecularSampler),
		},
	})
	l.UI = create(wgpu.BindGroupLayoutDescriptor{
		Label: "ui",
		Entries: []wgpu.BindGroupLayoutEntry{
			uniformEntry(BindingParams, wgpu.ShaderStageVertex),
			textureEntry(BindingTexture, wgpu.TextureSampleTypeFloat, false),
			samplerEntry(BindingSampler),
		},
	})
	l.depthSingle = create(depthLayout("depth view", false))
	l.depthMulti = create(depthLayout("depth view multisampled", true))
	if err != nil {
		return nil, err
	}
	return &l, nil
}

// Depth returns the depth visualization layout matching the depth target's sample count.
func (l *Layouts) Depth(samples uint32) gpu.BindGroupLayout {
	if samples > 1 {
		return l.depthMulti
	}
	return l.depthSingle
}

// DepthLayouts adapts Depth to the pipeline family layouts-for-samples hook.
func (l *Layouts) DepthLayouts(samples uint32) []gpu.BindGroupLayout {
	return []gpu.BindGroupLayout{l.Depth(samples)}
}

// Release releases every layout.
func (l *Layouts) Release() {
	for _, layout := range []gpu.BindGroupLayout{l.MeshView, l.Material, l.UI, l.depthSingle, l.depthMulti} {
		if layout != nil {
			layout.Release()
		}
	}
}

func depthLayout(label string, multisampled bool) wgpu.BindGroupLayoutDescriptor {
	return wgpu.BindGroupLayoutDescriptor{
		Label: label,
		Entries: []wgpu.BindGroupLayoutEntry{
			uniformEntry(BindingParams, wgpu.ShaderStageFragment),
			textureEntry(BindingTexture, wgpu.TextureSampleTypeDepth, multisampled),
			samplerEntry(BindingSampler),
		},
	}
}

func uniformEntry(binding uint32, visibility wgpu.ShaderStage) wgpu.BindGroupLayoutEntry {
	return wgpu.BindGroupLayoutEntry{
		Binding:    binding,
		Visibility: visibility,
		Buffer:     wgpu.BufferBindingLayout{Type: wgpu.BufferBindingTypeUniform},
	}
}

func textureEntry(binding uint32, sampleType wgpu.TextureSampleType, multisampled bool) wgpu.BindGroupLayoutEntry {
	return wgpu.BindGroupLayoutEntry{
		Binding:    binding,
		Visibility: wgpu.ShaderStageFragment,
		Texture: wgpu.TextureBindingLayout{
			SampleType:    sampleType,
			ViewDimension: wgpu.TextureViewDimension2D,
			Multisampled:  multisampled,
		},
	}
}

func samplerEntry(binding uint32) wgpu.BindGroupLayoutEntry {
	return wgpu.BindGroupLayoutEntry{
		Binding:    binding,
		Visibility: wgpu.ShaderStageFragment,
		Sampler:    wgpu.SamplerBindingLayout{Type: wgpu.SamplerBindingTypeFiltering},
	}
}
