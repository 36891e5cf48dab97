package pipeline

import (
	"fmt"
	"sync"

	"github.com/Carmen-Shannon/glace/common"
	"github.com/Carmen-Shannon/glace/engine/renderer/gpu"
	"github.com/cogentcore/webgpu/wgpu"
)

// Family identifies which shader and vertex layout a pipeline is built from.
type Family int

const (
	// FamilyMesh is the lit material pipeline shared by the opaque and transparent passes.
	FamilyMesh Family = iota
	// FamilyLight draws the light gizmo.
	FamilyLight
	// FamilyWireframe draws mesh edges as a line list.
	FamilyWireframe
	// FamilyDepth is the fullscreen depth visualization.
	FamilyDepth
	// FamilyUI draws the overlay.
	FamilyUI
)

func (f Family) String() string {
	switch f {
	case FamilyMesh:
		return "mesh"
	case FamilyLight:
		return "light"
	case FamilyWireframe:
		return "wireframe"
	case FamilyDepth:
		return "depth"
	case FamilyUI:
		return "ui"
	}
	return "unknown"
}

// BlendMode selects the color blend state.
type BlendMode int

const (
	// BlendReplace overwrites the target color.
	BlendReplace BlendMode = iota
	// BlendAlpha composites with source-over alpha blending.
	BlendAlpha
)

// DepthMode selects depth attachment usage.
type DepthMode int

const (
	// DepthNone renders without a depth attachment.
	DepthNone DepthMode = iota
	// DepthWrite tests with Less and writes depth.
	DepthWrite
	// DepthReadOnly tests with Less without writing.
	DepthReadOnly
)

// Key identifies one immutable pipeline variant.
type Key struct {
	Family  Family
	Samples uint32
	Blend   BlendMode
	Depth   DepthMode
}

func (k Key) String() string {
	return fmt.Sprintf("%s/x%d/blend%d/depth%d", k.Family, k.Samples, k.Blend, k.Depth)
}

// Pipeline is a compiled, immutable pipeline variant.
type Pipeline struct {
	key    Key
	handle gpu.RenderPipeline
	desc   gpu.RenderPipelineDescriptor
}

// Key returns the variant key the pipeline was built for.
func (p *Pipeline) Key() Key { return p.key }

// Handle returns the backend pipeline handle to bind in a pass.
func (p *Pipeline) Handle() gpu.RenderPipeline { return p.handle }

// DepthCompare returns the depth test function, or CompareFunctionUndefined without depth.
func (p *Pipeline) DepthCompare() wgpu.CompareFunction {
	if p.desc.Depth == nil {
		return wgpu.CompareFunctionUndefined
	}
	return p.desc.Depth.Compare
}

// DepthWriteEnabled reports whether the pipeline writes depth.
func (p *Pipeline) DepthWriteEnabled() bool {
	return p.desc.Depth != nil && p.desc.Depth.Write
}

// BlendEnabled reports whether the pipeline blends its color output.
func (p *Pipeline) BlendEnabled() bool {
	return p.desc.Blend != nil
}

// Topology returns the primitive topology.
func (p *Pipeline) Topology() wgpu.PrimitiveTopology {
	return p.desc.Topology
}

// Cache builds pipelines lazily and keeps them until Invalidate.
// Families must be registered before their keys are requested.
type Cache struct {
	mu       sync.Mutex
	backend  gpu.Backend
	format   wgpu.TextureFormat
	families map[Family]*FamilyConfig
	entries  map[Key]*Pipeline
}

// NewCache creates an empty pipeline cache targeting color format.
//
// Parameters:
//   - backend: the backend pipelines are compiled on
//   - format: the color target format of every pipeline
//
// Returns:
//   - *Cache: the cache
func NewCache(backend gpu.Backend, format wgpu.TextureFormat) *Cache {
	return &Cache{
		backend:  backend,
		format:   format,
		families: make(map[Family]*FamilyConfig),
		entries:  make(map[Key]*Pipeline),
	}
}

// Register installs the build configuration for family. Re-registering replaces the
// configuration and drops the family's cached variants.
func (c *Cache) Register(family Family, cfg *FamilyConfig) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.families[family] = cfg
	for k, p := range c.entries {
		if k.Family == family {
			p.handle.Release()
			delete(c.entries, k)
		}
	}
}

// Get returns the pipeline for key, compiling it on first use.
//
// Parameters:
//   - key: the variant to fetch
//
// Returns:
//   - *Pipeline: the cached pipeline
//   - error: error if the family is unknown or compilation fails
func (c *Cache) Get(key Key) (*Pipeline, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if p, ok := c.entries[key]; ok {
		return p, nil
	}
	cfg, ok := c.families[key.Family]
	if !ok {
		return nil, fmt.Errorf("pipeline %s: family not registered", key)
	}
	desc := cfg.descriptor(key, c.format)
	handle, err := c.backend.CreateRenderPipeline(desc)
	if err != nil {
		return nil, fmt.Errorf("pipeline %s: %w", key, err)
	}
	p := &Pipeline{key: key, handle: handle, desc: desc}
	c.entries[key] = p
	common.Logger().Debug("pipeline compiled", "key", key.String())
	return p, nil
}

// Invalidate releases every cached pipeline. Registered families are kept.
func (c *Cache) Invalidate() {
	c.mu.Lock()
	defer c.mu.Unlock()
	for k, p := range c.entries {
		p.handle.Release()
		delete(c.entries, k)
	}
}

// Len returns the number of compiled variants.
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

// blendState maps a BlendMode to its color blend state; replace needs none.
func blendState(mode BlendMode) *wgpu.BlendState {
	if mode != BlendAlpha {
		return nil
	}
	return &wgpu.BlendState{
		Color: wgpu.BlendComponent{
			SrcFactor: wgpu.BlendFactorSrcAlpha,
			DstFactor: wgpu.BlendFactorOneMinusSrcAlpha,
			Operation: wgpu.BlendOperationAdd,
		},
		Alpha: wgpu.BlendComponent{
			SrcFactor: wgpu.BlendFactorOne,
			DstFactor: wgpu.BlendFactorOneMinusSrcAlpha,
			Operation: wgpu.BlendOperationAdd,
		},
	}
}
