package pipeline

import (
	"github.com/Carmen-Shannon/glace/engine/renderer/gpu"
	"github.com/cogentcore/webgpu/wgpu"
)

// FamilyConfig describes how every variant of one family is built.
type FamilyConfig struct {
	label               string
	source              func(samples uint32) string
	layouts             []gpu.BindGroupLayout
	layoutsFor          func(samples uint32) []gpu.BindGroupLayout
	vertexBuffers       []wgpu.VertexBufferLayout
	topology            wgpu.PrimitiveTopology
	cullMode            wgpu.CullMode
	frontFace           wgpu.FrontFace
	depthBias           int32
	depthBiasSlopeScale float32
}

// FamilyBuilderOption is a functional option used to configure a FamilyConfig during construction.
type FamilyBuilderOption func(*FamilyConfig)

// NewFamily creates a family configuration. Defaults are a triangle list with CCW front faces
// and no culling.
//
// Parameters:
//   - label: the debug label prefix for compiled pipelines
//   - source: returns the WGSL module for a sample count
//   - options: builder options
//
// Returns:
//   - *FamilyConfig: the configuration
func NewFamily(label string, source func(samples uint32) string, options ...FamilyBuilderOption) *FamilyConfig {
	cfg := &FamilyConfig{
		label:     label,
		source:    source,
		topology:  wgpu.PrimitiveTopologyTriangleList,
		cullMode:  wgpu.CullModeNone,
		frontFace: wgpu.FrontFaceCCW,
	}
	for _, opt := range options {
		opt(cfg)
	}
	return cfg
}

// WithBindGroupLayouts sets the bind group layouts in group index order.
//
// Parameters:
//   - layouts: the layouts for groups 0..n-1
//
// Returns:
//   - FamilyBuilderOption: a function that sets the layouts
func WithBindGroupLayouts(layouts ...gpu.BindGroupLayout) FamilyBuilderOption {
	return func(c *FamilyConfig) {
		c.layouts = layouts
	}
}

// WithBindGroupLayoutsFor sets layouts that depend on the sample count, such as a depth
// texture binding that must be declared multisampled. It overrides WithBindGroupLayouts.
func WithBindGroupLayoutsFor(layouts func(samples uint32) []gpu.BindGroupLayout) FamilyBuilderOption {
	return func(c *FamilyConfig) {
		c.layoutsFor = layouts
	}
}

// WithVertexBuffers sets the vertex buffer layouts in slot order.
//
// Parameters:
//   - layouts: the layouts for slots 0..n-1
//
// Returns:
//   - FamilyBuilderOption: a function that sets the vertex buffer layouts
func WithVertexBuffers(layouts ...wgpu.VertexBufferLayout) FamilyBuilderOption {
	return func(c *FamilyConfig) {
		c.vertexBuffers = layouts
	}
}

// WithTopology sets the primitive topology.
//
// Parameters:
//   - topology: the primitive topology
//
// Returns:
//   - FamilyBuilderOption: a function that sets the topology
func WithTopology(topology wgpu.PrimitiveTopology) FamilyBuilderOption {
	return func(c *FamilyConfig) {
		c.topology = topology
	}
}

// WithCullMode sets the face culling mode.
//
// Parameters:
//   - mode: the cull mode
//
// Returns:
//   - FamilyBuilderOption: a function that sets the cull mode
func WithCullMode(mode wgpu.CullMode) FamilyBuilderOption {
	return func(c *FamilyConfig) {
		c.cullMode = mode
	}
}

// WithDepthBias sets a constant and slope-scaled depth bias.
//
// Parameters:
//   - bias: the constant depth bias
//   - slopeScale: the slope-scaled depth bias
//
// Returns:
//   - FamilyBuilderOption: a function that sets the depth bias
func WithDepthBias(bias int32, slopeScale float32) FamilyBuilderOption {
	return func(c *FamilyConfig) {
		c.depthBias = bias
		c.depthBiasSlopeScale = slopeScale
	}
}

func (c *FamilyConfig) descriptor(key Key, format wgpu.TextureFormat) gpu.RenderPipelineDescriptor {
	desc := gpu.RenderPipelineDescriptor{
		Label:            c.label + " " + key.String(),
		Source:           c.source(key.Samples),
		BindGroupLayouts: c.layouts,
		VertexBuffers:    c.vertexBuffers,
		Topology:         c.topology,
		CullMode:         c.cullMode,
		FrontFace:        c.frontFace,
		ColorFormat:      format,
		Blend:            blendState(key.Blend),
		SampleCount:      key.Samples,
	}
	if c.layoutsFor != nil {
		desc.BindGroupLayouts = c.layoutsFor(key.Samples)
	}
	if key.Depth != DepthNone {
		desc.Depth = &gpu.DepthState{
			Format:     gpu.DepthFormat,
			Write:      key.Depth == DepthWrite,
			Compare:    wgpu.CompareFunctionLess,
			Bias:       c.depthBias,
			SlopeScale: c.depthBiasSlopeScale,
		}
	}
	return desc
}
