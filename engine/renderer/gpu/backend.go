// Package gpu is the narrow device abstraction every renderer package records against.
// Resources are opaque handles so that the frame pipeline can run against the wgpu device in
// production and against a recording fake in tests.
package gpu

import (
	"errors"

	"github.com/Carmen-Shannon/glace/common"
	"github.com/cogentcore/webgpu/wgpu"
)

// ErrSurfaceOutdated is returned by AcquireFrame when the surface no longer matches the window
// and must be reconfigured before a frame can be acquired.
var ErrSurfaceOutdated = errors.New("gpu: surface outdated")

// ErrNoAdapter is returned when no adapter compatible with the surface exists.
var ErrNoAdapter = errors.New("gpu: no compatible adapter")

// Buffer is a GPU buffer handle.
type Buffer interface {
	Label() string
	Size() uint64
	Release()
}

// Texture is a GPU texture together with its default view.
type Texture interface {
	Label() string
	Width() uint32
	Height() uint32
	SampleCount() uint32
	Format() wgpu.TextureFormat
	Release()
}

// Sampler is a GPU sampler handle.
type Sampler interface {
	Release()
}

// BindGroupLayout is a GPU bind group layout handle.
type BindGroupLayout interface {
	Release()
}

// BindGroup is a GPU bind group handle.
type BindGroup interface {
	Label() string
	Release()
}

// RenderPipeline is a compiled render pipeline handle.
type RenderPipeline interface {
	Label() string
	Release()
}

// SurfaceConfig describes how the presentation surface is configured.
type SurfaceConfig struct {
	Format      wgpu.TextureFormat
	Width       uint32
	Height      uint32
	PresentMode wgpu.PresentMode
}

// BufferDescriptor describes a buffer to create. When Contents is set the buffer is sized to it
// and initialized with it; otherwise Size bytes are allocated.
type BufferDescriptor struct {
	Label    string
	Usage    wgpu.BufferUsage
	Size     uint64
	Contents []byte
}

// TextureDescriptor describes a 2D texture. Pixels, when set, are uploaded as tightly packed rows.
type TextureDescriptor struct {
	Label       string
	Width       uint32
	Height      uint32
	Format      wgpu.TextureFormat
	SampleCount uint32
	Usage       wgpu.TextureUsage
	Pixels      []byte
}

// BindGroupEntry binds exactly one of Buffer, Texture or Sampler at Binding.
type BindGroupEntry struct {
	Binding uint32
	Buffer  Buffer
	Texture Texture
	Sampler Sampler
}

// BindGroupDescriptor describes a bind group against an existing layout.
type BindGroupDescriptor struct {
	Label   string
	Layout  BindGroupLayout
	Entries []BindGroupEntry
}

// DepthState configures depth testing for a render pipeline.
type DepthState struct {
	Format     wgpu.TextureFormat
	Write      bool
	Compare    wgpu.CompareFunction
	Bias       int32
	SlopeScale float32
}

// RenderPipelineDescriptor describes a render pipeline compiled from a single WGSL module with
// vs_main and fs_main entry points.
type RenderPipelineDescriptor struct {
	Label            string
	Source           string
	BindGroupLayouts []BindGroupLayout
	VertexBuffers    []wgpu.VertexBufferLayout
	Topology         wgpu.PrimitiveTopology
	CullMode         wgpu.CullMode
	FrontFace        wgpu.FrontFace
	ColorFormat      wgpu.TextureFormat
	Blend            *wgpu.BlendState
	Depth            *DepthState
	SampleCount      uint32
}

// ColorAttachment is the single color target of a render pass.
type ColorAttachment struct {
	View          Texture
	ResolveTarget Texture
	Load          wgpu.LoadOp
	Store         wgpu.StoreOp
	ClearColor    wgpu.Color
}

// DepthAttachment is the depth target of a render pass.
type DepthAttachment struct {
	View       Texture
	Load       wgpu.LoadOp
	Store      wgpu.StoreOp
	ClearValue float32
}

// RenderPassDescriptor describes one render pass. Depth is nil for passes without depth.
type RenderPassDescriptor struct {
	Label string
	Color ColorAttachment
	Depth *DepthAttachment
}

// PassEncoder records draw commands inside one render pass.
type PassEncoder interface {
	SetPipeline(p RenderPipeline)
	SetBindGroup(index uint32, bg BindGroup)
	SetVertexBuffer(slot uint32, buf Buffer)
	SetIndexBuffer(buf Buffer)
	Draw(vertexCount, instanceCount uint32)
	DrawIndexed(indexCount, instanceCount uint32)
	End()
}

// CommandRecorder is the single command encoder of a frame.
type CommandRecorder interface {
	BeginRenderPass(desc RenderPassDescriptor) PassEncoder
}

// Backend is the device, queue and surface of one window.
type Backend interface {
	// PreferredFormat returns the sRGB surface format when the surface supports one,
	// otherwise the first supported format.
	PreferredFormat() wgpu.TextureFormat

	// ConfigureSurface (re)configures the presentation surface.
	//
	// Parameters:
	//   - cfg: the surface configuration to apply
	//
	// Returns:
	//   - error: error if the surface cannot be configured
	ConfigureSurface(cfg SurfaceConfig) error

	// AcquireFrame acquires the next swapchain image and returns a view of it.
	//
	// Returns:
	//   - Texture: the frame view, valid until Present
	//   - error: ErrSurfaceOutdated when the surface must be reconfigured, or another acquire error
	AcquireFrame() (Texture, error)

	// Present presents the acquired frame and releases it.
	Present()

	// DiscardFrame releases the acquired frame without presenting it. It is a no-op when no
	// frame is held.
	DiscardFrame()

	CreateBuffer(desc BufferDescriptor) (Buffer, error)
	WriteBuffer(buf Buffer, offset uint64, data []byte)
	CreateTexture(desc TextureDescriptor) (Texture, error)
	CreateSampler(label string, desc common.SamplerStagingData) (Sampler, error)
	CreateBindGroupLayout(desc wgpu.BindGroupLayoutDescriptor) (BindGroupLayout, error)
	CreateBindGroup(desc BindGroupDescriptor) (BindGroup, error)
	CreateRenderPipeline(desc RenderPipelineDescriptor) (RenderPipeline, error)

	// BeginCommands opens the command recorder for one frame.
	BeginCommands() (CommandRecorder, error)

	// Submit finishes rec and submits it to the queue.
	Submit(rec CommandRecorder) error

	// Release frees the queue, device, surface and instance. Every resource created from the
	// backend must already be released.
	Release()
}
