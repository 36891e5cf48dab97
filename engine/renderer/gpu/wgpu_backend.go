package gpu

import (
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/Carmen-Shannon/glace/common"
	"github.com/cogentcore/webgpu/wgpu"
)

type wgpuBuffer struct {
	label string
	size  uint64
	buf   *wgpu.Buffer
}

func (b *wgpuBuffer) Label() string { return b.label }
func (b *wgpuBuffer) Size() uint64  { return b.size }
func (b *wgpuBuffer) Release()      { b.buf.Release() }

type wgpuTexture struct {
	label   string
	width   uint32
	height  uint32
	samples uint32
	format  wgpu.TextureFormat
	tex     *wgpu.Texture
	view    *wgpu.TextureView
}

func (t *wgpuTexture) Label() string              { return t.label }
func (t *wgpuTexture) Width() uint32              { return t.width }
func (t *wgpuTexture) Height() uint32             { return t.height }
func (t *wgpuTexture) SampleCount() uint32        { return t.samples }
func (t *wgpuTexture) Format() wgpu.TextureFormat { return t.format }
func (t *wgpuTexture) Release() {
	if t.view != nil {
		t.view.Release()
	}
	if t.tex != nil {
		t.tex.Release()
	}
}

type wgpuSampler struct{ s *wgpu.Sampler }

func (s *wgpuSampler) Release() { s.s.Release() }

type wgpuBindGroupLayout struct{ l *wgpu.BindGroupLayout }

func (l *wgpuBindGroupLayout) Release() { l.l.Release() }

type wgpuBindGroup struct {
	label string
	bg    *wgpu.BindGroup
}

func (g *wgpuBindGroup) Label() string { return g.label }
func (g *wgpuBindGroup) Release()      { g.bg.Release() }

type wgpuPipeline struct {
	label string
	p     *wgpu.RenderPipeline
}

func (p *wgpuPipeline) Label() string { return p.label }
func (p *wgpuPipeline) Release()      { p.p.Release() }

type wgpuRecorder struct {
	encoder *wgpu.CommandEncoder
}

func (r *wgpuRecorder) BeginRenderPass(desc RenderPassDescriptor) PassEncoder {
	color := wgpu.RenderPassColorAttachment{
		View:       desc.Color.View.(*wgpuTexture).view,
		LoadOp:     desc.Color.Load,
		StoreOp:    desc.Color.Store,
		ClearValue: desc.Color.ClearColor,
	}
	if desc.Color.ResolveTarget != nil {
		color.ResolveTarget = desc.Color.ResolveTarget.(*wgpuTexture).view
	}
	rp := &wgpu.RenderPassDescriptor{
		Label:            desc.Label,
		ColorAttachments: []wgpu.RenderPassColorAttachment{color},
	}
	if desc.Depth != nil {
		rp.DepthStencilAttachment = &wgpu.RenderPassDepthStencilAttachment{
			View:            desc.Depth.View.(*wgpuTexture).view,
			DepthLoadOp:     desc.Depth.Load,
			DepthStoreOp:    desc.Depth.Store,
			DepthClearValue: desc.Depth.ClearValue,
		}
	}
	return &wgpuPass{pass: r.encoder.BeginRenderPass(rp)}
}

type wgpuPass struct {
	pass *wgpu.RenderPassEncoder
}

func (p *wgpuPass) SetPipeline(rp RenderPipeline) {
	p.pass.SetPipeline(rp.(*wgpuPipeline).p)
}

func (p *wgpuPass) SetBindGroup(index uint32, bg BindGroup) {
	p.pass.SetBindGroup(index, bg.(*wgpuBindGroup).bg, nil)
}

func (p *wgpuPass) SetVertexBuffer(slot uint32, buf Buffer) {
	p.pass.SetVertexBuffer(slot, buf.(*wgpuBuffer).buf, 0, wgpu.WholeSize)
}

func (p *wgpuPass) SetIndexBuffer(buf Buffer) {
	p.pass.SetIndexBuffer(buf.(*wgpuBuffer).buf, wgpu.IndexFormatUint32, 0, wgpu.WholeSize)
}

func (p *wgpuPass) Draw(vertexCount, instanceCount uint32) {
	p.pass.Draw(vertexCount, instanceCount, 0, 0)
}

func (p *wgpuPass) DrawIndexed(indexCount, instanceCount uint32) {
	p.pass.DrawIndexed(indexCount, instanceCount, 0, 0, 0)
}

func (p *wgpuPass) End() {
	p.pass.End()
	p.pass.Release()
}

// wgpuBackend is the Backend implementation on top of a wgpu device.
type wgpuBackend struct {
	mu sync.Mutex

	instance *wgpu.Instance
	adapter  *wgpu.Adapter
	device   *wgpu.Device
	queue    *wgpu.Queue
	surface  *wgpu.Surface

	config       SurfaceConfig
	frameTexture *wgpu.Texture
	frameView    *wgpu.TextureView
}

var _ Backend = &wgpuBackend{}

// NewWGPUBackend creates the instance, surface, adapter and device for a window surface.
//
// Parameters:
//   - surfaceDescriptor: the platform surface descriptor from the window
//   - forceFallbackAdapter: request a software adapter
//
// Returns:
//   - Backend: the device-backed backend
//   - error: ErrNoAdapter or a device request error
func NewWGPUBackend(surfaceDescriptor *wgpu.SurfaceDescriptor, forceFallbackAdapter bool) (Backend, error) {
	b := &wgpuBackend{
		instance: wgpu.CreateInstance(nil),
	}
	b.surface = b.instance.CreateSurface(surfaceDescriptor)

	adapter, err := b.instance.RequestAdapter(&wgpu.RequestAdapterOptions{
		ForceFallbackAdapter: forceFallbackAdapter,
		CompatibleSurface:    b.surface,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrNoAdapter, err)
	}
	b.adapter = adapter
	common.Logger().Info("adapter acquired", "fallback", forceFallbackAdapter)

	device, err := adapter.RequestDevice(&wgpu.DeviceDescriptor{
		Label: "glace device",
	})
	if err != nil {
		return nil, fmt.Errorf("request device: %w", err)
	}
	b.device = device
	b.queue = device.GetQueue()
	return b, nil
}

func (b *wgpuBackend) PreferredFormat() wgpu.TextureFormat {
	caps := b.surface.GetCapabilities(b.adapter)
	for _, f := range caps.Formats {
		if f == wgpu.TextureFormatBGRA8UnormSrgb || f == wgpu.TextureFormatRGBA8UnormSrgb {
			return f
		}
	}
	return caps.Formats[0]
}

func (b *wgpuBackend) ConfigureSurface(cfg SurfaceConfig) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	caps := b.surface.GetCapabilities(b.adapter)
	if len(caps.AlphaModes) == 0 {
		return errors.New("surface reports no alpha modes")
	}
	b.config = cfg
	b.surface.Configure(b.adapter, b.device, &wgpu.SurfaceConfiguration{
		Usage:       wgpu.TextureUsageRenderAttachment,
		Format:      cfg.Format,
		Width:       cfg.Width,
		Height:      cfg.Height,
		PresentMode: cfg.PresentMode,
		AlphaMode:   caps.AlphaModes[0],
	})
	return nil
}

func (b *wgpuBackend) AcquireFrame() (Texture, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.frameTexture != nil {
		return nil, errors.New("previous frame not yet presented")
	}
	tex, err := b.surface.GetCurrentTexture()
	if err != nil {
		msg := strings.ToLower(err.Error())
		if strings.Contains(msg, "outdated") || strings.Contains(msg, "lost") {
			return nil, fmt.Errorf("%w: %w", ErrSurfaceOutdated, err)
		}
		return nil, err
	}
	view, err := tex.CreateView(nil)
	if err != nil {
		tex.Release()
		return nil, err
	}
	b.frameTexture = tex
	b.frameView = view
	return &wgpuTexture{
		label:   "swapchain",
		width:   b.config.Width,
		height:  b.config.Height,
		samples: 1,
		format:  b.config.Format,
		view:    view,
	}, nil
}

func (b *wgpuBackend) Present() {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.frameTexture == nil {
		return
	}
	b.surface.Present()
	b.frameView.Release()
	b.frameTexture.Release()
	b.frameView = nil
	b.frameTexture = nil
}

func (b *wgpuBackend) DiscardFrame() {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.frameTexture == nil {
		return
	}
	b.frameView.Release()
	b.frameTexture.Release()
	b.frameView = nil
	b.frameTexture = nil
}

func (b *wgpuBackend) CreateBuffer(desc BufferDescriptor) (Buffer, error) {
	size := desc.Size
	if desc.Contents != nil {
		size = uint64(len(desc.Contents))
	}
	buf, err := b.device.CreateBuffer(&wgpu.BufferDescriptor{
		Label: desc.Label,
		Size:  size,
		Usage: desc.Usage | wgpu.BufferUsageCopyDst,
	})
	if err != nil {
		return nil, fmt.Errorf("create buffer %q: %w", desc.Label, err)
	}
	if len(desc.Contents) > 0 {
		b.queue.WriteBuffer(buf, 0, desc.Contents)
	}
	return &wgpuBuffer{label: desc.Label, size: size, buf: buf}, nil
}

func (b *wgpuBackend) WriteBuffer(buf Buffer, offset uint64, data []byte) {
	b.queue.WriteBuffer(buf.(*wgpuBuffer).buf, offset, data)
}

func (b *wgpuBackend) CreateTexture(desc TextureDescriptor) (Texture, error) {
	samples := common.Coalesce(desc.SampleCount, 1)
	tex, err := b.device.CreateTexture(&wgpu.TextureDescriptor{
		Label:     desc.Label,
		Usage:     desc.Usage,
		Dimension: wgpu.TextureDimension2D,
		Size: wgpu.Extent3D{
			Width:              desc.Width,
			Height:             desc.Height,
			DepthOrArrayLayers: 1,
		},
		Format:        desc.Format,
		MipLevelCount: 1,
		SampleCount:   samples,
	})
	if err != nil {
		return nil, fmt.Errorf("create texture %q: %w", desc.Label, err)
	}
	if len(desc.Pixels) > 0 {
		b.queue.WriteTexture(
			&wgpu.ImageCopyTexture{
				Texture:  tex,
				MipLevel: 0,
				Origin:   wgpu.Origin3D{},
				Aspect:   wgpu.TextureAspectAll,
			},
			desc.Pixels,
			&wgpu.TextureDataLayout{
				Offset:       0,
				BytesPerRow:  desc.Width * 4,
				RowsPerImage: desc.Height,
			},
			&wgpu.Extent3D{
				Width:              desc.Width,
				Height:             desc.Height,
				DepthOrArrayLayers: 1,
			},
		)
	}
	view, err := tex.CreateView(nil)
	if err != nil {
		tex.Release()
		return nil, fmt.Errorf("create view %q: %w", desc.Label, err)
	}
	return &wgpuTexture{
		label:   desc.Label,
		width:   desc.Width,
		height:  desc.Height,
		samples: samples,
		format:  desc.Format,
		tex:     tex,
		view:    view,
	}, nil
}

func (b *wgpuBackend) CreateSampler(label string, s common.SamplerStagingData) (Sampler, error) {
	samp, err := b.device.CreateSampler(&wgpu.SamplerDescriptor{
		Label:         label,
		AddressModeU:  common.Coalesce(s.AddressModeU, wgpu.AddressModeRepeat),
		AddressModeV:  common.Coalesce(s.AddressModeV, wgpu.AddressModeRepeat),
		AddressModeW:  common.Coalesce(s.AddressModeW, wgpu.AddressModeRepeat),
		MagFilter:     common.Coalesce(s.MagFilter, wgpu.FilterModeLinear),
		MinFilter:     common.Coalesce(s.MinFilter, wgpu.FilterModeLinear),
		MipmapFilter:  common.Coalesce(s.MipmapFilter, wgpu.MipmapFilterModeLinear),
		LodMinClamp:   common.Coalesce(s.LodMinClamp, 0.0),
		LodMaxClamp:   common.Coalesce(s.LodMaxClamp, 32.0),
		MaxAnisotropy: common.Coalesce(s.MaxAnisotropy, 1),
		Compare:       s.Compare,
	})
	if err != nil {
		return nil, fmt.Errorf("create sampler %q: %w", label, err)
	}
	return &wgpuSampler{s: samp}, nil
}

func (b *wgpuBackend) CreateBindGroupLayout(desc wgpu.BindGroupLayoutDescriptor) (BindGroupLayout, error) {
	l, err := b.device.CreateBindGroupLayout(&desc)
	if err != nil {
		return nil, fmt.Errorf("create bind group layout %q: %w", desc.Label, err)
	}
	return &wgpuBindGroupLayout{l: l}, nil
}

func (b *wgpuBackend) CreateBindGroup(desc BindGroupDescriptor) (BindGroup, error) {
	entries := make([]wgpu.BindGroupEntry, len(desc.Entries))
	for i, e := range desc.Entries {
		entry := wgpu.BindGroupEntry{Binding: e.Binding}
		switch {
		case e.Buffer != nil:
			entry.Buffer = e.Buffer.(*wgpuBuffer).buf
			entry.Size = wgpu.WholeSize
		case e.Texture != nil:
			entry.TextureView = e.Texture.(*wgpuTexture).view
		case e.Sampler != nil:
			entry.Sampler = e.Sampler.(*wgpuSampler).s
		default:
			return nil, fmt.Errorf("bind group %q: binding %d has no resource", desc.Label, e.Binding)
		}
		entries[i] = entry
	}
	bg, err := b.device.CreateBindGroup(&wgpu.BindGroupDescriptor{
		Label:   desc.Label,
		Layout:  desc.Layout.(*wgpuBindGroupLayout).l,
		Entries: entries,
	})
	if err != nil {
		return nil, fmt.Errorf("create bind group %q: %w", desc.Label, err)
	}
	return &wgpuBindGroup{label: desc.Label, bg: bg}, nil
}

func (b *wgpuBackend) CreateRenderPipeline(desc RenderPipelineDescriptor) (RenderPipeline, error) {
	module, err := b.device.CreateShaderModule(&wgpu.ShaderModuleDescriptor{
		Label: desc.Label,
		WGSLDescriptor: &wgpu.ShaderModuleWGSLDescriptor{
			Code: desc.Source,
		},
	})
	if err != nil {
		return nil, fmt.Errorf("compile %q: %w", desc.Label, err)
	}
	defer module.Release()

	layouts := make([]*wgpu.BindGroupLayout, len(desc.BindGroupLayouts))
	for i, l := range desc.BindGroupLayouts {
		layouts[i] = l.(*wgpuBindGroupLayout).l
	}
	pipelineLayout, err := b.device.CreatePipelineLayout(&wgpu.PipelineLayoutDescriptor{
		Label:            desc.Label,
		BindGroupLayouts: layouts,
	})
	if err != nil {
		return nil, fmt.Errorf("pipeline layout %q: %w", desc.Label, err)
	}
	defer pipelineLayout.Release()

	var depth *wgpu.DepthStencilState
	if desc.Depth != nil {
		depth = &wgpu.DepthStencilState{
			Format:              desc.Depth.Format,
			DepthWriteEnabled:   desc.Depth.Write,
			DepthCompare:        desc.Depth.Compare,
			DepthBias:           desc.Depth.Bias,
			DepthBiasSlopeScale: desc.Depth.SlopeScale,
			StencilFront:        wgpu.StencilFaceState{Compare: wgpu.CompareFunctionAlways},
			StencilBack:         wgpu.StencilFaceState{Compare: wgpu.CompareFunctionAlways},
		}
	}

	created, err := b.device.CreateRenderPipeline(&wgpu.RenderPipelineDescriptor{
		Label:  desc.Label,
		Layout: pipelineLayout,
		Vertex: wgpu.VertexState{
			Module:     module,
			EntryPoint: "vs_main",
			Buffers:    desc.VertexBuffers,
		},
		Fragment: &wgpu.FragmentState{
			Module:     module,
			EntryPoint: "fs_main",
			Targets: []wgpu.ColorTargetState{{
				Format:    desc.ColorFormat,
				Blend:     desc.Blend,
				WriteMask: wgpu.ColorWriteMaskAll,
			}},
		},
		Primitive: wgpu.PrimitiveState{
			Topology:  desc.Topology,
			FrontFace: desc.FrontFace,
			CullMode:  desc.CullMode,
		},
		Multisample: wgpu.MultisampleState{
			Count: common.Coalesce(desc.SampleCount, 1),
			Mask:  0xFFFFFFFF,
		},
		DepthStencil: depth,
	})
	if err != nil {
		return nil, fmt.Errorf("create pipeline %q: %w", desc.Label, err)
	}
	return &wgpuPipeline{label: desc.Label, p: created}, nil
}

func (b *wgpuBackend) BeginCommands() (CommandRecorder, error) {
	encoder, err := b.device.CreateCommandEncoder(nil)
	if err != nil {
		return nil, fmt.Errorf("create command encoder: %w", err)
	}
	return &wgpuRecorder{encoder: encoder}, nil
}

func (b *wgpuBackend) Submit(rec CommandRecorder) error {
	r := rec.(*wgpuRecorder)
	defer r.encoder.Release()

	commandBuffer, err := r.encoder.Finish(nil)
	if err != nil {
		return fmt.Errorf("finish command encoder: %w", err)
	}
	defer commandBuffer.Release()
	b.queue.Submit(commandBuffer)
	return nil
}

func (b *wgpuBackend) Release() {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.frameView != nil {
		b.frameView.Release()
		b.frameView = nil
	}
	if b.frameTexture != nil {
		b.frameTexture.Release()
		b.frameTexture = nil
	}
	if b.queue != nil {
		b.queue.Release()
		b.queue = nil
	}
	if b.device != nil {
		b.device.Release()
		b.device = nil
	}
	if b.adapter != nil {
		b.adapter.Release()
		b.adapter = nil
	}
	if b.surface != nil {
		b.surface.Release()
		b.surface = nil
	}
	if b.instance != nil {
		b.instance.Release()
		b.instance = nil
	}
}
