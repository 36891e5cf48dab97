// Package renderertest provides a recording gpu.Backend for exercising the frame pipeline
// without a GPU.
package renderertest

import (
	"fmt"
	"sync"

	"github.com/Carmen-Shannon/glace/common"
	"github.com/Carmen-Shannon/glace/engine/renderer/gpu"
	"github.com/cogentcore/webgpu/wgpu"
)

// Buffer is a recorded buffer allocation.
type Buffer struct {
	ID       int
	Desc     gpu.BufferDescriptor
	Data     []byte
	Released bool
}

func (b *Buffer) Label() string { return b.Desc.Label }
func (b *Buffer) Size() uint64  { return uint64(len(b.Data)) }
func (b *Buffer) Release()      { b.Released = true }

// Texture is a recorded texture allocation.
type Texture struct {
	ID       int
	Desc     gpu.TextureDescriptor
	Released bool
}

func (t *Texture) Label() string              { return t.Desc.Label }
func (t *Texture) Width() uint32              { return t.Desc.Width }
func (t *Texture) Height() uint32             { return t.Desc.Height }
func (t *Texture) SampleCount() uint32        { return common.Coalesce(t.Desc.SampleCount, 1) }
func (t *Texture) Format() wgpu.TextureFormat { return t.Desc.Format }
func (t *Texture) Release()                   { t.Released = true }

// Sampler is a recorded sampler.
type Sampler struct {
	Label    string
	Desc     common.SamplerStagingData
	Released bool
}

func (s *Sampler) Release() { s.Released = true }

// BindGroupLayout is a recorded bind group layout.
type BindGroupLayout struct {
	Desc     wgpu.BindGroupLayoutDescriptor
	Released bool
}

func (l *BindGroupLayout) Release() { l.Released = true }

// BindGroup is a recorded bind group.
type BindGroup struct {
	Desc     gpu.BindGroupDescriptor
	Released bool
}

func (g *BindGroup) Label() string { return g.Desc.Label }
func (g *BindGroup) Release()      { g.Released = true }

// Pipeline is a recorded render pipeline.
type Pipeline struct {
	Desc     gpu.RenderPipelineDescriptor
	Released bool
}

func (p *Pipeline) Label() string { return p.Desc.Label }
func (p *Pipeline) Release()      { p.Released = true }

// Write is one recorded queue buffer write.
type Write struct {
	Buffer *Buffer
	Offset uint64
	Data   []byte
}

// Draw is one recorded draw call with the state bound at the time it was issued.
type Draw struct {
	Pipeline      *Pipeline
	BindGroups    map[uint32]*BindGroup
	VertexBuffers map[uint32]*Buffer
	IndexBuffer   *Buffer
	Count         uint32
	Instances     uint32
	Indexed       bool
}

// Pass is one recorded render pass.
type Pass struct {
	Desc  gpu.RenderPassDescriptor
	Draws []Draw
	Ended bool

	pipeline *Pipeline
	groups   map[uint32]*BindGroup
	vertex   map[uint32]*Buffer
	index    *Buffer
}

func (p *Pass) SetPipeline(rp gpu.RenderPipeline) { p.pipeline = rp.(*Pipeline) }

func (p *Pass) SetBindGroup(index uint32, bg gpu.BindGroup) {
	p.groups[index] = bg.(*BindGroup)
}

func (p *Pass) SetVertexBuffer(slot uint32, buf gpu.Buffer) {
	p.vertex[slot] = buf.(*Buffer)
}

func (p *Pass) SetIndexBuffer(buf gpu.Buffer) { p.index = buf.(*Buffer) }

func (p *Pass) Draw(vertexCount, instanceCount uint32) {
	p.record(vertexCount, instanceCount, false)
}

func (p *Pass) DrawIndexed(indexCount, instanceCount uint32) {
	p.record(indexCount, instanceCount, true)
}

func (p *Pass) End() { p.Ended = true }

func (p *Pass) record(count, instances uint32, indexed bool) {
	d := Draw{
		Pipeline:      p.pipeline,
		BindGroups:    make(map[uint32]*BindGroup, len(p.groups)),
		VertexBuffers: make(map[uint32]*Buffer, len(p.vertex)),
		Count:         count,
		Instances:     instances,
		Indexed:       indexed,
	}
	for k, v := range p.groups {
		d.BindGroups[k] = v
	}
	for k, v := range p.vertex {
		d.VertexBuffers[k] = v
	}
	if indexed {
		d.IndexBuffer = p.index
	}
	p.Draws = append(p.Draws, d)
}

// Recorder is a recorded frame command encoder.
type Recorder struct {
	Passes    []*Pass
	Submitted bool
}

func (r *Recorder) BeginRenderPass(desc gpu.RenderPassDescriptor) gpu.PassEncoder {
	p := &Pass{
		Desc:   desc,
		groups: make(map[uint32]*BindGroup),
		vertex: make(map[uint32]*Buffer),
	}
	r.Passes = append(r.Passes, p)
	return p
}

// Backend records every call made against it. The zero value is not usable; use New.
type Backend struct {
	mu sync.Mutex

	// Format is returned by PreferredFormat.
	Format wgpu.TextureFormat
	// AcquireErrors are returned by successive AcquireFrame calls before they start succeeding.
	AcquireErrors []error
	// FailBuffers makes CreateBuffer fail when set.
	FailBuffers bool
	// FailTextures makes CreateTexture fail when set.
	FailTextures bool
	// CommandsError, when set, is returned by BeginCommands.
	CommandsError error

	Configures []gpu.SurfaceConfig
	Buffers    []*Buffer
	Writes     []Write
	Textures   []*Texture
	Samplers   []*Sampler
	Layouts    []*BindGroupLayout
	BindGroups []*BindGroup
	Pipelines  []*Pipeline
	Recorders  []*Recorder
	Acquires   int
	Presents   int
	Discards   int
	Submits    int
	Released   bool

	frame *Texture
	ids   int
}

var _ gpu.Backend = &Backend{}

// New returns a recording backend with an sRGB surface format.
func New() *Backend {
	return &Backend{Format: wgpu.TextureFormatBGRA8UnormSrgb}
}

func (b *Backend) nextID() int {
	b.ids++
	return b.ids
}

func (b *Backend) PreferredFormat() wgpu.TextureFormat { return b.Format }

func (b *Backend) ConfigureSurface(cfg gpu.SurfaceConfig) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.Configures = append(b.Configures, cfg)
	return nil
}

func (b *Backend) AcquireFrame() (gpu.Texture, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.Acquires++
	if len(b.AcquireErrors) > 0 {
		err := b.AcquireErrors[0]
		b.AcquireErrors = b.AcquireErrors[1:]
		if err != nil {
			return nil, err
		}
	}
	var w, h uint32
	if n := len(b.Configures); n > 0 {
		w, h = b.Configures[n-1].Width, b.Configures[n-1].Height
	}
	b.frame = &Texture{ID: b.nextID(), Desc: gpu.TextureDescriptor{Label: "swapchain", Width: w, Height: h, Format: b.Format}}
	return b.frame, nil
}

func (b *Backend) Present() {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.frame == nil {
		return
	}
	b.Presents++
	b.frame = nil
}

func (b *Backend) CreateBuffer(desc gpu.BufferDescriptor) (gpu.Buffer, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.FailBuffers {
		return nil, fmt.Errorf("create buffer %q: injected failure", desc.Label)
	}
	data := make([]byte, desc.Size)
	if desc.Contents != nil {
		data = append([]byte(nil), desc.Contents...)
	}
	buf := &Buffer{ID: b.nextID(), Desc: desc, Data: data}
	b.Buffers = append(b.Buffers, buf)
	return buf, nil
}

func (b *Backend) WriteBuffer(buf gpu.Buffer, offset uint64, data []byte) {
	b.mu.Lock()
	defer b.mu.Unlock()
	rb := buf.(*Buffer)
	copy(rb.Data[offset:], data)
	b.Writes = append(b.Writes, Write{Buffer: rb, Offset: offset, Data: append([]byte(nil), data...)})
}

func (b *Backend) CreateTexture(desc gpu.TextureDescriptor) (gpu.Texture, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.FailTextures {
		return nil, fmt.Errorf("create texture %q: injected failure", desc.Label)
	}
	t := &Texture{ID: b.nextID(), Desc: desc}
	b.Textures = append(b.Textures, t)
	return t, nil
}

func (b *Backend) CreateSampler(label string, desc common.SamplerStagingData) (gpu.Sampler, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	s := &Sampler{Label: label, Desc: desc}
	b.Samplers = append(b.Samplers, s)
	return s, nil
}

func (b *Backend) CreateBindGroupLayout(desc wgpu.BindGroupLayoutDescriptor) (gpu.BindGroupLayout, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	l := &BindGroupLayout{Desc: desc}
	b.Layouts = append(b.Layouts, l)
	return l, nil
}

func (b *Backend) CreateBindGroup(desc gpu.BindGroupDescriptor) (gpu.BindGroup, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	g := &BindGroup{Desc: desc}
	b.BindGroups = append(b.BindGroups, g)
	return g, nil
}

func (b *Backend) CreateRenderPipeline(desc gpu.RenderPipelineDescriptor) (gpu.RenderPipeline, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	p := &Pipeline{Desc: desc}
	b.Pipelines = append(b.Pipelines, p)
	return p, nil
}

func (b *Backend) DiscardFrame() {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.frame == nil {
		return
	}
	b.Discards++
	b.frame = nil
}

func (b *Backend) BeginCommands() (gpu.CommandRecorder, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.CommandsError != nil {
		return nil, b.CommandsError
	}
	r := &Recorder{}
	b.Recorders = append(b.Recorders, r)
	return r, nil
}

func (b *Backend) Submit(rec gpu.CommandRecorder) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	rec.(*Recorder).Submitted = true
	b.Submits++
	return nil
}

func (b *Backend) Release() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.Released = true
}

// LastRecorder returns the most recently opened frame recorder, or nil.
func (b *Backend) LastRecorder() *Recorder {
	if len(b.Recorders) == 0 {
		return nil
	}
	return b.Recorders[len(b.Recorders)-1]
}

// WritesTo returns the recorded writes that targeted buf.
func (b *Backend) WritesTo(buf gpu.Buffer) []Write {
	var out []Write
	for _, w := range b.Writes {
		if w.Buffer == buf {
			out = append(out, w)
		}
	}
	return out
}

// ResetWrites forgets every recorded write.
func (b *Backend) ResetWrites() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.Writes = nil
}

// LiveBuffers returns the buffers that have not been released.
func (b *Backend) LiveBuffers() []*Buffer {
	var out []*Buffer
	for _, buf := range b.Buffers {
		if !buf.Released {
			out = append(out, buf)
		}
	}
	return out
}
