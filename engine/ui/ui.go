// Package ui is the in-window overlay: draggable, collapsible panels of text widgets.
// Each panel is rasterized on the CPU with a bitmap font and uploaded as one texture, then drawn
// as a screen-space quad by the UI pipeline family after the 3D passes.
package ui

import (
	"fmt"

	"github.com/Carmen-Shannon/glace/common"
	"github.com/Carmen-Shannon/glace/engine/input"
	bgp "github.com/Carmen-Shannon/glace/engine/renderer/bind_group_provider"
	"github.com/Carmen-Shannon/glace/engine/renderer/gpu"
	"github.com/Carmen-Shannon/glace/engine/renderer/pipeline"
	"github.com/Carmen-Shannon/glace/engine/renderer/shader"
	"github.com/Carmen-Shannon/glace/engine/world"
	"github.com/cogentcore/webgpu/wgpu"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
)

const (
	quadVertexCount = 6
	quadStride      = 16
	screenSize      = 16
)

// FrameContext is the per-frame input the overlay reacts to, in window pixels.
type FrameContext struct {
	Width, Height float32
	Cursor        common.Vec2
	Clicks        []common.Vec2
	LeftDown      bool
}

// Batch is one panel ready to draw.
type Batch struct {
	Panel *Panel
	// Rect is x0, y0, x1, y1 in window pixels.
	Rect      [4]float32
	bindGroup gpu.BindGroup
	vertices  gpu.Buffer
}

type drag struct {
	panel  *Panel
	offset common.Vec2
}

// Overlay owns the panels and their GPU resources. It implements the renderer's overlay hook.
type Overlay struct {
	backend   gpu.Backend
	layout    gpu.BindGroupLayout
	pipelines *pipeline.Cache
	face      font.Face

	panels     []*Panel
	memory     *Memory
	memoryFile string
	visible    bool

	drag    *drag
	batches []Batch
}

// NewOverlay creates the overlay. The UI family must be registered on pipelines, see Family.
//
// Parameters:
//   - backend: the backend panel textures and buffers are created on
//   - layouts: the shared bind group layouts
//   - pipelines: the pipeline cache holding the UI family
//   - options: builder options
//
// Returns:
//   - *Overlay: the overlay
//   - error: error if the memory file exists but cannot be loaded
func NewOverlay(backend gpu.Backend, layouts *bgp.Layouts, pipelines *pipeline.Cache, options ...OverlayBuilderOption) (*Overlay, error) {
	o := &Overlay{
		backend:    backend,
		layout:     layouts.UI,
		pipelines:  pipelines,
		face:       basicfont.Face7x13,
		memoryFile: DefaultMemoryFile,
		visible:    true,
	}
	for _, opt := range options {
		opt(o)
	}
	if o.memory == nil {
		m, err := LoadMemory(o.memoryFile)
		if err != nil {
			return nil, err
		}
		o.memory = m
	}
	if o.memory.Panels == nil {
		o.memory.Panels = map[string]PanelMemory{}
	}
	for _, p := range o.panels {
		o.memory.restore(p)
	}
	return o, nil
}

// Family returns the UI pipeline family configuration.
func Family(layouts *bgp.Layouts) *pipeline.FamilyConfig {
	return pipeline.NewFamily("ui", shader.ForSamples(shader.UI),
		pipeline.WithBindGroupLayouts(layouts.UI),
		pipeline.WithVertexBuffers(VertexLayout()),
	)
}

// VertexLayout is the {position, uv} layout of panel quads.
func VertexLayout() wgpu.VertexBufferLayout {
	return shader.MustVertexLayout(shader.UI, "VertexInput", wgpu.VertexStepModeVertex)
}

// AddPanel appends a panel on top of the others, restoring its remembered placement.
func (o *Overlay) AddPanel(p *Panel) {
	o.memory.restore(p)
	o.panels = append(o.panels, p)
}

// Panels returns the panels from bottom to top.
func (o *Overlay) Panels() []*Panel { return o.panels }

// SetVisible shows or hides every panel. Hidden panels ignore input.
func (o *Overlay) SetVisible(v bool) {
	o.visible = v
	if !v {
		o.drag = nil
	}
}

// Memory returns the panel placement memory, updated as panels move.
func (o *Overlay) Memory() *Memory { return o.memory }

// SaveMemory writes the placement of every panel to the memory file.
func (o *Overlay) SaveMemory() error {
	for _, p := range o.panels {
		o.memory.remember(p)
	}
	return o.memory.Save(o.memoryFile)
}

// Update handles input and refreshes every panel's GPU resources.
//
// Parameters:
//   - ctx: the frame's window size and pointer state
//
// Returns:
//   - []Batch: the panels to draw this frame, bottom to top
func (o *Overlay) Update(ctx FrameContext) []Batch {
	o.batches = o.batches[:0]
	if !o.visible {
		return nil
	}
	for _, click := range ctx.Clicks {
		o.click(click)
	}
	if o.drag != nil {
		if ctx.LeftDown {
			o.drag.panel.pos = ctx.Cursor.Sub(o.drag.offset)
		} else {
			o.memory.remember(o.drag.panel)
			o.drag = nil
		}
	}
	for _, p := range o.panels {
		p.clampTo(ctx.Width, ctx.Height)
		if err := o.sync(p, ctx.Width, ctx.Height); err != nil {
			common.Logger().Error("ui panel update failed", "panel", p.Title, "error", err)
			continue
		}
		o.batches = append(o.batches, Batch{
			Panel:     p,
			Rect:      p.rect,
			bindGroup: p.provider.BindGroup(),
			vertices:  p.vertices,
		})
	}
	return o.batches
}

func (o *Overlay) click(pt common.Vec2) {
	for i := len(o.panels) - 1; i >= 0; i-- {
		p := o.panels[i]
		if !p.contains(pt) {
			continue
		}
		row, collapse := p.hit(pt)
		switch {
		case collapse:
			p.collapsed = !p.collapsed
			o.memory.remember(p)
		case row < 0:
			o.drag = &drag{panel: p, offset: pt.Sub(p.pos)}
		default:
			p.Widgets[row].Click(pt[0]-p.pos[0], float32(p.width))
		}
		return
	}
}

// sync creates or refreshes the panel's texture, bind group and quad as needed.
func (o *Overlay) sync(p *Panel, width, height float32) error {
	if p.provider == nil {
		if err := o.allocate(p); err != nil {
			return err
		}
	}
	if sig := p.currentSignature(); sig != p.signature {
		img := p.rasterize(o.face)
		tex, err := gpu.CreateImageTexture(o.backend, "ui "+p.Title, common.TextureStagingData{
			Pixels: img.Pix,
			Width:  uint32(img.Rect.Dx()),
			Height: uint32(img.Rect.Dy()),
		}, gpu.TextureKindColor)
		if err != nil {
			return err
		}
		p.provider.SetTexture(bgp.BindingTexture, tex, true)
		if err := p.provider.Build(o.backend, o.layout); err != nil {
			return err
		}
		p.signature = sig
	}
	if screen := [2]float32{width, height}; screen != p.screen {
		if err := p.provider.Write(o.backend, bgp.BindingParams, 0, common.SliceToBytes([]float32{width, height, 0, 0})); err != nil {
			return err
		}
		p.screen = screen
	}
	w, h := p.Size()
	rect := [4]float32{p.pos[0], p.pos[1], p.pos[0] + float32(w), p.pos[1] + float32(h)}
	if rect != p.rect {
		o.backend.WriteBuffer(p.vertices, 0, common.SliceToBytes(quad(rect)))
		p.rect = rect
	}
	return nil
}

func (o *Overlay) allocate(p *Panel) error {
	screen, err := o.backend.CreateBuffer(gpu.BufferDescriptor{
		Label: "ui screen " + p.Title,
		Usage: wgpu.BufferUsageUniform | wgpu.BufferUsageCopyDst,
		Size:  screenSize,
	})
	if err != nil {
		return fmt.Errorf("ui panel %q: %w", p.Title, err)
	}
	sampler, err := o.backend.CreateSampler("ui "+p.Title, common.SamplerStagingData{
		AddressModeU: wgpu.AddressModeClampToEdge,
		AddressModeV: wgpu.AddressModeClampToEdge,
		AddressModeW: wgpu.AddressModeClampToEdge,
		MagFilter:    wgpu.FilterModeNearest,
		MinFilter:    wgpu.FilterModeNearest,
		MipmapFilter: wgpu.MipmapFilterModeNearest,
		LodMaxClamp:  32,
	})
	if err != nil {
		screen.Release()
		return fmt.Errorf("ui panel %q: %w", p.Title, err)
	}
	vertices, err := o.backend.CreateBuffer(gpu.BufferDescriptor{
		Label: "ui quad " + p.Title,
		Usage: wgpu.BufferUsageVertex | wgpu.BufferUsageCopyDst,
		Size:  quadVertexCount * quadStride,
	})
	if err != nil {
		screen.Release()
		sampler.Release()
		return fmt.Errorf("ui panel %q: %w", p.Title, err)
	}
	p.provider = bgp.NewBindGroupProvider("ui "+p.Title,
		bgp.WithBuffer(bgp.BindingParams, screen),
		bgp.WithSampler(bgp.BindingSampler, sampler),
	)
	p.vertices = vertices
	return nil
}

// RenderInto issues one draw per batch. The UI pipeline must already be bound.
func (o *Overlay) RenderInto(enc gpu.PassEncoder, batches []Batch) {
	for _, b := range batches {
		enc.SetBindGroup(0, b.bindGroup)
		enc.SetVertexBuffer(0, b.vertices)
		enc.Draw(quadVertexCount, 1)
	}
}

// Visible reports whether there is anything to draw this frame.
func (o *Overlay) Visible(*world.World) bool {
	return o.visible && len(o.batches) > 0
}

// Draw binds the alpha-blended UI pipeline and draws the batches of the last Update.
func (o *Overlay) Draw(enc gpu.PassEncoder, samples uint32) error {
	p, err := o.pipelines.Get(pipeline.Key{
		Family:  pipeline.FamilyUI,
		Samples: samples,
		Blend:   pipeline.BlendAlpha,
		Depth:   pipeline.DepthNone,
	})
	if err != nil {
		return fmt.Errorf("ui pipeline: %w", err)
	}
	enc.SetPipeline(p.Handle())
	o.RenderInto(enc, o.batches)
	return nil
}

// System returns the PostUpdate system that feeds the frame's input snapshot to Update.
func (o *Overlay) System() func(w *world.World) {
	return func(w *world.World) {
		vp, ok := world.Resource[world.Viewport](w)
		if !ok || vp.Width == 0 || vp.Height == 0 {
			return
		}
		ctx := FrameContext{Width: float32(vp.Width), Height: float32(vp.Height)}
		if in, ok := world.Resource[input.Snapshot](w); ok {
			ctx.Cursor = in.Cursor
			ctx.Clicks = in.Clicks
			ctx.LeftDown = in.Button(common.MouseButtonLeft)
		}
		o.Update(ctx)
	}
}

// Release frees every panel's GPU resources. Panels reallocate on the next Update.
func (o *Overlay) Release() {
	for _, p := range o.panels {
		p.release()
	}
	o.batches = nil
}
