// Package renderer records and presents frames. A Context owns the surface and its targets;
// a Renderer owns the camera/light view group and the fixed phase sequence, and turns the
// world into exactly one submitted command recorder per frame.
package renderer

import (
	"errors"
	"fmt"

	"github.com/Carmen-Shannon/glace/common"
	"github.com/Carmen-Shannon/glace/engine/camera"
	"github.com/Carmen-Shannon/glace/engine/light"
	bgp "github.com/Carmen-Shannon/glace/engine/renderer/bind_group_provider"
	"github.com/Carmen-Shannon/glace/engine/renderer/gpu"
	"github.com/Carmen-Shannon/glace/engine/renderer/pass"
	"github.com/Carmen-Shannon/glace/engine/world"
	"github.com/cogentcore/webgpu/wgpu"
)

// Renderer is the frame orchestrator.
type Renderer struct {
	ctx     *Context
	view    bgp.BindGroupProvider
	depth   *pass.DepthPhase
	overlay pass.Overlay
	phases  []pass.Phase
}

// NewRenderer creates the view group, registers the built-in pipeline families and builds the
// phase sequence.
//
// Parameters:
//   - ctx: the context to render with
//   - options: builder options
//
// Returns:
//   - *Renderer: the renderer
//   - error: error if the view group or depth phase cannot be created
func NewRenderer(ctx *Context, options ...RendererBuilderOption) (*Renderer, error) {
	r := &Renderer{ctx: ctx}
	registerFamilies(ctx)
	for _, opt := range options {
		opt(r)
	}

	be := ctx.backend
	camBuf, err := be.CreateBuffer(gpu.BufferDescriptor{
		Label: "camera uniform",
		Usage: wgpu.BufferUsageUniform | wgpu.BufferUsageCopyDst,
		Size:  camera.UniformSize,
	})
	if err != nil {
		return nil, fmt.Errorf("camera uniform: %w", err)
	}
	lightBuf, err := be.CreateBuffer(gpu.BufferDescriptor{
		Label: "light uniform",
		Usage: wgpu.BufferUsageUniform | wgpu.BufferUsageCopyDst,
		Size:  light.UniformSize,
	})
	if err != nil {
		camBuf.Release()
		return nil, fmt.Errorf("light uniform: %w", err)
	}
	r.view = bgp.NewBindGroupProvider("mesh view",
		bgp.WithBuffer(bgp.BindingCamera, camBuf),
		bgp.WithBuffer(bgp.BindingLight, lightBuf),
	)
	if err := r.view.Build(be, ctx.layouts.MeshView); err != nil {
		r.view.Release()
		return nil, err
	}

	shared := &pass.Shared{Pipelines: ctx.pipelines, View: r.view}
	r.depth, err = pass.NewDepthPhase(shared, be, ctx.layouts)
	if err != nil {
		r.view.Release()
		return nil, err
	}
	r.phases = pass.Sequence(shared, r.depth, r.overlay)
	return r, nil
}

func (r *Renderer) Context() *Context { return r.ctx }

// View returns the group-0 provider holding the camera and light uniforms.
func (r *Renderer) View() bgp.BindGroupProvider { return r.view }

// Install adds the uniform upload systems and the frame system to the render stage, in that order.
func (r *Renderer) Install(w *world.World) {
	be := r.ctx.backend
	w.AddSystem(world.StageRender, "camera uniform", camera.UniformSystem(be, r.view, bgp.BindingCamera))
	w.AddSystem(world.StageRender, "light uniform", light.UniformSystem(be, r.view, bgp.BindingLight))
	w.AddSystem(world.StageRender, "render frame", func(w *world.World) {
		if err := r.RenderFrame(w); err != nil {
			common.Logger().Error("frame dropped", "err", err)
		}
	})
}

// RenderFrame acquires the next surface image, records every enabled phase into one recorder,
// submits it and presents. An outdated surface is reconfigured and the acquire retried once.
//
// Parameters:
//   - w: the world to draw
//
// Returns:
//   - error: the acquire error when the frame was skipped, or the joined phase errors
func (r *Renderer) RenderFrame(w *world.World) error {
	be := r.ctx.backend
	frame, err := be.AcquireFrame()
	if errors.Is(err, ErrSurfaceOutdated) {
		common.Logger().Warn("surface outdated, reconfiguring", "err", err)
		if cerr := r.ctx.Reconfigure(); cerr != nil {
			return fmt.Errorf("acquire: %w", cerr)
		}
		frame, err = be.AcquireFrame()
	}
	if err != nil {
		return fmt.Errorf("acquire: %w", err)
	}

	rec, err := be.BeginCommands()
	if err != nil || rec == nil {
		common.Logger().Warn("no command recorder, frame skipped", "err", err)
		be.DiscardFrame()
		return nil
	}

	enabled := make([]pass.Phase, 0, len(r.phases))
	for _, p := range r.phases {
		if p.Enabled(w) {
			enabled = append(enabled, p)
		}
	}

	tracked := &resolveTracker{CommandRecorder: rec}
	base := pass.Frame{
		Recorder: tracked,
		Target:   frame,
		Depth:    r.ctx.depth,
		Samples:  r.ctx.samples,
		Width:    r.ctx.width,
		Height:   r.ctx.height,
	}
	if r.ctx.msaa != nil {
		base.Target = r.ctx.msaa
	}

	var errs []error
	for i, p := range enabled {
		f := base
		if r.ctx.msaa != nil && i == len(enabled)-1 {
			f.Resolve = frame
		}
		if err := p.Record(w, f); err != nil {
			errs = append(errs, err)
		}
	}

	if r.ctx.msaa != nil && !tracked.resolved {
		// The phase holding the resolve failed before opening its pass.
		tracked.BeginRenderPass(gpu.RenderPassDescriptor{
			Label: "resolve",
			Color: gpu.ColorAttachment{
				View:          r.ctx.msaa,
				ResolveTarget: frame,
				Load:          wgpu.LoadOpLoad,
				Store:         wgpu.StoreOpStore,
			},
		}).End()
	}

	if err := be.Submit(rec); err != nil {
		errs = append(errs, fmt.Errorf("submit: %w", err))
	}
	be.Present()
	return errors.Join(errs...)
}

// resolveTracker records whether any pass of the frame resolved into the swapchain.
type resolveTracker struct {
	gpu.CommandRecorder
	resolved bool
}

func (t *resolveTracker) BeginRenderPass(desc gpu.RenderPassDescriptor) gpu.PassEncoder {
	if desc.Color.ResolveTarget != nil {
		t.resolved = true
	}
	return t.CommandRecorder.BeginRenderPass(desc)
}

// HandleResize resizes the context and, when it succeeds, updates the camera aspect ratio and
// the Viewport resource so the camera uniform and the overlay follow before the next acquire.
//
// Parameters:
//   - w: the world holding the Camera and Viewport resources
//   - ctx: the context to resize
//   - width: the new width in pixels
//   - height: the new height in pixels
//
// Returns:
//   - bool: false if the resize was skipped
//   - error: error if the context failed to resize
func HandleResize(w *world.World, ctx *Context, width, height uint32) (bool, error) {
	ok, err := ctx.Resize(width, height)
	if !ok || err != nil {
		return ok, err
	}
	vp := world.Viewport{Width: width, Height: height}
	world.SetResource(w, vp)
	if cam, found := world.ResourceMut[camera.Camera](w); found {
		cam.Projection.Aspect = vp.Aspect()
	}
	return true, nil
}

// Release frees the renderer's view group and depth phase. The context is released separately.
func (r *Renderer) Release() {
	r.depth.Release()
	r.view.Release()
}
