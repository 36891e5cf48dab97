package renderer

import (
	"errors"
	"fmt"
	"testing"

	"github.com/Carmen-Shannon/glace/engine/camera"
	"github.com/Carmen-Shannon/glace/engine/model"
	bgp "github.com/Carmen-Shannon/glace/engine/renderer/bind_group_provider"
	"github.com/Carmen-Shannon/glace/engine/renderer/pass"
	"github.com/Carmen-Shannon/glace/engine/renderer/pipeline"
	"github.com/Carmen-Shannon/glace/engine/renderer/renderertest"
	"github.com/Carmen-Shannon/glace/engine/renderer/shader"
	"github.com/Carmen-Shannon/glace/engine/world"
	"github.com/cogentcore/webgpu/wgpu"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newRenderer(t *testing.T, options ...ContextBuilderOption) (*renderertest.Backend, *Renderer) {
	t.Helper()
	be := renderertest.New()
	ctx, err := NewContext(be, 800, 600, options...)
	require.NoError(t, err)
	r, err := NewRenderer(ctx)
	require.NoError(t, err)
	return be, r
}

func TestNewContext(t *testing.T) {
	be, r := newRenderer(t)
	ctx := r.Context()

	require.Len(t, be.Configures, 1)
	cfg := be.Configures[0]
	assert.Equal(t, wgpu.TextureFormatBGRA8UnormSrgb, cfg.Format)
	assert.Equal(t, uint32(800), cfg.Width)
	assert.Equal(t, uint32(600), cfg.Height)
	assert.Equal(t, wgpu.PresentModeFifo, cfg.PresentMode)

	assert.Equal(t, uint32(4), ctx.Samples())
	require.NotNil(t, ctx.MultisampleTarget())
	assert.Equal(t, uint32(4), ctx.DepthTexture().SampleCount())
}

func TestResize(t *testing.T) {
	cases := []struct {
		name          string
		width, height uint32
		applied       bool
		wantW, wantH  uint32
	}{
		{"grow", 1024, 768, true, 1024, 768},
		{"zero width", 0, 768, false, 800, 600},
		{"zero height", 1024, 0, false, 800, 600},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			be, r := newRenderer(t)
			ctx := r.Context()
			oldDepth := ctx.DepthTexture()

			ok, err := ctx.Resize(tc.width, tc.height)
			require.NoError(t, err)
			assert.Equal(t, tc.applied, ok)

			w, h := ctx.Size()
			assert.Equal(t, tc.wantW, w)
			assert.Equal(t, tc.wantH, h)
			assert.Equal(t, tc.wantW, ctx.DepthTexture().Width())
			assert.Equal(t, tc.wantH, ctx.DepthTexture().Height())
			assert.Equal(t, tc.wantW, ctx.MultisampleTarget().Width())
			if tc.applied {
				assert.Len(t, be.Configures, 2)
				assert.True(t, oldDepth.(*renderertest.Texture).Released)
			} else {
				assert.Len(t, be.Configures, 1)
				assert.Same(t, oldDepth, ctx.DepthTexture())
			}
		})
	}
}

func TestHandleResizeUpdatesCamera(t *testing.T) {
	_, r := newRenderer(t)
	w := world.New()
	world.SetResource(w, camera.New())

	ok, err := HandleResize(w, r.Context(), 1200, 400)
	require.NoError(t, err)
	require.True(t, ok)

	cam, _ := world.Resource[camera.Camera](w)
	assert.InDelta(t, 3.0, cam.Projection.Aspect, 1e-6)
	vp, _ := world.Resource[world.Viewport](w)
	assert.Equal(t, world.Viewport{Width: 1200, Height: 400}, *vp)

	ok, err = HandleResize(w, r.Context(), 0, 0)
	require.NoError(t, err)
	assert.False(t, ok)
	vp, _ = world.Resource[world.Viewport](w)
	assert.Equal(t, uint32(1200), vp.Width, "skipped resize leaves the viewport alone")
}

func TestSetSampleCount(t *testing.T) {
	_, r := newRenderer(t)
	ctx := r.Context()
	_, err := ctx.Pipelines().Get(pipeline.Key{Family: pipeline.FamilyMesh, Samples: 4, Depth: pipeline.DepthWrite})
	require.NoError(t, err)
	require.Equal(t, 1, ctx.Pipelines().Len())

	require.NoError(t, ctx.SetSampleCount(MSAAOff))
	assert.Zero(t, ctx.Pipelines().Len())
	assert.Nil(t, ctx.MultisampleTarget())
	assert.Equal(t, uint32(1), ctx.DepthTexture().SampleCount())

	require.NoError(t, ctx.SetSampleCount(8))
	assert.Equal(t, uint32(4), ctx.Samples(), "unsupported counts fall back to 4")
}

func TestFailedTargetsKeepPreviousOnes(t *testing.T) {
	be, r := newRenderer(t, WithMSAA(MSAAOff))
	ctx := r.Context()
	depth := ctx.DepthTexture()
	be.FailTextures = true

	assert.Error(t, ctx.SetSampleCount(MSAA4x))
	assert.Equal(t, uint32(1), ctx.Samples())
	assert.Nil(t, ctx.MultisampleTarget())
	assert.Same(t, depth, ctx.DepthTexture())
	assert.False(t, depth.(*renderertest.Texture).Released)

	ok, err := ctx.Resize(1024, 768)
	assert.Error(t, err)
	assert.False(t, ok)
	w, h := ctx.Size()
	assert.Equal(t, uint32(800), w)
	assert.Equal(t, uint32(600), h)
	assert.Same(t, depth, ctx.DepthTexture())
	assert.Len(t, be.Configures, 1)

	be.FailTextures = false
	require.NoError(t, r.RenderFrame(world.New()))
	assert.Equal(t, 1, be.Presents)
	for _, p := range be.LastRecorder().Passes {
		assert.True(t, p.Desc.Depth.View == depth)
	}
}

func TestOpaqueFamilyDepthLess(t *testing.T) {
	be, r := newRenderer(t)
	p, err := r.Context().Pipelines().Get(pipeline.Key{
		Family: pipeline.FamilyMesh, Samples: 4, Blend: pipeline.BlendReplace, Depth: pipeline.DepthWrite,
	})
	require.NoError(t, err)
	assert.Equal(t, wgpu.CompareFunctionLess, p.DepthCompare())
	assert.True(t, p.DepthWriteEnabled())

	desc := be.Pipelines[len(be.Pipelines)-1].Desc
	assert.Equal(t, wgpu.CullModeBack, desc.CullMode)
	assert.Len(t, desc.VertexBuffers, 2)
	assert.Contains(t, desc.Source, "fs_main")
}

func TestRenderFrameRecoversFromOutdatedSurface(t *testing.T) {
	be, r := newRenderer(t)
	be.AcquireErrors = []error{fmt.Errorf("%w: suboptimal", ErrSurfaceOutdated)}

	require.NoError(t, r.RenderFrame(world.New()))
	assert.Equal(t, 2, be.Acquires)
	assert.Len(t, be.Configures, 2, "one reconfigure")
	assert.Equal(t, 1, be.Submits)
	assert.Equal(t, 1, be.Presents)
	require.NotNil(t, be.LastRecorder())
	assert.True(t, be.LastRecorder().Submitted)
}

func TestRenderFrameSkipsOnAcquireError(t *testing.T) {
	be, r := newRenderer(t)
	be.AcquireErrors = []error{fmt.Errorf("device lost forever")}

	assert.Error(t, r.RenderFrame(world.New()))
	assert.Zero(t, be.Submits)
	assert.Zero(t, be.Presents)
	assert.Len(t, be.Configures, 1)
}

func TestRenderFrameSkipsWithoutRecorder(t *testing.T) {
	be, r := newRenderer(t)
	be.CommandsError = errors.New("encoder lost")

	require.NoError(t, r.RenderFrame(world.New()))
	assert.Equal(t, 1, be.Acquires)
	assert.Zero(t, be.Submits)
	assert.Zero(t, be.Presents)
	assert.Equal(t, 1, be.Discards)

	be.CommandsError = nil
	require.NoError(t, r.RenderFrame(world.New()))
	assert.Equal(t, 1, be.Submits)
	assert.Equal(t, 1, be.Presents)
}

// brokenPhase fails before opening its pass.
type brokenPhase struct{}

func (brokenPhase) Name() string                          { return "broken" }
func (brokenPhase) Enabled(*world.World) bool             { return true }
func (brokenPhase) Record(*world.World, pass.Frame) error { return errors.New("pipeline missing") }

func TestResolveSurvivesFailingLastPhase(t *testing.T) {
	be, r := newRenderer(t)
	r.phases = append(r.phases, brokenPhase{})

	assert.Error(t, r.RenderFrame(world.New()))
	rec := be.LastRecorder()
	require.Len(t, rec.Passes, 3, "opaque, transparent and a bare resolve pass")
	for _, p := range rec.Passes[:2] {
		assert.Nil(t, p.Desc.Color.ResolveTarget)
	}
	last := rec.Passes[2]
	assert.Equal(t, "resolve", last.Desc.Label)
	assert.True(t, last.Desc.Color.View == r.Context().MultisampleTarget())
	require.NotNil(t, last.Desc.Color.ResolveTarget)
	assert.Equal(t, "swapchain", last.Desc.Color.ResolveTarget.Label())
	assert.Equal(t, wgpu.LoadOpLoad, last.Desc.Color.Load)
	assert.True(t, last.Ended)
	assert.Empty(t, last.Draws)
	assert.Equal(t, 1, be.Submits)
	assert.Equal(t, 1, be.Presents)
}

func TestResolveTargetOnLastPhaseOnly(t *testing.T) {
	be, r := newRenderer(t)
	require.NoError(t, r.RenderFrame(world.New()))

	rec := be.LastRecorder()
	require.Len(t, rec.Passes, 2, "opaque and transparent are always enabled")
	msaa := r.Context().MultisampleTarget()
	for _, p := range rec.Passes {
		assert.True(t, p.Desc.Color.View == msaa)
		assert.True(t, p.Ended)
	}
	assert.Nil(t, rec.Passes[0].Desc.Color.ResolveTarget)
	require.NotNil(t, rec.Passes[1].Desc.Color.ResolveTarget)
	assert.Equal(t, "swapchain", rec.Passes[1].Desc.Color.ResolveTarget.Label())
}

func TestSingleSampleDrawsIntoSwapchain(t *testing.T) {
	be, r := newRenderer(t, WithMSAA(MSAAOff))
	require.NoError(t, r.RenderFrame(world.New()))

	for _, p := range be.LastRecorder().Passes {
		assert.Equal(t, "swapchain", p.Desc.Color.View.Label())
		assert.Nil(t, p.Desc.Color.ResolveTarget)
	}
}

func TestInstallUploadsCameraOnChange(t *testing.T) {
	be, r := newRenderer(t)
	w := world.New()
	world.SetResource(w, camera.New())
	r.Install(w)

	w.RunStage(world.StageRender)
	camBuf := r.View().Buffer(bgp.BindingCamera)
	assert.Len(t, be.WritesTo(camBuf), 1)
	assert.Equal(t, 1, be.Presents)

	w.RunStage(world.StageRender)
	assert.Len(t, be.WritesTo(camBuf), 1, "unchanged camera is not re-uploaded")
	assert.Empty(t, be.WritesTo(r.View().Buffer(bgp.BindingLight)), "no light entity")
}

func TestParsePresentMode(t *testing.T) {
	assert.Equal(t, PresentModeUncapped, ParsePresentMode("uncapped"))
	assert.Equal(t, PresentModeVSync, ParsePresentMode("vsync"))
	assert.Equal(t, PresentModeVSync, ParsePresentMode("bogus"))
}

func TestShaderInputsMatchBufferLayouts(t *testing.T) {
	for _, name := range []shader.Name{shader.Mesh, shader.Wireframe} {
		v, err := shader.VertexLayout(name, "VertexInput", wgpu.VertexStepModeVertex)
		require.NoError(t, err)
		assert.Equal(t, model.VertexBufferLayout(), v, "%s vertex input", name)

		in, err := shader.VertexLayout(name, "InstanceInput", wgpu.VertexStepModeInstance)
		require.NoError(t, err)
		assert.Equal(t, model.InstanceBufferLayout(), in, "%s instance input", name)
	}
}
