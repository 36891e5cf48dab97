package renderer

import (
	"fmt"

	"github.com/Carmen-Shannon/glace/common"
	bgp "github.com/Carmen-Shannon/glace/engine/renderer/bind_group_provider"
	"github.com/Carmen-Shannon/glace/engine/renderer/gpu"
	"github.com/Carmen-Shannon/glace/engine/renderer/pipeline"
	"github.com/cogentcore/webgpu/wgpu"
)

// ErrSurfaceOutdated is returned when the surface must be reconfigured before a frame can be acquired.
var ErrSurfaceOutdated = gpu.ErrSurfaceOutdated

// Context owns the surface configuration and every size- or sample-dependent resource:
// the depth texture, the multisampled color target, the shared bind group layouts and the
// pipeline cache. It is created once after the window exists and mutated only by Resize,
// SetSampleCount and SetPresentMode.
type Context struct {
	backend     gpu.Backend
	format      wgpu.TextureFormat
	presentMode PresentMode
	width       uint32
	height      uint32
	samples     uint32

	depth gpu.Texture
	msaa  gpu.Texture

	layouts   *bgp.Layouts
	pipelines *pipeline.Cache
}

// NewContext configures the surface of backend and creates the frame targets.
//
// Parameters:
//   - backend: the device, queue and surface; adapter and device failures surface when it is created
//   - width: the initial surface width in pixels
//   - height: the initial surface height in pixels
//   - options: builder options
//
// Returns:
//   - *Context: the context
//   - error: error if the surface cannot be configured or a target cannot be created
func NewContext(backend gpu.Backend, width, height uint32, options ...ContextBuilderOption) (*Context, error) {
	c := &Context{
		backend: backend,
		format:  backend.PreferredFormat(),
		width:   common.Coalesce(width, 1),
		height:  common.Coalesce(height, 1),
		samples: uint32(MSAA4x),
	}
	for _, opt := range options {
		opt(c)
	}

	layouts, err := bgp.NewLayouts(backend)
	if err != nil {
		return nil, fmt.Errorf("renderer context: %w", err)
	}
	c.layouts = layouts
	c.pipelines = pipeline.NewCache(backend, c.format)

	if err := c.configure(); err != nil {
		return nil, err
	}
	if err := c.createTargets(); err != nil {
		return nil, err
	}
	common.Logger().Info("renderer context ready",
		"format", c.format.String(), "width", c.width, "height", c.height, "samples", c.samples)
	return c, nil
}

func (c *Context) Backend() gpu.Backend           { return c.backend }
func (c *Context) Format() wgpu.TextureFormat     { return c.format }
func (c *Context) Size() (uint32, uint32)         { return c.width, c.height }
func (c *Context) Samples() uint32                { return c.samples }
func (c *Context) PresentMode() PresentMode       { return c.presentMode }
func (c *Context) Layouts() *bgp.Layouts          { return c.layouts }
func (c *Context) Pipelines() *pipeline.Cache     { return c.pipelines }
func (c *Context) DepthTexture() gpu.Texture      { return c.depth }
func (c *Context) MultisampleTarget() gpu.Texture { return c.msaa }

// Resize reconfigures the surface and recreates the targets at the new size.
// A zero-area size is skipped with a warning and the previous configuration is kept, as are the
// previous targets when the new ones cannot be created.
//
// Parameters:
//   - width: the new width in pixels
//   - height: the new height in pixels
//
// Returns:
//   - bool: true if the context now matches the new size
//   - error: error if the surface or a target cannot be recreated
func (c *Context) Resize(width, height uint32) (bool, error) {
	if width == 0 || height == 0 {
		common.Logger().Warn("skipping zero-area resize", "width", width, "height", height)
		return false, nil
	}
	if width == c.width && height == c.height {
		return true, nil
	}
	depth, msaa, err := c.buildTargets(width, height, c.samples)
	if err != nil {
		return false, err
	}
	oldW, oldH := c.width, c.height
	c.width, c.height = width, height
	if err := c.configure(); err != nil {
		c.width, c.height = oldW, oldH
		depth.Release()
		if msaa != nil {
			msaa.Release()
		}
		return false, err
	}
	c.swapTargets(depth, msaa)
	return true, nil
}

// Reconfigure reapplies the current surface configuration, used after an outdated acquire.
func (c *Context) Reconfigure() error {
	return c.configure()
}

// SetSampleCount switches the multisample count. The targets are recreated and every cached
// pipeline is dropped so that the next frame compiles variants for the new count. On failure the
// previous count and targets stay in place.
//
// Parameters:
//   - count: the requested count, normalized to 1 or 4
//
// Returns:
//   - error: error if a target cannot be recreated
func (c *Context) SetSampleCount(count MSAASampleCount) error {
	n := count.normalize()
	if n == c.samples {
		return nil
	}
	depth, msaa, err := c.buildTargets(c.width, c.height, n)
	if err != nil {
		return err
	}
	c.samples = n
	c.swapTargets(depth, msaa)
	c.pipelines.Invalidate()
	common.Logger().Info("sample count changed", "samples", n)
	return nil
}

// SetPresentMode reconfigures the surface with mode.
func (c *Context) SetPresentMode(mode PresentMode) error {
	if mode == c.presentMode {
		return nil
	}
	c.presentMode = mode
	return c.configure()
}

// Release frees the targets, the cached pipelines and the layouts.
func (c *Context) Release() {
	c.releaseTargets()
	c.pipelines.Invalidate()
	c.layouts.Release()
}

func (c *Context) configure() error {
	err := c.backend.ConfigureSurface(gpu.SurfaceConfig{
		Format:      c.format,
		Width:       c.width,
		Height:      c.height,
		PresentMode: c.presentMode.wgpu(),
	})
	if err != nil {
		return fmt.Errorf("configure surface: %w", err)
	}
	return nil
}

func (c *Context) createTargets() error {
	depth, msaa, err := c.buildTargets(c.width, c.height, c.samples)
	if err != nil {
		return err
	}
	c.swapTargets(depth, msaa)
	return nil
}

// buildTargets creates a depth target and, when samples > 1, a multisampled color target. The
// context is left untouched; a partial result is released on failure.
func (c *Context) buildTargets(width, height, samples uint32) (gpu.Texture, gpu.Texture, error) {
	depth, err := gpu.CreateDepthTexture(c.backend, width, height, samples)
	if err != nil {
		return nil, nil, fmt.Errorf("depth target: %w", err)
	}
	if samples <= 1 {
		return depth, nil, nil
	}
	msaa, err := gpu.CreateMultisampleTarget(c.backend, width, height, samples, c.format)
	if err != nil {
		depth.Release()
		return nil, nil, fmt.Errorf("multisample target: %w", err)
	}
	return depth, msaa, nil
}

func (c *Context) swapTargets(depth, msaa gpu.Texture) {
	c.releaseTargets()
	c.depth = depth
	c.msaa = msaa
}

func (c *Context) releaseTargets() {
	if c.depth != nil {
		c.depth.Release()
		c.depth = nil
	}
	if c.msaa != nil {
		c.msaa.Release()
		c.msaa = nil
	}
}
