package renderer

import "github.com/cogentcore/webgpu/wgpu"

// ContextBuilderOption is a functional option applied to a Context during NewContext.
type ContextBuilderOption func(*Context)

// WithPresentMode sets the initial present mode.
//
// Parameters:
//   - mode: VSync or Uncapped
//
// Returns:
//   - ContextBuilderOption: a function that sets the present mode
func WithPresentMode(mode PresentMode) ContextBuilderOption {
	return func(c *Context) {
		c.presentMode = mode
	}
}

// WithMSAA sets the initial sample count. When not specified, the default is MSAA4x.
//
// Parameters:
//   - count: MSAAOff or MSAA4x
//
// Returns:
//   - ContextBuilderOption: a function that sets the sample count
func WithMSAA(count MSAASampleCount) ContextBuilderOption {
	return func(c *Context) {
		c.samples = count.normalize()
	}
}

// WithFormat overrides the negotiated surface format.
func WithFormat(format wgpu.TextureFormat) ContextBuilderOption {
	return func(c *Context) {
		c.format = format
	}
}
