package renderer

import (
	"github.com/Carmen-Shannon/glace/engine/renderer/pass"
	"github.com/Carmen-Shannon/glace/engine/renderer/pipeline"
)

// RendererBuilderOption is a functional option applied to a Renderer during NewRenderer.
type RendererBuilderOption func(*Renderer)

// WithOverlay sets the overlay drawn by the UI phase. Without one the UI phase is skipped.
//
// Parameters:
//   - overlay: the overlay to host
//
// Returns:
//   - RendererBuilderOption: a function that sets the overlay
func WithOverlay(overlay pass.Overlay) RendererBuilderOption {
	return func(r *Renderer) {
		r.overlay = overlay
	}
}

// WithFamily registers an extra pipeline family, typically the overlay's UI family.
//
// Parameters:
//   - family: the family id
//   - cfg: its configuration
//
// Returns:
//   - RendererBuilderOption: a function that registers the family
func WithFamily(family pipeline.Family, cfg *pipeline.FamilyConfig) RendererBuilderOption {
	return func(r *Renderer) {
		r.ctx.pipelines.Register(family, cfg)
	}
}
