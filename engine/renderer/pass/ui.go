package pass

import (
	"fmt"

	"github.com/Carmen-Shannon/glace/engine/renderer/gpu"
	"github.com/Carmen-Shannon/glace/engine/world"
	"github.com/cogentcore/webgpu/wgpu"
)

// Overlay draws 2D content in pixel space on top of the finished 3D image.
type Overlay interface {
	// Visible reports whether the overlay has anything to draw this frame.
	Visible(w *world.World) bool
	// Draw binds the overlay pipeline and issues its draws.
	Draw(enc gpu.PassEncoder, samples uint32) error
}

// UIPhase hosts the overlay. It has no depth attachment.
type UIPhase struct {
	overlay Overlay
}

// NewUIPhase creates the UI phase. A nil overlay disables it.
func NewUIPhase(overlay Overlay) *UIPhase {
	return &UIPhase{overlay: overlay}
}

func (p *UIPhase) Name() string { return "ui" }

func (p *UIPhase) Enabled(w *world.World) bool {
	return p.overlay != nil && p.overlay.Visible(w)
}

func (p *UIPhase) Record(w *world.World, f Frame) error {
	enc := f.Recorder.BeginRenderPass(gpu.RenderPassDescriptor{
		Label: p.Name(),
		Color: f.color(wgpu.LoadOpLoad, wgpu.Color{}),
	})
	defer enc.End()
	if err := p.overlay.Draw(enc, f.Samples); err != nil {
		return fmt.Errorf("ui phase: %w", err)
	}
	return nil
}
