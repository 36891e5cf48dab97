// Package pass holds the fixed sequence of render phases that record one frame.
//
// Every phase opens its own render pass on the frame's shared recorder. The orchestrator
// decides the attachments; phases only choose load operations, pipelines and draws.
package pass

import (
	"github.com/Carmen-Shannon/glace/common"
	bgp "github.com/Carmen-Shannon/glace/engine/renderer/bind_group_provider"
	"github.com/Carmen-Shannon/glace/engine/renderer/gpu"
	"github.com/Carmen-Shannon/glace/engine/renderer/pipeline"
	"github.com/Carmen-Shannon/glace/engine/world"
	"github.com/cogentcore/webgpu/wgpu"
)

// Wireframe marks an entity whose edges are drawn by the wireframe phase.
type Wireframe struct{}

// Transparent marks an entity whose sub-meshes are all drawn by the transparent phase.
type Transparent struct{}

// ClearColor is the resource the opaque phase clears the color target to.
type ClearColor common.Color

// DefaultClearColor is used when no ClearColor resource exists.
var DefaultClearColor = ClearColor{0.1, 0.1, 0.1, 1}

// Frame is the set of targets one frame is recorded into.
type Frame struct {
	Recorder gpu.CommandRecorder
	// Target is the color attachment: the multisampled target when Samples > 1, else the swapchain.
	Target gpu.Texture
	// Resolve is the swapchain texture, set only for the last enabled phase of a multisampled frame.
	Resolve gpu.Texture
	Depth   gpu.Texture
	Samples uint32
	Width   uint32
	Height  uint32
}

func (f Frame) color(load wgpu.LoadOp, clear wgpu.Color) gpu.ColorAttachment {
	return gpu.ColorAttachment{
		View:          f.Target,
		ResolveTarget: f.Resolve,
		Load:          load,
		Store:         wgpu.StoreOpStore,
		ClearColor:    clear,
	}
}

func (f Frame) depth(load wgpu.LoadOp) *gpu.DepthAttachment {
	return &gpu.DepthAttachment{
		View:       f.Depth,
		Load:       load,
		Store:      wgpu.StoreOpStore,
		ClearValue: 1,
	}
}

// Shared is what every 3D phase binds: the pipeline cache and the camera/light group.
type Shared struct {
	Pipelines *pipeline.Cache
	View      bgp.BindGroupProvider
}

// Phase is one step of the frame.
type Phase interface {
	// Name labels the phase's render pass.
	Name() string
	// Enabled reports whether the phase records anything this frame.
	Enabled(w *world.World) bool
	// Record opens a render pass on f.Recorder, draws and ends it.
	Record(w *world.World, f Frame) error
}

// Sequence returns the phases in their fixed order: opaque, transparent, light gizmo,
// wireframe, depth visualization, UI.
func Sequence(shared *Shared, depth *DepthPhase, overlay Overlay) []Phase {
	return []Phase{
		NewOpaquePhase(shared),
		NewTransparentPhase(shared),
		NewLightPhase(shared),
		NewWireframePhase(shared),
		depth,
		NewUIPhase(overlay),
	}
}

func getPipeline(shared *Shared, key pipeline.Key) (*pipeline.Pipeline, error) {
	return shared.Pipelines.Get(key)
}
