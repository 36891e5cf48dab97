package renderer

import "github.com/cogentcore/webgpu/wgpu"

// PresentMode selects how finished frames reach the display.
type PresentMode int

const (
	// PresentModeVSync waits for vertical blank. It never tears and is always supported.
	PresentModeVSync PresentMode = iota
	// PresentModeUncapped presents immediately, trading tearing for latency.
	PresentModeUncapped
)

// ParsePresentMode maps a settings string to a mode. Unknown strings select VSync.
func ParsePresentMode(s string) PresentMode {
	switch s {
	case "uncapped", "immediate", "mailbox":
		return PresentModeUncapped
	}
	return PresentModeVSync
}

func (m PresentMode) String() string {
	if m == PresentModeUncapped {
		return "uncapped"
	}
	return "vsync"
}

func (m PresentMode) wgpu() wgpu.PresentMode {
	if m == PresentModeUncapped {
		return wgpu.PresentModeImmediate
	}
	return wgpu.PresentModeFifo
}

// MSAASampleCount is the multisample count of the color and depth targets.
// WebGPU guarantees 1 and 4; the context clamps anything else to one of those.
type MSAASampleCount uint32

const (
	// MSAAOff renders straight into the swapchain.
	MSAAOff MSAASampleCount = 1
	// MSAA4x renders into a 4x target resolved by the last pass. This is the default.
	MSAA4x MSAASampleCount = 4
)

// normalize maps any requested count to a supported one.
func (c MSAASampleCount) normalize() uint32 {
	if c > 1 {
		return uint32(MSAA4x)
	}
	return uint32(MSAAOff)
}
