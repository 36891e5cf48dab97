package engine

import (
	"time"

	"github.com/Carmen-Shannon/glace/engine/loader"
	"github.com/Carmen-Shannon/glace/engine/settings"
	"github.com/Carmen-Shannon/glace/engine/world"
)

// EngineBuilderOption is a functional option for configuring an Engine.
type EngineBuilderOption func(*engine)

// WithProfiling enables or disables logging of profiler windows. The stats panel is fed either way.
//
// Parameters:
//   - enabled: if true, every profiler window is logged at debug level
//
// Returns:
//   - EngineBuilderOption: option function to apply
func WithProfiling(enabled bool) EngineBuilderOption {
	return func(e *engine) {
		e.profilingEnabled = enabled
	}
}

// WithSettingsFile sets the TOML file settings are read from and watched at.
//
// Parameters:
//   - path: the settings file; a missing file means defaults
//
// Returns:
//   - EngineBuilderOption: option function to apply
func WithSettingsFile(path string) EngineBuilderOption {
	return func(e *engine) {
		e.settingsFile = path
	}
}

// WithSettings uses s instead of reading a settings file. Hot reload is turned off.
func WithSettings(s settings.Settings) EngineBuilderOption {
	return func(e *engine) {
		e.settings = &s
		e.hotReload = false
	}
}

// WithHotReload turns watching the settings file on or off. It is on by default.
func WithHotReload(enabled bool) EngineBuilderOption {
	return func(e *engine) {
		e.hotReload = enabled
	}
}

// WithDefaultScene turns the startup grid, light and configured model on or off.
func WithDefaultScene(enabled bool) EngineBuilderOption {
	return func(e *engine) {
		e.defaultScene = enabled
	}
}

// WithUIMemoryFile sets where panel placement is remembered.
func WithUIMemoryFile(path string) EngineBuilderOption {
	return func(e *engine) {
		e.uiMemoryFile = path
	}
}

// WithLoader replaces the default asynchronous loader.
func WithLoader(l loader.Loader) EngineBuilderOption {
	return func(e *engine) {
		e.loader = l
	}
}

// WithSystem adds a system to stage, after the built-in systems of that stage that come
// before the overlay and synchronizer.
//
// Parameters:
//   - stage: the stage to run in
//   - name: the system name
//   - fn: the system body
//
// Returns:
//   - EngineBuilderOption: option function to apply
func WithSystem(stage world.Stage, name string, fn func(*world.World)) EngineBuilderOption {
	return func(e *engine) {
		e.systems = append(e.systems, userSystem{stage: stage, name: name, fn: fn})
	}
}

// WithRenderFrameLimit caps the render loop in frames per second. Pass 0 to uncap it (default).
//
// Parameters:
//   - fps: maximum render frames per second (0 = uncapped)
//
// Returns:
//   - EngineBuilderOption: option function to apply
func WithRenderFrameLimit(fps float64) EngineBuilderOption {
	return func(e *engine) {
		if fps <= 0 {
			e.renderFrameLimit = 0
			return
		}
		e.renderFrameLimit = time.Duration(float64(time.Second) / fps)
	}
}
