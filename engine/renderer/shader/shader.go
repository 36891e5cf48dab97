package shader

import (
	_ "embed"
	"fmt"
	"sync"
)

// Name identifies one of the built-in WGSL programs.
type Name string

const (
	// Mesh is the lit material shader used by the opaque and transparent passes.
	Mesh Name = "mesh"
	// Light draws the light gizmo at a quarter scale around the light position.
	Light Name = "light"
	// Wireframe colors mesh edges.
	Wireframe Name = "wireframe"
	// Depth visualizes the depth buffer on a fullscreen quad.
	Depth Name = "depth"
	// UI draws textured overlay quads in pixel space.
	UI Name = "ui"
)

// DefineMultisampled selects the multisampled depth texture binding in the Depth shader.
const DefineMultisampled = "MULTISAMPLED"

//go:embed assets/mesh.wgsl
var meshSource string

//go:embed assets/light.wgsl
var lightSource string

//go:embed assets/wireframe.wgsl
var wireframeSource string

//go:embed assets/depth.wgsl
var depthSource string

//go:embed assets/ui.wgsl
var uiSource string

var (
	sources = map[Name]string{
		Mesh:      meshSource,
		Light:     lightSource,
		Wireframe: wireframeSource,
		Depth:     depthSource,
		UI:        uiSource,
	}

	cacheMu sync.Mutex
	cache   = map[string]string{}
)

// Source returns the processed WGSL for name under the given defines. Results are memoized.
//
// Parameters:
//   - name: the built-in program
//   - defines: the active @glace:if defines
//
// Returns:
//   - string: ready-to-compile WGSL
//   - error: error if the program is unknown or fails to pre-process
func Source(name Name, defines ...string) (string, error) {
	raw, ok := sources[name]
	if !ok {
		return "", fmt.Errorf("unknown shader %q", name)
	}
	key := fmt.Sprint(name, defines)

	cacheMu.Lock()
	defer cacheMu.Unlock()
	if s, ok := cache[key]; ok {
		return s, nil
	}
	s, err := NewPreProcessor().Process(raw, defines...)
	if err != nil {
		return "", fmt.Errorf("shader %q: %w", name, err)
	}
	cache[key] = s
	return s, nil
}

// MustSource is Source for the embedded programs, which are known to pre-process cleanly.
func MustSource(name Name, defines ...string) string {
	s, err := Source(name, defines...)
	if err != nil {
		panic(err)
	}
	return s
}

// ForSamples returns a source function for pipeline families whose shader only varies with
// the multisample count.
func ForSamples(name Name) func(samples uint32) string {
	return func(samples uint32) string {
		if samples > 1 {
			return MustSource(name, DefineMultisampled)
		}
		return MustSource(name)
	}
}
