// Package light provides the point light component and its uniform upload.
//
// Exactly one light is rendered. When several entities carry a Light, the one with the
// lowest entity index wins and a warning is logged once.
package light

import "github.com/Carmen-Shannon/glace/common"

// Light is a point light component.
type Light struct {
	// Position is the world-space position; the gizmo is drawn around it.
	Position common.Vec3
	// Color is the linear RGB color.
	Color common.Vec3
}

// New creates a white light at (4, 4, 0).
//
// Parameters:
//   - options: builder options applied in order
//
// Returns:
//   - Light: the configured light
func New(options ...LightBuilderOption) Light {
	l := Light{
		Position: common.Vec3{4, 4, 0},
		Color:    common.Vec3One,
	}
	for _, opt := range options {
		opt(&l)
	}
	return l
}

// Uniform derives the GPU uniform block.
func (l Light) Uniform() Uniform {
	return Uniform{Position: l.Position, Color: l.Color}
}

// Orbit is the resource controlling the light's rotation about the world Y axis.
type Orbit struct {
	Enabled bool
	// Speed is in revolutions per second.
	Speed float32
}
