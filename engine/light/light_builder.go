package light

import "github.com/Carmen-Shannon/glace/common"

// LightBuilderOption is a function that configures a Light during construction.
type LightBuilderOption func(*Light)

// WithPosition is an option builder that sets the world-space position of the light.
//
// Parameters:
//   - p: the position
//
// Returns:
//   - LightBuilderOption: a function that applies the position option to a Light
func WithPosition(p common.Vec3) LightBuilderOption {
	return func(l *Light) {
		l.Position = p
	}
}

// WithColor is an option builder that sets the RGB color of the light.
//
// Parameters:
//   - c: the linear RGB color
//
// Returns:
//   - LightBuilderOption: a function that applies the color option to a Light
func WithColor(c common.Vec3) LightBuilderOption {
	return func(l *Light) {
		l.Color = c
	}
}
