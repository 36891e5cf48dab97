package camera

import (
	"github.com/Carmen-Shannon/glace/common"
	"github.com/chewxy/math32"
)

// Projection holds perspective settings. FovY is in radians.
type Projection struct {
	FovY   float32
	Aspect float32
	Near   float32
	Far    float32
}

// Matrix returns the right-handed, zero-to-one depth perspective matrix.
func (p Projection) Matrix() common.Mat4 {
	return common.PerspectiveRH(p.FovY, p.Aspect, p.Near, p.Far)
}

// Camera is the singleton view resource. Rotation is the observer's world orientation;
// with the identity rotation the camera looks down -Z with +Y up.
type Camera struct {
	Eye        common.Vec3
	Rotation   common.Quat
	Projection Projection
}

// New creates a camera at (0, 1, 5) looking down -Z with a 45 degree vertical field of view.
//
// Parameters:
//   - options: builder options applied in order
//
// Returns:
//   - Camera: the configured camera
func New(options ...CameraBuilderOption) Camera {
	c := Camera{
		Eye:      common.Vec3{0, 1, 5},
		Rotation: common.QuatIdentity(),
		Projection: Projection{
			FovY:   math32.Pi / 4,
			Aspect: 16.0 / 9.0,
			Near:   0.1,
			Far:    1000,
		},
	}
	for _, opt := range options {
		opt(&c)
	}
	return c
}

// View returns the world-to-view matrix, the inverse of the camera's world transform.
func (c Camera) View() common.Mat4 {
	world := common.Mat4FromRotationTranslation(c.Rotation, c.Eye)
	view, ok := world.Inverse()
	if !ok {
		return common.Mat4Identity()
	}
	return view
}

// ViewProjection returns projection * view.
func (c Camera) ViewProjection() common.Mat4 {
	return c.Projection.Matrix().Mul(c.View())
}

// Forward returns the unit view direction.
func (c Camera) Forward() common.Vec3 {
	return c.Rotation.Rotate(common.Vec3{0, 0, -1})
}

// Right returns the unit right vector.
func (c Camera) Right() common.Vec3 {
	return c.Rotation.Rotate(common.Vec3X)
}

// Uniform derives the GPU uniform block.
func (c Camera) Uniform() Uniform {
	return Uniform{
		ViewPosition:   c.Eye.Extend(1),
		ViewProjection: c.ViewProjection(),
	}
}
