package camera

import "github.com/Carmen-Shannon/glace/common"

// CameraBuilderOption is a functional option used to configure a Camera during construction.
type CameraBuilderOption func(*Camera)

// WithEye sets the camera position.
//
// Parameters:
//   - eye: the world-space position
//
// Returns:
//   - CameraBuilderOption: a function that sets the position
func WithEye(eye common.Vec3) CameraBuilderOption {
	return func(c *Camera) {
		c.Eye = eye
	}
}

// WithRotation sets the camera orientation.
//
// Parameters:
//   - q: the world rotation
//
// Returns:
//   - CameraBuilderOption: a function that sets the rotation
func WithRotation(q common.Quat) CameraBuilderOption {
	return func(c *Camera) {
		c.Rotation = q.Normalize()
	}
}

// WithLookAt orients the camera from its current eye toward target with +Y up.
// Apply it after WithEye.
//
// Parameters:
//   - target: the point to face
//
// Returns:
//   - CameraBuilderOption: a function that sets the rotation
func WithLookAt(target common.Vec3) CameraBuilderOption {
	return func(c *Camera) {
		c.Rotation = common.QuatLookRotation(c.Eye, target, common.Vec3Y)
	}
}

// WithFov sets the vertical field of view in radians.
//
// Parameters:
//   - fovY: the field of view in radians
//
// Returns:
//   - CameraBuilderOption: a function that sets the field of view
func WithFov(fovY float32) CameraBuilderOption {
	return func(c *Camera) {
		c.Projection.FovY = fovY
	}
}

// WithAspect sets the aspect ratio (width / height).
func WithAspect(aspect float32) CameraBuilderOption {
	return func(c *Camera) {
		c.Projection.Aspect = aspect
	}
}

// WithClip sets the near and far clip distances.
func WithClip(near, far float32) CameraBuilderOption {
	return func(c *Camera) {
		c.Projection.Near = near
		c.Projection.Far = far
	}
}
