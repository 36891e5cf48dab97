package camera

import (
	"github.com/Carmen-Shannon/glace/common"
	"github.com/Carmen-Shannon/glace/engine/input"
	"github.com/chewxy/math32"
)

// FlyController moves the camera like a free-flying observer while the right mouse button
// is held. Mouse movement turns the view; WASD, Space and Left Shift move it.
type FlyController struct {
	speed    float32
	damping  float32
	velocity common.Vec3
}

// NewFlyController creates a controller moving at 4 units per second.
//
// Parameters:
//   - options: builder options
//
// Returns:
//   - *FlyController: the controller
func NewFlyController(options ...FlyControllerOption) *FlyController {
	fc := &FlyController{speed: 4, damping: 0.5}
	for _, opt := range options {
		opt(fc)
	}
	return fc
}

// Speed returns the movement speed in units per second.
func (fc *FlyController) Speed() float32 { return fc.speed }

// SetSpeed sets the movement speed in units per second.
func (fc *FlyController) SetSpeed(speed float32) { fc.speed = speed }

// Velocity returns the current view-space velocity (x right, y world up, z forward).
func (fc *FlyController) Velocity() common.Vec3 { return fc.velocity }

// Update applies one frame of input to cam.
//
// Parameters:
//   - cam: the camera to move
//   - in: this frame's input
//   - width, height: the surface size, used to scale mouse deltas into angles
//   - dt: seconds since the previous frame
//
// Returns:
//   - bool: true if the camera changed
func (fc *FlyController) Update(cam *Camera, in input.Snapshot, width, height, dt float32) bool {
	changed := false
	active := in.Button(common.MouseButtonRight)

	if active && (in.Delta[0] != 0 || in.Delta[1] != 0) && width > 0 && height > 0 {
		yaw := common.QuatRotationY(-in.Delta[0] / width * common.Tau)
		pitch := common.QuatRotationX(-in.Delta[1] / height * math32.Pi)
		// yaw about world up, pitch about the camera's own right axis
		cam.Rotation = yaw.Mul(cam.Rotation).Mul(pitch).Normalize()
		changed = true
	}

	var axis common.Vec3
	if active {
		axis = moveAxis(in)
	}
	if axis.LengthSquared() > 0 {
		fc.velocity = axis.Normalize().Scale(fc.speed)
	} else {
		fc.velocity = fc.velocity.Scale(1 - fc.damping)
		if fc.velocity.LengthSquared() < 1e-6 {
			fc.velocity = common.Vec3{}
		}
	}

	if fc.velocity != (common.Vec3{}) {
		step := cam.Right().Scale(fc.velocity[0]).
			Add(common.Vec3Y.Scale(fc.velocity[1])).
			Add(cam.Forward().Scale(fc.velocity[2]))
		cam.Eye = cam.Eye.Add(step.Scale(dt))
		changed = true
	}
	return changed
}

func moveAxis(in input.Snapshot) common.Vec3 {
	var axis common.Vec3
	if in.Key(common.KeyW) {
		axis[2]++
	}
	if in.Key(common.KeyS) {
		axis[2]--
	}
	if in.Key(common.KeyD) {
		axis[0]++
	}
	if in.Key(common.KeyA) {
		axis[0]--
	}
	if in.Key(common.KeySpace) {
		axis[1]++
	}
	if in.Key(common.KeyLeftShift) {
		axis[1]--
	}
	return axis
}
