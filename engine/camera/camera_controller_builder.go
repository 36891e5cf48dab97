package camera

// FlyControllerOption is a functional option for configuring a FlyController.
type FlyControllerOption func(*FlyController)

// WithSpeed sets the movement speed in units per second.
//
// Parameters:
//   - speed: units per second
//
// Returns:
//   - FlyControllerOption: functional option to set the speed
func WithSpeed(speed float32) FlyControllerOption {
	return func(fc *FlyController) {
		fc.speed = speed
	}
}

// WithDamping sets the fraction of velocity lost per frame without input.
//
// Parameters:
//   - damping: a value in [0, 1]
//
// Returns:
//   - FlyControllerOption: functional option to set the damping
func WithDamping(damping float32) FlyControllerOption {
	return func(fc *FlyController) {
		fc.damping = damping
	}
}
