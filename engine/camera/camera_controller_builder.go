package camera

// CameraControllerOption is a functional option for configuring a CameraController.
type CameraControllerOption func(*cameraControllerImpl)

// WithSpawn sets the initial world-space position of the controller.
//
// Parameters:
//   - x: X coordinate of the spawn point
//   - y: Y coordinate of the spawn point
//   - z: Z coordinate of the spawn point
//
// Returns:
//   - CameraControllerOption: functional option to set the spawn position
func WithSpawn(x, y, z float32) CameraControllerOption {
	return func(cc *cameraControllerImpl) {
		cc.position[0] = x
		cc.position[1] = y
		cc.position[2] = z
	}
}

// WithYaw sets the initial horizontal view angle around the Y axis.
//
// Parameters:
//   - yaw: horizontal angle in radians (0 = facing -Z)
//
// Returns:
//   - CameraControllerOption: functional option to set the yaw
func WithYaw(yaw float32) CameraControllerOption {
	return func(cc *cameraControllerImpl) {
		cc.yaw = yaw
	}
}

// WithPitch sets the initial vertical view angle from the horizontal plane.
// Values outside the pitch bounds are clamped during construction.
//
// Parameters:
//   - pitch: vertical angle in radians (0 = horizontal)
//
// Returns:
//   - CameraControllerOption: functional option to set the pitch
func WithPitch(pitch float32) CameraControllerOption {
	return func(cc *cameraControllerImpl) {
		cc.pitch = pitch
	}
}

// WithPitchBounds sets the minimum and maximum pitch angles.
//
// Parameters:
//   - min: minimum vertical angle in radians (prevents flipping under)
//   - max: maximum vertical angle in radians (prevents flipping over)
//
// Returns:
//   - CameraControllerOption: functional option to set pitch bounds
func WithPitchBounds(min, max float32) CameraControllerOption {
	return func(cc *cameraControllerImpl) {
		cc.minPitch = min
		cc.maxPitch = max
	}
}

// WithMouseSensitivity sets the mouse look sensitivity.
//
// Parameters:
//   - sensitivity: multiplier for mouse movement
//
// Returns:
//   - CameraControllerOption: functional option to set mouse sensitivity
func WithMouseSensitivity(sensitivity float32) CameraControllerOption {
	return func(cc *cameraControllerImpl) {
		cc.mouseSensitivity = sensitivity
	}
}

// WithMoveSpeed sets the movement speed multiplier.
//
// Parameters:
//   - speed: world units per movement step
//
// Returns:
//   - CameraControllerOption: functional option to set move speed
func WithMoveSpeed(speed float32) CameraControllerOption {
	return func(cc *cameraControllerImpl) {
		cc.moveSpeed = speed
	}
}
