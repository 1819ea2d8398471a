package camera

// CameraController defines the union interface for camera control systems.
// Controllers own positional state; Camera reads position and target from the
// controller and computes view/projection matrices. Embeds lookCameraController
// and moveCameraController, giving first-person mouse look and axis-relative
// movement from a single controller instance.
type CameraController interface {
	lookCameraController
	moveCameraController

	// Position returns the camera's world-space position.
	//
	// Returns:
	//   - x, y, z: world-space camera position
	Position() (x, y, z float32)

	// SetPosition sets the camera's world-space position directly.
	//
	// Parameters:
	//   - x, y, z: world-space coordinates
	SetPosition(x, y, z float32)

	// Target returns the look-at point: the position offset one unit along the
	// current view direction. Derived from yaw and pitch, never set directly.
	//
	// Returns:
	//   - x, y, z: world-space target position
	Target() (x, y, z float32)

	// Forward returns the unit view direction derived from yaw and pitch.
	//
	// Returns:
	//   - x, y, z: view direction components
	Forward() (x, y, z float32)
}

// lookCameraController defines mouse-look control methods.
// Yaw rotates around the world Y axis; pitch tilts from the horizontal plane
// and is clamped so the view never flips over the poles.
type lookCameraController interface {
	// Look applies a mouse movement delta to yaw and pitch, scaled by
	// MouseSensitivity. Positive dx turns right, positive dy looks up.
	//
	// Parameters:
	//   - dx: horizontal mouse delta
	//   - dy: vertical mouse delta
	Look(dx, dy float32)

	// Yaw returns the current horizontal view angle around the Y axis.
	// Zero faces -Z; positive values turn toward +X.
	//
	// Returns:
	//   - float32: yaw in radians
	Yaw() float32

	// SetYaw sets the horizontal view angle directly.
	//
	// Parameters:
	//   - yaw: new yaw in radians
	SetYaw(yaw float32)

	// Pitch returns the current vertical view angle from the horizontal plane.
	//
	// Returns:
	//   - float32: pitch in radians
	Pitch() float32

	// SetPitch sets the vertical view angle directly, clamped to pitch bounds.
	//
	// Parameters:
	//   - pitch: new pitch in radians
	SetPitch(pitch float32)

	// MinPitch returns the minimum allowed pitch angle.
	//
	// Returns:
	//   - float32: minimum pitch in radians
	MinPitch() float32

	// MaxPitch returns the maximum allowed pitch angle.
	//
	// Returns:
	//   - float32: maximum pitch in radians
	MaxPitch() float32

	// MouseSensitivity returns the mouse look sensitivity multiplier.
	//
	// Returns:
	//   - float32: multiplier for mouse movement
	MouseSensitivity() float32
}

// moveCameraController defines first-person translation control methods.
// Walking moves along the view direction projected onto the ground plane, so
// looking up or down never changes walking speed.
type moveCameraController interface {
	// MoveForward translates along the view direction projected onto the XZ
	// plane. Positive delta walks forward, negative walks backward.
	//
	// Parameters:
	//   - delta: movement amount scaled by MoveSpeed
	MoveForward(delta float32)

	// MoveRight strafes along the camera's right axis on the XZ plane.
	// Positive delta moves right, negative moves left.
	//
	// Parameters:
	//   - delta: movement amount scaled by MoveSpeed
	MoveRight(delta float32)

	// MoveUp translates along the world Y axis.
	// Positive delta moves up, negative moves down.
	//
	// Parameters:
	//   - delta: movement amount scaled by MoveSpeed
	MoveUp(delta float32)

	// MoveSpeed returns the movement speed multiplier in world units per step.
	//
	// Returns:
	//   - float32: multiplier for movement input
	MoveSpeed() float32
}
