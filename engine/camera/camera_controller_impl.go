package camera

import (
	"math"
	"sync"
)

// cameraControllerImpl is the single implementation of CameraController.
// First-person control: yaw and pitch define the view direction, movement
// translates the position along ground-plane axes derived from yaw.
type cameraControllerImpl struct {
	mu *sync.Mutex

	position [3]float32

	yaw   float32 // Horizontal angle around Y axis, 0 faces -Z
	pitch float32 // Vertical angle from the horizontal plane

	minPitch float32
	maxPitch float32

	mouseSensitivity float32
	moveSpeed        float32
}

// Compile-time interface compliance check
var _ CameraController = &cameraControllerImpl{}

// NewCameraController creates a new first-person camera controller with
// sensible defaults: standing eye height at the origin, facing -Z, pitch
// clamped just short of straight up and straight down.
//
// Parameters:
//   - options: functional options to configure the controller
//
// Returns:
//   - CameraController: the newly created controller
func NewCameraController(options ...CameraControllerOption) CameraController {
	cc := &cameraControllerImpl{
		mu:       &sync.Mutex{},
		position: [3]float32{0, 1.7, 0},

		yaw:   0.0,
		pitch: 0.0,

		minPitch: float32(-math.Pi/2 + 0.05),
		maxPitch: float32(math.Pi/2 - 0.05),

		mouseSensitivity: 0.0025,
		moveSpeed:        6.0,
	}

	for _, option := range options {
		option(cc)
	}

	cc.clampPitch()
	return cc
}

// --- internal helpers ---

// forward computes the unit view direction from yaw and pitch.
// Caller must hold the mutex.
func (cc *cameraControllerImpl) forward() (fx, fy, fz float32) {
	cosPitch := float32(math.Cos(float64(cc.pitch)))
	fx = float32(math.Sin(float64(cc.yaw))) * cosPitch
	fy = float32(math.Sin(float64(cc.pitch)))
	fz = -float32(math.Cos(float64(cc.yaw))) * cosPitch
	return
}

// clampPitch keeps pitch within bounds. Caller must hold the mutex.
func (cc *cameraControllerImpl) clampPitch() {
	if cc.pitch < cc.minPitch {
		cc.pitch = cc.minPitch
	}
	if cc.pitch > cc.maxPitch {
		cc.pitch = cc.maxPitch
	}
}

// --- CameraController shared methods ---

func (cc *cameraControllerImpl) Position() (x, y, z float32) {
	cc.mu.Lock()
	defer cc.mu.Unlock()
	return cc.position[0], cc.position[1], cc.position[2]
}

func (cc *cameraControllerImpl) SetPosition(x, y, z float32) {
	cc.mu.Lock()
	defer cc.mu.Unlock()
	cc.position[0] = x
	cc.position[1] = y
	cc.position[2] = z
}

func (cc *cameraControllerImpl) Target() (x, y, z float32) {
	cc.mu.Lock()
	defer cc.mu.Unlock()
	fx, fy, fz := cc.forward()
	return cc.position[0] + fx, cc.position[1] + fy, cc.position[2] + fz
}

func (cc *cameraControllerImpl) Forward() (x, y, z float32) {
	cc.mu.Lock()
	defer cc.mu.Unlock()
	return cc.forward()
}

// --- lookCameraController implementation ---

func (cc *cameraControllerImpl) Look(dx, dy float32) {
	cc.mu.Lock()
	defer cc.mu.Unlock()
	cc.yaw += dx * cc.mouseSensitivity
	cc.pitch += dy * cc.mouseSensitivity
	cc.clampPitch()
}

func (cc *cameraControllerImpl) Yaw() float32 {
	cc.mu.Lock()
	defer cc.mu.Unlock()
	return cc.yaw
}

func (cc *cameraControllerImpl) SetYaw(yaw float32) {
	cc.mu.Lock()
	defer cc.mu.Unlock()
	cc.yaw = yaw
}

func (cc *cameraControllerImpl) Pitch() float32 {
	cc.mu.Lock()
	defer cc.mu.Unlock()
	return cc.pitch
}

func (cc *cameraControllerImpl) SetPitch(pitch float32) {
	cc.mu.Lock()
	defer cc.mu.Unlock()
	cc.pitch = pitch
	cc.clampPitch()
}

func (cc *cameraControllerImpl) MinPitch() float32 {
	cc.mu.Lock()
	defer cc.mu.Unlock()
	return cc.minPitch
}

func (cc *cameraControllerImpl) MaxPitch() float32 {
	cc.mu.Lock()
	defer cc.mu.Unlock()
	return cc.maxPitch
}

func (cc *cameraControllerImpl) MouseSensitivity() float32 {
	cc.mu.Lock()
	defer cc.mu.Unlock()
	return cc.mouseSensitivity
}

// --- moveCameraController implementation ---

func (cc *cameraControllerImpl) MoveForward(delta float32) {
	cc.mu.Lock()
	defer cc.mu.Unlock()

	// Walk direction from yaw only, so looking up never slows walking.
	wx := float32(math.Sin(float64(cc.yaw)))
	wz := -float32(math.Cos(float64(cc.yaw)))
	offset := delta * cc.moveSpeed

	cc.position[0] += wx * offset
	cc.position[2] += wz * offset
}

func (cc *cameraControllerImpl) MoveRight(delta float32) {
	cc.mu.Lock()
	defer cc.mu.Unlock()

	// right = walk direction rotated a quarter turn clockwise about Y
	rx := float32(math.Cos(float64(cc.yaw)))
	rz := float32(math.Sin(float64(cc.yaw)))
	offset := delta * cc.moveSpeed

	cc.position[0] += rx * offset
	cc.position[2] += rz * offset
}

func (cc *cameraControllerImpl) MoveUp(delta float32) {
	cc.mu.Lock()
	defer cc.mu.Unlock()
	cc.position[1] += delta * cc.moveSpeed
}

func (cc *cameraControllerImpl) MoveSpeed() float32 {
	cc.mu.Lock()
	defer cc.mu.Unlock()
	return cc.moveSpeed
}
