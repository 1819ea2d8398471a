package camera

import (
	"math"
	"testing"
)

func approx(got, want, tol float32) bool {
	d := got - want
	return d < tol && d > -tol
}

// TestControllerForward verifies the yaw/pitch to view-direction mapping:
// yaw 0 faces -Z, positive yaw turns toward +X, positive pitch looks up.
func TestControllerForward(t *testing.T) {
	tests := []struct {
		name       string
		yaw, pitch float32
		want       [3]float32
	}{
		{"default faces -Z", 0, 0, [3]float32{0, 0, -1}},
		{"quarter turn right faces +X", float32(math.Pi / 2), 0, [3]float32{1, 0, 0}},
		{"half turn faces +Z", float32(math.Pi), 0, [3]float32{0, 0, 1}},
		{"looking up 45 degrees", 0, float32(math.Pi / 4), [3]float32{0, 0.7071, -0.7071}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cc := NewCameraController(WithYaw(tt.yaw), WithPitch(tt.pitch))
			fx, fy, fz := cc.Forward()
			if !approx(fx, tt.want[0], 1e-4) || !approx(fy, tt.want[1], 1e-4) || !approx(fz, tt.want[2], 1e-4) {
				t.Errorf("Forward() = (%v, %v, %v), want %v", fx, fy, fz, tt.want)
			}
		})
	}
}

// TestControllerPitchClamp verifies pitch never crosses the pole bounds,
// whether set directly or accumulated through Look.
func TestControllerPitchClamp(t *testing.T) {
	cc := NewCameraController()

	cc.SetPitch(10)
	if cc.Pitch() > cc.MaxPitch() {
		t.Errorf("Pitch = %v, want <= %v", cc.Pitch(), cc.MaxPitch())
	}

	cc.SetPitch(-10)
	if cc.Pitch() < cc.MinPitch() {
		t.Errorf("Pitch = %v, want >= %v", cc.Pitch(), cc.MinPitch())
	}

	for range 10000 {
		cc.Look(0, 100)
	}
	if cc.Pitch() > cc.MaxPitch() {
		t.Errorf("after Look spam: Pitch = %v, want <= %v", cc.Pitch(), cc.MaxPitch())
	}
}

// TestControllerMovement verifies ground-plane walking: forward movement
// follows yaw, strafing is perpendicular, and pitch never affects either.
func TestControllerMovement(t *testing.T) {
	cc := NewCameraController(
		WithSpawn(0, 0, 0),
		WithMoveSpeed(1),
		WithPitch(1.0), // steep look up; walking must ignore it
	)

	cc.MoveForward(2)
	x, y, z := cc.Position()
	if !approx(x, 0, 1e-5) || !approx(y, 0, 1e-5) || !approx(z, -2, 1e-5) {
		t.Errorf("after MoveForward: position = (%v, %v, %v), want (0, 0, -2)", x, y, z)
	}

	cc.MoveRight(3)
	x, y, z = cc.Position()
	if !approx(x, 3, 1e-5) || !approx(y, 0, 1e-5) || !approx(z, -2, 1e-5) {
		t.Errorf("after MoveRight: position = (%v, %v, %v), want (3, 0, -2)", x, y, z)
	}

	cc.MoveUp(1.5)
	_, y, _ = cc.Position()
	if !approx(y, 1.5, 1e-5) {
		t.Errorf("after MoveUp: y = %v, want 1.5", y)
	}
}

// TestControllerTarget verifies the derived look-at point sits one unit along
// the view direction.
func TestControllerTarget(t *testing.T) {
	cc := NewCameraController(WithSpawn(5, 2, -1), WithYaw(float32(math.Pi/2)))

	tx, ty, tz := cc.Target()
	if !approx(tx, 6, 1e-4) || !approx(ty, 2, 1e-4) || !approx(tz, -1, 1e-4) {
		t.Errorf("Target() = (%v, %v, %v), want (6, 2, -1)", tx, ty, tz)
	}
}

// TestCameraMatrices verifies the camera projects its controller's target to
// the center of clip space.
func TestCameraMatrices(t *testing.T) {
	ctrl := NewCameraController(WithSpawn(0, 1.7, 10), WithYaw(0))
	cam := NewCamera(
		WithController(ctrl),
		WithAspect(16.0/9.0),
		WithNear(0.1),
		WithFar(500),
	)
	cam.Update()

	vp := cam.ViewProjectionMatrix()
	// Target is 1 unit along -Z from the eye.
	px, py, pz := float32(0), float32(1.7), float32(9)
	cx := vp[0]*px + vp[4]*py + vp[8]*pz + vp[12]
	cy := vp[1]*px + vp[5]*py + vp[9]*pz + vp[13]
	cw := vp[3]*px + vp[7]*py + vp[11]*pz + vp[15]

	if cw <= 0 {
		t.Fatalf("clip w = %v, want > 0", cw)
	}
	if !approx(cx/cw, 0, 1e-4) || !approx(cy/cw, 0, 1e-4) {
		t.Errorf("target projects to ndc (%v, %v), want (0, 0)", cx/cw, cy/cw)
	}
}

// TestCameraSetAspectRecomputesProjection verifies the resize path: widening
// the aspect ratio shrinks horizontal NDC coordinates proportionally.
func TestCameraSetAspectRecomputesProjection(t *testing.T) {
	ctrl := NewCameraController(WithSpawn(0, 0, 0), WithYaw(0))
	cam := NewCamera(WithController(ctrl), WithAspect(1), WithNear(0.1), WithFar(100))
	cam.Update()

	ndcX := func() float32 {
		vp := cam.ViewProjectionMatrix()
		px, py, pz := float32(1), float32(0), float32(-10)
		cx := vp[0]*px + vp[4]*py + vp[8]*pz + vp[12]
		cw := vp[3]*px + vp[7]*py + vp[11]*pz + vp[15]
		return cx / cw
	}

	before := ndcX()
	cam.SetAspect(2)
	after := ndcX()

	if !approx(after, before/2, 1e-5) {
		t.Errorf("after doubling aspect: ndc x = %v, want %v", after, before/2)
	}
}

// TestCameraFrustumContainsViewedPoint verifies frustum extraction agrees with
// projection: a point in front of the camera is inside, a point behind is not.
func TestCameraFrustumContainsViewedPoint(t *testing.T) {
	ctrl := NewCameraController(WithSpawn(0, 0, 0), WithYaw(0))
	cam := NewCamera(WithController(ctrl), WithAspect(1), WithNear(0.1), WithFar(100))
	cam.Update()

	f := cam.Frustum()
	if !f.IntersectsSphere(0, 0, -10, 1) {
		t.Error("sphere ahead of camera should intersect frustum")
	}
	if f.IntersectsSphere(0, 0, 50, 1) {
		t.Error("sphere behind camera should not intersect frustum")
	}
}
