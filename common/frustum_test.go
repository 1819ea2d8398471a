package common

import (
	"math"
	"testing"
)

// testFrustum builds a 90 degree, aspect 1 frustum looking down -Z from the
// origin with near 0.1 and far 100.
func testFrustum() Frustum {
	proj := make([]float32, 16)
	Perspective(proj, float32(math.Pi/2), 1.0, 0.1, 100.0)
	view := make([]float32, 16)
	LookAt(view, 0, 0, 0, 0, 0, -1, 0, 1, 0)
	vp := make([]float32, 16)
	Mul4(vp, proj, view)
	return ExtractFrustumFromMatrix(vp)
}

func TestExtractFrustumPlanesNormalized(t *testing.T) {
	f := testFrustum()
	for i, p := range f.Planes {
		length := float32(math.Sqrt(float64(
			p.Normal[0]*p.Normal[0] + p.Normal[1]*p.Normal[1] + p.Normal[2]*p.Normal[2])))
		if !approx(length, 1, 1e-5) {
			t.Errorf("plane %d normal length = %v, want 1", i, length)
		}
	}
}

// TestExtractFrustumIdentity checks the plane equations for the identity
// view-projection, whose frustum is the unit clip cube.
func TestExtractFrustumIdentity(t *testing.T) {
	id := make([]float32, 16)
	Identity(id)
	f := ExtractFrustumFromMatrix(id)

	tests := []struct {
		name     string
		index    int
		normal   [3]float32
		distance float32
	}{
		{"left", FrustumLeft, [3]float32{1, 0, 0}, 1},
		{"right", FrustumRight, [3]float32{-1, 0, 0}, 1},
		{"bottom", FrustumBottom, [3]float32{0, 1, 0}, 1},
		{"top", FrustumTop, [3]float32{0, -1, 0}, 1},
		{"near", FrustumNear, [3]float32{0, 0, 1}, 1},
		{"far", FrustumFar, [3]float32{0, 0, -1}, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := f.Planes[tt.index]
			if p.Normal != tt.normal || !approx(p.Distance, tt.distance, 1e-6) {
				t.Errorf("plane = %+v, want normal %v distance %v", p, tt.normal, tt.distance)
			}
		})
	}
}

func TestIntersectsSphere(t *testing.T) {
	f := testFrustum()

	tests := []struct {
		name   string
		center [3]float32
		radius float32
		want   bool
	}{
		{"dead center", [3]float32{0, 0, -10}, 1, true},
		{"behind camera", [3]float32{0, 0, 10}, 1, false},
		{"beyond far plane", [3]float32{0, 0, -200}, 1, false},
		{"large sphere straddling far plane", [3]float32{0, 0, -150}, 60, true},
		{"outside right plane", [3]float32{50, 0, -10}, 1, false},
		{"straddling right plane", [3]float32{10, 0, -10}, 2, true},
		{"inside near the edge", [3]float32{9, 0, -10}, 0.5, true},
		{"in front of near plane", [3]float32{0, 0, -0.01}, 0.001, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := f.IntersectsSphere(tt.center[0], tt.center[1], tt.center[2], tt.radius)
			if got != tt.want {
				t.Errorf("IntersectsSphere(%v, r=%v) = %v, want %v", tt.center, tt.radius, got, tt.want)
			}
		})
	}
}
