package common

import (
	"math"
	"testing"
)

func approx(got, want, tol float32) bool {
	d := got - want
	return d <= tol && d >= -tol
}

func approxSlice(t *testing.T, got, want []float32, tol float32) {
	t.Helper()
	if len(got) != len(want) {
		t.Fatalf("length = %d, want %d", len(got), len(want))
	}
	for i := range want {
		if !approx(got[i], want[i], tol) {
			t.Errorf("element %d = %v, want %v", i, got[i], want[i])
		}
	}
}

func translation(x, y, z float32) []float32 {
	m := make([]float32, 16)
	Identity(m)
	m[12], m[13], m[14] = x, y, z
	return m
}

func scaling(x, y, z float32) []float32 {
	m := make([]float32, 16)
	Identity(m)
	m[0], m[5], m[10] = x, y, z
	return m
}

func TestIdentity(t *testing.T) {
	m := make([]float32, 16)
	for i := range m {
		m[i] = 7
	}
	Identity(m)

	want := []float32{1, 0, 0, 0, 0, 1, 0, 0, 0, 0, 1, 0, 0, 0, 0, 1}
	approxSlice(t, m, want, 0)
}

func TestMul4(t *testing.T) {
	m := translation(1, 2, 3)
	out := make([]float32, 16)

	id := make([]float32, 16)
	Identity(id)
	Mul4(out, id, m)
	approxSlice(t, out, m, 0)

	// Translate-after-scale: (1,1,1) scales to (2,2,2) then moves to (3,4,5).
	Mul4(out, translation(1, 2, 3), scaling(2, 2, 2))
	x, y, z, w := TransformPoint(out, 1, 1, 1)
	if !approx(x, 3, 1e-6) || !approx(y, 4, 1e-6) || !approx(z, 5, 1e-6) || !approx(w, 1, 1e-6) {
		t.Errorf("composed transform of (1,1,1) = (%v, %v, %v, %v), want (3, 4, 5, 1)", x, y, z, w)
	}
}

// TestMul4Aliasing verifies the output slice may alias either operand,
// which the instance matrix builders rely on.
func TestMul4Aliasing(t *testing.T) {
	a := translation(1, 0, 0)
	b := translation(0, 2, 0)

	want := make([]float32, 16)
	Mul4(want, a, b)

	Mul4(a, a, b)
	approxSlice(t, a, want, 0)
}

func TestTransformPoint(t *testing.T) {
	x, y, z, w := TransformPoint(translation(10, 20, 30), 1, 2, 3)
	if !approx(x, 11, 1e-6) || !approx(y, 22, 1e-6) || !approx(z, 33, 1e-6) || !approx(w, 1, 1e-6) {
		t.Errorf("TransformPoint = (%v, %v, %v, %v), want (11, 22, 33, 1)", x, y, z, w)
	}
}

// TestPerspectiveDepthRange verifies the projection maps the near plane to
// clip depth 0 and the far plane to 1 after the perspective divide, the
// WebGPU clip-space convention.
func TestPerspectiveDepthRange(t *testing.T) {
	m := make([]float32, 16)
	Perspective(m, float32(math.Pi/2), 1.0, 0.1, 100.0)

	_, _, z, w := TransformPoint(m, 0, 0, -0.1)
	if !approx(z/w, 0, 1e-5) {
		t.Errorf("near plane depth = %v, want 0", z/w)
	}

	_, _, z, w = TransformPoint(m, 0, 0, -100.0)
	if !approx(z/w, 1, 1e-5) {
		t.Errorf("far plane depth = %v, want 1", z/w)
	}

	// 90 degree vertical fov at aspect 1: a point on the top frustum edge
	// lands on the clip boundary y/w = 1.
	_, y, _, w := TransformPoint(m, 0, 5, -5)
	if !approx(y/w, 1, 1e-5) {
		t.Errorf("frustum edge y/w = %v, want 1", y/w)
	}
}

func TestBuildModelMatrix(t *testing.T) {
	m := make([]float32, 16)

	BuildModelMatrix(m, 0, 0, 0, 0, 0, 0, 1, 1, 1)
	id := make([]float32, 16)
	Identity(id)
	approxSlice(t, m, id, 1e-6)

	// Scale then translate, no rotation.
	BuildModelMatrix(m, 5, 6, 7, 0, 0, 0, 2, 3, 4)
	x, y, z, _ := TransformPoint(m, 1, 1, 1)
	if !approx(x, 7, 1e-5) || !approx(y, 9, 1e-5) || !approx(z, 11, 1e-5) {
		t.Errorf("scaled+translated (1,1,1) = (%v, %v, %v), want (7, 9, 11)", x, y, z)
	}

	// Quarter turn around Y carries +X onto -Z.
	BuildModelMatrix(m, 0, 0, 0, 0, float32(math.Pi/2), 0, 1, 1, 1)
	x, y, z, _ = TransformPoint(m, 1, 0, 0)
	if !approx(x, 0, 1e-5) || !approx(y, 0, 1e-5) || !approx(z, -1, 1e-5) {
		t.Errorf("yaw 90 of (1,0,0) = (%v, %v, %v), want (0, 0, -1)", x, y, z)
	}
}

func TestNormalMatrix(t *testing.T) {
	m := make([]float32, 16)
	n := make([]float32, 9)

	// Uniform scale 2: inverse transpose is uniform 0.5.
	BuildModelMatrix(m, 0, 0, 0, 0, 0, 0, 2, 2, 2)
	NormalMatrix(n, m)
	approxSlice(t, n, []float32{0.5, 0, 0, 0, 0.5, 0, 0, 0, 0.5}, 1e-6)

	// Pure rotation: the normal matrix equals the rotation block.
	BuildModelMatrix(m, 0, 0, 0, 0.3, 0.7, 0.1, 1, 1, 1)
	NormalMatrix(n, m)
	want := []float32{m[0], m[1], m[2], m[4], m[5], m[6], m[8], m[9], m[10]}
	approxSlice(t, n, want, 1e-5)
}

func TestNormalMatrixSingularFallback(t *testing.T) {
	m := make([]float32, 16)
	BuildModelMatrix(m, 0, 0, 0, 0, 0, 0, 1, 0, 1)

	n := make([]float32, 9)
	NormalMatrix(n, m)
	want := []float32{m[0], m[1], m[2], m[4], m[5], m[6], m[8], m[9], m[10]}
	approxSlice(t, n, want, 0)
}

func TestInvert4(t *testing.T) {
	m := make([]float32, 16)
	BuildModelMatrix(m, 3, -1, 8, 0.2, 1.1, -0.4, 2, 1, 0.5)

	inv := make([]float32, 16)
	if !Invert4(inv, m) {
		t.Fatal("Invert4 returned false for an invertible matrix")
	}

	prod := make([]float32, 16)
	Mul4(prod, m, inv)
	id := make([]float32, 16)
	Identity(id)
	approxSlice(t, prod, id, 1e-4)
}

func TestInvert4Singular(t *testing.T) {
	m := make([]float32, 16)
	out := make([]float32, 16)
	out[0] = 42

	if Invert4(out, m) {
		t.Fatal("Invert4 returned true for the zero matrix")
	}
	if out[0] != 42 {
		t.Errorf("output modified on singular input: out[0] = %v, want 42", out[0])
	}
}

func TestLookAt(t *testing.T) {
	m := make([]float32, 16)

	// Eye at origin looking down -Z with +Y up is the identity view.
	LookAt(m, 0, 0, 0, 0, 0, -1, 0, 1, 0)
	id := make([]float32, 16)
	Identity(id)
	approxSlice(t, m, id, 1e-6)

	// Eye at (0,0,5): the eye maps to the view-space origin and the world
	// origin sits 5 units down the view -Z axis.
	LookAt(m, 0, 0, 5, 0, 0, 0, 0, 1, 0)
	x, y, z, _ := TransformPoint(m, 0, 0, 5)
	if !approx(x, 0, 1e-5) || !approx(y, 0, 1e-5) || !approx(z, 0, 1e-5) {
		t.Errorf("eye position in view space = (%v, %v, %v), want origin", x, y, z)
	}
	x, y, z, _ = TransformPoint(m, 0, 0, 0)
	if !approx(x, 0, 1e-5) || !approx(y, 0, 1e-5) || !approx(z, -5, 1e-5) {
		t.Errorf("world origin in view space = (%v, %v, %v), want (0, 0, -5)", x, y, z)
	}
}

func TestSliceToBytes(t *testing.T) {
	if got := SliceToBytes([]float32(nil)); got != nil {
		t.Errorf("SliceToBytes(nil) = %v, want nil", got)
	}

	data := []float32{1.0}
	b := SliceToBytes(data)
	if len(b) != 4 {
		t.Fatalf("len = %d, want 4", len(b))
	}
	// 1.0 is 0x3F800000 little-endian.
	if b[0] != 0 || b[1] != 0 || b[2] != 0x80 || b[3] != 0x3F {
		t.Errorf("bytes = %v, want [0 0 128 63]", b)
	}
}

func TestStructToBytes(t *testing.T) {
	type pair struct {
		A uint32
		B uint32
	}
	p := pair{A: 1, B: 0xFFFFFFFF}
	b := StructToBytes(&p)
	if len(b) != 8 {
		t.Fatalf("len = %d, want 8", len(b))
	}
	if b[0] != 1 || b[4] != 0xFF {
		t.Errorf("bytes = %v, want A=1 at offset 0 and B bytes 0xFF from offset 4", b)
	}
}
