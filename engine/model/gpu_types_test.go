package model

import (
	"encoding/binary"
	"math"
	"testing"
)

func f32At(buf []byte, off int) float32 {
	return math.Float32frombits(binary.LittleEndian.Uint32(buf[off : off+4]))
}

// TestGPUVertexMarshal verifies the 56-byte vertex layout in attribute order:
// position, tex_coord, normal, tangent, bitangent.
func TestGPUVertexMarshal(t *testing.T) {
	v := GPUVertex{
		Position:  [3]float32{1, 2, 3},
		TexCoord:  [2]float32{0.25, 0.75},
		Normal:    [3]float32{0, 1, 0},
		Tangent:   [3]float32{1, 0, 0},
		Bitangent: [3]float32{0, 0, 1},
	}

	buf := v.Marshal()
	if len(buf) != 56 {
		t.Fatalf("Marshal length = %d, want 56", len(buf))
	}
	if v.Size() != 56 {
		t.Errorf("Size() = %d, want 56", v.Size())
	}

	checks := []struct {
		name string
		off  int
		want float32
	}{
		{"position.x", 0, 1},
		{"position.y", 4, 2},
		{"position.z", 8, 3},
		{"tex_coord.u", 12, 0.25},
		{"tex_coord.v", 16, 0.75},
		{"normal.y", 24, 1},
		{"tangent.x", 32, 1},
		{"bitangent.z", 52, 1},
	}
	for _, c := range checks {
		if got := f32At(buf, c.off); got != c.want {
			t.Errorf("%s = %v, want %v", c.name, got, c.want)
		}
	}
}

func TestMarshalVertexBuffer(t *testing.T) {
	vertices := []GPUVertex{
		{Position: [3]float32{1, 0, 0}},
		{Position: [3]float32{0, 2, 0}},
		{Position: [3]float32{0, 0, 3}},
	}

	buf := MarshalVertexBuffer(vertices)
	if len(buf) != 3*56 {
		t.Fatalf("buffer length = %d, want %d", len(buf), 3*56)
	}
	if got := f32At(buf, 0); got != 1 {
		t.Errorf("vertex[0].position.x = %v, want 1", got)
	}
	if got := f32At(buf, 56+4); got != 2 {
		t.Errorf("vertex[1].position.y = %v, want 2", got)
	}
	if got := f32At(buf, 2*56+8); got != 3 {
		t.Errorf("vertex[2].position.z = %v, want 3", got)
	}
}

func TestComputeBoundingRadius(t *testing.T) {
	tests := []struct {
		name     string
		vertices []GPUVertex
		want     float32
	}{
		{"empty", nil, 0},
		{"single at origin", []GPUVertex{{}}, 0},
		{"unit cube corner", []GPUVertex{
			{Position: [3]float32{1, 1, 1}},
			{Position: [3]float32{-0.5, 0, 0}},
		}, float32(math.Sqrt(3))},
		{"negative farthest", []GPUVertex{
			{Position: [3]float32{1, 0, 0}},
			{Position: [3]float32{0, -5, 0}},
		}, 5},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ComputeBoundingRadius(tt.vertices)
			if diff := got - tt.want; diff > 1e-5 || diff < -1e-5 {
				t.Errorf("ComputeBoundingRadius = %v, want %v", got, tt.want)
			}
		})
	}
}

// TestComputeTangents verifies the UV-aligned tangent frame on a flat quad:
// tangent along +U maps to +X, bitangent along +V maps to +Y.
func TestComputeTangents(t *testing.T) {
	vertices := []GPUVertex{
		{Position: [3]float32{0, 0, 0}, TexCoord: [2]float32{0, 0}, Normal: [3]float32{0, 0, 1}},
		{Position: [3]float32{1, 0, 0}, TexCoord: [2]float32{1, 0}, Normal: [3]float32{0, 0, 1}},
		{Position: [3]float32{1, 1, 0}, TexCoord: [2]float32{1, 1}, Normal: [3]float32{0, 0, 1}},
		{Position: [3]float32{0, 1, 0}, TexCoord: [2]float32{0, 1}, Normal: [3]float32{0, 0, 1}},
	}
	indices := []uint32{0, 1, 2, 0, 2, 3}

	ComputeTangents(vertices, indices)

	approx := func(a, b [3]float32) bool {
		for i := range a {
			if d := a[i] - b[i]; d > 1e-5 || d < -1e-5 {
				return false
			}
		}
		return true
	}

	for i, v := range vertices {
		if !approx(v.Tangent, [3]float32{1, 0, 0}) {
			t.Errorf("vertex %d tangent = %v, want [1 0 0]", i, v.Tangent)
		}
		if !approx(v.Bitangent, [3]float32{0, 1, 0}) {
			t.Errorf("vertex %d bitangent = %v, want [0 1 0]", i, v.Bitangent)
		}
	}
}

// TestComputeTangentsDegenerateUVs verifies that vertices with no usable UV
// gradient still receive a unit tangent perpendicular to the normal.
func TestComputeTangentsDegenerateUVs(t *testing.T) {
	vertices := []GPUVertex{
		{Position: [3]float32{0, 0, 0}, TexCoord: [2]float32{0.5, 0.5}, Normal: [3]float32{0, 1, 0}},
		{Position: [3]float32{1, 0, 0}, TexCoord: [2]float32{0.5, 0.5}, Normal: [3]float32{0, 1, 0}},
		{Position: [3]float32{0, 0, 1}, TexCoord: [2]float32{0.5, 0.5}, Normal: [3]float32{0, 1, 0}},
	}
	indices := []uint32{0, 1, 2}

	ComputeTangents(vertices, indices)

	for i, v := range vertices {
		tl := v.Tangent[0]*v.Tangent[0] + v.Tangent[1]*v.Tangent[1] + v.Tangent[2]*v.Tangent[2]
		if d := tl - 1; d > 1e-4 || d < -1e-4 {
			t.Errorf("vertex %d tangent length^2 = %v, want 1", i, tl)
		}
		dot := v.Tangent[0]*v.Normal[0] + v.Tangent[1]*v.Normal[1] + v.Tangent[2]*v.Normal[2]
		if dot > 1e-5 || dot < -1e-5 {
			t.Errorf("vertex %d tangent not perpendicular to normal, dot = %v", i, dot)
		}
	}
}
