package model

import (
	_ "embed"
	"encoding/binary"
	"math"
	"unsafe"
)

// GPUVertexSource is the canonical WGSL definition of the VertexInput struct for mesh pipelines.
// Matches GPUVertex layout exactly (56 bytes, tightly packed vertex attributes).
//
//go:embed assets/vertex.wgsl
var GPUVertexSource string

// GPUVertex is the GPU-aligned representation of a single mesh vertex.
// Matches the WGSL VertexInput struct layout exactly (see GPUVertexSource).
// Size: 56 bytes, tightly packed in attribute-location order.
type GPUVertex struct {
	Position  [3]float32 // offset  0: vertex position in model space (12 bytes)
	TexCoord  [2]float32 // offset 12: UV texture coordinate (8 bytes)
	Normal    [3]float32 // offset 20: vertex normal for lighting (12 bytes)
	Tangent   [3]float32 // offset 32: tangent along increasing U for normal mapping (12 bytes)
	Bitangent [3]float32 // offset 44: bitangent along increasing V for normal mapping (12 bytes)
}

// Size returns the size of the GPUVertex struct in bytes.
//
// Returns:
//   - int: the size of the struct in bytes.
func (g *GPUVertex) Size() int {
	return int(unsafe.Sizeof(*g))
}

// Marshal serializes the GPUVertex struct into a byte buffer suitable for GPU upload.
//
// Returns:
//   - []byte: 56-byte buffer ready for GPU upload.
func (g *GPUVertex) Marshal() []byte {
	buf := make([]byte, 56)
	binary.LittleEndian.PutUint32(buf[0:4], math.Float32bits(g.Position[0]))
	binary.LittleEndian.PutUint32(buf[4:8], math.Float32bits(g.Position[1]))
	binary.LittleEndian.PutUint32(buf[8:12], math.Float32bits(g.Position[2]))
	binary.LittleEndian.PutUint32(buf[12:16], math.Float32bits(g.TexCoord[0]))
	binary.LittleEndian.PutUint32(buf[16:20], math.Float32bits(g.TexCoord[1]))
	binary.LittleEndian.PutUint32(buf[20:24], math.Float32bits(g.Normal[0]))
	binary.LittleEndian.PutUint32(buf[24:28], math.Float32bits(g.Normal[1]))
	binary.LittleEndian.PutUint32(buf[28:32], math.Float32bits(g.Normal[2]))
	binary.LittleEndian.PutUint32(buf[32:36], math.Float32bits(g.Tangent[0]))
	binary.LittleEndian.PutUint32(buf[36:40], math.Float32bits(g.Tangent[1]))
	binary.LittleEndian.PutUint32(buf[40:44], math.Float32bits(g.Tangent[2]))
	binary.LittleEndian.PutUint32(buf[44:48], math.Float32bits(g.Bitangent[0]))
	binary.LittleEndian.PutUint32(buf[48:52], math.Float32bits(g.Bitangent[1]))
	binary.LittleEndian.PutUint32(buf[52:56], math.Float32bits(g.Bitangent[2]))
	return buf
}

// MarshalVertexBuffer serializes a vertex slice into one contiguous byte buffer
// suitable for GPU vertex buffer upload.
//
// Parameters:
//   - vertices: the vertex data to marshal
//
// Returns:
//   - []byte: vertex buffer contents, 56 bytes per vertex
func MarshalVertexBuffer(vertices []GPUVertex) []byte {
	stride := (&GPUVertex{}).Size()
	buf := make([]byte, len(vertices)*stride)
	for i := range vertices {
		copy(buf[i*stride:(i+1)*stride], vertices[i].Marshal())
	}
	return buf
}

// ComputeBoundingRadius calculates the bounding sphere radius from a slice of
// vertices. The radius is the maximum distance from the model-space origin
// across all vertices in the slice.
//
// Parameters:
//   - vertices: the vertex data to compute the bounding radius from
//
// Returns:
//   - float32: the maximum distance from the origin
func ComputeBoundingRadius(vertices []GPUVertex) float32 {
	var maxDistSq float32
	for _, v := range vertices {
		p := v.Position
		distSq := p[0]*p[0] + p[1]*p[1] + p[2]*p[2]
		if distSq > maxDistSq {
			maxDistSq = distSq
		}
	}
	return float32(math.Sqrt(float64(maxDistSq)))
}

// ComputeTangents fills in the Tangent and Bitangent fields of the vertex
// slice from positions, UVs, and triangle indices. Per-triangle tangent frames
// are accumulated onto shared vertices and the result is orthogonalized
// against each vertex normal, so smooth meshes get smooth tangent frames.
//
// Source assets without tangent data run through this after import; vertices
// belonging to degenerate triangles or zero-area UV mappings keep a tangent
// frame derived from their normal alone.
//
// Parameters:
//   - vertices: the vertex slice to update in place
//   - indices: triangle list indices into vertices (length must be a multiple of 3)
func ComputeTangents(vertices []GPUVertex, indices []uint32) {
	tan := make([][3]float32, len(vertices))
	bitan := make([][3]float32, len(vertices))

	for i := 0; i+2 < len(indices); i += 3 {
		i0, i1, i2 := indices[i], indices[i+1], indices[i+2]
		v0, v1, v2 := &vertices[i0], &vertices[i1], &vertices[i2]

		e1 := [3]float32{
			v1.Position[0] - v0.Position[0],
			v1.Position[1] - v0.Position[1],
			v1.Position[2] - v0.Position[2],
		}
		e2 := [3]float32{
			v2.Position[0] - v0.Position[0],
			v2.Position[1] - v0.Position[1],
			v2.Position[2] - v0.Position[2],
		}
		du1 := v1.TexCoord[0] - v0.TexCoord[0]
		dv1 := v1.TexCoord[1] - v0.TexCoord[1]
		du2 := v2.TexCoord[0] - v0.TexCoord[0]
		dv2 := v2.TexCoord[1] - v0.TexCoord[1]

		det := du1*dv2 - du2*dv1
		if det == 0 {
			continue
		}
		r := 1.0 / det

		t := [3]float32{
			(dv2*e1[0] - dv1*e2[0]) * r,
			(dv2*e1[1] - dv1*e2[1]) * r,
			(dv2*e1[2] - dv1*e2[2]) * r,
		}
		b := [3]float32{
			(du1*e2[0] - du2*e1[0]) * r,
			(du1*e2[1] - du2*e1[1]) * r,
			(du1*e2[2] - du2*e1[2]) * r,
		}

		for _, idx := range []uint32{i0, i1, i2} {
			tan[idx][0] += t[0]
			tan[idx][1] += t[1]
			tan[idx][2] += t[2]
			bitan[idx][0] += b[0]
			bitan[idx][1] += b[1]
			bitan[idx][2] += b[2]
		}
	}

	for i := range vertices {
		n := vertices[i].Normal
		t := tan[i]

		// Gram-Schmidt: t' = normalize(t - n * dot(n, t))
		ndt := n[0]*t[0] + n[1]*t[1] + n[2]*t[2]
		t[0] -= n[0] * ndt
		t[1] -= n[1] * ndt
		t[2] -= n[2] * ndt

		if lenSq := t[0]*t[0] + t[1]*t[1] + t[2]*t[2]; lenSq > 1e-12 {
			inv := 1.0 / float32(math.Sqrt(float64(lenSq)))
			t[0] *= inv
			t[1] *= inv
			t[2] *= inv
		} else {
			t = fallbackTangent(n)
		}
		vertices[i].Tangent = t

		// Bitangent from the cross product, signed to match the accumulated one.
		b := [3]float32{
			n[1]*t[2] - n[2]*t[1],
			n[2]*t[0] - n[0]*t[2],
			n[0]*t[1] - n[1]*t[0],
		}
		if b[0]*bitan[i][0]+b[1]*bitan[i][1]+b[2]*bitan[i][2] < 0 {
			b[0], b[1], b[2] = -b[0], -b[1], -b[2]
		}
		vertices[i].Bitangent = b
	}
}

// fallbackTangent picks an arbitrary unit vector perpendicular to n for
// vertices with no usable UV-derived tangent.
func fallbackTangent(n [3]float32) [3]float32 {
	ref := [3]float32{1, 0, 0}
	if n[0] > 0.9 || n[0] < -0.9 {
		ref = [3]float32{0, 1, 0}
	}
	t := [3]float32{
		n[1]*ref[2] - n[2]*ref[1],
		n[2]*ref[0] - n[0]*ref[2],
		n[0]*ref[1] - n[1]*ref[0],
	}
	lenSq := t[0]*t[0] + t[1]*t[1] + t[2]*t[2]
	if lenSq <= 1e-12 {
		return [3]float32{1, 0, 0}
	}
	inv := 1.0 / float32(math.Sqrt(float64(lenSq)))
	return [3]float32{t[0] * inv, t[1] * inv, t[2] * inv}
}
