package instancer

import (
	_ "embed"
	"encoding/binary"
	"math"
	"unsafe"

	"github.com/CygnusX-26/mood/common"
)

// GPUInstanceSource is the canonical WGSL definition of the InstanceInput struct.
// Matches the serialized GPUInstance layout exactly (100 bytes per instance).
//
//go:embed assets/instance.wgsl
var GPUInstanceSource string

// InstanceStride is the size in bytes of one serialized instance in the
// instance-rate vertex buffer: four vec4 model matrix columns followed by
// three vec3 normal matrix columns.
const InstanceStride = 100

// GPUInstance is the CPU-side representation of one drawn instance: a single
// column-major model matrix and its 3x3 normal matrix. The matrices stay whole
// here so transform math composes normally; they are split into the per-column
// vertex attributes the shader consumes only when serialized into the instance
// buffer.
// Matches the WGSL InstanceInput struct attribute order (see GPUInstanceSource).
// Serialized size: 100 bytes per instance.
type GPUInstance struct {
	Model  [16]float32 // column-major model-to-world transform
	Normal [9]float32  // column-major inverse-transpose of the model's 3x3 block
}

// Size returns the serialized size of a GPUInstance in bytes.
//
// Returns:
//   - int: the serialized size in bytes (100)
func (g *GPUInstance) Size() int {
	return int(unsafe.Sizeof(*g))
}

// Marshal serializes the GPUInstance into a byte buffer laid out as the
// instance-rate vertex attributes: model columns at locations 5 through 8,
// normal columns at locations 9 through 11.
//
// Returns:
//   - []byte: 100-byte buffer ready for instance buffer upload
func (g *GPUInstance) Marshal() []byte {
	buf := make([]byte, InstanceStride)
	g.MarshalInto(buf)
	return buf
}

// MarshalInto serializes the GPUInstance into the first InstanceStride bytes
// of buf. This is the only point where the whole matrices become column
// vectors; everything upstream works with the full mat4.
//
// Parameters:
//   - buf: destination slice (must be at least InstanceStride bytes)
func (g *GPUInstance) MarshalInto(buf []byte) {
	// model_col0..model_col3: vec4 each
	for i := range 16 {
		binary.LittleEndian.PutUint32(buf[i*4:(i+1)*4], math.Float32bits(g.Model[i]))
	}
	// normal_col0..normal_col2: vec3 each
	for i := range 9 {
		off := 64 + i*4
		binary.LittleEndian.PutUint32(buf[off:off+4], math.Float32bits(g.Normal[i]))
	}
}

// BuildInstance constructs a GPUInstance from decomposed transform components.
// The model matrix composes scale, rotation (Y*X*Z order), and translation;
// the normal matrix is the inverse transpose of its upper 3x3 block.
//
// Parameters:
//   - pos: translation in world space
//   - rot: rotation angles in radians around each axis
//   - scale: scale factors along each axis
//
// Returns:
//   - GPUInstance: the instance transform pair
func BuildInstance(pos, rot, scale [3]float32) GPUInstance {
	var g GPUInstance
	common.BuildModelMatrix(g.Model[:],
		pos[0], pos[1], pos[2],
		rot[0], rot[1], rot[2],
		scale[0], scale[1], scale[2],
	)
	common.NormalMatrix(g.Normal[:], g.Model[:])
	return g
}
