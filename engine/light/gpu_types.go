package light

import (
	_ "embed"
	"encoding/binary"
	"math"
	"unsafe"

	"github.com/CygnusX-26/mood/common"
)

// MaxGPULights is the maximum number of lights that can be marshaled into the
// GPU storage buffer per frame. The CPU-side light list is unbounded; this cap
// controls only how many lights the GPU evaluates. When the active light count
// exceeds this budget, the scene's light priority system selects the most
// impactful lights.
const MaxGPULights = 1024

// faceForward holds the forward (look) direction of each cube face in the
// standard cube-map order: +X, -X, +Y, -Y, +Z, -Z.
var faceForward = [ShadowFaceCount][3]float32{
	{1, 0, 0},
	{-1, 0, 0},
	{0, 1, 0},
	{0, -1, 0},
	{0, 0, 1},
	{0, 0, -1},
}

// faceUp holds the up vector paired with each cube face. The Y faces look
// along the up axis itself, so they borrow the Z axis instead.
var faceUp = [ShadowFaceCount][3]float32{
	{0, -1, 0},
	{0, -1, 0},
	{0, 0, 1},
	{0, 0, -1},
	{0, -1, 0},
	{0, -1, 0},
}

// GPULightViewSource is the canonical WGSL definition of the LightView struct.
// Matches GPULightView layout exactly (80 bytes, std430 aligned).
//
//go:embed assets/light_view.wgsl
var GPULightViewSource string

// GPULightView is the GPU-aligned uniform for one cube face of the
// omnidirectional shadow depth pass. The vertex stage uses ViewProj to place
// geometry in the face's clip space; the fragment stage uses Position to write
// the normalized distance from the fragment to the light as depth.
// Matches the WGSL LightView struct layout exactly (see GPULightViewSource).
// Size: 80 bytes (std430 / WGSL aligned).
//
// Layout:
//
//	mat4x4<f32> view_proj  (64 bytes, offset  0)
//	vec3<f32>   position   (12 bytes, offset 64)
//	f32         _pad       ( 4 bytes, offset 76)
type GPULightView struct {
	ViewProj [16]float32 // face view-projection from the light's position
	Position [3]float32  // light world-space position
	_pad     float32     // padding to 80-byte alignment
}

// Size returns the size of the GPULightView struct in bytes.
//
// Returns:
//   - int: the struct size in bytes (80)
func (v *GPULightView) Size() int {
	return int(unsafe.Sizeof(*v))
}

// Marshal serializes the GPULightView struct into a byte buffer suitable for
// GPU uniform upload.
//
// Returns:
//   - []byte: 80-byte buffer ready for GPU upload
func (v *GPULightView) Marshal() []byte {
	buf := make([]byte, 80)
	for i := range 16 {
		binary.LittleEndian.PutUint32(buf[i*4:(i+1)*4], math.Float32bits(v.ViewProj[i]))
	}
	binary.LittleEndian.PutUint32(buf[64:68], math.Float32bits(v.Position[0]))
	binary.LittleEndian.PutUint32(buf[68:72], math.Float32bits(v.Position[1]))
	binary.LittleEndian.PutUint32(buf[72:76], math.Float32bits(v.Position[2]))
	binary.LittleEndian.PutUint32(buf[76:80], 0) // padding
	return buf
}

// ComputeFaceVP builds the view-projection matrix for one cube face of an
// omnidirectional shadow map and stores it in the receiver's ViewProj field,
// along with the light position in Position. Each face uses a 90° perspective
// projection with aspect 1 so the six frusta exactly tile the sphere around
// the light. The far plane is the shadow radius: geometry beyond it cannot
// influence the cube.
//
// The rasterized depth from this matrix is conventional projective depth; the
// fragment stage overwrites it with normalized linear distance. The matrix
// therefore only controls which fragments each face covers, never the stored
// depth values.
//
// Parameters:
//   - lightPos: world-space light position
//   - face: cube face index 0-5 in +X, -X, +Y, -Y, +Z, -Z order
//   - near: near plane distance (must be > 0)
//   - radius: shadow radius, used as the far plane
func (v *GPULightView) ComputeFaceVP(lightPos [3]float32, face int, near, radius float32) {
	fwd := faceForward[face]
	up := faceUp[face]

	var view [16]float32
	common.LookAt(view[:],
		lightPos[0], lightPos[1], lightPos[2],
		lightPos[0]+fwd[0], lightPos[1]+fwd[1], lightPos[2]+fwd[2],
		up[0], up[1], up[2],
	)

	var proj [16]float32
	common.Perspective(proj[:], float32(math.Pi/2), 1.0, near, radius)

	common.Mul4(v.ViewProj[:], proj[:], view[:])
	v.Position = lightPos
}

// NormalizedDistance returns the omnidirectional shadow depth for a world-space
// point: the euclidean distance from the point to the light divided by the
// shadow radius. This is the exact value the shadow fragment stage writes to
// the depth buffer, so CPU-side culling and tests share one definition with
// the GPU. The result is not clamped; points beyond the radius yield values
// above 1.0.
//
// Parameters:
//   - world: the point in world space
//   - lightPos: the light position in world space
//   - radius: the shadow radius used for normalization
//
// Returns:
//   - float32: distance(world, lightPos) / radius
func NormalizedDistance(world, lightPos [3]float32, radius float32) float32 {
	dx := float64(world[0] - lightPos[0])
	dy := float64(world[1] - lightPos[1])
	dz := float64(world[2] - lightPos[2])
	return float32(math.Sqrt(dx*dx+dy*dy+dz*dz)) / radius
}

// GPULightSource is the canonical WGSL definition of the Light struct.
// Matches GPULight layout exactly (48 bytes, std430 aligned).
//
//go:embed assets/light.wgsl
var GPULightSource string

// NoShadowIndex is the sentinel ShadowIndex value for lights without a shadow
// cube slot. The lit shader skips the shadow test for these lights.
const NoShadowIndex = uint32(0xffffffff)

// GPULight is the GPU-aligned representation of a single point light.
// Matches the WGSL Light struct layout exactly (see GPULightSource).
// Size: 48 bytes (std430 / WGSL aligned).
type GPULight struct {
	Position    [3]float32 // offset  0: world-space position
	Radius      float32    // offset 12: attenuation and shadow normalization distance
	Color       [3]float32 // offset 16: RGB color
	Intensity   float32    // offset 28: scalar multiplier
	ShadowIndex uint32     // offset 32: cube index in the shadow array, or NoShadowIndex
	_pad        [3]uint32  // offset 36: padding to 48-byte alignment
}

// Size returns the size of the GPULight struct in bytes.
//
// Returns:
//   - int: the struct size in bytes (48)
func (g *GPULight) Size() int {
	return int(unsafe.Sizeof(*g))
}

// Marshal serializes the GPULight struct into a byte buffer suitable for GPU upload.
//
// Returns:
//   - []byte: 48-byte buffer ready for GPU upload
func (g *GPULight) Marshal() []byte {
	buf := make([]byte, 48)
	binary.LittleEndian.PutUint32(buf[0:4], math.Float32bits(g.Position[0]))
	binary.LittleEndian.PutUint32(buf[4:8], math.Float32bits(g.Position[1]))
	binary.LittleEndian.PutUint32(buf[8:12], math.Float32bits(g.Position[2]))
	binary.LittleEndian.PutUint32(buf[12:16], math.Float32bits(g.Radius))
	binary.LittleEndian.PutUint32(buf[16:20], math.Float32bits(g.Color[0]))
	binary.LittleEndian.PutUint32(buf[20:24], math.Float32bits(g.Color[1]))
	binary.LittleEndian.PutUint32(buf[24:28], math.Float32bits(g.Color[2]))
	binary.LittleEndian.PutUint32(buf[28:32], math.Float32bits(g.Intensity))
	binary.LittleEndian.PutUint32(buf[32:36], g.ShadowIndex)
	binary.LittleEndian.PutUint32(buf[36:40], 0) // padding
	binary.LittleEndian.PutUint32(buf[40:44], 0)
	binary.LittleEndian.PutUint32(buf[44:48], 0)
	return buf
}

// GPULightHeaderSource is the canonical WGSL definition of the LightHeader struct.
// Matches GPULightHeader layout exactly (16 bytes, std430 aligned).
//
//go:embed assets/light_header.wgsl
var GPULightHeaderSource string

// GPULightHeader is the header prepended to the light storage buffer.
// Contains the ambient color and the active light count.
// Matches the WGSL LightHeader struct layout exactly (see GPULightHeaderSource).
// Size: 16 bytes (vec3 + u32, std430 aligned).
type GPULightHeader struct {
	AmbientColor [3]float32 // offset 0: scene ambient RGB
	LightCount   uint32     // offset 12: number of active lights following the header
}

// Size returns the size of the GPULightHeader struct in bytes.
//
// Returns:
//   - int: the struct size in bytes (16)
func (h *GPULightHeader) Size() int {
	return int(unsafe.Sizeof(*h))
}

// Marshal serializes the GPULightHeader struct into a byte buffer suitable for
// GPU upload.
//
// Returns:
//   - []byte: 16-byte buffer ready for GPU upload
func (h *GPULightHeader) Marshal() []byte {
	buf := make([]byte, 16)
	binary.LittleEndian.PutUint32(buf[0:4], math.Float32bits(h.AmbientColor[0]))
	binary.LittleEndian.PutUint32(buf[4:8], math.Float32bits(h.AmbientColor[1]))
	binary.LittleEndian.PutUint32(buf[8:12], math.Float32bits(h.AmbientColor[2]))
	binary.LittleEndian.PutUint32(buf[12:16], h.LightCount)
	return buf
}

// GPUShadowParamsSource is the canonical WGSL definition of the ShadowParams struct.
// Matches GPUShadowParams layout exactly (16 bytes).
//
//go:embed assets/shadow_params.wgsl
var GPUShadowParamsSource string

// GPUShadowParams is the GPU-aligned uniform read by the lit fragment shader
// when sampling the cube shadow array. Bias is subtracted from the fragment's
// normalized light distance before the depth comparison to suppress shadow
// acne; hardware depth bias cannot serve here because the depth pass writes
// frag_depth directly.
// Matches the WGSL ShadowParams struct layout exactly (see GPUShadowParamsSource).
// Size: 16 bytes.
//
// Layout:
//
//	f32       bias  ( 4 bytes, offset 0)
//	f32       near  ( 4 bytes, offset 4)
//	vec2<f32> _pad  ( 8 bytes, offset 8)
type GPUShadowParams struct {
	Bias float32 // comparison bias in normalized depth units
	Near float32 // cube face near plane distance
	_pad [2]float32
}

// Size returns the size of the GPUShadowParams struct in bytes.
//
// Returns:
//   - int: the struct size in bytes (16)
func (p *GPUShadowParams) Size() int {
	return int(unsafe.Sizeof(*p))
}

// Marshal serializes the GPUShadowParams struct into a byte buffer suitable for
// GPU uniform upload.
//
// Returns:
//   - []byte: 16-byte buffer ready for GPU upload
func (p *GPUShadowParams) Marshal() []byte {
	buf := make([]byte, 16)
	binary.LittleEndian.PutUint32(buf[0:4], math.Float32bits(p.Bias))
	binary.LittleEndian.PutUint32(buf[4:8], math.Float32bits(p.Near))
	binary.LittleEndian.PutUint32(buf[8:12], 0) // padding
	binary.LittleEndian.PutUint32(buf[12:16], 0)
	return buf
}

// GPULightCullUniformsSource is the canonical WGSL definition of the LightCullUniforms struct.
// Matches GPULightCullUniforms layout exactly (160 bytes, std430 aligned).
//
//go:embed assets/light_cull_uniforms.wgsl
var GPULightCullUniformsSource string

// GPULightCullUniforms is the GPU-aligned uniform data for the light culling
// compute shader. Contains the inverse projection and view matrices needed
// to reconstruct per-tile frustum planes, plus tile/screen dimensions and
// the active light count.
// Matches the WGSL LightCullUniforms struct layout exactly (see GPULightCullUniformsSource).
// Size: 160 bytes (std430 / WGSL aligned).
//
// Layout:
//
//	mat4x4<f32> inv_proj       (64 bytes, offset  0)
//	mat4x4<f32> view_matrix    (64 bytes, offset 64)
//	u32         tile_count_x   ( 4 bytes, offset 128)
//	u32         tile_count_y   ( 4 bytes, offset 132)
//	u32         screen_width   ( 4 bytes, offset 136)
//	u32         screen_height  ( 4 bytes, offset 140)
//	u32         light_count    ( 4 bytes, offset 144)
//	f32         near           ( 4 bytes, offset 148)
//	f32         far            ( 4 bytes, offset 152)
//	u32         _pad           ( 4 bytes, offset 156)
type GPULightCullUniforms struct {
	InvProj      [16]float32 // inverse projection matrix
	ViewMatrix   [16]float32 // camera view matrix
	TileCountX   uint32
	TileCountY   uint32
	ScreenWidth  uint32
	ScreenHeight uint32
	LightCount   uint32
	Near         float32
	Far          float32
	_pad         uint32
}

// Size returns the size of the GPULightCullUniforms struct in bytes.
//
// Returns:
//   - int: the struct size in bytes (160)
func (u *GPULightCullUniforms) Size() int {
	return int(unsafe.Sizeof(*u))
}

// Marshal serializes GPULightCullUniforms into a 160-byte little-endian buffer
// suitable for GPU upload.
//
// Returns:
//   - []byte: 160-byte buffer ready for GPU upload
func (u *GPULightCullUniforms) Marshal() []byte {
	buf := make([]byte, 160)
	off := 0

	// inv_proj (64 bytes)
	for i := range 16 {
		binary.LittleEndian.PutUint32(buf[off:off+4], math.Float32bits(u.InvProj[i]))
		off += 4
	}
	// view_matrix (64 bytes)
	for i := range 16 {
		binary.LittleEndian.PutUint32(buf[off:off+4], math.Float32bits(u.ViewMatrix[i]))
		off += 4
	}
	// tile_count_x, tile_count_y
	binary.LittleEndian.PutUint32(buf[off:off+4], u.TileCountX)
	off += 4
	binary.LittleEndian.PutUint32(buf[off:off+4], u.TileCountY)
	off += 4
	// screen_width, screen_height
	binary.LittleEndian.PutUint32(buf[off:off+4], u.ScreenWidth)
	off += 4
	binary.LittleEndian.PutUint32(buf[off:off+4], u.ScreenHeight)
	off += 4
	// light_count
	binary.LittleEndian.PutUint32(buf[off:off+4], u.LightCount)
	off += 4
	// near, far
	binary.LittleEndian.PutUint32(buf[off:off+4], math.Float32bits(u.Near))
	off += 4
	binary.LittleEndian.PutUint32(buf[off:off+4], math.Float32bits(u.Far))
	off += 4
	// _pad
	binary.LittleEndian.PutUint32(buf[off:off+4], 0)

	return buf
}

// GPUTileUniformsSource is the canonical WGSL definition of the TileUniforms struct.
// Matches GPUTileUniforms layout exactly (8 bytes).
//
//go:embed assets/tile_uniforms.wgsl
var GPUTileUniformsSource string

// GPUTileUniforms is the GPU-aligned uniform data read by the lit fragment
// shader to compute which tile a fragment belongs to and index into the
// per-tile light list buffer.
// Matches the WGSL TileUniforms struct layout exactly (see GPUTileUniformsSource).
// Size: 8 bytes.
//
// Layout:
//
//	u32 tile_count_x        (4 bytes, offset 0)
//	u32 max_lights_per_tile (4 bytes, offset 4)
type GPUTileUniforms struct {
	TileCountX       uint32
	MaxLightsPerTile uint32
}

// Size returns the size of the GPUTileUniforms struct in bytes.
//
// Returns:
//   - int: the struct size in bytes (8)
func (u *GPUTileUniforms) Size() int {
	return int(unsafe.Sizeof(*u))
}

// Marshal serializes GPUTileUniforms into an 8-byte little-endian buffer suitable
// for GPU upload.
//
// Returns:
//   - []byte: 8-byte buffer ready for GPU upload
func (u *GPUTileUniforms) Marshal() []byte {
	buf := make([]byte, 8)
	binary.LittleEndian.PutUint32(buf[0:4], u.TileCountX)
	binary.LittleEndian.PutUint32(buf[4:8], u.MaxLightsPerTile)
	return buf
}

// ToGPULight converts a Light interface value into the GPU-aligned GPULight
// struct suitable for writing into the light storage buffer.
//
// Parameters:
//   - l: the Light to convert
//   - shadowIndex: the light's cube index in the shadow array, or NoShadowIndex
//
// Returns:
//   - GPULight: the GPU-aligned representation
func ToGPULight(l Light, shadowIndex uint32) GPULight {
	return GPULight{
		Position:    l.Position(),
		Radius:      l.Radius(),
		Color:       l.Color(),
		Intensity:   l.Intensity(),
		ShadowIndex: shadowIndex,
	}
}

// MarshalLightBuffer marshals a header and a pre-built light slice into a byte
// buffer suitable for GPU upload. The buffer layout is:
//
//	[GPULightHeader (16 bytes)] [GPULight × count (48 bytes each)]
//
// The header's LightCount is overwritten with the actual number of lights
// written, capped at MaxGPULights. Lights beyond the budget are silently
// dropped; callers should pre-sort by priority if truncation is expected.
//
// Parameters:
//   - header: the header to prepend (LightCount is derived, not read)
//   - lights: the GPU-aligned lights to marshal, in shader order
//
// Returns:
//   - []byte: the marshaled buffer ready for GPU upload
func MarshalLightBuffer(header GPULightHeader, lights []GPULight) []byte {
	count := len(lights)
	if count > MaxGPULights {
		count = MaxGPULights
	}
	header.LightCount = uint32(count)

	headerSize := header.Size()
	lightSize := (&GPULight{}).Size()

	buf := make([]byte, headerSize+count*lightSize)
	copy(buf[0:headerSize], header.Marshal())

	offset := headerSize
	for i := 0; i < count; i++ {
		copy(buf[offset:offset+lightSize], lights[i].Marshal())
		offset += lightSize
	}

	return buf
}
