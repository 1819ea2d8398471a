package shader

import (
	"strings"
	"testing"

	"github.com/cogentcore/webgpu/wgpu"
)

const vertexLayoutSource = `
struct MeshVertex {
    @location(0) position: vec3<f32>,
    @location(1) uv: vec2<f32>,
}

struct MeshInstance {
    @location(2) row0: vec4<f32>,
    @location(3) row1: vec4<f32>,
}

struct MeshOutput {
    @builtin(position) clip_position: vec4<f32>,
    @location(0) uv: vec2<f32>,
}

@vertex
fn vs_main(v: MeshVertex, inst: MeshInstance) -> MeshOutput {
    var out: MeshOutput;
    return out;
}
`

func TestParseVertexLayouts(t *testing.T) {
	layouts := parseVertexLayouts(vertexLayoutSource)
	if len(layouts) != 2 {
		t.Fatalf("expected 2 vertex buffer layouts, got %d", len(layouts))
	}

	vert := layouts[0][0]
	if vert.StepMode != wgpu.VertexStepModeVertex {
		t.Errorf("expected vertex step mode for locations starting at 0, got %v", vert.StepMode)
	}
	if vert.ArrayStride != 20 {
		t.Errorf("expected stride 20 (vec3 + vec2), got %d", vert.ArrayStride)
	}
	if len(vert.Attributes) != 2 {
		t.Fatalf("expected 2 attributes, got %d", len(vert.Attributes))
	}
	if vert.Attributes[0].Format != wgpu.VertexFormatFloat32x3 || vert.Attributes[0].Offset != 0 {
		t.Errorf("unexpected first attribute: %+v", vert.Attributes[0])
	}
	if vert.Attributes[1].Format != wgpu.VertexFormatFloat32x2 || vert.Attributes[1].Offset != 12 {
		t.Errorf("unexpected second attribute: %+v", vert.Attributes[1])
	}

	inst := layouts[1][0]
	if inst.StepMode != wgpu.VertexStepModeInstance {
		t.Errorf("expected instance step mode for locations starting above 0, got %v", inst.StepMode)
	}
	if inst.ArrayStride != 32 {
		t.Errorf("expected stride 32 (two vec4), got %d", inst.ArrayStride)
	}
	if inst.Attributes[0].ShaderLocation != 2 || inst.Attributes[1].ShaderLocation != 3 {
		t.Errorf("expected shader locations 2 and 3, got %d and %d",
			inst.Attributes[0].ShaderLocation, inst.Attributes[1].ShaderLocation)
	}
}

func TestParseVertexLayoutsSkipsOutputStructs(t *testing.T) {
	src := `
struct Output {
    @builtin(position) clip_position: vec4<f32>,
    @location(0) color: vec3<f32>,
}
`
	layouts := parseVertexLayouts(src)
	if len(layouts) != 0 {
		t.Errorf("expected no layouts for structs containing builtins, got %d", len(layouts))
	}
}

func TestParseVertexLayoutsSkipsNonFloatStructs(t *testing.T) {
	// The engine feeds only float32 vertex streams; a struct with integer
	// attributes is not a vertex input it can bind.
	src := `
struct PickingInput {
    @location(0) id: u32,
    @location(1) flags: vec2<i32>,
}

struct MeshVertex {
    @location(0) position: vec3<f32>,
}
`
	layouts := parseVertexLayouts(src)
	if len(layouts) != 1 {
		t.Fatalf("expected only the float32 struct to produce a layout, got %d", len(layouts))
	}
	if layouts[0][0].Attributes[0].Format != wgpu.VertexFormatFloat32x3 {
		t.Errorf("unexpected attribute format: %v", layouts[0][0].Attributes[0].Format)
	}
}

const bindGroupSource = `
struct PointLight {
    position: vec3<f32>,
    radius: f32,
    color: vec3<f32>,
    intensity: f32,
}

struct CullSettings {
    view: mat4x4<f32>,
    count: u32,
}

@group(0) @binding(0) var<uniform> settings: CullSettings;
@group(0) @binding(1) var<storage, read> scene_lights: array<PointLight>;
@group(1) @binding(0) var shadow_map: texture_depth_cube_array;
@group(1) @binding(1) var shadow_sampler: sampler_comparison;
@group(1) @binding(2) var diffuse: texture_2d<f32>;
@group(1) @binding(3) var diffuse_sampler: sampler;
@group(2) @binding(1) var<storage, read_write> tile_counts: array<atomic<u32>>;
@group(2) @binding(0) var sky: texture_cube<f32>;
`

func TestParseBindGroupLayouts(t *testing.T) {
	descs, varNames := parseBindGroupLayouts(bindGroupSource, wgpu.ShaderStageFragment)
	if len(descs) != 3 {
		t.Fatalf("expected 3 bind groups, got %d", len(descs))
	}

	g0 := descs[0].Entries
	if len(g0) != 2 {
		t.Fatalf("expected 2 entries in group 0, got %d", len(g0))
	}
	if g0[0].Buffer.Type != wgpu.BufferBindingTypeUniform {
		t.Errorf("expected uniform buffer at group 0 binding 0, got %v", g0[0].Buffer.Type)
	}
	// mat4x4 (64) + u32 (4) rounded to 16-byte struct alignment
	if g0[0].Buffer.MinBindingSize != 80 {
		t.Errorf("expected MinBindingSize 80 for CullSettings, got %d", g0[0].Buffer.MinBindingSize)
	}
	if g0[1].Buffer.Type != wgpu.BufferBindingTypeReadOnlyStorage {
		t.Errorf("expected read-only storage at group 0 binding 1, got %v", g0[1].Buffer.Type)
	}
	// runtime array reports one element stride: PointLight is 32 bytes
	if g0[1].Buffer.MinBindingSize != 32 {
		t.Errorf("expected MinBindingSize 32 for array<PointLight>, got %d", g0[1].Buffer.MinBindingSize)
	}

	g1 := descs[1].Entries
	if g1[0].Texture.SampleType != wgpu.TextureSampleTypeDepth ||
		g1[0].Texture.ViewDimension != wgpu.TextureViewDimensionCubeArray {
		t.Errorf("unexpected depth cube array entry: %+v", g1[0].Texture)
	}
	if g1[1].Sampler.Type != wgpu.SamplerBindingTypeComparison {
		t.Errorf("expected comparison sampler, got %v", g1[1].Sampler.Type)
	}
	if g1[2].Texture.SampleType != wgpu.TextureSampleTypeFloat ||
		g1[2].Texture.ViewDimension != wgpu.TextureViewDimension2D {
		t.Errorf("unexpected texture_2d entry: %+v", g1[2].Texture)
	}
	if g1[3].Sampler.Type != wgpu.SamplerBindingTypeFiltering {
		t.Errorf("expected filtering sampler, got %v", g1[3].Sampler.Type)
	}
	for i, e := range g1 {
		if e.Visibility != wgpu.ShaderStageFragment {
			t.Errorf("entry %d: expected fragment visibility, got %v", i, e.Visibility)
		}
	}

	// entries must be sorted by binding even when declared out of order
	g2 := descs[2].Entries
	if g2[0].Binding != 0 || g2[1].Binding != 1 {
		t.Errorf("expected entries sorted by binding, got %d then %d", g2[0].Binding, g2[1].Binding)
	}
	if g2[0].Texture.ViewDimension != wgpu.TextureViewDimensionCube {
		t.Errorf("expected cube view dimension, got %v", g2[0].Texture.ViewDimension)
	}
	if g2[1].Buffer.Type != wgpu.BufferBindingTypeStorage {
		t.Errorf("expected read-write storage buffer, got %v", g2[1].Buffer.Type)
	}
	if g2[1].Buffer.MinBindingSize != 4 {
		t.Errorf("expected MinBindingSize 4 for array<atomic<u32>>, got %d", g2[1].Buffer.MinBindingSize)
	}

	if varNames[0][1] != "scene_lights" {
		t.Errorf("expected var name scene_lights at group 0 binding 1, got %q", varNames[0][1])
	}
	if varNames[1][0] != "shadow_map" {
		t.Errorf("expected var name shadow_map at group 1 binding 0, got %q", varNames[1][0])
	}
	if varNames[2][1] != "tile_counts" {
		t.Errorf("expected var name tile_counts at group 2 binding 1, got %q", varNames[2][1])
	}
}

func TestParseWorkgroupSize(t *testing.T) {
	if got := parseWorkgroupSize("fn main() {}"); got != [3]uint32{1, 1, 1} {
		t.Errorf("expected default [1,1,1], got %v", got)
	}
	if got := parseWorkgroupSize("@compute @workgroup_size(64)\nfn cs_main() {}"); got != [3]uint32{64, 1, 1} {
		t.Errorf("expected [64,1,1], got %v", got)
	}
	if got := parseWorkgroupSize("@compute @workgroup_size(8, 8, 2)\nfn cs_main() {}"); got != [3]uint32{8, 8, 2} {
		t.Errorf("expected [8,8,2], got %v", got)
	}
}

func TestParseEntryPoint(t *testing.T) {
	src := `
@vertex
fn vs_main() -> @builtin(position) vec4<f32> { return vec4<f32>(0.0); }

@fragment
fn fs_main() -> @location(0) vec4<f32> { return vec4<f32>(1.0); }

@compute @workgroup_size(64)
fn cs_main() {}
`
	if got := parseEntryPoint(src, ShaderTypeVertex); got != "vs_main" {
		t.Errorf("expected vs_main, got %q", got)
	}
	if got := parseEntryPoint(src, ShaderTypeFragment); got != "fs_main" {
		t.Errorf("expected fs_main, got %q", got)
	}
	if got := parseEntryPoint(src, ShaderTypeCompute); got != "cs_main" {
		t.Errorf("expected cs_main, got %q", got)
	}
	if got := parseEntryPoint("fn helper() {}", ShaderTypeVertex); got != "" {
		t.Errorf("expected empty entry point, got %q", got)
	}
}

func TestStripComments(t *testing.T) {
	src := "var a: f32; // trailing\n/* block */ var b: f32;\n/* outer /* nested */ still stripped */ var c: f32;"
	out := stripComments(src)
	if strings.Contains(out, "trailing") || strings.Contains(out, "block") || strings.Contains(out, "nested") {
		t.Errorf("expected comments removed, got: %q", out)
	}
	for _, keep := range []string{"var a: f32;", "var b: f32;", "var c: f32;"} {
		if !strings.Contains(out, keep) {
			t.Errorf("expected %q preserved, got: %q", keep, out)
		}
	}
}

func TestResolveTypeLayoutArrays(t *testing.T) {
	known := map[string]wgslTypeLayout{
		"FrustumPlane": {16, 16},
	}

	layout, ok := resolveTypeLayout("array<FrustumPlane, 6>", known)
	if !ok {
		t.Fatal("expected fixed-size array to resolve")
	}
	if layout.size != 96 {
		t.Errorf("expected size 96 for array<FrustumPlane, 6>, got %d", layout.size)
	}

	layout, ok = resolveTypeLayout("array<vec4<f32>>", nil)
	if !ok {
		t.Fatal("expected runtime array to resolve to element stride")
	}
	if layout.size != 16 {
		t.Errorf("expected element stride 16, got %d", layout.size)
	}

	if _, ok := resolveTypeLayout("array<Unknown>", nil); ok {
		t.Error("expected unknown element type to fail resolution")
	}
}

func TestComputeStructSizesDependencies(t *testing.T) {
	src := `
struct Inner {
    value: vec3<f32>,
    weight: f32,
}

struct Outer {
    inner: Inner,
    extra: f32,
}
`
	structs := parseStructBlocks(stripComments(src))
	sizes := computeStructSizes(structs)

	if got := sizes["Inner"].size; got != 16 {
		t.Errorf("expected Inner size 16, got %d", got)
	}
	// Inner (16, align 16) + f32 (4) rounded up to align 16
	if got := sizes["Outer"].size; got != 32 {
		t.Errorf("expected Outer size 32, got %d", got)
	}
}
