package light

import (
	"encoding/binary"
	"math"
	"testing"
)

func f32At(buf []byte, off int) float32 {
	return math.Float32frombits(binary.LittleEndian.Uint32(buf[off : off+4]))
}

func u32At(buf []byte, off int) uint32 {
	return binary.LittleEndian.Uint32(buf[off : off+4])
}

// TestNormalizedDistance verifies the omnidirectional depth definition:
// euclidean distance to the light divided by the shadow radius.
func TestNormalizedDistance(t *testing.T) {
	tests := []struct {
		name     string
		world    [3]float32
		lightPos [3]float32
		radius   float32
		want     float32
	}{
		{"half radius", [3]float32{100, 0, 0}, [3]float32{0, 0, 0}, MaxShadowRadius, 0.5},
		{"at radius", [3]float32{0, 200, 0}, [3]float32{0, 0, 0}, MaxShadowRadius, 1.0},
		{"3-4-5 triangle", [3]float32{3, 4, 0}, [3]float32{0, 0, 0}, MaxShadowRadius, 0.025},
		{"at light", [3]float32{7, -2, 9}, [3]float32{7, -2, 9}, MaxShadowRadius, 0.0},
		{"offset light", [3]float32{11, -2, 9}, [3]float32{7, 1, 9}, 10, 0.5},
		{"beyond radius", [3]float32{0, 0, 300}, [3]float32{0, 0, 0}, MaxShadowRadius, 1.5},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := NormalizedDistance(tt.world, tt.lightPos, tt.radius)
			if diff := got - tt.want; diff > 1e-6 || diff < -1e-6 {
				t.Errorf("NormalizedDistance(%v, %v, %v) = %v, want %v",
					tt.world, tt.lightPos, tt.radius, got, tt.want)
			}
		})
	}
}

// TestNormalizedDistanceMonotonic verifies that depth strictly increases with
// distance from the light, which is what makes the closest-caster depth test
// work on linear distance values.
func TestNormalizedDistanceMonotonic(t *testing.T) {
	lightPos := [3]float32{5, -3, 12}
	prev := float32(-1)
	for d := float32(1); d <= 250; d += 7.5 {
		world := [3]float32{lightPos[0] + d, lightPos[1], lightPos[2]}
		got := NormalizedDistance(world, lightPos, MaxShadowRadius)
		if got <= prev {
			t.Fatalf("depth not monotonic: distance %v gave %v, previous %v", d, got, prev)
		}
		prev = got
	}
}

// TestComputeFaceVPCoverage verifies that each cube face's view-projection
// contains points along its own axis and rejects points on the opposite side
// of the light.
func TestComputeFaceVPCoverage(t *testing.T) {
	lightPos := [3]float32{10, -3, 7}

	inClip := func(vp *[16]float32, p [3]float32) bool {
		x, y, z, w := transformPoint(vp, p)
		if w <= 0 {
			return false
		}
		return x >= -w && x <= w && y >= -w && y <= w && z >= 0 && z <= w
	}

	for face := 0; face < ShadowFaceCount; face++ {
		var v GPULightView
		v.ComputeFaceVP(lightPos, face, DefaultShadowNear, MaxShadowRadius)

		if v.Position != lightPos {
			t.Errorf("face %d: Position = %v, want %v", face, v.Position, lightPos)
		}

		fwd := faceForward[face]
		ahead := [3]float32{
			lightPos[0] + 50*fwd[0],
			lightPos[1] + 50*fwd[1],
			lightPos[2] + 50*fwd[2],
		}
		behind := [3]float32{
			lightPos[0] - 50*fwd[0],
			lightPos[1] - 50*fwd[1],
			lightPos[2] - 50*fwd[2],
		}

		if !inClip(&v.ViewProj, ahead) {
			t.Errorf("face %d: point along face axis %v not inside frustum", face, ahead)
		}
		if inClip(&v.ViewProj, behind) {
			t.Errorf("face %d: point behind light %v should be outside frustum", face, behind)
		}
	}
}

// TestComputeFaceVPCentersFaceAxis verifies that a point straight down a face's
// axis projects to the center of that face in normalized device coordinates.
func TestComputeFaceVPCentersFaceAxis(t *testing.T) {
	lightPos := [3]float32{0, 0, 0}

	for face := 0; face < ShadowFaceCount; face++ {
		var v GPULightView
		v.ComputeFaceVP(lightPos, face, DefaultShadowNear, MaxShadowRadius)

		fwd := faceForward[face]
		p := [3]float32{100 * fwd[0], 100 * fwd[1], 100 * fwd[2]}
		x, y, _, w := transformPoint(&v.ViewProj, p)

		if w <= 0 {
			t.Fatalf("face %d: w = %v, want > 0", face, w)
		}
		if ndcX := x / w; ndcX > 1e-5 || ndcX < -1e-5 {
			t.Errorf("face %d: ndc x = %v, want 0", face, ndcX)
		}
		if ndcY := y / w; ndcY > 1e-5 || ndcY < -1e-5 {
			t.Errorf("face %d: ndc y = %v, want 0", face, ndcY)
		}
	}
}

// TestFaceDepthIsDistanceNotProjective pins down that the stored shadow depth
// is the radius-normalized distance, not the rasterizer's projective depth.
// For a point halfway to the far plane the two values are far apart.
func TestFaceDepthIsDistanceNotProjective(t *testing.T) {
	lightPos := [3]float32{0, 0, 0}
	p := [3]float32{100, 0, 0}

	var v GPULightView
	v.ComputeFaceVP(lightPos, 0, DefaultShadowNear, MaxShadowRadius)

	_, _, z, w := transformPoint(&v.ViewProj, p)
	projective := z / w
	linear := NormalizedDistance(p, lightPos, MaxShadowRadius)

	if linear != 0.5 {
		t.Fatalf("NormalizedDistance = %v, want 0.5", linear)
	}
	if diff := projective - linear; diff < 0.1 {
		t.Errorf("projective depth %v too close to linear depth %v; expected them to diverge", projective, linear)
	}
}

func transformPoint(m *[16]float32, p [3]float32) (x, y, z, w float32) {
	x = m[0]*p[0] + m[4]*p[1] + m[8]*p[2] + m[12]
	y = m[1]*p[0] + m[5]*p[1] + m[9]*p[2] + m[13]
	z = m[2]*p[0] + m[6]*p[1] + m[10]*p[2] + m[14]
	w = m[3]*p[0] + m[7]*p[1] + m[11]*p[2] + m[15]
	return
}

// TestGPULightViewMarshal verifies the 80-byte uniform layout: view_proj at
// offset 0, position at 64, padding at 76.
func TestGPULightViewMarshal(t *testing.T) {
	v := GPULightView{
		Position: [3]float32{1.5, -2.5, 3.5},
	}
	for i := range v.ViewProj {
		v.ViewProj[i] = float32(i) * 0.25
	}

	buf := v.Marshal()
	if len(buf) != 80 {
		t.Fatalf("Marshal length = %d, want 80", len(buf))
	}
	if v.Size() != 80 {
		t.Errorf("Size() = %d, want 80", v.Size())
	}

	for i := range 16 {
		if got := f32At(buf, i*4); got != float32(i)*0.25 {
			t.Errorf("view_proj[%d] = %v, want %v", i, got, float32(i)*0.25)
		}
	}
	if got := f32At(buf, 64); got != 1.5 {
		t.Errorf("position.x = %v, want 1.5", got)
	}
	if got := f32At(buf, 68); got != -2.5 {
		t.Errorf("position.y = %v, want -2.5", got)
	}
	if got := f32At(buf, 72); got != 3.5 {
		t.Errorf("position.z = %v, want 3.5", got)
	}
	if got := u32At(buf, 76); got != 0 {
		t.Errorf("padding = %d, want 0", got)
	}
}

// TestGPULightMarshal verifies the 48-byte light layout and field offsets.
func TestGPULightMarshal(t *testing.T) {
	g := GPULight{
		Position:    [3]float32{1, 2, 3},
		Radius:      42,
		Color:       [3]float32{0.25, 0.5, 0.75},
		Intensity:   2.5,
		ShadowIndex: 3,
	}

	buf := g.Marshal()
	if len(buf) != 48 {
		t.Fatalf("Marshal length = %d, want 48", len(buf))
	}
	if g.Size() != 48 {
		t.Errorf("Size() = %d, want 48", g.Size())
	}

	checks := []struct {
		name string
		off  int
		want float32
	}{
		{"position.x", 0, 1},
		{"position.y", 4, 2},
		{"position.z", 8, 3},
		{"radius", 12, 42},
		{"color.r", 16, 0.25},
		{"color.g", 20, 0.5},
		{"color.b", 24, 0.75},
		{"intensity", 28, 2.5},
	}
	for _, c := range checks {
		if got := f32At(buf, c.off); got != c.want {
			t.Errorf("%s = %v, want %v", c.name, got, c.want)
		}
	}
	if got := u32At(buf, 32); got != 3 {
		t.Errorf("shadow_index = %d, want 3", got)
	}
	for off := 36; off < 48; off += 4 {
		if got := u32At(buf, off); got != 0 {
			t.Errorf("padding at %d = %d, want 0", off, got)
		}
	}
}

// TestToGPULight verifies field mapping from the Light interface.
func TestToGPULight(t *testing.T) {
	l := NewLight(
		WithPosition(4, 5, 6),
		WithColor(0.1, 0.2, 0.3),
		WithIntensity(8),
		WithRadius(150),
	)

	g := ToGPULight(l, 2)
	if g.Position != [3]float32{4, 5, 6} {
		t.Errorf("Position = %v, want [4 5 6]", g.Position)
	}
	if g.Radius != 150 {
		t.Errorf("Radius = %v, want 150", g.Radius)
	}
	if g.Color != [3]float32{0.1, 0.2, 0.3} {
		t.Errorf("Color = %v, want [0.1 0.2 0.3]", g.Color)
	}
	if g.Intensity != 8 {
		t.Errorf("Intensity = %v, want 8", g.Intensity)
	}
	if g.ShadowIndex != 2 {
		t.Errorf("ShadowIndex = %d, want 2", g.ShadowIndex)
	}

	noShadow := ToGPULight(l, NoShadowIndex)
	if noShadow.ShadowIndex != NoShadowIndex {
		t.Errorf("ShadowIndex = %d, want NoShadowIndex", noShadow.ShadowIndex)
	}
}

// TestMarshalLightBuffer verifies the header-plus-array buffer layout and the
// light count cap.
func TestMarshalLightBuffer(t *testing.T) {
	header := GPULightHeader{AmbientColor: [3]float32{0.1, 0.1, 0.15}}
	lights := []GPULight{
		{Position: [3]float32{1, 0, 0}, Radius: 10, Intensity: 1, ShadowIndex: 0},
		{Position: [3]float32{0, 2, 0}, Radius: 20, Intensity: 2, ShadowIndex: NoShadowIndex},
		{Position: [3]float32{0, 0, 3}, Radius: 30, Intensity: 3, ShadowIndex: 1},
	}

	buf := MarshalLightBuffer(header, lights)
	wantLen := 16 + 3*48
	if len(buf) != wantLen {
		t.Fatalf("buffer length = %d, want %d", len(buf), wantLen)
	}

	if got := f32At(buf, 0); got != 0.1 {
		t.Errorf("ambient.r = %v, want 0.1", got)
	}
	if got := f32At(buf, 8); got != 0.15 {
		t.Errorf("ambient.b = %v, want 0.15", got)
	}
	if got := u32At(buf, 12); got != 3 {
		t.Errorf("light_count = %d, want 3", got)
	}

	for i, l := range lights {
		base := 16 + i*48
		if got := f32At(buf, base+12); got != l.Radius {
			t.Errorf("light[%d].radius = %v, want %v", i, got, l.Radius)
		}
		if got := u32At(buf, base+32); got != l.ShadowIndex {
			t.Errorf("light[%d].shadow_index = %d, want %d", i, got, l.ShadowIndex)
		}
	}
}

func TestMarshalLightBufferCapsAtBudget(t *testing.T) {
	lights := make([]GPULight, MaxGPULights+5)
	buf := MarshalLightBuffer(GPULightHeader{}, lights)

	wantLen := 16 + MaxGPULights*48
	if len(buf) != wantLen {
		t.Fatalf("buffer length = %d, want %d", len(buf), wantLen)
	}
	if got := u32At(buf, 12); got != MaxGPULights {
		t.Errorf("light_count = %d, want %d", got, MaxGPULights)
	}
}

// TestGPULightCullUniformsMarshal spot-checks the 160-byte culling uniform layout.
func TestGPULightCullUniformsMarshal(t *testing.T) {
	u := GPULightCullUniforms{
		TileCountX:   80,
		TileCountY:   45,
		ScreenWidth:  1280,
		ScreenHeight: 720,
		LightCount:   17,
		Near:         0.1,
		Far:          500,
	}
	for i := range 16 {
		u.InvProj[i] = float32(i)
		u.ViewMatrix[i] = float32(i) + 100
	}

	buf := u.Marshal()
	if len(buf) != 160 {
		t.Fatalf("Marshal length = %d, want 160", len(buf))
	}
	if u.Size() != 160 {
		t.Errorf("Size() = %d, want 160", u.Size())
	}

	if got := f32At(buf, 0); got != 0 {
		t.Errorf("inv_proj[0] = %v, want 0", got)
	}
	if got := f32At(buf, 60); got != 15 {
		t.Errorf("inv_proj[15] = %v, want 15", got)
	}
	if got := f32At(buf, 64); got != 100 {
		t.Errorf("view_matrix[0] = %v, want 100", got)
	}
	if got := u32At(buf, 128); got != 80 {
		t.Errorf("tile_count_x = %d, want 80", got)
	}
	if got := u32At(buf, 132); got != 45 {
		t.Errorf("tile_count_y = %d, want 45", got)
	}
	if got := u32At(buf, 136); got != 1280 {
		t.Errorf("screen_width = %d, want 1280", got)
	}
	if got := u32At(buf, 140); got != 720 {
		t.Errorf("screen_height = %d, want 720", got)
	}
	if got := u32At(buf, 144); got != 17 {
		t.Errorf("light_count = %d, want 17", got)
	}
	if got := f32At(buf, 148); got != 0.1 {
		t.Errorf("near = %v, want 0.1", got)
	}
	if got := f32At(buf, 152); got != 500 {
		t.Errorf("far = %v, want 500", got)
	}
}

func TestGPUTileUniformsMarshal(t *testing.T) {
	u := GPUTileUniforms{TileCountX: 80, MaxLightsPerTile: 256}
	buf := u.Marshal()
	if len(buf) != 8 {
		t.Fatalf("Marshal length = %d, want 8", len(buf))
	}
	if got := u32At(buf, 0); got != 80 {
		t.Errorf("tile_count_x = %d, want 80", got)
	}
	if got := u32At(buf, 4); got != 256 {
		t.Errorf("max_lights_per_tile = %d, want 256", got)
	}
}

func TestTileCounts(t *testing.T) {
	tests := []struct {
		name          string
		width, height int
		wantX, wantY  uint32
	}{
		{"exact multiple", 1280, 720, 80, 45},
		{"rounds up", 1281, 721, 81, 46},
		{"single tile", 1, 1, 1, 1},
		{"one short of boundary", 1279, 719, 80, 45},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			gotX, gotY := TileCounts(tt.width, tt.height)
			if gotX != tt.wantX || gotY != tt.wantY {
				t.Errorf("TileCounts(%d, %d) = (%d, %d), want (%d, %d)",
					tt.width, tt.height, gotX, gotY, tt.wantX, tt.wantY)
			}
		})
	}
}

// TestTileBufferSizes pins the separate counts/indices buffer layout the cull
// compute shader and the lit pass share: one u32 counter per tile in one
// buffer, MaxLightsPerTile u32 indices per tile in the other.
func TestTileBufferSizes(t *testing.T) {
	if got, want := TileLightCountBufferSize(80, 45), uint64(80)*45*4; got != want {
		t.Errorf("TileLightCountBufferSize(80, 45) = %d, want %d", got, want)
	}
	if got, want := TileLightIndexBufferSize(80, 45), uint64(80)*45*MaxLightsPerTile*4; got != want {
		t.Errorf("TileLightIndexBufferSize(80, 45) = %d, want %d", got, want)
	}
}
