package light

import (
	"os"
	"regexp"
	"strconv"
	"testing"
)

var shadowRadiusConst = regexp.MustCompile(`const\s+max_shadow_radius\s*:\s*f32\s*=\s*([0-9.]+)\s*;`)

// TestShaderShadowRadiusMatchesConstant pins the hand-written max_shadow_radius
// constants in the shadow depth and lit shaders to MaxShadowRadius. The write
// side and the compare side normalize by the same value; a drift in any copy
// silently breaks every shadow comparison.
func TestShaderShadowRadiusMatchesConstant(t *testing.T) {
	shaders := []string{
		"../../examples/assets/shaders/shadow-depth-frag.wgsl",
		"../../examples/assets/shaders/lit-frag.wgsl",
	}

	for _, path := range shaders {
		src, err := os.ReadFile(path)
		if err != nil {
			t.Fatalf("read %s: %v", path, err)
		}

		m := shadowRadiusConst.FindSubmatch(src)
		if m == nil {
			t.Fatalf("%s: no max_shadow_radius const declaration found", path)
		}
		val, err := strconv.ParseFloat(string(m[1]), 32)
		if err != nil {
			t.Fatalf("%s: parse max_shadow_radius %q: %v", path, m[1], err)
		}
		if float32(val) != MaxShadowRadius {
			t.Errorf("%s: max_shadow_radius = %v, want %v", path, val, MaxShadowRadius)
		}
	}
}
