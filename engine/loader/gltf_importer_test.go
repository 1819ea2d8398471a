package loader

import (
	"image"
	"image/color"
	"testing"

	"github.com/CygnusX-26/mood/common"
	"github.com/cogentcore/webgpu/wgpu"
	"github.com/qmuntal/gltf"
)

func TestGltfSamplerToStagingDefaults(t *testing.T) {
	staging := gltfSamplerToStaging(&gltf.Sampler{})
	if staging.AddressModeU != wgpu.AddressModeRepeat || staging.AddressModeV != wgpu.AddressModeRepeat {
		t.Errorf("expected repeat wrap defaults, got U=%v V=%v", staging.AddressModeU, staging.AddressModeV)
	}
	if staging.MagFilter != wgpu.FilterModeLinear || staging.MinFilter != wgpu.FilterModeLinear {
		t.Errorf("expected linear filter defaults, got mag=%v min=%v", staging.MagFilter, staging.MinFilter)
	}
	if staging.MipmapFilter != wgpu.MipmapFilterModeLinear {
		t.Errorf("expected linear mipmap default, got %v", staging.MipmapFilter)
	}
	if staging.MaxAnisotropy != 1 {
		t.Errorf("expected MaxAnisotropy 1, got %d", staging.MaxAnisotropy)
	}
}

func TestGltfSamplerToStagingNearest(t *testing.T) {
	staging := gltfSamplerToStaging(&gltf.Sampler{
		MagFilter: gltf.MagNearest,
		MinFilter: gltf.MinNearestMipMapNearest,
	})
	if staging.MagFilter != wgpu.FilterModeNearest {
		t.Errorf("expected nearest mag filter, got %v", staging.MagFilter)
	}
	if staging.MinFilter != wgpu.FilterModeNearest {
		t.Errorf("expected nearest min filter, got %v", staging.MinFilter)
	}
	if staging.MipmapFilter != wgpu.MipmapFilterModeNearest {
		t.Errorf("expected nearest mipmap filter, got %v", staging.MipmapFilter)
	}

	staging = gltfSamplerToStaging(&gltf.Sampler{MinFilter: gltf.MinLinearMipMapNearest})
	if staging.MinFilter != wgpu.FilterModeLinear {
		t.Errorf("expected linear min filter, got %v", staging.MinFilter)
	}
	if staging.MipmapFilter != wgpu.MipmapFilterModeNearest {
		t.Errorf("expected nearest mipmap filter, got %v", staging.MipmapFilter)
	}
}

func TestGltfWrapToAddressMode(t *testing.T) {
	if got := gltfWrapToAddressMode(gltf.WrapClampToEdge); got != wgpu.AddressModeClampToEdge {
		t.Errorf("expected clamp-to-edge, got %v", got)
	}
	if got := gltfWrapToAddressMode(gltf.WrapMirroredRepeat); got != wgpu.AddressModeMirrorRepeat {
		t.Errorf("expected mirror repeat, got %v", got)
	}
	if got := gltfWrapToAddressMode(gltf.WrapRepeat); got != wgpu.AddressModeRepeat {
		t.Errorf("expected repeat, got %v", got)
	}
}

func TestGltfModelName(t *testing.T) {
	sceneIdx := 0
	doc := &gltf.Document{
		Scene:  &sceneIdx,
		Scenes: []*gltf.Scene{{Name: "Courtyard"}},
	}
	if got := gltfModelName(doc, "ignored.glb"); got != "Courtyard" {
		t.Errorf("expected scene name, got %q", got)
	}

	doc.Scenes[0].Name = ""
	if got := gltfModelName(doc, "examples/assets/models/demo.glb"); got != "demo" {
		t.Errorf("expected path-derived name demo, got %q", got)
	}

	if got := gltfModelName(&gltf.Document{}, ""); got != "unnamed_model" {
		t.Errorf("expected unnamed_model fallback, got %q", got)
	}
}

func TestGltfTextureAt(t *testing.T) {
	textures := []*common.ImportedTexture{{Name: "brick"}}
	if got := gltfTextureAt(textures, 0); got == nil || got.Name != "brick" {
		t.Errorf("expected brick texture, got %+v", got)
	}
	if got := gltfTextureAt(textures, 1); got != nil {
		t.Errorf("expected nil for out-of-range index, got %+v", got)
	}
	if got := gltfTextureAt(textures, -1); got != nil {
		t.Errorf("expected nil for negative index, got %+v", got)
	}
}

func TestResampleFaceRGBASameSize(t *testing.T) {
	img := image.NewRGBA(image.Rect(0, 0, 4, 4))
	img.Set(1, 2, color.RGBA{R: 10, G: 20, B: 30, A: 255})

	staging := resampleFaceRGBA(img, 4)
	if staging.Width != 4 || staging.Height != 4 {
		t.Errorf("expected 4x4 staging, got %dx%d", staging.Width, staging.Height)
	}
	if len(staging.Pixels) != 4*4*4 {
		t.Fatalf("expected 64 pixel bytes, got %d", len(staging.Pixels))
	}
	off := (2*4 + 1) * 4
	if staging.Pixels[off] != 10 || staging.Pixels[off+1] != 20 || staging.Pixels[off+2] != 30 {
		t.Errorf("expected copied pixel (10,20,30), got (%d,%d,%d)",
			staging.Pixels[off], staging.Pixels[off+1], staging.Pixels[off+2])
	}
}

func TestResampleFaceRGBAScales(t *testing.T) {
	img := image.NewRGBA(image.Rect(0, 0, 2, 2))
	for y := 0; y < 2; y++ {
		for x := 0; x < 2; x++ {
			img.Set(x, y, color.RGBA{R: 200, G: 100, B: 50, A: 255})
		}
	}

	staging := resampleFaceRGBA(img, 8)
	if staging.Width != 8 || staging.Height != 8 {
		t.Errorf("expected 8x8 staging, got %dx%d", staging.Width, staging.Height)
	}
	if len(staging.Pixels) != 8*8*4 {
		t.Fatalf("expected 256 pixel bytes, got %d", len(staging.Pixels))
	}
	// a uniform source stays uniform through the resample
	center := (4*8 + 4) * 4
	if staging.Pixels[center] != 200 || staging.Pixels[center+1] != 100 || staging.Pixels[center+2] != 50 {
		t.Errorf("expected uniform color preserved, got (%d,%d,%d)",
			staging.Pixels[center], staging.Pixels[center+1], staging.Pixels[center+2])
	}
}
