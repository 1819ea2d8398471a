package loader

import (
	"fmt"
	"image"
	_ "image/jpeg"
	_ "image/png"
	"os"
	"strings"

	"github.com/CygnusX-26/mood/common"
	"github.com/CygnusX-26/mood/engine/renderer/bind_group_provider"
	"github.com/CygnusX-26/mood/engine/renderer/shader"
	"github.com/cogentcore/webgpu/wgpu"
	"golang.org/x/image/draw"
)

func (l *loader) LoadSkybox(facePaths [6]string, skyboxShader shader.Shader) (bind_group_provider.BindGroupProvider, error) {
	if l.renderer == nil {
		return nil, fmt.Errorf("loader: cannot LoadSkybox without a Renderer")
	}
	if skyboxShader == nil {
		return nil, fmt.Errorf("loader: LoadSkybox requires a skybox shader for bind group layout")
	}

	// Decode all six faces. Cube textures require every layer to share one
	// extent, so track the largest face edge for the resample pass.
	images := make([]image.Image, 6)
	maxEdge := 0
	for i, path := range facePaths {
		img, err := decodeImageFile(path)
		if err != nil {
			return nil, fmt.Errorf("skybox face %d (%s): %w", i, path, err)
		}
		images[i] = img
		b := img.Bounds()
		if b.Dx() > maxEdge {
			maxEdge = b.Dx()
		}
		if b.Dy() > maxEdge {
			maxEdge = b.Dy()
		}
	}
	if maxEdge == 0 {
		return nil, fmt.Errorf("skybox faces are empty")
	}

	var faces [6]common.TextureStagingData
	for i, img := range images {
		faces[i] = resampleFaceRGBA(img, maxEdge)
	}

	// Locate the skybox bind group and its texture/sampler bindings.
	skyboxGroup := findShaderBindGroup(skyboxShader, "skybox")
	if skyboxGroup < 0 {
		return nil, fmt.Errorf("skybox shader declares no skybox bind group")
	}
	descriptor := skyboxShader.BindGroupLayoutDescriptor(skyboxGroup)

	provider := bind_group_provider.NewBindGroupProvider("skybox")
	for _, entry := range descriptor.Entries {
		binding := int(entry.Binding)
		if entry.Texture.SampleType != wgpu.TextureSampleTypeUndefined {
			if err := l.renderer.InitCubeTextureView(provider, binding, faces); err != nil {
				return nil, fmt.Errorf("failed to init skybox cube texture: %w", err)
			}
		}
		if entry.Sampler.Type != wgpu.SamplerBindingTypeUndefined {
			samplerData := common.SamplerStagingData{
				AddressModeU:  wgpu.AddressModeClampToEdge,
				AddressModeV:  wgpu.AddressModeClampToEdge,
				AddressModeW:  wgpu.AddressModeClampToEdge,
				MagFilter:     wgpu.FilterModeLinear,
				MinFilter:     wgpu.FilterModeLinear,
				MipmapFilter:  wgpu.MipmapFilterModeLinear,
				LodMinClamp:   0,
				LodMaxClamp:   32,
				MaxAnisotropy: 1,
			}
			if err := l.renderer.InitSampler(provider, binding, samplerData); err != nil {
				return nil, fmt.Errorf("failed to init skybox sampler: %w", err)
			}
		}
	}

	if err := l.renderer.InitBindGroup(provider, descriptor, nil, nil); err != nil {
		return nil, fmt.Errorf("failed to init skybox bind group: %w", err)
	}

	return provider, nil
}

// decodeImageFile opens and decodes a PNG or JPEG image from disk.
func decodeImageFile(path string) (image.Image, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	img, _, err := image.Decode(f)
	if err != nil {
		return nil, fmt.Errorf("decode: %w", err)
	}
	return img, nil
}

// resampleFaceRGBA converts a decoded face to RGBA pixels at edge×edge size.
// Faces already at the target size are copied without filtering; everything
// else goes through a Catmull-Rom resample.
func resampleFaceRGBA(img image.Image, edge int) common.TextureStagingData {
	target := image.NewRGBA(image.Rect(0, 0, edge, edge))
	b := img.Bounds()
	if b.Dx() == edge && b.Dy() == edge {
		draw.Draw(target, target.Bounds(), img, b.Min, draw.Src)
	} else {
		draw.CatmullRom.Scale(target, target.Bounds(), img, b, draw.Src, nil)
	}
	return common.TextureStagingData{
		Pixels: target.Pix,
		Width:  uint32(edge),
		Height: uint32(edge),
	}
}

// findShaderBindGroup scans a shader's bind group variable names for the first
// group containing substr (case-insensitive). Returns -1 if no group matches.
func findShaderBindGroup(sh shader.Shader, substr string) int {
	for groupIdx, bindings := range sh.BindGroupVarNames() {
		for _, name := range bindings {
			if strings.Contains(strings.ToLower(name), substr) {
				return groupIdx
			}
		}
	}
	return -1
}
