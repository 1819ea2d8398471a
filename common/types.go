// Package common holds plain data types shared across the engine: GPU staging
// structs, imported-asset intermediates, matrix and frustum math, and byte
// conversion helpers. Nothing here is interface-wrapped.
package common

import (
	"bytes"
	"fmt"
	"image"
	"image/draw"
	_ "image/jpeg"
	_ "image/png"
	"os"

	"github.com/cogentcore/webgpu/wgpu"
)

// TextureStagingData holds RGBA pixel data for a texture binding pending GPU upload.
// The BindGroupProvider stages texture data in this form before the renderer
// creates the GPU texture and bind group.
type TextureStagingData struct {
	// Pixels is the raw pixel data in RGBA order, 4 bytes per pixel.
	Pixels []byte
	// Width is the texture width in pixels.
	Width uint32
	// Height is the texture height in pixels.
	Height uint32
}

// SamplerStagingData holds the configuration for a sampler binding pending GPU creation.
type SamplerStagingData struct {
	// AddressModeU, AddressModeV, AddressModeW control wrapping outside [0, 1]
	// per texture coordinate axis.
	AddressModeU, AddressModeV, AddressModeW wgpu.AddressMode
	// MagFilter and MinFilter control magnification and minification filtering.
	MagFilter, MinFilter wgpu.FilterMode
	// MipmapFilter controls filtering between mipmap levels.
	MipmapFilter wgpu.MipmapFilterMode
	// LodMinClamp and LodMaxClamp bound the level-of-detail range.
	LodMinClamp, LodMaxClamp float32
	// Compare makes the sampler a comparison sampler when set. The cube shadow
	// map sampler uses LessEqual here.
	Compare wgpu.CompareFunction
	// MaxAnisotropy is the maximum anisotropic filtering level.
	MaxAnisotropy uint16
}

// ImportedMaterial is the PBR material intermediate produced by the model loader.
type ImportedMaterial struct {
	// Name is the material identifier.
	Name string

	// BaseColor is the albedo/diffuse factor (RGBA).
	BaseColor [4]float32

	// Metallic factor (0.0 = dielectric, 1.0 = metal).
	Metallic float32

	// Roughness factor (0.0 = smooth, 1.0 = rough).
	Roughness float32

	// DiffuseTexture holds the base color texture (nil when absent).
	DiffuseTexture *ImportedTexture

	// NormalTexture holds the tangent-space normal map (nil when absent).
	NormalTexture *ImportedTexture

	// MetallicRoughnessTexture holds the combined metallic-roughness texture
	// (glTF convention: roughness in G, metallic in B; nil when absent).
	MetallicRoughnessTexture *ImportedTexture
}

// ImportedTexture is texture data extracted from a model file. Embedded
// textures (GLB buffers) carry raw image bytes in Data; external textures
// carry a file path in Path.
type ImportedTexture struct {
	// Name is an identifier for this texture (e.g., "diffuse", "normal").
	Name string

	// Path is the file path for external textures (empty for embedded).
	Path string

	// Data contains raw image bytes for embedded textures (PNG/JPEG).
	Data []byte

	// MimeType indicates the image format (e.g., "image/png", "image/jpeg").
	MimeType string

	// Width is the texture width in pixels (populated after Decode).
	Width int

	// Height is the texture height in pixels (populated after Decode).
	Height int

	// SamplerData holds sampler parameters from the model file. When non-nil
	// these override the linear/repeat defaults during material GPU init.
	SamplerData *SamplerStagingData
}

// Decode decodes the texture to raw RGBA pixel data, from the embedded Data
// bytes when present, otherwise from Path on disk. PNG and JPEG are supported.
//
// Returns:
//   - []byte: raw RGBA pixel data (4 bytes per pixel, row-major order)
//   - uint32: texture width in pixels
//   - uint32: texture height in pixels
//   - error: error if decoding fails
func (t *ImportedTexture) Decode() ([]byte, uint32, uint32, error) {
	if t == nil {
		return nil, 0, 0, fmt.Errorf("texture is nil")
	}

	var img image.Image
	var err error

	if len(t.Data) > 0 {
		img, _, err = image.Decode(bytes.NewReader(t.Data))
		if err != nil {
			return nil, 0, 0, fmt.Errorf("failed to decode embedded image: %w", err)
		}
	} else if t.Path != "" {
		file, fileErr := os.Open(t.Path)
		if fileErr != nil {
			return nil, 0, 0, fmt.Errorf("failed to open texture file %s: %w", t.Path, fileErr)
		}
		defer file.Close()

		img, _, err = image.Decode(file)
		if err != nil {
			return nil, 0, 0, fmt.Errorf("failed to decode texture file %s: %w", t.Path, err)
		}
	} else {
		return nil, 0, 0, fmt.Errorf("texture has neither data nor path")
	}

	bounds := img.Bounds()
	rgba := image.NewRGBA(bounds)
	draw.Draw(rgba, bounds, img, bounds.Min, draw.Src)

	t.Width = bounds.Dx()
	t.Height = bounds.Dy()

	return rgba.Pix, uint32(t.Width), uint32(t.Height), nil
}
