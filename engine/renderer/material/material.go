// Package material models a glTF metallic-roughness surface: the scalar
// factors and texture references imported from a model file, plus the GPU
// bind group the loader later builds from the fragment shader's annotated
// material bindings.
package material

import (
	"github.com/CygnusX-26/mood/common"
	"github.com/CygnusX-26/mood/engine/renderer/bind_group_provider"
)

// material is the implementation of the Material interface.
type material struct {
	name        string
	pipelineKey string

	// glTF metallic-roughness factors. When a texture slot below is nil the
	// loader bakes the matching factor into a 1x1 fallback texel, so these
	// stay authoritative for untextured surfaces.
	baseColor [4]float32
	metallic  float32
	roughness float32

	diffuseTexture           *common.ImportedTexture
	normalTexture            *common.ImportedTexture
	metallicRoughnessTexture *common.ImportedTexture

	bindGroupProvider bind_group_provider.BindGroupProvider
}

// Material describes one imported surface and its GPU-side bindings.
//
// The factors and texture references are fixed at import time. The bind
// group provider is attached afterwards, once the loader has matched the
// material against the fragment shader's declared bindings and uploaded
// textures (or fallback texels) for each slot.
type Material interface {
	// Name retrieves the material identifier from the source model.
	//
	// Returns:
	//   - string: the name of the material
	Name() string

	// BaseColor retrieves the RGBA base color factor.
	//
	// Returns:
	//   - [4]float32: the base color as RGBA values in [0, 1]
	BaseColor() [4]float32

	// Metallic retrieves the metallic factor, 0 for dielectrics up to 1 for
	// fully metallic surfaces.
	//
	// Returns:
	//   - float32: the metallic factor
	Metallic() float32

	// Roughness retrieves the roughness factor, 0 for mirror-smooth up to 1
	// for fully rough surfaces.
	//
	// Returns:
	//   - float32: the roughness factor
	Roughness() float32

	// DiffuseTexture retrieves the base color texture, or nil when the
	// surface is untextured and BaseColor alone applies.
	//
	// Returns:
	//   - *common.ImportedTexture: the diffuse texture, or nil
	DiffuseTexture() *common.ImportedTexture

	// NormalTexture retrieves the tangent-space normal map, or nil.
	//
	// Returns:
	//   - *common.ImportedTexture: the normal texture, or nil
	NormalTexture() *common.ImportedTexture

	// MetallicRoughnessTexture retrieves the packed metallic-roughness map
	// (glTF layout: G carries roughness, B carries metallic), or nil.
	//
	// Returns:
	//   - *common.ImportedTexture: the metallic-roughness texture, or nil
	MetallicRoughnessTexture() *common.ImportedTexture

	// PipelineKey retrieves the key of the render pipeline that draws
	// models carrying this material.
	//
	// Returns:
	//   - string: the pipeline key
	PipelineKey() string

	// BindGroupProvider retrieves the provider holding this material's GPU
	// textures and samplers, or nil before loader GPU init.
	//
	// Returns:
	//   - bind_group_provider.BindGroupProvider: the bind group provider, or nil
	BindGroupProvider() bind_group_provider.BindGroupProvider

	// SetBindGroupProvider attaches the provider built during loader GPU init.
	//
	// Parameters:
	//   - provider: the bind group provider containing GPU resources for this material
	SetBindGroupProvider(provider bind_group_provider.BindGroupProvider)
}

var _ Material = &material{}

// NewMaterial creates a new Material configured with the provided options.
// Unset factors default to the glTF defaults: white base color, dielectric,
// fully rough.
//
// Parameters:
//   - options: variadic list of MaterialBuilderOption functions to configure the material
//
// Returns:
//   - Material: a new Material instance
func NewMaterial(options ...MaterialBuilderOption) Material {
	m := &material{
		baseColor: [4]float32{1, 1, 1, 1},
		metallic:  0.0,
		roughness: 1.0,
	}
	for _, opt := range options {
		opt(m)
	}
	return m
}

func (m *material) Name() string {
	return m.name
}

func (m *material) BaseColor() [4]float32 {
	return m.baseColor
}

func (m *material) Metallic() float32 {
	return m.metallic
}

func (m *material) Roughness() float32 {
	return m.roughness
}

func (m *material) DiffuseTexture() *common.ImportedTexture {
	return m.diffuseTexture
}

func (m *material) NormalTexture() *common.ImportedTexture {
	return m.normalTexture
}

func (m *material) MetallicRoughnessTexture() *common.ImportedTexture {
	return m.metallicRoughnessTexture
}

func (m *material) PipelineKey() string {
	return m.pipelineKey
}

func (m *material) BindGroupProvider() bind_group_provider.BindGroupProvider {
	return m.bindGroupProvider
}

func (m *material) SetBindGroupProvider(provider bind_group_provider.BindGroupProvider) {
	m.bindGroupProvider = provider
}
