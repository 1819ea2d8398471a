package loader

import (
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/CygnusX-26/mood/common"
	"github.com/CygnusX-26/mood/engine/logging"
	"github.com/CygnusX-26/mood/engine/model"
	"github.com/cogentcore/webgpu/wgpu"
	"github.com/qmuntal/gltf"
	"github.com/qmuntal/gltf/modeler"
)

// gltfImporterImpl is the implementation of the gltfImporter interface.
type gltfImporterImpl struct{}

// gltfImporter defines the interface for importing a static glTF/GLB document
// into the engine's CPU-side model format. Meshes, materials, and textures are
// extracted; node hierarchies are flattened into a single mesh list.
type gltfImporter interface {
	// Import loads a glTF/GLB file and extracts meshes and materials into an
	// ImportedModel.
	//
	// Parameters:
	//   - path: the file path to the glTF or GLB file
	//
	// Returns:
	//   - *model.ImportedModel: the imported model
	//   - error: error if import fails
	Import(path string) (*model.ImportedModel, error)

	// ImportReader loads a glTF document from a reader and extracts meshes and
	// materials. The stream format (GLB binary vs glTF JSON) is auto-detected.
	// External buffer or image URIs cannot be resolved in reader mode, so the
	// stream must be self-contained (GLB or glTF with embedded resources).
	//
	// Parameters:
	//   - r: the reader providing glTF/GLB data
	//
	// Returns:
	//   - *model.ImportedModel: the imported model
	//   - error: error if import fails
	ImportReader(r io.Reader) (*model.ImportedModel, error)
}

var _ gltfImporter = &gltfImporterImpl{}

// newGLTFImporter creates a new glTF importer.
//
// Returns:
//   - gltfImporter: the importer
func newGLTFImporter() gltfImporter {
	return &gltfImporterImpl{}
}

func (imp *gltfImporterImpl) Import(path string) (*model.ImportedModel, error) {
	doc, err := gltf.Open(path)
	if err != nil {
		return nil, fmt.Errorf("gltf open %q: %w", path, err)
	}
	return imp.importDocument(doc, filepath.Dir(path), path)
}

func (imp *gltfImporterImpl) ImportReader(r io.Reader) (*model.ImportedModel, error) {
	doc := new(gltf.Document)
	if err := gltf.NewDecoder(r).Decode(doc); err != nil {
		return nil, fmt.Errorf("gltf decode: %w", err)
	}
	return imp.importDocument(doc, "", "")
}

// importDocument extracts meshes and materials from a parsed glTF document.
// baseDir resolves relative image URIs; empty when importing from a reader.
func (imp *gltfImporterImpl) importDocument(doc *gltf.Document, baseDir, fallbackPath string) (*model.ImportedModel, error) {
	textures := gltfExtractTextures(doc, baseDir)
	materials := gltfExtractMaterials(doc, textures)

	meshes, err := gltfExtractMeshes(doc)
	if err != nil {
		return nil, err
	}
	if len(meshes) == 0 {
		return nil, fmt.Errorf("gltf document contains no loadable mesh primitives")
	}

	return &model.ImportedModel{
		Name:      gltfModelName(doc, fallbackPath),
		Meshes:    meshes,
		Materials: materials,
	}, nil
}

// gltfExtractTextures resolves every document texture into an ImportedTexture.
// GLB-embedded images carry raw bytes; external images carry a resolved path.
// Entries that cannot be resolved are left nil and the consuming material
// falls back to the engine's placeholder textures.
func gltfExtractTextures(doc *gltf.Document, baseDir string) []*common.ImportedTexture {
	textures := make([]*common.ImportedTexture, len(doc.Textures))
	for i, gt := range doc.Textures {
		if gt.Source == nil || *gt.Source >= len(doc.Images) {
			continue
		}
		img := doc.Images[*gt.Source]

		tex := &common.ImportedTexture{
			Name:     img.Name,
			MimeType: img.MimeType,
		}
		if tex.Name == "" {
			tex.Name = fmt.Sprintf("gltf_img_%d", *gt.Source)
		}

		switch {
		case img.BufferView != nil:
			raw, err := modeler.ReadBufferView(doc, doc.BufferViews[*img.BufferView])
			if err != nil {
				logging.Logger().Warn("gltf: failed to read embedded image", "image", *gt.Source, "error", err)
				continue
			}
			// ReadBufferView may return a view into the decoder's buffer; copy so
			// the texture outlives the document.
			tex.Data = append([]byte(nil), raw...)
		case img.URI != "" && !img.IsEmbeddedResource():
			if baseDir == "" {
				logging.Logger().Warn("gltf: external image URI cannot be resolved in reader mode", "uri", img.URI)
				continue
			}
			tex.Path = filepath.Join(baseDir, img.URI)
		default:
			logging.Logger().Warn("gltf: unsupported image source", "image", *gt.Source)
			continue
		}

		if gt.Sampler != nil && *gt.Sampler < len(doc.Samplers) {
			tex.SamplerData = gltfSamplerToStaging(doc.Samplers[*gt.Sampler])
		}

		textures[i] = tex
	}
	return textures
}

// gltfSamplerToStaging converts glTF sampler wrap and filter modes into the
// engine's staging representation. Undefined modes keep the linear/repeat
// defaults from the glTF spec.
func gltfSamplerToStaging(s *gltf.Sampler) *common.SamplerStagingData {
	staging := &common.SamplerStagingData{
		AddressModeU:  gltfWrapToAddressMode(s.WrapS),
		AddressModeV:  gltfWrapToAddressMode(s.WrapT),
		AddressModeW:  wgpu.AddressModeRepeat,
		MagFilter:     wgpu.FilterModeLinear,
		MinFilter:     wgpu.FilterModeLinear,
		MipmapFilter:  wgpu.MipmapFilterModeLinear,
		LodMinClamp:   0,
		LodMaxClamp:   32,
		MaxAnisotropy: 1,
	}

	if s.MagFilter == gltf.MagNearest {
		staging.MagFilter = wgpu.FilterModeNearest
	}
	switch s.MinFilter {
	case gltf.MinNearest, gltf.MinNearestMipMapNearest, gltf.MinNearestMipMapLinear:
		staging.MinFilter = wgpu.FilterModeNearest
	}
	switch s.MinFilter {
	case gltf.MinNearestMipMapNearest, gltf.MinLinearMipMapNearest:
		staging.MipmapFilter = wgpu.MipmapFilterModeNearest
	}

	return staging
}

func gltfWrapToAddressMode(w gltf.WrappingMode) wgpu.AddressMode {
	switch w {
	case gltf.WrapClampToEdge:
		return wgpu.AddressModeClampToEdge
	case gltf.WrapMirroredRepeat:
		return wgpu.AddressModeMirrorRepeat
	default:
		return wgpu.AddressModeRepeat
	}
}

// gltfExtractMaterials converts document materials into ImportedMaterials,
// resolving texture references against the pre-extracted texture list.
func gltfExtractMaterials(doc *gltf.Document, textures []*common.ImportedTexture) []common.ImportedMaterial {
	materials := make([]common.ImportedMaterial, len(doc.Materials))
	for i, gm := range doc.Materials {
		mat := common.ImportedMaterial{
			Name:      gm.Name,
			BaseColor: [4]float32{1, 1, 1, 1},
			Metallic:  1,
			Roughness: 1,
		}
		if mat.Name == "" {
			mat.Name = fmt.Sprintf("material_%d", i)
		}

		if pbr := gm.PBRMetallicRoughness; pbr != nil {
			cf := pbr.BaseColorFactorOrDefault()
			mat.BaseColor = [4]float32{
				float32(cf[0]), float32(cf[1]), float32(cf[2]), float32(cf[3]),
			}
			mat.Metallic = float32(pbr.MetallicFactorOrDefault())
			mat.Roughness = float32(pbr.RoughnessFactorOrDefault())

			if pbr.BaseColorTexture != nil {
				mat.DiffuseTexture = gltfTextureAt(textures, pbr.BaseColorTexture.Index)
			}
			if pbr.MetallicRoughnessTexture != nil {
				mat.MetallicRoughnessTexture = gltfTextureAt(textures, pbr.MetallicRoughnessTexture.Index)
			}
		}

		if gm.NormalTexture != nil && gm.NormalTexture.Index != nil {
			mat.NormalTexture = gltfTextureAt(textures, *gm.NormalTexture.Index)
		}

		materials[i] = mat
	}
	return materials
}

func gltfTextureAt(textures []*common.ImportedTexture, index int) *common.ImportedTexture {
	if index < 0 || index >= len(textures) {
		return nil
	}
	return textures[index]
}

// gltfExtractMeshes converts every mesh primitive in the document into an
// ImportedMesh with engine-layout vertices. Primitives without a POSITION
// attribute are skipped with a warning; primitives without tangent data get
// tangent frames computed from UVs and normals after extraction.
func gltfExtractMeshes(doc *gltf.Document) ([]model.ImportedMesh, error) {
	var meshes []model.ImportedMesh
	for mi, gm := range doc.Meshes {
		for pi, prim := range gm.Primitives {
			mesh, err := gltfExtractPrimitive(doc, gm.Name, mi, pi, prim)
			if err != nil {
				logging.Logger().Warn("gltf: skipping primitive", "mesh", mi, "primitive", pi, "error", err)
				continue
			}
			meshes = append(meshes, mesh)
		}
	}
	return meshes, nil
}

// gltfExtractPrimitive converts one glTF primitive into an ImportedMesh.
func gltfExtractPrimitive(doc *gltf.Document, meshName string, meshIdx, primIdx int, prim *gltf.Primitive) (model.ImportedMesh, error) {
	name := fmt.Sprintf("%s_p%d", meshName, primIdx)
	if meshName == "" {
		name = fmt.Sprintf("mesh_%d_p%d", meshIdx, primIdx)
	}

	posIdx, ok := prim.Attributes[gltf.POSITION]
	if !ok {
		return model.ImportedMesh{}, fmt.Errorf("no POSITION attribute")
	}
	positions, err := modeler.ReadPosition(doc, doc.Accessors[posIdx], nil)
	if err != nil {
		return model.ImportedMesh{}, fmt.Errorf("positions: %w", err)
	}

	var normals [][3]float32
	var uvs [][2]float32
	var tangents [][4]float32

	if idx, ok := prim.Attributes[gltf.NORMAL]; ok {
		normals, _ = modeler.ReadNormal(doc, doc.Accessors[idx], nil)
	}
	if idx, ok := prim.Attributes[gltf.TEXCOORD_0]; ok {
		uvs, _ = modeler.ReadTextureCoord(doc, doc.Accessors[idx], nil)
	}
	if idx, ok := prim.Attributes[gltf.TANGENT]; ok {
		tangents, _ = modeler.ReadTangent(doc, doc.Accessors[idx], nil)
	}

	vertices := make([]model.GPUVertex, len(positions))
	boundsMin := [3]float32{positions[0][0], positions[0][1], positions[0][2]}
	boundsMax := boundsMin
	for i, p := range positions {
		v := model.GPUVertex{
			Position: p,
			Normal:   [3]float32{0, 1, 0},
		}
		if i < len(normals) {
			v.Normal = normals[i]
		}
		if i < len(uvs) {
			v.TexCoord = uvs[i]
		}
		if i < len(tangents) {
			t := tangents[i]
			v.Tangent = [3]float32{t[0], t[1], t[2]}
			// glTF encodes handedness in w; bitangent = cross(normal, tangent) * w.
			n := v.Normal
			v.Bitangent = [3]float32{
				(n[1]*t[2] - n[2]*t[1]) * t[3],
				(n[2]*t[0] - n[0]*t[2]) * t[3],
				(n[0]*t[1] - n[1]*t[0]) * t[3],
			}
		}
		for a := 0; a < 3; a++ {
			if p[a] < boundsMin[a] {
				boundsMin[a] = p[a]
			}
			if p[a] > boundsMax[a] {
				boundsMax[a] = p[a]
			}
		}
		vertices[i] = v
	}

	var indices []uint32
	if prim.Indices != nil {
		indices, err = modeler.ReadIndices(doc, doc.Accessors[*prim.Indices], nil)
		if err != nil {
			return model.ImportedMesh{}, fmt.Errorf("indices: %w", err)
		}
	} else {
		// Non-indexed primitive: synthesize a sequential index list.
		indices = make([]uint32, len(vertices))
		for i := range indices {
			indices[i] = uint32(i)
		}
	}

	if len(tangents) == 0 {
		model.ComputeTangents(vertices, indices)
	}

	materialIndex := 0
	if prim.Material != nil {
		materialIndex = *prim.Material
	}

	return model.ImportedMesh{
		Name:          name,
		Vertices:      vertices,
		Indices:       indices,
		MaterialIndex: materialIndex,
		BoundingMin:   boundsMin,
		BoundingMax:   boundsMax,
	}, nil
}

// gltfModelName derives a model name from the default scene or a file path fallback.
func gltfModelName(doc *gltf.Document, fallbackPath string) string {
	if doc.Scene != nil && *doc.Scene < len(doc.Scenes) {
		if name := doc.Scenes[*doc.Scene].Name; name != "" {
			return name
		}
	}
	if fallbackPath != "" {
		base := filepath.Base(fallbackPath)
		return strings.TrimSuffix(base, filepath.Ext(base))
	}
	return "unnamed_model"
}
