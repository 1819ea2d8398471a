package light

// ShadowMapResolution is the default width and height in texels of each cube
// shadow map face. Scenes use this as their initial value but can override it
// via the WithShadowMapResolution builder option.
const ShadowMapResolution = 1024

// ShadowFaceCount is the number of render views a single omnidirectional
// shadow map owns: one per cube face.
const ShadowFaceCount = 6

// MaxShadowRadius is the default normalization distance for omnidirectional
// shadow depth. The shadow fragment stage stores distance-to-light divided by
// this radius, so a fragment exactly MaxShadowRadius away from the light
// writes depth 1.0. Lights override their effective range per-light via
// WithRadius; the normalization constant itself stays fixed so the depth pass
// and the lit pass that samples it always agree.
const MaxShadowRadius float32 = 200.0

// DefaultShadowNear is the default near plane for each cube face's 90° shadow
// projection. Geometry closer to the light than this is clipped.
const DefaultShadowNear float32 = 0.1

// MaxShadowCasters is the default number of simultaneous shadow-casting lights.
// Each caster owns six Depth32Float layers in the shared cube shadow texture,
// so the texture is allocated with 6 * MaxShadowCasters layers. When more
// lights request shadows than slots exist, the scene assigns slots to the
// casters nearest the camera.
const MaxShadowCasters = 4

// DefaultShadowBias is the constant depth bias applied during cube shadow
// comparisons in the lit pass to reduce shadow acne artifacts. Expressed in
// normalized depth units (fractions of the shadow radius).
const DefaultShadowBias float32 = 0.002

// minRadius is the smallest radius a light may hold. Radii at or below zero
// would make the depth normalization divide by zero.
const minRadius float32 = 1e-4
