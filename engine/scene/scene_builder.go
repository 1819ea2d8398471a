package scene

import (
	"github.com/CygnusX-26/mood/engine/game_object"
)

// SceneBuilderOption is a functional option for configuring a Scene.
// Use the With* functions to create options.
type SceneBuilderOption func(s *scene)

// WithActive sets whether the scene is active for rendering.
//
// Parameters:
//   - active: whether the scene is active
//
// Returns:
//   - SceneBuilderOption: option function to apply
func WithActive(active bool) SceneBuilderOption {
	return func(s *scene) {
		s.active = active
	}
}

// WithObjects adds initial objects to the scene's registry.
// Objects without IDs will be assigned new IDs. Instancer wiring happens later
// through Add, which requires the render shaders — builder-added objects are
// registry entries only until then.
//
// Parameters:
//   - objects: the objects to add
//
// Returns:
//   - SceneBuilderOption: option function to apply
func WithObjects(objects ...game_object.GameObject) SceneBuilderOption {
	return func(s *scene) {
		for _, obj := range objects {
			if obj.ID() == 0 {
				obj.SetID(s.nextID)
				s.nextID++
			}
			if !obj.Ephemeral() {
				s.registry[obj.ID()] = obj
			}
		}
	}
}

// WithPrepWorkers sets the number of worker goroutines used during the parallel
// CPU prep phase of PrepareFrame. Defaults to runtime.NumCPU()-1.
// Higher values may improve throughput with many instancer groups;
// lower values reduce scheduling overhead for simple scenes.
//
// Parameters:
//   - n: the number of prep workers (minimum 1)
//
// Returns:
//   - SceneBuilderOption: option function to apply
func WithPrepWorkers(n int) SceneBuilderOption {
	return func(s *scene) {
		if n < 1 {
			n = 1
		}
		s.prepWorkers = n
	}
}

// WithCullingDisabled disables CPU frustum culling for the scene. When set to true,
// every instancer packs its full registered instance set each frame instead of the
// frustum-visible subset. By default culling is enabled (disabled = false).
//
// Parameters:
//   - disabled: true to disable frustum culling, false to enable it (default)
//
// Returns:
//   - SceneBuilderOption: option function to apply
func WithCullingDisabled(disabled bool) SceneBuilderOption {
	return func(s *scene) {
		s.cullingDisabled = disabled
	}
}

// WithShadowNear sets the near plane distance used for each cube face's 90°
// shadow projection. Default is light.DefaultShadowNear (0.1).
//
// Parameters:
//   - near: near plane distance in world units
//
// Returns:
//   - SceneBuilderOption: option function to apply
func WithShadowNear(near float32) SceneBuilderOption {
	return func(s *scene) {
		s.shadowNear = near
	}
}

// WithShadowBias sets the normalized-distance bias subtracted from the fragment's
// light distance during cube shadow comparison to reduce shadow acne. The bias is
// applied at sample time because the shadow pass writes frag_depth, which bypasses
// the rasterizer's hardware depth bias. Default is light.DefaultShadowBias (0.002).
//
// Parameters:
//   - bias: the normalized depth bias value
//
// Returns:
//   - SceneBuilderOption: option function to apply
func WithShadowBias(bias float32) SceneBuilderOption {
	return func(s *scene) {
		s.shadowBias = bias
	}
}

// WithShadowMapResolution sets the width and height in texels of each cube shadow
// face. Higher values produce sharper shadows at the cost of more GPU memory and
// fill-rate — the total texture footprint is resolution² × 6 × MaxShadowCasters
// layers. Must be set before InitShadowMap / InitLighting is called, as the texture
// is allocated once. Default is light.ShadowMapResolution (1024).
//
// Parameters:
//   - resolution: cube face width and height in texels (e.g. 512, 1024, 2048)
//
// Returns:
//   - SceneBuilderOption: option function to apply
func WithShadowMapResolution(resolution int) SceneBuilderOption {
	return func(s *scene) {
		s.shadowMapResolution = resolution
	}
}

// WithMaxShadowCasters sets the number of simultaneous shadow-casting lights the
// scene allocates cube maps for. When more enabled casters exist, the ones nearest
// the camera win slots each frame and the rest render unshadowed. Must be set
// before InitShadowMap / InitLighting is called. Default is light.MaxShadowCasters (4).
//
// Parameters:
//   - n: the number of shadow cube slots (minimum 1)
//
// Returns:
//   - SceneBuilderOption: option function to apply
func WithMaxShadowCasters(n int) SceneBuilderOption {
	return func(s *scene) {
		if n < 1 {
			n = 1
		}
		s.maxShadowCasters = n
	}
}
