package scene

import (
	"fmt"
	"runtime"
	"sort"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/Carmen-Shannon/automation/tools/worker"
	"github.com/CygnusX-26/mood/common"
	"github.com/CygnusX-26/mood/engine/camera"
	"github.com/CygnusX-26/mood/engine/game_object"
	"github.com/CygnusX-26/mood/engine/light"
	"github.com/CygnusX-26/mood/engine/model"
	"github.com/CygnusX-26/mood/engine/renderer"
	"github.com/CygnusX-26/mood/engine/renderer/bind_group_provider"
	"github.com/CygnusX-26/mood/engine/renderer/instancer"
	"github.com/CygnusX-26/mood/engine/renderer/pipeline"
	"github.com/CygnusX-26/mood/engine/renderer/shader"
	"github.com/cogentcore/webgpu/wgpu"
)

// Scene manages a collection of Instancers (registered implicitly via Add) and an
// optional registry of non-ephemeral GameObjects, with a Camera and Renderer for
// rendering. Rendering is driven entirely by the registered Instancer list — each
// Instancer owns the per-instance transforms for all drawn copies of one Model.
// Scenes can be hot-swapped via the Active flag to switch between different views or levels.
// Thread-safe for concurrent access.
type Scene interface {
	// Name returns the scene's identifier.
	Name() string

	// SetName sets the scene's identifier.
	SetName(name string)

	// Active returns whether this scene is currently active for rendering.
	Active() bool

	// SetActive sets whether this scene is active for rendering.
	SetActive(active bool)

	// Camera returns the scene's camera.
	Camera() camera.Camera

	// SetCamera replaces the scene's camera.
	//
	// Parameters:
	//   - cam: the new camera
	SetCamera(cam camera.Camera)

	// Renderer returns the scene's renderer.
	Renderer() renderer.Renderer

	// SetRenderer replaces the scene's renderer.
	//
	// Parameters:
	//   - r: the new renderer
	SetRenderer(r renderer.Renderer)

	// Count returns the number of persisted GameObjects in the scene's registry. Does not include ephemeral objects.
	//
	// Returns:
	//   - int: count of non-ephemeral GameObjects in the registry
	Count() int

	// CountInstances returns the total number of instances currently registered
	// across all of the scene's instancers, including ephemeral objects.
	//
	// Returns:
	//   - int: total instance count across all instancers
	CountInstances() int

	// Add adds a GameObject to the scene. The scene's Renderer must be attached
	// and the object must carry a Model. The scene automatically creates and manages
	// an Instancer for each unique Model, registers its render pipeline, initializes
	// GPU resources, and adds a new instance wired with the object's initial
	// transform data. If the object is not ephemeral it is also persisted in the
	// registry for later lookup or removal by ID.
	//
	// Panics if the scene has no Renderer or the object has no Model.
	//
	// Parameters:
	//   - obj: the GameObject to add
	//   - vertexShader: the vertex shader to use for this object's render pipeline
	//   - fragmentShader: the fragment shader to use for this object's render pipeline
	//   - pipelineOpts: optional pipeline builder options for the render pipeline (e.g., blending)
	//
	// Returns:
	//   - uint64: the assigned object ID
	Add(obj game_object.GameObject, vertexShader, fragmentShader shader.Shader, pipelineOpts ...pipeline.PipelineBuilderOption) uint64

	// Get retrieves a non-ephemeral GameObject by its ID.
	// Returns nil if not found.
	//
	// Parameters:
	//   - id: the object's unique ID
	//
	// Returns:
	//   - game_object.GameObject: the object or nil
	Get(id uint64) game_object.GameObject

	// Remove removes a non-ephemeral GameObject from the registry by ID
	// and swap-removes the instance data from its instancer.
	//
	// Parameters:
	//   - id: the object's unique ID
	Remove(id uint64)

	// Clear removes all objects and instancers from the scene.
	// Does not release GPU resources.
	Clear()

	// PrepareFrame updates camera matrices, advances per-instance rotation state,
	// assigns shadow cube slots to the casters nearest the camera, uploads the
	// light storage buffer, and packs each instancer's frustum-visible set into
	// its main-pass instance buffer. Must be called once per frame before
	// PrepareShadows and DrawCalls.
	//
	// Parameters:
	//   - deltaTime: elapsed time since the last frame in seconds
	PrepareFrame(deltaTime float32)

	// CullingDisabled returns whether CPU frustum culling is explicitly disabled for
	// this scene. When true, every instancer packs its full instance set each frame.
	//
	// Returns:
	//   - bool: true if culling is disabled
	CullingDisabled() bool

	// SetCullingDisabled enables or disables CPU frustum culling for this scene.
	//
	// Parameters:
	//   - disabled: true to disable culling, false to enable it
	SetCullingDisabled(disabled bool)

	// DrawCalls issues instanced draw calls for each registered instancer.
	// Must be called within a BeginFrame/EndFrame block on the renderer.
	//
	// Returns:
	//   - error: error if a draw call fails
	DrawCalls() error

	// AddLight adds a light source to the scene. Lights are marshaled into a GPU
	// storage buffer each frame and passed to lit fragment shaders.
	//
	// Parameters:
	//   - l: the Light to add
	AddLight(l light.Light)

	// RemoveLight removes a light source from the scene by reference.
	//
	// Parameters:
	//   - l: the Light to remove
	RemoveLight(l light.Light)

	// DetachLight removes a game object's attached light from the scene's tracking
	// and light lists. This is the cleanup counterpart for objects whose lights
	// were auto-registered during Add(). Non-ephemeral objects are cleaned up
	// automatically via Remove(), but ephemeral object owners must call this
	// explicitly when the object's lifetime ends.
	//
	// Parameters:
	//   - obj: the GameObject whose attached light should be detached
	DetachLight(obj game_object.GameObject)

	// Lights returns all lights currently registered in the scene.
	//
	// Returns:
	//   - []light.Light: the scene's light list
	Lights() []light.Light

	// AmbientColor returns the scene's ambient light color.
	//
	// Returns:
	//   - [3]float32: the ambient RGB color
	AmbientColor() [3]float32

	// SetAmbientColor sets the scene's ambient light color.
	//
	// Parameters:
	//   - color: the ambient RGB color
	SetAmbientColor(color [3]float32)

	// LightBindGroupProvider returns the bind group provider holding the GPU light
	// buffer resources, or nil if no light shader has been configured.
	//
	// Returns:
	//   - bind_group_provider.BindGroupProvider: the light BGP or nil
	LightBindGroupProvider() bind_group_provider.BindGroupProvider

	// InitLightBindGroup initializes the GPU resources for the light storage buffer
	// using the layout descriptor from the given fragment shader's light group.
	// The fragment shader is scanned for variable names containing "light" to locate
	// the appropriate bind group index.
	//
	// Parameters:
	//   - fragmentShader: the lit fragment shader providing the light bind group layout
	InitLightBindGroup(fragmentShader shader.Shader)

	// InitShadowMap initializes the omnidirectional shadow mapping resources for the
	// scene. Creates the Depth32Float cube shadow array (one cube of six faces per
	// shadow caster slot), its per-face render views, the comparison sampler, six
	// per-face LightView uniform BGPs shared by every caster, and the shadow depth
	// render pipeline. The fragment shader is mandatory: it overrides the rasterized
	// depth with the fragment's normalized distance to the light.
	//
	// Parameters:
	//   - shadowVertexShader: the shadow depth vertex shader
	//   - shadowFragmentShader: the shadow depth fragment shader (writes frag_depth)
	InitShadowMap(shadowVertexShader, shadowFragmentShader shader.Shader)

	// PrepareShadows renders the omnidirectional shadow depth passes for every
	// assigned shadow caster slot. For each caster it stages the six face
	// view-projection uniforms, packs each instancer's in-radius caster set into
	// its shadow instance buffer, and renders six depth-only passes into the
	// caster's cube faces. Must be called after PrepareFrame and before BeginFrame
	// each frame. No-ops if no shadow map has been initialized or no shadow slot
	// is occupied.
	PrepareShadows()

	// ShadowCubeArrayView returns the CubeArray view over the shadow depth texture
	// used by lit fragment shaders, or nil if shadow mapping has not been initialized.
	//
	// Returns:
	//   - *wgpu.TextureView: the cube array view or nil
	ShadowCubeArrayView() *wgpu.TextureView

	// ShadowLitBindGroupProvider returns the BGP used by lit fragment shaders to
	// sample the shadow cube array. It holds the cube array view, comparison
	// sampler, and shadow params uniform. Returns nil if not initialized.
	//
	// Returns:
	//   - bind_group_provider.BindGroupProvider: the shadow lit BGP or nil
	ShadowLitBindGroupProvider() bind_group_provider.BindGroupProvider

	// InitShadowLitBindGroup initializes the bind group provider that lit fragment
	// shaders use to sample the shadow cube array. It pre-sets the cube array view
	// and comparison sampler from InitShadowMap, then creates the shadow params
	// uniform buffer and writes the configured bias. Must be called after
	// InitShadowMap.
	//
	// Parameters:
	//   - litFragmentShader: the lit fragment shader providing the shadow bind group layout
	InitShadowLitBindGroup(litFragmentShader shader.Shader)

	// InitLightCullResources initializes the Forward+ light culling pipeline and
	// buffer resources. Creates the cull compute pipeline, the compute BGP (sharing
	// the lights buffer from InitLightBindGroup), and the fragment-side tile BGP
	// whose storage buffers are shared with the compute output. Must be called
	// after InitLightBindGroup.
	//
	// Parameters:
	//   - cullComputeShader: the light culling compute shader
	//   - litFragmentShader: the lit fragment shader (for the tile bind group layout)
	//   - screenWidth: screen width in pixels (determines tile grid sizing)
	//   - screenHeight: screen height in pixels
	InitLightCullResources(cullComputeShader, litFragmentShader shader.Shader, screenWidth, screenHeight int)

	// PrepareLightCulling updates the light cull uniform buffer and dispatches the
	// light culling compute shader. Must be called after PrepareFrame (so lights
	// are uploaded) and before DrawCalls.
	PrepareLightCulling()

	// InitLighting is a convenience method that initializes the entire lighting
	// pipeline in the correct order: light storage buffer, cube shadow resources,
	// shadow lit bind group, and Forward+ light culling. Equivalent to calling
	// InitLightBindGroup, InitShadowMap, InitShadowLitBindGroup, and
	// InitLightCullResources individually in that order.
	//
	// Parameters:
	//   - litFragShader: the lit fragment shader (provides light, shadow, and tile bind group layouts)
	//   - shadowVertShader: the shadow depth vertex shader
	//   - shadowFragShader: the shadow depth fragment shader
	//   - cullComputeShader: the Forward+ light culling compute shader
	//   - screenWidth: screen width in pixels
	//   - screenHeight: screen height in pixels
	InitLighting(litFragShader, shadowVertShader, shadowFragShader, cullComputeShader shader.Shader, screenWidth, screenHeight int)

	// SkyboxBindGroupProvider returns the BGP holding the skybox cube texture and
	// sampler, or nil if no skybox has been configured.
	//
	// Returns:
	//   - bind_group_provider.BindGroupProvider: the skybox BGP or nil
	SkyboxBindGroupProvider() bind_group_provider.BindGroupProvider

	// SetSkyboxBindGroupProvider sets the BGP that skybox-sampling shaders bind.
	// Typically initialized by the loader from six face images via
	// Renderer.InitCubeTextureView.
	//
	// Parameters:
	//   - bgp: the skybox bind group provider
	SetSkyboxBindGroupProvider(bgp bind_group_provider.BindGroupProvider)
}

// packJob carries one instancer's parallel prep work and its packed result
// between the fan-out and submission phases of PrepareFrame.
type packJob struct {
	inst  instancer.Instancer
	mdl   model.Model
	data  []byte
	count uint32
}

type scene struct {
	mu *sync.RWMutex

	name   string
	active bool

	instancerPool   map[model.Model]instancer.Instancer
	instanceBufCaps map[model.Model]uint64 // allocated instance buffer size in bytes per model
	registry        map[uint64]game_object.GameObject // non-ephemeral objects by ID
	nextID          uint64

	cam camera.Camera
	r   renderer.Renderer

	cullingDisabled bool // when true, instancers pack their full instance set

	// Lighting state.
	lights       []light.Light
	lightObjects []game_object.GameObject // objects with attached lights (ephemeral and non-ephemeral)
	ambientColor [3]float32
	lightsBGP    bind_group_provider.BindGroupProvider

	// Omnidirectional shadow state.
	shadowTexture        *wgpu.Texture
	shadowCubeView       *wgpu.TextureView   // CubeArray view sampled by lit fragment shaders
	shadowFaceViews      []*wgpu.TextureView // per-face render views, indexed slot*6+face
	shadowComparisonSamp *wgpu.Sampler
	shadowFaceBGPs       [light.ShadowFaceCount]bind_group_provider.BindGroupProvider // per-face LightView uniforms, shared across casters
	shadowFaceBinding    int                                                          // binding index of the LightView uniform within the face group
	shadowLitBGP         bind_group_provider.BindGroupProvider                        // used during the lit pass (cube view + sampler + params)
	shadowPipelineKey    string
	shadowSlots          []light.Light // slot index → caster, reassigned each PrepareFrame
	shadowNear           float32
	shadowBias           float32
	shadowMapResolution  int
	maxShadowCasters     int

	// Forward+ light culling state.
	lightCullBGP         bind_group_provider.BindGroupProvider // compute shader BGP
	tileLitBGP           bind_group_provider.BindGroupProvider // fragment shader BGP
	lightCullPipelineKey string
	tileCountX           uint32
	tileCountY           uint32
	screenWidth          int
	screenHeight         int

	skyboxBGP bind_group_provider.BindGroupProvider

	// Pre-allocated slices reused each frame to avoid per-frame allocations.
	writePool          []bind_group_provider.BufferWrite       // reusable coalesced buffer write slice
	drawBindGroupsPool []bind_group_provider.BindGroupProvider // reusable bind group slice for DrawCalls
	packJobs           []packJob                               // reusable parallel prep job slice

	// prepPool manages a bounded set of reusable goroutines for the parallel
	// CPU prep phase of PrepareFrame. Workers persist across frames, avoiding
	// per-frame goroutine spawn/teardown overhead.
	prepPool    worker.DynamicWorkerPool
	prepWorkers int // stored so we can log/inspect the configured count
}

// Ensure scene implements Scene interface.
var _ Scene = &scene{}

// NewScene creates a new Scene with the given camera, renderer, and a vertex shader
// used to discover the camera's bind group layout. All three are required and NewScene
// panics if any of them is nil. The vertex shader's BindGroupVarNames are scanned for
// a group containing "camera" and its layout descriptor is used to initialize the
// camera's BindGroupProvider on the GPU.
//
// Parameters:
//   - name: the name of the scene
//   - cam: the camera to attach (must not be nil)
//   - r: the renderer to attach (must not be nil)
//   - vertexShader: a vertex shader whose bind groups include the camera uniform layout (must not be nil)
//   - options: functional options to further configure the scene
//
// Returns:
//   - Scene: the newly created scene
func NewScene(name string, cam camera.Camera, r renderer.Renderer, vertexShader shader.Shader, options ...SceneBuilderOption) Scene {
	if cam == nil {
		panic("scene: NewScene requires a non-nil Camera")
	}
	if r == nil {
		panic("scene: NewScene requires a non-nil Renderer")
	}
	if vertexShader == nil {
		panic("scene: NewScene requires a non-nil vertex shader for camera BGP init")
	}

	s := &scene{
		mu:                  &sync.RWMutex{},
		name:                name,
		active:              false,
		cam:                 cam,
		r:                   r,
		instancerPool:       make(map[model.Model]instancer.Instancer),
		instanceBufCaps:     make(map[model.Model]uint64),
		registry:            make(map[uint64]game_object.GameObject),
		nextID:              1,
		prepWorkers:         max(runtime.NumCPU()-1, 1),
		drawBindGroupsPool:  make([]bind_group_provider.BindGroupProvider, 0, 6),
		shadowNear:          light.DefaultShadowNear,
		shadowBias:          light.DefaultShadowBias,
		shadowMapResolution: light.ShadowMapResolution,
		maxShadowCasters:    light.MaxShadowCasters,
	}

	for _, option := range options {
		option(s)
	}

	// Initialize the prep pool after options so WithPrepWorkers can override the default.
	// Queue size of 256 accommodates typical instancer group counts with headroom.
	s.prepPool = worker.NewDynamicWorkerPool(s.prepWorkers, 256, 1*time.Second)
	s.shadowSlots = make([]light.Light, 0, s.maxShadowCasters)

	// Initialize the camera's bind group on the GPU using the layout from the vertex shader.
	cameraGroup := findBindGroup(vertexShader, "camera")
	if cameraGroup < 0 {
		cameraGroup = 0
	}
	if bgp := cam.BindGroupProvider(); bgp != nil {
		if err := r.InitBindGroup(bgp, vertexShader.BindGroupLayoutDescriptor(cameraGroup), nil, nil); err != nil {
			panic(fmt.Sprintf("scene: failed to init camera bind group: %v", err))
		}
	}

	return s
}

// findBindGroup scans a shader's bind group variable names for the first group
// containing substr (case-insensitive). Returns -1 if no group matches.
func findBindGroup(sh shader.Shader, substr string) int {
	for groupIdx, bindings := range sh.BindGroupVarNames() {
		for _, name := range bindings {
			if strings.Contains(strings.ToLower(name), substr) {
				return groupIdx
			}
		}
	}
	return -1
}

func (s *scene) Name() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.name
}

func (s *scene) SetName(name string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.name = name
}

func (s *scene) Active() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.active
}

func (s *scene) SetActive(active bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.active = active
}

func (s *scene) Camera() camera.Camera {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.cam
}

func (s *scene) SetCamera(cam camera.Camera) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cam = cam
}

func (s *scene) Renderer() renderer.Renderer {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.r
}

func (s *scene) SetRenderer(r renderer.Renderer) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.r = r
}

func (s *scene) CullingDisabled() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.cullingDisabled
}

func (s *scene) SetCullingDisabled(disabled bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cullingDisabled = disabled
}

func (s *scene) AddLight(l light.Light) {
	s.mu.Lock()
	defer s.mu.Unlock()
	l.SetID(uint32(len(s.lights)))
	s.lights = append(s.lights, l)
}

func (s *scene) RemoveLight(l light.Light) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, existing := range s.lights {
		if existing == l {
			s.lights = append(s.lights[:i], s.lights[i+1:]...)
			return
		}
	}
}

func (s *scene) DetachLight(obj game_object.GameObject) {
	s.mu.Lock()
	defer s.mu.Unlock()
	l := obj.Light()
	if l == nil {
		return
	}
	for i, existing := range s.lights {
		if existing == l {
			s.lights = append(s.lights[:i], s.lights[i+1:]...)
			break
		}
	}
	for i, o := range s.lightObjects {
		if o == obj {
			s.lightObjects = append(s.lightObjects[:i], s.lightObjects[i+1:]...)
			break
		}
	}
}

func (s *scene) Lights() []light.Light {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]light.Light, len(s.lights))
	copy(out, s.lights)
	return out
}

func (s *scene) AmbientColor() [3]float32 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.ambientColor
}

func (s *scene) SetAmbientColor(color [3]float32) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.ambientColor = color
}

func (s *scene) LightBindGroupProvider() bind_group_provider.BindGroupProvider {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.lightsBGP
}

func (s *scene) SkyboxBindGroupProvider() bind_group_provider.BindGroupProvider {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.skyboxBGP
}

func (s *scene) SetSkyboxBindGroupProvider(bgp bind_group_provider.BindGroupProvider) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.skyboxBGP = bgp
}

func (s *scene) InitLightBindGroup(fragmentShader shader.Shader) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.r == nil || fragmentShader == nil {
		return
	}

	// Find the bind group index that contains light-related variables.
	// Tile and shadow vars avoid the "light" substring so this search
	// unambiguously matches only the lights group.
	lightGroup := findBindGroup(fragmentShader, "light")
	if lightGroup < 0 {
		return
	}

	bgp := bind_group_provider.NewBindGroupProvider(s.name + "_lights")

	// Build buffer size overrides: the light storage buffer must hold MaxGPULights
	// entries so it can accommodate dynamic light counts each frame. The header is
	// a separate uniform binding sized from its MinBindingSize.
	descriptor := fragmentShader.BindGroupLayoutDescriptor(lightGroup)
	sizeOverrides := make(map[int]uint64)
	lightSize := uint64((&light.GPULight{}).Size())
	for _, entry := range descriptor.Entries {
		binding := int(entry.Binding)
		if entry.Buffer.Type == wgpu.BufferBindingTypeReadOnlyStorage || entry.Buffer.Type == wgpu.BufferBindingTypeStorage {
			sizeOverrides[binding] = uint64(light.MaxGPULights) * lightSize
		}
	}

	if err := s.r.InitBindGroup(bgp, descriptor, nil, sizeOverrides); err != nil {
		panic(fmt.Sprintf("scene: failed to init light bind group: %v", err))
	}
	s.lightsBGP = bgp
}

func (s *scene) InitShadowMap(shadowVertexShader, shadowFragmentShader shader.Shader) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.r == nil || shadowVertexShader == nil || shadowFragmentShader == nil {
		return
	}

	// Create the cube shadow array: one cube of six Depth32Float faces per caster slot.
	cubeView, faceViews, tex, err := s.r.CreateShadowCubeTexture(s.shadowMapResolution, s.maxShadowCasters)
	if err != nil {
		panic(fmt.Sprintf("scene: failed to create cube shadow texture: %v", err))
	}
	s.shadowTexture = tex
	s.shadowCubeView = cubeView
	s.shadowFaceViews = faceViews

	// Create comparison sampler for PCF in the lit fragment shader.
	samp, err := s.r.CreateComparisonSampler()
	if err != nil {
		panic(fmt.Sprintf("scene: failed to create comparison sampler: %v", err))
	}
	s.shadowComparisonSamp = samp

	// Locate the LightView uniform group in the shadow vertex shader. Both the
	// vertex stage (view_proj) and the fragment stage (position) read it, so the
	// bind group layout needs VERTEX|FRAGMENT visibility to match the merged
	// pipeline layout.
	faceGroup := findBindGroup(shadowVertexShader, "light_view")
	if faceGroup < 0 {
		faceGroup = 0
	}
	desc := shadowVertexShader.BindGroupLayoutDescriptor(faceGroup)
	entries := make([]wgpu.BindGroupLayoutEntry, len(desc.Entries))
	copy(entries, desc.Entries)
	for i := range entries {
		entries[i].Visibility |= wgpu.ShaderStageFragment
	}
	mergedDesc := wgpu.BindGroupLayoutDescriptor{
		Label:   desc.Label,
		Entries: entries,
	}

	viewSize := uint64((&light.GPULightView{}).Size())
	sizeOverrides := make(map[int]uint64)
	s.shadowFaceBinding = 0
	for _, entry := range mergedDesc.Entries {
		if entry.Buffer.Type == wgpu.BufferBindingTypeUniform {
			s.shadowFaceBinding = int(entry.Binding)
			sizeOverrides[int(entry.Binding)] = viewSize
		}
	}

	// One LightView uniform BGP per cube face, shared by every caster slot: the
	// queue's write ordering guarantees each caster's staged uniforms are visible
	// to its own submitted passes before the next caster overwrites them.
	for face := 0; face < light.ShadowFaceCount; face++ {
		bgp := bind_group_provider.NewBindGroupProvider(fmt.Sprintf("%s_shadow_face_%d", s.name, face))
		if err := s.r.InitBindGroup(bgp, mergedDesc, nil, sizeOverrides); err != nil {
			panic(fmt.Sprintf("scene: failed to init shadow face bind group %d: %v", face, err))
		}
		s.shadowFaceBGPs[face] = bgp
	}

	// Register the shadow depth pipeline. Front-face culling reduces acne on
	// closed geometry. No hardware depth bias: the fragment stage writes
	// frag_depth, which bypasses the rasterizer's bias entirely, so the bias
	// is applied at sample time in the lit pass instead.
	key := "shadow_depth"
	sp := pipeline.NewPipeline(key, pipeline.PipelineTypeRender,
		pipeline.WithVertexShader(shadowVertexShader),
		pipeline.WithFragmentShader(shadowFragmentShader),
		pipeline.WithCullMode(wgpu.CullModeFront),
	)
	if err := s.r.RegisterShadowPipeline(sp); err != nil {
		panic(fmt.Sprintf("scene: failed to register shadow pipeline: %v", err))
	}
	s.shadowPipelineKey = key
}

func (s *scene) ShadowCubeArrayView() *wgpu.TextureView {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.shadowCubeView
}

func (s *scene) ShadowLitBindGroupProvider() bind_group_provider.BindGroupProvider {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.shadowLitBGP
}

func (s *scene) InitShadowLitBindGroup(litFragmentShader shader.Shader) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.r == nil || litFragmentShader == nil {
		return
	}
	if s.shadowCubeView == nil || s.shadowComparisonSamp == nil {
		return // InitShadowMap must be called first
	}

	// Find the bind group index that contains shadow-related variables.
	shadowGroup := findBindGroup(litFragmentShader, "shadow")
	if shadowGroup < 0 {
		return
	}

	bgp := bind_group_provider.NewBindGroupProvider(s.name + "_shadow_lit")

	// Pre-set the cube array view and comparison sampler on the BGP so that
	// InitBindGroup can find them when creating the bind group entries.
	desc := litFragmentShader.BindGroupLayoutDescriptor(shadowGroup)
	paramsBinding := -1
	sizeOverrides := make(map[int]uint64)
	for _, entry := range desc.Entries {
		binding := int(entry.Binding)
		if entry.Texture.SampleType != wgpu.TextureSampleTypeUndefined {
			bgp.SetTextureView(binding, s.shadowCubeView)
		}
		if entry.Sampler.Type != wgpu.SamplerBindingTypeUndefined {
			bgp.SetSampler(binding, s.shadowComparisonSamp)
		}
		if entry.Buffer.Type == wgpu.BufferBindingTypeUniform {
			paramsBinding = binding
			sizeOverrides[binding] = uint64((&light.GPUShadowParams{}).Size())
		}
	}

	if err := s.r.InitBindGroup(bgp, desc, nil, sizeOverrides); err != nil {
		panic(fmt.Sprintf("scene: failed to init shadow lit bind group: %v", err))
	}
	s.shadowLitBGP = bgp

	// The params are fixed for the scene's lifetime, so write them once here
	// rather than every frame.
	if paramsBinding >= 0 {
		params := light.GPUShadowParams{
			Bias: s.shadowBias,
			Near: s.shadowNear,
		}
		s.r.WriteBuffers([]bind_group_provider.BufferWrite{
			{Provider: bgp, Binding: paramsBinding, Offset: 0, Data: params.Marshal()},
		})
	}
}

func (s *scene) PrepareShadows() {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.shadowCubeView == nil || s.shadowPipelineKey == "" || s.r == nil {
		return
	}

	var lv light.GPULightView
	for slot, l := range s.shadowSlots {
		if l == nil || !l.Enabled() {
			continue
		}
		pos := l.Position()
		radius := l.Radius()

		// Stage the six face view-projections and each instancer's in-radius
		// caster set. WriteBuffers copies the data into the queue immediately,
		// so the pack arenas and shared face BGPs are free to be reused for the
		// next caster once this caster's passes are submitted.
		writes := s.writePool[:0]
		for face := 0; face < light.ShadowFaceCount; face++ {
			lv.ComputeFaceVP(pos, face, s.shadowNear, radius)
			writes = append(writes, bind_group_provider.BufferWrite{
				Provider: s.shadowFaceBGPs[face],
				Binding:  s.shadowFaceBinding,
				Offset:   0,
				Data:     lv.Marshal(),
			})
		}

		for mdl, inst := range s.instancerPool {
			if inst.InstanceCount() == 0 {
				continue
			}
			meshProvider := mdl.MeshProvider()
			if meshProvider == nil {
				continue
			}
			data, count := inst.PackShadowCasters(pos, radius, mdl.BoundingRadius())
			meshProvider.SetShadowInstanceCount(int(count))
			if count > 0 {
				writes = append(writes, bind_group_provider.BufferWrite{
					Provider: meshProvider,
					Binding:  bind_group_provider.BindingShadowInstance,
					Offset:   0,
					Data:     data,
				})
			}
		}
		s.writePool = writes
		s.r.WriteBuffers(writes)

		// Render the six depth-only face passes for this caster and submit them
		// before moving to the next caster, so the shared face uniforms and
		// shadow instance buffers observe this caster's writes.
		if err := s.r.BeginShadowFrame(); err != nil {
			return
		}
		for face := 0; face < light.ShadowFaceCount; face++ {
			s.r.BeginShadowPass(s.shadowFaceViews[slot*light.ShadowFaceCount+face])
			for mdl := range s.instancerPool {
				meshProvider := mdl.MeshProvider()
				if meshProvider == nil {
					continue
				}
				count := meshProvider.ShadowInstanceCount()
				if count == 0 {
					continue
				}
				_ = s.r.ShadowDrawCall(s.shadowPipelineKey, meshProvider, uint32(count), []bind_group_provider.BindGroupProvider{s.shadowFaceBGPs[face]})
			}
			s.r.EndShadowPass()
		}
		s.r.EndShadowFrame()
	}
}

func (s *scene) InitLightCullResources(cullComputeShader, litFragmentShader shader.Shader, screenWidth, screenHeight int) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.r == nil || cullComputeShader == nil || litFragmentShader == nil {
		return
	}
	if s.lightsBGP == nil {
		return // InitLightBindGroup must be called first
	}

	s.screenWidth = screenWidth
	s.screenHeight = screenHeight
	tileCountX, tileCountY := light.TileCounts(screenWidth, screenHeight)
	s.tileCountX = tileCountX
	s.tileCountY = tileCountY

	// ── 1. Create compute BGP (cull shader's @group(0)) ────────────────
	// binding 0: cull_uniforms (uniform, 160 bytes)
	// binding 1: cull_lights (storage, read) — shared from lightsBGP binding 1
	// binding 2: tile_light_counts (storage, rw) — new buffer
	// binding 3: tile_light_indices (storage, rw) — new buffer
	cullBGP := bind_group_provider.NewBindGroupProvider(s.name + "_light_cull")

	// Pre-set the lights buffer from lightsBGP so InitBindGroup reuses it.
	if lightsBuffer := s.lightsBGP.Buffer(1); lightsBuffer != nil {
		cullBGP.SetBuffer(1, lightsBuffer)
	}

	cullDesc := cullComputeShader.BindGroupLayoutDescriptor(0)
	sizeOverrides := map[int]uint64{
		0: uint64((&light.GPULightCullUniforms{}).Size()),
		2: light.TileLightCountBufferSize(tileCountX, tileCountY),
		3: light.TileLightIndexBufferSize(tileCountX, tileCountY),
	}

	if err := s.r.InitBindGroup(cullBGP, cullDesc, nil, sizeOverrides); err != nil {
		panic(fmt.Sprintf("scene: failed to init light cull bind group: %v", err))
	}
	s.lightCullBGP = cullBGP

	// ── 2. Register the cull compute pipeline ──────────────────────────
	pipeKey := "light_cull_compute"
	cp := pipeline.NewPipeline(pipeKey, pipeline.PipelineTypeCompute,
		pipeline.WithComputeShader(cullComputeShader),
	)
	if err := s.r.RegisterPipelines(cp); err != nil {
		panic(fmt.Sprintf("scene: failed to register light cull compute pipeline: %v", err))
	}
	s.lightCullPipelineKey = pipeKey

	// ── 3. Create fragment tile BGP ────────────────────────────────────
	// binding 0: tile_uniforms (uniform, 8 bytes)
	// binding 1: tile_light_counts (storage, read) — shared from cullBGP binding 2
	// binding 2: tile_light_indices (storage, read) — shared from cullBGP binding 3
	tileBGP := bind_group_provider.NewBindGroupProvider(s.name + "_tile_lit")

	if countsBuf := cullBGP.Buffer(2); countsBuf != nil {
		tileBGP.SetBuffer(1, countsBuf)
	}
	if indicesBuf := cullBGP.Buffer(3); indicesBuf != nil {
		tileBGP.SetBuffer(2, indicesBuf)
	}

	// Find the tile bind group index in the lit fragment shader.
	tileGroup := findBindGroup(litFragmentShader, "tile")
	if tileGroup < 0 {
		panic("scene: lit fragment shader has no tile bind group")
	}

	tileDesc := litFragmentShader.BindGroupLayoutDescriptor(tileGroup)
	tileSizeOverrides := map[int]uint64{
		0: uint64((&light.GPUTileUniforms{}).Size()),
	}
	if err := s.r.InitBindGroup(tileBGP, tileDesc, nil, tileSizeOverrides); err != nil {
		panic(fmt.Sprintf("scene: failed to init tile lit bind group: %v", err))
	}
	s.tileLitBGP = tileBGP

	// ── 4. Write initial tile uniforms ─────────────────────────────────
	tileUniforms := light.GPUTileUniforms{
		TileCountX:       tileCountX,
		MaxLightsPerTile: light.MaxLightsPerTile,
	}
	s.r.WriteBuffers([]bind_group_provider.BufferWrite{
		{Provider: tileBGP, Binding: 0, Offset: 0, Data: tileUniforms.Marshal()},
	})
}

// reinitCameraBGPForLitPipeline recreates the camera's bind group with merged
// VERTEX|FRAGMENT visibility so it matches the lit render pipeline's layout.
//
// The camera BGL was originally created from the vertex shader alone (VERTEX).
// When the lit fragment shader also declares the same camera group, the render
// pipeline merges the layout entries with VERTEX|FRAGMENT visibility. WebGPU
// requires exact bind group layout equivalence, so the camera BGL must be
// recreated with the combined visibility to avoid SetBindGroup validation errors.
//
// The existing camera uniform buffer is preserved — only the layout and bind
// group objects are recreated.
//
// Parameters:
//   - litFragShader: the lit fragment shader that may declare a camera group
func (s *scene) reinitCameraBGPForLitPipeline(litFragShader shader.Shader) {
	if s.cam == nil || litFragShader == nil {
		return
	}

	// Find the camera group in the lit fragment shader.
	cameraGroup := findBindGroup(litFragShader, "camera")
	if cameraGroup < 0 {
		return // Fragment shader doesn't declare a camera group; no re-init needed.
	}

	bgp := s.cam.BindGroupProvider()
	if bgp == nil {
		return
	}

	// Grab the fragment shader's descriptor and add VERTEX visibility to every
	// entry so the resulting layout matches both shader stages.
	fragDesc := litFragShader.BindGroupLayoutDescriptor(cameraGroup)
	entries := make([]wgpu.BindGroupLayoutEntry, len(fragDesc.Entries))
	copy(entries, fragDesc.Entries)
	for i := range entries {
		entries[i].Visibility |= wgpu.ShaderStageVertex
	}
	mergedDesc := wgpu.BindGroupLayoutDescriptor{
		Label:   fragDesc.Label,
		Entries: entries,
	}

	// Clear the old layout so InitBindGroup creates a new one from mergedDesc.
	bgp.SetBindGroupLayout(nil)
	if err := s.r.InitBindGroup(bgp, mergedDesc, nil, nil); err != nil {
		panic(fmt.Sprintf("scene: failed to reinit camera bind group for lit pipeline: %v", err))
	}
}

func (s *scene) PrepareLightCulling() {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.lightCullBGP == nil || s.r == nil || s.cam == nil {
		return
	}

	// Count enabled lights. Even when zero we must still dispatch the cull
	// shader so that tile counts are zeroed out — otherwise stale tile data
	// from the previous frame causes disabled lights to keep rendering.
	var lightCount uint32
	for _, l := range s.lights {
		if l.Enabled() {
			lightCount++
		}
	}

	// Build and write cull uniforms.
	uniforms := light.GPULightCullUniforms{
		InvProj:      s.cam.InverseProjectionMatrix(),
		ViewMatrix:   s.cam.ViewMatrix(),
		TileCountX:   s.tileCountX,
		TileCountY:   s.tileCountY,
		ScreenWidth:  uint32(s.screenWidth),
		ScreenHeight: uint32(s.screenHeight),
		LightCount:   lightCount,
		Near:         s.cam.Near(),
		Far:          s.cam.Far(),
	}
	s.r.WriteBuffers([]bind_group_provider.BufferWrite{
		{Provider: s.lightCullBGP, Binding: 0, Offset: 0, Data: uniforms.Marshal()},
	})

	// Dispatch the light culling compute shader.
	if err := s.r.BeginComputeFrame(); err != nil {
		return
	}
	s.r.DispatchCompute(s.lightCullPipelineKey, s.lightCullBGP, [3]uint32{s.tileCountX, s.tileCountY, 1})
	s.r.EndComputeFrame()
}

func (s *scene) InitLighting(litFragShader, shadowVertShader, shadowFragShader, cullComputeShader shader.Shader, screenWidth, screenHeight int) {
	// 1. Light storage buffer (must be first — other steps share this buffer).
	s.InitLightBindGroup(litFragShader)

	// 2. Cube shadow texture, comparison sampler, face uniform BGPs, shadow pipeline.
	s.InitShadowMap(shadowVertShader, shadowFragShader)

	// 3. Shadow lit BGP (fragment-side cube sampling — references shadow resources from step 2).
	s.InitShadowLitBindGroup(litFragShader)

	// 4. Forward+ tile culling pipeline and shared tile buffers (references lights buffer from step 1).
	s.InitLightCullResources(cullComputeShader, litFragShader, screenWidth, screenHeight)

	// 5. Re-create the camera bind group with merged VERTEX|FRAGMENT visibility.
	//
	// The camera's bind group was originally created in NewScene from the vertex
	// shader alone (visibility = VERTEX). The lit fragment shader also declares the
	// camera group (visibility = FRAGMENT). The render pipeline merges these into
	// VERTEX|FRAGMENT. WebGPU requires exact bind group layout equivalence, so the
	// camera BGL must be recreated with the combined visibility to pass validation.
	s.reinitCameraBGPForLitPipeline(litFragShader)
}

func (s *scene) Count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.registry)
}

func (s *scene) CountInstances() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	count := 0
	for _, inst := range s.instancerPool {
		count += int(inst.InstanceCount())
	}
	return count
}

func (s *scene) Add(obj game_object.GameObject, vertexShader, fragmentShader shader.Shader, pipelineOpts ...pipeline.PipelineBuilderOption) uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.r == nil {
		panic("scene: cannot Add without a Renderer attached")
	}

	mdl := obj.Model()
	if mdl == nil {
		panic("scene: cannot Add a GameObject without a Model")
	}

	if obj.ID() == 0 {
		obj.SetID(atomic.AddUint64(&s.nextID, 1) - 1)
	}

	// Lookup or create an Instancer for this Model.
	inst, exists := s.instancerPool[mdl]
	if !exists {
		inst = s.createInstancer(mdl, vertexShader, fragmentShader, pipelineOpts...)
		s.instancerPool[mdl] = inst
	}

	// Capture initial transform from the GameObject BEFORE wiring the instancer.
	// TransformData returns the builder-supplied initial values (position, scale,
	// rotation, rotation speed) when the instancer is nil. Once SetInstancer is
	// called, it would read from the instancer's zero-initialized slot instead.
	pos, scale, rot, rotSpeed := obj.TransformData()

	// Wire the object to the instancer and add an instance.
	obj.SetInstancer(inst)
	idx, err := inst.AddInstance()
	if err != nil {
		panic(fmt.Sprintf("scene: failed to add instance for model %q: %v", mdl.Name(), err))
	}
	obj.SetInstanceID(int(idx))

	// Push initial transform data from the GameObject into the instancer slot.
	inst.SetInstanceData(idx, pos, scale, rotSpeed, rot)

	// Persist non-ephemeral objects in the registry.
	if !obj.Ephemeral() {
		s.registry[obj.ID()] = obj
	}

	// If the object has an attached light, track it for automatic position sync
	// and register the light with the scene's light list.
	if l := obj.Light(); l != nil {
		l.SetID(uint32(len(s.lights)))
		s.lightObjects = append(s.lightObjects, obj)
		s.lights = append(s.lights, l)
	}

	return obj.ID()
}

func (s *scene) Get(id uint64) game_object.GameObject {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.registry[id]
}

func (s *scene) Remove(id uint64) {
	s.mu.Lock()
	defer s.mu.Unlock()

	obj, exists := s.registry[id]
	if !exists {
		return
	}

	delete(s.registry, id)

	// Remove attached light from scene tracking lists.
	if l := obj.Light(); l != nil {
		for i, existing := range s.lights {
			if existing == l {
				s.lights = append(s.lights[:i], s.lights[i+1:]...)
				break
			}
		}
		for i, o := range s.lightObjects {
			if o == obj {
				s.lightObjects = append(s.lightObjects[:i], s.lightObjects[i+1:]...)
				break
			}
		}
	}

	// Swap-remove the instance data from the instancer.
	if inst := obj.Instancer(); inst != nil {
		removedIdx := obj.InstanceID()
		if removedIdx >= 0 {
			swappedFrom, swapped := inst.RemoveInstance(uint32(removedIdx))
			if swapped {
				// The instance at swappedFrom was moved into removedIdx — find the
				// registry object that owned that slot and update its stored index.
				for _, o := range s.registry {
					if o.Instancer() == inst && o.InstanceID() == int(swappedFrom) {
						o.SetInstanceID(removedIdx)
						break
					}
				}
			}
			obj.SetInstanceID(-1)
		}
	}
}

func (s *scene) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.instancerPool = make(map[model.Model]instancer.Instancer)
	s.instanceBufCaps = make(map[model.Model]uint64)
	s.registry = make(map[uint64]game_object.GameObject)
	s.lightObjects = nil
}

// createInstancer creates a new Instancer for the given Model, registers its render
// pipeline on the renderer, and initializes the model's mesh and instance buffers.
// Caller must hold s.mu write lock.
//
// Parameters:
//   - mdl: the Model to create an Instancer for
//   - vertexShader: the vertex shader for the render pipeline
//   - fragmentShader: the fragment shader for the render pipeline
//   - pipelineOpts: optional pipeline builder options for the render pipeline
//
// Returns:
//   - instancer.Instancer: the fully initialized Instancer
func (s *scene) createInstancer(mdl model.Model, vertexShader, fragmentShader shader.Shader, pipelineOpts ...pipeline.PipelineBuilderOption) instancer.Instancer {
	inst := instancer.NewInstancer(instancer.WithModel(mdl))

	// Init mesh provider GPU resources if not already done (e.g. hand-built models
	// skip this, while loader-produced models will already have VertexBuffer set).
	meshBGP := mdl.MeshProvider()
	if meshBGP != nil && meshBGP.VertexBuffer() == nil {
		if err := s.r.InitMeshBuffers(meshBGP, mdl.VertexData(), mdl.IndexData(), mdl.IndexCount()); err != nil {
			panic(fmt.Sprintf("scene: failed to init mesh BGP for model %q: %v", mdl.Name(), err))
		}
	}

	// Allocate the main and shadow instance buffers at full capacity. PrepareFrame
	// grows them when the instancer's capacity outgrows the allocation.
	if meshBGP != nil {
		capBytes := uint64(inst.MaxInstances()) * instancer.InstanceStride
		if err := s.r.InitInstanceBuffers(meshBGP, capBytes, capBytes); err != nil {
			panic(fmt.Sprintf("scene: failed to init instance buffers for model %q: %v", mdl.Name(), err))
		}
		s.instanceBufCaps[mdl] = capBytes
	}

	// Register render pipeline with the model name as key, matching Material.PipelineKey().
	renderOpts := append([]pipeline.PipelineBuilderOption{
		pipeline.WithVertexShader(vertexShader),
		pipeline.WithFragmentShader(fragmentShader),
	}, pipelineOpts...)
	rp := pipeline.NewPipeline(mdl.Name(), pipeline.PipelineTypeRender, renderOpts...)
	if err := s.r.RegisterPipelines(rp); err != nil {
		panic(fmt.Sprintf("scene: failed to register render pipeline for model %q: %v", mdl.Name(), err))
	}

	return inst
}

// assignShadowSlots reassigns shadow cube slots to the enabled shadow-casting
// lights nearest the camera and returns a caster→slot index map for marshaling.
// Lights without a slot shade with ShadowIndex = NoShadowIndex. Caller must hold
// s.mu write lock.
func (s *scene) assignShadowSlots() map[light.Light]uint32 {
	s.shadowSlots = s.shadowSlots[:0]
	if s.shadowCubeView == nil {
		return nil
	}

	casters := make([]light.Light, 0, s.maxShadowCasters)
	for _, l := range s.lights {
		if l.Enabled() && l.CastsShadows() {
			casters = append(casters, l)
		}
	}
	if len(casters) == 0 {
		return nil
	}

	if len(casters) > s.maxShadowCasters {
		var camX, camY, camZ float32
		if s.cam != nil {
			camX, camY, camZ = s.cam.Position()
		}
		sort.SliceStable(casters, func(i, j int) bool {
			pi, pj := casters[i].Position(), casters[j].Position()
			di := sq(pi[0]-camX) + sq(pi[1]-camY) + sq(pi[2]-camZ)
			dj := sq(pj[0]-camX) + sq(pj[1]-camY) + sq(pj[2]-camZ)
			return di < dj
		})
		casters = casters[:s.maxShadowCasters]
	}

	slotOf := make(map[light.Light]uint32, len(casters))
	for i, l := range casters {
		s.shadowSlots = append(s.shadowSlots, l)
		slotOf[l] = uint32(i)
	}
	return slotOf
}

func sq(v float32) float32 { return v * v }

func (s *scene) PrepareFrame(deltaTime float32) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.r == nil {
		return
	}

	// Update camera matrices and write the camera uniform to the GPU once per frame.
	var frustum *common.Frustum
	if s.cam != nil {
		s.cam.Update()
		vpMat := s.cam.ViewProjectionMatrix()
		if camBGP := s.cam.BindGroupProvider(); camBGP != nil {
			camUniform := camera.GPUCameraUniform{ViewProj: vpMat}
			camUniform.CameraPosition[0], camUniform.CameraPosition[1], camUniform.CameraPosition[2] = s.cam.Position()
			s.r.WriteBuffers([]bind_group_provider.BufferWrite{
				{
					Provider: camBGP,
					Binding:  0,
					Offset:   0,
					Data:     camUniform.Marshal(),
				},
			})
		}

		// Extract frustum planes for CPU-side visibility culling.
		if !s.cullingDisabled {
			f := s.cam.Frustum()
			frustum = &f
		}
	}

	// Sync attached lights: copy each game object's world position to its light.
	for _, obj := range s.lightObjects {
		if l := obj.Light(); l != nil && obj.Enabled() {
			x, y, z := obj.Position()
			l.SetPosition(x, y, z)
		}
	}

	// Assign shadow cube slots for this frame, then marshal the light buffer with
	// each light's slot index so the lit pass knows which cube to sample.
	slotOf := s.assignShadowSlots()
	if s.lightsBGP != nil {
		gpuLights := make([]light.GPULight, 0, len(s.lights))
		for _, l := range s.lights {
			if !l.Enabled() {
				continue
			}
			shadowIndex := light.NoShadowIndex
			if slot, ok := slotOf[l]; ok {
				shadowIndex = slot
			}
			gpuLights = append(gpuLights, light.ToGPULight(l, shadowIndex))
		}
		header := light.GPULightHeader{AmbientColor: s.ambientColor}
		lightData := light.MarshalLightBuffer(header, gpuLights)
		headerSize := header.Size()
		writes := []bind_group_provider.BufferWrite{
			{
				Provider: s.lightsBGP,
				Binding:  0, // light_header uniform
				Offset:   0,
				Data:     lightData[:headerSize],
			},
		}
		if len(lightData) > headerSize {
			writes = append(writes, bind_group_provider.BufferWrite{
				Provider: s.lightsBGP,
				Binding:  1, // lights storage array
				Offset:   0,
				Data:     lightData[headerSize:],
			})
		}
		s.r.WriteBuffers(writes)
	}

	// Process all instancers in two phases:
	// Phase 1 (parallel): fan out the rotation advance and frustum pack across goroutines.
	// Phase 2 (serial): grow instance buffers as needed and coalesce buffer writes.

	jobs := s.packJobs[:0]
	for mdl, inst := range s.instancerPool {
		if inst.InstanceCount() == 0 {
			if meshBGP := mdl.MeshProvider(); meshBGP != nil {
				meshBGP.SetInstanceCount(0)
			}
			continue
		}
		jobs = append(jobs, packJob{inst: inst, mdl: mdl})
	}
	s.packJobs = jobs

	// Phase 1: parallel CPU prep — submit each instancer's advance+pack to the
	// prep pool. Workers are reused across frames (no goroutine spawn overhead).
	// A WaitGroup provides per-frame barrier sync since pool.Wait() blocks until
	// workers idle-exit which is unsuitable for frame-rate workloads.
	var wg sync.WaitGroup
	for i := range jobs {
		wg.Add(1)
		job := &jobs[i]
		s.prepPool.SubmitTask(worker.Task{
			ID: i,
			Do: func() (any, error) {
				defer wg.Done()
				job.inst.Advance(deltaTime)
				job.data, job.count = job.inst.PackVisible(frustum, job.mdl.BoundingRadius())
				return nil, nil
			},
		})
	}
	wg.Wait()

	// Phase 2: coalesced GPU submission — grow any instance buffers whose
	// instancer capacity outgrew the allocation, then collect all packed streams
	// into a single WriteBuffers call. This reduces mutex acquisitions from N to 1.
	allWrites := s.writePool[:0]
	for i := range jobs {
		job := &jobs[i]
		meshBGP := job.mdl.MeshProvider()
		if meshBGP == nil {
			continue
		}

		required := uint64(job.inst.MaxInstances()) * instancer.InstanceStride
		if s.instanceBufCaps[job.mdl] < required {
			if err := s.r.InitInstanceBuffers(meshBGP, required, required); err != nil {
				continue
			}
			s.instanceBufCaps[job.mdl] = required
		}

		meshBGP.SetInstanceCount(int(job.count))
		if job.count > 0 {
			allWrites = append(allWrites, bind_group_provider.BufferWrite{
				Provider: meshBGP,
				Binding:  bind_group_provider.BindingInstance,
				Offset:   0,
				Data:     job.data,
			})
		}
	}
	s.writePool = allWrites

	if len(allWrites) > 0 {
		s.r.WriteBuffers(allWrites)
	}
}

func (s *scene) DrawCalls() error {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.r == nil {
		return fmt.Errorf("scene %q has no renderer attached", s.name)
	}

	for mdl := range s.instancerPool {
		meshProvider := mdl.MeshProvider()
		if meshProvider == nil {
			continue
		}

		// Instance count for this frame is the frustum-visible set packed by
		// PrepareFrame, not the instancer's registered total.
		visible := meshProvider.InstanceCount()
		if visible == 0 {
			continue
		}

		mats := mdl.RenderMaterials()
		if len(mats) == 0 {
			continue
		}

		for _, mat := range mats {
			pipelineKey := mat.PipelineKey()
			if pipelineKey == "" {
				continue
			}

			// Look up the render pipeline to discover bind group layouts from both shaders.
			rp := s.r.Pipeline(pipelineKey)
			if rp == nil {
				continue
			}
			renderShader := rp.Shader(shader.ShaderTypeVertex)
			if renderShader == nil {
				continue
			}

			// Collect declarations from vertex and fragment shaders.
			var allDecls []shader.Annotation
			allDecls = append(allDecls, renderShader.Declarations()...)
			if fragShader := rp.Shader(shader.ShaderTypeFragment); fragShader != nil {
				allDecls = append(allDecls, fragShader.Declarations()...)
			}

			// Build bind groups dynamically by matching each group's declarations to a
			// provider. Groups are iterated in index order so bindGroups[i] maps to @group(i).
			maxGroup := -1
			groupProviders := make(map[int]bind_group_provider.BindGroupProvider)
			for _, decl := range allDecls {
				if decl.Group == nil {
					continue
				}
				g := *decl.Group
				if g > maxGroup {
					maxGroup = g
				}
				if _, exists := groupProviders[g]; exists {
					continue
				}

				var provider bind_group_provider.BindGroupProvider
				switch decl.Type {
				case shader.AnnotationTypeProvider:
					switch decl.Args[0] {
					case shader.AnnotationArgCamera:
						if s.cam != nil {
							provider = s.cam.BindGroupProvider()
						}
					case shader.AnnotationArgMaterial:
						provider = mat.BindGroupProvider()
					case shader.AnnotationArgLights:
						if s.lightsBGP != nil {
							provider = s.lightsBGP
						}
					case shader.AnnotationArgShadow:
						if s.shadowLitBGP != nil {
							provider = s.shadowLitBGP
						}
					case shader.AnnotationArgTiles:
						if s.tileLitBGP != nil {
							provider = s.tileLitBGP
						}
					case shader.AnnotationArgSkybox:
						if s.skyboxBGP != nil {
							provider = s.skyboxBGP
						}
					}
				case shader.AnnotationTypeBindingGroup:
					typeArg := string(decl.Args[2])
					if stripped, ok := strings.CutPrefix(typeArg, "array<"); ok {
						typeArg = strings.TrimSuffix(stripped, ">")
					}
					switch shader.AnnotationArg(typeArg) {
					case shader.AnnotationArgCamera:
						if s.cam != nil {
							provider = s.cam.BindGroupProvider()
						}
					case shader.AnnotationArgLight, shader.AnnotationArgLightHeader:
						if s.lightsBGP != nil {
							provider = s.lightsBGP
						}
					case shader.AnnotationArgShadowParams:
						if s.shadowLitBGP != nil {
							provider = s.shadowLitBGP
						}
					case shader.AnnotationArgTileUniforms:
						if s.tileLitBGP != nil {
							provider = s.tileLitBGP
						}
					}
				}

				if provider != nil {
					groupProviders[g] = provider
				}
			}

			bindGroups := s.drawBindGroupsPool[:0]
			skipMaterial := false
			for g := 0; g <= maxGroup; g++ {
				provider, ok := groupProviders[g]
				if !ok || provider == nil {
					skipMaterial = true
					break
				}
				bindGroups = append(bindGroups, provider)
			}
			if skipMaterial {
				continue
			}

			if err := s.r.DrawCall(pipelineKey, meshProvider, uint32(visible), bindGroups); err != nil {
				return fmt.Errorf("draw call failed for model %q in scene %q: %w", mdl.Name(), s.name, err)
			}
		}
	}

	return nil
}
