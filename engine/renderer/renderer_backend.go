package renderer

// RendererBackendType selects which GPU API implementation backs the Renderer.
// WebGPU is currently the only backend; the indirection exists so the engine
// packages never talk to a GPU API directly.
type RendererBackendType int

const (
	// BackendTypeWGPU selects the WebGPU backend (cogentcore/webgpu).
	BackendTypeWGPU RendererBackendType = iota
)

// PresentMode controls how finished frames reach the display surface.
type PresentMode int

const (
	// PresentModeVSync waits for vertical blank, capping the frame rate to the
	// monitor refresh rate. No tearing.
	PresentModeVSync PresentMode = iota

	// PresentModeUncapped presents immediately. Lowest latency, may tear.
	PresentModeUncapped
)

// MSAASampleCount is the multisample anti-aliasing sample count for the lit
// color pass. Shadow depth passes always render at sample count 1 regardless
// of this setting, since frag_depth output disables multisampled depth.
// WebGPU guarantees 1 and 4; 8 and 16 are adapter-dependent.
type MSAASampleCount uint32

const (
	// MSAAOff disables multisampling (sample count 1).
	MSAAOff MSAASampleCount = 1

	// MSAA4x is the default 4-sample mode, guaranteed by WebGPU.
	MSAA4x MSAASampleCount = 4

	// MSAA8x is adapter-dependent.
	MSAA8x MSAASampleCount = 8

	// MSAA16x is adapter-dependent.
	MSAA16x MSAASampleCount = 16
)

// RendererBackend is the backend interface the Renderer drives. It embeds the
// concrete interface for the selected GPU API.
type RendererBackend interface {
	wgpuRendererBackend
}
