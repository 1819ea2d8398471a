package window

import (
	"fmt"
	"runtime"

	"github.com/cogentcore/webgpu/wgpu"
)

// Window provides platform windowing and input event handling.
// It wraps the platform window implementation behind a common interface
// so the engine and renderer never touch GLFW directly.
type Window interface {
	// SetUpdateCallback sets the function called each message loop iteration.
	//
	// Parameters:
	//   - callback: function to call (or nil to disable)
	SetUpdateCallback(callback func())

	// SetResizeCallback sets the function called when the framebuffer is resized.
	//
	// Parameters:
	//   - callback: function receiving new width and height in pixels
	SetResizeCallback(callback func(width, height int))

	// SetScrollCallback sets the callback for mouse scroll wheel events.
	//
	// Parameters:
	//   - callback: function receiving scroll delta (positive = up, negative = down)
	SetScrollCallback(callback func(delta float32))

	// SetKeyDownCallback sets the callback for key press and repeat events.
	//
	// Parameters:
	//   - callback: function receiving the key code
	SetKeyDownCallback(callback func(keyCode uint32))

	// SetKeyUpCallback sets the callback for key release events.
	//
	// Parameters:
	//   - callback: function receiving the key code
	SetKeyUpCallback(callback func(keyCode uint32))

	// SetMiddleMouseDownCallback sets the callback for middle mouse button press.
	//
	// Parameters:
	//   - callback: function receiving cursor x, y position
	SetMiddleMouseDownCallback(callback func(x, y int32))

	// SetMiddleMouseUpCallback sets the callback for middle mouse button release.
	//
	// Parameters:
	//   - callback: function receiving cursor x, y position
	SetMiddleMouseUpCallback(callback func(x, y int32))

	// SetMouseMoveCallback sets the callback for cursor movement.
	//
	// Parameters:
	//   - callback: function receiving cursor x, y position
	SetMouseMoveCallback(callback func(x, y int32))

	// SurfaceDescriptor returns a wgpu.SurfaceDescriptor for creating a WebGPU
	// surface over this window. The descriptor is built by the wgpuglfw bridge
	// and is platform-appropriate (Windows HWND, X11, Wayland, macOS Metal).
	//
	// Returns:
	//   - *wgpu.SurfaceDescriptor: the surface descriptor, or nil before the window is spawned
	SurfaceDescriptor() *wgpu.SurfaceDescriptor

	// IsRunning returns true while the window has not been closed.
	//
	// Returns:
	//   - bool: true if the window is running
	IsRunning() bool

	// Close closes the window and releases platform resources.
	//
	// Returns:
	//   - error: error if close operation fails
	Close() error

	// ProcessMessages runs the window message loop. Blocks until the window
	// is closed, invoking the update callback each iteration.
	ProcessMessages()

	// Width returns the current framebuffer width in pixels.
	//
	// Returns:
	//   - int: width in pixels
	Width() int

	// Height returns the current framebuffer height in pixels.
	//
	// Returns:
	//   - int: height in pixels
	Height() int
}

// gameWindow is the implementation of the Window interface.
// It holds configuration, the platform window handle, and event callbacks.
type gameWindow struct {
	// title is shown in the window title bar.
	title string

	// maxWidth / maxHeight bound the window during resize.
	maxWidth  int
	maxHeight int

	// minWidth / minHeight bound the window during resize.
	minWidth  int
	minHeight int

	// width and height track the current framebuffer size in pixels.
	width  int
	height int

	// internalWindow holds the platform-specific window data (glfwWindow).
	internalWindow any

	// onUpdate is called each iteration of the message loop (if set).
	onUpdate func()

	// onResize is called when the framebuffer is resized.
	onResize func(width, height int)

	// onScroll is called for mouse wheel events.
	onScroll func(delta float32)

	// onKeyDown / onKeyUp are called on key press/repeat and release.
	onKeyDown func(keyCode uint32)
	onKeyUp   func(keyCode uint32)

	// onMiddleMouseDown / onMiddleMouseUp are called on middle button press and release.
	onMiddleMouseDown func(x, y int32)
	onMiddleMouseUp   func(x, y int32)

	// onMouseMove is called when the cursor moves within the window.
	onMouseMove func(x, y int32)
}

var _ Window = &gameWindow{}

// NewWindow creates a new Window with the specified options.
// Applies default values first, then each option in order. Panics if the
// platform window cannot be created; a windowed engine cannot run without one.
//
// Parameters:
//   - options: functional options to configure the window
//
// Returns:
//   - Window: the configured window
func NewWindow(options ...WindowBuilderOption) Window {
	w := &gameWindow{
		title:     "Mood",
		maxWidth:  3840,
		maxHeight: 2160,
		minWidth:  640,
		minHeight: 480,
		width:     1280,
		height:    720,
	}
	for _, opt := range options {
		opt(w)
	}
	if err := newPlatformWindow(w); err != nil {
		panic(fmt.Sprintf("failed to create platform window: %v", err))
	}
	return w
}

func (w *gameWindow) SetUpdateCallback(callback func()) {
	w.onUpdate = callback
}

func (w *gameWindow) SetResizeCallback(callback func(width, height int)) {
	w.onResize = callback
}

func (w *gameWindow) SetScrollCallback(callback func(delta float32)) {
	w.onScroll = callback
}

func (w *gameWindow) SetKeyDownCallback(callback func(keyCode uint32)) {
	w.onKeyDown = callback
}

func (w *gameWindow) SetKeyUpCallback(callback func(keyCode uint32)) {
	w.onKeyUp = callback
}

func (w *gameWindow) SetMiddleMouseDownCallback(callback func(x, y int32)) {
	w.onMiddleMouseDown = callback
}

func (w *gameWindow) SetMiddleMouseUpCallback(callback func(x, y int32)) {
	w.onMiddleMouseUp = callback
}

func (w *gameWindow) SetMouseMoveCallback(callback func(x, y int32)) {
	w.onMouseMove = callback
}

func (w *gameWindow) SurfaceDescriptor() *wgpu.SurfaceDescriptor {
	return platformGetSurfaceDescriptor(w)
}

func (w *gameWindow) IsRunning() bool {
	return platformIsRunningCheck(w)
}

func (w *gameWindow) Close() error {
	return platformCloseWindow(w)
}

func (w *gameWindow) ProcessMessages() {
	for w.IsRunning() {
		if succ := platformProcessMessages(w); !succ {
			break
		}

		if w.onUpdate != nil {
			w.onUpdate()
		}

		runtime.Gosched()
	}
}

func (w *gameWindow) Width() int {
	return w.width
}

func (w *gameWindow) Height() int {
	return w.height
}
