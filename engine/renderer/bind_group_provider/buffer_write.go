package bind_group_provider

// Negative binding values in a BufferWrite target the provider's vertex-stage instance
// buffers rather than a bind group buffer. Regular bind group bindings are always >= 0.
const (
	// BindingInstance targets the provider's main-pass instance buffer.
	BindingInstance = -1

	// BindingShadowInstance targets the provider's shadow-pass instance buffer.
	BindingShadowInstance = -2
)

// BufferWrite describes a single GPU buffer write operation targeting a specific binding
// on a BindGroupProvider at a given byte offset.
type BufferWrite struct {
	Provider BindGroupProvider
	Binding  int
	Offset   uint64
	Data     []byte
}
