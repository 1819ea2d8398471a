package pipeline

import (
	"testing"

	"github.com/cogentcore/webgpu/wgpu"
)

func TestNewPipelineDefaults(t *testing.T) {
	p := NewPipeline("lit", PipelineTypeRender)

	if p.Type() != PipelineTypeRender {
		t.Errorf("Type = %v, want PipelineTypeRender", p.Type())
	}
	if p.PipelineKey() != "lit" {
		t.Errorf("PipelineKey = %q, want %q", p.PipelineKey(), "lit")
	}
	if !p.DepthWriteEnabled() {
		t.Error("DepthWriteEnabled = false, want true by default")
	}
	if p.CullMode() != wgpu.CullModeNone {
		t.Errorf("CullMode = %v, want CullModeNone", p.CullMode())
	}
	if p.Pipeline() != (*wgpu.RenderPipeline)(nil) {
		t.Error("Pipeline() should be a nil *wgpu.RenderPipeline before registration")
	}
}

// TestNewPipelineSkyboxConfiguration covers the two pass-specific knobs: the
// skybox tests depth without writing it and culls front faces of its cube.
func TestNewPipelineSkyboxConfiguration(t *testing.T) {
	p := NewPipeline("skybox", PipelineTypeRender,
		WithDepthWriteEnabled(false),
		WithCullMode(wgpu.CullModeFront),
	)

	if p.DepthWriteEnabled() {
		t.Error("DepthWriteEnabled = true, want false")
	}
	if p.CullMode() != wgpu.CullModeFront {
		t.Errorf("CullMode = %v, want CullModeFront", p.CullMode())
	}
}
