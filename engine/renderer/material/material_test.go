package material

import "testing"

func TestNewMaterialDefaults(t *testing.T) {
	m := NewMaterial(WithName("floor"))

	if m.Name() != "floor" {
		t.Errorf("Name = %q, want %q", m.Name(), "floor")
	}
	if got := m.BaseColor(); got != [4]float32{1, 1, 1, 1} {
		t.Errorf("BaseColor = %v, want opaque white", got)
	}
	if m.Metallic() != 0 {
		t.Errorf("Metallic = %v, want 0 (dielectric)", m.Metallic())
	}
	if m.Roughness() != 1 {
		t.Errorf("Roughness = %v, want 1 (fully rough)", m.Roughness())
	}
	if m.DiffuseTexture() != nil || m.NormalTexture() != nil || m.MetallicRoughnessTexture() != nil {
		t.Error("expected no texture references on a default material")
	}
	if m.BindGroupProvider() != nil {
		t.Error("expected nil bind group provider before loader GPU init")
	}
}

func TestNewMaterialFactors(t *testing.T) {
	m := NewMaterial(
		WithName("brushed-steel"),
		WithBaseColor([4]float32{0.8, 0.8, 0.85, 1}),
		WithMetallic(1),
		WithRoughness(0.35),
		WithPipelineKey("crate"),
	)

	if got := m.BaseColor(); got != [4]float32{0.8, 0.8, 0.85, 1} {
		t.Errorf("BaseColor = %v, want the configured factor", got)
	}
	if m.Metallic() != 1 {
		t.Errorf("Metallic = %v, want 1", m.Metallic())
	}
	if m.Roughness() != 0.35 {
		t.Errorf("Roughness = %v, want 0.35", m.Roughness())
	}
	if m.PipelineKey() != "crate" {
		t.Errorf("PipelineKey = %q, want %q", m.PipelineKey(), "crate")
	}
}
