package config

import (
	"testing"
)

func TestParse(t *testing.T) {
	data := []byte(`
window:
  title: "Mood"
  width: 1280
  height: 720
engine:
  tick_rate: 120
  profiling: true
scene:
  prep_workers: 4
shadow:
  near: 0.25
  bias: 0.004
  map_resolution: 2048
  max_shadow_casters: 2
`)
	cfg, err := Parse(data)
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}

	if cfg.Window.Title != "Mood" {
		t.Errorf("Window.Title = %q, want %q", cfg.Window.Title, "Mood")
	}
	if cfg.Window.Width != 1280 || cfg.Window.Height != 720 {
		t.Errorf("Window size = %dx%d, want 1280x720", cfg.Window.Width, cfg.Window.Height)
	}
	if cfg.Engine.TickRate != 120 {
		t.Errorf("Engine.TickRate = %v, want 120", cfg.Engine.TickRate)
	}
	if !cfg.Engine.Profiling {
		t.Error("Engine.Profiling = false, want true")
	}
	if cfg.Scene.PrepWorkers != 4 {
		t.Errorf("Scene.PrepWorkers = %d, want 4", cfg.Scene.PrepWorkers)
	}
	if cfg.Shadow.Near != 0.25 {
		t.Errorf("Shadow.Near = %v, want 0.25", cfg.Shadow.Near)
	}
	if cfg.Shadow.MapResolution != 2048 {
		t.Errorf("Shadow.MapResolution = %d, want 2048", cfg.Shadow.MapResolution)
	}
	if cfg.Shadow.MaxShadowCasters != 2 {
		t.Errorf("Shadow.MaxShadowCasters = %d, want 2", cfg.Shadow.MaxShadowCasters)
	}
}

func TestParseInvalid(t *testing.T) {
	if _, err := Parse([]byte("window: [not a map")); err == nil {
		t.Error("Parse accepted malformed YAML")
	}
}

func TestParseEmpty(t *testing.T) {
	cfg, err := Parse(nil)
	if err != nil {
		t.Fatalf("Parse failed on empty input: %v", err)
	}

	tests := []struct {
		name  string
		count int
	}{
		{"window options", len(cfg.WindowOptions())},
		{"engine options", len(cfg.EngineOptions())},
		{"scene options", len(cfg.SceneOptions())},
	}
	for _, tt := range tests {
		if tt.count != 0 {
			t.Errorf("%s from empty config = %d options, want 0", tt.name, tt.count)
		}
	}
}

func TestOptionExpansion(t *testing.T) {
	cfg := &Config{
		Window: WindowConfig{Title: "t", Width: 100},
		Engine: EngineConfig{TickRate: 30},
		Shadow: ShadowConfig{Bias: 0.01, MaxShadowCasters: 1},
	}

	if got := len(cfg.WindowOptions()); got != 2 {
		t.Errorf("WindowOptions count = %d, want 2", got)
	}
	if got := len(cfg.EngineOptions()); got != 1 {
		t.Errorf("EngineOptions count = %d, want 1", got)
	}
	if got := len(cfg.SceneOptions()); got != 2 {
		t.Errorf("SceneOptions count = %d, want 2", got)
	}
}
