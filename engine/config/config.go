package config

import (
	"fmt"
	"os"

	"github.com/CygnusX-26/mood/engine"
	"github.com/CygnusX-26/mood/engine/scene"
	"github.com/CygnusX-26/mood/engine/window"
	"gopkg.in/yaml.v3"
)

// Config is the YAML representation of an engine configuration file.
// All sections and fields are optional; zero values mean "use the built-in
// default" when expanding into builder options.
type Config struct {
	Window WindowConfig `yaml:"window"`
	Engine EngineConfig `yaml:"engine"`
	Scene  SceneConfig  `yaml:"scene"`
	Shadow ShadowConfig `yaml:"shadow"`
}

// WindowConfig configures the platform window.
type WindowConfig struct {
	Title     string `yaml:"title"`
	Width     int    `yaml:"width"`
	Height    int    `yaml:"height"`
	MinWidth  int    `yaml:"min_width"`
	MinHeight int    `yaml:"min_height"`
	MaxWidth  int    `yaml:"max_width"`
	MaxHeight int    `yaml:"max_height"`
}

// EngineConfig configures the engine loop.
type EngineConfig struct {
	TickRate         float64 `yaml:"tick_rate"`
	RenderFrameLimit float64 `yaml:"render_frame_limit"`
	Profiling        bool    `yaml:"profiling"`
}

// SceneConfig configures scene-level behavior.
type SceneConfig struct {
	PrepWorkers     int  `yaml:"prep_workers"`
	CullingDisabled bool `yaml:"culling_disabled"`
}

// ShadowConfig configures omnidirectional shadow mapping.
type ShadowConfig struct {
	Near             float32 `yaml:"near"`
	Bias             float32 `yaml:"bias"`
	MapResolution    int     `yaml:"map_resolution"`
	MaxShadowCasters int     `yaml:"max_shadow_casters"`
}

// Load reads and parses a YAML configuration file.
//
// Parameters:
//   - path: the configuration file path
//
// Returns:
//   - *Config: the parsed configuration
//   - error: error if the file cannot be read or parsed
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: read %s: %w", path, err)
	}
	return Parse(data)
}

// Parse parses YAML configuration bytes.
//
// Parameters:
//   - data: raw YAML bytes
//
// Returns:
//   - *Config: the parsed configuration
//   - error: error if parsing fails
func Parse(data []byte) (*Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("config: parse: %w", err)
	}
	return &cfg, nil
}

// WindowOptions expands the window section into window builder options.
// Only fields with non-zero values produce options.
//
// Returns:
//   - []window.WindowBuilderOption: options to pass to window.NewWindow
func (c *Config) WindowOptions() []window.WindowBuilderOption {
	var opts []window.WindowBuilderOption
	if c.Window.Title != "" {
		opts = append(opts, window.WithTitle(c.Window.Title))
	}
	if c.Window.Width > 0 {
		opts = append(opts, window.WithWidth(c.Window.Width))
	}
	if c.Window.Height > 0 {
		opts = append(opts, window.WithHeight(c.Window.Height))
	}
	if c.Window.MinWidth > 0 {
		opts = append(opts, window.WithMinWidth(c.Window.MinWidth))
	}
	if c.Window.MinHeight > 0 {
		opts = append(opts, window.WithMinHeight(c.Window.MinHeight))
	}
	if c.Window.MaxWidth > 0 {
		opts = append(opts, window.WithMaxWidth(c.Window.MaxWidth))
	}
	if c.Window.MaxHeight > 0 {
		opts = append(opts, window.WithMaxHeight(c.Window.MaxHeight))
	}
	return opts
}

// EngineOptions expands the engine section into engine builder options.
//
// Returns:
//   - []engine.EngineBuilderOption: options to pass to engine.NewEngine
func (c *Config) EngineOptions() []engine.EngineBuilderOption {
	var opts []engine.EngineBuilderOption
	if c.Engine.TickRate > 0 {
		opts = append(opts, engine.WithTickRate(c.Engine.TickRate))
	}
	if c.Engine.RenderFrameLimit > 0 {
		opts = append(opts, engine.WithRenderFrameLimit(c.Engine.RenderFrameLimit))
	}
	if c.Engine.Profiling {
		opts = append(opts, engine.WithProfiling(true))
	}
	return opts
}

// SceneOptions expands the scene and shadow sections into scene builder options.
//
// Returns:
//   - []scene.SceneBuilderOption: options to pass to scene.NewScene
func (c *Config) SceneOptions() []scene.SceneBuilderOption {
	var opts []scene.SceneBuilderOption
	if c.Scene.PrepWorkers > 0 {
		opts = append(opts, scene.WithPrepWorkers(c.Scene.PrepWorkers))
	}
	if c.Scene.CullingDisabled {
		opts = append(opts, scene.WithCullingDisabled(true))
	}
	if c.Shadow.Near > 0 {
		opts = append(opts, scene.WithShadowNear(c.Shadow.Near))
	}
	if c.Shadow.Bias > 0 {
		opts = append(opts, scene.WithShadowBias(c.Shadow.Bias))
	}
	if c.Shadow.MapResolution > 0 {
		opts = append(opts, scene.WithShadowMapResolution(c.Shadow.MapResolution))
	}
	if c.Shadow.MaxShadowCasters > 0 {
		opts = append(opts, scene.WithMaxShadowCasters(c.Shadow.MaxShadowCasters))
	}
	return opts
}
