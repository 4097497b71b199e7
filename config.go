package instanced

import (
	"github.com/JeremyLoy/config"
	"github.com/gekko3d/instanced/rt/gpu"
	"github.com/gogpu/gputypes"
	"github.com/rotisserie/eris"
)

// RenderConfig holds the window and render target settings. Fields map to
// snake case environment variables prefixed with INSTANCED_, e.g.
// INSTANCED_MSAA_SAMPLES=4.
type RenderConfig struct {
	WindowWidth  int     `config:"INSTANCED_WINDOW_WIDTH"`
	WindowHeight int     `config:"INSTANCED_WINDOW_HEIGHT"`
	WindowTitle  string  `config:"INSTANCED_WINDOW_TITLE"`
	MsaaSamples  uint32  `config:"INSTANCED_MSAA_SAMPLES"`
	DepthFormat  string  `config:"INSTANCED_DEPTH_FORMAT"`
	Debug        bool    `config:"INSTANCED_DEBUG"`
	ClearR       float64 `config:"INSTANCED_CLEAR_R"`
	ClearG       float64 `config:"INSTANCED_CLEAR_G"`
	ClearB       float64 `config:"INSTANCED_CLEAR_B"`
}

func DefaultRenderConfig() RenderConfig {
	return RenderConfig{
		WindowWidth:  1280,
		WindowHeight: 720,
		WindowTitle:  "instanced",
		MsaaSamples:  1,
		DepthFormat:  "depth32float",
		ClearR:       0.05,
		ClearG:       0.06,
		ClearB:       0.08,
	}
}

// LoadRenderConfig overlays the environment on the defaults.
func LoadRenderConfig() (RenderConfig, error) {
	cfg := DefaultRenderConfig()
	if err := config.FromEnv().To(&cfg); err != nil {
		return cfg, eris.Wrap(err, "failed to read render config from env")
	}
	return cfg, cfg.Validate()
}

// LoadRenderConfigFile reads a KEY=value file, then the environment.
func LoadRenderConfigFile(path string) (RenderConfig, error) {
	cfg := DefaultRenderConfig()
	if err := config.From(path).FromEnv().To(&cfg); err != nil {
		return cfg, eris.Wrapf(err, "failed to read render config from %s", path)
	}
	return cfg, cfg.Validate()
}

func (c RenderConfig) Validate() error {
	if c.WindowWidth <= 0 || c.WindowHeight <= 0 {
		return eris.Errorf("invalid window size %dx%d", c.WindowWidth, c.WindowHeight)
	}
	if err := gpu.ValidateSampleCount(c.MsaaSamples); err != nil {
		return err
	}
	if _, err := c.DepthTextureFormat(); err != nil {
		return err
	}
	return nil
}

func (c RenderConfig) DepthTextureFormat() (gputypes.TextureFormat, error) {
	return gpu.ParseDepthFormat(c.DepthFormat)
}
