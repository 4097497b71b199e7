package instanced

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/gekko3d/instanced/rt/gpu"
	"github.com/gogpu/gputypes"
	"github.com/rotisserie/eris"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRenderConfig_Defaults(t *testing.T) {
	cfg := DefaultRenderConfig()
	require.NoError(t, cfg.Validate())

	assert.Equal(t, 1280, cfg.WindowWidth)
	assert.Equal(t, 720, cfg.WindowHeight)
	assert.Equal(t, uint32(1), cfg.MsaaSamples)

	depth, err := cfg.DepthTextureFormat()
	require.NoError(t, err)
	assert.Equal(t, gputypes.TextureFormatDepth32Float, depth)
}

func TestRenderConfig_FromEnv(t *testing.T) {
	t.Setenv("INSTANCED_WINDOW_WIDTH", "640")
	t.Setenv("INSTANCED_MSAA_SAMPLES", "4")
	t.Setenv("INSTANCED_DEPTH_FORMAT", "depth24plus")

	cfg, err := LoadRenderConfig()
	require.NoError(t, err)
	assert.Equal(t, 640, cfg.WindowWidth)
	assert.Equal(t, 720, cfg.WindowHeight)
	assert.Equal(t, uint32(4), cfg.MsaaSamples)

	depth, err := cfg.DepthTextureFormat()
	require.NoError(t, err)
	assert.Equal(t, gputypes.TextureFormatDepth24Plus, depth)
}

func TestRenderConfig_FromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "render.env")
	require.NoError(t, os.WriteFile(path, []byte("INSTANCED_WINDOW_TITLE=demo\nINSTANCED_WINDOW_HEIGHT=480\n"), 0644))

	cfg, err := LoadRenderConfigFile(path)
	require.NoError(t, err)
	assert.Equal(t, "demo", cfg.WindowTitle)
	assert.Equal(t, 480, cfg.WindowHeight)
	assert.Equal(t, 1280, cfg.WindowWidth)
}

func TestRenderConfig_Invalid(t *testing.T) {
	cfg := DefaultRenderConfig()
	cfg.MsaaSamples = 2
	assert.Error(t, cfg.Validate())

	cfg = DefaultRenderConfig()
	cfg.DepthFormat = "rgba8unorm"
	err := cfg.Validate()
	require.Error(t, err)
	assert.True(t, eris.Is(err, gpu.ErrUnsupportedFormat))

	cfg = DefaultRenderConfig()
	cfg.WindowHeight = 0
	assert.Error(t, cfg.Validate())
}

func TestRenderConfig_InvalidEnv(t *testing.T) {
	t.Setenv("INSTANCED_MSAA_SAMPLES", "8")
	_, err := LoadRenderConfig()
	assert.Error(t, err)
}
