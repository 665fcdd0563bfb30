package arbor

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfigIsValid(t *testing.T) {
	require.NoError(t, DefaultConfig().Validate())
}

func TestLoadConfigOverridesDefaults(t *testing.T) {
	cfg, err := LoadConfig(strings.NewReader(`
lightingGroups: 4
shadowMap:
  enabled: false
  mapSize: 1024
outputColorSpace: linear
toneMapping: aces
toneMappingExposure: 0.8
`))
	require.NoError(t, err)
	assert.Equal(t, 4, cfg.LightingGroups)
	assert.False(t, cfg.ShadowMap.Enabled)
	assert.Equal(t, 1024, cfg.ShadowMap.MapSize)
	// Unset keys keep their defaults.
	assert.True(t, cfg.ShadowMap.AutoUpdate)
	assert.True(t, cfg.SortObjects)
	assert.Equal(t, ColorSpaceLinear, cfg.OutputColorSpace)
	assert.Equal(t, ACESFilmicToneMapping, cfg.ToneMapping)
	assert.InDelta(t, 0.8, cfg.ToneMappingExposure, 1e-6)
}

func TestLoadConfigEmpty(t *testing.T) {
	cfg, err := LoadConfig(strings.NewReader(""))
	require.NoError(t, err)
	assert.Equal(t, DefaultConfig(), cfg)
}

func TestLoadConfigUnknownField(t *testing.T) {
	_, err := LoadConfig(strings.NewReader("shadowMaps: {}\n"))
	require.Error(t, err)
}

func TestLoadConfigInvalidEnum(t *testing.T) {
	_, err := LoadConfig(strings.NewReader("toneMapping: filmic\n"))
	require.ErrorIs(t, err, ErrInvalidConfig)
	assert.Contains(t, err.Error(), "filmic")

	_, err = LoadConfig(strings.NewReader("outputColorSpace: p3\n"))
	require.ErrorIs(t, err, ErrInvalidConfig)
}

func TestLoadConfigValidates(t *testing.T) {
	for _, doc := range []string{
		"lightingGroups: 0\n",
		"lightingGroups: 33\n",
		"shadowMap: {mapSize: 0}\n",
		"toneMappingExposure: -1\n",
	} {
		_, err := LoadConfig(strings.NewReader(doc))
		assert.ErrorIs(t, err, ErrInvalidConfig, doc)
	}
}

func TestLoadConfigFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "arbor.yaml")
	require.NoError(t, os.WriteFile(path, []byte("sortObjects: false\ndebug: true\n"), 0o644))
	cfg, err := LoadConfigFile(path)
	require.NoError(t, err)
	assert.False(t, cfg.SortObjects)
	assert.True(t, cfg.Debug)

	_, err = LoadConfigFile(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestNewRendererRejectsInvalidConfig(t *testing.T) {
	cfg := DefaultConfig()
	cfg.LightingGroups = 0
	_, err := NewRenderer(cfg, &recordingBackend{})
	assert.ErrorIs(t, err, ErrInvalidConfig)

	_, err = NewRenderer(DefaultConfig(), nil)
	assert.ErrorIs(t, err, ErrInvalidConfig)
}

func TestEnumStrings(t *testing.T) {
	assert.Equal(t, "aces", ACESFilmicToneMapping.String())
	assert.Equal(t, "linear", ColorSpaceLinear.String())
	assert.Equal(t, "directional", DirectionalLight.String())
	assert.Equal(t, "cube", AttachmentCube.String())
}
