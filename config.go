package arbor

import (
	"errors"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"
)

// ErrInvalidConfig is wrapped by every configuration validation error.
var ErrInvalidConfig = errors.New("arbor: invalid config")

// ShadowMapConfig configures the shadow pass.
type ShadowMapConfig struct {
	Enabled    bool `yaml:"enabled"`
	AutoUpdate bool `yaml:"autoUpdate"`
	// MapSize is used for lights whose shadow has no explicit size.
	MapSize int `yaml:"mapSize"`
}

// Config holds renderer-wide settings.
type Config struct {
	// LightingGroups is the number of lighting groups per scene (at least 1).
	LightingGroups int `yaml:"lightingGroups"`

	ShadowMap ShadowMapConfig `yaml:"shadowMap"`

	OutputColorSpace    ColorSpace  `yaml:"outputColorSpace"`
	ToneMapping         ToneMapping `yaml:"toneMapping"`
	ToneMappingExposure float32     `yaml:"toneMappingExposure"`

	// SortObjects sorts render queue buckets. When false items keep
	// traversal order.
	SortObjects bool `yaml:"sortObjects"`

	// Debug logs per-frame stats at debug level and turns on debug mode for
	// every scene the renderer draws.
	Debug bool `yaml:"debug"`
}

// DefaultConfig returns the settings used when no configuration is given.
func DefaultConfig() Config {
	return Config{
		LightingGroups: 1,
		ShadowMap: ShadowMapConfig{
			Enabled:    true,
			AutoUpdate: true,
			MapSize:    512,
		},
		OutputColorSpace:    ColorSpaceSRGB,
		ToneMapping:         NoToneMapping,
		ToneMappingExposure: 1,
		SortObjects:         true,
	}
}

// LoadConfig decodes YAML from r on top of DefaultConfig. Unknown fields are
// rejected.
func LoadConfig(r io.Reader) (Config, error) {
	cfg := DefaultConfig()
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&cfg); err != nil && !errors.Is(err, io.EOF) {
		return Config{}, fmt.Errorf("decode config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// LoadConfigFile reads and decodes the YAML file at path.
func LoadConfigFile(path string) (Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return Config{}, fmt.Errorf("open config: %w", err)
	}
	defer f.Close()
	return LoadConfig(f)
}

// Validate reports the first invalid setting.
func (c Config) Validate() error {
	if c.LightingGroups < 1 || c.LightingGroups > 32 {
		return fmt.Errorf("%w: lightingGroups must be in [1, 32], got %d", ErrInvalidConfig, c.LightingGroups)
	}
	if c.ShadowMap.MapSize <= 0 {
		return fmt.Errorf("%w: shadowMap.mapSize must be positive, got %d", ErrInvalidConfig, c.ShadowMap.MapSize)
	}
	if c.ToneMappingExposure < 0 {
		return fmt.Errorf("%w: toneMappingExposure must not be negative", ErrInvalidConfig)
	}
	return nil
}

// output returns the main pass output settings.
func (c Config) output() OutputSettings {
	return OutputSettings{
		ColorSpace:          c.OutputColorSpace,
		ToneMapping:         c.ToneMapping,
		ToneMappingExposure: c.ToneMappingExposure,
	}
}
