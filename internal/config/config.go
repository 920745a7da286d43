// Package config loads run configurations from YAML and applies them to a
// parameter store.
package config

import (
	"fmt"
	"os"
	"sort"

	"github.com/lucasb-eyer/go-colorful"
	"gopkg.in/yaml.v3"

	"github.com/san-kum/marbling/internal/dynamo"
	"github.com/san-kum/marbling/internal/field"
	"github.com/san-kum/marbling/internal/params"
)

const (
	DefaultWidth  = 160
	DefaultHeight = 100
	DefaultFPS    = 60.0
	DefaultFrames = 600
	DefaultScale  = 4
)

type Config struct {
	Width   int                `yaml:"width"`
	Height  int                `yaml:"height"`
	FPS     float64            `yaml:"fps"`
	Frames  int                `yaml:"frames"`
	Workers int                `yaml:"workers"`
	Preset  string             `yaml:"preset,omitempty"`
	Params  map[string]float64 `yaml:"params,omitempty"`
	Colors  map[string]string  `yaml:"colors,omitempty"`
	Flags   map[string]bool    `yaml:"flags,omitempty"`
	Output  OutputConfig       `yaml:"output"`
	// Script is an optional pointer scenario file.
	Script string `yaml:"script,omitempty"`
}

type OutputConfig struct {
	Dir   string `yaml:"dir,omitempty"`
	Every int    `yaml:"every"`
	Scale int    `yaml:"scale"`
}

func DefaultConfig() *Config {
	return &Config{
		Width:  DefaultWidth,
		Height: DefaultHeight,
		FPS:    DefaultFPS,
		Frames: DefaultFrames,
		Output: OutputConfig{Scale: DefaultScale},
	}
}

func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}

func Save(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

// Validate checks structure and names. Out-of-range parameter values are
// accepted here and clamped by Apply.
func (c *Config) Validate() error {
	if c.Width < 1 || c.Height < 1 || c.Width > field.MaxTexels/c.Height {
		return fmt.Errorf("%w: size %dx%d", dynamo.ErrParameterBounds, c.Width, c.Height)
	}
	if !(c.FPS > 0) || !dynamo.IsFinite(c.FPS) {
		return fmt.Errorf("%w: fps %v", dynamo.ErrParameterBounds, c.FPS)
	}
	if c.Frames < 1 {
		return fmt.Errorf("%w: frames %d", dynamo.ErrParameterBounds, c.Frames)
	}
	if c.Output.Every < 0 || c.Output.Scale < 1 {
		return fmt.Errorf("%w: output every=%d scale=%d", dynamo.ErrParameterBounds, c.Output.Every, c.Output.Scale)
	}
	if c.Preset != "" {
		if _, ok := params.GetPreset(c.Preset); !ok {
			return fmt.Errorf("%w: preset %q", dynamo.ErrUnknownParameter, c.Preset)
		}
	}
	for name, v := range c.Params {
		if _, ok := params.LookupSpec(name); !ok {
			return fmt.Errorf("%w: %q", dynamo.ErrUnknownParameter, name)
		}
		if !dynamo.IsFinite(v) {
			return fmt.Errorf("%w: %s=%v", dynamo.ErrParameterBounds, name, v)
		}
	}
	for name, hex := range c.Colors {
		if name != params.ColorPrimary && name != params.ColorAccent {
			return fmt.Errorf("%w: color %q", dynamo.ErrUnknownParameter, name)
		}
		if _, err := colorful.Hex(hex); err != nil {
			return fmt.Errorf("%w: %s=%q: %v", dynamo.ErrParameterBounds, name, hex, err)
		}
	}
	for name := range c.Flags {
		if name != params.FlagAutoMove && name != params.FlagAutoMoveWhenInactive {
			return fmt.Errorf("%w: flag %q", dynamo.ErrUnknownParameter, name)
		}
	}
	return nil
}

// Apply writes the configuration into st: preset first, then explicit
// colors, scalars and flags. Scalars outside their range are clamped and
// reported as warnings.
func (c *Config) Apply(st *params.Store) ([]string, error) {
	if err := c.Validate(); err != nil {
		return nil, err
	}
	if c.Preset != "" {
		if err := st.ApplyPreset(c.Preset); err != nil {
			return nil, err
		}
	}

	for _, name := range sortedKeys(c.Colors) {
		col, _ := colorful.Hex(c.Colors[name])
		if err := st.SetColor(name, dynamo.V3(col.R, col.G, col.B)); err != nil {
			return nil, err
		}
	}

	var warnings []string
	for _, name := range sortedKeys(c.Params) {
		v := c.Params[name]
		got, err := st.SetClamped(name, v)
		if err != nil {
			return warnings, err
		}
		if got != v {
			warnings = append(warnings, fmt.Sprintf("%s=%v clamped to %v", name, v, got))
			dynamo.Logger().Warn("parameter clamped", "name", name, "value", v, "clamped", got)
		}
	}

	for _, name := range sortedKeys(c.Flags) {
		if err := st.SetBool(name, c.Flags[name]); err != nil {
			return warnings, err
		}
	}
	return warnings, nil
}

// ParamSet applies the configuration to the default parameters.
func (c *Config) ParamSet() (params.Set, []string, error) {
	st := params.NewStore(params.Defaults())
	warnings, err := c.Apply(st)
	if err != nil {
		return params.Set{}, warnings, err
	}
	return st.Snapshot(), warnings, nil
}

// HexColors returns the colors of p as hex strings keyed by parameter name.
func HexColors(p params.Set) map[string]string {
	hex := func(v dynamo.Vec3) string {
		return colorful.Color{R: v.X, G: v.Y, B: v.Z}.Clamped().Hex()
	}
	return map[string]string{
		params.ColorPrimary: hex(p.PrimaryColor),
		params.ColorAccent:  hex(p.AccentColor),
	}
}

// Flags returns the switches of p keyed by name.
func Flags(p params.Set) map[string]bool {
	return map[string]bool{
		params.FlagAutoMove:             p.AutoMove,
		params.FlagAutoMoveWhenInactive: p.AutoMoveWhenInactive,
	}
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
