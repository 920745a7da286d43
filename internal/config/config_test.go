package config

import (
	"errors"
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/san-kum/marbling/internal/dynamo"
	"github.com/san-kum/marbling/internal/params"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("default config invalid: %v", err)
	}
	if cfg.FPS <= 0 || cfg.Frames <= 0 {
		t.Error("fps and frames should be positive")
	}
}

func TestLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "run.yaml")
	data := `
width: 80
height: 50
frames: 30
preset: sepia
params:
  turbulence: 2.0
  forceIntensity: 9
colors:
  accentColor: "#ff8000"
flags:
  autoMove: false
output:
  every: 10
  scale: 2
`
	if err := os.WriteFile(path, []byte(data), 0644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Width != 80 || cfg.FPS != DefaultFPS || cfg.Output.Every != 10 {
		t.Errorf("unexpected config %+v", cfg)
	}

	p, warnings, err := cfg.ParamSet()
	if err != nil {
		t.Fatalf("ParamSet: %v", err)
	}
	if len(warnings) != 1 {
		t.Errorf("expected one clamp warning, got %v", warnings)
	}
	if p.ForceIntensity != 5 || p.Turbulence != 2 || p.AutoMove {
		t.Errorf("params not applied: %+v", p)
	}
	sepia, _ := params.GetPreset("sepia")
	if p.PrimaryColor != sepia.PrimaryColor {
		t.Errorf("preset primary not applied: %v", p.PrimaryColor)
	}
	if math.Abs(p.AccentColor.X-1) > 1e-9 || math.Abs(p.AccentColor.Y-128.0/255) > 1e-9 || p.AccentColor.Z != 0 {
		t.Errorf("accent = %v", p.AccentColor)
	}
	if p.Preset != "" {
		t.Errorf("explicit colors should clear the preset name, got %q", p.Preset)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		want   error
	}{
		{"zero width", func(c *Config) { c.Width = 0 }, dynamo.ErrParameterBounds},
		{"huge", func(c *Config) { c.Width, c.Height = 1 << 13, 1 << 12 }, dynamo.ErrParameterBounds},
		{"zero fps", func(c *Config) { c.FPS = 0 }, dynamo.ErrParameterBounds},
		{"no frames", func(c *Config) { c.Frames = 0 }, dynamo.ErrParameterBounds},
		{"bad scale", func(c *Config) { c.Output.Scale = 0 }, dynamo.ErrParameterBounds},
		{"unknown preset", func(c *Config) { c.Preset = "neon" }, dynamo.ErrUnknownParameter},
		{"unknown param", func(c *Config) { c.Params = map[string]float64{"gravity": 1} }, dynamo.ErrUnknownParameter},
		{"nan param", func(c *Config) { c.Params = map[string]float64{"turbulence": math.NaN()} }, dynamo.ErrParameterBounds},
		{"unknown color", func(c *Config) { c.Colors = map[string]string{"fill": "#000000"} }, dynamo.ErrUnknownParameter},
		{"bad hex", func(c *Config) { c.Colors = map[string]string{"primaryColor": "blue"} }, dynamo.ErrParameterBounds},
		{"unknown flag", func(c *Config) { c.Flags = map[string]bool{"loop": true} }, dynamo.ErrUnknownParameter},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(cfg)
			if err := cfg.Validate(); !errors.Is(err, tt.want) {
				t.Errorf("Validate() = %v, want %v", err, tt.want)
			}
		})
	}
}

func TestSaveLoadRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.yaml")
	cfg := GetScene("storm")
	if err := Save(path, cfg); err != nil {
		t.Fatalf("Save: %v", err)
	}
	got, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if got.Preset != "blueInk" || got.Params["turbulence"] != 2.8 {
		t.Errorf("round trip lost fields: %+v", got)
	}
}

func TestScenes(t *testing.T) {
	for _, name := range ListScenes() {
		cfg := GetScene(name)
		if cfg == nil {
			t.Fatalf("scene %q missing", name)
		}
		if _, warnings, err := cfg.ParamSet(); err != nil || len(warnings) != 0 {
			t.Errorf("scene %q: warnings %v, err %v", name, warnings, err)
		}
	}
	if GetScene("nonexistent") != nil {
		t.Error("expected nil for unknown scene")
	}

	a := GetScene("calm")
	a.Params["turbulence"] = 3
	if Scenes["calm"].Params["turbulence"] != 0.6 {
		t.Error("GetScene must return a copy")
	}
}

func TestHexColors(t *testing.T) {
	p := params.Defaults()
	p.PrimaryColor = dynamo.V3(1, 0, 0)
	hex := HexColors(p)
	if hex[params.ColorPrimary] != "#ff0000" {
		t.Errorf("primary hex = %q", hex[params.ColorPrimary])
	}
	if !Flags(p)[params.FlagAutoMove] {
		t.Error("default autoMove should be true")
	}
}
