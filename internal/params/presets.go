package params

import (
	"fmt"
	"sort"

	"github.com/san-kum/marbling/internal/dynamo"
)

// DefaultPreset is the preset selected when none is requested.
const DefaultPreset = "ink"

// Preset is the color subset of a Set, applied all at once.
type Preset struct {
	PrimaryColor    dynamo.Vec3
	AccentColor     dynamo.Vec3
	ColorIntensity  float64
	ColorSaturation float64
}

var Presets = map[string]Preset{
	"ink": {
		PrimaryColor: dynamo.V3(0.0, 0.0, 0.02), AccentColor: dynamo.V3(0.2, 0.3, 0.6),
		ColorIntensity: 7.0, ColorSaturation: 0.95,
	},
	"sumi": {
		PrimaryColor: dynamo.V3(0.01, 0.01, 0.01), AccentColor: dynamo.V3(0.2, 0.2, 0.2),
		ColorIntensity: 6.0, ColorSaturation: 0.15,
	},
	"sepia": {
		PrimaryColor: dynamo.V3(0.28, 0.12, 0.03), AccentColor: dynamo.V3(0.45, 0.25, 0.12),
		ColorIntensity: 5.5, ColorSaturation: 0.9,
	},
	"redInk": {
		PrimaryColor: dynamo.V3(0.3, 0.01, 0.01), AccentColor: dynamo.V3(0.6, 0.15, 0.15),
		ColorIntensity: 5.0, ColorSaturation: 1.2,
	},
	"blueInk": {
		PrimaryColor: dynamo.V3(0.01, 0.03, 0.3), AccentColor: dynamo.V3(0.15, 0.2, 0.7),
		ColorIntensity: 5.5, ColorSaturation: 1.1,
	},
}

func GetPreset(name string) (Preset, bool) {
	p, ok := Presets[name]
	return p, ok
}

func ListPresets() []string {
	names := make([]string, 0, len(Presets))
	for name := range Presets {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// ApplyPreset replaces the color subset with the named preset.
func (s *Set) ApplyPreset(name string) error {
	p, ok := GetPreset(name)
	if !ok {
		return fmt.Errorf("%w: preset %q (available: %v)", dynamo.ErrUnknownParameter, name, ListPresets())
	}
	if err := s.ApplyPresetValue(p); err != nil {
		return fmt.Errorf("preset %s: %w", name, err)
	}
	s.Preset = name
	return nil
}

// ApplyPresetValue validates every preset field first and only then writes
// them, so a bad preset never leaves the set half-updated.
func (s *Set) ApplyPresetValue(p Preset) error {
	next := *s
	next.PrimaryColor = p.PrimaryColor
	next.AccentColor = p.AccentColor
	next.ColorIntensity = p.ColorIntensity
	next.ColorSaturation = p.ColorSaturation
	next.Preset = ""
	if err := next.Validate(); err != nil {
		return err
	}
	*s = next
	return nil
}
