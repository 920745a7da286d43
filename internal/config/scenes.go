package config

import "sort"

// Scenes are named starting points for runs, combining a color preset with
// a handful of physical parameters.
var Scenes = map[string]*Config{
	"default": {},
	"calm": {
		Preset: "sumi",
		Params: map[string]float64{"turbulence": 0.6, "inkDiffusion": 0.4, "decayRate": 0.995},
	},
	"storm": {
		Preset: "blueInk",
		Params: map[string]float64{"turbulence": 2.8, "flowIntensity": 2.5, "forceIntensity": 5},
	},
	"bleed": {
		Preset: "sepia",
		Params: map[string]float64{"inkDiffusion": 1.0, "inkEdgeDetail": 0.2, "inkViscosity": 0.55},
	},
	"crisp": {
		Preset: "redInk",
		Params: map[string]float64{"inkEdgeDetail": 1.0, "inkSurfaceTension": 1.0, "paperTexture": 0.3},
	},
}

// GetScene returns a full configuration for a named scene, or nil.
func GetScene(name string) *Config {
	s, ok := Scenes[name]
	if !ok {
		return nil
	}
	cfg := DefaultConfig()
	cfg.Preset = s.Preset
	if len(s.Params) > 0 {
		cfg.Params = make(map[string]float64, len(s.Params))
		for k, v := range s.Params {
			cfg.Params[k] = v
		}
	}
	return cfg
}

func ListScenes() []string {
	names := make([]string, 0, len(Scenes))
	for name := range Scenes {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
