// Package params holds the bounded knobs that drive the marbling kernel and
// the compositor, and the named color presets.
//
// A [Set] is a plain value: the engine takes one snapshot per frame from a
// [Store] and hands it to the kernel and compositor by value. All writes go
// through range checks, so nothing outside a declared range reaches the
// kernel.
package params

import (
	"fmt"
	"math"
	"sort"

	"github.com/san-kum/marbling/internal/dynamo"
)

type Group string

const (
	GroupForcing   Group = "forcing"
	GroupViscosity Group = "viscosity"
	GroupRealism   Group = "realism"
	GroupColor     Group = "color"
	GroupMovement  Group = "movement"
)

// Spec declares a scalar parameter and its valid range.
type Spec struct {
	Name    string
	Group   Group
	Min     float64
	Max     float64
	Default float64
	Help    string
}

// Contains reports whether v is finite and inside [Min, Max].
func (s Spec) Contains(v float64) bool {
	return dynamo.IsFinite(v) && v >= s.Min && v <= s.Max
}

const (
	ColorPrimary = "primaryColor"
	ColorAccent  = "accentColor"

	FlagAutoMove             = "autoMove"
	FlagAutoMoveWhenInactive = "autoMoveWhenInactive"
)

var specs = []Spec{
	{"forceIntensity", GroupForcing, 0.1, 5.0, 4.0, "ink injected per forcing event"},
	{"decayRate", GroupForcing, 0.9, 0.999, 0.99, "per-frame flow decay"},
	{"inkViscosity", GroupViscosity, 0.5, 0.99, 0.75, "pull toward upstream values during advection"},
	{"inkDiffusion", GroupViscosity, 0.2, 1.0, 0.65, "laplacian spreading of density"},
	{"turbulence", GroupViscosity, 0.5, 3.0, 1.2, "organic and gradient-driven flow"},
	{"flowIntensity", GroupViscosity, 0.1, 3.0, 1.0, "pointer impulse and flow speed limit"},
	{"inkEdgeDetail", GroupRealism, 0, 1, 0.9, "sharpness of ink boundaries"},
	{"inkGranularity", GroupRealism, 0, 1, 0.7, "grain in injected ink and detail regrowth"},
	{"paperTexture", GroupRealism, 0, 1, 0.8, "paper fibre strength"},
	{"lightAbsorption", GroupRealism, 0.5, 1.0, 0.9, "non-linear ink opacity"},
	{"inkSurfaceTension", GroupRealism, 0.5, 1.0, 0.85, "suppression of gradient-driven flow"},
	{"colorIntensity", GroupColor, 1, 10, 6.0, "ink color gain"},
	{"colorSaturation", GroupColor, 0, 2, 0.9, "global saturation"},
	{"movementRadius", GroupMovement, 0.1, 1.0, 0.6, "auto-movement orbit radius"},
	{"movementSpeed", GroupMovement, 0.01, 1.0, 0.2, "auto-movement angular rate"},
}

// Specs returns the scalar parameter declarations in display order.
func Specs() []Spec {
	out := make([]Spec, len(specs))
	copy(out, specs)
	return out
}

// LookupSpec finds the declaration for a scalar parameter.
func LookupSpec(name string) (Spec, bool) {
	for _, s := range specs {
		if s.Name == name {
			return s, true
		}
	}
	return Spec{}, false
}

// Set is one complete, immutable-per-frame parameter snapshot.
type Set struct {
	ForceIntensity float64
	DecayRate      float64

	InkViscosity  float64
	InkDiffusion  float64
	Turbulence    float64
	FlowIntensity float64

	InkEdgeDetail     float64
	InkGranularity    float64
	PaperTexture      float64
	LightAbsorption   float64
	InkSurfaceTension float64

	PrimaryColor    dynamo.Vec3
	AccentColor     dynamo.Vec3
	ColorIntensity  float64
	ColorSaturation float64

	AutoMove             bool
	AutoMoveWhenInactive bool
	MovementRadius       float64
	MovementSpeed        float64

	// Preset is the name of the last preset applied, empty for custom colors.
	Preset string
}

// Defaults returns the startup parameter set.
func Defaults() Set {
	s := Set{
		PrimaryColor:         dynamo.V3(0.01, 0.01, 0.03),
		AccentColor:          dynamo.V3(0.3, 0.4, 0.7),
		AutoMove:             true,
		AutoMoveWhenInactive: true,
	}
	for _, sp := range specs {
		*s.ref(sp.Name) = sp.Default
	}
	return s
}

func (s *Set) ref(name string) *float64 {
	switch name {
	case "forceIntensity":
		return &s.ForceIntensity
	case "decayRate":
		return &s.DecayRate
	case "inkViscosity":
		return &s.InkViscosity
	case "inkDiffusion":
		return &s.InkDiffusion
	case "turbulence":
		return &s.Turbulence
	case "flowIntensity":
		return &s.FlowIntensity
	case "inkEdgeDetail":
		return &s.InkEdgeDetail
	case "inkGranularity":
		return &s.InkGranularity
	case "paperTexture":
		return &s.PaperTexture
	case "lightAbsorption":
		return &s.LightAbsorption
	case "inkSurfaceTension":
		return &s.InkSurfaceTension
	case "colorIntensity":
		return &s.ColorIntensity
	case "colorSaturation":
		return &s.ColorSaturation
	case "movementRadius":
		return &s.MovementRadius
	case "movementSpeed":
		return &s.MovementSpeed
	}
	return nil
}

// Get returns the current value of a scalar parameter.
func (s Set) Get(name string) (float64, error) {
	p := s.ref(name)
	if p == nil {
		return 0, fmt.Errorf("%w: %q", dynamo.ErrUnknownParameter, name)
	}
	return *p, nil
}

// Set writes a scalar parameter, rejecting values outside its range.
func (s *Set) Set(name string, v float64) error {
	sp, ok := LookupSpec(name)
	if !ok {
		return fmt.Errorf("%w: %q", dynamo.ErrUnknownParameter, name)
	}
	if !sp.Contains(v) {
		return fmt.Errorf("%w: %s=%v not in [%v, %v]", dynamo.ErrParameterBounds, name, v, sp.Min, sp.Max)
	}
	*s.ref(name) = v
	return nil
}

// SetClamped writes a scalar parameter, clamping finite values into range.
// It returns the value actually stored. NaN and Inf are still rejected.
func (s *Set) SetClamped(name string, v float64) (float64, error) {
	sp, ok := LookupSpec(name)
	if !ok {
		return 0, fmt.Errorf("%w: %q", dynamo.ErrUnknownParameter, name)
	}
	if !dynamo.IsFinite(v) {
		return 0, fmt.Errorf("%w: %s=%v", dynamo.ErrParameterBounds, name, v)
	}
	v = dynamo.Clamp(v, sp.Min, sp.Max)
	*s.ref(name) = v
	return v, nil
}

// SetColor writes one of the two colors. Components are clamped to [0, 1].
// Setting a color by hand detaches the set from its preset.
func (s *Set) SetColor(name string, c dynamo.Vec3) error {
	if !c.IsFinite() {
		return fmt.Errorf("%w: %s=%v", dynamo.ErrParameterBounds, name, c)
	}
	c = c.Clamp(0, 1)
	switch name {
	case ColorPrimary:
		s.PrimaryColor = c
	case ColorAccent:
		s.AccentColor = c
	default:
		return fmt.Errorf("%w: %q", dynamo.ErrUnknownParameter, name)
	}
	s.Preset = ""
	return nil
}

// SetBool writes one of the auto-movement switches.
func (s *Set) SetBool(name string, b bool) error {
	switch name {
	case FlagAutoMove:
		s.AutoMove = b
	case FlagAutoMoveWhenInactive:
		s.AutoMoveWhenInactive = b
	default:
		return fmt.Errorf("%w: %q", dynamo.ErrUnknownParameter, name)
	}
	return nil
}

// Validate checks every field against its declared range.
func (s Set) Validate() error {
	for _, sp := range specs {
		if v := *s.ref(sp.Name); !sp.Contains(v) {
			return fmt.Errorf("%w: %s=%v not in [%v, %v]", dynamo.ErrParameterBounds, sp.Name, v, sp.Min, sp.Max)
		}
	}
	for name, c := range map[string]dynamo.Vec3{ColorPrimary: s.PrimaryColor, ColorAccent: s.AccentColor} {
		if !c.IsFinite() || c != c.Clamp(0, 1) {
			return fmt.Errorf("%w: %s=%v", dynamo.ErrParameterBounds, name, c)
		}
	}
	return nil
}

// GetParams returns every scalar parameter by name.
func (s Set) GetParams() map[string]float64 {
	out := make(map[string]float64, len(specs))
	for _, sp := range specs {
		out[sp.Name] = *s.ref(sp.Name)
	}
	return out
}

// SetParam is Set under the dynamo.Configurable name.
func (s *Set) SetParam(name string, value float64) error {
	return s.Set(name, value)
}

// Names returns the scalar parameter names in sorted order.
func Names() []string {
	names := make([]string, 0, len(specs))
	for _, sp := range specs {
		names = append(names, sp.Name)
	}
	sort.Strings(names)
	return names
}

// Step returns a step size suitable for nudging a parameter interactively.
func (s Spec) Step() float64 {
	return math.Max((s.Max-s.Min)/50, 0.001)
}

var _ dynamo.Configurable = (*Set)(nil)
