package dynamo

import "math"

// Vec2 is a 2D vector in normalized field space or flow space.
type Vec2 struct {
	X, Y float64
}

func V2(x, y float64) Vec2 { return Vec2{x, y} }

func (v Vec2) Add(o Vec2) Vec2      { return Vec2{v.X + o.X, v.Y + o.Y} }
func (v Vec2) Sub(o Vec2) Vec2      { return Vec2{v.X - o.X, v.Y - o.Y} }
func (v Vec2) Scale(s float64) Vec2 { return Vec2{v.X * s, v.Y * s} }
func (v Vec2) Dot(o Vec2) float64   { return v.X*o.X + v.Y*o.Y }
func (v Vec2) Len() float64         { return math.Hypot(v.X, v.Y) }
func (v Vec2) Mix(o Vec2, t float64) Vec2 {
	return Vec2{Mix(v.X, o.X, t), Mix(v.Y, o.Y, t)}
}

// Normalize returns the unit vector in the direction of v, or the zero
// vector when v has no length.
func (v Vec2) Normalize() Vec2 {
	l := v.Len()
	if l == 0 {
		return Vec2{}
	}
	return Vec2{v.X / l, v.Y / l}
}

func (v Vec2) IsFinite() bool { return finite(v.X) && finite(v.Y) }

// Vec3 is an RGB triple in linear [0,1] units.
type Vec3 struct {
	X, Y, Z float64
}

func V3(x, y, z float64) Vec3 { return Vec3{x, y, z} }

func (v Vec3) Add(o Vec3) Vec3      { return Vec3{v.X + o.X, v.Y + o.Y, v.Z + o.Z} }
func (v Vec3) Scale(s float64) Vec3 { return Vec3{v.X * s, v.Y * s, v.Z * s} }
func (v Vec3) Dot(o Vec3) float64   { return v.X*o.X + v.Y*o.Y + v.Z*o.Z }
func (v Vec3) Mix(o Vec3, t float64) Vec3 {
	return Vec3{Mix(v.X, o.X, t), Mix(v.Y, o.Y, t), Mix(v.Z, o.Z, t)}
}

// Splat returns a vector with all components set to s.
func Splat(s float64) Vec3 { return Vec3{s, s, s} }

func (v Vec3) Clamp(lo, hi float64) Vec3 {
	return Vec3{Clamp(v.X, lo, hi), Clamp(v.Y, lo, hi), Clamp(v.Z, lo, hi)}
}

func (v Vec3) IsFinite() bool { return finite(v.X) && finite(v.Y) && finite(v.Z) }

// Mix linearly interpolates between a and b.
func Mix(a, b, t float64) float64 {
	return a*(1-t) + b*t
}

// Clamp limits x to [lo, hi].
func Clamp(x, lo, hi float64) float64 {
	return math.Min(math.Max(x, lo), hi)
}

// Fract returns x - floor(x), always in [0, 1).
func Fract(x float64) float64 {
	return x - math.Floor(x)
}

// Smoothstep is the cubic Hermite step between edge0 and edge1.
func Smoothstep(edge0, edge1, x float64) float64 {
	t := Clamp((x-edge0)/(edge1-edge0), 0, 1)
	return t * t * (3 - 2*t)
}

// IsFinite reports whether every value is neither NaN nor Inf.
func IsFinite(vals ...float64) bool {
	for _, v := range vals {
		if !finite(v) {
			return false
		}
	}
	return true
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

// Configurable is implemented by anything exposing named numeric knobs.
type Configurable interface {
	GetParams() map[string]float64
	SetParam(name string, value float64) error
}
