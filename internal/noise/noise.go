// Package noise provides the deterministic pseudo-random functions the
// kernel and compositor use in place of a stored random field.
//
// Every function is a pure function of its arguments, so results are
// reproducible and safe to evaluate from any number of goroutines.
package noise

import (
	"math"

	"github.com/san-kum/marbling/internal/dynamo"
)

// Hash maps a 2D point to a pseudo-random value in [0, 1).
func Hash(x, y float64) float64 {
	x = dynamo.Fract(x * 123.34)
	y = dynamo.Fract(y * 456.21)
	d := x*(x+45.32) + y*(y+45.32)
	x += d
	y += d
	return dynamo.Fract(x * y)
}

// Value is smooth value noise: hashed lattice corners blended with a cubic
// fade.
func Value(x, y float64) float64 {
	ix, iy := math.Floor(x), math.Floor(y)
	fx, fy := x-ix, y-iy
	fx = fx * fx * (3 - 2*fx)
	fy = fy * fy * (3 - 2*fy)

	a := Hash(ix, iy)
	b := Hash(ix+1, iy)
	c := Hash(ix, iy+1)
	d := Hash(ix+1, iy+1)

	return dynamo.Mix(dynamo.Mix(a, b, fx), dynamo.Mix(c, d, fx), fy)
}

// PaperGrain is the fibrous paper texture used by the simulation: two value
// noise octaves at paper-fibre frequencies, scaled by texture strength.
func PaperGrain(u, v, scale, texture float64) float64 {
	n1 := Value(u*1500*scale, v*1500*scale)
	n2 := Value(u*3700*scale, v*3700*scale)
	return dynamo.Mix(n1, n2, 0.6) * texture
}

// SurfaceGrain is the fine hashed grain the compositor lays over the paper
// color. It is not smoothed, so it reads as speckle rather than fibre.
func SurfaceGrain(u, v float64) float64 {
	n1 := Hash(u*1234, v*1234)
	n2 := Hash(u*3456, v*3456)
	return dynamo.Mix(n1, n2, 0.6) * 0.05
}
