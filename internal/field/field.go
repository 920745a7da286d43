// Package field holds the simulation state: a grid of texels and the
// ping-pong pair the engine alternates between frames.
package field

import (
	"fmt"
	"math"

	"github.com/san-kum/marbling/internal/dynamo"
)

// MaxTexels caps a single buffer allocation (16 Mi texels, 512 MiB).
const MaxTexels = 1 << 24

// Seed values for a fresh field: a faint wet-paper base.
const (
	SeedDensity = 0.02
	SeedDetail  = 0.5
)

// Texel is one cell of simulation state.
type Texel struct {
	Flow    dynamo.Vec2
	Density float64
	Detail  float64
}

// SeedTexel returns the texel every cell starts from.
func SeedTexel() Texel {
	return Texel{Density: SeedDensity, Detail: SeedDetail}
}

func (t Texel) IsFinite() bool {
	return t.Flow.IsFinite() && dynamo.IsFinite(t.Density, t.Detail)
}

// Field is a W×H grid stored row-major. Row 0 is the bottom of the picture
// (v = 0 in normalized coordinates).
type Field struct {
	W, H       int
	Texels     []Texel
	Generation uint64
}

// New allocates a seeded field.
func New(w, h int) (*Field, error) {
	if w < 1 || h < 1 {
		return nil, fmt.Errorf("%w: %dx%d", dynamo.ErrAllocation, w, h)
	}
	if w > MaxTexels/h {
		return nil, fmt.Errorf("%w: %dx%d exceeds %d texels", dynamo.ErrAllocation, w, h, MaxTexels)
	}
	f := &Field{W: w, H: h, Texels: make([]Texel, w*h)}
	f.Seed()
	return f, nil
}

// Seed resets every texel to the seed value and the generation to zero.
func (f *Field) Seed() {
	s := SeedTexel()
	for i := range f.Texels {
		f.Texels[i] = s
	}
	f.Generation = 0
}

func (f *Field) Index(x, y int) int { return y*f.W + x }

func (f *Field) SameSize(o *Field) bool { return f.W == o.W && f.H == o.H }

// At returns the texel at (x, y) with coordinates clamped to the grid.
func (f *Field) At(x, y int) Texel {
	if x < 0 {
		x = 0
	} else if x >= f.W {
		x = f.W - 1
	}
	if y < 0 {
		y = 0
	} else if y >= f.H {
		y = f.H - 1
	}
	return f.Texels[y*f.W+x]
}

// Set writes the texel at (x, y). Coordinates must be inside the grid.
func (f *Field) Set(x, y int, t Texel) {
	f.Texels[y*f.W+x] = t
}

// UV returns the normalized coordinates of the center of texel (x, y).
func (f *Field) UV(x, y int) dynamo.Vec2 {
	return dynamo.Vec2{
		X: (float64(x) + 0.5) / float64(f.W),
		Y: (float64(y) + 0.5) / float64(f.H),
	}
}

// TexelSize is the size of one texel in normalized coordinates.
func (f *Field) TexelSize() dynamo.Vec2 {
	return dynamo.Vec2{X: 1 / float64(f.W), Y: 1 / float64(f.H)}
}

// Sample bilinearly interpolates the field at normalized coordinates, with
// texel centers at (i+0.5)/W and edges clamped.
func (f *Field) Sample(p dynamo.Vec2) Texel {
	fx := p.X*float64(f.W) - 0.5
	fy := p.Y*float64(f.H) - 0.5
	x0, y0 := math.Floor(fx), math.Floor(fy)
	tx, ty := fx-x0, fy-y0
	ix, iy := int(x0), int(y0)

	a := f.At(ix, iy)
	b := f.At(ix+1, iy)
	c := f.At(ix, iy+1)
	d := f.At(ix+1, iy+1)

	return lerp(lerp(a, b, tx), lerp(c, d, tx), ty)
}

func lerp(a, b Texel, t float64) Texel {
	return Texel{
		Flow:    a.Flow.Mix(b.Flow, t),
		Density: dynamo.Mix(a.Density, b.Density, t),
		Detail:  dynamo.Mix(a.Detail, b.Detail, t),
	}
}

// CopyFrom overwrites f with the contents of src. Sizes must match.
func (f *Field) CopyFrom(src *Field) error {
	if !f.SameSize(src) {
		return fmt.Errorf("%w: %dx%d vs %dx%d", dynamo.ErrDimensionMismatch, f.W, f.H, src.W, src.H)
	}
	copy(f.Texels, src.Texels)
	f.Generation = src.Generation
	return nil
}

// Clone returns an independent copy.
func (f *Field) Clone() *Field {
	c := &Field{W: f.W, H: f.H, Texels: make([]Texel, len(f.Texels)), Generation: f.Generation}
	copy(c.Texels, f.Texels)
	return c
}

// IsValid reports whether every texel is finite.
func (f *Field) IsValid() bool {
	for _, t := range f.Texels {
		if !t.IsFinite() {
			return false
		}
	}
	return true
}
