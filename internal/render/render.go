// Package render maps a simulation field to paper-and-ink colors.
package render

import (
	"fmt"
	"image"
	"math"

	"github.com/lucasb-eyer/go-colorful"

	"github.com/san-kum/marbling/internal/dynamo"
	"github.com/san-kum/marbling/internal/field"
	"github.com/san-kum/marbling/internal/noise"
	"github.com/san-kum/marbling/internal/params"
)

var (
	paperBase = dynamo.V3(0.98, 0.96, 0.94)
	white     = dynamo.Splat(1)
	rec601    = dynamo.V3(0.299, 0.587, 0.114)
)

// Compositor renders fields into RGBA images.
type Compositor struct {
	// Workers is the number of goroutines per image. Zero means GOMAXPROCS.
	Workers int
}

func NewCompositor() *Compositor { return &Compositor{} }

// Composite writes one pixel per texel into dst, which must have the
// field's dimensions. Image row 0 is the top of the picture, field row H-1.
func (c *Compositor) Composite(dst *image.RGBA, f *field.Field, p params.Set, t float64) error {
	if dst == nil || f == nil {
		return fmt.Errorf("composite: nil target: %w", dynamo.ErrDimensionMismatch)
	}
	b := dst.Bounds()
	if b.Dx() != f.W || b.Dy() != f.H {
		return fmt.Errorf("composite %dx%d field into %dx%d image: %w",
			f.W, f.H, b.Dx(), b.Dy(), dynamo.ErrDimensionMismatch)
	}

	dynamo.ParallelFor(f.H, 4, c.Workers, func(y0, y1 int) {
		for py := y0; py < y1; py++ {
			fy := f.H - 1 - py
			off := dst.PixOffset(b.Min.X, b.Min.Y+py)
			for x := 0; x < f.W; x++ {
				r, g, bl := Shade(f, p, t, x, fy).RGB255()
				dst.Pix[off+0] = r
				dst.Pix[off+1] = g
				dst.Pix[off+2] = bl
				dst.Pix[off+3] = 0xff
				off += 4
			}
		}
	})
	return nil
}

// Image allocates an image sized to f and composites into it.
func (c *Compositor) Image(f *field.Field, p params.Set, t float64) (*image.RGBA, error) {
	img := image.NewRGBA(image.Rect(0, 0, f.W, f.H))
	if err := c.Composite(img, f, p, t); err != nil {
		return nil, err
	}
	return img, nil
}

// Shade returns the clamped display color of texel (x, y) at time t.
func Shade(f *field.Field, p params.Set, t float64, x, y int) colorful.Color {
	uv := f.UV(x, y)
	tx := f.At(x, y)
	d, detail := tx.Density, tx.Detail

	grain := noise.SurfaceGrain(uv.X*1500, uv.Y*1500) + 0.5*noise.SurfaceGrain(uv.X*4000, uv.Y*4000)
	paper := paperBase.Scale(1 - 0.9*grain)

	intensity := d * dynamo.Mix(0.9, 1.1, detail)
	ink := p.PrimaryColor.Scale(intensity * p.ColorIntensity * 1.2).
		Add(p.AccentColor.Scale(intensity * intensity * detail * 0.9))

	edge := 5 * d * (1 - d)
	highlight := p.AccentColor.Mix(white, 0.6).Scale(edge * edge * 0.25)

	ink = ink.Scale(1 + 0.08*math.Sin(uv.X*8+uv.Y*6+t*0.1))

	col := paper.Mix(ink, dynamo.Smoothstep(0.03, 0.92, intensity)).Add(highlight.Scale(1.3))

	// Refraction through wet ink.
	offset := tx.Flow.Scale(4 * d * (1 - d) * 0.015)
	col = col.Add(p.AccentColor.Scale(0.1 * f.Sample(uv.Add(offset)).Density))

	col = col.Scale(1 - dynamo.Clamp(0.2*d, 0, 0.1))

	luma := col.Dot(rec601)
	col = dynamo.Splat(luma).Mix(col, p.ColorSaturation).Clamp(0, 1)

	return colorful.Color{R: col.X, G: col.Y, B: col.Z}
}

// Color converts a parameter color to a colorful.Color.
func Color(v dynamo.Vec3) colorful.Color {
	return colorful.Color{R: v.X, G: v.Y, B: v.Z}
}

// Vec converts a colorful.Color to a parameter color, clamped to [0,1].
func Vec(c colorful.Color) dynamo.Vec3 {
	c = c.Clamped()
	return dynamo.V3(c.R, c.G, c.B)
}
