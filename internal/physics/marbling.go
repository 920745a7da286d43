package physics

import (
	"fmt"
	"math"

	"github.com/san-kum/marbling/internal/dynamo"
	"github.com/san-kum/marbling/internal/field"
	"github.com/san-kum/marbling/internal/force"
	"github.com/san-kum/marbling/internal/noise"
	"github.com/san-kum/marbling/internal/params"
)

const (
	// InjectRadius is the normalized radius of the forcing disc.
	InjectRadius = 0.05
	// BorderWidth is the normalized band along each edge where flow is damped.
	BorderWidth = 0.02

	advectScale  = 8.0
	borderDamp   = 0.9
	rowsPerChunk = 4
)

// Input is everything a step reads besides the previous field.
type Input struct {
	Force  force.Sample
	Params params.Set
	Time   float64
	Frame  uint64
}

// Marbling advances an ink field by one frame: injection, turbulence,
// diffusion, semi-Lagrangian advection, edge sharpening, paper absorption
// and decay, applied per cell in that order.
type Marbling struct {
	// Workers is the number of goroutines per step. Zero means GOMAXPROCS.
	Workers int
}

func NewMarbling() *Marbling { return &Marbling{} }

// Step reads only src and writes every texel of dst. src is never modified,
// so a failed step leaves the previous frame intact.
func (m *Marbling) Step(dst, src *field.Field, in Input) error {
	if dst == nil || src == nil {
		return fmt.Errorf("step: nil field: %w", dynamo.ErrDimensionMismatch)
	}
	if dst == src {
		return fmt.Errorf("step: source and destination alias: %w", dynamo.ErrInvalidState)
	}
	if !dst.SameSize(src) {
		return fmt.Errorf("step %dx%d into %dx%d: %w", src.W, src.H, dst.W, dst.H, dynamo.ErrDimensionMismatch)
	}

	k := newKernel(src, in)
	dynamo.ParallelFor(src.H, rowsPerChunk, m.Workers, func(y0, y1 int) {
		for y := y0; y < y1; y++ {
			row := dst.Texels[y*src.W : (y+1)*src.W]
			for x := range row {
				row[x] = k.cell(x, y)
			}
		}
	})
	dst.Generation = src.Generation + 1
	return nil
}

// kernel holds the per-frame constants derived from the input.
type kernel struct {
	src *field.Field
	p   params.Set
	t   float64

	center  dynamo.Vec2
	impulse bool
	texel   dynamo.Vec2
	aspect  float64

	pulse        float64
	gradScale    float64
	advectBlend  float64
	edgeLow      float64
	regen        float64
	absorbExp    float64
	densityDecay float64
	maxFlow      float64
}

func newKernel(src *field.Field, in Input) *kernel {
	p := in.Params
	return &kernel{
		src:          src,
		p:            p,
		t:            in.Time,
		center:       in.Force.Center,
		impulse:      in.Frame > 0 && in.Force.Impulse,
		texel:        src.TexelSize(),
		aspect:       float64(src.W) / float64(src.H),
		pulse:        0.7 + 0.3*math.Sin(in.Time*2),
		gradScale:    1 - 0.5*p.InkSurfaceTension,
		advectBlend:  dynamo.Mix(0.5, 0.95, p.InkViscosity),
		edgeLow:      dynamo.Mix(0.3, 0.1, p.InkEdgeDetail),
		regen:        dynamo.Mix(0.05, 0.2, p.InkGranularity),
		absorbExp:    1 / dynamo.Mix(0.5, 1, p.LightAbsorption),
		densityDecay: dynamo.Mix(0.995, p.DecayRate, 0.7),
		maxFlow:      0.1 * p.FlowIntensity,
	}
}

func (k *kernel) cell(x, y int) field.Texel {
	src, p, t := k.src, &k.p, k.t
	uv := src.UV(x, y)
	c := src.Texels[y*src.W+x]
	flow, density, detail := c.Flow, c.Density, c.Detail

	// Injection.
	if d := uv.Sub(k.center).Len(); d < InjectRadius {
		s := (InjectRadius - d) * 20 * p.ForceIntensity
		grain := 1 - 0.5*p.InkGranularity*noise.Value(uv.X*50+t, uv.Y*50+t)
		density += 0.5 * s * k.pulse * grain
		// Blend factor capped at 1.
		detail = dynamo.Mix(detail, noise.Hash(t, d)*0.8+0.2, math.Min(0.8*s, 1))
		if k.impulse {
			flow = flow.Add(k.center.Sub(uv).Normalize().Scale(0.05 * s * p.FlowIntensity))
		}
	}

	// Organic turbulence.
	px, py := (2*uv.X-1)*k.aspect, 2*uv.Y-1
	n1 := noise.Value(px*2.5+t*0.2, py*2.5+t*0.2)
	n2 := noise.Value(px*5+t*0.1+100, py*5+t*0.1+100)
	organic := dynamo.V2(n1-n2, n2-n1).Scale(p.Turbulence * 0.02)
	flow = flow.Mix(organic, 0.04)

	l, r := src.At(x-1, y), src.At(x+1, y)
	u, b := src.At(x, y+1), src.At(x, y-1)

	// Density gradient feeds back into flow.
	grad := dynamo.V2(r.Density-l.Density, u.Density-b.Density).Scale(k.gradScale)
	flow = flow.Add(grad.Scale(0.03 * detail * p.Turbulence))

	// Diffusion, modulated by paper.
	lap := l.Density + r.Density + u.Density + b.Density - 4*density
	density += lap * p.InkDiffusion * 0.02
	paper := noise.PaperGrain(uv.X, uv.Y, 1, p.PaperTexture)
	density += lap * p.InkDiffusion * (0.8 + 0.4*detail + 0.2*paper) * 0.01

	// Semi-Lagrangian advection; upstream points off the field are skipped.
	prev := dynamo.V2(uv.X-flow.X*advectScale*k.texel.X, uv.Y-flow.Y*advectScale*k.texel.Y)
	if prev.X >= 0 && prev.X <= 1 && prev.Y >= 0 && prev.Y <= 1 {
		up := src.Sample(prev)
		density = dynamo.Mix(density, up.Density, k.advectBlend)
		detail = dynamo.Mix(detail, up.Detail, k.advectBlend-0.1)
	}

	// Edge sharpening.
	edge := dynamo.Smoothstep(k.edgeLow, 0.5, density*(1+0.2*detail))
	density = dynamo.Mix(density, edge, 0.7*p.InkEdgeDetail)

	detail = dynamo.Mix(detail, 4*density*(1-density), k.regen)

	// Absorption and paper.
	density = math.Pow(math.Max(density, 0), k.absorbExp)
	density *= 1 - 0.15*paper

	flow = flow.Scale(p.DecayRate)
	density *= k.densityDecay

	if uv.X < BorderWidth || uv.X > 1-BorderWidth || uv.Y < BorderWidth || uv.Y > 1-BorderWidth {
		flow = flow.Scale(borderDamp)
	}
	if fl := flow.Len(); fl > k.maxFlow {
		flow = flow.Scale(k.maxFlow / fl)
	}

	return field.Texel{
		Flow:    flow,
		Density: dynamo.Clamp(density, 0, 1),
		Detail:  detail,
	}
}
