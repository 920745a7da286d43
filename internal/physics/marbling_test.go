package physics_test

import (
	"math/rand"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/san-kum/marbling/internal/dynamo"
	"github.com/san-kum/marbling/internal/field"
	"github.com/san-kum/marbling/internal/force"
	"github.com/san-kum/marbling/internal/noise"
	"github.com/san-kum/marbling/internal/params"
	"github.com/san-kum/marbling/internal/physics"
)

var offField = force.Fixed(dynamo.V2(1000, 1000))

func newPair(w, h int) *field.Pair {
	p, err := field.NewPair(w, h)
	Expect(err).NotTo(HaveOccurred())
	return p
}

// run advances the pair n frames with dt = 1/60 and a constant force.
func run(m *physics.Marbling, pair *field.Pair, p params.Set, f force.Sample, n int) {
	for i := 0; i < n; i++ {
		frame := pair.Previous().Generation
		in := physics.Input{Force: f, Params: p, Time: float64(frame) / 60, Frame: frame}
		Expect(m.Step(pair.Scratch(), pair.Previous(), in)).To(Succeed())
		pair.Swap()
	}
}

func totalDensity(f *field.Field) float64 {
	sum := 0.0
	for _, t := range f.Texels {
		sum += t.Density
	}
	return sum
}

func randomParams(r *rand.Rand) params.Set {
	p := params.Defaults()
	for _, s := range params.Specs() {
		Expect(p.Set(s.Name, s.Min+r.Float64()*(s.Max-s.Min))).To(Succeed())
	}
	return p
}

var _ = Describe("Marbling", func() {
	var m *physics.Marbling

	BeforeEach(func() {
		m = &physics.Marbling{Workers: 4}
	})

	Describe("Step", func() {
		It("rejects mismatched sizes", func() {
			a, _ := field.New(8, 8)
			b, _ := field.New(8, 9)
			err := m.Step(b, a, physics.Input{Params: params.Defaults(), Force: offField})
			Expect(err).To(MatchError(dynamo.ErrDimensionMismatch))
		})

		It("rejects aliased buffers", func() {
			a, _ := field.New(8, 8)
			err := m.Step(a, a, physics.Input{Params: params.Defaults(), Force: offField})
			Expect(err).To(MatchError(dynamo.ErrInvalidState))
		})

		It("does not modify the source field", func() {
			pair := newPair(24, 16)
			run(m, pair, params.Defaults(), force.Fixed(dynamo.V2(0.5, 0.5)), 3)

			src := pair.Previous()
			before := src.Clone()
			in := physics.Input{Force: force.Fixed(dynamo.V2(0.4, 0.6)), Params: params.Defaults(), Time: 1, Frame: 3}
			Expect(m.Step(pair.Scratch(), src, in)).To(Succeed())
			Expect(src.Texels).To(Equal(before.Texels))
			Expect(pair.Scratch().Generation).To(Equal(src.Generation + 1))
		})
	})

	Describe("bounds", func() {
		It("keeps density in [0,1] and every value finite across random parameter sets", func() {
			r := rand.New(rand.NewSource(7))
			centers := []dynamo.Vec2{
				{X: 0, Y: 0}, {X: 1, Y: 1}, {X: 0.5, Y: 0}, {X: 1, Y: 0.5}, {X: 0.5, Y: 0.5}, {X: 0.01, Y: 0.99},
			}
			for trial := 0; trial < 6; trial++ {
				p := randomParams(r)
				pair := newPair(32, 20)
				for i := 0; i < 90; i++ {
					c := centers[(trial+i/15)%len(centers)]
					f := force.Sample{Source: force.Pointer{Position: c, Active: true}, Center: c, Impulse: true}
					run(m, pair, p, f, 1)
				}

				cur := pair.Previous()
				Expect(cur.IsValid()).To(BeTrue(), "trial %d produced non-finite texels", trial)
				for _, t := range cur.Texels {
					Expect(t.Density).To(BeNumerically(">=", 0))
					Expect(t.Density).To(BeNumerically("<=", 1))
					Expect(t.Flow.Len()).To(BeNumerically("<=", 0.1*p.FlowIntensity+1e-12))
				}
			}
		})

		It("survives parameters at their extremes", func() {
			for _, useMax := range []bool{false, true} {
				p := params.Defaults()
				for _, s := range params.Specs() {
					v := s.Min
					if useMax {
						v = s.Max
					}
					Expect(p.Set(s.Name, v)).To(Succeed())
				}
				pair := newPair(16, 16)
				run(m, pair, p, force.Sample{Center: dynamo.V2(0.5, 0.5), Impulse: true}, 120)
				Expect(pair.Previous().IsValid()).To(BeTrue())
			}
		})
	})

	Describe("determinism", func() {
		It("produces identical fields from identical inputs", func() {
			a, b := newPair(20, 20), newPair(20, 20)
			f := force.Sample{Center: dynamo.V2(0.3, 0.6), Impulse: true}
			run(m, a, params.Defaults(), f, 25)
			run(m, b, params.Defaults(), f, 25)
			Expect(a.Previous().Texels).To(Equal(b.Previous().Texels))
		})

		It("does not depend on the worker count", func() {
			f := force.Sample{Center: dynamo.V2(0.7, 0.4), Impulse: true}
			var results [][]field.Texel
			for _, workers := range []int{1, 3, 8} {
				pair := newPair(33, 17)
				run(&physics.Marbling{Workers: workers}, pair, params.Defaults(), f, 15)
				results = append(results, pair.Previous().Texels)
			}
			Expect(results[1]).To(Equal(results[0]))
			Expect(results[2]).To(Equal(results[0]))
		})
	})

	Describe("decay", func() {
		It("never raises total density without forcing", func() {
			pair := newPair(24, 24)
			p := params.Defaults()
			start := totalDensity(pair.Previous())

			prev := start
			for i := 0; i < 200; i++ {
				run(m, pair, p, offField, 1)
				cur := totalDensity(pair.Previous())
				Expect(cur).To(BeNumerically("<=", prev+1e-12), "density rose at frame %d", i)
				prev = cur
			}
			Expect(prev).To(BeNumerically("<", start))
			for _, t := range pair.Previous().Texels {
				Expect(t.Flow.Len()).To(BeNumerically("<=", 0.1*p.FlowIntensity))
			}
		})
	})

	Describe("injection", func() {
		It("diffuses injected ink against the neighbours", func() {
			src, _ := field.New(32, 32)
			for i := range src.Texels {
				src.Texels[i] = field.Texel{Density: 0.2, Detail: 0.5}
			}
			dst, _ := field.New(32, 32)

			p := params.Defaults()
			p.ForceIntensity = 1
			p.InkGranularity = 0
			p.InkDiffusion = 1
			p.InkViscosity = 0.5
			p.InkEdgeDetail = 0
			p.PaperTexture = 0
			p.LightAbsorption = 1

			center := src.UV(16, 16)
			in := physics.Input{Force: force.Fixed(center), Params: p, Time: 0, Frame: 0}
			Expect(m.Step(dst, src, in)).To(Succeed())

			// Stage by stage for the center texel: s = 1, pulse = 0.7, grain = 1.
			density := 0.2 + 0.5*1*0.7
			detail := dynamo.Mix(0.5, noise.Hash(0, 0)*0.8+0.2, 0.8)
			lap := 4*0.2 - 4*density
			density += lap * 0.02
			density += lap * (0.8 + 0.4*detail) * 0.01
			density = dynamo.Mix(density, 0.2, dynamo.Mix(0.5, 0.95, 0.5))
			density *= dynamo.Mix(0.995, p.DecayRate, 0.7)

			Expect(dst.At(16, 16).Density).To(BeNumerically("~", density, 1e-12))

			// A neighbour outside the disc sees an unforced, uniform field.
			far := dst.At(2, 2).Density
			Expect(far).To(BeNumerically("~", 0.2*dynamo.Mix(0.995, p.DecayRate, 0.7), 1e-12))
		})

		It("adds ink at the force center and leaves distant cells alone", func() {
			p := params.Defaults()
			Expect(p.Set("forceIntensity", 4)).To(Succeed())

			forced, ref := newPair(64, 64), newPair(64, 64)
			run(m, forced, p, force.Fixed(dynamo.V2(0.5, 0.5)), 1)
			run(m, ref, p, offField, 1)

			got, want := forced.Previous(), ref.Previous()
			Expect(got.At(31, 31).Density).To(BeNumerically(">", field.SeedDensity))
			Expect(got.At(31, 31).Density).To(BeNumerically(">", want.At(31, 31).Density))
			Expect(got.At(5, 5)).To(Equal(want.At(5, 5)))
			Expect(got.At(60, 10)).To(Equal(want.At(60, 10)))
		})

		It("applies the impulse only after the first frame", func() {
			p := params.Defaults()
			f := force.Sample{Center: dynamo.V2(0.5, 0.5), Impulse: true}

			src, _ := field.New(64, 64)
			first, _ := field.New(64, 64)
			later, _ := field.New(64, 64)
			ref, _ := field.New(64, 64)

			Expect(m.Step(first, src, physics.Input{Force: f, Params: p, Frame: 0})).To(Succeed())
			Expect(m.Step(later, src, physics.Input{Force: f, Params: p, Frame: 1})).To(Succeed())
			Expect(m.Step(ref, src, physics.Input{Force: offField, Params: p, Frame: 1})).To(Succeed())

			// Texel left of center: the impulse points toward +x.
			Expect(first.At(30, 31).Flow).To(Equal(ref.At(30, 31).Flow))
			Expect(later.At(30, 31).Flow.X).To(BeNumerically(">", ref.At(30, 31).Flow.X+0.01))
		})
	})

	It("damps flow near the border", func() {
		p := params.Defaults()
		Expect(p.Set("turbulence", 0.5)).To(Succeed())

		src, _ := field.New(40, 40)
		for i := range src.Texels {
			src.Texels[i].Flow = dynamo.V2(0.05, 0)
		}
		dst, _ := field.New(40, 40)
		Expect(m.Step(dst, src, physics.Input{Force: offField, Params: p, Frame: 1})).To(Succeed())

		border, interior := dst.At(0, 20).Flow.X, dst.At(20, 20).Flow.X
		Expect(border).To(BeNumerically(">", 0))
		Expect(border).To(BeNumerically("<", 0.92*interior))
	})
})
