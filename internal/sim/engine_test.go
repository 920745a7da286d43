package sim_test

import (
	"context"
	"errors"
	"image"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/san-kum/marbling/internal/dynamo"
	"github.com/san-kum/marbling/internal/field"
	"github.com/san-kum/marbling/internal/force"
	"github.com/san-kum/marbling/internal/metrics"
	"github.com/san-kum/marbling/internal/params"
	"github.com/san-kum/marbling/internal/physics"
	"github.com/san-kum/marbling/internal/sim"
)

// flakyStepper delegates to the real kernel unless told to fail.
type flakyStepper struct {
	kernel physics.Marbling
	panic  bool
	fail   bool
}

func (s *flakyStepper) Step(dst, src *field.Field, in physics.Input) error {
	if s.panic {
		panic("kernel exploded")
	}
	if s.fail {
		return dynamo.ErrInvalidState
	}
	return s.kernel.Step(dst, src, in)
}

type failingCompositor struct{}

func (failingCompositor) Composite(*image.RGBA, *field.Field, params.Set, float64) error {
	return errors.New("surface lost")
}

type countingObserver struct{ frames []uint64 }

func (o *countingObserver) OnFrame(fr sim.FrameInfo) { o.frames = append(o.frames, fr.Index) }

type scriptedDriver struct{ events []force.Event }

func (d scriptedDriver) Events(prev, now float64) []force.Event {
	var out []force.Event
	for _, ev := range d.events {
		if ev.Time > prev && ev.Time <= now {
			out = append(out, ev)
		}
	}
	return out
}

func newEngine(opts sim.Options) *sim.Engine {
	if opts.Width == 0 {
		opts.Width, opts.Height = 24, 16
	}
	if opts.Params == (params.Set{}) {
		opts.Params = params.Defaults()
	}
	e, err := sim.New(opts)
	Expect(err).NotTo(HaveOccurred())
	return e
}

var _ = Describe("Engine", func() {
	It("rejects sizes it cannot allocate", func() {
		_, err := sim.New(sim.Options{Width: 0, Height: 10, Params: params.Defaults()})
		Expect(err).To(MatchError(dynamo.ErrAllocation))
	})

	It("rejects invalid parameters", func() {
		p := params.Defaults()
		p.DecayRate = 2
		_, err := sim.New(sim.Options{Width: 4, Height: 4, Params: p})
		Expect(err).To(MatchError(dynamo.ErrParameterBounds))
	})

	It("commits frames in order", func() {
		e := newEngine(sim.Options{})
		obs := &countingObserver{}
		e.AddObserver(obs)

		for i := 0; i < 3; i++ {
			img, err := e.Frame(float64(i) / 60)
			Expect(err).NotTo(HaveOccurred())
			Expect(img.Bounds()).To(Equal(image.Rect(0, 0, 24, 16)))
		}
		Expect(obs.frames).To(Equal([]uint64{0, 1, 2}))
		Expect(e.Field().Generation).To(Equal(uint64(3)))
		Expect(e.FrameCount()).To(Equal(uint64(3)))
	})

	Context("when a frame fails", func() {
		var (
			e       *sim.Engine
			stepper *flakyStepper
		)

		BeforeEach(func() {
			stepper = &flakyStepper{}
			e = newEngine(sim.Options{Stepper: stepper})
			_, err := e.Frame(0)
			Expect(err).NotTo(HaveOccurred())
		})

		It("recovers a panic and keeps the last field", func() {
			before := e.Field()
			stepper.panic = true

			_, err := e.Frame(1.0 / 60)
			var ferr *dynamo.FrameError
			Expect(errors.As(err, &ferr)).To(BeTrue())
			Expect(ferr.Frame).To(Equal(uint64(1)))
			Expect(err).To(MatchError(dynamo.ErrInvalidState))
			Expect(e.Faults()).To(Equal(uint64(1)))
			Expect(e.Field().Texels).To(Equal(before.Texels))

			stepper.panic = false
			_, err = e.Frame(2.0 / 60)
			Expect(err).NotTo(HaveOccurred())
			Expect(e.Field().Generation).To(Equal(before.Generation + 1))
		})

		It("discards the frame on a step error", func() {
			before := e.Field()
			stepper.fail = true
			_, err := e.Frame(1.0 / 60)
			Expect(err).To(MatchError(dynamo.ErrInvalidState))
			Expect(e.Field()).To(Equal(before))
		})
	})

	It("does not commit a frame whose composite fails", func() {
		e := newEngine(sim.Options{Compositor: failingCompositor{}})
		_, err := e.Frame(0)
		Expect(err).To(HaveOccurred())
		Expect(e.Field().Generation).To(BeZero())
		Expect(e.Faults()).To(Equal(uint64(1)))
	})

	Describe("Resize", func() {
		It("re-seeds at the new size", func() {
			e := newEngine(sim.Options{})
			_, _ = e.Frame(0)
			Expect(e.Resize(10, 6)).To(Succeed())

			w, h := e.Size()
			Expect([]int{w, h}).To(Equal([]int{10, 6}))
			f := e.Field()
			Expect(f.Generation).To(BeZero())
			Expect(f.Texels[0]).To(Equal(field.SeedTexel()))

			img, err := e.Frame(1.0 / 60)
			Expect(err).NotTo(HaveOccurred())
			Expect(img.Bounds().Dx()).To(Equal(10))
		})

		It("keeps the old buffers when allocation fails", func() {
			e := newEngine(sim.Options{})
			Expect(e.Resize(-1, 5)).To(MatchError(dynamo.ErrAllocation))
			w, h := e.Size()
			Expect([]int{w, h}).To(Equal([]int{24, 16}))
			_, err := e.Frame(0)
			Expect(err).NotTo(HaveOccurred())
		})
	})

	Describe("Reset", func() {
		It("forgets the pointer so the orbit resumes on the rewound clock", func() {
			e := newEngine(sim.Options{})
			e.Pointer(force.Event{Kind: force.Move, Position: dynamo.V2(0.3, 0.6), Time: 10})
			_, _ = e.Frame(10)
			Expect(e.LastForce().UsingAutoMovement).To(BeFalse())

			e.Reset()
			Expect(e.FrameCount()).To(BeZero())
			Expect(e.PointerState().Engaged).To(BeFalse())
			Expect(e.LastForce()).To(Equal(force.Sample{}))

			_, err := e.Frame(5)
			Expect(err).NotTo(HaveOccurred())
			Expect(e.LastForce().UsingAutoMovement).To(BeTrue())
		})

		It("starts frame numbering over", func() {
			fresh := newEngine(sim.Options{})
			fresh.Pointer(force.Event{Kind: force.Move, Position: dynamo.V2(0.3, 0.6), Time: 0.1})
			_, err := fresh.Frame(0.1)
			Expect(err).NotTo(HaveOccurred())

			reused := newEngine(sim.Options{})
			obs := &countingObserver{}
			reused.AddObserver(obs)
			for i := 0; i < 5; i++ {
				_, _ = reused.Frame(float64(i) / 60)
			}
			reused.Reset()
			reused.Pointer(force.Event{Kind: force.Move, Position: dynamo.V2(0.3, 0.6), Time: 0.1})
			_, err = reused.Frame(0.1)
			Expect(err).NotTo(HaveOccurred())

			// The first frame after a reset carries no impulse, same as a new engine.
			Expect(obs.frames[len(obs.frames)-1]).To(BeZero())
			Expect(reused.Field().Texels).To(Equal(fresh.Field().Texels))
		})

		It("also restarts after a resize", func() {
			e := newEngine(sim.Options{})
			e.Pointer(force.Event{Kind: force.Move, Position: dynamo.V2(0.3, 0.6), Time: 10})
			_, _ = e.Frame(10)
			Expect(e.Resize(12, 8)).To(Succeed())
			Expect(e.FrameCount()).To(BeZero())

			_, _ = e.Frame(5)
			Expect(e.LastForce().UsingAutoMovement).To(BeTrue())
		})
	})

	Describe("forcing", func() {
		It("orbits until the pointer engages", func() {
			e := newEngine(sim.Options{})
			_, _ = e.Frame(0)
			Expect(e.LastForce().UsingAutoMovement).To(BeTrue())

			e.Pointer(force.Event{Kind: force.Move, Position: dynamo.V2(0.25, 0.75), Time: 0.5})
			_, _ = e.Frame(0.6)
			Expect(e.LastForce().UsingAutoMovement).To(BeFalse())
			Expect(e.LastForce().Center).To(Equal(dynamo.V2(0.25, 0.75)))
			Expect(e.LastForce().Impulse).To(BeTrue())

			_, _ = e.Frame(1.6)
			Expect(e.LastForce().UsingAutoMovement).To(BeTrue())
		})

		It("applies parameter changes on the next frame", func() {
			e := newEngine(sim.Options{})
			Expect(e.Params().SetBool(params.FlagAutoMove, false)).To(Succeed())
			_, _ = e.Frame(0)
			Expect(e.LastForce().UsingAutoMovement).To(BeFalse())
		})
	})

	Describe("Run", func() {
		It("validates its configuration", func() {
			e := newEngine(sim.Options{})
			_, err := e.Run(context.Background(), sim.RunConfig{FPS: 0, Frames: 10}, nil)
			Expect(err).To(MatchError(dynamo.ErrParameterBounds))
			_, err = e.Run(context.Background(), sim.RunConfig{FPS: 60, Frames: 0}, nil)
			Expect(err).To(MatchError(dynamo.ErrParameterBounds))
		})

		It("records samples and metrics", func() {
			e := newEngine(sim.Options{})
			e.AddMetric(metrics.NewEnergy())
			res, err := e.Run(context.Background(), sim.RunConfig{FPS: 60, Frames: 30, Record: true}, nil)
			Expect(err).NotTo(HaveOccurred())
			Expect(res.Frames).To(Equal(30))
			Expect(res.Samples).To(HaveLen(30))
			Expect(res.Samples[29].Frame).To(Equal(uint64(29)))
			Expect(res.Samples[29].Time).To(BeNumerically("~", 29.0/60, 1e-12))
			Expect(res.Metrics).To(HaveKey("energy"))
		})

		It("stops when the callback returns false", func() {
			e := newEngine(sim.Options{})
			res, err := e.Run(context.Background(), sim.RunConfig{FPS: 60, Frames: 100}, func(fr sim.FrameInfo) bool {
				return fr.Index < 4
			})
			Expect(err).NotTo(HaveOccurred())
			Expect(res.Frames).To(Equal(5))
		})

		It("stops on cancellation", func() {
			e := newEngine(sim.Options{})
			ctx, cancel := context.WithCancel(context.Background())
			res, err := e.Run(ctx, sim.RunConfig{FPS: 60, Frames: 100}, func(fr sim.FrameInfo) bool {
				if fr.Index == 2 {
					cancel()
				}
				return true
			})
			Expect(err).To(MatchError(dynamo.ErrContextCanceled))
			Expect(errors.Is(err, context.Canceled)).To(BeTrue())
			Expect(res.Frames).To(Equal(3))
		})

		It("counts faults and keeps going", func() {
			stepper := &flakyStepper{fail: true}
			e := newEngine(sim.Options{Stepper: stepper})
			res, err := e.Run(context.Background(), sim.RunConfig{FPS: 60, Frames: 5}, nil)
			Expect(err).NotTo(HaveOccurred())
			Expect(res.Faults).To(Equal(5))
			Expect(res.Frames).To(BeZero())
		})

		It("feeds driver events to the pointer", func() {
			e := newEngine(sim.Options{})
			driver := scriptedDriver{events: []force.Event{
				{Kind: force.Move, Position: dynamo.V2(0.1, 0.9), Time: 0.05},
			}}
			var sawPointer bool
			_, err := e.Run(context.Background(), sim.RunConfig{FPS: 60, Frames: 10, Driver: driver}, func(fr sim.FrameInfo) bool {
				if !fr.Force.UsingAutoMovement {
					sawPointer = true
					Expect(fr.Force.Center).To(Equal(dynamo.V2(0.1, 0.9)))
				}
				return true
			})
			Expect(err).NotTo(HaveOccurred())
			Expect(sawPointer).To(BeTrue())
			Expect(e.PointerState().Engaged).To(BeTrue())
		})

		It("is reproducible", func() {
			a, b := newEngine(sim.Options{Workers: 1}), newEngine(sim.Options{Workers: 6})
			cfg := sim.RunConfig{FPS: 30, Frames: 40}
			_, err := a.Run(context.Background(), cfg, nil)
			Expect(err).NotTo(HaveOccurred())
			_, err = b.Run(context.Background(), cfg, nil)
			Expect(err).NotTo(HaveOccurred())
			Expect(a.Field().Texels).To(Equal(b.Field().Texels))
		})

		It("loses energy once forcing leaves the field", func() {
			p := params.Defaults()
			p.AutoMove = false
			e := newEngine(sim.Options{Params: p})
			e.Pointer(force.Event{Kind: force.Move, Position: dynamo.V2(0.5, 0.5), Time: 0})
			res, err := e.Run(context.Background(), sim.RunConfig{FPS: 60, Frames: 30, Record: true}, nil)
			Expect(err).NotTo(HaveOccurred())
			inked := res.Samples[len(res.Samples)-1].Energy

			// Park the pointer outside the field.
			e.Pointer(force.Event{Kind: force.Lost, Time: 0.5})
			e.Pointer(force.Event{Kind: force.Engage, Position: dynamo.V2(50, 50), Time: 0.5})
			res, err = e.Run(context.Background(), sim.RunConfig{FPS: 60, Frames: 200, Record: true}, nil)
			Expect(err).NotTo(HaveOccurred())
			settled := res.Samples[len(res.Samples)-1].Energy
			Expect(settled).To(BeNumerically("<", inked))
		})
	})
})

var _ = Describe("Ensemble", func() {
	It("runs independent jobs", func() {
		jobs := make([]sim.Job, 3)
		for i := range jobs {
			p := params.Defaults()
			p.ForceIntensity = float64(i + 1)
			jobs[i] = sim.Job{
				Name:    "job",
				Options: sim.Options{Width: 16, Height: 16, Workers: 1, Params: p},
				Config:  sim.RunConfig{FPS: 60, Frames: 10},
				Metrics: func() []sim.Metric { return []sim.Metric{metrics.NewEnergy()} },
			}
		}
		results, err := sim.NewEnsemble(2).Run(context.Background(), jobs)
		Expect(err).NotTo(HaveOccurred())
		Expect(results).To(HaveLen(3))
		for _, r := range results {
			Expect(r.Frames).To(Equal(10))
			Expect(r.Metrics["energy"]).To(BeNumerically(">", 0))
		}
	})

	It("fails when a job cannot start", func() {
		jobs := []sim.Job{{Name: "bad", Options: sim.Options{Width: 0, Height: 0, Params: params.Defaults()}, Config: sim.RunConfig{FPS: 60, Frames: 1}}}
		_, err := sim.NewEnsemble(0).Run(context.Background(), jobs)
		Expect(err).To(MatchError(dynamo.ErrAllocation))
	})
})
