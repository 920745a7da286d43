package sim

import (
	"fmt"
	"image"
	"sync"

	"github.com/san-kum/marbling/internal/dynamo"
	"github.com/san-kum/marbling/internal/field"
	"github.com/san-kum/marbling/internal/force"
	"github.com/san-kum/marbling/internal/params"
	"github.com/san-kum/marbling/internal/physics"
	"github.com/san-kum/marbling/internal/render"
)

// pointerLogEvery throttles pointer diagnostics while the pointer is active.
const pointerLogEvery = 60

type Options struct {
	Width, Height int
	// Workers bounds per-frame parallelism. Zero means GOMAXPROCS.
	Workers int
	Params  params.Set
	// Stepper and Compositor default to the marbling kernel and renderer.
	Stepper    Stepper
	Compositor Compositor
}

// Engine owns the field pair and drives frames: resolve forcing, step,
// composite, then commit. A frame that fails is discarded and the last
// committed field stays current.
type Engine struct {
	mu sync.Mutex

	pair          *field.Pair
	current, next *image.RGBA

	store   *params.Store
	tracker *force.Tracker
	stepper Stepper
	comp    Compositor

	metrics   []Metric
	observers []Observer

	frame  uint64
	faults uint64
	last   force.Sample
}

func New(opts Options) (*Engine, error) {
	pair, err := field.NewPair(opts.Width, opts.Height)
	if err != nil {
		return nil, fmt.Errorf("new engine: %w", err)
	}
	if err := opts.Params.Validate(); err != nil {
		return nil, fmt.Errorf("new engine: %w", err)
	}

	e := &Engine{
		pair:    pair,
		store:   params.NewStore(opts.Params),
		tracker: force.NewTracker(),
		stepper: opts.Stepper,
		comp:    opts.Compositor,
	}
	if e.stepper == nil {
		e.stepper = &physics.Marbling{Workers: opts.Workers}
	}
	if e.comp == nil {
		e.comp = &render.Compositor{Workers: opts.Workers}
	}
	e.allocImages(opts.Width, opts.Height)
	return e, nil
}

func (e *Engine) allocImages(w, h int) {
	e.current = image.NewRGBA(image.Rect(0, 0, w, h))
	e.next = image.NewRGBA(image.Rect(0, 0, w, h))
}

func (e *Engine) AddMetric(m Metric)     { e.metrics = append(e.metrics, m) }
func (e *Engine) AddObserver(o Observer) { e.observers = append(e.observers, o) }

// Params is the engine's parameter store. Changes apply from the next frame.
func (e *Engine) Params() *params.Store { return e.store }

// Pointer records a pointer event. Safe to call from any goroutine.
func (e *Engine) Pointer(ev force.Event) { e.tracker.Apply(ev) }

// PointerState returns the tracked pointer state.
func (e *Engine) PointerState() force.State { return e.tracker.State() }

// Frame advances the simulation to time now and returns the committed
// image, which stays valid until the next call. On failure the previous
// image is returned together with a *dynamo.FrameError.
func (e *Engine) Frame(now float64) (*image.RGBA, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	p := e.store.Snapshot()
	st := e.tracker.State()
	sample := force.Resolve(st, now, p)

	if err := e.attempt(now, p, sample); err != nil {
		e.faults++
		ferr := &dynamo.FrameError{Frame: e.frame, Time: now, Wrapped: err}
		dynamo.Logger().Warn("frame discarded", "frame", e.frame, "time", now, "err", err)
		return e.current, ferr
	}

	e.pair.Swap()
	e.current, e.next = e.next, e.current
	e.last = sample

	if st.ActiveAt(now) && e.frame%pointerLogEvery == 0 {
		dynamo.Logger().Debug("pointer",
			"frame", e.frame,
			"x", st.Position.X,
			"y", st.Position.Y,
			"auto", sample.UsingAutoMovement)
	}

	committed := e.pair.Previous()
	for _, m := range e.metrics {
		m.Observe(committed, now)
	}
	info := FrameInfo{Index: e.frame, Time: now, Field: committed, Image: e.current, Force: sample}
	for _, o := range e.observers {
		o.OnFrame(info)
	}
	e.frame++
	return e.current, nil
}

// attempt steps and composites into the scratch buffers. Panics are turned
// into errors so a bad frame never takes down the loop.
func (e *Engine) attempt(now float64, p params.Set, sample force.Sample) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic: %v: %w", r, dynamo.ErrInvalidState)
		}
	}()

	src, dst := e.pair.Previous(), e.pair.Scratch()
	in := physics.Input{Force: sample, Params: p, Time: now, Frame: e.frame}
	if err := e.stepper.Step(dst, src, in); err != nil {
		return fmt.Errorf("step: %w", err)
	}
	if err := e.comp.Composite(e.next, dst, p, now); err != nil {
		return fmt.Errorf("composite: %w", err)
	}
	return nil
}

// Resize reallocates both buffers at the new size, seeded. On failure the
// current buffers are kept.
func (e *Engine) Resize(w, h int) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if cw, ch := e.pair.Size(); cw == w && ch == h {
		return nil
	}
	pair, err := field.NewPair(w, h)
	if err != nil {
		dynamo.Logger().Warn("resize rejected", "width", w, "height", h, "err", err)
		return fmt.Errorf("resize: %w", err)
	}
	e.pair = pair
	e.allocImages(w, h)
	e.restart()
	dynamo.Logger().Info("resized", "width", w, "height", h)
	return nil
}

// Reset re-seeds the field without changing its size. Frame counting and
// pointer history start over, as for a new engine.
func (e *Engine) Reset() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.pair.Reset()
	e.restart()
}

// restart clears per-run state. Callers hold e.mu.
func (e *Engine) restart() {
	e.tracker.Reset()
	e.frame, e.faults = 0, 0
	e.last = force.Sample{}
	for _, m := range e.metrics {
		m.Reset()
	}
}

func (e *Engine) Size() (w, h int) {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.pair.Size()
}

// Field returns a copy of the last committed field.
func (e *Engine) Field() *field.Field {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.pair.Previous().Clone()
}

// FrameCount is the number of frames attempted, committed or not.
func (e *Engine) FrameCount() uint64 {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.frame + e.faults
}

// Faults is the number of discarded frames.
func (e *Engine) Faults() uint64 {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.faults
}

// LastForce is the forcing sample of the last committed frame.
func (e *Engine) LastForce() force.Sample {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.last
}
