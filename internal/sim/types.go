package sim

import (
	"image"

	"github.com/san-kum/marbling/internal/field"
	"github.com/san-kum/marbling/internal/force"
	"github.com/san-kum/marbling/internal/metrics"
	"github.com/san-kum/marbling/internal/params"
	"github.com/san-kum/marbling/internal/physics"
)

// Stepper advances a field by one frame, reading src and writing dst.
type Stepper interface {
	Step(dst, src *field.Field, in physics.Input) error
}

// Compositor renders a field into an image of the same size.
type Compositor interface {
	Composite(dst *image.RGBA, f *field.Field, p params.Set, t float64) error
}

// Metric accumulates a scalar over committed frames.
type Metric interface {
	Name() string
	Observe(f *field.Field, t float64)
	Value() float64
	Reset()
}

// Observer is notified of every committed frame.
type Observer interface {
	OnFrame(fr FrameInfo)
}

// Driver feeds pointer events into headless runs. Events returns the
// events with prev < Time <= now.
type Driver interface {
	Events(prev, now float64) []force.Event
}

// FrameInfo describes a committed frame. Field and Image belong to the
// engine and are only valid until the next frame.
type FrameInfo struct {
	Index uint64
	Time  float64
	Field *field.Field
	Image *image.RGBA
	Force force.Sample
}

// RunConfig controls a headless run. Frame i is simulated at time i/FPS.
type RunConfig struct {
	FPS    float64
	Frames int
	Driver Driver
	// Record keeps one metrics.Sample per committed frame in the result.
	Record bool
}

type Result struct {
	Frames  int
	Faults  int
	Samples []metrics.Sample
	Metrics map[string]float64
}
