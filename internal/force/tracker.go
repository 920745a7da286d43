package force

import (
	"sync"

	"github.com/san-kum/marbling/internal/dynamo"
)

type EventKind int

const (
	// Move updates the position and refreshes activity.
	Move EventKind = iota
	// Engage is a press (Engaged=true) or release (Engaged=false).
	Engage
	// Leave is the pointer leaving the surface. Activity is left to decay.
	Leave
	// Lost is loss of tracking; activity ends immediately.
	Lost
)

func (k EventKind) String() string {
	switch k {
	case Move:
		return "move"
	case Engage:
		return "engage"
	case Leave:
		return "leave"
	case Lost:
		return "lost"
	}
	return "unknown"
}

// Event is one pointer observation from the input collaborator.
type Event struct {
	Kind     EventKind
	Position dynamo.Vec2 // normalized, already flipped
	Engaged  bool
	Time     float64 // seconds since start
}

// Tracker folds pointer events into a State. Input may arrive on a
// different goroutine than the frame loop.
type Tracker struct {
	mu    sync.Mutex
	state State
}

// NewTracker starts with the pointer parked at the field center, never
// engaged.
func NewTracker() *Tracker {
	t := &Tracker{}
	t.Reset()
	return t
}

func (t *Tracker) Apply(ev Event) {
	t.mu.Lock()
	defer t.mu.Unlock()

	switch ev.Kind {
	case Move:
		t.state.Position = ev.Position
		t.touch(ev.Time)
	case Engage:
		t.state.Position = ev.Position
		if ev.Engaged {
			t.touch(ev.Time)
		}
	case Leave:
	case Lost:
		t.state.Active = false
	}
}

func (t *Tracker) touch(now float64) {
	t.state.Active = true
	t.state.Engaged = true
	t.state.LastActive = now
}

// Reset parks the pointer back at the field center with no history.
func (t *Tracker) Reset() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.state = State{Position: dynamo.V2(0.5, 0.5)}
}

// State returns a copy of the current pointer state.
func (t *Tracker) State() State {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.state
}

// Normalize maps raw surface coordinates (origin top-left, y down) to the
// simulation's normalized space (origin bottom-left, y up), clamped to
// [0,1]².
func Normalize(px, py, w, h float64) dynamo.Vec2 {
	if w <= 0 || h <= 0 {
		return dynamo.V2(0.5, 0.5)
	}
	return dynamo.Vec2{
		X: dynamo.Clamp(px/w, 0, 1),
		Y: dynamo.Clamp(1-py/h, 0, 1),
	}
}
