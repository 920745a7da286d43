// Package force decides where ink is injected each frame: at the pointer,
// or along an autonomous orbit when the pointer is idle.
package force

import (
	"math"

	"github.com/san-kum/marbling/internal/dynamo"
	"github.com/san-kum/marbling/internal/params"
)

// InactiveAfter is how long, in seconds, a pointer stays active after its
// last move or press.
const InactiveAfter = 1.0

// State is what the core knows about the pointer.
type State struct {
	Position   dynamo.Vec2 // normalized, y up
	Active     bool
	LastActive float64 // seconds
	Engaged    bool    // pointer has engaged at least once
}

// ActiveAt reports whether the pointer still counts as active at time now.
// Activity decays with elapsed time rather than on an edge.
func (s State) ActiveAt(now float64) bool {
	return s.Active && now-s.LastActive <= InactiveAfter
}

// Source is the tagged choice of forcing origin: Pointer or Orbit.
type Source interface {
	Center() dynamo.Vec2
	isSource()
}

// Pointer forces at the pointer position.
type Pointer struct {
	Position dynamo.Vec2
	Active   bool
}

func (p Pointer) Center() dynamo.Vec2 { return p.Position }
func (Pointer) isSource()             {}

// Orbit is the autonomous path: a slowly breathing circle around the field
// center. It is a pure function of time, radius and speed.
type Orbit struct {
	Time   float64
	Radius float64
	Speed  float64
}

func (o Orbit) Center() dynamo.Vec2 {
	r := 0.2 + o.Radius*math.Sin(o.Time*0.5)
	return dynamo.Vec2{
		X: 0.5 + r*0.5*math.Sin(o.Time*o.Speed),
		Y: 0.5 + r*0.5*math.Cos(o.Time*o.Speed),
	}
}

func (Orbit) isSource() {}

// Sample is the resolved forcing input for one frame.
type Sample struct {
	Source            Source
	Center            dynamo.Vec2
	UsingAutoMovement bool
	// Impulse is set when an active pointer should also push flow.
	Impulse bool
}

// Resolve picks the forcing source for time now.
func Resolve(st State, now float64, p params.Set) Sample {
	active := st.ActiveAt(now)
	auto := p.AutoMove && (!st.Engaged || (p.AutoMoveWhenInactive && !active))

	var src Source
	if auto {
		src = Orbit{Time: now, Radius: p.MovementRadius, Speed: p.MovementSpeed}
	} else {
		src = Pointer{Position: st.Position, Active: active}
	}

	return Sample{
		Source:            src,
		Center:            src.Center(),
		UsingAutoMovement: auto,
		Impulse:           !auto && active,
	}
}

// Fixed returns a pointer sample at an arbitrary center without impulse.
// Useful for driving the kernel directly.
func Fixed(center dynamo.Vec2) Sample {
	src := Pointer{Position: center}
	return Sample{Source: src, Center: center}
}
