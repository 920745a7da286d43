// Package physics implements the per-frame ink update rule.
//
// [Marbling.Step] reads the previous field and writes the next one. Each
// texel is computed from the previous field only, so rows are processed in
// parallel and the result does not depend on the worker count:
//
//	m := &physics.Marbling{Workers: 4}
//	err := m.Step(pair.Scratch(), pair.Previous(), physics.Input{
//		Force:  force.Resolve(tracker.State(), now, p),
//		Params: p,
//		Time:   now,
//		Frame:  frame,
//	})
//
// # Stability
//
// Density is clamped to [0, 1] at the end of every step and flow magnitude
// is capped at 0.1·flowIntensity. Detail is left unclamped but is always a
// blend of bounded terms, so it stays finite.
package physics
