// Package dynamo provides the core primitives shared by the marbling
// simulation.
//
// The package defines the small numeric vocabulary the kernel and the
// compositor are written in, plus the error and logging conventions used
// across the repository:
//
//   - [Vec2], [Vec3]: value vectors for flow, positions and colors
//   - [Mix], [Smoothstep], [Fract], [Clamp]: shading helpers
//   - [ParallelFor]: row-chunked data-parallel loop
//   - [SetLogger], [Logger]: package-wide structured logger (silent by default)
//
// # Example
//
//	dynamo.ParallelFor(f.H, 8, workers, func(start, end int) {
//	    for y := start; y < end; y++ {
//	        ...
//	    }
//	})
//
// # Thread Safety
//
// All helpers are pure functions. The logger may be swapped from any
// goroutine.
package dynamo
