// Package viz is the terminal surface for the marbling simulation.
//
// The field is drawn with half blocks, two texels per terminal cell, in
// truecolor via lipgloss. Mouse motion over the canvas becomes pointer
// events for the engine; a side panel shows timing, the forcing source,
// an energy graph and the tunable parameters.
//
//   - [Model]: live view over a [sim.Engine]
//   - [Canvas]: maps terminal cells to field texels and back
//   - [RunInteractive]: scene picker followed by the live view
//
// # Key Bindings
//
//	Space   - Pause/Resume
//	R       - Reset field and parameters
//	P       - Next color preset
//	A, I    - Toggle auto movement flags
//	Tab     - Select parameter, Up/Down to tune
//	G       - Toggle GIF recording (marbling.gif)
//	T       - Cycle panel themes
//	Esc     - Drop the pointer immediately
package viz
