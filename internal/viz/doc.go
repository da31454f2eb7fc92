// Package viz is the terminal viewer of a running simulation.
//
// It is built on Bubble Tea:
//
//   - [Model]: live view of one [Engine], drawn on a braille [Canvas]
//   - [Menu]: scenario picker that launches a live view
//
// The viewer only talks to the simulation through [Engine]: it reads one
// frame per tick and forwards key presses to the controller's mutators.
//
// # Key Bindings
//
//	Space  - Pause/Resume
//	+ -    - Simulation speed
//	] [    - Render scale
//	t      - Toggle trails
//	o      - Short orbit trails
//	x y z  - Rotate the view (shift reverses)
//	r      - Reset the view
//	c      - Cycle color themes
//	?      - Help overlay
//	q      - Quit
package viz
