// Package viz is the terminal front end of the simulator.
//
// It draws a universe on a braille [Canvas] through a perspective camera and
// routes keyboard and mouse input to the placement state machine first,
// falling back to camera controls when a gesture is not consumed. Physics
// advances once per tick except while a body is being staged.
//
//   - [Model]: the live viewer
//   - [Menu]: picks a starting universe, then runs the viewer
//   - [Scene]: projection, rendering and picking
//   - [Recorder]: GIF capture of the canvas
//
// # Key Bindings
//
//	Space   - Pause/Resume
//	N / O   - Place a body freely / in orbit around the selection
//	F       - Toggle firing mode
//	Enter   - Confirm the placement step, fire or select
//	Esc     - Cancel placement or clear the selection
//	+/-     - Mass, speed or orbit radius while placing, zoom otherwise
//	Tab     - Follow the next body
//	G       - Toggle GIF recording
//	T       - Cycle color themes
//	?       - Show help overlay
package viz
