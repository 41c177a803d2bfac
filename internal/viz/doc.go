// Package viz provides the terminal live view for soft body scenes.
//
//   - [Model]: bubbletea program that steps a scene every tick and draws its
//     published frames
//   - [Menu]: preset picker that opens a [Model]
//   - [Canvas]: Braille-based pixel canvas
//   - [Camera]: orthographic orbit camera, shared with image export
//
// # Key Bindings
//
//	Space  - Pause/Resume simulation
//	R      - Reset bodies to rest
//	Arrows - Orbit camera
//	+/-    - Zoom
//	F      - Fit camera to scene
//	T      - Cycle color themes
//	G      - Toggle GIF recording
//	?      - Show help overlay
package viz
