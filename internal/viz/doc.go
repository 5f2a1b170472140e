// Package viz renders trajectories in the terminal.
//
//   - [TimeSeries]: line charts of selected variables (asciigraph)
//   - [PhasePortrait]: two variables plotted against each other, as plain
//     ASCII or on a Braille [Canvas]
//   - [Camera]: rotating 3D projection for three-variable systems
//   - [Browser]: Bubble Tea program for scrubbing through a stored run
//
// # Browser Key Bindings
//
//	←/→ h/l   - Move the sample cursor (rotate in orbit view)
//	↑/↓ k/j   - Tilt the orbit camera
//	PgUp/PgDn - Jump 10% of the run
//	g/G       - First / last sample
//	+/-       - Zoom the orbit camera
//	Tab       - Next variable
//	P         - Toggle phase view
//	O         - Toggle 3D orbit (three or more variables)
//	T         - Cycle color themes
//	Q         - Quit
package viz
