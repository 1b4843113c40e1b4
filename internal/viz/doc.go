// Package viz renders simulation results in the terminal.
//
//   - [RenderSummary]: styled report of a finished run
//   - [Canvas]: Braille-based pixel canvas used for phase plots
//   - [NewExplorer]: Bubble Tea app to pick a preset, tweak it and browse
//     the result
//
// # Key Bindings
//
//	↑/↓    - Move through presets or fields
//	Enter  - Select preset / run simulation
//	←/→    - Adjust the selected field
//	Tab    - Cycle series, phase and summary views
//	1-4    - Choose the plotted channel
//	Esc    - Back
//	Q      - Quit
package viz
