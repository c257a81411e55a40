// Package viz renders layers and energy histories for the terminal.
//
//   - [Canvas]: braille pixel canvas, 2x4 dots per cell
//   - [RenderLayer]: draws one layer onto a fresh canvas
//   - [EnergyPlot], [SnapshotPlot], [SpectrumPlot]: asciigraph line charts
//
// The styles in this package are shared with the tui package.
package viz
