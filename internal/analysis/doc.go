// Package analysis post-processes snapshots.
//
//   - [PowerSpectrum]: magnitude spectrum of a layer via FFT
//   - [DominantMode]: strongest non-constant spatial mode
//   - [StandingWave]: exact solution of the Dirichlet sine mode
//
// # Modal content
//
// A Dirichlet run seeded with mode m should keep its energy in bin m of the
// odd-extended spectrum:
//
//	mode := analysis.DominantMode(u)
package analysis
