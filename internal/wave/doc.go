// Package wave holds the discretized state of a 1D string.
//
// A [Grid] owns exactly three buffers of length Nx that play the roles of
// the previous, current and next time layers of an explicit three-layer
// finite-difference scheme. Roles rotate after each step; buffers are never
// reallocated or copied in the hot loop.
//
//   - [Params]: spacing, time step, wave speed and point count
//   - [Grid]: the three layers plus step/time bookkeeping
//   - [ParallelFor]: chunked parallel loop used by the stencil
//
// # Stability
//
// The scheme is stable only when the Courant number λ = c·dt/dx is at most
// one. The grid does not enforce this; [Grid.CheckCourant] reports it for
// callers that want to.
//
//	g, err := wave.NewGrid(wave.Params{Nx: 201, Dx: 0.01, Dt: 0.005, C: 1})
//	if err != nil {
//	    return err
//	}
//	_ = g.CheckCourant()
package wave
