package integrators

import (
	"github.com/san-kum/wavesim/internal/boundary"
	"github.com/san-kum/wavesim/internal/wave"
)

// minParallelChunk keeps goroutine overhead below the cost of the work.
const minParallelChunk = 4096

// Stencil is the explicit three-layer leapfrog scheme for u_tt = c² u_xx.
// coef = (c*dt/dx)² is fixed for the lifetime of the stencil.
type Stencil struct {
	coef    float64
	workers int
}

func NewStencil(p wave.Params) *Stencil {
	lambda := p.C * p.Dt / p.Dx
	return &Stencil{coef: lambda * lambda, workers: 1}
}

// WithWorkers splits the interior update across n goroutines for large
// grids. n <= 0 uses GOMAXPROCS.
func (s *Stencil) WithWorkers(n int) *Stencil {
	s.workers = n
	return s
}

func (s *Stencil) Coef() float64 { return s.coef }

// Advance computes the next layer, applies b to it and rotates the grid.
func (s *Stencil) Advance(g *wave.Grid, b boundary.Policy) {
	prev, cur, next := g.Previous(), g.Current(), g.Next()
	interior := g.Nx - 2

	if s.workers == 1 || interior <= minParallelChunk {
		s.update(prev, cur, next, 1, g.Nx-1)
	} else {
		wave.ParallelFor(interior, minParallelChunk, s.workers, func(start, end int) {
			s.update(prev, cur, next, start+1, end+1)
		})
	}

	b.Apply(next, g.Nx)
	g.Rotate()
}

// update writes next[i] for i in [lo, hi). The operator order is fixed and
// the float64 conversions keep the compiler from fusing multiply-adds, so
// results are bit-identical across chunkings and architectures.
func (s *Stencil) update(prev, cur, next wave.Layer, lo, hi int) {
	coef := s.coef
	for i := lo; i < hi; i++ {
		next[i] = float64(2*cur[i]) - prev[i] + float64(coef*(cur[i+1]-float64(2*cur[i])+cur[i-1]))
	}
}
