package integrators

import (
	"testing"

	"github.com/san-kum/wavesim/internal/boundary"
	"github.com/san-kum/wavesim/internal/initial"
	"github.com/san-kum/wavesim/internal/wave"
)

func benchStencil(b *testing.B, nx, workers int) {
	p := wave.Params{Nx: nx, Dx: 1.0 / float64(nx-1), Dt: 0.5 / float64(nx-1), C: 1}
	g, _ := wave.NewGrid(p)
	initial.Sine{Mode: 1, Amplitude: 1}.Fill(g.Previous(), g.Current(), p.Dx)
	s := NewStencil(p).WithWorkers(workers)
	bc := boundary.Dirichlet{}

	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		s.Advance(g, bc)
	}
}

func BenchmarkStencilSmall(b *testing.B)         { benchStencil(b, 201, 1) }
func BenchmarkStencilLarge(b *testing.B)         { benchStencil(b, 1<<16, 1) }
func BenchmarkStencilLargeParallel(b *testing.B) { benchStencil(b, 1<<16, 4) }
