package automation

import (
	"context"
	"fmt"

	"github.com/san-kum/wavesim/internal/analysis"
	"github.com/san-kum/wavesim/internal/boundary"
	"github.com/san-kum/wavesim/internal/config"
	"github.com/san-kum/wavesim/internal/metrics"
	"github.com/san-kum/wavesim/internal/sim"
	"github.com/san-kum/wavesim/internal/wave"
)

// exactStart seeds both layers from the exact standing wave, at t=-dt and
// t=0, so the start adds no first-order error.
type exactStart struct {
	mode int
	c    float64
	dt   float64
}

func (e exactStart) Fill(prev, cur wave.Layer, dx float64) {
	copy(prev, analysis.StandingWave(len(prev), dx, e.c, -e.dt, e.mode))
	copy(cur, analysis.StandingWave(len(cur), dx, e.c, 0, e.mode))
}

// ConvergencePoint is the error of one resolution against the exact solution.
type ConvergencePoint struct {
	Nx    int
	Dx    float64
	Dt    float64
	Steps int
	Time  float64
	Norms metrics.Norms
}

type ConvergenceReport struct {
	Mode    int
	Courant float64
	Points  []ConvergencePoint
	Rate    float64
}

// Convergence runs the Dirichlet standing wave of the given mode at each nx,
// keeping the domain length of base and its Courant number fixed, and
// compares the final layer with the exact solution.
func Convergence(ctx context.Context, base *config.Config, resolutions []int, mode int) (*ConvergenceReport, error) {
	if len(resolutions) < 2 {
		return nil, metrics.ErrTooFewPoints
	}
	if mode < 1 {
		mode = 1
	}
	length := base.Dx * float64(base.Nx-1)
	courant := base.Courant()

	report := &ConvergenceReport{Mode: mode, Courant: courant}
	dxs := make([]float64, 0, len(resolutions))
	l2 := make([]float64, 0, len(resolutions))

	for _, nx := range resolutions {
		if err := ctx.Err(); err != nil {
			return report, err
		}
		cfg := *base
		cfg.Nx = nx
		cfg.Dx = length / float64(nx-1)
		cfg.Dt = config.ComputeDt(cfg.Dx, courant, cfg.WaveSpeed)
		cfg.Boundary = boundary.KindDirichlet
		cfg.SnapshotFreq = 1 << 30

		d, err := sim.NewDriver(cfg.Sim(), sim.WithInitial(exactStart{mode: mode, c: cfg.WaveSpeed, dt: cfg.Dt}))
		if err != nil {
			return report, fmt.Errorf("nx=%d: %w", nx, err)
		}
		if _, err := d.Run(ctx); err != nil {
			return report, fmt.Errorf("nx=%d: %w", nx, err)
		}

		g := d.Grid()
		exact := analysis.StandingWave(nx, cfg.Dx, cfg.WaveSpeed, g.Time, mode)
		norms, err := metrics.ErrorNorms(g.Current(), exact)
		if err != nil {
			return report, err
		}
		report.Points = append(report.Points, ConvergencePoint{
			Nx: nx, Dx: cfg.Dx, Dt: cfg.Dt, Steps: g.Step, Time: g.Time, Norms: norms,
		})
		dxs = append(dxs, cfg.Dx)
		l2 = append(l2, norms.L2)
	}

	rate, err := metrics.ConvergenceRate(dxs, l2)
	if err != nil {
		return report, err
	}
	report.Rate = rate
	return report, nil
}
