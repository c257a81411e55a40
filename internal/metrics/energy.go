package metrics

import (
	"math"

	"github.com/san-kum/wavesim/internal/wave"
)

// Energy is the discrete mechanical energy of the string from two
// consecutive layers:
//
//	dx * ( Σ_{i=1}^{nx-2} ½((next_i-cur_i)/dt)² + Σ_{i=0}^{nx-2} ½c²((cur_{i+1}-cur_i)/dx)² )
//
// For the undamped scheme under Dirichlet or Neumann ends it stays nearly
// constant; growth means the run is unstable.
func Energy(next, cur wave.Layer, nx int, dx, dt, c float64) float64 {
	ke, pe, c2 := 0.0, 0.0, c*c
	for i := 1; i < nx-1; i++ {
		v := (next[i] - cur[i]) / dt
		ke += 0.5 * v * v
	}
	for i := 0; i < nx-1; i++ {
		dudx := (cur[i+1] - cur[i]) / dx
		pe += 0.5 * c2 * dudx * dudx
	}
	return (ke + pe) * dx
}

// GridEnergy evaluates Energy on the two most recent layers of g.
func GridEnergy(g *wave.Grid) float64 {
	return Energy(g.Current(), g.Previous(), g.Nx, g.Dx, g.Dt, g.C)
}

// EnergyDrift tracks the largest relative departure from the first sample.
type EnergyDrift struct {
	initial  float64
	current  float64
	maxDrift float64
	samples  int
}

func NewEnergyDrift() *EnergyDrift {
	return &EnergyDrift{}
}

func (e *EnergyDrift) Name() string { return "energy_drift" }

func (e *EnergyDrift) Observe(energy float64) {
	if e.samples == 0 {
		e.initial = energy
	}
	e.current = energy
	e.samples++

	if e.initial != 0 {
		drift := math.Abs(energy-e.initial) / math.Abs(e.initial)
		e.maxDrift = math.Max(e.maxDrift, drift)
	}
}

func (e *EnergyDrift) Value() float64   { return e.maxDrift }
func (e *EnergyDrift) Initial() float64 { return e.initial }
func (e *EnergyDrift) Current() float64 { return e.current }
func (e *EnergyDrift) Samples() int     { return e.samples }

func (e *EnergyDrift) Reset() {
	*e = EnergyDrift{}
}
