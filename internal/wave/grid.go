package wave

import "math"

type Layer []float64

func (l Layer) Clone() Layer {
	c := make(Layer, len(l))
	copy(c, l)
	return c
}

func (l Layer) IsValid() bool {
	for _, v := range l {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return true
}

// Params are the fixed numerical parameters of a run.
type Params struct {
	Nx int
	Dx float64
	Dt float64
	C  float64
}

// Validate checks the construction preconditions. CFL is not checked here.
func (p Params) Validate() error {
	if p.Nx < 3 {
		return &ParamError{Field: "nx", Value: float64(p.Nx), Wrapped: ErrInvalidGridSize}
	}
	for _, f := range []struct {
		name string
		v    float64
	}{{"dx", p.Dx}, {"dt", p.Dt}, {"wave_speed", p.C}} {
		if !(f.v > 0) || math.IsInf(f.v, 0) {
			return &ParamError{Field: f.name, Value: f.v, Wrapped: ErrInvalidParameter}
		}
	}
	return nil
}

// Courant returns c*dt/dx.
func (p Params) Courant() float64 {
	return p.C * p.Dt / p.Dx
}

// Length is the domain length dx*(nx-1).
func (p Params) Length() float64 {
	return p.Dx * float64(p.Nx-1)
}

// Grid owns three layer buffers. role selects which buffer currently plays
// previous; current and next follow it modulo 3.
type Grid struct {
	Params
	bufs [3]Layer
	role int
	Step int
	Time float64
}

func NewGrid(p Params) (*Grid, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}
	g := &Grid{Params: p}
	for i := range g.bufs {
		g.bufs[i] = make(Layer, p.Nx)
	}
	return g, nil
}

func (g *Grid) Previous() Layer { return g.bufs[g.role] }
func (g *Grid) Current() Layer  { return g.bufs[(g.role+1)%3] }
func (g *Grid) Next() Layer     { return g.bufs[(g.role+2)%3] }

// Seed copies the initial previous and current layers into the grid and
// resets the clock.
func (g *Grid) Seed(prev, cur Layer) error {
	if len(prev) != g.Nx || len(cur) != g.Nx {
		return ErrDimensionMismatch
	}
	g.role, g.Step, g.Time = 0, 0, 0
	copy(g.Previous(), prev)
	copy(g.Current(), cur)
	clear(g.Next())
	return nil
}

// Rotate shifts previous <- current <- next. The old previous buffer becomes
// the next write target.
func (g *Grid) Rotate() {
	g.role = (g.role + 1) % 3
	g.Step++
	g.Time = float64(g.Step) * g.Dt
}

// CheckCourant reports ErrCourantViolation when the scheme would be unstable.
func (g *Grid) CheckCourant() error {
	if l := g.Courant(); l > 1 {
		return &ParamError{Field: "courant", Value: l, Wrapped: ErrCourantViolation}
	}
	return nil
}

// Snapshot returns a copy of the current layer.
func (g *Grid) Snapshot() Layer {
	return g.Current().Clone()
}

// Positions returns x_i = i*dx for every grid point.
func (g *Grid) Positions() []float64 {
	x := make([]float64, g.Nx)
	for i := range x {
		x[i] = float64(i) * g.Dx
	}
	return x
}
