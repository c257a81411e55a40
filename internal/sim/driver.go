package sim

import (
	"context"
	"fmt"
	"io"
	"math"
	"time"

	"github.com/charmbracelet/log"
	"github.com/san-kum/wavesim/internal/boundary"
	"github.com/san-kum/wavesim/internal/initial"
	"github.com/san-kum/wavesim/internal/integrators"
	"github.com/san-kum/wavesim/internal/metrics"
	"github.com/san-kum/wavesim/internal/wave"
)

// stabilityFactor is the peak amplitude growth, relative to the first
// cadence point, above which a layer counts as unstable.
const stabilityFactor = 10.0

// maxSteps bounds a single run so that step counters stay within int32.
const maxSteps = math.MaxInt32

// NSteps is floor(tFinal/dt). A quotient of at least one that lies within a
// relative 1e-9 below the next integer rounds up, so 0.3/0.1 gives 3. Fewer
// than one step is ErrNoStepsToRun, more than maxSteps is ErrTooManySteps.
func NSteps(tFinal, dt float64) (int, error) {
	if !(tFinal > 0) || !(dt > 0) {
		return 0, fmt.Errorf("%w (t_final=%g, dt=%g)", ErrNoStepsToRun, tFinal, dt)
	}
	r := tFinal / dt
	if r > maxSteps {
		return 0, fmt.Errorf("%w (t_final=%g, dt=%g)", ErrTooManySteps, tFinal, dt)
	}
	n := math.Floor(r)
	if r >= 1 && n+1-r <= 1e-9*r {
		n++
	}
	if n < 1 {
		return 0, fmt.Errorf("%w (t_final=%g, dt=%g)", ErrNoStepsToRun, tFinal, dt)
	}
	if n > maxSteps {
		return 0, fmt.Errorf("%w (t_final=%g, dt=%g)", ErrTooManySteps, tFinal, dt)
	}
	return int(n), nil
}

type Option func(*Driver)

func WithSnapshotSink(s SnapshotSink) Option { return func(d *Driver) { d.snapshots = s } }
func WithEnergySink(s EnergySink) Option     { return func(d *Driver) { d.energy = s } }
func WithObserver(o Observer) Option         { return func(d *Driver) { d.observers = append(d.observers, o) } }
func WithInitial(p initial.Provider) Option  { return func(d *Driver) { d.initial = p } }
func WithWorkers(n int) Option               { return func(d *Driver) { d.workers = n } }
func WithLogger(l *log.Logger) Option        { return func(d *Driver) { d.logger = l } }

// Driver owns the grid for one run and moves it through
// Initialized -> Running -> Finished.
type Driver struct {
	cfg     Config
	grid    *wave.Grid
	policy  boundary.Policy
	stencil *integrators.Stencil
	initial initial.Provider
	sched   Scheduler
	nsteps  int
	workers int

	snapshots SnapshotSink
	energy    EnergySink
	observers []Observer
	logger    *log.Logger

	phase     Phase
	positions []float64
	drift     *metrics.EnergyDrift
	stability *metrics.Stability
	result    *Result
	started   time.Time
}

// NewDriver validates cfg, builds the grid and boundary policy and seeds the
// initial layers. Failures are ErrInvalidGridSize, ErrInvalidParameter,
// boundary.ErrUnknownBoundary, initial.ErrUnknownShape or ErrNoStepsToRun.
func NewDriver(cfg Config, opts ...Option) (*Driver, error) {
	d := &Driver{cfg: cfg, workers: 1, phase: Uninitialized}
	for _, opt := range opts {
		opt(d)
	}
	if d.logger == nil {
		d.logger = log.New(io.Discard)
	}

	grid, err := wave.NewGrid(cfg.Params())
	if err != nil {
		return nil, err
	}
	policy, err := boundary.New(cfg.Boundary)
	if err != nil {
		return nil, err
	}

	d.nsteps, err = NSteps(cfg.TFinal, cfg.Dt)
	if err != nil {
		return nil, err
	}

	if d.initial == nil {
		d.initial, err = initial.New(cfg.Initial)
		if err != nil {
			return nil, err
		}
	}
	d.initial.Fill(grid.Previous(), grid.Current(), cfg.Dx)

	d.grid = grid
	d.policy = policy
	d.stencil = integrators.NewStencil(grid.Params).WithWorkers(d.workers)
	d.sched = NewScheduler(cfg.SnapshotFreq)
	d.positions = grid.Positions()
	d.drift = metrics.NewEnergyDrift()
	d.stability = metrics.NewStability(stabilityFactor)
	d.phase = Initialized
	return d, nil
}

func (d *Driver) Phase() Phase                { return d.phase }
func (d *Driver) NSteps() int                 { return d.nsteps }
func (d *Driver) Grid() *wave.Grid            { return d.grid }
func (d *Driver) Config() Config              { return d.cfg }
func (d *Driver) Scheduler() Scheduler        { return d.sched }
func (d *Driver) Boundary() boundary.Policy   { return d.policy }
func (d *Driver) Drift() *metrics.EnergyDrift { return d.drift }
func (d *Driver) Result() *Result             { return d.result }

// Run executes all remaining steps. ctx is checked between steps only.
func (d *Driver) Run(ctx context.Context) (*Result, error) {
	if d.phase == Finished {
		return nil, ErrAlreadyRun
	}
	for {
		select {
		case <-ctx.Done():
			return d.result, fmt.Errorf("%w at step %d: %w", ErrCanceled, d.grid.Step, ctx.Err())
		default:
		}

		done, err := d.Advance()
		if err != nil {
			return d.result, err
		}
		if done {
			return d.result, nil
		}
	}
}

// Advance performs one step and, on a cadence point, emits the snapshot and
// the energy sample. It reports true once the last step has been taken.
func (d *Driver) Advance() (bool, error) {
	switch d.phase {
	case Initialized:
		d.start()
	case Running:
	case Finished:
		return true, ErrAlreadyRun
	default:
		return false, fmt.Errorf("sim: driver not initialized")
	}

	g := d.grid
	d.stencil.Advance(g, d.policy)

	for _, o := range d.observers {
		o.OnStep(g.Step, g.Time, g.Current())
	}

	if d.sched.Due(g.Step) {
		if err := d.emit(); err != nil {
			return false, &StepError{Step: g.Step, Time: g.Time, Wrapped: err}
		}
	}

	if g.Step >= d.nsteps {
		d.finish()
		return true, nil
	}
	return false, nil
}

func (d *Driver) start() {
	d.phase = Running
	d.started = time.Now()
	d.result = &Result{
		Samples: make([]EnergySample, 0, d.sched.Count(d.nsteps)),
		Courant: d.grid.Courant(),
	}

	d.logger.Info("starting run",
		"nx", d.grid.Nx,
		"nsteps", d.nsteps,
		"courant", d.grid.Courant(),
		"boundary", d.policy.Name(),
		"stride", d.sched.Stride(),
	)
	if err := d.grid.CheckCourant(); err != nil {
		d.logger.Warn("scheme is unstable for these parameters", "err", err)
	}
}

func (d *Driver) emit() error {
	g := d.grid
	cur := g.Current()

	if d.snapshots != nil {
		if err := d.snapshots.WriteSnapshot(g.Step, d.positions, cur.Clone()); err != nil {
			return fmt.Errorf("snapshot: %w", err)
		}
	}

	sample := EnergySample{Step: g.Step, Time: g.Time, Energy: metrics.GridEnergy(g)}
	if d.energy != nil {
		if err := d.energy.WriteEnergy(sample); err != nil {
			return fmt.Errorf("energy log: %w", err)
		}
	}

	d.drift.Observe(sample.Energy)
	d.stability.Observe(cur)
	d.result.Samples = append(d.result.Samples, sample)
	d.result.Snapshots++

	d.logger.Debug("cadence point", "step", sample.Step, "time", sample.Time, "energy", sample.Energy)
	return nil
}

func (d *Driver) finish() {
	d.phase = Finished
	r := d.result
	r.Steps = d.grid.Step
	r.InitialEnergy = d.drift.Initial()
	r.FinalEnergy = d.drift.Current()
	r.MaxDrift = d.drift.Value()
	r.Stability = d.stability.Value()
	r.Elapsed = time.Since(d.started)

	d.logger.Info("run finished",
		"steps", r.Steps,
		"snapshots", r.Snapshots,
		"max_drift", r.MaxDrift,
		"elapsed", r.Elapsed,
	)
	if r.Stability < 1 {
		d.logger.Warn("amplitude grew beyond bound", "stable_fraction", r.Stability, "peak", d.stability.Peak())
	}
}
