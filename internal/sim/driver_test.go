package sim_test

import (
	"context"
	"errors"
	"math"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/san-kum/wavesim/internal/boundary"
	"github.com/san-kum/wavesim/internal/initial"
	"github.com/san-kum/wavesim/internal/sim"
	"github.com/san-kum/wavesim/internal/wave"
)

type recorder struct {
	snapSteps []int
	snaps     [][]float64
	xs        [][]float64
	samples   []sim.EnergySample
}

func (r *recorder) WriteSnapshot(step int, x, u []float64) error {
	r.snapSteps = append(r.snapSteps, step)
	r.xs = append(r.xs, x)
	r.snaps = append(r.snaps, u)
	return nil
}

func (r *recorder) WriteEnergy(s sim.EnergySample) error {
	r.samples = append(r.samples, s)
	return nil
}

type endWatcher struct {
	policy   boundary.Kind
	steps    int
	violated bool
}

func (w *endWatcher) OnStep(step int, t float64, cur wave.Layer) {
	w.steps++
	n := len(cur)
	switch w.policy {
	case boundary.KindDirichlet:
		w.violated = w.violated || cur[0] != 0 || cur[n-1] != 0
	case boundary.KindNeumann:
		w.violated = w.violated || cur[0] != cur[1] || cur[n-1] != cur[n-2]
	}
}

func defaultConfig() sim.Config {
	return sim.Config{
		Nx:           201,
		Dx:           0.01,
		Dt:           0.005,
		WaveSpeed:    1.0,
		TFinal:       1.0,
		SnapshotFreq: 50,
		Boundary:     boundary.KindDirichlet,
	}
}

func run(cfg sim.Config, opts ...sim.Option) (*sim.Result, *recorder) {
	rec := &recorder{}
	opts = append(opts, sim.WithSnapshotSink(rec), sim.WithEnergySink(rec))
	d, err := sim.NewDriver(cfg, opts...)
	Expect(err).NotTo(HaveOccurred())
	res, err := d.Run(context.Background())
	Expect(err).NotTo(HaveOccurred())
	return res, rec
}

var _ = Describe("Driver", func() {
	Describe("construction", func() {
		It("rejects grids smaller than three points", func() {
			cfg := defaultConfig()
			cfg.Nx = 2
			_, err := sim.NewDriver(cfg)
			Expect(err).To(MatchError(wave.ErrInvalidGridSize))
		})

		DescribeTable("rejects non-positive parameters",
			func(mutate func(*sim.Config)) {
				cfg := defaultConfig()
				mutate(&cfg)
				_, err := sim.NewDriver(cfg)
				Expect(err).To(MatchError(wave.ErrInvalidParameter))
			},
			Entry("dx", func(c *sim.Config) { c.Dx = 0 }),
			Entry("dt", func(c *sim.Config) { c.Dt = -0.1 }),
			Entry("wave speed", func(c *sim.Config) { c.WaveSpeed = 0 }),
		)

		It("fails fast when t_final is shorter than dt", func() {
			cfg := defaultConfig()
			cfg.TFinal, cfg.Dt = 0.001, 0.005
			_, err := sim.NewDriver(cfg)
			Expect(err).To(MatchError(sim.ErrNoStepsToRun))
		})

		It("derives nsteps by floor division", func() {
			cfg := defaultConfig()
			cfg.Nx, cfg.Dx, cfg.Dt, cfg.TFinal = 5, 1.0, 0.3, 1.0
			d, err := sim.NewDriver(cfg)
			Expect(err).NotTo(HaveOccurred())
			Expect(d.NSteps()).To(Equal(3))
		})

		It("rejects unknown boundary kinds", func() {
			cfg := defaultConfig()
			cfg.Boundary = boundary.Kind(9)
			_, err := sim.NewDriver(cfg)
			Expect(err).To(MatchError(boundary.ErrUnknownBoundary))
		})
	})

	Describe("state machine", func() {
		It("moves from initialized to finished and refuses a second run", func() {
			d, err := sim.NewDriver(defaultConfig())
			Expect(err).NotTo(HaveOccurred())
			Expect(d.Phase()).To(Equal(sim.Initialized))

			res, err := d.Run(context.Background())
			Expect(err).NotTo(HaveOccurred())
			Expect(d.Phase()).To(Equal(sim.Finished))
			Expect(res.Steps).To(Equal(200))
			Expect(d.Grid().Step).To(Equal(200))

			_, err = d.Run(context.Background())
			Expect(err).To(MatchError(sim.ErrAlreadyRun))
		})

		It("is running between single steps", func() {
			d, err := sim.NewDriver(defaultConfig())
			Expect(err).NotTo(HaveOccurred())
			done, err := d.Advance()
			Expect(err).NotTo(HaveOccurred())
			Expect(done).To(BeFalse())
			Expect(d.Phase()).To(Equal(sim.Running))
		})

		It("stops between steps when the context is canceled", func() {
			d, err := sim.NewDriver(defaultConfig())
			Expect(err).NotTo(HaveOccurred())
			ctx, cancel := context.WithCancel(context.Background())
			cancel()
			_, err = d.Run(ctx)
			Expect(err).To(MatchError(sim.ErrCanceled))
			Expect(errors.Is(err, context.Canceled)).To(BeTrue())
		})
	})

	Describe("cadence", func() {
		DescribeTable("emits floor(nsteps/stride) snapshots and energy samples together",
			func(freq, want int) {
				cfg := defaultConfig()
				cfg.SnapshotFreq = freq
				res, rec := run(cfg)
				Expect(rec.snapSteps).To(HaveLen(want))
				Expect(rec.samples).To(HaveLen(want))
				Expect(res.Snapshots).To(Equal(want))
				for i, s := range rec.samples {
					Expect(s.Step).To(Equal(rec.snapSteps[i]))
					Expect(s.Time).To(BeNumerically("~", float64(s.Step)*cfg.Dt, 1e-12))
				}
			},
			Entry("stride 50", 50, 4),
			Entry("stride 30", 30, 6),
			Entry("stride 1", 1, 200),
			Entry("stride 0 clamps to 1", 0, 200),
			Entry("stride above nsteps", 500, 0),
		)

		It("pairs each value with its position", func() {
			_, rec := run(defaultConfig())
			x := rec.xs[0]
			Expect(x).To(HaveLen(201))
			Expect(x[0]).To(Equal(0.0))
			Expect(x[100]).To(BeNumerically("~", 1.0, 1e-12))
			Expect(rec.snaps[0]).To(HaveLen(201))
		})

		It("wraps sink failures with the failing step", func() {
			boom := errors.New("disk full")
			d, err := sim.NewDriver(defaultConfig(), sim.WithEnergySink(sim.EnergyFunc(func(sim.EnergySample) error {
				return boom
			})))
			Expect(err).NotTo(HaveOccurred())
			_, err = d.Run(context.Background())
			Expect(err).To(MatchError(boom))
			var stepErr *sim.StepError
			Expect(errors.As(err, &stepErr)).To(BeTrue())
			Expect(stepErr.Step).To(Equal(50))
		})
	})

	Describe("numerics", func() {
		DescribeTable("keeps the boundary invariant after every step",
			func(kind boundary.Kind) {
				cfg := defaultConfig()
				cfg.Boundary = kind
				cfg.Initial = initial.Spec{Shape: "gaussian", Center: 0.2}
				w := &endWatcher{policy: kind}
				run(cfg, sim.WithObserver(w))
				Expect(w.steps).To(Equal(200))
				Expect(w.violated).To(BeFalse())
			},
			Entry("dirichlet", boundary.KindDirichlet),
			Entry("neumann", boundary.KindNeumann),
		)

		DescribeTable("conserves energy within 5%",
			func(kind boundary.Kind) {
				cfg := defaultConfig()
				cfg.Boundary = kind
				cfg.SnapshotFreq = 10
				res, rec := run(cfg)
				e0 := rec.samples[0].Energy
				Expect(e0).To(BeNumerically(">", 0))
				for _, s := range rec.samples {
					Expect(math.Abs(s.Energy-e0) / e0).To(BeNumerically("<", 0.05))
				}
				Expect(res.MaxDrift).To(BeNumerically("<", 0.05))
				Expect(res.Stability).To(Equal(1.0))
			},
			Entry("dirichlet", boundary.KindDirichlet),
			Entry("neumann", boundary.KindNeumann),
		)

		It("reproduces the symmetric five-point step", func() {
			u0 := wave.Layer{0, 1, 0, -1, 0}
			cfg := sim.Config{Nx: 5, Dx: 1.0, Dt: 0.5, WaveSpeed: 1.0, TFinal: 0.5, SnapshotFreq: 1}
			_, rec := run(cfg, sim.WithInitial(initial.Fixed{Prev: u0, Cur: u0}))

			Expect(rec.snaps).To(HaveLen(1))
			got := rec.snaps[0]
			for i := 1; i <= 3; i++ {
				want := 2*u0[i] - u0[i] + 0.25*(u0[i+1]-2*u0[i]+u0[i-1])
				Expect(got[i]).To(Equal(want))
			}
			Expect(got[0]).To(Equal(0.0))
			Expect(got[4]).To(Equal(0.0))
		})

		It("is bit-reproducible across runs and worker counts", func() {
			cfg := defaultConfig()
			cfg.SnapshotFreq = 20
			_, a := run(cfg)
			_, b := run(cfg)
			_, c := run(cfg, sim.WithWorkers(4))
			Expect(b.samples).To(Equal(a.samples))
			Expect(b.snaps).To(Equal(a.snaps))
			Expect(c.samples).To(Equal(a.samples))
			Expect(c.snaps).To(Equal(a.snaps))
		})
	})
})
