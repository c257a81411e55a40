package automation

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"sync"

	"github.com/charmbracelet/log"
	"github.com/san-kum/wavesim/internal/config"
	"github.com/san-kum/wavesim/internal/sim"
	"github.com/san-kum/wavesim/internal/storage"
	"golang.org/x/sync/errgroup"
	"gopkg.in/yaml.v3"
)

var (
	ErrEmptyBatch    = errors.New("automation: batch has no runs")
	ErrUnknownPreset = errors.New("automation: unknown preset")
)

// Batch is a YAML file of named runs executed side by side.
type Batch struct {
	Name        string `yaml:"name"`
	Description string `yaml:"description"`
	Runs        []Job  `yaml:"runs"`
}

// Job starts from a preset (or the defaults) and applies Overrides on top.
type Job struct {
	Name      string    `yaml:"name"`
	Preset    string    `yaml:"preset"`
	Overrides yaml.Node `yaml:"config"`
}

func LoadBatch(path string) (*Batch, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return ParseBatch(data)
}

func ParseBatch(data []byte) (*Batch, error) {
	var b Batch
	if err := yaml.Unmarshal(data, &b); err != nil {
		return nil, fmt.Errorf("batch: %w", err)
	}
	if len(b.Runs) == 0 {
		return nil, ErrEmptyBatch
	}
	return &b, nil
}

// Config resolves the job into a validated run configuration.
func (j Job) Config() (*config.Config, error) {
	cfg := config.DefaultConfig()
	if j.Preset != "" {
		p := config.GetPreset(j.Preset)
		if p == nil {
			return nil, fmt.Errorf("%w: %q", ErrUnknownPreset, j.Preset)
		}
		cfg = p
	}
	if err := config.Overlay(cfg, &j.Overrides); err != nil {
		return nil, fmt.Errorf("run %s: %w", j.Name, err)
	}
	cfg.Resolve()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("run %s: %w", j.Name, err)
	}
	return cfg, nil
}

// Execute runs cfg to completion into a fresh run directory of store. The
// run is closed as failed when the driver stops early.
func Execute(ctx context.Context, store *storage.Store, cfg *config.Config, logger *log.Logger, opts ...sim.Option) (*storage.Run, *sim.Result, error) {
	run, err := store.NewRun(cfg)
	if err != nil {
		return nil, nil, err
	}
	if logger == nil {
		logger = log.New(io.Discard)
	}

	opts = append([]sim.Option{
		sim.WithSnapshotSink(run),
		sim.WithEnergySink(run),
		sim.WithWorkers(cfg.Workers),
		sim.WithLogger(logger.With("run", run.ID())),
	}, opts...)

	d, err := sim.NewDriver(cfg.Sim(), opts...)
	if err != nil {
		return run, nil, errors.Join(err, run.Close(nil))
	}
	res, err := d.Run(ctx)
	if err != nil {
		return run, nil, errors.Join(err, run.Close(nil))
	}
	return run, res, run.Close(res)
}

// JobResult is the outcome of one batch entry.
type JobResult struct {
	Name   string
	RunID  string
	Result *sim.Result
	Err    error
}

// RunBatch executes every job with at most workers in flight. A failing job
// does not cancel the others; its error is kept in its JobResult and joined
// into the returned error.
func RunBatch(ctx context.Context, b *Batch, store *storage.Store, workers int, logger *log.Logger) ([]JobResult, error) {
	if logger == nil {
		logger = log.New(io.Discard)
	}
	if err := store.Init(); err != nil {
		return nil, err
	}

	results := make([]JobResult, len(b.Runs))
	var (
		mu   sync.Mutex
		errs []error
	)

	g, ctx := errgroup.WithContext(ctx)
	if workers > 0 {
		g.SetLimit(workers)
	}
	for i, job := range b.Runs {
		i, job := i, job
		g.Go(func() error {
			jr := JobResult{Name: job.Name}
			defer func() { results[i] = jr }()

			cfg, err := job.Config()
			if err == nil {
				var run *storage.Run
				run, jr.Result, err = Execute(ctx, store, cfg, logger)
				if run != nil {
					jr.RunID = run.ID()
				}
			}
			if err != nil {
				jr.Err = err
				logger.Error("batch run failed", "name", job.Name, "err", err)
				mu.Lock()
				errs = append(errs, fmt.Errorf("%s: %w", job.Name, err))
				mu.Unlock()
				return nil
			}
			logger.Info("batch run done", "name", job.Name, "run", jr.RunID, "steps", jr.Result.Steps)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return results, err
	}
	return results, errors.Join(errs...)
}
