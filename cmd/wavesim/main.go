package main

import (
	"context"
	"errors"
	"fmt"
	"math"
	"os"
	"os/signal"
	"runtime"
	"syscall"
	"text/tabwriter"
	"time"

	"github.com/charmbracelet/log"
	"github.com/san-kum/wavesim/internal/analysis"
	"github.com/san-kum/wavesim/internal/automation"
	"github.com/san-kum/wavesim/internal/boundary"
	"github.com/san-kum/wavesim/internal/config"
	"github.com/san-kum/wavesim/internal/metrics"
	"github.com/san-kum/wavesim/internal/sim"
	"github.com/san-kum/wavesim/internal/storage"
	"github.com/san-kum/wavesim/internal/tui"
	"github.com/san-kum/wavesim/internal/viz"
	"github.com/spf13/cobra"
)

var (
	dataDir  string
	logLevel string
	logger   *log.Logger

	configFile   string
	preset       string
	nx           int
	dx           float64
	dt           float64
	cfl          float64
	waveSpeed    float64
	tFinal       float64
	snapshotFreq int
	boundaryName string
	shape        string
	mode         int
	amplitude    float64
	workers      int

	showPlot      bool
	plotStep      int
	withSnapshots bool
	outFile       string
	resolutions   []int
	convMode      int
	batchWorkers  int
	benchSteps    int
	record        bool
)

func main() {
	rootCmd := &cobra.Command{
		Use:           "wavesim",
		Short:         "1D wave equation solver",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			level, err := log.ParseLevel(logLevel)
			if err != nil {
				return err
			}
			logger = log.NewWithOptions(os.Stderr, log.Options{
				Level:           level,
				ReportTimestamp: true,
				TimeFormat:      time.Kitchen,
				Prefix:          "wavesim",
			})
			return nil
		},
		// without a subcommand the parameter form opens
		RunE: runForm,
	}

	rootCmd.PersistentFlags().StringVar(&dataDir, "data", config.DefaultOutputDir, "data directory")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "info", "log level (debug, info, warn, error)")

	runCmd := &cobra.Command{
		Use:   "run",
		Short: "run a simulation and store its output",
		Args:  cobra.NoArgs,
		RunE:  runSimulation,
	}
	addConfigFlags(runCmd)
	runCmd.Flags().BoolVar(&showPlot, "plot", false, "plot energy and final snapshot when done")

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "list runs",
		Args:  cobra.NoArgs,
		RunE:  listRuns,
	}

	plotCmd := &cobra.Command{
		Use:   "plot [run_id]",
		Short: "plot energy and a snapshot of a run (latest by default)",
		Args:  cobra.MaximumNArgs(1),
		RunE:  plotRun,
	}
	plotCmd.Flags().IntVar(&plotStep, "step", -1, "snapshot step (default: last)")

	exportJSONCmd := &cobra.Command{
		Use:   "export-json [run_id]",
		Short: "export run metadata and energy log to JSON",
		Args:  cobra.MaximumNArgs(1),
		RunE:  exportJSON,
	}
	exportJSONCmd.Flags().BoolVar(&withSnapshots, "snapshots", false, "include every snapshot")
	exportJSONCmd.Flags().StringVarP(&outFile, "out", "o", "", "output file (default: stdout)")

	analyzeCmd := &cobra.Command{
		Use:   "analyze [run_id]",
		Short: "modal analysis of the final snapshot",
		Args:  cobra.MaximumNArgs(1),
		RunE:  analyzeRun,
	}

	convergeCmd := &cobra.Command{
		Use:   "converge",
		Short: "grid convergence study against the exact standing wave",
		Args:  cobra.NoArgs,
		RunE:  runConvergence,
	}
	addConfigFlags(convergeCmd)
	convergeCmd.Flags().IntSliceVar(&resolutions, "resolutions", []int{51, 101, 201, 401}, "grid sizes")
	convergeCmd.Flags().IntVar(&convMode, "mode", 1, "standing wave mode")

	batchCmd := &cobra.Command{
		Use:   "batch [file]",
		Short: "run every entry of a batch file",
		Args:  cobra.ExactArgs(1),
		RunE:  runBatch,
	}
	batchCmd.Flags().IntVar(&batchWorkers, "workers", runtime.NumCPU(), "concurrent runs")

	benchCmd := &cobra.Command{
		Use:   "bench",
		Short: "benchmark the stencil",
		Args:  cobra.NoArgs,
		RunE:  runBench,
	}
	benchCmd.Flags().IntVar(&benchSteps, "steps", 200, "steps per case")

	presetsCmd := &cobra.Command{
		Use:   "presets",
		Short: "list available presets",
		Args:  cobra.NoArgs,
		RunE:  listPresets,
	}

	tuiCmd := &cobra.Command{
		Use:   "tui",
		Short: "enter parameters interactively, then run",
		Args:  cobra.NoArgs,
		RunE:  runForm,
	}

	liveCmd := &cobra.Command{
		Use:   "live",
		Short: "run with live visualization",
		Args:  cobra.NoArgs,
		RunE:  runLive,
	}
	addConfigFlags(liveCmd)
	liveCmd.Flags().BoolVar(&record, "record", false, "store the run while watching")

	rootCmd.AddCommand(runCmd, listCmd, plotCmd, exportJSONCmd, analyzeCmd, convergeCmd, batchCmd, benchCmd, presetsCmd, tuiCmd, liveCmd)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := rootCmd.ExecuteContext(ctx)
	stop()
	if err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func addConfigFlags(cmd *cobra.Command) {
	f := cmd.Flags()
	f.StringVar(&configFile, "config", "", "config file path (yaml or json)")
	f.StringVar(&preset, "preset", "", "use preset configuration")
	f.IntVar(&nx, "nx", config.DefaultNx, "number of grid points")
	f.Float64Var(&dx, "dx", config.DefaultDx, "grid spacing")
	f.Float64Var(&dt, "dt", config.DefaultDt, "time step")
	f.Float64Var(&cfl, "cfl", 0, "courant number; derives dt when set")
	f.Float64Var(&waveSpeed, "c", config.DefaultWaveSpeed, "wave speed")
	f.Float64Var(&tFinal, "t-final", config.DefaultTFinal, "final time")
	f.IntVar(&snapshotFreq, "freq", config.DefaultSnapshotFreq, "snapshot every N steps")
	f.StringVar(&boundaryName, "boundary", "dirichlet", "boundary condition (dirichlet, neumann)")
	f.StringVar(&shape, "shape", "sine", "initial shape (sine, pluck, gaussian)")
	f.IntVar(&mode, "mode-number", 1, "sine mode of the initial shape")
	f.Float64Var(&amplitude, "amplitude", 1, "initial amplitude")
	f.IntVar(&workers, "workers", 1, "stencil workers")
}

// loadConfig layers defaults, preset, config file and explicitly set flags,
// in that order.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	cfg := config.DefaultConfig()
	if preset != "" {
		cfg = config.GetPreset(preset)
		if cfg == nil {
			return nil, fmt.Errorf("unknown preset: %s (available: %v)", preset, config.ListPresets())
		}
	}
	if configFile != "" {
		loaded, err := config.Load(configFile)
		if err != nil {
			return nil, fmt.Errorf("failed to load config: %w", err)
		}
		cfg = loaded
	}

	flags := cmd.Flags()
	if flags.Changed("nx") {
		cfg.Nx = nx
	}
	if flags.Changed("dx") {
		cfg.Dx = dx
	}
	if flags.Changed("dt") {
		cfg.Dt = dt
	}
	if flags.Changed("cfl") {
		cfg.CFL = cfl
	}
	if flags.Changed("c") {
		cfg.WaveSpeed = waveSpeed
	}
	if cfg.CFL > 0 && !flags.Changed("dt") && (flags.Changed("cfl") || flags.Changed("dx") || flags.Changed("c")) {
		cfg.Dt = 0
	}
	if flags.Changed("t-final") {
		cfg.TFinal = tFinal
	}
	if flags.Changed("freq") {
		cfg.SnapshotFreq = snapshotFreq
	}
	if flags.Changed("boundary") {
		k, err := boundary.ParseKind(boundaryName)
		if err != nil {
			return nil, err
		}
		cfg.Boundary = k
		cfg.ScenarioID = 0
	}
	if flags.Changed("shape") {
		cfg.Initial.Shape = shape
	}
	if flags.Changed("mode-number") {
		cfg.Initial.Mode = mode
	}
	if flags.Changed("amplitude") {
		cfg.Initial.Amplitude = amplitude
	}
	if flags.Changed("workers") {
		cfg.Workers = workers
	}
	if !cmd.Flags().Changed("data") && !cmd.InheritedFlags().Changed("data") && cfg.OutputDir != "" {
		dataDir = cfg.OutputDir
	}

	cfg.Resolve()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if err := cfg.CheckCourant(); err != nil {
		logger.Warn("courant number above 1, the run will blow up", "courant", cfg.Courant())
	}
	return cfg, nil
}

func store() *storage.Store {
	return storage.New(dataDir)
}

func runSimulation(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	return execute(cmd.Context(), cfg)
}

func execute(ctx context.Context, cfg *config.Config) error {
	st := store()
	fmt.Printf("running %s (nx=%d, dt=%g, courant=%.3f)...\n", cfg.Boundary, cfg.Nx, cfg.Dt, cfg.Courant())

	run, res, err := automation.Execute(ctx, st, cfg, logger)
	if err != nil {
		if run != nil {
			logger.Error("run failed", "run", run.ID())
		}
		return err
	}

	fmt.Printf("completed in %v\n", res.Elapsed)
	fmt.Printf("run id: %s\n", run.ID())
	fmt.Printf("dir: %s\n", run.Dir())
	fmt.Printf("steps: %d, snapshots: %d\n", res.Steps, res.Snapshots)
	fmt.Println("\nmetrics:")
	for _, name := range []string{"initial_energy", "final_energy", "energy_drift", "stability"} {
		fmt.Printf("  %s: %.6g\n", name, run.Metadata().Metrics[name])
	}

	if showPlot {
		fmt.Println()
		return plotStored(st, run.ID(), -1)
	}
	return nil
}

func runForm(cmd *cobra.Command, args []string) error {
	cfg, notes, err := tui.RunForm(boundary.KindDirichlet)
	if errors.Is(err, tui.ErrAborted) {
		return nil
	}
	if err != nil {
		return err
	}
	for _, n := range notes {
		fmt.Println(n)
	}
	showPlot = true
	return execute(cmd.Context(), cfg)
}

func runLive(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	opts := []sim.Option{sim.WithWorkers(cfg.Workers)}
	var run *storage.Run
	if record {
		run, err = store().NewRun(cfg)
		if err != nil {
			return err
		}
		opts = append(opts, sim.WithSnapshotSink(run), sim.WithEnergySink(run))
	}

	d, err := sim.NewDriver(cfg.Sim(), opts...)
	if err != nil {
		if run != nil {
			return errors.Join(err, run.Close(nil))
		}
		return err
	}

	_, err = tui.RunLive(d)
	if run == nil {
		return err
	}
	var res *sim.Result
	if d.Phase() == sim.Finished {
		res = d.Result()
	}
	if cerr := run.Close(res); cerr != nil {
		return errors.Join(err, cerr)
	}
	fmt.Printf("run id: %s\n", run.ID())
	return err
}

func resolveRunID(st *storage.Store, args []string) (string, error) {
	if len(args) > 0 {
		return args[0], nil
	}
	return st.Latest()
}

func listRuns(cmd *cobra.Command, args []string) error {
	runs, err := store().List()
	if err != nil {
		return err
	}
	if len(runs) == 0 {
		fmt.Println("no runs found")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tSTATUS\tTIME\tBOUNDARY\tNX\tDT\tSTEPS\tSNAPS\tDRIFT")
	for _, run := range runs {
		b, nxv, dtv := "-", 0, 0.0
		if run.Config != nil {
			b, nxv, dtv = run.Config.Boundary.String(), run.Config.Nx, run.Config.Dt
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%d\t%.4g\t%d\t%d\t%.2e\n",
			run.ID,
			run.Status,
			run.Timestamp.Format("2006-01-02 15:04:05"),
			b,
			nxv,
			dtv,
			run.Steps,
			run.Snapshots,
			run.Metrics["energy_drift"],
		)
	}
	return w.Flush()
}

func plotRun(cmd *cobra.Command, args []string) error {
	st := store()
	runID, err := resolveRunID(st, args)
	if err != nil {
		return err
	}
	return plotStored(st, runID, plotStep)
}

func plotStored(st *storage.Store, runID string, step int) error {
	meta, err := st.Load(runID)
	if err != nil {
		return err
	}
	samples, err := st.LoadEnergy(runID)
	if err != nil {
		return err
	}

	fmt.Printf("run: %s\n", meta.ID)
	fmt.Printf("samples: %d\n\n", len(samples))
	fmt.Println(viz.EnergyPlot(samples, "energy vs cadence point"))

	var x, u []float64
	if step < 0 {
		step, x, u, err = st.LoadFinalSnapshot(runID)
	} else {
		x, u, err = st.LoadSnapshot(runID, step)
	}
	if errors.Is(err, storage.ErrSnapshotNotFound) {
		fmt.Println("no snapshots stored")
		return nil
	}
	if err != nil {
		return err
	}
	fmt.Println(viz.SnapshotPlot(step, x, u))
	return nil
}

func exportJSON(cmd *cobra.Command, args []string) error {
	st := store()
	runID, err := resolveRunID(st, args)
	if err != nil {
		return err
	}
	data, err := st.Export(runID, withSnapshots)
	if err != nil {
		return err
	}

	if outFile == "" {
		return storage.ExportJSON(os.Stdout, data)
	}
	f, err := os.Create(outFile)
	if err != nil {
		return err
	}
	if err := storage.ExportJSON(f, data); err != nil {
		f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return err
	}
	fmt.Printf("exported %s to %s\n", runID, outFile)
	return nil
}

func analyzeRun(cmd *cobra.Command, args []string) error {
	st := store()
	runID, err := resolveRunID(st, args)
	if err != nil {
		return err
	}
	meta, err := st.Load(runID)
	if err != nil {
		return err
	}
	step, _, u, err := st.LoadFinalSnapshot(runID)
	if err != nil {
		return err
	}

	spec := analysis.ModeSpectrum(u)
	fmt.Printf("run: %s (step %d)\n", runID, step)
	fmt.Printf("dominant mode: %d\n\n", analysis.DominantMode(u))
	fmt.Println(viz.SpectrumPlot(spec, 32))

	cfg := meta.Config
	if cfg == nil || cfg.Boundary != boundary.KindDirichlet {
		return nil
	}
	if cfg.Initial.Shape != "" && cfg.Initial.Shape != "sine" {
		return nil
	}

	m := max(cfg.Initial.Mode, 1)
	exact := analysis.StandingWave(len(u), cfg.Dx, cfg.WaveSpeed, float64(step)*cfg.Dt, m)
	for i := range exact {
		exact[i] *= cfg.Initial.Amplitude
	}
	norms, err := metrics.ErrorNorms(u, exact)
	if err != nil {
		return err
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "NORM\tERROR vs EXACT")
	fmt.Fprintf(w, "L1\t%.3e\n", norms.L1)
	fmt.Fprintf(w, "L2\t%.3e\n", norms.L2)
	fmt.Fprintf(w, "Linf\t%.3e\n", norms.Linf)
	return w.Flush()
}

func runConvergence(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	report, err := automation.Convergence(cmd.Context(), cfg, resolutions, convMode)
	if report != nil && len(report.Points) > 0 {
		fmt.Printf("standing wave mode %d, courant %.3f\n\n", report.Mode, report.Courant)
		w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
		fmt.Fprintln(w, "NX\tDX\tDT\tSTEPS\tT\tL1\tL2\tLINF")
		for _, p := range report.Points {
			fmt.Fprintf(w, "%d\t%.4g\t%.4g\t%d\t%.4g\t%.3e\t%.3e\t%.3e\n",
				p.Nx, p.Dx, p.Dt, p.Steps, p.Time, p.Norms.L1, p.Norms.L2, p.Norms.Linf)
		}
		w.Flush()
	}
	if err != nil {
		return err
	}
	fmt.Printf("\nobserved order: %.3f\n", report.Rate)
	return nil
}

func runBatch(cmd *cobra.Command, args []string) error {
	b, err := automation.LoadBatch(args[0])
	if err != nil {
		return err
	}
	fmt.Printf("batch %s: %d runs, %d workers\n", b.Name, len(b.Runs), batchWorkers)

	results, err := automation.RunBatch(cmd.Context(), b, store(), batchWorkers, logger)

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "NAME\tRUN\tSTEPS\tDRIFT\tSTATUS")
	for _, r := range results {
		if r.Err != nil {
			fmt.Fprintf(w, "%s\t%s\t-\t-\tfailed: %v\n", r.Name, r.RunID, r.Err)
			continue
		}
		if r.Result == nil {
			fmt.Fprintf(w, "%s\t-\t-\t-\tskipped\n", r.Name)
			continue
		}
		fmt.Fprintf(w, "%s\t%s\t%d\t%.2e\tok\n", r.Name, r.RunID, r.Result.Steps, r.Result.MaxDrift)
	}
	w.Flush()
	return err
}

func runBench(cmd *cobra.Command, args []string) error {
	sizes := []int{201, 2001, 20001, 200001}
	counts := []int{1, runtime.NumCPU()}
	if counts[1] == 1 {
		counts = counts[:1]
	}

	fmt.Printf("benchmarking stencil, %d steps per case\n\n", benchSteps)
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "NX\tWORKERS\tSTEPS\tTIME\tSTEPS/SEC\tPOINTS/SEC")

	for _, n := range sizes {
		for _, wk := range counts {
			cfg := config.DefaultConfig()
			cfg.Nx = n
			cfg.Dx = 1 / float64(n-1)
			cfg.Dt = 0.9 * cfg.Dx
			cfg.TFinal = float64(benchSteps) * cfg.Dt
			cfg.SnapshotFreq = math.MaxInt32

			d, err := sim.NewDriver(cfg.Sim(), sim.WithWorkers(wk))
			if err != nil {
				return err
			}
			start := time.Now()
			res, err := d.Run(cmd.Context())
			if err != nil {
				return err
			}
			elapsed := time.Since(start)
			rate := float64(res.Steps) / elapsed.Seconds()
			fmt.Fprintf(w, "%d\t%d\t%d\t%v\t%.0f\t%.3g\n",
				n, wk, res.Steps, elapsed.Round(time.Microsecond), rate, rate*float64(n))
		}
	}
	return w.Flush()
}

func listPresets(cmd *cobra.Command, args []string) error {
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "NAME\tBOUNDARY\tNX\tDX\tDT\tCOURANT\tT_FINAL\tFREQ\tSHAPE")
	for _, name := range config.ListPresets() {
		p := config.GetPreset(name)
		fmt.Fprintf(w, "%s\t%s\t%d\t%g\t%.4g\t%.3f\t%g\t%d\t%s\n",
			name, p.Boundary, p.Nx, p.Dx, p.Dt, p.Courant(), p.TFinal, p.SnapshotFreq, p.Initial.Shape)
	}
	return w.Flush()
}
