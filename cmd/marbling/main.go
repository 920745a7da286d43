package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/gocarina/gocsv"
	"github.com/guptarohit/asciigraph"
	"github.com/spf13/cobra"

	"github.com/san-kum/marbling/internal/automation"
	"github.com/san-kum/marbling/internal/config"
	"github.com/san-kum/marbling/internal/dynamo"
	"github.com/san-kum/marbling/internal/metrics"
	"github.com/san-kum/marbling/internal/params"
	"github.com/san-kum/marbling/internal/sim"
	"github.com/san-kum/marbling/internal/storage"
	"github.com/san-kum/marbling/internal/viz"
)

var (
	dataDir   string
	logLevel  string
	logFormat string
	logFile   string

	configFile string
	preset     string
	sets       []string
	width      int
	height     int
	fps        float64
	frames     int
	workers    int
	every      int
	scale      int
	script     string

	outPath string
	metric  string

	sweepMin   float64
	sweepMax   float64
	sweepSteps int
	trials     int
	seed       int64
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "marbling",
		Short: "ink marbling feedback simulation",
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			// The live views own the terminal, so they log to a file.
			if cmd.Name() == "live" || cmd.Name() == "marbling" {
				return setupLogging(logFile)
			}
			return setupLogging("")
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return viz.RunInteractive(workers)
		},
	}

	rootCmd.PersistentFlags().StringVar(&dataDir, "data", ".marbling", "data directory")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "warn", "log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().StringVar(&logFormat, "log-format", "text", "log format (text, json)")
	rootCmd.PersistentFlags().StringVar(&logFile, "log-file", "marbling.log", "log file for the terminal views")
	rootCmd.PersistentFlags().IntVar(&workers, "workers", 0, "worker goroutines per frame (0 = all CPUs)")

	runCmd := &cobra.Command{
		Use:   "run [scene]",
		Short: "run a headless simulation and store it",
		Args:  cobra.MaximumNArgs(1),
		RunE:  runSimulation,
	}
	addSceneFlags(runCmd)
	runCmd.Flags().IntVar(&every, "every", 0, "write every n-th frame as PNG (0 = none)")
	runCmd.Flags().IntVar(&scale, "scale", config.DefaultScale, "PNG upscale factor")
	runCmd.Flags().StringVar(&script, "script", "", "pointer scenario file (yaml)")

	liveCmd := &cobra.Command{
		Use:   "live [scene]",
		Short: "run the simulation in the terminal with mouse forcing",
		Args:  cobra.MaximumNArgs(1),
		RunE:  runLive,
	}
	addSceneFlags(liveCmd)

	snapshotCmd := &cobra.Command{
		Use:   "snapshot [scene]",
		Short: "simulate a number of frames and write the last one as PNG",
		Args:  cobra.MaximumNArgs(1),
		RunE:  runSnapshot,
	}
	addSceneFlags(snapshotCmd)
	snapshotCmd.Flags().StringVarP(&outPath, "out", "o", "marbling.png", "output PNG")
	snapshotCmd.Flags().IntVar(&scale, "scale", config.DefaultScale, "PNG upscale factor")
	snapshotCmd.Flags().StringVar(&script, "script", "", "pointer scenario file (yaml)")

	presetsCmd := &cobra.Command{
		Use:   "presets",
		Short: "list color presets",
		Args:  cobra.NoArgs,
		RunE:  listPresets,
	}

	scenesCmd := &cobra.Command{
		Use:   "scenes",
		Short: "list scenes",
		Args:  cobra.NoArgs,
		RunE:  listScenes,
	}

	paramsCmd := &cobra.Command{
		Use:   "params",
		Short: "list tunable parameters",
		Args:  cobra.NoArgs,
		RunE:  listParams,
	}

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "list runs",
		Args:  cobra.NoArgs,
		RunE:  listRuns,
	}

	plotCmd := &cobra.Command{
		Use:   "plot [run_id]",
		Short: "plot a metric of a run (latest by default)",
		Args:  cobra.MaximumNArgs(1),
		RunE:  plotRun,
	}
	plotCmd.Flags().StringVar(&metric, "metric", "energy", "column to plot ("+strings.Join(metrics.Columns(), ", ")+")")

	exportCSVCmd := &cobra.Command{
		Use:   "export-csv [run_id]",
		Short: "print the per-frame metrics of a run as CSV",
		Args:  cobra.MaximumNArgs(1),
		RunE:  exportCSV,
	}

	exportCmd := &cobra.Command{
		Use:   "export [run_id]",
		Short: "print run metadata as JSON",
		Args:  cobra.MaximumNArgs(1),
		RunE:  exportRun,
	}

	analyzeCmd := &cobra.Command{
		Use:   "analyze [run_id]",
		Short: "frequency analysis of a run metric",
		Args:  cobra.MaximumNArgs(1),
		RunE:  analyzeRun,
	}
	analyzeCmd.Flags().StringVar(&metric, "metric", "energy", "column to analyze")

	sweepCmd := &cobra.Command{
		Use:   "sweep [param]",
		Short: "run the same scene across a range of one parameter",
		Args:  cobra.ExactArgs(1),
		RunE:  runSweep,
	}
	addSceneFlags(sweepCmd)
	sweepCmd.Flags().Float64Var(&sweepMin, "min", 0, "first value (default: parameter minimum)")
	sweepCmd.Flags().Float64Var(&sweepMax, "max", 0, "last value (default: parameter maximum)")
	sweepCmd.Flags().IntVar(&sweepSteps, "steps", 5, "number of values")

	stressCmd := &cobra.Command{
		Use:   "stress",
		Short: "run random parameter sets and report stability",
		Args:  cobra.NoArgs,
		RunE:  runStress,
	}
	stressCmd.Flags().IntVar(&trials, "trials", 20, "number of random parameter sets")
	stressCmd.Flags().Int64Var(&seed, "seed", 0, "random seed (0 = time based)")
	stressCmd.Flags().IntVar(&width, "width", 64, "field width")
	stressCmd.Flags().IntVar(&height, "height", 40, "field height")
	stressCmd.Flags().IntVar(&frames, "frames", 240, "frames per trial")

	rootCmd.AddCommand(runCmd, liveCmd, snapshotCmd, presetsCmd, scenesCmd, paramsCmd, listCmd, plotCmd, exportCSVCmd, exportCmd, analyzeCmd, sweepCmd, stressCmd)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func addSceneFlags(cmd *cobra.Command) {
	cmd.Flags().StringVar(&configFile, "config", "", "config file path (yaml)")
	cmd.Flags().StringVar(&preset, "preset", "", "color preset")
	cmd.Flags().StringArrayVar(&sets, "set", nil, "parameter override name=value (repeatable)")
	cmd.Flags().IntVar(&width, "width", config.DefaultWidth, "field width")
	cmd.Flags().IntVar(&height, "height", config.DefaultHeight, "field height")
	cmd.Flags().Float64Var(&fps, "fps", config.DefaultFPS, "simulated frames per second")
	cmd.Flags().IntVar(&frames, "frames", config.DefaultFrames, "number of frames")
}

func setupLogging(path string) error {
	var level slog.Level
	if err := level.UnmarshalText([]byte(logLevel)); err != nil {
		return fmt.Errorf("log level: %w", err)
	}

	var w io.Writer = os.Stderr
	if path != "" {
		f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
		if err != nil {
			return err
		}
		w = f
	}

	opts := &slog.HandlerOptions{Level: level}
	var h slog.Handler
	switch logFormat {
	case "text":
		h = slog.NewTextHandler(w, opts)
	case "json":
		h = slog.NewJSONHandler(w, opts)
	default:
		return fmt.Errorf("log format: unknown %q", logFormat)
	}
	dynamo.SetLogger(slog.New(h))
	return nil
}

// loadConfig resolves the scene, config file and flags into one
// configuration. Flags override the file, which overrides the scene.
func loadConfig(cmd *cobra.Command, args []string) (*config.Config, string, error) {
	name := "default"
	if len(args) > 0 {
		name = args[0]
	}

	var cfg *config.Config
	if configFile != "" {
		c, err := config.Load(configFile)
		if err != nil {
			return nil, "", fmt.Errorf("failed to load config: %w", err)
		}
		cfg = c
		if len(args) == 0 {
			base := filepath.Base(configFile)
			name = strings.TrimSuffix(base, filepath.Ext(base))
		}
	} else {
		cfg = config.GetScene(name)
		if cfg == nil {
			return nil, "", fmt.Errorf("unknown scene: %s (available: %v)", name, config.ListScenes())
		}
	}

	flags := cmd.Flags()
	if flags.Changed("preset") {
		cfg.Preset = preset
	}
	if flags.Changed("width") {
		cfg.Width = width
	}
	if flags.Changed("height") {
		cfg.Height = height
	}
	if flags.Changed("fps") {
		cfg.FPS = fps
	}
	if flags.Changed("frames") {
		cfg.Frames = frames
	}
	if flags.Changed("workers") {
		cfg.Workers = workers
	}
	if flags.Lookup("every") != nil && flags.Changed("every") {
		cfg.Output.Every = every
	}
	if flags.Lookup("scale") != nil && flags.Changed("scale") {
		cfg.Output.Scale = scale
	}
	if flags.Lookup("script") != nil && flags.Changed("script") {
		cfg.Script = script
	}
	for _, kv := range sets {
		k, v, ok := strings.Cut(kv, "=")
		if !ok {
			return nil, "", fmt.Errorf("--set %q: want name=value", kv)
		}
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return nil, "", fmt.Errorf("--set %q: %w", kv, err)
		}
		if cfg.Params == nil {
			cfg.Params = make(map[string]float64)
		}
		cfg.Params[k] = f
	}

	if err := cfg.Validate(); err != nil {
		return nil, "", err
	}
	return cfg, name, nil
}

func newEngine(cfg *config.Config) (*sim.Engine, error) {
	p, warnings, err := cfg.ParamSet()
	if err != nil {
		return nil, err
	}
	for _, w := range warnings {
		dynamo.Logger().Warn("config", "warning", w)
		fmt.Fprintln(os.Stderr, "warning:", w)
	}
	return sim.New(sim.Options{Width: cfg.Width, Height: cfg.Height, Workers: cfg.Workers, Params: p})
}

func loadDriver(cfg *config.Config) (sim.Driver, error) {
	if cfg.Script == "" {
		return nil, nil
	}
	sc, err := automation.LoadScenario(cfg.Script)
	if err != nil {
		return nil, err
	}
	return automation.NewPlayer(sc), nil
}

func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt)
}

func runSimulation(cmd *cobra.Command, args []string) error {
	cfg, name, err := loadConfig(cmd, args)
	if err != nil {
		return err
	}
	engine, err := newEngine(cfg)
	if err != nil {
		return err
	}
	driver, err := loadDriver(cfg)
	if err != nil {
		return err
	}

	st := storage.New(dataDir)
	if err := st.Init(); err != nil {
		return err
	}
	run, err := st.NewRun(name)
	if err != nil {
		return err
	}

	engine.AddMetric(metrics.NewEnergy())
	engine.AddMetric(metrics.NewEnergyDrift())
	engine.AddMetric(metrics.NewCoverage())
	engine.AddMetric(metrics.NewStability(0.1*engine.Params().Snapshot().FlowIntensity + 1e-9))

	var fw *storage.FrameWriter
	var pool *sim.ImagePool
	if cfg.Output.Every > 0 {
		dir := cfg.Output.Dir
		if dir == "" {
			dir = run.Dir
		}
		pool = sim.NewImagePool(cfg.Width, cfg.Height)
		fw, err = storage.NewFrameWriter(dir, cfg.Output.Scale, cfg.Workers, pool.Put)
		if err != nil {
			return err
		}
	}

	ctx, cancel := signalContext()
	defer cancel()

	fmt.Printf("running %s (%dx%d, %d frames)...\n", name, cfg.Width, cfg.Height, cfg.Frames)
	start := time.Now()

	var onFrame func(sim.FrameInfo) bool
	if fw != nil {
		onFrame = func(info sim.FrameInfo) bool {
			if info.Index%uint64(cfg.Output.Every) == 0 {
				fw.Write(info.Index, pool.GetAndCopy(info.Image))
			}
			return true
		}
	}
	result, runErr := engine.Run(ctx, sim.RunConfig{FPS: cfg.FPS, Frames: cfg.Frames, Driver: driver, Record: true}, onFrame)

	images := 0
	if fw != nil {
		n, err := fw.Close()
		if err != nil {
			return err
		}
		images = n
	}
	if result == nil {
		return runErr
	}
	elapsed := time.Since(start)

	p := engine.Params().Snapshot()
	meta := storage.RunMetadata{
		ID:        run.ID,
		Preset:    p.Preset,
		Timestamp: time.Now(),
		Width:     cfg.Width,
		Height:    cfg.Height,
		FPS:       cfg.FPS,
		Frames:    result.Frames,
		Faults:    result.Faults,
		Params:    p.GetParams(),
		Colors:    config.HexColors(p),
		Flags:     config.Flags(p),
		Metrics:   result.Metrics,
		Images:    images,
	}
	if err := run.WriteMetadata(meta); err != nil {
		return err
	}
	if err := run.WriteSamples(result.Samples); err != nil {
		return err
	}

	fmt.Printf("completed in %v\n", elapsed)
	fmt.Printf("run id: %s\n", run.ID)
	fmt.Printf("frames: %d (faults: %d, images: %d)\n", result.Frames, result.Faults, images)
	fmt.Println("\nmetrics:")
	for _, k := range sortedMetricNames(result.Metrics) {
		fmt.Printf("  %s: %.6f\n", k, result.Metrics[k])
	}
	return runErr
}

func sortedMetricNames(m map[string]float64) []string {
	names := make([]string, 0, len(m))
	for k := range m {
		names = append(names, k)
	}
	sort.Strings(names)
	return names
}

func runLive(cmd *cobra.Command, args []string) error {
	cfg, name, err := loadConfig(cmd, args)
	if err != nil {
		return err
	}
	engine, err := newEngine(cfg)
	if err != nil {
		return err
	}
	return viz.RunLive(engine, name)
}

func runSnapshot(cmd *cobra.Command, args []string) error {
	cfg, _, err := loadConfig(cmd, args)
	if err != nil {
		return err
	}
	engine, err := newEngine(cfg)
	if err != nil {
		return err
	}
	driver, err := loadDriver(cfg)
	if err != nil {
		return err
	}

	ctx, cancel := signalContext()
	defer cancel()

	var last *sim.FrameInfo
	copyImg := sim.NewImagePool(cfg.Width, cfg.Height)
	_, err = engine.Run(ctx, sim.RunConfig{FPS: cfg.FPS, Frames: cfg.Frames, Driver: driver}, func(info sim.FrameInfo) bool {
		if last != nil {
			copyImg.Put(last.Image)
		}
		info.Image = copyImg.GetAndCopy(info.Image)
		last = &info
		return true
	})
	if err != nil {
		return err
	}
	if last == nil {
		return fmt.Errorf("no frame committed")
	}
	if err := storage.WritePNG(outPath, last.Image, cfg.Output.Scale); err != nil {
		return err
	}
	fmt.Printf("wrote %s (frame %d, t=%.2fs)\n", outPath, last.Index, last.Time)
	return nil
}

func listPresets(cmd *cobra.Command, args []string) error {
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "NAME\tPRIMARY\tACCENT\tINTENSITY\tSATURATION")
	for _, name := range params.ListPresets() {
		p := params.Defaults()
		if err := p.ApplyPreset(name); err != nil {
			return err
		}
		hex := config.HexColors(p)
		fmt.Fprintf(w, "%s\t%s\t%s\t%.1f\t%.2f\n", name,
			hex[params.ColorPrimary], hex[params.ColorAccent], p.ColorIntensity, p.ColorSaturation)
	}
	return w.Flush()
}

func listScenes(cmd *cobra.Command, args []string) error {
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "NAME\tPRESET\tPARAMS")
	for _, name := range config.ListScenes() {
		s := config.GetScene(name)
		p := s.Preset
		if p == "" {
			p = "-"
		}
		overrides := make([]string, 0, len(s.Params))
		for _, k := range params.Names() {
			if v, ok := s.Params[k]; ok {
				overrides = append(overrides, fmt.Sprintf("%s=%g", k, v))
			}
		}
		fmt.Fprintf(w, "%s\t%s\t%s\n", name, p, strings.Join(overrides, " "))
	}
	return w.Flush()
}

func listParams(cmd *cobra.Command, args []string) error {
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "NAME\tGROUP\tMIN\tMAX\tDEFAULT\tDESCRIPTION")
	for _, s := range params.Specs() {
		fmt.Fprintf(w, "%s\t%s\t%g\t%g\t%g\t%s\n", s.Name, s.Group, s.Min, s.Max, s.Default, s.Help)
	}
	fmt.Fprintf(w, "%s\tcolor\t\t\t%s\tprimary ink color\n", params.ColorPrimary, config.HexColors(params.Defaults())[params.ColorPrimary])
	fmt.Fprintf(w, "%s\tcolor\t\t\t%s\taccent ink color\n", params.ColorAccent, config.HexColors(params.Defaults())[params.ColorAccent])
	fmt.Fprintf(w, "%s\tmovement\t\t\ttrue\torbit when the pointer was never engaged\n", params.FlagAutoMove)
	fmt.Fprintf(w, "%s\tmovement\t\t\ttrue\torbit after the pointer goes idle\n", params.FlagAutoMoveWhenInactive)
	return w.Flush()
}

func listRuns(cmd *cobra.Command, args []string) error {
	st := storage.New(dataDir)
	runs, err := st.List()
	if err != nil {
		return err
	}

	if len(runs) == 0 {
		fmt.Println("no runs found")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tPRESET\tTIME\tSIZE\tFRAMES\tFAULTS\tIMAGES")
	for _, run := range runs {
		fmt.Fprintf(w, "%s\t%s\t%s\t%dx%d\t%d\t%d\t%d\n",
			run.ID,
			run.Preset,
			run.Timestamp.Format("2006-01-02 15:04:05"),
			run.Width, run.Height,
			run.Frames,
			run.Faults,
			run.Images,
		)
	}
	return w.Flush()
}

func resolveRun(st *storage.Store, args []string) (*storage.RunMetadata, error) {
	if len(args) > 0 {
		return st.Load(args[0])
	}
	return st.Latest()
}

func plotRun(cmd *cobra.Command, args []string) error {
	st := storage.New(dataDir)
	meta, err := resolveRun(st, args)
	if err != nil {
		return err
	}
	samples, err := st.LoadSamples(meta.ID)
	if err != nil {
		return err
	}
	if len(samples) == 0 {
		return fmt.Errorf("no data to plot")
	}
	data, ok := metrics.Series(samples, metric)
	if !ok {
		return fmt.Errorf("unknown metric %q (available: %s)", metric, strings.Join(metrics.Columns(), ", "))
	}

	fmt.Printf("run: %s\n", meta.ID)
	fmt.Printf("frames: %d\n\n", len(samples))
	graph := asciigraph.Plot(data,
		asciigraph.Height(10),
		asciigraph.Width(80),
		asciigraph.Caption(metric+" vs frame"),
	)
	fmt.Println(graph)
	return nil
}

func exportCSV(cmd *cobra.Command, args []string) error {
	st := storage.New(dataDir)
	meta, err := resolveRun(st, args)
	if err != nil {
		return err
	}
	samples, err := st.LoadSamples(meta.ID)
	if err != nil {
		return err
	}
	if len(samples) == 0 {
		return fmt.Errorf("no data to export")
	}
	return gocsv.Marshal(samples, os.Stdout)
}

func exportRun(cmd *cobra.Command, args []string) error {
	st := storage.New(dataDir)
	meta, err := resolveRun(st, args)
	if err != nil {
		return err
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(meta)
}

func analyzeRun(cmd *cobra.Command, args []string) error {
	st := storage.New(dataDir)
	meta, err := resolveRun(st, args)
	if err != nil {
		return err
	}
	samples, err := st.LoadSamples(meta.ID)
	if err != nil {
		return err
	}
	data, ok := metrics.Series(samples, metric)
	if !ok {
		return fmt.Errorf("unknown metric %q (available: %s)", metric, strings.Join(metrics.Columns(), ", "))
	}
	if len(data) < 2 {
		return fmt.Errorf("no data")
	}

	fmt.Printf("frequency analysis: %s\n", meta.ID)
	fmt.Printf("metric: %s\n\n", metric)

	ps, bin := metrics.PowerSpectrum(data, meta.FPS)
	if len(ps) < 2 {
		return fmt.Errorf("not enough data for a spectrum")
	}
	plotData := ps[1:]
	if len(plotData) > 2 {
		plotData = plotData[:max(len(plotData)/2, 2)]
	}
	graph := asciigraph.Plot(plotData,
		asciigraph.Height(15),
		asciigraph.Width(80),
		asciigraph.Caption(fmt.Sprintf("power spectrum (%s, %.3f hz per bin)", metric, bin)),
	)
	fmt.Println(graph)
	fmt.Println()

	freq, _ := metrics.DominantFrequency(data, meta.FPS)
	fmt.Printf("dominant frequency: %.3f hz\n", freq)
	if freq > 0 {
		fmt.Printf("period: %.3f s\n", 1.0/freq)
	}
	return nil
}

func runSweep(cmd *cobra.Command, args []string) error {
	name := args[0]
	spec, ok := params.LookupSpec(name)
	if !ok {
		return fmt.Errorf("unknown parameter: %s (available: %v)", name, params.Names())
	}
	if !cmd.Flags().Changed("min") {
		sweepMin = spec.Min
	}
	if !cmd.Flags().Changed("max") {
		sweepMax = spec.Max
	}

	cfg, _, err := loadConfig(cmd, nil)
	if err != nil {
		return err
	}
	base, warnings, err := cfg.ParamSet()
	if err != nil {
		return err
	}
	for _, w := range warnings {
		fmt.Fprintln(os.Stderr, "warning:", w)
	}

	ctx, cancel := signalContext()
	defer cancel()

	fmt.Printf("sweeping %s over [%g, %g] in %d steps...\n", name, sweepMin, sweepMax, sweepSteps)
	results, err := automation.RunSweep(ctx, &automation.ParameterSweep{
		ParamName: name,
		ParamMin:  sweepMin,
		ParamMax:  sweepMax,
		NumSteps:  sweepSteps,
		Width:     cfg.Width,
		Height:    cfg.Height,
		Workers:   1,
		Base:      base,
		Run:       sim.RunConfig{FPS: cfg.FPS, Frames: cfg.Frames},
		Parallel:  cfg.Workers,
	})
	if err != nil {
		return err
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintf(w, "%s\tENERGY\tCOVERAGE\tSTABILITY\tFAULTS\n", strings.ToUpper(name))
	for _, r := range results {
		fmt.Fprintf(w, "%.4f\t%.6f\t%.4f\t%.3f\t%d\n", r.ParamValue, r.MeanEnergy, r.Coverage, r.Stability, r.Faults)
	}
	return w.Flush()
}

func runStress(cmd *cobra.Command, args []string) error {
	ctx, cancel := signalContext()
	defer cancel()

	fmt.Printf("running %d random parameter sets (%dx%d, %d frames)...\n", trials, width, height, frames)
	results, err := automation.RunMonteCarlo(ctx, &automation.MonteCarloConfig{
		NumTrials: trials,
		Width:     width,
		Height:    height,
		Workers:   1,
		Run:       sim.RunConfig{FPS: config.DefaultFPS, Frames: frames},
		Seed:      seed,
		Parallel:  workers,
	})
	if err != nil {
		return err
	}

	stable, unstable := automation.MonteCarloStats(results)
	fmt.Printf("stable: %d  unstable: %d\n", stable, unstable)
	if unstable == 0 {
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "TRIAL\tFAULTS\tPARAMS")
	for _, r := range results {
		if r.Stable {
			continue
		}
		ps := r.Params.GetParams()
		parts := make([]string, 0, len(ps))
		for _, k := range params.Names() {
			parts = append(parts, fmt.Sprintf("%s=%.3f", k, ps[k]))
		}
		fmt.Fprintf(w, "%d\t%d\t%s\n", r.TrialID, r.Faults, strings.Join(parts, " "))
	}
	return w.Flush()
}
