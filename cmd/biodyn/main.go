package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/san-kum/biodyn/internal/config"
	"github.com/san-kum/biodyn/internal/experiment"
	"github.com/san-kum/biodyn/internal/fields"
	"github.com/san-kum/biodyn/internal/logging"
	"github.com/san-kum/biodyn/internal/metrics"
	"github.com/san-kum/biodyn/internal/storage"
	"github.com/san-kum/biodyn/internal/viz"
)

var (
	dataDir     string
	logLevel    string
	logFormat   string
	metricsFile string

	configFile string
	preset     string
	paramFlags []string
	initial    []float64
	t0         float64
	t1         float64
	samples    int
	method     string
	rtol       float64
	atol       float64
	maxSteps   int
	land       bool
	saveConfig string

	// Phase plot axes
	xAxis int
	yAxis int

	collector *metrics.SolverCollector
)

func main() {
	rootCmd := &cobra.Command{
		Use:           "biodyn",
		Short:         "integrate and plot biological dynamical systems",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return setup(cmd)
		},
	}

	rootCmd.PersistentFlags().StringVar(&dataDir, "data", ".biodyn", "data directory")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "warn", "log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().StringVar(&logFormat, "log-format", "text", "log format (text, json)")
	rootCmd.PersistentFlags().StringVar(&metricsFile, "metrics-file", "", "write prometheus metrics to this file on exit")

	fieldsCmd := &cobra.Command{
		Use:   "fields",
		Short: "list vector fields",
		Args:  cobra.NoArgs,
		RunE:  listFields,
	}

	presetsCmd := &cobra.Command{
		Use:   "presets [field]",
		Short: "list presets",
		Args:  cobra.MaximumNArgs(1),
		RunE:  listPresets,
	}

	runCmd := &cobra.Command{
		Use:   "run [field|preset]",
		Short: "integrate a field and store the trajectory",
		Args:  cobra.MaximumNArgs(1),
		RunE:  runIntegration,
	}
	addConfigFlags(runCmd, "param")
	runCmd.Flags().StringVar(&saveConfig, "save-config", "", "write the effective config to this yaml file")

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "list runs",
		Args:  cobra.NoArgs,
		RunE:  listRuns,
	}

	showCmd := &cobra.Command{
		Use:   "show [run_id]",
		Short: "print run metadata",
		Args:  cobra.ExactArgs(1),
		RunE:  showRun,
	}

	plotCmd := &cobra.Command{
		Use:   "plot [run_id]",
		Short: "plot run results",
		Args:  cobra.ExactArgs(1),
		RunE:  plotRun,
	}
	plotCmd.Flags().Bool("overlay", false, "draw all variables in one chart")
	plotCmd.Flags().Int("width", 80, "chart width")
	plotCmd.Flags().Int("height", 10, "chart height")
	plotCmd.Flags().String("theme", "lab", "color theme ("+strings.Join(viz.ThemeNames(), ", ")+")")

	phaseCmd := &cobra.Command{
		Use:   "phase [run_id]",
		Short: "show phase portrait",
		Args:  cobra.ExactArgs(1),
		RunE:  showPhase,
	}
	phaseCmd.Flags().IntVar(&xAxis, "x-axis", 0, "state index for x-axis")
	phaseCmd.Flags().IntVar(&yAxis, "y-axis", 1, "state index for y-axis")
	phaseCmd.Flags().Bool("braille", false, "draw a connected curve with braille dots")
	phaseCmd.Flags().Float64("poincare", 0, "only plot upward crossings of --cross at this value")
	phaseCmd.Flags().Int("cross", -1, "state index for the poincare section")

	figureCmd := &cobra.Command{
		Use:   "figure [run_id]",
		Short: "render a run to a png, svg or pdf figure",
		Args:  cobra.ExactArgs(1),
		RunE:  renderFigure,
	}
	figureCmd.Flags().StringP("out", "o", "", "output file (extension selects the format)")
	figureCmd.Flags().Bool("phase", false, "draw the phase view instead of the time series")
	figureCmd.Flags().Float64("width", 8, "width in inches")
	figureCmd.Flags().Float64("height", 6, "height in inches")
	figureCmd.Flags().Int("dpi", 150, "raster resolution")
	figureCmd.MarkFlagRequired("out")

	viewCmd := &cobra.Command{
		Use:   "view [run_id]",
		Short: "browse a run interactively",
		Args:  cobra.ExactArgs(1),
		RunE:  viewRun,
	}

	exportCSVCmd := &cobra.Command{
		Use:   "export-csv [run_id]",
		Short: "export run states as CSV",
		Args:  cobra.ExactArgs(1),
		RunE:  exportCSV,
	}
	exportCSVCmd.Flags().StringP("out", "o", "", "output file (default stdout)")

	exportJSONCmd := &cobra.Command{
		Use:   "export-json [run_id]",
		Short: "export run metadata and states as JSON",
		Args:  cobra.ExactArgs(1),
		RunE:  exportJSON,
	}
	exportJSONCmd.Flags().StringP("out", "o", "", "output file (default stdout)")

	sweepCmd := &cobra.Command{
		Use:   "sweep [field|preset]",
		Short: "integrate over a range of one parameter",
		Args:  cobra.ExactArgs(1),
		RunE:  runSweep,
	}
	addConfigFlags(sweepCmd, "set")
	sweepCmd.Flags().String("param", "", "parameter to vary")
	sweepCmd.Flags().Float64("from", 0, "first value")
	sweepCmd.Flags().Float64("to", 1, "last value")
	sweepCmd.Flags().Int("steps", 10, "number of values")
	sweepCmd.Flags().String("var", "0", "variable whose peak is reported (name or index)")
	sweepCmd.Flags().Int("workers", 0, "parallel integrations (default GOMAXPROCS)")
	sweepCmd.MarkFlagRequired("param")

	monteCarloCmd := &cobra.Command{
		Use:   "montecarlo [field|preset]",
		Short: "integrate randomly perturbed initial states",
		Args:  cobra.ExactArgs(1),
		RunE:  runMonteCarlo,
	}
	addConfigFlags(monteCarloCmd, "set")
	monteCarloCmd.Flags().Int("trials", 100, "number of trials")
	monteCarloCmd.Flags().Float64("perturb", 0.1, "half-width of the uniform perturbation")
	monteCarloCmd.Flags().Bool("non-negative", false, "clamp perturbed components at zero")
	monteCarloCmd.Flags().Int64("seed", 1, "random seed")
	monteCarloCmd.Flags().Float64("bound", 1e6, "largest state norm counted as bounded")
	monteCarloCmd.Flags().Int("workers", 0, "parallel integrations (default GOMAXPROCS)")

	scenarioCmd := &cobra.Command{
		Use:   "scenario [file]",
		Short: "run a yaml batch of runs",
		Args:  cobra.ExactArgs(1),
		RunE:  runScenario,
	}

	rootCmd.AddCommand(fieldsCmd, presetsCmd, runCmd, listCmd, showCmd, plotCmd, phaseCmd,
		figureCmd, viewCmd, exportCSVCmd, exportJSONCmd, sweepCmd, monteCarloCmd, scenarioCmd)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	err := rootCmd.ExecuteContext(ctx)
	stop()

	if ferr := flushMetrics(); ferr != nil && err == nil {
		err = ferr
	}
	if err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

// addConfigFlags registers the run configuration flags. overrideFlag names
// the repeatable name=value parameter override.
func addConfigFlags(cmd *cobra.Command, overrideFlag string) {
	cmd.Flags().StringVar(&configFile, "config", "", "config file path (yaml)")
	cmd.Flags().StringVar(&preset, "preset", "", "use preset configuration")
	cmd.Flags().StringArrayVar(&paramFlags, overrideFlag, nil, "override a parameter (name=value, repeatable)")
	cmd.Flags().Float64SliceVar(&initial, "init", nil, "initial state (comma separated)")
	cmd.Flags().Float64Var(&t0, "t0", config.DefaultStart, "start time")
	cmd.Flags().Float64Var(&t1, "t1", config.DefaultEnd, "end time")
	cmd.Flags().IntVar(&samples, "samples", config.DefaultSamples, "number of output samples")
	cmd.Flags().StringVar(&method, "method", "", "integration method (dopri5, bs23)")
	cmd.Flags().Float64Var(&rtol, "rtol", 0, "relative tolerance (positive; omit for the default)")
	cmd.Flags().Float64Var(&atol, "atol", 0, "absolute tolerance (positive; omit for the default)")
	cmd.Flags().IntVar(&maxSteps, "max-steps", 0, "limit on attempted steps")
	cmd.Flags().BoolVar(&land, "land", false, "step exactly onto every output time")
}

func setup(cmd *cobra.Command) error {
	logCfg, err := config.LoggingFromEnv()
	if err != nil {
		return err
	}
	if cmd.Flags().Changed("log-level") {
		logCfg.Level = logLevel
	}
	if cmd.Flags().Changed("log-format") {
		logCfg.Format = logFormat
	}
	logger := logging.New(logCfg, os.Stderr)

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	cmd.SetContext(logging.ContextWithLogger(ctx, logger))

	collector, err = metrics.NewSolverCollector(nil)
	return err
}

func flushMetrics() error {
	if metricsFile == "" || collector == nil {
		return nil
	}
	if err := collector.WriteTextfile(metricsFile); err != nil {
		return fmt.Errorf("write metrics: %w", err)
	}
	return nil
}

func newRunner(store bool) (*experiment.Runner, error) {
	runner := experiment.NewRunner(fields.Default())
	runner.Collector = collector
	if store {
		st := storage.New(dataDir)
		if err := st.Init(); err != nil {
			return nil, err
		}
		runner.Store = st
	}
	return runner, nil
}

// saveEffectiveConfig writes cfg to path so the run can be repeated with
// --config. An empty path is a no-op.
func saveEffectiveConfig(path string, cfg *config.Config) error {
	if path == "" {
		return nil
	}
	if err := config.Save(path, cfg); err != nil {
		return fmt.Errorf("save config: %w", err)
	}
	return nil
}

// buildConfig resolves the run configuration from, in increasing priority:
// the named preset or field defaults, --preset, --config, the environment
// and explicit flags. The returned name is the preset used, if any.
func buildConfig(cmd *cobra.Command, args []string) (*config.Config, string, error) {
	var cfg *config.Config
	var name string

	target := ""
	if len(args) > 0 {
		target = args[0]
	}
	switch {
	case configFile != "":
		loaded, err := config.Load(configFile)
		if err != nil {
			return nil, "", err
		}
		cfg = loaded
	case preset != "":
		cfg = config.GetPreset(preset)
		if cfg == nil {
			return nil, "", fmt.Errorf("unknown preset %q (available: %s)", preset, strings.Join(config.ListPresets(), ", "))
		}
		name = preset
	case target != "" && config.GetPreset(target) != nil:
		cfg = config.GetPreset(target)
		name = target
	case target != "":
		cfg = config.DefaultConfig()
		cfg.Field = target
	default:
		return nil, "", fmt.Errorf("specify a field, --preset or --config")
	}
	if target != "" && (configFile != "" || preset != "") && cfg.Field != target {
		return nil, "", fmt.Errorf("field %q does not match configured field %q", target, cfg.Field)
	}

	if err := cfg.Solver.ApplyEnv(); err != nil {
		return nil, "", err
	}

	flags := cmd.Flags()
	if len(paramFlags) > 0 {
		if cfg.Params == nil {
			cfg.Params = make(map[string]float64, len(paramFlags))
		}
		for _, kv := range paramFlags {
			k, v, err := parseParam(kv)
			if err != nil {
				return nil, "", err
			}
			cfg.Params[k] = v
		}
	}
	if flags.Changed("init") {
		cfg.Initial = initial
	}
	if flags.Changed("t0") {
		cfg.Grid.Start = t0
	}
	if flags.Changed("t1") {
		cfg.Grid.End = t1
	}
	if flags.Changed("samples") {
		cfg.Grid.Samples = samples
	}
	if flags.Changed("method") {
		cfg.Solver.Method = method
	}
	// A zero tolerance would silently fall back to the default.
	if flags.Changed("rtol") {
		if rtol <= 0 {
			return nil, "", fmt.Errorf("--rtol must be positive, got %g", rtol)
		}
		cfg.Solver.RelTol = rtol
	}
	if flags.Changed("atol") {
		if atol <= 0 {
			return nil, "", fmt.Errorf("--atol must be positive, got %g", atol)
		}
		cfg.Solver.AbsTol = atol
	}
	if flags.Changed("max-steps") {
		cfg.Solver.MaxSteps = maxSteps
	}
	if flags.Changed("land") {
		cfg.Solver.LandOnOutputs = land
	}

	if err := cfg.Validate(fields.Default()); err != nil {
		return nil, "", err
	}
	return cfg, name, nil
}

func parseParam(kv string) (string, float64, error) {
	k, v, ok := strings.Cut(kv, "=")
	if !ok || k == "" {
		return "", 0, fmt.Errorf("invalid parameter %q, want name=value", kv)
	}
	f, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
	if err != nil {
		return "", 0, fmt.Errorf("invalid value for %s: %w", k, err)
	}
	return strings.TrimSpace(k), f, nil
}

func listFields(cmd *cobra.Command, args []string) error {
	reg := fields.Default()

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "NAME\tVARS\tPARAMS\tTITLE")
	for _, name := range reg.Names() {
		def, err := reg.Lookup(name)
		if err != nil {
			return err
		}
		params := make([]string, len(def.Params))
		for i, p := range def.Params {
			params[i] = fmt.Sprintf("%s=%g", p, def.Defaults[p])
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", name, strings.Join(def.Vars, ","), strings.Join(params, " "), def.Title)
	}
	return w.Flush()
}

func listPresets(cmd *cobra.Command, args []string) error {
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "NAME\tFIELD\tGRID\tTITLE")
	for _, name := range config.ListPresets() {
		p := config.GetPreset(name)
		if len(args) > 0 && p.Field != args[0] {
			continue
		}
		fmt.Fprintf(w, "%s\t%s\t[%g, %g] x %d\t%s\n", name, p.Field, p.Grid.Start, p.Grid.End, p.Grid.Samples, p.Figure.Title)
	}
	return w.Flush()
}

func runIntegration(cmd *cobra.Command, args []string) error {
	cfg, name, err := buildConfig(cmd, args)
	if err != nil {
		return err
	}
	if err := saveEffectiveConfig(saveConfig, cfg); err != nil {
		return err
	}
	runner, err := newRunner(true)
	if err != nil {
		return err
	}

	fmt.Printf("integrating %s...\n", cfg.Field)
	res, err := runner.Run(cmd.Context(), name, cfg)
	if res == nil {
		return err
	}

	tr := res.Trajectory
	rows := []viz.KV{
		{Key: "run id", Value: res.RunID},
		{Key: "path", Value: filepath.Join(runner.Store.Dir(), res.RunID)},
		{Key: "method", Value: cfg.Solver.Method},
		{Key: "samples", Value: strconv.Itoa(tr.Len())},
		{Key: "accepted", Value: strconv.Itoa(tr.Stats.Accepted)},
		{Key: "rejected", Value: strconv.Itoa(tr.Stats.Rejected)},
		{Key: "evaluations", Value: strconv.Itoa(tr.Stats.Evaluations)},
		{Key: "elapsed", Value: res.Duration.String()},
	}
	for i, v := range tr.Final() {
		rows = append(rows, viz.KV{Key: "final " + tr.VarName(i), Value: fmt.Sprintf("%.6g", v)})
	}
	fmt.Println(viz.Summary(cfg.Field, rows))
	if len(res.Diagnostics) > 0 {
		fmt.Println(viz.Summary("diagnostics", viz.MetricRows(res.Diagnostics)))
	}
	if err != nil {
		fmt.Println(viz.ErrorStyle.Render("stopped early: " + err.Error()))
	}
	return err
}
