package experiment

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/san-kum/biodyn/internal/config"
	"github.com/san-kum/biodyn/internal/dynamo"
	"github.com/san-kum/biodyn/internal/fields"
	"github.com/san-kum/biodyn/internal/integrators"
	"github.com/san-kum/biodyn/internal/logging"
	"github.com/san-kum/biodyn/internal/metrics"
	"github.com/san-kum/biodyn/internal/storage"
)

// Result is the outcome of one run. On failure Trajectory holds the samples
// produced before the error.
type Result struct {
	Name        string
	RunID       string
	Config      *config.Config
	Trajectory  *dynamo.Trajectory
	Diagnostics map[string]float64
	Duration    time.Duration
}

// Runner resolves configs against a field registry, integrates them and
// optionally records metrics and stores the results.
type Runner struct {
	Registry  *fields.Registry
	Store     *storage.Store
	Collector *metrics.SolverCollector
	// Logger overrides the logger carried on the context when set.
	Logger *slog.Logger
}

func NewRunner(reg *fields.Registry) *Runner {
	if reg == nil {
		reg = fields.Default()
	}
	return &Runner{Registry: reg}
}

// LoggerFor returns the runner's logger, falling back to the one stored on
// ctx by logging.ContextWithLogger.
func (r *Runner) LoggerFor(ctx context.Context) *slog.Logger {
	if r.Logger != nil {
		return r.Logger
	}
	return logging.FromContext(ctx)
}

// Run executes cfg. name labels the run in storage and logs and may be
// empty. Precondition failures return a nil Result.
func (r *Runner) Run(ctx context.Context, name string, cfg *config.Config) (*Result, error) {
	resolved, err := cfg.Resolve(r.Registry)
	if err != nil {
		return nil, err
	}

	opts := resolved.Options
	opts.Logger = r.LoggerFor(ctx)
	opts.Observer = r.Collector.Observer(resolved.Field.Name())
	solver := integrators.New(opts)

	start := time.Now()
	tr, runErr := solver.Integrate(ctx, resolved.Field, resolved.Initial, resolved.Times, resolved.Params)
	elapsed := time.Since(start)
	r.Collector.ObserveRun(resolved.Field.Name(), elapsed, runErr)

	if tr == nil {
		return nil, runErr
	}

	res := &Result{
		Name:        name,
		Config:      cfg,
		Trajectory:  tr,
		Diagnostics: metrics.Evaluate(tr, metrics.ForField(resolved.Field.Name(), resolved.Params)...),
		Duration:    elapsed,
	}

	log := r.LoggerFor(ctx).With(slog.String("field", resolved.Field.Name()))
	if name != "" {
		log = log.With(slog.String("name", name))
	}

	if r.Store != nil {
		meta := storage.RunMetadata{
			Field:       resolved.Field.Name(),
			Preset:      name,
			Method:      solver.Options().Method,
			RelTol:      solver.Options().RelTol,
			AbsTol:      solver.Options().AbsTol,
			Params:      resolved.Params,
			Initial:     resolved.Initial,
			Start:       cfg.Grid.Start,
			End:         cfg.Grid.End,
			Diagnostics: res.Diagnostics,
		}
		if runErr != nil {
			meta.Error = runErr.Error()
		}
		id, err := r.Store.Save(meta, tr)
		if err != nil {
			return res, fmt.Errorf("save run: %w", err)
		}
		res.RunID = id
		log = logging.WithRun(log, id)
	}

	if runErr != nil {
		log.Warn("integration stopped early", slog.Int("samples", tr.Len()), slog.Any("error", runErr))
		return res, runErr
	}
	log.Info("run complete",
		slog.Int("samples", tr.Len()),
		slog.Int("accepted", tr.Stats.Accepted),
		slog.Duration("elapsed", elapsed))
	return res, nil
}
