package metrics

import (
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/san-kum/biodyn/internal/dynamo"
)

// SolverCollector exposes integrator step and run metrics.
type SolverCollector struct {
	gatherer prometheus.Gatherer

	Steps        *prometheus.CounterVec
	StepSize     *prometheus.HistogramVec
	Runs         *prometheus.CounterVec
	RunDurations *prometheus.HistogramVec
}

// NewSolverCollector registers solver metrics against reg, or a fresh
// registry when reg is nil.
func NewSolverCollector(reg prometheus.Registerer) (*SolverCollector, error) {
	if reg == nil {
		reg = prometheus.NewRegistry()
	}
	var gatherer prometheus.Gatherer = prometheus.DefaultGatherer
	if g, ok := reg.(prometheus.Gatherer); ok {
		gatherer = g
	}

	steps := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "biodyn_solver_steps_total",
		Help: "Attempted integrator steps by field and outcome.",
	}, []string{"field", "outcome"})
	if err := register(reg, steps, "biodyn_solver_steps_total"); err != nil {
		return nil, err
	}

	stepSize := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "biodyn_solver_step_size",
		Help:    "Size of accepted integrator steps.",
		Buckets: prometheus.ExponentialBuckets(1e-6, 10, 8),
	}, []string{"field"})
	if err := register(reg, stepSize, "biodyn_solver_step_size"); err != nil {
		return nil, err
	}

	runs := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "biodyn_runs_total",
		Help: "Completed integrations by field and status.",
	}, []string{"field", "status"})
	if err := register(reg, runs, "biodyn_runs_total"); err != nil {
		return nil, err
	}

	durations := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "biodyn_run_duration_seconds",
		Help:    "Wall-clock duration of integrations.",
		Buckets: prometheus.ExponentialBuckets(0.0005, 4, 8),
	}, []string{"field"})
	if err := register(reg, durations, "biodyn_run_duration_seconds"); err != nil {
		return nil, err
	}

	return &SolverCollector{
		gatherer:     gatherer,
		Steps:        steps,
		StepSize:     stepSize,
		Runs:         runs,
		RunDurations: durations,
	}, nil
}

func register(reg prometheus.Registerer, c prometheus.Collector, name string) error {
	if err := reg.Register(c); err != nil {
		if _, ok := err.(prometheus.AlreadyRegisteredError); ok {
			return fmt.Errorf("collector %s already registered", name)
		}
		return err
	}
	return nil
}

// Observer returns a step observer labelled with field. A nil collector
// yields a nil observer.
func (c *SolverCollector) Observer(field string) dynamo.StepObserver {
	if c == nil {
		return nil
	}
	return &stepObserver{
		accepted: c.Steps.WithLabelValues(field, "accepted"),
		rejected: c.Steps.WithLabelValues(field, "rejected"),
		size:     c.StepSize.WithLabelValues(field),
	}
}

// ObserveRun records the outcome and duration of one integration.
func (c *SolverCollector) ObserveRun(field string, d time.Duration, err error) {
	if c == nil {
		return
	}
	status := "ok"
	if err != nil {
		status = "error"
	}
	c.Runs.WithLabelValues(field, status).Inc()
	c.RunDurations.WithLabelValues(field).Observe(d.Seconds())
}

// WriteTextfile writes the gathered metrics in the Prometheus text format,
// for pickup by a node exporter textfile collector.
func (c *SolverCollector) WriteTextfile(path string) error {
	if c == nil {
		return nil
	}
	return prometheus.WriteToTextfile(path, c.gatherer)
}

type stepObserver struct {
	accepted prometheus.Counter
	rejected prometheus.Counter
	size     prometheus.Observer
}

func (o *stepObserver) OnStep(_, h float64, accepted bool) {
	if !accepted {
		o.rejected.Inc()
		return
	}
	o.accepted.Inc()
	o.size.Observe(h)
}
