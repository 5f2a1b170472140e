package experiment

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/san-kum/biodyn/internal/config"
	"github.com/san-kum/biodyn/internal/dynamo"
	"github.com/san-kum/biodyn/internal/fields"
	"github.com/san-kum/biodyn/internal/logging"
	"github.com/san-kum/biodyn/internal/metrics"
	"github.com/san-kum/biodyn/internal/storage"
)

func TestRunPreset(t *testing.T) {
	r := NewRunner(fields.Builtin())
	r.Store = storage.New(t.TempDir())

	res, err := r.Run(context.Background(), "sir", config.GetPreset("sir"))
	if err != nil {
		t.Fatalf("run failed: %v", err)
	}
	if res.Trajectory.Len() != 1000 {
		t.Errorf("expected 1000 samples, got %d", res.Trajectory.Len())
	}
	if res.RunID == "" {
		t.Fatal("expected a stored run")
	}
	if _, ok := res.Diagnostics["peak_infected"]; !ok {
		t.Errorf("expected peak_infected diagnostic, got %v", res.Diagnostics)
	}

	meta, err := r.Store.Load(res.RunID)
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}
	if meta.Preset != "sir" || meta.Method != "dopri5" || meta.Samples != 1000 {
		t.Errorf("unexpected metadata %+v", meta)
	}
}

func TestRunWithoutStore(t *testing.T) {
	res, err := NewRunner(nil).Run(context.Background(), "", config.GetPreset("logistic"))
	if err != nil {
		t.Fatalf("run failed: %v", err)
	}
	if res.RunID != "" {
		t.Errorf("expected no run id, got %s", res.RunID)
	}
}

func TestRunLogsToContextLogger(t *testing.T) {
	var ctxBuf, ownBuf bytes.Buffer
	ctx := logging.ContextWithLogger(context.Background(),
		logging.New(logging.Config{Level: "info", Format: "json"}, &ctxBuf))

	r := NewRunner(fields.Builtin())
	if _, err := r.Run(ctx, "logistic", config.GetPreset("logistic")); err != nil {
		t.Fatalf("run failed: %v", err)
	}
	if !strings.Contains(ctxBuf.String(), `"msg":"run complete"`) {
		t.Errorf("expected context logger to receive the run record, got %q", ctxBuf.String())
	}

	ctxBuf.Reset()
	r.Logger = logging.New(logging.Config{Level: "info", Format: "json"}, &ownBuf)
	if _, err := r.Run(ctx, "logistic", config.GetPreset("logistic")); err != nil {
		t.Fatalf("run failed: %v", err)
	}
	if ctxBuf.Len() != 0 {
		t.Errorf("expected runner logger to take precedence, context got %q", ctxBuf.String())
	}
	if !strings.Contains(ownBuf.String(), `"name":"logistic"`) {
		t.Errorf("expected runner logger to receive the run record, got %q", ownBuf.String())
	}
}

func TestRunPreconditionFailure(t *testing.T) {
	cfg := config.GetPreset("lorenz")
	cfg.Field = "rossler"

	res, err := NewRunner(fields.Builtin()).Run(context.Background(), "", cfg)
	if !errors.Is(err, dynamo.ErrUnknownField) {
		t.Errorf("expected ErrUnknownField, got %v", err)
	}
	if res != nil {
		t.Error("expected no result")
	}
}

func TestRunStoresPartialTrajectory(t *testing.T) {
	r := NewRunner(fields.Builtin())
	r.Store = storage.New(t.TempDir())

	reg := prometheus.NewRegistry()
	c, err := metrics.NewSolverCollector(reg)
	if err != nil {
		t.Fatalf("collector: %v", err)
	}
	r.Collector = c

	cfg := config.GetPreset("lorenz")
	cfg.Solver.MaxSteps = 20

	res, err := r.Run(context.Background(), "lorenz", cfg)
	if !errors.Is(err, dynamo.ErrTooManySteps) {
		t.Fatalf("expected ErrTooManySteps, got %v", err)
	}
	if res == nil || res.RunID == "" {
		t.Fatal("expected a stored partial run")
	}

	meta, err := r.Store.Load(res.RunID)
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}
	if meta.Error == "" || meta.Samples != res.Trajectory.Len() {
		t.Errorf("unexpected metadata %+v", meta)
	}
	if got := testutil.ToFloat64(c.Runs.WithLabelValues("lorenz", "error")); got != 1 {
		t.Errorf("error runs = %v, want 1", got)
	}
}
