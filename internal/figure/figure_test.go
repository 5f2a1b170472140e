package figure

import (
	"bytes"
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/san-kum/biodyn/internal/dynamo"
)

func sampleTrajectory() *dynamo.Trajectory {
	tr := &dynamo.Trajectory{Field: "lorenz", Vars: []string{"x", "y", "z"}}
	for i := 0; i < 200; i++ {
		t := float64(i) / 20
		tr.Append(t, dynamo.State{math.Sin(t), math.Cos(t), t})
	}
	return tr
}

func TestTimeSeriesPNG(t *testing.T) {
	p, err := TimeSeries(sampleTrajectory(), Labels{
		Title:  "Gene Regulatory Network",
		Series: []string{"Gene X"},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if p.Title.Text != "Gene Regulatory Network" {
		t.Errorf("expected title, got %q", p.Title.Text)
	}
	if p.X.Label.Text != "Time" {
		t.Errorf("expected default x label Time, got %q", p.X.Label.Text)
	}

	var buf bytes.Buffer
	if err := Write(&buf, p, "png", Size{Width: 4, Height: 3, DPI: 72}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !bytes.HasPrefix(buf.Bytes(), []byte("\x89PNG")) {
		t.Error("expected PNG signature")
	}
}

func TestPhaseSVG(t *testing.T) {
	p, err := Phase(sampleTrajectory(), 0, 2, Labels{Title: "x-z"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if p.X.Label.Text != "x" || p.Y.Label.Text != "z" {
		t.Errorf("expected axis labels x, z, got %q, %q", p.X.Label.Text, p.Y.Label.Text)
	}

	var buf bytes.Buffer
	if err := Write(&buf, p, "SVG", DefaultSize()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(buf.String(), "<svg") {
		t.Error("expected svg document")
	}
}

func TestPhaseErrors(t *testing.T) {
	if _, err := Phase(sampleTrajectory(), 0, 3, Labels{}); err == nil {
		t.Error("expected error for out of range index")
	}
	if _, err := Phase(&dynamo.Trajectory{}, 0, 1, Labels{}); err == nil {
		t.Error("expected error for empty trajectory")
	}
	if _, err := TimeSeries(nil, Labels{}); err == nil {
		t.Error("expected error for nil trajectory")
	}
}

func TestWriteUnsupported(t *testing.T) {
	p, _ := TimeSeries(sampleTrajectory(), Labels{})
	if err := Write(&bytes.Buffer{}, p, "bmp", DefaultSize()); err == nil {
		t.Error("expected error for bmp")
	}
}

func TestSave(t *testing.T) {
	p, err := TimeSeries(sampleTrajectory(), Labels{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	path := filepath.Join(t.TempDir(), "figs", "lorenz.png")
	if err := Save(p, path, Size{Width: 4, Height: 3, DPI: 72}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	info, err := os.Stat(path)
	if err != nil {
		t.Fatalf("expected file: %v", err)
	}
	if info.Size() == 0 {
		t.Error("expected non-empty file")
	}

	if err := Save(p, filepath.Join(t.TempDir(), "noext"), DefaultSize()); err == nil {
		t.Error("expected error for missing extension")
	}
}
