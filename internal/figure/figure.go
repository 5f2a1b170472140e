// Package figure renders trajectories to image files with gonum/plot.
package figure

import (
	"bufio"
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"
	"strings"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/plotutil"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"
	"gonum.org/v1/plot/vg/vgimg"

	"github.com/san-kum/biodyn/internal/dynamo"
)

// Labels annotates a figure. Series[i] names state component i; missing
// entries fall back to the trajectory's variable names.
type Labels struct {
	Title  string
	XLabel string
	YLabel string
	Series []string
}

// Size is the output size in inches. DPI only applies to raster formats.
type Size struct {
	Width  float64
	Height float64
	DPI    int
}

func DefaultSize() Size {
	return Size{Width: 8, Height: 6, DPI: 150}
}

// Formats lists the supported output extensions.
func Formats() []string {
	return []string{"png", "svg", "pdf"}
}

// TimeSeries plots every state component of tr against time.
func TimeSeries(tr *dynamo.Trajectory, l Labels) (*plot.Plot, error) {
	if tr == nil || tr.Len() == 0 {
		return nil, fmt.Errorf("trajectory has no samples")
	}

	p := newPlot(l, "Time", "Value")
	for i := range tr.States[0] {
		pts := make(plotter.XYs, tr.Len())
		for j, x := range tr.States {
			pts[j].X = tr.Times[j]
			pts[j].Y = x[i]
		}
		line, err := plotter.NewLine(pts)
		if err != nil {
			return nil, fmt.Errorf("series %d: %w", i, err)
		}
		line.LineStyle.Width = vg.Points(1.5)
		line.LineStyle.Color = plotutil.Color(i)
		p.Add(line)
		p.Legend.Add(seriesName(tr, l, i), line)
	}
	p.Legend.Top = true
	return p, nil
}

// Phase plots component y against component x.
func Phase(tr *dynamo.Trajectory, x, y int, l Labels) (*plot.Plot, error) {
	if tr == nil || tr.Len() == 0 {
		return nil, fmt.Errorf("trajectory has no samples")
	}
	dim := len(tr.States[0])
	if x < 0 || y < 0 || x >= dim || y >= dim {
		return nil, fmt.Errorf("phase indices (%d, %d) out of range for dimension %d", x, y, dim)
	}

	p := newPlot(l, seriesName(tr, l, x), seriesName(tr, l, y))
	pts := make(plotter.XYs, tr.Len())
	for j, s := range tr.States {
		pts[j].X = s[x]
		pts[j].Y = s[y]
	}
	line, err := plotter.NewLine(pts)
	if err != nil {
		return nil, err
	}
	line.LineStyle.Width = vg.Points(1)
	line.LineStyle.Color = plotutil.Color(0)
	p.Add(line)
	return p, nil
}

func seriesName(tr *dynamo.Trajectory, l Labels, i int) string {
	if i < len(l.Series) && l.Series[i] != "" {
		return l.Series[i]
	}
	return tr.VarName(i)
}

func newPlot(l Labels, xLabel, yLabel string) *plot.Plot {
	p := plot.New()
	p.Title.Text = l.Title
	p.X.Label.Text = xLabel
	if l.XLabel != "" {
		p.X.Label.Text = l.XLabel
	}
	p.Y.Label.Text = yLabel
	if l.YLabel != "" {
		p.Y.Label.Text = l.YLabel
	}
	stylePlot(p)
	p.Add(plotter.NewGrid())
	return p
}

func stylePlot(p *plot.Plot) {
	p.Title.TextStyle.Font.Size = vg.Points(16)
	p.Title.Padding = vg.Points(8)

	p.X.Label.TextStyle.Font.Size = vg.Points(13)
	p.Y.Label.TextStyle.Font.Size = vg.Points(13)
	p.X.Label.Padding = vg.Points(6)
	p.Y.Label.Padding = vg.Points(6)

	p.X.Tick.Label.Font.Size = vg.Points(11)
	p.Y.Tick.Label.Font.Size = vg.Points(11)

	p.X.Tick.Marker = limitedTicker(8)
	p.Y.Tick.Marker = limitedTicker(8)
}

func limitedTicker(maxLabels int) plot.Ticker {
	return plot.TickerFunc(func(lo, hi float64) []plot.Tick {
		if math.IsNaN(lo) || math.IsNaN(hi) || math.IsInf(lo, 0) || math.IsInf(hi, 0) {
			return nil
		}
		if lo == hi {
			return []plot.Tick{{Value: lo, Label: fmt.Sprintf("%.3g", lo)}}
		}
		step := (hi - lo) / float64(maxLabels-1)
		ticks := make([]plot.Tick, 0, maxLabels)
		for i := 0; i < maxLabels; i++ {
			v := lo + float64(i)*step
			ticks = append(ticks, plot.Tick{Value: v, Label: fmt.Sprintf("%.3g", v)})
		}
		return ticks
	})
}

// Write encodes p in the named format.
func Write(w io.Writer, p *plot.Plot, format string, size Size) error {
	width := vg.Length(size.Width) * vg.Inch
	height := vg.Length(size.Height) * vg.Inch

	switch format = strings.ToLower(format); format {
	case "png":
		dpi := size.DPI
		if dpi <= 0 {
			dpi = DefaultSize().DPI
		}
		c := vgimg.NewWith(vgimg.UseWH(width, height), vgimg.UseDPI(dpi))
		p.Draw(draw.New(c))
		if _, err := (vgimg.PngCanvas{Canvas: c}).WriteTo(w); err != nil {
			return fmt.Errorf("write png: %w", err)
		}
		return nil
	case "svg", "pdf":
		wt, err := p.WriterTo(width, height, format)
		if err != nil {
			return err
		}
		if _, err := wt.WriteTo(w); err != nil {
			return fmt.Errorf("write %s: %w", format, err)
		}
		return nil
	default:
		return fmt.Errorf("unsupported figure format %q (want one of %s)", format, strings.Join(Formats(), ", "))
	}
}

// Save writes p to path, choosing the format from the file extension.
func Save(p *plot.Plot, path string, size Size) (err error) {
	format := strings.TrimPrefix(filepath.Ext(path), ".")
	if format == "" {
		return fmt.Errorf("figure path %q has no extension", path)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("cannot create directory: %w", err)
	}

	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := f.Close(); err == nil {
			err = cerr
		}
	}()

	bw := bufio.NewWriter(f)
	if err := Write(bw, p, format, size); err != nil {
		return err
	}
	return bw.Flush()
}
