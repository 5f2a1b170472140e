package viz

import (
	"fmt"

	"github.com/guptarohit/asciigraph"

	"github.com/san-kum/biodyn/internal/dynamo"
)

// PlotOptions controls a terminal chart. Zero sizes select 80x12.
type PlotOptions struct {
	Width   int
	Height  int
	Caption string
	// Legends names the plotted series; trajectory variable names are used
	// when empty.
	Legends []string
	Theme   Theme
}

// TimeSeries charts the given state components of tr against sample index.
// All components share one axis.
func TimeSeries(tr *dynamo.Trajectory, vars []int, opts PlotOptions) (string, error) {
	if tr.Len() == 0 {
		return "", fmt.Errorf("trajectory has no samples")
	}
	if len(vars) == 0 {
		for i := range tr.States[0] {
			vars = append(vars, i)
		}
	}

	data := make([][]float64, len(vars))
	legends := make([]string, len(vars))
	for k, v := range vars {
		if v < 0 || v >= len(tr.States[0]) {
			return "", fmt.Errorf("variable index %d out of range for dimension %d", v, len(tr.States[0]))
		}
		data[k] = tr.Column(v)
		legends[k] = tr.VarName(v)
		if k < len(opts.Legends) && opts.Legends[k] != "" {
			legends[k] = opts.Legends[k]
		}
	}

	if opts.Width <= 0 {
		opts.Width = 80
	}
	if opts.Height <= 0 {
		opts.Height = 12
	}
	if len(opts.Theme.Series) == 0 {
		opts.Theme = ThemeLab
	}

	caption := opts.Caption
	if caption == "" {
		caption = fmt.Sprintf("t = %.4g .. %.4g", tr.Times[0], tr.Times[tr.Len()-1])
	}

	plotOpts := []asciigraph.Option{
		asciigraph.Height(opts.Height),
		asciigraph.Width(opts.Width),
		asciigraph.Caption(caption),
		asciigraph.SeriesColors(opts.Theme.seriesColors(len(data))...),
	}
	if len(data) > 1 {
		plotOpts = append(plotOpts, asciigraph.SeriesLegends(legends...))
	}
	return asciigraph.PlotMany(data, plotOpts...), nil
}
