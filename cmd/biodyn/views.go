package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"gonum.org/v1/plot"

	"github.com/san-kum/biodyn/internal/config"
	"github.com/san-kum/biodyn/internal/dynamo"
	"github.com/san-kum/biodyn/internal/fields"
	"github.com/san-kum/biodyn/internal/figure"
	"github.com/san-kum/biodyn/internal/storage"
	"github.com/san-kum/biodyn/internal/viz"
)

func loadRun(runID string) (*storage.RunMetadata, *dynamo.Trajectory, error) {
	st := storage.New(dataDir)
	meta, err := st.Load(runID)
	if err != nil {
		return nil, nil, err
	}
	tr, err := st.LoadTrajectory(runID)
	if err != nil {
		return nil, nil, err
	}
	if tr.Len() == 0 {
		return nil, nil, fmt.Errorf("run %s has no samples", runID)
	}
	return meta, tr, nil
}

// figureFor returns the labelling of the run's preset, or a title-only
// figure for runs made from plain field defaults.
func figureFor(meta *storage.RunMetadata) config.Figure {
	if p := config.GetPreset(meta.Preset); p != nil && p.Field == meta.Field {
		return p.Figure
	}
	fig := config.Figure{Title: meta.Field}
	if def, err := fields.Default().Lookup(meta.Field); err == nil {
		fig.Title = def.Title
	}
	return fig
}

func output(path string) (io.Writer, func() error, error) {
	if path == "" || path == "-" {
		return os.Stdout, func() error { return nil }, nil
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, nil, err
	}
	f, err := os.Create(path)
	if err != nil {
		return nil, nil, err
	}
	return f, f.Close, nil
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
	fmt.Fprintln(w, "ID\tFIELD\tPRESET\tTIME\tMETHOD\tSAMPLES\tSTATUS")

	for _, run := range runs {
		status := "ok"
		if run.Error != "" {
			status = "partial"
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%d\t%s\n",
			run.ID,
			run.Field,
			run.Preset,
			run.Timestamp.Format("2006-01-02 15:04:05"),
			run.Method,
			run.Samples,
			status,
		)
	}

	return w.Flush()
}

func showRun(cmd *cobra.Command, args []string) error {
	meta, err := storage.New(dataDir).Load(args[0])
	if err != nil {
		return err
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(meta)
}

func plotRun(cmd *cobra.Command, args []string) error {
	meta, tr, err := loadRun(args[0])
	if err != nil {
		return err
	}

	overlay, _ := cmd.Flags().GetBool("overlay")
	width, _ := cmd.Flags().GetInt("width")
	height, _ := cmd.Flags().GetInt("height")
	themeName, _ := cmd.Flags().GetString("theme")
	fig := figureFor(meta)

	fmt.Println(viz.TitleStyle.Render(fig.Title))
	fmt.Printf("run: %s\n", meta.ID)
	fmt.Printf("samples: %d\n\n", tr.Len())

	opts := viz.PlotOptions{
		Width:   width,
		Height:  height,
		Legends: fig.Series,
		Theme:   viz.GetTheme(themeName),
	}
	if overlay {
		chart, err := viz.TimeSeries(tr, nil, opts)
		if err != nil {
			return err
		}
		fmt.Println(chart)
		return nil
	}

	numVars := min(len(tr.States[0]), 6)
	for varIdx := 0; varIdx < numVars; varIdx++ {
		opts.Caption = tr.VarName(varIdx)
		if varIdx < len(fig.Series) && fig.Series[varIdx] != "" {
			opts.Caption = fig.Series[varIdx]
		}
		chart, err := viz.TimeSeries(tr, []int{varIdx}, opts)
		if err != nil {
			return err
		}
		fmt.Println(chart)
		fmt.Println(viz.SparklineChart(tr.Column(varIdx), width))
		fmt.Println()
	}
	return nil
}

func showPhase(cmd *cobra.Command, args []string) error {
	meta, tr, err := loadRun(args[0])
	if err != nil {
		return err
	}

	fig := figureFor(meta)
	if fig.Phase != nil {
		if !cmd.Flags().Changed("x-axis") {
			xAxis = fig.Phase.X
		}
		if !cmd.Flags().Changed("y-axis") {
			yAxis = fig.Phase.Y
		}
	}

	portrait, err := viz.NewPhasePortrait(tr, xAxis, yAxis)
	if err != nil {
		return err
	}
	if cross, _ := cmd.Flags().GetInt("cross"); cross >= 0 {
		threshold, _ := cmd.Flags().GetFloat64("poincare")
		if portrait, err = viz.Poincare(tr, cross, threshold, xAxis, yAxis); err != nil {
			return err
		}
		fmt.Printf("poincare section: %s crosses %g upwards, %d points\n", tr.VarName(cross), threshold, len(portrait.Points))
	}

	fmt.Println(viz.TitleStyle.Render(fig.Title))
	fmt.Printf("phase portrait: %s vs %s\n\n", portrait.YLabel, portrait.XLabel)
	if braille, _ := cmd.Flags().GetBool("braille"); braille {
		fmt.Println(portrait.Braille(60, 20))
	} else {
		fmt.Println(portrait.ASCII(60, 20))
	}
	return nil
}

func renderFigure(cmd *cobra.Command, args []string) error {
	meta, tr, err := loadRun(args[0])
	if err != nil {
		return err
	}

	out, _ := cmd.Flags().GetString("out")
	phase, _ := cmd.Flags().GetBool("phase")
	size := figure.DefaultSize()
	size.Width, _ = cmd.Flags().GetFloat64("width")
	size.Height, _ = cmd.Flags().GetFloat64("height")
	size.DPI, _ = cmd.Flags().GetInt("dpi")

	fig := figureFor(meta)
	labels := figure.Labels{
		Title:  fig.Title,
		XLabel: fig.XLabel,
		YLabel: fig.YLabel,
		Series: fig.Series,
	}

	var plt *plot.Plot
	if phase {
		x, y := 0, 1
		if fig.Phase != nil {
			x, y = fig.Phase.X, fig.Phase.Y
			labels = figure.Labels{
				Title:  fig.Phase.Title,
				XLabel: fig.Phase.XLabel,
				YLabel: fig.Phase.YLabel,
				Series: fig.Series,
			}
		}
		plt, err = figure.Phase(tr, x, y, labels)
	} else {
		plt, err = figure.TimeSeries(tr, labels)
	}
	if err != nil {
		return err
	}
	if err := figure.Save(plt, out, size); err != nil {
		return err
	}

	fmt.Printf("wrote %s\n", out)
	return nil
}

func viewRun(cmd *cobra.Command, args []string) error {
	meta, tr, err := loadRun(args[0])
	if err != nil {
		return err
	}
	return viz.RunBrowser(figureFor(meta).Title, tr)
}

func exportCSV(cmd *cobra.Command, args []string) (err error) {
	_, tr, err := loadRun(args[0])
	if err != nil {
		return err
	}

	path, _ := cmd.Flags().GetString("out")
	w, closeFn, err := output(path)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := closeFn(); err == nil {
			err = cerr
		}
	}()
	return storage.WriteCSV(w, tr)
}

func exportJSON(cmd *cobra.Command, args []string) (err error) {
	path, _ := cmd.Flags().GetString("out")
	w, closeFn, err := output(path)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := closeFn(); err == nil {
			err = cerr
		}
	}()
	return storage.New(dataDir).ExportRun(w, args[0])
}
