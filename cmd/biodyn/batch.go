package main

import (
	"fmt"
	"os"
	"slices"
	"strconv"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/san-kum/biodyn/internal/automation"
	"github.com/san-kum/biodyn/internal/fields"
)

// varIndex accepts a state variable name or index of field.
func varIndex(field, v string) (int, error) {
	def, err := fields.Default().Lookup(field)
	if err != nil {
		return 0, err
	}
	if i := slices.Index(def.Vars, v); i >= 0 {
		return i, nil
	}
	i, err := strconv.Atoi(v)
	if err != nil || i < 0 || i >= def.Dim() {
		return 0, fmt.Errorf("field %s has no variable %q (have %v)", field, v, def.Vars)
	}
	return i, nil
}

func runSweep(cmd *cobra.Command, args []string) error {
	cfg, _, err := buildConfig(cmd, args)
	if err != nil {
		return err
	}
	runner, err := newRunner(false)
	if err != nil {
		return err
	}

	param, _ := cmd.Flags().GetString("param")
	from, _ := cmd.Flags().GetFloat64("from")
	to, _ := cmd.Flags().GetFloat64("to")
	steps, _ := cmd.Flags().GetInt("steps")
	workers, _ := cmd.Flags().GetInt("workers")
	trackName, _ := cmd.Flags().GetString("var")
	track, err := varIndex(cfg.Field, trackName)
	if err != nil {
		return err
	}

	sweep := &automation.ParameterSweep{
		Base:      cfg,
		ParamName: param,
		ParamMin:  from,
		ParamMax:  to,
		NumSteps:  steps,
		Track:     track,
		Workers:   workers,
	}

	fmt.Printf("sweeping %s over [%g, %g] in %d steps\n\n", param, from, to, steps)
	results, err := automation.RunSweep(cmd.Context(), sweep, runner)
	if err != nil {
		return err
	}

	def, _ := fields.Default().Lookup(cfg.Field)
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintf(w, "%s\tPEAK %s\tPEAK TIME\tSTEPS\tSTATUS\n", param, def.Vars[track])
	failed := 0
	for _, r := range results {
		status := "ok"
		if r.Err != nil {
			status = r.Err.Error()
			failed++
		}
		fmt.Fprintf(w, "%.6g\t%.6g\t%.6g\t%d\t%s\n", r.ParamValue, r.Peak, r.PeakTime, r.Stats.Accepted, status)
	}
	if err := w.Flush(); err != nil {
		return err
	}
	if failed > 0 {
		return fmt.Errorf("%d of %d sweep points failed", failed, len(results))
	}
	return nil
}

func runMonteCarlo(cmd *cobra.Command, args []string) error {
	cfg, _, err := buildConfig(cmd, args)
	if err != nil {
		return err
	}
	runner, err := newRunner(false)
	if err != nil {
		return err
	}

	mc := &automation.MonteCarloConfig{Base: cfg}
	mc.NumTrials, _ = cmd.Flags().GetInt("trials")
	mc.Perturbation, _ = cmd.Flags().GetFloat64("perturb")
	mc.NonNegative, _ = cmd.Flags().GetBool("non-negative")
	mc.Seed, _ = cmd.Flags().GetInt64("seed")
	mc.Bound, _ = cmd.Flags().GetFloat64("bound")
	mc.Workers, _ = cmd.Flags().GetInt("workers")

	fmt.Printf("running %d trials of %s (perturbation ±%g)\n", mc.NumTrials, cfg.Field, mc.Perturbation)
	results, err := automation.RunMonteCarlo(cmd.Context(), mc, runner)
	if err != nil {
		return err
	}

	stable, unstable := automation.MonteCarloStats(results)
	failed := 0
	for _, r := range results {
		if r.Err != nil {
			failed++
		}
	}
	fmt.Printf("bounded: %d  unbounded: %d  failed: %d\n", stable, unstable, failed)
	return nil
}

func runScenario(cmd *cobra.Command, args []string) error {
	sc, err := automation.LoadScenario(args[0])
	if err != nil {
		return err
	}
	runner, err := newRunner(true)
	if err != nil {
		return err
	}

	fmt.Printf("scenario %s: %d runs\n", sc.Name, len(sc.Steps))
	if sc.Description != "" {
		fmt.Println(sc.Description)
	}
	fmt.Println()

	results, runErr := automation.RunScenario(cmd.Context(), sc, runner)

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "STEP\tRUN ID\tSAMPLES\tELAPSED")
	for _, res := range results {
		fmt.Fprintf(w, "%s\t%s\t%d\t%v\n", res.Name, res.RunID, res.Trajectory.Len(), res.Duration)
	}
	if err := w.Flush(); err != nil {
		return err
	}
	return runErr
}
