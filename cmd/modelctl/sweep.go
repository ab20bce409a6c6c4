package main

import (
	"encoding/json"
	"fmt"
	"io"
	"text/tabwriter"

	"statement_engine/pkg/core/assumption"
	"statement_engine/pkg/core/report"
	"statement_engine/pkg/core/scenario"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"
)

type sweepOptions struct {
	casePath string
	scenario string
	deltas   []float64
	all      bool
	format   string
}

func newSweepCmd(a *app) *cobra.Command {
	opts := &sweepOptions{}

	cmd := &cobra.Command{
		Use:   "sweep",
		Short: "Build scenarios in parallel and compare them",
		Long: `Build a revenue growth sensitivity around one scenario (or, with --all,
every scenario in the case) concurrently and print a side-by-side summary.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return a.runSweep(cmd, opts)
		},
	}

	f := cmd.Flags()
	f.StringVar(&opts.casePath, "case", "", "case file (.yaml, .hjson, .json)")
	f.StringVar(&opts.scenario, "scenario", "base", "scenario to shift")
	f.Float64SliceVar(&opts.deltas, "deltas", []float64{-0.02, -0.01, 0, 0.01, 0.02}, "growth shifts in decimal (0.01 = +1pp)")
	f.BoolVar(&opts.all, "all", false, "compare every scenario in the case instead of a growth sweep")
	f.StringVar(&opts.format, "format", "table", "output format (table, json)")
	_ = cmd.MarkFlagRequired("case")
	return cmd
}

func (a *app) runSweep(cmd *cobra.Command, opts *sweepOptions) error {
	if opts.format != "table" && opts.format != formatJSON {
		return fmt.Errorf("unknown format %q (want table or json)", opts.format)
	}

	c, err := assumption.LoadCase(opts.casePath)
	if err != nil {
		return err
	}

	var scenarios []scenario.Scenario
	if opts.all {
		for _, name := range c.ScenarioNames() {
			drivers, _ := c.Drivers(name)
			scenarios = append(scenarios, scenario.Scenario{Name: name, Drivers: drivers, ForecastYears: c.ForecastYears})
		}
	} else {
		drivers, err := c.Drivers(opts.scenario)
		if err != nil {
			return err
		}
		base := scenario.Scenario{Name: opts.scenario, Drivers: drivers, ForecastYears: c.ForecastYears}
		scenarios = scenario.GrowthSensitivity(base, opts.deltas)
	}

	runnerOpts := []scenario.Option{
		scenario.WithConcurrency(a.cfg.Scenarios.Concurrency),
		scenario.WithCache(a.cfg.Scenarios.CacheTTL),
		scenario.WithLogger(a.log),
	}
	if a.cfg.Scenarios.MetricsEnabled {
		runnerOpts = append(runnerOpts, scenario.WithMetrics(scenario.NewMetrics(prometheus.NewRegistry())))
	}

	runs, err := scenario.NewRunner(a.engine(), runnerOpts...).Run(cmd.Context(), c.Historical, scenarios)
	if err != nil {
		return err
	}

	summaries := scenario.Summarize(runs)
	if opts.format == formatJSON {
		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		return enc.Encode(summaries)
	}
	return writeSummaries(cmd.OutOrStdout(), summaries)
}

func writeSummaries(w io.Writer, summaries []scenario.Summary) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "SCENARIO\tBALANCED\tFINAL REVENUE\tFINAL NET INCOME\tCUMULATIVE FCF\tMAX REVOLVER\tMAX ERROR")
	for _, s := range summaries {
		if s.Error != "" {
			fmt.Fprintf(tw, "%s\tERROR\t%s\t\t\t\t\n", s.Scenario, s.Error)
			continue
		}
		fmt.Fprintf(tw, "%s\t%t\t%s\t%s\t%s\t%s\t%.6f\n",
			s.Scenario,
			s.Balanced,
			report.FormatAmount(s.FinalRevenue),
			report.FormatAmount(s.FinalNetIncome),
			report.FormatAmount(s.CumulativeFCF),
			report.FormatAmount(s.MaxRevolver),
			s.MaxBalanceError,
		)
	}
	return tw.Flush()
}
