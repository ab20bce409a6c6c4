package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"statement_engine/pkg/core/assumption"
	"statement_engine/pkg/core/calc"
	"statement_engine/pkg/core/report"
	"statement_engine/pkg/core/store"
	"statement_engine/pkg/core/validate"
	"statement_engine/pkg/core/valuation"
	"statement_engine/pkg/models"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

// Output formats for build.
const (
	formatMarkdown = "markdown"
	formatHTML     = "html"
	formatJSON     = "json"
)

type buildOptions struct {
	casePath       string
	scenario       string
	seed           bool
	overrides      string
	format         string
	out            string
	save           bool
	strict         bool
	ratios         bool
	discountRate   float64
	terminalGrowth float64
	shares         float64
}

// buildOutput is the JSON document written by build --format json.
type buildOutput struct {
	Case      string                     `json:"case"`
	Scenario  string                     `json:"scenario"`
	Currency  string                     `json:"currency,omitempty"`
	Drivers   []models.DriverAssumptions `json:"drivers"`
	Result    *models.ModelResult        `json:"result"`
	Ratios    []calc.PeriodRatios        `json:"ratios,omitempty"`
	Valuation *valuation.DCFResult       `json:"valuation,omitempty"`
}

func newBuildCmd(a *app) *cobra.Command {
	opts := &buildOptions{}

	cmd := &cobra.Command{
		Use:   "build",
		Short: "Build the three-statement forecast for one scenario",
		Long: `Build one scenario of a case and render the income statement, balance
sheet and cash flow statement.

Drivers come from the named scenario, or with --seed from the latest
historical year. A Markdown table of overrides (columns: driver, value and
optionally year) may be layered on top with --overrides.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return a.runBuild(cmd, opts)
		},
	}

	f := cmd.Flags()
	f.StringVar(&opts.casePath, "case", "", "case file (.yaml, .hjson, .json)")
	f.StringVar(&opts.scenario, "scenario", "base", "scenario to build")
	f.BoolVar(&opts.seed, "seed", false, "derive drivers from the latest historical year instead of a scenario")
	f.StringVar(&opts.overrides, "overrides", "", "Markdown file with a driver override table")
	f.StringVar(&opts.format, "format", formatMarkdown, "output format (markdown, html, json)")
	f.StringVarP(&opts.out, "out", "o", "", "write output to a file instead of stdout")
	f.BoolVar(&opts.save, "save", false, "save the built model to the model store")
	f.BoolVar(&opts.strict, "strict", false, "fail when the model does not pass the balance / linkage gate")
	f.BoolVar(&opts.ratios, "ratios", true, "include key ratios")
	f.Float64Var(&opts.discountRate, "discount-rate", 0, "discount rate for a DCF on the forecast FCF (0 skips valuation)")
	f.Float64Var(&opts.terminalGrowth, "terminal-growth", 0.025, "terminal growth rate for the DCF")
	f.Float64Var(&opts.shares, "shares", 0, "shares outstanding for the DCF share price")
	_ = cmd.MarkFlagRequired("case")
	return cmd
}

func (a *app) runBuild(cmd *cobra.Command, opts *buildOptions) error {
	switch opts.format {
	case formatMarkdown, formatHTML, formatJSON:
	default:
		return fmt.Errorf("unknown format %q (want markdown, html or json)", opts.format)
	}

	c, err := assumption.LoadCase(opts.casePath)
	if err != nil {
		return err
	}

	drivers, name, err := resolveDrivers(c, opts)
	if err != nil {
		return err
	}
	if opts.overrides != "" {
		table, err := os.ReadFile(opts.overrides)
		if err != nil {
			return fmt.Errorf("read overrides: %w", err)
		}
		if drivers, err = assumption.ApplyDriverTable(string(table), drivers); err != nil {
			return err
		}
	}

	log := a.log.WithFields(logrus.Fields{"case": c.Name, "scenario": name})
	result, err := a.engine().BuildModel(c.Historical, drivers, c.Horizon(drivers))
	if err != nil {
		return err
	}
	log.WithField("max_balance_error", result.MaxBalanceError).Info("Model built")

	if err := validate.Assure(result, a.cfg.Engine.AcceptableBalanceError); err != nil {
		if opts.strict {
			return err
		}
		log.WithError(err).Warn("Model failed assurance")
	}

	var dcf *valuation.DCFResult
	if opts.discountRate > 0 {
		res, err := valuation.CalculateDCF(valuation.DCFInputFromModel(result, opts.discountRate, opts.terminalGrowth, opts.shares))
		if err != nil {
			return fmt.Errorf("valuation: %w", err)
		}
		dcf = &res
	}

	if opts.save {
		if err := a.saveSnapshot(cmd, c.Name, name, drivers, result); err != nil {
			return err
		}
	}

	w := cmd.OutOrStdout()
	if opts.out != "" {
		if err := os.MkdirAll(filepath.Dir(opts.out), 0755); err != nil {
			return err
		}
		file, err := os.Create(opts.out)
		if err != nil {
			return err
		}
		defer file.Close()
		w = file
	}

	rendered := buildOutput{Case: c.Name, Scenario: name, Currency: c.Currency, Drivers: drivers, Result: result, Valuation: dcf}
	if opts.ratios {
		rendered.Ratios = calc.AnalyzeModel(result)
	}
	return writeBuild(w, opts.format, rendered)
}

func resolveDrivers(c *assumption.Case, opts *buildOptions) ([]models.DriverAssumptions, string, error) {
	if !opts.seed {
		drivers, err := c.Drivers(opts.scenario)
		return drivers, opts.scenario, err
	}
	years := c.ForecastYears
	if years == 0 {
		years = 5
	}
	drivers, err := assumption.SeedFromHistory(c.Historical, years)
	return drivers, "seeded", err
}

func (a *app) saveSnapshot(cmd *cobra.Command, caseName, scenario string, drivers []models.DriverAssumptions, result *models.ModelResult) error {
	repo, release, err := a.repo(cmd.Context())
	if err != nil {
		return err
	}
	defer release()

	snap := &store.Snapshot{CaseName: caseName, Scenario: scenario, Drivers: drivers, Result: result}
	if err := repo.Save(cmd.Context(), snap); err != nil {
		return fmt.Errorf("save model: %w", err)
	}
	a.log.WithField("run_id", snap.RunID).Info("Model saved")
	return nil
}

func writeBuild(w io.Writer, format string, doc buildOutput) error {
	opts := report.Options{
		Title:    fmt.Sprintf("%s: %s", doc.Case, doc.Scenario),
		Currency: doc.Currency,
		Ratios:   doc.Ratios != nil,
	}

	switch format {
	case formatJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(doc)
	case formatHTML:
		page, err := report.HTML(doc.Result, opts)
		if err != nil {
			return err
		}
		_, err = io.WriteString(w, page)
		return err
	default:
		var sb strings.Builder
		sb.WriteString(report.Markdown(doc.Result, opts))
		if doc.Valuation != nil {
			writeValuation(&sb, doc.Valuation)
		}
		_, err := io.WriteString(w, sb.String())
		return err
	}
}

func writeValuation(sb *strings.Builder, v *valuation.DCFResult) {
	sb.WriteString("\n## Valuation (DCF)\n\n| Item | Value |\n|---|---:|\n")
	rows := []struct {
		label string
		value string
	}{
		{"PV of forecast FCF", report.FormatAmount(v.PVFCF)},
		{"PV of terminal value", report.FormatAmount(v.PVTerminal)},
		{"Enterprise value", report.FormatAmount(v.EnterpriseValue)},
		{"Equity value", report.FormatAmount(v.EquityValue)},
		{"Share price", fmt.Sprintf("%.2f", v.SharePrice)},
		{"Implied EV / EBITDA", fmt.Sprintf("%.1fx", v.ImpliedMultiple)},
	}
	for _, r := range rows {
		fmt.Fprintf(sb, "| %s | %s |\n", r.label, r.value)
	}
}
