package projection

import (
	"fmt"
	"math"

	"statement_engine/pkg/core/validate"
	"statement_engine/pkg/models"

	"github.com/sirupsen/logrus"
)

// ProjectionEngine builds integrated three-statement forecasts.
// It holds only immutable settings and a logger, so one engine may serve
// any number of concurrent builds.
type ProjectionEngine struct {
	settings Settings
	log      logrus.FieldLogger
}

// NewProjectionEngine creates an engine. Zero-valued settings fall back to
// DefaultSettings; a nil logger uses the logrus standard logger.
func NewProjectionEngine(settings Settings, logger logrus.FieldLogger) *ProjectionEngine {
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return &ProjectionEngine{
		settings: settings.withDefaults(),
		log:      logger.WithField("component", "projection"),
	}
}

// Settings returns the effective settings.
func (e *ProjectionEngine) Settings() Settings {
	return e.settings
}

// BuildModel validates history, transcribes it, and rolls the forecast
// forward one year at a time. Each forecast year depends on the previous
// year's ending balances, so the loop is strictly sequential.
func (e *ProjectionEngine) BuildModel(hist models.HistoricalInput, drivers []models.DriverAssumptions, forecastYears int) (*models.ModelResult, error) {
	if forecastYears < 0 {
		return nil, fmt.Errorf("%w: %d forecast years", ErrInvalidHorizon, forecastYears)
	}
	if forecastYears > len(drivers) {
		return nil, fmt.Errorf("%w: %d forecast years but only %d driver records", ErrInvalidHorizon, forecastYears, len(drivers))
	}

	run := newBuildRun(e.log)

	// 1. Validate (hard stop)
	run.advance(models.StateValidating)
	if err := validate.ValidateHistory(hist, e.settings.HistoryTolerance); err != nil {
		run.advance(models.StateValidationFailed)
		e.log.WithError(err).Error("historical validation failed, no forecast built")
		return nil, fmt.Errorf("historical validation: %w", err)
	}
	run.advance(models.StateValidated)

	// 2. Transcribe history
	periods := make([]models.PeriodResult, 0, len(hist)+forecastYears)
	periods = append(periods, transcribeHistory(hist, e.settings.HistoryTolerance)...)

	// 3. Forecast loop
	run.advance(models.StateBuilding)
	prev := periods[len(periods)-1]
	for i := 0; i < forecastYears; i++ {
		d := drivers[i]
		fiscalYear := 0
		if prev.FiscalYear != 0 {
			fiscalYear = prev.FiscalYear + 1
		}
		label := periodLabel(fiscalYear, i+1, false)

		revenue := prev.IncomeStatement.Revenue * (1 + d.RevenueGrowth)
		p := e.buildPeriod(prev.Ending(), d, revenue, e.log.WithField("period", label))
		p.Label = label
		p.FiscalYear = fiscalYear

		e.log.WithFields(logrus.Fields{
			"period":        label,
			"iterations":    p.Iterations,
			"balance_error": p.BalanceError,
		}).Debug("forecast period built")

		periods = append(periods, p)
		prev = p
	}

	// 4-5. Tables, derived series, diagnostics
	result := summarize(periods, len(hist))
	run.advance(models.StateBuilt)
	result.State = run.state

	if !result.AllPeriodsBalanced {
		e.log.WithField("max_balance_error", result.MaxBalanceError).Warn("model does not balance in every period")
	}
	return result, nil
}

// summarize renders the series into tables and computes the derived
// forecast series and aggregate diagnostics.
func summarize(periods []models.PeriodResult, historicalCount int) *models.ModelResult {
	forecastYears := len(periods) - historicalCount
	result := &models.ModelResult{
		Periods:            periods,
		HistoricalCount:    historicalCount,
		FCFPerPeriod:       make([]float64, 0, forecastYears),
		EBITDAPerPeriod:    make([]float64, 0, forecastYears),
		NetIncomePerPeriod: make([]float64, 0, forecastYears),
		AllPeriodsBalanced: true,
	}

	for i, p := range periods {
		result.AllPeriodsBalanced = result.AllPeriodsBalanced && p.BalanceCheck

		absErr := math.Abs(p.BalanceError)
		if !isFinite(absErr) {
			absErr = math.Inf(1)
		}
		result.MaxBalanceError = math.Max(result.MaxBalanceError, absErr)

		if i >= historicalCount {
			result.FCFPerPeriod = append(result.FCFPerPeriod, p.CashFlow.FreeCashFlow())
			result.EBITDAPerPeriod = append(result.EBITDAPerPeriod, p.IncomeStatement.EBITDA)
			result.NetIncomePerPeriod = append(result.NetIncomePerPeriod, p.IncomeStatement.NetIncome)
		}
	}

	result.IncomeStatement = renderTable("Income Statement", incomeStatementRows, periods)
	result.BalanceSheet = renderTable("Balance Sheet", balanceSheetRows, periods)
	result.CashFlow = renderTable("Cash Flow Statement", cashFlowRows, periods)
	return result
}

// =============================================================================
// BUILD STATE MACHINE
// Unbuilt -> Validating -> {ValidationFailed | Validated} -> Building -> Built
// =============================================================================

var buildTransitions = map[models.BuildState]models.BuildState{
	models.StateValidating:       models.StateUnbuilt,
	models.StateValidationFailed: models.StateValidating,
	models.StateValidated:        models.StateValidating,
	models.StateBuilding:         models.StateValidated,
	models.StateBuilt:            models.StateBuilding,
}

type buildRun struct {
	state models.BuildState
	log   logrus.FieldLogger
}

func newBuildRun(log logrus.FieldLogger) *buildRun {
	return &buildRun{state: models.StateUnbuilt, log: log}
}

// advance moves the run forward. There is no path back; an illegal
// transition is a programming error.
func (r *buildRun) advance(to models.BuildState) {
	if from, ok := buildTransitions[to]; !ok || from != r.state {
		panic(fmt.Sprintf("projection: illegal build transition %s -> %s", r.state, to))
	}
	r.log.WithFields(logrus.Fields{"from": r.state, "to": to}).Debug("build state")
	r.state = to
}
