package projection

import (
	"errors"
	"math"
	"testing"

	"statement_engine/pkg/core/assumption"
	"statement_engine/pkg/core/validate"
	"statement_engine/pkg/models"

	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleInputs() (models.HistoricalInput, []models.DriverAssumptions) {
	c := assumption.SampleCase()
	return c.Historical, c.Scenarios["base"]
}

func buildSample(t *testing.T) *models.ModelResult {
	t.Helper()
	hist, drivers := sampleInputs()
	result, err := quietEngine(Settings{}).BuildModel(hist, drivers, len(drivers))
	require.NoError(t, err)
	return result
}

func TestBuildModel_Scenario(t *testing.T) {
	result := buildSample(t)

	assert.Equal(t, models.StateBuilt, result.State)
	assert.True(t, result.AllPeriodsBalanced)
	assert.Less(t, result.MaxBalanceError, 1.0)

	require.Len(t, result.Periods, 7)
	assert.Equal(t, 2, result.HistoricalCount)
	assert.Len(t, result.FCFPerPeriod, 5)
	assert.Len(t, result.EBITDAPerPeriod, 5)
	assert.Len(t, result.NetIncomePerPeriod, 5)

	labels := make([]string, len(result.Periods))
	for i, p := range result.Periods {
		labels[i] = p.Label
	}
	assert.Equal(t, []string{"FY2023A", "FY2024A", "FY2025E", "FY2026E", "FY2027E", "FY2028E", "FY2029E"}, labels)

	// Revenue compounds off the last historical year
	assert.InDelta(t, 1210.0, result.Periods[2].IncomeStatement.Revenue, 1e-9)
	assert.InDelta(t, 1210.0*1.08, result.Periods[3].IncomeStatement.Revenue, 1e-9)

	for i, p := range result.Forecast() {
		assert.True(t, p.Converged, p.Label)
		assert.Equal(t, p.CashFlow.FreeCashFlow(), result.FCFPerPeriod[i])
		assert.Equal(t, p.IncomeStatement.EBITDA, result.EBITDAPerPeriod[i])
		assert.Equal(t, p.IncomeStatement.NetIncome, result.NetIncomePerPeriod[i])
	}

	assert.NoError(t, validate.Assure(result, validate.DefaultAcceptableBalanceError))
}

func TestBuildModel_Articulation(t *testing.T) {
	result := buildSample(t)

	for i := result.HistoricalCount; i < len(result.Periods); i++ {
		prev, cur := result.Periods[i-1], result.Periods[i]
		bs, cf := cur.BalanceSheet, cur.CashFlow

		// Opening balances are the prior period's closing balances
		assert.Equal(t, prev.BalanceSheet.Cash, bs.BeginningCash, cur.Label)
		assert.Equal(t, prev.BalanceSheet.Equity, bs.BeginningEquity, cur.Label)
		assert.Equal(t, prev.BalanceSheet.Debt, bs.BeginningDebt, cur.Label)

		// Cash continuity and the cash flow identity
		assert.InDelta(t, bs.Cash-bs.BeginningCash, cf.NetCashFlow, 1e-4, cur.Label)
		assert.InDelta(t, cf.OperatingCashFlow+cf.InvestingCashFlow+cf.FinancingCashFlow, cf.NetCashFlow, 1e-9, cur.Label)
		assert.Equal(t, bs.Cash, cf.EndingCash, cur.Label)

		// Equity roll-forward
		expected := bs.BeginningEquity + cur.IncomeStatement.NetIncome + cf.Dividends + cf.StockComp
		assert.InDelta(t, expected, bs.Equity, 1e-9, cur.Label)

		// Minimum cash honoured
		assert.GreaterOrEqual(t, bs.Cash, 50.0-1e-6, cur.Label)

		report := validate.CheckForecastLinkage(prev, cur, 0.01)
		assert.True(t, report.AllPassed, "%s: %v", cur.Label, report.FailedChecks)
	}
}

func TestBuildModel_RevolverDrawThenSweep(t *testing.T) {
	hist, drivers := sampleInputs()
	drivers = models.CloneDrivers(drivers)
	drivers[0].CapexPercent = 0.40

	result, err := quietEngine(Settings{}).BuildModel(hist, drivers, len(drivers))
	require.NoError(t, err)
	assert.True(t, result.AllPeriodsBalanced)

	y1 := result.Periods[2].BalanceSheet
	y2 := result.Periods[3].BalanceSheet
	assert.InDelta(t, 50.0, y1.Cash, 1e-6)
	assert.Greater(t, y1.Revolver, 0.0)
	assert.Less(t, y2.Revolver, y1.Revolver)
	assert.Greater(t, result.Periods[2].IncomeStatement.RevolverInterest, 0.0)
	assert.Less(t, result.Periods[3].CashFlow.RevolverNet, 0.0)

	assert.Empty(t, validate.CheckMinimumCash(result, drivers, 1e-6))
}

func TestBuildModel_ZeroDebt(t *testing.T) {
	hist, drivers := sampleInputs()
	hist = append(models.HistoricalInput(nil), hist...)
	drivers = models.CloneDrivers(drivers)

	// Refinance history into equity; interest expense falls away
	hist[0].Debt, hist[0].Equity = 0, 613
	hist[0].InterestExpense, hist[0].Tax, hist[0].NetIncome = 0, 30.75, 92.25
	hist[1].Debt, hist[1].Equity = 0, 650
	hist[1].InterestExpense, hist[1].Tax, hist[1].NetIncome = 0, 34.25, 102.75
	for i := range drivers {
		drivers[i].MandatoryAmortization = 0
	}

	result, err := quietEngine(Settings{}).BuildModel(hist, drivers, len(drivers))
	require.NoError(t, err)
	assert.True(t, result.AllPeriodsBalanced)

	for _, p := range result.Forecast() {
		assert.Zero(t, p.IncomeStatement.DebtInterest, p.Label)
		assert.Zero(t, p.BalanceSheet.Debt, p.Label)
		assert.Zero(t, p.CashFlow.NetDebtChange, p.Label)
	}
}

func TestBuildModel_Idempotent(t *testing.T) {
	hist, drivers := sampleInputs()
	e := quietEngine(Settings{})

	first, err := e.BuildModel(hist, drivers, len(drivers))
	require.NoError(t, err)
	second, err := e.BuildModel(hist, drivers, len(drivers))
	require.NoError(t, err)

	assert.Equal(t, first, second)
}

func TestBuildModel_DoesNotMutateInputs(t *testing.T) {
	hist, drivers := sampleInputs()
	histCopy := append(models.HistoricalInput(nil), hist...)
	driversCopy := models.CloneDrivers(drivers)

	_, err := quietEngine(Settings{}).BuildModel(hist, drivers, len(drivers))
	require.NoError(t, err)

	assert.Equal(t, histCopy, hist)
	assert.Equal(t, driversCopy, drivers)
}

func TestBuildModel_RejectsInconsistentHistory(t *testing.T) {
	hist, drivers := sampleInputs()
	hist = append(models.HistoricalInput(nil), hist...)
	hist[1].Equity += 5
	hist[0].NetIncome -= 3

	logger, hook := test.NewNullLogger()
	result, err := NewProjectionEngine(Settings{}, logger).BuildModel(hist, drivers, len(drivers))
	assert.Nil(t, result)
	require.ErrorIs(t, err, validate.ErrHistoryInconsistent)

	var herr *validate.HistoryError
	require.True(t, errors.As(err, &herr))
	require.Len(t, herr.Issues, 2)
	assert.Equal(t, validate.CheckIncomeRollupName, herr.Issues[0].Check)
	assert.Equal(t, 2023, herr.Issues[0].FiscalYear)
	assert.Equal(t, validate.CheckBalanceSheetName, herr.Issues[1].Check)
	assert.InDelta(t, -5.0, herr.Issues[1].Difference, 1e-9)

	assert.Equal(t, logrus.ErrorLevel, hook.LastEntry().Level)
}

func TestBuildModel_WithinHistoryTolerance(t *testing.T) {
	hist, drivers := sampleInputs()
	hist = append(models.HistoricalInput(nil), hist...)
	hist[1].Equity += 0.5

	_, err := quietEngine(Settings{}).BuildModel(hist, drivers, len(drivers))
	assert.NoError(t, err)
}

func TestBuildModel_Horizon(t *testing.T) {
	hist, drivers := sampleInputs()
	e := quietEngine(Settings{})

	_, err := e.BuildModel(hist, drivers, -1)
	assert.ErrorIs(t, err, ErrInvalidHorizon)

	_, err = e.BuildModel(hist, drivers, len(drivers)+1)
	assert.ErrorIs(t, err, ErrInvalidHorizon)

	_, err = e.BuildModel(nil, drivers, 1)
	assert.ErrorIs(t, err, validate.ErrEmptyHistory)

	result, err := e.BuildModel(hist, drivers, 0)
	require.NoError(t, err)
	assert.Len(t, result.Periods, 2)
	assert.Empty(t, result.FCFPerPeriod)
	assert.Equal(t, models.StateBuilt, result.State)

	result, err = e.BuildModel(hist, drivers, 3)
	require.NoError(t, err)
	assert.Len(t, result.Forecast(), 3)
}

func TestBuildModel_PositionalLabels(t *testing.T) {
	hist, drivers := sampleInputs()
	hist = append(models.HistoricalInput(nil), hist...)
	hist[0].FiscalYear, hist[1].FiscalYear = 0, 0

	result, err := quietEngine(Settings{}).BuildModel(hist, drivers, 2)
	require.NoError(t, err)
	assert.Equal(t, []string{"H1", "H2", "Y1", "Y2"}, result.IncomeStatement.Columns)
	assert.Zero(t, result.Periods[3].FiscalYear)
}

func TestBuildModel_NonConvergenceSurfacesAsImbalance(t *testing.T) {
	hist, drivers := sampleInputs()
	logger, hook := test.NewNullLogger()
	e := NewProjectionEngine(Settings{MaxIterations: 1}, logger)

	result, err := e.BuildModel(hist, drivers, len(drivers))
	require.NoError(t, err)
	assert.Equal(t, models.StateBuilt, result.State)
	assert.False(t, result.AllPeriodsBalanced)
	assert.Greater(t, result.MaxBalanceError, 1.0)

	for _, p := range result.Historical() {
		assert.True(t, p.Converged)
	}
	assert.False(t, result.Periods[2].Converged)

	assert.ErrorIs(t, validate.Assure(result, validate.DefaultAcceptableBalanceError), validate.ErrModelUnbalanced)

	var warnings int
	for _, entry := range hook.AllEntries() {
		if entry.Level == logrus.WarnLevel {
			warnings++
		}
	}
	assert.GreaterOrEqual(t, warnings, 5)
}

func TestTranscribeHistory(t *testing.T) {
	hist, _ := sampleInputs()
	periods := transcribeHistory(hist, 1.0)
	require.Len(t, periods, 2)

	// First period has no predecessor: opening == closing
	first := periods[0]
	assert.True(t, first.Historical)
	assert.Equal(t, 90.0, first.BalanceSheet.BeginningCash)
	assert.Zero(t, first.CashFlow.NetCashFlow)
	assert.Zero(t, first.CashFlow.ChangeReceivables)

	second := periods[1]
	cf := second.CashFlow
	// NI 95.25 + DA 40 + SBC 11 - dAR 10 - dInv 5 + dAP 5 + dAccrued 3
	assert.InDelta(t, 139.25, cf.OperatingCashFlow, 1e-9)
	assert.InDelta(t, -60.0, cf.InvestingCashFlow, 1e-9)
	assert.InDelta(t, -25.0, cf.NetDebtChange, 1e-9)
	assert.InDelta(t, 10.0, cf.NetCashFlow, 1e-9)
	assert.InDelta(t, -16.25, cf.OtherFinancing, 1e-9)
	assert.InDelta(t, cf.NetCashFlow, cf.OperatingCashFlow+cf.InvestingCashFlow+cf.FinancingCashFlow, 1e-9)

	assert.True(t, second.BalanceCheck)
	assert.True(t, second.Converged)
	assert.Zero(t, second.Iterations)
}

func TestSummarize_NonFiniteBalanceError(t *testing.T) {
	periods := []models.PeriodResult{
		{Label: "H1", BalanceCheck: true},
		{Label: "Y1", BalanceError: math.NaN()},
	}
	result := summarize(periods, 1)
	assert.False(t, result.AllPeriodsBalanced)
	assert.True(t, math.IsInf(result.MaxBalanceError, 1))
	assert.Len(t, result.FCFPerPeriod, 1)
}

func TestBuildRun_IllegalTransitionPanics(t *testing.T) {
	logger, _ := test.NewNullLogger()
	run := newBuildRun(logger)
	assert.Panics(t, func() { run.advance(models.StateBuilding) })

	run = newBuildRun(logger)
	run.advance(models.StateValidating)
	run.advance(models.StateValidationFailed)
	assert.True(t, run.state.Terminal())
	assert.Panics(t, func() { run.advance(models.StateValidated) })
}
