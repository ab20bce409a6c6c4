package validate

import (
	"fmt"
	"math"

	"statement_engine/pkg/models"
)

// =============================================================================
// CROSS-STATEMENT LINKAGE (forecast periods)
// =============================================================================

// Link is a single expected == actual comparison.
type Link struct {
	Expected   float64 `json:"expected"`
	Actual     float64 `json:"actual"`
	Difference float64 `json:"difference"`
	IsLinked   bool    `json:"is_linked"`
}

func newLink(expected, actual, tolerance float64) *Link {
	diff := actual - expected
	return &Link{
		Expected:   expected,
		Actual:     actual,
		Difference: diff,
		IsLinked:   math.Abs(diff) <= tolerance,
	}
}

// LinkageReport contains all cross-statement checks for one forecast period.
type LinkageReport struct {
	Label string `json:"label"`

	OpeningCash      *Link          `json:"opening_cash"`      // BS beginning cash == prior BS cash
	OpeningEquity    *Link          `json:"opening_equity"`    // BS beginning equity == prior BS equity
	CashContinuity   *Link          `json:"cash_continuity"`   // CF net cash flow == BS ending - beginning cash
	EquityContinuity *Link          `json:"equity_continuity"` // Equity == beginning + NI - dividends + stock comp
	NetIncomeTie     *Link          `json:"net_income_tie"`    // IS NI == CF NI start
	CashFlowEquation *CashFlowCheck `json:"cash_flow_equation"`

	Tolerance    float64  `json:"tolerance"`
	AllPassed    bool     `json:"all_passed"`
	FailedChecks []string `json:"failed_checks,omitempty"`
}

// CheckForecastLinkage validates cur against itself and against its predecessor.
func CheckForecastLinkage(prev, cur models.PeriodResult, tolerance float64) *LinkageReport {
	bs := cur.BalanceSheet
	cf := cur.CashFlow

	// Dividends are carried as a cash outflow (negative) on the CF.
	expectedEquity := bs.BeginningEquity + cur.IncomeStatement.NetIncome + cf.Dividends + cf.StockComp

	report := &LinkageReport{
		Label:            cur.Label,
		OpeningCash:      newLink(prev.BalanceSheet.Cash, bs.BeginningCash, tolerance),
		OpeningEquity:    newLink(prev.BalanceSheet.Equity, bs.BeginningEquity, tolerance),
		CashContinuity:   newLink(bs.Cash-bs.BeginningCash, cf.NetCashFlow, tolerance),
		EquityContinuity: newLink(expectedEquity, bs.Equity, tolerance),
		NetIncomeTie:     newLink(cur.IncomeStatement.NetIncome, cf.NetIncome, tolerance),
		CashFlowEquation: CheckCashFlowEquation(cf.OperatingCashFlow, cf.InvestingCashFlow, cf.FinancingCashFlow, cf.NetCashFlow, tolerance),
		Tolerance:        tolerance,
		AllPassed:        true,
	}

	fail := func(name string, ok bool) {
		if !ok {
			report.AllPassed = false
			report.FailedChecks = append(report.FailedChecks, name)
		}
	}
	fail("opening_cash", report.OpeningCash.IsLinked)
	fail("opening_equity", report.OpeningEquity.IsLinked)
	fail("cash_continuity", report.CashContinuity.IsLinked)
	fail("equity_continuity", report.EquityContinuity.IsLinked)
	fail("net_income_tie", report.NetIncomeTie.IsLinked)
	fail("cash_flow_equation", report.CashFlowEquation.IsBalanced)

	return report
}

// CheckMinimumCash returns the labels of forecast periods whose ending cash
// falls below the revolver policy floor configured for that year.
func CheckMinimumCash(result *models.ModelResult, drivers []models.DriverAssumptions, tolerance float64) []string {
	var breaches []string
	for i, p := range result.Forecast() {
		if i >= len(drivers) || drivers[i].Revolver == nil {
			continue
		}
		if p.BalanceSheet.Cash < drivers[i].Revolver.MinimumCash-tolerance {
			breaches = append(breaches, fmt.Sprintf("%s (cash %.2f < minimum %.2f)", p.Label, p.BalanceSheet.Cash, drivers[i].Revolver.MinimumCash))
		}
	}
	return breaches
}
