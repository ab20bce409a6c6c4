// Package validate provides reusable financial validation utilities.
// These functions are called by the projection engine, the QA gate and
// the CLI to verify data integrity of historical and forecast periods.
package validate

import (
	"math"
)

// DefaultHistoryTolerance is the $1 tolerance applied to audited history.
const DefaultHistoryTolerance = 1.0

// =============================================================================
// GROWTH
// =============================================================================

// CalculateYoY calculates year-over-year change between two values.
// Returns percentage change: (current - prior) / prior * 100
func CalculateYoY(current, prior float64) float64 {
	if prior == 0 {
		if current == 0 {
			return 0
		}
		return math.Inf(1) // Infinite growth from zero
	}
	return (current - prior) / prior * 100
}

// CalculateCAGR calculates compound annual growth rate.
// CAGR = ((EndValue / StartValue) ^ (1/years)) - 1, as a percentage.
func CalculateCAGR(startValue, endValue float64, years int) float64 {
	if startValue <= 0 || endValue < 0 || years <= 0 {
		return 0
	}
	return (math.Pow(endValue/startValue, 1.0/float64(years)) - 1) * 100
}

// =============================================================================
// BALANCE SHEET
// =============================================================================

// BalanceCheck verifies Assets = Liabilities + Equity.
type BalanceCheck struct {
	TotalAssets      float64
	TotalLiabilities float64
	TotalEquity      float64
	ComputedAssets   float64 // L + E
	Difference       float64 // A - (L + E)
	IsBalanced       bool
	Tolerance        float64
}

// CheckBalanceEquation validates A = L + E within tolerance.
func CheckBalanceEquation(assets, liabilities, equity, tolerance float64) *BalanceCheck {
	computed := liabilities + equity
	diff := assets - computed

	return &BalanceCheck{
		TotalAssets:      assets,
		TotalLiabilities: liabilities,
		TotalEquity:      equity,
		ComputedAssets:   computed,
		Difference:       diff,
		IsBalanced:       math.Abs(diff) <= tolerance,
		Tolerance:        tolerance,
	}
}

// =============================================================================
// INCOME STATEMENT
// =============================================================================

// RollupCheck verifies the income statement lines foot to net income.
type RollupCheck struct {
	ComputedNetIncome float64
	ReportedNetIncome float64
	Difference        float64
	IsBalanced        bool
	Tolerance         float64
}

// CheckIncomeRollup validates computed NI = reported NI within tolerance.
func CheckIncomeRollup(computed, reported, tolerance float64) *RollupCheck {
	diff := reported - computed
	return &RollupCheck{
		ComputedNetIncome: computed,
		ReportedNetIncome: reported,
		Difference:        diff,
		IsBalanced:        math.Abs(diff) <= tolerance,
		Tolerance:         tolerance,
	}
}

// =============================================================================
// CASH FLOW
// =============================================================================

// CashFlowCheck verifies CFO + CFI + CFF = Net Change in Cash.
type CashFlowCheck struct {
	CFO           float64
	CFI           float64
	CFF           float64
	ComputedTotal float64
	ReportedTotal float64
	Difference    float64
	IsBalanced    bool
	Tolerance     float64
}

// CheckCashFlowEquation validates CFO + CFI + CFF = Net Change.
func CheckCashFlowEquation(cfo, cfi, cff, reportedNetChange, tolerance float64) *CashFlowCheck {
	computed := cfo + cfi + cff
	diff := reportedNetChange - computed

	return &CashFlowCheck{
		CFO:           cfo,
		CFI:           cfi,
		CFF:           cff,
		ComputedTotal: computed,
		ReportedTotal: reportedNetChange,
		Difference:    diff,
		IsBalanced:    math.Abs(diff) <= tolerance,
		Tolerance:     tolerance,
	}
}
