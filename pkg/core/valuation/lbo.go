package valuation

import (
	"errors"
	"fmt"
	"math"

	"statement_engine/pkg/models"
)

// ErrInvalidLBO is returned when the deal cannot be evaluated.
var ErrInvalidLBO = errors.New("invalid LBO input")

// LBOInput parameters for a sponsor returns / ability-to-pay analysis.
// FCF is the model's free cash flow, before acquisition debt service.
type LBOInput struct {
	EntryEBITDA   float64
	EntryMultiple float64   // EV / EBITDA paid at entry
	ExitMultiple  float64   // EV / EBITDA received at exit
	LeverageRatio float64   // Acquisition debt / entry EBITDA (e.g. 5.0x)
	InterestRate  float64   // Cost of acquisition debt
	TaxRate       float64   // Interest tax shield
	TargetIRR     float64   // e.g. 0.20, for the maximum entry price
	EBITDA        []float64 // Forecast EBITDA, one per year
	FCF           []float64 // Forecast FCF, one per year; the holding period
}

// LBOResult holds the returns analysis.
type LBOResult struct {
	EntryEV         float64   `json:"entry_ev"`
	DebtRaised      float64   `json:"debt_raised"`
	EquityCheck     float64   `json:"equity_check"`
	ExitEV          float64   `json:"exit_ev"`
	ExitDebt        float64   `json:"exit_debt"`
	ExitEquityValue float64   `json:"exit_equity_value"`
	IRR             float64   `json:"irr"`
	MOIC            float64   `json:"moic"`
	DebtSchedule    []float64 `json:"debt_schedule"` // Closing acquisition debt per year

	// Ability to pay at TargetIRR
	MaxEntryEV           float64 `json:"max_entry_ev"`
	ImpliedEntryMultiple float64 `json:"implied_entry_multiple"`
}

// CalculateLBO sweeps each year's FCF, after tax-effected interest, against
// the acquisition debt, exits at ExitMultiple on the final EBITDA and
// reports IRR and the price a sponsor could pay to earn TargetIRR.
func CalculateLBO(input LBOInput) (LBOResult, error) {
	years := len(input.FCF)
	if years == 0 {
		return LBOResult{}, fmt.Errorf("%w: %w", ErrInvalidLBO, ErrNoCashFlows)
	}
	if len(input.EBITDA) < years {
		return LBOResult{}, fmt.Errorf("%w: %d EBITDA values for a %d-year hold", ErrInvalidLBO, len(input.EBITDA), years)
	}

	res := LBOResult{
		EntryEV:      input.EntryEBITDA * input.EntryMultiple,
		DebtRaised:   input.EntryEBITDA * input.LeverageRatio,
		DebtSchedule: make([]float64, years),
	}
	res.EquityCheck = res.EntryEV - res.DebtRaised
	if res.EquityCheck <= 0 {
		return LBOResult{}, fmt.Errorf("%w: debt %.1f covers the whole entry value %.1f", ErrInvalidLBO, res.DebtRaised, res.EntryEV)
	}

	// Cash sweep. A shortfall is funded with more debt.
	debt := res.DebtRaised
	for i, fcf := range input.FCF {
		interest := debt * input.InterestRate * (1 - input.TaxRate)
		debt = math.Max(0, debt-(fcf-interest))
		res.DebtSchedule[i] = debt
	}

	res.ExitDebt = debt
	res.ExitEV = input.EBITDA[years-1] * input.ExitMultiple
	res.ExitEquityValue = res.ExitEV - debt
	res.MOIC = res.ExitEquityValue / res.EquityCheck
	if res.MOIC > 0 {
		res.IRR = math.Pow(res.MOIC, 1/float64(years)) - 1
	} else {
		res.IRR = -1
	}

	requiredEquity := res.ExitEquityValue / math.Pow(1+input.TargetIRR, float64(years))
	res.MaxEntryEV = requiredEquity + res.DebtRaised
	if input.EntryEBITDA != 0 {
		res.ImpliedEntryMultiple = res.MaxEntryEV / input.EntryEBITDA
	}
	return res, nil
}

// LBOInputFromModel fills the operating series from a model: entry EBITDA
// is the last historical year's, EBITDA and FCF are the forecast series.
func LBOInputFromModel(result *models.ModelResult, deal LBOInput) LBOInput {
	if last, ok := result.LastHistorical(); ok {
		deal.EntryEBITDA = last.IncomeStatement.EBITDA
	}
	deal.EBITDA = append([]float64(nil), result.EBITDAPerPeriod...)
	deal.FCF = append([]float64(nil), result.FCFPerPeriod...)
	return deal
}
