// Package valuation turns a built model's derived series into discounted
// cash flow and leveraged buyout values. The model's FCF series is taken as
// given; no consistency checks are repeated here.
package valuation

import (
	"errors"
	"fmt"

	"statement_engine/pkg/models"
)

var (
	// ErrNoCashFlows is returned when there is nothing to discount.
	ErrNoCashFlows = errors.New("no forecast cash flows")
	// ErrInvalidDiscountRate is returned when the terminal discount rate does not exceed growth.
	ErrInvalidDiscountRate = errors.New("discount rate must exceed terminal growth")
)

// DCFInput encapsulates all inputs required for a Discounted Cash Flow valuation
type DCFInput struct {
	FCF               []float64 // One value per forecast year
	DiscountRate      float64   // Used for any year without a PeriodRates entry
	PeriodRates       []float64 // Optional: discount rate per forecast year
	TerminalGrowth    float64   // e.g. 0.025
	NetDebt           float64
	SharesOutstanding float64
	TerminalEBITDA    float64 // Optional, for the implied exit multiple
}

// DCFResult holds the valuation outputs
type DCFResult struct {
	EnterpriseValue float64   `json:"enterprise_value"`
	EquityValue     float64   `json:"equity_value"`
	SharePrice      float64   `json:"share_price"`
	PVFCF           float64   `json:"pv_fcf"`
	TerminalValue   float64   `json:"terminal_value"`
	PVTerminal      float64   `json:"pv_terminal"`
	ImpliedMultiple float64   `json:"implied_multiple"` // TV / terminal EBITDA
	DiscountFactors []float64 `json:"discount_factors"`
}

func (in DCFInput) rate(i int) float64 {
	if i < len(in.PeriodRates) {
		return in.PeriodRates[i]
	}
	return in.DiscountRate
}

// CalculateDCF performs a standard 2-stage DCF: explicit forecast years plus
// a Gordon growth terminal value on the final year's cash flow.
func CalculateDCF(input DCFInput) (DCFResult, error) {
	n := len(input.FCF)
	if n == 0 {
		return DCFResult{}, ErrNoCashFlows
	}
	finalRate := input.rate(n - 1)
	if finalRate <= input.TerminalGrowth {
		return DCFResult{}, fmt.Errorf("%w: %.4f <= %.4f", ErrInvalidDiscountRate, finalRate, input.TerminalGrowth)
	}

	res := DCFResult{DiscountFactors: make([]float64, n)}

	// 1. Explicit period, cumulative factor so per-year rates compound
	factor := 1.0
	for i, fcf := range input.FCF {
		factor /= 1 + input.rate(i)
		res.DiscountFactors[i] = factor
		res.PVFCF += fcf * factor
	}

	// 2. Terminal value, capitalised at the final year's rate
	res.TerminalValue = input.FCF[n-1] * (1 + input.TerminalGrowth) / (finalRate - input.TerminalGrowth)
	res.PVTerminal = res.TerminalValue * factor

	// 3. Bridge to equity
	res.EnterpriseValue = res.PVFCF + res.PVTerminal
	res.EquityValue = res.EnterpriseValue - input.NetDebt
	if input.SharesOutstanding != 0 {
		res.SharePrice = res.EquityValue / input.SharesOutstanding
	}
	if input.TerminalEBITDA != 0 {
		res.ImpliedMultiple = res.TerminalValue / input.TerminalEBITDA
	}
	return res, nil
}

// NetDebt is debt plus revolver less cash at the period's close.
func NetDebt(p models.PeriodResult) float64 {
	bs := p.BalanceSheet
	return bs.Debt + bs.Revolver - bs.Cash
}

// DCFInputFromModel reads the forecast FCF series, the valuation-date net
// debt (last historical period) and the terminal EBITDA from a model.
func DCFInputFromModel(result *models.ModelResult, discountRate, terminalGrowth, shares float64) DCFInput {
	input := DCFInput{
		FCF:               append([]float64(nil), result.FCFPerPeriod...),
		DiscountRate:      discountRate,
		TerminalGrowth:    terminalGrowth,
		SharesOutstanding: shares,
	}
	if last, ok := result.LastHistorical(); ok {
		input.NetDebt = NetDebt(last)
	}
	if n := len(result.EBITDAPerPeriod); n > 0 {
		input.TerminalEBITDA = result.EBITDAPerPeriod[n-1]
	}
	return input
}
