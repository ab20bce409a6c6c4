// Package calc computes financial ratios over a built model: margins,
// DuPont and Penman return decompositions, coverage and working capital
// turnover. All ratios are plain decimals (0.25 = 25%).
package calc

import "math"

func safeDiv(numerator, denominator float64) float64 {
	if denominator == 0 {
		return 0
	}
	return numerator / denominator
}

// GrowthRate is the period-over-period change; 0 when there is no prior.
func GrowthRate(current, prior float64) float64 {
	if prior == 0 {
		return 0
	}
	return (current - prior) / math.Abs(prior)
}

// InterestCoverageRatio is EBIT over gross interest expense.
func InterestCoverageRatio(ebit, interestExpense float64) float64 {
	return safeDiv(ebit, math.Abs(interestExpense))
}

// Days converts a balance and an annual flow into a day count.
func Days(balance, annualFlow float64) float64 {
	return safeDiv(balance, annualFlow) * 365
}

// =============================================================================
// DUPONT
// =============================================================================

type DuPontResult struct {
	ProfitMargin      float64 `json:"profit_margin"`
	AssetTurnover     float64 `json:"asset_turnover"`
	FinancialLeverage float64 `json:"financial_leverage"`
	ROE               float64 `json:"roe"`
}

func DuPontROE(netIncome, revenue, avgAssets, avgEquity float64) DuPontResult {
	pm := safeDiv(netIncome, revenue)
	at := safeDiv(revenue, avgAssets)
	fl := safeDiv(avgAssets, avgEquity)
	return DuPontResult{
		ProfitMargin:      pm,
		AssetTurnover:     at,
		FinancialLeverage: fl,
		ROE:               pm * at * fl,
	}
}

// =============================================================================
// PENMAN (operating vs financing)
// ROCE = RNOA + FLEV * (RNOA - NBC)
// =============================================================================

type PenmanResult struct {
	RNOA   float64 `json:"rnoa"`   // Return on net operating assets
	NBC    float64 `json:"nbc"`    // Net borrowing cost
	FLEV   float64 `json:"flev"`   // Financial leverage, NFO / equity
	Spread float64 `json:"spread"` // RNOA - NBC
	ROCE   float64 `json:"roce"`
}

// CalculatePenmanDecomposition splits the return on common equity into an
// operating return and the leverage effect on it.
func CalculatePenmanDecomposition(nopat, netInterestAfterTax, avgNOA, avgNFO, avgEquity float64) PenmanResult {
	res := PenmanResult{
		RNOA: safeDiv(nopat, avgNOA),
		NBC:  safeDiv(netInterestAfterTax, avgNFO),
		FLEV: safeDiv(avgNFO, avgEquity),
	}
	res.Spread = res.RNOA - res.NBC
	res.ROCE = res.RNOA + res.FLEV*res.Spread
	return res
}
