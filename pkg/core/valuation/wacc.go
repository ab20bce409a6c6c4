package valuation

import "statement_engine/pkg/models"

// WACCInput parameters for calculating Cost of Capital
type WACCInput struct {
	UnleveredBeta     float64
	RiskFreeRate      float64
	MarketRiskPremium float64
	PreTaxCostOfDebt  float64
	TaxRate           float64
	DebtToEquityRatio float64 // Target Leverage (D/E)
}

// WACCResult holds the calculated rates
type WACCResult struct {
	LeveredBeta  float64 `json:"levered_beta"`
	CostOfEquity float64 `json:"cost_of_equity"`
	CostOfDebt   float64 `json:"cost_of_debt"` // After-tax
	WACC         float64 `json:"wacc"`
	WeightDebt   float64 `json:"weight_debt"`
	WeightEquity float64 `json:"weight_equity"`
}

// CalculateWACC computes the Weighted Average Cost of Capital using CAPM,
// with beta relevered by the Hamada equation.
func CalculateWACC(input WACCInput) WACCResult {
	de := input.DebtToEquityRatio

	// BetaL = BetaU * (1 + (1-t) * D/E)
	leveredBeta := input.UnleveredBeta * (1 + (1-input.TaxRate)*de)
	ke := input.RiskFreeRate + leveredBeta*input.MarketRiskPremium
	kd := input.PreTaxCostOfDebt * (1 - input.TaxRate)

	// D/E = x  =>  Wd = x / (1+x), We = 1 / (1+x)
	wd := de / (1 + de)
	we := 1 / (1 + de)

	return WACCResult{
		LeveredBeta:  leveredBeta,
		CostOfEquity: ke,
		CostOfDebt:   kd,
		WACC:         ke*we + kd*wd,
		WeightDebt:   wd,
		WeightEquity: we,
	}
}

// WACCSeries computes a discount rate per forecast year from each year's
// book leverage: (debt + revolver) / equity. Years with non-positive equity
// keep the target D/E in base.
func WACCSeries(base WACCInput, result *models.ModelResult) []float64 {
	forecast := result.Forecast()
	rates := make([]float64, len(forecast))
	for i, p := range forecast {
		year := base
		bs := p.BalanceSheet
		if bs.Equity > 0 {
			year.DebtToEquityRatio = (bs.Debt + bs.Revolver) / bs.Equity
		}
		rates[i] = CalculateWACC(year).WACC
	}
	return rates
}
