package assumption

import "statement_engine/pkg/models"

// SampleCase is a small, fully balanced two-year history with a five-year
// base scenario. `modelctl init` writes it as a starting point.
func SampleCase() *Case {
	hist := models.HistoricalInput{
		{
			FiscalYear: 2023,
			Revenue:    1000, COGS: 590, SGA: 200, RND: 50, DA: 38,
			InterestExpense: 10, InterestIncome: 1, Tax: 28.25, NetIncome: 84.75,
			Cash: 90, Receivables: 110, Inventory: 75, NetFixedAssets: 380, Goodwill: 50,
			Payables: 55, AccruedLiabilities: 37, Debt: 225, Equity: 388,
			Capex: 40, Dividends: 25, StockComp: 10,
		},
		{
			FiscalYear: 2024,
			Revenue:    1100, COGS: 649, SGA: 220, RND: 55, DA: 40,
			InterestExpense: 10, InterestIncome: 1, Tax: 31.75, NetIncome: 95.25,
			Cash: 100, Receivables: 120, Inventory: 80, NetFixedAssets: 400, Goodwill: 50,
			Payables: 60, AccruedLiabilities: 40, Debt: 200, Equity: 450,
			Capex: 60, Dividends: 28, StockComp: 11,
		},
	}

	growth := []float64{0.10, 0.08, 0.07, 0.06, 0.05}
	cogs := []float64{0.59, 0.58, 0.57, 0.56, 0.55}
	base := make([]models.DriverAssumptions, len(growth))
	for i := range base {
		base[i] = models.DriverAssumptions{
			RevenueGrowth:         growth[i],
			COGSPercent:           cogs[i],
			SGAPercent:            0.20,
			RDPercent:             0.05,
			StockCompPercent:      0.01,
			TaxRate:               0.25,
			ReceivableDays:        40,
			InventoryDays:         45,
			PayableDays:           35,
			AccruedDays:           60,
			CapexPercent:          0.04,
			UsefulLife:            10,
			DebtInterestRate:      0.05,
			CashInterestRate:      0.02,
			MandatoryAmortization: 25,
			Revolver:              &models.RevolverPolicy{InterestRate: 0.07, MinimumCash: 50},
			DividendPayout:        0.30,
		}
	}

	return &Case{
		Name:          "Sample Co",
		Currency:      "USD",
		ForecastYears: len(base),
		Historical:    hist,
		Scenarios:     map[string][]models.DriverAssumptions{"base": base},
	}
}
