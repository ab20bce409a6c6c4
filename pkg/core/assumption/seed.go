package assumption

import (
	"errors"
	"fmt"

	"statement_engine/pkg/core/validate"
	"statement_engine/pkg/models"
)

// ErrNoRevenue is returned when drivers cannot be derived as ratios of revenue.
var ErrNoRevenue = errors.New("latest historical period has no revenue")

const daysInYear = 365.0

// SeedFromHistory derives a flat driver set from the latest historical
// period: common-size cost ratios, working capital day counts, implied
// interest and tax rates, and revenue growth at the historical CAGR. The
// same record is repeated for every forecast year. No revolver policy is
// seeded.
func SeedFromHistory(hist models.HistoricalInput, years int) ([]models.DriverAssumptions, error) {
	latest, ok := hist.Latest()
	if !ok {
		return nil, validate.ErrEmptyHistory
	}
	if latest.Revenue <= 0 {
		return nil, fmt.Errorf("%w (FY%d)", ErrNoRevenue, latest.FiscalYear)
	}
	if years < 0 {
		return nil, fmt.Errorf("negative forecast horizon %d", years)
	}

	// Opening balances default to the latest period when there is no predecessor
	opening := latest
	if len(hist) > 1 {
		opening = hist[len(hist)-2]
	}

	d := models.DriverAssumptions{
		COGSPercent:      latest.COGS / latest.Revenue,
		SGAPercent:       latest.SGA / latest.Revenue,
		RDPercent:        latest.RND / latest.Revenue,
		StockCompPercent: latest.StockComp / latest.Revenue,
		CapexPercent:     latest.Capex / latest.Revenue,
		ReceivableDays:   latest.Receivables / latest.Revenue * daysInYear,
	}

	if len(hist) > 1 {
		first := hist[0]
		d.RevenueGrowth = validate.CalculateCAGR(first.Revenue, latest.Revenue, len(hist)-1) / 100
	}

	if latest.COGS > 0 {
		d.InventoryDays = latest.Inventory / latest.COGS * daysInYear
		d.PayableDays = latest.Payables / latest.COGS * daysInYear
	}
	if latest.SGA > 0 {
		d.AccruedDays = latest.AccruedLiabilities / latest.SGA * daysInYear
	}

	if latest.DA > 0 {
		d.UsefulLife = opening.NetFixedAssets / latest.DA
	}

	if pretax := latest.NetIncome + latest.Tax; pretax > 0 && latest.Tax > 0 {
		d.TaxRate = latest.Tax / pretax
	}
	if latest.NetIncome > 0 {
		d.DividendPayout = latest.Dividends / latest.NetIncome
	}

	if avgDebt := (opening.Debt + latest.Debt) / 2; avgDebt > 0 {
		d.DebtInterestRate = latest.InterestExpense / avgDebt
	}
	if avgCash := (opening.Cash + latest.Cash) / 2; avgCash > 0 {
		d.CashInterestRate = latest.InterestIncome / avgCash
	}
	if opening.Debt > latest.Debt {
		d.MandatoryAmortization = opening.Debt - latest.Debt
	}

	drivers := make([]models.DriverAssumptions, years)
	for i := range drivers {
		drivers[i] = d.Clone()
	}
	return drivers, nil
}
