package calc

import (
	"statement_engine/pkg/core/validate"
	"statement_engine/pkg/models"
)

// PeriodRatios is the ratio set for one period. Balance-based returns use
// the average of opening and closing balances; the first period of a model
// has no predecessor and uses its closing balances.
type PeriodRatios struct {
	Label      string `json:"label"`
	Historical bool   `json:"historical"`

	RevenueGrowth   float64 `json:"revenue_growth"`
	EBITDAGrowth    float64 `json:"ebitda_growth"`
	NetIncomeGrowth float64 `json:"net_income_growth"`
	GrossMargin     float64 `json:"gross_margin"`
	EBITDAMargin    float64 `json:"ebitda_margin"`
	EBITMargin      float64 `json:"ebit_margin"`
	NetMargin       float64 `json:"net_margin"`
	EffectiveTax    float64 `json:"effective_tax"`

	DuPont DuPontResult `json:"dupont"`
	Penman PenmanResult `json:"penman"`

	InterestCoverage float64 `json:"interest_coverage"`
	NetDebtToEBITDA  float64 `json:"net_debt_to_ebitda"`
	DSO              float64 `json:"dso"`
	DIO              float64 `json:"dio"`
	DPO              float64 `json:"dpo"`
	CashConversion   float64 `json:"cash_conversion"` // FCF / net income
}

// netOperatingAssets is total assets less cash and operating liabilities.
func netOperatingAssets(bs models.BalanceSheet) float64 {
	return bs.TotalAssets - bs.Cash - bs.Payables - bs.AccruedLiabilities
}

// netFinancialObligations is debt plus revolver less cash.
func netFinancialObligations(bs models.BalanceSheet) float64 {
	return bs.Debt + bs.Revolver - bs.Cash
}

// yoy is the fractional year-over-year change, zero when the prior is zero.
func yoy(current, prior float64) float64 {
	if prior == 0 {
		return 0
	}
	return validate.CalculateYoY(current, prior) / 100
}

func avg(a, b float64) float64 {
	return (a + b) / 2
}

// AnalyzeModel computes ratios for every period of a model, historical and
// forecast, in order.
func AnalyzeModel(result *models.ModelResult) []PeriodRatios {
	out := make([]PeriodRatios, len(result.Periods))
	for i, p := range result.Periods {
		prev := p
		if i > 0 {
			prev = result.Periods[i-1]
		}
		out[i] = analyzePeriod(p, prev, i > 0)
	}
	return out
}

func analyzePeriod(p, prev models.PeriodResult, hasPrior bool) PeriodRatios {
	is, bs, cf := p.IncomeStatement, p.BalanceSheet, p.CashFlow
	pbs := prev.BalanceSheet

	r := PeriodRatios{
		Label:        p.Label,
		Historical:   p.Historical,
		GrossMargin:  safeDiv(is.GrossProfit, is.Revenue),
		EBITDAMargin: safeDiv(is.EBITDA, is.Revenue),
		EBITMargin:   safeDiv(is.EBIT, is.Revenue),
		NetMargin:    safeDiv(is.NetIncome, is.Revenue),
		EffectiveTax: safeDiv(is.Tax, is.PretaxIncome),

		InterestCoverage: InterestCoverageRatio(is.EBIT, is.InterestExpense),
		NetDebtToEBITDA:  safeDiv(netFinancialObligations(bs), is.EBITDA),
		DSO:              Days(bs.Receivables, is.Revenue),
		DIO:              Days(bs.Inventory, is.COGS),
		DPO:              Days(bs.Payables, is.COGS),
		CashConversion:   safeDiv(cf.FreeCashFlow(), is.NetIncome),
	}
	if hasPrior {
		r.RevenueGrowth = GrowthRate(is.Revenue, prev.IncomeStatement.Revenue)
		r.EBITDAGrowth = yoy(is.EBITDA, prev.IncomeStatement.EBITDA)
		r.NetIncomeGrowth = yoy(is.NetIncome, prev.IncomeStatement.NetIncome)
	}

	avgEquity := avg(bs.Equity, pbs.Equity)
	r.DuPont = DuPontROE(is.NetIncome, is.Revenue, avg(bs.TotalAssets, pbs.TotalAssets), avgEquity)

	// NOPAT and after-tax net interest at the effective rate, so that
	// NOPAT - net interest = net income
	keep := 1 - r.EffectiveTax
	nopat := is.EBIT * keep
	netInterest := (is.InterestExpense - is.InterestIncome) * keep
	r.Penman = CalculatePenmanDecomposition(nopat, netInterest,
		avg(netOperatingAssets(bs), netOperatingAssets(pbs)),
		avg(netFinancialObligations(bs), netFinancialObligations(pbs)),
		avgEquity)

	return r
}

// RatioTable renders the headline ratios as a statement table, one column
// per period.
func RatioTable(ratios []PeriodRatios) models.StatementTable {
	rows := []struct {
		label string
		value func(r PeriodRatios) float64
	}{
		{"Revenue Growth %", func(r PeriodRatios) float64 { return r.RevenueGrowth * 100 }},
		{"EBITDA Growth %", func(r PeriodRatios) float64 { return r.EBITDAGrowth * 100 }},
		{"Net Income Growth %", func(r PeriodRatios) float64 { return r.NetIncomeGrowth * 100 }},
		{"Gross Margin %", func(r PeriodRatios) float64 { return r.GrossMargin * 100 }},
		{"EBITDA Margin %", func(r PeriodRatios) float64 { return r.EBITDAMargin * 100 }},
		{"Net Margin %", func(r PeriodRatios) float64 { return r.NetMargin * 100 }},
		{"ROE %", func(r PeriodRatios) float64 { return r.DuPont.ROE * 100 }},
		{"RNOA %", func(r PeriodRatios) float64 { return r.Penman.RNOA * 100 }},
		{"Interest Coverage (x)", func(r PeriodRatios) float64 { return r.InterestCoverage }},
		{"Net Debt / EBITDA (x)", func(r PeriodRatios) float64 { return r.NetDebtToEBITDA }},
		{"DSO (days)", func(r PeriodRatios) float64 { return r.DSO }},
		{"DIO (days)", func(r PeriodRatios) float64 { return r.DIO }},
		{"DPO (days)", func(r PeriodRatios) float64 { return r.DPO }},
		{"FCF / Net Income (x)", func(r PeriodRatios) float64 { return r.CashConversion }},
	}

	table := models.StatementTable{
		Title:   "Key Ratios",
		Columns: make([]string, len(ratios)),
		Rows:    make([]models.TableRow, len(rows)),
	}
	for i, r := range ratios {
		table.Columns[i] = r.Label
	}
	for j, row := range rows {
		values := make([]float64, len(ratios))
		for i, r := range ratios {
			values[i] = row.value(r)
		}
		table.Rows[j] = models.TableRow{Label: row.label, Values: values}
	}
	return table
}
