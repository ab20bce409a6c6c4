package projection

import (
	"fmt"

	"statement_engine/pkg/core/validate"
	"statement_engine/pkg/models"
)

// transcribeHistory turns validated history into PeriodResults. History is
// authoritative: balances are copied as-is. The cash flow statement is
// reconstructed with the indirect method against the prior period; whatever
// the supplied fields cannot explain (buybacks, issuance, debt drawn) lands
// in OtherFinancing. The first period has no predecessor, so its opening
// balances equal its closing ones.
func transcribeHistory(hist models.HistoricalInput, tolerance float64) []models.PeriodResult {
	out := make([]models.PeriodResult, 0, len(hist))
	for i, h := range hist {
		prior := h.Balances()
		if i > 0 {
			prior = hist[i-1].Balances()
		}

		ebitda := h.Revenue - h.COGS - h.SGA - h.RND
		is := models.IncomeStatement{
			Revenue:         h.Revenue,
			COGS:            h.COGS,
			GrossProfit:     h.Revenue - h.COGS,
			SGA:             h.SGA,
			RND:             h.RND,
			EBITDA:          ebitda,
			DA:              h.DA,
			EBIT:            ebitda - h.DA,
			DebtInterest:    h.InterestExpense,
			InterestExpense: h.InterestExpense,
			InterestIncome:  h.InterestIncome,
			PretaxIncome:    ebitda - h.DA - h.InterestExpense + h.InterestIncome,
			Tax:             h.Tax,
			NetIncome:       h.NetIncome,
		}

		bs := models.BalanceSheet{
			BeginningCash:           prior.Cash,
			Cash:                    h.Cash,
			Receivables:             h.Receivables,
			Inventory:               h.Inventory,
			BeginningNetFixedAssets: prior.NetFixedAssets,
			NetFixedAssets:          h.NetFixedAssets,
			Goodwill:                h.Goodwill,
			TotalAssets:             h.TotalAssets(),

			Payables:           h.Payables,
			AccruedLiabilities: h.AccruedLiabilities,
			BeginningDebt:      prior.Debt,
			Debt:               h.Debt,
			TotalLiabilities:   h.TotalLiabilities(),

			BeginningEquity: prior.Equity,
			Equity:          h.Equity,
		}
		bs.TotalLiabilitiesAndEquity = bs.TotalLiabilities + bs.Equity

		cf := models.CashFlowStatement{
			NetIncome:         h.NetIncome,
			DA:                h.DA,
			StockComp:         h.StockComp,
			ChangeReceivables: -(h.Receivables - prior.Receivables),
			ChangeInventory:   -(h.Inventory - prior.Inventory),
			ChangePayables:    h.Payables - prior.Payables,
			ChangeAccrued:     h.AccruedLiabilities - prior.AccruedLiabilities,
			Capex:             -h.Capex,
			InvestingCashFlow: -h.Capex,
			NetDebtChange:     h.Debt - prior.Debt,
			Dividends:         -h.Dividends,
			NetCashFlow:       h.Cash - prior.Cash,
			BeginningCash:     prior.Cash,
			EndingCash:        h.Cash,
		}
		cf.OperatingCashFlow = cf.NetIncome + cf.DA + cf.StockComp +
			cf.ChangeReceivables + cf.ChangeInventory + cf.ChangePayables + cf.ChangeAccrued
		cf.OtherFinancing = cf.NetCashFlow - cf.OperatingCashFlow - cf.InvestingCashFlow - cf.NetDebtChange - cf.Dividends
		cf.FinancingCashFlow = cf.NetDebtChange + cf.Dividends + cf.OtherFinancing

		check := validate.CheckBalanceEquation(bs.TotalAssets, bs.TotalLiabilities, bs.Equity, tolerance)

		out = append(out, models.PeriodResult{
			Label:           periodLabel(h.FiscalYear, i+1, true),
			FiscalYear:      h.FiscalYear,
			Historical:      true,
			IncomeStatement: is,
			BalanceSheet:    bs,
			CashFlow:        cf,
			BalanceCheck:    check.IsBalanced,
			BalanceError:    check.Difference,
			Converged:       true,
		})
	}
	return out
}

// periodLabel renders FY2024A / FY2026E, or a positional label when the
// caller supplied no fiscal years.
func periodLabel(fiscalYear, position int, historical bool) string {
	suffix := "E"
	if historical {
		suffix = "A"
	}
	if fiscalYear == 0 {
		if historical {
			return fmt.Sprintf("H%d", position)
		}
		return fmt.Sprintf("Y%d", position)
	}
	return fmt.Sprintf("FY%d%s", fiscalYear, suffix)
}
