package projection

import (
	"math"

	"statement_engine/pkg/core/validate"
	"statement_engine/pkg/models"

	"github.com/sirupsen/logrus"
)

// BuildPeriod computes one fully articulated forecast period from the prior
// period's ending balances. It never fails: if the cash / revolver / interest
// circularity does not settle within MaxIterations, the last iterate is
// returned and the miss shows up in BalanceError.
func (e *ProjectionEngine) BuildPeriod(prior models.Balances, d models.DriverAssumptions, revenue float64) models.PeriodResult {
	return e.buildPeriod(prior, d, revenue, e.log)
}

func (e *ProjectionEngine) buildPeriod(prior models.Balances, d models.DriverAssumptions, revenue float64, log logrus.FieldLogger) models.PeriodResult {
	s := buildSchedule(prior, d, revenue)

	// Fixed point on (ending cash, ending revolver), seeded with the opening balances
	est := solverState{Cash: prior.Cash, Revolver: prior.Revolver}
	var (
		it        iterate
		delta     float64
		converged bool
		n         int
	)
	for n = 1; ; n++ {
		it = solveStep(prior, d, s, est)
		delta = distance(it.next, est)
		if delta < e.settings.ConvergenceTolerance {
			converged = true
			break
		}
		if n >= e.settings.MaxIterations {
			break
		}
		est = it.next
	}

	if !converged {
		log.WithFields(logrus.Fields{
			"iterations": n,
			"delta":      delta,
			"cash":       est.Cash,
			"revolver":   est.Revolver,
		}).Warn("cash/interest circularity did not converge, returning last iterate")
	}

	result := e.assemblePeriod(prior, s, it, est)
	result.Iterations = n
	result.Converged = converged
	result.ConvergenceDelta = delta
	return result
}

// assemblePeriod lays out the three statements. The balance sheet carries
// the estimate the interest was computed from; the cash flow carries the
// flows that estimate produced. At a fixed point they agree.
func (e *ProjectionEngine) assemblePeriod(prior models.Balances, s schedule, it iterate, est solverState) models.PeriodResult {
	is := models.IncomeStatement{
		Revenue:          s.revenue,
		COGS:             s.cogs,
		GrossProfit:      s.grossProfit,
		SGA:              s.sga,
		RND:              s.rnd,
		EBITDA:           s.ebitda,
		DA:               s.depreciation,
		EBIT:             s.ebit,
		DebtInterest:     it.debtInterest,
		RevolverInterest: it.revolverInterest,
		InterestExpense:  it.debtInterest + it.revolverInterest,
		InterestIncome:   it.interestIncome,
		PretaxIncome:     it.pretaxIncome,
		Tax:              it.tax,
		NetIncome:        it.netIncome,
	}

	// Stock comp is booked as a notional share issuance
	equity := prior.Equity + it.netIncome - it.dividends + s.stockComp

	bs := models.BalanceSheet{
		BeginningCash:           prior.Cash,
		Cash:                    est.Cash,
		Receivables:             s.receivables,
		Inventory:               s.inventory,
		BeginningNetFixedAssets: prior.NetFixedAssets,
		NetFixedAssets:          s.netFixedAssets,
		Goodwill:                prior.Goodwill,

		Payables:           s.payables,
		AccruedLiabilities: s.accrued,
		BeginningDebt:      prior.Debt,
		Debt:               s.endingDebt,
		BeginningRevolver:  prior.Revolver,
		Revolver:           est.Revolver,

		BeginningEquity: prior.Equity,
		Equity:          equity,
	}
	bs.TotalAssets = bs.Cash + bs.Receivables + bs.Inventory + bs.NetFixedAssets + bs.Goodwill
	bs.TotalLiabilities = bs.Payables + bs.AccruedLiabilities + bs.Debt + bs.Revolver
	bs.TotalLiabilitiesAndEquity = bs.TotalLiabilities + bs.Equity

	netCash := it.operatingCF + it.investingCF + it.financingCF
	cf := models.CashFlowStatement{
		NetIncome:         it.netIncome,
		DA:                s.depreciation,
		StockComp:         s.stockComp,
		ChangeReceivables: it.changeReceivables,
		ChangeInventory:   it.changeInventory,
		ChangePayables:    it.changePayables,
		ChangeAccrued:     it.changeAccrued,
		OperatingCashFlow: it.operatingCF,

		Capex:             -s.capex,
		InvestingCashFlow: it.investingCF,

		NetDebtChange:     -s.amortization,
		RevolverNet:       it.revolverNet,
		Dividends:         -it.dividends,
		FinancingCashFlow: it.financingCF,

		NetCashFlow:   netCash,
		BeginningCash: prior.Cash,
		EndingCash:    bs.Cash,
	}

	// Diagnostic only: nothing is forced to balance
	check := validate.CheckBalanceEquation(bs.TotalAssets, bs.TotalLiabilities, bs.Equity, e.settings.BalanceTolerance)

	return models.PeriodResult{
		IncomeStatement: is,
		BalanceSheet:    bs,
		CashFlow:        cf,
		BalanceCheck:    check.IsBalanced,
		BalanceError:    check.Difference,
	}
}

// isFinite guards the derived series against NaN/Inf from degenerate drivers.
func isFinite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
