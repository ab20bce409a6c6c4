package projection

import (
	"math"

	"statement_engine/pkg/models"
)

const daysInYear = 365.0

// schedule holds everything about a forecast period that does not depend
// on interest: the top half of the income statement, the working capital
// and fixed asset schedules, and mandatory debt service.
type schedule struct {
	revenue     float64
	cogs        float64
	grossProfit float64
	sga         float64
	rnd         float64
	stockComp   float64
	ebitda      float64
	ebit        float64

	receivables float64
	inventory   float64
	payables    float64
	accrued     float64

	capex          float64
	depreciation   float64
	netFixedAssets float64

	amortization float64
	endingDebt   float64
}

func buildSchedule(prior models.Balances, d models.DriverAssumptions, revenue float64) schedule {
	s := schedule{revenue: revenue}

	// 1. Income Statement top half
	s.cogs = revenue * d.COGSPercent
	s.grossProfit = revenue - s.cogs
	s.sga = revenue * d.SGAPercent
	s.rnd = revenue * d.RDPercent
	s.stockComp = revenue * d.StockCompPercent

	// 2. Working capital. Accrued liabilities track operating cost, not top line.
	s.receivables = revenue * d.ReceivableDays / daysInYear
	s.inventory = s.cogs * d.InventoryDays / daysInYear
	s.payables = s.cogs * d.PayableDays / daysInYear
	s.accrued = s.sga * d.AccruedDays / daysInYear

	// Fixed assets: straight-line on the opening net book value
	if d.UsefulLife > 0 {
		s.depreciation = prior.NetFixedAssets / d.UsefulLife
	}
	s.capex = revenue * d.CapexPercent
	s.netFixedAssets = prior.NetFixedAssets + s.capex - s.depreciation

	// 3. EBITDA / EBIT
	s.ebitda = s.grossProfit - s.sga - s.rnd
	s.ebit = s.ebitda - s.depreciation

	// 4. Mandatory amortization, never more than what is outstanding
	s.amortization = math.Max(0, math.Min(d.MandatoryAmortization, prior.Debt))
	s.endingDebt = prior.Debt - s.amortization

	return s
}

// solverState is one estimate of the circular balances.
type solverState struct {
	Cash     float64
	Revolver float64
}

// iterate is everything one pass derives from a solverState estimate.
type iterate struct {
	debtInterest     float64
	revolverInterest float64
	interestIncome   float64
	pretaxIncome     float64
	tax              float64
	netIncome        float64
	dividends        float64

	changeReceivables float64
	changeInventory   float64
	changePayables    float64
	changeAccrued     float64
	operatingCF       float64
	investingCF       float64
	financingCF       float64
	revolverNet       float64

	next solverState
}

// solveStep maps an estimate of ending cash / revolver to the next
// estimate. It is a pure function; the fixed-point loop lives in BuildPeriod.
func solveStep(prior models.Balances, d models.DriverAssumptions, s schedule, est solverState) iterate {
	var it iterate

	// Interest on average balances
	it.debtInterest = (prior.Debt + s.endingDebt) / 2 * d.DebtInterestRate
	if d.Revolver != nil {
		it.revolverInterest = (prior.Revolver + est.Revolver) / 2 * d.Revolver.InterestRate
	}
	it.interestIncome = (prior.Cash + est.Cash) / 2 * d.CashInterestRate

	// Income Statement bottom half
	it.pretaxIncome = s.ebit - it.debtInterest - it.revolverInterest + it.interestIncome
	it.tax = it.pretaxIncome * d.TaxRate
	it.netIncome = it.pretaxIncome - it.tax
	if it.netIncome > 0 {
		it.dividends = it.netIncome * d.DividendPayout
	}

	// Operating & investing cash flow
	it.changeReceivables = -(s.receivables - prior.Receivables)
	it.changeInventory = -(s.inventory - prior.Inventory)
	it.changePayables = s.payables - prior.Payables
	it.changeAccrued = s.accrued - prior.AccruedLiabilities
	it.operatingCF = it.netIncome + s.depreciation + s.stockComp +
		it.changeReceivables + it.changeInventory + it.changePayables + it.changeAccrued
	it.investingCF = -s.capex

	// Cash before any revolver activity
	available := prior.Cash + it.operatingCF + it.investingCF - s.amortization - it.dividends

	it.next = solverState{Cash: available, Revolver: prior.Revolver}
	if d.Revolver != nil {
		minCash := d.Revolver.MinimumCash
		switch {
		case available < minCash:
			draw := minCash - available
			it.next.Revolver = prior.Revolver + draw
			it.next.Cash = minCash
		case prior.Revolver > 0:
			sweep := math.Min(available-minCash, prior.Revolver)
			it.next.Revolver = prior.Revolver - sweep
			it.next.Cash = available - sweep
		}
	}

	it.revolverNet = it.next.Revolver - prior.Revolver
	it.financingCF = -s.amortization - it.dividends + it.revolverNet

	return it
}

// distance is the convergence metric between two estimates.
func distance(a, b solverState) float64 {
	return math.Max(math.Abs(a.Cash-b.Cash), math.Abs(a.Revolver-b.Revolver))
}
