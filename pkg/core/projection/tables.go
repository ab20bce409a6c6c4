package projection

import "statement_engine/pkg/models"

// rowSpec is one line of a rendered statement.
type rowSpec struct {
	label string
	total bool
	value func(p models.PeriodResult) float64
}

var incomeStatementRows = []rowSpec{
	{"Revenue", false, func(p models.PeriodResult) float64 { return p.IncomeStatement.Revenue }},
	{"Cost of Goods Sold", false, func(p models.PeriodResult) float64 { return p.IncomeStatement.COGS }},
	{"Gross Profit", true, func(p models.PeriodResult) float64 { return p.IncomeStatement.GrossProfit }},
	{"SG&A", false, func(p models.PeriodResult) float64 { return p.IncomeStatement.SGA }},
	{"R&D", false, func(p models.PeriodResult) float64 { return p.IncomeStatement.RND }},
	{"EBITDA", true, func(p models.PeriodResult) float64 { return p.IncomeStatement.EBITDA }},
	{"Depreciation & Amortization", false, func(p models.PeriodResult) float64 { return p.IncomeStatement.DA }},
	{"EBIT", true, func(p models.PeriodResult) float64 { return p.IncomeStatement.EBIT }},
	{"Interest Expense", false, func(p models.PeriodResult) float64 { return p.IncomeStatement.InterestExpense }},
	{"Interest Income", false, func(p models.PeriodResult) float64 { return p.IncomeStatement.InterestIncome }},
	{"Pre-tax Income", true, func(p models.PeriodResult) float64 { return p.IncomeStatement.PretaxIncome }},
	{"Income Tax", false, func(p models.PeriodResult) float64 { return p.IncomeStatement.Tax }},
	{"Net Income", true, func(p models.PeriodResult) float64 { return p.IncomeStatement.NetIncome }},
}

var balanceSheetRows = []rowSpec{
	{"Cash", false, func(p models.PeriodResult) float64 { return p.BalanceSheet.Cash }},
	{"Receivables", false, func(p models.PeriodResult) float64 { return p.BalanceSheet.Receivables }},
	{"Inventory", false, func(p models.PeriodResult) float64 { return p.BalanceSheet.Inventory }},
	{"Net Fixed Assets", false, func(p models.PeriodResult) float64 { return p.BalanceSheet.NetFixedAssets }},
	{"Goodwill", false, func(p models.PeriodResult) float64 { return p.BalanceSheet.Goodwill }},
	{"Total Assets", true, func(p models.PeriodResult) float64 { return p.BalanceSheet.TotalAssets }},
	{"Payables", false, func(p models.PeriodResult) float64 { return p.BalanceSheet.Payables }},
	{"Accrued Liabilities", false, func(p models.PeriodResult) float64 { return p.BalanceSheet.AccruedLiabilities }},
	{"Debt", false, func(p models.PeriodResult) float64 { return p.BalanceSheet.Debt }},
	{"Revolver", false, func(p models.PeriodResult) float64 { return p.BalanceSheet.Revolver }},
	{"Total Liabilities", true, func(p models.PeriodResult) float64 { return p.BalanceSheet.TotalLiabilities }},
	{"Equity", false, func(p models.PeriodResult) float64 { return p.BalanceSheet.Equity }},
	{"Total Liabilities & Equity", true, func(p models.PeriodResult) float64 { return p.BalanceSheet.TotalLiabilitiesAndEquity }},
	{"Balance Check", false, func(p models.PeriodResult) float64 { return p.BalanceError }},
}

var cashFlowRows = []rowSpec{
	{"Net Income", false, func(p models.PeriodResult) float64 { return p.CashFlow.NetIncome }},
	{"Depreciation & Amortization", false, func(p models.PeriodResult) float64 { return p.CashFlow.DA }},
	{"Stock Compensation", false, func(p models.PeriodResult) float64 { return p.CashFlow.StockComp }},
	{"Change in Receivables", false, func(p models.PeriodResult) float64 { return p.CashFlow.ChangeReceivables }},
	{"Change in Inventory", false, func(p models.PeriodResult) float64 { return p.CashFlow.ChangeInventory }},
	{"Change in Payables", false, func(p models.PeriodResult) float64 { return p.CashFlow.ChangePayables }},
	{"Change in Accrued Liabilities", false, func(p models.PeriodResult) float64 { return p.CashFlow.ChangeAccrued }},
	{"Operating Cash Flow", true, func(p models.PeriodResult) float64 { return p.CashFlow.OperatingCashFlow }},
	{"Capital Expenditure", false, func(p models.PeriodResult) float64 { return p.CashFlow.Capex }},
	{"Investing Cash Flow", true, func(p models.PeriodResult) float64 { return p.CashFlow.InvestingCashFlow }},
	{"Debt Issued / (Repaid)", false, func(p models.PeriodResult) float64 { return p.CashFlow.NetDebtChange }},
	{"Revolver Draw / (Sweep)", false, func(p models.PeriodResult) float64 { return p.CashFlow.RevolverNet }},
	{"Dividends", false, func(p models.PeriodResult) float64 { return p.CashFlow.Dividends }},
	{"Other Financing", false, func(p models.PeriodResult) float64 { return p.CashFlow.OtherFinancing }},
	{"Financing Cash Flow", true, func(p models.PeriodResult) float64 { return p.CashFlow.FinancingCashFlow }},
	{"Net Cash Flow", true, func(p models.PeriodResult) float64 { return p.CashFlow.NetCashFlow }},
	{"Beginning Cash", false, func(p models.PeriodResult) float64 { return p.CashFlow.BeginningCash }},
	{"Ending Cash", false, func(p models.PeriodResult) float64 { return p.CashFlow.EndingCash }},
	{"Free Cash Flow", true, func(p models.PeriodResult) float64 { return p.CashFlow.FreeCashFlow() }},
}

func renderTable(title string, specs []rowSpec, periods []models.PeriodResult) models.StatementTable {
	table := models.StatementTable{
		Title:   title,
		Columns: make([]string, len(periods)),
		Rows:    make([]models.TableRow, len(specs)),
	}
	for i, p := range periods {
		table.Columns[i] = p.Label
	}
	for r, spec := range specs {
		values := make([]float64, len(periods))
		for i, p := range periods {
			values[i] = spec.value(p)
		}
		table.Rows[r] = models.TableRow{Label: spec.label, Values: values, Total: spec.total}
	}
	return table
}
