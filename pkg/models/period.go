package models

// Balances holds one period's ending balances; it is everything the
// period builder needs to know about the prior period.
type Balances struct {
	Revenue            float64 `json:"revenue"`
	Cash               float64 `json:"cash"`
	Receivables        float64 `json:"receivables"`
	Inventory          float64 `json:"inventory"`
	NetFixedAssets     float64 `json:"net_fixed_assets"`
	Goodwill           float64 `json:"goodwill"`
	Payables           float64 `json:"payables"`
	AccruedLiabilities float64 `json:"accrued_liabilities"`
	Debt               float64 `json:"debt"`
	Revolver           float64 `json:"revolver"`
	Equity             float64 `json:"equity"`
}

// IncomeStatement for one period. Expenses are positive magnitudes.
type IncomeStatement struct {
	Revenue          float64 `json:"revenue"`
	COGS             float64 `json:"cogs"`
	GrossProfit      float64 `json:"gross_profit"`
	SGA              float64 `json:"sga"`
	RND              float64 `json:"rnd"`
	EBITDA           float64 `json:"ebitda"`
	DA               float64 `json:"da"`
	EBIT             float64 `json:"ebit"`
	DebtInterest     float64 `json:"debt_interest"`
	RevolverInterest float64 `json:"revolver_interest"`
	InterestExpense  float64 `json:"interest_expense"` // Debt + Revolver
	InterestIncome   float64 `json:"interest_income"`
	PretaxIncome     float64 `json:"pretax_income"`
	Tax              float64 `json:"tax"`
	NetIncome        float64 `json:"net_income"`
}

// BalanceSheet for one period, with beginning balances for the rolled-forward accounts.
type BalanceSheet struct {
	// Assets
	BeginningCash           float64 `json:"beginning_cash"`
	Cash                    float64 `json:"cash"`
	Receivables             float64 `json:"receivables"`
	Inventory               float64 `json:"inventory"`
	BeginningNetFixedAssets float64 `json:"beginning_net_fixed_assets"`
	NetFixedAssets          float64 `json:"net_fixed_assets"`
	Goodwill                float64 `json:"goodwill"`
	TotalAssets             float64 `json:"total_assets"`

	// Liabilities
	Payables           float64 `json:"payables"`
	AccruedLiabilities float64 `json:"accrued_liabilities"`
	BeginningDebt      float64 `json:"beginning_debt"`
	Debt               float64 `json:"debt"`
	BeginningRevolver  float64 `json:"beginning_revolver"`
	Revolver           float64 `json:"revolver"`
	TotalLiabilities   float64 `json:"total_liabilities"`

	// Equity
	BeginningEquity float64 `json:"beginning_equity"`
	Equity          float64 `json:"equity"`

	TotalLiabilitiesAndEquity float64 `json:"total_liabilities_and_equity"`
}

// CashFlowStatement for one period. Lines carry their sign as they affect cash.
type CashFlowStatement struct {
	// Operating
	NetIncome         float64 `json:"net_income"`
	DA                float64 `json:"da"`
	StockComp         float64 `json:"stock_comp"`
	ChangeReceivables float64 `json:"change_receivables"`
	ChangeInventory   float64 `json:"change_inventory"`
	ChangePayables    float64 `json:"change_payables"`
	ChangeAccrued     float64 `json:"change_accrued"`
	OperatingCashFlow float64 `json:"operating_cash_flow"`

	// Investing
	Capex             float64 `json:"capex"`
	InvestingCashFlow float64 `json:"investing_cash_flow"`

	// Financing
	NetDebtChange     float64 `json:"net_debt_change"` // Mandatory amortization (-) in forecasts
	RevolverNet       float64 `json:"revolver_net"`    // Draw (+) / Sweep (-)
	Dividends         float64 `json:"dividends"`
	OtherFinancing    float64 `json:"other_financing"` // Historical reconstruction only
	FinancingCashFlow float64 `json:"financing_cash_flow"`

	NetCashFlow   float64 `json:"net_cash_flow"`
	BeginningCash float64 `json:"beginning_cash"`
	EndingCash    float64 `json:"ending_cash"`
}

// FreeCashFlow is operating plus investing cash flow.
func (cf CashFlowStatement) FreeCashFlow() float64 {
	return cf.OperatingCashFlow + cf.InvestingCashFlow
}

// PeriodResult is the articulated output for one period, historical or forecast.
type PeriodResult struct {
	Label      string `json:"label"`
	FiscalYear int    `json:"fiscal_year"`
	Historical bool   `json:"historical"`

	IncomeStatement IncomeStatement   `json:"income_statement"`
	BalanceSheet    BalanceSheet      `json:"balance_sheet"`
	CashFlow        CashFlowStatement `json:"cash_flow"`

	// Diagnostics
	BalanceCheck     bool    `json:"balance_check"`
	BalanceError     float64 `json:"balance_error"` // Assets - (Liabilities + Equity)
	Iterations       int     `json:"iterations"`
	Converged        bool    `json:"converged"`
	ConvergenceDelta float64 `json:"convergence_delta"`
}

// Ending returns the period's ending balances for the next period's build.
func (p PeriodResult) Ending() Balances {
	bs := p.BalanceSheet
	return Balances{
		Revenue:            p.IncomeStatement.Revenue,
		Cash:               bs.Cash,
		Receivables:        bs.Receivables,
		Inventory:          bs.Inventory,
		NetFixedAssets:     bs.NetFixedAssets,
		Goodwill:           bs.Goodwill,
		Payables:           bs.Payables,
		AccruedLiabilities: bs.AccruedLiabilities,
		Debt:               bs.Debt,
		Revolver:           bs.Revolver,
		Equity:             bs.Equity,
	}
}
