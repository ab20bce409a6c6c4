package models

// HistoricalPeriod is one audited fiscal period as supplied by the caller.
// Expenses are stored as positive magnitudes.
type HistoricalPeriod struct {
	FiscalYear int `json:"fiscal_year" yaml:"fiscal_year" validate:"gte=0"` // 0 labels periods by position

	// Income Statement
	Revenue         float64 `json:"revenue" yaml:"revenue"`
	COGS            float64 `json:"cogs" yaml:"cogs"`
	SGA             float64 `json:"sga" yaml:"sga"`
	RND             float64 `json:"rnd" yaml:"rnd"`
	DA              float64 `json:"da" yaml:"da"` // Depreciation & Amortization
	InterestExpense float64 `json:"interest_expense" yaml:"interest_expense"`
	InterestIncome  float64 `json:"interest_income" yaml:"interest_income"`
	Tax             float64 `json:"tax" yaml:"tax"`
	NetIncome       float64 `json:"net_income" yaml:"net_income"`

	// Assets
	Cash           float64 `json:"cash" yaml:"cash"`
	Receivables    float64 `json:"receivables" yaml:"receivables"`
	Inventory      float64 `json:"inventory" yaml:"inventory"`
	NetFixedAssets float64 `json:"net_fixed_assets" yaml:"net_fixed_assets"`
	Goodwill       float64 `json:"goodwill" yaml:"goodwill"`

	// Liabilities & Equity
	Payables           float64 `json:"payables" yaml:"payables"`
	AccruedLiabilities float64 `json:"accrued_liabilities" yaml:"accrued_liabilities"`
	Debt               float64 `json:"debt" yaml:"debt"`
	Equity             float64 `json:"equity" yaml:"equity"`

	// Cash Flow
	Capex     float64 `json:"capex" yaml:"capex"`
	Dividends float64 `json:"dividends" yaml:"dividends"`
	StockComp float64 `json:"stock_comp" yaml:"stock_comp"` // Non-cash equity compensation
}

// HistoricalInput is the ordered history, oldest period first.
type HistoricalInput []HistoricalPeriod

// ComputedNetIncome rolls the income statement fields up to net income.
func (p HistoricalPeriod) ComputedNetIncome() float64 {
	return p.Revenue - p.COGS - p.SGA - p.RND - p.DA - p.InterestExpense + p.InterestIncome - p.Tax
}

// TotalAssets sums the asset fields.
func (p HistoricalPeriod) TotalAssets() float64 {
	return p.Cash + p.Receivables + p.Inventory + p.NetFixedAssets + p.Goodwill
}

// TotalLiabilities sums the liability fields (excluding equity).
func (p HistoricalPeriod) TotalLiabilities() float64 {
	return p.Payables + p.AccruedLiabilities + p.Debt
}

// Balances returns the period's ending balances. History never carries a revolver.
func (p HistoricalPeriod) Balances() Balances {
	return Balances{
		Revenue:            p.Revenue,
		Cash:               p.Cash,
		Receivables:        p.Receivables,
		Inventory:          p.Inventory,
		NetFixedAssets:     p.NetFixedAssets,
		Goodwill:           p.Goodwill,
		Payables:           p.Payables,
		AccruedLiabilities: p.AccruedLiabilities,
		Debt:               p.Debt,
		Equity:             p.Equity,
	}
}

// Latest returns the most recent period. ok is false for empty history.
func (h HistoricalInput) Latest() (HistoricalPeriod, bool) {
	if len(h) == 0 {
		return HistoricalPeriod{}, false
	}
	return h[len(h)-1], true
}
