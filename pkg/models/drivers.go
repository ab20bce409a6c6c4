package models

// RevolverPolicy configures the cash sweep / revolving credit facility.
type RevolverPolicy struct {
	InterestRate float64 `json:"interest_rate" yaml:"interest_rate" validate:"gte=0"`
	MinimumCash  float64 `json:"minimum_cash" yaml:"minimum_cash" validate:"gte=0"`
}

// DriverAssumptions defines the drivers for a specific forecast year.
// Rates and percentages are decimals (0.05 = 5%).
type DriverAssumptions struct {
	RevenueGrowth float64 `json:"revenue_growth" yaml:"revenue_growth"`

	// Cost ratios (% of Revenue)
	COGSPercent      float64 `json:"cogs_percent" yaml:"cogs_percent" validate:"gte=0"`
	SGAPercent       float64 `json:"sga_percent" yaml:"sga_percent" validate:"gte=0"`
	RDPercent        float64 `json:"rd_percent" yaml:"rd_percent" validate:"gte=0"`
	StockCompPercent float64 `json:"stock_comp_percent" yaml:"stock_comp_percent" validate:"gte=0"` // Non-cash share of opex

	TaxRate float64 `json:"tax_rate" yaml:"tax_rate" validate:"gte=0,lt=1"` // % of EBT

	// Working Capital Drivers (Days)
	ReceivableDays float64 `json:"receivable_days" yaml:"receivable_days" validate:"gte=0"` // DSO on Revenue
	InventoryDays  float64 `json:"inventory_days" yaml:"inventory_days" validate:"gte=0"`   // DIO on COGS
	PayableDays    float64 `json:"payable_days" yaml:"payable_days" validate:"gte=0"`       // DPO on COGS
	AccruedDays    float64 `json:"accrued_days" yaml:"accrued_days" validate:"gte=0"`       // Days of SG&A

	// Capex & Depreciation
	CapexPercent float64 `json:"capex_percent" yaml:"capex_percent" validate:"gte=0"`
	UsefulLife   float64 `json:"useful_life" yaml:"useful_life" validate:"gte=0"` // Years, straight-line on prior NFA

	// Financing
	DebtInterestRate      float64         `json:"debt_interest_rate" yaml:"debt_interest_rate" validate:"gte=0"`
	CashInterestRate      float64         `json:"cash_interest_rate" yaml:"cash_interest_rate" validate:"gte=0"`
	MandatoryAmortization float64         `json:"mandatory_amortization" yaml:"mandatory_amortization" validate:"gte=0"`
	Revolver              *RevolverPolicy `json:"revolver,omitempty" yaml:"revolver,omitempty"`
	DividendPayout        float64         `json:"dividend_payout" yaml:"dividend_payout" validate:"gte=0,lte=1"` // % of Net Income
}

// MinimumCash returns the revolver policy floor, or 0 when no revolver is configured.
func (d DriverAssumptions) MinimumCash() float64 {
	if d.Revolver == nil {
		return 0
	}
	return d.Revolver.MinimumCash
}

// Clone returns a copy that shares no pointers with d.
func (d DriverAssumptions) Clone() DriverAssumptions {
	if d.Revolver != nil {
		rp := *d.Revolver
		d.Revolver = &rp
	}
	return d
}

// CloneDrivers deep-copies a driver series.
func CloneDrivers(drivers []DriverAssumptions) []DriverAssumptions {
	out := make([]DriverAssumptions, len(drivers))
	for i, d := range drivers {
		out[i] = d.Clone()
	}
	return out
}
