package models

import "slices"

// BuildState tracks a model build through its lifecycle.
type BuildState string

const (
	StateUnbuilt          BuildState = "UNBUILT"
	StateValidating       BuildState = "VALIDATING"
	StateValidationFailed BuildState = "VALIDATION_FAILED"
	StateValidated        BuildState = "VALIDATED"
	StateBuilding         BuildState = "BUILDING"
	StateBuilt            BuildState = "BUILT"
)

// Terminal reports whether no further transition is possible.
func (s BuildState) Terminal() bool {
	return s == StateValidationFailed || s == StateBuilt
}

// TableRow is one line item across all periods.
type TableRow struct {
	Label  string    `json:"label"`
	Values []float64 `json:"values"`
	Total  bool      `json:"total,omitempty"` // Subtotal rows are rendered bold
}

// StatementTable is a rendered statement: one column per period.
type StatementTable struct {
	Title   string     `json:"title"`
	Columns []string   `json:"columns"`
	Rows    []TableRow `json:"rows"`
}

// Row returns the row with the given label.
func (t StatementTable) Row(label string) (TableRow, bool) {
	for _, r := range t.Rows {
		if r.Label == label {
			return r, true
		}
	}
	return TableRow{}, false
}

// ModelResult is the full historical + forecast series. It is the only
// artifact downstream valuation engines read.
type ModelResult struct {
	Periods         []PeriodResult `json:"periods"`
	HistoricalCount int            `json:"historical_count"`

	// Forecast-only derived series, one value per forecast year
	FCFPerPeriod       []float64 `json:"fcf_per_period"`
	EBITDAPerPeriod    []float64 `json:"ebitda_per_period"`
	NetIncomePerPeriod []float64 `json:"net_income_per_period"`

	AllPeriodsBalanced bool    `json:"all_periods_balanced"`
	MaxBalanceError    float64 `json:"max_balance_error"`

	IncomeStatement StatementTable `json:"income_statement"`
	BalanceSheet    StatementTable `json:"balance_sheet"`
	CashFlow        StatementTable `json:"cash_flow"`

	State BuildState `json:"state"`
}

// Historical returns the transcribed historical periods.
func (m *ModelResult) Historical() []PeriodResult {
	return m.Periods[:m.HistoricalCount]
}

// Forecast returns the forecast periods.
func (m *ModelResult) Forecast() []PeriodResult {
	return m.Periods[m.HistoricalCount:]
}

// LastHistorical returns the most recent historical period.
func (m *ModelResult) LastHistorical() (PeriodResult, bool) {
	if m.HistoricalCount == 0 {
		return PeriodResult{}, false
	}
	return m.Periods[m.HistoricalCount-1], true
}

// Clone returns a copy that shares no slices with m.
func (m *ModelResult) Clone() *ModelResult {
	if m == nil {
		return nil
	}
	out := *m
	out.Periods = slices.Clone(m.Periods)
	out.FCFPerPeriod = slices.Clone(m.FCFPerPeriod)
	out.EBITDAPerPeriod = slices.Clone(m.EBITDAPerPeriod)
	out.NetIncomePerPeriod = slices.Clone(m.NetIncomePerPeriod)
	out.IncomeStatement = m.IncomeStatement.clone()
	out.BalanceSheet = m.BalanceSheet.clone()
	out.CashFlow = m.CashFlow.clone()
	return &out
}

func (t StatementTable) clone() StatementTable {
	out := StatementTable{
		Title:   t.Title,
		Columns: slices.Clone(t.Columns),
		Rows:    slices.Clone(t.Rows),
	}
	for i := range out.Rows {
		out.Rows[i].Values = slices.Clone(t.Rows[i].Values)
	}
	return out
}
