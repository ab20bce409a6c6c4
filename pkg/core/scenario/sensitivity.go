package scenario

import (
	"fmt"

	"statement_engine/pkg/models"
)

// GrowthSensitivity builds what-if scenarios that shift every year's revenue
// growth by each delta (0.02 = +2 percentage points). The base drivers are
// not modified.
func GrowthSensitivity(base Scenario, deltas []float64) []Scenario {
	out := make([]Scenario, 0, len(deltas))
	for _, delta := range deltas {
		drivers := models.CloneDrivers(base.Drivers)
		for i := range drivers {
			drivers[i].RevenueGrowth += delta
		}
		out = append(out, Scenario{
			Name:          fmt.Sprintf("%s %+.1fpp", base.Name, delta*100),
			Drivers:       drivers,
			ForecastYears: base.ForecastYears,
		})
	}
	return out
}

// Summary condenses one run for side-by-side comparison.
type Summary struct {
	Scenario        string  `json:"scenario"`
	RunID           string  `json:"run_id"`
	Balanced        bool    `json:"balanced"`
	MaxBalanceError float64 `json:"max_balance_error"`
	FinalRevenue    float64 `json:"final_revenue"`
	FinalNetIncome  float64 `json:"final_net_income"`
	CumulativeFCF   float64 `json:"cumulative_fcf"`
	MaxRevolver     float64 `json:"max_revolver"`
	Error           string  `json:"error,omitempty"`
}

// Summarize condenses runs in order.
func Summarize(runs []Run) []Summary {
	out := make([]Summary, len(runs))
	for i, run := range runs {
		s := Summary{Scenario: run.Scenario, RunID: run.ID.String()}
		if run.Err != nil || run.Result == nil {
			if run.Err != nil {
				s.Error = run.Err.Error()
			}
			out[i] = s
			continue
		}

		res := run.Result
		s.Balanced = res.AllPeriodsBalanced
		s.MaxBalanceError = res.MaxBalanceError
		for _, fcf := range res.FCFPerPeriod {
			s.CumulativeFCF += fcf
		}
		forecast := res.Forecast()
		if n := len(forecast); n > 0 {
			s.FinalRevenue = forecast[n-1].IncomeStatement.Revenue
			s.FinalNetIncome = forecast[n-1].IncomeStatement.NetIncome
		}
		for _, p := range forecast {
			if p.BalanceSheet.Revolver > s.MaxRevolver {
				s.MaxRevolver = p.BalanceSheet.Revolver
			}
		}
		out[i] = s
	}
	return out
}
