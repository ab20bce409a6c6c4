package validate

import (
	"errors"
	"fmt"
	"strings"

	"statement_engine/pkg/models"
)

var (
	// ErrHistoryInconsistent is returned when supplied history contradicts itself.
	ErrHistoryInconsistent = errors.New("historical data is internally inconsistent")
	// ErrEmptyHistory is returned when no historical period was supplied.
	ErrEmptyHistory = errors.New("no historical periods supplied")
)

// Check names reported in HistoryIssue.
const (
	CheckIncomeRollupName = "income_rollup"
	CheckBalanceSheetName = "balance_sheet"
	CheckOrderingName     = "ordering"
)

// HistoryIssue describes one failed check on one historical period.
type HistoryIssue struct {
	Index      int     `json:"index"`
	FiscalYear int     `json:"fiscal_year"`
	Check      string  `json:"check"`
	Difference float64 `json:"difference"`
}

func (i HistoryIssue) String() string {
	switch i.Check {
	case CheckIncomeRollupName:
		return fmt.Sprintf("FY%d: income statement does not roll up to net income (diff %.2f)", i.FiscalYear, i.Difference)
	case CheckBalanceSheetName:
		return fmt.Sprintf("FY%d: assets != liabilities + equity (diff %.2f)", i.FiscalYear, i.Difference)
	default:
		return fmt.Sprintf("FY%d: periods out of order", i.FiscalYear)
	}
}

// HistoryError is the hard-stop failure raised before any forecast is built.
type HistoryError struct {
	Issues []HistoryIssue
}

func (e *HistoryError) Error() string {
	msgs := make([]string, len(e.Issues))
	for i, issue := range e.Issues {
		msgs[i] = issue.String()
	}
	return fmt.Sprintf("%s: %s", ErrHistoryInconsistent, strings.Join(msgs, "; "))
}

// Unwrap lets callers match with errors.Is(err, ErrHistoryInconsistent).
func (e *HistoryError) Unwrap() error {
	return ErrHistoryInconsistent
}

// ValidateHistory checks every historical period for the income statement
// roll-up and the balance sheet identity. All failures are collected so the
// caller sees the whole picture, but any failure is fatal.
func ValidateHistory(hist models.HistoricalInput, tolerance float64) error {
	if len(hist) == 0 {
		return ErrEmptyHistory
	}

	var issues []HistoryIssue
	for i, p := range hist {
		if i > 0 && p.FiscalYear != 0 && hist[i-1].FiscalYear != 0 && p.FiscalYear <= hist[i-1].FiscalYear {
			issues = append(issues, HistoryIssue{Index: i, FiscalYear: p.FiscalYear, Check: CheckOrderingName})
		}

		rollup := CheckIncomeRollup(p.ComputedNetIncome(), p.NetIncome, tolerance)
		if !rollup.IsBalanced {
			issues = append(issues, HistoryIssue{
				Index:      i,
				FiscalYear: p.FiscalYear,
				Check:      CheckIncomeRollupName,
				Difference: rollup.Difference,
			})
		}

		bal := CheckBalanceEquation(p.TotalAssets(), p.TotalLiabilities(), p.Equity, tolerance)
		if !bal.IsBalanced {
			issues = append(issues, HistoryIssue{
				Index:      i,
				FiscalYear: p.FiscalYear,
				Check:      CheckBalanceSheetName,
				Difference: bal.Difference,
			})
		}
	}

	if len(issues) > 0 {
		return &HistoryError{Issues: issues}
	}
	return nil
}
