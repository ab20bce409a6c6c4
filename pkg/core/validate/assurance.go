package validate

import (
	"errors"
	"fmt"
	"strings"

	"statement_engine/pkg/models"
)

// DefaultAcceptableBalanceError is the largest |A - (L + E)| the QA gate
// accepts on any period before refusing the model.
const DefaultAcceptableBalanceError = 1.0

// ErrModelUnbalanced is returned by Assure when a model fails the QA gate.
var ErrModelUnbalanced = errors.New("model failed assurance")

// AssuranceError lists every reason a model was refused.
type AssuranceError struct {
	Reasons []string
}

func (e *AssuranceError) Error() string {
	return fmt.Sprintf("%s: %s", ErrModelUnbalanced, strings.Join(e.Reasons, "; "))
}

func (e *AssuranceError) Unwrap() error {
	return ErrModelUnbalanced
}

// Assure is the caller-side quality gate. Non-convergence inside the period
// builder is soft and surfaces as balance error; this is where it becomes a
// hard decision. A model passes when every period balances, the worst
// balance error is within threshold and every forecast period links to its
// predecessor.
func Assure(result *models.ModelResult, threshold float64) error {
	if result == nil {
		return &AssuranceError{Reasons: []string{"no model result"}}
	}
	if threshold <= 0 {
		threshold = DefaultAcceptableBalanceError
	}

	var reasons []string
	if !result.AllPeriodsBalanced {
		for _, p := range result.Periods {
			if !p.BalanceCheck {
				reasons = append(reasons, fmt.Sprintf("%s does not balance (error %.4f)", p.Label, p.BalanceError))
			}
		}
	}
	if result.MaxBalanceError > threshold {
		reasons = append(reasons, fmt.Sprintf("max balance error %.4f exceeds %.4f", result.MaxBalanceError, threshold))
	}
	for i := result.HistoricalCount; i < len(result.Periods); i++ {
		if i == 0 {
			continue
		}
		report := CheckForecastLinkage(result.Periods[i-1], result.Periods[i], threshold)
		if !report.AllPassed {
			reasons = append(reasons, fmt.Sprintf("%s linkage failed: %s", report.Label, strings.Join(report.FailedChecks, ",")))
		}
	}

	if len(reasons) > 0 {
		return &AssuranceError{Reasons: reasons}
	}
	return nil
}
