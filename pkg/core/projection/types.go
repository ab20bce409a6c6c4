package projection

import "errors"

// ErrInvalidHorizon is returned when the forecast horizon and the driver
// series do not line up.
var ErrInvalidHorizon = errors.New("invalid forecast horizon")

// Settings controls the solver and the balance diagnostics.
type Settings struct {
	ConvergenceTolerance float64 // Absolute, on ending cash and ending revolver
	MaxIterations        int     // Fixed-point iteration cap per period
	BalanceTolerance     float64 // |A - (L + E)| accepted on forecast periods
	HistoryTolerance     float64 // Roll-up and identity tolerance on audited history
}

// DefaultSettings returns the engine defaults.
func DefaultSettings() Settings {
	return Settings{
		ConvergenceTolerance: 1e-6,
		MaxIterations:        100,
		BalanceTolerance:     0.01,
		HistoryTolerance:     1.0,
	}
}

// withDefaults fills unset (zero or negative) fields from DefaultSettings.
func (s Settings) withDefaults() Settings {
	def := DefaultSettings()
	if s.ConvergenceTolerance <= 0 {
		s.ConvergenceTolerance = def.ConvergenceTolerance
	}
	if s.MaxIterations <= 0 {
		s.MaxIterations = def.MaxIterations
	}
	if s.BalanceTolerance <= 0 {
		s.BalanceTolerance = def.BalanceTolerance
	}
	if s.HistoryTolerance <= 0 {
		s.HistoryTolerance = def.HistoryTolerance
	}
	return s
}
