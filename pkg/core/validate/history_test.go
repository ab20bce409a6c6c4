package validate

import (
	"errors"
	"testing"

	"statement_engine/pkg/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func balancedHistory() models.HistoricalInput {
	return models.HistoricalInput{
		{
			FiscalYear: 2023,
			Revenue:    1000, COGS: 590, SGA: 200, RND: 50, DA: 38,
			InterestExpense: 10, InterestIncome: 1, Tax: 28.25, NetIncome: 84.75,
			Cash: 90, Receivables: 110, Inventory: 75, NetFixedAssets: 380, Goodwill: 50,
			Payables: 55, AccruedLiabilities: 37, Debt: 225, Equity: 388,
		},
		{
			FiscalYear: 2024,
			Revenue:    1100, COGS: 649, SGA: 220, RND: 55, DA: 40,
			InterestExpense: 10, InterestIncome: 1, Tax: 31.75, NetIncome: 95.25,
			Cash: 100, Receivables: 120, Inventory: 80, NetFixedAssets: 400, Goodwill: 50,
			Payables: 60, AccruedLiabilities: 40, Debt: 200, Equity: 450,
		},
	}
}

func TestValidateHistory_Balanced(t *testing.T) {
	assert.NoError(t, ValidateHistory(balancedHistory(), DefaultHistoryTolerance))
}

func TestValidateHistory_Empty(t *testing.T) {
	assert.ErrorIs(t, ValidateHistory(nil, DefaultHistoryTolerance), ErrEmptyHistory)
}

func TestValidateHistory_Failures(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(h models.HistoricalInput)
		check  string
		index  int
	}{
		{"net income overstated", func(h models.HistoricalInput) { h[0].NetIncome += 2 }, CheckIncomeRollupName, 0},
		{"tax omitted", func(h models.HistoricalInput) { h[1].Tax = 0 }, CheckIncomeRollupName, 1},
		{"assets short", func(h models.HistoricalInput) { h[1].Cash -= 10 }, CheckBalanceSheetName, 1},
		{"equity overstated", func(h models.HistoricalInput) { h[0].Equity += 1.5 }, CheckBalanceSheetName, 0},
		{"out of order", func(h models.HistoricalInput) { h[1].FiscalYear = 2022 }, CheckOrderingName, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := balancedHistory()
			tt.mutate(h)

			err := ValidateHistory(h, DefaultHistoryTolerance)
			require.ErrorIs(t, err, ErrHistoryInconsistent)

			var herr *HistoryError
			require.True(t, errors.As(err, &herr))
			require.Len(t, herr.Issues, 1)
			assert.Equal(t, tt.check, herr.Issues[0].Check)
			assert.Equal(t, tt.index, herr.Issues[0].Index)
		})
	}
}

func TestValidateHistory_CollectsAllIssues(t *testing.T) {
	h := balancedHistory()
	h[0].NetIncome = 0
	h[0].Equity = 0
	h[1].Goodwill = 0

	err := ValidateHistory(h, DefaultHistoryTolerance)
	var herr *HistoryError
	require.True(t, errors.As(err, &herr))
	assert.Len(t, herr.Issues, 3)
	assert.Contains(t, err.Error(), "FY2023: income statement does not roll up")
	assert.Contains(t, err.Error(), "FY2024: assets != liabilities + equity (diff -50.00)")
}

func TestValidateHistory_WithinTolerance(t *testing.T) {
	h := balancedHistory()
	h[0].NetIncome += 0.99
	h[1].Cash += 1.0

	assert.NoError(t, ValidateHistory(h, DefaultHistoryTolerance))
	assert.Error(t, ValidateHistory(h, 0.5))
}
