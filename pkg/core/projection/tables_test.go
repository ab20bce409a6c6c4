package projection

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStatementTables(t *testing.T) {
	result := buildSample(t)

	assert.Equal(t, "Balance Sheet", result.BalanceSheet.Title)
	assert.Len(t, result.BalanceSheet.Rows, len(balanceSheetRows))
	assert.Len(t, result.CashFlow.Rows, len(cashFlowRows))

	is := result.IncomeStatement
	assert.Equal(t, "Income Statement", is.Title)
	require.Len(t, is.Columns, len(result.Periods))
	assert.Len(t, is.Rows, len(incomeStatementRows))

	ni, ok := is.Row("Net Income")
	require.True(t, ok)
	assert.True(t, ni.Total)
	for i, p := range result.Periods {
		assert.Equal(t, p.IncomeStatement.NetIncome, ni.Values[i])
	}
	assert.Equal(t, result.NetIncomePerPeriod, ni.Values[result.HistoricalCount:])

	check, ok := result.BalanceSheet.Row("Balance Check")
	require.True(t, ok)
	for _, v := range check.Values {
		assert.InDelta(t, 0.0, v, 0.01)
	}

	fcf, ok := result.CashFlow.Row("Free Cash Flow")
	require.True(t, ok)
	assert.Equal(t, result.FCFPerPeriod, fcf.Values[result.HistoricalCount:])

	_, ok = is.Row("Goodwill")
	assert.False(t, ok)
}
