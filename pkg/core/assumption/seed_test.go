package assumption

import (
	"testing"

	"statement_engine/pkg/core/validate"
	"statement_engine/pkg/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSeedFromHistory(t *testing.T) {
	hist := SampleCase().Historical

	drivers, err := SeedFromHistory(hist, 3)
	require.NoError(t, err)
	require.Len(t, drivers, 3)

	d := drivers[0]
	assert.InDelta(t, 0.10, d.RevenueGrowth, 1e-9) // 1000 -> 1100 over one year
	assert.InDelta(t, 0.59, d.COGSPercent, 1e-9)
	assert.InDelta(t, 0.20, d.SGAPercent, 1e-9)
	assert.InDelta(t, 0.05, d.RDPercent, 1e-9)
	assert.InDelta(t, 0.01, d.StockCompPercent, 1e-9)
	assert.InDelta(t, 0.25, d.TaxRate, 1e-9) // 31.75 / 127
	assert.InDelta(t, 120.0/1100*365, d.ReceivableDays, 1e-9)
	assert.InDelta(t, 80.0/649*365, d.InventoryDays, 1e-9)
	assert.InDelta(t, 60.0/649*365, d.PayableDays, 1e-9)
	assert.InDelta(t, 40.0/220*365, d.AccruedDays, 1e-9)
	assert.InDelta(t, 60.0/1100, d.CapexPercent, 1e-9)
	assert.InDelta(t, 9.5, d.UsefulLife, 1e-9) // opening NFA 380 / DA 40
	assert.InDelta(t, 10.0/212.5, d.DebtInterestRate, 1e-9)
	assert.InDelta(t, 1.0/95, d.CashInterestRate, 1e-9)
	assert.InDelta(t, 25.0, d.MandatoryAmortization, 1e-9)
	assert.InDelta(t, 28.0/95.25, d.DividendPayout, 1e-9)
	assert.Nil(t, d.Revolver)

	assert.Equal(t, drivers[0], drivers[2])
}

func TestSeedFromHistory_SinglePeriod(t *testing.T) {
	hist := SampleCase().Historical[1:]

	drivers, err := SeedFromHistory(hist, 1)
	require.NoError(t, err)

	assert.Zero(t, drivers[0].RevenueGrowth)
	assert.Zero(t, drivers[0].MandatoryAmortization)
	assert.InDelta(t, 10.0, drivers[0].UsefulLife, 1e-9) // 400 / 40
}

func TestSeedFromHistory_Errors(t *testing.T) {
	_, err := SeedFromHistory(nil, 3)
	assert.ErrorIs(t, err, validate.ErrEmptyHistory)

	_, err = SeedFromHistory(models.HistoricalInput{{FiscalYear: 2024}}, 3)
	assert.ErrorIs(t, err, ErrNoRevenue)

	_, err = SeedFromHistory(SampleCase().Historical, -1)
	assert.Error(t, err)
}
