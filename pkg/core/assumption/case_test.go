package assumption

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSampleCase_Validates(t *testing.T) {
	c := SampleCase()
	require.NoError(t, c.Validate())
	assert.Equal(t, []string{"base"}, c.ScenarioNames())
}

func TestCase_Validate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(c *Case)
	}{
		{"missing name", func(c *Case) { c.Name = "" }},
		{"no history", func(c *Case) { c.Historical = nil }},
		{"negative fiscal year", func(c *Case) { c.Historical[0].FiscalYear = -1 }},
		{"no scenarios", func(c *Case) { c.Scenarios = nil }},
		{"empty scenario", func(c *Case) { c.Scenarios["bear"] = nil }},
		{"negative cogs", func(c *Case) { c.Scenarios["base"][2].COGSPercent = -0.1 }},
		{"tax rate of one", func(c *Case) { c.Scenarios["base"][0].TaxRate = 1 }},
		{"horizon beyond drivers", func(c *Case) { c.ForecastYears = 6 }},
		{"negative minimum cash", func(c *Case) { c.Scenarios["base"][0].Revolver.MinimumCash = -1 }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := SampleCase()
			tt.mutate(c)
			assert.ErrorIs(t, c.Validate(), ErrInvalidCase)
		})
	}
}

func TestCase_Validate_PositionalYears(t *testing.T) {
	c := SampleCase()
	for i := range c.Historical {
		c.Historical[i].FiscalYear = 0
	}
	require.NoError(t, c.Validate())

	drivers, err := SeedFromHistory(c.Historical, c.ForecastYears)
	require.NoError(t, err)
	assert.Len(t, drivers, c.ForecastYears)
}

func TestCase_Drivers(t *testing.T) {
	c := SampleCase()

	drivers, err := c.Drivers("base")
	require.NoError(t, err)
	require.Len(t, drivers, 5)

	// The copy must not alias the case
	drivers[0].Revolver.MinimumCash = 999
	assert.Equal(t, 50.0, c.Scenarios["base"][0].Revolver.MinimumCash)

	_, err = c.Drivers("bull")
	assert.ErrorIs(t, err, ErrUnknownScenario)
}

func TestCase_Horizon(t *testing.T) {
	c := SampleCase()
	drivers := c.Scenarios["base"]

	c.ForecastYears = 3
	assert.Equal(t, 3, c.Horizon(drivers))

	c.ForecastYears = 0
	assert.Equal(t, 5, c.Horizon(drivers))
}

func TestWriteAndLoadCase_YAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cases", "sample.yaml")
	require.NoError(t, WriteCase(path, SampleCase()))

	loaded, err := LoadCase(path)
	require.NoError(t, err)
	assert.Equal(t, SampleCase(), loaded)
}

func TestWriteAndLoadCase_JSON(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sample.json")
	require.NoError(t, WriteCase(path, SampleCase()))

	loaded, err := LoadCase(path)
	require.NoError(t, err)
	assert.Equal(t, SampleCase(), loaded)
}

func TestDecodeCase_HJSON(t *testing.T) {
	src := `
# hand-written case
{
  name: Tiny Co
  forecast_years: 1
  historical: [
    {
      fiscal_year: 2024
      revenue: 100
      cogs: 60
      net_income: 40
      cash: 40
      equity: 40
    }
  ]
  scenarios: {
    base: [
      { revenue_growth: 0.05, cogs_percent: 0.6 }
    ]
  }
}`
	c, err := DecodeCase([]byte(src), FormatHJSON)
	require.NoError(t, err)
	require.NoError(t, c.Validate())

	assert.Equal(t, "Tiny Co", c.Name)
	assert.Equal(t, 2024, c.Historical[0].FiscalYear)
	assert.Equal(t, 0.6, c.Scenarios["base"][0].COGSPercent)
	assert.Nil(t, c.Scenarios["base"][0].Revolver)
}

func TestDecodeCase_RepairsTrailingCommas(t *testing.T) {
	src := `{
  "name": "Tiny Co",
  "historical": [{"fiscal_year": 2024, "revenue": 100, "cogs": 60, "net_income": 40, "cash": 40, "equity": 40},],
  "scenarios": {"base": [{"revenue_growth": 0.05, "revolver": {"interest_rate": 0.07, "minimum_cash": 10}},]},
}`
	c, err := DecodeCase([]byte(src), FormatJSON)
	require.NoError(t, err)
	require.NoError(t, c.Validate())

	require.NotNil(t, c.Scenarios["base"][0].Revolver)
	assert.Equal(t, 10.0, c.Scenarios["base"][0].Revolver.MinimumCash)
}

func TestLoadCase_Errors(t *testing.T) {
	dir := t.TempDir()

	_, err := LoadCase(filepath.Join(dir, "case.toml"))
	assert.ErrorIs(t, err, ErrUnsupportedFormat)

	_, err = LoadCase(filepath.Join(dir, "missing.yaml"))
	assert.ErrorIs(t, err, os.ErrNotExist)

	bad := filepath.Join(dir, "bad.yaml")
	require.NoError(t, os.WriteFile(bad, []byte("name: Empty\nhistorical: []\n"), 0644))
	_, err = LoadCase(bad)
	assert.ErrorIs(t, err, ErrInvalidCase)
}
