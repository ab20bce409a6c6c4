// Package assumption loads modeling cases from disk and derives or
// overrides the per-year driver assumptions the projection engine reads.
package assumption

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"statement_engine/pkg/models"

	jsonrepair "github.com/RealAlexandreAI/json-repair"
	"github.com/go-playground/validator/v10"
	hjson "github.com/hjson/hjson-go/v4"
	"gopkg.in/yaml.v2"
)

var (
	// ErrUnknownScenario is returned when a case has no driver set by that name.
	ErrUnknownScenario = errors.New("unknown scenario")
	// ErrUnsupportedFormat is returned for case files with an unrecognised extension.
	ErrUnsupportedFormat = errors.New("unsupported case file format")
	// ErrInvalidCase is returned when a case fails structural validation.
	ErrInvalidCase = errors.New("invalid case")
)

// Case file formats.
const (
	FormatYAML  = "yaml"
	FormatHJSON = "hjson"
	FormatJSON  = "json"
)

// Case bundles audited history with one or more named driver sets.
type Case struct {
	Name          string                                `json:"name" yaml:"name" validate:"required"`
	Currency      string                                `json:"currency,omitempty" yaml:"currency,omitempty"`
	ForecastYears int                                   `json:"forecast_years" yaml:"forecast_years" validate:"gte=0"`
	Historical    models.HistoricalInput                `json:"historical" yaml:"historical" validate:"required,min=1,dive"`
	Scenarios     map[string][]models.DriverAssumptions `json:"scenarios" yaml:"scenarios" validate:"required,min=1,dive,min=1,dive"`
}

var structValidator = validator.New()

// Validate runs structural checks: required fields, driver ranges and a
// horizon every scenario can cover. Accounting consistency of the history
// is left to the engine.
func (c *Case) Validate() error {
	if err := structValidator.Struct(c); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidCase, err)
	}
	for _, name := range c.ScenarioNames() {
		if n := len(c.Scenarios[name]); c.ForecastYears > n {
			return fmt.Errorf("%w: scenario %q has %d driver years, forecast_years is %d", ErrInvalidCase, name, n, c.ForecastYears)
		}
	}
	return nil
}

// ScenarioNames returns the scenario names in sorted order.
func (c *Case) ScenarioNames() []string {
	names := make([]string, 0, len(c.Scenarios))
	for name := range c.Scenarios {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Drivers returns a private copy of the named scenario's drivers.
func (c *Case) Drivers(scenario string) ([]models.DriverAssumptions, error) {
	drivers, ok := c.Scenarios[scenario]
	if !ok {
		return nil, fmt.Errorf("%w %q (have: %s)", ErrUnknownScenario, scenario, strings.Join(c.ScenarioNames(), ", "))
	}
	return models.CloneDrivers(drivers), nil
}

// Horizon is the number of forecast years to build for a driver set:
// ForecastYears when set, otherwise one per driver record.
func (c *Case) Horizon(drivers []models.DriverAssumptions) int {
	if c.ForecastYears > 0 {
		return c.ForecastYears
	}
	return len(drivers)
}

// FormatFromPath maps a file extension to a case format.
func FormatFromPath(path string) (string, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return FormatYAML, nil
	case ".hjson":
		return FormatHJSON, nil
	case ".json":
		return FormatJSON, nil
	default:
		return "", fmt.Errorf("%w: %s", ErrUnsupportedFormat, path)
	}
}

// LoadCase reads, decodes and validates a case file.
func LoadCase(path string) (*Case, error) {
	format, err := FormatFromPath(path)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read case %s: %w", path, err)
	}
	c, err := DecodeCase(data, format)
	if err != nil {
		return nil, fmt.Errorf("decode case %s: %w", path, err)
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return c, nil
}

// DecodeCase decodes a case in the given format without validating it.
// Hand-edited JSON is repaired (trailing commas, comments, single quotes)
// before decoding.
func DecodeCase(data []byte, format string) (*Case, error) {
	var c Case
	switch format {
	case FormatYAML:
		if err := yaml.Unmarshal(data, &c); err != nil {
			return nil, err
		}
	case FormatHJSON:
		if err := hjson.Unmarshal(data, &c); err != nil {
			return nil, err
		}
	case FormatJSON:
		if !json.Valid(data) {
			repaired, err := jsonrepair.RepairJSON(string(data))
			if err != nil {
				return nil, fmt.Errorf("repair json: %w", err)
			}
			data = []byte(repaired)
		}
		if err := json.Unmarshal(data, &c); err != nil {
			return nil, err
		}
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedFormat, format)
	}
	return &c, nil
}

// WriteCase writes c to path in the format implied by its extension.
func WriteCase(path string, c *Case) error {
	format, err := FormatFromPath(path)
	if err != nil {
		return err
	}

	var data []byte
	switch format {
	case FormatYAML:
		data, err = yaml.Marshal(c)
	case FormatHJSON:
		data, err = hjson.Marshal(c)
	default:
		data, err = json.MarshalIndent(c, "", "  ")
	}
	if err != nil {
		return fmt.Errorf("encode case: %w", err)
	}

	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return err
		}
	}
	return os.WriteFile(path, data, 0644)
}
