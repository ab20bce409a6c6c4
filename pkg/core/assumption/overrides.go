package assumption

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"statement_engine/pkg/models"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/extension"
	east "github.com/yuin/goldmark/extension/ast"
	"github.com/yuin/goldmark/text"
)

var (
	// ErrUnknownDriverKey is returned for a table row naming no known driver.
	ErrUnknownDriverKey = errors.New("unknown driver key")
	// ErrNoDriverTable is returned when the document has no usable table.
	ErrNoDriverTable = errors.New("no driver table with key and value columns")
)

// Override sets one driver for one forecast year. Year is 1-based; 0
// applies the value to every year.
type Override struct {
	Key   string
	Year  int
	Value float64
}

type driverField struct {
	percent bool // Table values are written in %, e.g. 12.5 for 0.125
	set     func(d *models.DriverAssumptions, v float64)
}

// driverFields is keyed by the canonical driver name (the yaml tag).
var driverFields = map[string]driverField{
	"revenue_growth":         {true, func(d *models.DriverAssumptions, v float64) { d.RevenueGrowth = v }},
	"cogs_percent":           {true, func(d *models.DriverAssumptions, v float64) { d.COGSPercent = v }},
	"sga_percent":            {true, func(d *models.DriverAssumptions, v float64) { d.SGAPercent = v }},
	"rd_percent":             {true, func(d *models.DriverAssumptions, v float64) { d.RDPercent = v }},
	"stock_comp_percent":     {true, func(d *models.DriverAssumptions, v float64) { d.StockCompPercent = v }},
	"tax_rate":               {true, func(d *models.DriverAssumptions, v float64) { d.TaxRate = v }},
	"receivable_days":        {false, func(d *models.DriverAssumptions, v float64) { d.ReceivableDays = v }},
	"inventory_days":         {false, func(d *models.DriverAssumptions, v float64) { d.InventoryDays = v }},
	"payable_days":           {false, func(d *models.DriverAssumptions, v float64) { d.PayableDays = v }},
	"accrued_days":           {false, func(d *models.DriverAssumptions, v float64) { d.AccruedDays = v }},
	"capex_percent":          {true, func(d *models.DriverAssumptions, v float64) { d.CapexPercent = v }},
	"useful_life":            {false, func(d *models.DriverAssumptions, v float64) { d.UsefulLife = v }},
	"debt_interest_rate":     {true, func(d *models.DriverAssumptions, v float64) { d.DebtInterestRate = v }},
	"cash_interest_rate":     {true, func(d *models.DriverAssumptions, v float64) { d.CashInterestRate = v }},
	"mandatory_amortization": {false, func(d *models.DriverAssumptions, v float64) { d.MandatoryAmortization = v }},
	"dividend_payout":        {true, func(d *models.DriverAssumptions, v float64) { d.DividendPayout = v }},
	"revolver_interest_rate": {true, func(d *models.DriverAssumptions, v float64) { revolver(d).InterestRate = v }},
	"minimum_cash":           {false, func(d *models.DriverAssumptions, v float64) { revolver(d).MinimumCash = v }},
}

// driverAliases maps shorthand used in analyst tables to canonical names.
var driverAliases = map[string]string{
	"rev_growth":    "revenue_growth",
	"growth":        "revenue_growth",
	"cogs":          "cogs_percent",
	"sga":           "sga_percent",
	"rd":            "rd_percent",
	"r&d":           "rd_percent",
	"sbc":           "stock_comp_percent",
	"stock_comp":    "stock_comp_percent",
	"tax":           "tax_rate",
	"dso":           "receivable_days",
	"dio":           "inventory_days",
	"dpo":           "payable_days",
	"capex":         "capex_percent",
	"life":          "useful_life",
	"debt_rate":     "debt_interest_rate",
	"cash_rate":     "cash_interest_rate",
	"amortization":  "mandatory_amortization",
	"payout":        "dividend_payout",
	"revolver_rate": "revolver_interest_rate",
	"min_cash":      "minimum_cash",
}

func revolver(d *models.DriverAssumptions) *models.RevolverPolicy {
	if d.Revolver == nil {
		d.Revolver = &models.RevolverPolicy{}
	}
	return d.Revolver
}

// CanonicalKey resolves a table key to its canonical driver name.
func CanonicalKey(key string) (string, bool) {
	k := strings.ToLower(strings.TrimSpace(key))
	k = strings.NewReplacer(" ", "_", "-", "_").Replace(k)
	if alias, ok := driverAliases[k]; ok {
		k = alias
	}
	_, ok := driverFields[k]
	return k, ok
}

// ParseDriverTable extracts overrides from the first GFM table in a
// Markdown document that has "key" and "value" columns. An optional
// "year" column holds a 1-based forecast year, or "all".
func ParseDriverTable(markdown string) ([]Override, error) {
	source := []byte(markdown)
	md := goldmark.New(goldmark.WithExtensions(extension.Table))
	doc := md.Parser().Parse(text.NewReader(source))

	var (
		overrides []Override
		parseErr  error
		found     bool
	)
	walkErr := ast.Walk(doc, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering || found {
			return ast.WalkContinue, nil
		}
		table, ok := n.(*east.Table)
		if !ok {
			return ast.WalkContinue, nil
		}
		rows := tableRows(table, source)
		if len(rows) == 0 {
			return ast.WalkSkipChildren, nil
		}
		cols := columnIndex(rows[0])
		if cols.key < 0 || cols.value < 0 {
			return ast.WalkSkipChildren, nil
		}
		found = true
		overrides, parseErr = parseRows(rows[1:], cols)
		return ast.WalkStop, nil
	})
	if walkErr != nil {
		return nil, walkErr
	}
	if parseErr != nil {
		return nil, parseErr
	}
	if !found {
		return nil, ErrNoDriverTable
	}
	return overrides, nil
}

type columns struct{ key, year, value int }

func columnIndex(header []string) columns {
	cols := columns{-1, -1, -1}
	for i, h := range header {
		switch strings.ToLower(strings.TrimSpace(h)) {
		case "key", "driver":
			cols.key = i
		case "year":
			cols.year = i
		case "value":
			cols.value = i
		}
	}
	return cols
}

func parseRows(rows [][]string, cols columns) ([]Override, error) {
	out := make([]Override, 0, len(rows))
	for line, row := range rows {
		cell := func(i int) string {
			if i < 0 || i >= len(row) {
				return ""
			}
			return strings.TrimSpace(row[i])
		}

		key, ok := CanonicalKey(cell(cols.key))
		if !ok {
			return nil, fmt.Errorf("row %d: %w %q", line+1, ErrUnknownDriverKey, cell(cols.key))
		}

		year := 0
		if y := strings.ToLower(cell(cols.year)); y != "" && y != "all" && y != "*" {
			n, err := strconv.Atoi(y)
			if err != nil || n < 1 {
				return nil, fmt.Errorf("row %d: invalid year %q", line+1, cell(cols.year))
			}
			year = n
		}

		raw := strings.TrimSuffix(strings.ReplaceAll(cell(cols.value), ",", ""), "%")
		v, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
		if err != nil {
			return nil, fmt.Errorf("row %d: invalid value %q", line+1, cell(cols.value))
		}
		if driverFields[key].percent {
			v /= 100
		}
		out = append(out, Override{Key: key, Year: year, Value: v})
	}
	return out, nil
}

// tableRows flattens a table into header + body rows of cell text.
func tableRows(table *east.Table, source []byte) [][]string {
	var rows [][]string
	for r := table.FirstChild(); r != nil; r = r.NextSibling() {
		var cells []string
		for c := r.FirstChild(); c != nil; c = c.NextSibling() {
			cells = append(cells, inlineText(c, source))
		}
		rows = append(rows, cells)
	}
	return rows
}

func inlineText(n ast.Node, source []byte) string {
	var sb strings.Builder
	_ = ast.Walk(n, func(c ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}
		switch t := c.(type) {
		case *ast.Text:
			sb.Write(t.Segment.Value(source))
		case *ast.String:
			sb.Write(t.Value)
		}
		return ast.WalkContinue, nil
	})
	return sb.String()
}

// ApplyOverrides returns a copy of drivers with the overrides applied in order.
func ApplyOverrides(drivers []models.DriverAssumptions, overrides []Override) ([]models.DriverAssumptions, error) {
	out := models.CloneDrivers(drivers)
	for _, o := range overrides {
		field, ok := driverFields[o.Key]
		if !ok {
			return nil, fmt.Errorf("%w %q", ErrUnknownDriverKey, o.Key)
		}
		if o.Year > len(out) {
			return nil, fmt.Errorf("override %s for year %d beyond %d-year driver set", o.Key, o.Year, len(out))
		}
		if o.Year == 0 {
			for i := range out {
				field.set(&out[i], o.Value)
			}
			continue
		}
		field.set(&out[o.Year-1], o.Value)
	}
	return out, nil
}

// ApplyDriverTable parses a Markdown driver table and applies it to a copy of drivers.
func ApplyDriverTable(markdown string, drivers []models.DriverAssumptions) ([]models.DriverAssumptions, error) {
	overrides, err := ParseDriverTable(markdown)
	if err != nil {
		return nil, err
	}
	return ApplyOverrides(drivers, overrides)
}
