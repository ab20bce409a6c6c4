// Package report renders a built model as Markdown or HTML statements.
package report

import (
	"fmt"
	"math"
	"strings"

	"statement_engine/pkg/core/calc"
	"statement_engine/pkg/models"

	"github.com/shopspring/decimal"
)

// Decimals is the number of decimal places shown for amounts.
const Decimals = 1

// Options controls rendering.
type Options struct {
	Title    string // Top-level heading; omitted when empty
	Currency string // Shown next to each statement title, e.g. "USD"
	Ratios   bool   // Append a key ratios table
}

// Markdown renders the three statements plus a per-period model check as
// GFM tables. Subtotals are bold; negatives are in parentheses.
func Markdown(result *models.ModelResult, opts Options) string {
	var sb strings.Builder
	if opts.Title != "" {
		fmt.Fprintf(&sb, "# %s\n\n", opts.Title)
	}

	for _, table := range []models.StatementTable{result.IncomeStatement, result.BalanceSheet, result.CashFlow} {
		writeStatement(&sb, table, opts.Currency)
	}
	if opts.Ratios {
		writeStatement(&sb, calc.RatioTable(calc.AnalyzeModel(result)), "")
	}
	writeModelCheck(&sb, result)
	return sb.String()
}

func writeStatement(sb *strings.Builder, table models.StatementTable, currency string) {
	title := table.Title
	if currency != "" {
		title = fmt.Sprintf("%s (%s)", title, currency)
	}
	fmt.Fprintf(sb, "## %s\n\n", title)

	sb.WriteString("| Line item |")
	for _, col := range table.Columns {
		fmt.Fprintf(sb, " %s |", col)
	}
	sb.WriteString("\n|---|")
	for range table.Columns {
		sb.WriteString("---:|")
	}
	sb.WriteString("\n")

	for _, row := range table.Rows {
		fmt.Fprintf(sb, "| %s |", emphasise(escapeCell(row.Label), row.Total))
		for _, v := range row.Values {
			fmt.Fprintf(sb, " %s |", emphasise(FormatAmount(v), row.Total))
		}
		sb.WriteString("\n")
	}
	sb.WriteString("\n")
}

func writeModelCheck(sb *strings.Builder, result *models.ModelResult) {
	sb.WriteString("## Model Check\n\n")
	status := "all periods balance"
	if !result.AllPeriodsBalanced {
		status = "**NOT BALANCED**"
	}
	fmt.Fprintf(sb, "Status: %s. Max balance error: %s.\n\n", status, fixed(result.MaxBalanceError, 4))

	sb.WriteString("| Period | Balanced | Balance Error | Iterations | Converged |\n")
	sb.WriteString("|---|:---:|---:|---:|:---:|\n")
	for _, p := range result.Periods {
		iterations := "-"
		if !p.Historical {
			iterations = fmt.Sprintf("%d", p.Iterations)
		}
		fmt.Fprintf(sb, "| %s | %s | %s | %s | %s |\n",
			p.Label, yesNo(p.BalanceCheck), fixed(p.BalanceError, 4), iterations, yesNo(p.Converged))
	}
	sb.WriteString("\n")
}

// FormatAmount renders v with thousands separators at Decimals places,
// negatives in parentheses: -1234.56 -> (1,234.6).
func FormatAmount(v float64) string {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return "n/a"
	}
	d := decimal.NewFromFloat(v).Round(Decimals)
	if d.IsZero() {
		return decimal.Zero.StringFixed(Decimals)
	}

	s := d.Abs().StringFixed(Decimals)
	intPart, frac, _ := strings.Cut(s, ".")
	out := groupThousands(intPart)
	if frac != "" {
		out += "." + frac
	}
	if d.IsNegative() {
		return "(" + out + ")"
	}
	return out
}

func fixed(v float64, places int32) string {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return "n/a"
	}
	return decimal.NewFromFloat(v).StringFixed(places)
}

func groupThousands(digits string) string {
	if len(digits) <= 3 {
		return digits
	}
	var sb strings.Builder
	lead := len(digits) % 3
	if lead > 0 {
		sb.WriteString(digits[:lead])
	}
	for i := lead; i < len(digits); i += 3 {
		if sb.Len() > 0 {
			sb.WriteByte(',')
		}
		sb.WriteString(digits[i : i+3])
	}
	return sb.String()
}

func emphasise(s string, bold bool) string {
	if bold {
		return "**" + s + "**"
	}
	return s
}

func escapeCell(s string) string {
	return strings.ReplaceAll(s, "|", `\|`)
}

func yesNo(ok bool) string {
	if ok {
		return "yes"
	}
	return "no"
}
