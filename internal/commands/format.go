package commands

import (
	"github.com/fatih/color"
	"github.com/shopspring/decimal"

	"github.com/extrato-dev/extrato/internal/money"
)

var (
	warn    = color.New(color.FgYellow)
	alert   = color.New(color.FgRed, color.Bold)
	good    = color.New(color.FgGreen)
	heading = color.New(color.Bold)
)

func decimalFromFloat(f float64) decimal.Decimal {
	return decimal.NewFromFloat(f)
}

// brl renders an amount as "R$ 1.234,56".
func brl(d decimal.Decimal) string {
	return "R$ " + money.FormatBR(d)
}

// pct renders a signed percentage, colored by direction.
func pct(d decimal.Decimal) string {
	s := d.StringFixed(1) + "%"
	switch {
	case d.IsPositive():
		return alert.Sprint("+" + s)
	case d.IsNegative():
		return good.Sprint(s)
	}
	return s
}
