package recurring

import (
	"github.com/shopspring/decimal"

	"github.com/extrato-dev/extrato/internal/model"
)

// DefaultVariancePct is the change, in percent, that flags a recurring item.
var DefaultVariancePct = decimal.NewFromInt(20)

// Variation is a recurring charge whose amount this month moved away from
// its historical average.
type Variation struct {
	NormalizedDescription string
	Description           string
	Current               decimal.Decimal
	Average               decimal.Decimal
	Pct                   decimal.Decimal
}

// Increase reports whether the charge went up.
func (v Variation) Increase() bool {
	return v.Pct.IsPositive()
}

// ItemVariances compares each active item with a positive average against
// its latest charge in month and returns those with |change| >= thresholdPct,
// in item order.
func ItemVariances(items []model.RecurringItem, txns []model.Transaction, month model.Month, thresholdPct decimal.Decimal) []Variation {
	latest := make(map[string]model.Transaction)
	for _, t := range txns {
		if t.ReferenceMonth != month || !t.IsExpense() {
			continue
		}
		if cur, ok := latest[t.NormalizedDescription]; !ok || !t.PurchaseDate.Before(cur.PurchaseDate) {
			latest[t.NormalizedDescription] = t
		}
	}

	var out []Variation
	for _, it := range items {
		if !it.Active || !it.AverageAmount.IsPositive() {
			continue
		}
		t, ok := latest[it.NormalizedDescription]
		if !ok {
			continue
		}
		pct := pctChange(t.Amount, it.AverageAmount)
		if pct.Abs().LessThan(thresholdPct) {
			continue
		}
		out = append(out, Variation{
			NormalizedDescription: it.NormalizedDescription,
			Description:           t.Description,
			Current:               t.Amount,
			Average:               it.AverageAmount,
			Pct:                   pct,
		})
	}
	return out
}

// HistoryPoint splits one month's card spend into recurring and variable.
type HistoryPoint struct {
	Month     model.Month
	Total     decimal.Decimal
	Recurring decimal.Decimal
	Variable  decimal.Decimal
}

// History computes a HistoryPoint for each month, in the order given.
// Recurring spend is that of active items.
func History(months []model.Month, txns []model.Transaction, items []model.RecurringItem) []HistoryPoint {
	active := make(map[string]bool, len(items))
	for _, it := range items {
		if it.Active {
			active[it.NormalizedDescription] = true
		}
	}

	points := make([]HistoryPoint, len(months))
	index := make(map[model.Month]int, len(months))
	for i, m := range months {
		points[i] = HistoryPoint{Month: m, Total: decimal.Zero, Recurring: decimal.Zero, Variable: decimal.Zero}
		index[m] = i
	}
	for _, t := range txns {
		i, ok := index[t.ReferenceMonth]
		if !ok || !t.IsExpense() {
			continue
		}
		points[i].Total = points[i].Total.Add(t.Amount)
		if active[t.NormalizedDescription] {
			points[i].Recurring = points[i].Recurring.Add(t.Amount)
		}
	}
	for i := range points {
		v := points[i].Total.Sub(points[i].Recurring)
		if v.IsNegative() {
			v = decimal.Zero
		}
		points[i].Variable = v
	}
	return points
}
