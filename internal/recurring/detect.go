// Package recurring detects recurring card charges and assembles the
// recurring list of a month from history, manual declarations and
// installment plans.
package recurring

import (
	"cmp"
	"slices"

	"github.com/shopspring/decimal"

	"github.com/extrato-dev/extrato/internal/model"
)

// DefaultMinMonths is the number of distinct reference months that makes a
// description recurring.
const DefaultMinMonths = 2

var hundred = decimal.NewFromInt(100)

type group struct {
	months  map[model.Month]bool
	sum     decimal.Decimal
	n       int
	latest  model.Transaction
	first   model.Transaction
	lastCat string
}

// Detect groups positive card transactions by normalized description and
// returns the groups seen in at least minMonths distinct reference months,
// largest average first. Rows in the same month count once.
func Detect(history []model.Transaction, minMonths int) []model.RecurringItem {
	if minMonths < 1 {
		minMonths = DefaultMinMonths
	}

	groups := make(map[string]*group)
	for _, t := range history {
		if !t.IsExpense() || t.NormalizedDescription == "" {
			continue
		}
		g, ok := groups[t.NormalizedDescription]
		if !ok {
			g = &group{months: make(map[model.Month]bool), latest: t, first: t}
			groups[t.NormalizedDescription] = g
		}
		g.months[t.ReferenceMonth] = true
		g.sum = g.sum.Add(t.Amount)
		g.n++
		if !t.PurchaseDate.Before(g.latest.PurchaseDate) {
			g.latest = t
		}
		if t.PurchaseDate.Before(g.first.PurchaseDate) {
			g.first = t
		}
		if t.Category != "" && !t.PurchaseDate.Before(g.latest.PurchaseDate) {
			g.lastCat = t.Category
		}
	}

	var items []model.RecurringItem
	for norm, g := range groups {
		if len(g.months) < minMonths {
			continue
		}
		avg := g.sum.DivRound(decimal.NewFromInt(int64(g.n)), 2)
		items = append(items, model.RecurringItem{
			NormalizedDescription: norm,
			Description:           g.latest.Description,
			Category:              cmp.Or(g.lastCat, g.latest.Category),
			AverageAmount:         avg,
			LatestAmount:          g.latest.Amount,
			VariancePct:           pctChange(g.latest.Amount, avg),
			FirstSeen:             g.first.PurchaseDate,
			LastSeen:              g.latest.PurchaseDate,
			MonthCount:            len(g.months),
			Active:                true,
		})
	}
	slices.SortFunc(items, func(a, b model.RecurringItem) int {
		if c := b.AverageAmount.Cmp(a.AverageAmount); c != 0 {
			return c
		}
		return cmp.Compare(a.NormalizedDescription, b.NormalizedDescription)
	})
	return items
}

// Set returns the normalized descriptions of items.
func Set(items []model.RecurringItem) map[string]bool {
	s := make(map[string]bool, len(items))
	for _, it := range items {
		s[it.NormalizedDescription] = true
	}
	return s
}

// pctChange returns (cur-base)/base*100 rounded to cents, or zero when base
// is zero.
func pctChange(cur, base decimal.Decimal) decimal.Decimal {
	if base.IsZero() {
		return decimal.Zero
	}
	return cur.Sub(base).Mul(hundred).DivRound(base, 2)
}
