// Package summary totals a month of card or account transactions.
package summary

import (
	"cmp"
	"context"
	"slices"

	"github.com/shopspring/decimal"

	"github.com/extrato-dev/extrato/internal/model"
	"github.com/extrato-dev/extrato/internal/store"
)

// CategoryLine is one category of a card summary.
type CategoryLine struct {
	Category string
	Count    int
	Total    decimal.Decimal
	Average  decimal.Decimal
}

// Card summarizes a month of card transactions.
type Card struct {
	Month model.Month
	// Total is expenses plus refunds.
	Total    decimal.Decimal
	Expenses decimal.Decimal
	// Refunds is the (negative) sum of refunded amounts.
	Refunds    decimal.Decimal
	Count      int
	Categories []CategoryLine
}

// Uncategorized labels expenses without a category.
const Uncategorized = "Sem categoria"

// CardMonth summarizes the card transactions of txns that belong to m.
// Categories cover expenses only, largest total first.
func CardMonth(m model.Month, txns []model.Transaction) Card {
	c := Card{Month: m, Total: decimal.Zero, Expenses: decimal.Zero, Refunds: decimal.Zero}
	lines := make(map[string]*CategoryLine)
	for _, t := range txns {
		if t.ReferenceMonth != m || t.Kind != model.KindCard {
			continue
		}
		c.Count++
		c.Total = c.Total.Add(t.Amount)
		if !t.IsExpense() {
			c.Refunds = c.Refunds.Add(t.Amount)
			continue
		}
		c.Expenses = c.Expenses.Add(t.Amount)
		name := cmp.Or(t.Category, Uncategorized)
		l, ok := lines[name]
		if !ok {
			l = &CategoryLine{Category: name, Total: decimal.Zero}
			lines[name] = l
		}
		l.Count++
		l.Total = l.Total.Add(t.Amount)
	}
	for _, l := range lines {
		l.Average = l.Total.DivRound(decimal.NewFromInt(int64(l.Count)), 2)
		c.Categories = append(c.Categories, *l)
	}
	slices.SortFunc(c.Categories, func(a, b CategoryLine) int {
		if r := b.Total.Cmp(a.Total); r != 0 {
			return r
		}
		return cmp.Compare(a.Category, b.Category)
	})
	return c
}

// Account summarizes a month of checking-account movements.
type Account struct {
	Month   model.Month
	Credits decimal.Decimal
	// Debits is negative.
	Debits  decimal.Decimal
	Balance decimal.Decimal
	Count   int
}

// AccountMonth summarizes the account transactions of txns that belong to m.
func AccountMonth(m model.Month, txns []model.Transaction) Account {
	a := Account{Month: m, Credits: decimal.Zero, Debits: decimal.Zero}
	for _, t := range txns {
		if t.ReferenceMonth != m || !t.Kind.IsAccount() {
			continue
		}
		a.Count++
		if t.Amount.IsPositive() {
			a.Credits = a.Credits.Add(t.Amount)
		} else {
			a.Debits = a.Debits.Add(t.Amount)
		}
	}
	a.Balance = a.Credits.Add(a.Debits)
	return a
}

// Lister lists transactions. *store.Store satisfies it.
type Lister interface {
	Transactions(ctx context.Context, f store.Filter) ([]model.Transaction, error)
}

// Month loads m and returns both summaries.
func Month(ctx context.Context, l Lister, m model.Month) (Card, Account, error) {
	txns, err := l.Transactions(ctx, store.Filter{Months: []model.Month{m}})
	if err != nil {
		return Card{}, Account{}, err
	}
	return CardMonth(m, txns), AccountMonth(m, txns), nil
}
