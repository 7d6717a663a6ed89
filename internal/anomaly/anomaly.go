// Package anomaly flags unusual spending: category totals far above their
// trailing mean, transactions far above their category average, first-time
// suppliers and month-over-month category changes.
package anomaly

import (
	"cmp"
	"slices"

	"github.com/shopspring/decimal"

	"github.com/extrato-dev/extrato/internal/config"
	"github.com/extrato-dev/extrato/internal/model"
)

var hundred = decimal.NewFromInt(100)

// NoSubcategory labels totals of transactions without a subcategory.
const NoSubcategory = "(none)"

// Thresholds tunes the checks. The zero value is not useful; start from
// DefaultThresholds or FromConfig.
type Thresholds struct {
	SpikeFactor         decimal.Decimal
	SpikeFloor          decimal.Decimal
	HighValueFactor     decimal.Decimal
	CategoryIncreasePct decimal.Decimal
	TrailingWindow      int
	// HighValueLimit caps the number of unusually high transactions.
	HighValueLimit int
}

// DefaultThresholds returns the built-in thresholds.
func DefaultThresholds() Thresholds {
	return FromConfig(config.Default().Thresholds)
}

// FromConfig converts the configured thresholds.
func FromConfig(c config.ThresholdsConfig) Thresholds {
	return Thresholds{
		SpikeFactor:         decimal.NewFromFloat(c.SpikeFactor),
		SpikeFloor:          decimal.NewFromFloat(c.SpikeFloor),
		HighValueFactor:     decimal.NewFromFloat(c.HighValueFactor),
		CategoryIncreasePct: decimal.NewFromFloat(c.CategoryIncreasePct),
		TrailingWindow:      c.TrailingWindow,
		HighValueLimit:      10,
	}
}

// Totals maps month then key to a summed amount.
type Totals map[model.Month]map[string]decimal.Decimal

// Add accumulates amount under month and key.
func (t Totals) Add(m model.Month, key string, amount decimal.Decimal) {
	byKey, ok := t[m]
	if !ok {
		byKey = make(map[string]decimal.Decimal)
		t[m] = byKey
	}
	byKey[key] = byKey[key].Add(amount)
}

// Get returns the total of key in m, zero when absent.
func (t Totals) Get(m model.Month, key string) decimal.Decimal {
	return t[m][key]
}

// TrailingMonths returns up to window of the months strictly before current,
// nearest last. months need not be sorted.
func TrailingMonths(months []model.Month, current model.Month, window int) []model.Month {
	var before []model.Month
	for _, m := range months {
		if m.Before(current) {
			before = append(before, m)
		}
	}
	slices.SortFunc(before, func(a, b model.Month) int {
		return cmp.Compare(a.String(), b.String())
	})
	before = slices.Compact(before)
	if window > 0 && len(before) > window {
		before = before[len(before)-window:]
	}
	return before
}

// mean averages key over months; a month without key counts as zero.
func (t Totals) mean(months []model.Month, key string) decimal.Decimal {
	if len(months) == 0 {
		return decimal.Zero
	}
	sum := decimal.Zero
	for _, m := range months {
		sum = sum.Add(t.Get(m, key))
	}
	return sum.DivRound(decimal.NewFromInt(int64(len(months))), 2)
}

// Spike is a category whose month total rose well above its trailing mean.
type Spike struct {
	Category string
	Current  decimal.Decimal
	Mean     decimal.Decimal
	Pct      decimal.Decimal
}

// CategorySpikes flags categories of current whose total exceeds both
// SpikeFactor times the trailing mean and SpikeFloor. Largest first.
func CategorySpikes(totals Totals, current model.Month, trailing []model.Month, th Thresholds) []Spike {
	if len(trailing) == 0 {
		return nil
	}
	var out []Spike
	for cat, cur := range totals[current] {
		mean := totals.mean(trailing, cat)
		if !cur.GreaterThan(mean.Mul(th.SpikeFactor)) || !cur.GreaterThan(th.SpikeFloor) {
			continue
		}
		out = append(out, Spike{Category: cat, Current: cur, Mean: mean, Pct: pctChange(cur, mean)})
	}
	slices.SortFunc(out, func(a, b Spike) int {
		if c := b.Current.Cmp(a.Current); c != 0 {
			return c
		}
		return cmp.Compare(a.Category, b.Category)
	})
	return out
}

// HighValue is a transaction far above its category's average amount.
type HighValue struct {
	Transaction model.Transaction
	Average     decimal.Decimal
}

// HighValueTransactions returns the card expenses of txns whose amount
// exceeds HighValueFactor times their category's all-time average, largest
// first, at most HighValueLimit of them.
func HighValueTransactions(txns []model.Transaction, averages map[string]decimal.Decimal, th Thresholds) []HighValue {
	var out []HighValue
	for _, t := range txns {
		if !t.IsExpense() {
			continue
		}
		avg, ok := averages[t.Category]
		if !ok || !avg.IsPositive() {
			continue
		}
		if t.Amount.GreaterThan(avg.Mul(th.HighValueFactor)) {
			out = append(out, HighValue{Transaction: t, Average: avg})
		}
	}
	slices.SortStableFunc(out, func(a, b HighValue) int {
		return b.Transaction.Amount.Cmp(a.Transaction.Amount)
	})
	if th.HighValueLimit > 0 && len(out) > th.HighValueLimit {
		out = out[:th.HighValueLimit]
	}
	return out
}

// NewSuppliers returns the card expenses of txns whose normalized
// description was never seen before, one per description, largest first.
func NewSuppliers(txns []model.Transaction, seenBefore map[string]bool) []model.Transaction {
	var out []model.Transaction
	added := make(map[string]bool)
	for _, t := range txns {
		if !t.IsExpense() || seenBefore[t.NormalizedDescription] || added[t.NormalizedDescription] {
			continue
		}
		added[t.NormalizedDescription] = true
		out = append(out, t)
	}
	slices.SortStableFunc(out, func(a, b model.Transaction) int {
		return b.Amount.Cmp(a.Amount)
	})
	return out
}

// Change compares a key's total in two months.
type Change struct {
	Key      string
	Current  decimal.Decimal
	Previous decimal.Decimal
	Pct      decimal.Decimal
}

// MonthOverMonth compares every key of current against the previous
// calendar month. A key new this month reports +100%. Keys are sorted by
// current total, largest first.
func MonthOverMonth(totals Totals, current model.Month) []Change {
	prev := current.Prev()
	keys := make(map[string]bool)
	for k := range totals[current] {
		keys[k] = true
	}
	for k := range totals[prev] {
		keys[k] = true
	}

	out := make([]Change, 0, len(keys))
	for k := range keys {
		cur, old := totals.Get(current, k), totals.Get(prev, k)
		pct := pctChange(cur, old)
		if old.IsZero() && !cur.IsZero() {
			pct = hundred
		}
		out = append(out, Change{Key: k, Current: cur, Previous: old, Pct: pct})
	}
	slices.SortFunc(out, func(a, b Change) int {
		if c := b.Current.Cmp(a.Current); c != 0 {
			return c
		}
		return cmp.Compare(a.Key, b.Key)
	})
	return out
}

// CategoryIncreases returns the changes whose previous total was positive
// and that grew by more than CategoryIncreasePct.
func CategoryIncreases(changes []Change, th Thresholds) []Change {
	var out []Change
	for _, c := range changes {
		if c.Previous.IsPositive() && c.Pct.GreaterThan(th.CategoryIncreasePct) {
			out = append(out, c)
		}
	}
	return out
}

// SubcategoryChange is one subcategory of a category compared to its
// trailing mean and to the previous month.
type SubcategoryChange struct {
	Subcategory string
	Current     decimal.Decimal
	Mean        decimal.Decimal
	MeanPct     decimal.Decimal
	Previous    decimal.Decimal
	PreviousPct decimal.Decimal
}

// SubcategoryVariance compares each subcategory total of current (keys of
// totals are subcategory names; empty means none) against the trailing mean
// and the previous month.
func SubcategoryVariance(totals Totals, current model.Month, trailing []model.Month) []SubcategoryChange {
	prev := current.Prev()
	out := make([]SubcategoryChange, 0, len(totals[current]))
	for sub, cur := range totals[current] {
		mean := totals.mean(trailing, sub)
		old := totals.Get(prev, sub)
		out = append(out, SubcategoryChange{
			Subcategory: cmp.Or(sub, NoSubcategory),
			Current:     cur,
			Mean:        mean,
			MeanPct:     pctChange(cur, mean),
			Previous:    old,
			PreviousPct: pctChange(cur, old),
		})
	}
	slices.SortFunc(out, func(a, b SubcategoryChange) int {
		if c := b.Current.Cmp(a.Current); c != 0 {
			return c
		}
		return cmp.Compare(a.Subcategory, b.Subcategory)
	})
	return out
}

func pctChange(cur, base decimal.Decimal) decimal.Decimal {
	if base.IsZero() {
		return decimal.Zero
	}
	return cur.Sub(base).Mul(hundred).DivRound(base, 2)
}
