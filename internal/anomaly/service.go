package anomaly

import (
	"context"

	"github.com/shopspring/decimal"

	"github.com/extrato-dev/extrato/internal/model"
	"github.com/extrato-dev/extrato/internal/store"
)

// Store is the persistence the anomaly service reads. *store.Store
// satisfies it.
type Store interface {
	DistinctMonths(ctx context.Context, kinds ...model.Kind) ([]model.Month, error)
	CategoryTotals(ctx context.Context, months []model.Month) ([]store.Total, error)
	SubcategoryTotals(ctx context.Context, months []model.Month, category string) ([]store.Total, error)
	CategoryAverages(ctx context.Context) (map[string]decimal.Decimal, error)
	DescriptionsBefore(ctx context.Context, m model.Month) (map[string]bool, error)
	Transactions(ctx context.Context, f store.Filter) ([]model.Transaction, error)
}

// Service computes anomaly reports from a Store.
type Service struct {
	store Store
	th    Thresholds
}

// NewService returns a Service using th.
func NewService(s Store, th Thresholds) *Service {
	return &Service{store: s, th: th}
}

// Report gathers every check for one month.
type Report struct {
	Month             model.Month
	Trailing          []model.Month
	Spikes            []Spike
	HighValue         []HighValue
	NewSuppliers      []model.Transaction
	MonthOverMonth    []Change
	CategoryIncreases []Change
}

// Month runs every check for m.
func (s *Service) Month(ctx context.Context, m model.Month) (*Report, error) {
	months, err := s.store.DistinctMonths(ctx, model.KindCard)
	if err != nil {
		return nil, err
	}
	trailing := TrailingMonths(months, m, s.th.TrailingWindow)

	totals, err := s.totals(ctx, append([]model.Month{m, m.Prev()}, trailing...), "")
	if err != nil {
		return nil, err
	}
	averages, err := s.store.CategoryAverages(ctx)
	if err != nil {
		return nil, err
	}
	seen, err := s.store.DescriptionsBefore(ctx, m)
	if err != nil {
		return nil, err
	}
	txns, err := s.store.Transactions(ctx, store.Filter{Months: []model.Month{m}, Expenses: true})
	if err != nil {
		return nil, err
	}

	changes := MonthOverMonth(totals, m)
	return &Report{
		Month:             m,
		Trailing:          trailing,
		Spikes:            CategorySpikes(totals, m, trailing, s.th),
		HighValue:         HighValueTransactions(txns, averages, s.th),
		NewSuppliers:      NewSuppliers(txns, seen),
		MonthOverMonth:    changes,
		CategoryIncreases: CategoryIncreases(changes, s.th),
	}, nil
}

// Subcategories compares the subcategories of category in m.
func (s *Service) Subcategories(ctx context.Context, m model.Month, category string) ([]SubcategoryChange, error) {
	months, err := s.store.DistinctMonths(ctx, model.KindCard)
	if err != nil {
		return nil, err
	}
	trailing := TrailingMonths(months, m, s.th.TrailingWindow)
	totals, err := s.totals(ctx, append([]model.Month{m, m.Prev()}, trailing...), category)
	if err != nil {
		return nil, err
	}
	return SubcategoryVariance(totals, m, trailing), nil
}

// totals loads category totals, or subcategory totals of category when it
// is set.
func (s *Service) totals(ctx context.Context, months []model.Month, category string) (Totals, error) {
	var rows []store.Total
	var err error
	if category == "" {
		rows, err = s.store.CategoryTotals(ctx, months)
	} else {
		rows, err = s.store.SubcategoryTotals(ctx, months, category)
	}
	if err != nil {
		return nil, err
	}
	t := make(Totals)
	for _, r := range rows {
		t.Add(r.Month, r.Key, r.Total)
	}
	return t, nil
}
