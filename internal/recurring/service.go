package recurring

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/extrato-dev/extrato/internal/model"
	"github.com/extrato-dev/extrato/internal/store"
)

// Store is the persistence the recurring service needs. *store.Store
// satisfies it.
type Store interface {
	Transactions(ctx context.Context, f store.Filter) ([]model.Transaction, error)
	DistinctMonths(ctx context.Context, kinds ...model.Kind) ([]model.Month, error)
	RecurringItems(ctx context.Context) ([]model.RecurringItem, error)
	ReplaceRecurringItems(ctx context.Context, items []model.RecurringItem) error
	ManualRecurring(ctx context.Context) ([]model.ManualRecurring, error)
	InstallmentPlans(ctx context.Context) ([]model.InstallmentPlan, error)
}

// Service runs detection against a Store and assembles month reports.
type Service struct {
	store       Store
	minMonths   int
	variancePct decimal.Decimal
}

// NewService returns a Service. Non-positive minMonths and variancePct fall
// back to the defaults.
func NewService(s Store, minMonths int, variancePct decimal.Decimal) *Service {
	if minMonths < 1 {
		minMonths = DefaultMinMonths
	}
	if !variancePct.IsPositive() {
		variancePct = DefaultVariancePct
	}
	return &Service{store: s, minMonths: minMonths, variancePct: variancePct}
}

// Refresh recomputes the recurring cache from the full card history.
func (s *Service) Refresh(ctx context.Context) ([]model.RecurringItem, error) {
	history, err := s.store.Transactions(ctx, store.Filter{Kinds: []model.Kind{model.KindCard}})
	if err != nil {
		return nil, err
	}
	items := Detect(history, s.minMonths)
	if err := s.store.ReplaceRecurringItems(ctx, items); err != nil {
		return nil, err
	}
	zerolog.Ctx(ctx).Info().
		Int("transactions", len(history)).
		Int("items", len(items)).
		Msg("recurring cache refreshed")
	// Re-read so preserved active flags are reflected.
	return s.store.RecurringItems(ctx)
}

// detect runs detection over the stored card history. Active flags come
// from the cache. Items the cache has not seen yet are active.
func (s *Service) detect(ctx context.Context) ([]model.RecurringItem, error) {
	history, err := s.store.Transactions(ctx, store.Filter{Kinds: []model.Kind{model.KindCard}})
	if err != nil {
		return nil, fmt.Errorf("loading card history: %w", err)
	}
	cached, err := s.store.RecurringItems(ctx)
	if err != nil {
		return nil, err
	}
	active := make(map[string]bool, len(cached))
	for _, it := range cached {
		active[it.NormalizedDescription] = it.Active
	}
	items := Detect(history, s.minMonths)
	for i := range items {
		if a, ok := active[items[i].NormalizedDescription]; ok {
			items[i].Active = a
		}
	}
	return items, nil
}

// MonthReport is the recurring view of one month.
type MonthReport struct {
	Month        model.Month
	Monthly      []Entry
	Installments []Entry
	Total        decimal.Decimal
	// Expenses is the month's total card spend.
	Expenses decimal.Decimal
	// SharePct is Total over Expenses, zero when there is no spend.
	SharePct decimal.Decimal
}

// Month assembles the recurring list of m from the stored history. Every entry is annotated with the
// amount the same description had in the previous month's list.
func (s *Service) Month(ctx context.Context, m model.Month) (*MonthReport, error) {
	txns, err := s.store.Transactions(ctx, store.Filter{Months: []model.Month{m, m.Prev()}, Expenses: true})
	if err != nil {
		return nil, err
	}
	detected, err := s.detect(ctx)
	if err != nil {
		return nil, err
	}
	manual, err := s.store.ManualRecurring(ctx)
	if err != nil {
		return nil, err
	}
	plans, err := s.store.InstallmentPlans(ctx)
	if err != nil {
		return nil, err
	}

	in := MonthInput{Month: m, Transactions: txns, Detected: detected, Manual: manual, Plans: plans}
	entries := ForMonth(in)
	in.Month = m.Prev()
	previous := make(map[string]decimal.Decimal)
	for _, e := range ForMonth(in) {
		if _, ok := previous[e.NormalizedDescription]; !ok {
			previous[e.NormalizedDescription] = e.Amount
		}
	}

	report := &MonthReport{Month: m, Expenses: decimal.Zero}
	for _, e := range entries {
		if prev, ok := previous[e.NormalizedDescription]; ok {
			e.PreviousAmount = decimal.NewNullDecimal(prev)
			if !prev.IsZero() {
				e.ChangePct = decimal.NewNullDecimal(pctChange(e.Amount, prev))
			}
		}
		if e.IsInstallment() {
			report.Installments = append(report.Installments, e)
		} else {
			report.Monthly = append(report.Monthly, e)
		}
	}
	report.Total = Total(entries)
	for _, t := range txns {
		if t.ReferenceMonth == m {
			report.Expenses = report.Expenses.Add(t.Amount)
		}
	}
	report.SharePct = decimal.Zero
	if report.Expenses.IsPositive() {
		report.SharePct = report.Total.Mul(hundred).DivRound(report.Expenses, 2)
	}
	return report, nil
}

// Variations returns the active recurring items whose charge in m moved
// from their average by the configured percentage or more.
func (s *Service) Variations(ctx context.Context, m model.Month) ([]Variation, error) {
	items, err := s.detect(ctx)
	if err != nil {
		return nil, err
	}
	txns, err := s.store.Transactions(ctx, store.Filter{Months: []model.Month{m}, Expenses: true})
	if err != nil {
		return nil, err
	}
	return ItemVariances(items, txns, m, s.variancePct), nil
}

// History returns the recurring/variable split of the last limit card
// months, oldest first. A non-positive limit means all months.
func (s *Service) History(ctx context.Context, limit int) ([]HistoryPoint, error) {
	months, err := s.store.DistinctMonths(ctx, model.KindCard)
	if err != nil {
		return nil, err
	}
	if limit > 0 && len(months) > limit {
		months = months[len(months)-limit:]
	}
	if len(months) == 0 {
		return nil, nil
	}
	items, err := s.detect(ctx)
	if err != nil {
		return nil, err
	}
	txns, err := s.store.Transactions(ctx, store.Filter{Months: months, Expenses: true})
	if err != nil {
		return nil, fmt.Errorf("loading history: %w", err)
	}
	return History(months, txns, items), nil
}
