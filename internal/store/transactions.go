package store

import (
	"context"
	"errors"
	"fmt"
	"slices"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/extrato-dev/extrato/internal/model"
)

// ImportStats summarizes one ImportBatch call.
type ImportStats struct {
	Inserted   int
	Duplicates int
	// IDs holds the stored identity of each input transaction, in order.
	// Duplicates resolve to the ID of the row already stored.
	IDs []uint
}

// ImportBatch records the upload and inserts txns in one database
// transaction. It returns ErrDuplicateUpload, and stores nothing, when an
// upload with the same hash exists.
func (s *Store) ImportBatch(ctx context.Context, up model.Upload, txns []model.Transaction) (ImportStats, error) {
	var stats ImportStats
	err := s.conn(ctx).Transaction(func(tx *gorm.DB) error {
		row := uploadRow{
			ID:             up.ID,
			FileName:       up.FileName,
			Hash:           up.Hash,
			ReferenceMonth: up.ReferenceMonth.String(),
			Layout:         up.Layout,
		}
		if row.ID == "" {
			row.ID = uuid.NewString()
		}
		res := tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&row)
		if res.Error != nil {
			return fmt.Errorf("recording upload: %w", res.Error)
		}
		if res.RowsAffected == 0 {
			return ErrDuplicateUpload
		}

		for i, t := range txns {
			id, created, err := insertTransaction(tx, t, row.ID)
			if err != nil {
				return fmt.Errorf("inserting transaction %d: %w", i, err)
			}
			stats.IDs = append(stats.IDs, id)
			if created {
				stats.Inserted++
			} else {
				stats.Duplicates++
			}
		}

		if err := tx.Model(&row).Update("count", stats.Inserted).Error; err != nil {
			return fmt.Errorf("updating upload count: %w", err)
		}
		return nil
	})
	if err != nil {
		return ImportStats{}, err
	}
	return stats, nil
}

// InsertTransaction stores t unless a transaction with the same fingerprint
// exists, and returns the stored ID either way.
func (s *Store) InsertTransaction(ctx context.Context, t model.Transaction) (uint, bool, error) {
	var (
		id      uint
		created bool
	)
	err := s.conn(ctx).Transaction(func(tx *gorm.DB) error {
		var err error
		id, created, err = insertTransaction(tx, t, "")
		return err
	})
	return id, created, err
}

// insertTransaction applies the fingerprint check: same purchase date,
// normalized description and reference month, amounts within a cent, and
// equal installments unless one side has none.
func insertTransaction(tx *gorm.DB, t model.Transaction, uploadID string) (uint, bool, error) {
	row := transactionFromModel(t, uploadID)

	var existing transactionRow
	res := tx.Where("purchase_date = ? AND normalized_description = ? AND reference_month = ?",
		row.PurchaseDate, row.NormalizedDescription, row.ReferenceMonth).
		Where("ABS(amount - ?) < 0.01", row.Amount.InexactFloat64()).
		Where("(installment = ? OR installment = '' OR installment IS NULL OR ? = '')", row.Installment, row.Installment).
		Limit(1).Find(&existing)
	if res.Error != nil {
		return 0, false, res.Error
	}
	if res.RowsAffected > 0 {
		return existing.ID, false, nil
	}

	row.ID = 0
	if err := tx.Create(&row).Error; err != nil {
		return 0, false, err
	}
	return row.ID, true, nil
}

// Transaction returns the transaction with id.
func (s *Store) Transaction(ctx context.Context, id uint) (model.Transaction, error) {
	var row transactionRow
	err := s.conn(ctx).First(&row, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return model.Transaction{}, fmt.Errorf("transaction %d: %w", id, ErrNotFound)
	}
	if err != nil {
		return model.Transaction{}, fmt.Errorf("loading transaction %d: %w", id, err)
	}
	return row.toModel()
}

// Filter narrows Transactions. Zero fields match everything.
type Filter struct {
	Months []model.Month
	// Before keeps transactions whose reference month is strictly earlier.
	Before   model.Month
	Kinds    []model.Kind
	Category string
	// Expenses keeps positive card amounts only.
	Expenses      bool
	Uncategorized bool
}

func (f Filter) apply(q *gorm.DB) *gorm.DB {
	if len(f.Months) > 0 {
		q = q.Where("reference_month IN ?", monthStrings(f.Months))
	}
	if !f.Before.IsZero() {
		q = q.Where("reference_month < ?", f.Before.String())
	}
	if len(f.Kinds) > 0 {
		kinds := make([]string, len(f.Kinds))
		for i, k := range f.Kinds {
			kinds[i] = string(k)
		}
		q = q.Where("kind IN ?", kinds)
	}
	if f.Category != "" {
		q = q.Where("category = ?", f.Category)
	}
	if f.Expenses {
		q = q.Where("kind = ? AND amount > 0", string(model.KindCard))
	}
	if f.Uncategorized {
		q = q.Where("(category = '' OR category IS NULL)")
	}
	return q
}

// Transactions returns matching transactions by purchase date.
func (s *Store) Transactions(ctx context.Context, f Filter) ([]model.Transaction, error) {
	var rows []transactionRow
	if err := f.apply(s.conn(ctx)).Order("purchase_date, id").Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("listing transactions: %w", err)
	}
	txns := make([]model.Transaction, 0, len(rows))
	for _, r := range rows {
		t, err := r.toModel()
		if err != nil {
			return nil, err
		}
		txns = append(txns, t)
	}
	return txns, nil
}

// UpdateCategoryByDescription sets the category of every transaction with
// the normalized description and returns how many were touched.
func (s *Store) UpdateCategoryByDescription(ctx context.Context, normalized, category, subcategory string) (int64, error) {
	res := s.conn(ctx).Model(&transactionRow{}).
		Where("normalized_description = ?", normalized).
		Updates(map[string]any{"category": category, "subcategory": subcategory})
	if res.Error != nil {
		return 0, fmt.Errorf("updating category: %w", res.Error)
	}
	return res.RowsAffected, nil
}

// UpdateCategories writes the category fields of txns back by ID.
func (s *Store) UpdateCategories(ctx context.Context, txns []model.Transaction) error {
	return s.conn(ctx).Transaction(func(tx *gorm.DB) error {
		for _, t := range txns {
			err := tx.Model(&transactionRow{ID: t.ID}).
				Updates(map[string]any{"category": t.Category, "subcategory": t.Subcategory}).Error
			if err != nil {
				return fmt.Errorf("updating transaction %d: %w", t.ID, err)
			}
		}
		return nil
	})
}

// DistinctMonths returns the months with at least one transaction of the
// given kinds, oldest first.
func (s *Store) DistinctMonths(ctx context.Context, kinds ...model.Kind) ([]model.Month, error) {
	var raw []string
	q := Filter{Kinds: kinds}.apply(s.conn(ctx).Model(&transactionRow{}))
	if err := q.Distinct("reference_month").Order("reference_month").Pluck("reference_month", &raw).Error; err != nil {
		return nil, fmt.Errorf("listing months: %w", err)
	}
	months := make([]model.Month, 0, len(raw))
	for _, r := range raw {
		m, err := model.ParseMonth(r)
		if err != nil {
			return nil, err
		}
		months = append(months, m)
	}
	return months, nil
}

// Total is one row of a grouped sum.
type Total struct {
	Month model.Month
	Key   string
	Total decimal.Decimal
	Count int
}

type totalRow struct {
	ReferenceMonth string
	GroupKey       string
	Total          decimal.Decimal
	N              int
}

// CategoryTotals sums card expenses per month and category.
func (s *Store) CategoryTotals(ctx context.Context, months []model.Month) ([]Total, error) {
	return s.expenseTotals(ctx, "category", Filter{Months: months, Expenses: true})
}

// SubcategoryTotals sums card expenses of one category per month and
// subcategory.
func (s *Store) SubcategoryTotals(ctx context.Context, months []model.Month, category string) ([]Total, error) {
	return s.expenseTotals(ctx, "subcategory", Filter{Months: months, Category: category, Expenses: true})
}

func (s *Store) expenseTotals(ctx context.Context, column string, f Filter) ([]Total, error) {
	var rows []totalRow
	q := f.apply(s.conn(ctx).Model(&transactionRow{})).
		Select(fmt.Sprintf("reference_month, COALESCE(%s, '') AS group_key, SUM(amount) AS total, COUNT(*) AS n", column)).
		Group("reference_month, " + column).
		Order("reference_month, " + column)
	if err := q.Scan(&rows).Error; err != nil {
		return nil, fmt.Errorf("summing by %s: %w", column, err)
	}
	out := make([]Total, 0, len(rows))
	for _, r := range rows {
		m, err := model.ParseMonth(r.ReferenceMonth)
		if err != nil {
			return nil, err
		}
		out = append(out, Total{Month: m, Key: r.GroupKey, Total: r.Total.Round(2), Count: r.N})
	}
	return out, nil
}

// CategoryAverages returns the all-time mean card expense per category.
func (s *Store) CategoryAverages(ctx context.Context) (map[string]decimal.Decimal, error) {
	var rows []struct {
		GroupKey string
		Average  decimal.Decimal
	}
	q := Filter{Expenses: true}.apply(s.conn(ctx).Model(&transactionRow{})).
		Select("COALESCE(category, '') AS group_key, AVG(amount) AS average").
		Group("category")
	if err := q.Scan(&rows).Error; err != nil {
		return nil, fmt.Errorf("averaging categories: %w", err)
	}
	out := make(map[string]decimal.Decimal, len(rows))
	for _, r := range rows {
		out[r.GroupKey] = r.Average.Round(2)
	}
	return out, nil
}

// DescriptionsBefore returns the normalized descriptions seen in any
// reference month strictly before m.
func (s *Store) DescriptionsBefore(ctx context.Context, m model.Month) (map[string]bool, error) {
	var raw []string
	q := Filter{Before: m}.apply(s.conn(ctx).Model(&transactionRow{}))
	if err := q.Distinct("normalized_description").Pluck("normalized_description", &raw).Error; err != nil {
		return nil, fmt.Errorf("listing earlier descriptions: %w", err)
	}
	seen := make(map[string]bool, len(raw))
	for _, d := range raw {
		seen[d] = true
	}
	return seen, nil
}

func monthStrings(months []model.Month) []string {
	out := make([]string, len(months))
	for i, m := range months {
		out[i] = m.String()
	}
	slices.Sort(out)
	return out
}
