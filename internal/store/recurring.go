package store

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/extrato-dev/extrato/internal/model"
)

// RecurringItems returns the cached recurring items, largest average first.
func (s *Store) RecurringItems(ctx context.Context) ([]model.RecurringItem, error) {
	var rows []recurringRow
	if err := s.conn(ctx).Order("average_amount DESC, normalized_description").Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("listing recurring items: %w", err)
	}
	items := make([]model.RecurringItem, len(rows))
	for i, r := range rows {
		items[i] = r.toModel()
	}
	return items, nil
}

// ReplaceRecurringItems swaps the cache for items. Items already cached
// keep their active flag; new items start active.
func (s *Store) ReplaceRecurringItems(ctx context.Context, items []model.RecurringItem) error {
	return s.conn(ctx).Transaction(func(tx *gorm.DB) error {
		var existing []recurringRow
		if err := tx.Select("normalized_description", "active").Find(&existing).Error; err != nil {
			return fmt.Errorf("reading recurring cache: %w", err)
		}
		active := make(map[string]bool, len(existing))
		for _, r := range existing {
			active[r.NormalizedDescription] = r.Active
		}

		if err := tx.Session(&gorm.Session{AllowGlobalUpdate: true}).Delete(&recurringRow{}).Error; err != nil {
			return fmt.Errorf("clearing recurring cache: %w", err)
		}
		for _, it := range items {
			row := recurringFromModel(it)
			row.Active = true
			if a, ok := active[it.NormalizedDescription]; ok {
				row.Active = a
			}
			if err := tx.Create(&row).Error; err != nil {
				return fmt.Errorf("caching recurring item %q: %w", it.NormalizedDescription, err)
			}
		}
		return nil
	})
}

// ToggleRecurring flips the active flag of a cached item and returns the
// new value.
func (s *Store) ToggleRecurring(ctx context.Context, normalized string) (bool, error) {
	var row recurringRow
	err := s.conn(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&row, "normalized_description = ?", normalized).Error; err != nil {
			return err
		}
		row.Active = !row.Active
		return tx.Model(&row).Update("active", row.Active).Error
	})
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return false, fmt.Errorf("recurring item %q: %w", normalized, ErrNotFound)
	}
	if err != nil {
		return false, fmt.Errorf("toggling recurring item %q: %w", normalized, err)
	}
	return row.Active, nil
}

// ManualRecurring returns every manual entry, ignored ones included.
func (s *Store) ManualRecurring(ctx context.Context) ([]model.ManualRecurring, error) {
	var rows []manualRecurringRow
	if err := s.conn(ctx).Order("normalized_description, ignored").Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("listing manual recurring: %w", err)
	}
	out := make([]model.ManualRecurring, len(rows))
	for i, r := range rows {
		out[i] = r.toModel()
	}
	return out, nil
}

// AddManualRecurring declares a recurring item, replacing the estimate and
// category of an existing declaration for the same description.
func (s *Store) AddManualRecurring(ctx context.Context, m model.ManualRecurring) error {
	row := manualRecurringRow{
		NormalizedDescription: m.NormalizedDescription,
		Description:           m.Description,
		Category:              m.Category,
		EstimatedAmount:       m.EstimatedAmount,
		Frequency:             m.Frequency,
	}
	err := s.conn(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "normalized_description"}, {Name: "ignored"}},
		DoUpdates: clause.AssignmentColumns([]string{"description", "category", "estimated_amount", "frequency"}),
	}).Create(&row).Error
	if err != nil {
		return fmt.Errorf("adding manual recurring %q: %w", m.NormalizedDescription, err)
	}
	return nil
}

// IgnoreRecurring suppresses a description from recurring lists.
func (s *Store) IgnoreRecurring(ctx context.Context, normalized, description string) error {
	row := manualRecurringRow{NormalizedDescription: normalized, Description: description, Ignored: true}
	err := s.conn(ctx).Clauses(clause.OnConflict{DoNothing: true}).Create(&row).Error
	if err != nil {
		return fmt.Errorf("ignoring %q: %w", normalized, err)
	}
	return nil
}

// RestoreRecurring undoes IgnoreRecurring.
func (s *Store) RestoreRecurring(ctx context.Context, normalized string) error {
	return s.deleteManual(ctx, normalized, true)
}

// DeleteManualRecurring removes a declared recurring item.
func (s *Store) DeleteManualRecurring(ctx context.Context, normalized string) error {
	return s.deleteManual(ctx, normalized, false)
}

func (s *Store) deleteManual(ctx context.Context, normalized string, ignored bool) error {
	res := s.conn(ctx).Where("normalized_description = ? AND ignored = ?", normalized, ignored).Delete(&manualRecurringRow{})
	if res.Error != nil {
		return fmt.Errorf("deleting manual recurring %q: %w", normalized, res.Error)
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("manual recurring %q: %w", normalized, ErrNotFound)
	}
	return nil
}

// InstallmentPlans returns every plan by start date.
func (s *Store) InstallmentPlans(ctx context.Context) ([]model.InstallmentPlan, error) {
	var rows []installmentPlanRow
	if err := s.conn(ctx).Order("start_date, id").Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("listing installment plans: %w", err)
	}
	plans := make([]model.InstallmentPlan, 0, len(rows))
	for _, r := range rows {
		p, err := r.toModel()
		if err != nil {
			return nil, err
		}
		plans = append(plans, p)
	}
	return plans, nil
}

// AddInstallmentPlan stores p and returns its ID.
func (s *Store) AddInstallmentPlan(ctx context.Context, p model.InstallmentPlan) (uint, error) {
	if p.InstallmentCount < 1 {
		return 0, fmt.Errorf("installment count must be at least 1, got %d", p.InstallmentCount)
	}
	row := installmentPlanRow{
		Description:      p.Description,
		Category:         p.Category,
		TotalAmount:      p.TotalAmount.Round(2),
		InstallmentCount: p.InstallmentCount,
		StartDate:        p.StartDate.String(),
	}
	if err := s.conn(ctx).Create(&row).Error; err != nil {
		return 0, fmt.Errorf("adding installment plan: %w", err)
	}
	return row.ID, nil
}

// DeleteInstallmentPlan removes the plan with id.
func (s *Store) DeleteInstallmentPlan(ctx context.Context, id uint) error {
	res := s.conn(ctx).Delete(&installmentPlanRow{}, id)
	if res.Error != nil {
		return fmt.Errorf("deleting installment plan %d: %w", id, res.Error)
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("installment plan %d: %w", id, ErrNotFound)
	}
	return nil
}
