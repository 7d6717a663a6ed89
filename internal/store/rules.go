package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/extrato-dev/extrato/internal/model"
)

// Rules returns every learned rule, most used first.
func (s *Store) Rules(ctx context.Context) ([]model.CategorizationRule, error) {
	var rows []ruleRow
	if err := s.conn(ctx).Order("usage_count DESC, pattern").Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("listing rules: %w", err)
	}
	rules := make([]model.CategorizationRule, len(rows))
	for i, r := range rows {
		rules[i] = r.toModel()
	}
	return rules, nil
}

// UpsertRule inserts a rule for pattern with usage 1, or, when one exists,
// overwrites its category and subcategory and increments its usage.
func (s *Store) UpsertRule(ctx context.Context, pattern, category, subcategory string) (model.CategorizationRule, error) {
	rule, err := s.upsertRule(ctx, pattern, category, subcategory)
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		// A concurrent insert won; the retry takes the update path.
		rule, err = s.upsertRule(ctx, pattern, category, subcategory)
	}
	if err != nil {
		return model.CategorizationRule{}, fmt.Errorf("upserting rule %q: %w", pattern, err)
	}
	return rule, nil
}

func (s *Store) upsertRule(ctx context.Context, pattern, category, subcategory string) (model.CategorizationRule, error) {
	var row ruleRow
	err := s.conn(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Where("pattern = ?", pattern).Limit(1).Find(&row)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			row = ruleRow{Pattern: pattern, Category: category, Subcategory: subcategory, UsageCount: 1}
			return tx.Create(&row).Error
		}
		err := tx.Model(&row).Updates(map[string]any{
			"category":    category,
			"subcategory": subcategory,
			"usage_count": gorm.Expr("usage_count + 1"),
			"updated_at":  time.Now(),
		}).Error
		if err != nil {
			return err
		}
		return tx.First(&row, row.ID).Error
	})
	if err != nil {
		return model.CategorizationRule{}, err
	}
	return row.toModel(), nil
}

// DeleteRule removes the rule for pattern.
func (s *Store) DeleteRule(ctx context.Context, pattern string) error {
	res := s.conn(ctx).Where("pattern = ?", pattern).Delete(&ruleRow{})
	if res.Error != nil {
		return fmt.Errorf("deleting rule %q: %w", pattern, res.Error)
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("rule %q: %w", pattern, ErrNotFound)
	}
	return nil
}
