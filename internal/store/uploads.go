package store

import (
	"context"
	"fmt"
	"time"

	"gorm.io/gorm/clause"

	"github.com/extrato-dev/extrato/internal/model"
)

// Uploads returns the most recent uploads, newest first.
func (s *Store) Uploads(ctx context.Context, limit int) ([]model.Upload, error) {
	var rows []uploadRow
	q := s.conn(ctx).Order("created_at DESC")
	if limit > 0 {
		q = q.Limit(limit)
	}
	if err := q.Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("listing uploads: %w", err)
	}
	out := make([]model.Upload, len(rows))
	for i, r := range rows {
		out[i] = r.toModel()
	}
	return out, nil
}

// HasUpload reports whether a file with hash was imported.
func (s *Store) HasUpload(ctx context.Context, hash string) (bool, error) {
	var n int64
	if err := s.conn(ctx).Model(&uploadRow{}).Where("hash = ?", hash).Count(&n).Error; err != nil {
		return false, fmt.Errorf("checking upload: %w", err)
	}
	return n > 0, nil
}

// SetAlias sets the display name of an original description.
func (s *Store) SetAlias(ctx context.Context, original, alias string) error {
	row := aliasRow{Original: original, Alias: alias, UpdatedAt: time.Now()}
	err := s.conn(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "original"}},
		DoUpdates: clause.AssignmentColumns([]string{"alias", "updated_at"}),
	}).Create(&row).Error
	if err != nil {
		return fmt.Errorf("setting alias for %q: %w", original, err)
	}
	return nil
}

// DeleteAlias removes the alias of original.
func (s *Store) DeleteAlias(ctx context.Context, original string) error {
	res := s.conn(ctx).Where("original = ?", original).Delete(&aliasRow{})
	if res.Error != nil {
		return fmt.Errorf("deleting alias for %q: %w", original, res.Error)
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("alias for %q: %w", original, ErrNotFound)
	}
	return nil
}

// Aliases returns every alias keyed by original description.
func (s *Store) Aliases(ctx context.Context) (map[string]string, error) {
	var rows []aliasRow
	if err := s.conn(ctx).Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("listing aliases: %w", err)
	}
	out := make(map[string]string, len(rows))
	for _, r := range rows {
		out[r.Original] = r.Alias
	}
	return out, nil
}

// ApplyAliases replaces descriptions that have an alias.
func ApplyAliases(txns []model.Transaction, aliases map[string]string) {
	for i := range txns {
		if a, ok := aliases[txns[i].Description]; ok && a != "" {
			txns[i].Description = a
		}
	}
}
