package categorize

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/extrato-dev/extrato/internal/model"
	"github.com/extrato-dev/extrato/internal/normalize"
)

// ErrEmptyCategory is returned when an assignment names no category.
var ErrEmptyCategory = errors.New("category is required")

// RuleStore is the storage the learning loop writes through.
type RuleStore interface {
	Transaction(ctx context.Context, id uint) (model.Transaction, error)
	UpdateCategoryByDescription(ctx context.Context, normalized, category, subcategory string) (int64, error)
	UpsertRule(ctx context.Context, pattern, category, subcategory string) (model.CategorizationRule, error)
}

// Assignment reports the effect of a manual categorization.
type Assignment struct {
	Pattern string
	// Updated is the number of stored transactions recategorized.
	Updated int64
	Rule    model.CategorizationRule
}

// Trainer applies user categorizations to history and learns rules from them.
type Trainer struct {
	store RuleStore
}

// NewTrainer creates a Trainer writing through store.
func NewTrainer(store RuleStore) *Trainer {
	return &Trainer{store: store}
}

// AssignTransaction categorizes the transaction with id, along with every
// other transaction sharing its normalized description.
func (t *Trainer) AssignTransaction(ctx context.Context, id uint, category, subcategory string) (Assignment, error) {
	txn, err := t.store.Transaction(ctx, id)
	if err != nil {
		return Assignment{}, fmt.Errorf("loading transaction %d: %w", id, err)
	}
	norm := txn.NormalizedDescription
	if norm == "" {
		norm = normalize.Description(txn.Description)
	}
	return t.assign(ctx, norm, category, subcategory)
}

// AssignDescription categorizes every transaction whose normalized
// description equals that of description.
func (t *Trainer) AssignDescription(ctx context.Context, description, category, subcategory string) (Assignment, error) {
	return t.assign(ctx, normalize.Description(description), category, subcategory)
}

func (t *Trainer) assign(ctx context.Context, norm, category, subcategory string) (Assignment, error) {
	if category == "" {
		return Assignment{}, ErrEmptyCategory
	}
	if norm == "" {
		return Assignment{}, errors.New("description is empty after normalization")
	}

	n, err := t.store.UpdateCategoryByDescription(ctx, norm, category, subcategory)
	if err != nil {
		return Assignment{}, fmt.Errorf("recategorizing %q: %w", norm, err)
	}
	rule, err := t.store.UpsertRule(ctx, norm, category, subcategory)
	if err != nil {
		return Assignment{}, fmt.Errorf("saving rule %q: %w", norm, err)
	}

	zerolog.Ctx(ctx).Info().
		Str("pattern", norm).
		Str("category", category).
		Int64("updated", n).
		Int("usage", rule.UsageCount).
		Msg("learned categorization rule")
	return Assignment{Pattern: norm, Updated: n, Rule: rule}, nil
}
