package store

import (
	"fmt"
	"time"

	"cloud.google.com/go/civil"
	"github.com/shopspring/decimal"

	"github.com/extrato-dev/extrato/internal/model"
)

type transactionRow struct {
	ID                    uint            `gorm:"primaryKey"`
	PurchaseDate          string          `gorm:"type:varchar(10);not null;index"`
	Description           string          `gorm:"type:varchar(512);not null"`
	NormalizedDescription string          `gorm:"type:varchar(512);not null;index"`
	Amount                decimal.Decimal `gorm:"type:decimal(14,2);not null"`
	Category              string          `gorm:"type:varchar(128);index"`
	Subcategory           string          `gorm:"type:varchar(128)"`
	Installment           string          `gorm:"type:varchar(16)"`
	Card                  string          `gorm:"type:varchar(16)"`
	ReferenceMonth        string          `gorm:"type:char(7);not null;index"`
	Kind                  string          `gorm:"type:varchar(16);not null;index"`
	SourceFile            string          `gorm:"type:varchar(255)"`
	UploadID              string          `gorm:"type:varchar(36);index"`
	CreatedAt             time.Time
}

func (transactionRow) TableName() string { return "transactions" }

func transactionFromModel(t model.Transaction, uploadID string) transactionRow {
	return transactionRow{
		ID:                    t.ID,
		PurchaseDate:          t.PurchaseDate.String(),
		Description:           t.Description,
		NormalizedDescription: t.NormalizedDescription,
		Amount:                t.Amount.Round(2),
		Category:              t.Category,
		Subcategory:           t.Subcategory,
		Installment:           t.Installment,
		Card:                  t.Card,
		ReferenceMonth:        t.ReferenceMonth.String(),
		Kind:                  string(t.Kind),
		SourceFile:            t.SourceFile,
		UploadID:              uploadID,
	}
}

func (r transactionRow) toModel() (model.Transaction, error) {
	date, err := civil.ParseDate(r.PurchaseDate)
	if err != nil {
		return model.Transaction{}, fmt.Errorf("transaction %d: %w", r.ID, err)
	}
	month, err := model.ParseMonth(r.ReferenceMonth)
	if err != nil {
		return model.Transaction{}, fmt.Errorf("transaction %d: %w", r.ID, err)
	}
	return model.Transaction{
		ID:                    r.ID,
		PurchaseDate:          date,
		Description:           r.Description,
		NormalizedDescription: r.NormalizedDescription,
		Amount:                r.Amount,
		Category:              r.Category,
		Subcategory:           r.Subcategory,
		Installment:           r.Installment,
		Card:                  r.Card,
		ReferenceMonth:        month,
		Kind:                  model.Kind(r.Kind),
		SourceFile:            r.SourceFile,
	}, nil
}

type ruleRow struct {
	ID          uint   `gorm:"primaryKey"`
	Pattern     string `gorm:"type:varchar(512);not null;uniqueIndex"`
	Category    string `gorm:"type:varchar(128);not null"`
	Subcategory string `gorm:"type:varchar(128)"`
	UsageCount  int    `gorm:"not null;default:1"`
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

func (ruleRow) TableName() string { return "categorization_rules" }

func (r ruleRow) toModel() model.CategorizationRule {
	return model.CategorizationRule{
		ID:          r.ID,
		Pattern:     r.Pattern,
		Category:    r.Category,
		Subcategory: r.Subcategory,
		UsageCount:  r.UsageCount,
		CreatedAt:   r.CreatedAt,
		UpdatedAt:   r.UpdatedAt,
	}
}

type recurringRow struct {
	NormalizedDescription string          `gorm:"primaryKey;type:varchar(512)"`
	Description           string          `gorm:"type:varchar(512)"`
	Category              string          `gorm:"type:varchar(128)"`
	AverageAmount         decimal.Decimal `gorm:"type:decimal(14,2)"`
	LatestAmount          decimal.Decimal `gorm:"type:decimal(14,2)"`
	VariancePct           decimal.Decimal `gorm:"type:decimal(10,2)"`
	FirstSeen             string          `gorm:"type:varchar(10)"`
	LastSeen              string          `gorm:"type:varchar(10)"`
	MonthCount            int
	Active                bool `gorm:"not null"`
	UpdatedAt             time.Time
}

func (recurringRow) TableName() string { return "recurring_items" }

func recurringFromModel(it model.RecurringItem) recurringRow {
	return recurringRow{
		NormalizedDescription: it.NormalizedDescription,
		Description:           it.Description,
		Category:              it.Category,
		AverageAmount:         it.AverageAmount.Round(2),
		LatestAmount:          it.LatestAmount.Round(2),
		VariancePct:           it.VariancePct.Round(2),
		FirstSeen:             it.FirstSeen.String(),
		LastSeen:              it.LastSeen.String(),
		MonthCount:            it.MonthCount,
		Active:                it.Active,
	}
}

func (r recurringRow) toModel() model.RecurringItem {
	first, _ := civil.ParseDate(r.FirstSeen)
	last, _ := civil.ParseDate(r.LastSeen)
	return model.RecurringItem{
		NormalizedDescription: r.NormalizedDescription,
		Description:           r.Description,
		Category:              r.Category,
		AverageAmount:         r.AverageAmount,
		LatestAmount:          r.LatestAmount,
		VariancePct:           r.VariancePct,
		FirstSeen:             first,
		LastSeen:              last,
		MonthCount:            r.MonthCount,
		Active:                r.Active,
	}
}

type manualRecurringRow struct {
	ID                    uint                `gorm:"primaryKey"`
	NormalizedDescription string              `gorm:"type:varchar(512);not null;uniqueIndex:idx_manual_desc_ignored"`
	Ignored               bool                `gorm:"not null;default:false;uniqueIndex:idx_manual_desc_ignored"`
	Description           string              `gorm:"type:varchar(512)"`
	Category              string              `gorm:"type:varchar(128)"`
	EstimatedAmount       decimal.NullDecimal `gorm:"type:decimal(14,2)"`
	Frequency             string              `gorm:"type:varchar(16)"`
	CreatedAt             time.Time
}

func (manualRecurringRow) TableName() string { return "manual_recurring" }

func (r manualRecurringRow) toModel() model.ManualRecurring {
	return model.ManualRecurring{
		ID:                    r.ID,
		NormalizedDescription: r.NormalizedDescription,
		Description:           r.Description,
		Category:              r.Category,
		EstimatedAmount:       r.EstimatedAmount,
		Frequency:             r.Frequency,
		Ignored:               r.Ignored,
	}
}

type installmentPlanRow struct {
	ID               uint            `gorm:"primaryKey"`
	Description      string          `gorm:"type:varchar(512);not null"`
	Category         string          `gorm:"type:varchar(128)"`
	TotalAmount      decimal.Decimal `gorm:"type:decimal(14,2);not null"`
	InstallmentCount int             `gorm:"not null"`
	StartDate        string          `gorm:"type:varchar(10);not null"`
	CreatedAt        time.Time
}

func (installmentPlanRow) TableName() string { return "installment_plans" }

func (r installmentPlanRow) toModel() (model.InstallmentPlan, error) {
	start, err := civil.ParseDate(r.StartDate)
	if err != nil {
		return model.InstallmentPlan{}, fmt.Errorf("installment plan %d: %w", r.ID, err)
	}
	return model.InstallmentPlan{
		ID:               r.ID,
		Description:      r.Description,
		Category:         r.Category,
		TotalAmount:      r.TotalAmount,
		InstallmentCount: r.InstallmentCount,
		StartDate:        start,
	}, nil
}

type uploadRow struct {
	ID             string `gorm:"primaryKey;type:varchar(36)"`
	FileName       string `gorm:"type:varchar(255)"`
	Hash           string `gorm:"type:char(64);not null;uniqueIndex"`
	ReferenceMonth string `gorm:"type:char(7)"`
	Layout         string `gorm:"type:varchar(16)"`
	Count          int
	CreatedAt      time.Time
}

func (uploadRow) TableName() string { return "uploads" }

func (r uploadRow) toModel() model.Upload {
	month, _ := model.ParseMonth(r.ReferenceMonth)
	return model.Upload{
		ID:             r.ID,
		FileName:       r.FileName,
		Hash:           r.Hash,
		ReferenceMonth: month,
		Layout:         r.Layout,
		Count:          r.Count,
		CreatedAt:      r.CreatedAt,
	}
}

type aliasRow struct {
	Original  string `gorm:"primaryKey;type:varchar(512)"`
	Alias     string `gorm:"type:varchar(512);not null"`
	UpdatedAt time.Time
}

func (aliasRow) TableName() string { return "description_aliases" }

var allTables = []any{
	&transactionRow{},
	&ruleRow{},
	&recurringRow{},
	&manualRecurringRow{},
	&installmentPlanRow{},
	&uploadRow{},
	&aliasRow{},
}
