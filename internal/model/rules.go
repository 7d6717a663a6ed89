package model

import (
	"time"

	"cloud.google.com/go/civil"
	"github.com/shopspring/decimal"
)

// CategorizationRule is a learned mapping from a description pattern to a category.
type CategorizationRule struct {
	ID          uint
	Pattern     string
	Category    string
	Subcategory string
	UsageCount  int
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// RecurringItem is a cached recurring charge derived from history.
type RecurringItem struct {
	NormalizedDescription string
	Description           string
	Category              string
	AverageAmount         decimal.Decimal
	LatestAmount          decimal.Decimal
	VariancePct           decimal.Decimal
	FirstSeen             civil.Date
	LastSeen              civil.Date
	MonthCount            int
	Active                bool
}

// ManualRecurring is a user-declared recurring item, or an instruction to
// ignore a detected one.
type ManualRecurring struct {
	ID                    uint
	NormalizedDescription string
	Description           string
	Category              string
	EstimatedAmount       decimal.NullDecimal
	Frequency             string
	Ignored               bool
}

// InstallmentPlan is a manually declared charge split over several months.
type InstallmentPlan struct {
	ID               uint
	Description      string
	Category         string
	TotalAmount      decimal.Decimal
	InstallmentCount int
	StartDate        civil.Date
}

// Upload records one imported file.
type Upload struct {
	ID             string
	FileName       string
	Hash           string
	ReferenceMonth Month
	Layout         string
	Count          int
	CreatedAt      time.Time
}

// DescriptionAlias is a user-chosen display name for a description.
type DescriptionAlias struct {
	Original string
	Alias    string
}
