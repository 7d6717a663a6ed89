package model

import (
	"cloud.google.com/go/civil"
	"github.com/shopspring/decimal"
)

// Kind describes where a transaction came from.
type Kind string

const (
	KindCard          Kind = "card"
	KindAccountCredit Kind = "account_credit"
	KindAccountDebit  Kind = "account_debit"
)

// Valid reports whether k is a known kind.
func (k Kind) Valid() bool {
	switch k {
	case KindCard, KindAccountCredit, KindAccountDebit:
		return true
	}
	return false
}

// IsAccount reports whether k is one of the checking-account kinds.
func (k Kind) IsAccount() bool {
	return k == KindAccountCredit || k == KindAccountDebit
}

const (
	// SingleInstallment marks a purchase paid in one go.
	SingleInstallment = "single"
	// AccountCard is stored in place of card digits for account extracts.
	AccountCard = "ACCOUNT"
)

// Transaction is a single canonical line item.
//
// Amounts are always signed: card expenses are positive, card refunds
// negative, account credits positive and account debits negative.
// Kind is descriptive only.
type Transaction struct {
	ID                    uint
	PurchaseDate          civil.Date
	Description           string
	NormalizedDescription string
	Amount                decimal.Decimal
	Category              string
	Subcategory           string
	Installment           string
	Card                  string
	ReferenceMonth        Month
	Kind                  Kind
	SourceFile            string
}

// IsExpense reports whether t is a card charge (not a refund).
func (t Transaction) IsExpense() bool {
	return t.Kind == KindCard && t.Amount.IsPositive()
}

// IsSingleInstallment reports whether t is not part of an installment plan.
func (t Transaction) IsSingleInstallment() bool {
	return t.Installment == "" || t.Installment == SingleInstallment
}
