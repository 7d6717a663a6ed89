package recurring

import (
	"cmp"
	"fmt"
	"slices"

	"cloud.google.com/go/civil"
	"github.com/shopspring/decimal"

	"github.com/extrato-dev/extrato/internal/model"
	"github.com/extrato-dev/extrato/internal/normalize"
)

// Source says where a month entry came from.
type Source string

const (
	SourceDetected    Source = "detected"
	SourceManual      Source = "manual"
	SourceVirtual     Source = "virtual"
	SourceInstallment Source = "installment"
)

// virtualFrequency is the month count reported for declared items.
const virtualFrequency = 12

// Entry is one line of a month's recurring list.
type Entry struct {
	NormalizedDescription string
	Description           string
	Category              string
	Amount                decimal.Decimal
	Date                  civil.Date
	Installment           string
	// Frequency is the number of months the item was seen, or the plan's
	// installment count.
	Frequency int
	Source    Source
	PlanID    uint

	// Set by Service.Month.
	PreviousAmount decimal.NullDecimal
	ChangePct      decimal.NullDecimal
}

// IsInstallment reports whether the entry is one installment of a plan or
// of a card purchase split in installments.
func (e Entry) IsInstallment() bool {
	return e.Installment != "" && e.Installment != model.SingleInstallment
}

// MonthInput is everything ForMonth reads.
type MonthInput struct {
	Month model.Month
	// Transactions may span any months; only Month's card expenses are used.
	Transactions []model.Transaction
	Detected     []model.RecurringItem
	// Manual holds declared and ignored entries alike.
	Manual []model.ManualRecurring
	Plans  []model.InstallmentPlan
}

// ForMonth builds the recurring list of in.Month. It holds, in order:
// the month's transactions whose description is detected as recurring or
// declared manually, largest first and one per description; declared items
// with no transaction that month, dated the 1st at their estimated value;
// and the active installment of every plan. Ignored descriptions are left
// out of the first two groups. Plans are never ignored.
func ForMonth(in MonthInput) []Entry {
	frequency := make(map[string]int, len(in.Detected))
	for _, it := range in.Detected {
		frequency[it.NormalizedDescription] = it.MonthCount
	}
	ignored := make(map[string]bool)
	var declared []model.ManualRecurring
	declaredSet := make(map[string]bool)
	for _, m := range in.Manual {
		if m.Ignored {
			ignored[m.NormalizedDescription] = true
			continue
		}
		if !declaredSet[m.NormalizedDescription] {
			declared = append(declared, m)
			declaredSet[m.NormalizedDescription] = true
		}
	}

	var monthTxns []model.Transaction
	for _, t := range in.Transactions {
		if t.ReferenceMonth == in.Month && t.IsExpense() {
			monthTxns = append(monthTxns, t)
		}
	}
	slices.SortStableFunc(monthTxns, func(a, b model.Transaction) int {
		return b.Amount.Cmp(a.Amount)
	})

	var entries []Entry
	added := make(map[string]bool)
	for _, t := range monthTxns {
		norm := t.NormalizedDescription
		if ignored[norm] || added[norm] {
			continue
		}
		freq, detected := frequency[norm]
		if !detected && !declaredSet[norm] {
			continue
		}
		src := SourceDetected
		if !detected {
			src = SourceManual
			freq = 1
		}
		entries = append(entries, Entry{
			NormalizedDescription: norm,
			Description:           t.Description,
			Category:              t.Category,
			Amount:                t.Amount,
			Date:                  t.PurchaseDate,
			Installment:           t.Installment,
			Frequency:             freq,
			Source:                src,
		})
		added[norm] = true
	}

	for _, m := range declared {
		if added[m.NormalizedDescription] || ignored[m.NormalizedDescription] {
			continue
		}
		amount := decimal.Zero
		if m.EstimatedAmount.Valid {
			amount = m.EstimatedAmount.Decimal
		}
		entries = append(entries, Entry{
			NormalizedDescription: m.NormalizedDescription,
			Description:           cmp.Or(m.Description, m.NormalizedDescription),
			Category:              m.Category,
			Amount:                amount,
			Date:                  in.Month.FirstDay(),
			Frequency:             virtualFrequency,
			Source:                SourceVirtual,
		})
		added[m.NormalizedDescription] = true
	}

	for _, p := range in.Plans {
		if e, ok := ProjectInstallment(p, in.Month); ok {
			entries = append(entries, e)
		}
	}
	return entries
}

// ProjectInstallment returns the installment of p that falls in month.
// Installment n is due n-1 months after the plan's start month; ok is false
// outside 1..InstallmentCount.
func ProjectInstallment(p model.InstallmentPlan, month model.Month) (Entry, bool) {
	if p.InstallmentCount < 1 {
		return Entry{}, false
	}
	index := month.MonthsSince(model.MonthOf(p.StartDate)) + 1
	if index < 1 || index > p.InstallmentCount {
		return Entry{}, false
	}
	installment := fmt.Sprintf("%d/%d", index, p.InstallmentCount)
	return Entry{
		NormalizedDescription: normalize.Description(p.Description),
		Description:           p.Description + " " + installment,
		Category:              p.Category,
		Amount:                p.TotalAmount.DivRound(decimal.NewFromInt(int64(p.InstallmentCount)), 2),
		Date:                  month.FirstDay(),
		Installment:           installment,
		Frequency:             p.InstallmentCount,
		Source:                SourceInstallment,
		PlanID:                p.ID,
	}, true
}

// Total sums the amounts of entries.
func Total(entries []Entry) decimal.Decimal {
	sum := decimal.Zero
	for _, e := range entries {
		sum = sum.Add(e.Amount)
	}
	return sum
}
