package importer

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/extrato-dev/extrato/internal/model"
	"github.com/extrato-dev/extrato/internal/money"
	"github.com/extrato-dev/extrato/internal/normalize"
)

// AccountParser parses checking-account extracts, which carry a free-form
// preamble above the table.
type AccountParser struct{}

var accountColumns = []fieldAliases{
	{fieldDate, []string{"data lançamento", "data lancamento", "data movimento", "data", "date"}},
	{fieldDescription, []string{"descrição", "descricao", "histórico", "historico", "description"}},
	{fieldTitle, []string{"título", "titulo", "title"}},
	{fieldCredit, []string{"entrada", "crédito", "credito", "credit"}},
	{fieldDebit, []string{"saída", "saida", "débito", "debito", "debit"}},
	{fieldAmount, []string{"valor", "amount"}},
}

var (
	headerDateTokens = []string{"data", "date"}
	headerDescTokens = []string{"descrição", "descricao", "histórico", "historico", "description"}
)

// Format returns the layout name.
func (p *AccountParser) Format() Layout { return LayoutAccount }

// Parse reads an account extract. The header is the first line naming both
// a date and a description column, or the first line if none does.
// Each transaction's reference month is its purchase month.
func (p *AccountParser) Parse(ctx context.Context, r io.Reader, opts Options) (*Result, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("reading account CSV: %w", err)
	}
	res := &Result{Layout: LayoutAccount}

	lines := strings.Split(string(data), "\n")
	start := findHeader(lines)
	table := strings.Join(lines[start:], "\n")

	cr := newCSVReader(table, lines[start])
	header, err := cr.Read()
	if errors.Is(err, io.EOF) {
		return res, nil
	}
	if err != nil {
		res.rowError(ctx, start+1, "reading header: %v", err)
		return res, nil
	}

	cols := resolveColumns(header, accountColumns)
	split := cols.has(fieldCredit) && cols.has(fieldDebit)
	if !cols.has(fieldDate) || !cols.has(fieldDescription) || (!split && !cols.has(fieldAmount)) {
		res.rowError(ctx, start+1, "header has no usable date, description and amount columns")
		return res, nil
	}

	err = eachRecord(cr, start, func(line int, rec []string) {
		txns, err := parseAccountRow(rec, cols, split)
		switch {
		case errors.Is(err, errExcluded):
			res.Skipped++
		case err != nil:
			res.rowError(ctx, line, "%v", err)
		default:
			for _, txn := range txns {
				txn.SourceFile = opts.FileName
				res.Transactions = append(res.Transactions, txn)
			}
		}
	}, func(line int, err error) {
		res.rowError(ctx, line, "%v", err)
	})
	if err != nil {
		return nil, fmt.Errorf("reading account CSV: %w", err)
	}

	if len(res.Transactions) > 0 {
		res.ReferenceMonth = res.Transactions[0].ReferenceMonth
	}
	return res, nil
}

func findHeader(lines []string) int {
	for i, line := range lines {
		l := strings.ToLower(line)
		if containsAny(l, headerDateTokens) && containsAny(l, headerDescTokens) {
			return i
		}
	}
	return 0
}

func parseAccountRow(rec []string, cols columnMap, split bool) ([]model.Transaction, error) {
	raw := cols.get(rec, fieldDate)
	date, ok := money.ParseDate(raw)
	if !ok {
		return nil, fmt.Errorf("parsing date %q", raw)
	}

	desc := cols.get(rec, fieldDescription)
	if title := cols.get(rec, fieldTitle); title != "" {
		desc = strings.TrimSuffix(strings.TrimSpace(title+" - "+desc), " -")
	}
	if desc == "" {
		return nil, errors.New("missing description")
	}

	base := model.Transaction{
		PurchaseDate:          date,
		Description:           desc,
		NormalizedDescription: normalize.Description(desc),
		Installment:           model.SingleInstallment,
		Card:                  model.AccountCard,
		ReferenceMonth:        model.MonthOf(date),
	}

	var txns []model.Transaction
	if split {
		// A row carrying both sides is booked as its debit.
		debit := money.ParseAmount(cols.get(rec, fieldDebit)).Abs()
		credit := money.ParseAmount(cols.get(rec, fieldCredit)).Abs()
		switch {
		case !debit.IsZero():
			t := base
			t.Amount = debit.Neg()
			t.Kind = model.KindAccountDebit
			txns = append(txns, t)
		case !credit.IsZero():
			t := base
			t.Amount = credit
			t.Kind = model.KindAccountCredit
			txns = append(txns, t)
		}
	} else {
		amount := money.ParseAmount(cols.get(rec, fieldAmount))
		if !amount.IsZero() {
			t := base
			t.Amount = amount
			t.Kind = model.KindAccountCredit
			if amount.IsNegative() {
				t.Kind = model.KindAccountDebit
			}
			txns = append(txns, t)
		}
	}
	if len(txns) == 0 {
		return nil, errExcluded
	}
	return txns, nil
}
