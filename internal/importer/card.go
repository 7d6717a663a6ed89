package importer

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/extrato-dev/extrato/internal/model"
	"github.com/extrato-dev/extrato/internal/money"
	"github.com/extrato-dev/extrato/internal/normalize"
)

// CardParser parses credit-card statement exports.
type CardParser struct{}

var cardColumns = []fieldAliases{
	{fieldDate, []string{"data de compra", "data", "date"}},
	{fieldDescription, []string{"descrição", "descricao", "estabelecimento", "description"}},
	{fieldAmount, []string{"valor (em r$)", "valor", "amount"}},
	{fieldInstallment, []string{"parcela", "installment"}},
	{fieldCard, []string{"final do cartão", "final do cartao", "card last digits"}},
}

// billPayments mark settlement lines of the previous bill, which are not spend.
var billPayments = []string{
	"INCLUSAO DE PAGAMENTO",
	"INCLUSÃO DE PAGAMENTO",
	"PAGAMENTO EFETUADO",
}

// errExcluded marks a row dropped on purpose rather than for being malformed.
var errExcluded = errors.New("excluded")

// Format returns the layout name.
func (p *CardParser) Format() Layout { return LayoutCard }

// Parse reads a card statement. Every transaction gets the statement's
// billing month: opts.ReferenceMonth, else the month in opts.FileName,
// else the purchase month of the first row.
func (p *CardParser) Parse(ctx context.Context, r io.Reader, opts Options) (*Result, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("reading card CSV: %w", err)
	}
	text := string(data)
	res := &Result{Layout: LayoutCard}

	cr := newCSVReader(text, firstLine(text))
	header, err := cr.Read()
	if errors.Is(err, io.EOF) {
		return res, nil
	}
	if err != nil {
		res.rowError(ctx, 1, "reading header: %v", err)
		return res, nil
	}
	cols := resolveColumns(header, cardColumns)
	for _, f := range []field{fieldDate, fieldDescription, fieldAmount} {
		if !cols.has(f) {
			res.rowError(ctx, 1, "header has no %s column", f)
			return res, nil
		}
	}

	err = eachRecord(cr, 0, func(line int, rec []string) {
		txn, err := parseCardRow(rec, cols)
		switch {
		case errors.Is(err, errExcluded):
			res.Skipped++
		case err != nil:
			res.rowError(ctx, line, "%v", err)
		default:
			txn.SourceFile = opts.FileName
			res.Transactions = append(res.Transactions, txn)
		}
	}, func(line int, err error) {
		res.rowError(ctx, line, "%v", err)
	})
	if err != nil {
		return nil, fmt.Errorf("reading card CSV: %w", err)
	}

	month := opts.ReferenceMonth
	if month.IsZero() {
		month, _ = BillingMonthFromName(opts.FileName)
	}
	if month.IsZero() && len(res.Transactions) > 0 {
		month = model.MonthOf(res.Transactions[0].PurchaseDate)
	}
	for i := range res.Transactions {
		res.Transactions[i].ReferenceMonth = month
	}
	res.ReferenceMonth = month
	return res, nil
}

func parseCardRow(rec []string, cols columnMap) (model.Transaction, error) {
	desc := cols.get(rec, fieldDescription)
	if desc == "" {
		return model.Transaction{}, errors.New("missing description")
	}
	norm := normalize.Description(desc)
	if containsAny(norm, billPayments) {
		return model.Transaction{}, errExcluded
	}

	amount := money.ParseAmount(cols.get(rec, fieldAmount))
	if amount.IsZero() {
		return model.Transaction{}, errExcluded
	}

	raw := cols.get(rec, fieldDate)
	date, ok := money.ParseDate(raw)
	if !ok {
		return model.Transaction{}, fmt.Errorf("parsing date %q", raw)
	}

	return model.Transaction{
		PurchaseDate:          date,
		Description:           desc,
		NormalizedDescription: norm,
		Amount:                amount,
		Installment:           parseInstallment(cols.get(rec, fieldInstallment)),
		Card:                  cols.get(rec, fieldCard),
		Kind:                  model.KindCard,
	}, nil
}

func parseInstallment(s string) string {
	switch strings.ToLower(s) {
	case "", "única", "unica", "single", "-":
		return model.SingleInstallment
	}
	return s
}

// newCSVReader returns a permissive reader. The delimiter is ';' when
// headerLine contains one, else ','.
func newCSVReader(text, headerLine string) *csv.Reader {
	cr := csv.NewReader(strings.NewReader(text))
	if strings.Contains(headerLine, ";") {
		cr.Comma = ';'
	}
	cr.FieldsPerRecord = -1
	cr.LazyQuotes = true
	cr.TrimLeadingSpace = true
	return cr
}

// eachRecord calls fn for each remaining record and bad for each malformed
// one. lineOffset is added to reported line numbers.
func eachRecord(cr *csv.Reader, lineOffset int, fn func(line int, rec []string), bad func(line int, err error)) error {
	for {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			return nil
		}
		var perr *csv.ParseError
		if errors.As(err, &perr) {
			bad(perr.StartLine+lineOffset, perr.Err)
			continue
		}
		if err != nil {
			return err
		}
		line, _ := cr.FieldPos(0)
		fn(line+lineOffset, rec)
	}
}

func firstLine(text string) string {
	line, _, _ := strings.Cut(text, "\n")
	return line
}
