// Package export writes and reads transactions in the canonical CSV form.
package export

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"strings"

	"cloud.google.com/go/civil"
	"github.com/shopspring/decimal"

	"github.com/extrato-dev/extrato/internal/model"
)

// Header is the header row of an exported file.
const Header = "id,purchase_date,reference_month,kind,description,normalized_description,amount,category,subcategory,installment,card,source_file"

const (
	numFields  = 12
	colID      = 0
	colDate    = 1
	colMonth   = 2
	colKind    = 3
	colDesc    = 4
	colNorm    = 5
	colAmount  = 6
	colCat     = 7
	colSubcat  = 8
	colInstall = 9
	colCard    = 10
	colSource  = 11
)

// WriteTransactions writes txns to w, header first.
func WriteTransactions(w io.Writer, txns []model.Transaction) error {
	cw := csv.NewWriter(w)
	defer cw.Flush()

	if err := cw.Write(strings.Split(Header, ",")); err != nil {
		return fmt.Errorf("writing header: %w", err)
	}
	for i, t := range txns {
		if err := cw.Write(MarshalTransaction(t)); err != nil {
			return fmt.Errorf("writing row %d: %w", i+2, err)
		}
	}
	cw.Flush()
	return cw.Error()
}

// ReadTransactions reads a file written by WriteTransactions.
func ReadTransactions(r io.Reader) ([]model.Transaction, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = numFields

	records, err := cr.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("reading export CSV: %w", err)
	}
	if len(records) == 0 {
		return nil, nil
	}

	var txns []model.Transaction
	for i, rec := range records[1:] {
		t, err := UnmarshalTransaction(rec)
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", i+2, err)
		}
		txns = append(txns, t)
	}
	return txns, nil
}

// MarshalTransaction converts t to a CSV row.
func MarshalTransaction(t model.Transaction) []string {
	row := make([]string, numFields)
	if t.ID != 0 {
		row[colID] = strconv.FormatUint(uint64(t.ID), 10)
	}
	row[colDate] = t.PurchaseDate.String()
	row[colMonth] = t.ReferenceMonth.String()
	row[colKind] = string(t.Kind)
	row[colDesc] = t.Description
	row[colNorm] = t.NormalizedDescription
	row[colAmount] = t.Amount.StringFixed(2)
	row[colCat] = t.Category
	row[colSubcat] = t.Subcategory
	row[colInstall] = t.Installment
	row[colCard] = t.Card
	row[colSource] = t.SourceFile
	return row
}

// UnmarshalTransaction converts a CSV row to a Transaction.
func UnmarshalTransaction(record []string) (model.Transaction, error) {
	if len(record) != numFields {
		return model.Transaction{}, fmt.Errorf("expected %d fields, got %d", numFields, len(record))
	}

	var id uint64
	if record[colID] != "" {
		var err error
		id, err = strconv.ParseUint(record[colID], 10, 64)
		if err != nil {
			return model.Transaction{}, fmt.Errorf("parsing id %q: %w", record[colID], err)
		}
	}
	date, err := civil.ParseDate(record[colDate])
	if err != nil {
		return model.Transaction{}, fmt.Errorf("parsing date %q: %w", record[colDate], err)
	}
	month, err := model.ParseMonth(record[colMonth])
	if err != nil {
		return model.Transaction{}, err
	}
	kind := model.Kind(record[colKind])
	if !kind.Valid() {
		return model.Transaction{}, fmt.Errorf("unknown kind %q", record[colKind])
	}
	amount, err := decimal.NewFromString(record[colAmount])
	if err != nil {
		return model.Transaction{}, fmt.Errorf("parsing amount %q: %w", record[colAmount], err)
	}

	return model.Transaction{
		ID:                    uint(id),
		PurchaseDate:          date,
		Description:           record[colDesc],
		NormalizedDescription: record[colNorm],
		Amount:                amount,
		Category:              record[colCat],
		Subcategory:           record[colSubcat],
		Installment:           record[colInstall],
		Card:                  record[colCard],
		ReferenceMonth:        month,
		Kind:                  kind,
		SourceFile:            record[colSource],
	}, nil
}
