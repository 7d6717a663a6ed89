package importer

import "strings"

type field string

const (
	fieldDate        field = "date"
	fieldDescription field = "description"
	fieldTitle       field = "title"
	fieldAmount      field = "amount"
	fieldCredit      field = "credit"
	fieldDebit       field = "debit"
	fieldInstallment field = "installment"
	fieldCard        field = "card"
)

// fieldAliases lists accepted header names for one field, most specific first.
type fieldAliases struct {
	field   field
	aliases []string
}

// columnMap is a resolved field to column index table.
type columnMap map[field]int

// resolveColumns matches header cells against the alias table. Fields are
// resolved in table order; within a field the first alias contained in any
// unclaimed header cell wins. Matching is case-insensitive.
func resolveColumns(header []string, table []fieldAliases) columnMap {
	cells := make([]string, len(header))
	for i, h := range header {
		cells[i] = strings.ToLower(strings.TrimSpace(strings.TrimPrefix(h, "\ufeff")))
	}

	cols := make(columnMap)
	taken := make(map[int]bool)
	for _, fa := range table {
	aliases:
		for _, alias := range fa.aliases {
			for i, cell := range cells {
				if cell == "" || taken[i] {
					continue
				}
				if strings.Contains(cell, alias) {
					cols[fa.field] = i
					taken[i] = true
					break aliases
				}
			}
		}
	}
	return cols
}

// has reports whether f was resolved.
func (c columnMap) has(f field) bool {
	_, ok := c[f]
	return ok
}

// get returns the trimmed cell for f, or "" if absent.
func (c columnMap) get(rec []string, f field) string {
	i, ok := c[f]
	if !ok || i >= len(rec) {
		return ""
	}
	return strings.TrimSpace(rec[i])
}
