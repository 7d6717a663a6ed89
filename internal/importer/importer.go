// Package importer turns the text of a bank export into canonical transactions.
package importer

import (
	"context"
	"fmt"
	"io"
	"regexp"
	"strconv"
	"strings"

	"github.com/rs/zerolog"

	"github.com/extrato-dev/extrato/internal/model"
)

// Layout identifies a statement format.
type Layout string

const (
	LayoutCard    Layout = "card"
	LayoutAccount Layout = "account"
)

// Options carries per-file context the text itself may not contain.
type Options struct {
	// FileName is used to derive a card statement's billing month.
	FileName string
	// ReferenceMonth, when set, is the billing month of a card statement.
	ReferenceMonth model.Month
}

// RowError describes a row that was dropped.
type RowError struct {
	Row    int
	Reason string
}

func (e RowError) Error() string {
	return fmt.Sprintf("row %d: %s", e.Row, e.Reason)
}

// Result is the outcome of extracting one file.
type Result struct {
	Layout         Layout
	ReferenceMonth model.Month
	Transactions   []model.Transaction
	// Skipped counts rows excluded on purpose (bill payments, zero amounts).
	Skipped int
	Errors  []RowError
}

// Empty reports whether no usable transaction was extracted.
func (r *Result) Empty() bool {
	return len(r.Transactions) == 0
}

func (r *Result) rowError(ctx context.Context, row int, format string, args ...any) {
	e := RowError{Row: row, Reason: fmt.Sprintf(format, args...)}
	r.Errors = append(r.Errors, e)
	zerolog.Ctx(ctx).Warn().Str("layout", string(r.Layout)).Int("row", row).Msg(e.Reason)
}

// Parser converts one statement layout into transactions.
type Parser interface {
	Parse(ctx context.Context, r io.Reader, opts Options) (*Result, error)
	Format() Layout
}

// Registry holds parsers by layout.
type Registry struct {
	parsers map[Layout]Parser
}

// NewRegistry creates an empty parser registry.
func NewRegistry() *Registry {
	return &Registry{parsers: make(map[Layout]Parser)}
}

// Register adds a parser. Panics on duplicate layout.
func (r *Registry) Register(p Parser) {
	key := Layout(strings.ToLower(string(p.Format())))
	if _, ok := r.parsers[key]; ok {
		panic("duplicate parser format: " + string(key))
	}
	r.parsers[key] = p
}

// Get returns the parser for layout, or nil.
func (r *Registry) Get(layout Layout) Parser {
	return r.parsers[Layout(strings.ToLower(string(layout)))]
}

// DefaultRegistry returns a registry with all built-in parsers.
func DefaultRegistry() *Registry {
	r := NewRegistry()
	r.Register(&CardParser{})
	r.Register(&AccountParser{})
	return r
}

// Extract detects the layout of text and parses it.
func (r *Registry) Extract(ctx context.Context, text string, opts Options) (*Result, error) {
	layout, matched := DetectSignature(text)
	if !matched {
		zerolog.Ctx(ctx).Debug().Str("file", opts.FileName).Msg("no layout signature, assuming card statement")
	}
	p := r.Get(layout)
	if p == nil {
		return nil, fmt.Errorf("no parser for layout %q", layout)
	}
	res, err := p.Parse(ctx, strings.NewReader(text), opts)
	if err != nil {
		return nil, fmt.Errorf("parsing %s statement: %w", layout, err)
	}
	return res, nil
}

// Extract runs the default registry over text.
func Extract(ctx context.Context, text string, opts Options) (*Result, error) {
	return DefaultRegistry().Extract(ctx, text, opts)
}

// detectWindow is how much of the file Detect inspects.
const detectWindow = 2048

var (
	accountMarkers = []string{
		"EXTRATO DE CONTA CORRENTE",
		"CHECKING ACCOUNT STATEMENT",
	}
	agencyMarkers = []string{"AGÊNCIA:", "AGENCIA:", "AGENCY:"}
	accountNumber = []string{"CONTA:", "ACCOUNT:"}
	cardMarkers   = []string{
		"NOME NO CARTÃO", "NOME NO CARTAO",
		"FINAL DO CARTÃO", "FINAL DO CARTAO",
		"CARDHOLDER NAME", "CARD LAST DIGITS",
	}
)

// Detect inspects the head of text for layout signatures. Text with no
// recognizable signature is treated as a card statement.
func Detect(text string) Layout {
	layout, _ := DetectSignature(text)
	return layout
}

// DetectSignature is Detect, also reporting whether a signature matched.
func DetectSignature(text string) (Layout, bool) {
	head := text
	if len(head) > detectWindow {
		head = head[:detectWindow]
	}
	head = strings.ToUpper(head)

	switch {
	case containsAny(head, accountMarkers),
		containsAny(head, agencyMarkers) && containsAny(head, accountNumber):
		return LayoutAccount, true
	case containsAny(head, cardMarkers):
		return LayoutCard, true
	}
	return LayoutCard, false
}

func containsAny(s string, subs []string) bool {
	for _, sub := range subs {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}

var (
	isoMonthInName = regexp.MustCompile(`(\d{4})-(\d{2})`)
	brDateInName   = regexp.MustCompile(`(\d{2})[-/](\d{2})[-/](\d{4})`)
)

// BillingMonthFromName finds a billing month in a statement's file name,
// e.g. "Fatura_2025-11-10.csv" or "fatura 10-11-2025.csv".
func BillingMonthFromName(name string) (model.Month, bool) {
	if m := isoMonthInName.FindStringSubmatch(name); m != nil {
		if month, ok := makeMonth(m[1], m[2]); ok {
			return month, true
		}
	}
	if m := brDateInName.FindStringSubmatch(name); m != nil {
		if month, ok := makeMonth(m[3], m[2]); ok {
			return month, true
		}
	}
	return model.Month{}, false
}

func makeMonth(year, month string) (model.Month, bool) {
	y, err := strconv.Atoi(year)
	if err != nil {
		return model.Month{}, false
	}
	m, err := strconv.Atoi(month)
	if err != nil || m < 1 || m > 12 {
		return model.Month{}, false
	}
	return model.MustParseMonth(fmt.Sprintf("%04d-%02d", y, m)), true
}
