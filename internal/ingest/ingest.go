// Package ingest is the import entrypoint: it extracts one decoded file,
// categorizes the rows and stores them together with the upload record.
package ingest

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/extrato-dev/extrato/internal/categorize"
	"github.com/extrato-dev/extrato/internal/importer"
	"github.com/extrato-dev/extrato/internal/intake"
	"github.com/extrato-dev/extrato/internal/model"
	"github.com/extrato-dev/extrato/internal/store"
)

// Status is the outcome of one import.
type Status string

const (
	StatusImported  Status = "imported"
	StatusDuplicate Status = "duplicate"
	StatusEmpty     Status = "empty"
)

// Store is the persistence ingest writes to. *store.Store satisfies it.
type Store interface {
	Rules(ctx context.Context) ([]model.CategorizationRule, error)
	ImportBatch(ctx context.Context, up model.Upload, txns []model.Transaction) (store.ImportStats, error)
}

// Input is one decoded file.
type Input struct {
	FileName string
	Text     string
	// Hash identifies the file content. Empty means the SHA-256 of Text.
	Hash string
	// ReferenceMonth overrides the billing month of card statements.
	ReferenceMonth model.Month
}

// Result reports what an import did. Reason is set whenever Status is not
// StatusImported.
type Result struct {
	Status         Status
	Reason         string
	FileName       string
	Layout         importer.Layout
	ReferenceMonth model.Month
	UploadID       string
	Inserted       int
	Duplicates     int
	Skipped        int
	Categorized    int
	RowErrors      []importer.RowError
}

// Service imports files into a Store.
type Service struct {
	store    Store
	table    *categorize.Table
	registry *importer.Registry
}

// NewService returns a Service categorizing with table. A nil table means
// the built-in one.
func NewService(s Store, table *categorize.Table) *Service {
	if table == nil {
		table = categorize.Builtin()
	}
	return &Service{store: s, table: table, registry: importer.DefaultRegistry()}
}

// Import extracts, categorizes and stores in. Files without transactions
// and files already imported are reported through Result.Status, not as
// errors. Storage failures are returned.
func (s *Service) Import(ctx context.Context, in Input) (*Result, error) {
	log := zerolog.Ctx(ctx).With().Str("file", in.FileName).Logger()
	ctx = log.WithContext(ctx)

	extracted, err := s.registry.Extract(ctx, in.Text, importer.Options{
		FileName:       in.FileName,
		ReferenceMonth: in.ReferenceMonth,
	})
	if err != nil {
		return nil, err
	}
	res := &Result{
		FileName:       in.FileName,
		Layout:         extracted.Layout,
		ReferenceMonth: extracted.ReferenceMonth,
		Skipped:        extracted.Skipped,
		RowErrors:      extracted.Errors,
	}
	if extracted.Empty() {
		res.Status = StatusEmpty
		res.Reason = "no transactions found"
		if len(extracted.Errors) > 0 {
			res.Reason = fmt.Sprintf("no transactions found (%d rows rejected)", len(extracted.Errors))
		}
		log.Warn().Str("reason", res.Reason).Msg("nothing to import")
		return res, nil
	}

	rules, err := s.store.Rules(ctx)
	if err != nil {
		return nil, err
	}
	res.Categorized = categorize.New(s.table, rules).CategorizeBatch(extracted.Transactions)

	hash := in.Hash
	if hash == "" {
		hash = intake.Hash([]byte(in.Text))
	}
	up := model.Upload{
		ID:             uuid.NewString(),
		FileName:       in.FileName,
		Hash:           hash,
		ReferenceMonth: extracted.ReferenceMonth,
		Layout:         string(extracted.Layout),
	}
	stats, err := s.store.ImportBatch(ctx, up, extracted.Transactions)
	if errors.Is(err, store.ErrDuplicateUpload) {
		res.Status = StatusDuplicate
		res.Reason = "file already imported"
		log.Info().Str("hash", hash).Msg("duplicate upload rejected")
		return res, nil
	}
	if err != nil {
		return nil, fmt.Errorf("importing %s: %w", in.FileName, err)
	}

	res.Status = StatusImported
	res.UploadID = up.ID
	res.Inserted = stats.Inserted
	res.Duplicates = stats.Duplicates
	log.Info().
		Str("layout", string(res.Layout)).
		Str("month", res.ReferenceMonth.String()).
		Int("inserted", res.Inserted).
		Int("duplicates", res.Duplicates).
		Int("skipped", res.Skipped).
		Int("rejected", len(res.RowErrors)).
		Int("categorized", res.Categorized).
		Msg("statement imported")
	return res, nil
}
