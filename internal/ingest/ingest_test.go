package ingest

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/extrato-dev/extrato/internal/config"
	"github.com/extrato-dev/extrato/internal/importer"
	"github.com/extrato-dev/extrato/internal/model"
	"github.com/extrato-dev/extrato/internal/store"
)

func openStore(t *testing.T) *store.Store {
	t.Helper()
	s, err := store.Open(config.DatabaseConfig{Driver: "sqlite", DSN: filepath.Join(t.TempDir(), "test.db")})
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func readFixture(t *testing.T, name string) Input {
	t.Helper()
	data, err := os.ReadFile(filepath.Join("..", "..", "testdata", name))
	require.NoError(t, err)
	return Input{FileName: name, Text: string(data)}
}

func TestImport_CardStatementTwice(t *testing.T) {
	ctx := context.Background()
	s := openStore(t)
	svc := NewService(s, nil)
	in := readFixture(t, "Fatura_2025-02-10.csv")

	res, err := svc.Import(ctx, in)
	require.NoError(t, err)
	assert.Equal(t, StatusImported, res.Status)
	assert.Empty(t, res.Reason)
	assert.Equal(t, importer.LayoutCard, res.Layout)
	assert.Equal(t, model.MustParseMonth("2025-02"), res.ReferenceMonth)
	assert.Equal(t, 5, res.Inserted)
	assert.Equal(t, 5, res.Categorized)
	assert.Equal(t, 2, res.Skipped)
	assert.Len(t, res.RowErrors, 1)
	assert.NotEmpty(t, res.UploadID)

	txns, err := s.Transactions(ctx, store.Filter{})
	require.NoError(t, err)
	require.Len(t, txns, 5)
	ifood := txns[0]
	assert.Equal(t, "IFD*IFOOD", ifood.NormalizedDescription)
	assert.Equal(t, model.MustParseMonth("2025-02"), ifood.ReferenceMonth, "billing month wins over purchase date")
	assert.Equal(t, "Alimentação", ifood.Category)

	again, err := svc.Import(ctx, in)
	require.NoError(t, err)
	assert.Equal(t, StatusDuplicate, again.Status)
	assert.Equal(t, "file already imported", again.Reason)
	assert.Zero(t, again.Inserted)

	txns, err = s.Transactions(ctx, store.Filter{})
	require.NoError(t, err)
	assert.Len(t, txns, 5)
}

func TestImport_AccountExtract(t *testing.T) {
	ctx := context.Background()
	s := openStore(t)

	res, err := NewService(s, nil).Import(ctx, readFixture(t, "extrato_conta.csv"))
	require.NoError(t, err)
	assert.Equal(t, StatusImported, res.Status)
	assert.Equal(t, importer.LayoutAccount, res.Layout)
	assert.Equal(t, 3, res.Inserted)

	credits, err := s.Transactions(ctx, store.Filter{Kinds: []model.Kind{model.KindAccountCredit}})
	require.NoError(t, err)
	require.Len(t, credits, 1)
	assert.Equal(t, "Pix recebido - JOAO PEREIRA", credits[0].Description)
}

func TestImport_Empty(t *testing.T) {
	res, err := NewService(openStore(t), nil).Import(context.Background(), Input{
		FileName: "vazio.csv",
		Text:     "Data de Compra;Descrição;Valor (em R$)\n",
	})
	require.NoError(t, err)
	assert.Equal(t, StatusEmpty, res.Status)
	assert.Equal(t, "no transactions found", res.Reason)
}

func TestImport_ExplicitHash(t *testing.T) {
	ctx := context.Background()
	s := openStore(t)
	svc := NewService(s, nil)
	in := readFixture(t, "Fatura_2025-02-10.csv")
	in.Hash = "abc"

	_, err := svc.Import(ctx, in)
	require.NoError(t, err)
	ok, err := s.HasUpload(ctx, "abc")
	require.NoError(t, err)
	assert.True(t, ok)
}

type failingStore struct{ err error }

func (f failingStore) Rules(context.Context) ([]model.CategorizationRule, error) { return nil, nil }

func (f failingStore) ImportBatch(context.Context, model.Upload, []model.Transaction) (store.ImportStats, error) {
	return store.ImportStats{}, f.err
}

func TestImport_StorageErrorPropagates(t *testing.T) {
	boom := errors.New("disk full")
	_, err := NewService(failingStore{err: boom}, nil).Import(context.Background(), readFixture(t, "Fatura_2025-02-10.csv"))
	assert.ErrorIs(t, err, boom)
}
