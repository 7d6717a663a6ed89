package anomaly

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"cloud.google.com/go/civil"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/extrato-dev/extrato/internal/config"
	"github.com/extrato-dev/extrato/internal/model"
	"github.com/extrato-dev/extrato/internal/store"
)

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func month(s string) model.Month { return model.MustParseMonth(s) }

func txn(desc, category, amount string, d civil.Date) model.Transaction {
	return model.Transaction{
		PurchaseDate:          d,
		Description:           desc,
		NormalizedDescription: desc,
		Amount:                dec(amount),
		Category:              category,
		Installment:           model.SingleInstallment,
		Card:                  "1234",
		ReferenceMonth:        model.MonthOf(d),
		Kind:                  model.KindCard,
	}
}

func TestTrailingMonths(t *testing.T) {
	months := []model.Month{month("2025-03"), month("2025-01"), month("2024-12"), month("2025-02"), month("2025-04")}
	assert.Equal(t, []model.Month{month("2025-01"), month("2025-02")}, TrailingMonths(months, month("2025-03"), 2))
	assert.Len(t, TrailingMonths(months, month("2025-03"), 0), 3)
	assert.Empty(t, TrailingMonths(months, month("2024-12"), 6))
}

func TestCategorySpikes(t *testing.T) {
	th := DefaultThresholds()
	totals := make(Totals)
	trailing := []model.Month{month("2025-01"), month("2025-02")}
	totals.Add(month("2025-01"), "Alimentação", dec("400"))
	totals.Add(month("2025-02"), "Alimentação", dec("400"))
	totals.Add(month("2025-03"), "Alimentação", dec("700"))
	// Above 1.5x the mean but under the floor.
	totals.Add(month("2025-01"), "Lazer", dec("20"))
	totals.Add(month("2025-03"), "Lazer", dec("90"))
	// Missing from one trailing month, so the mean is 60.
	totals.Add(month("2025-02"), "Saúde", dec("120"))
	totals.Add(month("2025-03"), "Saúde", dec("150"))
	// Within 1.5x.
	totals.Add(month("2025-01"), "Transporte", dec("200"))
	totals.Add(month("2025-02"), "Transporte", dec("200"))
	totals.Add(month("2025-03"), "Transporte", dec("250"))

	spikes := CategorySpikes(totals, month("2025-03"), trailing, th)
	require.Len(t, spikes, 2)
	assert.Equal(t, "Alimentação", spikes[0].Category)
	assert.True(t, spikes[0].Mean.Equal(dec("400")))
	assert.True(t, spikes[0].Pct.Equal(dec("75")))
	assert.Equal(t, "Saúde", spikes[1].Category)
	assert.True(t, spikes[1].Mean.Equal(dec("60")))

	assert.Empty(t, CategorySpikes(totals, month("2025-03"), nil, th))
}

func TestHighValueTransactions(t *testing.T) {
	th := DefaultThresholds()
	th.HighValueLimit = 1
	averages := map[string]decimal.Decimal{"Compras": dec("100")}
	txns := []model.Transaction{
		txn("LOJA A", "Compras", "250", civil.Date{Year: 2025, Month: time.March, Day: 1}),
		txn("LOJA B", "Compras", "300", civil.Date{Year: 2025, Month: time.March, Day: 2}),
		txn("LOJA C", "Compras", "200", civil.Date{Year: 2025, Month: time.March, Day: 3}),
		txn("OUTRA", "Outros", "900", civil.Date{Year: 2025, Month: time.March, Day: 4}),
	}

	got := HighValueTransactions(txns, averages, th)
	require.Len(t, got, 1)
	assert.Equal(t, "LOJA B", got[0].Transaction.Description)
	assert.True(t, got[0].Average.Equal(dec("100")))
}

func TestNewSuppliers(t *testing.T) {
	d := civil.Date{Year: 2025, Month: time.March, Day: 1}
	txns := []model.Transaction{
		txn("NETFLIX", "Assinaturas", "55.90", d),
		txn("PADARIA NOVA", "Alimentação", "12", d),
		txn("PADARIA NOVA", "Alimentação", "18", d),
		txn("LOJA NOVA", "Compras", "80", d),
		txn("ESTORNO NOVO", "Compras", "-80", d),
	}
	got := NewSuppliers(txns, map[string]bool{"NETFLIX": true})
	require.Len(t, got, 2)
	assert.Equal(t, "LOJA NOVA", got[0].NormalizedDescription)
	assert.Equal(t, "PADARIA NOVA", got[1].NormalizedDescription)
}

func TestMonthOverMonth(t *testing.T) {
	totals := make(Totals)
	totals.Add(month("2024-12"), "Lazer", dec("100"))
	totals.Add(month("2025-01"), "Lazer", dec("160"))
	totals.Add(month("2025-01"), "Viagens", dec("500"))
	totals.Add(month("2024-12"), "Saúde", dec("80"))
	totals.Add(month("2025-01"), "Saúde", dec("100"))

	changes := MonthOverMonth(totals, month("2025-01"))
	require.Len(t, changes, 3)
	assert.Equal(t, "Viagens", changes[0].Key)
	assert.True(t, changes[0].Pct.Equal(dec("100")), "new category reports +100%")
	assert.True(t, changes[1].Pct.Equal(dec("60")))
	assert.True(t, changes[2].Pct.Equal(dec("25")))

	inc := CategoryIncreases(changes, DefaultThresholds())
	require.Len(t, inc, 1)
	assert.Equal(t, "Lazer", inc[0].Key)
}

func TestSubcategoryVariance(t *testing.T) {
	totals := make(Totals)
	totals.Add(month("2025-01"), "Restaurante", dec("100"))
	totals.Add(month("2025-02"), "Restaurante", dec("200"))
	totals.Add(month("2025-03"), "Restaurante", dec("300"))
	totals.Add(month("2025-03"), "", dec("10"))

	got := SubcategoryVariance(totals, month("2025-03"), []model.Month{month("2025-01"), month("2025-02")})
	require.Len(t, got, 2)
	assert.Equal(t, "Restaurante", got[0].Subcategory)
	assert.True(t, got[0].Mean.Equal(dec("150")))
	assert.True(t, got[0].MeanPct.Equal(dec("100")))
	assert.True(t, got[0].PreviousPct.Equal(dec("50")))
	assert.Equal(t, NoSubcategory, got[1].Subcategory)
	assert.True(t, got[1].PreviousPct.IsZero())
}

func TestService_Month(t *testing.T) {
	ctx := context.Background()
	s, err := store.Open(config.DatabaseConfig{Driver: "sqlite", DSN: filepath.Join(t.TempDir(), "test.db")})
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })

	jan := civil.Date{Year: 2025, Month: time.January, Day: 10}
	feb := civil.Date{Year: 2025, Month: time.February, Day: 10}
	_, err = s.ImportBatch(ctx, model.Upload{ID: "jan", FileName: "jan.csv", Hash: "jan", ReferenceMonth: month("2025-01"), Layout: "card"},
		[]model.Transaction{txn("MERCADO", "Alimentação", "200", jan), txn("NETFLIX", "Assinaturas", "55.90", jan)})
	require.NoError(t, err)
	_, err = s.ImportBatch(ctx, model.Upload{ID: "feb", FileName: "feb.csv", Hash: "feb", ReferenceMonth: month("2025-02"), Layout: "card"},
		[]model.Transaction{
			txn("MERCADO", "Alimentação", "200", feb),
			txn("CHURRASCARIA", "Alimentação", "450", feb),
			txn("NETFLIX", "Assinaturas", "55.90", feb),
		})
	require.NoError(t, err)

	report, err := NewService(s, DefaultThresholds()).Month(ctx, month("2025-02"))
	require.NoError(t, err)
	assert.Equal(t, []model.Month{month("2025-01")}, report.Trailing)

	require.Len(t, report.Spikes, 1)
	assert.Equal(t, "Alimentação", report.Spikes[0].Category)
	assert.True(t, report.Spikes[0].Current.Equal(dec("650")))

	require.Len(t, report.NewSuppliers, 1)
	assert.Equal(t, "CHURRASCARIA", report.NewSuppliers[0].NormalizedDescription)

	require.Len(t, report.CategoryIncreases, 1)
	assert.True(t, report.CategoryIncreases[0].Pct.Equal(dec("225")))
}
