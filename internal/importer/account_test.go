package importer

import (
	"context"
	"strings"
	"testing"
	"time"

	"cloud.google.com/go/civil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/extrato-dev/extrato/internal/model"
)

func TestAccountParser_Parse(t *testing.T) {
	p := &AccountParser{}
	res, err := p.Parse(context.Background(), strings.NewReader(readFixture(t, "extrato_conta.csv")), Options{FileName: "extrato_conta.csv"})
	require.NoError(t, err)
	require.Len(t, res.Transactions, 3)
	assert.Equal(t, 1, res.Skipped, "all-zero row")
	require.Len(t, res.Errors, 1)
	assert.Equal(t, 10, res.Errors[0].Row, "footer line")

	credit := res.Transactions[0]
	assert.Equal(t, "Pix recebido - JOAO PEREIRA", credit.Description)
	assert.Equal(t, "PIX RECEBIDO JOAO PEREIRA", credit.NormalizedDescription)
	assert.Equal(t, "1000.00", credit.Amount.StringFixed(2))
	assert.Equal(t, model.KindAccountCredit, credit.Kind)
	assert.Equal(t, model.AccountCard, credit.Card)
	assert.Equal(t, civil.Date{Year: 2025, Month: time.February, Day: 3}, credit.PurchaseDate)
	assert.Equal(t, "2025-02", credit.ReferenceMonth.String())

	debit := res.Transactions[1]
	assert.Equal(t, "-230.45", debit.Amount.StringFixed(2))
	assert.Equal(t, model.KindAccountDebit, debit.Kind)

	assert.Equal(t, "TARIFA PACOTE", res.Transactions[2].Description, "empty title adds no prefix")
}

func TestAccountParser_SingleSignedColumn(t *testing.T) {
	text := "Banco X\nAgência: 1 Conta: 2\n\nData;Histórico;Valor\n" +
		"01/03/2025;SALARIO;5.000,00\n" +
		"02/03/2025;ALUGUEL;-1.800,00\n" +
		"03/03/2025;ESTORNO ZERO;0,00\n"
	p := &AccountParser{}
	res, err := p.Parse(context.Background(), strings.NewReader(text), Options{})
	require.NoError(t, err)
	require.Len(t, res.Transactions, 2)
	assert.Equal(t, model.KindAccountCredit, res.Transactions[0].Kind)
	assert.Equal(t, "5000.00", res.Transactions[0].Amount.StringFixed(2))
	assert.Equal(t, model.KindAccountDebit, res.Transactions[1].Kind)
	assert.Equal(t, "-1800.00", res.Transactions[1].Amount.StringFixed(2))
	assert.Equal(t, 1, res.Skipped)
}

func TestAccountParser_RowWithBothSides(t *testing.T) {
	text := "Data,Descrição,Crédito,Débito\n04/03/2025,AJUSTE,\"10,00\",\"4,00\"\n"
	p := &AccountParser{}
	res, err := p.Parse(context.Background(), strings.NewReader(text), Options{})
	require.NoError(t, err)
	require.Len(t, res.Transactions, 1)
	assert.Equal(t, "-4.00", res.Transactions[0].Amount.StringFixed(2))
	assert.Equal(t, model.KindAccountDebit, res.Transactions[0].Kind)
}

func TestAccountParser_HeaderFallbackToFirstLine(t *testing.T) {
	text := "When,What,Valor\n01/03/2025,CAFE,\"-5,00\"\n"
	p := &AccountParser{}
	res, err := p.Parse(context.Background(), strings.NewReader(text), Options{})
	require.NoError(t, err)
	assert.True(t, res.Empty())
	require.Len(t, res.Errors, 1)
	assert.Equal(t, 1, res.Errors[0].Row)
}

func TestFindHeader(t *testing.T) {
	lines := strings.Split(readFixture(t, "extrato_conta.csv"), "\n")
	assert.Equal(t, 4, findHeader(lines))
	assert.Equal(t, 0, findHeader([]string{"a,b", "c,d"}))
}
