package commands_test

import (
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/extrato-dev/extrato/internal/export"
)

var binaryPath string

func TestMain(m *testing.M) {
	// Build the binary once for all tests.
	tmpDir, err := os.MkdirTemp("", "extrato-test-*")
	if err != nil {
		panic(err)
	}
	defer os.RemoveAll(tmpDir)

	binaryPath = filepath.Join(tmpDir, "extrato")
	cmd := exec.Command("go", "build", "-o", binaryPath, "../../cmd/extrato")
	cmd.Stderr = os.Stderr
	if err := cmd.Run(); err != nil {
		panic("failed to build binary: " + err.Error())
	}

	os.Exit(m.Run())
}

func runExtrato(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := exec.Command(binaryPath, args...)
	out, err := cmd.CombinedOutput()
	return string(out), err
}

func fixture(t *testing.T, name string) string {
	t.Helper()
	p, err := filepath.Abs(filepath.Join("..", "..", "testdata", name))
	require.NoError(t, err)
	return p
}

func initProject(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	out, err := runExtrato(t, "init", dir)
	require.NoError(t, err, out)
	return dir
}

func TestInit_CreatesStructure(t *testing.T) {
	dir := initProject(t)

	for _, d := range []string{"import", filepath.Join("import", "processed")} {
		info, err := os.Stat(filepath.Join(dir, d))
		require.NoError(t, err, "directory %s should exist", d)
		assert.True(t, info.IsDir(), "%s should be a directory", d)
	}

	data, err := os.ReadFile(filepath.Join(dir, "extrato.yaml"))
	require.NoError(t, err)
	var cfg map[string]any
	require.NoError(t, yaml.Unmarshal(data, &cfg))
	assert.Contains(t, string(data), "driver: sqlite")
	assert.Contains(t, string(data), "spike_factor: 1.5")

	gitignore, err := os.ReadFile(filepath.Join(dir, ".gitignore"))
	require.NoError(t, err)
	assert.Contains(t, string(gitignore), "*.db")
}

func TestInit_RefusesExisting(t *testing.T) {
	dir := initProject(t)
	out, err := runExtrato(t, "init", dir)
	assert.Error(t, err)
	assert.Contains(t, out, "already exists")
}

func TestInit_MySQLNeedsDSN(t *testing.T) {
	out, err := runExtrato(t, "init", t.TempDir(), "--driver", "mysql")
	assert.Error(t, err)
	assert.Contains(t, out, "--dsn is required")
}

func TestImport_FilesAndDuplicate(t *testing.T) {
	dir := initProject(t)

	out, err := runExtrato(t, "import", "--dir", dir, fixture(t, "Fatura_2025-02-10.csv"), fixture(t, "extrato_conta.csv"))
	require.NoError(t, err, out)
	assert.Contains(t, out, "Fatura_2025-02-10.csv: card 2025-02, 5 imported, 0 duplicates, 2 skipped, 1 rejected, 5 categorized")
	assert.Contains(t, out, "extrato_conta.csv: account 2025-02, 3 imported")

	out, err = runExtrato(t, "import", "--dir", dir, fixture(t, "Fatura_2025-02-10.csv"))
	require.NoError(t, err, out)
	assert.Contains(t, out, "file already imported")

	// Fixtures given as arguments stay where they are.
	_, err = os.Stat(fixture(t, "Fatura_2025-02-10.csv"))
	assert.NoError(t, err)
}

func TestImport_FromImportDir(t *testing.T) {
	dir := initProject(t)
	data, err := os.ReadFile(fixture(t, "Fatura_2025-02-10.csv"))
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "import", "Fatura_2025-02-10.csv"), data, 0o644))

	out, err := runExtrato(t, "import", "--dir", dir)
	require.NoError(t, err, out)
	assert.Contains(t, out, "5 imported")

	_, err = os.Stat(filepath.Join(dir, "import", "processed", "Fatura_2025-02-10.csv"))
	assert.NoError(t, err)
	_, err = os.Stat(filepath.Join(dir, "import", "Fatura_2025-02-10.csv"))
	assert.True(t, os.IsNotExist(err))

	out, err = runExtrato(t, "import", "--dir", dir)
	require.NoError(t, err, out)
	assert.Contains(t, out, "No files in")
}

func TestSummaryAndExport(t *testing.T) {
	dir := initProject(t)
	out, err := runExtrato(t, "import", "--dir", dir, fixture(t, "Fatura_2025-02-10.csv"), fixture(t, "extrato_conta.csv"))
	require.NoError(t, err, out)

	out, err = runExtrato(t, "summary", "--dir", dir, "--month", "2025-02")
	require.NoError(t, err, out)
	assert.Contains(t, out, "R$ 283,90")
	assert.Contains(t, out, "R$ -23,10")
	assert.Contains(t, out, "R$ 749,65")

	csvPath := filepath.Join(dir, "out.csv")
	out, err = runExtrato(t, "export", "--dir", dir, "--month", "2025-02", "-o", csvPath)
	require.NoError(t, err, out)
	f, err := os.Open(csvPath)
	require.NoError(t, err)
	defer f.Close()
	txns, err := export.ReadTransactions(f)
	require.NoError(t, err)
	assert.Len(t, txns, 8)
}

func TestRulesAndAssign(t *testing.T) {
	dir := initProject(t)
	out, err := runExtrato(t, "import", "--dir", dir, fixture(t, "extrato_conta.csv"))
	require.NoError(t, err, out)

	out, err = runExtrato(t, "categorize", "assign", "--dir", dir, "--description", "tarifa pacote", "Taxas", "Banco")
	require.NoError(t, err, out)
	assert.Contains(t, out, `Rule "TARIFA PACOTE" -> Taxas (used 1 times), 1 transactions updated`)

	out, err = runExtrato(t, "rules", "list", "--dir", dir)
	require.NoError(t, err, out)
	assert.Contains(t, out, "TARIFA PACOTE")

	out, err = runExtrato(t, "rules", "delete", "--dir", dir, "TARIFA PACOTE")
	require.NoError(t, err, out)
	out, err = runExtrato(t, "rules", "list", "--dir", dir)
	require.NoError(t, err, out)
	assert.Contains(t, out, "No rules")
}

func TestRecurringAndInstallments(t *testing.T) {
	dir := initProject(t)
	out, err := runExtrato(t, "import", "--dir", dir, fixture(t, "Fatura_2025-02-10.csv"))
	require.NoError(t, err, out)

	out, err = runExtrato(t, "recurring", "add", "--dir", dir, "Aluguel", "--amount", "2.000,00", "--category", "Moradia")
	require.NoError(t, err, out)
	out, err = runExtrato(t, "installments", "add", "--dir", dir, "Notebook", "3000", "3", "--start", "2025-01-15")
	require.NoError(t, err, out)
	assert.Contains(t, out, "3 x R$ 1.000,00 from 2025-01")

	out, err = runExtrato(t, "recurring", "list", "--dir", dir, "--month", "2025-02")
	require.NoError(t, err, out)
	assert.Contains(t, out, "Aluguel")
	assert.Contains(t, out, "Notebook 2/3")
	assert.Contains(t, out, "Installments")

	out, err = runExtrato(t, "installments", "list", "--dir", dir)
	require.NoError(t, err, out)
	assert.Contains(t, out, "2025-01..2025-03")

	out, err = runExtrato(t, "recurring", "ignore", "--dir", dir, "aluguel")
	require.NoError(t, err, out)
	out, err = runExtrato(t, "recurring", "list", "--dir", dir, "--month", "2025-02")
	require.NoError(t, err, out)
	assert.False(t, strings.Contains(out, "Aluguel"), out)
}

func TestAnomalies_NoHistory(t *testing.T) {
	dir := initProject(t)
	out, err := runExtrato(t, "anomalies", "--dir", dir)
	assert.Error(t, err)
	assert.Contains(t, out, "no transactions imported yet")
}

func TestUploads(t *testing.T) {
	dir := initProject(t)
	out, err := runExtrato(t, "import", "--dir", dir, fixture(t, "Fatura_2025-02-10.csv"))
	require.NoError(t, err, out)

	out, err = runExtrato(t, "uploads", "--dir", dir)
	require.NoError(t, err, out)
	assert.Contains(t, out, "Fatura_2025-02-10.csv")
	assert.Contains(t, out, "card")
}
