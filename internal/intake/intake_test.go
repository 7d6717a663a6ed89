package intake

import (
	"archive/zip"
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeZip(t *testing.T, entries map[string]string) []byte {
	t.Helper()
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	for name, body := range entries {
		w, err := zw.Create(name)
		require.NoError(t, err)
		_, err = w.Write([]byte(body))
		require.NoError(t, err)
	}
	require.NoError(t, zw.Close())
	return buf.Bytes()
}

func TestDecode(t *testing.T) {
	assert.Equal(t, "Descrição", Decode([]byte("Descrição")))
	assert.Equal(t, "Descrição", Decode([]byte("\xef\xbb\xbfDescrição")))
	// "Descrição" in Latin-1.
	assert.Equal(t, "Descrição", Decode([]byte{'D', 'e', 's', 'c', 'r', 'i', 0xe7, 0xe3, 'o'}))
}

func TestReadFile_CSV(t *testing.T) {
	dir := t.TempDir()
	p := filepath.Join(dir, "fatura.csv")
	require.NoError(t, os.WriteFile(p, []byte("a;b\n"), 0o644))

	files, err := ReadFile(p)
	require.NoError(t, err)
	require.Len(t, files, 1)
	assert.Equal(t, "fatura.csv", files[0].Name)
	assert.Equal(t, "a;b\n", files[0].Text)
	assert.Equal(t, Hash([]byte("a;b\n")), files[0].Hash)
}

func TestReadFile_Zip(t *testing.T) {
	dir := t.TempDir()
	p := filepath.Join(dir, "faturas.zip")
	data := writeZip(t, map[string]string{
		"2025/Fatura_2025-02-10.csv": "x;y\n",
		"leia-me.txt":                "ignored",
	})
	require.NoError(t, os.WriteFile(p, data, 0o644))

	files, err := ReadFile(p)
	require.NoError(t, err)
	require.Len(t, files, 1)
	assert.Equal(t, "Fatura_2025-02-10.csv", files[0].Name)
	assert.Equal(t, "x;y\n", files[0].Text)
}

func TestReadZip_NoCSV(t *testing.T) {
	_, err := ReadZip(writeZip(t, map[string]string{"a.txt": "x"}))
	assert.ErrorIs(t, err, ErrNoCSV)
}

func TestReadZip_Encrypted(t *testing.T) {
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	w, err := zw.CreateHeader(&zip.FileHeader{Name: "a.csv", Method: zip.Store, Flags: 0x1})
	require.NoError(t, err)
	_, err = w.Write([]byte("x"))
	require.NoError(t, err)
	require.NoError(t, zw.Close())

	_, err = ReadZip(buf.Bytes())
	assert.ErrorIs(t, err, ErrEncrypted)
}

func TestScan(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(dir, ProcessedDir), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "bank.csv"), []byte("data"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "pack.ZIP"), []byte("data"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("data"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, ProcessedDir, "old.csv"), []byte("data"), 0o644))

	files, err := Scan(dir)
	require.NoError(t, err)
	require.Len(t, files, 2)
	assert.Equal(t, "bank.csv", files[0].Name)
	assert.Equal(t, "pack.ZIP", files[1].Name)
	assert.Equal(t, int64(4), files[0].Size)
}

func TestScan_MissingDir(t *testing.T) {
	files, err := Scan(filepath.Join(t.TempDir(), "nope"))
	require.NoError(t, err)
	assert.Nil(t, files)
}

func TestMarkProcessed(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "bank.csv"), []byte("data"), 0o644))

	require.NoError(t, MarkProcessed(dir, "bank.csv"))

	_, err := os.Stat(filepath.Join(dir, "bank.csv"))
	assert.True(t, os.IsNotExist(err))
	_, err = os.Stat(filepath.Join(dir, ProcessedDir, "bank.csv"))
	assert.NoError(t, err)
}

func TestHash(t *testing.T) {
	assert.Equal(t, "e3b0c44298fc1c149afbf4c8996fb92427ae41e4649b934ca495991b7852b855", Hash(nil))
}
