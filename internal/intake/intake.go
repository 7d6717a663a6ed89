// Package intake reads statement files from disk: plain CSVs or ZIP
// archives of CSVs, decoded to text and hashed.
package intake

import (
	"archive/zip"
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/encoding/charmap"
)

var (
	// ErrNoCSV means an archive held no CSV file.
	ErrNoCSV = errors.New("no CSV file found")
	// ErrEncrypted means an archive entry is password protected.
	ErrEncrypted = errors.New("archive is password protected")
)

// ProcessedDir is the subdirectory of the import directory that receives
// imported files.
const ProcessedDir = "processed"

// File is one decoded CSV.
type File struct {
	// Name is the CSV's base name; for archive entries, the entry's.
	Name string
	Text string
	// Hash is the hex SHA-256 of the raw bytes.
	Hash string
}

// FileInfo describes a file waiting in the import directory.
type FileInfo struct {
	Name string
	Path string
	Size int64
}

// ReadFile reads a .csv or .zip file.
func ReadFile(p string) ([]File, error) {
	data, err := os.ReadFile(p)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", p, err)
	}
	if isZip(p) {
		files, err := ReadZip(data)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", filepath.Base(p), err)
		}
		return files, nil
	}
	return []File{NewFile(filepath.Base(p), data)}, nil
}

// NewFile decodes and hashes raw CSV bytes.
func NewFile(name string, data []byte) File {
	return File{Name: name, Text: Decode(data), Hash: Hash(data)}
}

// ReadZip returns every CSV entry of a ZIP archive.
func ReadZip(data []byte) ([]File, error) {
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, fmt.Errorf("opening archive: %w", err)
	}
	var files []File
	for _, f := range zr.File {
		if f.FileInfo().IsDir() || !strings.EqualFold(path.Ext(f.Name), ".csv") {
			continue
		}
		// Bit 0 of the general purpose flags marks encryption.
		if f.Flags&0x1 != 0 {
			return nil, fmt.Errorf("%s: %w", f.Name, ErrEncrypted)
		}
		rc, err := f.Open()
		if err != nil {
			return nil, fmt.Errorf("opening %s: %w", f.Name, err)
		}
		raw, err := io.ReadAll(rc)
		rc.Close()
		if err != nil {
			return nil, fmt.Errorf("reading %s: %w", f.Name, err)
		}
		files = append(files, NewFile(path.Base(f.Name), raw))
	}
	if len(files) == 0 {
		return nil, ErrNoCSV
	}
	return files, nil
}

// Decode returns data as text: UTF-8 when valid, else Latin-1. A leading
// byte order mark is dropped.
func Decode(data []byte) string {
	data = bytes.TrimPrefix(data, []byte("\xef\xbb\xbf"))
	if utf8.Valid(data) {
		return string(data)
	}
	text, err := charmap.ISO8859_1.NewDecoder().Bytes(data)
	if err != nil {
		return string(data)
	}
	return string(text)
}

// Hash returns the hex SHA-256 of data.
func Hash(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}

// Scan returns the CSV and ZIP files in dir. A missing dir has none.
func Scan(dir string) ([]FileInfo, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("reading import dir: %w", err)
	}

	var files []FileInfo
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		lower := strings.ToLower(e.Name())
		if !strings.HasSuffix(lower, ".csv") && !strings.HasSuffix(lower, ".zip") {
			continue
		}
		info, err := e.Info()
		if err != nil {
			return nil, fmt.Errorf("stat %s: %w", e.Name(), err)
		}
		files = append(files, FileInfo{
			Name: e.Name(),
			Path: filepath.Join(dir, e.Name()),
			Size: info.Size(),
		})
	}
	return files, nil
}

// MarkProcessed moves dir/fileName to dir/processed/.
func MarkProcessed(dir, fileName string) error {
	dstDir := filepath.Join(dir, ProcessedDir)
	if err := os.MkdirAll(dstDir, 0o755); err != nil {
		return fmt.Errorf("creating processed dir: %w", err)
	}
	if err := os.Rename(filepath.Join(dir, fileName), filepath.Join(dstDir, fileName)); err != nil {
		return fmt.Errorf("moving %s to processed: %w", fileName, err)
	}
	return nil
}

func isZip(p string) bool {
	return strings.EqualFold(filepath.Ext(p), ".zip")
}
