package history

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/geniass/airpods-dealz/pkg/product"
)

// JSONFile keeps the ledger as an indented JSON array, one object per observation with the
// fields name, link, price and date (YYYY-MM-DD).
type JSONFile struct {
	Path string
}

func NewJSONFile(path string) *JSONFile {
	return &JSONFile{Path: path}
}

func (s *JSONFile) Read(ctx context.Context) ([]product.Product, error) {
	ps, err := s.load()
	return swallowCorrupt("json", ps, err)
}

func (s *JSONFile) load() ([]product.Product, error) {
	f, err := os.Open(s.Path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	} else if err != nil {
		return nil, err
	}
	defer f.Close()

	var ps []product.Product
	if err := json.NewDecoder(f).Decode(&ps); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrCorrupt, s.Path, err)
	}
	return ps, nil
}

// Write replaces the file through a rename so a crash never leaves a half-written ledger.
func (s *JSONFile) Write(ctx context.Context, ledger []product.Product) error {
	if ledger == nil {
		ledger = []product.Product{}
	}

	dir := filepath.Dir(s.Path)
	if err := os.MkdirAll(dir, os.ModeDir|0755); err != nil {
		return err
	}
	f, err := os.CreateTemp(dir, filepath.Base(s.Path)+".*.tmp")
	if err != nil {
		return err
	}
	defer os.Remove(f.Name())

	enc := json.NewEncoder(f)
	enc.SetIndent("", "    ")
	enc.SetEscapeHTML(false)
	if err := enc.Encode(ledger); err != nil {
		f.Close()
		return err
	}
	if err := f.Sync(); err != nil {
		f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return err
	}

	return os.Rename(f.Name(), s.Path)
}
