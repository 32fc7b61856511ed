package repository

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/gocarina/gocsv"

	"fashionetl/internal/model"
)

// CSVRepository writes the batch to a CSV file, replacing it entirely.
type CSVRepository struct {
	Path string
}

func (r *CSVRepository) Name() string { return "csv" }

func (r *CSVRepository) Save(_ context.Context, records []model.NormalizedRecord) error {
	dir := filepath.Dir(r.Path)
	tmp, err := os.CreateTemp(dir, ".fashion-*.csv")
	if err != nil {
		return fmt.Errorf("failed to create temp file in %s: %w", dir, err)
	}
	defer os.Remove(tmp.Name())

	if err := gocsv.Marshal(records, tmp); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to encode csv: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to flush csv: %w", err)
	}

	if err := os.Rename(tmp.Name(), r.Path); err != nil {
		return fmt.Errorf("failed to replace %s: %w", r.Path, err)
	}
	return nil
}

// Load reads a file written by Save.
func (r *CSVRepository) Load() ([]model.NormalizedRecord, error) {
	f, err := os.Open(r.Path)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", r.Path, err)
	}
	defer f.Close()

	var records []model.NormalizedRecord
	if err := gocsv.Unmarshal(f, &records); err != nil {
		return nil, fmt.Errorf("failed to decode %s: %w", r.Path, err)
	}
	return records, nil
}
