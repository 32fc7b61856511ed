package etl

import (
	"encoding/json"
	"fmt"
	"os"

	"fashionetl/internal/model"
)

// WriteRaw dumps raw records as indented JSON so a later transform can
// replay them.
func WriteRaw(path string, records []model.RawRecord) error {
	if records == nil {
		records = []model.RawRecord{}
	}
	data, err := json.MarshalIndent(records, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal raw records: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	return nil
}

func ReadRaw(path string) ([]model.RawRecord, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}
	var records []model.RawRecord
	if err := json.Unmarshal(data, &records); err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", path, err)
	}
	return records, nil
}
