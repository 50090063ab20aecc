package recorder

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"StockSentinel/internal/model"
)

// WriteArtifact writes the snapshot records as a JSON array to path. Records with
// non-finite values are excluded. The file is replaced atomically so readers never
// observe a partial snapshot.
func WriteArtifact(path string, snap *model.Snapshot) error {
	data, err := json.MarshalIndent(persistable(snap.Records), "", "  ")
	if err != nil {
		return fmt.Errorf("encode artifact: %w", err)
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("create artifact dir: %w", err)
	}
	tmp, err := os.CreateTemp(dir, filepath.Base(path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("create temp artifact: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("write artifact: %w", err)
	}
	if err := tmp.Chmod(0644); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), path)
}

// ReadArtifact reads the records written by WriteArtifact. A missing file yields no records.
func ReadArtifact(path string) ([]model.AlertRecord, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return []model.AlertRecord{}, nil
		}
		return nil, err
	}
	var records []model.AlertRecord
	if err := json.Unmarshal(data, &records); err != nil {
		return nil, fmt.Errorf("decode artifact: %w", err)
	}
	return records, nil
}
