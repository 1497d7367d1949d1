package storage

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

// Save writes doc to path, creating parent directories.
func (s *JSONStorage) Save(path string, doc any) error {
	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal document: %w", err)
	}
	data = append(data, '\n')

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("create output dir: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("write document: %w", err)
	}
	return nil
}

// Load reads a document written by Save.
func (s *JSONStorage) Load(path string, doc any) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read document: %w", err)
	}
	if err := json.Unmarshal(data, doc); err != nil {
		return fmt.Errorf("parse document: %w", err)
	}
	return nil
}
