package storage

import (
	"context"

	"igtdoc/internal/domain"
)

// Storage persists exported documents (JSON tree or flat listings).
type Storage interface {
	Save(path string, doc any) error
	Load(path string, doc any) error
}

// SubtestStore receives the filtered subtest listing of a catalog.
type SubtestStore interface {
	SaveSubtests(ctx context.Context, title string, subtests []*domain.Subtest) error
	LoadSubtests(ctx context.Context) ([]StoredSubtest, error)
	Close() error
}

// StoredSubtest is one subtest row read back from a SubtestStore.
type StoredSubtest struct {
	Path       string
	IGTName    string
	Test       string
	Subtest    string
	Documented bool
	File       string
	Line       int
	Fields     domain.Fields
}

// JSONStorage writes documents as indented JSON files.
type JSONStorage struct{}

// NewJSONStorage returns a Storage that reads/writes JSON files.
func NewJSONStorage() *JSONStorage {
	return &JSONStorage{}
}

var (
	_ Storage      = (*JSONStorage)(nil)
	_ SubtestStore = (*SQLStore)(nil)
)
