package port

import "coderag/internal/domain"

// RecordStore persists a table of embedded records.
type RecordStore interface {
	Load(path string) (*domain.Store, error)

	Save(store *domain.Store, path string) error
}
