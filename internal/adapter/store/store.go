package store

import (
	"fmt"
	"path/filepath"
	"strings"

	"coderag/internal/domain"
	"coderag/internal/port"
)

// ForPath picks the backend from the file extension:
// .db and .bolt use bbolt, everything else is a CSV table.
func ForPath(path string) port.RecordStore {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".db", ".bolt":
		return NewBoltRecordStore()
	default:
		return NewCSVStore()
	}
}

// Load reads the store at path with the backend matching its extension.
func Load(path string) (*domain.Store, error) {
	return ForPath(path).Load(path)
}

// Save writes st to path with the backend matching its extension.
func Save(st *domain.Store, path string) error {
	return ForPath(path).Save(st, path)
}

// CheckModel reports whether a loaded store was built with model.
// Stores without a recorded model pass.
func CheckModel(st *domain.Store, model string) error {
	if st.Model == "" || model == "" || st.Model == model {
		return nil
	}
	return fmt.Errorf("%w: store was embedded with %q, configured model is %q", domain.ErrModelMismatch, st.Model, model)
}
