package store

import (
	"encoding/json"
	"fmt"

	"go.etcd.io/bbolt"
	"coderag/internal/domain"
)

// CurrentSchemaVersion is the current schema version.
// Increment this when making breaking changes to the storage format.
const CurrentSchemaVersion = 1

var (
	keySchemaVersion  = []byte("schema_version")
	keyEmbeddingModel = []byte("embedding_model")
	keyDimension      = []byte("dimension")
)

// SchemaInfo stores the schema version and the embedding metadata of the table.
type SchemaInfo struct {
	Version        int    `json:"version"`
	EmbeddingModel string `json:"embedding_model"`
	Dimension      int    `json:"dimension"`
}

// GetSchemaInfo retrieves the current schema info from the database.
func (s *BoltStore) GetSchemaInfo() (*SchemaInfo, error) {
	var info SchemaInfo
	err := s.db.View(func(tx *bbolt.Tx) error {
		b := tx.Bucket(bucketMeta)
		if b == nil {
			return nil
		}

		if data := b.Get(keySchemaVersion); data != nil {
			if err := json.Unmarshal(data, &info.Version); err != nil {
				return &domain.FormatError{Reason: "unreadable schema version", Err: err}
			}
		}
		if data := b.Get(keyDimension); data != nil {
			if err := json.Unmarshal(data, &info.Dimension); err != nil {
				return &domain.FormatError{Reason: "unreadable dimension", Err: err}
			}
		}
		info.EmbeddingModel = string(b.Get(keyEmbeddingModel))
		return nil
	})
	return &info, err
}

// SetSchemaInfo stores the schema info in the database.
func (s *BoltStore) SetSchemaInfo(info *SchemaInfo) error {
	return s.db.Update(func(tx *bbolt.Tx) error {
		return putSchemaInfo(tx, info)
	})
}

func putSchemaInfo(tx *bbolt.Tx, info *SchemaInfo) error {
	b := tx.Bucket(bucketMeta)

	versionData, err := json.Marshal(info.Version)
	if err != nil {
		return err
	}
	if err := b.Put(keySchemaVersion, versionData); err != nil {
		return err
	}

	dimData, err := json.Marshal(info.Dimension)
	if err != nil {
		return err
	}
	if err := b.Put(keyDimension, dimData); err != nil {
		return err
	}

	return b.Put(keyEmbeddingModel, []byte(info.EmbeddingModel))
}

// CheckSchema verifies the file can be read by this version.
// A file without a version is treated as empty and current.
func (s *BoltStore) CheckSchema() (*SchemaInfo, error) {
	info, err := s.GetSchemaInfo()
	if err != nil {
		return nil, err
	}

	if info.Version > CurrentSchemaVersion {
		return nil, &domain.FormatError{
			Reason: fmt.Sprintf("store created by newer version (v%d > v%d)", info.Version, CurrentSchemaVersion),
		}
	}
	return info, nil
}
