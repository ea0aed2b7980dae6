package store

import (
	"encoding/binary"
	"errors"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"go.etcd.io/bbolt"
	"coderag/internal/domain"
)

var (
	bucketRecords = []byte("records")
	bucketMeta    = []byte("meta")
)

// BoltStore keeps the record table in a bbolt file. Records are keyed by
// their big-endian position so a cursor walk returns insertion order.
type BoltStore struct {
	db *bbolt.DB
}

// NewBoltStore opens or creates a writable store at path.
func NewBoltStore(path string) (*BoltStore, error) {
	db, err := bbolt.Open(path, 0600, &bbolt.Options{Timeout: time.Second})
	if err != nil {
		return nil, fmt.Errorf("failed to open bolt db: %w", err)
	}

	err = db.Update(func(tx *bbolt.Tx) error {
		for _, b := range [][]byte{bucketRecords, bucketMeta} {
			if _, err := tx.CreateBucketIfNotExists(b); err != nil {
				return fmt.Errorf("failed to create bucket %s: %w", b, err)
			}
		}
		return nil
	})
	if err != nil {
		db.Close()
		return nil, err
	}

	return &BoltStore{db: db}, nil
}

// OpenBoltStoreReadOnly opens an existing store without creating buckets,
// so loading never modifies the file.
func OpenBoltStoreReadOnly(path string) (*BoltStore, error) {
	db, err := bbolt.Open(path, 0400, &bbolt.Options{ReadOnly: true, Timeout: time.Second})
	if err != nil {
		return nil, fmt.Errorf("failed to open bolt db: %w", err)
	}
	return &BoltStore{db: db}, nil
}

func (s *BoltStore) Close() error {
	return s.db.Close()
}

type storedRecord struct {
	Text          string    `json:"t"`
	Embedding     []float64 `json:"e"`
	SourceLocator string    `json:"s,omitempty"`
}

func recordKey(i int) []byte {
	key := make([]byte, 8)
	binary.BigEndian.PutUint64(key, uint64(i))
	return key
}

// ReplaceAll swaps the stored table for st in a single transaction.
func (s *BoltStore) ReplaceAll(st *domain.Store) error {
	return s.db.Update(func(tx *bbolt.Tx) error {
		if err := tx.DeleteBucket(bucketRecords); err != nil && err != bbolt.ErrBucketNotFound {
			return err
		}
		b, err := tx.CreateBucket(bucketRecords)
		if err != nil {
			return err
		}
		b.FillPercent = 1.0 // append-only sequential keys

		for i, r := range st.Records {
			data, err := json.Marshal(storedRecord{
				Text:          r.Text,
				Embedding:     r.Embedding,
				SourceLocator: r.SourceLocator,
			})
			if err != nil {
				return err
			}
			if err := b.Put(recordKey(i), data); err != nil {
				return err
			}
		}

		return putSchemaInfo(tx, &SchemaInfo{
			Version:        CurrentSchemaVersion,
			EmbeddingModel: st.Model,
			Dimension:      st.Dimension(),
		})
	})
}

// ListRecords returns all records in insertion order.
func (s *BoltStore) ListRecords() ([]domain.Record, error) {
	var records []domain.Record
	err := s.db.View(func(tx *bbolt.Tx) error {
		b := tx.Bucket(bucketRecords)
		if b == nil {
			return &domain.FormatError{Reason: fmt.Sprintf("missing bucket %q", bucketRecords)}
		}
		return b.ForEach(func(k, v []byte) error {
			var stored storedRecord
			if err := json.Unmarshal(v, &stored); err != nil {
				return &domain.FormatError{
					Reason: fmt.Sprintf("record %d is corrupted", binary.BigEndian.Uint64(k)),
					Err:    err,
				}
			}
			records = append(records, domain.Record{
				Text:          stored.Text,
				Embedding:     stored.Embedding,
				SourceLocator: stored.SourceLocator,
			})
			return nil
		})
	})
	return records, err
}

// checkBuckets reports a file written by something other than this store.
func (s *BoltStore) checkBuckets() error {
	return s.db.View(func(tx *bbolt.Tx) error {
		for _, name := range [][]byte{bucketRecords, bucketMeta} {
			if tx.Bucket(name) == nil {
				return &domain.FormatError{Reason: fmt.Sprintf("missing bucket %q", name)}
			}
		}
		return nil
	})
}

// BoltRecordStore adapts BoltStore to port.RecordStore.
type BoltRecordStore struct{}

func NewBoltRecordStore() *BoltRecordStore {
	return &BoltRecordStore{}
}

// Load opens an existing bbolt store and reads every record.
func (BoltRecordStore) Load(path string) (*domain.Store, error) {
	fi, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open store: %w", err)
	}
	if fi.Size() == 0 {
		return nil, &domain.FormatError{Path: path, Reason: "empty file is not a bbolt database"}
	}

	bs, err := OpenBoltStoreReadOnly(path)
	if err != nil {
		if errors.Is(err, bbolt.ErrInvalid) || errors.Is(err, bbolt.ErrVersionMismatch) || errors.Is(err, bbolt.ErrChecksum) {
			return nil, &domain.FormatError{Path: path, Reason: "not a bbolt database", Err: err}
		}
		return nil, err
	}
	defer bs.Close()

	if err := bs.checkBuckets(); err != nil {
		return nil, withPath(err, path)
	}

	info, err := bs.CheckSchema()
	if err != nil {
		return nil, withPath(err, path)
	}

	records, err := bs.ListRecords()
	if err != nil {
		return nil, withPath(err, path)
	}

	st := &domain.Store{Model: info.EmbeddingModel, Records: records}
	if err := st.Validate(); err != nil {
		return nil, &domain.FormatError{Path: path, Reason: "invalid record", Err: err}
	}
	if info.Dimension != 0 && st.Len() > 0 && info.Dimension != st.Dimension() {
		return nil, &domain.FormatError{
			Path:   path,
			Reason: "stored dimension does not match records",
			Err:    &domain.DimensionMismatchError{Expected: info.Dimension, Got: st.Dimension(), Index: -1},
		}
	}
	return st, nil
}

// Save replaces the contents of the bbolt file at path with st.
func (BoltRecordStore) Save(st *domain.Store, path string) error {
	if err := st.Validate(); err != nil {
		return fmt.Errorf("refusing to save invalid store: %w", err)
	}

	bs, err := NewBoltStore(path)
	if err != nil {
		return err
	}
	if err := bs.ReplaceAll(st); err != nil {
		bs.Close()
		return fmt.Errorf("failed to write store: %w", err)
	}
	return bs.Close()
}

func withPath(err error, path string) error {
	if fe, ok := err.(*domain.FormatError); ok {
		fe.Path = path
	}
	return err
}
