package store

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.etcd.io/bbolt"

	"coderag/internal/domain"
)

func TestBoltRecordStore_RoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "embeddings.db")
	st := sampleStore()

	bs := NewBoltRecordStore()
	require.NoError(t, bs.Save(st, path))

	loaded, err := bs.Load(path)
	require.NoError(t, err)
	assert.Equal(t, st, loaded)
}

func TestBoltRecordStore_SaveReplaces(t *testing.T) {
	path := filepath.Join(t.TempDir(), "embeddings.db")
	bs := NewBoltRecordStore()

	require.NoError(t, bs.Save(sampleStore(), path))

	smaller := &domain.Store{Model: "other", Records: []domain.Record{
		{Text: "only", Embedding: []float64{1, 0}},
	}}
	require.NoError(t, bs.Save(smaller, path))

	loaded, err := bs.Load(path)
	require.NoError(t, err)
	assert.Equal(t, smaller, loaded)
}

func TestBoltRecordStore_LoadMissingFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "missing.db")

	_, err := NewBoltRecordStore().Load(path)
	require.Error(t, err)
	assert.ErrorIs(t, err, os.ErrNotExist)

	_, statErr := os.Stat(path)
	assert.True(t, os.IsNotExist(statErr), "load must not create the file")
}

func TestBoltStore_NewerSchemaRejected(t *testing.T) {
	path := filepath.Join(t.TempDir(), "embeddings.db")
	require.NoError(t, NewBoltRecordStore().Save(sampleStore(), path))

	bs, err := NewBoltStore(path)
	require.NoError(t, err)
	require.NoError(t, bs.SetSchemaInfo(&SchemaInfo{Version: CurrentSchemaVersion + 1}))
	require.NoError(t, bs.Close())

	_, err = NewBoltRecordStore().Load(path)
	assert.ErrorIs(t, err, domain.ErrFormat)
}

func TestBoltStore_ListRecordsInOrder(t *testing.T) {
	path := filepath.Join(t.TempDir(), "embeddings.db")
	bs, err := NewBoltStore(path)
	require.NoError(t, err)
	defer bs.Close()

	st := domain.NewStore("m")
	for i := 0; i < 300; i++ {
		require.NoError(t, st.Append(domain.Record{
			Text:      string(rune('a' + i%26)),
			Embedding: []float64{float64(i), 1},
		}))
	}
	require.NoError(t, bs.ReplaceAll(st))

	records, err := bs.ListRecords()
	require.NoError(t, err)
	require.Len(t, records, 300)
	for i, r := range records {
		assert.Equal(t, float64(i), r.Embedding[0])
	}

	info, err := bs.GetSchemaInfo()
	require.NoError(t, err)
	assert.Equal(t, &SchemaInfo{Version: CurrentSchemaVersion, EmbeddingModel: "m", Dimension: 2}, info)
}

func TestBoltRecordStore_LoadNotABoltFile(t *testing.T) {
	cases := map[string]string{
		"csv.db":   "text,embedding\nx = 1,\"[1, 0]\"\n",
		"empty.db": "",
		"noise.db": strings.Repeat("\x7f garbage page ", 8192),
	}
	for name, content := range cases {
		t.Run(name, func(t *testing.T) {
			path := writeFile(t, name, content)

			_, err := NewBoltRecordStore().Load(path)
			require.Error(t, err)
			assert.ErrorIs(t, err, domain.ErrFormat)

			var fe *domain.FormatError
			require.True(t, errors.As(err, &fe))
			assert.Equal(t, path, fe.Path)

			data, readErr := os.ReadFile(path)
			require.NoError(t, readErr)
			assert.Equal(t, content, string(data), "load must not modify the file")
		})
	}
}

func TestBoltRecordStore_LoadMissingBucket(t *testing.T) {
	path := filepath.Join(t.TempDir(), "foreign.db")
	db, err := bbolt.Open(path, 0600, nil)
	require.NoError(t, err)
	require.NoError(t, db.Update(func(tx *bbolt.Tx) error {
		_, err := tx.CreateBucket([]byte("something_else"))
		return err
	}))
	require.NoError(t, db.Close())

	_, err = NewBoltRecordStore().Load(path)
	assert.ErrorIs(t, err, domain.ErrFormat)
	assert.ErrorContains(t, err, "missing bucket")
}

func TestBoltRecordStore_LoadReadOnlyFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "embeddings.db")
	require.NoError(t, NewBoltRecordStore().Save(sampleStore(), path))
	require.NoError(t, os.Chmod(path, 0400))

	loaded, err := NewBoltRecordStore().Load(path)
	require.NoError(t, err)
	assert.Equal(t, sampleStore(), loaded)
}
