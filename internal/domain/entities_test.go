package domain

import (
	"errors"
	"testing"
)

func TestStore_Append(t *testing.T) {
	st := NewStore("m")

	if err := st.Append(Record{Text: "a", Embedding: []float64{1, 0}}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if st.Dimension() != 2 {
		t.Errorf("expected dimension 2, got %d", st.Dimension())
	}

	err := st.Append(Record{Text: "b", Embedding: []float64{1, 0, 0}})
	if !errors.Is(err, ErrDimensionMismatch) {
		t.Errorf("expected dimension mismatch, got %v", err)
	}
	var dm *DimensionMismatchError
	if !errors.As(err, &dm) || dm.Index != 1 || dm.Expected != 2 || dm.Got != 3 {
		t.Errorf("unexpected mismatch detail: %+v", dm)
	}

	if err := st.Append(Record{Embedding: []float64{1, 0}}); !errors.Is(err, ErrEmptyText) {
		t.Errorf("expected ErrEmptyText, got %v", err)
	}
	if err := st.Append(Record{Text: "c"}); !errors.Is(err, ErrEmptyEmbedding) {
		t.Errorf("expected ErrEmptyEmbedding, got %v", err)
	}
	if st.Len() != 1 {
		t.Errorf("expected 1 record, got %d", st.Len())
	}
}

func TestStore_EmptyAndNil(t *testing.T) {
	var st *Store
	if st.Len() != 0 {
		t.Errorf("nil store should have length 0")
	}
	if NewStore("").Dimension() != 0 {
		t.Errorf("empty store should have dimension 0")
	}
}

func TestStore_Validate(t *testing.T) {
	st := &Store{Records: []Record{
		{Text: "a", Embedding: []float64{1}},
		{Text: "b", Embedding: []float64{1, 2}},
	}}
	if err := st.Validate(); !errors.Is(err, ErrDimensionMismatch) {
		t.Errorf("expected dimension mismatch, got %v", err)
	}
}
