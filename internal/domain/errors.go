package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrFormat signals a malformed persisted store.
	ErrFormat = errors.New("malformed store")
	// ErrEmbeddingService signals a failed embedding request.
	ErrEmbeddingService = errors.New("embedding service error")
	// ErrCompletionService signals a failed completion request.
	ErrCompletionService = errors.New("completion service error")
	// ErrDimensionMismatch signals vectors of different dimensionality.
	ErrDimensionMismatch = errors.New("embedding dimension mismatch")
	// ErrModelMismatch signals a store built with a different embedding model.
	ErrModelMismatch = errors.New("embedding model mismatch")
	// ErrInvalidArgument signals a caller error such as a non-positive top-n.
	ErrInvalidArgument = errors.New("invalid argument")
	// ErrEmptyText signals a record without text.
	ErrEmptyText = errors.New("record text is empty")
	// ErrEmptyEmbedding signals a record without an embedding.
	ErrEmptyEmbedding = errors.New("record embedding is empty")
)

// FormatError describes where and why a persisted store could not be parsed.
type FormatError struct {
	Path   string
	Line   int // 1-based; 0 when not tied to a line
	Reason string
	Err    error
}

func (e *FormatError) Error() string {
	msg := ErrFormat.Error()
	if e.Path != "" {
		msg += " " + e.Path
	}
	if e.Line > 0 {
		msg += fmt.Sprintf(":%d", e.Line)
	}
	msg += ": " + e.Reason
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *FormatError) Unwrap() []error {
	if e.Err != nil {
		return []error{ErrFormat, e.Err}
	}
	return []error{ErrFormat}
}

// DimensionMismatchError reports the record whose vector does not match.
type DimensionMismatchError struct {
	Expected int
	Got      int
	Index    int // record index, -1 when not applicable
}

func (e *DimensionMismatchError) Error() string {
	if e.Index < 0 {
		return fmt.Sprintf("%s: expected %d, got %d", ErrDimensionMismatch, e.Expected, e.Got)
	}
	return fmt.Sprintf("%s: record %d has %d dimensions, expected %d", ErrDimensionMismatch, e.Index, e.Got, e.Expected)
}

func (e *DimensionMismatchError) Unwrap() error { return ErrDimensionMismatch }

// ServiceError wraps a failed call to a remote embedding or completion service.
// Kind is ErrEmbeddingService or ErrCompletionService.
type ServiceError struct {
	Kind       error
	Op         string
	Model      string
	StatusCode int // HTTP status when known, 0 for transport failures
	Err        error
}

func (e *ServiceError) Error() string {
	msg := e.Kind.Error()
	if e.Op != "" {
		msg += ": " + e.Op
	}
	if e.Model != "" {
		msg += " (" + e.Model + ")"
	}
	if e.StatusCode != 0 {
		msg += fmt.Sprintf(" status %d", e.StatusCode)
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *ServiceError) Unwrap() []error {
	if e.Err != nil {
		return []error{e.Kind, e.Err}
	}
	return []error{e.Kind}
}

// NewEmbeddingError wraps err as an embedding service failure.
func NewEmbeddingError(op, model string, status int, err error) error {
	return &ServiceError{Kind: ErrEmbeddingService, Op: op, Model: model, StatusCode: status, Err: err}
}

// NewCompletionError wraps err as a completion service failure.
func NewCompletionError(op, model string, status int, err error) error {
	return &ServiceError{Kind: ErrCompletionService, Op: op, Model: model, StatusCode: status, Err: err}
}
