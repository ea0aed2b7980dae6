package store

import (
	"bufio"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"coderag/internal/domain"
)

const (
	colText          = "text"
	colEmbedding     = "embedding"
	colSourceLocator = "source_locator"

	modelLinePrefix = "# model:"
)

// Column aliases accepted on load. "file_path" is the provenance column name
// used by older tables; an unnamed leading column is a dataframe row index.
var columnAliases = map[string]string{
	colText:          colText,
	colEmbedding:     colEmbedding,
	colSourceLocator: colSourceLocator,
	"file_path":      colSourceLocator,
}

// CSVStore persists records as a CSV table with columns
// text, embedding and optionally source_locator.
type CSVStore struct{}

// NewCSVStore creates a CSV-backed record store.
func NewCSVStore() *CSVStore {
	return &CSVStore{}
}

type csvLayout struct {
	text, embedding, locator int
}

// Load reads a CSV table from path.
func (s *CSVStore) Load(path string) (*domain.Store, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open store: %w", err)
	}
	defer f.Close()

	st, err := s.read(f)
	if err != nil {
		var fe *domain.FormatError
		if errors.As(err, &fe) {
			fe.Path = path
		}
		return nil, err
	}
	return st, nil
}

func (s *CSVStore) read(r io.Reader) (*domain.Store, error) {
	br := bufio.NewReader(r)
	st := domain.NewStore("")

	// Optional metadata line carrying the embedding model.
	lineOffset := 0
	if peek, err := br.Peek(len(modelLinePrefix)); err == nil && string(peek) == modelLinePrefix {
		line, err := br.ReadString('\n')
		if err != nil && err != io.EOF {
			return nil, &domain.FormatError{Line: 1, Reason: "unreadable metadata line", Err: err}
		}
		st.Model = strings.TrimSpace(strings.TrimPrefix(line, modelLinePrefix))
		lineOffset = 1
	}

	cr := csv.NewReader(br)
	cr.ReuseRecord = true

	header, err := cr.Read()
	if err == io.EOF {
		return nil, &domain.FormatError{Line: lineOffset + 1, Reason: "missing header"}
	}
	if err != nil {
		return nil, csvFormatError(err, lineOffset)
	}

	layout, err := parseHeader(header)
	if err != nil {
		return nil, &domain.FormatError{Line: lineOffset + 1, Reason: "header does not match schema", Err: err}
	}

	for {
		row, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, csvFormatError(err, lineOffset)
		}
		line, _ := cr.FieldPos(0)
		line += lineOffset

		vec, err := ParseVector(row[layout.embedding])
		if err != nil {
			return nil, &domain.FormatError{Line: line, Reason: "invalid embedding", Err: err}
		}

		rec := domain.Record{
			Text:      row[layout.text],
			Embedding: vec,
		}
		if layout.locator >= 0 {
			rec.SourceLocator = row[layout.locator]
		}

		if err := st.Append(rec); err != nil {
			return nil, &domain.FormatError{Line: line, Reason: "invalid record", Err: err}
		}
	}

	return st, nil
}

func parseHeader(header []string) (csvLayout, error) {
	layout := csvLayout{text: -1, embedding: -1, locator: -1}

	for i, raw := range header {
		name := strings.TrimSpace(strings.TrimPrefix(raw, "\ufeff"))
		if i == 0 && (name == "" || strings.HasPrefix(name, "Unnamed:")) {
			continue
		}
		canonical, ok := columnAliases[name]
		if !ok {
			return layout, fmt.Errorf("unexpected column %q", name)
		}
		var slot *int
		switch canonical {
		case colText:
			slot = &layout.text
		case colEmbedding:
			slot = &layout.embedding
		case colSourceLocator:
			slot = &layout.locator
		}
		if *slot >= 0 {
			return layout, fmt.Errorf("duplicate column %q", name)
		}
		*slot = i
	}

	if layout.text < 0 {
		return layout, fmt.Errorf("missing column %q", colText)
	}
	if layout.embedding < 0 {
		return layout, fmt.Errorf("missing column %q", colEmbedding)
	}
	return layout, nil
}

func csvFormatError(err error, lineOffset int) error {
	var pe *csv.ParseError
	if errors.As(err, &pe) {
		return &domain.FormatError{Line: pe.Line + lineOffset, Reason: "invalid csv", Err: pe.Err}
	}
	return &domain.FormatError{Reason: "invalid csv", Err: err}
}

// Save writes the store to path atomically.
func (s *CSVStore) Save(st *domain.Store, path string) error {
	if err := st.Validate(); err != nil {
		return fmt.Errorf("refusing to save invalid store: %w", err)
	}
	// encoding/csv reads CRLF inside quoted fields back as LF.
	for i, r := range st.Records {
		if strings.Contains(r.Text, "\r\n") {
			return fmt.Errorf("refusing to save record %d: CRLF line endings do not survive CSV, use a .db store", i)
		}
	}
	return writeAtomic(path, func(w io.Writer) error {
		return s.write(st, w)
	})
}

func (s *CSVStore) write(st *domain.Store, w io.Writer) error {
	if st.Model != "" {
		if _, err := fmt.Fprintf(w, "%s %s\n", modelLinePrefix, st.Model); err != nil {
			return err
		}
	}

	withLocator := false
	for _, r := range st.Records {
		if r.SourceLocator != "" {
			withLocator = true
			break
		}
	}

	cw := csv.NewWriter(w)
	header := []string{colText, colEmbedding}
	if withLocator {
		header = append(header, colSourceLocator)
	}
	if err := cw.Write(header); err != nil {
		return err
	}

	row := make([]string, len(header))
	for _, r := range st.Records {
		row[0] = r.Text
		row[1] = FormatVector(r.Embedding)
		if withLocator {
			row[2] = r.SourceLocator
		}
		if err := cw.Write(row); err != nil {
			return err
		}
	}

	cw.Flush()
	return cw.Error()
}

// writeAtomic writes through a temp file in the target directory and renames it into place.
func writeAtomic(path string, fn func(w io.Writer) error) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create store directory: %w", err)
	}

	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	bw := bufio.NewWriter(tmp)
	if err := fn(bw); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to write store: %w", err)
	}
	if err := bw.Flush(); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to write store: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to close store: %w", err)
	}
	return os.Rename(tmpName, path)
}
