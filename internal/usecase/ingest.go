package usecase

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"coderag/internal/adapter/fs"
	"coderag/internal/domain"
	"coderag/internal/logger"
	"coderag/internal/port"
)

// DefaultPattern selects Python sources, the only kind the first tables held.
const DefaultPattern = "*.py"

// ProgressFunc is called after each file is embedded.
type ProgressFunc func(done, total int, path string)

// IngestOptions controls a single ingestion run.
type IngestOptions struct {
	Dir                 string
	Pattern             string   // glob over base names; ".py" means "*.py"
	Excludes            []string // globs over base names
	AnnotateLineNumbers bool
	TrackProvenance     bool
	Progress            ProgressFunc
}

// IngestUseCase embeds every matching file of a directory into a new store.
type IngestUseCase struct {
	embedder port.Embedder
	reader   port.FileReader
}

func NewIngestUseCase(embedder port.Embedder, reader port.FileReader) *IngestUseCase {
	if reader == nil {
		reader = fs.Reader{}
	}
	return &IngestUseCase{embedder: embedder, reader: reader}
}

// Ingest lists the files directly under opts.Dir in path order and requests
// one embedding per file. The first failure aborts the run; nothing is saved.
func (u *IngestUseCase) Ingest(ctx context.Context, opts IngestOptions) (*domain.Store, error) {
	log := logger.FromContext(ctx)

	pattern := opts.Pattern
	if pattern == "" {
		pattern = DefaultPattern
	}
	if err := fs.ValidatePattern(pattern); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrInvalidArgument, err)
	}

	var walker port.FileWalker = fs.NewWalker([]string{pattern}, opts.Excludes)
	files, err := walker.List(opts.Dir)
	if err != nil {
		return nil, err
	}

	model := u.embedder.ModelName()
	st := domain.NewStore(model)

	log.Info("ingestion started",
		zap.String("dir", opts.Dir),
		zap.String("pattern", pattern),
		zap.Int("files", len(files)),
		zap.String("model", model),
	)

	for i, file := range files {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		raw, err := u.reader.ReadFile(file.Path)
		if err != nil {
			return nil, fmt.Errorf("failed to read %s: %w", file.Path, err)
		}
		raw = fs.NormalizeNewlines(raw)
		if raw == "" {
			log.Warn("skipping empty file", zap.String("path", file.Path))
			notify(opts.Progress, i+1, len(files), file.Path)
			continue
		}

		text := raw
		if opts.AnnotateLineNumbers {
			text = AnnotateLines(raw)
		}

		payload := text
		if opts.TrackProvenance {
			payload = ProvenancePayload(file.Path, text)
		}

		vec, err := u.embedder.Embed(ctx, payload)
		if err != nil {
			if !errors.Is(err, domain.ErrEmbeddingService) {
				err = domain.NewEmbeddingError("embed", model, 0, err)
			}
			return nil, fmt.Errorf("failed to embed %s: %w", file.Path, err)
		}

		if err := st.Append(domain.Record{Text: text, Embedding: vec, SourceLocator: file.Path}); err != nil {
			return nil, fmt.Errorf("failed to add %s: %w", file.Path, err)
		}

		log.Debug("file embedded",
			zap.String("path", file.Path),
			zap.Int("bytes", len(raw)),
			zap.Int("dimension", len(vec)),
		)
		notify(opts.Progress, i+1, len(files), file.Path)
	}

	log.Info("ingestion finished", zap.Int("records", st.Len()), zap.Int("dimension", st.Dimension()))
	return st, nil
}

func notify(fn ProgressFunc, done, total int, path string) {
	if fn != nil {
		fn(done, total, path)
	}
}

// AnnotateLines prefixes every line with its 1-based number and a space.
// Line terminators are kept as they are.
func AnnotateLines(text string) string {
	if text == "" {
		return ""
	}

	var sb strings.Builder
	sb.Grow(len(text) + len(text)/8)

	n := 0
	for _, line := range strings.SplitAfter(text, "\n") {
		if line == "" {
			continue
		}
		n++
		sb.WriteString(strconv.Itoa(n))
		sb.WriteByte(' ')
		sb.WriteString(line)
	}
	return sb.String()
}

// ProvenancePayload is the text sent for embedding when the file path should
// influence the vector.
func ProvenancePayload(path, text string) string {
	return "FILEPATH: " + path + "\n\nSOURCE CODE:\n\n" + text
}
