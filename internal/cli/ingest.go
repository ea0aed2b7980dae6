package cli

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"coderag/config"
	"coderag/internal/adapter/store"
	"coderag/internal/usecase"
)

var (
	ingestPattern      string
	ingestExcludes     []string
	ingestLineNumbers  bool
	ingestNoProvenance bool
	ingestOutput       string
)

var ingestCmd = &cobra.Command{
	Use:   "ingest [dir]",
	Short: "Embed the source files of a directory",
	Long: `Embed every file directly under a directory whose name matches a pattern
and write the results to a store. Subdirectories are not visited.

The store format follows the file extension: .db for bbolt, anything else
is a CSV table with text and embedding columns.

Examples:
  coderag ingest .                          # Embed *.py files in the current directory
  coderag ingest ./src --pattern "*.go"     # Embed Go files
  coderag ingest ./src -p .py --line-numbers -o code.csv`,
	Args: cobra.MaximumNArgs(1),
	RunE: runIngest,
}

func init() {
	rootCmd.AddCommand(ingestCmd)
	ingestCmd.Flags().StringVarP(&ingestPattern, "pattern", "p", "", "file name glob (default from config)")
	ingestCmd.Flags().StringSliceVar(&ingestExcludes, "exclude", nil, "file name globs to skip")
	ingestCmd.Flags().BoolVar(&ingestLineNumbers, "line-numbers", false, "prefix each line with its number before embedding")
	ingestCmd.Flags().BoolVar(&ingestNoProvenance, "no-provenance", false, "embed raw text without the file path header")
	ingestCmd.Flags().StringVarP(&ingestOutput, "output", "o", "", "store file to write (default from --store or config)")
}

func runIngest(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	cfg := GetConfig()

	dir := cfg.Ingest.Dir
	if len(args) > 0 {
		dir = args[0]
	}
	if !filepath.IsAbs(dir) {
		dir = filepath.Join(GetRootDir(), dir)
	}

	info, err := os.Stat(dir)
	if err != nil {
		return fmt.Errorf("path does not exist: %w", err)
	}
	if !info.IsDir() {
		return fmt.Errorf("path is not a directory: %s", dir)
	}

	opts := usecase.IngestOptions{
		Dir:                 dir,
		Pattern:             cfg.Ingest.Pattern,
		Excludes:            cfg.Ingest.Excludes,
		AnnotateLineNumbers: cfg.Ingest.AnnotateLineNumbers,
		TrackProvenance:     cfg.Ingest.TrackProvenance,
	}
	if cmd.Flags().Changed("pattern") {
		opts.Pattern = ingestPattern
	}
	if cmd.Flags().Changed("exclude") {
		opts.Excludes = ingestExcludes
	}
	if cmd.Flags().Changed("line-numbers") {
		opts.AnnotateLineNumbers = ingestLineNumbers
	}
	if cmd.Flags().Changed("no-provenance") {
		opts.TrackProvenance = !ingestNoProvenance
	}

	outPath := GetStorePath()
	if ingestOutput != "" {
		if outPath, err = filepath.Abs(ingestOutput); err != nil {
			return fmt.Errorf("invalid output path: %w", err)
		}
	}

	embedder, err := newEmbedder(ctx, cfg, log, false)
	if err != nil {
		return err
	}

	fmt.Printf("Scanning %s...\n", dir)
	opts.Progress = newIngestProgress()

	start := time.Now()
	st, err := usecase.NewIngestUseCase(embedder, nil).Ingest(ctx, opts)
	if err != nil {
		return fmt.Errorf("ingestion failed: %w", err)
	}

	if st.Len() == 0 {
		log.Warn("no files embedded", zap.String("dir", dir), zap.String("pattern", opts.Pattern))
	}

	if err := config.EnsureStoreDir(outPath); err != nil {
		return fmt.Errorf("failed to create store directory: %w", err)
	}
	if err := store.Save(st, outPath); err != nil {
		return err
	}

	log.Info("store written",
		zap.String("path", outPath),
		zap.Int("records", st.Len()),
		zap.Int("dimension", st.Dimension()),
	)
	fmt.Printf("Embedded %d files (%d dimensions) in %s\n", st.Len(), st.Dimension(), formatDuration(time.Since(start)))
	fmt.Printf("Store: %s\n", outPath)
	return nil
}

// newIngestProgress returns a callback that draws a progress bar once the
// total is known and keeps an ETA in its description.
func newIngestProgress() usecase.ProgressFunc {
	var (
		bar       *progressbar.ProgressBar
		mu        sync.Mutex
		startTime time.Time
	)

	return func(done, total int, path string) {
		mu.Lock()
		defer mu.Unlock()

		if bar == nil {
			startTime = time.Now()
			bar = progressbar.NewOptions(total,
				progressbar.OptionEnableColorCodes(true),
				progressbar.OptionShowBytes(false),
				progressbar.OptionSetWidth(40),
				progressbar.OptionShowCount(),
				progressbar.OptionSetDescription("[cyan]Embedding[reset]"),
				progressbar.OptionSetTheme(progressbar.Theme{
					Saucer:        "[green]=[reset]",
					SaucerHead:    "[green]>[reset]",
					SaucerPadding: " ",
					BarStart:      "[",
					BarEnd:        "]",
				}),
				progressbar.OptionOnCompletion(func() {
					fmt.Println()
				}),
			)
		}

		_ = bar.Set(done)

		if done > 0 && done < total {
			rate := float64(done) / time.Since(startTime).Seconds()
			if rate > 0 {
				eta := time.Duration(float64(total-done)/rate) * time.Second
				bar.Describe(fmt.Sprintf("[cyan]Embedding[reset] ETA: %s", formatDuration(eta)))
			}
		}
	}
}

// formatDuration formats a duration in a human-readable way.
func formatDuration(d time.Duration) string {
	if d < time.Second {
		return "<1s"
	}
	if d < time.Minute {
		return fmt.Sprintf("%ds", int(d.Seconds()))
	}
	if d < time.Hour {
		m := int(d.Minutes())
		s := int(d.Seconds()) % 60
		return fmt.Sprintf("%dm%ds", m, s)
	}
	h := int(d.Hours())
	m := int(d.Minutes()) % 60
	return fmt.Sprintf("%dh%dm", h, m)
}
