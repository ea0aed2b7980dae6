package cli

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"coderag/config"
	"coderag/internal/logger"
)

var (
	cfgFile   string
	cfg       *config.Config
	rootDir   string
	storeFlag string
	logLevel  string
	log       *zap.Logger
)

var rootCmd = &cobra.Command{
	Use:   "coderag",
	Short: "Ask questions about a codebase with retrieval-augmented generation",
	Long: `coderag embeds the source files of a directory, ranks them by relatedness
to a question and asks a language model to answer using the best snippets
that fit in a token budget.

Example usage:
  coderag ingest ./src --pattern "*.py"   # Embed every Python file in ./src
  coderag rank -q "where is auth done?"   # Show the most related files
  coderag ask -q "how does login work?"   # Answer one question
  coderag chat                            # Interactive session`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error

		// A missing .env is normal; a broken one is not.
		if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("failed to load .env: %w", err)
		}

		if rootDir == "" {
			rootDir, err = os.Getwd()
			if err != nil {
				return fmt.Errorf("failed to get working directory: %w", err)
			}
		}

		if cfgFile != "" {
			cfg, err = config.Load(cfgFile)
		} else {
			cfg, err = config.LoadFromDir(rootDir)
		}
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}

		level := cfg.Logging.Level
		if logLevel != "" {
			level = logLevel
		}
		log, err = logger.NewLogger(cfg.Logging.Env, level)
		if err != nil {
			return fmt.Errorf("failed to create logger: %w", err)
		}

		ctx := cmd.Context()
		if ctx == nil {
			ctx = context.Background()
		}
		cmd.SetContext(logger.ContextWithLogger(ctx, log))
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if log != nil {
			_ = log.Sync()
		}
	},
}

// Execute runs the root command and exits non-zero on failure.
func Execute() {
	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.SilenceErrors = true
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is ./coderag.yaml)")
	rootCmd.PersistentFlags().StringVarP(&rootDir, "dir", "d", "", "project directory (default is current directory)")
	rootCmd.PersistentFlags().StringVarP(&storeFlag, "store", "s", "", "store file, .csv or .db (default from config)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "log level: debug, info, warn, error")
}

func GetConfig() *config.Config {
	return cfg
}

func GetRootDir() string {
	return rootDir
}

// GetStorePath returns the --store flag or the configured path under the project directory.
func GetStorePath() string {
	if storeFlag != "" {
		if abs, err := filepath.Abs(storeFlag); err == nil {
			return abs
		}
		return storeFlag
	}
	return cfg.StorePath(rootDir)
}
