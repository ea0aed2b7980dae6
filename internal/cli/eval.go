package cli

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"coderag/internal/usecase"
)

var (
	evalFile string
	evalK    int
	evalJSON bool
)

var evalCmd = &cobra.Command{
	Use:   "eval",
	Short: "Measure ranking quality against labeled queries",
	Long: `Rank the store against every query of a YAML evaluation set and report
precision, recall, MRR and nDCG at k. Relevant files may be listed by full
path or by base name.

Example set:
  cases:
    - query: "where are passwords hashed?"
      relevant: [auth.py]

Examples:
  coderag eval -f eval.yaml
  coderag eval -f eval.yaml -k 5 --json`,
	RunE: runEval,
}

func init() {
	rootCmd.AddCommand(evalCmd)
	evalCmd.Flags().StringVarP(&evalFile, "file", "f", "", "evaluation set (required)")
	evalCmd.Flags().IntVarP(&evalK, "k", "k", 10, "cutoff rank")
	evalCmd.Flags().BoolVar(&evalJSON, "json", false, "output as JSON")
	evalCmd.MarkFlagRequired("file")
}

func runEval(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	cfg := GetConfig()

	set, err := usecase.LoadEvalSet(evalFile)
	if err != nil {
		return err
	}

	st, err := loadStore(GetStorePath(), cfg)
	if err != nil {
		return err
	}

	embedder, err := newEmbedder(ctx, cfg, log, true)
	if err != nil {
		return err
	}

	summary, err := usecase.NewRanker(embedder).Evaluate(ctx, st, set, evalK)
	if err != nil {
		return fmt.Errorf("evaluation failed: %w", err)
	}

	if evalJSON {
		output, err := json.MarshalIndent(summary, "", "  ")
		if err != nil {
			return err
		}
		fmt.Println(string(output))
		return nil
	}

	fmt.Printf("RANKING EVALUATION (k=%d, %d queries)\n", summary.K, len(summary.Results))
	fmt.Println(strings.Repeat("=", 70))
	fmt.Printf("%-40s %7s %7s %7s %7s\n", "Query", "P@k", "R@k", "MRR", "nDCG")
	fmt.Println(strings.Repeat("-", 70))
	for _, r := range summary.Results {
		fmt.Printf("%-40s %7.3f %7.3f %7.3f %7.3f\n", truncate(r.Query, 40), r.Precision, r.Recall, r.MRR, r.NDCG)
	}
	fmt.Println(strings.Repeat("-", 70))
	fmt.Printf("%-40s %7.3f %7.3f %7.3f %7.3f\n", "mean", summary.MeanPrecision, summary.MeanRecall, summary.MeanMRR, summary.MeanNDCG)
	return nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n-3] + "..."
}
