package cli

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"coderag/internal/usecase"
)

var (
	rankQuery string
	rankTopN  int
	rankJSON  bool
)

var rankCmd = &cobra.Command{
	Use:   "rank",
	Short: "List stored snippets by relatedness to a query",
	Long: `Embed a query and list the stored snippets most related to it,
best first, using cosine similarity.

Examples:
  coderag rank -q "database connection"
  coderag rank -q "parse arguments" -n 5 --json`,
	RunE: runRank,
}

func init() {
	rootCmd.AddCommand(rankCmd)
	rankCmd.Flags().StringVarP(&rankQuery, "query", "q", "", "query text (required)")
	rankCmd.Flags().IntVarP(&rankTopN, "top-n", "n", 0, "number of results (default from config)")
	rankCmd.Flags().BoolVar(&rankJSON, "json", false, "output as JSON")
	rankCmd.MarkFlagRequired("query")
}

func runRank(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	cfg := GetConfig()

	st, err := loadStore(GetStorePath(), cfg)
	if err != nil {
		return err
	}

	embedder, err := newEmbedder(ctx, cfg, log, true)
	if err != nil {
		return err
	}

	topN := cfg.Retrieve.TopN
	if cmd.Flags().Changed("top-n") {
		topN = rankTopN
	}

	results, err := usecase.NewRanker(embedder).Rank(ctx, rankQuery, st, topN)
	if err != nil {
		return fmt.Errorf("ranking failed: %w", err)
	}

	if rankJSON {
		output, err := json.MarshalIndent(results, "", "  ")
		if err != nil {
			return err
		}
		fmt.Println(string(output))
		return nil
	}

	if len(results) == 0 {
		fmt.Println("No results found.")
		return nil
	}

	fmt.Printf("Found %d results for: %s\n\n", len(results), rankQuery)
	for i, r := range results {
		name := r.SourceLocator
		if name == "" {
			name = firstLine(r.Text)
		}
		fmt.Printf("%3d. [%.4f] %s\n", i+1, r.Relatedness, name)
	}
	return nil
}

func firstLine(s string) string {
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		s = s[:i]
	}
	return truncate(s, 72)
}
