package cli

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"coderag/config"
	"coderag/internal/usecase"
)

var (
	askQuery       string
	askBudget      int
	askPrintPrompt bool
)

var askCmd = &cobra.Command{
	Use:   "ask",
	Short: "Answer a question about the ingested code",
	Long: `Rank the stored snippets against a question, fill a prompt up to the
token budget and print the completion model's answer.

Examples:
  coderag ask -q "what does the parse function return?"
  coderag ask -q "where is the config read?" -b 2000 --print-prompt`,
	RunE: runAsk,
}

func init() {
	rootCmd.AddCommand(askCmd)
	askCmd.Flags().StringVarP(&askQuery, "query", "q", "", "question (required)")
	askCmd.Flags().IntVarP(&askBudget, "budget", "b", 0, "token budget (default from config)")
	askCmd.Flags().BoolVar(&askPrintPrompt, "print-prompt", false, "print the prompt before the answer")
	askCmd.MarkFlagRequired("query")
}

func runAsk(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	a, err := newAnswerer(ctx, GetConfig(), askBudget, true)
	if err != nil {
		return err
	}
	if askPrintPrompt {
		a.PrintPrompt = os.Stdout
	}

	reply, err := a.Answer(ctx, askQuery)
	if err != nil {
		return err
	}
	fmt.Println(reply)
	return nil
}

// newAnswerer loads the store and wires the ranker, counter and, when
// withCompleter is set, the completion backend. budget 0 uses the config.
func newAnswerer(ctx context.Context, cfg *config.Config, budget int, withCompleter bool) (*usecase.Answerer, error) {
	st, err := loadStore(GetStorePath(), cfg)
	if err != nil {
		return nil, err
	}

	embedder, err := newEmbedder(ctx, cfg, log, true)
	if err != nil {
		return nil, err
	}

	counter, err := newCounter(cfg, log)
	if err != nil {
		return nil, err
	}

	a := usecase.NewAnswerer(st, usecase.NewRanker(embedder), counter, nil)
	a.Model = cfg.Completion.Model
	a.TopN = cfg.Retrieve.TopN
	a.TokenBudget = cfg.Prompt.TokenBudget
	if budget != 0 {
		a.TokenBudget = budget
	}
	a.Temperature = cfg.Completion.Temperature
	a.MaxTokens = cfg.Completion.MaxTokens
	if cfg.Prompt.PrintPrompt {
		a.PrintPrompt = os.Stdout
	}

	if withCompleter {
		if a.Completer, err = newCompleter(ctx, cfg, log); err != nil {
			return nil, err
		}
	}
	return a, nil
}
