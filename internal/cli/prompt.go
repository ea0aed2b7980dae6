package cli

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"
)

var (
	promptQuery  string
	promptBudget int
	promptJSON   bool
)

var promptCmd = &cobra.Command{
	Use:   "prompt",
	Short: "Print the budgeted prompt for a query without calling a model",
	Long: `Rank the stored snippets against a query and print the prompt that would
be sent to the completion model, filled with as many snippets as the token
budget allows.

Examples:
  coderag prompt -q "how are users stored?"
  coderag prompt -q "retry logic" -b 2000 --json`,
	RunE: runPrompt,
}

func init() {
	rootCmd.AddCommand(promptCmd)
	promptCmd.Flags().StringVarP(&promptQuery, "query", "q", "", "question (required)")
	promptCmd.Flags().IntVarP(&promptBudget, "budget", "b", 0, "token budget (default from config)")
	promptCmd.Flags().BoolVar(&promptJSON, "json", false, "output prompt and counts as JSON")
	promptCmd.MarkFlagRequired("query")
}

func runPrompt(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	a, err := newAnswerer(ctx, GetConfig(), promptBudget, false)
	if err != nil {
		return err
	}

	res, err := a.Prompt(ctx, promptQuery)
	if err != nil {
		return fmt.Errorf("failed to build prompt: %w", err)
	}

	if promptJSON {
		output, err := json.MarshalIndent(res, "", "  ")
		if err != nil {
			return err
		}
		fmt.Println(string(output))
		return nil
	}

	fmt.Println(res.Prompt)
	return nil
}
