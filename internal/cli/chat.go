package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"coderag/internal/logger"
	"coderag/internal/metrics"
)

const exitCommand = "exit"

var (
	chatBudget      int
	chatPrintPrompt bool
	chatMetricsAddr string
)

var (
	chatTitleStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("99"))
	chatPromptStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("212"))
	chatAnswerStyle = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).BorderForeground(lipgloss.Color("62")).Padding(0, 1)
	chatErrorStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("9"))
	chatDimStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("240"))
)

var chatCmd = &cobra.Command{
	Use:   "chat",
	Short: "Answer questions interactively until you type exit",
	Long: `Start an interactive session. Every line is answered independently
against the ingested code; type "exit" to leave.

Examples:
  coderag chat
  coderag chat --print-prompt --metrics-addr :9090`,
	Args: cobra.NoArgs,
	RunE: runChat,
}

func init() {
	rootCmd.AddCommand(chatCmd)
	chatCmd.Flags().IntVarP(&chatBudget, "budget", "b", 0, "token budget (default from config)")
	chatCmd.Flags().BoolVar(&chatPrintPrompt, "print-prompt", false, "print each prompt before its answer")
	chatCmd.Flags().StringVar(&chatMetricsAddr, "metrics-addr", "", "serve Prometheus metrics on this address, e.g. :9090")
}

func runChat(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	a, err := newAnswerer(ctx, GetConfig(), chatBudget, true)
	if err != nil {
		return err
	}
	if chatPrintPrompt {
		a.PrintPrompt = os.Stdout
	}

	if chatMetricsAddr != "" {
		srv := serveMetrics(chatMetricsAddr)
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = srv.Shutdown(shutdownCtx)
		}()
	}

	fmt.Println(chatTitleStyle.Render("coderag chat") + " " + chatDimStyle.Render(fmt.Sprintf("(%d snippets, type %q to quit)", a.Store.Len(), exitCommand)))
	return runChatLoop(ctx, os.Stdin, os.Stdout, a.Answer)
}

// runChatLoop reads one question per line from in and writes each answer to
// out. Blank lines are skipped. A failed question is reported and the loop
// continues. It returns nil on "exit" or end of input.
func runChatLoop(ctx context.Context, in io.Reader, out io.Writer, answer func(context.Context, string) (string, error)) error {
	scanner := bufio.NewScanner(in)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	for {
		fmt.Fprint(out, chatPromptStyle.Render("> "))
		if !scanner.Scan() {
			fmt.Fprintln(out)
			return scanner.Err()
		}

		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		if strings.EqualFold(line, exitCommand) {
			return nil
		}

		reply, err := answer(ctx, line)
		if err != nil {
			if errors.Is(err, context.Canceled) {
				return err
			}
			logger.FromContext(ctx).Warn("question failed", zap.Error(err))
			fmt.Fprintln(out, chatErrorStyle.Render("Error: "+err.Error()))
			continue
		}
		fmt.Fprintln(out, chatAnswerStyle.Render(reply))
	}
}

// serveMetrics starts an HTTP server exposing /metrics in the background.
func serveMetrics(addr string) *http.Server {
	metrics.Register()

	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())

	srv := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		log.Info("metrics server listening", zap.String("addr", addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("metrics server failed", zap.Error(err))
		}
	}()

	return srv
}
