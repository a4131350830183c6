package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/thywilljoshua/study-buddy/internal/ai"
	"github.com/thywilljoshua/study-buddy/internal/config"
	"github.com/thywilljoshua/study-buddy/internal/logging"
	"github.com/thywilljoshua/study-buddy/internal/observability"
)

// app carries what the persistent pre-run builds for every subcommand.
type app struct {
	configPath string
	verbose    bool

	cfg *config.Config
	log *zap.Logger
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd().ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func rootCmd() *cobra.Command {
	a := &app{}
	root := &cobra.Command{
		Use:   "studybuddy",
		Short: "AI study assistant: summaries, notes, quizzes, videos and exam questions",
		Long: `studybuddy turns a PDF or a topic into study material using Google Gemini.

Run the HTTP API with "studybuddy serve", generate from the terminal with
"studybuddy run", or expose the generators to an assistant with "studybuddy mcp".

The API key is read from GEMINI_API_KEY (or GOOGLE_API_KEY, API_KEY, or
ai.api_key in studybuddy.yaml).`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(a.configPath)
			if err != nil {
				return err
			}
			a.cfg = cfg
			a.log, err = logging.New(cfg.Log.Level, cfg.Log.Development, a.verbose)
			return err
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			if a.log != nil {
				_ = a.log.Sync()
			}
		},
	}
	root.PersistentFlags().StringVar(&a.configPath, "config", "", "config file (default: $STUDYBUDDY_CONFIG or ./studybuddy.yaml)")
	root.PersistentFlags().BoolVarP(&a.verbose, "verbose", "v", false, "enable debug logging")

	root.AddCommand(serveCmd(a), runCmd(a), extractCmd(a), mcpCmd(a))
	return root
}

// generator returns the Gemini client, or ai.Unconfigured when no key is
// set so the caller can still start and report the problem per request.
func (a *app) generator(ctx context.Context, metrics *observability.Metrics) (ai.Generator, error) {
	if a.cfg.AI.APIKey == "" {
		a.log.Warn("no Gemini API key configured; every generation will fail until one is set")
		return ai.Unconfigured{}, nil
	}
	g, err := ai.NewGemini(ctx, a.cfg.AI.APIKey, ai.GeminiOptions{
		Model:       a.cfg.AI.Model,
		Timeout:     a.cfg.AI.Timeout,
		Temperature: a.cfg.AI.Temperature,
		Logger:      a.log.Named("gemini"),
		OnUsage: func(u ai.Usage) {
			metrics.AddTokens(u.PromptTokens, u.ResponseTokens)
		},
	})
	if err != nil {
		return nil, err
	}
	a.log.Debug("gemini client ready", zap.String("model", g.Model()))
	return g, nil
}
