package cli

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"classifier-service/internal/config"
	"classifier-service/internal/logger"
)

// app carries the state shared by every subcommand once PersistentPreRunE has run.
type app struct {
	cfgFile string
	cfg     *config.Config
	logger  *zap.Logger
}

// NewRootCommand builds the command tree. Running it without a subcommand starts the server.
func NewRootCommand() *cobra.Command {
	a := &app{}

	rootCmd := &cobra.Command{
		Use:   "classifier",
		Short: "Text classification service - TF-IDF features and a trained linear model behind an HTTP API",
		Long: `Classifier serves a trained text classification model over HTTP.
Incoming text is normalized (lowercase, punctuation and stopwords removed),
vectorized with the exported TF-IDF vocabulary and classified by the exported model.

Example usage:
  classifier serve                          # Start the HTTP API
  classifier predict "The Beatles"          # Classify text with the local artifacts
  classifier predict --remote http://localhost:5000 "Apple Inc."
  classifier normalize "The Beatles, an English rock band!"
  classifier stopwords fetch                # Download and cache the stopword list`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.LoadConfig(a.cfgFile)
			if err != nil {
				return fmt.Errorf("failed to load config: %w", err)
			}

			log, err := logger.NewLogger(&cfg.Log)
			if err != nil {
				return fmt.Errorf("failed to create logger: %w", err)
			}

			a.cfg = cfg
			a.logger = log
			return nil
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			if a.logger != nil {
				_ = a.logger.Sync()
			}
		},
		RunE: a.runServe,
	}

	rootCmd.PersistentFlags().StringVar(&a.cfgFile, "config", config.DefaultPath, "config file")

	rootCmd.AddCommand(
		a.serveCommand(),
		a.predictCommand(),
		a.normalizeCommand(),
		a.stopwordsCommand(),
	)

	return rootCmd
}

// Execute runs the root command with os.Args.
func Execute() error {
	return NewRootCommand().Execute()
}
