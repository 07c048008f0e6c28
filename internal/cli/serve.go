package cli

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"classifier-service/internal/handler"
	"classifier-service/internal/metrics"
	"classifier-service/internal/server"
	"classifier-service/internal/service"
)

func (a *app) serveCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP API",
		Long: `Load the stopwords and model artifacts, then serve the prediction API.
Startup fails if the stopword list or any required artifact cannot be loaded.`,
		Args: cobra.NoArgs,
		RunE: a.runServe,
	}
}

func (a *app) runServe(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a.logger.Info("Starting Classifier Service...")
	gin.SetMode(a.cfg.Server.Mode)

	normalizer, engine, err := a.buildEngine(ctx)
	if err != nil {
		a.logger.Error("Failed to initialize inference engine", zap.Error(err))
		return err
	}

	m := metrics.New()
	m.SetModel(engine.ModelName(), engine.Bundle().Classifier.Type())

	classifier := service.NewClassifier(engine, normalizer, a.cfg, m, a.logger)
	apiHandler := handler.NewHandler(classifier, a.logger)
	srv := server.New(a.cfg.Server, apiHandler, m, a.logger)

	a.logger.Info("Classifier Service is running",
		zap.String("address", a.cfg.Server.Address()),
		zap.String("model", engine.ModelName()))

	return srv.Run(ctx)
}
