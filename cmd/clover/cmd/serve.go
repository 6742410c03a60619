package cmd

import (
	"context"
	"time"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/Ramsey-B/clover/pkg/dedupe"
	"github.com/Ramsey-B/clover/pkg/events"
	"github.com/Ramsey-B/clover/pkg/kafka"
	"github.com/Ramsey-B/clover/pkg/routes"
	"github.com/Ramsey-B/clover/pkg/routes/health"
	"github.com/Ramsey-B/clover/pkg/startup"
	"github.com/Ramsey-B/clover/pkg/tracing"
)

const shutdownTimeout = 15 * time.Second

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API",
	RunE:  runServe,
}

func runServe(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()
	log := logger.WithContext(ctx)

	deps := startup.NewStartup(logger, cfg.StartupMaxAttempts)
	checker := health.NewChecker(cfg.Version)

	if cfg.TracingEnabled {
		deps.AddDependency(tracing.NewProvider(cfg.TracingConfig(), logger))
	}

	var emitter *events.Emitter
	if cfg.KafkaEnabled {
		producer := kafka.NewProducer(cfg.KafkaConfig(), logger)
		deps.AddDependency(producer)
		checker.AddCheck("kafka", producer)
		emitter = events.NewEmitter(producer, logger)
	}

	service := dedupe.NewService(logger, cfg.DedupeConfig(), emitter)
	router := routes.NewRouter(cfg.RouterConfig(), logger, service, checker)
	server := routes.NewServer(cfg.ServerConfig(), router, checker, logger)
	deps.AddDependency(server)

	if err := deps.Start(ctx); err != nil {
		return errors.Wrap(err, "failed to start dependencies")
	}

	var serveErr error
	select {
	case <-ctx.Done():
		log.Info("Shutdown signal received")
	case serveErr = <-server.Errors():
	}

	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), shutdownTimeout)
	defer cancel()
	if err := deps.Stop(shutdownCtx); err != nil {
		log.WithError(err).Error("Failed to stop dependencies cleanly")
	}

	if serveErr != nil {
		return errors.Wrap(serveErr, "http server failed")
	}
	return nil
}
