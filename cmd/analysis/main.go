package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	httpadapter "github.com/couchcryptid/storm-impact-analysis/internal/adapter/http"
	kafkaadapter "github.com/couchcryptid/storm-impact-analysis/internal/adapter/kafka"
	"github.com/couchcryptid/storm-impact-analysis/internal/config"
	"github.com/couchcryptid/storm-impact-analysis/internal/cpi"
	"github.com/couchcryptid/storm-impact-analysis/internal/loader"
	"github.com/couchcryptid/storm-impact-analysis/internal/observability"
	"github.com/couchcryptid/storm-impact-analysis/internal/pipeline"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger := observability.NewLogger(cfg)
	metrics := observability.NewMetrics()

	// Report publishing is feature-flagged via KAFKA_ENABLED / KAFKA_BROKERS.
	var publisher pipeline.ReportPublisher
	var kafkaPublisher *kafkaadapter.Publisher
	if cfg.KafkaEnabled {
		kafkaPublisher = kafkaadapter.NewPublisher(cfg, logger)
		publisher = kafkaPublisher
		logger.Info("kafka report publishing enabled", "topic", cfg.KafkaReportTopic)
	} else {
		logger.Info("kafka report publishing disabled")
	}

	p := pipeline.New(
		loader.File{Path: cfg.DataPath},
		cpi.File{Path: cfg.CPIPath},
		publisher,
		logger,
		metrics,
		cfg.AggregatorWorkers,
	)

	srv := httpadapter.NewServer(cfg.HTTPAddr, p, logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Start HTTP server.
	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http server error", "error", err)
		}
	}()

	// Run the analysis. The server keeps serving afterwards; readiness stays
	// failing if the run errors out.
	go func() {
		if err := p.Run(ctx); err != nil {
			logger.Error("analysis error", "error", err)
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("http server shutdown error", "error", err)
	}
	if kafkaPublisher != nil {
		if err := kafkaPublisher.Close(); err != nil {
			logger.Error("kafka publisher close error", "error", err)
		}
	}

	logger.Info("shutdown complete")
}
