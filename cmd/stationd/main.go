package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	sharedobs "github.com/couchcryptid/storm-data-shared/observability"
	"github.com/couchcryptid/walkable-stations/internal/adapter/heartrails"
	"github.com/couchcryptid/walkable-stations/internal/adapter/httpadapter"
	kafkaadapter "github.com/couchcryptid/walkable-stations/internal/adapter/kafka"
	"github.com/couchcryptid/walkable-stations/internal/config"
	"github.com/couchcryptid/walkable-stations/internal/domain"
	"github.com/couchcryptid/walkable-stations/internal/observability"
	"github.com/couchcryptid/walkable-stations/internal/pipeline"
)

// alwaysReady serves readiness when no pipeline is running.
type alwaysReady struct{}

func (alwaysReady) CheckReadiness(context.Context) error { return nil }

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger := observability.NewLogger(os.Stdout, cfg.LogLevel, cfg.LogFormat)
	metrics := observability.NewMetrics()

	client := heartrails.NewClient(heartrails.Options{
		Timeout:     cfg.APITimeout,
		Retries:     cfg.APIRetries,
		BaseDelay:   cfg.APIBackoff,
		MinInterval: cfg.APIRateLimit,
	}, metrics, logger)
	geo := heartrails.NewGeoAPI(client, cfg.GeoAPIURL)
	express := heartrails.NewExpressAPI(client, cfg.ExpressAPIURL)

	normalizer, err := domain.NewLineNormalizerForProfile(cfg.LineProfile)
	if err != nil {
		logger.Error("failed to build line normalizer", "error", err)
		os.Exit(1)
	}
	finder := domain.NewStationFinder(domain.NewGeocoder(geo, logger), express, normalizer, logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Kafka request/response loop (feature-flagged via KAFKA_ENABLED).
	var (
		ready  sharedobs.ReadinessChecker = alwaysReady{}
		reader *kafkaadapter.Reader
		writer *kafkaadapter.Writer
	)
	if cfg.KafkaEnabled {
		reader = kafkaadapter.NewReader(cfg, logger)
		writer = kafkaadapter.NewWriter(cfg, logger)
		transformer := pipeline.NewTransformer(finder, cfg.DefaultBounds(), logger, metrics)
		p := pipeline.New(reader, transformer, writer, logger, metrics, cfg.BatchSize, cfg.LookupConcurrency)
		ready = p

		go func() {
			if err := p.Run(ctx); err != nil {
				logger.Error("pipeline error", "error", err)
			}
		}()
		logger.Info("kafka pipeline enabled", "source_topic", cfg.KafkaSourceTopic, "sink_topic", cfg.KafkaSinkTopic)
	} else {
		logger.Info("kafka pipeline disabled")
	}

	stations := httpadapter.NewStationsHandler(finder, cfg.DefaultBounds(), metrics, logger)
	srv := httpadapter.NewServer(cfg.HTTPAddr, ready, stations, logger)

	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http server error", "error", err)
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("http server shutdown error", "error", err)
	}
	if reader != nil {
		if err := reader.Close(); err != nil {
			logger.Error("kafka reader close error", "error", err)
		}
	}
	if writer != nil {
		if err := writer.Close(); err != nil {
			logger.Error("kafka writer close error", "error", err)
		}
	}

	logger.Info("shutdown complete")
}
