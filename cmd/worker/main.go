// File: cmd/worker/main.go
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"

	"meeting-classifier/internal/config"
	"meeting-classifier/internal/domain/ports/adapter"
	aiAdapters "meeting-classifier/internal/infra/adapters/ai"
	pg "meeting-classifier/internal/infra/db/postgres"
	"meeting-classifier/internal/infra/logging"
	"meeting-classifier/internal/infra/metrics"
	red "meeting-classifier/internal/infra/redis"
	"meeting-classifier/internal/infra/sched"
	"meeting-classifier/internal/infra/worker"
	"meeting-classifier/internal/usecase"
)

var (
	version = "dev"
	commit  = "none"
)

func main() {
	cfgPath := flag.String("config", "config.yaml", "path to YAML config file")
	devMode := flag.Bool("dev", false, "console logs")
	metricsPort := flag.Int("metrics-port", 9091, "port for /metrics and /health; 0 disables")
	flag.Parse()

	cfg, err := config.LoadConfig(*cfgPath, *devMode)
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	if err := cfg.ValidateAI(); err != nil {
		log.Fatalf("config: %v", err)
	}

	logger := logging.Component(logging.New(cfg.Log, cfg.Runtime.Dev), "worker")
	metrics.MustRegister()
	metrics.SetBuildInfo("worker", version, commit)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// ---- Postgres ----
	pool, err := pg.NewPgxPool(ctx, cfg.Database)
	if err != nil {
		logger.Fatal().Err(err).Msg("postgres")
	}
	defer pool.Close()

	// ---- Redis ----
	redisClient, err := red.NewClient(ctx, &cfg.Redis)
	if err != nil {
		logger.Fatal().Err(err).Msg("redis")
	}
	defer redisClient.Close()

	// ---- AI adapters ----
	ai, err := buildAI(ctx, cfg.AI)
	if err != nil {
		logger.Fatal().Err(err).Msg("ai adapter")
	}
	logger.Info().Str("provider", cfg.AI.Provider).Str("model", cfg.AI.DefaultModel).
		Int("concurrent_limit", cfg.AI.ConcurrentLimit).Msg("ai adapter ready")

	// ---- Pipeline ----
	meetingRepo := pg.NewPostgresMeetingRepo(pool)
	classRepo := pg.NewClassificationRepoCacheDecorator(pg.NewPostgresClassificationRepo(pool), redisClient, cfg.Redis.TTL)
	failureUC := usecase.NewFailureUseCase(pg.NewPostgresFailedJobRepo(pool), logging.Component(logger, "failures"))
	classifier := usecase.NewClassificationUseCase(meetingRepo, classRepo, ai, usecase.ClassifierConfig{
		Model:        cfg.AI.DefaultModel,
		ModelVersion: cfg.AI.ModelVersion,
		CallTimeout:  cfg.AI.Timeout,
		MaxTokens:    cfg.AI.MaxTokens,
	}, logging.Component(logger, "classifier"))

	broker := red.NewBroker(redisClient.Raw(), cfg.Queue.Name, cfg.Queue.LeaseTimeout, logging.Component(logger, "broker"))
	workers := worker.NewPool(cfg.Worker.Concurrency, logger)
	workers.Start(ctx)
	consumer := worker.NewClassificationWorker(broker, classifier, failureUC, cfg.Worker.PollInterval, logger)
	go consumer.Start(ctx, workers)

	stats := sched.NewStatsWorker(cfg.Worker.StatsInterval, broker, workers, pool, logger)
	go func() { _ = stats.Run(ctx) }()

	var server *http.Server
	if *metricsPort > 0 {
		r := chi.NewRouter()
		r.Handle("/metrics", metrics.Handler())
		r.Get("/health", func(w http.ResponseWriter, _ *http.Request) { w.WriteHeader(http.StatusOK) })
		server = &http.Server{Addr: fmt.Sprintf(":%d", *metricsPort), Handler: r, ReadHeaderTimeout: 5 * time.Second}
		go func() {
			if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				logger.Error().Err(err).Msg("metrics server error")
			}
		}()
	}

	logger.Info().Int("concurrency", cfg.Worker.Concurrency).Str("queue", cfg.Queue.Name).Msg("worker running")
	<-ctx.Done()
	logger.Info().Msg("shutdown requested; waiting for in-flight jobs")
	workers.Stop()
	if server != nil {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = server.Shutdown(shutdownCtx)
	}
}

// buildAI wires every provider that has a key behind a router and a process-wide limiter.
func buildAI(ctx context.Context, cfg config.AIConfig) (adapter.AIServiceAdapter, error) {
	var providers []adapter.AIServiceAdapter
	if cfg.OpenAIKey != "" {
		a, err := aiAdapters.NewOpenAIAdapter(cfg.OpenAIKey, cfg.OpenAIBaseURL, cfg.DefaultModel)
		if err != nil {
			return nil, fmt.Errorf("openai: %w", err)
		}
		providers = append(providers, a)
	}
	if cfg.GeminiKey != "" {
		a, err := aiAdapters.NewGeminiAdapter(ctx, cfg.GeminiKey, cfg.GeminiURL, cfg.DefaultModel)
		if err != nil {
			return nil, fmt.Errorf("gemini: %w", err)
		}
		providers = append(providers, a)
	}
	router := aiAdapters.NewMultiAIAdapter(cfg.Provider, providers...)
	return aiAdapters.NewLimitedAI(router, cfg.ConcurrentLimit), nil
}
