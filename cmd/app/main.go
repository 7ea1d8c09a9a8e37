// File: cmd/app/main.go
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

	"meeting-classifier/internal/config"
	"meeting-classifier/internal/domain/model"
	pg "meeting-classifier/internal/infra/db/postgres"
	"meeting-classifier/internal/infra/logging"
	"meeting-classifier/internal/infra/metrics"
	red "meeting-classifier/internal/infra/redis"
	"meeting-classifier/internal/infra/web"
	"meeting-classifier/internal/usecase"
)

// Set with -ldflags "-X main.version=... -X main.commit=...".
var (
	version = "dev"
	commit  = "none"
)

func main() {
	// ---- CLI flags ----
	cfgPath := flag.String("config", "config.yaml", "path to YAML config file")
	devMode := flag.Bool("dev", false, "console logs and unredacted PII")
	mintFor := flag.String("mint-token", "", "print an ops API token for this subject and exit")
	flag.Parse()

	cfg, err := config.LoadConfig(*cfgPath, *devMode)
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	if err := cfg.ValidateAdmin(); err != nil {
		log.Fatalf("config: %v", err)
	}
	auth := web.NewAuthManager(cfg.Admin.JWTSecret, cfg.Admin.TokenTTL)
	if *mintFor != "" {
		tok, err := auth.Mint(*mintFor)
		if err != nil {
			log.Fatalf("mint token: %v", err)
		}
		fmt.Println(tok)
		return
	}

	logger := logging.Component(logging.New(cfg.Log, cfg.Runtime.Dev), "app")
	metrics.MustRegister()
	metrics.SetBuildInfo("app", version, commit)

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

	// ---- Repositories ----
	meetingRepo := pg.NewPostgresMeetingRepo(pool)
	classRepo := pg.NewClassificationRepoCacheDecorator(pg.NewPostgresClassificationRepo(pool), redisClient, cfg.Redis.TTL)
	failedRepo := pg.NewPostgresFailedJobRepo(pool)

	// ---- Use cases ----
	broker := red.NewBroker(redisClient.Raw(), cfg.Queue.Name, cfg.Queue.LeaseTimeout, logging.Component(logger, "broker"))
	producer := usecase.NewClassificationProducer(broker,
		model.JobOptions{MaxAttempts: cfg.Queue.MaxAttempts, BackoffBase: cfg.Queue.BackoffBase},
		logging.Component(logger, "producer"))
	meetingUC := usecase.NewMeetingUseCase(meetingRepo, classRepo, producer,
		cfg.Queue.MinTranscription, cfg.Queue.EnqueueTimeout, cfg.Runtime.Dev, logging.Component(logger, "meetings"))
	failureUC := usecase.NewFailureUseCase(failedRepo, logging.Component(logger, "failures"))

	// ---- HTTP ----
	srv := web.NewServer(meetingUC, failureUC, auth, red.NewRateLimiter(redisClient), logging.Component(logger, "http"))
	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.HTTP.Port),
		Handler:      srv.Routes(),
		ReadTimeout:  cfg.HTTP.ReadTimeout,
		WriteTimeout: cfg.HTTP.WriteTimeout,
	}
	go func() {
		logger.Info().Str("addr", server.Addr).Msg("ops api listening")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error().Err(err).Msg("http server error")
			stop()
		}
	}()

	// ---- Graceful shutdown ----
	<-ctx.Done()
	logger.Info().Msg("shutdown requested")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("http shutdown")
	}
}
