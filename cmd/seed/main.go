package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"meeting-classifier/internal/config"
	"meeting-classifier/internal/domain/model"
	"meeting-classifier/internal/domain/ports/repository"
	"meeting-classifier/internal/infra/csvimport"
	pg "meeting-classifier/internal/infra/db/postgres"
	"meeting-classifier/internal/infra/logging"
	red "meeting-classifier/internal/infra/redis"
	"meeting-classifier/internal/usecase"
)

const seedLockKey = "lock:seed:meetings"

func main() {
	cfgPath := flag.String("config", "config.yaml", "path to YAML config file")
	csvPath := flag.String("csv", "", "meetings CSV (default seed.csv_path)")
	devMode := flag.Bool("dev", false, "console logs and unredacted PII")
	flag.Parse()

	// ---- Config ----
	cfg, err := config.LoadConfig(*cfgPath, *devMode)
	if err != nil {
		log.Fatalf("load config: %v", err)
	}
	if *csvPath == "" {
		*csvPath = cfg.Seed.CSVPath
	}
	if *csvPath == "" {
		log.Fatal("no CSV: pass -csv or set seed.csv_path")
	}
	logger := logging.Component(logging.New(cfg.Log, cfg.Runtime.Dev), "seed")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Minute)
	defer cancel()

	pool, err := pg.NewPgxPool(ctx, cfg.Database)
	if err != nil {
		log.Fatalf("postgres: %v", err)
	}
	defer pool.Close()
	redisClient, err := red.NewClient(ctx, &cfg.Redis)
	if err != nil {
		log.Fatalf("redis: %v", err)
	}
	defer redisClient.Close()

	// Two seeders racing on an empty table would both import.
	locker := red.NewLocker(redisClient)
	token, err := locker.TryLock(ctx, seedLockKey, 10*time.Minute)
	if errors.Is(err, red.ErrLockHeld) {
		fmt.Println("another seeder is running. No changes.")
		return
	}
	if err != nil {
		log.Fatalf("seed lock: %v", err)
	}
	defer func() { _ = locker.Unlock(context.Background(), seedLockKey, token) }()

	meetingRepo := pg.NewPostgresMeetingRepo(pool)
	n, err := meetingRepo.Count(ctx, repository.NoTX)
	if err != nil {
		log.Fatalf("count meetings: %v", err)
	}
	if n > 0 {
		fmt.Printf("%d meetings already present. No changes.\n", n)
		return
	}

	f, err := os.Open(*csvPath)
	if err != nil {
		log.Fatalf("open csv: %v", err)
	}
	defer f.Close()
	parsed, err := csvimport.Read(f)
	if err != nil {
		log.Fatalf("parse csv: %v", err)
	}
	for _, e := range parsed.Errors {
		logger.Warn().Msg(e)
	}

	broker := red.NewBroker(redisClient.Raw(), cfg.Queue.Name, cfg.Queue.LeaseTimeout, logger)
	producer := usecase.NewClassificationProducer(broker,
		model.JobOptions{MaxAttempts: cfg.Queue.MaxAttempts, BackoffBase: cfg.Queue.BackoffBase}, logger)
	meetingUC := usecase.NewMeetingUseCase(meetingRepo, pg.NewPostgresClassificationRepo(pool), producer,
		cfg.Queue.MinTranscription, cfg.Queue.EnqueueTimeout, cfg.Runtime.Dev, logger)

	res, err := meetingUC.Import(ctx, parsed.Meetings)
	if err != nil {
		log.Fatalf("import: %v", err)
	}
	for _, w := range res.Warnings {
		logger.Warn().Msg(w)
	}
	fmt.Printf("rows=%d valid=%d created=%d enqueued=%d failed=%d\n",
		parsed.TotalRows, len(parsed.Meetings), res.Created, res.Enqueued, res.Failed)
}
