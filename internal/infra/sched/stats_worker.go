package sched

import (
	"context"
	"time"

	"github.com/jackc/pgx/v4/pgxpool"
	"github.com/rs/zerolog"

	"meeting-classifier/internal/domain/ports/adapter"
	"meeting-classifier/internal/infra/metrics"
	"meeting-classifier/internal/infra/worker"
)

// PoolStatter is satisfied by *worker.Pool.
type PoolStatter interface {
	Stat() worker.PoolStat
}

// StatsWorker periodically publishes queue depth, worker occupancy and database pool gauges.
type StatsWorker struct {
	interval time.Duration
	broker   adapter.JobBroker
	pool     PoolStatter
	db       *pgxpool.Pool
	log      *zerolog.Logger
}

// NewStatsWorker accepts nil pool or db; those gauges are then skipped.
func NewStatsWorker(interval time.Duration, broker adapter.JobBroker, pool PoolStatter, db *pgxpool.Pool, logger *zerolog.Logger) *StatsWorker {
	if interval <= 0 {
		interval = 15 * time.Second
	}
	l := logger.With().Str("component", "StatsWorker").Logger()
	return &StatsWorker{interval: interval, broker: broker, pool: pool, db: db, log: &l}
}

func (w *StatsWorker) Run(ctx context.Context) error {
	w.log.Info().Dur("interval", w.interval).Msg("Starting stats worker")
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	w.Collect(ctx)
	for {
		select {
		case <-ctx.Done():
			w.log.Info().Msg("Stopping stats worker")
			return ctx.Err()
		case <-ticker.C:
			w.Collect(ctx)
		}
	}
}

// Collect publishes one snapshot.
func (w *StatsWorker) Collect(ctx context.Context) {
	depth, err := w.broker.Depth(ctx)
	if err != nil {
		w.log.Error().Err(err).Msg("queue depth unavailable")
	} else {
		metrics.SetQueueDepth(depth.Waiting, depth.Delayed, depth.Active)
	}

	if w.pool != nil {
		st := w.pool.Stat()
		metrics.SetWorkerSlots(st.Busy, st.Workers)
	}

	if w.db != nil {
		s := w.db.Stat()
		metrics.SetDBPoolStats(s.TotalConns(), s.IdleConns(), s.AcquiredConns(), s.MaxConns(), s.AcquireCount())
	}
}
