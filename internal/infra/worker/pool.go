// File: internal/infra/worker/pool.go
package worker

import (
	"context"
	"errors"
	"runtime"
	"sync"
	"sync/atomic"

	"github.com/rs/zerolog"
)

var ErrPoolFull = errors.New("worker queue full")

type Task func(ctx context.Context) error

// PoolStat is a snapshot of pool occupancy.
type PoolStat struct {
	Workers int
	Busy    int64
	Queued  int
}

// Pool runs submitted tasks on a fixed set of goroutines.
type Pool struct {
	wg   sync.WaitGroup
	jobs chan Task
	quit chan struct{}
	once sync.Once
	n    int
	busy atomic.Int64
	log  *zerolog.Logger
}

func NewPool(workers int, logger *zerolog.Logger) *Pool {
	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	return &Pool{jobs: make(chan Task, workers), quit: make(chan struct{}), n: workers, log: logger}
}

func (p *Pool) Start(ctx context.Context) {
	for i := 0; i < p.n; i++ {
		p.wg.Add(1)
		go func(id int) {
			defer p.wg.Done()
			for {
				select {
				case <-ctx.Done():
					return
				case <-p.quit:
					return
				case task := <-p.jobs:
					if task == nil {
						continue
					}
					p.busy.Add(1)
					if err := task(ctx); err != nil {
						p.log.Error().Err(err).Int("worker", id).Msg("task error")
					}
					p.busy.Add(-1)
				}
			}
		}(i)
	}
}

// Stop waits for running tasks to return. Queued tasks are dropped.
func (p *Pool) Stop() {
	p.once.Do(func() { close(p.quit) })
	p.wg.Wait()
}

// Submit never blocks; it returns ErrPoolFull when every slot is taken.
func (p *Pool) Submit(task Task) error {
	if task == nil {
		return errors.New("nil task")
	}
	if p.busy.Load()+int64(len(p.jobs)) >= int64(p.n) {
		return ErrPoolFull
	}
	select {
	case p.jobs <- task:
		return nil
	default:
		return ErrPoolFull
	}
}

func (p *Pool) Stat() PoolStat {
	return PoolStat{Workers: p.n, Busy: p.busy.Load(), Queued: len(p.jobs)}
}
