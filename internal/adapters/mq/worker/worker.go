// Package worker defines the workers that drain the persistence queue
// and write parsed games to the store.
package worker

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/tablelog/pokerstats/internal/adapters/mq/queue"
	"github.com/tablelog/pokerstats/internal/adapters/repository"
	"github.com/tablelog/pokerstats/internal/domain/model"
	"github.com/tablelog/pokerstats/pkg/logger"
	"github.com/tablelog/pokerstats/pkg/metrics"
)

const workerShutdownTimeout = 5 * time.Second

// Storer is what workers need from the game store.
type Storer interface {
	StoreGame(ctx context.Context, result *model.Result, logFileName string) (string, error)
}

// Releaser lets a worker release a dedupe key after a failed store so
// the upload can be retried.
type Releaser interface {
	Unrecord(ctx context.Context, key string)
}

// Queue defines how workers receive jobs.
type Queue interface {
	Dequeue(ctx context.Context) <-chan queue.Job
}

// Worker persists parsed game results pulled off the queue.
type Worker struct {
	queue    Queue
	store    Storer
	releaser Releaser
	name     string

	shutdown chan struct{}
	done     chan struct{}

	logger logger.Logger
}

// New creates a worker with configuration options.
func New(q Queue, store Storer, releaser Releaser, opts ...Option) *Worker {
	w := &Worker{
		queue:    q,
		store:    store,
		releaser: releaser,
		name:     "store-worker",
		shutdown: make(chan struct{}),
		done:     make(chan struct{}),
		logger:   logger.Get().Named("store-worker"),
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Run starts the worker loop until ctx is canceled or the queue closes.
func (w *Worker) Run(ctx context.Context) {
	defer close(w.done)

	jobs := w.queue.Dequeue(ctx)
	for {
		select {
		case <-ctx.Done():
			return
		case <-w.shutdown:
			return
		case job, ok := <-jobs:
			if !ok {
				return
			}
			if err := w.processJob(ctx, job); err != nil {
				w.logger.Error(ctx, "persisting game failed", logger.Error(err))
			}
		}
	}
}

// Shutdown gracefully stops the worker.
func (w *Worker) Shutdown(ctx context.Context) error {
	close(w.shutdown)
	select {
	case <-w.done:
		return nil
	case <-ctx.Done():
		w.logger.Warn(ctx, "shutdown timed out")
		return fmt.Errorf("shutdown timed out: %w", ctx.Err())
	}
}

func (w *Worker) processJob(ctx context.Context, job queue.Job) error {
	start := time.Now()
	defer func() {
		metrics.RecordWorkerProcessingLatency(float64(time.Since(start).Milliseconds()))
	}()

	gameID, err := w.store.StoreGame(ctx, job.Result, job.LogFileName)
	if errors.Is(err, repository.ErrDuplicateGame) {
		// Lost the race against an earlier upload of the same log.
		metrics.RecordGameDuplicate()
		w.logger.Info(ctx, "game already stored, skipping",
			logger.String("file", job.LogFileName))
		return nil
	}
	if err != nil {
		metrics.RecordStoreError()
		metrics.RecordWorkerError()
		if w.releaser != nil {
			w.releaser.Unrecord(ctx, job.GameKey)
		}
		return fmt.Errorf("store game from %s: %w", job.LogFileName, err)
	}

	metrics.RecordGameStored()
	w.logger.Info(ctx, "game stored",
		logger.String("game_id", gameID),
		logger.String("file", job.LogFileName),
		logger.Int("players", len(job.Result.Players)),
	)
	return nil
}

// Pool manages multiple workers.
type Pool struct {
	workers []*Worker

	logger logger.Logger
}

// NewPool creates workerCount workers over the same queue and store.
func NewPool(workerCount int, q Queue, store Storer, releaser Releaser) *Pool {
	if workerCount < 1 {
		workerCount = 1
	}
	p := &Pool{
		workers: make([]*Worker, workerCount),
		logger:  logger.Get().Named("store-pool"),
	}
	for i := range p.workers {
		p.workers[i] = New(q, store, releaser,
			WithName("store-worker-"+strconv.Itoa(i)),
		)
	}
	metrics.UpdateWorkerCount(workerCount)
	return p
}

// Start starts all workers in the pool.
func (p *Pool) Start(ctx context.Context) {
	for _, w := range p.workers {
		go w.Run(ctx)
	}
}

// Stop gracefully stops all workers.
func (p *Pool) Stop() {
	for _, w := range p.workers {
		select {
		case <-w.done:
		default:
			close(w.shutdown)
		}
	}
	for _, w := range p.workers {
		select {
		case <-w.done:
		case <-time.After(workerShutdownTimeout):
		}
	}
}
