// Package service provides the core business service that implements
// the dependencies required by the HTTP API.
package service

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/tablelog/pokerstats/internal/adapters/mq/queue"
	"github.com/tablelog/pokerstats/internal/adapters/mq/worker"
	"github.com/tablelog/pokerstats/internal/adapters/repository"
	"github.com/tablelog/pokerstats/internal/domain/dedupe"
	"github.com/tablelog/pokerstats/internal/domain/hands"
	"github.com/tablelog/pokerstats/internal/domain/ingest"
	"github.com/tablelog/pokerstats/internal/domain/ledger"
	"github.com/tablelog/pokerstats/internal/domain/model"
	"github.com/tablelog/pokerstats/internal/domain/prize"
	"github.com/tablelog/pokerstats/internal/domain/ranking"
	"github.com/tablelog/pokerstats/internal/domain/roster"
	"github.com/tablelog/pokerstats/internal/domain/stacks"
	"github.com/tablelog/pokerstats/pkg/logger"
	"github.com/tablelog/pokerstats/pkg/metrics"
)

// Service runs the log-reconstruction pipeline and owns the adapters
// around it: the game store, the duplicate guard, and the persistence
// queue with its workers.
type Service struct {
	mu sync.RWMutex

	store      repository.Store
	deduper    dedupe.Deduper
	storeQueue queue.Queue
	pool       *worker.Pool

	dbPath       string
	queueSize    int
	workerCount  int
	dedupeSize   int
	defaultBuyin int
	rules        prize.Rules

	started bool

	logger logger.Logger
}

// Option applies a configuration option to the Service.
type Option func(*Service)

// WithStore injects a game store; when unset, Start opens a SQLite
// store at the configured path.
func WithStore(store repository.Store) Option {
	return func(s *Service) {
		if store != nil {
			s.store = store
		}
	}
}

// WithDBPath sets the SQLite database file location.
func WithDBPath(path string) Option {
	return func(s *Service) {
		if path != "" {
			s.dbPath = path
		}
	}
}

// WithQueueSize sets the capacity of the persistence queue.
func WithQueueSize(size int) Option {
	return func(s *Service) {
		if size > 0 {
			s.queueSize = size
		}
	}
}

// WithWorkerCount sets the number of persistence workers.
func WithWorkerCount(count int) Option {
	return func(s *Service) {
		if count > 0 {
			s.workerCount = count
		}
	}
}

// WithDedupeSize sets the size of the duplicate-game cache.
func WithDedupeSize(size int) Option {
	return func(s *Service) {
		if size > 0 {
			s.dedupeSize = size
		}
	}
}

// WithDefaultBuyin sets the fallback initial buy-in for players with no
// approval events.
func WithDefaultBuyin(amount int) Option {
	return func(s *Service) {
		if amount > 0 {
			s.defaultBuyin = amount
		}
	}
}

// WithPrizeRules sets the fee rules used for prize allocation.
func WithPrizeRules(r prize.Rules) Option {
	return func(s *Service) {
		s.rules = r
	}
}

// WithLogger sets a custom logger for the service.
func WithLogger(l logger.Logger) Option {
	return func(s *Service) {
		if l != nil {
			s.logger = l
		}
	}
}

// New constructs a Service with default configuration.
func New(opts ...Option) *Service {
	s := &Service{
		dbPath:       "data/pokerstats.db",
		queueSize:    256,
		workerCount:  1,
		dedupeSize:   4096,
		defaultBuyin: 20000,
		rules:        prize.DefaultRules(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Start initializes and starts the service components.
func (s *Service) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.started {
		return nil
	}
	if s.logger == nil {
		s.logger = logger.Get()
	}

	s.logger.Info(ctx, "starting poker stats service...")

	if s.store == nil {
		store, err := repository.NewSQLiteStore(s.dbPath)
		if err != nil {
			return fmt.Errorf("open store: %w", err)
		}
		s.store = store
	}
	s.deduper = dedupe.NewInMemoryDeduper(
		dedupe.WithMaxSize(s.dedupeSize),
	)
	s.storeQueue = queue.NewInMemoryQueue(
		queue.WithCapacity(s.queueSize),
	)
	s.pool = worker.NewPool(s.workerCount, s.storeQueue, s.store, s.deduper)
	s.pool.Start(ctx)

	s.started = true
	s.logger.Info(ctx, "poker stats service started",
		logger.Int("workers", s.workerCount),
		logger.Int("queue_size", s.queueSize),
		logger.String("db_path", s.dbPath),
	)
	return nil
}

// Stop gracefully shuts down the service.
func (s *Service) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.started {
		return
	}
	ctx := context.Background()
	s.logger.Info(ctx, "stopping poker stats service...")

	if s.storeQueue != nil {
		_ = s.storeQueue.Close()
	}
	if s.pool != nil {
		s.pool.Stop()
	}
	if s.store != nil {
		_ = s.store.Close()
	}

	s.started = false
	s.logger.Info(ctx, "poker stats service stopped")
}

// AnalyzeLog runs the full reconstruction pipeline over raw log
// records and returns the statistics record plus the prize table. It
// is a pure function of its input and the configured fee rules.
func (s *Service) AnalyzeLog(ctx context.Context, records []ingest.Record) (*model.Result, *model.PrizeTable, error) {
	start := time.Now()

	entries := ingest.Order(records)
	r := roster.Extract(entries)

	ht := hands.Track(entries, r)
	lg := ledger.Collect(ctx, entries, r.Names(),
		ledger.WithDefaultBuyin(s.defaultBuyin),
	)
	st := stacks.Track(entries, r)

	result, err := ranking.Build(ctx, ranking.Input{
		Period: ingest.Period(entries),
		Roster: r,
		Hands:  ht,
		Ledger: lg,
		Stacks: st,
	})
	if err != nil {
		metrics.RecordParseFailure()
		return nil, nil, err
	}

	table, err := prize.Allocate(ctx, result.Players, s.rules)
	if err != nil {
		metrics.RecordParseFailure()
		return nil, nil, err
	}

	metrics.RecordLogParsed()
	metrics.RecordParseDuration(float64(time.Since(start).Milliseconds()))
	metrics.ObserveGameShape(result.TotalHands, len(result.Players))

	s.logger.Info(ctx, "log analyzed",
		logger.Int("players", len(result.Players)),
		logger.Int("total_hands", result.TotalHands),
		logger.Duration("took", time.Since(start)),
	)
	return result, table, nil
}

// SubmitResult queues a parsed result for persistence. The returned
// flags mean: accepted, the job was queued; duplicate, the same game
// was already submitted or stored.
func (s *Service) SubmitResult(ctx context.Context, result *model.Result, logFileName string) (accepted, duplicate bool, err error) {
	names := make([]string, 0, len(result.Players))
	for _, p := range result.Players {
		names = append(names, p.UserName)
	}
	key := dedupe.GameKey(result.GamePeriod.Start, names)

	if s.deduper.SeenAndRecord(ctx, key) {
		metrics.RecordGameDuplicate()
		return false, true, nil
	}

	// The cache only covers this process; ask the store about earlier runs.
	exists, err := s.store.GameExists(ctx, result.GamePeriod.Start, names)
	if err != nil {
		s.deduper.Unrecord(ctx, key)
		return false, false, fmt.Errorf("duplicate check: %w", err)
	}
	if exists {
		metrics.RecordGameDuplicate()
		return false, true, nil
	}

	ok := s.storeQueue.Enqueue(ctx, queue.Job{
		GameKey:     key,
		LogFileName: logFileName,
		Result:      result,
	})
	if !ok {
		s.deduper.Unrecord(ctx, key)
		return false, false, nil
	}
	return true, false, nil
}

// ListGames returns all stored games.
func (s *Service) ListGames(ctx context.Context) ([]repository.GameSummary, error) {
	return s.store.ListGames(ctx)
}

// GetGame returns one stored game with player results.
func (s *Service) GetGame(ctx context.Context, gameID string) (*repository.GameDetail, error) {
	return s.store.GetGame(ctx, gameID)
}

// PlayerAggregates returns cross-game player statistics.
func (s *Service) PlayerAggregates(ctx context.Context, name string) ([]repository.PlayerAggregate, error) {
	return s.store.PlayerAggregates(ctx, name)
}

// GetStats returns service statistics for monitoring.
func (s *Service) GetStats() map[string]interface{} {
	s.mu.RLock()
	defer s.mu.RUnlock()

	stats := map[string]interface{}{
		"started":      s.started,
		"worker_count": s.workerCount,
		"queue_size":   s.queueSize,
		"dedupe_size":  s.dedupeSize,
	}
	if s.started {
		stats["queue_length"] = s.storeQueue.Len(context.Background())
		stats["seen_games"] = s.deduper.Size()
	}
	return stats
}
