// Package service wires the scorer, the ranking pipeline and the repository
// into the operations the HTTP API and the scheduler call.
package service

import (
	"context"
	"fmt"
	"runtime"
	"sync"
	"time"
	_ "time/tzdata" // America/New_York must resolve in scratch images

	"github.com/google/uuid"

	"github.com/okian/nailbiter/internal/adapters/espn"
	eventqueue "github.com/okian/nailbiter/internal/adapters/mq/queue"
	workerpool "github.com/okian/nailbiter/internal/adapters/mq/worker"
	"github.com/okian/nailbiter/internal/adapters/repository"
	"github.com/okian/nailbiter/internal/domain/dedupe"
	"github.com/okian/nailbiter/internal/domain/excitement"
	"github.com/okian/nailbiter/internal/domain/model"
	"github.com/okian/nailbiter/pkg/logger"
	"github.com/okian/nailbiter/pkg/metrics"
)

// scheduleZone decides which calendar day "yesterday" is.
const scheduleZone = "America/New_York"

// Source lists a day's games and fetches a game's trace.
type Source interface {
	Scoreboard(ctx context.Context, date time.Time) ([]model.GameCard, error)
	Samples(ctx context.Context, eventID string) ([]excitement.Sample, error)
}

// RunSummary reports what a ranking run did with the day's games.
type RunSummary struct {
	RunID    string `json:"run_id"`
	Date     string `json:"date"`
	Queued   int    `json:"queued"`
	Skipped  int    `json:"skipped"`
	Rejected int    `json:"rejected"`
}

// Service implements the API dependencies for the ranking system.
type Service struct {
	mu sync.RWMutex

	// Core components
	store   repository.Store
	source  Source
	scorer  *excitement.Scorer
	deduper dedupe.Deduper
	queue   *eventqueue.InMemoryQueue
	pool    *workerpool.Pool

	// Configuration
	workerCount int
	queueSize   int
	dedupeSize  int
	backend     repository.Backend
	now         func() time.Time
	newID       func() string

	started bool
	logger  logger.Logger
}

// Option applies a configuration option to the Service.
type Option func(*Service)

// WithWorkerCount sets the number of worker goroutines.
func WithWorkerCount(count int) Option {
	return func(s *Service) {
		if count > 0 {
			s.workerCount = count
		}
	}
}

// WithQueueSize sets the maximum number of pending jobs.
func WithQueueSize(size int) Option {
	return func(s *Service) {
		if size > 0 {
			s.queueSize = size
		}
	}
}

// WithDedupeSize sets how many event ids are remembered between runs.
func WithDedupeSize(size int) Option {
	return func(s *Service) {
		if size > 0 {
			s.dedupeSize = size
		}
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

// WithSource replaces the ESPN client.
func WithSource(src Source) Option {
	return func(s *Service) {
		if src != nil {
			s.source = src
		}
	}
}

// WithStore uses an already opened store instead of opening one on Start.
// The service takes ownership and closes it on Stop.
func WithStore(st repository.Store) Option {
	return func(s *Service) {
		if st != nil {
			s.store = st
		}
	}
}

// WithBackend selects the store opened on Start.
func WithBackend(b repository.Backend) Option {
	return func(s *Service) {
		s.backend = b
	}
}

// WithPolicy sets the scoring policy. Invalid fields keep their defaults.
func WithPolicy(p excitement.Policy) Option {
	return func(s *Service) {
		s.scorer = excitement.NewScorer(excitement.WithPolicy(p))
	}
}

// WithClock overrides the time source.
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		if now != nil {
			s.now = now
		}
	}
}

// New constructs a new Service with default configuration.
func New(opts ...Option) *Service {
	s := &Service{
		workerCount: runtime.NumCPU() * 2,
		queueSize:   1024,
		dedupeSize:  50_000,
		backend:     repository.Backend{Kind: repository.BackendMemory},
		scorer:      excitement.NewScorer(),
		now:         time.Now,
		newID:       uuid.NewString,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.source == nil {
		s.source = espn.New()
	}
	if s.logger == nil {
		s.logger = logger.Named("service")
	}
	return s
}

// Start opens the store and starts the worker pool.
func (s *Service) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.started {
		return nil
	}

	s.logger.Info(ctx, "starting ranking service...")

	if s.store == nil {
		st, err := repository.Open(ctx, s.backend)
		if err != nil {
			return fmt.Errorf("opening store: %w", err)
		}
		s.store = st
	}
	s.deduper = dedupe.NewInMemoryDeduper(dedupe.WithMaxSize(s.dedupeSize))
	s.queue = eventqueue.NewInMemoryQueue(eventqueue.WithCapacity(s.queueSize))
	s.pool = workerpool.NewPool(s.workerCount, s.queue, s.source, s.scorer, s.store,
		workerpool.WithClock(s.now),
		workerpool.WithOnFailure(s.forgetFailed),
	)
	// Workers outlive the request that started the service.
	s.pool.Start(context.WithoutCancel(ctx))

	s.started = true
	s.logger.Info(ctx, "ranking service started",
		logger.Int("workers", s.workerCount),
		logger.Int("queueSize", s.queueSize),
		logger.Int("dedupeSize", s.dedupeSize),
		logger.Int("storedGames", s.store.Count(ctx)),
	)
	return nil
}

// forgetFailed lets the next run retry a game whose job failed.
func (s *Service) forgetFailed(ctx context.Context, job model.Job, _ error) {
	s.deduper.Unrecord(ctx, job.Card.EventID)
}

// Stop drains queued jobs, waiting until ctx is done, and closes the store.
func (s *Service) Stop(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.started {
		return nil
	}

	s.logger.Info(ctx, "stopping ranking service...")

	var firstErr error
	if err := s.pool.Shutdown(ctx); err != nil {
		firstErr = err
	}
	if err := s.store.Close(); err != nil && firstErr == nil {
		firstErr = fmt.Errorf("closing store: %w", err)
	}
	s.store = nil

	s.started = false
	s.logger.Info(ctx, "ranking service stopped",
		logger.Int64("processed", s.pool.Processed()),
		logger.Int64("failed", s.pool.Failed()),
	)
	return firstErr
}

// ScoreSamples scores a trace synchronously.
func (s *Service) ScoreSamples(_ context.Context, samples []excitement.Sample) (excitement.Result, error) {
	res, err := s.scorer.Score(samples)
	if err != nil {
		metrics.RecordScoringError(excitement.Kind(err))
		return excitement.Result{}, err
	}
	metrics.RecordGameScored(res.Verdict.String(), res.Score, res.LeadChanges)
	return res, nil
}

// RankDate queues every game of date for scoring. Games already queued or
// scored by an earlier run are skipped unless force is set.
func (s *Service) RankDate(ctx context.Context, date time.Time, force bool) (RunSummary, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if !s.started {
		return RunSummary{}, ErrNotStarted
	}

	sum := RunSummary{RunID: s.newID(), Date: model.FormatDate(date)}
	log := s.logger.With(logger.String("run_id", sum.RunID), logger.String("date", sum.Date))

	cards, err := s.source.Scoreboard(ctx, date)
	if err != nil {
		log.Error(ctx, "scoreboard fetch failed", logger.Error(err))
		return RunSummary{}, fmt.Errorf("%w: %w", ErrSourceUnavailable, err)
	}

	for _, card := range cards {
		if force {
			s.deduper.Unrecord(ctx, card.EventID)
		}
		if s.deduper.SeenAndRecord(ctx, card.EventID) {
			sum.Skipped++
			continue
		}
		job := model.Job{JobID: s.newID(), RunID: sum.RunID, Card: card}
		if err := s.queue.Enqueue(ctx, job); err != nil {
			s.deduper.Unrecord(ctx, card.EventID)
			sum.Rejected++
			log.Warn(ctx, "job rejected", logger.String("event_id", card.EventID), logger.Error(err))
			continue
		}
		sum.Queued++
	}

	metrics.RecordRankingRun(sum.Queued)
	log.Info(ctx, "ranking run queued",
		logger.Int("games", len(cards)),
		logger.Int("queued", sum.Queued),
		logger.Int("skipped", sum.Skipped),
		logger.Int("rejected", sum.Rejected),
	)
	return sum, nil
}

// Refresh ranks TargetDate of the service clock.
func (s *Service) Refresh(ctx context.Context) (RunSummary, error) {
	return s.RankDate(ctx, TargetDate(s.now()), false)
}

// Ranking returns up to n scored games of date (YYYY-MM-DD), best first.
func (s *Service) Ranking(ctx context.Context, date string, n int) ([]model.RankedGame, error) {
	if _, err := model.ParseDate(date); err != nil {
		return nil, fmt.Errorf("%w: %q", ErrInvalidDate, date)
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	if !s.started {
		return nil, ErrNotStarted
	}
	return s.store.TopN(ctx, date, n)
}

// Game returns one scored game.
func (s *Service) Game(ctx context.Context, eventID string) (model.RankedGame, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if !s.started {
		return model.RankedGame{}, ErrNotStarted
	}
	return s.store.Get(ctx, eventID)
}

// GetStats returns service statistics for monitoring.
func (s *Service) GetStats() map[string]any {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ctx := context.Background()
	stats := map[string]any{
		"started":     s.started,
		"workerCount": s.workerCount,
		"queueSize":   s.queueSize,
		"dedupeSize":  s.dedupeSize,
		"policy":      s.scorer.Policy(),
	}

	if s.started {
		queueLen := s.queue.Len(ctx)
		stats["queueLength"] = queueLen
		stats["storedGames"] = s.store.Count(ctx)
		stats["trackedEvents"] = s.deduper.Size()
		stats["processed"] = s.pool.Processed()
		stats["failed"] = s.pool.Failed()

		metrics.UpdateQueueSize(queueLen)
	}
	return stats
}

// TargetDate returns the calendar day before now in America/New_York, when
// every game of that day has finished.
func TargetDate(now time.Time) time.Time {
	loc, err := time.LoadLocation(scheduleZone)
	if err != nil {
		loc = time.UTC
	}
	y, m, d := now.In(loc).Date()
	return time.Date(y, m, d-1, 0, 0, 0, 0, time.UTC)
}
