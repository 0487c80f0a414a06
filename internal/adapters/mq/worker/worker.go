// Package worker runs ranking jobs: fetch a game's trace, score it, store it.
package worker

import (
	"context"
	"fmt"
	"runtime"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"github.com/okian/nailbiter/internal/domain/excitement"
	"github.com/okian/nailbiter/internal/domain/model"
	"github.com/okian/nailbiter/pkg/logger"
	"github.com/okian/nailbiter/pkg/metrics"
)

// Job abstracts what workers read off the queue.
type Job = model.Job

// Queue defines how workers receive jobs.
type Queue interface {
	Dequeue(ctx context.Context) <-chan Job
}

// Source supplies a game's win-probability trace.
type Source interface {
	Samples(ctx context.Context, eventID string) ([]excitement.Sample, error)
}

// Scorer rates a trace.
type Scorer interface {
	Score(samples []excitement.Sample) (excitement.Result, error)
}

// Saver persists a scored game.
type Saver interface {
	Save(ctx context.Context, g model.RankedGame) error
}

// Pool runs a fixed number of workers over one queue.
type Pool struct {
	size   int
	queue  Queue
	source Source
	scorer Scorer
	saver  Saver

	onFailure FailureFunc
	now       func() time.Time
	logger    logger.Logger

	cancel context.CancelFunc
	wg     sync.WaitGroup

	processed atomic.Int64
	failed    atomic.Int64
}

// NewPool creates a worker pool. size < 1 falls back to runtime.NumCPU().
func NewPool(size int, q Queue, src Source, sc Scorer, sv Saver, opts ...Option) *Pool {
	if size < 1 {
		size = runtime.NumCPU()
	}
	p := &Pool{
		size:      size,
		queue:     q,
		source:    src,
		scorer:    sc,
		saver:     sv,
		onFailure: func(context.Context, Job, error) {},
		now:       time.Now,
		logger:    logger.Named("worker-pool"),
	}
	for _, opt := range opts {
		opt(p)
	}
	metrics.UpdateWorkerCount(size)
	return p
}

// Start launches the workers. They run until the queue is closed and
// drained, ctx is done, or Shutdown gives up waiting.
func (p *Pool) Start(ctx context.Context) {
	ctx, p.cancel = context.WithCancel(ctx)
	for i := 0; i < p.size; i++ {
		p.wg.Add(1)
		go p.run(ctx, p.logger.Named("worker-"+strconv.Itoa(i)))
	}
}

func (p *Pool) run(ctx context.Context, log logger.Logger) {
	defer p.wg.Done()
	for job := range p.queue.Dequeue(ctx) {
		if err := p.Process(ctx, job); err != nil {
			log.Warn(ctx, "ranking job failed",
				logger.String("run_id", job.RunID),
				logger.String("event_id", job.Card.EventID),
				logger.Error(err),
			)
		}
	}
}

// Process handles a single job synchronously. A failure is counted and
// reported through the failure hook; it never stops the pool.
func (p *Pool) Process(ctx context.Context, job Job) (err error) {
	start := time.Now()
	metrics.WorkerBusy(1)
	defer func() {
		metrics.WorkerBusy(-1)
		metrics.RecordWorkerDuration(float64(time.Since(start).Milliseconds()))
		if err != nil {
			p.onFailure(ctx, job, err)
			p.failed.Add(1)
			return
		}
		p.processed.Add(1)
	}()

	samples, err := p.source.Samples(ctx, job.Card.EventID)
	if err != nil {
		metrics.RecordScoringError("source")
		return fmt.Errorf("fetching trace: %w", err)
	}

	res, err := p.scorer.Score(samples)
	if err != nil {
		metrics.RecordScoringError(excitement.Kind(err))
		return fmt.Errorf("scoring: %w", err)
	}

	if err := p.saver.Save(ctx, model.NewRankedGame(job.Card, res, p.now())); err != nil {
		metrics.RecordStoreError("save")
		return fmt.Errorf("saving: %w", err)
	}

	metrics.RecordGameScored(res.Verdict.String(), res.Score, res.LeadChanges)
	metrics.RecordJobLatency(float64(time.Since(start).Milliseconds()))
	p.logger.Debug(ctx, "game scored",
		logger.String("event_id", job.Card.EventID),
		logger.Float64("score", res.Score),
		logger.String("verdict", res.Verdict.String()),
	)
	return nil
}

// Size returns the number of workers.
func (p *Pool) Size() int { return p.size }

// Processed returns how many jobs succeeded.
func (p *Pool) Processed() int64 { return p.processed.Load() }

// Failed returns how many jobs failed.
func (p *Pool) Failed() int64 { return p.failed.Load() }

// Shutdown closes the queue (when it supports Close), lets workers drain it
// and waits for them until ctx is done, after which in-flight work is
// cancelled.
func (p *Pool) Shutdown(ctx context.Context) error {
	if closer, ok := p.queue.(interface{ Close() error }); ok {
		if err := closer.Close(); err != nil {
			p.logger.Error(ctx, "error closing queue", logger.Error(err))
		}
	}

	done := make(chan struct{})
	go func() {
		p.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		if p.cancel != nil {
			p.cancel()
		}
		return nil
	case <-ctx.Done():
		if p.cancel != nil {
			p.cancel()
		}
		<-done
		return fmt.Errorf("worker pool shutdown: %w", ctx.Err())
	}
}
