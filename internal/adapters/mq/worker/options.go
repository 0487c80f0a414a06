package worker

import (
	"context"
	"time"

	"github.com/okian/nailbiter/pkg/logger"
)

// FailureFunc is called after a job fails, e.g. to let the game be retried.
type FailureFunc func(ctx context.Context, job Job, err error)

// Option applies a configuration option to the Pool.
type Option func(*Pool)

// WithLogger sets a custom logger for the pool and its workers.
func WithLogger(l logger.Logger) Option {
	return func(p *Pool) {
		if l != nil {
			p.logger = l
		}
	}
}

// WithOnFailure registers a hook run after every failed job.
func WithOnFailure(fn FailureFunc) Option {
	return func(p *Pool) {
		if fn != nil {
			p.onFailure = fn
		}
	}
}

// WithClock overrides the time source used to stamp scored games.
func WithClock(now func() time.Time) Option {
	return func(p *Pool) {
		if now != nil {
			p.now = now
		}
	}
}
