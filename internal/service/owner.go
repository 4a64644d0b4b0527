// Package service shares one cache across goroutines and serves queries
// against it.
package service

import (
	"context"
	"errors"

	"github.com/rs/zerolog"

	"StateCache/internal/cache"
	"StateCache/internal/observability"
)

var ErrOwnerStopped = errors.New("cache owner stopped")

type op struct {
	fn     func(*cache.Cache) error
	result chan error
}

// Owner runs a single goroutine that exclusively owns a cache. Other
// goroutines submit closures with Do; they run one at a time in submission
// order, so the cache itself needs no locking.
type Owner struct {
	cache   *cache.Cache
	ops     chan op
	done    chan struct{}
	logger  zerolog.Logger
	metrics *observability.Metrics
}

func NewOwner(c *cache.Cache, queueSize int, logger zerolog.Logger, metrics *observability.Metrics) *Owner {
	return &Owner{
		cache:   c,
		ops:     make(chan op, queueSize),
		done:    make(chan struct{}),
		logger:  logger,
		metrics: metrics,
	}
}

// Run processes submitted closures until ctx is cancelled. Closures still
// queued at that point are rejected with ErrOwnerStopped.
func (o *Owner) Run(ctx context.Context) error {
	defer close(o.done)
	o.logger.Info().Int("queue", cap(o.ops)).Msg("cache owner started")

	for {
		select {
		case <-ctx.Done():
			o.reject()
			o.logger.Info().Msg("cache owner stopped")
			return ctx.Err()

		case next := <-o.ops:
			next.result <- o.run(next.fn)
			if o.metrics != nil {
				o.metrics.SetChannelMetrics("owner", len(o.ops), cap(o.ops))
			}
		}
	}
}

func (o *Owner) run(fn func(*cache.Cache) error) (err error) {
	defer func() {
		if r := recover(); r != nil {
			o.logger.Error().Interface("panic", r).Msg("cache operation panicked")
			err = errors.New("cache operation panicked")
		}
	}()
	return fn(o.cache)
}

func (o *Owner) reject() {
	for {
		select {
		case next := <-o.ops:
			next.result <- ErrOwnerStopped
		default:
			return
		}
	}
}

// Do runs fn on the owner goroutine and waits for it. If ctx ends first, Do
// returns ctx.Err(); fn may still run later.
func (o *Owner) Do(ctx context.Context, fn func(*cache.Cache) error) error {
	next := op{fn: fn, result: make(chan error, 1)}

	select {
	case o.ops <- next:
	case <-o.done:
		return ErrOwnerStopped
	case <-ctx.Done():
		return ctx.Err()
	}

	select {
	case err := <-next.result:
		return err
	case <-o.done:
		// Run answers before closing done, so a result here is final.
		select {
		case err := <-next.result:
			return err
		default:
			return ErrOwnerStopped
		}
	case <-ctx.Done():
		return ctx.Err()
	}
}
