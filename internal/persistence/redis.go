package persistence

import (
	"context"
	"fmt"
	"sync"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"StateCache/internal/cache"
	"StateCache/internal/model"
	"StateCache/internal/observability"
)

// RedisDatabase is a cache.Database keeping one hash per category under the
// keyspace namespace, e.g. "trader-TESTER-001:orders". Put is an immediate
// HSET; entity saves are pipelined and sent on Flush.
type RedisDatabase struct {
	loader

	client  redis.UniversalClient
	ks      Keyspace
	logger  zerolog.Logger
	metrics *observability.Metrics

	mu      sync.Mutex
	pipe    redis.Pipeliner
	pending map[Category]int
}

var _ cache.Database = (*RedisDatabase)(nil)

func NewRedisDatabase(
	client redis.UniversalClient,
	ks Keyspace,
	cacheCfg cache.Config,
	logger zerolog.Logger,
	metrics *observability.Metrics,
) (*RedisDatabase, error) {
	rc, err := NewRecordCodec(cacheCfg)
	if err != nil {
		return nil, err
	}
	r := &RedisDatabase{
		client:  client,
		ks:      ks,
		logger:  logger,
		metrics: metrics,
		pipe:    client.Pipeline(),
		pending: make(map[Category]int),
	}
	r.loader = loader{read: r.readAll, codec: rc}

	logger.Info().Str("namespace", ks.Namespace()).Msg("redis cache backend ready")
	return r, nil
}

func (r *RedisDatabase) readAll(ctx context.Context, cat Category) (map[string][]byte, error) {
	values, err := r.client.HGetAll(ctx, r.ks.Key(cat)).Result()
	if err != nil {
		return nil, fmt.Errorf("hgetall %s: %w", cat, err)
	}
	out := make(map[string][]byte, len(values))
	for k, v := range values {
		out[k] = []byte(v)
	}
	return out, nil
}

func (r *RedisDatabase) Put(ctx context.Context, key string, value []byte) error {
	return r.client.HSet(ctx, r.ks.Key(CategoryGeneral), key, value).Err()
}

func (r *RedisDatabase) SaveCurrency(ctx context.Context, c model.Currency) error {
	return r.queue(ctx)(r.codec.CurrencyRecord(c))
}

func (r *RedisDatabase) SaveInstrument(ctx context.Context, i model.Instrument) error {
	return r.queue(ctx)(r.codec.InstrumentRecord(i))
}

func (r *RedisDatabase) SaveSynthetic(ctx context.Context, s model.SyntheticInstrument) error {
	return r.queue(ctx)(r.codec.SyntheticRecord(s))
}

func (r *RedisDatabase) SaveOrder(ctx context.Context, o *model.Order) error {
	return r.queue(ctx)(r.codec.OrderRecord(o))
}

func (r *RedisDatabase) SavePosition(ctx context.Context, p *model.Position) error {
	return r.queue(ctx)(r.codec.PositionRecord(p))
}

func (r *RedisDatabase) queue(ctx context.Context) func(Record, error) error {
	return func(rec Record, err error) error {
		if err != nil {
			return err
		}
		r.mu.Lock()
		defer r.mu.Unlock()
		r.pipe.HSet(ctx, r.ks.Key(rec.Category), rec.Key, rec.Value)
		r.pending[rec.Category]++
		return nil
	}
}

// Pending is the number of queued saves not yet sent.
func (r *RedisDatabase) Pending() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.pipe.Len()
}

// Flush executes the queued saves as one pipeline.
func (r *RedisDatabase) Flush(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.pipe.Len() == 0 {
		return nil
	}
	n := r.pipe.Len()
	pending := r.pending
	r.pending = make(map[Category]int)

	if _, err := r.pipe.Exec(ctx); err != nil {
		if r.metrics != nil {
			r.metrics.PersistErrors.WithLabelValues("pipeline_exec").Inc()
		}
		return fmt.Errorf("exec pipeline of %d saves: %w", n, err)
	}

	if r.metrics != nil {
		r.metrics.PersistBatchSize.Observe(float64(n))
		for cat, count := range pending {
			r.metrics.PersistEntitiesWritten.WithLabelValues(string(cat)).Add(float64(count))
		}
	}
	r.logger.Debug().Int("saves", n).Msg("flushed pipeline")
	return nil
}

// Close discards unsent saves and closes the client.
func (r *RedisDatabase) Close() error {
	r.mu.Lock()
	if n := r.pipe.Len(); n > 0 {
		r.logger.Warn().Int("saves", n).Msg("discarding unflushed saves")
		r.pipe.Discard()
	}
	r.mu.Unlock()
	return r.client.Close()
}
