package persistence

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"StateCache/internal/cache"
	"StateCache/internal/model"
	"StateCache/internal/observability"
)

// PostgresConfig tunes the write-behind batch writer.
type PostgresConfig struct {
	BatchSize    int           `env:"PERSIST_BATCH_SIZE" envDefault:"500"`
	FlushTimeout time.Duration `env:"PERSIST_FLUSH_TIMEOUT" envDefault:"50ms"`
}

func DefaultPostgresConfig() PostgresConfig {
	return PostgresConfig{BatchSize: 500, FlushTimeout: 50 * time.Millisecond}
}

// PostgresDatabase is a cache.Database over the cache schema. Every table is
// keyed by (namespace, key) so several traders can share one database.
// Put writes synchronously; entity saves are queued on a BatchWriter and
// reach the database no later than the next Flush.
type PostgresDatabase struct {
	loader

	db        *sql.DB
	namespace string
	writer    *BatchWriter
	logger    zerolog.Logger
}

var _ cache.Database = (*PostgresDatabase)(nil)

// NewPostgresDatabase starts the batch writer; Close stops it.
func NewPostgresDatabase(
	db *sql.DB,
	ks Keyspace,
	cacheCfg cache.Config,
	cfg PostgresConfig,
	logger zerolog.Logger,
	metrics *observability.Metrics,
) (*PostgresDatabase, error) {
	if err := model.CheckPositiveInt(cfg.BatchSize, "batch_size"); err != nil {
		return nil, err
	}
	if cfg.FlushTimeout <= 0 {
		return nil, &model.ValidationError{Param: "flush_timeout", Reason: "must be positive"}
	}
	rc, err := NewRecordCodec(cacheCfg)
	if err != nil {
		return nil, err
	}

	p := &PostgresDatabase{
		db:        db,
		namespace: ks.Namespace(),
		logger:    logger,
	}
	p.loader = loader{read: p.readAll, codec: rc}
	p.writer = NewBatchWriter(db, p.namespace, cfg.BatchSize, cfg.FlushTimeout, logger, metrics)
	p.writer.Start()

	logger.Info().
		Str("namespace", p.namespace).
		Str("encoding", cacheCfg.Encoding.String()).
		Int("batch_size", cfg.BatchSize).
		Dur("flush_timeout", cfg.FlushTimeout).
		Msg("postgres cache backend ready")
	return p, nil
}

func (p *PostgresDatabase) readAll(ctx context.Context, cat Category) (map[string][]byte, error) {
	rows, err := p.db.QueryContext(ctx,
		fmt.Sprintf(`SELECT key, value FROM cache.%s WHERE namespace = $1`, cat),
		p.namespace,
	)
	if err != nil {
		return nil, fmt.Errorf("query %s: %w", cat, err)
	}
	defer rows.Close()

	out := make(map[string][]byte)
	for rows.Next() {
		var key string
		var value []byte
		if err := rows.Scan(&key, &value); err != nil {
			return nil, fmt.Errorf("scan %s: %w", cat, err)
		}
		out[key] = value
	}
	return out, rows.Err()
}

// Put upserts a general entry immediately.
func (p *PostgresDatabase) Put(ctx context.Context, key string, value []byte) error {
	return upsert(ctx, p.db, p.namespace, CategoryGeneral, []Record{{Category: CategoryGeneral, Key: key, Value: value}})
}

func (p *PostgresDatabase) SaveCurrency(ctx context.Context, c model.Currency) error {
	return p.enqueue(ctx)(p.codec.CurrencyRecord(c))
}

func (p *PostgresDatabase) SaveInstrument(ctx context.Context, i model.Instrument) error {
	return p.enqueue(ctx)(p.codec.InstrumentRecord(i))
}

func (p *PostgresDatabase) SaveSynthetic(ctx context.Context, s model.SyntheticInstrument) error {
	return p.enqueue(ctx)(p.codec.SyntheticRecord(s))
}

func (p *PostgresDatabase) SaveOrder(ctx context.Context, o *model.Order) error {
	return p.enqueue(ctx)(p.codec.OrderRecord(o))
}

func (p *PostgresDatabase) SavePosition(ctx context.Context, pos *model.Position) error {
	return p.enqueue(ctx)(p.codec.PositionRecord(pos))
}

func (p *PostgresDatabase) enqueue(ctx context.Context) func(Record, error) error {
	return func(rec Record, err error) error {
		if err != nil {
			return err
		}
		return p.writer.Enqueue(ctx, rec)
	}
}

// Flush blocks until every queued save is written.
func (p *PostgresDatabase) Flush(ctx context.Context) error {
	return p.writer.Flush(ctx)
}

// Close stops the writer, writing what is still queued, and closes the pool.
func (p *PostgresDatabase) Close() error {
	err := errors.Join(p.writer.Stop(), p.db.Close())
	p.logger.Info().Err(err).Msg("postgres cache backend closed")
	return err
}
