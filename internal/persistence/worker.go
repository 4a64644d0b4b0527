package persistence

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"StateCache/internal/observability"
)

// ErrWriterStopped is returned by Enqueue and Flush once Stop has been called.
var ErrWriterStopped = errors.New("batch writer stopped")

// execer is satisfied by *sql.DB and *sql.Tx.
type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

// BatchWriter drains queued records and upserts them to Postgres in batches.
// A batch is written when it is full, when the flush timeout expires, or on
// an explicit Flush. Enqueue blocks while the queue is full, so a slow
// database stalls the caller instead of dropping writes.
//
// Errors from background batches are retained and returned by the next
// Flush (or Stop). Failed batches are not retried.
type BatchWriter struct {
	db           *sql.DB
	namespace    string
	input        chan Record
	flushReq     chan chan error
	batchSize    int
	flushTimeout time.Duration
	logger       zerolog.Logger
	metrics      *observability.Metrics

	cancel  context.CancelFunc
	done    chan struct{}
	stopErr error
}

func NewBatchWriter(
	db *sql.DB,
	namespace string,
	batchSize int,
	flushTimeout time.Duration,
	logger zerolog.Logger,
	metrics *observability.Metrics,
) *BatchWriter {
	return &BatchWriter{
		db:           db,
		namespace:    namespace,
		input:        make(chan Record, batchSize*4),
		flushReq:     make(chan chan error),
		batchSize:    batchSize,
		flushTimeout: flushTimeout,
		logger:       logger,
		metrics:      metrics,
		done:         make(chan struct{}),
	}
}

// Start launches the writer goroutine.
func (w *BatchWriter) Start() {
	ctx, cancel := context.WithCancel(context.Background())
	w.cancel = cancel
	go w.run(ctx)
}

// Enqueue queues rec for the next batch.
func (w *BatchWriter) Enqueue(ctx context.Context, rec Record) error {
	select {
	case <-w.done:
		return ErrWriterStopped
	default:
	}

	select {
	case w.input <- rec:
		if w.metrics != nil {
			w.metrics.SetChannelMetrics("persist", len(w.input), cap(w.input))
		}
		return nil
	case <-w.done:
		return ErrWriterStopped
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Flush writes everything queued so far and returns any retained errors.
func (w *BatchWriter) Flush(ctx context.Context) error {
	reply := make(chan error, 1)
	select {
	case w.flushReq <- reply:
	case <-w.done:
		return ErrWriterStopped
	case <-ctx.Done():
		return ctx.Err()
	}

	select {
	case err := <-reply:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Stop writes the remaining queue, stops the goroutine and returns any
// retained errors. Calling Stop twice returns the first result.
func (w *BatchWriter) Stop() error {
	if w.cancel == nil {
		return nil
	}
	w.cancel()
	<-w.done
	return w.stopErr
}

func (w *BatchWriter) run(ctx context.Context) {
	defer close(w.done)

	batch := make([]Record, 0, w.batchSize)
	var retained []error

	timer := time.NewTimer(w.flushTimeout)
	defer timer.Stop()

	write := func(ctx context.Context) error {
		if len(batch) == 0 {
			return nil
		}
		err := w.writeBatch(ctx, batch)
		batch = batch[:0]
		return err
	}

	for {
		select {
		case <-ctx.Done():
			// Graceful shutdown: drain and write what is left
			batch = w.drain(batch)
			if err := write(context.Background()); err != nil {
				w.logger.Error().Err(err).Msg("final batch write failed")
				retained = append(retained, err)
			}
			w.stopErr = errors.Join(retained...)
			return

		case rec := <-w.input:
			batch = append(batch, rec)
			if len(batch) >= w.batchSize {
				if err := write(ctx); err != nil {
					w.logger.Error().Err(err).Msg("batch write failed")
					retained = append(retained, err)
				}
				timer.Reset(w.flushTimeout)
			}

		case reply := <-w.flushReq:
			batch = w.drain(batch)
			err := write(ctx)
			reply <- errors.Join(append(retained, err)...)
			retained = nil

		case <-timer.C:
			if err := write(ctx); err != nil {
				w.logger.Error().Err(err).Msg("timeout batch write failed")
				retained = append(retained, err)
			}
			timer.Reset(w.flushTimeout)
		}
	}
}

func (w *BatchWriter) drain(batch []Record) []Record {
	for {
		select {
		case rec := <-w.input:
			batch = append(batch, rec)
		default:
			return batch
		}
	}
}

// writeBatch upserts one batch in a single transaction, one statement per
// category. Later records for the same key win.
func (w *BatchWriter) writeBatch(ctx context.Context, batch []Record) error {
	start := time.Now()
	grouped := GroupRecords(batch)

	tx, err := w.db.BeginTx(ctx, nil)
	if err != nil {
		w.persistError("tx_begin")
		return fmt.Errorf("begin batch: %w", err)
	}
	defer tx.Rollback()

	for _, cat := range Categories {
		if err := upsert(ctx, tx, w.namespace, cat, grouped[cat]); err != nil {
			w.persistError("write_" + string(cat))
			return fmt.Errorf("write %s batch: %w", cat, err)
		}
	}

	if err := tx.Commit(); err != nil {
		w.persistError("tx_commit")
		return fmt.Errorf("commit batch: %w", err)
	}

	if w.metrics != nil {
		w.metrics.PersistBatchDur.Observe(time.Since(start).Seconds())
		w.metrics.PersistBatchSize.Observe(float64(len(batch)))
		for cat, recs := range grouped {
			w.metrics.PersistEntitiesWritten.WithLabelValues(string(cat)).Add(float64(len(recs)))
		}
		w.metrics.SetChannelMetrics("persist", len(w.input), cap(w.input))
	}
	w.logger.Debug().Int("records", len(batch)).Dur("took", time.Since(start)).Msg("wrote batch")
	return nil
}

func (w *BatchWriter) persistError(kind string) {
	if w.metrics != nil {
		w.metrics.PersistErrors.WithLabelValues(kind).Inc()
	}
}

// GroupRecords splits records by category, keeping only the last record
// for each key. Keys keep the order of their first appearance.
func GroupRecords(records []Record) map[Category][]Record {
	grouped := make(map[Category][]Record)
	pos := make(map[Category]map[string]int)
	for _, rec := range records {
		seen, ok := pos[rec.Category]
		if !ok {
			seen = make(map[string]int)
			pos[rec.Category] = seen
		}
		if i, dup := seen[rec.Key]; dup {
			grouped[rec.Category][i] = rec
			continue
		}
		seen[rec.Key] = len(grouped[rec.Category])
		grouped[rec.Category] = append(grouped[rec.Category], rec)
	}
	return grouped
}

// UpsertQuery builds a multi-row upsert of n records into the category's
// table.
func UpsertQuery(cat Category, n int) string {
	query := fmt.Sprintf("INSERT INTO cache.%s (namespace, key, value) VALUES ", cat)

	values := make([]string, 0, n)
	for i := 0; i < n; i++ {
		base := i * 3
		values = append(values, fmt.Sprintf("($%d, $%d, $%d)", base+1, base+2, base+3))
	}

	query += strings.Join(values, ", ")
	query += " ON CONFLICT (namespace, key) DO UPDATE SET value = EXCLUDED.value, updated_at = NOW()"
	return query
}

func upsert(ctx context.Context, ex execer, namespace string, cat Category, records []Record) error {
	if len(records) == 0 {
		return nil
	}
	args := make([]any, 0, len(records)*3)
	for _, rec := range records {
		args = append(args, namespace, rec.Key, rec.Value)
	}
	_, err := ex.ExecContext(ctx, UpsertQuery(cat, len(records)), args...)
	return err
}
