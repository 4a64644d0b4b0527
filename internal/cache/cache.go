// Package cache is the in-process state cache: market data, reference data
// and order/position lifecycle state, cross-indexed for fast lookup.
package cache

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"time"

	"github.com/rs/zerolog"

	"StateCache/internal/codec"
	"StateCache/internal/model"
	"StateCache/internal/observability"
)

// State is the lifecycle stage of a Cache.
type State int32

const (
	StateUninitialized State = iota
	StateReady
	StateDisposed
)

func (s State) String() string {
	switch s {
	case StateUninitialized:
		return "Uninitialized"
	case StateReady:
		return "Ready"
	case StateDisposed:
		return "Disposed"
	default:
		return "Unknown"
	}
}

// Option configures optional collaborators.
type Option func(*Cache)

func WithLogger(logger zerolog.Logger) Option {
	return func(c *Cache) { c.logger = logger }
}

func WithMetrics(metrics *observability.Metrics) Option {
	return func(c *Cache) { c.metrics = metrics }
}

// Cache composes the reference data, time series, relational index and
// scratch stores over an optional Database.
//
// Not thread-safe: a Cache must be owned by a single goroutine. Use
// service.Owner to share one across goroutines.
type Cache struct {
	config  Config
	db      Database
	codec   codec.Codec
	logger  zerolog.Logger
	metrics *observability.Metrics
	state   State

	refdata *ReferenceDataStore
	series  *TimeSeriesStore
	index   *RelationalIndex
	scratch *ScratchStore

	orders            map[model.ClientOrderID]*model.Order
	positions         map[model.PositionID]*model.Position
	positionSnapshots map[model.PositionID][][]byte
}

// New builds a cache. db may be nil for a memory-only cache; do not pass a
// typed nil pointer.
func New(cfg Config, db Database, opts ...Option) (*Cache, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("cache config: %w", err)
	}
	cd, err := codec.For(cfg.Encoding)
	if err != nil {
		return nil, fmt.Errorf("cache codec: %w", err)
	}

	c := &Cache{
		config:            cfg,
		db:                db,
		codec:             cd,
		logger:            zerolog.Nop(),
		state:             StateUninitialized,
		refdata:           NewReferenceDataStore(),
		series:            NewTimeSeriesStore(cfg.TickCapacity, cfg.BarCapacity),
		index:             NewRelationalIndex(),
		scratch:           NewScratchStore(),
		orders:            make(map[model.ClientOrderID]*model.Order),
		positions:         make(map[model.PositionID]*model.Position),
		positionSnapshots: make(map[model.PositionID][][]byte),
	}
	for _, opt := range opts {
		opt(c)
	}

	if c.metrics != nil {
		m := c.metrics
		c.series.onEvict = func(stream string) {
			m.TimeSeriesEvictions.WithLabelValues(stream).Inc()
		}
	}

	c.logger.Info().Str("config", cfg.String()).Bool("backend", db != nil).Msg("cache created")
	return c, nil
}

// Config returns the configuration the cache was built with.
func (c *Cache) Config() Config { return c.config }

func (c *Cache) State() State { return c.state }

func (c *Cache) HasBackend() bool { return c.db != nil }

func (c *Cache) checkLive() error {
	if c.state == StateDisposed {
		return ErrDisposed
	}
	return nil
}

func (c *Cache) backendError(step Step) {
	if c.metrics != nil {
		c.metrics.BackendErrors.WithLabelValues(string(step)).Inc()
	}
}

// === Hydration ===

// Hydrate loads state from the backend in the order general, currencies,
// instruments, synthetics, orders, positions, then rebuilds the index. The
// first failing step is returned as a *PersistenceError naming it; earlier
// steps keep their loaded data and the failing category keeps its prior
// contents. Orders and positions are committed together, so a failure in
// either leaves both and the index as they were. With no backend every
// category is emptied.
func (c *Cache) Hydrate(ctx context.Context) error {
	if err := c.checkLive(); err != nil {
		return err
	}

	if c.db != nil && c.config.FlushOnStart {
		if err := c.db.Flush(ctx); err != nil {
			c.backendError(StepFlush)
			return persistErr(StepFlush, err)
		}
		c.logger.Info().Msg("flushed backend before hydration")
	}

	var (
		orders    map[model.ClientOrderID]*model.Order
		positions map[model.PositionID]*model.Position
	)
	steps := []struct {
		step Step
		run  func(context.Context) (int, error)
	}{
		{StepGeneral, func(ctx context.Context) (int, error) { return c.scratch.Hydrate(ctx, c.db) }},
		{StepCurrencies, func(ctx context.Context) (int, error) { return c.refdata.HydrateCurrencies(ctx, c.db) }},
		{StepInstruments, func(ctx context.Context) (int, error) { return c.refdata.HydrateInstruments(ctx, c.db) }},
		{StepSynthetics, func(ctx context.Context) (int, error) { return c.refdata.HydrateSynthetics(ctx, c.db) }},
		{StepOrders, func(ctx context.Context) (int, error) {
			var err error
			orders, err = c.loadOrders(ctx)
			return len(orders), err
		}},
		{StepPositions, func(ctx context.Context) (int, error) {
			var err error
			positions, err = c.loadPositions(ctx)
			return len(positions), err
		}},
	}

	for _, s := range steps {
		start := time.Now()
		n, err := s.run(ctx)
		if err != nil {
			c.backendError(s.step)
			c.logger.Error().Err(err).Str("step", string(s.step)).Msg("hydration failed")
			return err
		}
		if c.metrics != nil {
			c.metrics.HydrationDuration.WithLabelValues(string(s.step)).Observe(time.Since(start).Seconds())
			c.metrics.HydratedEntities.WithLabelValues(string(s.step)).Set(float64(n))
		}
		c.logger.Info().
			Str("category", string(s.step)).
			Int("count", n).
			Msgf("cached %d %s from database", n, s.step)
	}

	// orders and positions only replace the cached maps once both loaded
	c.orders = orders
	c.positions = positions
	if err := c.BuildIndex(); err != nil {
		return fmt.Errorf("build index: %w", err)
	}

	c.state = StateReady
	return nil
}

func (c *Cache) loadOrders(ctx context.Context) (map[model.ClientOrderID]*model.Order, error) {
	if c.db == nil {
		return make(map[model.ClientOrderID]*model.Order), nil
	}
	loaded, err := c.db.LoadOrders(ctx)
	if err != nil {
		return nil, persistErr(StepOrders, err)
	}
	orders := make(map[model.ClientOrderID]*model.Order, len(loaded))
	for id, o := range loaded {
		if o == nil {
			return nil, persistErr(StepOrders, fmt.Errorf("nil order %s", id))
		}
		if err := o.Validate(); err != nil {
			return nil, persistErr(StepOrders, fmt.Errorf("order %s: %w", id, err))
		}
		orders[o.ClientOrderID] = o
	}
	return orders, nil
}

func (c *Cache) loadPositions(ctx context.Context) (map[model.PositionID]*model.Position, error) {
	if c.db == nil {
		return make(map[model.PositionID]*model.Position), nil
	}
	loaded, err := c.db.LoadPositions(ctx)
	if err != nil {
		return nil, persistErr(StepPositions, err)
	}
	positions := make(map[model.PositionID]*model.Position, len(loaded))
	for id, p := range loaded {
		if p == nil {
			return nil, persistErr(StepPositions, fmt.Errorf("nil position %s", id))
		}
		if err := p.Validate(); err != nil {
			return nil, persistErr(StepPositions, fmt.Errorf("position %s: %w", id, err))
		}
		positions[p.ID] = p
	}
	return positions, nil
}

// BuildIndex clears the relational index and relinks every cached order and
// position.
func (c *Cache) BuildIndex() error {
	start := time.Now()
	c.index.Clear()

	for _, id := range mapKeys(c.orders) {
		o := c.orders[id]
		if err := c.index.LinkOrder(orderLink(o, "")); err != nil {
			return fmt.Errorf("link order %s: %w", id, err)
		}
		if err := c.markOrder(o); err != nil {
			return err
		}
	}

	for _, id := range mapKeys(c.positions) {
		if err := c.linkPosition(c.positions[id]); err != nil {
			return err
		}
	}

	c.publishIndexSizes()
	c.logger.Debug().
		Int("orders", len(c.orders)).
		Int("positions", len(c.positions)).
		Dur("took", time.Since(start)).
		Msg("built index")
	return nil
}

func orderLink(o *model.Order, clientID model.ClientID) OrderLink {
	return OrderLink{
		OrderID:         o.ClientOrderID,
		StrategyID:      o.StrategyID,
		InstrumentID:    o.InstrumentID,
		ClientID:        clientID,
		PositionID:      o.PositionID,
		ExecAlgorithmID: o.ExecAlgorithmID,
		ExecSpawnID:     o.ExecSpawnID,
		VenueOrderID:    o.VenueOrderID,
	}
}

// markOrder moves the order into the partitions its status implies.
func (c *Cache) markOrder(o *model.Order) error {
	id := o.ClientOrderID
	var err error
	if o.IsClosed() {
		err = c.index.MarkOrderClosed(id)
	} else {
		err = c.index.MarkOrderOpen(id)
	}
	return errors.Join(
		err,
		c.index.MarkOrderEmulated(id, o.IsEmulated()),
		c.index.MarkOrderInflight(id, o.IsInflight()),
		c.index.MarkOrderPendingCancel(id, o.IsPendingCancel()),
	)
}

func (c *Cache) linkPosition(p *model.Position) error {
	if err := c.index.LinkPosition(p.ID, p.StrategyID, p.InstrumentID); err != nil {
		return fmt.Errorf("link position %s: %w", p.ID, err)
	}
	for _, oid := range p.OrderIDs {
		if !c.index.HasOrder(oid) {
			c.logger.Debug().Str("position_id", string(p.ID)).Str("order_id", string(oid)).Msg("position references uncached order")
			continue
		}
		if err := c.index.LinkOrderPosition(oid, p.ID); err != nil {
			return err
		}
	}
	if p.IsOpen() {
		return c.index.MarkPositionOpen(p.ID)
	}
	return c.index.MarkPositionClosed(p.ID)
}

func (c *Cache) publishIndexSizes() {
	if c.metrics != nil {
		c.metrics.SetIndexSizes(c.index.IndexSizes())
	}
}

// === Reset / dispose ===

// Reset clears every store and the index. Instruments survive only when
// DropInstrumentsOnReset is false. Configuration is untouched.
func (c *Cache) Reset() {
	c.logger.Debug().Msg("resetting cache")

	c.series.Clear()
	c.refdata.Clear(c.config.DropInstrumentsOnReset)
	c.scratch.Clear()
	c.ClearIndex()
	c.orders = make(map[model.ClientOrderID]*model.Order)
	c.positions = make(map[model.PositionID]*model.Position)
	c.positionSnapshots = make(map[model.PositionID][][]byte)

	c.logger.Info().Bool("dropped_instruments", c.config.DropInstrumentsOnReset).Msg("reset cache")
}

// ClearIndex empties the relational index only.
func (c *Cache) ClearIndex() {
	c.index.Clear()
	if c.metrics != nil {
		c.metrics.IndexClears.Inc()
	}
	c.publishIndexSizes()
	c.logger.Debug().Msg("cleared index")
}

// FlushDB drains pending backend writes.
func (c *Cache) FlushDB(ctx context.Context) error {
	if err := c.checkLive(); err != nil {
		return err
	}
	if c.db == nil {
		return nil
	}
	if err := c.db.Flush(ctx); err != nil {
		c.backendError(StepFlush)
		return persistErr(StepFlush, err)
	}
	return nil
}

// Dispose flushes and closes the backend. Close is attempted even when the
// flush fails; both failures are returned joined. The cache is Disposed
// afterwards regardless.
func (c *Cache) Dispose(ctx context.Context) error {
	if err := c.checkLive(); err != nil {
		return err
	}
	c.state = StateDisposed

	if c.db == nil {
		c.logger.Info().Msg("disposed cache")
		return nil
	}

	var errs []error
	if err := c.db.Flush(ctx); err != nil {
		c.backendError(StepFlush)
		errs = append(errs, persistErr(StepFlush, err))
	}
	if err := c.db.Close(); err != nil {
		c.backendError(StepClose)
		errs = append(errs, persistErr(StepClose, err))
	}

	err := errors.Join(errs...)
	if err != nil {
		c.logger.Error().Err(err).Msg("dispose failed")
	} else {
		c.logger.Info().Msg("disposed cache")
	}
	return err
}

// === Scratch ===

// Put stores value under key and writes it through to the backend.
func (c *Cache) Put(ctx context.Context, key string, value []byte) error {
	if err := c.checkLive(); err != nil {
		return err
	}
	err := c.scratch.Put(ctx, c.db, key, value)
	var perr *PersistenceError
	if errors.As(err, &perr) {
		c.backendError(StepPut)
	}
	if c.metrics != nil && (err == nil || perr != nil) {
		c.metrics.ScratchPuts.Inc()
	}
	return err
}

// Get returns the value stored under key; a missing key yields ok=false.
func (c *Cache) Get(key string) ([]byte, bool, error) {
	return c.scratch.Get(key)
}

func (c *Cache) Keys() []string { return c.scratch.Keys() }

// === Position snapshots ===

// SnapshotPosition appends an encoded copy of p to its snapshot history.
func (c *Cache) SnapshotPosition(p *model.Position) error {
	if p == nil {
		return &model.ValidationError{Param: "position", Reason: "nil"}
	}
	if err := p.Validate(); err != nil {
		return err
	}
	frame, err := c.codec.Encode(p)
	if err != nil {
		return fmt.Errorf("encode position snapshot: %w", err)
	}
	c.positionSnapshots[p.ID] = append(c.positionSnapshots[p.ID], frame)
	c.logger.Debug().Str("position_id", string(p.ID)).Int("frames", len(c.positionSnapshots[p.ID])).Msg("snapshot position")
	return nil
}

// PositionSnapshots decodes the snapshot history of id, oldest first.
func (c *Cache) PositionSnapshots(id model.PositionID) ([]*model.Position, error) {
	frames := c.positionSnapshots[id]
	out := make([]*model.Position, 0, len(frames))
	for i, frame := range frames {
		var p model.Position
		if err := c.codec.Decode(frame, &p); err != nil {
			return nil, fmt.Errorf("decode snapshot %d of %s: %w", i, id, err)
		}
		out = append(out, &p)
	}
	return out, nil
}

// PositionSnapshotFrames returns copies of the raw encoded frames.
func (c *Cache) PositionSnapshotFrames(id model.PositionID) [][]byte {
	frames := c.positionSnapshots[id]
	out := make([][]byte, len(frames))
	for i, f := range frames {
		out[i] = slices.Clone(f)
	}
	return out
}
