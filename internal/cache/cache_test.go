package cache_test

import (
	"context"
	"errors"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	promtest "github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"StateCache/internal/cache"
	"StateCache/internal/cache/mock"
	"StateCache/internal/codec"
	"StateCache/internal/model"
	"StateCache/internal/observability"
	"StateCache/internal/testutil"
)

func newCache(t *testing.T, db cache.Database, opts ...cache.Option) *cache.Cache {
	t.Helper()
	c, err := cache.New(cache.DefaultConfig(), db, opts...)
	require.NoError(t, err)
	return c
}

// ============================================================================
// Test: config
// ============================================================================

func TestDefaultConfig(t *testing.T) {
	cfg := cache.DefaultConfig()

	assert.Equal(t, codec.MsgPack, cfg.Encoding)
	assert.False(t, cfg.TimestampsAsISO8601)
	assert.True(t, cfg.UseTraderPrefix)
	assert.False(t, cfg.UseInstanceID)
	assert.False(t, cfg.FlushOnStart)
	assert.True(t, cfg.DropInstrumentsOnReset)
	assert.Equal(t, 10_000, cfg.TickCapacity)
	assert.Equal(t, 10_000, cfg.BarCapacity)
	assert.NoError(t, cfg.Validate())
}

func TestNew_RejectsBadConfig(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*cache.Config)
	}{
		{name: "zero tick capacity", mutate: func(c *cache.Config) { c.TickCapacity = 0 }},
		{name: "negative bar capacity", mutate: func(c *cache.Config) { c.BarCapacity = -1 }},
		{name: "unknown encoding", mutate: func(c *cache.Config) { c.Encoding = codec.Encoding(9) }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := cache.DefaultConfig()
			tt.mutate(&cfg)
			_, err := cache.New(cfg, nil)
			var verr *model.ValidationError
			assert.ErrorAs(t, err, &verr)
		})
	}
}

// ============================================================================
// Test: scratch put/get
// ============================================================================

func TestCache_PutGet(t *testing.T) {
	c := newCache(t, nil)
	ctx := context.Background()

	require.NoError(t, c.Put(ctx, "cfg", []byte{1, 2, 3}))
	got, ok, err := c.Get("cfg")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, []byte{1, 2, 3}, got)

	err = c.Put(ctx, "cfg", []byte{})
	var verr *model.ValidationError
	require.ErrorAs(t, err, &verr)

	got, ok, err = c.Get("cfg")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, []byte{1, 2, 3}, got)
}

func TestCache_PutLastWriteWins(t *testing.T) {
	c := newCache(t, nil)
	ctx := context.Background()

	require.NoError(t, c.Put(ctx, "k", []byte("a")))
	require.NoError(t, c.Put(ctx, "k", []byte("b")))

	got, _, err := c.Get("k")
	require.NoError(t, err)
	assert.Equal(t, []byte("b"), got)
}

func TestCache_PutEmptyKey(t *testing.T) {
	c := newCache(t, nil)

	err := c.Put(context.Background(), "", []byte{1})
	var verr *model.ValidationError
	assert.ErrorAs(t, err, &verr)

	_, _, err = c.Get("")
	assert.ErrorAs(t, err, &verr)
}

func TestCache_GetUnknownKey(t *testing.T) {
	c := newCache(t, nil)

	got, ok, err := c.Get("missing")
	assert.NoError(t, err)
	assert.False(t, ok)
	assert.Nil(t, got)
}

func TestCache_GetReturnsCopy(t *testing.T) {
	c := newCache(t, nil)
	value := []byte{1, 2, 3}
	require.NoError(t, c.Put(context.Background(), "k", value))

	value[0] = 9
	got, _, _ := c.Get("k")
	got[1] = 9

	again, _, _ := c.Get("k")
	assert.Equal(t, []byte{1, 2, 3}, again)
}

func TestCache_PutBackendFailureKeepsMemory(t *testing.T) {
	ctrl := gomock.NewController(t)
	db := mock.NewMockDatabase(ctrl)
	c := newCache(t, db)
	ctx := context.Background()

	backendErr := errors.New("connection refused")
	db.EXPECT().Put(gomock.Any(), "k", []byte("v")).Return(backendErr)

	err := c.Put(ctx, "k", []byte("v"))
	var perr *cache.PersistenceError
	require.ErrorAs(t, err, &perr)
	assert.Equal(t, cache.StepPut, perr.Step)
	assert.ErrorIs(t, err, backendErr)

	got, ok, err := c.Get("k")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, []byte("v"), got)
}

// ============================================================================
// Test: hydration
// ============================================================================

func TestCache_HydrateWithoutBackend(t *testing.T) {
	c := newCache(t, nil)
	assert.Equal(t, cache.StateUninitialized, c.State())

	require.NoError(t, c.Hydrate(context.Background()))

	assert.Equal(t, cache.StateReady, c.State())
	assert.Empty(t, c.CurrencyCodes())
	assert.Empty(t, c.InstrumentIDs(""))
	assert.Empty(t, c.Keys())
	assert.Empty(t, c.OrderIDs(cache.Filter{}))
}

func TestCache_HydrateOrder(t *testing.T) {
	ctrl := gomock.NewController(t)
	db := mock.NewMockDatabase(ctrl)
	ctx := context.Background()

	order := testutil.Order("O-1", "S-1", "AUD/USD.SIM", model.OrderStatusFilled)
	order.PositionID = "P-1"
	position := testutil.Position("P-1", "S-1", "AUD/USD.SIM", model.PositionSideLong, "100", "O-1")

	gomock.InOrder(
		db.EXPECT().LoadGeneral(ctx).Return(map[string][]byte{"k": []byte("v")}, nil),
		db.EXPECT().LoadCurrencies(ctx).Return(map[string]model.Currency{"USD": testutil.USD()}, nil),
		db.EXPECT().LoadInstruments(ctx).Return(map[model.InstrumentID]model.Instrument{
			audusd: testutil.CurrencyPair("AUD/USD.SIM"),
		}, nil),
		db.EXPECT().LoadSynthetics(ctx).Return(nil, nil),
		db.EXPECT().LoadOrders(ctx).Return(map[model.ClientOrderID]*model.Order{"O-1": order}, nil),
		db.EXPECT().LoadPositions(ctx).Return(map[model.PositionID]*model.Position{"P-1": position}, nil),
	)

	c := newCache(t, db)
	require.NoError(t, c.Hydrate(ctx))

	assert.Equal(t, cache.StateReady, c.State())
	_, ok := c.Currency("USD")
	assert.True(t, ok)
	_, ok = c.Instrument(audusd)
	assert.True(t, ok)

	assert.True(t, c.IsOrderClosed("O-1"))
	assert.Equal(t, []model.PositionID{"P-1"}, c.PositionIDs(cache.Filter{}))
	assert.Equal(t, []model.ClientOrderID{"O-1"}, c.OrderIDsForPosition("P-1"))

	pid, ok := c.PositionIDForOrder("O-1")
	require.True(t, ok)
	assert.Equal(t, model.PositionID("P-1"), pid)

	assert.NoError(t, c.CheckIntegrity())
}

func TestCache_HydrateFlushOnStart(t *testing.T) {
	ctrl := gomock.NewController(t)
	db := mock.NewMockDatabase(ctrl)
	ctx := context.Background()

	cfg := cache.DefaultConfig()
	cfg.FlushOnStart = true
	c, err := cache.New(cfg, db)
	require.NoError(t, err)

	gomock.InOrder(
		db.EXPECT().Flush(ctx).Return(nil),
		db.EXPECT().LoadGeneral(ctx).Return(nil, nil),
		db.EXPECT().LoadCurrencies(ctx).Return(nil, nil),
		db.EXPECT().LoadInstruments(ctx).Return(nil, nil),
		db.EXPECT().LoadSynthetics(ctx).Return(nil, nil),
		db.EXPECT().LoadOrders(ctx).Return(nil, nil),
		db.EXPECT().LoadPositions(ctx).Return(nil, nil),
	)

	require.NoError(t, c.Hydrate(ctx))
}

func TestCache_HydrateFailureLeavesPriorState(t *testing.T) {
	ctrl := gomock.NewController(t)
	db := mock.NewMockDatabase(ctrl)
	ctx := context.Background()
	c := newCache(t, db)

	db.EXPECT().LoadGeneral(ctx).Return(nil, nil).Times(2)
	db.EXPECT().LoadCurrencies(ctx).Return(map[string]model.Currency{"USD": testutil.USD()}, nil)
	db.EXPECT().LoadInstruments(ctx).Return(nil, nil)
	db.EXPECT().LoadSynthetics(ctx).Return(nil, nil)
	db.EXPECT().LoadOrders(ctx).Return(nil, nil)
	db.EXPECT().LoadPositions(ctx).Return(nil, nil)
	require.NoError(t, c.Hydrate(ctx))

	// Second hydration fails at currencies; later steps never run.
	db.EXPECT().LoadCurrencies(ctx).Return(nil, errors.New("malformed row"))

	err := c.Hydrate(ctx)
	var perr *cache.PersistenceError
	require.ErrorAs(t, err, &perr)
	assert.Equal(t, cache.StepCurrencies, perr.Step)

	_, ok := c.Currency("USD")
	assert.True(t, ok, "currencies must keep their prior contents")
}

func TestCache_HydratePositionsFailureKeepsOrdersAndIndex(t *testing.T) {
	ctrl := gomock.NewController(t)
	db := mock.NewMockDatabase(ctrl)
	ctx := context.Background()
	c := newCache(t, db)

	orderA := testutil.Order("O-A", "S-1", "AUD/USD.SIM", model.OrderStatusAccepted)
	orderB := testutil.Order("O-B", "S-1", "AUD/USD.SIM", model.OrderStatusAccepted)

	db.EXPECT().LoadGeneral(ctx).Return(nil, nil).Times(2)
	db.EXPECT().LoadCurrencies(ctx).Return(nil, nil).Times(2)
	db.EXPECT().LoadInstruments(ctx).Return(nil, nil).Times(2)
	db.EXPECT().LoadSynthetics(ctx).Return(nil, nil).Times(2)
	gomock.InOrder(
		db.EXPECT().LoadOrders(ctx).Return(map[model.ClientOrderID]*model.Order{"O-A": orderA}, nil),
		db.EXPECT().LoadOrders(ctx).Return(map[model.ClientOrderID]*model.Order{"O-B": orderB}, nil),
	)
	gomock.InOrder(
		db.EXPECT().LoadPositions(ctx).Return(nil, nil),
		db.EXPECT().LoadPositions(ctx).Return(nil, errors.New("connection reset")),
	)
	require.NoError(t, c.Hydrate(ctx))

	err := c.Hydrate(ctx)
	var perr *cache.PersistenceError
	require.ErrorAs(t, err, &perr)
	assert.Equal(t, cache.StepPositions, perr.Step)

	assert.Equal(t, []model.ClientOrderID{"O-A"}, c.OrderIDs(cache.Filter{}))
	_, ok := c.Order("O-A")
	assert.True(t, ok)
	_, ok = c.Order("O-B")
	assert.False(t, ok)
	assert.NoError(t, c.CheckIntegrity())
}

func TestCache_HydrateClonesScratchValues(t *testing.T) {
	ctrl := gomock.NewController(t)
	db := mock.NewMockDatabase(ctrl)
	ctx := context.Background()
	c := newCache(t, db)

	loaded := map[string][]byte{"k": {1, 2, 3}}
	db.EXPECT().LoadGeneral(ctx).Return(loaded, nil)
	db.EXPECT().LoadCurrencies(ctx).Return(nil, nil)
	db.EXPECT().LoadInstruments(ctx).Return(nil, nil)
	db.EXPECT().LoadSynthetics(ctx).Return(nil, nil)
	db.EXPECT().LoadOrders(ctx).Return(nil, nil)
	db.EXPECT().LoadPositions(ctx).Return(nil, nil)
	require.NoError(t, c.Hydrate(ctx))

	loaded["k"][0] = 9
	loaded["other"] = []byte{4}

	got, ok, err := c.Get("k")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, []byte{1, 2, 3}, got)
	_, ok, _ = c.Get("other")
	assert.False(t, ok)
}

func TestCache_HydrateRejectsMalformedOrder(t *testing.T) {
	ctrl := gomock.NewController(t)
	db := mock.NewMockDatabase(ctrl)
	ctx := context.Background()
	c := newCache(t, db)

	bad := testutil.Order("O-1", "", "AUD/USD.SIM", model.OrderStatusAccepted)

	db.EXPECT().LoadGeneral(ctx).Return(nil, nil)
	db.EXPECT().LoadCurrencies(ctx).Return(nil, nil)
	db.EXPECT().LoadInstruments(ctx).Return(nil, nil)
	db.EXPECT().LoadSynthetics(ctx).Return(nil, nil)
	db.EXPECT().LoadOrders(ctx).Return(map[model.ClientOrderID]*model.Order{"O-1": bad}, nil)

	err := c.Hydrate(ctx)
	var perr *cache.PersistenceError
	require.ErrorAs(t, err, &perr)
	assert.Equal(t, cache.StepOrders, perr.Step)
	assert.Equal(t, cache.StateUninitialized, c.State())
}

// ============================================================================
// Test: order lifecycle
// ============================================================================

func TestCache_OrderLifecycle(t *testing.T) {
	c := newCache(t, nil)
	ctx := context.Background()

	order := testutil.Order("O-1", "S-1", "AUD/USD.SIM", model.OrderStatusInitialized)
	require.NoError(t, c.AddOrder(ctx, order, "", "C-1"))
	assert.True(t, c.IsOrderOpen("O-1"))

	order.Status = model.OrderStatusSubmitted
	require.NoError(t, c.UpdateOrder(ctx, order))
	assert.Len(t, c.OrdersInflight(cache.Filter{}), 1)

	order.Status = model.OrderStatusAccepted
	order.VenueOrderID = "V-1"
	require.NoError(t, c.UpdateOrder(ctx, order))
	assert.Empty(t, c.OrdersInflight(cache.Filter{}))

	order.Status = model.OrderStatusFilled
	order.PositionID = "P-1"
	require.NoError(t, c.UpdateOrder(ctx, order))

	assert.True(t, c.OrderExists("O-1"))
	assert.True(t, c.IsOrderClosed("O-1"))
	assert.False(t, c.IsOrderOpen("O-1"))
	assert.Len(t, c.OrdersClosed(cache.Filter{StrategyID: "S-1", InstrumentID: audusd}), 1)

	strategy, _ := c.StrategyIDForOrder("O-1")
	assert.Equal(t, model.StrategyID("S-1"), strategy)
	client, _ := c.ClientIDForOrder("O-1")
	assert.Equal(t, model.ClientID("C-1"), client)
	coid, _ := c.ClientOrderIDForVenueOrderID("V-1")
	assert.Equal(t, model.ClientOrderID("O-1"), coid)

	require.NoError(t, c.AddPosition(ctx, testutil.Position("P-1", "S-1", "AUD/USD.SIM", model.PositionSideLong, "100", "O-1")))
	pos, ok := c.PositionForOrder("O-1")
	require.True(t, ok)
	assert.Equal(t, model.PositionID("P-1"), pos.ID)

	closed := testutil.Position("P-1", "S-1", "AUD/USD.SIM", model.PositionSideFlat, "0", "O-1")
	require.NoError(t, c.UpdatePosition(ctx, closed))
	assert.Len(t, c.PositionsClosed(cache.Filter{}), 1)
	assert.Empty(t, c.PositionsOpen(cache.Filter{}))

	assert.NoError(t, c.CheckIntegrity())
}

func TestCache_AddOrderErrors(t *testing.T) {
	c := newCache(t, nil)
	ctx := context.Background()

	order := testutil.Order("O-1", "S-1", "AUD/USD.SIM", model.OrderStatusInitialized)
	require.NoError(t, c.AddOrder(ctx, order, "", ""))

	assert.ErrorIs(t, c.AddOrder(ctx, order, "", ""), cache.ErrDuplicateOrder)
	assert.ErrorIs(t, c.UpdateOrder(ctx, testutil.Order("O-2", "S-1", "AUD/USD.SIM", model.OrderStatusAccepted)), cache.ErrUnknownOrder)

	var verr *model.ValidationError
	assert.ErrorAs(t, c.AddOrder(ctx, nil, "", ""), &verr)
	assert.ErrorAs(t, c.AddOrder(ctx, testutil.Order(" ", "S-1", "AUD/USD.SIM", model.OrderStatusInitialized), "", ""), &verr)
}

func TestCache_OrderReturnedIsCopy(t *testing.T) {
	c := newCache(t, nil)
	ctx := context.Background()
	require.NoError(t, c.AddOrder(ctx, testutil.Order("O-1", "S-1", "AUD/USD.SIM", model.OrderStatusAccepted), "", ""))

	got, ok := c.Order("O-1")
	require.True(t, ok)
	got.Status = model.OrderStatusFilled

	again, _ := c.Order("O-1")
	assert.Equal(t, model.OrderStatusAccepted, again.Status)
}

func TestCache_ExecAlgorithmOrders(t *testing.T) {
	c := newCache(t, nil)
	ctx := context.Background()

	primary := testutil.Order("O-1", "S-1", "AUD/USD.SIM", model.OrderStatusInitialized)
	primary.ExecAlgorithmID = "TWAP"
	spawned := testutil.Order("O-1-E1", "S-1", "AUD/USD.SIM", model.OrderStatusInitialized)
	spawned.ExecAlgorithmID = "TWAP"
	spawned.ExecSpawnID = "O-1"

	require.NoError(t, c.AddOrder(ctx, primary, "", ""))
	require.NoError(t, c.AddOrder(ctx, spawned, "", ""))

	assert.Len(t, c.ExecAlgorithmOrders("TWAP"), 2)
	children := c.ExecSpawnOrders("O-1")
	require.Len(t, children, 1)
	assert.Equal(t, model.ClientOrderID("O-1-E1"), children[0].ClientOrderID)
}

func TestCache_WritesThroughToBackend(t *testing.T) {
	ctrl := gomock.NewController(t)
	db := mock.NewMockDatabase(ctrl)
	c := newCache(t, db)
	ctx := context.Background()

	db.EXPECT().SaveCurrency(ctx, testutil.USD()).Return(nil)
	db.EXPECT().SaveOrder(ctx, gomock.Any()).DoAndReturn(func(_ context.Context, o *model.Order) error {
		assert.Equal(t, model.ClientOrderID("O-1"), o.ClientOrderID)
		return nil
	})
	db.EXPECT().SavePosition(ctx, gomock.Any()).Return(errors.New("disk full"))

	require.NoError(t, c.AddCurrency(ctx, testutil.USD()))
	require.NoError(t, c.AddOrder(ctx, testutil.Order("O-1", "S-1", "AUD/USD.SIM", model.OrderStatusInitialized), "", ""))

	err := c.AddPosition(ctx, testutil.Position("P-1", "S-1", "AUD/USD.SIM", model.PositionSideLong, "1"))
	var perr *cache.PersistenceError
	require.ErrorAs(t, err, &perr)
	assert.Equal(t, cache.StepSave, perr.Step)
	assert.True(t, c.PositionExists("P-1"))
}

// ============================================================================
// Test: reset
// ============================================================================

func TestCache_ResetPreservesConfig(t *testing.T) {
	cfg := cache.DefaultConfig()
	cfg.TickCapacity = 3
	cfg.DropInstrumentsOnReset = false
	c, err := cache.New(cfg, nil)
	require.NoError(t, err)
	ctx := context.Background()

	require.NoError(t, c.AddQuote(testutil.Quote("AUD/USD.SIM", "1", "2", 1)))
	require.NoError(t, c.AddTrade(testutil.Trade("AUD/USD.SIM", "1", 1)))
	require.NoError(t, c.Put(ctx, "k", []byte("v")))
	require.NoError(t, c.AddCurrency(ctx, testutil.USD()))
	require.NoError(t, c.AddInstrument(ctx, testutil.CurrencyPair("AUD/USD.SIM")))
	require.NoError(t, c.AddOrder(ctx, testutil.Order("O-1", "S-1", "AUD/USD.SIM", model.OrderStatusAccepted), "", ""))
	require.NoError(t, c.SnapshotPosition(testutil.Position("P-1", "S-1", "AUD/USD.SIM", model.PositionSideLong, "1")))

	c.Reset()

	assert.Equal(t, cfg, c.Config())
	assert.False(t, c.HasQuotes(audusd))
	assert.False(t, c.HasTrades(audusd))
	assert.Empty(t, c.Keys())
	assert.Empty(t, c.CurrencyCodes())
	assert.Empty(t, c.OrderIDs(cache.Filter{}))
	assert.False(t, c.OrderExists("O-1"))
	assert.Empty(t, c.PositionSnapshotFrames("P-1"))

	_, ok := c.Instrument(audusd)
	assert.True(t, ok, "instruments survive reset when not dropped")
}

func TestCache_ResetDropsInstrumentsByDefault(t *testing.T) {
	c := newCache(t, nil)
	require.NoError(t, c.AddInstrument(context.Background(), testutil.CurrencyPair("AUD/USD.SIM")))

	c.Reset()

	_, ok := c.Instrument(audusd)
	assert.False(t, ok)
}

// ============================================================================
// Test: dispose
// ============================================================================

func TestCache_DisposeFlushesThenCloses(t *testing.T) {
	ctrl := gomock.NewController(t)
	db := mock.NewMockDatabase(ctrl)
	c := newCache(t, db)
	ctx := context.Background()

	gomock.InOrder(
		db.EXPECT().Flush(ctx).Return(nil),
		db.EXPECT().Close().Return(nil),
	)

	require.NoError(t, c.Dispose(ctx))
	assert.Equal(t, cache.StateDisposed, c.State())
}

func TestCache_DisposeClosesEvenWhenFlushFails(t *testing.T) {
	ctrl := gomock.NewController(t)
	db := mock.NewMockDatabase(ctrl)
	c := newCache(t, db)
	ctx := context.Background()

	flushErr := errors.New("flush failed")
	closeErr := errors.New("close failed")
	db.EXPECT().Flush(ctx).Return(flushErr)
	db.EXPECT().Close().Return(closeErr)

	err := c.Dispose(ctx)
	assert.ErrorIs(t, err, flushErr)
	assert.ErrorIs(t, err, closeErr)
	assert.Equal(t, cache.StateDisposed, c.State())
}

func TestCache_OperationsAfterDispose(t *testing.T) {
	c := newCache(t, nil)
	ctx := context.Background()
	require.NoError(t, c.Dispose(ctx))

	assert.ErrorIs(t, c.Dispose(ctx), cache.ErrDisposed)
	assert.ErrorIs(t, c.Hydrate(ctx), cache.ErrDisposed)
	assert.ErrorIs(t, c.Put(ctx, "k", []byte("v")), cache.ErrDisposed)
	assert.ErrorIs(t, c.FlushDB(ctx), cache.ErrDisposed)
	assert.ErrorIs(t, c.AddOrder(ctx, testutil.Order("O-1", "S-1", "AUD/USD.SIM", model.OrderStatusInitialized), "", ""), cache.ErrDisposed)
}

// ============================================================================
// Test: diagnostics
// ============================================================================

func TestCache_CheckResiduals(t *testing.T) {
	reg := prometheus.NewRegistry()
	metrics := observability.NewMetrics(reg)
	c := newCache(t, nil, cache.WithMetrics(metrics))
	ctx := context.Background()

	assert.True(t, c.CheckResiduals().Empty())

	require.NoError(t, c.AddOrder(ctx, testutil.Order("O-1", "S-1", "AUD/USD.SIM", model.OrderStatusAccepted), "", ""))
	require.NoError(t, c.AddOrder(ctx, testutil.Order("O-2", "S-1", "AUD/USD.SIM", model.OrderStatusCanceled), "", ""))
	require.NoError(t, c.AddPosition(ctx, testutil.Position("P-1", "S-1", "AUD/USD.SIM", model.PositionSideShort, "5")))

	r := c.CheckResiduals()
	assert.False(t, r.Empty())
	assert.Equal(t, []model.ClientOrderID{"O-1"}, r.OpenOrders)
	assert.Equal(t, []model.PositionID{"P-1"}, r.OpenPositions)
	assert.Equal(t, 1.0, promtest.ToFloat64(metrics.ResidualsFound.WithLabelValues("orders")))
}

func TestCache_EvictionMetrics(t *testing.T) {
	metrics := observability.NewMetrics(prometheus.NewRegistry())
	cfg := cache.DefaultConfig()
	cfg.TickCapacity = 3
	c, err := cache.New(cfg, nil, cache.WithMetrics(metrics))
	require.NoError(t, err)

	for ts := int64(1); ts <= 4; ts++ {
		require.NoError(t, c.AddTrade(testutil.Trade("AUD/USD.SIM", "1.0", ts)))
	}

	trades := c.Trades(audusd)
	require.Len(t, trades, 3)
	assert.Equal(t, "T2", trades[0].TradeID)
	assert.Equal(t, 1.0, promtest.ToFloat64(metrics.TimeSeriesEvictions.WithLabelValues(cache.StreamTrades)))
	assert.Equal(t, 4.0, promtest.ToFloat64(metrics.TimeSeriesAdds.WithLabelValues(cache.StreamTrades)))
}

func TestCache_PositionSnapshots(t *testing.T) {
	c := newCache(t, nil)

	p := testutil.Position("P-1", "S-1", "AUD/USD.SIM", model.PositionSideLong, "1")
	require.NoError(t, c.SnapshotPosition(p))
	p.Quantity = p.Quantity.Add(p.Quantity)
	require.NoError(t, c.SnapshotPosition(p))

	snaps, err := c.PositionSnapshots("P-1")
	require.NoError(t, err)
	require.Len(t, snaps, 2)
	assert.Equal(t, "1", snaps[0].Quantity.String())
	assert.Equal(t, "2", snaps[1].Quantity.String())
}

func TestCache_IndependentInstances(t *testing.T) {
	a := newCache(t, nil)
	b := newCache(t, nil)

	require.NoError(t, a.Put(context.Background(), "k", []byte("a")))

	_, ok, err := b.Get("k")
	require.NoError(t, err)
	assert.False(t, ok)
}
