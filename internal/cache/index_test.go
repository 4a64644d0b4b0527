package cache_test

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"StateCache/internal/cache"
	"StateCache/internal/model"
)

var (
	audusd = model.MustInstrumentID("AUD/USD.SIM")
	ethusd = model.MustInstrumentID("ETHUSDT.BINANCE")
)

func link(id, strategy string, instrument model.InstrumentID) cache.OrderLink {
	return cache.OrderLink{
		OrderID:      model.ClientOrderID(id),
		StrategyID:   model.StrategyID(strategy),
		InstrumentID: instrument,
	}
}

// ============================================================================
// Test: linking and partitions
// ============================================================================

func TestIndex_OrderOpenThenClosed(t *testing.T) {
	ix := cache.NewRelationalIndex()

	require.NoError(t, ix.LinkOrder(link("O-1", "S-1", audusd)))
	require.NoError(t, ix.MarkOrderOpen("O-1"))
	require.NoError(t, ix.MarkOrderClosed("O-1"))

	assert.Equal(t, []model.ClientOrderID{"O-1"}, ix.OrderIDs(cache.Filter{}))
	assert.True(t, ix.IsOrderClosed("O-1"))
	assert.False(t, ix.IsOrderOpen("O-1"))

	strategy, ok := ix.StrategyIDForOrder("O-1")
	require.True(t, ok)
	assert.Equal(t, model.StrategyID("S-1"), strategy)
	assert.Equal(t, []model.ClientOrderID{"O-1"}, ix.OrderIDs(cache.Filter{StrategyID: "S-1"}))
	assert.Equal(t, []model.ClientOrderID{"O-1"}, ix.OrderIDs(cache.Filter{InstrumentID: audusd}))

	assert.NoError(t, ix.CheckIntegrity())
}

func TestIndex_NewOrderStartsOpen(t *testing.T) {
	ix := cache.NewRelationalIndex()
	require.NoError(t, ix.LinkOrder(link("O-1", "S-1", audusd)))

	assert.True(t, ix.IsOrderOpen("O-1"))
	assert.NoError(t, ix.CheckIntegrity())
}

func TestIndex_LinkOrderIdempotent(t *testing.T) {
	ix := cache.NewRelationalIndex()
	l := link("O-1", "S-1", audusd)
	l.ClientID = "C-1"
	l.PositionID = "P-1"

	require.NoError(t, ix.LinkOrder(l))
	before := ix.IndexSizes()
	require.NoError(t, ix.LinkOrder(l))

	assert.Equal(t, before, ix.IndexSizes())
	assert.Equal(t, []model.ClientOrderID{"O-1"}, ix.OrderIDsForPosition("P-1"))
}

func TestIndex_FirstLinkFixesStrategy(t *testing.T) {
	ix := cache.NewRelationalIndex()
	require.NoError(t, ix.LinkOrder(link("O-1", "S-1", audusd)))
	require.NoError(t, ix.LinkOrder(link("O-1", "S-2", audusd)))

	strategy, _ := ix.StrategyIDForOrder("O-1")
	assert.Equal(t, model.StrategyID("S-1"), strategy)
}

func TestIndex_TagsAreOrthogonal(t *testing.T) {
	ix := cache.NewRelationalIndex()
	require.NoError(t, ix.LinkOrder(link("O-1", "S-1", audusd)))

	require.NoError(t, ix.MarkOrderInflight("O-1", true))
	require.NoError(t, ix.MarkOrderPendingCancel("O-1", true))
	require.NoError(t, ix.MarkOrderEmulated("O-1", true))

	assert.True(t, ix.IsOrderOpen("O-1"))
	assert.True(t, ix.IsOrderInflight("O-1"))
	assert.True(t, ix.IsOrderPendingCancel("O-1"))
	assert.True(t, ix.IsOrderEmulated("O-1"))

	require.NoError(t, ix.MarkOrderInflight("O-1", false))
	assert.False(t, ix.IsOrderInflight("O-1"))
	assert.True(t, ix.IsOrderPendingCancel("O-1"))
}

func TestIndex_ExecAlgorithmLinks(t *testing.T) {
	ix := cache.NewRelationalIndex()

	parent := link("O-1", "S-1", audusd)
	parent.ExecAlgorithmID = "TWAP"
	child := link("O-1-E1", "S-1", audusd)
	child.ExecAlgorithmID = "TWAP"
	child.ExecSpawnID = "O-1"

	require.NoError(t, ix.LinkOrder(parent))
	require.NoError(t, ix.LinkOrder(child))

	assert.Equal(t, []model.ClientOrderID{"O-1", "O-1-E1"}, ix.ExecAlgorithmOrders("TWAP"))
	assert.Equal(t, []model.ClientOrderID{"O-1-E1"}, ix.ExecSpawnOrders("O-1"))
	assert.Equal(t, []model.ExecAlgorithmID{"TWAP"}, ix.ExecAlgorithms())
}

func TestIndex_VenueOrderIDAndAccount(t *testing.T) {
	ix := cache.NewRelationalIndex()
	require.NoError(t, ix.LinkOrder(link("O-1", "S-1", audusd)))
	require.NoError(t, ix.LinkVenueOrderID("O-1", "V-123"))

	id, ok := ix.ClientOrderIDForVenueOrderID("V-123")
	require.True(t, ok)
	assert.Equal(t, model.ClientOrderID("O-1"), id)

	require.NoError(t, ix.LinkVenueAccount("SIM", "SIM-001"))
	require.NoError(t, ix.LinkVenueAccount("SIM", "SIM-002"))
	acct, ok := ix.VenueAccount("SIM")
	require.True(t, ok)
	assert.Equal(t, model.AccountID("SIM-002"), acct)
}

func TestIndex_Validation(t *testing.T) {
	ix := cache.NewRelationalIndex()

	tests := []struct {
		name string
		link cache.OrderLink
	}{
		{name: "empty order id", link: link("", "S-1", audusd)},
		{name: "empty strategy", link: link("O-1", "", audusd)},
		{name: "zero instrument", link: link("O-1", "S-1", model.InstrumentID{})},
		{name: "whitespace client", link: cache.OrderLink{OrderID: "O-1", StrategyID: "S-1", InstrumentID: audusd, ClientID: "  "}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ix.LinkOrder(tt.link)
			var verr *model.ValidationError
			assert.True(t, errors.As(err, &verr), "got %v", err)
		})
	}

	assert.Empty(t, ix.OrderIDs(cache.Filter{}))
}

func TestIndex_MarkUnknown(t *testing.T) {
	ix := cache.NewRelationalIndex()
	assert.ErrorIs(t, ix.MarkOrderOpen("missing"), cache.ErrUnknownOrder)
	assert.ErrorIs(t, ix.MarkPositionClosed("missing"), cache.ErrUnknownPosition)
}

// ============================================================================
// Test: filters
// ============================================================================

func TestIndex_FilterIntersection(t *testing.T) {
	ix := cache.NewRelationalIndex()
	require.NoError(t, ix.LinkOrder(link("O-1", "S-1", audusd)))
	require.NoError(t, ix.LinkOrder(link("O-2", "S-2", audusd)))
	require.NoError(t, ix.LinkOrder(link("O-3", "S-1", ethusd)))
	require.NoError(t, ix.MarkOrderClosed("O-2"))

	assert.Equal(t, []model.ClientOrderID{"O-1", "O-2"}, ix.OrderIDs(cache.Filter{Venue: "SIM"}))
	assert.Equal(t, []model.ClientOrderID{"O-1"}, ix.OrderIDsOpen(cache.Filter{Venue: "SIM"}))
	assert.Equal(t, []model.ClientOrderID{"O-3"}, ix.OrderIDs(cache.Filter{StrategyID: "S-1", Venue: "BINANCE"}))
	assert.Empty(t, ix.OrderIDs(cache.Filter{StrategyID: "S-2", InstrumentID: ethusd}))
	assert.Empty(t, ix.OrderIDs(cache.Filter{Venue: "NOPE"}))
}

func TestIndex_Positions(t *testing.T) {
	ix := cache.NewRelationalIndex()
	require.NoError(t, ix.LinkPosition("P-1", "S-1", audusd))
	require.NoError(t, ix.LinkPosition("P-2", "S-1", ethusd))
	require.NoError(t, ix.MarkPositionClosed("P-2"))

	assert.Equal(t, []model.PositionID{"P-1", "P-2"}, ix.PositionIDs(cache.Filter{StrategyID: "S-1"}))
	assert.Equal(t, []model.PositionID{"P-1"}, ix.PositionIDsOpen(cache.Filter{}))
	assert.Equal(t, []model.PositionID{"P-2"}, ix.PositionIDsClosed(cache.Filter{Venue: "BINANCE"}))
	assert.NoError(t, ix.CheckIntegrity())
}

// ============================================================================
// Test: clear
// ============================================================================

func TestIndex_ClearEmptiesEverything(t *testing.T) {
	ix := cache.NewRelationalIndex()

	l := link("O-1", "S-1", audusd)
	l.PositionID = "P-1"
	l.ClientID = "C-1"
	l.ExecAlgorithmID = "TWAP"
	l.VenueOrderID = "V-1"
	require.NoError(t, ix.LinkOrder(l))
	require.NoError(t, ix.MarkOrderInflight("O-1", true))
	require.NoError(t, ix.LinkPosition("P-1", "S-1", audusd))
	require.NoError(t, ix.LinkVenueAccount("SIM", "SIM-001"))
	require.NoError(t, ix.RegisterActor("A-1"))

	ix.Clear()

	assert.False(t, ix.HasOrder("O-1"))
	assert.False(t, ix.HasPosition("P-1"))
	assert.Empty(t, ix.OrderIDs(cache.Filter{}))
	assert.Empty(t, ix.OrderIDsInflight(cache.Filter{}))
	assert.Empty(t, ix.PositionIDs(cache.Filter{}))
	assert.Empty(t, ix.OrderIDsForPosition("P-1"))
	assert.Empty(t, ix.ExecAlgorithmOrders("TWAP"))
	assert.Empty(t, ix.Actors())
	assert.Empty(t, ix.Strategies())

	_, ok := ix.StrategyIDForOrder("O-1")
	assert.False(t, ok)
	_, ok = ix.ClientIDForOrder("O-1")
	assert.False(t, ok)
	_, ok = ix.PositionIDForOrder("O-1")
	assert.False(t, ok)
	_, ok = ix.ClientOrderIDForVenueOrderID("V-1")
	assert.False(t, ok)
	_, ok = ix.VenueAccount("SIM")
	assert.False(t, ok)

	for name, n := range ix.IndexSizes() {
		assert.Zero(t, n, name)
	}
}

func TestIndex_IntegrityAllowsPendingPositionLink(t *testing.T) {
	ix := cache.NewRelationalIndex()
	l := link("O-1", "S-1", audusd)
	l.PositionID = "P-9"
	require.NoError(t, ix.LinkOrder(l))

	// Order-to-position links may precede the position itself.
	assert.NoError(t, ix.CheckIntegrity())
}
