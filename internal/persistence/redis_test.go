package persistence_test

import (
	"context"
	"testing"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"StateCache/internal/cache"
	"StateCache/internal/model"
	"StateCache/internal/persistence"
	"StateCache/internal/testutil"
)

func newRedis(t *testing.T, client redis.UniversalClient, trader model.TraderID) *persistence.RedisDatabase {
	t.Helper()
	cfg := cache.DefaultConfig()
	ks, err := persistence.NewKeyspace(trader, "", cfg)
	require.NoError(t, err)
	r, err := persistence.NewRedisDatabase(client, ks, cfg, zerolog.Nop(), nil)
	require.NoError(t, err)
	return r
}

func TestRedis_SavesAreQueuedUntilFlush(t *testing.T) {
	// Queuing never touches the network.
	client := redis.NewClient(&redis.Options{Addr: "localhost:1"})
	r := newRedis(t, client, "TESTER-001")
	ctx := context.Background()

	require.NoError(t, r.SaveOrder(ctx, testutil.Order("O-1", "S-1", "AUD/USD.SIM", model.OrderStatusAccepted)))
	require.NoError(t, r.SaveCurrency(ctx, testutil.USD()))
	assert.Equal(t, 2, r.Pending())

	assert.NoError(t, r.Close())
	assert.Equal(t, 0, r.Pending())
}

// ============================================================================
// Test: Redis backend (integration)
// ============================================================================

func TestRedis_SaveFlushLoad(t *testing.T) {
	testutil.RequireIntegration(t)
	client, cleanup := testutil.SetupTestRedis(t)
	defer cleanup()

	ctx := context.Background()
	r := newRedis(t, client, "TESTER-001")

	require.NoError(t, r.Put(ctx, "cfg", []byte{1, 2, 3}))
	require.NoError(t, r.SaveInstrument(ctx, testutil.CurrencyPair("AUD/USD.SIM")))
	require.NoError(t, r.SavePosition(ctx, testutil.Position("P-1", "S-1", "AUD/USD.SIM", model.PositionSideShort, "5")))

	positions, err := r.LoadPositions(ctx)
	require.NoError(t, err)
	assert.Empty(t, positions, "saves are not visible before flush")

	require.NoError(t, r.Flush(ctx))
	assert.Equal(t, 0, r.Pending())

	general, err := r.LoadGeneral(ctx)
	require.NoError(t, err)
	assert.Equal(t, []byte{1, 2, 3}, general["cfg"])

	exists, err := client.HExists(ctx, "trader-TESTER-001:general", "cfg").Result()
	require.NoError(t, err)
	assert.True(t, exists)

	instruments, err := r.LoadInstruments(ctx)
	require.NoError(t, err)
	assert.Contains(t, instruments, model.MustInstrumentID("AUD/USD.SIM"))

	positions, err = r.LoadPositions(ctx)
	require.NoError(t, err)
	require.Contains(t, positions, model.PositionID("P-1"))
	assert.Equal(t, model.PositionSideShort, positions["P-1"].Side)
}

func TestRedis_NamespacesAreIsolated(t *testing.T) {
	testutil.RequireIntegration(t)
	client, cleanup := testutil.SetupTestRedis(t)
	defer cleanup()

	ctx := context.Background()
	a := newRedis(t, client, "TRADER-A")
	b := newRedis(t, client, "TRADER-B")

	require.NoError(t, a.Put(ctx, "k", []byte("a")))

	got, err := b.LoadGeneral(ctx)
	require.NoError(t, err)
	assert.Empty(t, got)
}
