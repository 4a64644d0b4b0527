package cache

import (
	"context"

	"StateCache/internal/model"
)

//go:generate mockgen -source=database.go -destination=mock/database_mock.go -package=mock

// Database is the optional durable backend. A nil Database makes every
// hydration a no-op and every write memory-only.
//
// Load* return every stored entity of the category. Save* may be buffered by
// the implementation until Flush; Put is synchronous.
type Database interface {
	LoadGeneral(ctx context.Context) (map[string][]byte, error)
	LoadCurrencies(ctx context.Context) (map[string]model.Currency, error)
	LoadInstruments(ctx context.Context) (map[model.InstrumentID]model.Instrument, error)
	LoadSynthetics(ctx context.Context) (map[model.InstrumentID]model.SyntheticInstrument, error)
	LoadOrders(ctx context.Context) (map[model.ClientOrderID]*model.Order, error)
	LoadPositions(ctx context.Context) (map[model.PositionID]*model.Position, error)

	Put(ctx context.Context, key string, value []byte) error
	SaveCurrency(ctx context.Context, currency model.Currency) error
	SaveInstrument(ctx context.Context, instrument model.Instrument) error
	SaveSynthetic(ctx context.Context, synthetic model.SyntheticInstrument) error
	SaveOrder(ctx context.Context, order *model.Order) error
	SavePosition(ctx context.Context, position *model.Position) error

	Flush(ctx context.Context) error
	Close() error
}
