package persistence

import (
	"context"
	"fmt"
	"time"

	"StateCache/internal/cache"
	"StateCache/internal/codec"
	"StateCache/internal/model"
)

// Category names one table (Postgres) or hash (Redis).
type Category string

const (
	CategoryGeneral     Category = "general"
	CategoryCurrencies  Category = "currencies"
	CategoryInstruments Category = "instruments"
	CategorySynthetics  Category = "synthetics"
	CategoryOrders      Category = "orders"
	CategoryPositions   Category = "positions"
)

// Categories in hydration order.
var Categories = []Category{
	CategoryGeneral,
	CategoryCurrencies,
	CategoryInstruments,
	CategorySynthetics,
	CategoryOrders,
	CategoryPositions,
}

// Record is one keyed value bound for a category.
type Record struct {
	Category Category
	Key      string
	Value    []byte
}

// RecordCodec encodes entities for storage. With stamping enabled each
// value is wrapped in a frame carrying the write time as RFC3339Nano.
type RecordCodec struct {
	codec codec.Codec
	stamp bool
	now   func() time.Time
}

func NewRecordCodec(cfg cache.Config) (RecordCodec, error) {
	c, err := codec.For(cfg.Encoding)
	if err != nil {
		return RecordCodec{}, err
	}
	return RecordCodec{codec: c, stamp: cfg.TimestampsAsISO8601, now: time.Now}, nil
}

func (rc RecordCodec) Encode(v any) ([]byte, error) {
	if rc.stamp {
		return codec.Stamp(rc.codec, v, rc.now().UnixNano())
	}
	return rc.codec.Encode(v)
}

func (rc RecordCodec) Decode(data []byte, v any) error {
	if rc.stamp {
		_, err := codec.Unstamp(rc.codec, data, v)
		return err
	}
	return rc.codec.Decode(data, v)
}

func (rc RecordCodec) record(cat Category, key string, v any) (Record, error) {
	data, err := rc.Encode(v)
	if err != nil {
		return Record{}, fmt.Errorf("encode %s %q: %w", cat, key, err)
	}
	return Record{Category: cat, Key: key, Value: data}, nil
}

func (rc RecordCodec) CurrencyRecord(c model.Currency) (Record, error) {
	return rc.record(CategoryCurrencies, c.Code, c)
}

func (rc RecordCodec) InstrumentRecord(i model.Instrument) (Record, error) {
	return rc.record(CategoryInstruments, i.ID.String(), i)
}

func (rc RecordCodec) SyntheticRecord(s model.SyntheticInstrument) (Record, error) {
	return rc.record(CategorySynthetics, s.ID.String(), s)
}

func (rc RecordCodec) OrderRecord(o *model.Order) (Record, error) {
	if o == nil {
		return Record{}, &model.ValidationError{Param: "order", Reason: "nil"}
	}
	return rc.record(CategoryOrders, string(o.ClientOrderID), o)
}

func (rc RecordCodec) PositionRecord(p *model.Position) (Record, error) {
	if p == nil {
		return Record{}, &model.ValidationError{Param: "position", Reason: "nil"}
	}
	return rc.record(CategoryPositions, string(p.ID), p)
}

func decodeEach[K comparable, V any](rc RecordCodec, cat Category, raw map[string][]byte, keyOf func(V) K) (map[K]V, error) {
	out := make(map[K]V, len(raw))
	for key, data := range raw {
		var v V
		if err := rc.Decode(data, &v); err != nil {
			return nil, fmt.Errorf("decode %s %q: %w", cat, key, err)
		}
		out[keyOf(v)] = v
	}
	return out, nil
}

// loader implements the Load* half of cache.Database over any backend that
// can read a category as raw key/value pairs.
type loader struct {
	read  func(ctx context.Context, cat Category) (map[string][]byte, error)
	codec RecordCodec
}

// LoadGeneral returns stored values as written; general entries are never
// encoded.
func (l loader) LoadGeneral(ctx context.Context) (map[string][]byte, error) {
	return l.read(ctx, CategoryGeneral)
}

func (l loader) LoadCurrencies(ctx context.Context) (map[string]model.Currency, error) {
	raw, err := l.read(ctx, CategoryCurrencies)
	if err != nil {
		return nil, err
	}
	return decodeEach(l.codec, CategoryCurrencies, raw, func(c model.Currency) string { return c.Code })
}

func (l loader) LoadInstruments(ctx context.Context) (map[model.InstrumentID]model.Instrument, error) {
	raw, err := l.read(ctx, CategoryInstruments)
	if err != nil {
		return nil, err
	}
	return decodeEach(l.codec, CategoryInstruments, raw, func(i model.Instrument) model.InstrumentID { return i.ID })
}

func (l loader) LoadSynthetics(ctx context.Context) (map[model.InstrumentID]model.SyntheticInstrument, error) {
	raw, err := l.read(ctx, CategorySynthetics)
	if err != nil {
		return nil, err
	}
	return decodeEach(l.codec, CategorySynthetics, raw, func(s model.SyntheticInstrument) model.InstrumentID { return s.ID })
}

func (l loader) LoadOrders(ctx context.Context) (map[model.ClientOrderID]*model.Order, error) {
	raw, err := l.read(ctx, CategoryOrders)
	if err != nil {
		return nil, err
	}
	return decodeEach(l.codec, CategoryOrders, raw, func(o *model.Order) model.ClientOrderID {
		if o == nil {
			return ""
		}
		return o.ClientOrderID
	})
}

func (l loader) LoadPositions(ctx context.Context) (map[model.PositionID]*model.Position, error) {
	raw, err := l.read(ctx, CategoryPositions)
	if err != nil {
		return nil, err
	}
	return decodeEach(l.codec, CategoryPositions, raw, func(p *model.Position) model.PositionID {
		if p == nil {
			return ""
		}
		return p.ID
	})
}
