package ingestion

import (
	"context"
	"errors"
	"fmt"

	"github.com/shopspring/decimal"

	"StateCache/internal/cache"
	"StateCache/internal/codec"
	"StateCache/internal/model"
)

// ErrMalformed marks a message that can never be applied, however often it
// is redelivered.
var ErrMalformed = errors.New("malformed ingest message")

// Update is one decoded ingest message. Apply runs on the cache owner.
type Update interface {
	Kind() Kind
	Apply(ctx context.Context, c *cache.Cache) error
}

// Parse decodes data as a message of the given kind.
func Parse(c codec.Codec, kind Kind, data []byte) (Update, error) {
	switch kind {
	case KindQuote:
		var q model.QuoteTick
		if err := decode(c, kind, data, &q); err != nil {
			return nil, err
		}
		return quoteUpdate{q}, nil
	case KindTrade:
		var t model.TradeTick
		if err := decode(c, kind, data, &t); err != nil {
			return nil, err
		}
		return tradeUpdate{t}, nil
	case KindBar:
		var b model.Bar
		if err := decode(c, kind, data, &b); err != nil {
			return nil, err
		}
		return barUpdate{b}, nil
	case KindBook:
		var m BookMessage
		if err := decode(c, kind, data, &m); err != nil {
			return nil, err
		}
		return bookUpdate{m.Update()}, nil
	case KindOrder:
		var m OrderMessage
		if err := decode(c, kind, data, &m); err != nil {
			return nil, err
		}
		if m.Order == nil {
			return nil, fmt.Errorf("%w: %s: missing order", ErrMalformed, kind)
		}
		return orderUpdate{m}, nil
	case KindPosition:
		var p model.Position
		if err := decode(c, kind, data, &p); err != nil {
			return nil, err
		}
		return positionUpdate{&p}, nil
	default:
		return nil, fmt.Errorf("%w: unknown kind %q", ErrMalformed, kind)
	}
}

func decode(c codec.Codec, kind Kind, data []byte, v any) error {
	if len(data) == 0 {
		return fmt.Errorf("%w: %s: empty payload", ErrMalformed, kind)
	}
	if err := c.Decode(data, v); err != nil {
		return fmt.Errorf("%w: %s: %v", ErrMalformed, kind, err)
	}
	return nil
}

// --- Wire formats ---
// Quotes, trades, bars and positions travel as their model types.

// BookMessage carries a book delta, or a full snapshot when Snapshot is set.
type BookMessage struct {
	InstrumentID model.InstrumentID `json:"instrument_id" msgpack:"instrument_id"`
	Snapshot     bool               `json:"snapshot" msgpack:"snapshot"`

	Action model.BookAction `json:"action,omitempty" msgpack:"action,omitempty"`
	Side   model.BookSide   `json:"side,omitempty" msgpack:"side,omitempty"`
	Price  decimal.Decimal  `json:"price" msgpack:"price"`
	Size   decimal.Decimal  `json:"size" msgpack:"size"`

	Bids []model.BookLevel `json:"bids,omitempty" msgpack:"bids,omitempty"`
	Asks []model.BookLevel `json:"asks,omitempty" msgpack:"asks,omitempty"`

	Sequence uint64 `json:"sequence" msgpack:"sequence"`
	TsEvent  int64  `json:"ts_event" msgpack:"ts_event"`
}

func (m BookMessage) Update() model.BookUpdate {
	if m.Snapshot {
		return model.BookSnapshot{
			InstrumentID: m.InstrumentID,
			Bids:         m.Bids,
			Asks:         m.Asks,
			Sequence:     m.Sequence,
			TsEvent:      m.TsEvent,
		}
	}
	return model.BookDelta{
		InstrumentID: m.InstrumentID,
		Action:       m.Action,
		Side:         m.Side,
		Price:        m.Price,
		Size:         m.Size,
		Sequence:     m.Sequence,
		TsEvent:      m.TsEvent,
	}
}

// OrderMessage is an order state. The first message for an order adds it,
// linked under PositionID and ClientID when set; later ones update it.
type OrderMessage struct {
	Order      *model.Order     `json:"order" msgpack:"order"`
	PositionID model.PositionID `json:"position_id,omitempty" msgpack:"position_id,omitempty"`
	ClientID   model.ClientID   `json:"client_id,omitempty" msgpack:"client_id,omitempty"`
}

// --- Updates ---

type quoteUpdate struct{ q model.QuoteTick }

func (quoteUpdate) Kind() Kind { return KindQuote }
func (u quoteUpdate) Apply(_ context.Context, c *cache.Cache) error {
	return c.AddQuote(u.q)
}

type tradeUpdate struct{ t model.TradeTick }

func (tradeUpdate) Kind() Kind { return KindTrade }
func (u tradeUpdate) Apply(_ context.Context, c *cache.Cache) error {
	return c.AddTrade(u.t)
}

type barUpdate struct{ b model.Bar }

func (barUpdate) Kind() Kind { return KindBar }
func (u barUpdate) Apply(_ context.Context, c *cache.Cache) error {
	return c.AddBar(u.b)
}

type bookUpdate struct{ u model.BookUpdate }

func (bookUpdate) Kind() Kind { return KindBook }
func (u bookUpdate) Apply(_ context.Context, c *cache.Cache) error {
	return c.UpdateOrderBook(u.u)
}

type orderUpdate struct{ m OrderMessage }

func (orderUpdate) Kind() Kind { return KindOrder }
func (u orderUpdate) Apply(ctx context.Context, c *cache.Cache) error {
	if c.OrderExists(u.m.Order.ClientOrderID) {
		return c.UpdateOrder(ctx, u.m.Order)
	}
	return c.AddOrder(ctx, u.m.Order, u.m.PositionID, u.m.ClientID)
}

type positionUpdate struct{ p *model.Position }

func (positionUpdate) Kind() Kind { return KindPosition }
func (u positionUpdate) Apply(ctx context.Context, c *cache.Cache) error {
	if c.PositionExists(u.p.ID) {
		return c.UpdatePosition(ctx, u.p)
	}
	return c.AddPosition(ctx, u.p)
}
