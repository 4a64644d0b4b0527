package model

import (
	"github.com/shopspring/decimal"
)

// PositionSide is the net direction of a position.
type PositionSide uint8

const (
	PositionSideFlat PositionSide = iota
	PositionSideLong
	PositionSideShort
)

func (s PositionSide) String() string {
	switch s {
	case PositionSideLong:
		return "LONG"
	case PositionSideShort:
		return "SHORT"
	default:
		return "FLAT"
	}
}

// Position is the cached view of a position and the orders that filled it.
type Position struct {
	ID           PositionID      `json:"id" msgpack:"id"`
	StrategyID   StrategyID      `json:"strategy_id" msgpack:"strategy_id"`
	InstrumentID InstrumentID    `json:"instrument_id" msgpack:"instrument_id"`
	AccountID    AccountID       `json:"account_id,omitempty" msgpack:"account_id,omitempty"`
	Side         PositionSide    `json:"side" msgpack:"side"`
	Quantity     decimal.Decimal `json:"quantity" msgpack:"quantity"`
	AvgPxOpen    decimal.Decimal `json:"avg_px_open" msgpack:"avg_px_open"`
	RealizedPnL  decimal.Decimal `json:"realized_pnl" msgpack:"realized_pnl"`
	OrderIDs     []ClientOrderID `json:"order_ids" msgpack:"order_ids"`
	TsOpened     int64           `json:"ts_opened" msgpack:"ts_opened"`
	TsClosed     int64           `json:"ts_closed,omitempty" msgpack:"ts_closed,omitempty"`
}

func (p *Position) Validate() error {
	if err := CheckValidString(string(p.ID), "position.id"); err != nil {
		return err
	}
	if err := CheckValidString(string(p.StrategyID), "position.strategy_id"); err != nil {
		return err
	}
	if p.InstrumentID.IsZero() {
		return &ValidationError{Param: "position.instrument_id", Reason: "zero instrument id"}
	}
	return nil
}

func (p *Position) Venue() Venue {
	return p.InstrumentID.Venue
}

// IsClosed returns true if the position has no exposure
func (p *Position) IsClosed() bool {
	return p.Side == PositionSideFlat || p.Quantity.IsZero()
}

func (p *Position) IsOpen() bool {
	return !p.IsClosed()
}

func (p *Position) Clone() *Position {
	c := *p
	c.OrderIDs = append([]ClientOrderID(nil), p.OrderIDs...)
	return &c
}
