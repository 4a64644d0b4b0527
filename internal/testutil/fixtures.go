package testutil

import (
	"fmt"

	"github.com/shopspring/decimal"

	"StateCache/internal/model"
)

// Order builds a limit buy of 100 at 1.0.
func Order(id, strategy, instrument string, status model.OrderStatus) *model.Order {
	return &model.Order{
		ClientOrderID: model.ClientOrderID(id),
		StrategyID:    model.StrategyID(strategy),
		InstrumentID:  model.MustInstrumentID(instrument),
		Side:          model.OrderSideBuy,
		Type:          model.OrderTypeLimit,
		Quantity:      decimal.NewFromInt(100),
		FilledQty:     decimal.Zero,
		Price:         decimal.NewFromInt(1),
		Status:        status,
		TsInit:        1,
		TsLast:        1,
	}
}

// Position builds a position; qty "0" with side Flat is closed.
func Position(id, strategy, instrument string, side model.PositionSide, qty string, orderIDs ...string) *model.Position {
	ids := make([]model.ClientOrderID, len(orderIDs))
	for i, o := range orderIDs {
		ids[i] = model.ClientOrderID(o)
	}
	return &model.Position{
		ID:           model.PositionID(id),
		StrategyID:   model.StrategyID(strategy),
		InstrumentID: model.MustInstrumentID(instrument),
		Side:         side,
		Quantity:     decimal.RequireFromString(qty),
		AvgPxOpen:    decimal.NewFromInt(1),
		RealizedPnL:  decimal.Zero,
		OrderIDs:     ids,
		TsOpened:     1,
	}
}

func Quote(instrument string, bid, ask string, ts int64) model.QuoteTick {
	return model.QuoteTick{
		InstrumentID: model.MustInstrumentID(instrument),
		BidPrice:     decimal.RequireFromString(bid),
		AskPrice:     decimal.RequireFromString(ask),
		BidSize:      decimal.NewFromInt(1_000),
		AskSize:      decimal.NewFromInt(1_000),
		TsEvent:      ts,
		TsInit:       ts,
	}
}

// Trade uses ts to derive a unique trade id.
func Trade(instrument, price string, ts int64) model.TradeTick {
	return model.TradeTick{
		InstrumentID:  model.MustInstrumentID(instrument),
		Price:         decimal.RequireFromString(price),
		Size:          decimal.NewFromInt(10),
		AggressorSide: model.AggressorSideBuyer,
		TradeID:       fmt.Sprintf("T%d", ts),
		TsEvent:       ts,
		TsInit:        ts,
	}
}

func Bar(barType, closePx string, ts int64) model.Bar {
	px := decimal.RequireFromString(closePx)
	return model.Bar{
		BarType: model.MustBarType(barType),
		Open:    px,
		High:    px,
		Low:     px,
		Close:   px,
		Volume:  decimal.NewFromInt(100),
		TsEvent: ts,
		TsInit:  ts,
	}
}

func USD() model.Currency {
	return model.Currency{Code: "USD", Precision: 2, ISO4217: 840, Name: "United States dollar", Type: model.CurrencyTypeFiat}
}

func CurrencyPair(instrument string) model.Instrument {
	id := model.MustInstrumentID(instrument)
	return model.Instrument{
		ID:             id,
		Kind:           model.InstrumentKindCurrencyPair,
		RawSymbol:      id.Symbol,
		BaseCurrency:   "AUD",
		QuoteCurrency:  "USD",
		PricePrecision: 5,
		SizePrecision:  0,
		PriceIncrement: decimal.RequireFromString("0.00001"),
		SizeIncrement:  decimal.NewFromInt(1),
		Multiplier:     decimal.NewFromInt(1),
		TsInit:         1,
	}
}

func Synthetic(symbol string, components ...string) model.SyntheticInstrument {
	ids := make([]model.InstrumentID, len(components))
	for i, c := range components {
		ids[i] = model.MustInstrumentID(c)
	}
	return model.SyntheticInstrument{
		ID:             model.InstrumentID{Symbol: symbol, Venue: model.SyntheticVenue},
		PricePrecision: 5,
		Components:     ids,
		Formula:        "(a + b) / 2",
		TsInit:         1,
	}
}
