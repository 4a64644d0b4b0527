package model

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// CurrencyType classifies a currency.
type CurrencyType uint8

const (
	CurrencyTypeFiat CurrencyType = iota + 1
	CurrencyTypeCrypto
	CurrencyTypeCommodityBacked
)

// Currency is reference data for a settlement or quote asset.
type Currency struct {
	Code      string       `json:"code" msgpack:"code"`
	Precision uint8        `json:"precision" msgpack:"precision"`
	ISO4217   uint16       `json:"iso4217" msgpack:"iso4217"`
	Name      string       `json:"name" msgpack:"name"`
	Type      CurrencyType `json:"currency_type" msgpack:"currency_type"`
}

func (c Currency) Validate() error {
	return CheckValidString(c.Code, "currency.code")
}

// InstrumentKind tags the Instrument variant.
type InstrumentKind uint8

const (
	InstrumentKindCurrencyPair InstrumentKind = iota + 1
	InstrumentKindEquity
	InstrumentKindFuturesContract
	InstrumentKindCryptoPerpetual
)

func (k InstrumentKind) String() string {
	switch k {
	case InstrumentKindCurrencyPair:
		return "CurrencyPair"
	case InstrumentKindEquity:
		return "Equity"
	case InstrumentKindFuturesContract:
		return "FuturesContract"
	case InstrumentKindCryptoPerpetual:
		return "CryptoPerpetual"
	default:
		return "Unknown"
	}
}

// Instrument is a tagged variant over the supported instrument kinds. Common
// fields are always set; the optional block matching Kind carries the rest.
type Instrument struct {
	ID             InstrumentID    `json:"id" msgpack:"id"`
	Kind           InstrumentKind  `json:"kind" msgpack:"kind"`
	RawSymbol      string          `json:"raw_symbol" msgpack:"raw_symbol"`
	QuoteCurrency  string          `json:"quote_currency" msgpack:"quote_currency"`
	PricePrecision uint8           `json:"price_precision" msgpack:"price_precision"`
	SizePrecision  uint8           `json:"size_precision" msgpack:"size_precision"`
	PriceIncrement decimal.Decimal `json:"price_increment" msgpack:"price_increment"`
	SizeIncrement  decimal.Decimal `json:"size_increment" msgpack:"size_increment"`
	Multiplier     decimal.Decimal `json:"multiplier" msgpack:"multiplier"`
	TsInit         int64           `json:"ts_init" msgpack:"ts_init"`

	// CurrencyPair, CryptoPerpetual
	BaseCurrency string `json:"base_currency,omitempty" msgpack:"base_currency,omitempty"`
	// Equity
	ISIN string `json:"isin,omitempty" msgpack:"isin,omitempty"`
	// FuturesContract
	Underlying string `json:"underlying,omitempty" msgpack:"underlying,omitempty"`
	Expiration int64  `json:"expiration_ns,omitempty" msgpack:"expiration_ns,omitempty"`
	// CryptoPerpetual
	SettlementCurrency string `json:"settlement_currency,omitempty" msgpack:"settlement_currency,omitempty"`
	IsInverse          bool   `json:"is_inverse,omitempty" msgpack:"is_inverse,omitempty"`
}

// Validate checks the common fields and the fields required by Kind.
func (i Instrument) Validate() error {
	if i.ID.IsZero() {
		return &ValidationError{Param: "instrument.id", Reason: "zero instrument id"}
	}
	if err := CheckValidString(i.QuoteCurrency, "instrument.quote_currency"); err != nil {
		return err
	}
	switch i.Kind {
	case InstrumentKindCurrencyPair:
		return CheckValidString(i.BaseCurrency, "instrument.base_currency")
	case InstrumentKindEquity:
		return nil
	case InstrumentKindFuturesContract:
		if err := CheckValidString(i.Underlying, "instrument.underlying"); err != nil {
			return err
		}
		if i.Expiration <= 0 {
			return &ValidationError{Param: "instrument.expiration_ns", Reason: "must be set for futures"}
		}
		return nil
	case InstrumentKindCryptoPerpetual:
		if err := CheckValidString(i.BaseCurrency, "instrument.base_currency"); err != nil {
			return err
		}
		return CheckValidString(i.SettlementCurrency, "instrument.settlement_currency")
	default:
		return &ValidationError{Param: "instrument.kind", Reason: fmt.Sprintf("unknown kind %d", i.Kind)}
	}
}

// SyntheticVenue is the venue every synthetic instrument id carries.
const SyntheticVenue Venue = "SYNTH"

// SyntheticInstrument is priced from a formula over component instruments.
type SyntheticInstrument struct {
	ID             InstrumentID   `json:"id" msgpack:"id"`
	PricePrecision uint8          `json:"price_precision" msgpack:"price_precision"`
	Components     []InstrumentID `json:"components" msgpack:"components"`
	Formula        string         `json:"formula" msgpack:"formula"`
	TsInit         int64          `json:"ts_init" msgpack:"ts_init"`
}

func (s SyntheticInstrument) Validate() error {
	if s.ID.Venue != SyntheticVenue {
		return &ValidationError{Param: "synthetic.id", Reason: fmt.Sprintf("venue must be %s, got %s", SyntheticVenue, s.ID.Venue)}
	}
	if len(s.Components) < 2 {
		return &ValidationError{Param: "synthetic.components", Reason: "needs at least two components"}
	}
	return CheckValidString(s.Formula, "synthetic.formula")
}
