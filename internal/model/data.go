package model

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
)

// PriceType selects which side of the market a price or bar is built from.
type PriceType uint8

const (
	PriceTypeUnspecified PriceType = iota
	PriceTypeBid
	PriceTypeAsk
	PriceTypeMid
	PriceTypeLast
)

func (pt PriceType) String() string {
	switch pt {
	case PriceTypeBid:
		return "BID"
	case PriceTypeAsk:
		return "ASK"
	case PriceTypeMid:
		return "MID"
	case PriceTypeLast:
		return "LAST"
	default:
		return "UNSPECIFIED"
	}
}

func ParsePriceType(s string) (PriceType, error) {
	switch strings.ToUpper(s) {
	case "BID":
		return PriceTypeBid, nil
	case "ASK":
		return PriceTypeAsk, nil
	case "MID":
		return PriceTypeMid, nil
	case "LAST":
		return PriceTypeLast, nil
	default:
		return PriceTypeUnspecified, &ValidationError{Param: "price_type", Reason: fmt.Sprintf("unknown %q", s)}
	}
}

// AggressorSide is the side that lifted liquidity on a trade.
type AggressorSide uint8

const (
	AggressorSideNone AggressorSide = iota
	AggressorSideBuyer
	AggressorSideSeller
)

func (s AggressorSide) String() string {
	switch s {
	case AggressorSideBuyer:
		return "BUYER"
	case AggressorSideSeller:
		return "SELLER"
	default:
		return "NO_AGGRESSOR"
	}
}

// BarAggregation is the unit a bar step is measured in.
type BarAggregation uint8

const (
	BarAggregationTick BarAggregation = iota + 1
	BarAggregationVolume
	BarAggregationSecond
	BarAggregationMinute
	BarAggregationHour
	BarAggregationDay
)

var barAggregationNames = map[BarAggregation]string{
	BarAggregationTick:   "TICK",
	BarAggregationVolume: "VOLUME",
	BarAggregationSecond: "SECOND",
	BarAggregationMinute: "MINUTE",
	BarAggregationHour:   "HOUR",
	BarAggregationDay:    "DAY",
}

func (a BarAggregation) String() string {
	if name, ok := barAggregationNames[a]; ok {
		return name
	}
	return "UNKNOWN"
}

func ParseBarAggregation(s string) (BarAggregation, error) {
	upper := strings.ToUpper(s)
	for agg, name := range barAggregationNames {
		if name == upper {
			return agg, nil
		}
	}
	return 0, &ValidationError{Param: "bar_aggregation", Reason: fmt.Sprintf("unknown %q", s)}
}

// AggregationSource tells whether bars arrive from a venue or are built locally.
type AggregationSource uint8

const (
	AggregationSourceExternal AggregationSource = iota + 1
	AggregationSourceInternal
)

func (s AggregationSource) String() string {
	switch s {
	case AggregationSourceExternal:
		return "EXTERNAL"
	case AggregationSourceInternal:
		return "INTERNAL"
	default:
		return "UNKNOWN"
	}
}

func ParseAggregationSource(s string) (AggregationSource, error) {
	switch strings.ToUpper(s) {
	case "EXTERNAL":
		return AggregationSourceExternal, nil
	case "INTERNAL":
		return AggregationSourceInternal, nil
	default:
		return 0, &ValidationError{Param: "aggregation_source", Reason: fmt.Sprintf("unknown %q", s)}
	}
}

// BarType identifies a bar stream, rendered "AUD/USD.SIM-1-MINUTE-BID-EXTERNAL".
type BarType struct {
	InstrumentID InstrumentID
	Step         int
	Aggregation  BarAggregation
	PriceType    PriceType
	Source       AggregationSource
}

// ParseBarType reads the last four '-' separated fields as the bar definition,
// leaving the instrument id free to contain dashes.
func ParseBarType(s string) (BarType, error) {
	if err := CheckValidString(s, "bar_type"); err != nil {
		return BarType{}, err
	}
	parts := strings.Split(s, "-")
	if len(parts) < 5 {
		return BarType{}, &ValidationError{Param: "bar_type", Reason: fmt.Sprintf("%q has too few fields", s)}
	}
	n := len(parts)
	instrumentID, err := ParseInstrumentID(strings.Join(parts[:n-4], "-"))
	if err != nil {
		return BarType{}, err
	}
	step, err := strconv.Atoi(parts[n-4])
	if err != nil {
		return BarType{}, &ValidationError{Param: "bar_type", Reason: fmt.Sprintf("bad step %q", parts[n-4])}
	}
	if err := CheckPositiveInt(step, "bar_type.step"); err != nil {
		return BarType{}, err
	}
	agg, err := ParseBarAggregation(parts[n-3])
	if err != nil {
		return BarType{}, err
	}
	pt, err := ParsePriceType(parts[n-2])
	if err != nil {
		return BarType{}, err
	}
	src, err := ParseAggregationSource(parts[n-1])
	if err != nil {
		return BarType{}, err
	}
	return BarType{
		InstrumentID: instrumentID,
		Step:         step,
		Aggregation:  agg,
		PriceType:    pt,
		Source:       src,
	}, nil
}

func MustBarType(s string) BarType {
	bt, err := ParseBarType(s)
	if err != nil {
		panic(err)
	}
	return bt
}

func (bt BarType) String() string {
	return fmt.Sprintf("%s-%d-%s-%s-%s", bt.InstrumentID, bt.Step, bt.Aggregation, bt.PriceType, bt.Source)
}

// WithPriceType returns a copy of the bar type for another price side.
func (bt BarType) WithPriceType(pt PriceType) BarType {
	bt.PriceType = pt
	return bt
}

func (bt BarType) MarshalText() ([]byte, error) {
	return []byte(bt.String()), nil
}

func (bt *BarType) UnmarshalText(text []byte) error {
	parsed, err := ParseBarType(string(text))
	if err != nil {
		return err
	}
	*bt = parsed
	return nil
}

// QuoteTick is a top-of-book quote.
type QuoteTick struct {
	InstrumentID InstrumentID    `json:"instrument_id" msgpack:"instrument_id"`
	BidPrice     decimal.Decimal `json:"bid_price" msgpack:"bid_price"`
	AskPrice     decimal.Decimal `json:"ask_price" msgpack:"ask_price"`
	BidSize      decimal.Decimal `json:"bid_size" msgpack:"bid_size"`
	AskSize      decimal.Decimal `json:"ask_size" msgpack:"ask_size"`
	TsEvent      int64           `json:"ts_event" msgpack:"ts_event"`
	TsInit       int64           `json:"ts_init" msgpack:"ts_init"`
}

// TradeTick is a single executed trade.
type TradeTick struct {
	InstrumentID  InstrumentID    `json:"instrument_id" msgpack:"instrument_id"`
	Price         decimal.Decimal `json:"price" msgpack:"price"`
	Size          decimal.Decimal `json:"size" msgpack:"size"`
	AggressorSide AggressorSide   `json:"aggressor_side" msgpack:"aggressor_side"`
	TradeID       string          `json:"trade_id" msgpack:"trade_id"`
	TsEvent       int64           `json:"ts_event" msgpack:"ts_event"`
	TsInit        int64           `json:"ts_init" msgpack:"ts_init"`
}

// Bar is an OHLCV aggregate.
type Bar struct {
	BarType BarType         `json:"bar_type" msgpack:"bar_type"`
	Open    decimal.Decimal `json:"open" msgpack:"open"`
	High    decimal.Decimal `json:"high" msgpack:"high"`
	Low     decimal.Decimal `json:"low" msgpack:"low"`
	Close   decimal.Decimal `json:"close" msgpack:"close"`
	Volume  decimal.Decimal `json:"volume" msgpack:"volume"`
	TsEvent int64           `json:"ts_event" msgpack:"ts_event"`
	TsInit  int64           `json:"ts_init" msgpack:"ts_init"`
}
