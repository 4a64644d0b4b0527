package model

import (
	"fmt"
	"strings"
)

// Venue identifies a trading venue or exchange.
type Venue string

// AccountID identifies an account at a venue.
type AccountID string

// ClientOrderID is the locally assigned order identifier.
type ClientOrderID string

// VenueOrderID is the venue assigned order identifier.
type VenueOrderID string

// PositionID identifies a position.
type PositionID string

// StrategyID identifies a strategy component.
type StrategyID string

// ExecAlgorithmID identifies an execution algorithm.
type ExecAlgorithmID string

// ComponentID identifies an actor or other system component.
type ComponentID string

// ClientID identifies a data or execution client.
type ClientID string

// TraderID identifies the trader instance owning a cache.
type TraderID string

func NewVenue(s string) (Venue, error) {
	if err := CheckValidString(s, "venue"); err != nil {
		return "", err
	}
	return Venue(s), nil
}

func NewAccountID(s string) (AccountID, error) {
	if err := CheckValidString(s, "account_id"); err != nil {
		return "", err
	}
	return AccountID(s), nil
}

func NewClientOrderID(s string) (ClientOrderID, error) {
	if err := CheckValidString(s, "client_order_id"); err != nil {
		return "", err
	}
	return ClientOrderID(s), nil
}

func NewVenueOrderID(s string) (VenueOrderID, error) {
	if err := CheckValidString(s, "venue_order_id"); err != nil {
		return "", err
	}
	return VenueOrderID(s), nil
}

func NewPositionID(s string) (PositionID, error) {
	if err := CheckValidString(s, "position_id"); err != nil {
		return "", err
	}
	return PositionID(s), nil
}

func NewStrategyID(s string) (StrategyID, error) {
	if err := CheckValidString(s, "strategy_id"); err != nil {
		return "", err
	}
	return StrategyID(s), nil
}

func NewExecAlgorithmID(s string) (ExecAlgorithmID, error) {
	if err := CheckValidString(s, "exec_algorithm_id"); err != nil {
		return "", err
	}
	return ExecAlgorithmID(s), nil
}

func NewComponentID(s string) (ComponentID, error) {
	if err := CheckValidString(s, "component_id"); err != nil {
		return "", err
	}
	return ComponentID(s), nil
}

func NewClientID(s string) (ClientID, error) {
	if err := CheckValidString(s, "client_id"); err != nil {
		return "", err
	}
	return ClientID(s), nil
}

func NewTraderID(s string) (TraderID, error) {
	if err := CheckValidString(s, "trader_id"); err != nil {
		return "", err
	}
	return TraderID(s), nil
}

// InstrumentID is a symbol qualified by its venue, rendered "SYMBOL.VENUE".
type InstrumentID struct {
	Symbol string
	Venue  Venue
}

// ParseInstrumentID splits on the last dot, so symbols may contain dots.
func ParseInstrumentID(s string) (InstrumentID, error) {
	if err := CheckValidString(s, "instrument_id"); err != nil {
		return InstrumentID{}, err
	}
	idx := strings.LastIndexByte(s, '.')
	if idx <= 0 || idx == len(s)-1 {
		return InstrumentID{}, &ValidationError{Param: "instrument_id", Reason: fmt.Sprintf("%q missing '.' separator", s)}
	}
	return InstrumentID{Symbol: s[:idx], Venue: Venue(s[idx+1:])}, nil
}

// MustInstrumentID panics on malformed input. Intended for tests and constants.
func MustInstrumentID(s string) InstrumentID {
	id, err := ParseInstrumentID(s)
	if err != nil {
		panic(err)
	}
	return id
}

func (id InstrumentID) String() string {
	return id.Symbol + "." + string(id.Venue)
}

func (id InstrumentID) IsZero() bool {
	return id.Symbol == "" && id.Venue == ""
}

func (id InstrumentID) MarshalText() ([]byte, error) {
	return []byte(id.String()), nil
}

func (id *InstrumentID) UnmarshalText(text []byte) error {
	parsed, err := ParseInstrumentID(string(text))
	if err != nil {
		return err
	}
	*id = parsed
	return nil
}
