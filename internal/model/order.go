package model

import (
	"github.com/shopspring/decimal"
)

// OrderStatus tracks order lifecycle progress
type OrderStatus int32

const (
	OrderStatusInitialized OrderStatus = iota
	OrderStatusEmulated
	OrderStatusReleased
	OrderStatusSubmitted
	OrderStatusAccepted
	OrderStatusRejected
	OrderStatusCanceled
	OrderStatusExpired
	OrderStatusTriggered
	OrderStatusPendingUpdate
	OrderStatusPendingCancel
	OrderStatusPartiallyFilled
	OrderStatusFilled
)

func (s OrderStatus) String() string {
	switch s {
	case OrderStatusInitialized:
		return "Initialized"
	case OrderStatusEmulated:
		return "Emulated"
	case OrderStatusReleased:
		return "Released"
	case OrderStatusSubmitted:
		return "Submitted"
	case OrderStatusAccepted:
		return "Accepted"
	case OrderStatusRejected:
		return "Rejected"
	case OrderStatusCanceled:
		return "Canceled"
	case OrderStatusExpired:
		return "Expired"
	case OrderStatusTriggered:
		return "Triggered"
	case OrderStatusPendingUpdate:
		return "PendingUpdate"
	case OrderStatusPendingCancel:
		return "PendingCancel"
	case OrderStatusPartiallyFilled:
		return "PartiallyFilled"
	case OrderStatusFilled:
		return "Filled"
	default:
		return "Unknown"
	}
}

// CanTransitionTo validates status transitions
func (s OrderStatus) CanTransitionTo(next OrderStatus) bool {
	validTransitions := map[OrderStatus][]OrderStatus{
		OrderStatusInitialized: {
			OrderStatusEmulated,
			OrderStatusReleased,
			OrderStatusSubmitted,
			OrderStatusRejected,
			OrderStatusCanceled,
		},
		OrderStatusEmulated: {
			OrderStatusReleased,
			OrderStatusCanceled,
			OrderStatusExpired,
		},
		OrderStatusReleased: {
			OrderStatusSubmitted,
			OrderStatusCanceled,
		},
		OrderStatusSubmitted: {
			OrderStatusAccepted,
			OrderStatusRejected,
			OrderStatusCanceled,
			OrderStatusPendingCancel,
			OrderStatusPartiallyFilled,
			OrderStatusFilled,
		},
		OrderStatusAccepted: {
			OrderStatusCanceled,
			OrderStatusExpired,
			OrderStatusTriggered,
			OrderStatusPendingUpdate,
			OrderStatusPendingCancel,
			OrderStatusPartiallyFilled,
			OrderStatusFilled,
		},
		OrderStatusTriggered: {
			OrderStatusCanceled,
			OrderStatusExpired,
			OrderStatusPendingUpdate,
			OrderStatusPendingCancel,
			OrderStatusPartiallyFilled,
			OrderStatusFilled,
		},
		OrderStatusPendingUpdate: {
			OrderStatusAccepted,
			OrderStatusCanceled,
			OrderStatusTriggered,
			OrderStatusPendingCancel,
			OrderStatusPartiallyFilled,
			OrderStatusFilled,
		},
		OrderStatusPendingCancel: {
			OrderStatusAccepted, // Cancel rejected
			OrderStatusCanceled,
			OrderStatusPartiallyFilled,
			OrderStatusFilled,
		},
		OrderStatusPartiallyFilled: {
			OrderStatusCanceled,
			OrderStatusExpired,
			OrderStatusPendingUpdate,
			OrderStatusPendingCancel,
			OrderStatusPartiallyFilled, // Multiple partial fills
			OrderStatusFilled,
		},
	}

	allowed, ok := validTransitions[s]
	if !ok {
		return false
	}

	for _, allowedStatus := range allowed {
		if next == allowedStatus {
			return true
		}
	}

	return false
}

// OrderSide is the direction of an order.
type OrderSide uint8

const (
	OrderSideNone OrderSide = iota
	OrderSideBuy
	OrderSideSell
)

// OrderType is the order's execution style.
type OrderType uint8

const (
	OrderTypeMarket OrderType = iota + 1
	OrderTypeLimit
	OrderTypeStopMarket
	OrderTypeStopLimit
)

// Order is the cached view of one order's lifecycle state.
type Order struct {
	ClientOrderID   ClientOrderID   `json:"client_order_id" msgpack:"client_order_id"`
	VenueOrderID    VenueOrderID    `json:"venue_order_id,omitempty" msgpack:"venue_order_id,omitempty"`
	PositionID      PositionID      `json:"position_id,omitempty" msgpack:"position_id,omitempty"`
	StrategyID      StrategyID      `json:"strategy_id" msgpack:"strategy_id"`
	InstrumentID    InstrumentID    `json:"instrument_id" msgpack:"instrument_id"`
	AccountID       AccountID       `json:"account_id,omitempty" msgpack:"account_id,omitempty"`
	ExecAlgorithmID ExecAlgorithmID `json:"exec_algorithm_id,omitempty" msgpack:"exec_algorithm_id,omitempty"`
	// ExecSpawnID is the primary order an execution algorithm spawned this one from.
	ExecSpawnID ClientOrderID   `json:"exec_spawn_id,omitempty" msgpack:"exec_spawn_id,omitempty"`
	Side        OrderSide       `json:"side" msgpack:"side"`
	Type        OrderType       `json:"order_type" msgpack:"order_type"`
	Quantity    decimal.Decimal `json:"quantity" msgpack:"quantity"`
	FilledQty   decimal.Decimal `json:"filled_qty" msgpack:"filled_qty"`
	Price       decimal.Decimal `json:"price" msgpack:"price"`
	Status      OrderStatus     `json:"status" msgpack:"status"`
	TsInit      int64           `json:"ts_init" msgpack:"ts_init"`
	TsLast      int64           `json:"ts_last" msgpack:"ts_last"`
}

// Validate checks the identifiers the cache indexes an order by.
func (o *Order) Validate() error {
	if err := CheckValidString(string(o.ClientOrderID), "order.client_order_id"); err != nil {
		return err
	}
	if err := CheckValidString(string(o.StrategyID), "order.strategy_id"); err != nil {
		return err
	}
	if o.InstrumentID.IsZero() {
		return &ValidationError{Param: "order.instrument_id", Reason: "zero instrument id"}
	}
	return nil
}

// Venue is the venue of the order's instrument.
func (o *Order) Venue() Venue {
	return o.InstrumentID.Venue
}

// IsClosed reports a terminal status.
func (o *Order) IsClosed() bool {
	switch o.Status {
	case OrderStatusRejected, OrderStatusCanceled, OrderStatusExpired, OrderStatusFilled:
		return true
	default:
		return false
	}
}

// IsOpen is the complement of IsClosed.
func (o *Order) IsOpen() bool {
	return !o.IsClosed()
}

func (o *Order) IsEmulated() bool {
	return o.Status == OrderStatusEmulated
}

// IsInflight reports an order sent to the venue but not yet acknowledged.
func (o *Order) IsInflight() bool {
	switch o.Status {
	case OrderStatusSubmitted, OrderStatusPendingUpdate, OrderStatusPendingCancel:
		return true
	default:
		return false
	}
}

func (o *Order) IsPendingCancel() bool {
	return o.Status == OrderStatusPendingCancel
}

// Clone returns a copy safe to hand outside the cache.
func (o *Order) Clone() *Order {
	c := *o
	return &c
}
