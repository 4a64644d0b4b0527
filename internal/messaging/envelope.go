// Package messaging carries cache queries over NATS: request/response
// envelopes, a response publisher and a request responder.
package messaging

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"StateCache/internal/codec"
	"StateCache/internal/model"
)

// DataType names what a request asks for.
type DataType string

const (
	DataTypeQuotes     DataType = "quotes"
	DataTypeTrades     DataType = "trades"
	DataTypeBars       DataType = "bars"
	DataTypeBook       DataType = "book"
	DataTypeInstrument DataType = "instrument"
	DataTypeGeneral    DataType = "general"
)

// Request parameter names.
const (
	ParamInstrumentID = "instrument_id"
	ParamBarType      = "bar_type"
	ParamKey          = "key"
	ParamLimit        = "limit"
)

var ErrPayloadTagMismatch = errors.New("payload tag mismatch")

type DataRequest struct {
	RequestID     uuid.UUID         `json:"request_id" msgpack:"request_id"`
	CorrelationID uuid.UUID         `json:"correlation_id" msgpack:"correlation_id"`
	ClientID      model.ClientID    `json:"client_id" msgpack:"client_id"`
	DataType      DataType          `json:"data_type" msgpack:"data_type"`
	Params        map[string]string `json:"params,omitempty" msgpack:"params,omitempty"`
	TsInit        int64             `json:"ts_init" msgpack:"ts_init"`
}

// NewDataRequest assigns fresh request and correlation ids.
func NewDataRequest(clientID model.ClientID, dataType DataType, params map[string]string) DataRequest {
	return DataRequest{
		RequestID:     uuid.New(),
		CorrelationID: uuid.New(),
		ClientID:      clientID,
		DataType:      dataType,
		Params:        params,
		TsInit:        time.Now().UnixNano(),
	}
}

func (r DataRequest) Validate() error {
	if r.RequestID == uuid.Nil {
		return &model.ValidationError{Param: "request_id", Reason: "nil uuid"}
	}
	if err := model.CheckValidString(string(r.ClientID), "client_id"); err != nil {
		return err
	}
	return model.CheckValidString(string(r.DataType), "data_type")
}

// PayloadTag identifies the concrete type inside a Payload.
type PayloadTag string

// Tagged is implemented by every payload type.
type Tagged interface {
	PayloadTag() PayloadTag
}

// Payload is an encoded payload plus the tag of its type.
type Payload struct {
	Tag  PayloadTag `json:"tag" msgpack:"tag"`
	Data []byte     `json:"data" msgpack:"data"`
}

type DataResponse struct {
	ResponseID    uuid.UUID      `json:"response_id" msgpack:"response_id"`
	CorrelationID uuid.UUID      `json:"correlation_id" msgpack:"correlation_id"`
	ClientID      model.ClientID `json:"client_id" msgpack:"client_id"`
	Payload       Payload        `json:"payload" msgpack:"payload"`
	Error         string         `json:"error,omitempty" msgpack:"error,omitempty"`
	TsInit        int64          `json:"ts_init" msgpack:"ts_init"`
}

// NewDataResponse answers req with payload encoded by c.
func NewDataResponse[T Tagged](c codec.Codec, req DataRequest, payload T) (DataResponse, error) {
	data, err := c.Encode(payload)
	if err != nil {
		return DataResponse{}, fmt.Errorf("encode %s payload: %w", payload.PayloadTag(), err)
	}
	resp := newResponse(req)
	resp.Payload = Payload{Tag: payload.PayloadTag(), Data: data}
	return resp, nil
}

// NewErrorResponse answers req with a failure and no payload.
func NewErrorResponse(req DataRequest, err error) DataResponse {
	resp := newResponse(req)
	resp.Error = err.Error()
	return resp
}

func newResponse(req DataRequest) DataResponse {
	return DataResponse{
		ResponseID:    uuid.New(),
		CorrelationID: req.CorrelationID,
		ClientID:      req.ClientID,
		TsInit:        time.Now().UnixNano(),
	}
}

// DecodePayload extracts a T from resp, failing with ErrPayloadTagMismatch
// when the response carries another type.
func DecodePayload[T Tagged](c codec.Codec, resp DataResponse) (T, error) {
	var out T
	if resp.Error != "" {
		return out, fmt.Errorf("response %s: %s", resp.ResponseID, resp.Error)
	}
	if resp.Payload.Tag != out.PayloadTag() {
		return out, fmt.Errorf("%w: want %s, got %s", ErrPayloadTagMismatch, out.PayloadTag(), resp.Payload.Tag)
	}
	if err := c.Decode(resp.Payload.Data, &out); err != nil {
		return out, fmt.Errorf("decode %s payload: %w", resp.Payload.Tag, err)
	}
	return out, nil
}

// === Payloads ===

type QuotesPayload struct {
	InstrumentID model.InstrumentID `json:"instrument_id" msgpack:"instrument_id"`
	Quotes       []model.QuoteTick  `json:"quotes" msgpack:"quotes"`
}

func (QuotesPayload) PayloadTag() PayloadTag { return "quotes" }

type TradesPayload struct {
	InstrumentID model.InstrumentID `json:"instrument_id" msgpack:"instrument_id"`
	Trades       []model.TradeTick  `json:"trades" msgpack:"trades"`
}

func (TradesPayload) PayloadTag() PayloadTag { return "trades" }

type BarsPayload struct {
	BarType model.BarType `json:"bar_type" msgpack:"bar_type"`
	Bars    []model.Bar   `json:"bars" msgpack:"bars"`
}

func (BarsPayload) PayloadTag() PayloadTag { return "bars" }

type BookPayload struct {
	InstrumentID model.InstrumentID `json:"instrument_id" msgpack:"instrument_id"`
	Bids         []model.BookLevel  `json:"bids" msgpack:"bids"`
	Asks         []model.BookLevel  `json:"asks" msgpack:"asks"`
	Sequence     uint64             `json:"sequence" msgpack:"sequence"`
	TsLast       int64              `json:"ts_last" msgpack:"ts_last"`
}

func (BookPayload) PayloadTag() PayloadTag { return "book" }

type InstrumentPayload struct {
	Instrument model.Instrument `json:"instrument" msgpack:"instrument"`
}

func (InstrumentPayload) PayloadTag() PayloadTag { return "instrument" }

type GeneralPayload struct {
	Key   string `json:"key" msgpack:"key"`
	Value []byte `json:"value,omitempty" msgpack:"value,omitempty"`
	Found bool   `json:"found" msgpack:"found"`
}

func (GeneralPayload) PayloadTag() PayloadTag { return "general" }
