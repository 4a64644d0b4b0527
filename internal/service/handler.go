package service

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"StateCache/internal/cache"
	"StateCache/internal/codec"
	"StateCache/internal/messaging"
	"StateCache/internal/model"
	"StateCache/internal/observability"
)

var (
	ErrUnknownDataType = errors.New("unknown data type")
	ErrNotFound        = errors.New("not found")
)

// QueryHandler answers data requests from the cache owned by an Owner.
type QueryHandler struct {
	owner   *Owner
	codec   codec.Codec
	metrics *observability.Metrics
}

var _ messaging.RequestHandler = (*QueryHandler)(nil)

func NewQueryHandler(owner *Owner, c codec.Codec, metrics *observability.Metrics) *QueryHandler {
	return &QueryHandler{owner: owner, codec: c, metrics: metrics}
}

func (h *QueryHandler) Handle(ctx context.Context, req messaging.DataRequest) (resp messaging.DataResponse, err error) {
	start := time.Now()
	defer func() { h.observe(req.DataType, start, err) }()

	switch req.DataType {
	case messaging.DataTypeQuotes:
		return h.quotes(ctx, req)
	case messaging.DataTypeTrades:
		return h.trades(ctx, req)
	case messaging.DataTypeBars:
		return h.bars(ctx, req)
	case messaging.DataTypeBook:
		return h.book(ctx, req)
	case messaging.DataTypeInstrument:
		return h.instrument(ctx, req)
	case messaging.DataTypeGeneral:
		return h.general(ctx, req)
	default:
		return messaging.DataResponse{}, fmt.Errorf("%w: %q", ErrUnknownDataType, req.DataType)
	}
}

func (h *QueryHandler) observe(dataType messaging.DataType, start time.Time, err error) {
	if h.metrics == nil {
		return
	}
	dt := string(dataType)
	h.metrics.QueryDuration.WithLabelValues(dt).Observe(time.Since(start).Seconds())
	if err == nil {
		h.metrics.QueryRequests.WithLabelValues(dt, "ok").Inc()
		return
	}
	h.metrics.QueryRequests.WithLabelValues(dt, "error").Inc()
	h.metrics.QueryErrors.WithLabelValues(dt, errorCode(err)).Inc()
}

func errorCode(err error) string {
	var verr *model.ValidationError
	switch {
	case errors.As(err, &verr), errors.Is(err, ErrUnknownDataType):
		return "bad_request"
	case errors.Is(err, ErrNotFound):
		return "not_found"
	case errors.Is(err, context.DeadlineExceeded), errors.Is(err, context.Canceled):
		return "timeout"
	default:
		return "internal"
	}
}

func instrumentParam(req messaging.DataRequest) (model.InstrumentID, error) {
	raw, ok := req.Params[messaging.ParamInstrumentID]
	if !ok {
		return model.InstrumentID{}, &model.ValidationError{Param: messaging.ParamInstrumentID, Reason: "missing"}
	}
	return model.ParseInstrumentID(raw)
}

// limitParam returns 0 (no limit) when absent.
func limitParam(req messaging.DataRequest) (int, error) {
	raw, ok := req.Params[messaging.ParamLimit]
	if !ok {
		return 0, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, &model.ValidationError{Param: messaging.ParamLimit, Reason: err.Error()}
	}
	if err := model.CheckPositiveInt(n, messaging.ParamLimit); err != nil {
		return 0, err
	}
	return n, nil
}

// tail keeps the newest n items; series are oldest first.
func tail[T any](items []T, n int) []T {
	if n <= 0 || n >= len(items) {
		return items
	}
	return items[len(items)-n:]
}

func (h *QueryHandler) quotes(ctx context.Context, req messaging.DataRequest) (messaging.DataResponse, error) {
	id, err := instrumentParam(req)
	if err != nil {
		return messaging.DataResponse{}, err
	}
	limit, err := limitParam(req)
	if err != nil {
		return messaging.DataResponse{}, err
	}

	payload := messaging.QuotesPayload{InstrumentID: id}
	if err := h.owner.Do(ctx, func(c *cache.Cache) error {
		payload.Quotes = tail(c.Quotes(id), limit)
		return nil
	}); err != nil {
		return messaging.DataResponse{}, err
	}
	return messaging.NewDataResponse(h.codec, req, payload)
}

func (h *QueryHandler) trades(ctx context.Context, req messaging.DataRequest) (messaging.DataResponse, error) {
	id, err := instrumentParam(req)
	if err != nil {
		return messaging.DataResponse{}, err
	}
	limit, err := limitParam(req)
	if err != nil {
		return messaging.DataResponse{}, err
	}

	payload := messaging.TradesPayload{InstrumentID: id}
	if err := h.owner.Do(ctx, func(c *cache.Cache) error {
		payload.Trades = tail(c.Trades(id), limit)
		return nil
	}); err != nil {
		return messaging.DataResponse{}, err
	}
	return messaging.NewDataResponse(h.codec, req, payload)
}

func (h *QueryHandler) bars(ctx context.Context, req messaging.DataRequest) (messaging.DataResponse, error) {
	raw, ok := req.Params[messaging.ParamBarType]
	if !ok {
		return messaging.DataResponse{}, &model.ValidationError{Param: messaging.ParamBarType, Reason: "missing"}
	}
	bt, err := model.ParseBarType(raw)
	if err != nil {
		return messaging.DataResponse{}, err
	}
	limit, err := limitParam(req)
	if err != nil {
		return messaging.DataResponse{}, err
	}

	payload := messaging.BarsPayload{BarType: bt}
	if err := h.owner.Do(ctx, func(c *cache.Cache) error {
		payload.Bars = tail(c.Bars(bt), limit)
		return nil
	}); err != nil {
		return messaging.DataResponse{}, err
	}
	return messaging.NewDataResponse(h.codec, req, payload)
}

func (h *QueryHandler) book(ctx context.Context, req messaging.DataRequest) (messaging.DataResponse, error) {
	id, err := instrumentParam(req)
	if err != nil {
		return messaging.DataResponse{}, err
	}

	payload := messaging.BookPayload{InstrumentID: id}
	if err := h.owner.Do(ctx, func(c *cache.Cache) error {
		book, ok := c.OrderBook(id)
		if !ok {
			return fmt.Errorf("order book %s: %w", id, ErrNotFound)
		}
		payload.Bids = book.Bids()
		payload.Asks = book.Asks()
		payload.Sequence = book.Sequence()
		payload.TsLast = book.TsLast()
		return nil
	}); err != nil {
		return messaging.DataResponse{}, err
	}
	return messaging.NewDataResponse(h.codec, req, payload)
}

func (h *QueryHandler) instrument(ctx context.Context, req messaging.DataRequest) (messaging.DataResponse, error) {
	id, err := instrumentParam(req)
	if err != nil {
		return messaging.DataResponse{}, err
	}

	var payload messaging.InstrumentPayload
	if err := h.owner.Do(ctx, func(c *cache.Cache) error {
		inst, ok := c.Instrument(id)
		if !ok {
			return fmt.Errorf("instrument %s: %w", id, ErrNotFound)
		}
		payload.Instrument = inst
		return nil
	}); err != nil {
		return messaging.DataResponse{}, err
	}
	return messaging.NewDataResponse(h.codec, req, payload)
}

// general reports a missing key with Found=false rather than an error.
func (h *QueryHandler) general(ctx context.Context, req messaging.DataRequest) (messaging.DataResponse, error) {
	key := req.Params[messaging.ParamKey]

	payload := messaging.GeneralPayload{Key: key}
	if err := h.owner.Do(ctx, func(c *cache.Cache) error {
		value, ok, err := c.Get(key)
		if err != nil {
			return err
		}
		payload.Value, payload.Found = value, ok
		return nil
	}); err != nil {
		return messaging.DataResponse{}, err
	}
	return messaging.NewDataResponse(h.codec, req, payload)
}
