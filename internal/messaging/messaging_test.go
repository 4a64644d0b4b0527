package messaging_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"
	"github.com/prometheus/client_golang/prometheus"
	promtest "github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"StateCache/internal/codec"
	"StateCache/internal/messaging"
	"StateCache/internal/model"
	"StateCache/internal/observability"
	"StateCache/internal/testutil"
)

func mustCodec(t *testing.T, enc codec.Encoding) codec.Codec {
	t.Helper()
	c, err := codec.For(enc)
	require.NoError(t, err)
	return c
}

// ============================================================================
// Test: envelopes
// ============================================================================

func TestDataResponse_TaggedPayload(t *testing.T) {
	for _, enc := range []codec.Encoding{codec.MsgPack, codec.JSON} {
		t.Run(enc.String(), func(t *testing.T) {
			c := mustCodec(t, enc)
			req := messaging.NewDataRequest("C-1", messaging.DataTypeQuotes, map[string]string{
				messaging.ParamInstrumentID: "AUD/USD.SIM",
			})

			payload := messaging.QuotesPayload{
				InstrumentID: model.MustInstrumentID("AUD/USD.SIM"),
				Quotes:       []model.QuoteTick{testutil.Quote("AUD/USD.SIM", "0.66500", "0.66502", 1)},
			}
			resp, err := messaging.NewDataResponse(c, req, payload)
			require.NoError(t, err)

			assert.Equal(t, req.CorrelationID, resp.CorrelationID)
			assert.Equal(t, req.ClientID, resp.ClientID)
			assert.NotEqual(t, uuid.Nil, resp.ResponseID)
			assert.Equal(t, messaging.PayloadTag("quotes"), resp.Payload.Tag)

			got, err := messaging.DecodePayload[messaging.QuotesPayload](c, resp)
			require.NoError(t, err)
			require.Len(t, got.Quotes, 1)
			assert.Equal(t, payload.InstrumentID, got.InstrumentID)
			assert.True(t, got.Quotes[0].BidPrice.Equal(payload.Quotes[0].BidPrice))
		})
	}
}

func TestDecodePayload_TagMismatch(t *testing.T) {
	c := mustCodec(t, codec.MsgPack)
	req := messaging.NewDataRequest("C-1", messaging.DataTypeGeneral, nil)

	resp, err := messaging.NewDataResponse(c, req, messaging.GeneralPayload{Key: "k", Found: false})
	require.NoError(t, err)

	_, err = messaging.DecodePayload[messaging.TradesPayload](c, resp)
	assert.ErrorIs(t, err, messaging.ErrPayloadTagMismatch)
}

func TestDecodePayload_ErrorResponse(t *testing.T) {
	c := mustCodec(t, codec.JSON)
	req := messaging.NewDataRequest("C-1", messaging.DataTypeBook, nil)

	resp := messaging.NewErrorResponse(req, errors.New("no book"))
	assert.Equal(t, req.CorrelationID, resp.CorrelationID)

	_, err := messaging.DecodePayload[messaging.BookPayload](c, resp)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no book")
}

func TestDataRequest_Validate(t *testing.T) {
	var verr *model.ValidationError

	assert.NoError(t, messaging.NewDataRequest("C-1", messaging.DataTypeBars, nil).Validate())
	assert.ErrorAs(t, messaging.NewDataRequest("", messaging.DataTypeBars, nil).Validate(), &verr)
	assert.ErrorAs(t, messaging.NewDataRequest("C-1", "", nil).Validate(), &verr)
	assert.ErrorAs(t, messaging.DataRequest{ClientID: "C-1", DataType: "bars"}.Validate(), &verr)
}

// ============================================================================
// Test: publisher
// ============================================================================

type fakeStream struct {
	subjects []string
	payloads [][]byte
	err      error
}

func (f *fakeStream) Publish(_ context.Context, subject string, data []byte, _ ...jetstream.PublishOpt) (*jetstream.PubAck, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.subjects = append(f.subjects, subject)
	f.payloads = append(f.payloads, data)
	return &jetstream.PubAck{Stream: messaging.ResponseStream, Sequence: uint64(len(f.subjects))}, nil
}

func TestPublisher_PublishesOnClientSubject(t *testing.T) {
	c := mustCodec(t, codec.MsgPack)
	metrics := observability.NewMetrics(prometheus.NewRegistry())
	stream := &fakeStream{}
	pub := messaging.NewPublisher(stream, c, zerolog.Nop(), metrics)

	req := messaging.NewDataRequest("C-7", messaging.DataTypeGeneral, nil)
	resp, err := messaging.NewDataResponse(c, req, messaging.GeneralPayload{Key: "k", Value: []byte{1}, Found: true})
	require.NoError(t, err)

	require.NoError(t, pub.Publish(context.Background(), resp))
	require.Equal(t, []string{"statecache.responses.C-7"}, stream.subjects)

	var decoded messaging.DataResponse
	require.NoError(t, c.Decode(stream.payloads[0], &decoded))
	assert.Equal(t, resp.CorrelationID, decoded.CorrelationID)
	assert.Equal(t, 1.0, promtest.ToFloat64(metrics.ResponsesPublished.WithLabelValues("general")))
}

func TestPublisher_Error(t *testing.T) {
	c := mustCodec(t, codec.JSON)
	metrics := observability.NewMetrics(prometheus.NewRegistry())
	pub := messaging.NewPublisher(&fakeStream{err: errors.New("no responders")}, c, zerolog.Nop(), metrics)

	err := pub.Publish(context.Background(), messaging.NewErrorResponse(messaging.NewDataRequest("C-1", "bars", nil), errors.New("x")))
	assert.Error(t, err)
	assert.Equal(t, 1.0, promtest.ToFloat64(metrics.PublishErrors))
}

// ============================================================================
// Test: responder dispatch
// ============================================================================

type handlerFunc func(ctx context.Context, req messaging.DataRequest) (messaging.DataResponse, error)

func (f handlerFunc) Handle(ctx context.Context, req messaging.DataRequest) (messaging.DataResponse, error) {
	return f(ctx, req)
}

func TestResponder_Dispatch(t *testing.T) {
	c := mustCodec(t, codec.JSON)
	handler := handlerFunc(func(_ context.Context, req messaging.DataRequest) (messaging.DataResponse, error) {
		if req.DataType != messaging.DataTypeGeneral {
			return messaging.DataResponse{}, errors.New("unsupported")
		}
		return messaging.NewDataResponse(c, req, messaging.GeneralPayload{Key: req.Params[messaging.ParamKey]})
	})
	r := messaging.NewResponder(nil, handler, nil, c, time.Second, zerolog.Nop())

	t.Run("ok", func(t *testing.T) {
		req := messaging.NewDataRequest("C-1", messaging.DataTypeGeneral, map[string]string{messaging.ParamKey: "cfg"})
		data, err := c.Encode(req)
		require.NoError(t, err)

		resp, err := r.Dispatch(context.Background(), data)
		require.NoError(t, err)
		got, err := messaging.DecodePayload[messaging.GeneralPayload](c, resp)
		require.NoError(t, err)
		assert.Equal(t, "cfg", got.Key)
	})

	t.Run("handler failure becomes error response", func(t *testing.T) {
		req := messaging.NewDataRequest("C-1", messaging.DataTypeBars, nil)
		data, err := c.Encode(req)
		require.NoError(t, err)

		resp, err := r.Dispatch(context.Background(), data)
		require.NoError(t, err)
		assert.Equal(t, "unsupported", resp.Error)
		assert.Equal(t, req.CorrelationID, resp.CorrelationID)
	})

	t.Run("malformed", func(t *testing.T) {
		_, err := r.Dispatch(context.Background(), []byte("{not json"))
		assert.Error(t, err)
	})

	t.Run("invalid", func(t *testing.T) {
		data, err := c.Encode(messaging.DataRequest{RequestID: uuid.New(), DataType: "general"})
		require.NoError(t, err)
		_, err = r.Dispatch(context.Background(), data)
		var verr *model.ValidationError
		assert.ErrorAs(t, err, &verr)
	})
}

// ============================================================================
// Test: NATS round trip (integration)
// ============================================================================

func TestResponder_NATSRequestReply(t *testing.T) {
	testutil.RequireIntegration(t)

	nc, _, err := messaging.ConnectNATS(testutil.TestNATSURL(), zerolog.Nop())
	if err != nil {
		t.Skipf("test nats not available: %v", err)
	}
	defer nc.Close()

	c := mustCodec(t, codec.MsgPack)
	handler := handlerFunc(func(_ context.Context, req messaging.DataRequest) (messaging.DataResponse, error) {
		return messaging.NewDataResponse(c, req, messaging.GeneralPayload{Key: "k", Value: []byte("v"), Found: true})
	})
	r := messaging.NewResponder(nc, handler, nil, c, time.Second, zerolog.Nop())
	require.NoError(t, r.Subscribe(context.Background()))
	defer r.Stop()

	req := messaging.NewDataRequest("C-1", messaging.DataTypeGeneral, nil)
	data, err := c.Encode(req)
	require.NoError(t, err)

	var msg *nats.Msg
	msg, err = nc.Request(messaging.RequestSubjectPrefix+"general", data, 2*time.Second)
	require.NoError(t, err)

	var resp messaging.DataResponse
	require.NoError(t, c.Decode(msg.Data, &resp))
	got, err := messaging.DecodePayload[messaging.GeneralPayload](c, resp)
	require.NoError(t, err)
	assert.Equal(t, []byte("v"), got.Value)
	assert.Equal(t, req.CorrelationID, resp.CorrelationID)
}

// ============================================================================
// Test: replay cache
// ============================================================================

func TestReplayCache_EvictsLeastRecentlyUsed(t *testing.T) {
	c := messaging.NewReplayCache(2)
	a, b, d := uuid.New(), uuid.New(), uuid.New()

	c.Add(a, messaging.DataResponse{ClientID: "A"})
	c.Add(b, messaging.DataResponse{ClientID: "B"})

	// touch a so b is the oldest
	_, ok := c.Get(a)
	require.True(t, ok)

	c.Add(d, messaging.DataResponse{ClientID: "D"})
	assert.Equal(t, 2, c.Len())
	assert.Equal(t, int64(1), c.Evictions())

	_, ok = c.Get(b)
	assert.False(t, ok)
	got, ok := c.Get(a)
	require.True(t, ok)
	assert.Equal(t, model.ClientID("A"), got.ClientID)
}

func TestResponder_ReplaysRetriedRequest(t *testing.T) {
	c := mustCodec(t, codec.MsgPack)
	metrics := observability.NewMetrics(prometheus.NewRegistry())

	calls := 0
	handler := handlerFunc(func(_ context.Context, req messaging.DataRequest) (messaging.DataResponse, error) {
		calls++
		if req.DataType == messaging.DataTypeBook {
			return messaging.DataResponse{}, errors.New("no book")
		}
		return messaging.NewDataResponse(c, req, messaging.GeneralPayload{Key: "k"})
	})
	r := messaging.NewResponder(nil, handler, nil, c, time.Second, zerolog.Nop(),
		messaging.WithReplayCache(8),
		messaging.WithResponderMetrics(metrics),
	)

	req := messaging.NewDataRequest("C-1", messaging.DataTypeGeneral, nil)
	data, err := c.Encode(req)
	require.NoError(t, err)

	first, err := r.Dispatch(context.Background(), data)
	require.NoError(t, err)
	second, err := r.Dispatch(context.Background(), data)
	require.NoError(t, err)

	assert.Equal(t, 1, calls)
	assert.Equal(t, first.ResponseID, second.ResponseID)
	assert.Equal(t, 1.0, promtest.ToFloat64(metrics.RequestsReplayed))

	// error responses are recomputed
	failing, err := c.Encode(messaging.NewDataRequest("C-1", messaging.DataTypeBook, nil))
	require.NoError(t, err)
	_, err = r.Dispatch(context.Background(), failing)
	require.NoError(t, err)
	_, err = r.Dispatch(context.Background(), failing)
	require.NoError(t, err)
	assert.Equal(t, 3, calls)
}
