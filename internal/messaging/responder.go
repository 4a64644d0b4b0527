package messaging

import (
	"context"
	"fmt"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"
	"github.com/rs/zerolog"

	"StateCache/internal/codec"
	"StateCache/internal/observability"
)

const (
	RequestSubjectPrefix = "statecache.requests."
	RequestQueue         = "statecache"
)

// RequestHandler answers one decoded request.
type RequestHandler interface {
	Handle(ctx context.Context, req DataRequest) (DataResponse, error)
}

// Responder subscribes to statecache.requests.> and answers each request.
// Requests sent with a reply subject get the response inline; the rest are
// answered on the client's JetStream response subject.
type Responder struct {
	nc        *nats.Conn
	handler   RequestHandler
	publisher *Publisher
	codec     codec.Codec
	timeout   time.Duration
	logger    zerolog.Logger
	metrics   *observability.Metrics
	replay    *ReplayCache
	sub       *nats.Subscription
}

// ResponderOption configures optional collaborators.
type ResponderOption func(*Responder)

// WithReplayCache answers retried request ids from a cache of the last
// capacity successful responses.
func WithReplayCache(capacity int) ResponderOption {
	return func(r *Responder) { r.replay = NewReplayCache(capacity) }
}

func WithResponderMetrics(metrics *observability.Metrics) ResponderOption {
	return func(r *Responder) { r.metrics = metrics }
}

func NewResponder(
	nc *nats.Conn,
	handler RequestHandler,
	publisher *Publisher,
	c codec.Codec,
	timeout time.Duration,
	logger zerolog.Logger,
	opts ...ResponderOption,
) *Responder {
	r := &Responder{
		nc:        nc,
		handler:   handler,
		publisher: publisher,
		codec:     c,
		timeout:   timeout,
		logger:    logger,
	}
	for _, opt := range opts {
		opt(r)
	}
	if r.replay != nil && r.metrics != nil {
		m := r.metrics
		r.replay.onEvict = func() { m.ReplayEvictions.Inc() }
	}
	return r
}

// Subscribe joins the request queue group so several instances can share
// the load.
func (r *Responder) Subscribe(ctx context.Context) error {
	sub, err := r.nc.QueueSubscribe(RequestSubjectPrefix+">", RequestQueue, func(msg *nats.Msg) {
		r.onMsg(ctx, msg)
	})
	if err != nil {
		return fmt.Errorf("subscribe requests: %w", err)
	}
	r.sub = sub
	r.logger.Info().Str("subject", sub.Subject).Str("queue", RequestQueue).Msg("subscribed to requests")
	return nil
}

func (r *Responder) onMsg(ctx context.Context, msg *nats.Msg) {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	resp, err := r.Dispatch(ctx, msg.Data)
	if err != nil {
		r.logger.Warn().Err(err).Str("subject", msg.Subject).Msg("dropping malformed request")
		return
	}

	if msg.Reply != "" {
		data, err := r.codec.Encode(resp)
		if err != nil {
			r.logger.Error().Err(err).Msg("encode response failed")
			return
		}
		if err := msg.Respond(data); err != nil {
			r.logger.Warn().Err(err).Str("reply", msg.Reply).Msg("respond failed")
		}
		return
	}

	if r.publisher == nil {
		return
	}
	if err := r.publisher.Publish(ctx, resp); err != nil {
		// Non-fatal: the client can retry the request
		r.logger.Warn().Err(err).Str("correlation_id", resp.CorrelationID.String()).Msg("publish response failed")
	}
}

// Dispatch decodes one request and runs it through the handler. Handler
// failures become error responses; only an undecodable or invalid request
// returns an error.
func (r *Responder) Dispatch(ctx context.Context, data []byte) (DataResponse, error) {
	var req DataRequest
	if err := r.codec.Decode(data, &req); err != nil {
		return DataResponse{}, fmt.Errorf("decode request: %w", err)
	}
	if err := req.Validate(); err != nil {
		return DataResponse{}, err
	}

	if r.replay != nil {
		if resp, ok := r.replay.Get(req.RequestID); ok {
			if r.metrics != nil {
				r.metrics.RequestsReplayed.Inc()
			}
			return resp, nil
		}
	}

	resp, err := r.handler.Handle(ctx, req)
	if err != nil {
		r.logger.Debug().Err(err).
			Str("data_type", string(req.DataType)).
			Str("client_id", string(req.ClientID)).
			Msg("request failed")
		return NewErrorResponse(req, err), nil
	}

	// Failures are not replayed; a retry may succeed.
	if r.replay != nil {
		r.replay.Add(req.RequestID, resp)
	}
	return resp, nil
}

// Stop drains the subscription.
func (r *Responder) Stop() {
	if r.sub == nil {
		return
	}
	if err := r.sub.Drain(); err != nil {
		r.logger.Warn().Err(err).Msg("drain request subscription failed")
	}
	r.logger.Info().Msg("request responder stopped")
}

// ConnectNATS establishes a NATS connection and returns a JetStream context.
func ConnectNATS(url string, logger zerolog.Logger) (*nats.Conn, jetstream.JetStream, error) {
	nc, err := nats.Connect(url,
		nats.Name("statecache"),
		nats.MaxReconnects(-1),
		nats.ReconnectWait(2*time.Second),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			logger.Warn().Err(err).Msg("NATS disconnected")
		}),
		nats.ReconnectHandler(func(_ *nats.Conn) {
			logger.Info().Msg("NATS reconnected")
		}),
	)
	if err != nil {
		return nil, nil, fmt.Errorf("nats connect: %w", err)
	}

	js, err := jetstream.New(nc)
	if err != nil {
		nc.Close()
		return nil, nil, fmt.Errorf("jetstream: %w", err)
	}

	return nc, js, nil
}
