package messaging

import (
	"context"
	"fmt"
	"time"

	"github.com/nats-io/nats.go/jetstream"
	"github.com/rs/zerolog"

	"StateCache/internal/codec"
	"StateCache/internal/model"
	"StateCache/internal/observability"
)

const (
	ResponseStream        = "STATECACHE_RESPONSES"
	ResponseSubjectPrefix = "statecache.responses."
)

// ResponseSubject is the subject a client listens on for its responses.
func ResponseSubject(clientID model.ClientID) string {
	return ResponseSubjectPrefix + string(clientID)
}

// StreamPublisher is the slice of jetstream.JetStream the publisher uses.
type StreamPublisher interface {
	Publish(ctx context.Context, subject string, data []byte, opts ...jetstream.PublishOpt) (*jetstream.PubAck, error)
}

// Publisher publishes data responses to JetStream, one subject per client:
// statecache.responses.{client_id}
type Publisher struct {
	js      StreamPublisher
	codec   codec.Codec
	logger  zerolog.Logger
	metrics *observability.Metrics
}

func NewPublisher(js StreamPublisher, c codec.Codec, logger zerolog.Logger, metrics *observability.Metrics) *Publisher {
	return &Publisher{js: js, codec: c, logger: logger, metrics: metrics}
}

func (p *Publisher) Publish(ctx context.Context, resp DataResponse) error {
	data, err := p.codec.Encode(resp)
	if err != nil {
		return fmt.Errorf("encode response: %w", err)
	}

	subject := ResponseSubject(resp.ClientID)
	if _, err := p.js.Publish(ctx, subject, data); err != nil {
		if p.metrics != nil {
			p.metrics.PublishErrors.Inc()
		}
		return fmt.Errorf("publish %s: %w", subject, err)
	}

	if p.metrics != nil {
		p.metrics.ResponsesPublished.WithLabelValues(payloadLabel(resp)).Inc()
	}
	p.logger.Debug().
		Str("subject", subject).
		Str("correlation_id", resp.CorrelationID.String()).
		Msg("published response")
	return nil
}

func payloadLabel(resp DataResponse) string {
	if resp.Error != "" {
		return "error"
	}
	return string(resp.Payload.Tag)
}

// EnsureStream creates the response stream.
func EnsureStream(ctx context.Context, js jetstream.JetStream, logger zerolog.Logger) error {
	_, err := js.CreateOrUpdateStream(ctx, jetstream.StreamConfig{
		Name:      ResponseStream,
		Subjects:  []string{ResponseSubjectPrefix + ">"},
		Storage:   jetstream.FileStorage,
		Retention: jetstream.LimitsPolicy,
		MaxAge:    time.Hour,
		Replicas:  1,
	})
	if err != nil {
		return fmt.Errorf("create response stream: %w", err)
	}
	logger.Info().Str("stream", ResponseStream).Msg("ensured response stream")
	return nil
}
