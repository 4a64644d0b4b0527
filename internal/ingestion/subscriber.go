// Package ingestion feeds market data and order/position state from NATS
// JetStream into the cache. Each message kind has its own subject and
// durable consumer; messages are decoded with the cache's codec and applied
// on the cache owner goroutine.
package ingestion

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/nats-io/nats.go/jetstream"
	"github.com/rs/zerolog"

	"StateCache/internal/cache"
	"StateCache/internal/codec"
	"StateCache/internal/model"
	"StateCache/internal/observability"
)

// Kind names the type of an ingest message.
type Kind string

const (
	KindQuote    Kind = "quotes"
	KindTrade    Kind = "trades"
	KindBar      Kind = "bars"
	KindBook     Kind = "book"
	KindOrder    Kind = "orders"
	KindPosition Kind = "positions"
)

const (
	IngestStream  = "STATECACHE_INGEST"
	SubjectPrefix = "statecache.ingest."
)

// Subject is the subject producers publish kind messages on; key is usually
// the instrument or strategy and only spreads load.
func Subject(kind Kind, key string) string {
	return SubjectPrefix + string(kind) + "." + key
}

// SubjectConfig binds one subject filter to a message kind and its durable
// consumer.
type SubjectConfig struct {
	Subject      string
	Kind         Kind
	ConsumerName string
	StreamName   string
}

// DefaultSubjects returns one consumer per message kind.
func DefaultSubjects() []SubjectConfig {
	return []SubjectConfig{
		{Subject: "statecache.ingest.quotes.>", Kind: KindQuote, ConsumerName: "statecache-quotes", StreamName: IngestStream},
		{Subject: "statecache.ingest.trades.>", Kind: KindTrade, ConsumerName: "statecache-trades", StreamName: IngestStream},
		{Subject: "statecache.ingest.bars.>", Kind: KindBar, ConsumerName: "statecache-bars", StreamName: IngestStream},
		{Subject: "statecache.ingest.book.>", Kind: KindBook, ConsumerName: "statecache-book", StreamName: IngestStream},
		{Subject: "statecache.ingest.orders.>", Kind: KindOrder, ConsumerName: "statecache-orders", StreamName: IngestStream},
		{Subject: "statecache.ingest.positions.>", Kind: KindPosition, ConsumerName: "statecache-positions", StreamName: IngestStream},
	}
}

// EnsureStreams creates the ingest stream if it does not exist.
func EnsureStreams(ctx context.Context, js jetstream.JetStream, logger zerolog.Logger) error {
	_, err := js.CreateOrUpdateStream(ctx, jetstream.StreamConfig{
		Name:      IngestStream,
		Subjects:  []string{SubjectPrefix + ">"},
		Storage:   jetstream.FileStorage,
		Retention: jetstream.LimitsPolicy,
		MaxAge:    72 * time.Hour,
		Replicas:  1,
	})
	if err != nil {
		return fmt.Errorf("create stream %s: %w", IngestStream, err)
	}
	logger.Info().Str("stream", IngestStream).Msg("ensured ingest stream")
	return nil
}

// Applier runs fn with exclusive access to the cache. *service.Owner
// satisfies it.
type Applier interface {
	Do(ctx context.Context, fn func(*cache.Cache) error) error
}

// Subscriber consumes the ingest subjects and applies each message to the
// cache. Messages are acked once applied, terminated when they can never
// apply, and nak'd for redelivery otherwise.
type Subscriber struct {
	js        jetstream.JetStream
	applier   Applier
	codec     codec.Codec
	timeout   time.Duration
	logger    zerolog.Logger
	metrics   *observability.Metrics
	consumers []jetstream.ConsumeContext
}

func NewSubscriber(
	js jetstream.JetStream,
	applier Applier,
	c codec.Codec,
	timeout time.Duration,
	logger zerolog.Logger,
	metrics *observability.Metrics,
) *Subscriber {
	return &Subscriber{
		js:      js,
		applier: applier,
		codec:   c,
		timeout: timeout,
		logger:  logger,
		metrics: metrics,
	}
}

// Subscribe creates a durable consumer for every configured subject.
// Consumers use explicit ACK, max_deliver=5, ack_wait=30s.
func (s *Subscriber) Subscribe(ctx context.Context, subjects []SubjectConfig) error {
	for _, cfg := range subjects {
		consumer, err := s.js.CreateOrUpdateConsumer(ctx, cfg.StreamName, jetstream.ConsumerConfig{
			Durable:       cfg.ConsumerName,
			FilterSubject: cfg.Subject,
			AckPolicy:     jetstream.AckExplicitPolicy,
			AckWait:       30 * time.Second,
			MaxDeliver:    5,
			DeliverPolicy: jetstream.DeliverAllPolicy,
		})
		if err != nil {
			return fmt.Errorf("create consumer %s: %w", cfg.ConsumerName, err)
		}

		kind := cfg.Kind
		consumeCtx, err := consumer.Consume(func(msg jetstream.Msg) {
			s.HandleMsg(ctx, kind, msg)
		})
		if err != nil {
			return fmt.Errorf("consume %s: %w", cfg.ConsumerName, err)
		}

		s.consumers = append(s.consumers, consumeCtx)
		s.logger.Info().Str("subject", cfg.Subject).Str("consumer", cfg.ConsumerName).Msg("subscribed")
	}
	return nil
}

// HandleMsg applies one delivered message and settles it.
func (s *Subscriber) HandleMsg(ctx context.Context, kind Kind, msg jetstream.Msg) {
	start := time.Now()
	err := s.Apply(ctx, kind, msg.Data())

	var result string
	var settleErr error
	switch {
	case err == nil:
		result = "applied"
		settleErr = msg.Ack()
	case permanent(err):
		result = "rejected"
		settleErr = msg.Term()
		s.logger.Warn().Err(err).Str("kind", string(kind)).Str("subject", msg.Subject()).Msg("rejected ingest message")
	default:
		result = "retried"
		settleErr = msg.Nak()
		s.logger.Error().Err(err).Str("kind", string(kind)).Str("subject", msg.Subject()).Msg("ingest apply failed, requeued")
	}
	if settleErr != nil {
		s.logger.Warn().Err(settleErr).Str("result", result).Msg("settle ingest message")
	}

	if s.metrics != nil {
		s.metrics.IngestMessages.WithLabelValues(string(kind), result).Inc()
		s.metrics.IngestDuration.WithLabelValues(string(kind)).Observe(time.Since(start).Seconds())
	}
}

// Apply decodes data and applies it on the cache owner.
func (s *Subscriber) Apply(ctx context.Context, kind Kind, data []byte) error {
	update, err := Parse(s.codec, kind, data)
	if err != nil {
		return err
	}
	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}
	return s.applier.Do(ctx, func(c *cache.Cache) error {
		return update.Apply(ctx, c)
	})
}

// permanent reports whether redelivering the message cannot help.
func permanent(err error) bool {
	var verr *model.ValidationError
	return errors.Is(err, ErrMalformed) || errors.As(err, &verr)
}

// Stop stops all consumers.
func (s *Subscriber) Stop() {
	for _, cc := range s.consumers {
		cc.Stop()
	}
	s.logger.Info().Msg("ingest consumers stopped")
}
