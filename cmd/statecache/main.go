package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/lib/pq"
	"github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"StateCache/internal/cache"
	"StateCache/internal/codec"
	"StateCache/internal/ingestion"
	"StateCache/internal/messaging"
	"StateCache/internal/model"
	"StateCache/internal/observability"
	"StateCache/internal/persistence"
	"StateCache/internal/service"
)

func main() {
	cfg, err := LoadConfig()
	if err != nil {
		l := observability.NewLogger("statecache")
		l.Fatal().Err(err).Msg("load config")
	}
	observability.SetLogConfig(cfg.Log)

	logger := observability.NewLogger("statecache")
	logger.Info().Str("log_format", cfg.Log.Format).Msg("StateCache starting...")

	// --- Context with graceful shutdown ---
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	// --- Observability ---
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	metrics := observability.NewMetrics(reg)
	healthChecker := observability.NewHealthChecker()

	// --- Backend ---
	db, err := openBackend(ctx, cfg, healthChecker, logger, metrics)
	if err != nil {
		logger.Fatal().Err(err).Str("backend", cfg.App.Backend).Msg("open backend")
	}

	// --- Cache + hydration ---
	stateCache, err := cache.New(cfg.Cache, db,
		cache.WithLogger(observability.NewLogger("cache")),
		cache.WithMetrics(metrics),
	)
	if err != nil {
		logger.Fatal().Err(err).Msg("build cache")
	}

	start := time.Now()
	if err := stateCache.Hydrate(ctx); err != nil {
		logger.Fatal().Err(err).Msg("hydrate cache")
	}
	if err := stateCache.CheckIntegrity(); err != nil {
		logger.Error().Err(err).Msg("index integrity check failed after hydration")
	}
	logger.Info().Dur("took", time.Since(start)).Msg("cache hydrated")

	// --- Goroutines ---
	errChan := make(chan error, 4)

	// 1. Cache owner; runs until after Dispose, so it gets its own context
	ownerCtx, ownerCancel := context.WithCancel(context.Background())
	defer ownerCancel()
	owner := service.NewOwner(stateCache, cfg.App.OwnerQueueSize, observability.NewLogger("owner"), metrics)
	ownerDone := make(chan struct{})
	go func() {
		defer close(ownerDone)
		_ = owner.Run(ownerCtx)
	}()

	// 2. NATS request responder and ingestion (optional)
	var responder *messaging.Responder
	var subscriber *ingestion.Subscriber
	var nc *nats.Conn
	if cfg.App.NATSURL != "" {
		var js jetstream.JetStream
		nc, js, err = messaging.ConnectNATS(cfg.App.NATSURL, observability.NewLogger("messaging"))
		if err != nil {
			logger.Fatal().Err(err).Msg("connect NATS")
		}
		logger.Info().Str("url", cfg.App.NATSURL).Msg("NATS connected")
		healthChecker.AddCheck("nats", func(context.Context) error {
			if !nc.IsConnected() {
				return errors.New("nats disconnected")
			}
			return nil
		})

		wire, err := codec.For(cfg.Cache.Encoding)
		if err != nil {
			logger.Fatal().Err(err).Msg("codec")
		}

		responder, err = startResponder(ctx, cfg, nc, js, wire, owner, metrics)
		if err != nil {
			logger.Fatal().Err(err).Msg("start responder")
		}

		if cfg.App.IngestEnabled {
			subscriber, err = startIngestion(ctx, cfg, js, wire, owner, metrics)
			if err != nil {
				logger.Fatal().Err(err).Msg("start ingestion")
			}
		} else {
			logger.Info().Msg("ingestion disabled")
		}
	} else {
		logger.Info().Msg("STATECACHE_NATS_URL not set, request responder and ingestion disabled")
	}

	// 3. Health + metrics server
	metricsServer := &http.Server{
		Addr:              cfg.App.MetricsAddr,
		Handler:           healthChecker.Mux(reg),
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		logger.Info().Str("addr", cfg.App.MetricsAddr).Msg("metrics server listening")
		if err := metricsServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errChan <- fmt.Errorf("metrics server: %w", err)
		}
	}()

	healthChecker.SetReady(true)
	logger.Info().
		Str("trader_id", cfg.App.TraderID).
		Str("backend", cfg.App.Backend).
		Str("metrics", cfg.App.MetricsAddr).
		Msg("StateCache ready")

	// --- Wait for shutdown signal ---
	select {
	case sig := <-sigChan:
		logger.Info().Str("signal", sig.String()).Msg("shutting down...")
	case err := <-errChan:
		logger.Error().Err(err).Msg("goroutine failed, shutting down...")
	}

	// --- Graceful shutdown ---
	// Stop intake, then check residuals and dispose on the owner goroutine.
	healthChecker.SetReady(false)
	cancel()

	if subscriber != nil {
		subscriber.Stop()
	}
	if responder != nil {
		responder.Stop()
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	err = owner.Do(shutdownCtx, func(c *cache.Cache) error {
		if r := c.CheckResiduals(); !r.Empty() {
			logger.Warn().
				Int("open_orders", len(r.OpenOrders)).
				Int("open_positions", len(r.OpenPositions)).
				Msg("residual state at shutdown")
		}
		return c.Dispose(shutdownCtx)
	})
	if err != nil {
		logger.Error().Err(err).Msg("dispose cache")
	} else {
		logger.Info().Msg("cache disposed")
	}

	ownerCancel()
	<-ownerDone

	if nc != nil {
		nc.Close()
	}
	if err := metricsServer.Shutdown(shutdownCtx); err != nil {
		logger.Warn().Err(err).Msg("metrics server shutdown")
	}

	logger.Info().Msg("StateCache shutdown complete")
}

// openBackend returns a nil Database for the memory-only configuration.
func openBackend(
	ctx context.Context,
	cfg *Config,
	health *observability.HealthChecker,
	logger zerolog.Logger,
	metrics *observability.Metrics,
) (cache.Database, error) {
	if cfg.App.Backend == BackendNone {
		logger.Info().Msg("no backend configured, cache is memory-only")
		return nil, nil
	}

	traderID, err := model.NewTraderID(cfg.App.TraderID)
	if err != nil {
		return nil, err
	}
	ks, err := persistence.NewKeyspace(traderID, cfg.App.InstanceID, cfg.Cache)
	if err != nil {
		return nil, err
	}
	backendLogger := observability.NewLogger("persistence")

	switch cfg.App.Backend {
	case BackendPostgres:
		sqlDB, err := sql.Open("postgres", cfg.App.PostgresDSN)
		if err != nil {
			return nil, fmt.Errorf("postgres open: %w", err)
		}
		sqlDB.SetMaxOpenConns(20)
		sqlDB.SetMaxIdleConns(10)
		sqlDB.SetConnMaxLifetime(5 * time.Minute)

		if err := sqlDB.PingContext(ctx); err != nil {
			sqlDB.Close()
			return nil, fmt.Errorf("postgres ping: %w", err)
		}
		logger.Info().Msg("Postgres connected")

		applied, err := persistence.NewMigrator(sqlDB, cfg.App.MigrationsDir, backendLogger).Up(ctx)
		if err != nil {
			sqlDB.Close()
			return nil, fmt.Errorf("run migrations: %w", err)
		}
		logger.Info().Int("applied", applied).Msg("migrations applied")

		pg, err := persistence.NewPostgresDatabase(sqlDB, ks, cfg.Cache, cfg.Postgres, backendLogger, metrics)
		if err != nil {
			sqlDB.Close()
			return nil, err
		}
		health.AddCheck("postgres", sqlDB.PingContext)
		return pg, nil

	case BackendRedis:
		client := redis.NewUniversalClient(&redis.UniversalOptions{
			Addrs:    cfg.App.RedisAddrs,
			Password: cfg.App.RedisPassword,
			DB:       cfg.App.RedisDB,
		})
		if err := client.Ping(ctx).Err(); err != nil {
			client.Close()
			return nil, fmt.Errorf("redis ping: %w", err)
		}
		logger.Info().Strs("addrs", cfg.App.RedisAddrs).Msg("Redis connected")

		rdb, err := persistence.NewRedisDatabase(client, ks, cfg.Cache, backendLogger, metrics)
		if err != nil {
			client.Close()
			return nil, err
		}
		health.AddCheck("redis", func(ctx context.Context) error { return client.Ping(ctx).Err() })
		return rdb, nil

	default:
		return nil, fmt.Errorf("unknown backend %q", cfg.App.Backend)
	}
}

func startResponder(
	ctx context.Context,
	cfg *Config,
	nc *nats.Conn,
	js jetstream.JetStream,
	wire codec.Codec,
	owner *service.Owner,
	metrics *observability.Metrics,
) (*messaging.Responder, error) {
	msgLogger := observability.NewLogger("messaging")

	if err := messaging.EnsureStream(ctx, js, msgLogger); err != nil {
		return nil, err
	}

	publisher := messaging.NewPublisher(js, wire, msgLogger, metrics)
	handler := service.NewQueryHandler(owner, wire, metrics)
	responder := messaging.NewResponder(nc, handler, publisher, wire, cfg.App.RequestTimeout, msgLogger,
		messaging.WithReplayCache(cfg.App.ReplayCapacity),
		messaging.WithResponderMetrics(metrics),
	)
	if err := responder.Subscribe(ctx); err != nil {
		return nil, err
	}
	return responder, nil
}

func startIngestion(
	ctx context.Context,
	cfg *Config,
	js jetstream.JetStream,
	wire codec.Codec,
	owner *service.Owner,
	metrics *observability.Metrics,
) (*ingestion.Subscriber, error) {
	ingestLogger := observability.NewLogger("ingestion")

	if err := ingestion.EnsureStreams(ctx, js, ingestLogger); err != nil {
		return nil, err
	}

	subscriber := ingestion.NewSubscriber(js, owner, wire, cfg.App.IngestTimeout, ingestLogger, metrics)
	if err := subscriber.Subscribe(ctx, ingestion.DefaultSubjects()); err != nil {
		subscriber.Stop()
		return nil, err
	}
	return subscriber, nil
}
