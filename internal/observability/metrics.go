package observability

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics for the state cache.
type Metrics struct {
	// --- Hydration ---
	HydratedEntities  *prometheus.GaugeVec
	HydrationDuration *prometheus.HistogramVec

	// --- Time series ---
	TimeSeriesAdds      *prometheus.CounterVec
	TimeSeriesEvictions *prometheus.CounterVec
	BookUpdates         prometheus.Counter

	// --- Index ---
	IndexSize      *prometheus.GaugeVec
	IndexClears    prometheus.Counter
	ResidualsFound *prometheus.GaugeVec

	// --- Scratch ---
	ScratchPuts prometheus.Counter

	// --- Backend ---
	BackendErrors *prometheus.CounterVec

	// --- Persistence worker ---
	PersistBatchDur        prometheus.Histogram
	PersistBatchSize       prometheus.Histogram
	PersistEntitiesWritten *prometheus.CounterVec
	PersistErrors          *prometheus.CounterVec

	// --- Channel & Backpressure ---
	ChannelSize        *prometheus.GaugeVec
	ChannelCapacity    *prometheus.GaugeVec
	ChannelUtilization *prometheus.GaugeVec

	// --- Messaging ---
	ResponsesPublished *prometheus.CounterVec
	PublishErrors      prometheus.Counter
	RequestsReplayed   prometheus.Counter
	ReplayEvictions    prometheus.Counter

	// --- Ingestion ---
	IngestMessages *prometheus.CounterVec
	IngestDuration *prometheus.HistogramVec

	// --- Query API ---
	QueryRequests *prometheus.CounterVec
	QueryDuration *prometheus.HistogramVec
	QueryErrors   *prometheus.CounterVec
}

// NewMetrics creates all metrics and registers them on reg. Passing a fresh
// prometheus.NewRegistry() keeps independent caches (and tests) apart.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)

	stepBuckets := []float64{0.0005, 0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1.0, 5.0, 10.0}

	return &Metrics{
		// Hydration
		HydratedEntities: factory.NewGaugeVec(prometheus.GaugeOpts{
			Name: "statecache_hydrated_entities",
			Help: "Entities loaded from the backend by the last hydration",
		}, []string{"category"}),

		HydrationDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "statecache_hydration_step_duration_seconds",
			Help:    "Time spent per hydration step",
			Buckets: stepBuckets,
		}, []string{"step"}),

		// Time series
		TimeSeriesAdds: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "statecache_timeseries_adds_total",
			Help: "Samples appended to bounded time series",
		}, []string{"stream"}),

		TimeSeriesEvictions: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "statecache_timeseries_evictions_total",
			Help: "Oldest samples evicted at capacity",
		}, []string{"stream"}),

		BookUpdates: factory.NewCounter(prometheus.CounterOpts{
			Name: "statecache_book_updates_total",
			Help: "Order book deltas and snapshots applied",
		}),

		// Index
		IndexSize: factory.NewGaugeVec(prometheus.GaugeOpts{
			Name: "statecache_index_size",
			Help: "Members of each order/position partition set",
		}, []string{"set"}),

		IndexClears: factory.NewCounter(prometheus.CounterOpts{
			Name: "statecache_index_clears_total",
			Help: "Full relational index clears",
		}),

		ResidualsFound: factory.NewGaugeVec(prometheus.GaugeOpts{
			Name: "statecache_residuals",
			Help: "Open orders/positions found by the last residual check",
		}, []string{"kind"}),

		// Scratch
		ScratchPuts: factory.NewCounter(prometheus.CounterOpts{
			Name: "statecache_scratch_puts_total",
			Help: "Successful scratch store puts",
		}),

		// Backend
		BackendErrors: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "statecache_backend_errors_total",
			Help: "Backend failures by step",
		}, []string{"step"}),

		// Persistence worker
		PersistBatchDur: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "statecache_persist_batch_duration_seconds",
			Help:    "Postgres batch write duration",
			Buckets: []float64{0.0001, 0.0005, 0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25},
		}),

		PersistBatchSize: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "statecache_persist_batch_size",
			Help:    "Entities per batch",
			Buckets: []float64{1, 5, 10, 25, 50, 100, 250, 500},
		}),

		PersistEntitiesWritten: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "statecache_persist_entities_written_total",
			Help: "Entities written to the backend",
		}, []string{"category"}),

		PersistErrors: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "statecache_persist_errors_total",
			Help: "Persistence worker errors",
		}, []string{"error_type"}),

		// Channel & Backpressure
		ChannelSize: factory.NewGaugeVec(prometheus.GaugeOpts{
			Name: "statecache_channel_size",
			Help: "Current items in channel",
		}, []string{"name"}),

		ChannelCapacity: factory.NewGaugeVec(prometheus.GaugeOpts{
			Name: "statecache_channel_capacity",
			Help: "Channel capacity (constant)",
		}, []string{"name"}),

		ChannelUtilization: factory.NewGaugeVec(prometheus.GaugeOpts{
			Name: "statecache_channel_utilization",
			Help: "Channel size / capacity (0.0-1.0)",
		}, []string{"name"}),

		// Messaging
		ResponsesPublished: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "statecache_responses_published_total",
			Help: "Data responses published to the bus",
		}, []string{"payload"}),

		PublishErrors: factory.NewCounter(prometheus.CounterOpts{
			Name: "statecache_publish_errors_total",
			Help: "Failed response publishes",
		}),

		RequestsReplayed: factory.NewCounter(prometheus.CounterOpts{
			Name: "statecache_requests_replayed_total",
			Help: "Retried requests answered from the replay cache",
		}),

		ReplayEvictions: factory.NewCounter(prometheus.CounterOpts{
			Name: "statecache_replay_evictions_total",
			Help: "Responses evicted from the replay cache",
		}),

		// Ingestion
		IngestMessages: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "statecache_ingest_messages_total",
			Help: "Ingested messages by kind and outcome (applied, rejected, retried)",
		}, []string{"kind", "result"}),

		IngestDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "statecache_ingest_apply_duration_seconds",
			Help:    "Decode and apply latency per ingested message",
			Buckets: []float64{0.0001, 0.0005, 0.001, 0.005, 0.01, 0.05, 0.1, 0.5},
		}, []string{"kind"}),

		// Query API
		QueryRequests: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "statecache_query_requests_total",
			Help: "Query requests",
		}, []string{"data_type", "status"}),

		QueryDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "statecache_query_duration_seconds",
			Help:    "Query latency",
			Buckets: []float64{0.0001, 0.0005, 0.001, 0.005, 0.01, 0.05, 0.1, 0.5},
		}, []string{"data_type"}),

		QueryErrors: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "statecache_query_errors_total",
			Help: "Query errors",
		}, []string{"data_type", "code"}),
	}
}

// SetChannelMetrics updates channel utilization metrics.
func (m *Metrics) SetChannelMetrics(name string, size, capacity int) {
	m.ChannelSize.WithLabelValues(name).Set(float64(size))
	m.ChannelCapacity.WithLabelValues(name).Set(float64(capacity))
	if capacity > 0 {
		m.ChannelUtilization.WithLabelValues(name).Set(float64(size) / float64(capacity))
	}
}

// SetIndexSizes publishes partition set sizes.
func (m *Metrics) SetIndexSizes(sizes map[string]int) {
	for name, n := range sizes {
		m.IndexSize.WithLabelValues(name).Set(float64(n))
	}
}
