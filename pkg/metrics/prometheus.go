// Package metrics provides Prometheus metrics for the nailbiter service.
package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Manager owns every collector the service exports.
type Manager struct {
	namespace      string
	subsystem      string
	latencyBuckets []float64
	registry       prometheus.Registerer

	// Scoring
	gamesScored      *prometheus.CounterVec
	scoringErrors    *prometheus.CounterVec
	excitementScore  prometheus.Histogram
	leadChanges      prometheus.Histogram
	scoringLatency   prometheus.Histogram
	rankingRuns      prometheus.Counter
	rankingRunQueued prometheus.Counter

	// Game data source
	sourceRequests *prometheus.CounterVec
	sourceLatency  *prometheus.HistogramVec

	// Queue
	queueSize      prometheus.Gauge
	queueCapacity  prometheus.Gauge
	queueEnqueued  prometheus.Counter
	queueDequeued  prometheus.Counter
	queueRejected  *prometheus.CounterVec
	workerCount    prometheus.Gauge
	workerBusy     prometheus.Gauge
	workerDuration prometheus.Histogram

	// Repository
	storedGames prometheus.Gauge
	storeErrors *prometheus.CounterVec

	// HTTP
	httpRequests        *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec
}

var (
	customRegistry = prometheus.NewRegistry()                           //nolint:gochecknoglobals // service-wide registry
	globalManager  = NewManager(WithPrometheusRegistry(customRegistry)) //nolint:gochecknoglobals // singleton used by the Record* helpers
	runtimeOnce    sync.Once                                            //nolint:gochecknoglobals // guards RegisterRuntimeCollectors
)

// NewManager creates a manager and registers its collectors.
func NewManager(opts ...Option) *Manager {
	m := &Manager{
		namespace:      "nailbiter",
		subsystem:      "excitement",
		latencyBuckets: []float64{1, 5, 10, 25, 50, 100, 250, 500, 1000, 2500, 5000},
		registry:       prometheus.DefaultRegisterer,
	}
	for _, opt := range opts {
		opt(m)
	}
	m.initializeMetrics()
	return m
}

func (m *Manager) initializeMetrics() { //nolint:funlen // one block per collector
	auto := promauto.With(m.registry)

	m.gamesScored = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "games_scored_total",
		Help:      "Games scored, by verdict",
	}, []string{"verdict"})

	m.scoringErrors = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "scoring_errors_total",
		Help:      "Traces rejected by the scorer, by error kind",
	}, []string{"kind"})

	m.excitementScore = auto.NewHistogram(prometheus.HistogramOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "score",
		Help:      "Distribution of excitement scores",
		Buckets:   prometheus.LinearBuckets(0, 1, 11), // 0-10 scale
	})

	m.leadChanges = auto.NewHistogram(prometheus.HistogramOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "lead_changes",
		Help:      "Distribution of lead changes per game",
		Buckets:   prometheus.LinearBuckets(0, 2, 11),
	})

	m.scoringLatency = auto.NewHistogram(prometheus.HistogramOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "job_latency_milliseconds",
		Help:      "Time to fetch, score and store one game",
		Buckets:   m.latencyBuckets,
	})

	m.rankingRuns = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "ranking_runs_total",
		Help:      "Ranking runs started",
	})

	m.rankingRunQueued = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "ranking_jobs_queued_total",
		Help:      "Games queued by ranking runs",
	})

	m.sourceRequests = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: "source",
		Name:      "requests_total",
		Help:      "Game data source requests, by endpoint and outcome",
	}, []string{"endpoint", "outcome"})

	m.sourceLatency = auto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: m.namespace,
		Subsystem: "source",
		Name:      "request_latency_milliseconds",
		Help:      "Game data source request latency",
		Buckets:   m.latencyBuckets,
	}, []string{"endpoint"})

	m.queueSize = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: "queue",
		Name:      "size",
		Help:      "Jobs waiting in the queue",
	})

	m.queueCapacity = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: "queue",
		Name:      "capacity",
		Help:      "Maximum jobs the queue holds",
	})

	m.queueEnqueued = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: "queue",
		Name:      "enqueued_total",
		Help:      "Jobs accepted by the queue",
	})

	m.queueDequeued = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: "queue",
		Name:      "dequeued_total",
		Help:      "Jobs handed to workers",
	})

	m.queueRejected = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: "queue",
		Name:      "rejected_total",
		Help:      "Jobs refused by the queue, by reason",
	}, []string{"reason"})

	m.workerCount = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: "worker",
		Name:      "count",
		Help:      "Configured workers",
	})

	m.workerBusy = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: "worker",
		Name:      "busy",
		Help:      "Workers currently processing a job",
	})

	m.workerDuration = auto.NewHistogram(prometheus.HistogramOpts{
		Namespace: m.namespace,
		Subsystem: "worker",
		Name:      "job_duration_milliseconds",
		Help:      "Wall time of worker jobs, including failures",
		Buckets:   m.latencyBuckets,
	})

	m.storedGames = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: "store",
		Name:      "games",
		Help:      "Ranked games held by the repository",
	})

	m.storeErrors = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: "store",
		Name:      "errors_total",
		Help:      "Repository errors, by operation",
	}, []string{"op"})

	m.httpRequests = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: "http",
		Name:      "requests_total",
		Help:      "HTTP requests by endpoint, method and status",
	}, []string{"endpoint", "method", "status_code"})

	m.httpRequestDuration = auto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: m.namespace,
		Subsystem: "http",
		Name:      "request_duration_milliseconds",
		Help:      "HTTP request duration in milliseconds",
		Buckets:   m.latencyBuckets,
	}, []string{"endpoint", "method", "status_code"})
}

// RecordGameScored counts a scored game and observes its statistics.
func RecordGameScored(verdict string, score float64, leadChanges int) {
	globalManager.gamesScored.WithLabelValues(verdict).Inc()
	globalManager.excitementScore.Observe(score)
	globalManager.leadChanges.Observe(float64(leadChanges))
}

// RecordScoringError counts a rejected trace. kind is a stable error code.
func RecordScoringError(kind string) {
	if kind == "" {
		kind = "other"
	}
	globalManager.scoringErrors.WithLabelValues(kind).Inc()
}

// RecordJobLatency observes the end-to-end time of a successful job.
func RecordJobLatency(latencyMs float64) {
	globalManager.scoringLatency.Observe(latencyMs)
}

// RecordRankingRun counts a ranking run and the games it queued.
func RecordRankingRun(queued int) {
	globalManager.rankingRuns.Inc()
	globalManager.rankingRunQueued.Add(float64(queued))
}

// RecordSourceRequest records one call to the game data source.
func RecordSourceRequest(endpoint, outcome string, latencyMs float64) {
	globalManager.sourceRequests.WithLabelValues(endpoint, outcome).Inc()
	globalManager.sourceLatency.WithLabelValues(endpoint).Observe(latencyMs)
}

// UpdateQueueSize sets the current queue size.
func UpdateQueueSize(size int) {
	globalManager.queueSize.Set(float64(size))
}

// UpdateQueueCapacity sets the maximum queue capacity.
func UpdateQueueCapacity(capacity int) {
	globalManager.queueCapacity.Set(float64(capacity))
}

// RecordQueueEnqueue increments the enqueue counter.
func RecordQueueEnqueue() {
	globalManager.queueEnqueued.Inc()
}

// RecordQueueDequeue increments the dequeue counter.
func RecordQueueDequeue() {
	globalManager.queueDequeued.Inc()
}

// RecordQueueRejected counts a refused enqueue.
func RecordQueueRejected(reason string) {
	globalManager.queueRejected.WithLabelValues(reason).Inc()
}

// UpdateWorkerCount sets the configured worker count.
func UpdateWorkerCount(count int) {
	globalManager.workerCount.Set(float64(count))
}

// WorkerBusy marks a worker as busy (+1) or idle (-1).
func WorkerBusy(delta int) {
	globalManager.workerBusy.Add(float64(delta))
}

// RecordWorkerDuration observes a worker job's wall time.
func RecordWorkerDuration(latencyMs float64) {
	globalManager.workerDuration.Observe(latencyMs)
}

// UpdateStoredGames sets the repository size.
func UpdateStoredGames(count int) {
	globalManager.storedGames.Set(float64(count))
}

// RecordStoreError counts a repository failure for op.
func RecordStoreError(op string) {
	globalManager.storeErrors.WithLabelValues(op).Inc()
}

// RecordHTTPRequest records a request and its duration.
func RecordHTTPRequest(endpoint, method, statusCode string, durationMs float64) {
	globalManager.httpRequests.WithLabelValues(endpoint, method, statusCode).Inc()
	globalManager.httpRequestDuration.WithLabelValues(endpoint, method, statusCode).Observe(durationMs)
}

// GetRegistry returns the registry all service metrics live on.
func GetRegistry() *prometheus.Registry {
	return customRegistry
}

// RegisterRuntimeCollectors adds Go runtime and process collectors to the
// service registry. Safe to call more than once.
func RegisterRuntimeCollectors() {
	runtimeOnce.Do(func() {
		customRegistry.MustRegister(
			collectors.NewGoCollector(),
			collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		)
	})
}
