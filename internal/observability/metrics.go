package observability

import (
	"context"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"

	"github.com/yungbote/inkforge-backend/internal/platform/logger"
)

const namespace = "inkforge"

type Metrics struct {
	registry *prometheus.Registry

	apiRequests *prometheus.CounterVec
	apiLatency  *prometheus.HistogramVec
	apiInflight prometheus.Gauge

	llmRequests *prometheus.CounterVec
	llmLatency  *prometheus.HistogramVec
	llmTokens   *prometheus.CounterVec

	gatewayDropped *prometheus.CounterVec

	aggregateOps       *prometheus.HistogramVec
	aggregateConflicts *prometheus.CounterVec
	aggregateRetries   *prometheus.CounterVec

	reconciliations  *prometheus.CounterVec
	evidenceAppended prometheus.Counter
	flagsRaised      prometheus.Counter
	issuesReported   *prometheus.CounterVec
	lockWait         *prometheus.HistogramVec

	autosaveFlushes *prometheus.CounterVec
	autosavePending prometheus.Gauge

	graphProjections *prometheus.CounterVec

	dbStats   *prometheus.GaugeVec
	redisUp   prometheus.Gauge
	redisPing prometheus.Gauge
}

var (
	initOnce sync.Once
	instance *Metrics
)

// Init builds the process-wide metrics once. It returns nil when metrics are disabled,
// and every method is safe on a nil receiver.
func Init(log *logger.Logger, enabled bool) *Metrics {
	if !enabled {
		return nil
	}
	initOnce.Do(func() {
		instance = New(prometheus.NewRegistry())
		if log != nil {
			log.Info("prometheus metrics initialized")
		}
	})
	return instance
}

func Current() *Metrics {
	return instance
}

// New registers every collector on reg. Tests pass a fresh registry.
func New(reg *prometheus.Registry) *Metrics {
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	f := promauto.With(reg)
	latency := []float64{0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2, 5, 10, 30}
	return &Metrics{
		registry: reg,
		apiRequests: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace, Subsystem: "api", Name: "requests_total",
			Help: "Total API requests by method, route and status.",
		}, []string{"method", "route", "status"}),
		apiLatency: f.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace, Subsystem: "api", Name: "request_duration_seconds",
			Help: "API request latency in seconds.", Buckets: latency,
		}, []string{"method", "route", "status"}),
		apiInflight: f.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace, Subsystem: "api", Name: "inflight_requests",
			Help: "In-flight API requests.",
		}),
		llmRequests: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace, Subsystem: "llm", Name: "requests_total",
			Help: "Reasoning provider requests by model, endpoint and status.",
		}, []string{"model", "endpoint", "status"}),
		llmLatency: f.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace, Subsystem: "llm", Name: "request_duration_seconds",
			Help: "Reasoning provider latency in seconds.", Buckets: latency,
		}, []string{"model", "endpoint", "status"}),
		llmTokens: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace, Subsystem: "llm", Name: "tokens_total",
			Help: "Tokens consumed by model and direction.",
		}, []string{"model", "kind"}),
		gatewayDropped: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace, Subsystem: "gateway", Name: "dropped_total",
			Help: "Malformed gateway entries discarded during validation.",
		}, []string{"call", "reason"}),
		aggregateOps: f.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace, Subsystem: "aggregate", Name: "operation_duration_seconds",
			Help: "Aggregate write attempt duration by operation and outcome.", Buckets: latency,
		}, []string{"op", "status"}),
		aggregateConflicts: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace, Subsystem: "aggregate", Name: "conflicts_total",
			Help: "Aggregate writes that failed with a conflict.",
		}, []string{"op"}),
		aggregateRetries: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace, Subsystem: "aggregate", Name: "retries_total",
			Help: "Aggregate writes repeated in a fresh transaction after a conflict.",
		}, []string{"op"}),
		reconciliations: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace, Subsystem: "knowledge", Name: "reconciliations_total",
			Help: "Character reconciliations by outcome.",
		}, []string{"outcome"}),
		evidenceAppended: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace, Subsystem: "knowledge", Name: "evidence_appended_total",
			Help: "Evidence rows appended to the ledger.",
		}),
		flagsRaised: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace, Subsystem: "knowledge", Name: "flags_raised_total",
			Help: "Stage regression flags recorded.",
		}),
		issuesReported: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace, Subsystem: "knowledge", Name: "issues_reported_total",
			Help: "Consistency issues returned by kind.",
		}, []string{"kind"}),
		lockWait: f.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace, Subsystem: "knowledge", Name: "lock_wait_seconds",
			Help: "Time spent waiting for a character lock.", Buckets: latency,
		}, []string{"backend"}),
		autosaveFlushes: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace, Subsystem: "autosave", Name: "flushes_total",
			Help: "Autosave flushes by status.",
		}, []string{"status"}),
		autosavePending: f.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace, Subsystem: "autosave", Name: "pending_documents",
			Help: "Documents with unflushed autosave content.",
		}),
		graphProjections: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace, Subsystem: "graph", Name: "projections_total",
			Help: "Relationship graph projections by status.",
		}, []string{"status"}),
		dbStats: f.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace, Subsystem: "db", Name: "pool",
			Help: "database/sql pool statistics.",
		}, []string{"stat"}),
		redisUp: f.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace, Subsystem: "redis", Name: "up",
			Help: "1 when the last Redis ping succeeded.",
		}),
		redisPing: f.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace, Subsystem: "redis", Name: "ping_seconds",
			Help: "Latency of the last Redis ping.",
		}),
	}
}

// Handler serves the registry in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

func (m *Metrics) Registry() *prometheus.Registry {
	if m == nil {
		return nil
	}
	return m.registry
}

func (m *Metrics) ObserveAPI(method, route, status string, dur time.Duration) {
	if m == nil {
		return
	}
	method = orDefault(method, "UNKNOWN")
	route = orDefault(route, "unknown")
	status = orDefault(status, "0")
	m.apiRequests.WithLabelValues(method, route, status).Inc()
	m.apiLatency.WithLabelValues(method, route, status).Observe(dur.Seconds())
}

func (m *Metrics) ApiInflightInc() {
	if m == nil {
		return
	}
	m.apiInflight.Inc()
}

func (m *Metrics) ApiInflightDec() {
	if m == nil {
		return
	}
	m.apiInflight.Dec()
}

func (m *Metrics) ObserveLLMRequest(model, endpoint, status string, dur time.Duration, inputTokens, outputTokens int) {
	if m == nil {
		return
	}
	model = orDefault(model, "unknown")
	endpoint = orDefault(endpoint, "unknown")
	status = orDefault(status, "0")
	m.llmRequests.WithLabelValues(model, endpoint, status).Inc()
	if dur > 0 {
		m.llmLatency.WithLabelValues(model, endpoint, status).Observe(dur.Seconds())
	}
	if inputTokens > 0 {
		m.llmTokens.WithLabelValues(model, "input").Add(float64(inputTokens))
	}
	if outputTokens > 0 {
		m.llmTokens.WithLabelValues(model, "output").Add(float64(outputTokens))
	}
}

func (m *Metrics) IncGatewayDropped(call, reason string) {
	if m == nil {
		return
	}
	m.gatewayDropped.WithLabelValues(orDefault(call, "unknown"), orDefault(reason, "unknown")).Inc()
}

func (m *Metrics) ObserveAggregateOperation(op, status string, dur time.Duration) {
	if m == nil {
		return
	}
	m.aggregateOps.WithLabelValues(orDefault(op, "unknown"), orDefault(status, "unknown")).Observe(dur.Seconds())
}

func (m *Metrics) IncAggregateConflict(op string) {
	if m == nil {
		return
	}
	m.aggregateConflicts.WithLabelValues(orDefault(op, "unknown")).Inc()
}

func (m *Metrics) IncAggregateRetry(op string) {
	if m == nil {
		return
	}
	m.aggregateRetries.WithLabelValues(orDefault(op, "unknown")).Inc()
}

// ObserveReconciliation records one character outcome: created, changed, unchanged or failed.
func (m *Metrics) ObserveReconciliation(outcome string, evidence, flags int) {
	if m == nil {
		return
	}
	m.reconciliations.WithLabelValues(orDefault(outcome, "unknown")).Inc()
	if evidence > 0 {
		m.evidenceAppended.Add(float64(evidence))
	}
	if flags > 0 {
		m.flagsRaised.Add(float64(flags))
	}
}

func (m *Metrics) IncIssue(kind string) {
	if m == nil {
		return
	}
	m.issuesReported.WithLabelValues(orDefault(kind, "unknown")).Inc()
}

func (m *Metrics) ObserveLockWait(backend string, dur time.Duration) {
	if m == nil {
		return
	}
	m.lockWait.WithLabelValues(orDefault(backend, "unknown")).Observe(dur.Seconds())
}

func (m *Metrics) IncAutosaveFlush(status string) {
	if m == nil {
		return
	}
	m.autosaveFlushes.WithLabelValues(orDefault(status, "unknown")).Inc()
}

func (m *Metrics) SetAutosavePending(n int) {
	if m == nil {
		return
	}
	m.autosavePending.Set(float64(n))
}

func (m *Metrics) IncGraphProjection(status string) {
	if m == nil {
		return
	}
	m.graphProjections.WithLabelValues(orDefault(status, "unknown")).Inc()
}

// StartDBCollector samples connection pool statistics until ctx is done.
func (m *Metrics) StartDBCollector(ctx context.Context, log *logger.Logger, db *gorm.DB, interval time.Duration) {
	if m == nil || db == nil {
		return
	}
	if interval <= 0 {
		interval = 15 * time.Second
	}
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				sqlDB, err := db.DB()
				if err != nil {
					if log != nil {
						log.Warn("metrics: db stats unavailable", "error", err)
					}
					continue
				}
				stats := sqlDB.Stats()
				m.dbStats.WithLabelValues("open_connections").Set(float64(stats.OpenConnections))
				m.dbStats.WithLabelValues("in_use").Set(float64(stats.InUse))
				m.dbStats.WithLabelValues("idle").Set(float64(stats.Idle))
				m.dbStats.WithLabelValues("wait_count").Set(float64(stats.WaitCount))
				m.dbStats.WithLabelValues("wait_duration_seconds").Set(stats.WaitDuration.Seconds())
				m.dbStats.WithLabelValues("max_open_connections").Set(float64(stats.MaxOpenConnections))
			}
		}
	}()
}

// StartRedisCollector pings rdb on every tick until ctx is done.
func (m *Metrics) StartRedisCollector(ctx context.Context, log *logger.Logger, rdb redis.UniversalClient, interval time.Duration) {
	if m == nil || rdb == nil {
		return
	}
	if interval <= 0 {
		interval = 15 * time.Second
	}
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				start := time.Now()
				if err := rdb.Ping(ctx).Err(); err != nil {
					m.redisUp.Set(0)
					if log != nil {
						log.Warn("metrics: redis ping failed", "error", err)
					}
					continue
				}
				m.redisUp.Set(1)
				m.redisPing.Set(time.Since(start).Seconds())
			}
		}
	}()
}

func orDefault(v, def string) string {
	v = strings.TrimSpace(v)
	if v == "" {
		return def
	}
	return v
}
