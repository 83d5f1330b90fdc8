package service

import (
	"fmt"
	"net/http"
	"runtime"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// MetricsService encapsulates Prometheus instrumentation. All methods are
// safe on a nil receiver.
type MetricsService struct {
	registry        *prometheus.Registry
	handler         http.Handler
	requestDuration *prometheus.HistogramVec
	requestTotal    *prometheus.CounterVec
	cacheLatency    prometheus.Histogram
	cacheWrite      prometheus.Histogram
	cacheLookups    *prometheus.CounterVec
	dbQueryDuration *prometheus.HistogramVec

	validations      *prometheus.CounterVec
	conflicts        *prometheus.CounterVec
	validationLength prometheus.Histogram
	layoutBuilds     *prometheus.CounterVec
	resolverReloads  prometheus.Counter
	jobOutcomes      *prometheus.CounterVec
}

// NewMetricsService registers the collectors on a private registry.
func NewMetricsService() *MetricsService {
	registry := prometheus.NewRegistry()

	m := &MetricsService{
		registry: registry,
		requestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "Duration of HTTP requests in seconds",
			Buckets: prometheus.DefBuckets,
		}, []string{"method", "path", "status"}),
		requestTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests",
		}, []string{"method", "path", "status"}),
		cacheLatency: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "cache_latency_seconds",
			Help:    "Latency for cache lookups",
			Buckets: prometheus.DefBuckets,
		}),
		cacheWrite: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "cache_write_seconds",
			Help:    "Latency for cache writes",
			Buckets: prometheus.DefBuckets,
		}),
		cacheLookups: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "cache_lookups_total",
			Help: "Cache lookups by outcome",
		}, []string{"result"}),
		dbQueryDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "db_query_duration_seconds",
			Help:    "Duration of database queries",
			Buckets: prometheus.DefBuckets,
		}, []string{"query"}),
		validations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "timetable_validations_total",
			Help: "Timetable validation runs by level and outcome",
		}, []string{"level", "consistent"}),
		conflicts: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "timetable_conflicts_total",
			Help: "Conflicts reported by validation runs",
		}, []string{"level"}),
		validationLength: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "timetable_validation_seconds",
			Help:    "Duration of a full validation run",
			Buckets: prometheus.DefBuckets,
		}),
		layoutBuilds: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "timetable_layout_builds_total",
			Help: "Layouts computed (cache misses included)",
		}, []string{"kind"}),
		resolverReloads: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "timetable_resolver_reloads_total",
			Help: "Attendance roster reloads",
		}),
		jobOutcomes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "timetable_jobs_total",
			Help: "Background validation jobs by outcome",
		}, []string{"outcome"}),
	}

	goroutines := prometheus.NewGaugeFunc(prometheus.GaugeOpts{
		Name: "goroutines_total",
		Help: "Total number of goroutines",
	}, func() float64 {
		return float64(runtime.NumGoroutine())
	})

	registry.MustRegister(
		m.requestDuration, m.requestTotal, m.cacheLatency, m.cacheWrite, m.cacheLookups, m.dbQueryDuration,
		m.validations, m.conflicts, m.validationLength, m.layoutBuilds, m.resolverReloads, m.jobOutcomes,
		goroutines,
	)
	m.handler = promhttp.HandlerFor(registry, promhttp.HandlerOpts{})
	return m
}

// Handler exposes the Prometheus HTTP handler.
func (m *MetricsService) Handler() http.Handler {
	if m == nil {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusServiceUnavailable)
		})
	}
	return m.handler
}

// Registry returns the underlying registry, mainly for tests.
func (m *MetricsService) Registry() *prometheus.Registry {
	if m == nil {
		return nil
	}
	return m.registry
}

// ObserveHTTPRequest records request metrics.
func (m *MetricsService) ObserveHTTPRequest(method, path string, status int, duration time.Duration) {
	if m == nil {
		return
	}
	labelStatus := fmt.Sprintf("%d", status)
	m.requestDuration.WithLabelValues(method, path, labelStatus).Observe(duration.Seconds())
	m.requestTotal.WithLabelValues(method, path, labelStatus).Inc()
}

// RecordCacheOperation records a cache lookup.
func (m *MetricsService) RecordCacheOperation(hit bool, duration time.Duration) {
	if m == nil {
		return
	}
	m.cacheLatency.Observe(duration.Seconds())
	result := "miss"
	if hit {
		result = "hit"
	}
	m.cacheLookups.WithLabelValues(result).Inc()
}

// ObserveCacheWrite tracks the duration of cache writes.
func (m *MetricsService) ObserveCacheWrite(duration time.Duration) {
	if m == nil {
		return
	}
	m.cacheWrite.Observe(duration.Seconds())
}

// ObserveDBQuery records database query timing.
func (m *MetricsService) ObserveDBQuery(label string, duration time.Duration) {
	if m == nil {
		return
	}
	m.dbQueryDuration.WithLabelValues(label).Observe(duration.Seconds())
}

// RecordValidation records the outcome of one validation run.
func (m *MetricsService) RecordValidation(level string, conflicts int, duration time.Duration) {
	if m == nil {
		return
	}
	m.validations.WithLabelValues(level, fmt.Sprintf("%t", conflicts == 0)).Inc()
	m.conflicts.WithLabelValues(level).Add(float64(conflicts))
	m.validationLength.Observe(duration.Seconds())
}

// RecordLayoutBuild counts a computed layout of the given kind ("week" or "periodic").
func (m *MetricsService) RecordLayoutBuild(kind string) {
	if m == nil {
		return
	}
	m.layoutBuilds.WithLabelValues(kind).Inc()
}

// RecordResolverReload counts a roster reload.
func (m *MetricsService) RecordResolverReload() {
	if m == nil {
		return
	}
	m.resolverReloads.Inc()
}

// RecordJob counts a finished background job ("finished", "retry" or "failed").
func (m *MetricsService) RecordJob(outcome string) {
	if m == nil {
		return
	}
	m.jobOutcomes.WithLabelValues(outcome).Inc()
}

// RegisterQueueDepth exposes the number of buffered jobs returned by depth.
func (m *MetricsService) RegisterQueueDepth(depth func() int) {
	if m == nil || depth == nil {
		return
	}
	m.registry.MustRegister(prometheus.NewGaugeFunc(prometheus.GaugeOpts{
		Name: "timetable_jobs_pending",
		Help: "Validation jobs waiting in the queue buffer",
	}, func() float64 {
		return float64(depth())
	}))
}
