// Package metrics exposes Prometheus collectors for the gateway.
package metrics

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// Registry holds the gateway-specific Prometheus collectors.
	Registry = prometheus.NewRegistry()

	httpInFlight = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "ghostgate",
			Subsystem: "http",
			Name:      "inflight_requests",
			Help:      "Current number of in-flight HTTP requests.",
		},
	)

	httpRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "ghostgate",
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Total number of HTTP requests handled.",
		},
		[]string{"method", "path", "status"},
	)

	httpDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "ghostgate",
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "Duration of HTTP requests.",
			Buckets:   prometheus.ExponentialBuckets(0.005, 2, 10), // 5ms to ~5s
		},
		[]string{"method", "path"},
	)

	cacheLookups = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "ghostgate",
			Subsystem: "cache",
			Name:      "lookups_total",
			Help:      "Total number of reputation cache lookups.",
		},
		[]string{"outcome"}, // hit, miss, error
	)

	cacheEntries = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "ghostgate",
			Subsystem: "cache",
			Name:      "entries",
			Help:      "Current number of cached agent records, expired or not.",
		},
	)

	paymentVerdicts = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "ghostgate",
			Subsystem: "payment",
			Name:      "verdicts_total",
			Help:      "Total number of payment gate outcomes.",
		},
		[]string{"verdict"}, // required, verified, rejected, unreachable
	)

	ledgerFetchDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "ghostgate",
			Subsystem: "ledger",
			Name:      "fetch_duration_seconds",
			Help:      "Duration of upstream registry fetches.",
			Buckets:   prometheus.ExponentialBuckets(0.01, 2, 10),
		},
	)
)

func init() {
	Registry.MustRegister(
		httpInFlight,
		httpRequests,
		httpDuration,
		cacheLookups,
		cacheEntries,
		paymentVerdicts,
		ledgerFetchDuration,
		prometheus.NewProcessCollector(prometheus.ProcessCollectorOpts{}),
		prometheus.NewGoCollector(),
	)
}

// Handler returns an HTTP handler exposing the registered Prometheus metrics.
func Handler() http.Handler {
	return promhttp.HandlerFor(Registry, promhttp.HandlerOpts{})
}

// InstrumentHandler wraps the provided handler with HTTP metrics collection.
func InstrumentHandler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/metrics" {
			next.ServeHTTP(w, r)
			return
		}

		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		start := time.Now()

		httpInFlight.Inc()
		defer httpInFlight.Dec()

		next.ServeHTTP(rec, r)

		duration := time.Since(start)
		path := canonicalPath(r.URL.Path)
		method := strings.ToUpper(r.Method)

		httpRequests.WithLabelValues(method, path, strconv.Itoa(rec.status)).Inc()
		httpDuration.WithLabelValues(method, path).Observe(duration.Seconds())
	})
}

// RecordCacheLookup records the outcome of one cache read.
func RecordCacheLookup(outcome string) {
	cacheLookups.WithLabelValues(outcome).Inc()
}

// SetCacheEntries records the current cache size.
func SetCacheEntries(n int) {
	cacheEntries.Set(float64(n))
}

// RecordPaymentVerdict records one payment gate outcome.
func RecordPaymentVerdict(verdict string) {
	paymentVerdicts.WithLabelValues(verdict).Inc()
}

// RecordLedgerFetch records the duration of one registry fetch.
func RecordLedgerFetch(duration time.Duration) {
	if duration <= 0 {
		duration = time.Millisecond
	}
	ledgerFetchDuration.Observe(duration.Seconds())
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

func (r *statusRecorder) Write(b []byte) (int, error) {
	if r.status == 0 {
		r.status = http.StatusOK
	}
	return r.ResponseWriter.Write(b)
}

// canonicalPath collapses agent addresses out of the path label to keep the
// cardinality bounded.
func canonicalPath(raw string) string {
	trimmed := strings.Trim(raw, "/")
	if trimmed == "" {
		return "/"
	}
	parts := strings.Split(trimmed, "/")
	if parts[0] != "v1" || len(parts) < 2 {
		return "/" + parts[0]
	}
	if parts[1] != "agents" {
		return "/v1/" + parts[1]
	}
	if len(parts) <= 3 {
		return "/v1/agents/:address"
	}
	resource := parts[3]
	return "/v1/agents/:address/" + resource
}
