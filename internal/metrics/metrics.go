// Prometheus collectors for the coordinator. Init registers them on
// the default registry; main calls it exactly once so tests can use
// the collectors without tripping duplicate registration.

package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	httpInFlight = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "http_in_flight_requests",
		Help: "In-flight HTTP requests.",
	})

	httpRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests.",
		},
		[]string{"method", "path", "status"},
	)

	httpRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request latencies in seconds.",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path", "status"},
	)

	leaseRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "lease_requests_total",
			Help: "Lease acquisition attempts by outcome.",
		},
		[]string{"outcome"},
	)

	leasesSweptTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "leases_swept_total",
		Help: "Leases removed by the heartbeat sweeper.",
	})

	linkCacheRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "link_cache_requests_total",
			Help: "Link cache lookups by result.",
		},
		[]string{"result"},
	)

	linkCacheEvictedTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "link_cache_evicted_total",
		Help: "Cached links removed after passing their expiry.",
	})

	credentialChecksTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "credential_checks_total",
			Help: "Upstream credential checks by outcome.",
		},
		[]string{"outcome"},
	)

	accountsDisabledTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "accounts_disabled_total",
		Help: "Accounts disabled after a credential expired or was rejected.",
	})
)

// Init registers all collectors on the default registry.
func Init() {
	prometheus.MustRegister(
		httpInFlight, httpRequestsTotal, httpRequestDuration,
		leaseRequestsTotal, leasesSweptTotal,
		linkCacheRequestsTotal, linkCacheEvictedTotal,
		credentialChecksTotal, accountsDisabledTotal,
	)
}

// Handler exposes the default registry for scraping.
func Handler() http.Handler {
	return promhttp.Handler()
}

// ObserveLeaseRequest records the outcome of a lease acquisition
// attempt ("granted" or "conflict").
func ObserveLeaseRequest(outcome string) {
	leaseRequestsTotal.WithLabelValues(outcome).Inc()
}

// AddSweptLeases records leases removed by the sweeper.
func AddSweptLeases(n int64) {
	leasesSweptTotal.Add(float64(n))
}

// ObserveLinkCache records a cache lookup ("hit" or "miss").
func ObserveLinkCache(result string) {
	linkCacheRequestsTotal.WithLabelValues(result).Inc()
}

// AddEvictedLinks records cache entries dropped past expiry.
func AddEvictedLinks(n int64) {
	linkCacheEvictedTotal.Add(float64(n))
}

// ObserveCredentialCheck records an upstream check outcome ("valid",
// "expired", "rejected" or "error").
func ObserveCredentialCheck(outcome string) {
	credentialChecksTotal.WithLabelValues(outcome).Inc()
}

// AddDisabledAccounts records accounts locked out by the validator.
func AddDisabledAccounts(n int64) {
	accountsDisabledTotal.Add(float64(n))
}

// Instrument wraps a handler with request counting and latency
// measurement.
func Instrument(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		path := r.URL.Path
		method := r.Method

		httpInFlight.Inc()
		start := time.Now()

		sw := &statusWriter{ResponseWriter: w, code: 200}
		next.ServeHTTP(sw, r)

		duration := time.Since(start).Seconds()
		status := strconv.Itoa(sw.code)

		httpRequestDuration.WithLabelValues(method, path, status).Observe(duration)
		httpRequestsTotal.WithLabelValues(method, path, status).Inc()
		httpInFlight.Dec()
	})
}

type statusWriter struct {
	http.ResponseWriter
	code int
}

func (w *statusWriter) WriteHeader(code int) {
	w.code = code
	w.ResponseWriter.WriteHeader(code)
}
