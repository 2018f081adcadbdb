// Package observability holds the Prometheus metrics exported by the API
// server.
package observability

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	requestsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "tiempo",
		Subsystem: "api",
		Name:      "requests_total",
		Help:      "HTTP requests handled, by route and status code.",
	}, []string{"route", "code"})
	requestDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "tiempo",
		Subsystem: "api",
		Name:      "request_duration_seconds",
		Help:      "HTTP request latency by route.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"route"})
	entriesSaved = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "tiempo",
		Subsystem: "entries",
		Name:      "saved_total",
		Help:      "Time entries inserted through the API.",
	})
	entrySavedGauge = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "tiempo",
		Subsystem: "entries",
		Name:      "last_saved_timestamp_seconds",
		Help:      "Unix timestamp of the most recent entry inserted through the API.",
	})
	signInFailures = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "tiempo",
		Subsystem: "auth",
		Name:      "signin_failures_total",
		Help:      "Rejected sign-in attempts.",
	})
)

func init() {
	prometheus.MustRegister(requestsTotal, requestDuration, entriesSaved, entrySavedGauge, signInFailures)
}

// RecordEntrySaved counts an inserted entry and moves the watermark gauge.
func RecordEntrySaved(ts time.Time) {
	entriesSaved.Inc()
	if ts.IsZero() {
		return
	}
	entrySavedGauge.Set(float64(ts.Unix()))
}

// RecordSignInFailure counts a rejected sign-in.
func RecordSignInFailure() {
	signInFailures.Inc()
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

// Instrument wraps next so each request is counted and timed under route.
func Instrument(route string, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		start := time.Now()
		next.ServeHTTP(rec, r)
		requestDuration.WithLabelValues(route).Observe(time.Since(start).Seconds())
		requestsTotal.WithLabelValues(route, strconv.Itoa(rec.status)).Inc()
	})
}
