package observability

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	RequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "activation_requests_total",
			Help: "Total HTTP requests",
		}, []string{"code"},
	)
	Latency = prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "activation_request_duration_seconds",
		Help:    "Request latency seconds",
		Buckets: prometheus.DefBuckets,
	})
	InFlight = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "activation_in_flight",
		Help: "In-flight HTTP requests",
	})
	RequestErrors = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "activation_request_errors_total",
			Help: "Total errors by type",
		}, []string{"type"},
	)
	Resolutions = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "activation_resolutions_total",
			Help: "Activation lookups by outcome",
		}, []string{"outcome"}, // active | inactive | unknown_survey
	)
	SnapshotRefreshes = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "activation_snapshot_refreshes_total",
			Help: "Snapshot rebuilds by result",
		}, []string{"result"},
	)
	SnapshotSurveys = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "activation_snapshot_surveys",
		Help: "Surveys in the current snapshot",
	})
	MonitorEntries = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "activation_monitor_entries_total",
			Help: "SDK monitor entries by event type",
		}, []string{"event_type"},
	)
)

func init() {
	prometheus.MustRegister(RequestsTotal, Latency, InFlight, RequestErrors,
		Resolutions, SnapshotRefreshes, SnapshotSurveys, MonitorEntries)
}

func MetricsHandler() http.Handler { return promhttp.Handler() }

type rec struct {
	http.ResponseWriter
	code int
}

func (r *rec) WriteHeader(code int) {
	r.code = code
	r.ResponseWriter.WriteHeader(code)
}

func Measure(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		InFlight.Inc()
		defer InFlight.Dec()

		rr := &rec{ResponseWriter: w, code: http.StatusOK}
		next.ServeHTTP(rr, r)

		Latency.Observe(time.Since(start).Seconds())
		RequestsTotal.WithLabelValues(strconv.Itoa(rr.code)).Inc()
		if rr.code >= 500 {
			RequestErrors.WithLabelValues("server").Inc()
		} else if rr.code >= 400 {
			RequestErrors.WithLabelValues("client").Inc()
		}
	})
}
