package api

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const metricsNamespace = "training_report"

// Metrics holds the server's Prometheus collectors. Each instance owns its
// registry so tests can build servers side by side.
type Metrics struct {
	Registry *prometheus.Registry

	RequestDuration *prometheus.HistogramVec
	RecordsImported *prometheus.CounterVec
	ImportFailures  *prometheus.CounterVec
	StoredRecords   prometheus.Gauge
	ReportDuration  *prometheus.HistogramVec
}

func NewMetrics() *Metrics {
	m := &Metrics{
		Registry: prometheus.NewRegistry(),
		RequestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: metricsNamespace,
				Name:      "http_request_duration_seconds",
				Help:      "http request duration in seconds",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"status", "route"},
		),
		RecordsImported: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: metricsNamespace,
				Name:      "records_imported_total",
				Help:      "course runs written, by source",
			},
			[]string{"source"},
		),
		ImportFailures: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: metricsNamespace,
				Name:      "import_failures_total",
				Help:      "rejected imports, by reason",
			},
			[]string{"reason"},
		),
		StoredRecords: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: metricsNamespace,
			Name:      "stored_records",
			Help:      "course runs currently stored",
		}),
		ReportDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: metricsNamespace,
				Name:      "report_duration_seconds",
				Help:      "time spent computing a report",
				Buckets:   []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5},
			},
			[]string{"report"},
		),
	}
	m.Registry.MustRegister(m.RequestDuration, m.RecordsImported, m.ImportFailures, m.StoredRecords, m.ReportDuration)
	return m
}

// Handler serves the registry in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.Registry, promhttp.HandlerOpts{})
}

// Instrument records request latency labelled by chi route pattern, so
// /api/records/{id} is one series regardless of id.
func (m *Metrics) Instrument(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		route := "unmatched"
		if rc := chi.RouteContext(r.Context()); rc != nil {
			if p := rc.RoutePattern(); p != "" {
				route = p
			}
		}
		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}
		m.RequestDuration.With(prometheus.Labels{
			"status": strconv.Itoa(status),
			"route":  route,
		}).Observe(time.Since(start).Seconds())
	})
}

// ObserveReport times a report computation.
func (m *Metrics) ObserveReport(name string, start time.Time) {
	m.ReportDuration.WithLabelValues(name).Observe(time.Since(start).Seconds())
}
