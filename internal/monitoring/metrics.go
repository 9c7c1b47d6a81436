package monitoring

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics bundles the Prometheus collectors for the service. A fresh
// registry per instance keeps tests independent.
type Metrics struct {
	registry *prometheus.Registry

	MirrorWrites      *prometheus.CounterVec
	MirrorFailures    *prometheus.CounterVec
	MirrorRowsMissing *prometheus.CounterVec
	HTTPRequests      *prometheus.CounterVec
}

func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		MirrorWrites: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "mirror_sheet_writes_total",
			Help: "Rows upserted or cleared in the spreadsheet mirror.",
		}, []string{"kind"}),
		MirrorFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "mirror_sheet_failures_total",
			Help: "Spreadsheet operations that failed and were discarded.",
		}, []string{"kind"}),
		MirrorRowsMissing: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "mirror_rows_missing_total",
			Help: "Ticket codes without a pre-provisioned spreadsheet row.",
		}, []string{"tab"}),
		HTTPRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "HTTP requests by method, path and status.",
		}, []string{"method", "path", "status"}),
	}

	m.registry.MustRegister(m.MirrorWrites, m.MirrorFailures, m.MirrorRowsMissing, m.HTTPRequests)
	return m
}

// Handler serves the /metrics endpoint for this instance's registry.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
