// Package metrics holds Prometheus instruments that are used across
// kapenta.  All collectors are registered with the global registry, so the
// server only has to mount promhttp.Handler() to expose them.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

var (
	RegisteredReports = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "kapenta_registered_reports",
			Help: "Number of report resources registered at boot.",
		})

	RejectedReportsTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "kapenta_rejected_reports_total",
			Help: "Report definitions skipped because of an invalid or reserved path.",
		})

	RendersTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "kapenta_renders_total",
			Help: "Report render attempts by report name, extension, and HTTP status.",
		},
		[]string{"report", "extension", "status"})

	RenderDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "kapenta_render_duration_seconds",
			Help:    "Successful report render latency by report name.",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"report"})

	AuthFailuresTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "kapenta_auth_failures_total",
			Help: "Requests rejected by HTTP Basic Authentication.",
		})

	RateLimitedTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "kapenta_rate_limited_total",
			Help: "Requests rejected by the per-client rate limiter.",
		})
)

func init() {
	prometheus.MustRegister(
		RegisteredReports,
		RejectedReportsTotal,
		RendersTotal,
		RenderDuration,
		AuthFailuresTotal,
		RateLimitedTotal,
	)
}
