// Package metrics exposes the preview server's Prometheus instruments.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "valentine"

// Metrics bundles the instruments and the registry they live in.
type Metrics struct {
	Registry *prometheus.Registry

	GreetingsCreated prometheus.Counter
	CreateFailures   *prometheus.CounterVec
	Views            *prometheus.CounterVec
	Exports          *prometheus.CounterVec
	Requests         *prometheus.CounterVec
	RequestSeconds   *prometheus.HistogramVec
}

// New registers every instrument, plus the process and Go runtime
// collectors, in a fresh registry.
func New() *Metrics {
	m := &Metrics{
		Registry: prometheus.NewRegistry(),
		GreetingsCreated: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "greetings_created_total",
			Help:      "Greetings saved to the store.",
		}),
		CreateFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "greeting_create_failures_total",
			Help:      "Rejected or failed greeting creations by reason.",
		}, []string{"reason"}),
		Views: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "card_views_total",
			Help:      "Card page loads by outcome.",
		}, []string{"state"}),
		Exports: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "card_exports_total",
			Help:      "Card image exports by result.",
		}, []string{"result"}),
		Requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "HTTP requests by method, route and status.",
		}, []string{"method", "route", "status"}),
		RequestSeconds: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency by route.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "route"}),
	}
	m.Registry.MustRegister(
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		collectors.NewGoCollector(),
		m.GreetingsCreated,
		m.CreateFailures,
		m.Views,
		m.Exports,
		m.Requests,
		m.RequestSeconds,
	)
	return m
}

// Handler serves the registry in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.Registry, promhttp.HandlerOpts{Registry: m.Registry})
}

// ObserveRequest records one finished HTTP request.
func (m *Metrics) ObserveRequest(method, route string, status int, d time.Duration) {
	if route == "" {
		route = "unmatched"
	}
	m.Requests.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	m.RequestSeconds.WithLabelValues(method, route).Observe(d.Seconds())
}
