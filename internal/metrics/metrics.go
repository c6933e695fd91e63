// Package metrics exposes Prometheus collectors for inbound HTTP traffic and
// outbound Appwrite calls.
package metrics

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "aora"

// Metrics owns a registry and the collectors registered on it.
type Metrics struct {
	registry *prometheus.Registry

	requests *prometheus.CounterVec
	duration *prometheus.HistogramVec
	inFlight prometheus.Gauge

	upstreamRequests *prometheus.CounterVec
	upstreamDuration *prometheus.HistogramVec
	upstreamInFlight prometheus.Gauge
}

// New registers the collectors on a fresh registry.
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "HTTP requests served, by route, method and status code.",
		}, []string{"code", "method", "route"}),
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "Latency of HTTP requests served.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"code", "method", "route"}),
		inFlight: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "requests_in_flight",
			Help:      "HTTP requests currently being served.",
		}),
		upstreamRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "appwrite",
			Name:      "requests_total",
			Help:      "Requests sent to Appwrite, by method and status code.",
		}, []string{"code", "method"}),
		upstreamDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "appwrite",
			Name:      "request_duration_seconds",
			Help:      "Latency of requests sent to Appwrite.",
			Buckets:   []float64{.05, .1, .25, .5, 1, 2.5, 5, 10, 30, 60},
		}, []string{"code", "method"}),
		upstreamInFlight: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "appwrite",
			Name:      "requests_in_flight",
			Help:      "Requests to Appwrite awaiting a response.",
		}),
	}

	m.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.requests, m.duration, m.inFlight,
		m.upstreamRequests, m.upstreamDuration, m.upstreamInFlight,
	)
	return m
}

// Registry returns the registry backing the collectors.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

// Middleware records request counts and latencies. It must run inside a chi
// router so the matched route pattern is available as a label.
func (m *Metrics) Middleware(next http.Handler) http.Handler {
	route := promhttp.WithLabelFromCtx("route", routePattern)
	h := promhttp.InstrumentHandlerDuration(m.duration, next, route)
	h = promhttp.InstrumentHandlerCounter(m.requests, h, route)
	return promhttp.InstrumentHandlerInFlight(m.inFlight, h)
}

// InstrumentTransport wraps an outbound transport with the Appwrite collectors.
func (m *Metrics) InstrumentTransport(next http.RoundTripper) http.RoundTripper {
	if next == nil {
		next = http.DefaultTransport
	}
	rt := promhttp.InstrumentRoundTripperDuration(m.upstreamDuration, next)
	rt = promhttp.InstrumentRoundTripperCounter(m.upstreamRequests, rt)
	return promhttp.InstrumentRoundTripperInFlight(m.upstreamInFlight, rt)
}

func routePattern(ctx context.Context) string {
	rctx := chi.RouteContext(ctx)
	if rctx == nil {
		return "unmatched"
	}
	if pattern := rctx.RoutePattern(); pattern != "" {
		return pattern
	}
	return "unmatched"
}
