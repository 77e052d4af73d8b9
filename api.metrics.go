package main

import (
	"net/http"
	"strconv"
	"time"

	"github.com/julienschmidt/httprouter"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics groups the prometheus collectors of the api server.
// Each instance owns its registry so tests can build many of them.
type Metrics struct {
	registry *prometheus.Registry
	requests *prometheus.CounterVec
	duration *prometheus.HistogramVec
	inflight prometheus.Gauge
}

// NewMetrics registers the http collectors plus the go runtime and process ones.
func NewMetrics() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "library",
			Name:      "http_requests_total",
			Help:      "Number of http requests processed, by method and status code.",
		}, []string{"method", "code"}),
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "library",
			Name:      "http_request_duration_seconds",
			Help:      "Duration of http requests processing.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method"}),
		inflight: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "library",
			Name:      "http_requests_in_flight",
			Help:      "Number of http requests currently being processed.",
		}),
	}
	m.registry.MustRegister(
		m.requests,
		m.duration,
		m.inflight,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return m
}

// Handler exposes the registry in the prometheus text format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

// MetricsMiddleware records the count, the duration and the status code of each request.
// It expects to run behind StatsMiddleware to read the final status code.
func (api *APIHandler) MetricsMiddleware(next httprouter.Handle) httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
		if api.metrics == nil {
			next(w, r, ps)
			return
		}
		start := time.Now()
		api.metrics.inflight.Inc()
		defer api.metrics.inflight.Dec()

		next(w, r, ps)

		code := http.StatusOK
		if cw, ok := w.(*CustomResponseWriter); ok {
			code = cw.Status()
		}
		api.metrics.requests.WithLabelValues(r.Method, strconv.Itoa(code)).Inc()
		api.metrics.duration.WithLabelValues(r.Method).Observe(time.Since(start).Seconds())
	}
}
