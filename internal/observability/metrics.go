// Package observability provides Prometheus metrics and HTTP middleware
// for the study-buddy service.
package observability

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// LLMBuckets covers model latencies from 100ms to 2 minutes.
var LLMBuckets = []float64{0.1, 0.5, 1, 2, 5, 10, 30, 60, 120}

// Metrics holds every collector the service exports. A nil *Metrics is valid
// and records nothing.
type Metrics struct {
	registry *prometheus.Registry

	RequestsTotal      *prometheus.CounterVec
	RequestDuration    *prometheus.HistogramVec
	GenerationsTotal   *prometheus.CounterVec
	GenerationDuration *prometheus.HistogramVec
	TokensTotal        *prometheus.CounterVec
	SessionsActive     prometheus.Gauge
}

func NewMetrics() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		RequestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{Name: "studybuddy_http_requests_total", Help: "HTTP requests"},
			[]string{"method", "route", "status"},
		),
		RequestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{Name: "studybuddy_http_request_duration_seconds", Help: "HTTP request duration", Buckets: LLMBuckets},
			[]string{"method", "route"},
		),
		GenerationsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{Name: "studybuddy_generations_total", Help: "Model generations by action and outcome"},
			[]string{"action", "outcome"},
		),
		GenerationDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{Name: "studybuddy_generation_duration_seconds", Help: "Model generation latency", Buckets: LLMBuckets},
			[]string{"action"},
		),
		TokensTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{Name: "studybuddy_generation_tokens_total", Help: "Tokens by direction"},
			[]string{"direction"},
		),
		SessionsActive: prometheus.NewGauge(
			prometheus.GaugeOpts{Name: "studybuddy_sessions_active", Help: "Sessions held in memory"},
		),
	}
	m.registry.MustRegister(
		m.RequestsTotal,
		m.RequestDuration,
		m.GenerationsTotal,
		m.GenerationDuration,
		m.TokensTotal,
		m.SessionsActive,
		prometheus.NewGoCollector(),
		prometheus.NewProcessCollector(prometheus.ProcessCollectorOpts{}),
	)
	return m
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

func (m *Metrics) ObserveGeneration(action, outcome string, d time.Duration) {
	if m == nil {
		return
	}
	m.GenerationsTotal.WithLabelValues(action, outcome).Inc()
	m.GenerationDuration.WithLabelValues(action).Observe(d.Seconds())
}

func (m *Metrics) AddTokens(prompt, response int) {
	if m == nil {
		return
	}
	m.TokensTotal.WithLabelValues("input").Add(float64(prompt))
	m.TokensTotal.WithLabelValues("output").Add(float64(response))
}

func (m *Metrics) SetSessions(n int) {
	if m == nil {
		return
	}
	m.SessionsActive.Set(float64(n))
}

// Middleware records request count and latency. route should be the mux
// pattern, not the raw path, to keep label cardinality bounded.
func (m *Metrics) Middleware(route string, next http.Handler) http.Handler {
	if m == nil {
		return next
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		sw := &StatusWriter{ResponseWriter: w, Status: http.StatusOK}
		next.ServeHTTP(sw, r)
		status := strconv.Itoa(sw.Status/100) + "xx"
		m.RequestsTotal.WithLabelValues(r.Method, route, status).Inc()
		m.RequestDuration.WithLabelValues(r.Method, route).Observe(time.Since(start).Seconds())
	})
}

// StatusWriter captures the status code written by a handler.
type StatusWriter struct {
	http.ResponseWriter
	Status  int
	written bool
}

func (w *StatusWriter) WriteHeader(code int) {
	if !w.written {
		w.Status = code
		w.written = true
	}
	w.ResponseWriter.WriteHeader(code)
}

func (w *StatusWriter) Write(b []byte) (int, error) {
	w.written = true
	return w.ResponseWriter.Write(b)
}

func (w *StatusWriter) Unwrap() http.ResponseWriter { return w.ResponseWriter }
