package api

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds the Prometheus collectors of the API server
// ⭐ SSOT: 서버 메트릭 정의는 이 구조체에서만
type Metrics struct {
	registry *prometheus.Registry

	RequestsTotal    *prometheus.CounterVec
	RequestDuration  *prometheus.HistogramVec
	AnalysesTotal    *prometheus.CounterVec
	AnalysisDuration *prometheus.HistogramVec
	TradesParsed     prometheus.Counter
	ParseWarnings    prometheus.Counter
	RateLimited      prometheus.Counter
}

// NewMetrics creates the collectors on a private registry
func NewMetrics() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),

		RequestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "riskreport_http_requests_total",
				Help: "HTTP requests by method, route and status code",
			},
			[]string{"method", "route", "status"},
		),

		RequestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "riskreport_http_request_duration_seconds",
				Help:    "HTTP request duration in seconds",
				Buckets: []float64{0.005, 0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
			},
			[]string{"method", "route"},
		),

		AnalysesTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "riskreport_analyses_total",
				Help: "Report analyses by format and outcome",
			},
			[]string{"format", "outcome"},
		),

		AnalysisDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "riskreport_analysis_duration_seconds",
				Help:    "End-to-end analysis duration in seconds",
				Buckets: []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
			},
			[]string{"format"},
		),

		TradesParsed: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "riskreport_trades_parsed_total",
			Help: "Trades accepted into ledgers",
		}),

		ParseWarnings: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "riskreport_parse_warnings_total",
			Help: "Row-level parse warnings reported",
		}),

		RateLimited: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "riskreport_rate_limited_total",
			Help: "Requests rejected by the rate limiter",
		}),
	}

	m.registry.MustRegister(
		m.RequestsTotal,
		m.RequestDuration,
		m.AnalysesTotal,
		m.AnalysisDuration,
		m.TradesParsed,
		m.ParseWarnings,
		m.RateLimited,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return m
}

// Handler serves the registry in the Prometheus text format
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// Registry exposes the underlying registry (tests)
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// ObserveRequest records one HTTP request
func (m *Metrics) ObserveRequest(method, route string, status int, elapsed time.Duration) {
	m.RequestsTotal.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	m.RequestDuration.WithLabelValues(method, route).Observe(elapsed.Seconds())
}

// ObserveAnalysis implements handlers.AnalysisRecorder
func (m *Metrics) ObserveAnalysis(format, outcome string, trades, warnings int, elapsed time.Duration) {
	if format == "" {
		format = "unknown"
	}
	m.AnalysesTotal.WithLabelValues(format, outcome).Inc()
	m.AnalysisDuration.WithLabelValues(format).Observe(elapsed.Seconds())
	m.TradesParsed.Add(float64(trades))
	m.ParseWarnings.Add(float64(warnings))
}
