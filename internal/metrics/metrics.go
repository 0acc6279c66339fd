// Package metrics exposes Prometheus collectors for the scrape service.
package metrics

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/jmylchreest/pagewash/internal/version"
	"github.com/jmylchreest/pagewash/pkg/llm"
)

const namespace = "pagewash"

// Metrics owns a private registry so tests and multiple servers in one
// process do not collide on the global one.
type Metrics struct {
	registry *prometheus.Registry

	requests        *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec
	fetches         *prometheus.CounterVec
	fetchDuration   *prometheus.HistogramVec
	chunks          prometheus.Histogram
	llmCalls        *prometheus.CounterVec
	llmDuration     *prometheus.HistogramVec
	llmTokens       *prometheus.CounterVec
}

// New creates and registers all collectors, plus the Go runtime and process
// collectors.
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "HTTP requests by route, method and status code.",
		}, []string{"route", "method", "code"}),
		requestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency by route.",
			Buckets:   []float64{0.01, 0.1, 0.5, 1, 5, 15, 30, 60, 120, 300, 600},
		}, []string{"route"}),
		fetches: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "fetches_total",
			Help:      "Page fetches by fetcher mode and result.",
		}, []string{"mode", "result"}),
		fetchDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "fetch_duration_seconds",
			Help:      "Page fetch latency by fetcher mode.",
			Buckets:   []float64{0.25, 0.5, 1, 2.5, 5, 10, 20, 40, 70},
		}, []string{"mode"}),
		chunks: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "chunks_per_page",
			Help:      "Number of text chunks produced per page.",
			Buckets:   []float64{0, 1, 2, 3, 5, 8, 13, 21},
		}),
		llmCalls: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "llm_calls_total",
			Help:      "Language model calls by provider, model and result.",
		}, []string{"provider", "model", "result"}),
		llmDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "llm_call_duration_seconds",
			Help:      "Language model call latency by provider.",
			Buckets:   prometheus.ExponentialBuckets(0.25, 2, 10),
		}, []string{"provider"}),
		llmTokens: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "llm_tokens_total",
			Help:      "Tokens consumed by direction (input, output).",
		}, []string{"provider", "direction"}),
	}

	buildInfo := prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace:   namespace,
		Name:        "build_info",
		Help:        "Build metadata of the running binary; always 1.",
		ConstLabels: version.Get().Labels(),
	})
	buildInfo.Set(1)

	m.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.requests,
		m.requestDuration,
		m.fetches,
		m.fetchDuration,
		m.chunks,
		m.llmCalls,
		m.llmDuration,
		m.llmTokens,
		buildInfo,
	)
	return m
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

// Registry returns the underlying registry.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// ObserveRequest records one finished HTTP request.
func (m *Metrics) ObserveRequest(route, method string, code int, d time.Duration) {
	m.requests.WithLabelValues(route, method, strconv.Itoa(code)).Inc()
	m.requestDuration.WithLabelValues(route).Observe(d.Seconds())
}

// ObserveFetch records one fetch attempt.
func (m *Metrics) ObserveFetch(mode string, d time.Duration, err error) {
	m.fetches.WithLabelValues(mode, result(err)).Inc()
	m.fetchDuration.WithLabelValues(mode).Observe(d.Seconds())
}

// ObserveChunks records how many chunks a page produced.
func (m *Metrics) ObserveChunks(n int) {
	m.chunks.Observe(float64(n))
}

// OnLLMCall implements llm.Observer.
func (m *Metrics) OnLLMCall(_ context.Context, e llm.CallEvent) {
	m.llmCalls.WithLabelValues(e.Provider, e.Model, result(e.Err)).Inc()
	m.llmDuration.WithLabelValues(e.Provider).Observe(e.Duration.Seconds())
	if e.Err == nil {
		m.llmTokens.WithLabelValues(e.Provider, "input").Add(float64(e.Usage.InputTokens))
		m.llmTokens.WithLabelValues(e.Provider, "output").Add(float64(e.Usage.OutputTokens))
	}
}

func result(err error) string {
	if err != nil {
		return "error"
	}
	return "ok"
}

var _ llm.Observer = (*Metrics)(nil)
