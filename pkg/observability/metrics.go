// Package observability provides Prometheus metrics for gpt-cli: provider
// call outcomes and latency, streaming behavior, outbound HTTP traffic, and
// the request counters of the mock backend.
//
// A CLI process is short-lived, so metrics are exported by writing the
// default registry to a node-exporter textfile (see WriteTextfile) rather
// than by serving /metrics. The mock backend serves /metrics directly.
package observability

import "github.com/prometheus/client_golang/prometheus"

// LLMBuckets defines histogram buckets suited for LLM inference latencies,
// ranging from 100ms to 120s.
var LLMBuckets = []float64{0.1, 0.5, 1, 2, 5, 10, 30, 60, 120}

// Outcome label values.
const (
	StatusOK    = "ok"
	StatusError = "error"
)

// Mode label values.
const (
	ModeStream   = "stream"
	ModeComplete = "complete"
)

var (
	// ProviderRequestsTotal counts provider calls by outcome.
	ProviderRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "gptcli_provider_requests_total",
			Help: "Provider calls",
		},
		[]string{"provider", "model", "mode", "status"},
	)

	// ProviderLatency records provider call latency in seconds. For streams
	// it covers the whole stream, not just the time to first byte.
	ProviderLatency = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "gptcli_provider_latency_seconds",
			Help:    "Provider latency",
			Buckets: LLMBuckets,
		},
		[]string{"provider", "mode"},
	)

	// StreamFragmentsTotal counts text fragments received from streams.
	StreamFragmentsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "gptcli_stream_fragments_total",
			Help: "Streamed text fragments",
		},
		[]string{"provider"},
	)

	// FallbacksTotal counts stream attempts that fell back to a
	// non-streaming call.
	FallbacksTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "gptcli_fallbacks_total",
			Help: "Streaming fallbacks",
		},
		[]string{"provider", "reason"},
	)

	// RetriesTotal counts retries without a model after a model rejection.
	RetriesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "gptcli_retries_total",
			Help: "Model rejection retries",
		},
		[]string{"provider"},
	)

	// HTTPRequestsTotal counts outbound HTTP requests by method and status
	// class ("2xx", "4xx", ... or "error" for transport failures).
	HTTPRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "gptcli_http_requests_total",
			Help: "Outbound HTTP requests",
		},
		[]string{"method", "status"},
	)

	// HTTPRequestDuration records time to response headers in seconds.
	HTTPRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "gptcli_http_request_duration_seconds",
			Help:    "Outbound HTTP time to headers",
			Buckets: LLMBuckets,
		},
		[]string{"method"},
	)

	// MockRequestsTotal counts requests served by the mock backend.
	MockRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "gptcli_mock_requests_total",
			Help: "Mock backend requests",
		},
		[]string{"method", "status"},
	)

	// MockStreamingConnections tracks in-flight SSE responses of the mock
	// backend.
	MockStreamingConnections = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "gptcli_mock_streaming_connections_active",
			Help: "Active mock streaming connections",
		},
	)
)

func init() {
	prometheus.MustRegister(
		ProviderRequestsTotal,
		ProviderLatency,
		StreamFragmentsTotal,
		FallbacksTotal,
		RetriesTotal,
		HTTPRequestsTotal,
		HTTPRequestDuration,
		MockRequestsTotal,
		MockStreamingConnections,
	)
}
