package observability

import (
	"net/http"
	"strconv"
	"time"
)

// MetricsMiddleware wraps a handler of the mock backend to record
// gptcli_mock_requests_total and, for requests that accept SSE,
// gptcli_mock_streaming_connections_active.
func MetricsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Accept") == "text/event-stream" {
			MockStreamingConnections.Inc()
			defer MockStreamingConnections.Dec()
		}

		sw := &statusWriter{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(sw, r)

		MockRequestsTotal.WithLabelValues(r.Method, statusClass(sw.status)).Inc()
	})
}

// NewRoundTripper wraps next so that every outbound request is counted in
// gptcli_http_requests_total and timed in gptcli_http_request_duration_seconds.
// A nil next selects http.DefaultTransport.
func NewRoundTripper(next http.RoundTripper) http.RoundTripper {
	if next == nil {
		next = http.DefaultTransport
	}
	return roundTripperFunc(func(req *http.Request) (*http.Response, error) {
		start := time.Now()
		resp, err := next.RoundTrip(req)
		HTTPRequestDuration.WithLabelValues(req.Method).Observe(time.Since(start).Seconds())

		status := StatusError
		if err == nil {
			status = statusClass(resp.StatusCode)
		}
		HTTPRequestsTotal.WithLabelValues(req.Method, status).Inc()
		return resp, err
	})
}

type roundTripperFunc func(*http.Request) (*http.Response, error)

func (f roundTripperFunc) RoundTrip(req *http.Request) (*http.Response, error) {
	return f(req)
}

// statusClass turns 404 into "4xx".
func statusClass(status int) string {
	return strconv.Itoa(status/100) + "xx"
}

// statusWriter wraps http.ResponseWriter to capture the status code.
type statusWriter struct {
	http.ResponseWriter
	status  int
	written bool
}

// WriteHeader captures the status code and delegates to the underlying writer.
func (w *statusWriter) WriteHeader(status int) {
	if !w.written {
		w.status = status
		w.written = true
	}
	w.ResponseWriter.WriteHeader(status)
}

// Write delegates to the underlying writer and marks the status as written.
func (w *statusWriter) Write(b []byte) (int, error) {
	w.written = true
	return w.ResponseWriter.Write(b)
}

// Flush delegates to the underlying writer if it implements http.Flusher.
// SSE responses of the mock backend depend on it.
func (w *statusWriter) Flush() {
	if f, ok := w.ResponseWriter.(http.Flusher); ok {
		f.Flush()
	}
}

// Unwrap returns the underlying ResponseWriter for http.ResponseController.
func (w *statusWriter) Unwrap() http.ResponseWriter {
	return w.ResponseWriter
}
