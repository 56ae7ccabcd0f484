package api

import (
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/scoutai/scoutai/pkg/logger"
	"github.com/scoutai/scoutai/pkg/metrics"
)

// RequestIDHeader carries the request id echoed on every response.
const RequestIDHeader = "X-Request-ID"

// maxRequestIDLen bounds a client supplied request id.
const maxRequestIDLen = 128

// MetricsMiddleware records request metrics for endpoint and turns a handler
// panic into a 500. The request id is echoed on the response and attached to
// the request context for logging.
func MetricsMiddleware(next http.HandlerFunc, endpoint string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		id := requestID(r)
		w.Header().Set(RequestIDHeader, id)
		r = r.WithContext(logger.WithFields(r.Context(), logger.String("request_id", id)))

		wrapped := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}
		defer func() {
			if rec := recover(); rec != nil {
				metrics.RecordErrorByComponent("http", "panic")
				if !wrapped.wroteHeader {
					writeError(wrapped, http.StatusInternalServerError, "internal", fmt.Errorf("internal error: %v", rec))
				} else {
					wrapped.statusCode = http.StatusInternalServerError
				}
			}
			record(endpoint, r.Method, wrapped.statusCode, time.Since(start))
		}()

		next.ServeHTTP(wrapped, r)
	}
}

// requestID reuses a sane incoming id or mints a new one.
func requestID(r *http.Request) string {
	if id := strings.TrimSpace(r.Header.Get(RequestIDHeader)); id != "" && len(id) <= maxRequestIDLen {
		return id
	}
	return uuid.NewString()
}

func record(endpoint, method string, status int, elapsed time.Duration) {
	code := strconv.Itoa(status)
	metrics.RecordHTTPRequest(endpoint, method, code)
	metrics.RecordHTTPRequestDuration(endpoint, method, code, float64(elapsed.Milliseconds()))

	if status >= http.StatusBadRequest {
		kind := errorType(status)
		metrics.RecordErrorByEndpoint(endpoint, method, kind)
		metrics.RecordErrorByComponent("http", kind)
	}
}

// errorType buckets a status code for the error counters.
func errorType(status int) string {
	switch {
	case status == http.StatusServiceUnavailable:
		return "unavailable"
	case status >= http.StatusInternalServerError:
		return "server_error"
	case status == http.StatusTooManyRequests:
		return "rate_limit"
	case status == http.StatusNotFound:
		return "not_found"
	case status == http.StatusMethodNotAllowed:
		return "method_not_allowed"
	default:
		return "client_error"
	}
}

// responseWriter captures the status code written by a handler.
type responseWriter struct {
	http.ResponseWriter
	statusCode  int
	wroteHeader bool
}

func (rw *responseWriter) WriteHeader(code int) {
	if rw.wroteHeader {
		return
	}
	rw.statusCode = code
	rw.wroteHeader = true
	rw.ResponseWriter.WriteHeader(code)
}

func (rw *responseWriter) Write(b []byte) (int, error) {
	rw.wroteHeader = true
	n, err := rw.ResponseWriter.Write(b)
	if err != nil {
		return n, fmt.Errorf("failed to write response: %w", err)
	}
	return n, nil
}
