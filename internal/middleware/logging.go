package middleware

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"
)

const RequestIDHeader = "X-Request-ID"

// RequestID tags every outgoing request that does not carry an id yet.
func RequestID() Middleware {
	return func(next http.RoundTripper) http.RoundTripper {
		return RoundTripperFunc(func(r *http.Request) (*http.Response, error) {
			if r.Header.Get(RequestIDHeader) != "" {
				return next.RoundTrip(r)
			}

			r = r.Clone(r.Context())
			r.Header.Set(RequestIDHeader, uuid.NewString())
			return next.RoundTrip(r)
		})
	}
}

// Logging records each exchange. Headers are never logged, so the bearer
// token cannot leak into logs.
func Logging(logger *slog.Logger) Middleware {
	if logger == nil {
		logger = slog.Default()
	}

	return func(next http.RoundTripper) http.RoundTripper {
		return RoundTripperFunc(func(r *http.Request) (*http.Response, error) {
			started := time.Now()
			resp, err := next.RoundTrip(r)
			duration := time.Since(started).Milliseconds()

			attrs := []any{
				"request_id", r.Header.Get(RequestIDHeader),
				"method", r.Method,
				"path", r.URL.Path,
				"duration_ms", duration,
			}

			if err != nil {
				logger.Warn("request failed", append(attrs, "error", err)...)
				return nil, err
			}

			attrs = append(attrs, "status", resp.StatusCode)
			// Query strings help reproduce failures.
			if resp.StatusCode >= 400 && r.URL.RawQuery != "" {
				attrs = append(attrs, "query", r.URL.RawQuery)
			}

			switch {
			case resp.StatusCode >= 500:
				logger.Error("request", attrs...)
			case resp.StatusCode >= 400:
				logger.Warn("request", attrs...)
			default:
				logger.Debug("request", attrs...)
			}
			return resp, nil
		})
	}
}
