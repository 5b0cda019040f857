package middleware

import (
	"log/slog"
	"net/http"
	"time"
)

// Logging logs every outgoing request with its status and duration.
// Transport errors are logged at ERROR, non-2xx responses at WARN.
func Logging(logger *slog.Logger, next http.RoundTripper) http.RoundTripper {
	return RoundTripperFunc(func(req *http.Request) (*http.Response, error) {
		start := time.Now()
		userID := GetUserID(req.Context())

		resp, err := next.RoundTrip(req)

		duration := time.Since(start).Milliseconds()
		switch {
		case err != nil:
			logger.Error("Request failed",
				"method", req.Method,
				"path", req.URL.Path,
				"request_id", req.Header.Get(RequestIDHeader),
				"user_id", userID,
				"error", err,
				"duration_ms", duration,
			)
		case resp.StatusCode >= 300:
			logger.Warn("Request rejected",
				"method", req.Method,
				"path", req.URL.Path,
				"request_id", req.Header.Get(RequestIDHeader),
				"user_id", userID,
				"status", resp.StatusCode,
				"duration_ms", duration,
			)
		default:
			logger.Info("Request ok",
				"method", req.Method,
				"path", req.URL.Path,
				"request_id", req.Header.Get(RequestIDHeader),
				"user_id", userID,
				"status", resp.StatusCode,
				"duration_ms", duration,
			)
		}
		return resp, err
	})
}
