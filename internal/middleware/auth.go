// Package middleware provides http.RoundTripper wrappers for calls to the
// external services.
package middleware

import (
	"context"
	"net/http"

	"github.com/google/uuid"
)

// contextKey is a custom type for context keys to avoid collisions.
type contextKey string

// UserIDKey is the context key for the user a request is made on behalf of.
const UserIDKey contextKey = "user_id"

// RequestIDHeader carries a per-request correlation id.
const RequestIDHeader = "X-Request-ID"

// WithUserID returns a context that attributes requests to userID.
func WithUserID(ctx context.Context, userID string) context.Context {
	return context.WithValue(ctx, UserIDKey, userID)
}

// GetUserID extracts the user ID from the context.
// Returns empty string if not found.
func GetUserID(ctx context.Context) string {
	userID, _ := ctx.Value(UserIDKey).(string)
	return userID
}

// RoundTripperFunc adapts a function to http.RoundTripper.
type RoundTripperFunc func(*http.Request) (*http.Response, error)

// RoundTrip implements http.RoundTripper.
func (f RoundTripperFunc) RoundTrip(req *http.Request) (*http.Response, error) {
	return f(req)
}

// BearerAuth sets "Authorization: Bearer <token>" when token returns a
// non-empty value. Requests that already carry an Authorization header are
// left alone.
func BearerAuth(token func() string, next http.RoundTripper) http.RoundTripper {
	return RoundTripperFunc(func(req *http.Request) (*http.Response, error) {
		if req.Header.Get("Authorization") == "" {
			if t := token(); t != "" {
				req = req.Clone(req.Context())
				req.Header.Set("Authorization", "Bearer "+t)
			}
		}
		return next.RoundTrip(req)
	})
}

// RequestID assigns a uuid request id to requests that lack one.
func RequestID(next http.RoundTripper) http.RoundTripper {
	return RoundTripperFunc(func(req *http.Request) (*http.Response, error) {
		if req.Header.Get(RequestIDHeader) == "" {
			req = req.Clone(req.Context())
			req.Header.Set(RequestIDHeader, uuid.New().String())
		}
		return next.RoundTrip(req)
	})
}
