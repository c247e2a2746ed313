package testutil

import (
	"context"
	"net/http"
	"time"

	id "tombola/pkg/domain"
	"tombola/pkg/requestcontext"
)

// WithAccount adds an authenticated account to the request context.
// This simulates what the auth middleware would do for a valid bearer token.
func WithAccount(req *http.Request, account id.AccountID) *http.Request {
	return req.WithContext(requestcontext.WithAccountID(req.Context(), account))
}

// WithRequestTime pins the request-scoped clock, which otherwise falls back
// to time.Now.
func WithRequestTime(req *http.Request, t time.Time) *http.Request {
	return req.WithContext(requestcontext.WithTime(req.Context(), t))
}

// WithClientIP adds a client address to the request context.
func WithClientIP(req *http.Request, ip string) *http.Request {
	return req.WithContext(requestcontext.WithClientIP(req.Context(), ip))
}

// WithContextValue adds an arbitrary key-value pair to the request context.
func WithContextValue(req *http.Request, key, value any) *http.Request {
	return req.WithContext(context.WithValue(req.Context(), key, value))
}
