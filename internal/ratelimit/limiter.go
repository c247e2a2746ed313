// Package ratelimit guards the entry endpoint with a fixed-window request
// limit per account. The window state lives in a Store; the in-memory store
// suits a single instance, the redis store is shared across replicas.
package ratelimit

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	dErrors "tombola/pkg/domain-errors"
	"tombola/pkg/platform/httputil"
	"tombola/pkg/requestcontext"
)

// Result reports one fixed-window decision.
type Result struct {
	Allowed   bool
	Limit     int
	Remaining int
	ResetAt   time.Time
}

// Store counts requests per key within a fixed window.
type Store interface {
	Allow(ctx context.Context, key string, limit int, window time.Duration) (Result, error)
}

// Limiter enforces the per-account request limit.
type Limiter struct {
	store  Store
	limit  int
	window time.Duration
	logger *slog.Logger
}

// New constructs a limiter allowing limit requests per key per window.
func New(store Store, limit int, window time.Duration, logger *slog.Logger) *Limiter {
	return &Limiter{
		store:  store,
		limit:  limit,
		window: window,
		logger: logger,
	}
}

// Middleware returns the HTTP guard. A store failure lets the request
// through after logging; the guarded endpoint keeps working when redis
// does not.
func (l *Limiter) Middleware() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()

			result, err := l.store.Allow(ctx, l.keyFor(ctx), l.limit, l.window)
			if err != nil {
				l.logger.WarnContext(ctx, "rate limit check failed",
					"request_id", requestcontext.RequestID(ctx),
					"error", err,
				)
				next.ServeHTTP(w, r)
				return
			}

			addLimitHeaders(w, result)

			if !result.Allowed {
				w.Header().Set("Retry-After", strconv.Itoa(retryAfterSeconds(result.ResetAt)))
				httputil.WriteError(w, dErrors.New(dErrors.CodeRateLimited, "too many entry requests"))
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// keyFor prefers the authenticated account, then the client address.
func (l *Limiter) keyFor(ctx context.Context) string {
	if account := requestcontext.AccountID(ctx); !account.IsNil() {
		return "account:" + account.String()
	}
	if ip := requestcontext.ClientIP(ctx); ip != "" {
		return "ip:" + ip
	}
	return "anonymous"
}

func addLimitHeaders(w http.ResponseWriter, result Result) {
	w.Header().Set("X-RateLimit-Limit", strconv.Itoa(result.Limit))
	w.Header().Set("X-RateLimit-Remaining", strconv.Itoa(result.Remaining))
	w.Header().Set("X-RateLimit-Reset", strconv.FormatInt(result.ResetAt.Unix(), 10))
}

func retryAfterSeconds(resetAt time.Time) int {
	secs := int(time.Until(resetAt).Round(time.Second) / time.Second)
	if secs < 1 {
		return 1
	}
	return secs
}
