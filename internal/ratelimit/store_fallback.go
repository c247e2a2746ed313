package ratelimit

import (
	"context"
	"log/slog"
	"time"

	"tombola/pkg/platform/circuit"
)

// FallbackStore wraps a shared primary store with an in-process fallback so
// rate limiting keeps working through a redis outage. Every call still
// probes the primary; a circuit breaker decides whose answer counts, and
// while the circuit is open the fallback result is served even when a probe
// succeeds, until the primary has proven itself again.
type FallbackStore struct {
	primary  Store
	fallback Store
	breaker  *circuit.Breaker
	logger   *slog.Logger
}

// NewFallbackStore wires primary and fallback behind a breaker.
func NewFallbackStore(primary, fallback Store, logger *slog.Logger) *FallbackStore {
	return &FallbackStore{
		primary:  primary,
		fallback: fallback,
		breaker:  circuit.New("ratelimit-store"),
		logger:   logger,
	}
}

// Allow counts the request, preferring the primary store.
func (s *FallbackStore) Allow(ctx context.Context, key string, limit int, window time.Duration) (Result, error) {
	result, err := s.primary.Allow(ctx, key, limit, window)
	if err != nil {
		_, change := s.breaker.RecordFailure()
		if change.Opened {
			s.logger.WarnContext(ctx, "rate limit store degraded, serving from fallback",
				"breaker", s.breaker.Name(),
				"error", err,
			)
		}
		return s.fallback.Allow(ctx, key, limit, window)
	}

	usePrimary, change := s.breaker.RecordSuccess()
	if change.Closed {
		s.logger.InfoContext(ctx, "rate limit store recovered",
			"breaker", s.breaker.Name(),
		)
	}
	if !usePrimary {
		return s.fallback.Allow(ctx, key, limit, window)
	}
	return result, nil
}
