package ratelimit

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func newFallbackStore(primary, fallback Store) *FallbackStore {
	return NewFallbackStore(primary, fallback, slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func TestFallbackStoreServesPrimary(t *testing.T) {
	primary := &stubStore{result: Result{Allowed: true, Remaining: 42}}
	fallback := &stubStore{result: Result{Allowed: true, Remaining: 7}}
	store := newFallbackStore(primary, fallback)

	result, err := store.Allow(context.Background(), "account:a", 50, testWindow)
	require.NoError(t, err)
	require.Equal(t, 42, result.Remaining)
	require.Empty(t, fallback.keys)
}

func TestFallbackStoreFailsOverAndRecovers(t *testing.T) {
	primary := &stubStore{result: Result{Allowed: true, Remaining: 42}, err: errors.New("store offline")}
	fallback := &stubStore{result: Result{Allowed: true, Remaining: 7}}
	store := newFallbackStore(primary, fallback)
	ctx := context.Background()

	// five consecutive failures trip the breaker; every one is served from
	// the fallback without surfacing an error
	for range 5 {
		result, err := store.Allow(ctx, "account:a", 50, testWindow)
		require.NoError(t, err)
		require.Equal(t, 7, result.Remaining)
	}

	// the primary comes back, but one good probe is not enough to trust it
	primary.err = nil
	result, err := store.Allow(ctx, "account:a", 50, testWindow)
	require.NoError(t, err)
	require.Equal(t, 7, result.Remaining)

	result, err = store.Allow(ctx, "account:a", 50, testWindow)
	require.NoError(t, err)
	require.Equal(t, 42, result.Remaining)

	// every call probed the primary
	require.Len(t, primary.keys, 7)
}

func TestFallbackStoreKeepsCountingDuringOutage(t *testing.T) {
	primary := &stubStore{err: errors.New("store offline")}
	store := newFallbackStore(primary, NewMemoryStore())
	ctx := context.Background()

	for range 2 {
		result, err := store.Allow(ctx, "account:a", 2, time.Minute)
		require.NoError(t, err)
		require.True(t, result.Allowed)
	}

	result, err := store.Allow(ctx, "account:a", 2, time.Minute)
	require.NoError(t, err)
	require.False(t, result.Allowed)
}
