package ratelimit

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"

	"tombola/pkg/domain"
	"tombola/pkg/requestcontext"
)

const (
	testLimit  = 3
	testWindow = time.Minute
)

type MemoryStoreSuite struct {
	suite.Suite
	store *MemoryStore
	ctx   context.Context
}

func TestMemoryStoreSuite(t *testing.T) {
	suite.Run(t, new(MemoryStoreSuite))
}

func (s *MemoryStoreSuite) SetupTest() {
	s.store = NewMemoryStore()
	s.ctx = context.Background()
}

func (s *MemoryStoreSuite) TestAllow() {
	s.Run("first request allowed", func() {
		result, err := s.store.Allow(s.ctx, "first", testLimit, testWindow)
		s.Require().NoError(err)
		s.True(result.Allowed)
		s.Equal(testLimit, result.Limit)
		s.Equal(testLimit-1, result.Remaining)
	})

	s.Run("requests up to limit allowed", func() {
		var result Result
		var err error
		for range testLimit {
			result, err = s.store.Allow(s.ctx, "up-to-limit", testLimit, testWindow)
			s.Require().NoError(err)
		}
		s.True(result.Allowed)
		s.Equal(0, result.Remaining)
	})

	s.Run("request over limit denied", func() {
		for range testLimit {
			_, err := s.store.Allow(s.ctx, "over", testLimit, testWindow)
			s.Require().NoError(err)
		}
		result, err := s.store.Allow(s.ctx, "over", testLimit, testWindow)
		s.Require().NoError(err)
		s.False(result.Allowed)
		s.Equal(0, result.Remaining)
		s.True(result.ResetAt.After(time.Now()))
	})

	s.Run("keys count independently", func() {
		for range testLimit {
			_, err := s.store.Allow(s.ctx, "busy", testLimit, testWindow)
			s.Require().NoError(err)
		}
		result, err := s.store.Allow(s.ctx, "idle", testLimit, testWindow)
		s.Require().NoError(err)
		s.True(result.Allowed)
	})

	s.Run("fresh window after expiry", func() {
		for range testLimit + 1 {
			_, err := s.store.Allow(s.ctx, "expiring", testLimit, testWindow)
			s.Require().NoError(err)
		}

		s.store.mu.Lock()
		s.store.windows["expiring"].resetAt = time.Now().Add(-time.Second)
		s.store.mu.Unlock()

		result, err := s.store.Allow(s.ctx, "expiring", testLimit, testWindow)
		s.Require().NoError(err)
		s.True(result.Allowed)
		s.Equal(testLimit-1, result.Remaining)
	})
}

func (s *MemoryStoreSuite) TestConcurrentAllow() {
	const goroutines = 50

	var wg sync.WaitGroup
	var allowed atomic.Int32
	for range goroutines {
		wg.Add(1)
		go func() {
			defer wg.Done()
			result, err := s.store.Allow(s.ctx, "concurrent", 10, testWindow)
			s.Require().NoError(err)
			if result.Allowed {
				allowed.Add(1)
			}
		}()
	}
	wg.Wait()

	s.Equal(int32(10), allowed.Load())
}

// stubStore pins the decision so middleware behavior can be tested in
// isolation. It records the keys it was asked about.
type stubStore struct {
	result Result
	err    error
	keys   []string
}

func (s *stubStore) Allow(_ context.Context, key string, limit int, _ time.Duration) (Result, error) {
	s.keys = append(s.keys, key)
	if s.err != nil {
		return Result{}, s.err
	}
	result := s.result
	result.Limit = limit
	return result, nil
}

func limitedHandler(store Store, limit int) http.Handler {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})
	return New(store, limit, testWindow, logger).Middleware()(next)
}

func doAs(h http.Handler, account domain.AccountID) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/raffle/entries", nil)
	req = req.WithContext(requestcontext.WithAccountID(req.Context(), account))
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	return rr
}

func TestMiddlewareEnforcesLimit(t *testing.T) {
	h := limitedHandler(NewMemoryStore(), 1)
	account := domain.NewAccountID()

	rr := doAs(h, account)
	require.Equal(t, http.StatusNoContent, rr.Code)
	require.Equal(t, "1", rr.Header().Get("X-RateLimit-Limit"))
	require.Equal(t, "0", rr.Header().Get("X-RateLimit-Remaining"))

	rr = doAs(h, account)
	require.Equal(t, http.StatusTooManyRequests, rr.Code)
	require.NotEmpty(t, rr.Header().Get("Retry-After"))

	var body map[string]string
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &body))
	require.Equal(t, "rate_limited", body["error"])

	// another account is not affected
	rr = doAs(h, domain.NewAccountID())
	require.Equal(t, http.StatusNoContent, rr.Code)
}

func TestMiddlewareFailsOpen(t *testing.T) {
	h := limitedHandler(&stubStore{err: errors.New("connection refused")}, 1)
	account := domain.NewAccountID()

	for range 3 {
		rr := doAs(h, account)
		require.Equal(t, http.StatusNoContent, rr.Code)
	}
}

func TestMiddlewareKeysRequests(t *testing.T) {
	store := &stubStore{result: Result{Allowed: true}}
	h := limitedHandler(store, 1)

	account := domain.NewAccountID()
	doAs(h, account)

	req := httptest.NewRequest(http.MethodPost, "/raffle/entries", nil)
	req = req.WithContext(requestcontext.WithClientIP(req.Context(), "198.51.100.7"))
	h.ServeHTTP(httptest.NewRecorder(), req)

	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodPost, "/raffle/entries", nil))

	require.Equal(t, []string{
		"account:" + account.String(),
		"ip:198.51.100.7",
		"anonymous",
	}, store.keys)
}
