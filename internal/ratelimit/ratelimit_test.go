package ratelimit_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strconv"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"

	"procurelink/internal/auth"
	"procurelink/internal/ratelimit"
)

type clock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *clock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

func TestMemoryLimiterWindow(t *testing.T) {
	c := &clock{now: time.Date(2025, 3, 14, 9, 0, 0, 0, time.UTC)}
	l := ratelimit.NewMemoryLimiter(c.Now)
	cfg := ratelimit.Config{MaxRequests: 3, Interval: time.Minute}
	ctx := context.Background()

	for i := 1; i <= 3; i++ {
		res, err := l.Check(ctx, "user-1", cfg)
		require.NoError(t, err)
		require.True(t, res.Allowed)
		require.Equal(t, 3-i, res.Remaining)
		require.Equal(t, c.Now().Add(time.Minute), res.ResetAt)
	}
	res, err := l.Check(ctx, "user-1", cfg)
	require.NoError(t, err)
	require.False(t, res.Allowed)
	require.Zero(t, res.Remaining)

	// other identities have their own window
	res, err = l.Check(ctx, "user-2", cfg)
	require.NoError(t, err)
	require.True(t, res.Allowed)

	c.Advance(time.Minute + time.Second)
	res, err = l.Check(ctx, "user-1", cfg)
	require.NoError(t, err)
	require.True(t, res.Allowed)
	require.Equal(t, 2, res.Remaining)
}

func TestMemoryLimiterQuoteScenario(t *testing.T) {
	c := &clock{now: time.Now()}
	l := ratelimit.NewMemoryLimiter(c.Now)
	cfg := ratelimit.Config{MaxRequests: 50, Interval: time.Hour}

	for i := 0; i < 50; i++ {
		res, err := l.Check(context.Background(), "quote-submit:s1", cfg)
		require.NoError(t, err)
		require.True(t, res.Allowed, "request %d", i+1)
		c.Advance(time.Minute)
	}
	res, err := l.Check(context.Background(), "quote-submit:s1", cfg)
	require.NoError(t, err)
	require.False(t, res.Allowed)
}

func TestMemoryLimiterSweep(t *testing.T) {
	c := &clock{now: time.Now()}
	l := ratelimit.NewMemoryLimiter(c.Now)
	ctx := context.Background()

	_, _ = l.Check(ctx, "short", ratelimit.Config{MaxRequests: 1, Interval: time.Second})
	_, _ = l.Check(ctx, "long", ratelimit.Config{MaxRequests: 1, Interval: time.Hour})
	require.Equal(t, 2, l.Len())

	c.Advance(2 * time.Second)
	require.Equal(t, 1, l.Sweep())
	require.Equal(t, 1, l.Len())
}

func TestRedisLimiter(t *testing.T) {
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { rdb.Close() })

	l := ratelimit.NewRedisLimiter(rdb)
	cfg := ratelimit.Config{MaxRequests: 2, Interval: time.Minute}
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		res, err := l.Check(ctx, "rfq-create:u1", cfg)
		require.NoError(t, err)
		require.True(t, res.Allowed)
	}
	res, err := l.Check(ctx, "rfq-create:u1", cfg)
	require.NoError(t, err)
	require.False(t, res.Allowed)
	require.Equal(t, 2, res.Limit)
	require.True(t, res.ResetAt.After(time.Now()))

	require.True(t, mr.Exists("ratelimit:rfq-create:u1"))
	require.Greater(t, mr.TTL("ratelimit:rfq-create:u1"), time.Duration(0))

	mr.FastForward(time.Minute + time.Second)
	res, err = l.Check(ctx, "rfq-create:u1", cfg)
	require.NoError(t, err)
	require.True(t, res.Allowed)
	require.Equal(t, 1, res.Remaining)
}

func TestRedisLimiterBackendDown(t *testing.T) {
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr(), MaxRetries: -1})
	t.Cleanup(func() { rdb.Close() })
	mr.Close()

	_, err := ratelimit.NewRedisLimiter(rdb).Check(context.Background(), "x", ratelimit.Config{MaxRequests: 1, Interval: time.Second})
	require.Error(t, err)
}

type failingLimiter struct{}

func (failingLimiter) Check(context.Context, string, ratelimit.Config) (ratelimit.Result, error) {
	return ratelimit.Result{}, errors.New("redis: connection refused")
}

func okHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
}

func TestMiddlewareLimitsByUser(t *testing.T) {
	l := ratelimit.NewMemoryLimiter(nil)
	cfg := ratelimit.Config{MaxRequests: 1, Interval: time.Hour}
	h := ratelimit.Middleware(l, cfg, ratelimit.ByUser, "quote-submit")(okHandler())
	user := uuid.New()

	send := func() *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodPost, "/api/quotes", nil)
		req = req.WithContext(auth.WithUser(req.Context(), user))
		rr := httptest.NewRecorder()
		h.ServeHTTP(rr, req)
		return rr
	}

	rr := send()
	require.Equal(t, http.StatusOK, rr.Code)
	require.Equal(t, "1", rr.Header().Get("X-RateLimit-Limit"))
	require.Equal(t, "0", rr.Header().Get("X-RateLimit-Remaining"))
	_, err := time.Parse(time.RFC3339, rr.Header().Get("X-RateLimit-Reset"))
	require.NoError(t, err)

	rr = send()
	require.Equal(t, http.StatusTooManyRequests, rr.Code)
	require.JSONEq(t, `{"detail":"rate limit exceeded, try again later"}`, rr.Body.String())
	retry, err := strconv.Atoi(rr.Header().Get("Retry-After"))
	require.NoError(t, err)
	require.GreaterOrEqual(t, retry, 1)
}

func TestMiddlewareSkipsAnonymousForByUser(t *testing.T) {
	l := ratelimit.NewMemoryLimiter(nil)
	h := ratelimit.Middleware(l, ratelimit.Config{MaxRequests: 1, Interval: time.Hour}, ratelimit.ByUser, "rfq-create")(okHandler())

	for i := 0; i < 3; i++ {
		rr := httptest.NewRecorder()
		h.ServeHTTP(rr, httptest.NewRequest(http.MethodPost, "/api/rfqs", nil))
		require.Equal(t, http.StatusOK, rr.Code)
		require.Empty(t, rr.Header().Get("X-RateLimit-Limit"))
	}
	require.Zero(t, l.Len())
}

func TestMiddlewareByIP(t *testing.T) {
	l := ratelimit.NewMemoryLimiter(nil)
	h := ratelimit.Middleware(l, ratelimit.Config{MaxRequests: 1, Interval: time.Minute}, ratelimit.ByIP, "rfq-list")(okHandler())

	send := func(addr string) int {
		req := httptest.NewRequest(http.MethodGet, "/api/rfqs", nil)
		req.RemoteAddr = addr
		rr := httptest.NewRecorder()
		h.ServeHTTP(rr, req)
		return rr.Code
	}
	require.Equal(t, http.StatusOK, send("10.0.0.1:5000"))
	require.Equal(t, http.StatusTooManyRequests, send("10.0.0.1:5001"))
	require.Equal(t, http.StatusOK, send("10.0.0.2:5000"))
}

func TestMiddlewareFailsOpen(t *testing.T) {
	h := ratelimit.Middleware(failingLimiter{}, ratelimit.Config{MaxRequests: 1, Interval: time.Minute}, ratelimit.ByIP, "rfq-list")(okHandler())
	for i := 0; i < 3; i++ {
		rr := httptest.NewRecorder()
		h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/api/rfqs", nil))
		require.Equal(t, http.StatusOK, rr.Code)
	}
}

func TestRetryAfterUsesLimiterClock(t *testing.T) {
	c := &clock{now: time.Date(2001, 1, 1, 0, 0, 0, 0, time.UTC)}
	l := ratelimit.NewMemoryLimiter(c.Now)
	cfg := ratelimit.Config{MaxRequests: 1, Interval: time.Hour}
	h := ratelimit.Middleware(l, cfg, ratelimit.ByIP, "rfq-list")(okHandler())

	send := func() *httptest.ResponseRecorder {
		rr := httptest.NewRecorder()
		h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/api/rfqs", nil))
		return rr
	}
	require.Equal(t, http.StatusOK, send().Code)

	c.Advance(20 * time.Minute)
	rr := send()
	require.Equal(t, http.StatusTooManyRequests, rr.Code)
	require.Equal(t, "2400", rr.Header().Get("Retry-After"))

	res, err := l.Check(context.Background(), "other", cfg)
	require.NoError(t, err)
	require.Equal(t, time.Hour, res.RetryAfter)
}
