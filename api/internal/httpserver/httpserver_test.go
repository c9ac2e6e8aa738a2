package httpserver

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pitch-slides/api/internal/logger"
)

func okHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(logger.RequestID(r.Context())))
	})
}

func TestRequestID(t *testing.T) {
	h := Chain(okHandler(), RequestID())

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	id := rec.Header().Get(HeaderRequestID)
	assert.Len(t, id, 36)
	assert.Equal(t, id, rec.Body.String())

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(HeaderRequestID, "abc-123")
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, "abc-123", rec.Header().Get(HeaderRequestID))
	assert.Equal(t, "abc-123", rec.Body.String())
}

func TestAccessLog(t *testing.T) {
	var buf bytes.Buffer
	log := logger.NewWithWriter(&buf, "info", "json")
	h := Chain(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	}), RequestID(), AccessLog(log))

	req := httptest.NewRequest(http.MethodPost, "/api/generate-options", nil)
	req.Header.Set(HeaderRequestID, "rid-1")
	h.ServeHTTP(httptest.NewRecorder(), req)

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "http_request", entry["msg"])
	assert.Equal(t, "rid-1", entry["request_id"])
	assert.Equal(t, "/api/generate-options", entry["path"])
	assert.Equal(t, float64(http.StatusTeapot), entry["status"])
}

func TestAccessLog_LogsRecoveredPanic(t *testing.T) {
	var buf bytes.Buffer
	log := logger.NewWithWriter(&buf, "info", "json")
	h := Chain(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		panic("boom")
	}), AccessLog(log), Recover(logger.Discard()))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/generate-final", nil))
	assert.Equal(t, http.StatusInternalServerError, rec.Code)

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "http_request", entry["msg"])
	assert.Equal(t, float64(http.StatusInternalServerError), entry["status"])
}

func TestRecover(t *testing.T) {
	h := Chain(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		panic("boom")
	}), Recover(logger.Discard()))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.JSONEq(t, `{"error":"internal server error"}`, rec.Body.String())
}

func TestClientIP_UntrustedRemoteIgnoresHeaders(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.RemoteAddr = "198.51.100.9:5555"
	req.Header.Set("X-Forwarded-For", "203.0.113.7")
	req.Header.Set("X-Real-Ip", "203.0.113.8")

	assert.Equal(t, "198.51.100.9", RemoteIP(req))
	assert.Equal(t, "198.51.100.9", ClientIP(nil)(req))

	trusted, err := ParseTrustedProxies("10.0.0.0/8")
	require.NoError(t, err)
	assert.Equal(t, "198.51.100.9", ClientIP(trusted)(req))
}

func TestClientIP_TrustedProxy(t *testing.T) {
	trusted, err := ParseTrustedProxies(" 10.0.0.0/8, 127.0.0.1 ")
	require.NoError(t, err)
	ip := ClientIP(trusted)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.RemoteAddr = "10.0.0.1:5555"
	req.Header.Set("X-Forwarded-For", "1.2.3.4, 203.0.113.7, 10.0.0.2")
	assert.Equal(t, "203.0.113.7", ip(req), "rightmost hop outside the proxy range")

	req.Header.Del("X-Forwarded-For")
	req.Header.Set("X-Real-Ip", "203.0.113.8")
	assert.Equal(t, "203.0.113.8", ip(req))

	req.Header.Set("X-Real-Ip", "not-an-ip")
	assert.Equal(t, "10.0.0.1", ip(req))

	req.RemoteAddr = "127.0.0.1:80"
	req.Header.Set("X-Forwarded-For", "203.0.113.9")
	assert.Equal(t, "203.0.113.9", ip(req))
}

func TestParseTrustedProxies_Invalid(t *testing.T) {
	_, err := ParseTrustedProxies("10.0.0.0/99")
	assert.Error(t, err)
	_, err = ParseTrustedProxies("proxy.local")
	assert.Error(t, err)

	list, err := ParseTrustedProxies("")
	require.NoError(t, err)
	assert.Empty(t, list)
}

func TestRateLimitMiddleware_RotatingForwardedFor(t *testing.T) {
	h := Chain(okHandler(), RateLimit(NewIPLimiter(0.001, 1), ClientIP(nil), logger.Discard()))

	codes := make([]int, 0, 3)
	for _, xff := range []string{"1.1.1.1", "2.2.2.2", "3.3.3.3"} {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.RemoteAddr = "198.51.100.9:5555"
		req.Header.Set("X-Forwarded-For", xff)
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		codes = append(codes, rec.Code)
	}
	assert.Equal(t, []int{http.StatusOK, http.StatusTooManyRequests, http.StatusTooManyRequests}, codes)
}

func TestIPLimiter(t *testing.T) {
	l := NewIPLimiter(0.001, 2)
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		ok, err := l.Allow(ctx, "1.1.1.1")
		require.NoError(t, err)
		assert.True(t, ok)
	}
	ok, _ := l.Allow(ctx, "1.1.1.1")
	assert.False(t, ok)

	ok, _ = l.Allow(ctx, "2.2.2.2")
	assert.True(t, ok, "buckets are per key")
}

func TestRateLimitMiddleware(t *testing.T) {
	h := Chain(okHandler(), RateLimit(NewIPLimiter(0.001, 1), nil, logger.Discard()))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.JSONEq(t, `{"error":"too many requests"}`, rec.Body.String())
}

type brokenLimiter struct{}

func (brokenLimiter) Allow(context.Context, string) (bool, error) {
	return false, errors.New("redis down")
}

func TestRateLimitMiddleware_FailOpen(t *testing.T) {
	h := Chain(okHandler(), RateLimit(brokenLimiter{}, nil, logger.Discard()))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestRedisLimiter(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	now := time.Unix(1700000000, 0)
	l := NewRedisLimiter(client, 2, 1, time.Minute)
	l.Now = func() time.Time { return now }
	ctx := context.Background()

	ok, err := l.Allow(ctx, "1.1.1.1")
	require.NoError(t, err)
	assert.True(t, ok)
	ok, _ = l.Allow(ctx, "1.1.1.1")
	assert.True(t, ok)
	ok, _ = l.Allow(ctx, "1.1.1.1")
	assert.False(t, ok)

	// через секунду добавится один токен
	now = now.Add(time.Second)
	ok, _ = l.Allow(ctx, "1.1.1.1")
	assert.True(t, ok)

	assert.True(t, mr.Exists("rate_limit:1.1.1.1:tokens"))
}

func TestRedisLimiter_ZeroBurstMatchesIPLimiter(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	now := time.Unix(1700000000, 0)
	l := NewRedisLimiter(client, 0, 2, time.Minute)
	l.Now = func() time.Time { return now }
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		ok, err := l.Allow(ctx, "1.1.1.1")
		require.NoError(t, err)
		assert.True(t, ok, "request %d", i)
		now = now.Add(600 * time.Millisecond)
	}

	ok, _ := l.Allow(ctx, "2.2.2.2")
	assert.True(t, ok)
	ok, _ = l.Allow(ctx, "2.2.2.2")
	assert.False(t, ok)
}

func TestRedisLimiter_Unavailable(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr(), MaxRetries: -1})
	t.Cleanup(func() { _ = client.Close() })
	mr.Close()

	_, err := NewRedisLimiter(client, 1, 1, time.Minute).Allow(context.Background(), "k")
	assert.Error(t, err)
}

func TestServer_GracefulShutdown(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	mux := http.NewServeMux()
	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("ok"))
	})
	s := New(ln.Addr().String(), mux, 5*time.Second, logger.Discard())
	s.ShutdownTimeout = time.Second

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- s.Serve(ctx, ln) }()

	resp, err := http.Get("http://" + ln.Addr().String() + "/healthz")
	require.NoError(t, err)
	_ = resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(3 * time.Second):
		t.Fatal("server did not stop")
	}
}
