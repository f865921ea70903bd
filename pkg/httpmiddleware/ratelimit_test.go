package httpmiddleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func okHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
}

func fromIP(ip string) *http.Request {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.RemoteAddr = ip + ":12345"
	return req
}

func TestRateLimiter_Burst(t *testing.T) {
	rl := NewRateLimiter(RateLimitConfig{RPS: 1, Burst: 3})
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	rl.now = func() time.Time { return now }
	h := rl.Middleware()(okHandler())

	for i := range 3 {
		w := httptest.NewRecorder()
		h.ServeHTTP(w, fromIP("10.0.0.1"))
		assert.Equal(t, http.StatusOK, w.Code, "request %d", i+1)
	}

	w := httptest.NewRecorder()
	h.ServeHTTP(w, fromIP("10.0.0.1"))
	require.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.Equal(t, "1", w.Header().Get("Retry-After"))
	assert.JSONEq(t, `{"code":"rate_limited","message":"rate limit exceeded","status":429}`, w.Body.String())

	w = httptest.NewRecorder()
	h.ServeHTTP(w, fromIP("10.0.0.2"))
	assert.Equal(t, http.StatusOK, w.Code, "other clients keep their own budget")

	now = now.Add(time.Second)
	w = httptest.NewRecorder()
	h.ServeHTTP(w, fromIP("10.0.0.1"))
	assert.Equal(t, http.StatusOK, w.Code, "bucket refills over time")
}

func TestRateLimiter_Evict(t *testing.T) {
	rl := NewRateLimiter(RateLimitConfig{RPS: 10, Burst: 10, Idle: time.Minute})
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	rl.now = func() time.Time { return now }
	h := rl.Middleware()(okHandler())

	h.ServeHTTP(httptest.NewRecorder(), fromIP("10.0.0.1"))
	now = now.Add(30 * time.Second)
	h.ServeHTTP(httptest.NewRecorder(), fromIP("10.0.0.2"))

	now = now.Add(45 * time.Second)
	assert.Equal(t, 1, rl.Evict())
	assert.Len(t, rl.visitors, 1)
}

func TestClientIP(t *testing.T) {
	req := fromIP("192.168.1.1")
	assert.Equal(t, "192.168.1.1", ClientIP(req))

	req.Header.Set("X-Real-IP", "172.16.0.1")
	assert.Equal(t, "172.16.0.1", ClientIP(req))

	req.Header.Set("X-Forwarded-For", " 203.0.113.5 , 10.0.0.1")
	assert.Equal(t, "203.0.113.5", ClientIP(req))
}
