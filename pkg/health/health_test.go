package health

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/go-faster/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func passing(context.Context) error { return nil }

func failing(msg string) CheckFunc {
	return func(context.Context) error { return errors.New(msg) }
}

func get(t *testing.T, h http.HandlerFunc) *httptest.ResponseRecorder {
	t.Helper()
	w := httptest.NewRecorder()
	h(w, httptest.NewRequest(http.MethodGet, "/", nil))
	return w
}

func TestLiveEndpoint(t *testing.T) {
	h := New()
	h.AddLivenessCheck("goroutines", time.Second, passing)

	w := get(t, h.LiveEndpoint)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "application/json", w.Header().Get("Content-Type"))
	assert.JSONEq(t, `{"status":"ok"}`, w.Body.String())
}

func TestCheck_FailureThreshold(t *testing.T) {
	h := New()
	h.AddLivenessCheck("db", time.Second, failing("connection refused"))
	c := h.checks[0]
	ctx := context.Background()

	c.run(ctx)
	c.run(ctx)
	assert.Equal(t, http.StatusOK, get(t, h.LiveEndpoint).Code, "below threshold")

	c.run(ctx)
	w := get(t, h.LiveEndpoint)
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	assert.JSONEq(t, `{"status":"unhealthy","checks":{"db":"connection refused"}}`, w.Body.String())
}

func TestCheck_Recovers(t *testing.T) {
	var fail atomic.Bool
	fail.Store(true)

	h := New()
	h.Register(Check{
		Name:             "redis",
		Probe:            Readiness,
		FailureThreshold: 1,
		SuccessThreshold: 2,
		Func: func(context.Context) error {
			if fail.Load() {
				return errors.New("down")
			}
			return nil
		},
	})
	h.SetReady(true)
	c := h.checks[0]
	ctx := context.Background()

	c.run(ctx)
	assert.False(t, h.IsReady())

	fail.Store(false)
	c.run(ctx)
	assert.False(t, h.IsReady(), "one success is not enough")
	c.run(ctx)
	assert.True(t, h.IsReady())
}

func TestReadyEndpoint_ManualFlag(t *testing.T) {
	h := New()
	h.AddReadinessCheck("postgres", time.Second, passing)

	w := get(t, h.ReadyEndpoint)
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	assert.Contains(t, w.Body.String(), "_readiness")

	h.SetReady(true)
	assert.Equal(t, http.StatusOK, get(t, h.ReadyEndpoint).Code)

	h.SetReady(false)
	assert.False(t, h.IsReady())
}

func TestLivenessIgnoresReadinessChecks(t *testing.T) {
	h := New()
	h.Register(Check{Name: "kafka", Probe: Readiness, FailureThreshold: 1, Func: failing("no brokers")})
	h.checks[0].run(context.Background())

	assert.Equal(t, http.StatusOK, get(t, h.LiveEndpoint).Code)
}

func TestStartStop(t *testing.T) {
	var calls atomic.Int32
	h := New()
	h.AddReadinessCheck("counter", time.Second, func(context.Context) error {
		calls.Add(1)
		return nil
	})

	h.Start(context.Background(), 10*time.Millisecond)
	require.Eventually(t, func() bool { return calls.Load() >= 2 }, time.Second, 5*time.Millisecond)
	h.Stop()

	stopped := calls.Load()
	time.Sleep(30 * time.Millisecond)
	assert.Equal(t, stopped, calls.Load())

	h.Stop()
}

func TestGoroutineCountCheck(t *testing.T) {
	assert.NoError(t, GoroutineCountCheck(1_000_000)(context.Background()))
	assert.Error(t, GoroutineCountCheck(0)(context.Background()))
}

type pinger struct{ err error }

func (p pinger) Ping(context.Context) error { return p.err }

func TestPingCheck(t *testing.T) {
	assert.NoError(t, PingCheck(pinger{})(context.Background()))
	assert.Error(t, PingCheck(pinger{err: errors.New("x")})(context.Background()))
}
