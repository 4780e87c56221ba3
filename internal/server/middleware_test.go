package server

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/conneroisu/sizekit/internal/logging"
)

func TestChain_Order(t *testing.T) {
	var order []string
	mark := func(name string) Middleware {
		return func(next http.Handler) http.Handler {
			return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				order = append(order, name)
				next.ServeHTTP(w, r)
			})
		}
	}

	h := (&chain{}).add(mark("a"), mark("b")).add(mark("c")).apply(
		http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			order = append(order, "handler")
		}),
	)
	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))

	assert.Equal(t, []string{"a", "b", "c", "handler"}, order)
}

func TestRecoverPanics(t *testing.T) {
	h := recoverPanics(logging.NewNop())(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		panic("boom")
	}))

	rec := httptest.NewRecorder()
	require.NotPanics(t, func() {
		h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	})
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}

func TestRecoverPanics_AbortHandler(t *testing.T) {
	h := recoverPanics(logging.NewNop())(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		panic(http.ErrAbortHandler)
	}))

	assert.PanicsWithValue(t, http.ErrAbortHandler, func() {
		h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))
	})
}

func TestStatusRecorder(t *testing.T) {
	rec := &statusRecorder{ResponseWriter: httptest.NewRecorder()}
	_, err := rec.Write([]byte("hello"))
	require.NoError(t, err)
	rec.WriteHeader(http.StatusTeapot)

	assert.Equal(t, http.StatusOK, rec.status, "first status wins")
	assert.Equal(t, 5, rec.bytes)

	_, _, err = rec.Hijack()
	assert.Error(t, err, "httptest recorder cannot be hijacked")
	assert.NotNil(t, rec.Unwrap())
}

func TestCORS(t *testing.T) {
	f := newFixture(t, Options{AllowedOrigins: []string{"https://app.example.com"}})

	req, err := http.NewRequest(http.MethodOptions, f.ts.URL+"/api/presets", nil)
	require.NoError(t, err)
	req.Header.Set("Origin", "https://app.example.com")
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	resp.Body.Close()

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "https://app.example.com", resp.Header.Get("Access-Control-Allow-Origin"))
	assert.Contains(t, resp.Header.Get("Access-Control-Allow-Methods"), "PATCH")

	req, err = http.NewRequest(http.MethodGet, f.ts.URL+"/api/presets", nil)
	require.NoError(t, err)
	req.Header.Set("Origin", "https://evil.example.com")
	resp, err = http.DefaultClient.Do(req)
	require.NoError(t, err)
	resp.Body.Close()

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Empty(t, resp.Header.Get("Access-Control-Allow-Origin"))
	assert.Equal(t, "nosniff", resp.Header.Get("X-Content-Type-Options"))
}

func TestIPRateLimiter(t *testing.T) {
	clock := &fakeClock{t: time.Unix(1_700_000_000, 0)}
	rl := newIPRateLimiter(60, 2)
	require.NotNil(t, rl)
	rl.now = clock.now

	allowed := func(ip string) bool {
		ok, _ := rl.allow(ip)
		return ok
	}

	assert.True(t, allowed("10.0.0.1"))
	assert.True(t, allowed("10.0.0.1"))
	ok, wait := rl.allow("10.0.0.1")
	assert.False(t, ok)
	assert.Equal(t, time.Second, wait, "one token per second")
	assert.True(t, allowed("10.0.0.2"), "buckets are per ip")

	clock.advance(500 * time.Millisecond)
	ok, wait = rl.allow("10.0.0.1")
	assert.False(t, ok)
	assert.Equal(t, 500*time.Millisecond, wait, "denied requests do not consume tokens")

	clock.advance(500 * time.Millisecond)
	assert.True(t, allowed("10.0.0.1"))
	assert.False(t, allowed("10.0.0.1"))

	clock.advance(time.Hour)
	assert.True(t, allowed("10.0.0.3"))
	assert.NotContains(t, rl.clients, "10.0.0.2", "idle clients are pruned")
}

func TestRetryAfterSeconds(t *testing.T) {
	assert.Equal(t, 1, retryAfterSeconds(0))
	assert.Equal(t, 1, retryAfterSeconds(200*time.Millisecond))
	assert.Equal(t, 2, retryAfterSeconds(1500*time.Millisecond))
	assert.Equal(t, 60, retryAfterSeconds(59900*time.Millisecond))
}

func TestIPRateLimiter_Disabled(t *testing.T) {
	assert.Nil(t, newIPRateLimiter(-1, 10))
	assert.Nil(t, newIPRateLimiter(60, 0))

	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {})
	h := limitMutations(nil)(next)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/presets/compact/apply", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestLimitMutations(t *testing.T) {
	f := newFixture(t, Options{MutationsPerMinute: 1, MutationBurst: 1})

	resp, _ := f.do(t, http.MethodPost, "/api/presets/compact/apply", "")
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp, _ = f.do(t, http.MethodPost, "/api/presets/large/apply", "")
	assert.Equal(t, http.StatusTooManyRequests, resp.StatusCode)
	assert.Equal(t, "60", resp.Header.Get("Retry-After"), "one token per minute")
	assert.Equal(t, "compact", f.mgr.CurrentPreset())

	resp, _ = f.do(t, http.MethodGet, "/api/presets", "")
	assert.Equal(t, http.StatusOK, resp.StatusCode, "reads are not limited")
}
