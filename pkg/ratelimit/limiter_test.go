package ratelimit

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

func newTestLimiter(clock *fakeClock, max int, window time.Duration) *Limiter {
	store := NewMemoryStore(0, WithClock(clock.Now))
	return New(Config{Name: "test", Window: window, MaxRequests: max}, store, WithNow(clock.Now))
}

func TestLimiter_AllowsUpToMaxThenRejects(t *testing.T) {
	clock := newFakeClock()
	l := newTestLimiter(clock, 3, time.Minute)
	req := httptest.NewRequest(http.MethodPost, "/api/auth/login", nil)

	for i := 0; i < 3; i++ {
		assert.Nil(t, l.Check(req, ""), "request %d should be allowed", i+1)
	}

	rj := l.Check(req, "")
	require.NotNil(t, rj)
	assert.Equal(t, 60, rj.RetryAfter)
	assert.Equal(t, 3, rj.Limit)
	assert.Equal(t, DefaultMessage, rj.Message)
}

func TestLimiter_WindowReset(t *testing.T) {
	clock := newFakeClock()
	l := newTestLimiter(clock, 2, 10*time.Second)
	req := httptest.NewRequest(http.MethodGet, "/api/productos", nil)

	l.Check(req, "")
	l.Check(req, "")
	require.NotNil(t, l.Check(req, ""))

	clock.Advance(4 * time.Second)
	rj := l.Check(req, "")
	require.NotNil(t, rj)
	assert.Equal(t, 6, rj.RetryAfter)

	clock.Advance(6 * time.Second)
	assert.Nil(t, l.Check(req, ""))
	assert.Nil(t, l.Check(req, ""))
	assert.NotNil(t, l.Check(req, ""))
}

func TestLimiter_KeysAreIndependent(t *testing.T) {
	clock := newFakeClock()
	l := newTestLimiter(clock, 1, time.Minute)

	a := httptest.NewRequest(http.MethodGet, "/a", nil)
	b := httptest.NewRequest(http.MethodGet, "/b", nil)

	assert.Nil(t, l.Check(a, ""))
	assert.Nil(t, l.Check(b, ""))
	assert.NotNil(t, l.Check(a, ""))

	assert.Nil(t, l.Check(a, "login:ana@example.com"))
	assert.NotNil(t, l.Check(b, "login:ana@example.com"))
}

func TestLimiter_Key(t *testing.T) {
	l := New(APIConfig(), NewMemoryStore(0), WithIPFunc(func(*http.Request) string { return "198.51.100.1" }))
	req := httptest.NewRequest(http.MethodGet, "/api/productos?page=2", nil)

	assert.Equal(t, "198.51.100.1:/api/productos", l.Key(req, ""))
	assert.Equal(t, "custom", l.Key(req, "custom"))
}

type keyStore struct{ keys []string }

func (s *keyStore) Hit(_ context.Context, key string, window time.Duration) (Hit, error) {
	s.keys = append(s.keys, key)
	return Hit{Count: 1, ResetAt: time.Now().Add(window)}, nil
}
func (s *keyStore) Close() error { return nil }

func TestLimiter_StoredKeyCarriesName(t *testing.T) {
	ip := WithIPFunc(func(*http.Request) string { return "198.51.100.1" })
	keys := &keyStore{}
	req := httptest.NewRequest(http.MethodPost, "/api/auth/login", nil)

	New(LoginConfig(), keys, ip).Check(req, "")
	New(CheckoutConfig(), keys, ip).Check(req, "7")

	assert.Equal(t, []string{"login|198.51.100.1:/api/auth/login", "checkout|7"}, keys.keys)
}

func TestRejection_Write(t *testing.T) {
	reset := time.Date(2025, 3, 1, 12, 15, 0, 0, time.UTC)
	rj := &Rejection{Limiter: NameLogin, Limit: 5, RetryAfter: 900, ResetAt: reset, Message: "espera"}

	rr := httptest.NewRecorder()
	rj.Write(rr)

	assert.Equal(t, http.StatusTooManyRequests, rr.Code)
	assert.Equal(t, "900", rr.Header().Get("Retry-After"))
	assert.Equal(t, "5", rr.Header().Get("X-RateLimit-Limit"))
	assert.Equal(t, "0", rr.Header().Get("X-RateLimit-Remaining"))
	assert.Equal(t, "2025-03-01T12:15:00.000Z", rr.Header().Get("X-RateLimit-Reset"))

	var body map[string]any
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &body))
	assert.Equal(t, false, body["success"])
	assert.Equal(t, "espera", body["message"])
	assert.Equal(t, float64(900), body["retryAfter"])
}

type failingStore struct{}

func (failingStore) Hit(context.Context, string, time.Duration) (Hit, error) {
	return Hit{}, errors.New("connection refused")
}
func (failingStore) Close() error { return nil }

func TestLimiter_StoreFailureAllows(t *testing.T) {
	l := New(LoginConfig(), failingStore{})
	req := httptest.NewRequest(http.MethodPost, "/api/auth/login", nil)
	for i := 0; i < 10; i++ {
		assert.Nil(t, l.Check(req, ""))
	}
}

func TestLimiter_ConcurrentRequestsNeverExceedLimit(t *testing.T) {
	l := New(Config{Name: "burst", Window: time.Minute, MaxRequests: 10}, NewMemoryStore(0))
	req := httptest.NewRequest(http.MethodPost, "/api/checkout", nil)

	var allowed atomic.Int64
	var wg sync.WaitGroup
	for i := 0; i < 200; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if l.Check(req, "same-key") == nil {
				allowed.Add(1)
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, int64(10), allowed.Load())
}

func TestLimiter_Observer(t *testing.T) {
	var rejected int
	l := New(Config{Name: "obs", Window: time.Minute, MaxRequests: 1}, NewMemoryStore(0),
		WithObserver(func(name string, r bool) {
			if r {
				rejected++
			}
		}))
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	l.Check(req, "")
	l.Check(req, "")
	assert.Equal(t, 1, rejected)
}

func TestLimiter_Middleware(t *testing.T) {
	l := New(Config{Name: "mw", Window: time.Minute, MaxRequests: 1}, NewMemoryStore(0))
	var rejections int
	h := l.Middleware(func(*http.Request, *Rejection) { rejections++ })(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))

	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/x", nil))
	assert.Equal(t, http.StatusNoContent, rr.Code)

	rr = httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/x", nil))
	assert.Equal(t, http.StatusTooManyRequests, rr.Code)
	assert.Equal(t, 1, rejections)
}

func TestPresets(t *testing.T) {
	tests := []struct {
		cfg    Config
		window time.Duration
		max    int
	}{
		{LoginConfig(), 15 * time.Minute, 5},
		{RegistrationConfig(), time.Hour, 3},
		{APIConfig(), time.Minute, 60},
		{CheckoutConfig(), 5 * time.Minute, 3},
		{UploadConfig(), time.Minute, 10},
		{GlobalConfig(), time.Minute, 60},
	}
	for _, tt := range tests {
		t.Run(tt.cfg.Name, func(t *testing.T) {
			assert.Equal(t, tt.window, tt.cfg.Window)
			assert.Equal(t, tt.max, tt.cfg.MaxRequests)
			assert.NotEmpty(t, tt.cfg.Message)
		})
	}

	set := NewSet(NewMemoryStore(0))
	assert.Equal(t, NameCheckout, set.Checkout.Config().Name)
	assert.Equal(t, NameGlobal, set.Global.Config().Name)
}
