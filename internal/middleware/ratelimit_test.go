package middleware

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"authgate/internal/config"
	"authgate/internal/store"
	"github.com/gin-gonic/gin"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func limitedRouter(rl interface{ Middleware() gin.HandlerFunc }) *gin.Engine {
	router := gin.New()
	router.Use(rl.Middleware())
	router.GET("/test", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})
	return router
}

func hit(router *gin.Engine, ip string) int {
	w := httptest.NewRecorder()
	req, _ := http.NewRequest("GET", "/test", nil)
	req.RemoteAddr = ip + ":12345"
	router.ServeHTTP(w, req)
	return w.Code
}

func limiterConfig() config.RateLimitConfig {
	return config.RateLimitConfig{
		Capacity:          10,
		RefillRate:        1,
		IdleExpirySeconds: 3600,
		FailMode:          "open",
	}
}

// clock whose time tests can advance.
type testClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *testClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *testClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

func TestRateLimiter_BurstThenReject(t *testing.T) {
	st := store.NewMemoryStore()
	router := limitedRouter(NewRateLimiter(st, limiterConfig()))

	// Capacity 10: first 10 instantaneous requests pass, the 11th is rejected.
	for i := 1; i <= 10; i++ {
		if code := hit(router, "10.0.0.1"); code != http.StatusOK {
			t.Fatalf("request %d: status = %d, expected 200", i, code)
		}
	}
	if code := hit(router, "10.0.0.1"); code != http.StatusTooManyRequests {
		t.Errorf("11th request: status = %d, expected 429", code)
	}
}

func TestRateLimiter_RefillAdmitsOneMore(t *testing.T) {
	clock := &testClock{now: time.Unix(1700000000, 0)}
	st := store.NewMemoryStore()
	st.Now = clock.Now
	router := limitedRouter(NewRateLimiter(st, limiterConfig()))

	for i := 0; i < 11; i++ {
		hit(router, "10.0.0.1")
	}

	// Refill rate is 1/s: after one second exactly one more is admitted.
	clock.Advance(time.Second)
	if code := hit(router, "10.0.0.1"); code != http.StatusOK {
		t.Errorf("after refill: status = %d, expected 200", code)
	}
	if code := hit(router, "10.0.0.1"); code != http.StatusTooManyRequests {
		t.Errorf("second post-refill request: status = %d, expected 429", code)
	}
}

func TestRateLimiter_IndependentPerIP(t *testing.T) {
	st := store.NewMemoryStore()
	cfg := limiterConfig()
	cfg.Capacity = 1
	router := limitedRouter(NewRateLimiter(st, cfg))

	if code := hit(router, "10.0.0.1"); code != http.StatusOK {
		t.Fatalf("IP1 first request: status = %d", code)
	}
	if code := hit(router, "10.0.0.1"); code != http.StatusTooManyRequests {
		t.Errorf("IP1 second request: status = %d, expected 429", code)
	}
	if code := hit(router, "10.0.0.2"); code != http.StatusOK {
		t.Errorf("IP2 should have its own bucket: status = %d", code)
	}
}

// failingStore simulates an unreachable shared store.
type failingStore struct{}

var errStoreDown = errors.New("connection refused")

func (failingStore) Get(context.Context, string) (string, error) { return "", errStoreDown }
func (failingStore) Set(context.Context, string, string, time.Duration) error {
	return errStoreDown
}
func (failingStore) GetFields(context.Context, string) (map[string]string, error) {
	return nil, errStoreDown
}
func (failingStore) SetFields(context.Context, string, map[string]string) error {
	return errStoreDown
}
func (failingStore) Expire(context.Context, string, time.Duration) error { return errStoreDown }
func (failingStore) Delete(context.Context, string) error                { return errStoreDown }
func (failingStore) TakeToken(context.Context, string, float64, float64, time.Duration) (float64, bool, error) {
	return 0, false, errStoreDown
}

func TestRateLimiter_FailOpen(t *testing.T) {
	router := limitedRouter(NewRateLimiter(failingStore{}, limiterConfig()))

	if code := hit(router, "10.0.0.1"); code != http.StatusOK {
		t.Errorf("store outage with fail-open: status = %d, expected 200", code)
	}
}

func TestRateLimiter_FailClosed(t *testing.T) {
	cfg := limiterConfig()
	cfg.FailMode = "closed"
	router := limitedRouter(NewRateLimiter(failingStore{}, cfg))

	if code := hit(router, "10.0.0.1"); code != http.StatusTooManyRequests {
		t.Errorf("store outage with fail-closed: status = %d, expected 429", code)
	}
}

func TestLocalRateLimiter_BlocksExcessiveRequests(t *testing.T) {
	cfg := limiterConfig()
	cfg.Capacity = 2
	router := limitedRouter(NewLocalRateLimiter(cfg))

	var lastCode int
	for i := 0; i < 5; i++ {
		lastCode = hit(router, "10.0.0.1")
	}
	if lastCode != http.StatusTooManyRequests {
		t.Errorf("status after burst exceeded = %d, expected 429", lastCode)
	}
}

func TestLocalRateLimiter_IndependentPerIP(t *testing.T) {
	cfg := limiterConfig()
	cfg.Capacity = 1
	router := limitedRouter(NewLocalRateLimiter(cfg))

	if code := hit(router, "10.0.0.1"); code != http.StatusOK {
		t.Fatalf("IP1 first request: status = %d", code)
	}
	if code := hit(router, "10.0.0.2"); code != http.StatusOK {
		t.Errorf("IP2 should still have its own burst: status = %d", code)
	}
}
