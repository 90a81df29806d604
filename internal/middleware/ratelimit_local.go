package middleware

import (
	"sync"
	"time"

	"authgate/internal/config"
	"authgate/pkg/response"
	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"
)

// clientLimiter holds a per-IP limiter and when it was last used.
type clientLimiter struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// LocalRateLimiter enforces the same per-IP token bucket in process memory.
// It is the degraded single-process mode used when Redis is disabled:
// budgets are not shared across server processes.
type LocalRateLimiter struct {
	mu        sync.Mutex
	clients   map[string]*clientLimiter
	rps       rate.Limit
	burst     int
	idlePrune time.Duration
}

func NewLocalRateLimiter(cfg config.RateLimitConfig) *LocalRateLimiter {
	rl := &LocalRateLimiter{
		clients:   make(map[string]*clientLimiter),
		rps:       rate.Limit(cfg.RefillRate),
		burst:     int(cfg.Capacity),
		idlePrune: cfg.IdleExpiry(),
	}
	go rl.cleanup()
	return rl
}

func (rl *LocalRateLimiter) getLimiter(ip string) *rate.Limiter {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	v, exists := rl.clients[ip]
	if !exists {
		limiter := rate.NewLimiter(rl.rps, rl.burst)
		rl.clients[ip] = &clientLimiter{limiter: limiter, lastSeen: time.Now()}
		return limiter
	}

	v.lastSeen = time.Now()
	return v.limiter
}

// cleanup drops buckets idle longer than the configured expiry.
func (rl *LocalRateLimiter) cleanup() {
	for {
		time.Sleep(3 * time.Minute)
		rl.mu.Lock()
		for ip, v := range rl.clients {
			if time.Since(v.lastSeen) > rl.idlePrune {
				delete(rl.clients, ip)
			}
		}
		rl.mu.Unlock()
	}
}

func (rl *LocalRateLimiter) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !rl.getLimiter(c.ClientIP()).Allow() {
			response.AbortFail(c, response.TooManyRequests("Rate limit exceeded. Please try again later."))
			return
		}
		c.Next()
	}
}
