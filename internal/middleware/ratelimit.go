package middleware

import (
	"context"
	"time"

	"authgate/internal/config"
	"authgate/internal/store"
	"authgate/pkg/logger"
	"authgate/pkg/response"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
)

const storeTimeout = 2 * time.Second

// RateLimiter is token-bucket admission control shared across server
// processes through the state store, one bucket per client IP. When the
// store is unreachable the limiter fails open unless fail_mode is "closed":
// the request is admitted and a warning recorded.
type RateLimiter struct {
	store store.Store
	cfg   config.RateLimitConfig
	log   zerolog.Logger
}

func NewRateLimiter(st store.Store, cfg config.RateLimitConfig) *RateLimiter {
	return &RateLimiter{
		store: st,
		cfg:   cfg,
		log:   logger.With("ratelimit"),
	}
}

// Middleware gates every request through the client's bucket.
func (rl *RateLimiter) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		key := "bucket:" + c.ClientIP()

		ctx, cancel := context.WithTimeout(c.Request.Context(), storeTimeout)
		defer cancel()

		_, allowed, err := rl.store.TakeToken(ctx, key, rl.cfg.Capacity, rl.cfg.RefillRate, rl.cfg.IdleExpiry())
		if err != nil {
			if rl.cfg.FailOpen() {
				rl.log.Warn().Err(err).Str("ip", c.ClientIP()).Msg("state store unreachable, admitting request")
				c.Next()
				return
			}
			rl.log.Error().Err(err).Str("ip", c.ClientIP()).Msg("state store unreachable, rejecting request")
			response.AbortFail(c, response.TooManyRequests("Rate limit exceeded. Please try again later."))
			return
		}

		if !allowed {
			response.AbortFail(c, response.TooManyRequests("Rate limit exceeded. Please try again later."))
			return
		}

		c.Next()
	}
}
