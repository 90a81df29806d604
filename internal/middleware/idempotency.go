package middleware

import (
	"bytes"
	"context"
	"errors"
	"net/http"
	"time"

	"authgate/internal/store"
	"authgate/pkg/logger"
	"github.com/gin-gonic/gin"
)

const idempotencyHeader = "Idempotency-Key"

// bodyCapture tees the response body so it can be stored after the handler
// has written it.
type bodyCapture struct {
	gin.ResponseWriter
	buf bytes.Buffer
}

func (w *bodyCapture) Write(b []byte) (int, error) {
	w.buf.Write(b)
	return w.ResponseWriter.Write(b)
}

// Idempotency replays cached responses for retried writes. A request
// bearing a known Idempotency-Key within the TTL gets the first response
// body back verbatim with a 200 and never reaches the handler. Requests
// without the header pass through untouched.
//
// Two concurrent requests with the same fresh key can both miss and both
// execute; no lock is taken. This is mostly-once, not exactly-once, and
// the store outage path degrades the same way: the handler runs and the
// response simply is not cached.
func Idempotency(kv store.Store, ttl time.Duration) gin.HandlerFunc {
	return func(c *gin.Context) {
		key := c.GetHeader(idempotencyHeader)
		if key == "" {
			c.Next()
			return
		}
		cacheKey := "idempotency:" + key

		ctx, cancel := context.WithTimeout(c.Request.Context(), storeTimeout)
		cached, err := kv.Get(ctx, cacheKey)
		cancel()
		if err == nil {
			c.Data(http.StatusOK, "application/json; charset=utf-8", []byte(cached))
			c.Abort()
			return
		}
		if !errors.Is(err, store.ErrNotFound) {
			logger.Warn().Err(err).Msg("idempotency cache read failed, skipping replay")
		}

		writer := &bodyCapture{ResponseWriter: c.Writer}
		c.Writer = writer

		c.Next()

		if writer.buf.Len() == 0 {
			return
		}

		ctx, cancel = context.WithTimeout(context.Background(), storeTimeout)
		defer cancel()
		if err := kv.Set(ctx, cacheKey, writer.buf.String(), ttl); err != nil {
			logger.Warn().Err(err).Msg("idempotency cache write failed")
		}
	}
}
