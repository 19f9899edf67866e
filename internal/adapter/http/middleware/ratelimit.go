package middleware

import (
	"fmt"
	"strconv"
	"time"

	redisStore "consignment-ledger/internal/adapter/storage/redis"
	"consignment-ledger/pkg/apperror"
	"consignment-ledger/pkg/response"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
)

// LoginRateLimiter throttles login attempts per client IP using a
// fixed window. When the rate limit store is unreachable the request
// passes without throttling.
func LoginRateLimiter(store *redisStore.RateLimitStore, limit int64, window time.Duration, log zerolog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		key := fmt.Sprintf("login:%s", c.ClientIP())

		result, err := store.Allow(c.Request.Context(), key, limit, window)
		if err != nil {
			log.Warn().Err(err).Msg("rate limit check failed, allowing request (degraded mode)")
			c.Next()
			return
		}

		// Always set rate limit headers
		c.Header("X-RateLimit-Limit", strconv.FormatInt(result.Limit, 10))
		c.Header("X-RateLimit-Remaining", strconv.FormatInt(result.Remaining, 10))
		c.Header("X-RateLimit-Reset", strconv.FormatInt(result.ResetAt, 10))

		if !result.Allowed {
			retryAfter := result.ResetAt - time.Now().Unix()
			if retryAfter < 1 {
				retryAfter = 1
			}
			c.Header("Retry-After", strconv.FormatInt(retryAfter, 10))
			response.Error(c, apperror.ErrRateLimitExceeded())
			c.Abort()
			return
		}

		c.Next()
	}
}
