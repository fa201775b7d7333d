package middleware

import (
  "fmt"
  "time"

  "github.com/gin-gonic/gin"
  "github.com/redis/go-redis/v9"

  "github.com/autoassist/autoassist-backend/internal/apperr"
  "github.com/autoassist/autoassist-backend/internal/logger"
)

var fixedWindowScript = redis.NewScript(`
local count = redis.call("INCR", KEYS[1])
if count == 1 then
  redis.call("PEXPIRE", KEYS[1], ARGV[1])
end
return count
`)

// RateLimitMiddleware keeps a fixed-window counter per client IP and route
// name in redis. With no redis client configured it is a no-op, and a redis
// failure lets the request through: throttling is protection, not a
// dependency.
type RateLimitMiddleware struct {
  log         *logger.Logger
  redisClient *redis.Client
  prefix      string
}

func NewRateLimitMiddleware(log *logger.Logger, redisClient *redis.Client) *RateLimitMiddleware {
  middlewareLog := log.With("middleware", "RateLimitMiddleware")
  return &RateLimitMiddleware{
    log:         middlewareLog,
    redisClient: redisClient,
    prefix:      "autoassist:ratelimit",
  }
}

// Limit allows at most limit requests per window for each client IP on the
// named route.
func (rlm *RateLimitMiddleware) Limit(name string, limit int, window time.Duration) gin.HandlerFunc {
  return func(c *gin.Context) {
    if rlm.redisClient == nil || limit <= 0 {
      c.Next()
      return
    }
    windowMs := window.Milliseconds()
    windowSlot := time.Now().UTC().UnixMilli() / windowMs
    key := fmt.Sprintf("%s:%s:%s:%d", rlm.prefix, name, c.ClientIP(), windowSlot)

    count, err := fixedWindowScript.Run(c.Request.Context(), rlm.redisClient, []string{key}, windowMs).Int64()
    if err != nil {
      rlm.log.Warn("Rate limit check failed, letting request through", "route", name, "error", err)
      c.Next()
      return
    }
    if count > int64(limit) {
      ae := apperr.ErrRateLimited
      c.Header("Retry-After", fmt.Sprintf("%d", int(window.Seconds())))
      c.AbortWithStatusJSON(ae.Status, gin.H{"error": ae.Message, "code": ae.Code})
      return
    }
    c.Next()
  }
}
