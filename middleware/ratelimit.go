package middleware

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/hamzawaheed/patient-registry/config"
	"github.com/hamzawaheed/patient-registry/util"
)

const (
	defaultRateLimit  = 5
	defaultRateWindow = 15 * time.Minute
)

// RateLimitConfig holds configuration for rate limiting
type RateLimitConfig struct {
	Limit  int
	Window time.Duration
}

// RateLimiter limits requests per client IP and endpoint using a Redis
// counter. When Redis is unavailable requests are allowed through rather than
// denying service.
func RateLimiter(cfg RateLimitConfig) gin.HandlerFunc {
	if cfg.Limit == 0 {
		cfg.Limit = defaultRateLimit
	}
	if cfg.Window == 0 {
		cfg.Window = defaultRateWindow
	}

	return func(c *gin.Context) {
		clientIP := c.ClientIP()
		endpoint := c.Request.URL.Path
		key := fmt.Sprintf("ratelimit:%s:%s", endpoint, clientIP)

		allowed, err := checkRateLimit(key, cfg.Limit, cfg.Window)
		if err != nil {
			c.Next()
			return
		}
		if !allowed {
			util.LogAuditEvent(util.AuditEvent{
				EventType: util.EventEndpointCall,
				IP:        clientIP,
				UserAgent: c.Request.UserAgent(),
				Message:   fmt.Sprintf("Rate limit exceeded for %s", endpoint),
			})
			c.AbortWithStatusJSON(http.StatusTooManyRequests, util.APIResponse{
				Success: false,
				Error:   "rate limit exceeded",
				Msg:     "Too many requests, try again later",
				Data:    map[string]interface{}{},
			})
			return
		}
		c.Next()
	}
}

// checkRateLimit increments the counter for key and reports whether the
// caller is still under limit. The window TTL is set on the first hit.
func checkRateLimit(key string, limit int, window time.Duration) (bool, error) {
	rdb := config.GetRedisClient()
	if rdb == nil {
		return true, nil
	}
	ctx := context.Background()

	count, err := rdb.Incr(ctx, key).Result()
	if err != nil {
		return true, err
	}
	if count == 1 {
		if err := rdb.Expire(ctx, key, window).Err(); err != nil {
			return true, err
		}
	}
	return count <= int64(limit), nil
}
