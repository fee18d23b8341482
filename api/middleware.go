package api

import (
	"context"
	"crypto/subtle"
	"net/http"
	"strconv"
	"time"

	"github.com/Domenick1991/travelagent/internal/cache"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

const (
	userIDHeader   = "X-User-ID"
	adminKeyHeader = "X-Admin-Key"
	userIDKey      = "user_id"
)

// RequireUser takes the caller identity from X-User-ID, set by the upstream auth proxy.
func RequireUser() gin.HandlerFunc {
	return func(c *gin.Context) {
		userID := c.GetHeader(userIDHeader)
		if userID == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, errorResponse{Error: "missing " + userIDHeader + " header"})
			return
		}
		c.Set(userIDKey, userID)
		c.Next()
	}
}

func RequireAdmin(apiKey string) gin.HandlerFunc {
	return func(c *gin.Context) {
		got := c.GetHeader(adminKeyHeader)
		if apiKey == "" || subtle.ConstantTimeCompare([]byte(got), []byte(apiKey)) != 1 {
			c.AbortWithStatusJSON(http.StatusForbidden, errorResponse{Error: "admin access required"})
			return
		}
		c.Next()
	}
}

func currentUser(c *gin.Context) string {
	return c.GetString(userIDKey)
}

type Limiter interface {
	Allow(ctx context.Context, identifier string, limit int, window time.Duration) (cache.RateLimitResult, error)
}

// RateLimit counts requests per user (or client IP) under scope. A nil limiter disables it.
func RateLimit(limiter Limiter, scope string, limit int, window time.Duration, log *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		if limiter == nil || limit <= 0 {
			c.Next()
			return
		}

		id := c.GetHeader(userIDHeader)
		if id == "" {
			id = c.ClientIP()
		}
		res, err := limiter.Allow(c.Request.Context(), scope+":"+id, limit, window)
		if err != nil {
			log.Warn("rate limiter unavailable", zap.String("scope", scope), zap.Error(err))
		}

		c.Header("X-RateLimit-Limit", strconv.Itoa(res.Limit))
		c.Header("X-RateLimit-Remaining", strconv.Itoa(res.Remaining))
		c.Header("X-RateLimit-Reset", strconv.FormatInt(res.Reset.Unix(), 10))
		if !res.Allowed {
			retry := int(time.Until(res.Reset).Seconds()) + 1
			c.Header("Retry-After", strconv.Itoa(retry))
			c.AbortWithStatusJSON(http.StatusTooManyRequests, errorResponse{Error: "too many requests"})
			return
		}
		c.Next()
	}
}

// ForMethod runs h only for requests with the given method.
func ForMethod(method string, h gin.HandlerFunc) gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.Request.Method != method {
			c.Next()
			return
		}
		h(c)
	}
}
