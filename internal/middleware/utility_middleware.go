package middleware

import (
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/atiaa9916/stp-backend/internal/utils"
	"github.com/atiaa9916/stp-backend/pkg/cache"
	"github.com/atiaa9916/stp-backend/pkg/logger"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// CORSMiddleware sets the CORS headers for the allowed origins.
func CORSMiddleware(allowedOrigins []string) gin.HandlerFunc {
	allowAll := len(allowedOrigins) == 0
	for _, origin := range allowedOrigins {
		if origin == "*" {
			allowAll = true
		}
	}

	return func(c *gin.Context) {
		origin := c.GetHeader("Origin")
		if allowAll {
			c.Header("Access-Control-Allow-Origin", "*")
		} else {
			for _, allowed := range allowedOrigins {
				if strings.EqualFold(allowed, origin) {
					c.Header("Access-Control-Allow-Origin", origin)
					break
				}
			}
		}
		c.Header("Access-Control-Allow-Methods", "GET, POST, PUT, PATCH, DELETE, OPTIONS")
		c.Header("Access-Control-Allow-Headers", "Content-Type, Authorization, X-Request-ID")
		c.Header("Access-Control-Expose-Headers", "Content-Length, X-Request-ID")

		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	}
}

// RequestIDMiddleware attaches a request id to each request, honoring one the
// client already sent.
func RequestIDMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		requestID := c.GetHeader("X-Request-ID")
		if requestID == "" {
			requestID = uuid.NewString()
		}
		c.Set("request_id", requestID)
		c.Header("X-Request-ID", requestID)
		c.Next()
	}
}

// LoggingMiddleware logs every request with its latency and outcome.
func LoggingMiddleware(log *logger.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		var userID *primitive.ObjectID
		if id, _, ok := CurrentUser(c); ok {
			userID = &id
		}

		requestLog := log
		if requestID := c.GetString("request_id"); requestID != "" {
			requestLog = log.WithRequestID(requestID)
		}
		requestLog.LogAPIRequest(c.Request.Method, c.FullPath(), c.Writer.Status(), time.Since(start), userID)
	}
}

// RateLimitMiddleware is a fixed-window per-client limiter backed by redis.
// With no cache available it passes everything through.
func RateLimitMiddleware(redisCache *cache.RedisCache, perMinute int) gin.HandlerFunc {
	return func(c *gin.Context) {
		if redisCache == nil || perMinute <= 0 {
			c.Next()
			return
		}

		identity := c.ClientIP()
		if userID, _, ok := CurrentUser(c); ok {
			identity = userID.Hex()
		}
		key := fmt.Sprintf("rate_limit:%s:%d", identity, time.Now().Unix()/60)

		count, err := redisCache.Increment(c.Request.Context(), key)
		if err != nil {
			// Rate limiting is advisory; a cache failure never blocks traffic.
			c.Next()
			return
		}
		if count == 1 {
			_ = redisCache.SetExpire(c.Request.Context(), key, time.Minute)
		}
		if count > int64(perMinute) {
			utils.ErrorResponse(c, http.StatusTooManyRequests, "RATE_LIMITED", "Too many requests")
			c.Abort()
			return
		}

		c.Next()
	}
}
