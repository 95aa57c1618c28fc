package middleware

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"polling-backend/ratelimit"
)

// RateLimit rejects requests with 429 once the client IP has used up its
// bucket. A failing limiter lets the request through.
func RateLimit(limiter ratelimit.Limiter, log *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		ip := c.ClientIP()

		allowed, err := limiter.Allow(c.Request.Context(), ip)
		if err != nil {
			log.Warn("rate limiter unavailable, allowing request",
				slog.String("client_ip", ip),
				slog.String("request_id", GetRequestID(c)),
				slog.Any("error", err),
			)
			c.Next()
			return
		}

		if !allowed {
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{
				"error": "too many requests, please try again later",
			})
			return
		}

		c.Next()
	}
}
