package middleware

import (
	"context"
	_ "embed"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis/v8"
	"github.com/sirupsen/logrus"
)

//go:embed rate_limiter.lua
var luaScript string

// tokenBucket reloads itself with EVAL when the server has lost the cached SHA.
var tokenBucket = redis.NewScript(luaScript)

// RateLimiterConfig holds rate limiter configuration
type RateLimiterConfig struct {
	Capacity   int     // Maximum number of tokens (burst)
	RefillRate float64 // Tokens refilled per second
}

// DefaultRateLimiterConfig allows a burst of 5 credential attempts, then one every two seconds.
func DefaultRateLimiterConfig() *RateLimiterConfig {
	return &RateLimiterConfig{
		Capacity:   5,
		RefillRate: 0.5,
	}
}

// RateLimiterMiddleware implements a per-client-IP token bucket in Redis.
// Requests pass through when Redis is unavailable.
func RateLimiterMiddleware(redisClient *redis.Client, config *RateLimiterConfig) (gin.HandlerFunc, error) {
	if config.Capacity <= 0 || config.RefillRate <= 0 {
		return nil, fmt.Errorf("rate limiter needs positive capacity and refill rate, got %d/%v", config.Capacity, config.RefillRate)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := tokenBucket.Load(ctx, redisClient).Err(); err != nil {
		return nil, fmt.Errorf("load rate limiter script: %w", err)
	}

	return func(c *gin.Context) {
		key := ClientRateLimiterKey(c.FullPath(), c.ClientIP())
		now := float64(time.Now().UnixNano()) / float64(time.Second)

		result, err := tokenBucket.Run(c.Request.Context(), redisClient, []string{key},
			config.Capacity,
			config.RefillRate,
			now,
		).Int64()
		if err != nil {
			logrus.WithError(err).Error("Failed to execute rate limiter Lua script")
			c.Next()
			return
		}

		if result == 0 {
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{
				"success":     false,
				"error":       "Rate limit exceeded",
				"message":     fmt.Sprintf("Maximum %d attempts in a burst allowed", config.Capacity),
				"retry_after": fmt.Sprintf("%.1f seconds", 1.0/config.RefillRate),
			})
			return
		}

		c.Next()
	}, nil
}

// ClientRateLimiterKey builds the bucket key for one route and client address.
func ClientRateLimiterKey(route, clientIP string) string {
	return fmt.Sprintf("rate_limiter:%s:%s", route, clientIP)
}
