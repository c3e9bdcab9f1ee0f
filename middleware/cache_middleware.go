package middleware

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/Bekzhanizb/HabitDaysBackend/cache"
	"github.com/Bekzhanizb/HabitDaysBackend/utils"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

const responseCachePrefix = "cache:"

// CacheMiddleware caches successful GET responses by path and query.
// Keys carry the cache generation read before the handler runs, so a body
// computed before a concurrent write is never served after it. It passes
// requests straight through when redis is not configured or duration is 0.
func CacheMiddleware(duration time.Duration) gin.HandlerFunc {
	return func(c *gin.Context) {
		if !cache.Enabled() || duration <= 0 || c.Request.Method != http.MethodGet {
			c.Next()
			return
		}

		ctx := c.Request.Context()
		gen, err := cache.Generation(ctx)
		if err != nil {
			utils.Logger.Warn("cache_generation_failed", zap.Error(err))
			c.Next()
			return
		}
		cacheKey := responseCacheKey(gen, c.Request.URL.Path, c.Request.URL.RawQuery)

		var cachedResponse cache.CachedResponse
		if err := cache.Get(ctx, cacheKey, &cachedResponse); err == nil {
			utils.Logger.Debug("cache_hit", zap.String("key", cacheKey))

			c.Header("X-Cache", "HIT")

			c.Data(cachedResponse.Status, cachedResponse.ContentType, cachedResponse.Body)
			c.Abort()
			return
		}

		utils.Logger.Debug("cache_miss", zap.String("key", cacheKey))
		c.Header("X-Cache", "MISS")

		blw := &bodyLogWriter{body: bytes.NewBufferString(""), ResponseWriter: c.Writer}
		c.Writer = blw

		c.Next()

		if c.Writer.Status() == http.StatusOK {
			cachedResp := cache.CachedResponse{
				Status:      c.Writer.Status(),
				ContentType: c.Writer.Header().Get("Content-Type"),
				Body:        blw.body.Bytes(),
			}

			if err := cache.Set(ctx, cacheKey, cachedResp, duration); err != nil {
				utils.Logger.Warn("cache_set_failed",
					zap.Error(err),
					zap.String("key", cacheKey),
				)
			}
		}
	}
}

func responseCacheKey(gen int64, path, rawQuery string) string {
	return fmt.Sprintf("%s%d:%s?%s", responseCachePrefix, gen, path, rawQuery)
}

type bodyLogWriter struct {
	gin.ResponseWriter
	body *bytes.Buffer
}

func (w *bodyLogWriter) Write(b []byte) (int, error) {
	w.body.Write(b)
	return w.ResponseWriter.Write(b)
}

func (w *bodyLogWriter) WriteString(s string) (int, error) {
	w.body.WriteString(s)
	return w.ResponseWriter.WriteString(s)
}

// InvalidateResponseCache drops every cached day view and summary. Called
// after any write; failures are logged only.
func InvalidateResponseCache(ctx context.Context) {
	if !cache.Enabled() {
		return
	}
	// Bump first: a request that read the old generation can still store
	// its body after the delete, but nobody will look it up again.
	if _, err := cache.BumpGeneration(ctx); err != nil {
		utils.Logger.Warn("cache_invalidate_failed", zap.Error(err))
		return
	}
	if err := cache.DeletePattern(ctx, responseCachePrefix+"*"); err != nil {
		utils.Logger.Warn("cache_invalidate_failed", zap.Error(err))
		return
	}
	utils.Logger.Debug("response_cache_invalidated")
}

// RateLimitMiddleware allows maxRequests per client IP in each window.
// Redis errors let the request through.
func RateLimitMiddleware(maxRequests int, window time.Duration) gin.HandlerFunc {
	return func(c *gin.Context) {
		if !cache.Enabled() || maxRequests <= 0 {
			c.Next()
			return
		}

		clientIP := c.ClientIP()
		key := fmt.Sprintf("rate_limit:%s", clientIP)

		count, err := cache.IncrementCounter(c.Request.Context(), key, window)
		if err != nil {
			utils.Logger.Error("rate_limit_error", zap.Error(err))
			c.Next()
			return
		}

		c.Header("X-RateLimit-Limit", fmt.Sprintf("%d", maxRequests))
		c.Header("X-RateLimit-Remaining", fmt.Sprintf("%d", max(0, maxRequests-int(count))))

		if count > int64(maxRequests) {
			utils.Logger.Warn("rate_limit_exceeded",
				zap.String("ip", clientIP),
				zap.Int64("count", count),
			)
			c.JSON(http.StatusTooManyRequests, gin.H{"error": "too many requests, try again later"})
			c.Abort()
			return
		}

		c.Next()
	}
}
