package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/Bekzhanizb/HabitDaysBackend/cache"
	"github.com/alicebob/miniredis/v2"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func setupRedis(t *testing.T) *miniredis.Miniredis {
	t.Helper()
	mr := miniredis.RunT(t)
	require.NoError(t, cache.InitRedis(context.Background(), mr.Addr(), zap.NewNop()))
	t.Cleanup(func() {
		cache.Close()
		cache.Client = nil
	})
	return mr
}

func responseKeys(mr *miniredis.Miniredis) []string {
	var keys []string
	for _, k := range mr.Keys() {
		if strings.HasPrefix(k, responseCachePrefix) {
			keys = append(keys, k)
		}
	}
	return keys
}

func get(r *gin.Engine, path string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, path, nil))
	return w
}

func countingRouter(status int, calls *int) *gin.Engine {
	r := gin.New()
	r.GET("/summary", CacheMiddleware(time.Minute), func(c *gin.Context) {
		*calls++
		c.JSON(status, gin.H{"calls": *calls})
	})
	return r
}

func TestCacheMiddleware_MissThenHit(t *testing.T) {
	setupRedis(t)
	calls := 0
	r := countingRouter(http.StatusOK, &calls)

	first := get(r, "/summary")
	assert.Equal(t, http.StatusOK, first.Code)
	assert.Equal(t, "MISS", first.Header().Get("X-Cache"))

	second := get(r, "/summary")
	assert.Equal(t, http.StatusOK, second.Code)
	assert.Equal(t, "HIT", second.Header().Get("X-Cache"))
	assert.Equal(t, first.Body.String(), second.Body.String())
	assert.Equal(t, first.Header().Get("Content-Type"), second.Header().Get("Content-Type"))
	assert.Equal(t, 1, calls)

	other := get(r, "/summary?x=1")
	assert.Equal(t, "MISS", other.Header().Get("X-Cache"), "query is part of the key")
	assert.Equal(t, 2, calls)
}

func TestCacheMiddleware_OnlyStoresOK(t *testing.T) {
	mr := setupRedis(t)
	calls := 0
	r := countingRouter(http.StatusNotFound, &calls)

	for i := 0; i < 2; i++ {
		w := get(r, "/summary")
		assert.Equal(t, http.StatusNotFound, w.Code)
		assert.Equal(t, "MISS", w.Header().Get("X-Cache"))
	}
	assert.Equal(t, 2, calls)
	assert.Empty(t, responseKeys(mr))
}

func TestCacheMiddleware_ZeroTTLDisables(t *testing.T) {
	mr := setupRedis(t)
	r := gin.New()
	r.GET("/summary", CacheMiddleware(0), func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{})
	})

	w := get(r, "/summary")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Empty(t, w.Header().Get("X-Cache"))
	assert.Empty(t, responseKeys(mr))
}

func TestInvalidateResponseCache(t *testing.T) {
	mr := setupRedis(t)
	calls := 0
	r := countingRouter(http.StatusOK, &calls)

	get(r, "/summary")
	assert.Equal(t, "HIT", get(r, "/summary").Header().Get("X-Cache"))
	require.Len(t, responseKeys(mr), 1)

	InvalidateResponseCache(context.Background())
	assert.Empty(t, responseKeys(mr))

	gen, err := mr.Get(cache.GenerationKey)
	require.NoError(t, err)
	assert.Equal(t, "1", gen)

	w := get(r, "/summary")
	assert.Equal(t, "MISS", w.Header().Get("X-Cache"))
	assert.JSONEq(t, `{"calls":2}`, w.Body.String())
}

func TestCacheMiddleware_WriteDuringRequest(t *testing.T) {
	setupRedis(t)
	calls := 0
	r := gin.New()
	r.GET("/day", CacheMiddleware(time.Minute), func(c *gin.Context) {
		calls++
		body := gin.H{"calls": calls}
		if calls == 1 {
			// A write commits and invalidates after this body was read.
			InvalidateResponseCache(c.Request.Context())
		}
		c.JSON(http.StatusOK, body)
	})

	assert.Equal(t, "MISS", get(r, "/day").Header().Get("X-Cache"))

	w := get(r, "/day")
	assert.Equal(t, "MISS", w.Header().Get("X-Cache"), "body from before the write is not served")
	assert.JSONEq(t, `{"calls":2}`, w.Body.String())

	w = get(r, "/day")
	assert.Equal(t, "HIT", w.Header().Get("X-Cache"))
	assert.JSONEq(t, `{"calls":2}`, w.Body.String())
}

func TestCacheMiddleware_RedisUnavailable(t *testing.T) {
	setupRedis(t)
	require.NoError(t, cache.Client.Close())

	calls := 0
	r := gin.New()
	r.Use(RateLimitMiddleware(1, time.Minute))
	r.GET("/summary", CacheMiddleware(time.Minute), func(c *gin.Context) {
		calls++
		c.JSON(http.StatusOK, gin.H{"calls": calls})
	})

	for i := 0; i < 2; i++ {
		w := get(r, "/summary")
		assert.Equal(t, http.StatusOK, w.Code)
		assert.Empty(t, w.Header().Get("X-Cache"))
	}
	assert.Equal(t, 2, calls)
}

func TestRateLimitMiddleware(t *testing.T) {
	mr := setupRedis(t)
	r := gin.New()
	r.Use(RateLimitMiddleware(2, time.Minute))
	r.GET("/day", func(c *gin.Context) {
		c.Status(http.StatusOK)
	})

	for i, remaining := range []string{"1", "0"} {
		w := get(r, "/day")
		assert.Equal(t, http.StatusOK, w.Code, "request %d", i+1)
		assert.Equal(t, "2", w.Header().Get("X-RateLimit-Limit"))
		assert.Equal(t, remaining, w.Header().Get("X-RateLimit-Remaining"))
	}

	w := get(r, "/day")
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.JSONEq(t, `{"error":"too many requests, try again later"}`, w.Body.String())

	t.Run("other client", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/day", nil)
		req.RemoteAddr = "198.51.100.7:4321"
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)
		assert.Equal(t, http.StatusOK, w.Code)
	})

	t.Run("window expires", func(t *testing.T) {
		assert.Equal(t, time.Minute, mr.TTL("rate_limit:192.0.2.1"))
		mr.FastForward(time.Minute)
		assert.Equal(t, http.StatusOK, get(r, "/day").Code)
	})
}
