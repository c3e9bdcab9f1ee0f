package routes

import (
	"context"
	"net/http"
	"time"

	"github.com/Bekzhanizb/HabitDaysBackend/config"
	"github.com/Bekzhanizb/HabitDaysBackend/handlers"
	"github.com/Bekzhanizb/HabitDaysBackend/middleware"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Pinger reports database reachability for /health.
type Pinger interface {
	PingContext(ctx context.Context) error
}

func SetupRouter(h *handlers.HabitHandler, db Pinger, cfg config.Config) *gin.Engine {
	r := gin.New()
	r.HandleMethodNotAllowed = true

	r.Use(middleware.Recovery())
	r.Use(middleware.RequestLogger())
	r.Use(cors.New(corsConfig(cfg.CORSOrigins)))
	r.Use(middleware.RateLimitMiddleware(cfg.RateLimit, time.Minute))

	r.GET("/health", healthHandler(db))
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	RegisterHabitRoutes(r, h, cfg.CacheTTL)

	return r
}

func RegisterHabitRoutes(router *gin.Engine, h *handlers.HabitHandler, cacheTTL time.Duration) {
	router.POST("/habits", h.CreateHabit)
	router.GET("/day", middleware.CacheMiddleware(cacheTTL), h.GetDay)
	router.PATCH("/habits/:id/toggle", h.ToggleHabit)
	router.GET("/summary", middleware.CacheMiddleware(cacheTTL), h.GetSummary)
}

func corsConfig(origins []string) cors.Config {
	cfg := cors.Config{
		AllowMethods:  []string{"GET", "POST", "PATCH", "OPTIONS"},
		AllowHeaders:  []string{"Origin", "Content-Type", "Authorization", middleware.RequestIDHeader},
		ExposeHeaders: []string{"Content-Length", middleware.RequestIDHeader, "X-Cache"},
		MaxAge:        12 * time.Hour,
	}
	if len(origins) == 0 || (len(origins) == 1 && origins[0] == "*") {
		cfg.AllowAllOrigins = true
	} else {
		cfg.AllowOrigins = origins
	}
	return cfg
}

func healthHandler(db Pinger) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
		defer cancel()

		status, database := http.StatusOK, "connected"
		if err := db.PingContext(ctx); err != nil {
			status, database = http.StatusServiceUnavailable, "unreachable"
		}

		c.JSON(status, gin.H{
			"status":    http.StatusText(status),
			"timestamp": time.Now().UTC(),
			"database":  database,
		})
	}
}
