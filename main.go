package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Bekzhanizb/HabitDaysBackend/cache"
	"github.com/Bekzhanizb/HabitDaysBackend/config"
	"github.com/Bekzhanizb/HabitDaysBackend/db"
	"github.com/Bekzhanizb/HabitDaysBackend/handlers"
	"github.com/Bekzhanizb/HabitDaysBackend/routes"
	"github.com/Bekzhanizb/HabitDaysBackend/store"
	"github.com/Bekzhanizb/HabitDaysBackend/utils"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"go.uber.org/zap"
)

func main() {
	// .env is optional; real environment variables win.
	_ = godotenv.Load()

	cfg, err := config.Load(os.Args[1:])
	if err != nil {
		fmt.Fprintln(os.Stderr, "config:", err)
		os.Exit(1)
	}

	if err := utils.InitLogger(cfg.LogFile, cfg.LogLevel); err != nil {
		fmt.Fprintln(os.Stderr, "logger:", err)
		os.Exit(1)
	}
	defer utils.Logger.Sync()
	utils.InitMetrics()

	utils.Logger.Info("starting_application",
		zap.String("database_type", cfg.DatabaseType),
		zap.String("timezone", cfg.Location.String()),
	)

	conn, err := db.Connect(cfg)
	if err != nil {
		utils.Logger.Fatal("database_connection_failed", zap.Error(err))
	}
	if err := db.Migrate(conn); err != nil {
		utils.Logger.Fatal("migration_failed", zap.Error(err))
	}
	sqlDB, err := conn.DB()
	if err != nil {
		utils.Logger.Fatal("database_handle_failed", zap.Error(err))
	}
	defer sqlDB.Close()

	if cfg.RedisAddr != "" {
		if err := cache.InitRedis(context.Background(), cfg.RedisAddr, utils.Logger); err != nil {
			utils.Logger.Warn("cache_disabled", zap.Error(err))
		} else {
			defer cache.Close()
		}
	}

	gin.SetMode(gin.ReleaseMode)
	habitHandler := handlers.NewHabitHandler(store.NewGormStore(conn), cfg.Location)
	router := routes.SetupRouter(habitHandler, sqlDB, cfg)

	startServer(router, cfg.Port)
}

func startServer(router *gin.Engine, port int) {
	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", port),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		utils.Logger.Info("starting_http_server", zap.Int("port", port))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			utils.Logger.Fatal("http_server_failed", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	utils.Logger.Info("shutting_down_server")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		utils.Logger.Error("server_forced_shutdown", zap.Error(err))
		return
	}

	utils.Logger.Info("server_stopped")
}
