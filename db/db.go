package db

import (
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"github.com/Bekzhanizb/HabitDaysBackend/config"
	"github.com/Bekzhanizb/HabitDaysBackend/models"
	"github.com/Bekzhanizb/HabitDaysBackend/utils"
	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

const (
	maxRetries = 10
	retryDelay = 2 * time.Second
)

// Dialector picks the gorm driver for the configured database type.
func Dialector(cfg config.Config) (gorm.Dialector, error) {
	switch cfg.DatabaseType {
	case config.DatabasePostgres:
		return postgres.Open(cfg.DatabaseURL), nil
	case config.DatabaseSQLite:
		return sqlite.Open(sqliteDSN(cfg.DatabaseURL)), nil
	default:
		return nil, fmt.Errorf("unsupported database type %q", cfg.DatabaseType)
	}
}

func sqliteDSN(path string) string {
	sep := "?"
	if strings.Contains(path, "?") {
		sep = "&"
	}
	return path + sep + "_foreign_keys=on&_busy_timeout=5000"
}

// Open opens a gorm handle and sizes its pool. SQLite is limited to one
// connection, which also serializes transactions.
func Open(dialector gorm.Dialector, gormLogger logger.Interface) (*gorm.DB, error) {
	conn, err := gorm.Open(dialector, &gorm.Config{
		Logger: gormLogger,
		NowFunc: func() time.Time {
			return time.Now().UTC()
		},
		PrepareStmt: dialector.Name() != config.DatabaseSQLite,
	})
	if err != nil {
		// gorm.Open returns the handle even when its ping fails.
		closeConn(conn)
		return nil, err
	}

	sqlDB, err := conn.DB()
	if err != nil {
		return nil, err
	}
	if err := sqlDB.Ping(); err != nil {
		sqlDB.Close()
		return nil, err
	}

	if dialector.Name() == config.DatabaseSQLite {
		sqlDB.SetMaxOpenConns(1)
	} else {
		sqlDB.SetMaxIdleConns(10)
		sqlDB.SetMaxOpenConns(100)
		sqlDB.SetConnMaxLifetime(time.Hour)
	}
	return conn, nil
}

func closeConn(conn *gorm.DB) {
	if conn == nil {
		return
	}
	if sqlDB, err := conn.DB(); err == nil {
		sqlDB.Close()
	}
}

// Connect retries until the database answers or maxRetries is reached.
func Connect(cfg config.Config) (*gorm.DB, error) {
	dialector, err := Dialector(cfg)
	if err != nil {
		return nil, err
	}

	gormLogger := logger.New(
		log.New(os.Stdout, "\r\n", log.LstdFlags),
		logger.Config{
			SlowThreshold:             200 * time.Millisecond,
			LogLevel:                  logger.Warn,
			IgnoreRecordNotFoundError: true,
			Colorful:                  false,
		},
	)

	var conn *gorm.DB
	for i := 0; i < maxRetries; i++ {
		conn, err = Open(dialector, gormLogger)
		if err == nil {
			utils.Logger.Info("database_connected", zap.String("type", cfg.DatabaseType))
			return conn, nil
		}

		utils.Logger.Warn("database_connect_retry",
			zap.Int("attempt", i+1),
			zap.Int("max_attempts", maxRetries),
			zap.Error(err),
		)
		time.Sleep(retryDelay)
	}

	return nil, fmt.Errorf("failed to connect to database after %d attempts: %w", maxRetries, err)
}

// Migrate creates or updates the habit tables.
func Migrate(conn *gorm.DB) error {
	if err := conn.AutoMigrate(models.All()...); err != nil {
		return fmt.Errorf("failed to migrate schema: %w", err)
	}
	return nil
}
