package store

import (
	"context"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func setupPostgresMock(t *testing.T) (*GormStore, sqlmock.Sqlmock) {
	t.Helper()

	sqlDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { sqlDB.Close() })

	conn, err := gorm.Open(postgres.New(postgres.Config{Conn: sqlDB}), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	return NewGormStore(conn), mock
}

func TestSummary_PostgresWeekDay(t *testing.T) {
	s, mock := setupPostgresMock(t)

	date := time.Date(2024, 1, 3, 0, 0, 0, 0, time.UTC)
	rows := sqlmock.NewRows([]string{"id", "date", "completed", "amount"}).
		AddRow("5d7a1d0e-8a0b-4a53-9d0c-3f6f9f6d5f11", date, 2, 3)

	mock.ExpectQuery(regexp.QuoteMeta("hwd.week_day = CAST(EXTRACT(DOW FROM d.date AT TIME ZONE 'UTC') AS INTEGER)")).
		WillReturnRows(rows)

	summary, err := s.Summary(context.Background())
	require.NoError(t, err)
	require.Len(t, summary, 1)
	assert.Equal(t, 2, summary[0].Completed)
	assert.Equal(t, 3, summary[0].Amount)
	assert.True(t, summary[0].Date.Equal(date))

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestWeekDayExpr(t *testing.T) {
	assert.Equal(t, "CAST(strftime('%w', d.date) AS INTEGER)", weekDayExpr("sqlite", "d.date"))
	assert.Equal(t, "CAST(EXTRACT(DOW FROM d.date AT TIME ZONE 'UTC') AS INTEGER)", weekDayExpr("postgres", "d.date"))
}
