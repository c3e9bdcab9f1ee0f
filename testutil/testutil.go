package testutil

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/Bekzhanizb/HabitDaysBackend/db"
	"github.com/Bekzhanizb/HabitDaysBackend/models"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// SetupTestDB returns a migrated in-memory SQLite database that lives for
// the duration of the test.
func SetupTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	conn, err := db.Open(sqlite.Open(":memory:?_foreign_keys=on"), logger.Default.LogMode(logger.Silent))
	require.NoError(t, err, "open test database")
	require.NoError(t, db.Migrate(conn), "migrate test database")

	t.Cleanup(func() {
		if sqlDB, err := conn.DB(); err == nil {
			sqlDB.Close()
		}
	})
	return conn
}

// Date builds a UTC-midnight calendar date.
func Date(year int, month time.Month, day int) time.Time {
	return time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
}

// CreateTestHabit inserts a habit directly, bypassing the HTTP layer.
func CreateTestHabit(t *testing.T, conn *gorm.DB, title string, createdAt time.Time, weekDays ...int) models.Habit {
	t.Helper()

	habit := models.Habit{Title: title, CreatedAt: createdAt}
	for _, wd := range weekDays {
		habit.WeekDays = append(habit.WeekDays, models.HabitWeekDay{WeekDay: wd})
	}
	require.NoError(t, conn.Create(&habit).Error, "create test habit")
	return habit
}

// CompleteTestHabit marks habitID completed on date, creating the day if needed.
func CompleteTestHabit(t *testing.T, conn *gorm.DB, habitID string, date time.Time) {
	t.Helper()

	var day models.Day
	require.NoError(t, conn.Where(models.Day{Date: date}).FirstOrCreate(&day).Error, "create test day")
	require.NoError(t, conn.Create(&models.DayHabit{DayID: day.ID, HabitID: habitID}).Error, "create test completion")
}

// MakeRequest creates an HTTP test request with an optional JSON body.
func MakeRequest(method, path string, body interface{}) *http.Request {
	var req *http.Request
	switch b := body.(type) {
	case nil:
		req = httptest.NewRequest(method, path, nil)
	case string:
		req = httptest.NewRequest(method, path, bytes.NewBufferString(b))
		req.Header.Set("Content-Type", "application/json")
	default:
		jsonBody, _ := json.Marshal(b)
		req = httptest.NewRequest(method, path, bytes.NewReader(jsonBody))
		req.Header.Set("Content-Type", "application/json")
	}
	return req
}

// AssertStatus checks the response code and prints the body on mismatch.
func AssertStatus(t *testing.T, w *httptest.ResponseRecorder, expected int) {
	t.Helper()
	require.Equal(t, expected, w.Code, "body: %s", w.Body.String())
}

// DecodeJSON decodes the response body into v.
func DecodeJSON(t *testing.T, w *httptest.ResponseRecorder, v interface{}) {
	t.Helper()
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), v), "decode body: %s", w.Body.String())
}
