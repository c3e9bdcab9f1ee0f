package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/Bekzhanizb/HabitDaysBackend/models"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func TestRecovery(t *testing.T) {
	r := gin.New()
	r.Use(Recovery())
	r.GET("/boom", func(c *gin.Context) {
		panic("boom")
	})

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/boom", nil))

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.JSONEq(t, `{"error":"internal server error"}`, w.Body.String())
}

func TestRequestLogger_RequestID(t *testing.T) {
	r := gin.New()
	r.Use(RequestLogger())
	r.GET("/ping", func(c *gin.Context) {
		c.String(http.StatusOK, c.GetString("request_id"))
	})

	t.Run("generated", func(t *testing.T) {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/ping", nil))

		id := w.Header().Get(RequestIDHeader)
		assert.NotEmpty(t, id)
		assert.Equal(t, id, w.Body.String())
	})

	t.Run("propagated", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/ping", nil)
		req.Header.Set(RequestIDHeader, "req-123")
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)

		assert.Equal(t, "req-123", w.Header().Get(RequestIDHeader))
	})
}

func TestCacheAndRateLimit_DisabledPassThrough(t *testing.T) {
	calls := 0
	r := gin.New()
	r.Use(RateLimitMiddleware(1, time.Minute))
	r.GET("/summary", CacheMiddleware(time.Minute), func(c *gin.Context) {
		calls++
		c.JSON(http.StatusOK, gin.H{"calls": calls})
	})

	for i := 0; i < 3; i++ {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/summary", nil))
		assert.Equal(t, http.StatusOK, w.Code)
		assert.Empty(t, w.Header().Get("X-Cache"))
		assert.Empty(t, w.Header().Get("X-RateLimit-Limit"))
	}
	assert.Equal(t, 3, calls)

	// No-op without redis.
	InvalidateResponseCache(httptest.NewRequest(http.MethodGet, "/", nil).Context())
}

func TestValidateStruct_CreateHabit(t *testing.T) {
	tests := []struct {
		name    string
		req     models.CreateHabitRequest
		wantErr bool
	}{
		{"valid", models.CreateHabitRequest{Title: "Read", WeekDays: []int{0, 6}}, false},
		{"empty weekdays allowed", models.CreateHabitRequest{Title: "Read", WeekDays: []int{}}, false},
		{"missing title", models.CreateHabitRequest{WeekDays: []int{1}}, true},
		{"whitespace title", models.CreateHabitRequest{Title: "   ", WeekDays: []int{1}}, true},
		{"missing weekdays", models.CreateHabitRequest{Title: "Read"}, true},
		{"weekday above range", models.CreateHabitRequest{Title: "Read", WeekDays: []int{7}}, true},
		{"weekday below range", models.CreateHabitRequest{Title: "Read", WeekDays: []int{-1}}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateStruct(tt.req)
			if tt.wantErr {
				require.Error(t, err)
				assert.NotEmpty(t, ValidationMessage(err))
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestValidateStruct_ToggleParams(t *testing.T) {
	assert.NoError(t, ValidateStruct(models.ToggleHabitParams{ID: "0b6f1c7e-3d2a-4c55-9a57-2f8f0d1f6a3b"}))
	assert.Error(t, ValidateStruct(models.ToggleHabitParams{ID: "42"}))
	assert.Error(t, ValidateStruct(models.ToggleHabitParams{}))
}

func TestValidationMessage(t *testing.T) {
	err := ValidateStruct(models.CreateHabitRequest{Title: "Read", WeekDays: []int{9}})
	assert.Equal(t, "CreateHabitRequest.WeekDays[0] failed max=6", ValidationMessage(err))
}

func TestValidationMessage_BlankTitle(t *testing.T) {
	err := ValidateStruct(models.CreateHabitRequest{Title: " \n ", WeekDays: []int{1}})
	assert.Equal(t, "CreateHabitRequest.Title failed notblank", ValidationMessage(err))
}
