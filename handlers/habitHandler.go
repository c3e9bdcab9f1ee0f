package handlers

import (
	"errors"
	"net/http"
	"time"

	"github.com/Bekzhanizb/HabitDaysBackend/middleware"
	"github.com/Bekzhanizb/HabitDaysBackend/models"
	"github.com/Bekzhanizb/HabitDaysBackend/store"
	"github.com/Bekzhanizb/HabitDaysBackend/utils"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type HabitHandler struct {
	store store.Store
	loc   *time.Location
	now   func() time.Time
}

func NewHabitHandler(s store.Store, loc *time.Location) *HabitHandler {
	if loc == nil {
		loc = time.Local
	}
	return &HabitHandler{store: s, loc: loc, now: time.Now}
}

// today is the normalized current calendar date.
func (h *HabitHandler) today() time.Time {
	return utils.StartOfDay(h.now(), h.loc)
}

// CreateHabit handles POST /habits
func (h *HabitHandler) CreateHabit(c *gin.Context) {
	var req models.CreateHabitRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "create_habit", "invalid request body", err.Error())
		return
	}
	if err := middleware.ValidateStruct(req); err != nil {
		badRequest(c, "create_habit", "invalid request body", middleware.ValidationMessage(err))
		return
	}

	habit, err := h.store.CreateHabit(c.Request.Context(), req.Title, req.WeekDays, h.today())
	if err != nil {
		serverError(c, "create_habit", "failed to create habit", err)
		return
	}

	middleware.InvalidateResponseCache(c.Request.Context())
	utils.HabitsCreated.Inc()
	utils.Logger.Info("habit_created",
		zap.String("habit_id", habit.ID),
		zap.Ints("week_days", req.WeekDays),
	)

	c.JSON(http.StatusCreated, habit)
}

// ToggleHabit handles PATCH /habits/:id/toggle. It always acts on today.
func (h *HabitHandler) ToggleHabit(c *gin.Context) {
	var params models.ToggleHabitParams
	if err := c.ShouldBindUri(&params); err != nil {
		badRequest(c, "toggle_habit", "invalid habit id", err.Error())
		return
	}
	if err := middleware.ValidateStruct(params); err != nil {
		badRequest(c, "toggle_habit", "invalid habit id", middleware.ValidationMessage(err))
		return
	}

	today := h.today()
	completed, err := h.store.ToggleHabit(c.Request.Context(), params.ID, today)
	if errors.Is(err, store.ErrHabitNotFound) {
		utils.ErrorCount.WithLabelValues("toggle_habit", "not_found").Inc()
		c.JSON(http.StatusNotFound, gin.H{"error": "habit not found"})
		return
	}
	if err != nil {
		serverError(c, "toggle_habit", "failed to toggle habit", err)
		return
	}

	state := "uncompleted"
	if completed {
		state = "completed"
	}
	middleware.InvalidateResponseCache(c.Request.Context())
	utils.HabitToggles.WithLabelValues(state).Inc()
	utils.Logger.Info("habit_toggled",
		zap.String("habit_id", params.ID),
		zap.Time("date", today),
		zap.String("state", state),
	)

	c.JSON(http.StatusOK, models.ToggleResult{
		HabitID:   params.ID,
		Date:      today,
		Completed: completed,
	})
}

func badRequest(c *gin.Context, handler, message, details string) {
	utils.ErrorCount.WithLabelValues(handler, "validation").Inc()
	c.JSON(http.StatusBadRequest, gin.H{"error": message, "details": details})
}

func serverError(c *gin.Context, handler, message string, err error) {
	utils.ErrorCount.WithLabelValues(handler, "storage").Inc()
	utils.Logger.Error(handler+"_failed", zap.Error(err))
	c.Error(err)
	c.JSON(http.StatusInternalServerError, gin.H{"error": message})
}
