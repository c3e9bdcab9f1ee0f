package handlers

import (
	"net/http"

	"github.com/Bekzhanizb/HabitDaysBackend/middleware"
	"github.com/Bekzhanizb/HabitDaysBackend/models"
	"github.com/Bekzhanizb/HabitDaysBackend/utils"
	"github.com/gin-gonic/gin"
)

// GetDay handles GET /day?date=...
// completedHabits is omitted when nothing was ever toggled on that date.
func (h *HabitHandler) GetDay(c *gin.Context) {
	var query models.DayQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		badRequest(c, "get_day", "invalid query", err.Error())
		return
	}
	if err := middleware.ValidateStruct(query); err != nil {
		badRequest(c, "get_day", "invalid query", middleware.ValidationMessage(err))
		return
	}

	parsed, err := utils.ParseDate(query.Date, h.loc)
	if err != nil {
		badRequest(c, "get_day", "invalid date", err.Error())
		return
	}
	date := utils.StartOfDay(parsed, h.loc)

	ctx := c.Request.Context()
	possible, err := h.store.PossibleHabits(ctx, date)
	if err != nil {
		serverError(c, "get_day", "failed to load day", err)
		return
	}
	completed, err := h.store.CompletedHabitIDs(ctx, date)
	if err != nil {
		serverError(c, "get_day", "failed to load day", err)
		return
	}

	view := models.DayView{PossibleHabits: possible}
	if view.PossibleHabits == nil {
		view.PossibleHabits = []models.Habit{}
	}
	if completed != nil {
		view.CompletedHabits = &completed
	}

	c.JSON(http.StatusOK, view)
}
