package handlers

import (
	"net/http"

	"github.com/Bekzhanizb/HabitDaysBackend/models"
	"github.com/gin-gonic/gin"
)

// GetSummary handles GET /summary
func (h *HabitHandler) GetSummary(c *gin.Context) {
	summary, err := h.store.Summary(c.Request.Context())
	if err != nil {
		serverError(c, "get_summary", "failed to build summary", err)
		return
	}
	if summary == nil {
		summary = []models.SummaryDay{}
	}

	c.JSON(http.StatusOK, summary)
}
