package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/nestlingapp/nestling-backend/internal/services"
)

var errMissingWeekStart = errors.New("week_start query parameter is required")

type ProgressHandler struct {
	progressService services.ProgressService
}

func NewProgressHandler(progressService services.ProgressService) *ProgressHandler {
	return &ProgressHandler{progressService: progressService}
}

// WeeklyProgress compares this week's engagement against last week's.
func (ph *ProgressHandler) WeeklyProgress(c *gin.Context) {
	userID, err := currentUserID(c)
	if err != nil {
		RespondError(c, http.StatusUnauthorized, "unauthorized", err)
		return
	}
	summary, err := ph.progressService.Summary(c.Request.Context(), userID)
	if err != nil {
		RespondServiceError(c, err)
		return
	}
	RespondOK(c, summary)
}

// RecalculateWeek rebuilds one week's counters from the activity log.
func (ph *ProgressHandler) RecalculateWeek(c *gin.Context) {
	userID, err := currentUserID(c)
	if err != nil {
		RespondError(c, http.StatusUnauthorized, "unauthorized", err)
		return
	}
	weekStart := c.Query("week_start")
	if weekStart == "" {
		RespondError(c, http.StatusBadRequest, "bad_request", errMissingWeekStart)
		return
	}
	row, err := ph.progressService.RecalculateWeek(c.Request.Context(), userID, weekStart)
	if err != nil {
		RespondServiceError(c, err)
		return
	}
	RespondOK(c, gin.H{"stats": row})
}
