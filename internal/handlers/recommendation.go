package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/nestlingapp/nestling-backend/internal/services"
)

type RecommendationHandler struct {
	recService services.RecommendationService
}

func NewRecommendationHandler(recService services.RecommendationService) *RecommendationHandler {
	return &RecommendationHandler{recService: recService}
}

// NextSteps returns the personalized home feed: today's tip, ranked articles,
// action items and lifetime counters.
func (rh *RecommendationHandler) NextSteps(c *gin.Context) {
	userID, err := currentUserID(c)
	if err != nil {
		RespondError(c, http.StatusUnauthorized, "unauthorized", err)
		return
	}
	content, err := rh.recService.Content(c.Request.Context(), userID)
	if err != nil {
		RespondServiceError(c, err)
		return
	}
	RespondOK(c, content)
}

func (rh *RecommendationHandler) Articles(c *gin.Context) {
	userID, err := currentUserID(c)
	if err != nil {
		RespondError(c, http.StatusUnauthorized, "unauthorized", err)
		return
	}
	articles, err := rh.recService.RecommendedArticles(c.Request.Context(), userID)
	if err != nil {
		RespondServiceError(c, err)
		return
	}
	RespondOK(c, gin.H{"articles": articles})
}
