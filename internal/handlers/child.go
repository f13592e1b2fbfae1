package handlers

import (
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/nestlingapp/nestling-backend/internal/services"
)

type ChildHandler struct {
	childService services.ChildService
}

func NewChildHandler(childService services.ChildService) *ChildHandler {
	return &ChildHandler{childService: childService}
}

func (ch *ChildHandler) ListChildren(c *gin.Context) {
	userID, err := currentUserID(c)
	if err != nil {
		RespondError(c, http.StatusUnauthorized, "unauthorized", err)
		return
	}
	children, err := ch.childService.ListChildren(c.Request.Context(), userID)
	if err != nil {
		RespondServiceError(c, err)
		return
	}
	RespondOK(c, gin.H{"children": children})
}

type createChildRequest struct {
	Name      string `json:"name" binding:"required"`
	BirthDate string `json:"birth_date"`
	Gender    string `json:"gender"`
}

func (ch *ChildHandler) CreateChild(c *gin.Context) {
	userID, err := currentUserID(c)
	if err != nil {
		RespondError(c, http.StatusUnauthorized, "unauthorized", err)
		return
	}

	var req createChildRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondError(c, http.StatusBadRequest, "bad_request", err)
		return
	}
	var birthDate *time.Time
	if req.BirthDate != "" {
		parsed, err := time.Parse("2006-01-02", req.BirthDate)
		if err != nil {
			RespondError(c, http.StatusBadRequest, "bad_request", fmt.Errorf("invalid birth_date: %w", err))
			return
		}
		birthDate = &parsed
	}

	child, err := ch.childService.CreateChild(c.Request.Context(), userID, req.Name, birthDate, req.Gender)
	if err != nil {
		RespondServiceError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"child": child})
}
