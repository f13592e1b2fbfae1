package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/nestlingapp/nestling-backend/internal/services"
)

type MilestoneHandler struct {
	milestoneService services.MilestoneService
}

func NewMilestoneHandler(milestoneService services.MilestoneService) *MilestoneHandler {
	return &MilestoneHandler{milestoneService: milestoneService}
}

// ChildMilestones lists the currently relevant catalog for a child overlaid
// with the child's progress.
func (mh *MilestoneHandler) ChildMilestones(c *gin.Context) {
	userID, err := currentUserID(c)
	if err != nil {
		RespondError(c, http.StatusUnauthorized, "unauthorized", err)
		return
	}
	childID, err := pathUUID(c, "childID")
	if err != nil {
		RespondError(c, http.StatusBadRequest, "bad_request", err)
		return
	}

	items, err := mh.milestoneService.ChildMilestoneOverview(c.Request.Context(), userID, childID)
	if err != nil {
		RespondServiceError(c, err)
		return
	}
	RespondOK(c, gin.H{"milestones": items})
}

type toggleMilestoneRequest struct {
	ChildID string `json:"child_id" binding:"required"`
	Notes   string `json:"notes"`
}

func (mh *MilestoneHandler) CompleteMilestone(c *gin.Context) {
	mh.toggle(c, true)
}

func (mh *MilestoneHandler) UncompleteMilestone(c *gin.Context) {
	mh.toggle(c, false)
}

func (mh *MilestoneHandler) toggle(c *gin.Context, complete bool) {
	userID, err := currentUserID(c)
	if err != nil {
		RespondError(c, http.StatusUnauthorized, "unauthorized", err)
		return
	}
	templateID, err := pathUUID(c, "templateID")
	if err != nil {
		RespondError(c, http.StatusBadRequest, "bad_request", err)
		return
	}

	var req toggleMilestoneRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondError(c, http.StatusBadRequest, "bad_request", err)
		return
	}
	childID, err := uuid.Parse(req.ChildID)
	if err != nil {
		RespondError(c, http.StatusBadRequest, "bad_request", err)
		return
	}

	var row any
	if complete {
		row, err = mh.milestoneService.CompleteMilestone(c.Request.Context(), userID, childID, templateID, req.Notes)
	} else {
		row, err = mh.milestoneService.UncompleteMilestone(c.Request.Context(), userID, childID, templateID)
	}
	if err != nil {
		RespondServiceError(c, err)
		return
	}
	RespondOK(c, gin.H{"progress": row})
}

// Stats returns aggregate milestone stats for the user, optionally narrowed to
// one child via ?child_id.
func (mh *MilestoneHandler) Stats(c *gin.Context) {
	userID, err := currentUserID(c)
	if err != nil {
		RespondError(c, http.StatusUnauthorized, "unauthorized", err)
		return
	}

	var childID *uuid.UUID
	if raw := c.Query("child_id"); raw != "" {
		parsed, err := uuid.Parse(raw)
		if err != nil {
			RespondError(c, http.StatusBadRequest, "bad_request", err)
			return
		}
		childID = &parsed
	}

	stats, err := mh.milestoneService.Stats(c.Request.Context(), userID, childID)
	if err != nil {
		RespondServiceError(c, err)
		return
	}
	RespondOK(c, gin.H{"stats": stats})
}
