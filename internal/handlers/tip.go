package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/nestlingapp/nestling-backend/internal/services"
)

type TipHandler struct {
	tipService services.DailyTipService
}

func NewTipHandler(tipService services.DailyTipService) *TipHandler {
	return &TipHandler{tipService: tipService}
}

func (th *TipHandler) TodaysTip(c *gin.Context) {
	userID, err := currentUserID(c)
	if err != nil {
		RespondError(c, http.StatusUnauthorized, "unauthorized", err)
		return
	}
	tip, err := th.tipService.TodaysTip(c.Request.Context(), userID)
	if err != nil {
		RespondServiceError(c, err)
		return
	}
	RespondOK(c, gin.H{"tip": tip})
}

func (th *TipHandler) RecentTips(c *gin.Context) {
	userID, err := currentUserID(c)
	if err != nil {
		RespondError(c, http.StatusUnauthorized, "unauthorized", err)
		return
	}
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "7"))
	tips, err := th.tipService.RecentTips(c.Request.Context(), userID, limit)
	if err != nil {
		RespondServiceError(c, err)
		return
	}
	RespondOK(c, gin.H{"tips": tips})
}

func (th *TipHandler) CompleteTip(c *gin.Context) {
	userID, err := currentUserID(c)
	if err != nil {
		RespondError(c, http.StatusUnauthorized, "unauthorized", err)
		return
	}
	tipID, err := pathUUID(c, "tipID")
	if err != nil {
		RespondError(c, http.StatusBadRequest, "bad_request", err)
		return
	}
	tip, err := th.tipService.CompleteTip(c.Request.Context(), userID, tipID)
	if err != nil {
		RespondServiceError(c, err)
		return
	}
	RespondOK(c, gin.H{"tip": tip})
}

func (th *TipHandler) SkipTip(c *gin.Context) {
	userID, err := currentUserID(c)
	if err != nil {
		RespondError(c, http.StatusUnauthorized, "unauthorized", err)
		return
	}
	tipID, err := pathUUID(c, "tipID")
	if err != nil {
		RespondError(c, http.StatusBadRequest, "bad_request", err)
		return
	}
	tip, err := th.tipService.SkipTip(c.Request.Context(), userID, tipID)
	if err != nil {
		RespondServiceError(c, err)
		return
	}
	RespondOK(c, gin.H{"tip": tip})
}
