package http

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/PtahSamora/titcha-studyroom/internal/service"
)

// ControlHandler exposes the room control token.
type ControlHandler struct {
	controlService *service.ControlService
}

func NewControlHandler(controlService *service.ControlService) *ControlHandler {
	if controlService == nil {
		panic("ControlService cannot be nil for ControlHandler")
	}
	return &ControlHandler{controlService: controlService}
}

func (h *ControlHandler) Get(c *gin.Context) {
	if _, ok := currentUserID(c); !ok {
		return
	}
	roomID, ok := roomIDParam(c)
	if !ok {
		return
	}

	control, err := h.controlService.Get(c.Request.Context(), roomID)
	if err != nil {
		HandleServiceError(c, err)
		return
	}
	OK(c, http.StatusOK, gin.H{"controllerUserId": control.ControllerUserID})
}

type controlUpdateRequest struct {
	Action       string `json:"action" binding:"required,oneof=give revoke take"`
	TargetUserID *uint  `json:"targetUserId"`
}

func (h *ControlHandler) Update(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	roomID, ok := roomIDParam(c)
	if !ok {
		return
	}
	var req controlUpdateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		Fail(c, http.StatusBadRequest, CodeValidation, "Invalid input: action must be give, revoke or take")
		return
	}

	control, err := h.controlService.Update(c.Request.Context(), roomID, userID, req.Action, req.TargetUserID)
	if err != nil {
		HandleServiceError(c, err)
		return
	}
	OK(c, http.StatusOK, gin.H{
		"controllerUserId": control.ControllerUserID,
		"action":           req.Action,
	})
}
