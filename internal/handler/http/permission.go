package http

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/PtahSamora/titcha-studyroom/internal/service"
)

// PermissionHandler exposes the room ask-AI policy.
type PermissionHandler struct {
	permissionService *service.PermissionService
}

func NewPermissionHandler(permissionService *service.PermissionService) *PermissionHandler {
	if permissionService == nil {
		panic("PermissionService cannot be nil for PermissionHandler")
	}
	return &PermissionHandler{permissionService: permissionService}
}

func (h *PermissionHandler) Get(c *gin.Context) {
	if _, ok := currentUserID(c); !ok {
		return
	}
	roomID, ok := roomIDParam(c)
	if !ok {
		return
	}

	view, err := h.permissionService.Get(c.Request.Context(), roomID)
	if err != nil {
		HandleServiceError(c, err)
		return
	}
	OK(c, http.StatusOK, view)
}

func (h *PermissionHandler) Update(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	roomID, ok := roomIDParam(c)
	if !ok {
		return
	}
	var req service.PermissionUpdate
	if err := c.ShouldBindJSON(&req); err != nil {
		Fail(c, http.StatusBadRequest, CodeValidation, "Invalid input: "+err.Error())
		return
	}

	view, err := h.permissionService.Update(c.Request.Context(), roomID, userID, req)
	if err != nil {
		HandleServiceError(c, err)
		return
	}
	OK(c, http.StatusOK, view)
}
