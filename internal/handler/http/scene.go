package http

import (
	"encoding/json"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/PtahSamora/titcha-studyroom/internal/service"
)

// SceneHandler exposes scene snapshot read/save over HTTP. The realtime path
// goes through the websocket hub; this is the explicit save and late-fetch
// surface.
type SceneHandler struct {
	sceneService *service.SceneService
}

func NewSceneHandler(sceneService *service.SceneService) *SceneHandler {
	if sceneService == nil {
		panic("SceneService cannot be nil for SceneHandler")
	}
	return &SceneHandler{sceneService: sceneService}
}

func (h *SceneHandler) Get(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	roomID, ok := roomIDParam(c)
	if !ok {
		return
	}

	scene, err := h.sceneService.GetScene(c.Request.Context(), roomID, userID)
	if err != nil {
		HandleServiceError(c, err)
		return
	}
	OK(c, http.StatusOK, gin.H{"snapshot": scene})
}

type saveSceneRequest struct {
	Snapshot json.RawMessage `json:"snapshot" binding:"required"`
}

func (h *SceneHandler) Save(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	roomID, ok := roomIDParam(c)
	if !ok {
		return
	}
	var req saveSceneRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		Fail(c, http.StatusBadRequest, CodeValidation, "Invalid input: snapshot is required")
		return
	}

	if err := h.sceneService.SaveSnapshot(c.Request.Context(), roomID, userID, req.Snapshot); err != nil {
		HandleServiceError(c, err)
		return
	}
	OK(c, http.StatusOK, gin.H{"saved": true})
}
