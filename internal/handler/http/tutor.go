package http

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/PtahSamora/titcha-studyroom/internal/service"
)

// TutorHandler exposes the ask-tutor endpoint.
type TutorHandler struct {
	tutorService *service.TutorService
	roomService  *service.RoomService
}

func NewTutorHandler(tutorService *service.TutorService, roomService *service.RoomService) *TutorHandler {
	if tutorService == nil || roomService == nil {
		panic("services cannot be nil for TutorHandler")
	}
	return &TutorHandler{tutorService: tutorService, roomService: roomService}
}

type askRequest struct {
	Prompt string `json:"prompt" binding:"required,max=4000"`
}

func (h *TutorHandler) Ask(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	roomID, ok := roomIDParam(c)
	if !ok {
		return
	}
	var req askRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		Fail(c, http.StatusBadRequest, CodeValidation, "Invalid input: prompt is required")
		return
	}

	blocks, err := h.tutorService.Ask(c.Request.Context(), roomID, userID, req.Prompt)
	if err != nil {
		HandleServiceError(c, err)
		return
	}

	subject := ""
	if room, rerr := h.roomService.GetRoom(c.Request.Context(), roomID); rerr == nil {
		subject = room.Subject
	}
	OK(c, http.StatusOK, gin.H{
		"blocks":  blocks,
		"roomId":  roomID,
		"subject": subject,
	})
}
