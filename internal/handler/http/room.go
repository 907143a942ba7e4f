package http

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/PtahSamora/titcha-studyroom/internal/service"
)

// RoomHandler exposes room creation and the session join protocol.
type RoomHandler struct {
	roomService *service.RoomService
}

func NewRoomHandler(roomService *service.RoomService) *RoomHandler {
	if roomService == nil {
		panic("RoomService cannot be nil for RoomHandler")
	}
	return &RoomHandler{roomService: roomService}
}

type createRoomRequest struct {
	Name    string `json:"name" binding:"required,max=191"`
	Subject string `json:"subject" binding:"omitempty,max=191"`
}

func (h *RoomHandler) CreateRoom(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	var req createRoomRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		Fail(c, http.StatusBadRequest, CodeValidation, "Invalid input: name is required")
		return
	}

	room, err := h.roomService.CreateRoom(c.Request.Context(), userID, req.Name, req.Subject)
	if err != nil {
		HandleServiceError(c, err)
		return
	}

	logrus.WithFields(logrus.Fields{"user_id": userID, "room_id": room.ID}).Info("Handler.CreateRoom: room created")
	OK(c, http.StatusCreated, room)
}

type joinByCodeRequest struct {
	InviteCode string `json:"invite_code" binding:"required,len=6"`
}

// JoinByInviteCode resolves an invite code and runs the join protocol.
func (h *RoomHandler) JoinByInviteCode(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	var req joinByCodeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		Fail(c, http.StatusBadRequest, CodeValidation, "Invalid input: invite_code is required")
		return
	}

	result, err := h.roomService.JoinByInviteCode(c.Request.Context(), userID, req.InviteCode)
	if err != nil {
		HandleServiceError(c, err)
		return
	}
	h.writeJoinResult(c, result)
}

// JoinRoom runs the join protocol for a room id.
func (h *RoomHandler) JoinRoom(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	roomID, ok := roomIDParam(c)
	if !ok {
		return
	}

	result, err := h.roomService.Join(c.Request.Context(), roomID, userID)
	if err != nil {
		HandleServiceError(c, err)
		return
	}
	h.writeJoinResult(c, result)
}

// writeJoinResult flattens the join snapshot into the documented shape.
func (h *RoomHandler) writeJoinResult(c *gin.Context, result *service.JoinResult) {
	c.JSON(http.StatusOK, gin.H{
		"success":     true,
		"room":        result.Room,
		"members":     result.Members,
		"snapshot":    result.Snapshot,
		"permissions": result.Permissions,
		"control":     result.Control,
		"me":          result.Me,
	})
}
