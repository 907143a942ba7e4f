package websocket

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"

	"github.com/PtahSamora/titcha-studyroom/internal/hub"
	"github.com/PtahSamora/titcha-studyroom/internal/service"
)

// Handler upgrades authenticated requests to websocket connections and hands
// them to the hub. Only enrolled members of a room may connect.
type Handler struct {
	upgrader    websocket.Upgrader
	hub         *hub.Hub
	roomService *service.RoomService
}

func NewHandler(h *hub.Hub, roomService *service.RoomService) *Handler {
	if h == nil {
		panic("Hub cannot be nil for websocket Handler")
	}
	if roomService == nil {
		panic("RoomService cannot be nil for websocket Handler")
	}

	upgrader := websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin: func(r *http.Request) bool {
			// TODO: restrict to the configured frontend origin.
			return true
		},
	}
	return &Handler{upgrader: upgrader, hub: h, roomService: roomService}
}

// HandleConnection serves GET /ws/room/:roomId. The auth middleware runs
// before the upgrade, so denials are still plain HTTP responses.
func (h *Handler) HandleConnection(c *gin.Context) {
	userIDAny, exists := c.Get("user_id")
	if !exists {
		c.JSON(http.StatusUnauthorized, gin.H{"success": false, "code": "UNAUTHORIZED", "message": "User not authenticated"})
		return
	}
	userID, ok := userIDAny.(uint)
	if !ok {
		logrus.Error("WS Handler: User ID in context is not uint")
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "code": "INTERNAL", "message": "Internal server error"})
		return
	}
	logCtx := logrus.WithField("user_id", userID)

	roomIDStr := c.Param("roomId")
	roomID64, err := strconv.ParseUint(roomIDStr, 10, 32)
	if err != nil {
		logCtx.Warnf("WS Handler: Invalid room ID format: %s", roomIDStr)
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "code": "VALIDATION", "message": "Invalid room ID format"})
		return
	}
	roomID := uint(roomID64)
	logCtx = logCtx.WithField("room_id", roomID)

	if err := h.roomService.EnsureMember(c.Request.Context(), roomID, userID); err != nil {
		switch err {
		case service.ErrRoomNotFound:
			c.JSON(http.StatusNotFound, gin.H{"success": false, "code": "ROOM_NOT_FOUND", "message": "Room not found"})
		case service.ErrNotMember:
			logCtx.Warn("WS Handler: connection rejected, not a member")
			c.JSON(http.StatusForbidden, gin.H{"success": false, "code": "NOT_MEMBER", "message": "Join the room before connecting"})
		default:
			logCtx.WithError(err).Error("WS Handler: failed to validate membership")
			c.JSON(http.StatusInternalServerError, gin.H{"success": false, "code": "INTERNAL", "message": "Failed to validate room"})
		}
		return
	}

	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		// Upgrade writes its own HTTP error response.
		logCtx.WithError(err).Error("WS Handler: Failed to upgrade connection")
		return
	}

	client := hub.NewClient(h.hub, conn, roomID, userID)
	registerMsg := hub.HubMessage{
		Type:   "register",
		Client: client,
		RoomID: client.RoomID(),
		UserID: client.UserID(),
	}
	if !h.hub.QueueMessage(registerMsg) {
		logCtx.Error("WS Handler: Hub message channel full, failed to register client")
		client.CloseConn()
		return
	}

	client.Run()
	logCtx.Info("WS Handler: client connected")
}
