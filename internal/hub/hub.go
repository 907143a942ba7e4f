package hub

import (
	"context"
	"encoding/json"
	"strconv"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/PtahSamora/titcha-studyroom/internal/domain"
	"github.com/PtahSamora/titcha-studyroom/internal/repository"
	"github.com/PtahSamora/titcha-studyroom/internal/service"
)

// WebSocket tuning constants shared by hub and client.
const (
	// Time allowed to write a message to the peer.
	writeWait = 10 * time.Second

	// Time allowed to read the next pong message from the peer.
	pongWait = 60 * time.Second

	// Send pings to peer with this period. Must be less than pongWait.
	pingPeriod = (pongWait * 9) / 10

	// Maximum message size allowed from peer. Scene payloads can be large.
	maxMessageSize = 512 * 1024
)

// HubMessage is the unit passed on the hub's internal channel.
type HubMessage struct {
	Type    string // "register", "unregister", "event"
	RoomID  uint
	UserID  uint
	Client  *Client
	RawData []byte // only for "event"
}

// roomState bundles everything the hub keeps per active room: its local
// clients, the scene throttler, and the cancel func of its redis subscription.
type roomState struct {
	clients     map[*Client]bool
	throttler   *Throttler
	unsubscribe func()
}

// Hub coordinates websocket clients per room. Events fan out through the
// room's redis channel so every server instance with subscribers sees them;
// the hub's subscription goroutine delivers them to local clients.
type Hub struct {
	messageChan chan HubMessage

	rooms   map[uint]*roomState
	roomsMu sync.RWMutex

	sceneService  *service.SceneService
	stateRepo     repository.StateRepository
	messageRepo   repository.MessageRepository
	sceneInterval time.Duration
}

func NewHub(
	sceneService *service.SceneService,
	stateRepo repository.StateRepository,
	messageRepo repository.MessageRepository,
	sceneInterval time.Duration,
) *Hub {
	if sceneService == nil || stateRepo == nil || messageRepo == nil {
		panic("all dependencies must be non-nil for Hub")
	}
	if sceneInterval <= 0 {
		sceneInterval = DefaultSceneInterval
	}
	return &Hub{
		messageChan:   make(chan HubMessage, 512),
		rooms:         make(map[uint]*roomState),
		sceneService:  sceneService,
		stateRepo:     stateRepo,
		messageRepo:   messageRepo,
		sceneInterval: sceneInterval,
	}
}

// Run is the hub's main loop; it should run in its own goroutine and exits
// when the message channel closes.
func (h *Hub) Run() {
	log := logrus.WithField("component", "hub")
	log.Info("Hub is running")

	for msg := range h.messageChan {
		switch msg.Type {
		case "register":
			h.registerClient(msg.Client)
		case "unregister":
			h.unregisterClient(msg.Client)
		case "event":
			go h.handleClientEvent(msg)
		default:
			log.Warnf("Unknown hub message type: %s", msg.Type)
		}
	}
	log.Info("Hub is shutting down")
}

// QueueMessage enqueues without blocking; a full queue drops the message.
func (h *Hub) QueueMessage(msg HubMessage) bool {
	select {
	case h.messageChan <- msg:
		return true
	default:
		logrus.WithFields(logrus.Fields{
			"message_type": msg.Type,
			"room_id":      msg.RoomID,
			"user_id":      msg.UserID,
		}).Warn("Hub message channel full, dropping message")
		return false
	}
}

func (h *Hub) registerClient(client *Client) {
	if client == nil {
		return
	}
	roomID := client.RoomID()
	logCtx := logrus.WithFields(logrus.Fields{"room_id": roomID, "user_id": client.UserID()})

	h.roomsMu.Lock()
	room, ok := h.rooms[roomID]
	if !ok {
		room = &roomState{clients: make(map[*Client]bool)}
		room.throttler = NewThrottler(h.sceneInterval, func(event domain.Event) {
			if err := h.stateRepo.PublishEvent(context.Background(), event); err != nil {
				logrus.WithField("room_id", event.RoomID).WithError(err).Error("Failed to publish throttled scene update")
			}
		})
		events, cancel, err := h.stateRepo.Subscribe(context.Background(), roomID)
		if err != nil {
			h.roomsMu.Unlock()
			logCtx.WithError(err).Error("Failed to subscribe to room channel, closing client")
			room.throttler.Dispose()
			client.CloseConn()
			return
		}
		room.unsubscribe = cancel
		h.rooms[roomID] = room
		go h.fanOut(roomID, events)
		logCtx.Info("Room activated in hub")
	}
	room.clients[client] = true
	h.roomsMu.Unlock()
	logCtx.Info("Client registered to hub")

	go h.sendInitialScene(client)
}

func (h *Hub) unregisterClient(client *Client) {
	if client == nil {
		return
	}
	roomID := client.RoomID()
	logCtx := logrus.WithFields(logrus.Fields{"room_id": roomID, "user_id": client.UserID()})

	h.roomsMu.Lock()
	room, ok := h.rooms[roomID]
	if ok {
		if _, exists := room.clients[client]; exists {
			delete(room.clients, client)
			close(client.send)
		}
		if len(room.clients) == 0 {
			room.throttler.Dispose()
			if room.unsubscribe != nil {
				room.unsubscribe()
			}
			delete(h.rooms, roomID)
			logCtx.Info("Room emptied, hub resources released")
		}
	}
	h.roomsMu.Unlock()
	logCtx.Info("Client unregistered from hub")

	event := domain.Event{Type: domain.EventRoomLeave, RoomID: roomID, UserID: client.UserID()}
	if err := h.stateRepo.PublishEvent(context.Background(), event); err != nil {
		logCtx.WithError(err).Warn("Failed to publish room:leave event")
	}
}

// fanOut delivers one room's subscribed events to its local clients. It exits
// when the subscription channel closes (unsubscribe on room teardown).
func (h *Hub) fanOut(roomID uint, events <-chan domain.Event) {
	for event := range events {
		data, err := json.Marshal(event)
		if err != nil {
			logrus.WithField("room_id", roomID).WithError(err).Warn("Failed to marshal event for fan-out")
			continue
		}
		h.broadcastLocal(roomID, event.UserID, data)
	}
}

// broadcastLocal writes to every local client in the room except the
// originating user. Slow clients are skipped rather than blocking the rest.
func (h *Hub) broadcastLocal(roomID uint, senderUserID uint, message []byte) {
	h.roomsMu.RLock()
	room, ok := h.rooms[roomID]
	var recipients []*Client
	if ok {
		recipients = make([]*Client, 0, len(room.clients))
		for client := range room.clients {
			if senderUserID != 0 && client.UserID() == senderUserID {
				continue
			}
			recipients = append(recipients, client)
		}
	}
	h.roomsMu.RUnlock()

	for _, client := range recipients {
		select {
		case client.send <- message:
		default:
			logrus.WithFields(logrus.Fields{
				"room_id":          roomID,
				"receiver_user_id": client.UserID(),
			}).Warn("Client send channel full during broadcast, skipping")
		}
	}
}

// sendInitialScene pushes the latest scene to a newly registered client so it
// starts from the same state as everyone else.
func (h *Hub) sendInitialScene(client *Client) {
	logCtx := logrus.WithFields(logrus.Fields{"room_id": client.RoomID(), "user_id": client.UserID()})

	scene, err := h.sceneService.GetScene(context.Background(), client.RoomID(), client.UserID())
	if err != nil {
		logCtx.WithError(err).Warn("Failed to load initial scene for client")
		return
	}
	if scene == nil {
		return
	}
	event := domain.Event{Type: domain.EventSceneUpdate, RoomID: client.RoomID(), Payload: scene}
	data, err := json.Marshal(event)
	if err != nil {
		logCtx.WithError(err).Error("Failed to marshal initial scene event")
		return
	}
	select {
	case client.send <- data:
	default:
		logCtx.Warn("Client send channel full, initial scene dropped")
	}
}

// handleClientEvent routes one parsed client event.
func (h *Hub) handleClientEvent(msg HubMessage) {
	ctx := context.Background()
	logCtx := logrus.WithFields(logrus.Fields{"room_id": msg.RoomID, "user_id": msg.UserID})

	var event domain.Event
	if err := json.Unmarshal(msg.RawData, &event); err != nil {
		logCtx.WithError(err).Warn("Dropping malformed client event")
		return
	}
	event.RoomID = msg.RoomID
	event.UserID = msg.UserID

	switch event.Type {
	case domain.EventScene:
		// Whole-scene payload: cache the newest state, then hand it to the
		// room's throttler which rebroadcasts it as room:scene-update.
		h.sceneService.CacheLiveScene(ctx, msg.RoomID, event.Payload)
		update := domain.Event{
			Type:    domain.EventSceneUpdate,
			RoomID:  msg.RoomID,
			UserID:  msg.UserID,
			Payload: event.Payload,
		}
		h.roomsMu.RLock()
		room, ok := h.rooms[msg.RoomID]
		h.roomsMu.RUnlock()
		if ok {
			room.throttler.Push(update)
		}

	case domain.EventChat:
		var body struct {
			Text string `json:"text"`
		}
		if err := json.Unmarshal(event.Payload, &body); err != nil || body.Text == "" {
			logCtx.Warn("Dropping malformed chat event")
			return
		}
		roomMsg := &domain.RoomMessage{
			ID:     uuid.NewString(),
			RoomID: msg.RoomID,
			Sender: formatSender(msg.UserID),
			Text:   body.Text,
		}
		if err := h.messageRepo.Append(ctx, roomMsg); err != nil {
			logCtx.WithError(err).Error("Failed to append chat message")
			return
		}
		payload, err := json.Marshal(roomMsg)
		if err != nil {
			return
		}
		out := domain.Event{Type: domain.EventMessage, RoomID: msg.RoomID, UserID: msg.UserID, Payload: payload}
		if err := h.stateRepo.PublishEvent(ctx, out); err != nil {
			logCtx.WithError(err).Warn("Failed to publish chat message")
		}

	case domain.EventCursor:
		// Ephemeral; relay without throttle or persistence.
		if err := h.stateRepo.PublishEvent(ctx, event); err != nil {
			logCtx.WithError(err).Debug("Failed to publish cursor event")
		}

	default:
		logCtx.WithField("event_type", event.Type).Debug("Ignoring unsupported client event type")
	}
}

// GetActiveRoomIDs returns the rooms with at least one local client; the
// autosave worker iterates these.
func (h *Hub) GetActiveRoomIDs() []uint {
	h.roomsMu.RLock()
	defer h.roomsMu.RUnlock()
	ids := make([]uint, 0, len(h.rooms))
	for id := range h.rooms {
		ids = append(ids, id)
	}
	return ids
}

// StopAllSubscriptions tears down every room's redis subscription and
// throttler; called on shutdown.
func (h *Hub) StopAllSubscriptions() {
	h.roomsMu.Lock()
	defer h.roomsMu.Unlock()
	for id, room := range h.rooms {
		room.throttler.Dispose()
		if room.unsubscribe != nil {
			room.unsubscribe()
		}
		logrus.WithField("room_id", id).Debug("Room subscription stopped")
	}
}

func formatSender(userID uint) string {
	return "user:" + strconv.FormatUint(uint64(userID), 10)
}
