package domain

import "encoding/json"

// Event types carried over the room-scoped pub/sub channel and the websocket.
const (
	EventRoomJoin      = "room:join"
	EventRoomLeave     = "room:leave"
	EventScene         = "room:scene"        // client -> server, throttled
	EventSceneUpdate   = "room:scene-update" // server -> clients
	EventControlUpdate = "control:update"
	EventPermUpdate    = "perm:update"
	EventChat          = "room:chat"
	EventMessage       = "room:message"
	EventCursor        = "room:cursor"
)

// Event is the envelope exchanged on websocket connections and published to
// the room's redis channel. Payload stays raw so scene data is never
// re-interpreted server-side.
type Event struct {
	Type    string          `json:"type"`
	RoomID  uint            `json:"roomId"`
	UserID  uint            `json:"userId,omitempty"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

// TutorBlock is one structured content block returned by the tutoring oracle.
type TutorBlock struct {
	Type string `json:"type"`
	Text string `json:"text"`
}
