package domain

import "time"

// SystemSender marks messages authored by the service itself (e.g. the tutor
// summary appended after a successful ask).
const SystemSender = "system"

// RoomMessage is one entry in a room's append-only message log.
type RoomMessage struct {
	ID        string    `gorm:"primaryKey;size:36" json:"id"`
	RoomID    uint      `gorm:"index;not null" json:"roomId"`
	Sender    string    `gorm:"size:191;not null" json:"from"`
	Text      string    `gorm:"type:text;not null" json:"text"`
	CreatedAt time.Time `gorm:"index;autoCreateTime" json:"createdAt"`
}
