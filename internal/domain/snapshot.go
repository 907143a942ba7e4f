package domain

import "time"

// RoomSnapshot stores the last saved whiteboard scene for a room. The scene is
// opaque JSON produced by the client (elements plus a curated subset of view
// and style state). Saves overwrite wholesale; last writer wins.
type RoomSnapshot struct {
	ID        uint      `gorm:"primaryKey" json:"-"`
	RoomID    uint      `gorm:"uniqueIndex;not null" json:"roomId"`
	Data      string    `gorm:"type:longtext;not null" json:"-"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updatedAt"`
}
