package domain

import "time"

// RoomControl holds the exclusive ask-AI speaker token for a room, 1:1 with
// Room and created lazily. A nil ControllerUserID defers to RoomPermission;
// a non-nil value means exactly that user may query the tutor, overriding the
// permission policy even for the owner.
type RoomControl struct {
	ID               uint      `gorm:"primaryKey" json:"-"`
	RoomID           uint      `gorm:"uniqueIndex;not null" json:"roomId"`
	ControllerUserID *uint     `gorm:"index" json:"controllerUserId"`
	UpdatedAt        time.Time `gorm:"autoUpdateTime" json:"-"`
}

// Control transition actions, owner-only.
const (
	ControlActionGive   = "give"
	ControlActionRevoke = "revoke"
	ControlActionTake   = "take"
)

// HasController reports whether an exclusive controller is set.
func (c *RoomControl) HasController() bool {
	return c.ControllerUserID != nil
}

// IsController reports whether userID currently holds the control token.
func (c *RoomControl) IsController(userID uint) bool {
	return c.ControllerUserID != nil && *c.ControllerUserID == userID
}
