package domain

import (
	"encoding/json"
	"fmt"
	"time"
)

// RoomPermission is the per-room AI-access policy, 1:1 with Room and created
// lazily with defaults on first access. MemberAskAi stores the allow-list as a
// JSON array to keep grant order stable.
type RoomPermission struct {
	ID           uint      `gorm:"primaryKey" json:"-"`
	RoomID       uint      `gorm:"uniqueIndex;not null" json:"roomId"`
	AskAiEnabled bool      `gorm:"not null;default:false" json:"askAiEnabled"`
	MemberAskAi  string    `gorm:"type:text" json:"-"`
	UpdatedAt    time.Time `gorm:"autoUpdateTime" json:"-"`
}

// AskList parses MemberAskAi into an ordered user id slice. Empty or "null"
// data yields an empty slice, never an error.
func (p *RoomPermission) AskList() ([]uint, error) {
	if p.MemberAskAi == "" {
		return []uint{}, nil
	}
	var ids []uint
	if err := json.Unmarshal([]byte(p.MemberAskAi), &ids); err != nil {
		return nil, fmt.Errorf("failed to unmarshal ask-ai allow-list: %w", err)
	}
	if ids == nil {
		ids = []uint{}
	}
	return ids, nil
}

// SetAskList serializes the allow-list back into MemberAskAi.
func (p *RoomPermission) SetAskList(ids []uint) error {
	if ids == nil {
		ids = []uint{}
	}
	bytes, err := json.Marshal(ids)
	if err != nil {
		return fmt.Errorf("failed to marshal ask-ai allow-list: %w", err)
	}
	p.MemberAskAi = string(bytes)
	return nil
}
