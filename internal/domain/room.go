package domain

import "time"

// Room is a collaborative study-room session. The owner is always a member;
// CreateRoom inserts the owner membership row in the same transaction.
type Room struct {
	ID         uint      `gorm:"primaryKey" json:"id"`
	Name       string    `gorm:"size:191;not null" json:"name"`
	Subject    string    `gorm:"size:191" json:"subject"`
	OwnerID    uint      `gorm:"index;not null" json:"ownerUserId"`
	InviteCode string    `gorm:"uniqueIndex;size:191;not null" json:"inviteCode"`
	CreatedAt  time.Time `gorm:"autoCreateTime" json:"createdAt"`
	LastActive time.Time `gorm:"index" json:"-"`
	UpdatedAt  time.Time `gorm:"autoUpdateTime" json:"-"`
}

// RoomMember is one membership row. The (room_id, user_id) unique index is what
// makes enrollment idempotent: AddMember is a FirstOrCreate on it.
type RoomMember struct {
	ID       uint      `gorm:"primaryKey" json:"-"`
	RoomID   uint      `gorm:"uniqueIndex:ux_room_user;not null" json:"roomId"`
	UserID   uint      `gorm:"uniqueIndex:ux_room_user;not null" json:"userId"`
	JoinedAt time.Time `gorm:"autoCreateTime" json:"joinedAt"`
}

// RoleOwner / RoleMember annotate member lists returned by the join protocol.
const (
	RoleOwner  = "owner"
	RoleMember = "member"
)

// MemberInfo is a member list entry as returned to clients.
type MemberInfo struct {
	UserID   uint   `json:"userId"`
	Username string `json:"username"`
	Role     string `json:"role"`
}
