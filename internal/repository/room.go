package repository

import (
	"context"

	"github.com/PtahSamora/titcha-studyroom/internal/domain"
)

// RoomRepository is the authoritative store for rooms and their membership.
type RoomRepository interface {
	// FindByID returns the room or ErrRoomNotFound.
	FindByID(ctx context.Context, id uint) (*domain.Room, error)

	// FindByInviteCode returns the room for an invite code or ErrRoomNotFound.
	FindByInviteCode(ctx context.Context, code string) (*domain.Room, error)

	// Save creates the room when ID is zero, updates it otherwise.
	Save(ctx context.Context, room *domain.Room) error

	// IsInviteCodeExists reports whether a code is already taken.
	IsInviteCodeExists(ctx context.Context, code string) (bool, error)

	// AddMember enrolls a user. Adding an existing member is a no-op.
	AddMember(ctx context.Context, roomID, userID uint) error

	// IsMember reports current membership with no side effects.
	IsMember(ctx context.Context, roomID, userID uint) (bool, error)

	// ListMembers returns all membership rows for a room in join order.
	ListMembers(ctx context.Context, roomID uint) ([]domain.RoomMember, error)
}
