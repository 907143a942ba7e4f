package repository

import (
	"context"

	"github.com/PtahSamora/titcha-studyroom/internal/domain"
)

// MessageRepository is the append-only message log per room.
type MessageRepository interface {
	// Append adds one message to the room's log.
	Append(ctx context.Context, msg *domain.RoomMessage) error

	// ListRecent returns up to limit messages, newest last.
	ListRecent(ctx context.Context, roomID uint, limit int) ([]domain.RoomMessage, error)

	// CountByRoom returns the log length for a room.
	CountByRoom(ctx context.Context, roomID uint) (int64, error)
}
