package repository

import (
	"context"

	"github.com/PtahSamora/titcha-studyroom/internal/domain"
)

// SnapshotRepository stores the persisted whiteboard scene, one row per room.
type SnapshotRepository interface {
	// GetByRoom returns the saved scene or ErrSnapshotNotFound.
	GetByRoom(ctx context.Context, roomID uint) (*domain.RoomSnapshot, error)

	// Save overwrites the room's scene unconditionally (upsert).
	Save(ctx context.Context, snapshot *domain.RoomSnapshot) error
}
