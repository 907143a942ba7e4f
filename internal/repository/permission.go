package repository

import (
	"context"

	"github.com/PtahSamora/titcha-studyroom/internal/domain"
)

// PermissionRepository stores the per-room ask-AI policy record.
type PermissionRepository interface {
	// Ensure returns the room's permission record, creating it with defaults
	// (askAiEnabled=false, empty allow-list) when absent.
	Ensure(ctx context.Context, roomID uint) (*domain.RoomPermission, error)

	// Save persists an updated permission record.
	Save(ctx context.Context, perm *domain.RoomPermission) error
}
