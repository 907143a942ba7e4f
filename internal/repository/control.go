package repository

import (
	"context"

	"github.com/PtahSamora/titcha-studyroom/internal/domain"
)

// ControlRepository stores the per-room exclusive-speaker token.
type ControlRepository interface {
	// Ensure returns the room's control record, creating it with a nil
	// controller when absent.
	Ensure(ctx context.Context, roomID uint) (*domain.RoomControl, error)

	// SetController replaces the controller (nil reverts to permission mode)
	// and returns the updated record.
	SetController(ctx context.Context, roomID uint, controllerUserID *uint) (*domain.RoomControl, error)
}
