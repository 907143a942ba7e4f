package repository

import (
	"context"

	"github.com/PtahSamora/titcha-studyroom/internal/domain"
)

// UserRepository stores portal accounts.
type UserRepository interface {
	// FindByID returns the user or ErrUserNotFound.
	FindByID(ctx context.Context, id uint) (*domain.User, error)

	// FindByUsername returns the user or ErrUserNotFound.
	FindByUsername(ctx context.Context, username string) (*domain.User, error)

	// FindByIDs returns the users matching ids; missing ids are skipped.
	FindByIDs(ctx context.Context, ids []uint) ([]domain.User, error)

	// Save persists a new or existing user. Returns ErrDuplicateEntry on
	// username/email conflicts.
	Save(ctx context.Context, user *domain.User) error
}
