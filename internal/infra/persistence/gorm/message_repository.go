package gormpersistence

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	"github.com/PtahSamora/titcha-studyroom/internal/domain"
)

// GormMessageRepository implements repository.MessageRepository on GORM.
type GormMessageRepository struct {
	db *gorm.DB
}

func NewGormMessageRepository(db *gorm.DB) *GormMessageRepository {
	if db == nil {
		panic("database connection cannot be nil for GormMessageRepository")
	}
	return &GormMessageRepository{db: db}
}

func (r *GormMessageRepository) Append(ctx context.Context, msg *domain.RoomMessage) error {
	if err := r.db.WithContext(ctx).Create(msg).Error; err != nil {
		return fmt.Errorf("gorm: append message to room %d: %w", msg.RoomID, err)
	}
	return nil
}

func (r *GormMessageRepository) ListRecent(ctx context.Context, roomID uint, limit int) ([]domain.RoomMessage, error) {
	if limit <= 0 {
		limit = 50
	}
	var messages []domain.RoomMessage
	err := r.db.WithContext(ctx).
		Where("room_id = ?", roomID).
		Order("created_at DESC").
		Limit(limit).
		Find(&messages).Error
	if err != nil {
		return nil, fmt.Errorf("gorm: list messages for room %d: %w", roomID, err)
	}
	// Reverse so callers get newest last.
	for i, j := 0, len(messages)-1; i < j; i, j = i+1, j-1 {
		messages[i], messages[j] = messages[j], messages[i]
	}
	return messages, nil
}

func (r *GormMessageRepository) CountByRoom(ctx context.Context, roomID uint) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&domain.RoomMessage{}).
		Where("room_id = ?", roomID).
		Count(&count).Error
	if err != nil {
		return 0, fmt.Errorf("gorm: count messages for room %d: %w", roomID, err)
	}
	return count, nil
}
