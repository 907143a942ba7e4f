package gormpersistence

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/PtahSamora/titcha-studyroom/internal/domain"
	"github.com/PtahSamora/titcha-studyroom/internal/repository"
)

// GormSnapshotRepository implements repository.SnapshotRepository on GORM.
// One row per room; Save upserts on the room_id unique index.
type GormSnapshotRepository struct {
	db *gorm.DB
}

func NewGormSnapshotRepository(db *gorm.DB) *GormSnapshotRepository {
	if db == nil {
		panic("database connection cannot be nil for GormSnapshotRepository")
	}
	return &GormSnapshotRepository{db: db}
}

func (r *GormSnapshotRepository) GetByRoom(ctx context.Context, roomID uint) (*domain.RoomSnapshot, error) {
	var snapshot domain.RoomSnapshot
	err := r.db.WithContext(ctx).Where("room_id = ?", roomID).First(&snapshot).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, repository.ErrSnapshotNotFound
		}
		return nil, fmt.Errorf("gorm: get snapshot for room %d: %w", roomID, err)
	}
	return &snapshot, nil
}

func (r *GormSnapshotRepository) Save(ctx context.Context, snapshot *domain.RoomSnapshot) error {
	err := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "room_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"data", "updated_at"}),
	}).Create(snapshot).Error
	if err != nil {
		return fmt.Errorf("gorm: save snapshot for room %d: %w", snapshot.RoomID, err)
	}
	return nil
}
