package gormpersistence

import (
	"context"
	"errors"
	"fmt"

	"github.com/go-sql-driver/mysql"
	"gorm.io/gorm"

	"github.com/PtahSamora/titcha-studyroom/internal/domain"
)

// GormControlRepository implements repository.ControlRepository on GORM.
type GormControlRepository struct {
	db *gorm.DB
}

func NewGormControlRepository(db *gorm.DB) *GormControlRepository {
	if db == nil {
		panic("database connection cannot be nil for GormControlRepository")
	}
	return &GormControlRepository{db: db}
}

// Ensure is get-or-create-with-default: no controller set.
func (r *GormControlRepository) Ensure(ctx context.Context, roomID uint) (*domain.RoomControl, error) {
	var control domain.RoomControl
	err := r.db.WithContext(ctx).Where("room_id = ?", roomID).First(&control).Error
	if err == nil {
		return &control, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("gorm: find control for room %d: %w", roomID, err)
	}

	control = domain.RoomControl{RoomID: roomID, ControllerUserID: nil}
	if err := r.db.WithContext(ctx).Create(&control).Error; err != nil {
		var mysqlErr *mysql.MySQLError
		if errors.As(err, &mysqlErr) && mysqlErr.Number == 1062 {
			var existing domain.RoomControl
			if err2 := r.db.WithContext(ctx).Where("room_id = ?", roomID).First(&existing).Error; err2 == nil {
				return &existing, nil
			}
		}
		return nil, fmt.Errorf("gorm: create default control for room %d: %w", roomID, err)
	}
	return &control, nil
}

func (r *GormControlRepository) SetController(ctx context.Context, roomID uint, controllerUserID *uint) (*domain.RoomControl, error) {
	control, err := r.Ensure(ctx, roomID)
	if err != nil {
		return nil, err
	}
	control.ControllerUserID = controllerUserID
	// Save skips nil pointer columns on updates, so write the column explicitly.
	err = r.db.WithContext(ctx).Model(control).
		Update("controller_user_id", controllerUserID).Error
	if err != nil {
		return nil, fmt.Errorf("gorm: set controller for room %d: %w", roomID, err)
	}
	return control, nil
}
