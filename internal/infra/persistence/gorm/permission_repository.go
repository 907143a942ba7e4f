package gormpersistence

import (
	"context"
	"errors"
	"fmt"

	"github.com/go-sql-driver/mysql"
	"gorm.io/gorm"

	"github.com/PtahSamora/titcha-studyroom/internal/domain"
)

// GormPermissionRepository implements repository.PermissionRepository on GORM.
type GormPermissionRepository struct {
	db *gorm.DB
}

func NewGormPermissionRepository(db *gorm.DB) *GormPermissionRepository {
	if db == nil {
		panic("database connection cannot be nil for GormPermissionRepository")
	}
	return &GormPermissionRepository{db: db}
}

// Ensure is get-or-create-with-default: askAiEnabled=false, empty allow-list.
// A concurrent create losing the 1062 race re-reads the winner's row.
func (r *GormPermissionRepository) Ensure(ctx context.Context, roomID uint) (*domain.RoomPermission, error) {
	var perm domain.RoomPermission
	err := r.db.WithContext(ctx).Where("room_id = ?", roomID).First(&perm).Error
	if err == nil {
		return &perm, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("gorm: find permissions for room %d: %w", roomID, err)
	}

	perm = domain.RoomPermission{RoomID: roomID, AskAiEnabled: false, MemberAskAi: "[]"}
	if err := r.db.WithContext(ctx).Create(&perm).Error; err != nil {
		var mysqlErr *mysql.MySQLError
		if errors.As(err, &mysqlErr) && mysqlErr.Number == 1062 {
			var existing domain.RoomPermission
			if err2 := r.db.WithContext(ctx).Where("room_id = ?", roomID).First(&existing).Error; err2 == nil {
				return &existing, nil
			}
		}
		return nil, fmt.Errorf("gorm: create default permissions for room %d: %w", roomID, err)
	}
	return &perm, nil
}

func (r *GormPermissionRepository) Save(ctx context.Context, perm *domain.RoomPermission) error {
	if err := r.db.WithContext(ctx).Save(perm).Error; err != nil {
		return fmt.Errorf("gorm: save permissions for room %d: %w", perm.RoomID, err)
	}
	return nil
}
