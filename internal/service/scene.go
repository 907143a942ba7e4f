package service

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/PtahSamora/titcha-studyroom/internal/domain"
	"github.com/PtahSamora/titcha-studyroom/internal/repository"
)

// sceneCacheTTL bounds how long the live scene stays in redis without a new
// accepted scene event.
const sceneCacheTTL = 24 * time.Hour

// SceneService owns whiteboard scene persistence: the redis live cache fed by
// the realtime path and the DB snapshot written on save.
type SceneService struct {
	snapshotRepo repository.SnapshotRepository
	roomRepo     repository.RoomRepository
	stateRepo    repository.StateRepository
}

func NewSceneService(
	snapshotRepo repository.SnapshotRepository,
	roomRepo repository.RoomRepository,
	stateRepo repository.StateRepository,
) *SceneService {
	if snapshotRepo == nil || roomRepo == nil || stateRepo == nil {
		panic("all repositories must be non-nil for SceneService")
	}
	return &SceneService{snapshotRepo: snapshotRepo, roomRepo: roomRepo, stateRepo: stateRepo}
}

// SaveSnapshot overwrites the stored scene wholesale (member only). Called on
// explicit save or autosave, not on every broadcast tick.
func (s *SceneService) SaveSnapshot(ctx context.Context, roomID, userID uint, scene json.RawMessage) error {
	logCtx := logrus.WithFields(logrus.Fields{"room_id": roomID, "user_id": userID})

	if len(scene) == 0 {
		return ErrValidation
	}
	if err := s.requireMember(ctx, roomID, userID); err != nil {
		return err
	}

	snapshot := &domain.RoomSnapshot{RoomID: roomID, Data: string(scene)}
	if err := s.snapshotRepo.Save(ctx, snapshot); err != nil {
		logCtx.WithError(err).Error("Failed to save scene snapshot")
		return ErrInternalServer
	}
	if err := s.stateRepo.CacheScene(ctx, roomID, scene, sceneCacheTTL); err != nil {
		logCtx.WithError(err).Warn("Failed to refresh scene cache after save")
	}
	logCtx.WithField("scene_size", len(scene)).Info("Scene snapshot saved")
	return nil
}

// GetScene returns the latest scene (member only): live cache first, DB
// snapshot as fallback, nil when the room has never saved one.
func (s *SceneService) GetScene(ctx context.Context, roomID, userID uint) (json.RawMessage, error) {
	if err := s.requireMember(ctx, roomID, userID); err != nil {
		return nil, err
	}

	cached, err := s.stateRepo.GetCachedScene(ctx, roomID)
	if err == nil {
		return json.RawMessage(cached), nil
	}
	if !errors.Is(err, repository.ErrNotFound) {
		logrus.WithField("room_id", roomID).WithError(err).Warn("Scene cache read failed, falling back to DB")
	}

	snapshot, err := s.snapshotRepo.GetByRoom(ctx, roomID)
	if err != nil {
		if errors.Is(err, repository.ErrSnapshotNotFound) {
			return nil, nil
		}
		logrus.WithField("room_id", roomID).WithError(err).Error("Failed to load scene snapshot")
		return nil, ErrInternalServer
	}
	return json.RawMessage(snapshot.Data), nil
}

// CacheLiveScene records the newest accepted scene payload from the realtime
// path. No membership check here; the websocket handler already gated the
// connection.
func (s *SceneService) CacheLiveScene(ctx context.Context, roomID uint, scene []byte) {
	if err := s.stateRepo.CacheScene(ctx, roomID, scene, sceneCacheTTL); err != nil {
		logrus.WithField("room_id", roomID).WithError(err).Warn("Failed to cache live scene")
	}
}

// Autosave persists the cached live scene to the DB snapshot. Used by the
// periodic worker; a cache miss means nothing to save.
func (s *SceneService) Autosave(ctx context.Context, roomID uint) error {
	scene, err := s.stateRepo.GetCachedScene(ctx, roomID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil
		}
		return err
	}
	snapshot := &domain.RoomSnapshot{RoomID: roomID, Data: string(scene)}
	if err := s.snapshotRepo.Save(ctx, snapshot); err != nil {
		return err
	}
	logrus.WithField("room_id", roomID).Debug("Scene autosaved")
	return nil
}

func (s *SceneService) requireMember(ctx context.Context, roomID, userID uint) error {
	if _, err := s.roomRepo.FindByID(ctx, roomID); err != nil {
		if errors.Is(err, repository.ErrRoomNotFound) {
			return ErrRoomNotFound
		}
		return ErrInternalServer
	}
	isMember, err := s.roomRepo.IsMember(ctx, roomID, userID)
	if err != nil {
		return ErrInternalServer
	}
	if !isMember {
		return ErrNotMember
	}
	return nil
}
