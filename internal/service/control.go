package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/PtahSamora/titcha-studyroom/internal/domain"
	"github.com/PtahSamora/titcha-studyroom/internal/repository"
)

// ControlService owns the exclusive ask-AI speaker token. It lets an owner
// hand the microphone to one member for a guided exercise and take it back
// without touching the room's baseline permission policy.
type ControlService struct {
	controlRepo repository.ControlRepository
	roomRepo    repository.RoomRepository
	stateRepo   repository.StateRepository
}

func NewControlService(
	controlRepo repository.ControlRepository,
	roomRepo repository.RoomRepository,
	stateRepo repository.StateRepository,
) *ControlService {
	if controlRepo == nil || roomRepo == nil {
		panic("repositories cannot be nil for ControlService")
	}
	return &ControlService{controlRepo: controlRepo, roomRepo: roomRepo, stateRepo: stateRepo}
}

// Get returns the room's control record, creating it unset when absent.
func (s *ControlService) Get(ctx context.Context, roomID uint) (*domain.RoomControl, error) {
	if _, err := s.roomRepo.FindByID(ctx, roomID); err != nil {
		if errors.Is(err, repository.ErrRoomNotFound) {
			return nil, ErrRoomNotFound
		}
		return nil, ErrInternalServer
	}
	control, err := s.controlRepo.Ensure(ctx, roomID)
	if err != nil {
		logrus.WithField("room_id", roomID).WithError(err).Error("Failed to ensure control record")
		return nil, ErrInternalServer
	}
	return control, nil
}

// Update applies an owner-only control transition: give hands the token to a
// current member, take sets it to the owner, revoke clears it (reverting to
// permission mode). Broadcasts control:update on success.
func (s *ControlService) Update(ctx context.Context, roomID, actorID uint, action string, targetUserID *uint) (*domain.RoomControl, error) {
	logCtx := logrus.WithFields(logrus.Fields{"room_id": roomID, "actor_id": actorID, "control_action": action})

	room, err := s.roomRepo.FindByID(ctx, roomID)
	if err != nil {
		if errors.Is(err, repository.ErrRoomNotFound) {
			return nil, ErrRoomNotFound
		}
		logCtx.WithError(err).Error("Failed to load room for control update")
		return nil, ErrInternalServer
	}
	if room.OwnerID != actorID {
		logCtx.Warn("Control transition rejected: not the owner")
		return nil, ErrNotOwner
	}

	var controller *uint
	switch action {
	case domain.ControlActionGive:
		if targetUserID == nil {
			return nil, fmt.Errorf("%w: targetUserId is required for give", ErrValidation)
		}
		isMember, err := s.roomRepo.IsMember(ctx, roomID, *targetUserID)
		if err != nil {
			logCtx.WithError(err).Error("Failed to check membership for give")
			return nil, ErrInternalServer
		}
		if !isMember {
			return nil, fmt.Errorf("%w: user %d is not a member of this room", ErrValidation, *targetUserID)
		}
		controller = targetUserID
	case domain.ControlActionTake:
		controller = &actorID
	case domain.ControlActionRevoke:
		controller = nil
	default:
		return nil, fmt.Errorf("%w: unknown control action '%s'", ErrValidation, action)
	}

	control, err := s.controlRepo.SetController(ctx, roomID, controller)
	if err != nil {
		logCtx.WithError(err).Error("Failed to set controller")
		return nil, ErrInternalServer
	}

	s.publishControlUpdate(ctx, roomID, control, action)
	logCtx.Info("Room control updated")
	return control, nil
}

func (s *ControlService) publishControlUpdate(ctx context.Context, roomID uint, control *domain.RoomControl, action string) {
	if s.stateRepo == nil {
		return
	}
	payload, err := json.Marshal(map[string]interface{}{
		"controllerUserId": control.ControllerUserID,
		"action":           action,
	})
	if err != nil {
		logrus.WithField("room_id", roomID).WithError(err).Warn("Failed to marshal control:update payload")
		return
	}
	event := domain.Event{Type: domain.EventControlUpdate, RoomID: roomID, Payload: payload}
	if err := s.stateRepo.PublishEvent(ctx, event); err != nil {
		logrus.WithField("room_id", roomID).WithError(err).Warn("Failed to publish control:update")
	}
}
