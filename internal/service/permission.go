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

// PermissionUpdate carries the owner's changes to a room's ask-AI policy. All
// fields are optional and may be combined; they apply in the order
// askAiEnabled, then grant, then revoke.
type PermissionUpdate struct {
	AskAiEnabled *bool `json:"askAiEnabled,omitempty"`
	GrantUserID  *uint `json:"grantUserId,omitempty"`
	RevokeUserID *uint `json:"revokeUserId,omitempty"`
}

// PermissionService owns the per-room ask-AI policy.
type PermissionService struct {
	permRepo  repository.PermissionRepository
	roomRepo  repository.RoomRepository
	stateRepo repository.StateRepository
}

func NewPermissionService(
	permRepo repository.PermissionRepository,
	roomRepo repository.RoomRepository,
	stateRepo repository.StateRepository,
) *PermissionService {
	if permRepo == nil || roomRepo == nil {
		panic("repositories cannot be nil for PermissionService")
	}
	return &PermissionService{permRepo: permRepo, roomRepo: roomRepo, stateRepo: stateRepo}
}

// Get returns the room's policy, creating the default record when absent.
func (s *PermissionService) Get(ctx context.Context, roomID uint) (*PermissionView, error) {
	if _, err := s.roomRepo.FindByID(ctx, roomID); err != nil {
		if errors.Is(err, repository.ErrRoomNotFound) {
			return nil, ErrRoomNotFound
		}
		return nil, ErrInternalServer
	}
	perm, err := s.permRepo.Ensure(ctx, roomID)
	if err != nil {
		logrus.WithField("room_id", roomID).WithError(err).Error("Failed to ensure permissions")
		return nil, ErrInternalServer
	}
	return viewOf(perm)
}

// Update applies an owner's policy change and broadcasts perm:update.
func (s *PermissionService) Update(ctx context.Context, roomID, actorID uint, update PermissionUpdate) (*PermissionView, error) {
	logCtx := logrus.WithFields(logrus.Fields{"room_id": roomID, "actor_id": actorID})

	room, err := s.roomRepo.FindByID(ctx, roomID)
	if err != nil {
		if errors.Is(err, repository.ErrRoomNotFound) {
			return nil, ErrRoomNotFound
		}
		logCtx.WithError(err).Error("Failed to load room for permission update")
		return nil, ErrInternalServer
	}
	if room.OwnerID != actorID {
		logCtx.Warn("Permission update rejected: not the owner")
		return nil, ErrNotOwner
	}

	perm, err := s.permRepo.Ensure(ctx, roomID)
	if err != nil {
		logCtx.WithError(err).Error("Failed to ensure permissions")
		return nil, ErrInternalServer
	}
	askList, err := perm.AskList()
	if err != nil {
		logCtx.WithError(err).Error("Corrupt ask-AI allow-list")
		return nil, ErrInternalServer
	}

	// Fixed application order: flag, grant, revoke.
	if update.AskAiEnabled != nil {
		perm.AskAiEnabled = *update.AskAiEnabled
	}
	if update.GrantUserID != nil {
		target := *update.GrantUserID
		isMember, err := s.roomRepo.IsMember(ctx, roomID, target)
		if err != nil {
			logCtx.WithError(err).Error("Failed to check membership for grant")
			return nil, ErrInternalServer
		}
		if !isMember {
			return nil, fmt.Errorf("%w: user %d is not a member of this room", ErrValidation, target)
		}
		if !containsID(askList, target) {
			askList = append(askList, target)
		}
	}
	if update.RevokeUserID != nil {
		askList = removeID(askList, *update.RevokeUserID)
	}

	if err := perm.SetAskList(askList); err != nil {
		logCtx.WithError(err).Error("Failed to serialize ask-AI allow-list")
		return nil, ErrInternalServer
	}
	if err := s.permRepo.Save(ctx, perm); err != nil {
		logCtx.WithError(err).Error("Failed to save permissions")
		return nil, ErrInternalServer
	}

	view := &PermissionView{AskAiEnabled: perm.AskAiEnabled, MemberAskAi: askList}
	s.publishPermUpdate(ctx, roomID, view)
	logCtx.WithField("ask_ai_enabled", perm.AskAiEnabled).Info("Room permissions updated")
	return view, nil
}

func (s *PermissionService) publishPermUpdate(ctx context.Context, roomID uint, view *PermissionView) {
	if s.stateRepo == nil {
		return
	}
	payload, err := json.Marshal(view)
	if err != nil {
		logrus.WithField("room_id", roomID).WithError(err).Warn("Failed to marshal perm:update payload")
		return
	}
	event := domain.Event{Type: domain.EventPermUpdate, RoomID: roomID, Payload: payload}
	if err := s.stateRepo.PublishEvent(ctx, event); err != nil {
		logrus.WithField("room_id", roomID).WithError(err).Warn("Failed to publish perm:update")
	}
}

// canAskByPolicy decides "may user ask the tutor" when no exclusive controller
// is set. The owner always passes regardless of the flag; non-owners need the
// flag on, and when the allow-list is non-empty, a spot on it.
func canAskByPolicy(room *domain.Room, perm *domain.RoomPermission, userID uint) error {
	if userID == room.OwnerID {
		return nil
	}
	if !perm.AskAiEnabled {
		return fmt.Errorf("%w: disabled", ErrAskAiDisabled)
	}
	askList, err := perm.AskList()
	if err != nil {
		return ErrInternalServer
	}
	if len(askList) > 0 && !containsID(askList, userID) {
		return fmt.Errorf("%w: not whitelisted", ErrAskAiDisabled)
	}
	return nil
}

func viewOf(perm *domain.RoomPermission) (*PermissionView, error) {
	askList, err := perm.AskList()
	if err != nil {
		return nil, ErrInternalServer
	}
	return &PermissionView{AskAiEnabled: perm.AskAiEnabled, MemberAskAi: askList}, nil
}

func containsID(ids []uint, id uint) bool {
	for _, v := range ids {
		if v == id {
			return true
		}
	}
	return false
}

func removeID(ids []uint, id uint) []uint {
	out := ids[:0]
	for _, v := range ids {
		if v != id {
			out = append(out, v)
		}
	}
	return out
}
