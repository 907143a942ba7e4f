package service

import (
	"context"
	"crypto/rand"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/PtahSamora/titcha-studyroom/internal/domain"
	"github.com/PtahSamora/titcha-studyroom/internal/repository"
)

// PermissionView is the permission record as returned to clients, with the
// allow-list parsed out of its storage form.
type PermissionView struct {
	AskAiEnabled bool   `json:"askAiEnabled"`
	MemberAskAi  []uint `json:"memberAskAi"`
}

// MeStatus is the caller's own standing in the room.
type MeStatus struct {
	IsOwner    bool `json:"isOwner"`
	HasControl bool `json:"hasControl"`
}

// JoinResult is the consistent snapshot returned by the join protocol.
type JoinResult struct {
	Room        *domain.Room        `json:"room"`
	Members     []domain.MemberInfo `json:"members"`
	Snapshot    json.RawMessage     `json:"snapshot"`
	Permissions *PermissionView     `json:"permissions"`
	Control     *domain.RoomControl `json:"control"`
	Me          MeStatus            `json:"me"`
}

// RoomService owns room lifecycle and the session join protocol.
type RoomService struct {
	roomRepo     repository.RoomRepository
	userRepo     repository.UserRepository
	permRepo     repository.PermissionRepository
	controlRepo  repository.ControlRepository
	snapshotRepo repository.SnapshotRepository
	stateRepo    repository.StateRepository
}

func NewRoomService(
	roomRepo repository.RoomRepository,
	userRepo repository.UserRepository,
	permRepo repository.PermissionRepository,
	controlRepo repository.ControlRepository,
	snapshotRepo repository.SnapshotRepository,
	stateRepo repository.StateRepository,
) *RoomService {
	if roomRepo == nil || userRepo == nil || permRepo == nil || controlRepo == nil || snapshotRepo == nil {
		panic("all repositories must be non-nil for RoomService")
	}
	return &RoomService{
		roomRepo:     roomRepo,
		userRepo:     userRepo,
		permRepo:     permRepo,
		controlRepo:  controlRepo,
		snapshotRepo: snapshotRepo,
		stateRepo:    stateRepo,
	}
}

// CreateRoom creates a room owned by creatorID and enrolls the owner, keeping
// the ownerUserId ∈ memberUserIds invariant from the start.
func (s *RoomService) CreateRoom(ctx context.Context, creatorID uint, name, subject string) (*domain.Room, error) {
	logCtx := logrus.WithField("creator_id", creatorID)

	if name == "" {
		return nil, fmt.Errorf("%w: room name is required", ErrValidation)
	}

	inviteCode, err := s.generateUniqueInviteCode(ctx)
	if err != nil {
		logCtx.WithError(err).Error("Failed to generate unique invite code")
		return nil, ErrInternalServer
	}

	room := &domain.Room{
		Name:       name,
		Subject:    subject,
		OwnerID:    creatorID,
		InviteCode: inviteCode,
	}
	if err := s.roomRepo.Save(ctx, room); err != nil {
		logCtx.WithError(err).Error("Failed to save new room")
		return nil, ErrInternalServer
	}
	logCtx = logCtx.WithField("room_id", room.ID)

	if err := s.roomRepo.AddMember(ctx, room.ID, creatorID); err != nil {
		logCtx.WithError(err).Error("Failed to enroll owner into new room")
		return nil, ErrInternalServer
	}

	logCtx.Info("Room created")
	return room, nil
}

// GetRoom returns the room by id.
func (s *RoomService) GetRoom(ctx context.Context, roomID uint) (*domain.Room, error) {
	room, err := s.roomRepo.FindByID(ctx, roomID)
	if err != nil {
		if errors.Is(err, repository.ErrRoomNotFound) {
			return nil, ErrRoomNotFound
		}
		return nil, ErrInternalServer
	}
	return room, nil
}

// EnsureMember verifies the room exists and the user is enrolled. Used to gate
// realtime connections.
func (s *RoomService) EnsureMember(ctx context.Context, roomID, userID uint) error {
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

// JoinByInviteCode resolves the code and runs the join protocol.
func (s *RoomService) JoinByInviteCode(ctx context.Context, userID uint, inviteCode string) (*JoinResult, error) {
	room, err := s.roomRepo.FindByInviteCode(ctx, inviteCode)
	if err != nil {
		if errors.Is(err, repository.ErrRoomNotFound) {
			return nil, ErrInvalidInviteCode
		}
		logrus.WithError(err).WithField("invite_code", inviteCode).Error("Failed to resolve invite code")
		return nil, ErrInternalServer
	}
	return s.Join(ctx, room.ID, userID)
}

// Join validates and enrolls a user into a room and returns the merged
// room/membership/permission/control state. Joining is the invitation
// acceptance for same-school users: enrollment is automatic once the
// cross-school check passes. Any failure is terminal; nothing is mutated
// before the enrollment step.
func (s *RoomService) Join(ctx context.Context, roomID, userID uint) (*JoinResult, error) {
	logCtx := logrus.WithFields(logrus.Fields{"room_id": roomID, "user_id": userID})

	// 1. Room must exist.
	room, err := s.roomRepo.FindByID(ctx, roomID)
	if err != nil {
		if errors.Is(err, repository.ErrRoomNotFound) {
			logCtx.Warn("Join: room not found")
			return nil, ErrRoomNotFound
		}
		logCtx.WithError(err).Error("Join: failed to load room")
		return nil, ErrInternalServer
	}

	// 2. Cross-school check: reject only when both sides carry an affiliation
	//    and they differ. Either side without one is allowed.
	owner, err := s.userRepo.FindByID(ctx, room.OwnerID)
	if err != nil {
		logCtx.WithError(err).Error("Join: failed to load room owner")
		return nil, ErrInternalServer
	}
	joiner, err := s.userRepo.FindByID(ctx, userID)
	if err != nil {
		logCtx.WithError(err).Error("Join: failed to load joining user")
		return nil, ErrInternalServer
	}
	if owner.School != "" && joiner.School != "" && owner.School != joiner.School {
		logCtx.WithFields(logrus.Fields{
			"owner_school":  owner.School,
			"joiner_school": joiner.School,
		}).Warn("Join: cross-school join rejected")
		return nil, ErrCrossSchool
	}

	// 3. Auto-enroll; a second join of the same user is a no-op.
	if err := s.roomRepo.AddMember(ctx, roomID, userID); err != nil {
		logCtx.WithError(err).Error("Join: failed to enroll user")
		return nil, ErrInternalServer
	}

	// 4. Assemble the snapshot of room state.
	result, err := s.assembleJoinResult(ctx, room, userID)
	if err != nil {
		logCtx.WithError(err).Error("Join: failed to assemble join result")
		return nil, ErrInternalServer
	}

	if s.stateRepo != nil {
		event := domain.Event{Type: domain.EventRoomJoin, RoomID: roomID, UserID: userID}
		if err := s.stateRepo.PublishEvent(ctx, event); err != nil {
			logCtx.WithError(err).Warn("Join: failed to publish room:join event")
		}
	}

	logCtx.Info("User joined room")
	return result, nil
}

func (s *RoomService) assembleJoinResult(ctx context.Context, room *domain.Room, userID uint) (*JoinResult, error) {
	members, err := s.roomRepo.ListMembers(ctx, room.ID)
	if err != nil {
		return nil, err
	}
	ids := make([]uint, 0, len(members))
	for _, m := range members {
		ids = append(ids, m.UserID)
	}
	users, err := s.userRepo.FindByIDs(ctx, ids)
	if err != nil {
		return nil, err
	}
	names := make(map[uint]string, len(users))
	for _, u := range users {
		names[u.ID] = u.Username
	}
	infos := make([]domain.MemberInfo, 0, len(members))
	for _, m := range members {
		role := domain.RoleMember
		if m.UserID == room.OwnerID {
			role = domain.RoleOwner
		}
		infos = append(infos, domain.MemberInfo{UserID: m.UserID, Username: names[m.UserID], Role: role})
	}

	var scene json.RawMessage
	snapshot, err := s.snapshotRepo.GetByRoom(ctx, room.ID)
	if err != nil && !errors.Is(err, repository.ErrSnapshotNotFound) {
		return nil, err
	}
	if snapshot != nil {
		scene = json.RawMessage(snapshot.Data)
	}

	perm, err := s.permRepo.Ensure(ctx, room.ID)
	if err != nil {
		return nil, err
	}
	askList, err := perm.AskList()
	if err != nil {
		return nil, err
	}
	control, err := s.controlRepo.Ensure(ctx, room.ID)
	if err != nil {
		return nil, err
	}

	return &JoinResult{
		Room:        room,
		Members:     infos,
		Snapshot:    scene,
		Permissions: &PermissionView{AskAiEnabled: perm.AskAiEnabled, MemberAskAi: askList},
		Control:     control,
		Me: MeStatus{
			IsOwner:    userID == room.OwnerID,
			HasControl: control.IsController(userID),
		},
	}, nil
}

// generateUniqueInviteCode draws random 6-char codes until one is free.
func (s *RoomService) generateUniqueInviteCode(ctx context.Context) (string, error) {
	const letters = "0123456789ABCDEFGHIJKLMNOPQRSTUVWXYZ"
	const codeLength = 6
	const maxAttempts = 10

	b := make([]byte, codeLength)
	for attempt := 0; attempt < maxAttempts; attempt++ {
		if _, err := rand.Read(b); err != nil {
			return "", fmt.Errorf("failed to generate random bytes: %w", err)
		}
		for i := range b {
			b[i] = letters[int(b[i])%len(letters)]
		}
		code := string(b)

		exists, err := s.roomRepo.IsInviteCodeExists(ctx, code)
		if err != nil {
			return "", fmt.Errorf("database error checking invite code: %w", err)
		}
		if !exists {
			return code, nil
		}
		logrus.WithField("invite_code", code).Warnf("Generated invite code already exists, retrying (attempt %d)", attempt+1)
	}
	return "", fmt.Errorf("failed to generate a unique invite code after %d attempts", maxAttempts)
}
