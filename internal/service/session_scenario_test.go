package service_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/PtahSamora/titcha-studyroom/internal/domain"
	"github.com/PtahSamora/titcha-studyroom/internal/ratelimit"
	"github.com/PtahSamora/titcha-studyroom/internal/repository"
	"github.com/PtahSamora/titcha-studyroom/internal/service"
)

// In-memory repositories backing the end-to-end session scenario. They carry
// real state across calls, unlike the per-method mocks used elsewhere.

type memStore struct {
	nextRoomID uint
	rooms      map[uint]*domain.Room
	members    map[uint]map[uint]bool
	users      map[uint]*domain.User
	perms      map[uint]*domain.RoomPermission
	controls   map[uint]*domain.RoomControl
	snapshots  map[uint]*domain.RoomSnapshot
	messages   []domain.RoomMessage
}

func newMemStore() *memStore {
	return &memStore{
		nextRoomID: 1,
		rooms:      map[uint]*domain.Room{},
		members:    map[uint]map[uint]bool{},
		users:      map[uint]*domain.User{},
		perms:      map[uint]*domain.RoomPermission{},
		controls:   map[uint]*domain.RoomControl{},
		snapshots:  map[uint]*domain.RoomSnapshot{},
	}
}

type memRoomRepo struct{ s *memStore }

func (r *memRoomRepo) FindByID(_ context.Context, id uint) (*domain.Room, error) {
	room, ok := r.s.rooms[id]
	if !ok {
		return nil, repository.ErrRoomNotFound
	}
	return room, nil
}

func (r *memRoomRepo) FindByInviteCode(_ context.Context, code string) (*domain.Room, error) {
	for _, room := range r.s.rooms {
		if room.InviteCode == code {
			return room, nil
		}
	}
	return nil, repository.ErrRoomNotFound
}

func (r *memRoomRepo) Save(_ context.Context, room *domain.Room) error {
	if room.ID == 0 {
		room.ID = r.s.nextRoomID
		r.s.nextRoomID++
	}
	r.s.rooms[room.ID] = room
	return nil
}

func (r *memRoomRepo) IsInviteCodeExists(ctx context.Context, code string) (bool, error) {
	_, err := r.FindByInviteCode(ctx, code)
	return err == nil, nil
}

func (r *memRoomRepo) AddMember(_ context.Context, roomID, userID uint) error {
	if r.s.members[roomID] == nil {
		r.s.members[roomID] = map[uint]bool{}
	}
	r.s.members[roomID][userID] = true
	return nil
}

func (r *memRoomRepo) IsMember(_ context.Context, roomID, userID uint) (bool, error) {
	return r.s.members[roomID][userID], nil
}

func (r *memRoomRepo) ListMembers(_ context.Context, roomID uint) ([]domain.RoomMember, error) {
	out := make([]domain.RoomMember, 0, len(r.s.members[roomID]))
	for userID := range r.s.members[roomID] {
		out = append(out, domain.RoomMember{RoomID: roomID, UserID: userID})
	}
	return out, nil
}

type memUserRepo struct{ s *memStore }

func (r *memUserRepo) FindByID(_ context.Context, id uint) (*domain.User, error) {
	user, ok := r.s.users[id]
	if !ok {
		return nil, repository.ErrUserNotFound
	}
	return user, nil
}

func (r *memUserRepo) FindByUsername(_ context.Context, username string) (*domain.User, error) {
	for _, user := range r.s.users {
		if user.Username == username {
			return user, nil
		}
	}
	return nil, repository.ErrUserNotFound
}

func (r *memUserRepo) FindByIDs(_ context.Context, ids []uint) ([]domain.User, error) {
	out := make([]domain.User, 0, len(ids))
	for _, id := range ids {
		if user, ok := r.s.users[id]; ok {
			out = append(out, *user)
		}
	}
	return out, nil
}

func (r *memUserRepo) Save(_ context.Context, user *domain.User) error {
	r.s.users[user.ID] = user
	return nil
}

type memPermRepo struct{ s *memStore }

func (r *memPermRepo) Ensure(_ context.Context, roomID uint) (*domain.RoomPermission, error) {
	if perm, ok := r.s.perms[roomID]; ok {
		return perm, nil
	}
	perm := &domain.RoomPermission{RoomID: roomID}
	r.s.perms[roomID] = perm
	return perm, nil
}

func (r *memPermRepo) Save(_ context.Context, perm *domain.RoomPermission) error {
	r.s.perms[perm.RoomID] = perm
	return nil
}

type memControlRepo struct{ s *memStore }

func (r *memControlRepo) Ensure(_ context.Context, roomID uint) (*domain.RoomControl, error) {
	if control, ok := r.s.controls[roomID]; ok {
		return control, nil
	}
	control := &domain.RoomControl{RoomID: roomID}
	r.s.controls[roomID] = control
	return control, nil
}

func (r *memControlRepo) SetController(ctx context.Context, roomID uint, controllerUserID *uint) (*domain.RoomControl, error) {
	control, _ := r.Ensure(ctx, roomID)
	control.ControllerUserID = controllerUserID
	return control, nil
}

type memSnapshotRepo struct{ s *memStore }

func (r *memSnapshotRepo) GetByRoom(_ context.Context, roomID uint) (*domain.RoomSnapshot, error) {
	snapshot, ok := r.s.snapshots[roomID]
	if !ok {
		return nil, repository.ErrSnapshotNotFound
	}
	return snapshot, nil
}

func (r *memSnapshotRepo) Save(_ context.Context, snapshot *domain.RoomSnapshot) error {
	r.s.snapshots[snapshot.RoomID] = snapshot
	return nil
}

type memMessageRepo struct{ s *memStore }

func (r *memMessageRepo) Append(_ context.Context, msg *domain.RoomMessage) error {
	r.s.messages = append(r.s.messages, *msg)
	return nil
}

func (r *memMessageRepo) ListRecent(_ context.Context, roomID uint, limit int) ([]domain.RoomMessage, error) {
	return r.s.messages, nil
}

func (r *memMessageRepo) CountByRoom(_ context.Context, roomID uint) (int64, error) {
	return int64(len(r.s.messages)), nil
}

type scriptedOracle struct{ calls int }

func (o *scriptedOracle) Ask(_ context.Context, prompt, subject string, roomID uint) ([]domain.TutorBlock, error) {
	o.calls++
	return []domain.TutorBlock{{Type: "text", Text: "answer to: " + prompt}}, nil
}

// TestStudyRoomSession walks one tutoring session through the whole service
// layer: creation, joins, the permission flag, the allow-list, control
// handoff and the rate budget, all against shared in-memory state.
func TestStudyRoomSession(t *testing.T) {
	store := newMemStore()
	roomRepo := &memRoomRepo{store}
	userRepo := &memUserRepo{store}
	permRepo := &memPermRepo{store}
	controlRepo := &memControlRepo{store}
	snapshotRepo := &memSnapshotRepo{store}
	messageRepo := &memMessageRepo{store}

	store.users[1] = &domain.User{ID: 1, Username: "tutor-anna", School: "North High"}
	store.users[2] = &domain.User{ID: 2, Username: "student-bo", School: "North High"}
	store.users[3] = &domain.User{ID: 3, Username: "student-cai", School: "North High"}
	store.users[4] = &domain.User{ID: 4, Username: "outsider-dee", School: "South High"}

	roomService := service.NewRoomService(roomRepo, userRepo, permRepo, controlRepo, snapshotRepo, nil)
	permissionService := service.NewPermissionService(permRepo, roomRepo, nil)
	controlService := service.NewControlService(controlRepo, roomRepo, nil)
	tutorOracle := &scriptedOracle{}
	tutorService := service.NewTutorService(roomRepo, userRepo, permRepo, controlRepo, messageRepo, nil,
		ratelimit.NewLimiter(time.Hour), tutorOracle)

	ctx := context.Background()

	// The tutor creates a room and is enrolled as owner.
	room, err := roomService.CreateRoom(ctx, 1, "Friday algebra", "math")
	require.NoError(t, err)

	// Two students from the same school join; one from another school is
	// turned away.
	_, err = roomService.Join(ctx, room.ID, 2)
	require.NoError(t, err)
	_, err = roomService.Join(ctx, room.ID, 3)
	require.NoError(t, err)
	_, err = roomService.Join(ctx, room.ID, 4)
	require.ErrorIs(t, err, service.ErrCrossSchool)

	// Ask-AI starts disabled: a student is blocked, the owner is not.
	_, err = tutorService.Ask(ctx, room.ID, 2, "what is a polynomial?")
	require.ErrorIs(t, err, service.ErrAskAiDisabled)
	_, err = tutorService.Ask(ctx, room.ID, 1, "warm-up question")
	require.NoError(t, err)

	// The owner enables the flag and whitelists only student 2.
	enabled := true
	grant := uint(2)
	view, err := permissionService.Update(ctx, room.ID, 1, service.PermissionUpdate{
		AskAiEnabled: &enabled,
		GrantUserID:  &grant,
	})
	require.NoError(t, err)
	require.Equal(t, []uint{2}, view.MemberAskAi)

	_, err = tutorService.Ask(ctx, room.ID, 2, "what is a polynomial?")
	require.NoError(t, err)
	_, err = tutorService.Ask(ctx, room.ID, 3, "me too?")
	require.ErrorIs(t, err, service.ErrAskAiDisabled, "unlisted student stays blocked while a list exists")

	// The owner hands control to student 3 for a guided exercise: now only
	// student 3 may ask, the whitelist and even the owner notwithstanding.
	target := uint(3)
	_, err = controlService.Update(ctx, room.ID, 1, domain.ControlActionGive, &target)
	require.NoError(t, err)

	_, err = tutorService.Ask(ctx, room.ID, 2, "still me?")
	require.ErrorIs(t, err, service.ErrNoControl)
	_, err = tutorService.Ask(ctx, room.ID, 1, "owner override?")
	require.ErrorIs(t, err, service.ErrNoControl)
	_, err = tutorService.Ask(ctx, room.ID, 3, "my guided question")
	require.NoError(t, err)

	// Revoking control reverts to the permission policy.
	_, err = controlService.Update(ctx, room.ID, 1, domain.ControlActionRevoke, nil)
	require.NoError(t, err)
	_, err = tutorService.Ask(ctx, room.ID, 2, "back to normal?")
	require.NoError(t, err)

	// Every successful ask left exactly one system log entry.
	count, err := messageRepo.CountByRoom(ctx, room.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(4), count)
	assert.Equal(t, 4, tutorOracle.calls)
	for _, msg := range store.messages {
		assert.Equal(t, domain.SystemSender, msg.Sender)
	}

	// A re-join returns the full current state without duplicating members.
	result, err := roomService.Join(ctx, room.ID, 2)
	require.NoError(t, err)
	assert.Len(t, result.Members, 3)
	assert.True(t, result.Permissions.AskAiEnabled)
	assert.False(t, result.Control.HasController())
}
