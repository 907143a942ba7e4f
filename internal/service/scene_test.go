package service_test

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/PtahSamora/titcha-studyroom/internal/domain"
	"github.com/PtahSamora/titcha-studyroom/internal/repository"
	"github.com/PtahSamora/titcha-studyroom/internal/repository/mocks"
	"github.com/PtahSamora/titcha-studyroom/internal/service"
)

func newSceneService(t *testing.T) (*service.SceneService, *mocks.SnapshotRepository, *mocks.RoomRepository, *mocks.StateRepository) {
	t.Helper()
	snapshotRepo := new(mocks.SnapshotRepository)
	roomRepo := new(mocks.RoomRepository)
	stateRepo := new(mocks.StateRepository)
	svc := service.NewSceneService(snapshotRepo, roomRepo, stateRepo)
	return svc, snapshotRepo, roomRepo, stateRepo
}

func expectSceneMember(roomRepo *mocks.RoomRepository, roomID, userID uint, member bool) {
	roomRepo.On("FindByID", mock.Anything, roomID).Return(&domain.Room{ID: roomID, OwnerID: 1}, nil).Once()
	roomRepo.On("IsMember", mock.Anything, roomID, userID).Return(member, nil).Once()
}

func TestSceneService_SaveSnapshot_PersistsAndRefreshesCache(t *testing.T) {
	svc, snapshotRepo, roomRepo, stateRepo := newSceneService(t)
	ctx := context.Background()
	scene := json.RawMessage(`{"shapes":[{"id":"a"}]}`)

	expectSceneMember(roomRepo, 7, 2, true)
	snapshotRepo.On("Save", ctx, mock.MatchedBy(func(s *domain.RoomSnapshot) bool {
		return s.RoomID == 7 && s.Data == string(scene)
	})).Return(nil).Once()
	stateRepo.On("CacheScene", ctx, uint(7), []byte(scene), mock.Anything).Return(nil).Once()

	err := svc.SaveSnapshot(ctx, 7, 2, scene)

	require.NoError(t, err)
	snapshotRepo.AssertExpectations(t)
	stateRepo.AssertExpectations(t)
}

func TestSceneService_SaveSnapshot_NonMemberRejected(t *testing.T) {
	svc, snapshotRepo, roomRepo, _ := newSceneService(t)
	ctx := context.Background()

	expectSceneMember(roomRepo, 7, 9, false)

	err := svc.SaveSnapshot(ctx, 7, 9, json.RawMessage(`{}`))

	assert.ErrorIs(t, err, service.ErrNotMember)
	snapshotRepo.AssertNotCalled(t, "Save", mock.Anything, mock.Anything)
}

func TestSceneService_GetScene_CacheFirst(t *testing.T) {
	svc, snapshotRepo, roomRepo, stateRepo := newSceneService(t)
	ctx := context.Background()

	expectSceneMember(roomRepo, 7, 2, true)
	stateRepo.On("GetCachedScene", ctx, uint(7)).Return([]byte(`{"live":true}`), nil).Once()

	scene, err := svc.GetScene(ctx, 7, 2)

	require.NoError(t, err)
	assert.JSONEq(t, `{"live":true}`, string(scene))
	snapshotRepo.AssertNotCalled(t, "GetByRoom", mock.Anything, mock.Anything)
}

func TestSceneService_GetScene_FallsBackToSnapshot(t *testing.T) {
	svc, snapshotRepo, roomRepo, stateRepo := newSceneService(t)
	ctx := context.Background()

	expectSceneMember(roomRepo, 7, 2, true)
	stateRepo.On("GetCachedScene", ctx, uint(7)).Return(nil, repository.ErrNotFound).Once()
	snapshotRepo.On("GetByRoom", ctx, uint(7)).Return(&domain.RoomSnapshot{RoomID: 7, Data: `{"saved":true}`}, nil).Once()

	scene, err := svc.GetScene(ctx, 7, 2)

	require.NoError(t, err)
	assert.JSONEq(t, `{"saved":true}`, string(scene))
}

func TestSceneService_GetScene_NilWhenNeverSaved(t *testing.T) {
	svc, snapshotRepo, roomRepo, stateRepo := newSceneService(t)
	ctx := context.Background()

	expectSceneMember(roomRepo, 7, 2, true)
	stateRepo.On("GetCachedScene", ctx, uint(7)).Return(nil, repository.ErrNotFound).Once()
	snapshotRepo.On("GetByRoom", ctx, uint(7)).Return(nil, repository.ErrSnapshotNotFound).Once()

	scene, err := svc.GetScene(ctx, 7, 2)

	require.NoError(t, err)
	assert.Nil(t, scene, "a room that never saved a scene returns no snapshot, not an error")
}

func TestSceneService_Autosave_FlushesCachedScene(t *testing.T) {
	svc, snapshotRepo, _, stateRepo := newSceneService(t)
	ctx := context.Background()

	stateRepo.On("GetCachedScene", ctx, uint(7)).Return([]byte(`{"live":1}`), nil).Once()
	snapshotRepo.On("Save", ctx, mock.MatchedBy(func(s *domain.RoomSnapshot) bool {
		return s.RoomID == 7 && s.Data == `{"live":1}`
	})).Return(nil).Once()

	err := svc.Autosave(ctx, 7)

	require.NoError(t, err)
	snapshotRepo.AssertExpectations(t)
}

func TestSceneService_Autosave_CacheMissIsNoop(t *testing.T) {
	svc, snapshotRepo, _, stateRepo := newSceneService(t)
	ctx := context.Background()

	stateRepo.On("GetCachedScene", ctx, uint(7)).Return(nil, repository.ErrNotFound).Once()

	err := svc.Autosave(ctx, 7)

	require.NoError(t, err)
	snapshotRepo.AssertNotCalled(t, "Save", mock.Anything, mock.Anything)
}
