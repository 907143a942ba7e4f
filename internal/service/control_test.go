package service_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/PtahSamora/titcha-studyroom/internal/domain"
	"github.com/PtahSamora/titcha-studyroom/internal/repository"
	"github.com/PtahSamora/titcha-studyroom/internal/repository/mocks"
	"github.com/PtahSamora/titcha-studyroom/internal/service"
)

func newControlService(t *testing.T) (*service.ControlService, *mocks.ControlRepository, *mocks.RoomRepository) {
	t.Helper()
	controlRepo := new(mocks.ControlRepository)
	roomRepo := new(mocks.RoomRepository)
	svc := service.NewControlService(controlRepo, roomRepo, nil)
	return svc, controlRepo, roomRepo
}

func TestControlService_Get_CreatesUnsetRecord(t *testing.T) {
	svc, controlRepo, roomRepo := newControlService(t)
	ctx := context.Background()

	roomRepo.On("FindByID", ctx, uint(7)).Return(&domain.Room{ID: 7, OwnerID: 1}, nil).Once()
	controlRepo.On("Ensure", ctx, uint(7)).Return(&domain.RoomControl{RoomID: 7}, nil).Once()

	control, err := svc.Get(ctx, 7)

	require.NoError(t, err)
	assert.False(t, control.HasController())
}

func TestControlService_Update_NonOwnerRejected(t *testing.T) {
	svc, controlRepo, roomRepo := newControlService(t)
	ctx := context.Background()

	roomRepo.On("FindByID", ctx, uint(7)).Return(&domain.Room{ID: 7, OwnerID: 1}, nil).Once()

	target := uint(3)
	_, err := svc.Update(ctx, 7, 2, domain.ControlActionGive, &target)

	assert.ErrorIs(t, err, service.ErrNotOwner)
	controlRepo.AssertNotCalled(t, "SetController", mock.Anything, mock.Anything, mock.Anything)
}

func TestControlService_Update_GiveToMember(t *testing.T) {
	svc, controlRepo, roomRepo := newControlService(t)
	ctx := context.Background()

	target := uint(2)
	roomRepo.On("FindByID", ctx, uint(7)).Return(&domain.Room{ID: 7, OwnerID: 1}, nil).Once()
	roomRepo.On("IsMember", ctx, uint(7), uint(2)).Return(true, nil).Once()
	controlRepo.On("SetController", ctx, uint(7), &target).
		Return(&domain.RoomControl{RoomID: 7, ControllerUserID: &target}, nil).Once()

	control, err := svc.Update(ctx, 7, 1, domain.ControlActionGive, &target)

	require.NoError(t, err)
	assert.True(t, control.IsController(2))
}

func TestControlService_Update_GiveToNonMemberRejected(t *testing.T) {
	svc, controlRepo, roomRepo := newControlService(t)
	ctx := context.Background()

	target := uint(9)
	roomRepo.On("FindByID", ctx, uint(7)).Return(&domain.Room{ID: 7, OwnerID: 1}, nil).Once()
	roomRepo.On("IsMember", ctx, uint(7), uint(9)).Return(false, nil).Once()

	_, err := svc.Update(ctx, 7, 1, domain.ControlActionGive, &target)

	assert.ErrorIs(t, err, service.ErrValidation)
	controlRepo.AssertNotCalled(t, "SetController", mock.Anything, mock.Anything, mock.Anything)
}

func TestControlService_Update_GiveWithoutTargetRejected(t *testing.T) {
	svc, _, roomRepo := newControlService(t)
	ctx := context.Background()

	roomRepo.On("FindByID", ctx, uint(7)).Return(&domain.Room{ID: 7, OwnerID: 1}, nil).Once()

	_, err := svc.Update(ctx, 7, 1, domain.ControlActionGive, nil)

	assert.ErrorIs(t, err, service.ErrValidation)
}

func TestControlService_Update_TakeSetsOwner(t *testing.T) {
	svc, controlRepo, roomRepo := newControlService(t)
	ctx := context.Background()

	owner := uint(1)
	roomRepo.On("FindByID", ctx, uint(7)).Return(&domain.Room{ID: 7, OwnerID: 1}, nil).Once()
	controlRepo.On("SetController", ctx, uint(7), mock.MatchedBy(func(id *uint) bool {
		return id != nil && *id == owner
	})).Return(&domain.RoomControl{RoomID: 7, ControllerUserID: &owner}, nil).Once()

	control, err := svc.Update(ctx, 7, 1, domain.ControlActionTake, nil)

	require.NoError(t, err)
	assert.True(t, control.IsController(1))
}

func TestControlService_Update_RevokeClearsController(t *testing.T) {
	svc, controlRepo, roomRepo := newControlService(t)
	ctx := context.Background()

	roomRepo.On("FindByID", ctx, uint(7)).Return(&domain.Room{ID: 7, OwnerID: 1}, nil).Once()
	controlRepo.On("SetController", ctx, uint(7), (*uint)(nil)).
		Return(&domain.RoomControl{RoomID: 7}, nil).Once()

	control, err := svc.Update(ctx, 7, 1, domain.ControlActionRevoke, nil)

	require.NoError(t, err)
	assert.False(t, control.HasController())
}

func TestControlService_Update_UnknownActionRejected(t *testing.T) {
	svc, _, roomRepo := newControlService(t)
	ctx := context.Background()

	roomRepo.On("FindByID", ctx, uint(7)).Return(&domain.Room{ID: 7, OwnerID: 1}, nil).Once()

	_, err := svc.Update(ctx, 7, 1, "steal", nil)

	assert.ErrorIs(t, err, service.ErrValidation)
}

func TestControlService_Update_RoomNotFound(t *testing.T) {
	svc, _, roomRepo := newControlService(t)
	ctx := context.Background()

	roomRepo.On("FindByID", ctx, uint(99)).Return(nil, repository.ErrRoomNotFound).Once()

	_, err := svc.Update(ctx, 99, 1, domain.ControlActionTake, nil)

	assert.ErrorIs(t, err, service.ErrRoomNotFound)
}
