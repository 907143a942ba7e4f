package service_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/PtahSamora/titcha-studyroom/internal/domain"
	"github.com/PtahSamora/titcha-studyroom/internal/infra/oracle"
	"github.com/PtahSamora/titcha-studyroom/internal/ratelimit"
	"github.com/PtahSamora/titcha-studyroom/internal/repository/mocks"
	"github.com/PtahSamora/titcha-studyroom/internal/service"
)

type oracleMock struct {
	mock.Mock
}

func (o *oracleMock) Ask(ctx context.Context, prompt, subject string, roomID uint) ([]domain.TutorBlock, error) {
	ret := o.Called(ctx, prompt, subject, roomID)

	var r0 []domain.TutorBlock
	if ret.Get(0) != nil {
		r0 = ret.Get(0).([]domain.TutorBlock)
	}
	return r0, ret.Error(1)
}

type tutorServiceMocks struct {
	roomRepo    *mocks.RoomRepository
	userRepo    *mocks.UserRepository
	permRepo    *mocks.PermissionRepository
	controlRepo *mocks.ControlRepository
	messageRepo *mocks.MessageRepository
	oracle      *oracleMock
}

func newTutorService(t *testing.T) (*service.TutorService, *tutorServiceMocks) {
	t.Helper()
	m := &tutorServiceMocks{
		roomRepo:    new(mocks.RoomRepository),
		userRepo:    new(mocks.UserRepository),
		permRepo:    new(mocks.PermissionRepository),
		controlRepo: new(mocks.ControlRepository),
		messageRepo: new(mocks.MessageRepository),
		oracle:      new(oracleMock),
	}
	limiter := ratelimit.NewLimiter(time.Hour)
	svc := service.NewTutorService(m.roomRepo, m.userRepo, m.permRepo, m.controlRepo, m.messageRepo, nil, limiter, m.oracle)
	return svc, m
}

var tutorAnswer = []domain.TutorBlock{{Type: "text", Text: "Factor out the common term first."}}

func (m *tutorServiceMocks) expectMember(room *domain.Room, userID uint) {
	m.roomRepo.On("FindByID", mock.Anything, room.ID).Return(room, nil)
	m.roomRepo.On("IsMember", mock.Anything, room.ID, userID).Return(true, nil)
}

func TestTutorService_Ask_PermissionModeSuccess(t *testing.T) {
	svc, m := newTutorService(t)
	ctx := context.Background()

	room := &domain.Room{ID: 7, OwnerID: 1, Subject: "math"}
	m.expectMember(room, 2)
	m.controlRepo.On("Ensure", ctx, uint(7)).Return(&domain.RoomControl{RoomID: 7}, nil).Once()
	m.permRepo.On("Ensure", ctx, uint(7)).Return(&domain.RoomPermission{RoomID: 7, AskAiEnabled: true}, nil).Once()
	m.oracle.On("Ask", ctx, "How do I factor x^2+2x?", "math", uint(7)).Return(tutorAnswer, nil).Once()
	m.userRepo.On("FindByID", ctx, uint(2)).Return(&domain.User{ID: 2, Username: "student-bo"}, nil).Once()
	m.messageRepo.On("Append", ctx, mock.MatchedBy(func(msg *domain.RoomMessage) bool {
		assert.Equal(t, domain.SystemSender, msg.Sender)
		assert.Contains(t, msg.Text, "student-bo asked the AI tutor")
		return true
	})).Return(nil).Once()

	blocks, err := svc.Ask(ctx, 7, 2, "How do I factor x^2+2x?")

	require.NoError(t, err)
	assert.Equal(t, tutorAnswer, blocks)
	m.oracle.AssertExpectations(t)
	m.messageRepo.AssertExpectations(t)
}

func TestTutorService_Ask_NotMember(t *testing.T) {
	svc, m := newTutorService(t)
	ctx := context.Background()

	room := &domain.Room{ID: 7, OwnerID: 1}
	m.roomRepo.On("FindByID", ctx, uint(7)).Return(room, nil).Once()
	m.roomRepo.On("IsMember", ctx, uint(7), uint(9)).Return(false, nil).Once()

	_, err := svc.Ask(ctx, 7, 9, "hello?")

	assert.ErrorIs(t, err, service.ErrNotMember)
	m.oracle.AssertNotCalled(t, "Ask", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	m.controlRepo.AssertNotCalled(t, "Ensure", mock.Anything, mock.Anything)
}

func TestTutorService_Ask_EmptyPrompt(t *testing.T) {
	svc, m := newTutorService(t)

	_, err := svc.Ask(context.Background(), 7, 2, "")

	assert.ErrorIs(t, err, service.ErrValidation)
	m.roomRepo.AssertNotCalled(t, "FindByID", mock.Anything, mock.Anything)
}

func TestTutorService_Ask_ControlOverridesPermission(t *testing.T) {
	svc, m := newTutorService(t)
	ctx := context.Background()

	controller := uint(2)
	room := &domain.Room{ID: 7, OwnerID: 1, Subject: "math"}
	m.expectMember(room, 1)
	m.expectMember(room, 2)
	m.controlRepo.On("Ensure", ctx, uint(7)).Return(&domain.RoomControl{RoomID: 7, ControllerUserID: &controller}, nil)

	// Even the owner is blocked while someone else holds control.
	_, err := svc.Ask(ctx, 7, 1, "may I?")
	assert.ErrorIs(t, err, service.ErrNoControl)

	// The controller passes without the permission policy being consulted,
	// even with askAiEnabled off.
	m.oracle.On("Ask", ctx, "my turn", "math", uint(7)).Return(tutorAnswer, nil).Once()
	m.userRepo.On("FindByID", ctx, uint(2)).Return(&domain.User{ID: 2, Username: "student-bo"}, nil).Once()
	m.messageRepo.On("Append", ctx, mock.Anything).Return(nil).Once()

	blocks, err := svc.Ask(ctx, 7, 2, "my turn")

	require.NoError(t, err)
	assert.Equal(t, tutorAnswer, blocks)
	m.permRepo.AssertNotCalled(t, "Ensure", mock.Anything, mock.Anything)
}

func TestTutorService_Ask_PolicyMatrix(t *testing.T) {
	allowTwo := func() *domain.RoomPermission {
		perm := &domain.RoomPermission{RoomID: 7, AskAiEnabled: true}
		require.NoError(t, perm.SetAskList([]uint{2}))
		return perm
	}

	cases := []struct {
		name    string
		userID  uint
		perm    *domain.RoomPermission
		wantErr error
	}{
		{"owner bypasses disabled flag", 1, &domain.RoomPermission{RoomID: 7}, nil},
		{"member blocked when disabled", 2, &domain.RoomPermission{RoomID: 7}, service.ErrAskAiDisabled},
		{"enabled with empty list admits any member", 3, &domain.RoomPermission{RoomID: 7, AskAiEnabled: true}, nil},
		{"enabled with list admits listed member", 2, allowTwo(), nil},
		{"enabled with list blocks unlisted member", 3, allowTwo(), service.ErrAskAiDisabled},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			svc, m := newTutorService(t)
			ctx := context.Background()

			room := &domain.Room{ID: 7, OwnerID: 1, Subject: "math"}
			m.expectMember(room, tc.userID)
			m.controlRepo.On("Ensure", ctx, uint(7)).Return(&domain.RoomControl{RoomID: 7}, nil).Once()
			m.permRepo.On("Ensure", ctx, uint(7)).Return(tc.perm, nil).Once()
			if tc.wantErr == nil {
				m.oracle.On("Ask", ctx, "q", "math", uint(7)).Return(tutorAnswer, nil).Once()
				m.userRepo.On("FindByID", ctx, tc.userID).Return(&domain.User{ID: tc.userID, Username: "u"}, nil).Once()
				m.messageRepo.On("Append", ctx, mock.Anything).Return(nil).Once()
			}

			_, err := svc.Ask(ctx, 7, tc.userID, "q")

			if tc.wantErr == nil {
				assert.NoError(t, err)
			} else {
				assert.ErrorIs(t, err, tc.wantErr)
				m.oracle.AssertNotCalled(t, "Ask", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
			}
		})
	}
}

func TestTutorService_Ask_RateLimitExhaustion(t *testing.T) {
	svc, m := newTutorService(t)
	ctx := context.Background()

	room := &domain.Room{ID: 7, OwnerID: 1, Subject: "math"}
	m.expectMember(room, 2)
	m.controlRepo.On("Ensure", ctx, uint(7)).Return(&domain.RoomControl{RoomID: 7}, nil)
	m.permRepo.On("Ensure", ctx, uint(7)).Return(&domain.RoomPermission{RoomID: 7, AskAiEnabled: true}, nil)
	m.oracle.On("Ask", ctx, "q", "math", uint(7)).Return(tutorAnswer, nil)
	m.userRepo.On("FindByID", ctx, uint(2)).Return(&domain.User{ID: 2, Username: "u"}, nil)
	m.messageRepo.On("Append", ctx, mock.Anything).Return(nil)

	for i := 0; i < service.AskRateLimit; i++ {
		_, err := svc.Ask(ctx, 7, 2, "q")
		require.NoError(t, err, "ask %d within budget should pass", i+1)
	}

	_, err := svc.Ask(ctx, 7, 2, "q")

	assert.ErrorIs(t, err, service.ErrRateLimited)
	m.oracle.AssertNumberOfCalls(t, "Ask", service.AskRateLimit)
}

func TestTutorService_Ask_TokenChargedOnDeniedAttempt(t *testing.T) {
	svc, m := newTutorService(t)
	ctx := context.Background()

	// Every attempt is denied downstream by the control gate, yet each one
	// still consumes a rate token: the budget runs out without a single
	// successful ask.
	controller := uint(3)
	room := &domain.Room{ID: 7, OwnerID: 1, Subject: "math"}
	m.expectMember(room, 2)
	m.controlRepo.On("Ensure", ctx, uint(7)).Return(&domain.RoomControl{RoomID: 7, ControllerUserID: &controller}, nil)

	for i := 0; i < service.AskRateLimit; i++ {
		_, err := svc.Ask(ctx, 7, 2, "q")
		require.ErrorIs(t, err, service.ErrNoControl)
	}

	_, err := svc.Ask(ctx, 7, 2, "q")

	assert.ErrorIs(t, err, service.ErrRateLimited)
}

func TestTutorService_Ask_OracleFailureLeavesNoMessage(t *testing.T) {
	svc, m := newTutorService(t)
	ctx := context.Background()

	room := &domain.Room{ID: 7, OwnerID: 1, Subject: "math"}
	m.expectMember(room, 2)
	m.controlRepo.On("Ensure", ctx, uint(7)).Return(&domain.RoomControl{RoomID: 7}, nil).Once()
	m.permRepo.On("Ensure", ctx, uint(7)).Return(&domain.RoomPermission{RoomID: 7, AskAiEnabled: true}, nil).Once()
	m.oracle.On("Ask", ctx, "q", "math", uint(7)).Return(nil, oracle.ErrUnavailable).Once()

	_, err := svc.Ask(ctx, 7, 2, "q")

	assert.ErrorIs(t, err, service.ErrTutorUnavailable)
	m.messageRepo.AssertNotCalled(t, "Append", mock.Anything, mock.Anything)
}

func TestTutorService_Ask_OracleErrorMapping(t *testing.T) {
	cases := []struct {
		name      string
		oracleErr error
		wantErr   error
	}{
		{"quota", oracle.ErrQuotaExceeded, service.ErrTutorQuota},
		{"config", oracle.ErrBadConfig, service.ErrTutorConfig},
		{"timeout", context.DeadlineExceeded, service.ErrTutorUnavailable},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			svc, m := newTutorService(t)
			ctx := context.Background()

			room := &domain.Room{ID: 7, OwnerID: 1, Subject: "math"}
			m.expectMember(room, 2)
			m.controlRepo.On("Ensure", ctx, uint(7)).Return(&domain.RoomControl{RoomID: 7}, nil).Once()
			m.permRepo.On("Ensure", ctx, uint(7)).Return(&domain.RoomPermission{RoomID: 7, AskAiEnabled: true}, nil).Once()
			m.oracle.On("Ask", ctx, "q", "math", uint(7)).Return(nil, tc.oracleErr).Once()

			_, err := svc.Ask(ctx, 7, 2, "q")

			assert.ErrorIs(t, err, tc.wantErr)
		})
	}
}

func TestTutorService_Ask_MessageAppendFailureDoesNotFailAsk(t *testing.T) {
	svc, m := newTutorService(t)
	ctx := context.Background()

	room := &domain.Room{ID: 7, OwnerID: 1, Subject: "math"}
	m.expectMember(room, 2)
	m.controlRepo.On("Ensure", ctx, uint(7)).Return(&domain.RoomControl{RoomID: 7}, nil).Once()
	m.permRepo.On("Ensure", ctx, uint(7)).Return(&domain.RoomPermission{RoomID: 7, AskAiEnabled: true}, nil).Once()
	m.oracle.On("Ask", ctx, "q", "math", uint(7)).Return(tutorAnswer, nil).Once()
	m.userRepo.On("FindByID", ctx, uint(2)).Return(&domain.User{ID: 2, Username: "u"}, nil).Once()
	m.messageRepo.On("Append", ctx, mock.Anything).Return(assert.AnError).Once()

	blocks, err := svc.Ask(ctx, 7, 2, "q")

	require.NoError(t, err, "the tutor already answered; log failure is not the caller's problem")
	assert.Equal(t, tutorAnswer, blocks)
}
