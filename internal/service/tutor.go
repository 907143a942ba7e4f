package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/PtahSamora/titcha-studyroom/internal/domain"
	"github.com/PtahSamora/titcha-studyroom/internal/infra/oracle"
	"github.com/PtahSamora/titcha-studyroom/internal/ratelimit"
	"github.com/PtahSamora/titcha-studyroom/internal/repository"
)

// Ask rate limit: 5 tutor queries per user per room per minute.
const (
	AskRateLimit  = 5
	AskRateWindow = 60 * time.Second
)

// TutorOracle is the external tutoring service: prompt plus room context in,
// structured content blocks out.
type TutorOracle interface {
	Ask(ctx context.Context, prompt, subject string, roomID uint) ([]domain.TutorBlock, error)
}

// TutorService is the ask-tutor gate: the authorization pipeline guarding
// calls into the tutoring oracle.
type TutorService struct {
	roomRepo    repository.RoomRepository
	userRepo    repository.UserRepository
	permRepo    repository.PermissionRepository
	controlRepo repository.ControlRepository
	messageRepo repository.MessageRepository
	stateRepo   repository.StateRepository
	limiter     *ratelimit.Limiter
	oracle      TutorOracle
	rateLimit   int
	rateWindow  time.Duration
}

func NewTutorService(
	roomRepo repository.RoomRepository,
	userRepo repository.UserRepository,
	permRepo repository.PermissionRepository,
	controlRepo repository.ControlRepository,
	messageRepo repository.MessageRepository,
	stateRepo repository.StateRepository,
	limiter *ratelimit.Limiter,
	tutorOracle TutorOracle,
) *TutorService {
	if roomRepo == nil || userRepo == nil || permRepo == nil || controlRepo == nil || messageRepo == nil {
		panic("all repositories must be non-nil for TutorService")
	}
	if limiter == nil {
		panic("rate limiter cannot be nil for TutorService")
	}
	if tutorOracle == nil {
		panic("tutor oracle cannot be nil for TutorService")
	}
	return &TutorService{
		roomRepo:    roomRepo,
		userRepo:    userRepo,
		permRepo:    permRepo,
		controlRepo: controlRepo,
		messageRepo: messageRepo,
		stateRepo:   stateRepo,
		limiter:     limiter,
		oracle:      tutorOracle,
		rateLimit:   AskRateLimit,
		rateWindow:  AskRateWindow,
	}
}

// Ask runs the authorization pipeline and, only when every check passes,
// invokes the tutoring oracle. Checks short-circuit in a fixed order:
// membership, rate limit, control, permission. The system log entry is
// appended only after a successful oracle response, so a failed or timed-out
// tutor call never leaves a stray message. The rate token is charged on
// attempt and never refunded.
func (s *TutorService) Ask(ctx context.Context, roomID, userID uint, prompt string) ([]domain.TutorBlock, error) {
	logCtx := logrus.WithFields(logrus.Fields{"room_id": roomID, "user_id": userID})

	if prompt == "" {
		return nil, fmt.Errorf("%w: prompt is required", ErrValidation)
	}

	// 1. Room must exist and the user must be a current member.
	room, err := s.roomRepo.FindByID(ctx, roomID)
	if err != nil {
		if errors.Is(err, repository.ErrRoomNotFound) {
			return nil, ErrRoomNotFound
		}
		logCtx.WithError(err).Error("Ask: failed to load room")
		return nil, ErrInternalServer
	}
	isMember, err := s.roomRepo.IsMember(ctx, roomID, userID)
	if err != nil {
		logCtx.WithError(err).Error("Ask: failed to check membership")
		return nil, ErrInternalServer
	}
	if !isMember {
		logCtx.Warn("Ask: rejected, not a member")
		return nil, ErrNotMember
	}

	// 2. Rate check. Denials are expected backpressure, not errors.
	key := fmt.Sprintf("room:ask:%d:%d", userID, roomID)
	if !s.limiter.Allow(key, s.rateLimit, s.rateWindow) {
		logCtx.Debug("Ask: rate limited")
		return nil, ErrRateLimited
	}

	// 3. Control overrides permission. With a controller set, only the
	//    controller passes, owner included; with none, the permission policy
	//    decides.
	control, err := s.controlRepo.Ensure(ctx, roomID)
	if err != nil {
		logCtx.WithError(err).Error("Ask: failed to ensure control record")
		return nil, ErrInternalServer
	}
	if control.HasController() {
		if !control.IsController(userID) {
			logCtx.Warn("Ask: rejected, control held by another member")
			return nil, ErrNoControl
		}
	} else {
		perm, err := s.permRepo.Ensure(ctx, roomID)
		if err != nil {
			logCtx.WithError(err).Error("Ask: failed to ensure permissions")
			return nil, ErrInternalServer
		}
		if err := canAskByPolicy(room, perm, userID); err != nil {
			logCtx.Warn("Ask: rejected by permission policy")
			return nil, err
		}
	}

	// 4. All checks passed; call the oracle.
	blocks, err := s.oracle.Ask(ctx, prompt, room.Subject, roomID)
	if err != nil {
		logCtx.WithError(err).Warn("Ask: tutor oracle call failed")
		return nil, mapOracleError(err)
	}

	// Log append happens strictly after oracle success. A failure here is
	// logged but does not fail the ask; the tutor already answered.
	s.appendSystemMessage(ctx, roomID, userID, prompt)

	logCtx.WithField("block_count", len(blocks)).Info("Ask: tutor answered")
	return blocks, nil
}

func (s *TutorService) appendSystemMessage(ctx context.Context, roomID, userID uint, prompt string) {
	logCtx := logrus.WithFields(logrus.Fields{"room_id": roomID, "user_id": userID})

	asker := fmt.Sprintf("user %d", userID)
	if user, err := s.userRepo.FindByID(ctx, userID); err == nil {
		asker = user.Username
	}
	msg := &domain.RoomMessage{
		ID:     uuid.NewString(),
		RoomID: roomID,
		Sender: domain.SystemSender,
		Text:   fmt.Sprintf("%s asked the AI tutor: %s", asker, truncate(prompt, 120)),
	}
	if err := s.messageRepo.Append(ctx, msg); err != nil {
		logCtx.WithError(err).Warn("Ask: failed to append system message")
		return
	}
	if s.stateRepo != nil {
		payload, err := json.Marshal(msg)
		if err == nil {
			event := domain.Event{Type: domain.EventMessage, RoomID: roomID, Payload: payload}
			if err := s.stateRepo.PublishEvent(ctx, event); err != nil {
				logCtx.WithError(err).Warn("Ask: failed to publish room:message event")
			}
		}
	}
}

func mapOracleError(err error) error {
	switch {
	case errors.Is(err, oracle.ErrQuotaExceeded):
		return ErrTutorQuota
	case errors.Is(err, oracle.ErrBadConfig):
		return ErrTutorConfig
	case errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled):
		return ErrTutorUnavailable
	default:
		return ErrTutorUnavailable
	}
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max] + "…"
}
