package http

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/PtahSamora/titcha-studyroom/internal/service"
)

// Stable failure codes shared with clients.
const (
	CodeUnauthorized     = "UNAUTHORIZED"
	CodeValidation       = "VALIDATION"
	CodeRoomNotFound     = "ROOM_NOT_FOUND"
	CodeInviteInvalid    = "INVALID_INVITE_CODE"
	CodeCrossSchool      = "CROSS_SCHOOL"
	CodeNotMember        = "NOT_MEMBER"
	CodeNotOwner         = "NOT_OWNER"
	CodeNoControl        = "NO_CONTROL"
	CodeAskAiDisabled    = "ASK_AI_DISABLED"
	CodeRateLimit        = "RATE_LIMIT"
	CodeTutorQuota       = "TUTOR_QUOTA"
	CodeTutorConfig      = "TUTOR_CONFIG"
	CodeTutorUnavailable = "TUTOR_UNAVAILABLE"
	CodeInternal         = "INTERNAL"
)

// HandleServiceError translates a business error into the denial envelope.
// Authorization failures are expected outcomes and are never rethrown; only
// unmapped errors get logged as server errors. Rate-limit denials are
// backpressure, logged at debug at most.
func HandleServiceError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrAuthenticationFailed):
		Fail(c, http.StatusUnauthorized, CodeUnauthorized, err.Error())
	case errors.Is(err, service.ErrRegistrationFailed):
		Fail(c, http.StatusBadRequest, CodeValidation, err.Error())
	case errors.Is(err, service.ErrValidation):
		Fail(c, http.StatusBadRequest, CodeValidation, err.Error())
	case errors.Is(err, service.ErrRoomNotFound):
		Fail(c, http.StatusNotFound, CodeRoomNotFound, err.Error())
	case errors.Is(err, service.ErrInvalidInviteCode):
		Fail(c, http.StatusNotFound, CodeInviteInvalid, err.Error())
	case errors.Is(err, service.ErrCrossSchool):
		Fail(c, http.StatusForbidden, CodeCrossSchool, err.Error())
	case errors.Is(err, service.ErrNotMember):
		Fail(c, http.StatusForbidden, CodeNotMember, err.Error())
	case errors.Is(err, service.ErrNotOwner):
		Fail(c, http.StatusForbidden, CodeNotOwner, err.Error())
	case errors.Is(err, service.ErrNoControl):
		Fail(c, http.StatusForbidden, CodeNoControl, err.Error())
	case errors.Is(err, service.ErrAskAiDisabled):
		Fail(c, http.StatusForbidden, CodeAskAiDisabled, err.Error())
	case errors.Is(err, service.ErrRateLimited):
		logrus.WithField("path", c.FullPath()).Debug("Request rate limited")
		Fail(c, http.StatusTooManyRequests, CodeRateLimit, err.Error())
	case errors.Is(err, service.ErrTutorQuota):
		// Retryable with backoff.
		Fail(c, http.StatusServiceUnavailable, CodeTutorQuota, err.Error())
	case errors.Is(err, service.ErrTutorConfig):
		Fail(c, http.StatusInternalServerError, CodeTutorConfig, err.Error())
	case errors.Is(err, service.ErrTutorUnavailable):
		Fail(c, http.StatusServiceUnavailable, CodeTutorUnavailable, err.Error())
	default:
		logrus.WithError(err).Error("Unhandled internal server error")
		Fail(c, http.StatusInternalServerError, CodeInternal, "An unexpected error occurred")
	}
}
