package service

import "errors"

// Business errors. The HTTP layer maps each to a status code and a stable
// machine-readable code; they are never thrown past the boundary.
var (
	ErrAuthenticationFailed = errors.New("authentication failed")
	ErrRegistrationFailed   = errors.New("registration failed: username or email already exists")
	ErrRoomNotFound         = errors.New("room not found")
	ErrInvalidInviteCode    = errors.New("invalid or expired invite code")
	ErrCrossSchool          = errors.New("room belongs to a different school")
	ErrNotMember            = errors.New("user is not a member of this room")
	ErrNotOwner             = errors.New("only the room owner may do this")
	ErrRateLimited          = errors.New("too many tutor requests, slow down")
	ErrNoControl            = errors.New("another member currently holds ask-AI control")
	ErrAskAiDisabled        = errors.New("ask-AI is not enabled for you in this room")
	ErrValidation           = errors.New("invalid input")
	ErrTutorQuota           = errors.New("tutor quota exhausted, retry later")
	ErrTutorConfig          = errors.New("tutor service misconfigured")
	ErrTutorUnavailable     = errors.New("tutor service unavailable")
	ErrInternalServer       = errors.New("internal server error")
)
