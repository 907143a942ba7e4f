package repository

import (
	"context"
	"time"

	"github.com/PtahSamora/titcha-studyroom/internal/domain"
)

// StateRepository covers the realtime room state kept in redis: the live scene
// cache, the room-scoped pub/sub channel, and the HTTP request counter used by
// the rate-limit middleware.
type StateRepository interface {
	// === Live scene cache ===

	// CacheScene stores the latest accepted scene payload for a room.
	CacheScene(ctx context.Context, roomID uint, scene []byte, ttl time.Duration) error

	// GetCachedScene returns the cached scene or ErrNotFound on a miss.
	GetCachedScene(ctx context.Context, roomID uint) ([]byte, error)

	// === PubSub ===

	// PublishEvent publishes an event to the room's channel so every server
	// instance holding subscribers for the room can fan it out.
	PublishEvent(ctx context.Context, event domain.Event) error

	// Subscribe returns a channel of events for one room plus a cancel func
	// that tears the subscription down.
	Subscribe(ctx context.Context, roomID uint) (<-chan domain.Event, func(), error)

	// === Request counting (HTTP middleware) ===

	// CheckRateLimit increments the counter behind key and reports whether the
	// caller is still within limit for the duration window.
	CheckRateLimit(ctx context.Context, key string, limit int, duration time.Duration) (bool, error)
}
