package redisstate

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/sirupsen/logrus"

	"github.com/PtahSamora/titcha-studyroom/internal/domain"
	"github.com/PtahSamora/titcha-studyroom/internal/repository"
)

// RedisStateRepository implements repository.StateRepository on a redis client.
type RedisStateRepository struct {
	client    *redis.Client
	keyPrefix string
}

func NewRedisStateRepository(client *redis.Client, keyPrefix string) *RedisStateRepository {
	if client == nil {
		panic("redis client cannot be nil for RedisStateRepository")
	}
	if keyPrefix == "" {
		keyPrefix = "sr:" // study room
	}
	return &RedisStateRepository{client: client, keyPrefix: keyPrefix}
}

func (r *RedisStateRepository) sceneKey(roomID uint) string {
	return fmt.Sprintf("%sroom:%d:scene", r.keyPrefix, roomID)
}

func (r *RedisStateRepository) roomChannel(roomID uint) string {
	return fmt.Sprintf("%sroom:%d:events", r.keyPrefix, roomID)
}

// CacheScene stores the latest accepted scene payload for a room.
func (r *RedisStateRepository) CacheScene(ctx context.Context, roomID uint, scene []byte, ttl time.Duration) error {
	key := r.sceneKey(roomID)
	if err := r.client.Set(ctx, key, scene, ttl).Err(); err != nil {
		return fmt.Errorf("redis: failed to cache scene for room %d on key %s: %w", roomID, key, err)
	}
	return nil
}

func (r *RedisStateRepository) GetCachedScene(ctx context.Context, roomID uint) ([]byte, error) {
	key := r.sceneKey(roomID)
	data, err := r.client.Get(ctx, key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, repository.ErrNotFound
		}
		return nil, fmt.Errorf("redis: failed to get cached scene for room %d from %s: %w", roomID, key, err)
	}
	return data, nil
}

// PublishEvent publishes an event to the room's channel.
func (r *RedisStateRepository) PublishEvent(ctx context.Context, event domain.Event) error {
	channel := r.roomChannel(event.RoomID)
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("redis: failed to marshal event '%s' for room %d: %w", event.Type, event.RoomID, err)
	}
	if err := r.client.Publish(ctx, channel, payload).Err(); err != nil {
		logrus.WithFields(logrus.Fields{
			"channel":      channel,
			"event_type":   event.Type,
			"payload_size": len(payload),
			"room_id":      event.RoomID,
		}).WithError(err).Error("Redis Publish failed")
		return fmt.Errorf("redis: failed to publish event to channel %s: %w", channel, err)
	}
	return nil
}

// Subscribe delivers the room's events on the returned channel until the
// cancel func is called. Malformed payloads are logged and dropped.
func (r *RedisStateRepository) Subscribe(ctx context.Context, roomID uint) (<-chan domain.Event, func(), error) {
	channel := r.roomChannel(roomID)
	pubsub := r.client.Subscribe(ctx, channel)
	// Force the subscription to be established before returning.
	if _, err := pubsub.Receive(ctx); err != nil {
		_ = pubsub.Close()
		return nil, nil, fmt.Errorf("redis: failed to subscribe to channel %s: %w", channel, err)
	}

	events := make(chan domain.Event, 64)
	go func() {
		defer close(events)
		for msg := range pubsub.Channel() {
			var event domain.Event
			if err := json.Unmarshal([]byte(msg.Payload), &event); err != nil {
				logrus.WithField("channel", channel).WithError(err).Warn("Dropping malformed pubsub payload")
				continue
			}
			events <- event
		}
	}()

	cancel := func() {
		if err := pubsub.Close(); err != nil {
			logrus.WithField("channel", channel).WithError(err).Warn("Failed to close pubsub subscription")
		}
	}
	return events, cancel, nil
}

// CheckRateLimit increments the counter behind key and reports whether the
// caller is still within limit for the window. Used by the HTTP middleware
// only; the ask-tutor gate uses the in-process token bucket.
func (r *RedisStateRepository) CheckRateLimit(ctx context.Context, key string, limit int, duration time.Duration) (bool, error) {
	pipe := r.client.Pipeline()
	incrCmd := pipe.Incr(ctx, key)
	pipe.Expire(ctx, key, duration)
	if _, err := pipe.Exec(ctx); err != nil {
		return false, fmt.Errorf("redis: pipeline failed for rate limit check on key %s: %w", key, err)
	}
	count, err := incrCmd.Result()
	if err != nil {
		return false, fmt.Errorf("redis: failed to get incr result for rate limit on key %s: %w", key, err)
	}
	return count <= int64(limit), nil
}
