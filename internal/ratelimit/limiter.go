// Package ratelimit is the in-process token-bucket limiter guarding expensive
// room actions (notably tutor queries). Buckets live for the process lifetime
// only; a periodic sweep evicts idle ones to bound memory.
package ratelimit

import (
	"context"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
)

// DefaultMaxIdle is how long an untouched bucket survives before the sweeper
// removes it.
const DefaultMaxIdle = time.Hour

type bucket struct {
	tokens     float64
	lastRefill time.Time
	lastUsed   time.Time
}

// Limiter holds one token bucket per caller-chosen key. Keys compose the
// action, user and resource (e.g. "room:ask:<user>:<room>"); the limiter does
// not interpret them.
type Limiter struct {
	mu      sync.Mutex
	buckets map[string]*bucket
	now     func() time.Time
	maxIdle time.Duration
}

// NewLimiter creates a limiter using the wall clock.
func NewLimiter(maxIdle time.Duration) *Limiter {
	return NewLimiterWithClock(maxIdle, time.Now)
}

// NewLimiterWithClock creates a limiter with an injectable clock for
// deterministic tests.
func NewLimiterWithClock(maxIdle time.Duration, now func() time.Time) *Limiter {
	if maxIdle <= 0 {
		maxIdle = DefaultMaxIdle
	}
	if now == nil {
		now = time.Now
	}
	return &Limiter{
		buckets: make(map[string]*bucket),
		now:     now,
		maxIdle: maxIdle,
	}
}

// Allow admits up to limit calls per window for key, consuming one token on
// success. An absent bucket counts as fully replenished, so the first call
// leaves limit-1 tokens. Refill is continuous: floor(elapsed*limit/window)
// tokens per check, capped at limit, with no burst beyond limit. Never errors.
func (l *Limiter) Allow(key string, limit int, window time.Duration) bool {
	if limit <= 0 || window <= 0 {
		return true
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	b, ok := l.buckets[key]
	if !ok {
		l.buckets[key] = &bucket{
			tokens:     float64(limit - 1),
			lastRefill: now,
			lastUsed:   now,
		}
		return true
	}
	b.lastUsed = now

	// Whole tokens only; lastRefill advances by the time those tokens
	// represent so fractional progress is never lost between checks.
	elapsed := now.Sub(b.lastRefill)
	refill := elapsed.Milliseconds() * int64(limit) / window.Milliseconds()
	if refill > 0 {
		b.tokens += float64(refill)
		if b.tokens >= float64(limit) {
			b.tokens = float64(limit)
			b.lastRefill = now
		} else {
			perToken := window / time.Duration(limit)
			b.lastRefill = b.lastRefill.Add(time.Duration(refill) * perToken)
		}
	}

	if b.tokens < 1 {
		return false
	}
	b.tokens--
	return true
}

// Sweep removes buckets untouched for longer than the max idle age and
// returns how many were evicted.
func (l *Limiter) Sweep() int {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	evicted := 0
	for key, b := range l.buckets {
		if now.Sub(b.lastUsed) > l.maxIdle {
			delete(l.buckets, key)
			evicted++
		}
	}
	return evicted
}

// Len returns the number of live buckets.
func (l *Limiter) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.buckets)
}

// RunSweeper sweeps on the given interval until ctx is cancelled. It should
// run in its own goroutine.
func (l *Limiter) RunSweeper(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		interval = 10 * time.Minute
	}
	log := logrus.WithField("component", "ratelimit_sweeper")
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			log.Info("Rate limit sweeper stopped")
			return
		case <-ticker.C:
			if n := l.Sweep(); n > 0 {
				log.Debugf("Evicted %d idle rate limit buckets", n)
			}
		}
	}
}
