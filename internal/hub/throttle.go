package hub

import (
	"sync"
	"time"

	"github.com/PtahSamora/titcha-studyroom/internal/domain"
)

// DefaultSceneInterval is the broadcast throttle window for scene updates.
const DefaultSceneInterval = 200 * time.Millisecond

// Throttler coalesces a burst of scene events into at most one send per
// interval, leading+trailing: the first event of a burst goes out immediately,
// later events inside the window are coalesced into one trailing send carrying
// only the newest payload. Intermediate states are dropped, which makes scene
// sync last-writer-wins at the transport layer.
//
// One Throttler is built per room subscription and torn down with Dispose when
// the room empties; the timer never outlives its room.
type Throttler struct {
	mu       sync.Mutex
	interval time.Duration
	send     func(event domain.Event)
	timer    *time.Timer
	pending  *domain.Event
	open     bool
	disposed bool
}

func NewThrottler(interval time.Duration, send func(event domain.Event)) *Throttler {
	if interval <= 0 {
		interval = DefaultSceneInterval
	}
	if send == nil {
		panic("send func cannot be nil for Throttler")
	}
	return &Throttler{interval: interval, send: send}
}

// Push offers the newest scene event. Outside a window it sends immediately
// and opens one; inside a window it replaces the pending trailing payload.
func (t *Throttler) Push(event domain.Event) {
	t.mu.Lock()
	if t.disposed {
		t.mu.Unlock()
		return
	}
	if t.open {
		t.pending = &event
		t.mu.Unlock()
		return
	}
	t.open = true
	if t.timer == nil {
		t.timer = time.AfterFunc(t.interval, t.flush)
	} else {
		t.timer.Reset(t.interval)
	}
	t.mu.Unlock()

	// Leading send, outside the lock.
	t.send(event)
}

// flush fires at the end of a window: it emits the coalesced trailing payload
// if one arrived, keeping the window open for another interval, or closes the
// window.
func (t *Throttler) flush() {
	t.mu.Lock()
	if t.disposed {
		t.open = false
		t.mu.Unlock()
		return
	}
	if t.pending == nil {
		t.open = false
		t.mu.Unlock()
		return
	}
	event := *t.pending
	t.pending = nil
	t.timer.Reset(t.interval)
	t.mu.Unlock()

	t.send(event)
}

// Dispose stops the timer and drops any pending payload. Safe to call more
// than once.
func (t *Throttler) Dispose() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.disposed = true
	t.pending = nil
	if t.timer != nil {
		t.timer.Stop()
	}
}
