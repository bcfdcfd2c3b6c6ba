package services

import (
	"sync"
	"time"
)

// DefaultEmitInterval is the minimum spacing between realtime broadcasts for
// one (drone, match) pair. Inbound samples arrive at up to 20Hz; viewers only
// need one position every couple of seconds.
const DefaultEmitInterval = 2 * time.Second

// Emitter is the realtime sink the throttler pushes through. The Socket.IO
// server satisfies it via socket.Emitter.
type Emitter interface {
	EmitToMatch(matchID, event string, payload interface{})
}

// BroadcastThrottler rate-limits telemetry broadcasts per (drone, match) key.
// It owns its timestamp map; state is process-local and lost on restart,
// which only means the first sample after a restart always emits.
type BroadcastThrottler struct {
	sink     Emitter
	interval time.Duration

	mu        sync.Mutex
	lastEmit  map[string]time.Time
	lastSweep time.Time
	now       func() time.Time // overridable in tests
}

// NewBroadcastThrottler wires a throttler to its sink. A zero interval falls
// back to DefaultEmitInterval.
func NewBroadcastThrottler(sink Emitter, interval time.Duration) *BroadcastThrottler {
	if interval <= 0 {
		interval = DefaultEmitInterval
	}
	return &BroadcastThrottler{
		sink:     sink,
		interval: interval,
		lastEmit: make(map[string]time.Time),
		now:      time.Now,
	}
}

// MaybeEmit broadcasts payload to the match room unless an emission for the
// same (drone, match) key happened within the interval. Returns whether it
// emitted.
func (t *BroadcastThrottler) MaybeEmit(droneID, matchID string, payload interface{}) bool {
	key := droneID + "-" + matchID
	now := t.now()

	t.mu.Lock()
	last, seen := t.lastEmit[key]
	if seen && now.Sub(last) < t.interval {
		t.mu.Unlock()
		return false
	}
	t.lastEmit[key] = now
	t.sweepLocked(now)
	t.mu.Unlock()

	if t.sink != nil {
		t.sink.EmitToMatch(matchID, "telemetry", payload)
	}
	return true
}

// sweepLocked drops keys idle for 10x the interval so the map does not grow
// across matches. Runs at most once per interval.
func (t *BroadcastThrottler) sweepLocked(now time.Time) {
	if now.Sub(t.lastSweep) < t.interval {
		return
	}
	t.lastSweep = now
	ttl := 10 * t.interval
	for key, last := range t.lastEmit {
		if now.Sub(last) > ttl {
			delete(t.lastEmit, key)
		}
	}
}
