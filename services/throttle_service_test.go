package services

import (
	"testing"
	"time"
)

func TestMaybeEmitThrottlesPerKey(t *testing.T) {
	emitter := &captureEmitter{}
	throttle := NewBroadcastThrottler(emitter, 2*time.Second)

	clock := time.Now()
	throttle.now = func() time.Time { return clock }

	emitted := 0
	for i := 0; i < 20; i++ {
		clock = clock.Add(50 * time.Millisecond)
		if throttle.MaybeEmit("R1", "match-1", nil) {
			emitted++
		}
	}
	if emitted != 1 {
		t.Errorf("expected exactly 1 emission within the interval, got %d", emitted)
	}
	if got := emitter.count("telemetry"); got != 1 {
		t.Errorf("expected 1 telemetry event on the sink, got %d", got)
	}
}

func TestMaybeEmitAllowsAfterInterval(t *testing.T) {
	throttle := NewBroadcastThrottler(&captureEmitter{}, 2*time.Second)

	clock := time.Now()
	throttle.now = func() time.Time { return clock }

	if !throttle.MaybeEmit("R1", "match-1", nil) {
		t.Fatal("first emission should pass")
	}
	clock = clock.Add(2100 * time.Millisecond)
	if !throttle.MaybeEmit("R1", "match-1", nil) {
		t.Error("emission after the interval elapsed should pass")
	}
}

func TestMaybeEmitKeysAreIndependent(t *testing.T) {
	throttle := NewBroadcastThrottler(&captureEmitter{}, 2*time.Second)

	clock := time.Now()
	throttle.now = func() time.Time { return clock }

	if !throttle.MaybeEmit("R1", "match-1", nil) {
		t.Fatal("first R1 emission should pass")
	}
	if !throttle.MaybeEmit("B1", "match-1", nil) {
		t.Error("different drone in the same match should emit independently")
	}
	if !throttle.MaybeEmit("R1", "match-2", nil) {
		t.Error("same drone in a different match should emit independently")
	}
}

func TestThrottleSweepsStaleKeys(t *testing.T) {
	throttle := NewBroadcastThrottler(&captureEmitter{}, time.Second)

	clock := time.Now()
	throttle.now = func() time.Time { return clock }

	throttle.MaybeEmit("R1", "match-1", nil)
	throttle.MaybeEmit("B1", "match-1", nil)

	// Well past the TTL; the next emission triggers a sweep.
	clock = clock.Add(time.Minute)
	throttle.MaybeEmit("R2", "match-2", nil)

	throttle.mu.Lock()
	size := len(throttle.lastEmit)
	throttle.mu.Unlock()
	if size != 1 {
		t.Errorf("stale keys should be evicted, map still holds %d entries", size)
	}
}
