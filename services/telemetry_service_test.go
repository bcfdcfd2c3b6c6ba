package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"dronearena_server/models"
)

func newTestTelemetryStack(t *testing.T) (*TelemetryService, *MatchService, *captureEmitter) {
	t.Helper()
	emitter := &captureEmitter{}
	dynamo := &DynamoService{Client: newFakeDynamo()}
	matches := &MatchService{
		Dynamo:   dynamo,
		Analysis: NewAnalysisService("http://127.0.0.1:1"),
		Emitter:  emitter,
	}
	return &TelemetryService{
		Dynamo:   dynamo,
		Matches:  matches,
		Devices:  &ESPService{Dynamo: dynamo},
		Throttle: NewBroadcastThrottler(emitter, 0),
	}, matches, emitter
}

// startScoredMatch creates a match with R1/B1 registered for round 1 and the
// round running.
func startScoredMatch(t *testing.T, ms *MatchService) *models.Match {
	t.Helper()
	ctx := context.Background()
	m := createTestMatch(t, ms, 1)
	drones := []models.RegisteredDrone{
		{DroneID: "R1", Team: "team-a", Role: "Forward"},
		{DroneID: "B1", Team: "team-b", Role: "Keeper"},
	}
	if _, err := ms.RegisterDrones(ctx, m.MatchID, 1, drones); err != nil {
		t.Fatalf("RegisterDrones failed: %v", err)
	}
	started, err := ms.StartNextRound(ctx, m.MatchID)
	if err != nil {
		t.Fatalf("StartNextRound failed: %v", err)
	}
	t.Cleanup(func() { ms.cancelAutoEnd(m.MatchID, 1) })
	return started
}

func TestIngestScoresAndPersists(t *testing.T) {
	ts, ms, _ := newTestTelemetryStack(t)
	m := startScoredMatch(t, ms)
	ctx := context.Background()

	res, err := ts.Ingest(ctx, IngestInput{
		DroneID: "R1",
		MatchID: m.MatchID,
		Sample:  models.TelemetryLog{X: 25, Y: 25, Z: 3, Pitch: 0.1, Roll: 0.1, Battery: 90},
	})
	if err != nil {
		t.Fatalf("Ingest failed: %v", err)
	}
	if !res.Accepted {
		t.Fatalf("sample ignored: %s", res.Reason)
	}
	if res.Points != 10 {
		t.Errorf("points = %d, want 10", res.Points)
	}
	if res.TotalLogs != 1 {
		t.Errorf("totalLogs = %d, want 1", res.TotalLogs)
	}

	res, err = ts.Ingest(ctx, IngestInput{
		DroneID: "R1",
		MatchID: m.MatchID,
		Sample:  models.TelemetryLog{X: 60, Y: 25, Z: 3, Pitch: 0.1, Roll: 0.1},
	})
	if err != nil {
		t.Fatalf("Ingest failed: %v", err)
	}
	if res.Points != 5 {
		t.Errorf("out-of-bounds sample points = %d, want 5", res.Points)
	}
	if res.TotalLogs != 2 {
		t.Errorf("totalLogs = %d, want 2", res.TotalLogs)
	}

	stored, err := ms.GetMatch(ctx, m.MatchID)
	if err != nil {
		t.Fatalf("GetMatch failed: %v", err)
	}
	if stored.FinalScoreA != 15 {
		t.Errorf("finalScoreA = %d, want 15", stored.FinalScoreA)
	}
	if round := stored.RoundByNumber(1); round.TeamAScore != 15 {
		t.Errorf("round teamAScore = %d, want 15", round.TeamAScore)
	}

	records, err := ts.GetMatchLogs(ctx, m.MatchID, 1, "", "R1")
	if err != nil {
		t.Fatalf("GetMatchLogs failed: %v", err)
	}
	if len(records) != 1 || len(records[0].Logs) != 2 {
		t.Fatalf("expected one record with 2 logs, got %+v", records)
	}
	if records[0].TeamID != "team-a" {
		t.Errorf("teamId = %q, want team-a (inferred from R prefix)", records[0].TeamID)
	}
	if records[0].Logs[0].Timestamp == 0 {
		t.Error("missing timestamp must default to ingest time")
	}
}

func TestIngestIgnoresUnknownDrone(t *testing.T) {
	ts, ms, _ := newTestTelemetryStack(t)
	m := startScoredMatch(t, ms)
	ctx := context.Background()

	res, err := ts.Ingest(ctx, IngestInput{
		DroneID: "R7",
		MatchID: m.MatchID,
		Sample:  models.TelemetryLog{X: 25, Y: 25, Z: 3},
	})
	if err != nil {
		t.Fatalf("Ingest failed: %v", err)
	}
	if res.Accepted {
		t.Fatal("drone outside the registered set must be ignored")
	}

	records, _ := ts.GetMatchLogs(ctx, m.MatchID, 0, "", "")
	if len(records) != 0 {
		t.Errorf("ignored sample must not be persisted, found %d records", len(records))
	}
	stored, _ := ms.GetMatch(ctx, m.MatchID)
	if stored.FinalScoreA != 0 || stored.FinalScoreB != 0 {
		t.Error("ignored sample must not change the score")
	}
}

func TestIngestUnregisteredDeviceIsAcknowledged(t *testing.T) {
	ts, _, _ := newTestTelemetryStack(t)

	res, err := ts.Ingest(context.Background(), IngestInput{
		MacAddress: "AA:BB:CC:DD:EE:FF",
		Sample:     models.TelemetryLog{X: 25, Y: 25, Z: 3},
	})
	if err != nil {
		t.Fatalf("unregistered device must not error, got %v", err)
	}
	if res.Accepted {
		t.Error("unregistered device sample must be ignored")
	}
}

func TestIngestResolvesDeviceByMAC(t *testing.T) {
	ts, ms, _ := newTestTelemetryStack(t)
	m := startScoredMatch(t, ms)
	ctx := context.Background()

	if _, err := ts.Devices.Register(ctx, "aa:bb:cc:dd:ee:01", "B1", "Keeper", "", ""); err != nil {
		t.Fatalf("Register failed: %v", err)
	}
	if _, err := ms.SetCurrentMatch(ctx, m.MatchID); err != nil {
		t.Fatalf("SetCurrentMatch failed: %v", err)
	}

	res, err := ts.Ingest(ctx, IngestInput{
		MacAddress: "AA:BB:CC:DD:EE:01",
		Sample:     models.TelemetryLog{X: 10, Y: 10, Z: 2, Pitch: 0.05, Roll: 0.05},
	})
	if err != nil {
		t.Fatalf("Ingest failed: %v", err)
	}
	if !res.Accepted {
		t.Fatalf("sample ignored: %s", res.Reason)
	}

	stored, _ := ms.GetMatch(ctx, m.MatchID)
	if stored.FinalScoreB != 10 {
		t.Errorf("finalScoreB = %d, want 10 (B1 flies for teamB)", stored.FinalScoreB)
	}
}

func TestIngestWithoutActiveMatchIsIgnored(t *testing.T) {
	ts, _, _ := newTestTelemetryStack(t)

	res, err := ts.Ingest(context.Background(), IngestInput{
		DroneID: "R1",
		Sample:  models.TelemetryLog{X: 25, Y: 25, Z: 3},
	})
	if err != nil {
		t.Fatalf("Ingest failed: %v", err)
	}
	if res.Accepted {
		t.Error("sample without any active match must be ignored")
	}
}

func TestIngestUnknownMatchIDErrors(t *testing.T) {
	ts, _, _ := newTestTelemetryStack(t)

	_, err := ts.Ingest(context.Background(), IngestInput{
		DroneID: "R1",
		MatchID: "does-not-exist",
		Sample:  models.TelemetryLog{X: 25, Y: 25, Z: 3},
	})
	if !errors.Is(err, ErrMatchNotFound) {
		t.Fatalf("error = %v, want ErrMatchNotFound for an explicit unknown match", err)
	}
}

func TestIngestStaleRoundNumberIsIgnored(t *testing.T) {
	ts, ms, _ := newTestTelemetryStack(t)
	m := startScoredMatch(t, ms)

	res, err := ts.Ingest(context.Background(), IngestInput{
		DroneID:     "R1",
		MatchID:     m.MatchID,
		RoundNumber: 2,
		Sample:      models.TelemetryLog{X: 25, Y: 25, Z: 3},
	})
	if err != nil {
		t.Fatalf("Ingest failed: %v", err)
	}
	if res.Accepted {
		t.Error("sample targeting a non-active round must be ignored")
	}
}

func TestIngestBroadcastIsThrottled(t *testing.T) {
	ts, ms, emitter := newTestTelemetryStack(t)
	m := startScoredMatch(t, ms)
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		if _, err := ts.Ingest(ctx, IngestInput{
			DroneID: "R1",
			MatchID: m.MatchID,
			Sample:  models.TelemetryLog{X: 25, Y: 25, Z: 3},
		}); err != nil {
			t.Fatalf("Ingest failed: %v", err)
		}
	}
	if got := emitter.count("telemetry"); got != 1 {
		t.Errorf("expected 1 throttled telemetry broadcast, got %d", got)
	}
}

func TestLatestPositionsReturnsLastSamplePerDrone(t *testing.T) {
	ts, ms, _ := newTestTelemetryStack(t)
	m := startScoredMatch(t, ms)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		if _, err := ts.Ingest(ctx, IngestInput{
			DroneID: "R1",
			MatchID: m.MatchID,
			Sample:  models.TelemetryLog{X: float64(i), Y: 25, Z: 3},
		}); err != nil {
			t.Fatalf("Ingest failed: %v", err)
		}
	}

	round, latest, err := ts.LatestPositions(ctx, m.MatchID)
	if err != nil {
		t.Fatalf("LatestPositions failed: %v", err)
	}
	if round != 1 {
		t.Errorf("round = %d, want 1", round)
	}
	if len(latest) != 1 || len(latest[0].Logs) != 1 {
		t.Fatalf("expected one drone with one sample, got %+v", latest)
	}
	if latest[0].Logs[0].X != 2 {
		t.Errorf("latest X = %v, want 2 (the last ingested sample)", latest[0].Logs[0].X)
	}
}

func TestLatestPositionsAfterRoundCloses(t *testing.T) {
	ts, ms, _ := newTestTelemetryStack(t)
	m := startScoredMatch(t, ms)
	ctx := context.Background()

	if _, err := ts.Ingest(ctx, IngestInput{
		DroneID: "R1",
		MatchID: m.MatchID,
		Sample:  models.TelemetryLog{X: 25, Y: 25, Z: 3},
	}); err != nil {
		t.Fatalf("Ingest failed: %v", err)
	}
	if _, err := ms.EndActiveRound(ctx, m.MatchID); err != nil {
		t.Fatalf("EndActiveRound failed: %v", err)
	}

	round, latest, err := ts.LatestPositions(ctx, m.MatchID)
	if err != nil {
		t.Fatalf("LatestPositions failed: %v", err)
	}
	if round != 1 {
		t.Errorf("round = %d, want 1 (the closed round is the last played)", round)
	}
	if len(latest) != 1 {
		t.Fatalf("expected the closed round's samples, got %+v", latest)
	}
}

func TestAppendLockPoolSweepsIdleKeys(t *testing.T) {
	pool := &appendLockPool{}
	pool.lock("m1/1#R1").Unlock()

	pool.mu.Lock()
	pool.entries["m1/1#R1"].lastUsed = time.Now().Add(-2 * appendLockTTL)
	pool.lastSweep = time.Now().Add(-2 * appendLockTTL)
	pool.mu.Unlock()

	pool.lock("m1/1#B1").Unlock()

	pool.mu.Lock()
	_, stale := pool.entries["m1/1#R1"]
	size := len(pool.entries)
	pool.mu.Unlock()
	if stale {
		t.Error("idle key must be evicted by the sweep")
	}
	if size != 1 {
		t.Errorf("pool holds %d entries, want 1", size)
	}
}

func TestClearMatchLogs(t *testing.T) {
	ts, ms, _ := newTestTelemetryStack(t)
	m := startScoredMatch(t, ms)
	ctx := context.Background()

	ts.Ingest(ctx, IngestInput{DroneID: "R1", MatchID: m.MatchID, Sample: models.TelemetryLog{X: 25, Y: 25, Z: 3}})
	ts.Ingest(ctx, IngestInput{DroneID: "B1", MatchID: m.MatchID, Sample: models.TelemetryLog{X: 25, Y: 25, Z: 3}})

	deleted, err := ts.ClearMatchLogs(ctx, m.MatchID)
	if err != nil {
		t.Fatalf("ClearMatchLogs failed: %v", err)
	}
	if deleted != 2 {
		t.Errorf("deleted = %d, want 2", deleted)
	}
	records, _ := ts.GetMatchLogs(ctx, m.MatchID, 0, "", "")
	if len(records) != 0 {
		t.Errorf("expected no records after clear, got %d", len(records))
	}
}
