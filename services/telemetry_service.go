package services

import (
	"context"
	"errors"
	"log"
	"sync"
	"time"

	"dronearena_server/models"
)

// IngestInput is one inbound sample plus whatever identity the sender could
// supply. Device mode sets MacAddress and leaves MatchID empty; explicit mode
// names everything.
type IngestInput struct {
	MacAddress  string
	DroneID     string
	MatchID     string
	RoundNumber int    // 0 = use the active round
	TeamID      string // optional, inferred from drone id when empty
	Sample      models.TelemetryLog
}

// IngestResult reports what happened to a sample. Ignored samples are still
// acknowledged to the device: field hardware has no retry logic and rejecting
// loudly would only generate noise.
type IngestResult struct {
	Accepted  bool
	Points    int
	TotalLogs int
	Reason    string // why the sample was ignored, for logs only
}

// TelemetryService validates, scores and persists inbound samples, and
// relays a throttled view to viewers.
type TelemetryService struct {
	Dynamo   *DynamoService
	Matches  *MatchService
	Devices  *ESPService
	Throttle *BroadcastThrottler

	appendLocks appendLockPool // keyed "<matchId>/<round>#<droneId>"
}

// appendLockTTL is how long an append key may stay idle before its lock entry
// is dropped. Far longer than any round, so only dead keys are swept.
const appendLockTTL = 10 * time.Minute

// appendLockPool hands out one mutex per telemetry key and evicts entries
// idle past the TTL. An entry is only held for the span of one
// read-append-write, so an idle entry is an unowned one.
type appendLockPool struct {
	mu        sync.Mutex
	entries   map[string]*appendLock
	lastSweep time.Time
}

type appendLock struct {
	mu       sync.Mutex
	lastUsed time.Time
}

// lock acquires the mutex for key; the caller unlocks it.
func (p *appendLockPool) lock(key string) *sync.Mutex {
	now := time.Now()
	p.mu.Lock()
	if p.entries == nil {
		p.entries = make(map[string]*appendLock)
	}
	entry, ok := p.entries[key]
	if !ok {
		entry = &appendLock{}
		p.entries[key] = entry
	}
	entry.lastUsed = now
	p.sweepLocked(now)
	p.mu.Unlock()

	entry.mu.Lock()
	return &entry.mu
}

func (p *appendLockPool) sweepLocked(now time.Time) {
	if now.Sub(p.lastSweep) < appendLockTTL {
		return
	}
	p.lastSweep = now
	for key, entry := range p.entries {
		if now.Sub(entry.lastUsed) > appendLockTTL {
			delete(p.entries, key)
		}
	}
}

// TelemetryBroadcast is the realtime message pushed to match subscribers.
type TelemetryBroadcast struct {
	DroneID     string  `json:"droneId"`
	MatchID     string  `json:"matchId"`
	RoundNumber int     `json:"roundNumber"`
	X           float64 `json:"x"`
	Y           float64 `json:"y"`
	Z           float64 `json:"z"`
	Pitch       float64 `json:"pitch"`
	Roll        float64 `json:"roll"`
	Yaw         float64 `json:"yaw"`
	Battery     float64 `json:"battery"`
	Timestamp   int64   `json:"timestamp"`
}

// Ingest resolves a sample to its match/round/team/drone, persists and scores
// it. Missing context (unregistered device, no active match or round, drone
// not in the round's registered set) ignores the sample without error.
// An unknown matchId in explicit mode is ErrMatchNotFound.
func (ts *TelemetryService) Ingest(ctx context.Context, in IngestInput) (*IngestResult, error) {
	droneID := in.DroneID
	if droneID == "" && in.MacAddress != "" {
		resolved, _, err := ts.Devices.Resolve(ctx, in.MacAddress)
		if errors.Is(err, ErrUnregisteredDevice) {
			return &IngestResult{Reason: "device not registered"}, nil
		}
		if err != nil {
			return nil, err
		}
		droneID = resolved
	}
	if droneID == "" {
		return &IngestResult{Reason: "no drone identity"}, nil
	}

	var match *models.Match
	var err error
	if in.MatchID != "" {
		match, err = ts.Matches.GetMatch(ctx, in.MatchID)
		if err != nil {
			return nil, err
		}
	} else {
		match, err = ts.Matches.CurrentActiveMatch(ctx)
		if err != nil {
			return nil, err
		}
		if match == nil {
			return &IngestResult{Reason: "no active match"}, nil
		}
	}

	active := match.ActiveRound()
	if active == nil {
		return &IngestResult{Reason: "no active round"}, nil
	}
	if in.RoundNumber != 0 && in.RoundNumber != active.RoundNumber {
		return &IngestResult{Reason: "round not active"}, nil
	}

	registered := false
	for _, d := range active.RegisteredDrones {
		if d.DroneID == droneID {
			registered = true
			break
		}
	}
	if !registered {
		return &IngestResult{Reason: "drone not registered for round"}, nil
	}

	teamID := in.TeamID
	if teamID == "" {
		teamID, err = InferTeam(droneID, match)
		if errors.Is(err, ErrRoleConflict) {
			return &IngestResult{Reason: "drone id matches neither team"}, nil
		}
		if err != nil {
			return nil, err
		}
	}
	var teamLetter string
	switch teamID {
	case match.TeamAID:
		teamLetter = "A"
	case match.TeamBID:
		teamLetter = "B"
	default:
		return &IngestResult{Reason: "team not in this match"}, nil
	}

	sample := in.Sample
	if sample.Timestamp == 0 {
		sample.Timestamp = time.Now().UnixMilli()
	}
	sample.Points = ScoreSample(sample)

	total, err := ts.appendSample(ctx, match.MatchID, teamID, droneID, active.RoundNumber, sample)
	if err != nil {
		return nil, err
	}

	if err := ts.Matches.ApplyTelemetryPoints(ctx, match.MatchID, active.RoundNumber, teamLetter, sample.Points); err != nil {
		// The round closed between the registered-set check and the score
		// write; the appended sample stays, the points do not.
		if !errors.Is(err, ErrNoActiveRound) {
			log.Printf("❌ Failed to apply telemetry points: %v", err)
		}
	}

	ts.Throttle.MaybeEmit(droneID, match.MatchID, TelemetryBroadcast{
		DroneID:     droneID,
		MatchID:     match.MatchID,
		RoundNumber: active.RoundNumber,
		X:           sample.X,
		Y:           sample.Y,
		Z:           sample.Z,
		Pitch:       sample.Pitch,
		Roll:        sample.Roll,
		Yaw:         sample.Yaw,
		Battery:     sample.Battery,
		Timestamp:   sample.Timestamp,
	})

	return &IngestResult{Accepted: true, Points: sample.Points, TotalLogs: total}, nil
}

// appendSample serializes appends per (match, drone, round) key so concurrent
// samples from one drone never interleave partial writes. Different keys
// append in parallel.
func (ts *TelemetryService) appendSample(ctx context.Context, matchID, teamID, droneID string, roundNumber int, sample models.TelemetryLog) (int, error) {
	telemetryID := models.TelemetryID(roundNumber, droneID)
	mu := ts.appendLocks.lock(matchID + "/" + telemetryID)
	defer mu.Unlock()

	var record models.DroneTelemetry
	err := ts.Dynamo.GetItem(ctx, models.DroneTelemetryTable,
		CompositeKey("matchId", matchID, "telemetryId", telemetryID), &record)
	if errors.Is(err, ErrItemNotFound) {
		record = models.DroneTelemetry{
			MatchID:     matchID,
			TelemetryID: telemetryID,
			TeamID:      teamID,
			DroneID:     droneID,
			RoundNumber: roundNumber,
		}
	} else if err != nil {
		return 0, err
	}

	record.Logs = append(record.Logs, sample)
	if err := ts.Dynamo.PutItem(ctx, models.DroneTelemetryTable, &record); err != nil {
		return 0, err
	}
	return len(record.Logs), nil
}

// GetMatchLogs returns telemetry records for a match, optionally filtered.
// A zero roundNumber or empty teamID/droneID means no filter.
func (ts *TelemetryService) GetMatchLogs(ctx context.Context, matchID string, roundNumber int, teamID, droneID string) ([]models.DroneTelemetry, error) {
	var records []models.DroneTelemetry
	if err := ts.Dynamo.QueryByPartitionKey(ctx, models.DroneTelemetryTable, "matchId", matchID, &records); err != nil {
		return nil, err
	}
	filtered := make([]models.DroneTelemetry, 0, len(records))
	for _, rec := range records {
		if roundNumber != 0 && rec.RoundNumber != roundNumber {
			continue
		}
		if teamID != "" && rec.TeamID != teamID {
			continue
		}
		if droneID != "" && rec.DroneID != droneID {
			continue
		}
		filtered = append(filtered, rec)
	}
	return filtered, nil
}

// LatestPositions returns each drone's most recent sample for the match's
// active round, falling back to the last completed one, shaped for the
// 3D viewer.
func (ts *TelemetryService) LatestPositions(ctx context.Context, matchID string) (int, []models.DroneTelemetry, error) {
	match, err := ts.Matches.GetMatch(ctx, matchID)
	if err != nil {
		return 0, nil, err
	}
	roundNumber := 0
	if round := match.LastPlayedRound(); round != nil {
		roundNumber = round.RoundNumber
	}
	records, err := ts.GetMatchLogs(ctx, matchID, roundNumber, "", "")
	if err != nil {
		return 0, nil, err
	}
	latest := make([]models.DroneTelemetry, 0, len(records))
	for _, rec := range records {
		if len(rec.Logs) == 0 {
			continue
		}
		rec.Logs = rec.Logs[len(rec.Logs)-1:]
		latest = append(latest, rec)
	}
	return roundNumber, latest, nil
}

// ClearMatchLogs deletes every telemetry record for a match. Testing helper.
func (ts *TelemetryService) ClearMatchLogs(ctx context.Context, matchID string) (int, error) {
	var records []models.DroneTelemetry
	if err := ts.Dynamo.QueryByPartitionKey(ctx, models.DroneTelemetryTable, "matchId", matchID, &records); err != nil {
		return 0, err
	}
	for _, rec := range records {
		key := CompositeKey("matchId", rec.MatchID, "telemetryId", rec.TelemetryID)
		if err := ts.Dynamo.DeleteItem(ctx, models.DroneTelemetryTable, key); err != nil {
			return 0, err
		}
	}
	return len(records), nil
}
