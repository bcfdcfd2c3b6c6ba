package services

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"sync"
	"time"

	"dronearena_server/models"

	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/google/uuid"
)

var (
	ErrMatchNotFound      = errors.New("match not found")
	ErrMatchCompleted     = errors.New("match is already completed")
	ErrRoundAlreadyActive = errors.New("a round is already in progress")
	ErrNoRoundsRemaining  = errors.New("all rounds completed")
	ErrNoActiveRound      = errors.New("no round is currently active")
	ErrRoundNotFound      = errors.New("round not found")
	ErrRoundsIncomplete   = errors.New("not all rounds are completed")
	ErrInvalidTeam        = errors.New("invalid team specified")
	ErrVersionConflict    = errors.New("match was modified concurrently, retry")
	ErrNoCurrentMatch     = errors.New("no current match set")
	ErrTimerNotRunning    = errors.New("timer is not running")
	ErrTimerNotPaused     = errors.New("timer is not paused")
)

// DroneCommander pushes START/STOP configs down to the field devices.
// Nil-able: the state machine never depends on the broker being up.
type DroneCommander interface {
	ConfigureDrone(droneID string, config map[string]interface{})
	BroadcastCommand(command map[string]interface{})
}

// MatchService owns the match/round lifecycle. Every transition takes a
// per-match mutex, re-reads the document and saves it with a version
// condition, so racing operators (or the auto-end timer racing a manual
// close) cannot both win.
type MatchService struct {
	Dynamo    *DynamoService
	Analysis  *AnalysisService
	Emitter   Emitter        // realtime events, nil-able
	Commander DroneCommander // MQTT fan-out, nil-able
	ServerURL string         // telemetry endpoint handed to drones in START configs

	locks    sync.Map // matchId -> *sync.Mutex
	timersMu sync.Mutex
	timers   map[string]*time.Timer // "<matchId>-<round>" -> auto-end timer
}

const (
	defaultRounds        = 3
	maxRounds            = 3
	defaultRoundDuration = 3 // minutes
	saveRetries          = 3
)

func (ms *MatchService) lock(matchID string) *sync.Mutex {
	mu, _ := ms.locks.LoadOrStore(matchID, &sync.Mutex{})
	return mu.(*sync.Mutex)
}

// GetMatch fetches one match document.
func (ms *MatchService) GetMatch(ctx context.Context, matchID string) (*models.Match, error) {
	var m models.Match
	err := ms.Dynamo.GetItem(ctx, models.MatchesTable, StringKey("matchId", matchID), &m)
	if errors.Is(err, ErrItemNotFound) {
		return nil, ErrMatchNotFound
	}
	if err != nil {
		return nil, err
	}
	return &m, nil
}

// saveMatch writes m guarded by its version counter.
func (ms *MatchService) saveMatch(ctx context.Context, m *models.Match) error {
	expected := m.Version
	m.Version++
	err := ms.Dynamo.PutItemConditional(ctx, models.MatchesTable, m,
		"version = :expected",
		map[string]types.AttributeValue{
			":expected": &types.AttributeValueMemberN{Value: fmt.Sprintf("%d", expected)},
		})
	if err != nil {
		m.Version = expected
	}
	return err
}

// withMatch runs fn against a freshly fetched match under the per-match lock
// and persists the result, retrying the whole read-mutate-write on a version
// conflict from another process.
func (ms *MatchService) withMatch(ctx context.Context, matchID string, fn func(*models.Match) error) (*models.Match, error) {
	mu := ms.lock(matchID)
	mu.Lock()
	defer mu.Unlock()

	for attempt := 0; attempt < saveRetries; attempt++ {
		m, err := ms.GetMatch(ctx, matchID)
		if err != nil {
			return nil, err
		}
		if err := fn(m); err != nil {
			return nil, err
		}
		err = ms.saveMatch(ctx, m)
		if errors.Is(err, ErrConditionFailed) {
			continue
		}
		if err != nil {
			return nil, err
		}
		return m, nil
	}
	return nil, ErrVersionConflict
}

// CreateMatchInput carries the fixture parameters.
type CreateMatchInput struct {
	Tournament    string `json:"tournament"`
	TeamAID       string `json:"teamAId"`
	TeamBID       string `json:"teamBId"`
	TeamAName     string `json:"teamAName"`
	TeamBName     string `json:"teamBName"`
	Rounds        int    `json:"rounds"`
	RoundDuration int    `json:"roundDuration"` // minutes
}

// CreateMatch schedules a fixture with all rounds pre-created in pending state.
func (ms *MatchService) CreateMatch(ctx context.Context, in CreateMatchInput) (*models.Match, error) {
	if in.TeamAID == "" || in.TeamBID == "" {
		return nil, fmt.Errorf("teamAId and teamBId are required")
	}
	rounds := in.Rounds
	if rounds <= 0 {
		rounds = defaultRounds
	}
	if rounds > maxRounds {
		rounds = maxRounds
	}
	duration := in.RoundDuration
	if duration <= 0 {
		duration = defaultRoundDuration
	}

	m := &models.Match{
		MatchID:       uuid.NewString(),
		Tournament:    in.Tournament,
		TeamAID:       in.TeamAID,
		TeamBID:       in.TeamBID,
		TeamAName:     in.TeamAName,
		TeamBName:     in.TeamBName,
		Status:        models.MatchScheduled,
		ScheduledTime: time.Now().UTC().Format(time.RFC3339),
		RoundDuration: duration,
		Version:       1,
	}
	for i := 1; i <= rounds; i++ {
		m.Rounds = append(m.Rounds, models.Round{
			RoundNumber: i,
			Status:      models.RoundPending,
			TimerStatus: models.TimerNotStarted,
		})
	}

	err := ms.Dynamo.PutItemConditional(ctx, models.MatchesTable, m,
		"attribute_not_exists(matchId)", nil)
	if err != nil {
		return nil, err
	}
	log.Printf("✅ Match created: %s (%d rounds)", m.MatchID, rounds)
	return m, nil
}

// ListMatches returns every match.
func (ms *MatchService) ListMatches(ctx context.Context) ([]models.Match, error) {
	var matches []models.Match
	if err := ms.Dynamo.ScanItems(ctx, models.MatchesTable, &matches); err != nil {
		return nil, err
	}
	return matches, nil
}

// DeleteMatch removes a match and its telemetry, and releases the timers and
// lock entry held for it.
func (ms *MatchService) DeleteMatch(ctx context.Context, matchID string) error {
	if _, err := ms.GetMatch(ctx, matchID); err != nil {
		return err
	}
	ms.cancelMatchTimers(matchID)
	var records []models.DroneTelemetry
	if err := ms.Dynamo.QueryByPartitionKey(ctx, models.DroneTelemetryTable, "matchId", matchID, &records); err != nil {
		return err
	}
	for _, rec := range records {
		key := CompositeKey("matchId", rec.MatchID, "telemetryId", rec.TelemetryID)
		if err := ms.Dynamo.DeleteItem(ctx, models.DroneTelemetryTable, key); err != nil {
			return err
		}
	}
	if err := ms.Dynamo.DeleteItem(ctx, models.MatchesTable, StringKey("matchId", matchID)); err != nil {
		return err
	}
	ms.locks.Delete(matchID)
	return nil
}

// StartNextRound activates the lowest-numbered pending round.
func (ms *MatchService) StartNextRound(ctx context.Context, matchID string) (*models.Match, error) {
	var started *models.Round
	m, err := ms.withMatch(ctx, matchID, func(m *models.Match) error {
		if m.Status == models.MatchCompleted {
			return ErrMatchCompleted
		}
		if active := m.ActiveRound(); active != nil {
			return fmt.Errorf("%w: round %d", ErrRoundAlreadyActive, active.RoundNumber)
		}
		var next *models.Round
		for i := range m.Rounds {
			if m.Rounds[i].Status == models.RoundPending {
				next = &m.Rounds[i]
				break
			}
		}
		if next == nil {
			return ErrNoRoundsRemaining
		}
		next.Status = models.RoundInProgress
		next.StartTime = time.Now().UTC().Format(time.RFC3339)
		next.TimerStatus = models.TimerRunning
		m.CurrentRound = next.RoundNumber
		m.Status = models.MatchInProgress
		started = next
		return nil
	})
	if err != nil {
		return nil, err
	}

	log.Printf("✅ Round %d started for match %s", started.RoundNumber, matchID)
	ms.sendStartCommands(m, started)
	ms.emit(matchID, "round-started", map[string]interface{}{
		"matchId":      matchID,
		"roundNumber":  started.RoundNumber,
		"startTime":    started.StartTime,
		"teamA":        m.TeamAName,
		"teamB":        m.TeamBName,
		"currentRound": m.CurrentRound,
	})
	ms.scheduleAutoEnd(matchID, started.RoundNumber, time.Duration(m.RoundDuration)*time.Minute)
	return m, nil
}

func (ms *MatchService) sendStartCommands(m *models.Match, round *models.Round) {
	if ms.Commander == nil || len(round.RegisteredDrones) == 0 {
		return
	}
	log.Printf("📡 Sending START commands to %d drones...", len(round.RegisteredDrones))
	for _, drone := range round.RegisteredDrones {
		ms.Commander.ConfigureDrone(drone.DroneID, map[string]interface{}{
			"command":     "START",
			"status":      "active",
			"matchId":     m.MatchID,
			"roundNumber": round.RoundNumber,
			"teamA":       m.TeamAID,
			"teamB":       m.TeamBID,
			"serverUrl":   ms.ServerURL + "/api/telemetry",
		})
	}
}

// scheduleAutoEnd arms a timer that closes the round when its duration runs
// out, replacing any earlier timer for the same round.
func (ms *MatchService) scheduleAutoEnd(matchID string, roundNumber int, after time.Duration) {
	key := fmt.Sprintf("%s-%d", matchID, roundNumber)
	ms.timersMu.Lock()
	if ms.timers == nil {
		ms.timers = make(map[string]*time.Timer)
	}
	if t, ok := ms.timers[key]; ok {
		t.Stop()
	}
	ms.timers[key] = time.AfterFunc(after, func() {
		log.Printf("⏰ Auto-ending round %d of match %s", roundNumber, matchID)
		if _, err := ms.endRound(context.Background(), matchID, &roundNumber); err != nil &&
			!errors.Is(err, ErrNoActiveRound) {
			log.Printf("❌ Error auto-ending round: %v", err)
		}
	})
	ms.timersMu.Unlock()
}

func (ms *MatchService) cancelAutoEnd(matchID string, roundNumber int) {
	key := fmt.Sprintf("%s-%d", matchID, roundNumber)
	ms.timersMu.Lock()
	if t, ok := ms.timers[key]; ok {
		t.Stop()
		delete(ms.timers, key)
	}
	ms.timersMu.Unlock()
}

// cancelMatchTimers disarms every auto-end timer a match still holds.
func (ms *MatchService) cancelMatchTimers(matchID string) {
	prefix := matchID + "-"
	ms.timersMu.Lock()
	for key, t := range ms.timers {
		if strings.HasPrefix(key, prefix) {
			t.Stop()
			delete(ms.timers, key)
		}
	}
	ms.timersMu.Unlock()
}

// UpdateScore applies an operator score adjustment to the active round.
// Totals are clamped at zero.
func (ms *MatchService) UpdateScore(ctx context.Context, matchID, team string, increment int) (*models.Match, error) {
	var round *models.Round
	m, err := ms.withMatch(ctx, matchID, func(m *models.Match) error {
		active := m.ActiveRound()
		if active == nil {
			return ErrNoActiveRound
		}
		if team != "A" && team != "B" {
			return ErrInvalidTeam
		}
		applyRoundDelta(m, active, team, increment)
		round = active
		return nil
	})
	if err != nil {
		return nil, err
	}

	ms.emit(matchID, "score-updated", map[string]interface{}{
		"matchId":     matchID,
		"roundNumber": round.RoundNumber,
		"teamAScore":  round.TeamAScore,
		"teamBScore":  round.TeamBScore,
		"finalScoreA": m.FinalScoreA,
		"finalScoreB": m.FinalScoreB,
		"updatedTeam": team,
	})
	return m, nil
}

// ApplyTelemetryPoints folds a scored sample into the totals of the round it
// was ingested for. The round must still be the active one.
func (ms *MatchService) ApplyTelemetryPoints(ctx context.Context, matchID string, roundNumber int, team string, points int) error {
	if points == 0 {
		return nil
	}
	_, err := ms.withMatch(ctx, matchID, func(m *models.Match) error {
		active := m.ActiveRound()
		if active == nil || active.RoundNumber != roundNumber {
			return ErrNoActiveRound
		}
		applyRoundDelta(m, active, team, points)
		return nil
	})
	return err
}

// EndActiveRound closes the in-progress round. Stability analysis runs as a
// follow-up task; a failure there never blocks or reverts the closure.
func (ms *MatchService) EndActiveRound(ctx context.Context, matchID string) (*models.Match, error) {
	return ms.endRound(ctx, matchID, nil)
}

// endRound closes the active round. When expect is non-nil, the active round
// must carry that number (auto-end timers use this so a stale timer cannot
// close a later round).
func (ms *MatchService) endRound(ctx context.Context, matchID string, expect *int) (*models.Match, error) {
	var closed *models.Round
	m, err := ms.withMatch(ctx, matchID, func(m *models.Match) error {
		active := m.ActiveRound()
		if active == nil {
			return ErrNoActiveRound
		}
		if expect != nil && active.RoundNumber != *expect {
			return ErrNoActiveRound
		}
		active.Status = models.RoundCompleted
		active.EndTime = time.Now().UTC().Format(time.RFC3339)
		active.TimerStatus = models.TimerEnded
		m.CurrentRound = 0
		closed = active
		return nil
	})
	if err != nil {
		return nil, err
	}

	ms.cancelAutoEnd(matchID, closed.RoundNumber)
	log.Printf("🏁 Round %d ended for match %s", closed.RoundNumber, matchID)

	if ms.Commander != nil {
		ms.Commander.BroadcastCommand(map[string]interface{}{"command": "STOP"})
	}
	ms.emit(matchID, "round-ended", map[string]interface{}{
		"matchId":     matchID,
		"roundNumber": closed.RoundNumber,
		"teamAScore":  m.FinalScoreA,
		"teamBScore":  m.FinalScoreB,
	})

	roundNumber := closed.RoundNumber
	go func() {
		if _, err := ms.AnalyzeClosedRound(context.Background(), matchID, roundNumber); err != nil {
			log.Printf("❌ Round analysis failed for match %s round %d: %v", matchID, roundNumber, err)
		}
	}()

	return m, nil
}

// CompleteMatch finishes a match once every round is closed. A tie yields no
// winner. Terminal: nothing can be activated afterwards.
func (ms *MatchService) CompleteMatch(ctx context.Context, matchID string) (*models.Match, error) {
	m, err := ms.withMatch(ctx, matchID, func(m *models.Match) error {
		for i := range m.Rounds {
			if m.Rounds[i].Status != models.RoundCompleted {
				return ErrRoundsIncomplete
			}
		}
		switch {
		case m.FinalScoreA > m.FinalScoreB:
			m.Winner = m.TeamAID
		case m.FinalScoreB > m.FinalScoreA:
			m.Winner = m.TeamBID
		default:
			m.Winner = ""
		}
		m.Status = models.MatchCompleted
		m.CompletedAt = time.Now().UTC().Format(time.RFC3339)
		m.CurrentRound = 0
		return nil
	})
	if err != nil {
		return nil, err
	}

	ms.cancelMatchTimers(matchID)
	ms.locks.Delete(matchID)
	log.Printf("🏆 Match completed: %s (winner: %s)", matchID, winnerLabel(m))
	ms.emit(matchID, "match-completed", map[string]interface{}{
		"matchId":     m.MatchID,
		"status":      m.Status,
		"winner":      m.Winner,
		"winnerName":  winnerLabel(m),
		"finalScoreA": m.FinalScoreA,
		"finalScoreB": m.FinalScoreB,
		"teamA":       m.TeamAName,
		"teamB":       m.TeamBName,
		"completedAt": m.CompletedAt,
	})
	return m, nil
}

func winnerLabel(m *models.Match) string {
	switch m.Winner {
	case m.TeamAID:
		return m.TeamAName
	case m.TeamBID:
		return m.TeamBName
	default:
		return "Draw"
	}
}

// PauseTimer pauses the running round timer, banking elapsed seconds.
func (ms *MatchService) PauseTimer(ctx context.Context, matchID string, roundNumber int) (*models.Match, error) {
	return ms.withMatch(ctx, matchID, func(m *models.Match) error {
		round := m.RoundByNumber(roundNumber)
		if round == nil {
			return ErrRoundNotFound
		}
		if round.TimerStatus != models.TimerRunning {
			return ErrTimerNotRunning
		}
		now := time.Now().UTC()
		if start, err := time.Parse(time.RFC3339, round.StartTime); err == nil {
			round.ElapsedTime = int(now.Sub(start).Seconds())
		}
		round.PausedAt = now.Format(time.RFC3339)
		round.TimerStatus = models.TimerPaused
		return nil
	})
}

// ResumeTimer restarts a paused timer, rebasing startTime so elapsed time
// picks up where it stopped.
func (ms *MatchService) ResumeTimer(ctx context.Context, matchID string, roundNumber int) (*models.Match, error) {
	return ms.withMatch(ctx, matchID, func(m *models.Match) error {
		round := m.RoundByNumber(roundNumber)
		if round == nil {
			return ErrRoundNotFound
		}
		if round.TimerStatus != models.TimerPaused {
			return ErrTimerNotPaused
		}
		now := time.Now().UTC()
		round.StartTime = now.Add(-time.Duration(round.ElapsedTime) * time.Second).Format(time.RFC3339)
		round.PausedAt = ""
		round.TimerStatus = models.TimerRunning
		return nil
	})
}

// RegisterDrones replaces the registered-drone set of a round.
func (ms *MatchService) RegisterDrones(ctx context.Context, matchID string, roundNumber int, drones []models.RegisteredDrone) (*models.Match, error) {
	if roundNumber < 1 || len(drones) == 0 {
		return nil, fmt.Errorf("round number and drones array are required")
	}
	if len(drones) < 2 || len(drones) > 16 {
		return nil, fmt.Errorf("at least 2 drones required (1-8 per team)")
	}
	return ms.withMatch(ctx, matchID, func(m *models.Match) error {
		if m.Status == models.MatchCompleted {
			return ErrMatchCompleted
		}
		round := m.RoundByNumber(roundNumber)
		if round == nil {
			if roundNumber > maxRounds {
				return ErrRoundNotFound
			}
			m.Rounds = append(m.Rounds, models.Round{
				RoundNumber:      roundNumber,
				Status:           models.RoundPending,
				TimerStatus:      models.TimerNotStarted,
				RegisteredDrones: drones,
			})
			return nil
		}
		if round.Status == models.RoundCompleted {
			return fmt.Errorf("cannot register drones for completed round")
		}
		round.RegisteredDrones = drones
		return nil
	})
}

// SetCurrentMatch flags one match as current, clearing the flag everywhere
// else. Only one match can be current at a time.
func (ms *MatchService) SetCurrentMatch(ctx context.Context, matchID string) (*models.Match, error) {
	matches, err := ms.ListMatches(ctx)
	if err != nil {
		return nil, err
	}
	for i := range matches {
		if matches[i].IsCurrentMatch && matches[i].MatchID != matchID {
			if _, err := ms.withMatch(ctx, matches[i].MatchID, func(m *models.Match) error {
				m.IsCurrentMatch = false
				return nil
			}); err != nil {
				return nil, err
			}
		}
	}
	m, err := ms.withMatch(ctx, matchID, func(m *models.Match) error {
		m.IsCurrentMatch = true
		return nil
	})
	if err != nil {
		return nil, err
	}
	log.Printf("✅ Current match set: %s", matchID)
	ms.emit(matchID, "current-match-updated", map[string]interface{}{
		"matchId": m.MatchID,
		"teamA":   m.TeamAName,
		"teamB":   m.TeamBName,
		"status":  m.Status,
	})
	return m, nil
}

// GetCurrentMatch returns the explicitly flagged current match.
func (ms *MatchService) GetCurrentMatch(ctx context.Context) (*models.Match, error) {
	matches, err := ms.ListMatches(ctx)
	if err != nil {
		return nil, err
	}
	for i := range matches {
		if matches[i].IsCurrentMatch {
			return &matches[i], nil
		}
	}
	return nil, ErrNoCurrentMatch
}

// CurrentActiveMatch resolves which match inbound device telemetry belongs
// to: the flagged current match if present, else the most recently started
// in-progress match. Returns (nil, nil) when there is nothing to attribute
// telemetry to; that is a state, not an error.
func (ms *MatchService) CurrentActiveMatch(ctx context.Context) (*models.Match, error) {
	matches, err := ms.ListMatches(ctx)
	if err != nil {
		return nil, err
	}
	for i := range matches {
		if matches[i].IsCurrentMatch {
			return &matches[i], nil
		}
	}
	var latest *models.Match
	var latestStart string
	for i := range matches {
		m := &matches[i]
		if m.Status != models.MatchInProgress {
			continue
		}
		start := m.ScheduledTime
		for j := range m.Rounds {
			if m.Rounds[j].StartTime > start {
				start = m.Rounds[j].StartTime
			}
		}
		if latest == nil || start > latestStart {
			latest, latestStart = m, start
		}
	}
	return latest, nil
}

func (ms *MatchService) emit(matchID, event string, payload interface{}) {
	if ms.Emitter != nil {
		ms.Emitter.EmitToMatch(matchID, event, payload)
	}
}

// AnalyzeClosedRound gathers the round's telemetry, asks the stability
// service for a bonus under a bounded timeout, and applies the result.
// Every failure path records a marker on the round instead of erroring the
// closure; the returned error only covers persistence problems.
// A round that already holds a successful result keeps it: the bonus is
// applied exactly once, and re-runs only retry failures.
func (ms *MatchService) AnalyzeClosedRound(ctx context.Context, matchID string, roundNumber int) (*models.RoundAnalysis, error) {
	m, err := ms.GetMatch(ctx, matchID)
	if err != nil {
		return nil, err
	}
	round := m.RoundByNumber(roundNumber)
	if round == nil {
		return nil, ErrRoundNotFound
	}
	if prev := round.MLAnalysis; prev != nil && prev.Error == "" {
		return prev, nil
	}

	var records []models.DroneTelemetry
	if err := ms.Dynamo.QueryByPartitionKey(ctx, models.DroneTelemetryTable, "matchId", matchID, &records); err != nil {
		return nil, err
	}

	var samples []AnalysisSample
	for _, rec := range records {
		if rec.RoundNumber != roundNumber {
			continue
		}
		for _, l := range rec.Logs {
			samples = append(samples, AnalysisSample{
				DroneID:   rec.DroneID,
				TeamID:    rec.TeamID,
				X:         l.X,
				Y:         l.Y,
				Z:         l.Z,
				Pitch:     l.Pitch,
				Roll:      l.Roll,
				Yaw:       l.Yaw,
				Timestamp: l.Timestamp,
			})
		}
	}

	var analysis *models.RoundAnalysis
	if len(samples) == 0 {
		log.Printf("⚠️  No telemetry data for ML analysis (match %s round %d)", matchID, roundNumber)
		analysis = &models.RoundAnalysis{Error: "No telemetry data"}
	} else {
		log.Printf("🤖 Sending %d data points to ML service...", len(samples))
		callCtx, cancel := context.WithTimeout(ctx, AnalysisTimeout)
		result, err := ms.Analysis.AnalyzeStability(callCtx, matchID, roundNumber, samples)
		cancel()
		if err != nil {
			log.Printf("❌ ML Service Error: %v", err)
			analysis = &models.RoundAnalysis{Error: "ML service unavailable", Message: err.Error()}
		} else {
			analysis = result
		}
	}

	_, err = ms.withMatch(ctx, matchID, func(m *models.Match) error {
		round := m.RoundByNumber(roundNumber)
		if round == nil {
			return ErrRoundNotFound
		}
		if round.Status != models.RoundCompleted {
			return fmt.Errorf("round %d is not closed", roundNumber)
		}
		// A concurrent run may have stored a successful result since the
		// check above; its bonus stands.
		if prev := round.MLAnalysis; prev != nil && prev.Error == "" {
			analysis = prev
			return nil
		}
		round.MLAnalysis = analysis
		applyBonus(m, round, analysis.BonusPoints)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return analysis, nil
}

// applyBonus awards the stability bonus to the team with the strictly higher
// raw round score; a tie splits it by integer halves.
func applyBonus(m *models.Match, round *models.Round, bonus int) {
	if bonus <= 0 {
		return
	}
	switch {
	case round.TeamAScore > round.TeamBScore:
		applyRoundDelta(m, round, "A", bonus)
	case round.TeamBScore > round.TeamAScore:
		applyRoundDelta(m, round, "B", bonus)
	default:
		split := bonus / 2
		applyRoundDelta(m, round, "A", split)
		applyRoundDelta(m, round, "B", split)
	}
}
