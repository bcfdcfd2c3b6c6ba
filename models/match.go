package models

// Match statuses
const (
	MatchScheduled  = "scheduled"
	MatchInProgress = "in_progress"
	MatchCompleted  = "completed"
)

// Round statuses
const (
	RoundPending    = "pending"
	RoundInProgress = "in_progress"
	RoundCompleted  = "completed"
)

// Round timer statuses
const (
	TimerNotStarted = "not_started"
	TimerRunning    = "running"
	TimerPaused     = "paused"
	TimerEnded      = "ended"
)

// RegisteredDrone is one drone entered into a round.
type RegisteredDrone struct {
	DroneID string `dynamodbav:"droneId" json:"droneId"`
	Team    string `dynamodbav:"team" json:"team"` // team id, must match teamA or teamB
	Role    string `dynamodbav:"role" json:"role"`
	Pilot   string `dynamodbav:"pilot" json:"pilot"`
}

// RoundAnalysis holds the ML stability result for a closed round. Error is set
// when the ML service was unreachable or there was nothing to analyze.
type RoundAnalysis struct {
	StabilityScore float64            `dynamodbav:"stabilityScore" json:"stabilityScore"`
	BonusPoints    int                `dynamodbav:"bonusPoints" json:"bonusPoints"`
	FlightQuality  string             `dynamodbav:"flightQuality,omitempty" json:"flightQuality,omitempty"`
	Details        map[string]float64 `dynamodbav:"details,omitempty" json:"details,omitempty"`
	Error          string             `dynamodbav:"error,omitempty" json:"error,omitempty"`
	Message        string             `dynamodbav:"message,omitempty" json:"message,omitempty"`
}

// Round is a single timed segment of a match.
type Round struct {
	RoundNumber      int               `dynamodbav:"roundNumber" json:"roundNumber"`
	RegisteredDrones []RegisteredDrone `dynamodbav:"registeredDrones" json:"registeredDrones"`
	TeamAScore       int               `dynamodbav:"teamAScore" json:"teamAScore"`
	TeamBScore       int               `dynamodbav:"teamBScore" json:"teamBScore"`
	Status           string            `dynamodbav:"status" json:"status"`
	StartTime        string            `dynamodbav:"startTime,omitempty" json:"startTime,omitempty"`
	EndTime          string            `dynamodbav:"endTime,omitempty" json:"endTime,omitempty"`
	PausedAt         string            `dynamodbav:"pausedAt,omitempty" json:"pausedAt,omitempty"`
	ElapsedTime      int               `dynamodbav:"elapsedTime" json:"elapsedTime"` // seconds
	TimerStatus      string            `dynamodbav:"timerStatus" json:"timerStatus"`
	MLAnalysis       *RoundAnalysis    `dynamodbav:"mlAnalysis,omitempty" json:"mlAnalysis,omitempty"`
}

// Match is one fixture between two teams. Rounds are pre-created in pending
// state; CurrentRound is 0 until the first round starts. Version guards
// concurrent writers (conditional puts).
type Match struct {
	MatchID        string  `dynamodbav:"matchId" json:"matchId"`
	Tournament     string  `dynamodbav:"tournament,omitempty" json:"tournament,omitempty"`
	TeamAID        string  `dynamodbav:"teamAId" json:"teamAId"`
	TeamBID        string  `dynamodbav:"teamBId" json:"teamBId"`
	TeamAName      string  `dynamodbav:"teamAName,omitempty" json:"teamAName,omitempty"`
	TeamBName      string  `dynamodbav:"teamBName,omitempty" json:"teamBName,omitempty"`
	Rounds         []Round `dynamodbav:"rounds" json:"rounds"`
	CurrentRound   int     `dynamodbav:"currentRound" json:"currentRound"`
	FinalScoreA    int     `dynamodbav:"finalScoreA" json:"finalScoreA"`
	FinalScoreB    int     `dynamodbav:"finalScoreB" json:"finalScoreB"`
	Winner         string  `dynamodbav:"winner,omitempty" json:"winner,omitempty"`
	Status         string  `dynamodbav:"status" json:"status"`
	ScheduledTime  string  `dynamodbav:"scheduledTime" json:"scheduledTime"`
	CompletedAt    string  `dynamodbav:"completedAt,omitempty" json:"completedAt,omitempty"`
	IsCurrentMatch bool    `dynamodbav:"isCurrentMatch" json:"isCurrentMatch"`
	RoundDuration  int     `dynamodbav:"roundDuration" json:"roundDuration"` // minutes
	Version        int64   `dynamodbav:"version" json:"version"`
}

// ActiveRound returns the in-progress round, or nil.
func (m *Match) ActiveRound() *Round {
	for i := range m.Rounds {
		if m.Rounds[i].Status == RoundInProgress {
			return &m.Rounds[i]
		}
	}
	return nil
}

// RoundByNumber returns the round with the given number, or nil.
func (m *Match) RoundByNumber(n int) *Round {
	for i := range m.Rounds {
		if m.Rounds[i].RoundNumber == n {
			return &m.Rounds[i]
		}
	}
	return nil
}

// LastPlayedRound returns the active round, or the highest-numbered completed
// one when nothing is running. Nil before the first round starts.
func (m *Match) LastPlayedRound() *Round {
	if r := m.ActiveRound(); r != nil {
		return r
	}
	var last *Round
	for i := range m.Rounds {
		r := &m.Rounds[i]
		if r.Status == RoundCompleted && (last == nil || r.RoundNumber > last.RoundNumber) {
			last = r
		}
	}
	return last
}

// MatchesTable is the DynamoDB table name for matches
const MatchesTable = "Matches"
