package services

import (
	"dronearena_server/models"
)

// Arena scoring constants. The field is a 50x50m square; the acceptable
// flight band is 1-5m; pitch/roll under 0.3 rad counts as stable.
const (
	ArenaMinX = 0.0
	ArenaMaxX = 50.0
	ArenaMinY = 0.0
	ArenaMaxY = 50.0

	FlightBandMinZ = 1.0
	FlightBandMaxZ = 5.0

	StableTiltLimit = 0.3

	PointsInBounds     = 5
	PointsGoodHeight   = 2
	PointsStableFlight = 3
)

// ScoreSample computes the points one sample earns. Bonuses are independent
// and additive; a sample never scores negative.
func ScoreSample(s models.TelemetryLog) int {
	points := 0

	if s.X >= ArenaMinX && s.X <= ArenaMaxX && s.Y >= ArenaMinY && s.Y <= ArenaMaxY {
		points += PointsInBounds
	}
	if s.Z >= FlightBandMinZ && s.Z <= FlightBandMaxZ {
		points += PointsGoodHeight
	}
	if abs(s.Pitch) < StableTiltLimit && abs(s.Roll) < StableTiltLimit {
		points += PointsStableFlight
	}

	return points
}

// applyRoundDelta adds points (possibly negative) to one team's round and
// match totals, flooring both at zero.
func applyRoundDelta(m *models.Match, r *models.Round, team string, points int) {
	switch team {
	case "A":
		r.TeamAScore = clampScore(r.TeamAScore + points)
		m.FinalScoreA = clampScore(m.FinalScoreA + points)
	case "B":
		r.TeamBScore = clampScore(r.TeamBScore + points)
		m.FinalScoreB = clampScore(m.FinalScoreB + points)
	}
}

func clampScore(v int) int {
	if v < 0 {
		return 0
	}
	return v
}

func abs(v float64) float64 {
	if v < 0 {
		return -v
	}
	return v
}
