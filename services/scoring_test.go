package services

import (
	"testing"

	"dronearena_server/models"
)

func TestScoreSample(t *testing.T) {
	tests := []struct {
		name     string
		sample   models.TelemetryLog
		expected int
	}{
		{"all bonuses", models.TelemetryLog{X: 25, Y: 25, Z: 3, Pitch: 0.1, Roll: 0.1}, 10},
		{"out of bounds on x", models.TelemetryLog{X: 60, Y: 25, Z: 3, Pitch: 0.1, Roll: 0.1}, 5},
		{"out of bounds on y", models.TelemetryLog{X: 25, Y: -1, Z: 3, Pitch: 0.1, Roll: 0.1}, 5},
		{"too low", models.TelemetryLog{X: 25, Y: 25, Z: 0.5, Pitch: 0.1, Roll: 0.1}, 8},
		{"too high", models.TelemetryLog{X: 25, Y: 25, Z: 6, Pitch: 0.1, Roll: 0.1}, 8},
		{"unstable pitch", models.TelemetryLog{X: 25, Y: 25, Z: 3, Pitch: 0.5, Roll: 0.1}, 7},
		{"unstable roll", models.TelemetryLog{X: 25, Y: 25, Z: 3, Pitch: 0.1, Roll: -0.4}, 7},
		{"boundary positions count", models.TelemetryLog{X: 0, Y: 50, Z: 1, Pitch: 0, Roll: 0}, 10},
		{"everything off", models.TelemetryLog{X: -5, Y: 60, Z: 10, Pitch: 1, Roll: 1}, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ScoreSample(tt.sample); got != tt.expected {
				t.Errorf("expected %d points, got %d", tt.expected, got)
			}
		})
	}
}

func TestApplyRoundDeltaClampsAtZero(t *testing.T) {
	m := &models.Match{FinalScoreA: 5, FinalScoreB: 3}
	r := &models.Round{TeamAScore: 5, TeamBScore: 3}

	applyRoundDelta(m, r, "A", -10)
	if r.TeamAScore != 0 || m.FinalScoreA != 0 {
		t.Errorf("team A totals should clamp at 0, got round=%d match=%d", r.TeamAScore, m.FinalScoreA)
	}

	applyRoundDelta(m, r, "B", 4)
	applyRoundDelta(m, r, "B", -100)
	if r.TeamBScore != 0 || m.FinalScoreB != 0 {
		t.Errorf("team B totals should clamp at 0, got round=%d match=%d", r.TeamBScore, m.FinalScoreB)
	}

	applyRoundDelta(m, r, "A", 7)
	if r.TeamAScore != 7 || m.FinalScoreA != 7 {
		t.Errorf("positive delta should apply, got round=%d match=%d", r.TeamAScore, m.FinalScoreA)
	}
}

func TestApplyBonusTieBreak(t *testing.T) {
	tests := []struct {
		name           string
		scoreA, scoreB int
		bonus          int
		wantA, wantB   int
	}{
		{"team A leads", 40, 30, 6, 46, 30},
		{"team B leads", 10, 25, 5, 10, 30},
		{"tie splits evenly", 40, 40, 6, 43, 43},
		{"tie splits odd bonus down", 40, 40, 7, 43, 43},
		{"zero bonus is a no-op", 40, 30, 0, 40, 30},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := &models.Match{FinalScoreA: tt.scoreA, FinalScoreB: tt.scoreB}
			r := &models.Round{TeamAScore: tt.scoreA, TeamBScore: tt.scoreB}
			applyBonus(m, r, tt.bonus)
			if r.TeamAScore != tt.wantA || r.TeamBScore != tt.wantB {
				t.Errorf("round scores: expected %d/%d, got %d/%d", tt.wantA, tt.wantB, r.TeamAScore, r.TeamBScore)
			}
			if m.FinalScoreA != tt.wantA || m.FinalScoreB != tt.wantB {
				t.Errorf("match scores: expected %d/%d, got %d/%d", tt.wantA, tt.wantB, m.FinalScoreA, m.FinalScoreB)
			}
		})
	}
}
