package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"dronearena_server/models"
)

// AnalysisTimeout bounds the external stability-scoring call. On expiry the
// call counts as failed; a re-run is operator-triggered, never automatic.
const AnalysisTimeout = 10 * time.Second

// AnalysisSample is one flattened telemetry point sent to the ML service.
type AnalysisSample struct {
	DroneID   string  `json:"droneId"`
	TeamID    string  `json:"teamId"`
	X         float64 `json:"x"`
	Y         float64 `json:"y"`
	Z         float64 `json:"z"`
	Pitch     float64 `json:"pitch"`
	Roll      float64 `json:"roll"`
	Yaw       float64 `json:"yaw"`
	Timestamp int64   `json:"timestamp"`
}

// AnalysisService talks to the external stability-analysis service. The
// service itself is an opaque scored oracle; only the contract lives here.
type AnalysisService struct {
	BaseURL string
	Client  *http.Client
}

func NewAnalysisService(baseURL string) *AnalysisService {
	if baseURL == "" {
		baseURL = "http://localhost:5001"
	}
	return &AnalysisService{
		BaseURL: baseURL,
		Client:  &http.Client{},
	}
}

type analysisRequest struct {
	MatchID     string           `json:"matchId"`
	RoundNumber int              `json:"roundNumber"`
	Telemetry   []AnalysisSample `json:"telemetry"`
}

type analysisResponse struct {
	StabilityScore float64            `json:"stabilityScore"`
	BonusPoints    int                `json:"bonusPoints"`
	FlightQuality  string             `json:"flightQuality"`
	Details        map[string]float64 `json:"details"`
}

// AnalyzeStability submits a round's telemetry batch and returns the scored
// result. Absent response fields default to zero/neutral.
func (as *AnalysisService) AnalyzeStability(ctx context.Context, matchID string, roundNumber int, telemetry []AnalysisSample) (*models.RoundAnalysis, error) {
	body, err := json.Marshal(analysisRequest{
		MatchID:     matchID,
		RoundNumber: roundNumber,
		Telemetry:   telemetry,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal analysis request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, as.BaseURL+"/analyze-stability", bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := as.Client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("ML service returned status %d", resp.StatusCode)
	}

	var parsed analysisResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return nil, fmt.Errorf("failed to decode ML response: %w", err)
	}
	if parsed.FlightQuality == "" {
		parsed.FlightQuality = "good"
	}
	return &models.RoundAnalysis{
		StabilityScore: parsed.StabilityScore,
		BonusPoints:    parsed.BonusPoints,
		FlightQuality:  parsed.FlightQuality,
		Details:        parsed.Details,
	}, nil
}
