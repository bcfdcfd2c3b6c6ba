package controllers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"dronearena_server/models"
	"dronearena_server/services"

	"github.com/gorilla/mux"
)

// MatchController handles operator match/round endpoints.
type MatchController struct {
	MatchService *services.MatchService
}

func NewMatchController(service *services.MatchService) *MatchController {
	return &MatchController{MatchService: service}
}

func (mc *MatchController) HandleCreateMatch(w http.ResponseWriter, r *http.Request) {
	var in services.CreateMatchInput
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		writeBadRequest(w, "Invalid request body")
		return
	}
	match, err := mc.MatchService.CreateMatch(r.Context(), in)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]interface{}{
		"success": true,
		"data":    match,
	})
}

func (mc *MatchController) HandleListMatches(w http.ResponseWriter, r *http.Request) {
	matches, err := mc.MatchService.ListMatches(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"count":   len(matches),
		"data":    matches,
	})
}

func (mc *MatchController) HandleGetMatch(w http.ResponseWriter, r *http.Request) {
	match, err := mc.MatchService.GetMatch(r.Context(), mux.Vars(r)["matchId"])
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"data":    match,
	})
}

func (mc *MatchController) HandleDeleteMatch(w http.ResponseWriter, r *http.Request) {
	if err := mc.MatchService.DeleteMatch(r.Context(), mux.Vars(r)["matchId"]); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"message": "Match deleted",
	})
}

// HandleStartRound activates the next pending round.
func (mc *MatchController) HandleStartRound(w http.ResponseWriter, r *http.Request) {
	match, err := mc.MatchService.StartNextRound(r.Context(), mux.Vars(r)["matchId"])
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"message": "Round " + strconv.Itoa(match.CurrentRound) + " started",
		"data":    match,
	})
}

// HandleUpdateScore applies a signed operator increment to one team.
func (mc *MatchController) HandleUpdateScore(w http.ResponseWriter, r *http.Request) {
	var request struct {
		Team      string `json:"team"`
		Increment int    `json:"increment"`
	}
	if err := json.NewDecoder(r.Body).Decode(&request); err != nil {
		writeBadRequest(w, "Invalid request body")
		return
	}
	match, err := mc.MatchService.UpdateScore(r.Context(), mux.Vars(r)["matchId"], request.Team, request.Increment)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"data":    match,
	})
}

// HandleEndRound closes the active round; stability analysis follows in the
// background and never fails this request.
func (mc *MatchController) HandleEndRound(w http.ResponseWriter, r *http.Request) {
	match, err := mc.MatchService.EndActiveRound(r.Context(), mux.Vars(r)["matchId"])
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"message": "Round ended",
		"data":    match,
	})
}

func (mc *MatchController) HandleCompleteMatch(w http.ResponseWriter, r *http.Request) {
	match, err := mc.MatchService.CompleteMatch(r.Context(), mux.Vars(r)["matchId"])
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"message": "Match completed",
		"data": map[string]interface{}{
			"matchId":     match.MatchID,
			"status":      match.Status,
			"winner":      match.Winner,
			"finalScoreA": match.FinalScoreA,
			"finalScoreB": match.FinalScoreB,
			"completedAt": match.CompletedAt,
		},
	})
}

// HandleRegisterDrones replaces a round's registered-drone set.
func (mc *MatchController) HandleRegisterDrones(w http.ResponseWriter, r *http.Request) {
	var request struct {
		RoundNumber int                      `json:"roundNumber"`
		Drones      []models.RegisteredDrone `json:"drones"`
	}
	if err := json.NewDecoder(r.Body).Decode(&request); err != nil {
		writeBadRequest(w, "Invalid request body")
		return
	}
	match, err := mc.MatchService.RegisterDrones(r.Context(), mux.Vars(r)["matchId"], request.RoundNumber, request.Drones)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"message": "Drones registered successfully",
		"data":    match,
	})
}

func (mc *MatchController) HandlePauseTimer(w http.ResponseWriter, r *http.Request) {
	mc.handleTimer(w, r, mc.MatchService.PauseTimer)
}

func (mc *MatchController) HandleResumeTimer(w http.ResponseWriter, r *http.Request) {
	mc.handleTimer(w, r, mc.MatchService.ResumeTimer)
}

func (mc *MatchController) handleTimer(w http.ResponseWriter, r *http.Request,
	op func(ctx context.Context, matchID string, roundNumber int) (*models.Match, error)) {
	vars := mux.Vars(r)
	roundNumber, err := strconv.Atoi(vars["roundNumber"])
	if err != nil {
		writeBadRequest(w, "Invalid round number")
		return
	}
	match, err := op(r.Context(), vars["matchId"], roundNumber)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"data":    match,
	})
}

func (mc *MatchController) HandleSetCurrentMatch(w http.ResponseWriter, r *http.Request) {
	match, err := mc.MatchService.SetCurrentMatch(r.Context(), mux.Vars(r)["matchId"])
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"message": "Current match set successfully",
		"data":    match,
	})
}

func (mc *MatchController) HandleGetCurrentMatch(w http.ResponseWriter, r *http.Request) {
	match, err := mc.MatchService.GetCurrentMatch(r.Context())
	if err != nil {
		if errors.Is(err, services.ErrNoCurrentMatch) {
			writeJSON(w, http.StatusNotFound, map[string]interface{}{
				"success": false,
				"message": "No current match set",
			})
			return
		}
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"data":    match,
	})
}

// HandleAnalyzeRound is the operator re-run of round analysis.
func (mc *MatchController) HandleAnalyzeRound(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	roundNumber, err := strconv.Atoi(vars["roundNumber"])
	if err != nil {
		writeBadRequest(w, "Invalid round number")
		return
	}
	analysis, err := mc.MatchService.AnalyzeClosedRound(r.Context(), vars["matchId"], roundNumber)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"data":    analysis,
	})
}
