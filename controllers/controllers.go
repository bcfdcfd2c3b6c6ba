package controllers

import (
	"encoding/json"
	"errors"
	"net/http"

	"dronearena_server/services"
)

// writeJSON writes a JSON response with the given status code.
func writeJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(payload)
}

// writeError maps service errors onto the `{success:false, message}` shape
// the operator panel expects.
func writeError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, services.ErrMatchNotFound),
		errors.Is(err, services.ErrRoundNotFound),
		errors.Is(err, services.ErrDeviceNotFound),
		errors.Is(err, services.ErrNoCurrentMatch):
		status = http.StatusNotFound
	case errors.Is(err, services.ErrMatchCompleted),
		errors.Is(err, services.ErrRoundAlreadyActive),
		errors.Is(err, services.ErrNoRoundsRemaining),
		errors.Is(err, services.ErrNoActiveRound),
		errors.Is(err, services.ErrRoundsIncomplete),
		errors.Is(err, services.ErrInvalidTeam),
		errors.Is(err, services.ErrTimerNotRunning),
		errors.Is(err, services.ErrTimerNotPaused),
		errors.Is(err, services.ErrDeviceExists),
		errors.Is(err, services.ErrDroneAssigned):
		status = http.StatusBadRequest
	case errors.Is(err, services.ErrVersionConflict):
		status = http.StatusConflict
	}
	writeJSON(w, status, map[string]interface{}{
		"success": false,
		"message": err.Error(),
	})
}

// writeBadRequest reports a malformed request body or missing parameter.
func writeBadRequest(w http.ResponseWriter, message string) {
	writeJSON(w, http.StatusBadRequest, map[string]interface{}{
		"success": false,
		"message": message,
	})
}
