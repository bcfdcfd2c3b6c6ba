package controllers

import (
	"encoding/json"
	"net/http"
	"strconv"

	"dronearena_server/models"
	"dronearena_server/services"
	"dronearena_server/utils"

	"github.com/gorilla/mux"
)

// TelemetryController handles the device-facing ingestion endpoints.
type TelemetryController struct {
	TelemetryService *services.TelemetryService
}

func NewTelemetryController(service *services.TelemetryService) *TelemetryController {
	return &TelemetryController{TelemetryService: service}
}

// HandleReceiveTelemetry ingests one sample. Two payload shapes are accepted:
// explicit `{droneId, matchId, roundNumber, teamId, x..battery}` and device
// mode `{macAddress, droneId, sensorData:{...}}`. Missing context never
// produces an error status; the device cannot react to one anyway.
func (tc *TelemetryController) HandleReceiveTelemetry(w http.ResponseWriter, r *http.Request) {
	var payload map[string]interface{}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		writeBadRequest(w, "Invalid request body")
		return
	}

	fields := payload
	if sensor := utils.ExtractMap(payload, "sensorData"); sensor != nil {
		fields = sensor
	}

	in := services.IngestInput{
		MacAddress:  utils.ExtractString(payload, "macAddress"),
		DroneID:     utils.ExtractString(payload, "droneId"),
		MatchID:     utils.ExtractString(payload, "matchId"),
		RoundNumber: utils.ExtractInt(payload, "roundNumber", 0),
		TeamID:      utils.ExtractString(payload, "teamId"),
		Sample: models.TelemetryLog{
			Timestamp: int64(utils.ExtractNumber(fields, "timestamp", 0)),
			X:         utils.ExtractNumber(fields, "x", 0),
			Y:         utils.ExtractNumber(fields, "y", 0),
			Z:         utils.ExtractNumber(fields, "z", 0),
			Pitch:     utils.ExtractNumber(fields, "pitch", 0),
			Roll:      utils.ExtractNumber(fields, "roll", 0),
			Yaw:       utils.ExtractNumber(fields, "yaw", 0),
			Battery:   utils.ExtractNumber(fields, "battery", 100),
		},
	}
	if in.MacAddress == "" && in.DroneID == "" {
		writeBadRequest(w, "droneId or macAddress is required")
		return
	}

	result, err := tc.TelemetryService.Ingest(r.Context(), in)
	if err != nil {
		writeError(w, err)
		return
	}
	if !result.Accepted {
		writeJSON(w, http.StatusOK, map[string]interface{}{
			"success": true,
			"ignored": true,
		})
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"success":   true,
		"points":    result.Points,
		"totalLogs": result.TotalLogs,
	})
}

// HandleHeartbeat acknowledges a device keep-alive without touching state.
func (tc *TelemetryController) HandleHeartbeat(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"message": "Heartbeat received",
	})
}

// HandleGetMatchLogs returns telemetry records for a match, filterable by
// roundNumber, teamId and droneId query params.
func (tc *TelemetryController) HandleGetMatchLogs(w http.ResponseWriter, r *http.Request) {
	matchID := mux.Vars(r)["matchId"]
	roundNumber, _ := strconv.Atoi(r.URL.Query().Get("roundNumber"))

	records, err := tc.TelemetryService.GetMatchLogs(r.Context(), matchID, roundNumber,
		r.URL.Query().Get("teamId"), r.URL.Query().Get("droneId"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"count":   len(records),
		"data":    records,
	})
}

// HandleGetLatest returns each drone's newest position for the current
// round, for the 3D viewer.
func (tc *TelemetryController) HandleGetLatest(w http.ResponseWriter, r *http.Request) {
	matchID := mux.Vars(r)["matchId"]
	currentRound, records, err := tc.TelemetryService.LatestPositions(r.Context(), matchID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"success":      true,
		"currentRound": currentRound,
		"data":         records,
	})
}

// HandleClearMatchLogs deletes a match's telemetry. Testing helper.
func (tc *TelemetryController) HandleClearMatchLogs(w http.ResponseWriter, r *http.Request) {
	matchID := mux.Vars(r)["matchId"]
	deleted, err := tc.TelemetryService.ClearMatchLogs(r.Context(), matchID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"message": "Deleted " + strconv.Itoa(deleted) + " log documents",
	})
}
