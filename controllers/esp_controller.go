package controllers

import (
	"encoding/json"
	"errors"
	"net/http"

	"dronearena_server/services"

	"github.com/gorilla/mux"
)

// ESPController handles device registry endpoints.
type ESPController struct {
	ESPService *services.ESPService
}

func NewESPController(service *services.ESPService) *ESPController {
	return &ESPController{ESPService: service}
}

func (ec *ESPController) HandleList(w http.ResponseWriter, r *http.Request) {
	devices, err := ec.ESPService.List(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"count":   len(devices),
		"data":    devices,
	})
}

func (ec *ESPController) HandleAvailable(w http.ResponseWriter, r *http.Request) {
	devices, err := ec.ESPService.Available(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"count":   len(devices),
		"data":    devices,
	})
}

// HandleRegister creates a device mapping from the admin panel.
func (ec *ESPController) HandleRegister(w http.ResponseWriter, r *http.Request) {
	var request struct {
		MacAddress string `json:"macAddress"`
		DroneID    string `json:"droneId"`
		Role       string `json:"role"`
		Nickname   string `json:"nickname"`
		DeviceType string `json:"deviceType"`
	}
	if err := json.NewDecoder(r.Body).Decode(&request); err != nil {
		writeBadRequest(w, "Invalid request body")
		return
	}
	if request.MacAddress == "" || request.DroneID == "" || request.Role == "" {
		writeBadRequest(w, "MAC address, Drone ID, and Role are required")
		return
	}
	device, err := ec.ESPService.Register(r.Context(), request.MacAddress, request.DroneID,
		request.Role, request.Nickname, request.DeviceType)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]interface{}{
		"success": true,
		"message": "ESP device registered successfully",
		"data":    device,
	})
}

// HandleAnnounce is device auto-discovery. An unregistered MAC is answered
// with registered:false, not an error, so boards can announce before an
// operator maps them.
func (ec *ESPController) HandleAnnounce(w http.ResponseWriter, r *http.Request) {
	mac := r.URL.Query().Get("mac")
	if mac == "" {
		writeBadRequest(w, "MAC address is required")
		return
	}
	device, err := ec.ESPService.Announce(r.Context(), mac)
	if errors.Is(err, services.ErrUnregisteredDevice) {
		writeJSON(w, http.StatusOK, map[string]interface{}{
			"success":    true,
			"registered": false,
			"message":    "ESP not registered. Please register via admin panel.",
			"macAddress": mac,
		})
		return
	}
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"success":    true,
		"registered": true,
		"data": map[string]interface{}{
			"droneId":    device.DroneID,
			"role":       device.Role,
			"macAddress": device.MacAddress,
			"nickname":   device.Nickname,
		},
	})
}

func (ec *ESPController) HandleHeartbeat(w http.ResponseWriter, r *http.Request) {
	var request struct {
		Mac       string `json:"mac"`
		IPAddress string `json:"ipAddress"`
	}
	if err := json.NewDecoder(r.Body).Decode(&request); err != nil {
		writeBadRequest(w, "Invalid request body")
		return
	}
	if request.Mac == "" {
		writeBadRequest(w, "MAC address is required")
		return
	}
	if err := ec.ESPService.Heartbeat(r.Context(), request.Mac, request.IPAddress); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"message": "Heartbeat received",
	})
}

// HandleWhoAmI lets a device query its own assignment.
func (ec *ESPController) HandleWhoAmI(w http.ResponseWriter, r *http.Request) {
	mac := r.URL.Query().Get("mac")
	if mac == "" {
		writeBadRequest(w, "MAC address is required")
		return
	}
	device, err := ec.ESPService.WhoAmI(r.Context(), mac)
	if errors.Is(err, services.ErrUnregisteredDevice) {
		writeJSON(w, http.StatusNotFound, map[string]interface{}{
			"success":    false,
			"registered": false,
			"message":    "ESP not registered or inactive",
		})
		return
	}
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"success":    true,
		"registered": true,
		"data": map[string]interface{}{
			"droneId":   device.DroneID,
			"role":      device.Role,
			"teamColor": device.TeamColor(),
			"nickname":  device.Nickname,
		},
	})
}

func (ec *ESPController) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	var request struct {
		DroneID    string `json:"droneId"`
		Role       string `json:"role"`
		Nickname   string `json:"nickname"`
		DeviceType string `json:"deviceType"`
		IsActive   *bool  `json:"isActive"`
	}
	if err := json.NewDecoder(r.Body).Decode(&request); err != nil {
		writeBadRequest(w, "Invalid request body")
		return
	}
	device, err := ec.ESPService.Update(r.Context(), mux.Vars(r)["macAddress"],
		request.DroneID, request.Role, request.Nickname, request.DeviceType, request.IsActive)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"message": "ESP device updated successfully",
		"data":    device,
	})
}

func (ec *ESPController) HandleDelete(w http.ResponseWriter, r *http.Request) {
	if err := ec.ESPService.Delete(r.Context(), mux.Vars(r)["macAddress"]); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"message": "ESP device deleted successfully",
	})
}

// HandleCheckOffline sweeps stale devices to offline.
func (ec *ESPController) HandleCheckOffline(w http.ResponseWriter, r *http.Request) {
	marked, err := ec.ESPService.CheckOffline(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"marked":  marked,
	})
}
