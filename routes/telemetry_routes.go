package routes

import (
	"dronearena_server/controllers"
	"dronearena_server/services"

	"github.com/gorilla/mux"
)

func RegisterTelemetryRoutes(r *mux.Router, telemetryService *services.TelemetryService) {
	controller := controllers.NewTelemetryController(telemetryService)

	telemetryRouter := r.PathPrefix("/api/telemetry").Subrouter()

	// Device-facing: never an error status for missing context
	telemetryRouter.HandleFunc("", controller.HandleReceiveTelemetry).Methods("POST")
	telemetryRouter.HandleFunc("/receive", controller.HandleReceiveTelemetry).Methods("POST")
	telemetryRouter.HandleFunc("/heartbeat", controller.HandleHeartbeat).Methods("POST")

	// Viewer-facing
	telemetryRouter.HandleFunc("/match/{matchId}", controller.HandleGetMatchLogs).Methods("GET")
	telemetryRouter.HandleFunc("/match/{matchId}/latest", controller.HandleGetLatest).Methods("GET")

	// Testing helper
	telemetryRouter.HandleFunc("/match/{matchId}", RequireOperator(controller.HandleClearMatchLogs)).Methods("DELETE")
}
