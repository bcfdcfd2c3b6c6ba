package routes

import (
	"dronearena_server/controllers"
	"dronearena_server/services"

	"github.com/gorilla/mux"
)

func RegisterESPRoutes(r *mux.Router, espService *services.ESPService) {
	controller := controllers.NewESPController(espService)

	espRouter := r.PathPrefix("/api/esp").Subrouter()

	// Device-facing
	espRouter.HandleFunc("/announce", controller.HandleAnnounce).Methods("GET")
	espRouter.HandleFunc("/heartbeat", controller.HandleHeartbeat).Methods("POST")
	espRouter.HandleFunc("/whoami", controller.HandleWhoAmI).Methods("GET")

	// Admin panel
	espRouter.HandleFunc("", controller.HandleList).Methods("GET")
	espRouter.HandleFunc("/available", controller.HandleAvailable).Methods("GET")
	espRouter.HandleFunc("/register", RequireOperator(controller.HandleRegister)).Methods("POST")
	espRouter.HandleFunc("/check-offline", RequireOperator(controller.HandleCheckOffline)).Methods("POST")
	espRouter.HandleFunc("/{macAddress}", RequireOperator(controller.HandleUpdate)).Methods("PUT")
	espRouter.HandleFunc("/{macAddress}", RequireOperator(controller.HandleDelete)).Methods("DELETE")
}
