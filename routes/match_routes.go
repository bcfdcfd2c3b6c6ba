package routes

import (
	"dronearena_server/controllers"
	"dronearena_server/services"

	"github.com/gorilla/mux"
)

func RegisterMatchRoutes(r *mux.Router, matchService *services.MatchService) {
	controller := controllers.NewMatchController(matchService)

	matchRouter := r.PathPrefix("/api/matches").Subrouter()

	// Public
	matchRouter.HandleFunc("", controller.HandleListMatches).Methods("GET")
	matchRouter.HandleFunc("/current", controller.HandleGetCurrentMatch).Methods("GET")
	matchRouter.HandleFunc("/{matchId}", controller.HandleGetMatch).Methods("GET")

	// Operator
	matchRouter.HandleFunc("", RequireOperator(controller.HandleCreateMatch)).Methods("POST")
	matchRouter.HandleFunc("/{matchId}", RequireOperator(controller.HandleDeleteMatch)).Methods("DELETE")
	matchRouter.HandleFunc("/{matchId}/start-round", RequireOperator(controller.HandleStartRound)).Methods("PUT")
	matchRouter.HandleFunc("/{matchId}/update-score", RequireOperator(controller.HandleUpdateScore)).Methods("PUT")
	matchRouter.HandleFunc("/{matchId}/end-round", RequireOperator(controller.HandleEndRound)).Methods("PUT")
	matchRouter.HandleFunc("/{matchId}/complete", RequireOperator(controller.HandleCompleteMatch)).Methods("PUT")
	matchRouter.HandleFunc("/{matchId}/set-current", RequireOperator(controller.HandleSetCurrentMatch)).Methods("PUT")
	matchRouter.HandleFunc("/{matchId}/register-drones", RequireOperator(controller.HandleRegisterDrones)).Methods("POST")
	matchRouter.HandleFunc("/{matchId}/rounds/{roundNumber}/pause", RequireOperator(controller.HandlePauseTimer)).Methods("PUT")
	matchRouter.HandleFunc("/{matchId}/rounds/{roundNumber}/resume", RequireOperator(controller.HandleResumeTimer)).Methods("PUT")
	matchRouter.HandleFunc("/{matchId}/rounds/{roundNumber}/analyze", RequireOperator(controller.HandleAnalyzeRound)).Methods("POST")
}
