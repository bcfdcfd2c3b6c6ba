package main

import (
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"os"

	"dronearena_server/routes"
	"dronearena_server/services"
	"dronearena_server/socket"

	"github.com/gorilla/mux"
	"github.com/rs/cors"
)

func main() {
	// Initialize DynamoDB client and service
	log.Println("Initializing DynamoDB client...")
	dynamoClient := services.InitializeDynamoDBClient()
	dynamoService := &services.DynamoService{Client: dynamoClient}
	log.Println("DynamoDB client initialized.")

	// Socket.IO server for realtime match rooms
	socketServer := socket.NewSocketServer()
	go func() {
		if err := socketServer.Serve(); err != nil {
			log.Printf("❌ Socket.IO serve error: %v", err)
		}
	}()
	defer socketServer.Close()
	emitter := &socket.Emitter{Server: socketServer}

	// External collaborators
	analysisService := services.NewAnalysisService(os.Getenv("ML_SERVICE_URL"))
	mqttService := services.NewMQTTService(os.Getenv("MQTT_BROKER"))

	serverURL := os.Getenv("SERVER_IP")
	if serverURL == "" {
		serverURL = "http://localhost:8080"
	}

	// Domain services
	matchService := &services.MatchService{
		Dynamo:    dynamoService,
		Analysis:  analysisService,
		Emitter:   emitter,
		Commander: mqttService,
		ServerURL: serverURL,
	}
	espService := &services.ESPService{Dynamo: dynamoService}
	telemetryService := &services.TelemetryService{
		Dynamo:   dynamoService,
		Matches:  matchService,
		Devices:  espService,
		Throttle: services.NewBroadcastThrottler(emitter, 0),
	}

	// Set up the server port
	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}
	log.Printf("Using server port: %s\n", port)

	// Initialize the router
	r := mux.NewRouter()
	r.Handle("/socket.io/", socketServer)

	// Register a welcome route
	r.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprintln(w, "🚀 Drone Arena API is running!")
	}).Methods("GET")

	// Register a health check endpoint
	r.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		response := map[string]string{"status": "healthy"}
		json.NewEncoder(w).Encode(response)
	}).Methods("GET")

	// Register routes
	routes.RegisterMatchRoutes(r, matchService)
	routes.RegisterTelemetryRoutes(r, telemetryService)
	routes.RegisterESPRoutes(r, espService)

	// Add CORS middleware
	corsHandler := cors.New(cors.Options{
		AllowedOrigins:   []string{"*"}, // Adjust for specific domains if needed
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Content-Type", "Authorization"},
		AllowCredentials: true,
	}).Handler(r)

	// Start the HTTP server
	log.Printf("Starting server on port %s...\n", port)
	log.Fatal(http.ListenAndServe(":"+port, corsHandler))
}
