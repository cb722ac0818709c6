package main

import (
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"os"

	"collabmatch_server/routes"
	"collabmatch_server/services"
	"collabmatch_server/socket"

	"github.com/gorilla/mux"
	"github.com/joho/godotenv"
	"github.com/rs/cors"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, relying on environment")
	}

	// Initialize DynamoDB client and service
	log.Println("Initializing DynamoDB client...")
	dynamoClient := services.InitializeDynamoDBClient()
	dynamoService := &services.DynamoService{Client: dynamoClient}
	log.Println("DynamoDB client initialized.")

	telemetry := services.NewTelemetryService()
	defer telemetry.Close()

	// Initialize services. Swipe/match/conversation reference each
	// other (a like evaluates a match, a match bootstraps its
	// conversation, a message flips the match flag), so the cycle is
	// closed by field assignment after construction.
	profileService := &services.ProfileService{Dynamo: dynamoService}
	swipeService := &services.SwipeService{Dynamo: dynamoService, Telemetry: telemetry}
	conversationService := &services.ConversationService{Dynamo: dynamoService, Telemetry: telemetry}
	matchService := &services.MatchService{
		Dynamo:        dynamoService,
		Ledger:        swipeService,
		Conversations: conversationService,
		Telemetry:     telemetry,
	}
	swipeService.Matches = matchService
	conversationService.Matches = matchService

	discoveryService := &services.DiscoveryService{
		Dynamo:   dynamoService,
		Profiles: profileService,
		Ledger:   swipeService,
	}
	featuredService := &services.FeaturedService{Dynamo: dynamoService, Telemetry: telemetry}
	mediaService := services.NewMediaService()

	// Set up the server port
	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}
	log.Printf("Using server port: %s\n", port)

	// Initialize the router
	r := mux.NewRouter()

	// Register a welcome route
	r.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprintln(w, "Welcome to CollabMatch")
	}).Methods("GET")

	// Register a health check endpoint
	r.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]string{"status": "healthy"})
	}).Methods("GET")

	// Register routes
	routes.RegisterProfileRoutes(r, profileService)
	routes.RegisterSwipeRoutes(r, swipeService)
	routes.RegisterMatchRoutes(r, matchService)
	routes.RegisterChatRoutes(r, conversationService)
	routes.RegisterDiscoveryRoutes(r, discoveryService)
	routes.RegisterFeaturedRoutes(r, featuredService)
	routes.RegisterMediaRoutes(r, mediaService)

	// Live conversation updates
	socketServer := socket.NewSocketServer(conversationService)
	go func() {
		if err := socketServer.IO.Serve(); err != nil {
			log.Printf("socket.io serve error: %v", err)
		}
	}()
	defer socketServer.IO.Close()
	r.Handle("/socket.io/", socketServer.IO)

	// Add CORS middleware
	corsHandler := cors.New(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Content-Type", "Authorization"},
		AllowCredentials: true,
	}).Handler(r)

	// Start the HTTP server
	log.Printf("Starting server on port %s...\n", port)
	log.Fatal(http.ListenAndServe(":"+port, corsHandler))
}
