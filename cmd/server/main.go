package main

import (
	"log"
	"net/http"

	"github.com/joho/godotenv"
	"github.com/rs/cors"

	"github.com/famledger/famledger/internal/api"
	"github.com/famledger/famledger/internal/config"
	"github.com/famledger/famledger/internal/db"
	"github.com/famledger/famledger/internal/kv"
)

func main() {
	// Load environment variables
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables")
	}

	// Initialize configuration
	cfg := config.Load()

	// Initialize database connection
	database, err := db.Connect(cfg)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}

	// Initialize the key-value store. Token revocation and settings
	// degrade to process-local storage when Redis is unavailable.
	var kvStore kv.Store
	redisClient, err := db.ConnectRedis(cfg.Redis)
	if err != nil {
		log.Printf("Warning: Failed to connect to Redis, using in-memory store: %v", err)
		kvStore = kv.NewMemory()
	} else {
		kvStore = kv.NewRedis(redisClient)
	}

	// Initialize router and WebSocket hub
	router, wsHub := api.SetupRouter(database, kvStore, cfg)
	go wsHub.Run()

	api.PrintRoutes(router)

	// Set up CORS
	corsMiddleware := cors.New(cors.Options{
		AllowedOrigins:   cfg.Server.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Content-Type", "Authorization"},
		AllowCredentials: true,
	})

	// Apply CORS middleware
	handler := corsMiddleware.Handler(router)

	// Start the server
	log.Printf("Server starting on port %s", cfg.Server.Port)
	log.Fatal(http.ListenAndServe(":"+cfg.Server.Port, handler))
}
