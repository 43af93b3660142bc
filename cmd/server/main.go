package main

import (
	"fmt"
	"log"
	"net/http"

	"github.com/eventhub/event-management-api/internal/auth"
	"github.com/eventhub/event-management-api/internal/config"
	"github.com/eventhub/event-management-api/internal/database"
	"github.com/eventhub/event-management-api/internal/handlers"
	"github.com/eventhub/event-management-api/internal/notifier"
	"github.com/go-chi/chi/v5"
)

func main() {
	// Load Configuration
	cfg := config.LoadConfig()

	// Connect to Database
	db := database.Connect(cfg)

	// Initialize Handlers
	var eventNotifier notifier.Notifier
	discordNotifier, err := notifier.NewDiscordNotifier(cfg)
	if err != nil {
		log.Printf("Discord notifier not initialized: %v", err)
	} else {
		eventNotifier = discordNotifier
	}

	authHandler := auth.NewAuthHandler(cfg, db)
	eventHandler := handlers.NewEventHandler(db, eventNotifier, authHandler)
	registrationHandler := handlers.NewRegistrationHandler(db, eventNotifier, authHandler)

	// Initialize Router
	r := chi.NewRouter()

	// Register Routes
	handlers.RegisterRoutes(r, authHandler, eventHandler, registrationHandler)

	// Start Server
	log.Printf("Starting server on port %s", cfg.Port)
	if err := http.ListenAndServe(fmt.Sprintf(":%s", cfg.Port), r); err != nil {
		log.Fatalf("Failed to start server: %v", err)
	}
}
