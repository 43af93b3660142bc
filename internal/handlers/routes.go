package handlers

import (
	"net/http"

	"github.com/danielgtaylor/huma/v2"
	"github.com/danielgtaylor/huma/v2/adapters/humachi"
	"github.com/eventhub/event-management-api/internal/auth"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

func RegisterRoutes(r *chi.Mux, authHandler *auth.AuthHandler, eventHandler *EventHandler, registrationHandler *RegistrationHandler) {
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	// Initialize Huma API
	config := huma.DefaultConfig("Event Management API", "1.0.0")
	config.Components.SecuritySchemes = map[string]*huma.SecurityScheme{
		"bearerAuth": {
			Type:         "http",
			Scheme:       "bearer",
			BearerFormat: "JWT",
		},
	}
	api := humachi.New(r, config)

	bearer := func(o *huma.Operation) {
		o.Security = []map[string][]string{{"bearerAuth": {}}}
	}

	// Public routes
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("OK"))
	})

	// Auth routes. Login takes a form-encoded body, so it bypasses Huma.
	huma.Post(api, "/auth/register", authHandler.HandleRegister)
	r.Post("/auth/login", authHandler.HandleLogin)
	huma.Get(api, "/auth/me", authHandler.HandleMe, bearer)

	// Event routes
	huma.Post(api, "/events/", eventHandler.HandleCreateEvent, bearer)
	huma.Get(api, "/events/", eventHandler.HandleListEvents)
	huma.Get(api, "/events/{event_id}", eventHandler.HandleGetEvent)
	huma.Put(api, "/events/{event_id}", eventHandler.HandleUpdateEvent, bearer)

	// Registration and check-in routes
	huma.Post(api, "/events/{event_id}/register", registrationHandler.HandleEventRegister, bearer)
	huma.Post(api, "/events/{event_id}/check-in", registrationHandler.HandleCheckIn, bearer)
	huma.Get(api, "/events/{event_id}/attendees", registrationHandler.HandleListAttendees)
	huma.Post(api, "/events/{event_id}/bulk-check-in", registrationHandler.HandleBulkCheckIn, bearer)
}
