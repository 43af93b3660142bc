package handlers

import (
	"errors"
	"testing"
	"time"

	"github.com/danielgtaylor/huma/v2"
	"github.com/eventhub/event-management-api/internal/auth"
	"github.com/eventhub/event-management-api/internal/config"
	"github.com/eventhub/event-management-api/internal/models"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

// Shared fixtures for the handler tests.

type testEnv struct {
	db           *gorm.DB
	auth         *auth.AuthHandler
	events       *EventHandler
	registration *RegistrationHandler
}

func setupTestEnv(t *testing.T) *testEnv {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	if err != nil {
		t.Fatalf("failed to connect database: %v", err)
	}
	if err := db.AutoMigrate(&models.User{}, &models.Event{}, &models.Attendee{}); err != nil {
		t.Fatalf("failed to auto migrate: %v", err)
	}

	cfg := &config.Config{JWTSecret: "test-secret", TokenTTLMinutes: 30}
	authHandler := auth.NewAuthHandler(cfg, db)
	return &testEnv{
		db:           db,
		auth:         authHandler,
		events:       NewEventHandler(db, nil, authHandler),
		registration: NewRegistrationHandler(db, nil, authHandler),
	}
}

func (e *testEnv) createOrganizer(t *testing.T, email string) models.User {
	t.Helper()
	hashed, err := auth.HashPassword("pw")
	if err != nil {
		t.Fatalf("failed to hash password: %v", err)
	}
	user := models.User{Username: email, Email: email, Password: hashed, Role: models.RoleOrganizer}
	if err := e.db.Create(&user).Error; err != nil {
		t.Fatalf("failed to create organizer: %v", err)
	}
	return user
}

func (e *testEnv) createAttendee(t *testing.T, email string) models.Attendee {
	t.Helper()
	hashed, err := auth.HashPassword("pw")
	if err != nil {
		t.Fatalf("failed to hash password: %v", err)
	}
	attendee := models.Attendee{FirstName: "Test", LastName: "Attendee", Email: email, Password: hashed}
	if err := e.db.Create(&attendee).Error; err != nil {
		t.Fatalf("failed to create attendee: %v", err)
	}
	return attendee
}

func (e *testEnv) createEvent(t *testing.T, organizer models.User, maxAttendees int) models.Event {
	t.Helper()
	event := models.Event{
		Name:         "GopherCon",
		Description:  "A conference",
		StartTime:    time.Now().Add(24 * time.Hour),
		EndTime:      time.Now().Add(48 * time.Hour),
		Location:     "Prague",
		MaxAttendees: maxAttendees,
		Status:       models.EventStatusScheduled,
		OrganizerID:  organizer.ID,
	}
	if err := e.db.Create(&event).Error; err != nil {
		t.Fatalf("failed to create event: %v", err)
	}
	return event
}

func (e *testEnv) bearer(t *testing.T, email, role string) string {
	t.Helper()
	token, err := e.auth.GenerateToken(email, role)
	if err != nil {
		t.Fatalf("failed to generate token: %v", err)
	}
	return "Bearer " + token
}

func authInput(authorization string) auth.AuthInput {
	return auth.AuthInput{Authorization: authorization}
}

func assertStatus(t *testing.T, err error, want int) {
	t.Helper()
	if err == nil {
		t.Fatalf("expected error with status %d, got nil", want)
	}
	var statusErr huma.StatusError
	if !errors.As(err, &statusErr) {
		t.Fatalf("expected a status error, got %v", err)
	}
	if statusErr.GetStatus() != want {
		t.Fatalf("expected status %d, got %d (%v)", want, statusErr.GetStatus(), err)
	}
}
