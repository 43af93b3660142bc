package auth

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/danielgtaylor/huma/v2"
	"github.com/eventhub/event-management-api/internal/config"
	"github.com/eventhub/event-management-api/internal/models"
	"github.com/golang-jwt/jwt/v5"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	if err != nil {
		t.Fatalf("failed to connect database: %v", err)
	}
	if err := db.AutoMigrate(&models.User{}, &models.Event{}, &models.Attendee{}); err != nil {
		t.Fatalf("failed to auto migrate: %v", err)
	}
	return db
}

func testConfig() *config.Config {
	return &config.Config{JWTSecret: "test-secret", TokenTTLMinutes: 30}
}

func registerInput(firstName, lastName, email, password, role string) *RegisterRequest {
	req := &RegisterRequest{}
	req.Body.FirstName = firstName
	req.Body.LastName = lastName
	req.Body.Email = email
	req.Body.Password = password
	req.Body.Role = role
	return req
}

func TestHandleRegister(t *testing.T) {
	db := setupTestDB(t)
	handler := NewAuthHandler(testConfig(), db)
	ctx := context.Background()

	t.Run("Organizer", func(t *testing.T) {
		resp, err := handler.HandleRegister(ctx, registerInput("Orga", "Nizer", "orga@x.com", "pw", models.RoleOrganizer))
		if err != nil {
			t.Fatalf("HandleRegister returned error: %v", err)
		}
		if resp.Body.Message == "" {
			t.Error("expected a success message")
		}

		var user models.User
		if err := db.Where("email = ?", "orga@x.com").First(&user).Error; err != nil {
			t.Fatalf("organizer row not created: %v", err)
		}
		if user.Role != models.RoleOrganizer {
			t.Errorf("expected role organizer, got %s", user.Role)
		}
		if user.Password == "pw" {
			t.Error("password stored in plaintext")
		}
	})

	t.Run("Attendee", func(t *testing.T) {
		if _, err := handler.HandleRegister(ctx, registerInput("Atten", "Dee", "a@x.com", "pw", models.RoleAttendee)); err != nil {
			t.Fatalf("HandleRegister returned error: %v", err)
		}

		var attendee models.Attendee
		if err := db.Where("email = ?", "a@x.com").First(&attendee).Error; err != nil {
			t.Fatalf("attendee row not created: %v", err)
		}
		if attendee.EventID != nil {
			t.Error("new attendee should not be linked to an event")
		}
		if attendee.CheckInStatus {
			t.Error("new attendee should not be checked in")
		}
	})

	t.Run("DuplicateEmail", func(t *testing.T) {
		_, err := handler.HandleRegister(ctx, registerInput("Orga", "Nizer", "orga@x.com", "pw", models.RoleOrganizer))
		assertStatus(t, err, http.StatusBadRequest)
	})

	t.Run("EmailHeldByOtherRole", func(t *testing.T) {
		// An email identifies one principal; a second signup under the
		// other role must not shadow the existing account.
		_, err := handler.HandleRegister(ctx, registerInput("Atten", "Dee", "orga@x.com", "otherpw", models.RoleAttendee))
		assertStatus(t, err, http.StatusBadRequest)

		_, err = handler.HandleRegister(ctx, registerInput("Orga", "Nizer", "a@x.com", "otherpw", models.RoleOrganizer))
		assertStatus(t, err, http.StatusBadRequest)

		var count int64
		db.Model(&models.Attendee{}).Where("email = ?", "orga@x.com").Count(&count)
		if count != 0 {
			t.Error("attendee row created for an organizer's email")
		}
	})

	t.Run("InvalidRole", func(t *testing.T) {
		_, err := handler.HandleRegister(ctx, registerInput("No", "Body", "n@x.com", "pw", "admin"))
		assertStatus(t, err, http.StatusBadRequest)
	})
}

func TestHandleLogin(t *testing.T) {
	db := setupTestDB(t)
	handler := NewAuthHandler(testConfig(), db)
	ctx := context.Background()

	if _, err := handler.HandleRegister(ctx, registerInput("Orga", "Nizer", "orga@x.com", "pw", models.RoleOrganizer)); err != nil {
		t.Fatalf("failed to register organizer: %v", err)
	}
	if _, err := handler.HandleRegister(ctx, registerInput("Atten", "Dee", "a@x.com", "attpw", models.RoleAttendee)); err != nil {
		t.Fatalf("failed to register attendee: %v", err)
	}

	login := func(email, password string) *httptest.ResponseRecorder {
		form := url.Values{"username": {email}, "password": {password}}
		req := httptest.NewRequest("POST", "/auth/login", strings.NewReader(form.Encode()))
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
		rr := httptest.NewRecorder()
		handler.HandleLogin(rr, req)
		return rr
	}

	t.Run("Success", func(t *testing.T) {
		rr := login("orga@x.com", "pw")
		if rr.Code != http.StatusOK {
			t.Fatalf("expected status OK, got %v", rr.Code)
		}

		var body map[string]string
		if err := json.NewDecoder(rr.Body).Decode(&body); err != nil {
			t.Fatalf("failed to decode login response: %v", err)
		}
		if body["access_token"] == "" {
			t.Error("expected an access token")
		}
		if body["token_type"] != "bearer" {
			t.Errorf("expected token_type bearer, got %s", body["token_type"])
		}
		if body["role"] != models.RoleOrganizer {
			t.Errorf("expected role organizer, got %s", body["role"])
		}

		if _, err := handler.Authorize(context.Background(), "Bearer "+body["access_token"]); err != nil {
			t.Errorf("freshly issued token failed authorization: %v", err)
		}
	})

	t.Run("AttendeeSuccess", func(t *testing.T) {
		rr := login("a@x.com", "attpw")
		if rr.Code != http.StatusOK {
			t.Fatalf("expected status OK, got %v", rr.Code)
		}
		var body map[string]string
		if err := json.NewDecoder(rr.Body).Decode(&body); err != nil {
			t.Fatalf("failed to decode login response: %v", err)
		}
		if body["role"] != models.RoleAttendee {
			t.Errorf("expected role attendee, got %s", body["role"])
		}
	})

	t.Run("WrongPassword", func(t *testing.T) {
		if rr := login("orga@x.com", "nope"); rr.Code != http.StatusUnauthorized {
			t.Errorf("expected status 401, got %v", rr.Code)
		}
	})

	t.Run("UnknownEmail", func(t *testing.T) {
		if rr := login("ghost@x.com", "pw"); rr.Code != http.StatusUnauthorized {
			t.Errorf("expected status 401, got %v", rr.Code)
		}
	})
}

func TestHandleMe(t *testing.T) {
	db := setupTestDB(t)
	handler := NewAuthHandler(testConfig(), db)
	ctx := context.Background()

	if _, err := handler.HandleRegister(ctx, registerInput("Atten", "Dee", "a@x.com", "pw", models.RoleAttendee)); err != nil {
		t.Fatalf("failed to register attendee: %v", err)
	}

	t.Run("Authenticated", func(t *testing.T) {
		token, err := handler.GenerateToken("a@x.com", models.RoleAttendee)
		if err != nil {
			t.Fatalf("GenerateToken returned error: %v", err)
		}

		resp, err := handler.HandleMe(ctx, &MeRequest{AuthInput: AuthInput{Authorization: "Bearer " + token}})
		if err != nil {
			t.Fatalf("HandleMe returned error: %v", err)
		}
		if resp.Body.Email != "a@x.com" {
			t.Errorf("expected email a@x.com, got %s", resp.Body.Email)
		}
		if resp.Body.Role != models.RoleAttendee {
			t.Errorf("expected role attendee, got %s", resp.Body.Role)
		}
	})

	t.Run("Unauthenticated", func(t *testing.T) {
		_, err := handler.HandleMe(ctx, &MeRequest{})
		assertStatus(t, err, http.StatusUnauthorized)
	})
}

func TestAuthorize_TokenExpiry(t *testing.T) {
	db := setupTestDB(t)
	cfg := testConfig()
	handler := NewAuthHandler(cfg, db)
	ctx := context.Background()

	if _, err := handler.HandleRegister(ctx, registerInput("Atten", "Dee", "a@x.com", "pw", models.RoleAttendee)); err != nil {
		t.Fatalf("failed to register attendee: %v", err)
	}

	signed := func(exp time.Time) string {
		claims := jwt.MapClaims{
			"sub":  "a@x.com",
			"role": models.RoleAttendee,
			"exp":  exp.Unix(),
		}
		token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(cfg.JWTSecret))
		if err != nil {
			t.Fatalf("failed to sign token: %v", err)
		}
		return token
	}

	t.Run("NotYetExpired", func(t *testing.T) {
		// 29 minutes into a 30 minute TTL: one minute of validity left.
		token := signed(time.Now().Add(time.Minute))
		if _, err := handler.Authorize(ctx, "Bearer "+token); err != nil {
			t.Errorf("expected token to verify, got %v", err)
		}
	})

	t.Run("Expired", func(t *testing.T) {
		token := signed(time.Now().Add(-time.Minute))
		_, err := handler.Authorize(ctx, "Bearer "+token)
		assertStatus(t, err, http.StatusUnauthorized)
	})

	t.Run("MissingExpiry", func(t *testing.T) {
		// Tokens are time-limited; one signed without an exp claim must
		// not verify forever.
		claims := jwt.MapClaims{"sub": "a@x.com", "role": models.RoleAttendee}
		token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(cfg.JWTSecret))
		if err != nil {
			t.Fatalf("failed to sign token: %v", err)
		}
		_, err = handler.Authorize(ctx, "Bearer "+token)
		assertStatus(t, err, http.StatusUnauthorized)
	})

	t.Run("WrongSignature", func(t *testing.T) {
		claims := jwt.MapClaims{"sub": "a@x.com", "role": models.RoleAttendee, "exp": time.Now().Add(time.Hour).Unix()}
		token, _ := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("other-secret"))
		_, err := handler.Authorize(ctx, "Bearer "+token)
		assertStatus(t, err, http.StatusUnauthorized)
	})

	t.Run("NotBearer", func(t *testing.T) {
		_, err := handler.Authorize(ctx, "Basic abc123")
		assertStatus(t, err, http.StatusUnauthorized)
	})
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
