package auth

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/danielgtaylor/huma/v2"
	"github.com/eventhub/event-management-api/internal/config"
	"github.com/eventhub/event-management-api/internal/models"
	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// Principal is an authenticated identity resolved from a verified token.
// Organizers and attendees live in disjoint tables; the role claim picks
// the table and both resolve to the same Principal shape.
type Principal struct {
	ID    uint
	Email string
	Role  string
}

// AuthInput is embedded into every protected operation's input struct.
type AuthInput struct {
	Authorization string `header:"Authorization" doc:"Bearer token" required:"true"`
}

type AuthHandler struct {
	cfg *config.Config
	db  *gorm.DB
}

func NewAuthHandler(cfg *config.Config, db *gorm.DB) *AuthHandler {
	return &AuthHandler{cfg: cfg, db: db}
}

func HashPassword(password string) (string, error) {
	hashed, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("failed to hash password: %w", err)
	}
	return string(hashed), nil
}

func CheckPassword(hashedPassword, password string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hashedPassword), []byte(password)) == nil
}

// GenerateToken issues a signed bearer token for the given principal identity.
func (h *AuthHandler) GenerateToken(email, role string) (string, error) {
	now := time.Now()
	claims := jwt.MapClaims{
		"sub":  email,
		"role": role,
		"iat":  now.Unix(),
		"exp":  now.Add(h.cfg.TokenTTL()).Unix(),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(h.cfg.JWTSecret))
}

// ParseToken verifies the signature and expiry and returns the subject
// email and role claims.
func (h *AuthHandler) ParseToken(tokenString string) (string, string, error) {
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return []byte(h.cfg.JWTSecret), nil
	}, jwt.WithExpirationRequired())
	if err != nil || !token.Valid {
		return "", "", errors.New("invalid token")
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return "", "", errors.New("invalid token claims")
	}
	email, ok := claims["sub"].(string)
	if !ok || email == "" {
		return "", "", errors.New("invalid token claims")
	}
	role, ok := claims["role"].(string)
	if !ok {
		return "", "", errors.New("invalid token claims")
	}
	return email, role, nil
}

// Authorize validates a bearer Authorization header and resolves the
// principal row from the table matching the token's role claim.
func (h *AuthHandler) Authorize(ctx context.Context, authHeader string) (*Principal, error) {
	if authHeader == "" {
		return nil, huma.Error401Unauthorized("Authorization header required")
	}
	if !strings.HasPrefix(authHeader, "Bearer ") {
		return nil, huma.Error401Unauthorized("Invalid authorization header format")
	}

	email, role, err := h.ParseToken(strings.TrimPrefix(authHeader, "Bearer "))
	if err != nil {
		return nil, huma.Error401Unauthorized("Invalid token")
	}

	switch role {
	case models.RoleOrganizer:
		var user models.User
		if err := h.db.WithContext(ctx).Where("email = ?", email).First(&user).Error; err != nil {
			return nil, huma.Error401Unauthorized("Invalid token")
		}
		return &Principal{ID: user.ID, Email: user.Email, Role: models.RoleOrganizer}, nil
	case models.RoleAttendee:
		var attendee models.Attendee
		if err := h.db.WithContext(ctx).Where("email = ?", email).First(&attendee).Error; err != nil {
			return nil, huma.Error401Unauthorized("Invalid token")
		}
		return &Principal{ID: attendee.ID, Email: attendee.Email, Role: models.RoleAttendee}, nil
	}
	return nil, huma.Error401Unauthorized("Invalid token")
}

type RegisterRequest struct {
	Body struct {
		FirstName string `json:"first_name" doc:"First name" required:"true"`
		LastName  string `json:"last_name" doc:"Last name" required:"true"`
		Username  string `json:"username,omitempty" doc:"Organizer username, defaults to email"`
		Email     string `json:"email" format:"email" required:"true"`
		Password  string `json:"password" minLength:"1" required:"true"`
		Role      string `json:"role" doc:"organizer or attendee" required:"true"`
	}
}

type RegisterResponse struct {
	Body struct {
		Message string `json:"message"`
	}
}

// HandleRegister creates an organizer or attendee account depending on the
// requested role. An email identifies one principal across both tables, so
// the duplicate check spans both; otherwise a signup could shadow the other
// role's account and lock it out of login. Each table also enforces
// uniqueness at the schema level.
func (h *AuthHandler) HandleRegister(ctx context.Context, input *RegisterRequest) (*RegisterResponse, error) {
	hashed, err := HashPassword(input.Body.Password)
	if err != nil {
		return nil, huma.Error500InternalServerError("Failed to hash password")
	}

	if existing, _ := h.lookupCredentials(ctx, input.Body.Email); existing != nil {
		return nil, huma.Error400BadRequest("Email already registered")
	}

	switch input.Body.Role {
	case models.RoleOrganizer:
		username := input.Body.Username
		if username == "" {
			username = input.Body.Email
		}
		user := models.User{
			Username: username,
			Email:    input.Body.Email,
			Password: hashed,
			Role:     models.RoleOrganizer,
		}
		if err := h.db.WithContext(ctx).Create(&user).Error; err != nil {
			return nil, huma.Error400BadRequest("Email already registered")
		}
	case models.RoleAttendee:
		attendee := models.Attendee{
			FirstName: input.Body.FirstName,
			LastName:  input.Body.LastName,
			Email:     input.Body.Email,
			Password:  hashed,
		}
		if err := h.db.WithContext(ctx).Create(&attendee).Error; err != nil {
			return nil, huma.Error400BadRequest("Email already registered")
		}
	default:
		return nil, huma.Error400BadRequest("Invalid role")
	}

	res := &RegisterResponse{}
	res.Body.Message = "User registered successfully"
	return res, nil
}

// HandleLogin is a plain HTTP handler because the login body is
// form-encoded (username=email, password), not JSON.
func (h *AuthHandler) HandleLogin(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "Bad Request", http.StatusBadRequest)
		return
	}

	email := r.PostFormValue("username")
	password := r.PostFormValue("password")

	principal, hashed := h.lookupCredentials(r.Context(), email)
	if principal == nil || !CheckPassword(hashed, password) {
		http.Error(w, "Invalid credentials", http.StatusUnauthorized)
		return
	}

	token, err := h.GenerateToken(principal.Email, principal.Role)
	if err != nil {
		http.Error(w, "Failed to generate token", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{
		"access_token": token,
		"token_type":   "bearer",
		"role":         principal.Role,
	})
}

// lookupCredentials finds an authenticatable principal by email, trying the
// organizer table first and falling back to attendees.
func (h *AuthHandler) lookupCredentials(ctx context.Context, email string) (*Principal, string) {
	var user models.User
	if err := h.db.WithContext(ctx).Where("email = ?", email).First(&user).Error; err == nil {
		return &Principal{ID: user.ID, Email: user.Email, Role: models.RoleOrganizer}, user.Password
	}
	var attendee models.Attendee
	if err := h.db.WithContext(ctx).Where("email = ?", email).First(&attendee).Error; err == nil {
		return &Principal{ID: attendee.ID, Email: attendee.Email, Role: models.RoleAttendee}, attendee.Password
	}
	return nil, ""
}

type MeRequest struct {
	AuthInput
}

type MeResponse struct {
	Body struct {
		ID    uint   `json:"id"`
		Email string `json:"email"`
		Role  string `json:"role"`
	}
}

func (h *AuthHandler) HandleMe(ctx context.Context, input *MeRequest) (*MeResponse, error) {
	principal, err := h.Authorize(ctx, input.Authorization)
	if err != nil {
		return nil, err
	}

	res := &MeResponse{}
	res.Body.ID = principal.ID
	res.Body.Email = principal.Email
	res.Body.Role = principal.Role
	return res, nil
}
