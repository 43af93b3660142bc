package handlers

import (
	"context"
	"errors"
	"log"

	"github.com/danielgtaylor/huma/v2"
	"github.com/eventhub/event-management-api/internal/auth"
	"github.com/eventhub/event-management-api/internal/models"
	"github.com/eventhub/event-management-api/internal/notifier"
	"gorm.io/gorm"
)

// RegistrationHandler drives the attendee lifecycle for one event:
// Unregistered -> Registered -> CheckedIn.
type RegistrationHandler struct {
	db          *gorm.DB
	notifier    notifier.Notifier
	authHandler *auth.AuthHandler
}

func NewRegistrationHandler(db *gorm.DB, notifier notifier.Notifier, authHandler *auth.AuthHandler) *RegistrationHandler {
	return &RegistrationHandler{db: db, notifier: notifier, authHandler: authHandler}
}

type AttendeeResponseBody struct {
	ID            uint   `json:"attendee_id"`
	FirstName     string `json:"first_name"`
	LastName      string `json:"last_name"`
	Email         string `json:"email"`
	PhoneNumber   string `json:"phone_number"`
	EventID       *uint  `json:"event_id"`
	CheckInStatus bool   `json:"check_in_status"`
}

func attendeeResponseBody(attendee models.Attendee) AttendeeResponseBody {
	return AttendeeResponseBody{
		ID:            attendee.ID,
		FirstName:     attendee.FirstName,
		LastName:      attendee.LastName,
		Email:         attendee.Email,
		PhoneNumber:   attendee.PhoneNumber,
		EventID:       attendee.EventID,
		CheckInStatus: attendee.CheckInStatus,
	}
}

type EventRegisterRequest struct {
	auth.AuthInput
	EventID uint `path:"event_id"`
}

type EventRegisterResponse struct {
	Body AttendeeResponseBody
}

// HandleEventRegister links the authenticated attendee to the event. The
// capacity count runs inside the same transaction as the write, so two
// concurrent registrations cannot both observe a free spot.
func (h *RegistrationHandler) HandleEventRegister(ctx context.Context, input *EventRegisterRequest) (*EventRegisterResponse, error) {
	principal, err := h.authHandler.Authorize(ctx, input.Authorization)
	if err != nil {
		return nil, err
	}
	if principal.Role != models.RoleAttendee {
		return nil, huma.Error403Forbidden("Only attendees can register for events")
	}

	var attendee models.Attendee
	var event models.Event
	err = h.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&event, input.EventID).Error; err != nil {
			return huma.Error404NotFound("Event not found")
		}

		var count int64
		if err := tx.Model(&models.Attendee{}).Where("event_id = ?", event.ID).Count(&count).Error; err != nil {
			return err
		}
		if count >= int64(event.MaxAttendees) {
			return huma.Error409Conflict("Event is full")
		}

		if err := tx.Where("email = ?", principal.Email).First(&attendee).Error; err != nil {
			return huma.Error404NotFound("Attendee not found")
		}
		if attendee.EventID != nil && *attendee.EventID == event.ID {
			return huma.Error409Conflict("Already registered for this event")
		}

		// A different existing event link is silently replaced.
		attendee.EventID = &event.ID
		return tx.Save(&attendee).Error
	})
	if err != nil {
		var statusErr huma.StatusError
		if errors.As(err, &statusErr) {
			return nil, err
		}
		return nil, huma.Error500InternalServerError("Failed to process registration: " + err.Error())
	}

	if h.notifier != nil {
		if err := h.notifier.NotifyRegistration(attendee, event); err != nil {
			log.Printf("Failed to send notification: %v", err)
		}
	}

	return &EventRegisterResponse{Body: attendeeResponseBody(attendee)}, nil
}

type CheckInRequest struct {
	auth.AuthInput
	EventID uint `path:"event_id"`
}

type CheckInResponse struct {
	Body struct {
		Message string `json:"message"`
	}
}

func (h *RegistrationHandler) HandleCheckIn(ctx context.Context, input *CheckInRequest) (*CheckInResponse, error) {
	principal, err := h.authHandler.Authorize(ctx, input.Authorization)
	if err != nil {
		return nil, err
	}
	if principal.Role != models.RoleAttendee {
		return nil, huma.Error403Forbidden("Only attendees can check in")
	}

	err = h.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var attendee models.Attendee
		if err := tx.Where("email = ? AND event_id = ?", principal.Email, input.EventID).
			First(&attendee).Error; err != nil {
			return huma.Error404NotFound("Attendee not registered for this event")
		}
		if attendee.CheckInStatus {
			return huma.Error409Conflict("Already checked in")
		}

		attendee.CheckInStatus = true
		return tx.Save(&attendee).Error
	})
	if err != nil {
		var statusErr huma.StatusError
		if errors.As(err, &statusErr) {
			return nil, err
		}
		return nil, huma.Error500InternalServerError("Failed to check in: " + err.Error())
	}

	res := &CheckInResponse{}
	res.Body.Message = "Checked in successfully"
	return res, nil
}

type ListAttendeesRequest struct {
	EventID       uint   `path:"event_id"`
	CheckInStatus string `query:"check_in_status" doc:"Filter by check-in flag (true or false)"`
}

type ListAttendeesResponse struct {
	Body []AttendeeResponseBody
}

func (h *RegistrationHandler) HandleListAttendees(ctx context.Context, input *ListAttendeesRequest) (*ListAttendeesResponse, error) {
	var event models.Event
	if err := h.db.WithContext(ctx).First(&event, input.EventID).Error; err != nil {
		return nil, huma.Error404NotFound("Event not found")
	}

	query := h.db.WithContext(ctx).Where("event_id = ?", event.ID)
	switch input.CheckInStatus {
	case "true":
		query = query.Where("check_in_status = ?", true)
	case "false":
		query = query.Where("check_in_status = ?", false)
	case "":
	default:
		return nil, huma.Error400BadRequest("Invalid check_in_status filter, expected true or false")
	}

	var attendees []models.Attendee
	if err := query.Find(&attendees).Error; err != nil {
		return nil, huma.Error500InternalServerError("Failed to list attendees")
	}

	response := make([]AttendeeResponseBody, 0, len(attendees))
	for _, attendee := range attendees {
		response = append(response, attendeeResponseBody(attendee))
	}
	return &ListAttendeesResponse{Body: response}, nil
}
