package handlers

import (
	"context"
	"log"
	"time"

	"github.com/danielgtaylor/huma/v2"
	"github.com/eventhub/event-management-api/internal/auth"
	"github.com/eventhub/event-management-api/internal/models"
	"github.com/eventhub/event-management-api/internal/notifier"
	"gorm.io/gorm"
)

type EventHandler struct {
	db          *gorm.DB
	notifier    notifier.Notifier
	authHandler *auth.AuthHandler
}

func NewEventHandler(db *gorm.DB, notifier notifier.Notifier, authHandler *auth.AuthHandler) *EventHandler {
	return &EventHandler{db: db, notifier: notifier, authHandler: authHandler}
}

type EventResponseBody struct {
	ID           uint               `json:"event_id"`
	Name         string             `json:"name"`
	Description  string             `json:"description"`
	StartTime    time.Time          `json:"start_time"`
	EndTime      time.Time          `json:"end_time"`
	Location     string             `json:"location"`
	MaxAttendees int                `json:"max_attendees"`
	Status       models.EventStatus `json:"status"`
	OrganizerID  uint               `json:"organizer_id"`
}

func eventResponseBody(event models.Event) EventResponseBody {
	return EventResponseBody{
		ID:           event.ID,
		Name:         event.Name,
		Description:  event.Description,
		StartTime:    event.StartTime,
		EndTime:      event.EndTime,
		Location:     event.Location,
		MaxAttendees: event.MaxAttendees,
		Status:       event.Status,
		OrganizerID:  event.OrganizerID,
	}
}

type CreateEventRequest struct {
	auth.AuthInput
	Body struct {
		Name         string    `json:"name" minLength:"1" doc:"Event name" required:"true"`
		Description  string    `json:"description,omitempty" doc:"Event description"`
		StartTime    time.Time `json:"start_time" doc:"Event start" required:"true"`
		EndTime      time.Time `json:"end_time" doc:"Event end" required:"true"`
		Location     string    `json:"location" minLength:"1" doc:"Event location" required:"true"`
		MaxAttendees int       `json:"max_attendees" minimum:"1" doc:"Registration capacity" required:"true"`
	}
}

type CreateEventResponse struct {
	Status int
	Body   EventResponseBody
}

func (h *EventHandler) HandleCreateEvent(ctx context.Context, input *CreateEventRequest) (*CreateEventResponse, error) {
	principal, err := h.authHandler.Authorize(ctx, input.Authorization)
	if err != nil {
		return nil, err
	}
	if principal.Role != models.RoleOrganizer {
		return nil, huma.Error403Forbidden("Only organizers can create events")
	}

	if input.Body.EndTime.Before(input.Body.StartTime) {
		return nil, huma.Error400BadRequest("End time cannot be before start time")
	}

	event := models.Event{
		Name:         input.Body.Name,
		Description:  input.Body.Description,
		StartTime:    input.Body.StartTime,
		EndTime:      input.Body.EndTime,
		Location:     input.Body.Location,
		MaxAttendees: input.Body.MaxAttendees,
		Status:       models.EventStatusScheduled,
		OrganizerID:  principal.ID,
	}
	if err := h.db.WithContext(ctx).Create(&event).Error; err != nil {
		return nil, huma.Error500InternalServerError("Failed to create event: " + err.Error())
	}

	if h.notifier != nil {
		if err := h.notifier.NotifyEventCreated(event); err != nil {
			log.Printf("Failed to send notification: %v", err)
		}
	}

	return &CreateEventResponse{Status: 201, Body: eventResponseBody(event)}, nil
}

type ListEventsRequest struct {
	Status   string `query:"status" doc:"Filter by lifecycle status"`
	Location string `query:"location" doc:"Filter by location"`
	Date     string `query:"date" doc:"Only events starting on or after this date (YYYY-MM-DD)"`
}

type ListEventsResponse struct {
	Body []EventResponseBody
}

func (h *EventHandler) HandleListEvents(ctx context.Context, input *ListEventsRequest) (*ListEventsResponse, error) {
	query := h.db.WithContext(ctx).Model(&models.Event{})

	if input.Status != "" {
		if !models.ValidEventStatus(models.EventStatus(input.Status)) {
			return nil, huma.Error400BadRequest("Invalid status filter")
		}
		query = query.Where("status = ?", input.Status)
	}
	if input.Location != "" {
		query = query.Where("location = ?", input.Location)
	}
	if input.Date != "" {
		date, err := time.Parse("2006-01-02", input.Date)
		if err != nil {
			return nil, huma.Error400BadRequest("Invalid date filter, expected YYYY-MM-DD")
		}
		query = query.Where("start_time >= ?", date)
	}

	var events []models.Event
	if err := query.Find(&events).Error; err != nil {
		return nil, huma.Error500InternalServerError("Failed to list events")
	}

	response := make([]EventResponseBody, 0, len(events))
	for _, event := range events {
		response = append(response, eventResponseBody(event))
	}
	return &ListEventsResponse{Body: response}, nil
}

type GetEventRequest struct {
	EventID uint `path:"event_id"`
}

type GetEventResponse struct {
	Body EventResponseBody
}

func (h *EventHandler) HandleGetEvent(ctx context.Context, input *GetEventRequest) (*GetEventResponse, error) {
	var event models.Event
	if err := h.db.WithContext(ctx).First(&event, input.EventID).Error; err != nil {
		return nil, huma.Error404NotFound("Event not found")
	}
	return &GetEventResponse{Body: eventResponseBody(event)}, nil
}

type UpdateEventRequest struct {
	auth.AuthInput
	EventID uint `path:"event_id"`
	Body    struct {
		Name         *string    `json:"name,omitempty"`
		Description  *string    `json:"description,omitempty"`
		StartTime    *time.Time `json:"start_time,omitempty"`
		EndTime      *time.Time `json:"end_time,omitempty"`
		Location     *string    `json:"location,omitempty"`
		MaxAttendees *int       `json:"max_attendees,omitempty" minimum:"1"`
		Status       *string    `json:"status,omitempty" enum:"scheduled,ongoing,completed,canceled"`
	}
}

type UpdateEventResponse struct {
	Body EventResponseBody
}

// HandleUpdateEvent applies a merge-patch: only fields present in the body
// are written, everything else is left untouched.
func (h *EventHandler) HandleUpdateEvent(ctx context.Context, input *UpdateEventRequest) (*UpdateEventResponse, error) {
	principal, err := h.authHandler.Authorize(ctx, input.Authorization)
	if err != nil {
		return nil, err
	}
	if principal.Role != models.RoleOrganizer {
		return nil, huma.Error403Forbidden("Only organizers can update events")
	}

	var event models.Event
	if err := h.db.WithContext(ctx).First(&event, input.EventID).Error; err != nil {
		return nil, huma.Error404NotFound("Event not found")
	}
	if event.OrganizerID != principal.ID {
		return nil, huma.Error403Forbidden("You do not own this event")
	}

	if input.Body.Name != nil {
		event.Name = *input.Body.Name
	}
	if input.Body.Description != nil {
		event.Description = *input.Body.Description
	}
	if input.Body.StartTime != nil {
		event.StartTime = *input.Body.StartTime
	}
	if input.Body.EndTime != nil {
		event.EndTime = *input.Body.EndTime
	}
	if input.Body.Location != nil {
		event.Location = *input.Body.Location
	}
	if input.Body.MaxAttendees != nil {
		event.MaxAttendees = *input.Body.MaxAttendees
	}
	if input.Body.Status != nil {
		event.Status = models.EventStatus(*input.Body.Status)
	}
	if event.EndTime.Before(event.StartTime) {
		return nil, huma.Error400BadRequest("End time cannot be before start time")
	}

	if err := h.db.WithContext(ctx).Save(&event).Error; err != nil {
		return nil, huma.Error500InternalServerError("Failed to update event: " + err.Error())
	}

	return &UpdateEventResponse{Body: eventResponseBody(event)}, nil
}
