package handlers

import (
	"context"
	"encoding/csv"
	"errors"
	"io"
	"strings"

	"github.com/danielgtaylor/huma/v2"
	"github.com/eventhub/event-management-api/internal/auth"
	"github.com/eventhub/event-management-api/internal/models"
	"gorm.io/gorm"
)

type BulkCheckInRequest struct {
	auth.AuthInput
	EventID uint `path:"event_id"`
	RawBody huma.MultipartFormFiles[BulkCheckInFormData]
}

type BulkCheckInFormData struct {
	File huma.FormFile `form:"file" required:"true"`
}

type BulkCheckInResponse struct {
	Body struct {
		CheckedIn []string `json:"checked_in"`
		NotFound  []string `json:"not_found"`
	}
}

// HandleBulkCheckIn marks attendees checked in from an uploaded CSV whose
// header names an email column. Rows without an email are dropped, rows
// already checked in are skipped, and all updates commit in one transaction.
func (h *RegistrationHandler) HandleBulkCheckIn(ctx context.Context, input *BulkCheckInRequest) (*BulkCheckInResponse, error) {
	principal, err := h.authHandler.Authorize(ctx, input.Authorization)
	if err != nil {
		return nil, err
	}

	formData := input.RawBody.Data()
	checkedIn, notFound, err := h.bulkCheckIn(ctx, principal, input.EventID, formData.File.Filename, formData.File)
	if err != nil {
		return nil, err
	}

	res := &BulkCheckInResponse{}
	res.Body.CheckedIn = checkedIn
	res.Body.NotFound = notFound
	return res, nil
}

// bulkCheckIn applies the uploaded list to the event's attendees. All row
// updates commit together or not at all.
func (h *RegistrationHandler) bulkCheckIn(ctx context.Context, principal *auth.Principal, eventID uint, filename string, file io.Reader) ([]string, []string, error) {
	var event models.Event
	if err := h.db.WithContext(ctx).First(&event, eventID).Error; err != nil {
		return nil, nil, huma.Error404NotFound("Event not found")
	}
	if principal.Role != models.RoleOrganizer || event.OrganizerID != principal.ID {
		return nil, nil, huma.Error403Forbidden("You do not own this event")
	}

	if !strings.HasSuffix(strings.ToLower(filename), ".csv") {
		return nil, nil, huma.Error400BadRequest("Only .csv files are accepted")
	}

	emails, err := parseEmailColumn(file)
	if err != nil {
		return nil, nil, huma.Error400BadRequest(err.Error())
	}

	checkedIn := []string{}
	notFound := []string{}
	err = h.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, email := range emails {
			var attendee models.Attendee
			if err := tx.Where("email = ? AND event_id = ?", email, event.ID).First(&attendee).Error; err != nil {
				if errors.Is(err, gorm.ErrRecordNotFound) {
					notFound = append(notFound, email)
					continue
				}
				return err
			}
			if attendee.CheckInStatus {
				continue
			}
			attendee.CheckInStatus = true
			if err := tx.Save(&attendee).Error; err != nil {
				return err
			}
			checkedIn = append(checkedIn, email)
		}
		return nil
	})
	if err != nil {
		return nil, nil, huma.Error500InternalServerError("Failed to process bulk check-in: " + err.Error())
	}

	return checkedIn, notFound, nil
}

// parseEmailColumn reads a delimited file whose header row names an email
// column and returns the non-empty values of that column in file order.
func parseEmailColumn(r io.Reader) ([]string, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if err != nil {
		return nil, errors.New("missing or unreadable CSV header")
	}

	emailIdx := -1
	for i, name := range header {
		if strings.EqualFold(strings.TrimSpace(name), "email") {
			emailIdx = i
			break
		}
	}
	if emailIdx == -1 {
		return nil, errors.New("CSV header must contain an email column")
	}

	var emails []string
	for {
		row, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, errors.New("malformed CSV row: " + err.Error())
		}
		if emailIdx >= len(row) {
			continue
		}
		email := strings.TrimSpace(row[emailIdx])
		if email == "" {
			continue
		}
		emails = append(emails, email)
	}
	return emails, nil
}
