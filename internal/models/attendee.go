package models

import (
	"gorm.io/gorm"
)

// Attendee can be linked to at most one event at a time via EventID.
// A nil EventID means the attendee has an account but no registration.
type Attendee struct {
	gorm.Model
	FirstName     string `json:"first_name"`
	LastName      string `json:"last_name"`
	Email         string `gorm:"uniqueIndex" json:"email"`
	Password      string `json:"-"`
	PhoneNumber   string `json:"phone_number"`
	EventID       *uint  `json:"event_id"`
	Event         *Event `gorm:"foreignKey:EventID" json:"-"`
	CheckInStatus bool   `gorm:"default:false" json:"check_in_status"`
}
