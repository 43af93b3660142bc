package models

import (
	"time"

	"gorm.io/gorm"
)

type EventStatus string

const (
	EventStatusScheduled EventStatus = "scheduled"
	EventStatusOngoing   EventStatus = "ongoing"
	EventStatusCompleted EventStatus = "completed"
	EventStatusCanceled  EventStatus = "canceled"
)

// ValidEventStatus reports whether s is one of the lifecycle states.
func ValidEventStatus(s EventStatus) bool {
	switch s {
	case EventStatusScheduled, EventStatusOngoing, EventStatusCompleted, EventStatusCanceled:
		return true
	}
	return false
}

type Event struct {
	gorm.Model
	Name         string      `json:"name"`
	Description  string      `json:"description"`
	StartTime    time.Time   `json:"start_time"`
	EndTime      time.Time   `json:"end_time"`
	Location     string      `json:"location"`
	MaxAttendees int         `json:"max_attendees"`
	Status       EventStatus `gorm:"default:scheduled" json:"status"`
	OrganizerID  uint        `json:"organizer_id"`
	Organizer    User        `gorm:"foreignKey:OrganizerID" json:"-"`
}
