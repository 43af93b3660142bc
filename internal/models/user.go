package models

import (
	"gorm.io/gorm"
)

const (
	RoleOrganizer = "organizer"
	RoleAttendee  = "attendee"
)

// User is an organizer account. Attendee accounts live in their own table;
// both satisfy the authenticatable-principal contract in internal/auth.
type User struct {
	gorm.Model
	Username string  `gorm:"uniqueIndex" json:"username"`
	Email    string  `gorm:"uniqueIndex" json:"email"`
	Password string  `json:"-"`
	Role     string  `gorm:"default:organizer" json:"role"`
	Events   []Event `gorm:"foreignKey:OrganizerID" json:"-"`
}
