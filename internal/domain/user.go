package domain

import "time"

// User is the domain model for platform members who create events,
// register for them and comment. Username and email are unique and
// immutable after registration.
type User struct {
	ID           string
	Username     string
	Email        string
	PasswordHash string
	FullName     *string
	Phone        *string
	Active       bool
	CreatedAt    time.Time
	UpdatedAt    time.Time
}
