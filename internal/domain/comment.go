package domain

import "time"

// Comment is free-text feedback attached to an event. Comments are
// never edited; the author may delete their own.
type Comment struct {
	ID        string
	Content   string
	UserID    string
	EventID   string
	CreatedAt time.Time
}
