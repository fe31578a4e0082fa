package domain

import "time"

// EventStatus enumerates lifecycle states for events.
type EventStatus string

const (
	EventStatusActive    EventStatus = "active"
	EventStatusCancelled EventStatus = "cancelled"
	EventStatusCompleted EventStatus = "completed"
)

// Event is a scheduled sports activity owned by its creator. Capacity
// bounds the number of simultaneously active orders; the registered
// count is always derived from live order rows, never stored here.
type Event struct {
	ID          string
	Title       string
	Description string
	Location    string
	EventTime   time.Time
	Capacity    int
	PriceCents  int
	Status      EventStatus
	CreatorID   string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}
