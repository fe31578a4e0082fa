package dto

import (
	"time"

	"github.com/spec-kit/event-platform/internal/domain"
)

// CreateEventRequest payload.
type CreateEventRequest struct {
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Location    string    `json:"location"`
	EventTime   time.Time `json:"event_time"`
	Capacity    int       `json:"capacity"`
	PriceCents  int       `json:"price_cents"`
}

// UpdateEventRequest partial payload. Absent fields are untouched.
type UpdateEventRequest struct {
	Title       *string    `json:"title"`
	Description *string    `json:"description"`
	Location    *string    `json:"location"`
	EventTime   *time.Time `json:"event_time"`
	Capacity    *int       `json:"capacity"`
	PriceCents  *int       `json:"price_cents"`
}

// EventResponse full event info with its derived registered count.
type EventResponse struct {
	ID              string             `json:"id"`
	Title           string             `json:"title"`
	Description     string             `json:"description"`
	Location        string             `json:"location"`
	EventTime       time.Time          `json:"event_time"`
	Capacity        int                `json:"capacity"`
	PriceCents      int                `json:"price_cents"`
	Status          domain.EventStatus `json:"status"`
	CreatorID       string             `json:"creator_id"`
	RegisteredCount int                `json:"registered_count"`
	CreatedAt       time.Time          `json:"created_at"`
	UpdatedAt       time.Time          `json:"updated_at"`
}

// EventPageResponse one page of listing results.
type EventPageResponse struct {
	Items []EventResponse `json:"items"`
	Total int             `json:"total"`
	Page  int             `json:"page"`
	Limit int             `json:"limit"`
	Pages int             `json:"pages"`
}

// EventFromDomain maps an event plus its count to the response shape.
func EventFromDomain(event *domain.Event, registeredCount int) EventResponse {
	return EventResponse{
		ID:              event.ID,
		Title:           event.Title,
		Description:     event.Description,
		Location:        event.Location,
		EventTime:       event.EventTime,
		Capacity:        event.Capacity,
		PriceCents:      event.PriceCents,
		Status:          event.Status,
		CreatorID:       event.CreatorID,
		RegisteredCount: registeredCount,
		CreatedAt:       event.CreatedAt,
		UpdatedAt:       event.UpdatedAt,
	}
}
