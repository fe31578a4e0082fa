package events

import (
	"time"

	"github.com/spec-kit/event-platform/internal/domain"
)

// EventType enumerates supported event identifiers.
type EventType string

const (
	EventOrderCreated   EventType = "order_created"
	EventOrderCancelled EventType = "order_cancelled"
	EventEventCreated   EventType = "event_created"
	EventEventUpdated   EventType = "event_updated"
	EventEventDeleted   EventType = "event_deleted"
	EventCommentAdded   EventType = "comment_added"
)

// Event represents a domain event emitted by services.
type Event struct {
	ID        string      `json:"id"`
	Type      EventType   `json:"type"`
	EventID   string      `json:"event_id"`
	ActorID   string      `json:"actor_id"`
	Timestamp time.Time   `json:"timestamp"`
	Payload   interface{} `json:"payload"`
}

// OrderCreatedPayload payload.
type OrderCreatedPayload struct {
	OrderID string `json:"order_id"`
	UserID  string `json:"user_id"`
}

// OrderCancelledPayload payload.
type OrderCancelledPayload struct {
	OrderID string `json:"order_id"`
	UserID  string `json:"user_id"`
}

// EventChangedPayload payload for event create/update/delete.
type EventChangedPayload struct {
	Title  string             `json:"title"`
	Status domain.EventStatus `json:"status"`
}

// CommentAddedPayload payload.
type CommentAddedPayload struct {
	CommentID string `json:"comment_id"`
	UserID    string `json:"user_id"`
}
