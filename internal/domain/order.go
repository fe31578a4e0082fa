package domain

import "time"

// OrderStatus enumerates registration states. The only transition is
// active -> cancelled; cancelled is terminal.
type OrderStatus string

const (
	OrderStatusActive    OrderStatus = "active"
	OrderStatusCancelled OrderStatus = "cancelled"
)

// Order is a user's registration for an event. At most one active
// order may exist per (user, event) pair.
type Order struct {
	ID          string
	UserID      string
	EventID     string
	Status      OrderStatus
	CreatedAt   time.Time
	CancelledAt *time.Time
}
