package dto

import (
	"time"

	"github.com/spec-kit/event-platform/internal/domain"
)

// OrderResponse one registration with its event attached. Event is
// null when the event row no longer exists.
type OrderResponse struct {
	ID          string             `json:"id"`
	EventID     string             `json:"event_id"`
	Status      domain.OrderStatus `json:"status"`
	CreatedAt   time.Time          `json:"created_at"`
	CancelledAt *time.Time         `json:"cancelled_at"`
	Event       *EventResponse     `json:"event"`
}

// OrderFromDomain maps an order and its optional event.
func OrderFromDomain(order *domain.Order, event *domain.Event) OrderResponse {
	resp := OrderResponse{
		ID:          order.ID,
		EventID:     order.EventID,
		Status:      order.Status,
		CreatedAt:   order.CreatedAt,
		CancelledAt: order.CancelledAt,
	}
	if event != nil {
		eventResp := EventFromDomain(event, 0)
		resp.Event = &eventResp
	}
	return resp
}
