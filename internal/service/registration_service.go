package service

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/spec-kit/event-platform/internal/domain"
	"github.com/spec-kit/event-platform/internal/events"
	"github.com/spec-kit/event-platform/internal/repository"
	apperrors "github.com/spec-kit/event-platform/pkg/util"
)

// RegistrationService decides whether a registration may proceed and
// creates the order atomically with that decision. All coordination is
// delegated to the store: the duplicate check, the capacity count and
// the insert run inside one transaction holding a row lock on the
// event, so two concurrent attempts for the last slot cannot both
// succeed.
type RegistrationService struct {
	store      repository.RegistrationStore
	orders     repository.OrderRepository
	eventsRepo repository.EventRepository
	dispatcher events.Dispatcher
}

// RegistrationDependencies bundles collaborators for the service.
type RegistrationDependencies struct {
	Store      repository.RegistrationStore
	OrderRepo  repository.OrderRepository
	EventRepo  repository.EventRepository
	Dispatcher events.Dispatcher
}

// OrderDetail pairs an order with its event for API responses. Event
// is nil when the event row no longer exists.
type OrderDetail struct {
	Order domain.Order
	Event *domain.Event
}

// NewRegistrationService constructs the service.
func NewRegistrationService(deps RegistrationDependencies) *RegistrationService {
	return &RegistrationService{
		store:      deps.Store,
		orders:     deps.OrderRepo,
		eventsRepo: deps.EventRepo,
		dispatcher: deps.Dispatcher,
	}
}

// Register creates an active order for (user, event) or reports why it
// may not. Checks run in a fixed sequence, each with a distinct
// failure reason; either the full registration commits or nothing is
// written.
func (s *RegistrationService) Register(ctx context.Context, userID, eventID string) (*OrderDetail, error) {
	var detail *OrderDetail
	err := s.store.WithEventTx(ctx, eventID, func(tx repository.RegistrationTx) error {
		event, err := tx.LockEvent(ctx)
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return apperrors.NewNotFound("event", nil)
			}
			return err
		}
		if event.Status != domain.EventStatusActive {
			return apperrors.NewInvalidState("event is not active")
		}
		if event.EventTime.Before(time.Now()) {
			return apperrors.NewInvalidState("event has already passed")
		}

		registered, err := tx.HasActiveOrder(ctx, userID)
		if err != nil {
			return err
		}
		if registered {
			return apperrors.NewConflict("already registered", nil)
		}

		count, err := tx.CountActiveOrders(ctx)
		if err != nil {
			return err
		}
		if count >= event.Capacity {
			return apperrors.NewConflict("event is full", nil)
		}

		order := &domain.Order{
			UserID:  userID,
			EventID: eventID,
			Status:  domain.OrderStatusActive,
		}
		if err := tx.InsertOrder(ctx, order); err != nil {
			return err
		}
		detail = &OrderDetail{Order: *order, Event: event}
		return nil
	})
	if err != nil {
		return nil, apperrors.MapError(err)
	}

	s.publishEvent(ctx, events.Event{
		Type:    events.EventOrderCreated,
		EventID: eventID,
		ActorID: userID,
		Payload: events.OrderCreatedPayload{OrderID: detail.Order.ID, UserID: userID},
	})
	return detail, nil
}

// Cancel transitions an active order to cancelled, freeing one
// capacity slot. Missing orders and orders owned by someone else both
// report NotFound so callers cannot probe for foreign order IDs.
func (s *RegistrationService) Cancel(ctx context.Context, orderID, userID string) error {
	order, err := s.orders.GetByID(ctx, orderID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return apperrors.NewNotFound("order", nil)
		}
		return apperrors.MapError(err)
	}
	if order.UserID != userID {
		return apperrors.NewNotFound("order", nil)
	}
	if order.Status != domain.OrderStatusActive {
		return apperrors.NewInvalidState("order is already cancelled")
	}

	if err := s.orders.CancelActive(ctx, orderID, time.Now().UTC()); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			// lost a cancellation race; the order is cancelled either way
			return apperrors.NewInvalidState("order is already cancelled")
		}
		return apperrors.MapError(err)
	}

	s.publishEvent(ctx, events.Event{
		Type:    events.EventOrderCancelled,
		EventID: order.EventID,
		ActorID: userID,
		Payload: events.OrderCancelledPayload{OrderID: orderID, UserID: userID},
	})
	return nil
}

// ListForUser returns the caller's orders, newest first, each with its
// event attached.
func (s *RegistrationService) ListForUser(ctx context.Context, userID string) ([]OrderDetail, error) {
	orders, err := s.orders.ListByUser(ctx, userID)
	if err != nil {
		return nil, apperrors.MapError(err)
	}

	eventIDs := make([]string, 0, len(orders))
	seen := make(map[string]struct{}, len(orders))
	for _, order := range orders {
		if _, ok := seen[order.EventID]; ok {
			continue
		}
		seen[order.EventID] = struct{}{}
		eventIDs = append(eventIDs, order.EventID)
	}

	eventsByID, err := s.eventsRepo.GetByIDs(ctx, eventIDs)
	if err != nil {
		return nil, apperrors.MapError(err)
	}

	details := make([]OrderDetail, 0, len(orders))
	for _, order := range orders {
		detail := OrderDetail{Order: order}
		if event, ok := eventsByID[order.EventID]; ok {
			eventCopy := event
			detail.Event = &eventCopy
		}
		details = append(details, detail)
	}
	return details, nil
}

// GetForUser returns a single order. Unlike cancellation, a foreign
// order here reports Forbidden: the route is owner-only but the
// resource listing endpoint already reveals the caller's own IDs.
func (s *RegistrationService) GetForUser(ctx context.Context, orderID, userID string) (*OrderDetail, error) {
	order, err := s.orders.GetByID(ctx, orderID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFound("order", nil)
		}
		return nil, apperrors.MapError(err)
	}
	if order.UserID != userID {
		return nil, apperrors.NewForbidden("not enough permissions")
	}

	detail := &OrderDetail{Order: *order}
	if event, err := s.eventsRepo.GetByID(ctx, order.EventID); err == nil {
		detail.Event = event
	}
	return detail, nil
}

func (s *RegistrationService) publishEvent(ctx context.Context, event events.Event) {
	if s.dispatcher == nil {
		return
	}
	if event.ID == "" {
		event.ID = uuid.NewString()
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now()
	}
	_ = s.dispatcher.Publish(ctx, event)
}
