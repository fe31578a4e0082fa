package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/spec-kit/event-platform/internal/domain"
	"github.com/spec-kit/event-platform/internal/events"
	"github.com/spec-kit/event-platform/internal/repository"
	apperrors "github.com/spec-kit/event-platform/pkg/util"
)

const (
	defaultPageLimit = 10
	maxPageLimit     = 100
	maxCapacity      = 100_000
)

// EventPageCache fronts the event listing with invalidate-on-mutation
// semantics. A nil cache disables caching entirely.
type EventPageCache interface {
	GetPage(ctx context.Context, fingerprint string, dest any) (bool, error)
	SetPage(ctx context.Context, fingerprint string, value any) error
	InvalidateAll(ctx context.Context) error
}

// EventService coordinates event CRUD and the filtered, paginated
// listing with derived registration counts.
type EventService struct {
	eventsRepo repository.EventRepository
	orders     repository.OrderRepository
	cache      EventPageCache
	dispatcher events.Dispatcher
}

// EventDependencies bundles collaborators for the service.
type EventDependencies struct {
	EventRepo  repository.EventRepository
	OrderRepo  repository.OrderRepository
	Cache      EventPageCache
	Dispatcher events.Dispatcher
}

// EventCreateInput describes event creation payload.
type EventCreateInput struct {
	Title       string
	Description string
	Location    string
	EventTime   time.Time
	Capacity    int
	PriceCents  int
}

// EventUpdateInput describes a partial event update. Nil fields keep
// their current value.
type EventUpdateInput struct {
	Title       *string
	Description *string
	Location    *string
	EventTime   *time.Time
	Capacity    *int
	PriceCents  *int
}

// EventListInput describes listing filters.
type EventListInput struct {
	Search   *string
	DateFrom *time.Time
	DateTo   *time.Time
	Location *string
	Status   domain.EventStatus
	Page     int
	Limit    int
}

// EventWithCount annotates an event with its live registered count.
type EventWithCount struct {
	Event           domain.Event
	RegisteredCount int
}

// EventPage is one page of listing results.
type EventPage struct {
	Items []EventWithCount
	Total int
	Page  int
	Limit int
	Pages int
}

// NewEventService constructs the service.
func NewEventService(deps EventDependencies) *EventService {
	return &EventService{
		eventsRepo: deps.EventRepo,
		orders:     deps.OrderRepo,
		cache:      deps.Cache,
		dispatcher: deps.Dispatcher,
	}
}

// Create validates and stores a new event owned by creatorID.
func (s *EventService) Create(ctx context.Context, creatorID string, input EventCreateInput) (*EventWithCount, error) {
	input.Title = strings.TrimSpace(input.Title)
	input.Location = strings.TrimSpace(input.Location)
	if input.Title == "" || input.Location == "" {
		return nil, apperrors.NewValidationError("title and location required", nil)
	}
	if input.EventTime.IsZero() {
		return nil, apperrors.NewValidationError("event_time required", nil)
	}
	if input.Capacity <= 0 || input.Capacity > maxCapacity {
		return nil, apperrors.NewValidationError("capacity must be a positive integer", nil)
	}
	if input.PriceCents < 0 {
		return nil, apperrors.NewValidationError("price cannot be negative", nil)
	}

	event := &domain.Event{
		Title:       input.Title,
		Description: strings.TrimSpace(input.Description),
		Location:    input.Location,
		EventTime:   input.EventTime,
		Capacity:    input.Capacity,
		PriceCents:  input.PriceCents,
		Status:      domain.EventStatusActive,
		CreatorID:   creatorID,
	}
	if err := s.eventsRepo.Create(ctx, event); err != nil {
		return nil, apperrors.MapError(err)
	}

	s.publishEvent(ctx, events.Event{
		Type:    events.EventEventCreated,
		EventID: event.ID,
		ActorID: creatorID,
		Payload: events.EventChangedPayload{Title: event.Title, Status: event.Status},
	})
	return &EventWithCount{Event: *event}, nil
}

// Get returns one event with its live registered count.
func (s *EventService) Get(ctx context.Context, eventID string) (*EventWithCount, error) {
	event, err := s.eventsRepo.GetByID(ctx, eventID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFound("event", nil)
		}
		return nil, apperrors.MapError(err)
	}
	count, err := s.orders.CountActiveByEvent(ctx, eventID)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	return &EventWithCount{Event: *event, RegisteredCount: count}, nil
}

// List returns a filtered, paginated page of events. The registered
// count on each item is a live aggregate at read time; it may be stale
// by the time the viewer acts, which is why registration re-checks
// capacity authoritatively.
func (s *EventService) List(ctx context.Context, input EventListInput) (*EventPage, error) {
	if input.Page < 1 {
		input.Page = 1
	}
	if input.Limit < 1 {
		input.Limit = defaultPageLimit
	}
	if input.Limit > maxPageLimit {
		input.Limit = maxPageLimit
	}
	if input.Status == "" {
		input.Status = domain.EventStatusActive
	}

	fingerprint := listFingerprint(input)
	if s.cache != nil {
		var cached EventPage
		if ok, err := s.cache.GetPage(ctx, fingerprint, &cached); err == nil && ok {
			return &cached, nil
		}
	}

	filter := repository.EventFilter{
		Search:   input.Search,
		DateFrom: input.DateFrom,
		DateTo:   input.DateTo,
		Location: input.Location,
		Status:   input.Status,
		Limit:    input.Limit,
		Offset:   (input.Page - 1) * input.Limit,
	}

	items, err := s.eventsRepo.ListWithFilter(ctx, filter)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	total, err := s.eventsRepo.CountWithFilter(ctx, filter)
	if err != nil {
		return nil, apperrors.MapError(err)
	}

	withCounts, err := s.attachCounts(ctx, items)
	if err != nil {
		return nil, err
	}

	page := &EventPage{
		Items: withCounts,
		Total: total,
		Page:  input.Page,
		Limit: input.Limit,
		Pages: (total + input.Limit - 1) / input.Limit,
	}
	if s.cache != nil {
		_ = s.cache.SetPage(ctx, fingerprint, page)
	}
	return page, nil
}

// ListMine returns events created by the caller, with counts.
func (s *EventService) ListMine(ctx context.Context, creatorID string) ([]EventWithCount, error) {
	items, err := s.eventsRepo.ListByCreator(ctx, creatorID)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	return s.attachCounts(ctx, items)
}

// Update applies a partial update. Only the creator may mutate an
// event; ownership is an explicit predicate, not a role.
func (s *EventService) Update(ctx context.Context, eventID, callerID string, input EventUpdateInput) (*EventWithCount, error) {
	event, err := s.eventsRepo.GetByID(ctx, eventID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFound("event", nil)
		}
		return nil, apperrors.MapError(err)
	}
	if event.CreatorID != callerID {
		return nil, apperrors.NewForbidden("not enough permissions")
	}

	if input.Title != nil {
		if strings.TrimSpace(*input.Title) == "" {
			return nil, apperrors.NewValidationError("title cannot be empty", nil)
		}
		event.Title = strings.TrimSpace(*input.Title)
	}
	if input.Description != nil {
		event.Description = strings.TrimSpace(*input.Description)
	}
	if input.Location != nil {
		if strings.TrimSpace(*input.Location) == "" {
			return nil, apperrors.NewValidationError("location cannot be empty", nil)
		}
		event.Location = strings.TrimSpace(*input.Location)
	}
	if input.EventTime != nil {
		event.EventTime = *input.EventTime
	}
	if input.Capacity != nil {
		if *input.Capacity <= 0 || *input.Capacity > maxCapacity {
			return nil, apperrors.NewValidationError("capacity must be a positive integer", nil)
		}
		event.Capacity = *input.Capacity
	}
	if input.PriceCents != nil {
		if *input.PriceCents < 0 {
			return nil, apperrors.NewValidationError("price cannot be negative", nil)
		}
		event.PriceCents = *input.PriceCents
	}

	if err := s.eventsRepo.Update(ctx, event); err != nil {
		return nil, apperrors.MapError(err)
	}

	s.publishEvent(ctx, events.Event{
		Type:    events.EventEventUpdated,
		EventID: event.ID,
		ActorID: callerID,
		Payload: events.EventChangedPayload{Title: event.Title, Status: event.Status},
	})

	count, err := s.orders.CountActiveByEvent(ctx, eventID)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	return &EventWithCount{Event: *event, RegisteredCount: count}, nil
}

// Delete removes an event. Creator-only.
func (s *EventService) Delete(ctx context.Context, eventID, callerID string) error {
	event, err := s.eventsRepo.GetByID(ctx, eventID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return apperrors.NewNotFound("event", nil)
		}
		return apperrors.MapError(err)
	}
	if event.CreatorID != callerID {
		return apperrors.NewForbidden("not enough permissions")
	}

	if err := s.eventsRepo.Delete(ctx, eventID); err != nil {
		return apperrors.MapError(err)
	}

	s.publishEvent(ctx, events.Event{
		Type:    events.EventEventDeleted,
		EventID: eventID,
		ActorID: callerID,
		Payload: events.EventChangedPayload{Title: event.Title, Status: event.Status},
	})
	return nil
}

func (s *EventService) attachCounts(ctx context.Context, items []domain.Event) ([]EventWithCount, error) {
	ids := make([]string, 0, len(items))
	for _, event := range items {
		ids = append(ids, event.ID)
	}
	counts, err := s.orders.ActiveCountsByEvents(ctx, ids)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	result := make([]EventWithCount, 0, len(items))
	for _, event := range items {
		result = append(result, EventWithCount{Event: event, RegisteredCount: counts[event.ID]})
	}
	return result, nil
}

func (s *EventService) publishEvent(ctx context.Context, event events.Event) {
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

func listFingerprint(input EventListInput) string {
	search, location := "", ""
	if input.Search != nil {
		search = *input.Search
	}
	if input.Location != nil {
		location = *input.Location
	}
	from, to := "", ""
	if input.DateFrom != nil {
		from = input.DateFrom.UTC().Format(time.RFC3339)
	}
	if input.DateTo != nil {
		to = input.DateTo.UTC().Format(time.RFC3339)
	}
	return fmt.Sprintf("%s|%s|%s|%s|%s|%d|%d", search, from, to, location, input.Status, input.Page, input.Limit)
}
